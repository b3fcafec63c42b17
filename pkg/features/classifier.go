// -- pkg/features/classifier.go --
package features

// Prediction is one classifier verdict over a feature vector.
type Prediction struct {
	Label      string
	Confidence float64
}

// Classifier scores schema-aligned feature vectors. The trained model lives
// outside this repo; implementations bridge to whatever serves it. The
// vector handed in must match the schema the model was trained against.
type Classifier interface {
	Predict(vector []float64) (Prediction, error)
}
