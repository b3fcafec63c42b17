// -- pkg/features/metadata.go --
package features

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/srioo10/Meef/pkg/models"
)

// ModelMetadata is the sidecar persisted next to a trained model. Its
// feature_names field is the authoritative schema for inference against
// that model.
type ModelMetadata struct {
	FeatureNames []string           `json:"feature_names"`
	NumFeatures  int                `json:"num_features"`
	ModelType    string             `json:"model_type,omitempty"`
	Metrics      map[string]float64 `json:"metrics,omitempty"`
	TrainedAt    string             `json:"trained_at,omitempty"`
}

// Schema returns the metadata's feature layout.
func (m ModelMetadata) Schema() Schema {
	return Schema{Names: m.FeatureNames}
}

// SaveMetadata writes the sidecar as indented JSON.
func SaveMetadata(path string, m ModelMetadata) error {
	m.NumFeatures = len(m.FeatureNames)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode model metadata: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, models.FilePermDir); err != nil {
			return fmt.Errorf("create metadata dir %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, data, models.FilePermReadWrite); err != nil {
		return fmt.Errorf("write model metadata %q: %w", path, err)
	}
	return nil
}

// LoadMetadata reads a model sidecar and validates its schema.
func LoadMetadata(path string) (ModelMetadata, error) {
	var m ModelMetadata
	data, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("read model metadata %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode model metadata %q: %w", path, err)
	}
	if len(m.FeatureNames) == 0 {
		return m, fmt.Errorf("model metadata %q carries no feature names", path)
	}
	if m.NumFeatures != 0 && m.NumFeatures != len(m.FeatureNames) {
		return m, fmt.Errorf("model metadata %q: num_features %d does not match %d names",
			path, m.NumFeatures, len(m.FeatureNames))
	}
	return m, nil
}

// ResolveSchema loads the schema for inference. A readable sidecar wins;
// otherwise the built-in default applies. The returned source names which.
func ResolveSchema(metadataPath string) (Schema, string) {
	if metadataPath != "" {
		if m, err := LoadMetadata(metadataPath); err == nil {
			return m.Schema(), metadataPath
		}
	}
	return DefaultSchema(), "default"
}
