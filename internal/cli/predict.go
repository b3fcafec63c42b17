// -- internal/cli/predict.go --
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/srioo10/Meef/internal/analyzer"
	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/features"
	"github.com/srioo10/Meef/pkg/hashing"
	"github.com/srioo10/Meef/pkg/models"
)

// PredictOptions carries the predict verb's resolved flags.
type PredictOptions struct {
	File      string
	OutputDir string
	Tool      string
	Timeout   time.Duration
	// Metadata points at the trained model's sidecar. Missing or unreadable,
	// the built-in schema is used and reported as such.
	Metadata string

	Analyzer   Analyzer
	Classifier Classifier
}

// RunPredict runs the inference path for one sample: analyze, extract with
// the model's schema, and optionally score. The vector alone is still a
// useful artifact when no classifier is wired, so scoring is best effort.
func RunPredict(ctx context.Context, opts PredictOptions, out io.Writer) error {
	fingerprint, err := hashing.FileSHA256(opts.File)
	if err != nil {
		return fmt.Errorf("fingerprint %q: %w", opts.File, err)
	}

	an := opts.Analyzer
	if an == nil {
		an = analyzer.New(opts.Tool, opts.Timeout)
	}
	irPath := analyzer.IRPathFor(opts.File, opts.OutputDir)
	if err := an.Analyze(ctx, opts.File, irPath); err != nil {
		return err
	}

	doc, err := features.LoadIR(irPath)
	if err != nil {
		return err
	}

	schema, source := features.ResolveSchema(opts.Metadata)
	report := models.PredictOutput{
		Input:        opts.File,
		Fingerprint:  fingerprint,
		IRPath:       irPath,
		SchemaSource: source,
		FeatureNames: schema.Names,
		Vector:       schema.Vector(doc),
		Notes:        catalog.DeriveNotes(doc.Behavior),
	}

	if opts.Classifier != nil {
		pred, err := opts.Classifier.Predict(report.Vector)
		if err != nil {
			return fmt.Errorf("classify %q: %w", opts.File, err)
		}
		report.Label = pred.Label
		report.Confidence = pred.Confidence
	}

	return writeJSON(out, report)
}
