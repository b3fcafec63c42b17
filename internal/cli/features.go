// -- internal/cli/features.go --
package cli

import (
	"fmt"
	"io"

	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/features"
)

// FeaturesOptions carries the features verb's resolved flags.
type FeaturesOptions struct {
	Catalog string
	Dataset string
	// SchemaOut, when set, persists the schema used for this dataset as a
	// model metadata sidecar so later inference can align to it.
	SchemaOut string
	// Metadata, when set, reuses a trained model's schema instead of the
	// built-in default.
	Metadata string
}

// RunFeatures builds a training dataset from every cataloged sample.
func RunFeatures(opts FeaturesOptions, out io.Writer) error {
	store, err := catalog.Open(opts.Catalog, true)
	if err != nil {
		return fmt.Errorf("open catalog %q: %w", opts.Catalog, err)
	}
	defer store.Close()

	schema := features.DefaultSchema()
	if opts.Metadata != "" {
		m, err := features.LoadMetadata(opts.Metadata)
		if err != nil {
			return err
		}
		schema = m.Schema()
	}

	report, err := features.BuildDataset(store.Entries(), opts.Dataset, schema)
	if err != nil {
		return err
	}
	report.Catalog = opts.Catalog

	if opts.SchemaOut != "" {
		err := features.SaveMetadata(opts.SchemaOut, features.ModelMetadata{
			FeatureNames: schema.Names,
		})
		if err != nil {
			return err
		}
		report.SchemaOut = opts.SchemaOut
	}

	if report.Samples == 0 && store.Count() > 0 {
		fmt.Fprintf(out, "warning: %d cataloged samples but no readable IR artifacts\n", store.Count())
	}
	return writeJSON(out, report)
}
