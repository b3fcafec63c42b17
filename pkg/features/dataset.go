// -- pkg/features/dataset.go --
package features

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/srioo10/Meef/pkg/models"
)

// Dataset build: one row per cataloged sample whose IR artifact still
// exists. Columns are the schema's feature names followed by the three
// bookkeeping columns; trainers drop the tail before fitting.
var datasetTailColumns = []string{"fingerprint", "label", "label_binary"}

// BuildDataset extracts a training CSV from catalog entries. Entries whose
// IR artifact is missing or unreadable are skipped and counted, never fatal.
func BuildDataset(entries []models.CatalogEntry, outPath string, schema Schema) (models.FeaturesOutput, error) {
	out := models.FeaturesOutput{
		Dataset:      outPath,
		FeatureCount: schema.Len(),
	}

	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, models.FilePermDir); err != nil {
			return out, fmt.Errorf("create dataset dir %q: %w", dir, err)
		}
	}
	f, err := os.OpenFile(outPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.FilePermReadWrite)
	if err != nil {
		return out, fmt.Errorf("create dataset %q: %w", outPath, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := append(append([]string{}, schema.Names...), datasetTailColumns...)
	if err := w.Write(header); err != nil {
		return out, fmt.Errorf("write dataset header: %w", err)
	}

	for _, entry := range entries {
		doc, err := LoadIR(entry.IRPath)
		if err != nil {
			out.SkippedIR++
			continue
		}

		vec := schema.Vector(doc)
		row := make([]string, 0, len(vec)+len(datasetTailColumns))
		for _, v := range vec {
			row = append(row, formatFeature(v))
		}
		row = append(row, entry.Fingerprint, entry.Label, labelBinary(entry.Label))

		if err := w.Write(row); err != nil {
			return out, fmt.Errorf("write dataset row %q: %w", entry.Fingerprint, err)
		}
		out.Samples++
		switch entry.Label {
		case models.LabelMalicious:
			out.Malicious++
		case models.LabelBenign:
			out.Benign++
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return out, fmt.Errorf("flush dataset %q: %w", outPath, err)
	}
	return out, nil
}

// LoadIR reads and decodes one IR artifact.
func LoadIR(path string) (models.IRDocument, error) {
	var doc models.IRDocument
	data, err := os.ReadFile(path)
	if err != nil {
		return doc, fmt.Errorf("read IR %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, fmt.Errorf("decode IR %q: %w", path, err)
	}
	return doc, nil
}

// formatFeature renders a feature value without float artifacts: integral
// values print as integers so datasets diff cleanly across runs.
func formatFeature(v float64) string {
	if v == float64(int64(v)) {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// labelBinary collapses labels to the training target: malicious is 1,
// everything else is 0.
func labelBinary(label string) string {
	if label == models.LabelMalicious {
		return "1"
	}
	return "0"
}
