// -- internal/cli/stats.go --
package cli

import (
	"fmt"
	"io"

	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/models"
)

// RunStats reports catalog composition: entry count, label distribution,
// and how often each behavior note appears.
func RunStats(catalogPath string, out io.Writer) error {
	store, err := catalog.Open(catalogPath, true)
	if err != nil {
		return fmt.Errorf("open catalog %q: %w", catalogPath, err)
	}
	defer store.Close()

	report := models.StatsOutput{
		Catalog: catalogPath,
		Backend: BackendName(catalogPath),
		Entries: store.Count(),
		ByLabel: make(map[string]int),
		ByNote:  make(map[string]int),
	}
	for _, entry := range store.Entries() {
		report.ByLabel[entry.Label]++
		for _, note := range catalog.SplitNotes(entry.Notes) {
			report.ByNote[note]++
		}
	}
	report.DiskSize = CatalogDiskSize(RealFileSystem{}, catalogPath)

	return writeJSON(out, report)
}
