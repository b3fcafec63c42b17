package catalog

import (
	"github.com/srioo10/Meef/pkg/catalog/csvledger"
	"github.com/srioo10/Meef/pkg/catalog/pebbledb"
)

// Open picks the ledger backend from the path's shape: a .csv path opens the
// flat CSV ledger, anything else is treated as a Pebble database directory.
func Open(path string, readOnly bool) (Store, error) {
	if IsCSV(path) {
		return csvledger.Open(path)
	}
	return pebbledb.Open(path, pebbledb.Options{ReadOnly: readOnly})
}
