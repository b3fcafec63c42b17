// Package csvledger backs the sample catalog with an append-only CSV file.
//
// The file has exactly one header row, written when the ledger is first
// created; every later process appends rows without rewriting the header.
// Dedup is computed by scanning the whole file into an in-memory set at open
// time; there is no index structure beyond that set.
package csvledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/srioo10/Meef/pkg/models"
)

// Ledger implements catalog.Store over a CSV file.
type Ledger struct {
	path string

	mu      sync.Mutex
	seen    map[string]bool
	entries []models.CatalogEntry
}

// Open loads the ledger at path. A missing file is not an error; the file
// is created lazily on the first Append. A ledger that exists but cannot be
// read degrades to "no existing entries" rather than aborting the run; the
// dedup set is simply rebuilt from scratch.
func Open(path string) (*Ledger, error) {
	l := &Ledger{
		path: path,
		seen: make(map[string]bool),
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return l, nil
		}
		fmt.Fprintf(os.Stderr, "warning: catalog %s unreadable, treating as empty: %v\n", path, err)
		return l, nil
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate the minimal ledger variant without ir_path

	header, err := r.Read()
	if err != nil {
		// Empty or corrupt file; the header will be rewritten on first append.
		return l, nil
	}
	col := columnIndex(header)

	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: skipping malformed catalog row: %v\n", err)
			continue
		}
		e := models.CatalogEntry{
			Fingerprint: field(row, col["fingerprint"]),
			Label:       field(row, col["label"]),
			Source:      field(row, col["source"]),
			FirstSeen:   field(row, col["first_seen"]),
			LocalPath:   field(row, col["local_path"]),
			IRPath:      field(row, col["ir_path"]),
			Notes:       field(row, col["notes"]),
		}
		if e.Fingerprint == "" {
			continue
		}
		if l.seen[e.Fingerprint] {
			continue
		}
		l.seen[e.Fingerprint] = true
		l.entries = append(l.entries, e)
	}
	return l, nil
}

func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(models.CatalogColumns))
	// Absent columns read as empty, not as column zero.
	for _, name := range models.CatalogColumns {
		idx[name] = -1
	}
	for i, name := range header {
		// Legacy ledgers name the fingerprint column after the digest algorithm.
		if name == "sha256" {
			name = "fingerprint"
		}
		idx[name] = i
	}
	return idx
}

func field(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Exists reports whether the fingerprint was already cataloged.
func (l *Ledger) Exists(fingerprint string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seen[fingerprint]
}

// Append writes one row. The duplicate check and the physical write happen
// under the same lock, so two workers racing on the same fingerprint cannot
// both append. Returns false when the entry was already present.
func (l *Ledger) Append(entry models.CatalogEntry) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.seen[entry.Fingerprint] {
		return false, nil
	}

	if err := l.ensureHeader(); err != nil {
		return false, err
	}

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_WRONLY, models.FilePermReadWrite)
	if err != nil {
		return false, fmt.Errorf("open catalog for append: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		entry.Fingerprint,
		entry.Label,
		entry.Source,
		entry.FirstSeen,
		entry.LocalPath,
		entry.IRPath,
		entry.Notes,
	}); err != nil {
		return false, fmt.Errorf("write catalog row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return false, fmt.Errorf("flush catalog row: %w", err)
	}

	l.seen[entry.Fingerprint] = true
	l.entries = append(l.entries, entry)
	return true, nil
}

// ensureHeader creates the ledger file with its column header if it does not
// exist yet or is empty. Callers hold l.mu.
func (l *Ledger) ensureHeader() error {
	info, err := os.Stat(l.path)
	if err == nil && info.Size() > 0 {
		return nil
	}
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("stat catalog: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(l.path), models.FilePermDir); err != nil {
		return fmt.Errorf("create catalog directory: %w", err)
	}

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, models.FilePermReadWrite)
	if err != nil {
		return fmt.Errorf("create catalog: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(models.CatalogColumns); err != nil {
		return fmt.Errorf("write catalog header: %w", err)
	}
	w.Flush()
	return w.Error()
}

// Entries returns a copy of the loaded rows plus anything appended since open.
func (l *Ledger) Entries() []models.CatalogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.CatalogEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *Ledger) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.seen)
}

// Close is a no-op; every Append already flushes to disk.
func (l *Ledger) Close() error { return nil }

// Path returns the backing file location.
func (l *Ledger) Path() string { return l.path }
