// Package catalog defines the deduplicated sample ledger contract.
//
// The ledger is the single source of truth for "has this sample been
// processed": at most one entry exists per fingerprint, and re-processing a
// cataloged sample never writes a duplicate row. Backends implement Store;
// callers stay agnostic of whether rows live in a CSV file or an LSM tree.
package catalog

import (
	"strings"

	"github.com/srioo10/Meef/pkg/models"
)

// Store is the catalog capability. The Exists-check-then-Append sequence is
// the one critical section of the whole pipeline: implementations must make
// Append atomic with respect to the duplicate check, so concurrent workers
// cannot both believe a fingerprint is new.
type Store interface {
	// Exists reports whether an entry with the fingerprint is already recorded.
	Exists(fingerprint string) bool

	// Append records a new entry. It returns false with a nil error when the
	// fingerprint is already present (dedup safety wins over completeness);
	// a non-nil error means the write failed and is fatal for this entry only.
	Append(entry models.CatalogEntry) (bool, error)

	// Entries returns all recorded entries.
	Entries() []models.CatalogEntry

	// Count returns the number of unique samples recorded.
	Count() int

	Close() error
}

// -- Behavior notes --

// noteVocabulary maps behavior flags to note tokens in a fixed order, so the
// notes column is deterministic for a given IR document.
var noteVocabulary = []struct {
	token string
	set   func(models.Behavior) bool
}{
	{"network", func(b models.Behavior) bool { return b.UsesNetwork }},
	{"fileops", func(b models.Behavior) bool { return b.UsesFileops }},
	{"registry", func(b models.Behavior) bool { return b.UsesRegistry }},
	{"memory", func(b models.Behavior) bool { return b.UsesMemory }},
	{"injection", func(b models.Behavior) bool { return b.UsesInjection }},
	{"crypto", func(b models.Behavior) bool { return b.UsesCrypto }},
	{"persistence", func(b models.Behavior) bool { return b.UsesPersist }},
}

// DeriveNotes maps the active behavior flags of an IR document to a single
// human-readable string, or "none" when no flag is set.
func DeriveNotes(b models.Behavior) string {
	var tokens []string
	for _, v := range noteVocabulary {
		if v.set(b) {
			tokens = append(tokens, v.token)
		}
	}
	if len(tokens) == 0 {
		return models.NotesNone
	}
	return strings.Join(tokens, ", ")
}

// SplitNotes is the inverse of DeriveNotes for reporting; "none" yields nil.
func SplitNotes(notes string) []string {
	if notes == "" || notes == models.NotesNone {
		return nil
	}
	parts := strings.Split(notes, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// -- Label inference --

// InferLabel resolves a sample's label. An explicit label other than
// "unknown" always wins; otherwise the path is matched against the known
// vocabulary (directory layouts like samples/malicious/... carry intent).
func InferLabel(path, explicit string) string {
	if explicit != "" && explicit != models.LabelUnknown {
		return explicit
	}
	lower := strings.ToLower(path)
	switch {
	case strings.Contains(lower, "malicious") || strings.Contains(lower, "malware"):
		return models.LabelMalicious
	case strings.Contains(lower, "benign") || strings.Contains(lower, "clean"):
		return models.LabelBenign
	case strings.Contains(lower, "dummy"):
		return models.LabelDummy
	}
	return models.LabelUnknown
}

// IsCSV selects the ledger backend from the catalog path, mirroring how the
// path's shape picks the storage engine elsewhere in the pipeline.
func IsCSV(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".csv")
}
