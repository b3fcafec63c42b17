// Package pebbledb backs the sample catalog with CockroachDB's Pebble.
//
// The CSV ledger scans every row into memory at open time; that is fine for
// thousands of samples but not for corpus-scale catalogs. Pebble's LSM tree
// gives point lookups per fingerprint without loading the world, pure Go with
// no CGO dependency, and atomic batch writes for entry-plus-metadata updates.
package pebbledb

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/srioo10/Meef/pkg/models"
)

// Key prefixes simulate logical buckets in Pebble's flat key space.
var (
	prefixEntries = []byte("entry:") // entry:<fingerprint> -> Gob/JSON blob
	prefixMeta    = []byte("meta:")  // meta:<key> -> value
)

// Store implements catalog.Store over a Pebble database directory.
type Store struct {
	db *pebble.DB

	// Serializes the Exists-then-Append sequence. Pebble itself is safe for
	// concurrent use, but the dedup contract needs check and write to be one
	// atomic step across workers.
	mu sync.Mutex
}

// Options configures the store.
type Options struct {
	ReadOnly  bool
	CacheSize int64 // block cache size in bytes (default 8MB)
}

// Open opens or creates a Pebble-backed catalog at dir.
func Open(dir string, opts Options) (*Store, error) {
	if opts.CacheSize == 0 {
		opts.CacheSize = 8 << 20
	}
	pebbleOpts := &pebble.Options{
		Cache: pebble.NewCache(opts.CacheSize),
	}
	if opts.ReadOnly {
		pebbleOpts.ReadOnly = true
	}

	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog db %q: %w", dir, err)
	}

	s := &Store{db: db}
	if !opts.ReadOnly {
		if _, err := s.getMeta("created_at"); err != nil {
			s.setMeta("created_at", time.Now().Format(time.RFC3339))
		}
	}
	return s, nil
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func entryKey(fingerprint string) []byte {
	return append(append([]byte(nil), prefixEntries...), []byte(fingerprint)...)
}

func metaKey(key string) []byte {
	return append(append([]byte(nil), prefixMeta...), []byte(key)...)
}

// decodeEntry transparently handles both JSON (external imports) and Gob
// (internal storage) encodings.
func decodeEntry(data []byte, e *models.CatalogEntry) error {
	if len(data) == 0 {
		return fmt.Errorf("empty catalog entry data")
	}
	if data[0] == '{' {
		return json.Unmarshal(data, e)
	}
	return gob.NewDecoder(bytes.NewReader(data)).Decode(e)
}

// Exists reports whether the fingerprint is already cataloged.
func (s *Store) Exists(fingerprint string) bool {
	_, closer, err := s.db.Get(entryKey(fingerprint))
	if err != nil {
		return false
	}
	closer.Close()
	return true
}

// Append records the entry unless its fingerprint is already present.
// Returns false with a nil error on a duplicate.
func (s *Store) Append(entry models.CatalogEntry) (bool, error) {
	if entry.Fingerprint == "" {
		return false, fmt.Errorf("catalog entry missing fingerprint")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey(entry.Fingerprint)
	if _, closer, err := s.db.Get(key); err == nil {
		closer.Close()
		return false, nil
	} else if err != pebble.ErrNotFound {
		return false, fmt.Errorf("check catalog entry %q: %w", entry.Fingerprint, err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(entry); err != nil {
		return false, fmt.Errorf("encode catalog entry %q: %w", entry.Fingerprint, err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()

	if err := batch.Set(key, buf.Bytes(), pebble.Sync); err != nil {
		return false, fmt.Errorf("store catalog entry %q: %w", entry.Fingerprint, err)
	}
	batch.Set(metaKey("last_updated_at"), []byte(time.Now().Format(time.RFC3339)), pebble.Sync)

	if err := batch.Commit(pebble.Sync); err != nil {
		return false, fmt.Errorf("commit catalog entry %q: %w", entry.Fingerprint, err)
	}
	return true, nil
}

// Get retrieves the entry for a fingerprint.
func (s *Store) Get(fingerprint string) (*models.CatalogEntry, error) {
	data, closer, err := s.db.Get(entryKey(fingerprint))
	if err != nil {
		if err == pebble.ErrNotFound {
			return nil, fmt.Errorf("catalog entry %q not found", fingerprint)
		}
		return nil, fmt.Errorf("read catalog entry %q: %w", fingerprint, err)
	}
	defer closer.Close()

	e := &models.CatalogEntry{}
	if err := decodeEntry(data, e); err != nil {
		return nil, fmt.Errorf("decode catalog entry %q: %w", fingerprint, err)
	}
	return e, nil
}

// Entries returns all cataloged entries in key order.
func (s *Store) Entries() []models.CatalogEntry {
	var out []models.CatalogEntry
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixEntries,
		UpperBound: incrementLastByte(prefixEntries),
	})
	if err != nil {
		return nil
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefixEntries) {
			break
		}
		var e models.CatalogEntry
		if err := decodeEntry(iter.Value(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count returns the number of cataloged samples.
func (s *Store) Count() int {
	count := 0
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefixEntries,
		UpperBound: incrementLastByte(prefixEntries),
	})
	if err != nil {
		return 0
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefixEntries) {
			break
		}
		count++
	}
	return count
}

// DiskSpaceUsed reports the database's on-disk footprint.
func (s *Store) DiskSpaceUsed() int64 {
	return int64(s.db.Metrics().DiskSpaceUsage())
}

// ImportEntries loads entries in a single batch, skipping fingerprints that
// already exist. Used to migrate a CSV ledger into an indexed catalog.
func (s *Store) ImportEntries(entries []models.CatalogEntry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	batch := s.db.NewBatch()
	defer batch.Close()

	imported := 0
	for i := range entries {
		e := entries[i]
		if e.Fingerprint == "" {
			continue
		}
		key := entryKey(e.Fingerprint)
		if _, closer, err := s.db.Get(key); err == nil {
			closer.Close()
			continue
		}

		var buf bytes.Buffer
		if err := gob.NewEncoder(&buf).Encode(e); err != nil {
			return imported, fmt.Errorf("encode entry %q: %w", e.Fingerprint, err)
		}
		if err := batch.Set(key, buf.Bytes(), pebble.Sync); err != nil {
			return imported, fmt.Errorf("store entry %q: %w", e.Fingerprint, err)
		}
		imported++
	}

	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, fmt.Errorf("commit import batch: %w", err)
	}
	return imported, nil
}

func (s *Store) setMeta(key, value string) error {
	return s.db.Set(metaKey(key), []byte(value), pebble.Sync)
}

func (s *Store) getMeta(key string) (string, error) {
	data, closer, err := s.db.Get(metaKey(key))
	if err != nil {
		return "", err
	}
	defer closer.Close()
	return string(data), nil
}

func incrementLastByte(prefix []byte) []byte {
	if len(prefix) == 0 {
		return nil
	}
	result := make([]byte, len(prefix))
	copy(result, prefix)
	for i := len(result) - 1; i >= 0; i-- {
		if result[i] < 0xff {
			result[i]++
			return result
		}
		result[i] = 0
	}
	return nil
}
