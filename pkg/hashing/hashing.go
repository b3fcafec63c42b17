// Package hashing computes content fingerprints for sample files.
//
// The fingerprint is a hex-encoded SHA-256 digest of the file's bytes: two
// files with identical content share a fingerprint regardless of name or
// path, which is what the catalog's dedup keys on.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	lru "github.com/hashicorp/golang-lru/v2"
)

// blockSize is the fixed read granularity. Files are never loaded whole,
// so arbitrarily large samples are safe to fingerprint.
const blockSize = 64 * 1024

// cacheSize bounds the digest cache; a batch run touches each file once,
// so this mainly helps watch mode and repeated dry-runs.
const cacheSize = 4096

type cacheKey struct {
	path    string
	size    int64
	modTime int64
}

// Hasher fingerprints files, memoizing results until a file's size or
// mtime changes. The zero value is not usable; call New.
type Hasher struct {
	cache *lru.Cache[cacheKey, string]
}

func New() *Hasher {
	// lru.New only fails on a non-positive size.
	c, _ := lru.New[cacheKey, string](cacheSize)
	return &Hasher{cache: c}
}

// FileSHA256 returns the hex-encoded SHA-256 digest of the file's content.
func (h *Hasher) FileSHA256(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	key := cacheKey{path: path, size: info.Size(), modTime: info.ModTime().UnixNano()}
	if digest, ok := h.cache.Get(key); ok {
		return digest, nil
	}

	digest, err := FileSHA256(path)
	if err != nil {
		return "", err
	}
	h.cache.Add(key, digest)
	return digest, nil
}

// FileSHA256 is the uncached digest computation. It streams the file in
// fixed-size blocks.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	hasher := sha256.New()
	buf := make([]byte, blockSize)
	if _, err := io.CopyBuffer(hasher, f, buf); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
