// -- internal/cli/utils.go --
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/models"
)

// -- Real Implementations --

// RealFileSystem implements FileSystem using the actual OS.
type RealFileSystem struct{}

func (RealFileSystem) Stat(name string) (os.FileInfo, error)  { return os.Stat(name) }
func (RealFileSystem) ReadFile(name string) ([]byte, error)   { return os.ReadFile(name) }
func (RealFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	return filepath.WalkDir(root, fn)
}

// -- Helpers --

// BackendName reports which store implementation a catalog path selects.
func BackendName(path string) string {
	if catalog.IsCSV(path) {
		return models.BackendCSV
	}
	return models.BackendPebbleDB
}

// CatalogDiskSize measures a catalog's on-disk footprint for reporting.
// A CSV ledger is one file; a Pebble catalog is a directory tree.
func CatalogDiskSize(fsys FileSystem, path string) int64 {
	info, err := fsys.Stat(path)
	if err != nil {
		return 0
	}
	if !info.IsDir() {
		return info.Size()
	}
	var total int64
	fsys.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if fi, err := d.Info(); err == nil {
			total += fi.Size()
		}
		return nil
	})
	return total
}

// HumanizeBytes renders a byte count for terminal output.
func HumanizeBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}

// writeJSON renders a verb's report document.
func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ExitError prints the error and terminates with status 1.
func ExitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func levenshtein(s1, s2 string) int {
	r1, r2 := []rune(s1), []rune(s2)
	n, m := len(r1), len(r2)
	if n > m {
		r1, r2 = r2, r1
		n, m = m, n
	}
	current := make([]int, n+1)
	for i := 0; i <= n; i++ {
		current[i] = i
	}
	for j := 1; j <= m; j++ {
		previous := current[0]
		current[0] = j
		targetChar := r2[j-1]
		for i := 1; i <= n; i++ {
			temp := current[i]
			cost := 0
			if r1[i-1] != targetChar {
				cost = 1
			}
			current[i] = min(current[i-1]+1, current[i]+1, previous+cost)
			previous = temp
		}
	}
	return current[n]
}

// SuggestCommand proposes the closest verb for a typo, or "" when nothing
// is plausibly close.
func SuggestCommand(cmd string) string {
	commands := []string{"process", "features", "predict", "stats", "watch", "version"}
	bestMatch := ""
	minDist := 100
	cmdLower := strings.ToLower(cmd)
	for _, c := range commands {
		dist := levenshtein(cmdLower, c)
		if dist < minDist {
			minDist = dist
			bestMatch = c
		}
	}
	if minDist <= 2 {
		return bestMatch
	}
	return ""
}
