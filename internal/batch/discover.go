// -- internal/batch/discover.go --
package batch

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/srioo10/Meef/pkg/models"
)

// Discover resolves a single --file, --path, or --batch input into the
// ordered list of sample paths to process. Directory walks are sorted
// lexicographically so runs are reproducible.
func Discover(file, dir, batchList string, recursive bool) ([]string, error) {
	switch {
	case file != "":
		info, err := os.Stat(file)
		if err != nil {
			return nil, fmt.Errorf("sample %q: %w", file, err)
		}
		if info.IsDir() {
			return nil, fmt.Errorf("sample %q is a directory, use --path", file)
		}
		return []string{file}, nil

	case dir != "":
		return discoverDir(dir, recursive)

	case batchList != "":
		return readBatchList(batchList)
	}
	return nil, fmt.Errorf("no input given: one of --file, --path, or --batch is required")
}

func discoverDir(dir string, recursive bool) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("sample directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%q is not a directory, use --file", dir)
	}

	var paths []string
	if recursive {
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && hasSampleExtension(path) {
				paths = append(paths, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %q: %w", dir, err)
		}
	} else {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read %q: %w", dir, err)
		}
		for _, e := range entries {
			if !e.IsDir() && hasSampleExtension(e.Name()) {
				paths = append(paths, filepath.Join(dir, e.Name()))
			}
		}
	}

	sort.Strings(paths)
	return paths, nil
}

// readBatchList parses a manifest of sample paths, one per line. Blank lines
// and '#' comments are ignored. Relative paths resolve against the manifest's
// own directory, so manifests stay portable alongside their corpus.
func readBatchList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("batch list %q: %w", path, err)
	}
	defer f.Close()

	base := filepath.Dir(path)
	var paths []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if len(paths) >= models.MaxBatchListEntries {
			return nil, fmt.Errorf("batch list %q exceeds %d entries", path, models.MaxBatchListEntries)
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		paths = append(paths, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read batch list %q: %w", path, err)
	}
	return paths, nil
}

func hasSampleExtension(path string) bool {
	return strings.EqualFold(filepath.Ext(path), models.SampleExtension)
}
