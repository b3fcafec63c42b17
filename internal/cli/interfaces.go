// -- internal/cli/interfaces.go --
package cli

import (
	"io/fs"
	"os"

	"github.com/srioo10/Meef/internal/analyzer"
	"github.com/srioo10/Meef/pkg/features"
)

// FileSystem abstracts OS file operations to enable hermetic testing.
type FileSystem interface {
	Stat(name string) (os.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WalkDir(root string, fn fs.WalkDirFunc) error
}

// Analyzer re-exports the subprocess capability so verb logic can take a
// fake without importing the adapter package.
type Analyzer = analyzer.Analyzer

// Classifier scores feature vectors; the trained model is external.
type Classifier = features.Classifier
