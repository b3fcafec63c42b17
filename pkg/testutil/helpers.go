// Package testutil provides shared fixtures for pipeline tests: sample
// files, IR artifacts, and fake parser scripts.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/srioo10/Meef/pkg/models"
)

// WriteSample creates a sample file and returns its path.
// Exported for use in external test packages.
func WriteSample(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create sample dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write sample %s: %v", name, err)
	}
	return path
}

// WriteIRDocument marshals an IR document to path.
func WriteIRDocument(t *testing.T, path string, doc models.IRDocument) {
	t.Helper()
	data, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("failed to encode IR document: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create IR dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write IR document: %v", err)
	}
}

// ParserScript creates an executable shell script standing in for the
// external parser. The body sees the sample as $1 and the artifact as $2.
func ParserScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	script := "#!/bin/sh\n" + body + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write parser script: %v", err)
	}
	return path
}
