package analyzer

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/srioo10/Meef/pkg/models"
	"github.com/srioo10/Meef/pkg/testutil"
)

func TestAnalyzeSuccess(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.ParserScript(t, dir, "parser.sh", `echo "parsed $1" ; printf '{}' > "$2"`)

	input := filepath.Join(dir, "sample.asm")
	os.WriteFile(input, []byte("mov eax, 1"), 0o644)
	output := filepath.Join(dir, "out", "sample_ir.json")

	s := New(tool, 5*time.Second)
	if err := s.Analyze(context.Background(), input, output); err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("artifact missing: %v", err)
	}
	if s.LastResult.Stdout == "" {
		t.Error("stdout not captured")
	}
}

func TestAnalyzeZeroExitWithoutArtifact(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.ParserScript(t, dir, "parser.sh", `exit 0`)

	s := New(tool, 5*time.Second)
	err := s.Analyze(context.Background(), filepath.Join(dir, "a.asm"), filepath.Join(dir, "a_ir.json"))
	if !errors.Is(err, ErrAnalysis) {
		t.Errorf("err = %v, want ErrAnalysis", err)
	}
}

func TestAnalyzeNonZeroExit(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.ParserScript(t, dir, "parser.sh", `echo "bad opcode at 0x40" >&2 ; exit 3`)

	s := New(tool, 5*time.Second)
	err := s.Analyze(context.Background(), filepath.Join(dir, "a.asm"), filepath.Join(dir, "a_ir.json"))
	if !errors.Is(err, ErrAnalysis) {
		t.Fatalf("err = %v, want ErrAnalysis", err)
	}
	if s.LastResult.Stderr == "" {
		t.Error("stderr not captured")
	}
}

func TestAnalyzeTimeout(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.ParserScript(t, dir, "parser.sh", `sleep 5 ; printf '{}' > "$2"`)

	s := New(tool, 100*time.Millisecond)
	err := s.Analyze(context.Background(), filepath.Join(dir, "a.asm"), filepath.Join(dir, "a_ir.json"))
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	if errors.Is(err, ErrAnalysis) {
		t.Error("timeout must not be classified as a generic analysis failure")
	}
}

func TestAnalyzeCanceledContext(t *testing.T) {
	dir := t.TempDir()
	tool := testutil.ParserScript(t, dir, "parser.sh", `sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	s := New(tool, 10*time.Second)
	err := s.Analyze(ctx, filepath.Join(dir, "a.asm"), filepath.Join(dir, "a_ir.json"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestToolMissingViaLookPath(t *testing.T) {
	original := lookPathFunc
	lookPathFunc = func(file string) (string, error) {
		return "", exec.ErrNotFound
	}
	defer func() { lookPathFunc = original }()

	s := New("meef-parser", time.Second)
	err := s.Analyze(context.Background(), "a.asm", "a_ir.json")
	if !errors.Is(err, ErrToolMissing) {
		t.Errorf("err = %v, want ErrToolMissing", err)
	}
	if s.Available() {
		t.Error("Available = true with missing tool")
	}
}

func TestToolMissingExplicitPath(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "no-such-parser"), time.Second)
	err := s.Analyze(context.Background(), "a.asm", "a_ir.json")
	if !errors.Is(err, ErrToolMissing) {
		t.Errorf("err = %v, want ErrToolMissing", err)
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		want models.FailReason
	}{
		{ErrToolMissing, models.ReasonToolMissing},
		{ErrTimeout, models.ReasonTimeout},
		{ErrAnalysis, models.ReasonAnalysisError},
		{errors.New("anything else"), models.ReasonAnalysisError},
	}
	for _, tc := range cases {
		if got := ClassifyFailure(tc.err); got != tc.want {
			t.Errorf("ClassifyFailure(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestIRPathFor(t *testing.T) {
	cases := []struct {
		input, outDir, want string
	}{
		{"/samples/trojan.asm", "/out", "/out/trojan_ir.json"},
		{"relative/x.asm", "ir", "ir/x_ir.json"},
		{"/samples/noext", "/out", "/out/noext_ir.json"},
	}
	for _, tc := range cases {
		if got := IRPathFor(tc.input, tc.outDir); got != tc.want {
			t.Errorf("IRPathFor(%q, %q) = %q, want %q", tc.input, tc.outDir, got, tc.want)
		}
	}
}
