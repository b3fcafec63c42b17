// -- internal/analyzer/analyzer.go --

// Package analyzer wraps the external IR-producing tool as a subprocess.
//
// The tool contract is deliberately thin: invoke <parser> <input> <output>,
// wait bounded by a timeout, and trust the run only when the process exits
// zero AND the IR artifact exists on disk. A zero exit with no artifact is
// still a failure; tools lie.
package analyzer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/srioo10/Meef/pkg/models"
)

// -- Internal Hooks for Testing --
var (
	lookPathFunc = exec.LookPath
	execCmdFunc  = exec.CommandContext
)

// Sentinel errors classifying why an analysis run failed. Callers map these
// to failure reasons without parsing error strings.
var (
	ErrToolMissing = errors.New("analysis tool not found in PATH")
	ErrTimeout     = errors.New("analysis timed out")
	ErrAnalysis    = errors.New("analysis failed")
)

// Analyzer produces an IR artifact for a single sample.
type Analyzer interface {
	Analyze(ctx context.Context, inputPath, outputPath string) error
}

// Result carries the captured output of one tool invocation.
type Result struct {
	Stdout   string
	Stderr   string
	Duration time.Duration
}

// Subprocess runs the configured parser binary per sample.
type Subprocess struct {
	// Tool is the parser command. A bare name is resolved via PATH, a path
	// with a separator is used as-is.
	Tool string

	// Timeout bounds each invocation. Zero means DefaultAnalysisTimeout.
	Timeout time.Duration

	// LastResult holds the stdout/stderr of the most recent invocation for
	// diagnostics. Not safe for concurrent readers; the orchestrator gives
	// each worker its own Subprocess.
	LastResult Result
}

// New returns a Subprocess adapter for the given tool.
func New(tool string, timeout time.Duration) *Subprocess {
	if timeout <= 0 {
		timeout = models.DefaultAnalysisTimeout
	}
	return &Subprocess{Tool: tool, Timeout: timeout}
}

// resolveTool locates the parser binary. Explicit paths are checked for
// existence, bare names go through PATH lookup.
func (s *Subprocess) resolveTool() (string, error) {
	if strings.ContainsRune(s.Tool, os.PathSeparator) {
		if _, err := os.Stat(s.Tool); err != nil {
			return "", fmt.Errorf("%w: %q: %v", ErrToolMissing, s.Tool, err)
		}
		return s.Tool, nil
	}
	path, err := lookPathFunc(s.Tool)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrToolMissing, s.Tool)
	}
	return path, nil
}

// Analyze invokes the tool on inputPath, expecting it to write outputPath.
func (s *Subprocess) Analyze(ctx context.Context, inputPath, outputPath string) error {
	toolPath, err := s.resolveTool()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, models.FilePermDir); err != nil {
			return fmt.Errorf("%w: create output dir %q: %v", ErrAnalysis, dir, err)
		}
	}

	runCtx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := execCmdFunc(runCtx, toolPath, inputPath, outputPath)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	s.LastResult = Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if runErr != nil {
		// The deadline firing shows up as a killed process; report the
		// timeout, not the kill.
		if runCtx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w after %s: %q", ErrTimeout, s.Timeout, inputPath)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %q: %v: %s", ErrAnalysis, inputPath, runErr, firstLine(stderr.String()))
	}

	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("%w: tool exited 0 but produced no artifact at %q", ErrAnalysis, outputPath)
	}
	return nil
}

// Available reports whether the parser can be resolved, without running it.
func (s *Subprocess) Available() bool {
	_, err := s.resolveTool()
	return err == nil
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

// ClassifyFailure maps an Analyze error to the catalog failure taxonomy.
func ClassifyFailure(err error) models.FailReason {
	switch {
	case errors.Is(err, ErrToolMissing):
		return models.ReasonToolMissing
	case errors.Is(err, ErrTimeout):
		return models.ReasonTimeout
	default:
		return models.ReasonAnalysisError
	}
}

// IRPathFor derives the artifact path for a sample: the input stem plus
// "_ir.json", placed under outputDir.
func IRPathFor(inputPath, outputDir string) string {
	base := filepath.Base(inputPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+models.IRSuffix)
}
