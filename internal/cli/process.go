// -- internal/cli/process.go --
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/srioo10/Meef/internal/analyzer"
	"github.com/srioo10/Meef/internal/batch"
	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/models"
)

// ProcessOptions carries the process verb's resolved flags.
type ProcessOptions struct {
	File      string
	Path      string
	Batch     string
	Recursive bool

	Catalog   string
	OutputDir string
	Tool      string

	Parallelism int
	Timeout     time.Duration
	Label       string
	Source      string

	StopOnError bool
	Force       bool
	DryRun      bool
	Verbose     bool

	// NewAnalyzer overrides the subprocess adapter in tests.
	NewAnalyzer func() Analyzer
}

func (o ProcessOptions) target() string {
	switch {
	case o.File != "":
		return o.File
	case o.Path != "":
		return o.Path
	}
	return o.Batch
}

// RunProcess executes the full pipeline for one invocation and writes the
// report to out. A non-nil error means the run itself could not proceed;
// per-sample failures are reported in the document and via the summary.
func RunProcess(ctx context.Context, opts ProcessOptions, out io.Writer) (models.Summary, error) {
	paths, err := batch.Discover(opts.File, opts.Path, opts.Batch, opts.Recursive)
	if err != nil {
		return models.Summary{}, err
	}

	report := models.ProcessOutput{
		Target:    opts.target(),
		Catalog:   opts.Catalog,
		Backend:   BackendName(opts.Catalog),
		OutputDir: opts.OutputDir,
		DryRun:    opts.DryRun,
	}

	if opts.DryRun {
		// Planning needs no store; opening one could create it.
		orch := batch.New(nil, batch.Options{OutputDir: opts.OutputDir, DryRun: true})
		planned := orch.Plan(paths)
		report.Summary = models.Summary{Total: len(planned)}
		for _, p := range planned {
			report.Items = append(report.Items, models.ItemResult{
				Input:  p.Input,
				IRPath: p.IRPath,
				State:  models.StateDiscovered,
			})
		}
		return report.Summary, writeJSON(out, report)
	}

	store, err := catalog.Open(opts.Catalog, false)
	if err != nil {
		return models.Summary{}, fmt.Errorf("open catalog %q: %w", opts.Catalog, err)
	}
	defer store.Close()

	var onResult func(models.ItemResult)
	if opts.Verbose {
		onResult = func(r models.ItemResult) {
			line := string(r.State)
			if r.Skipped {
				line += " (skipped)"
			}
			if r.Reason != "" {
				line += ": " + string(r.Reason)
			}
			fmt.Fprintf(os.Stderr, "%s  %s\n", r.Input, line)
		}
	}

	orch := batch.New(store, batch.Options{
		Tool:        opts.Tool,
		OutputDir:   opts.OutputDir,
		Parallelism: opts.Parallelism,
		Timeout:     opts.Timeout,
		Label:       opts.Label,
		Source:      opts.Source,
		StopOnError: opts.StopOnError,
		Force:       opts.Force,
		NewAnalyzer: wrapAnalyzer(opts.NewAnalyzer),
		OnResult:    onResult,
	})

	results, summary, runErr := orch.Run(ctx, paths)
	report.Items = results
	report.Summary = summary
	if runErr != nil {
		report.Error = runErr.Error()
	}

	if err := writeJSON(out, report); err != nil {
		return summary, err
	}
	return summary, runErr
}

func wrapAnalyzer(f func() Analyzer) func() analyzer.Analyzer {
	if f == nil {
		return nil
	}
	return func() analyzer.Analyzer { return f() }
}
