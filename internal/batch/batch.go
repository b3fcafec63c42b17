// -- internal/batch/batch.go --

// Package batch drives the sample pipeline: discover inputs, fan them out
// over a bounded worker pool, and fold every item's fate into one summary.
//
// Failures are per item. One broken sample never takes down the batch unless
// the caller asked for stop-on-error, and even then in-flight workers drain
// to completion; only new dispatch stops.
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/srioo10/Meef/internal/analyzer"
	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/hashing"
	"github.com/srioo10/Meef/pkg/models"
)

// Options configures one batch run.
type Options struct {
	// Tool is the parser command handed to each worker's analyzer.
	Tool string
	// OutputDir receives the IR artifacts.
	OutputDir string
	// Parallelism bounds concurrent workers; values below 1 mean 1.
	Parallelism int
	// Timeout bounds each parser invocation.
	Timeout time.Duration
	// Label overrides path-based label inference when not "unknown".
	Label string
	// Source tags the provenance column of new catalog rows.
	Source string
	// StopOnError stops dispatching new items after the first failure.
	StopOnError bool
	// Force re-analyzes samples whose fingerprint is already cataloged.
	// The ledger row is still never duplicated.
	Force bool
	// DryRun plans the work without invoking the parser or touching the
	// catalog.
	DryRun bool

	// NewAnalyzer builds a per-worker analyzer. Left nil, each worker gets
	// its own subprocess adapter for Tool.
	NewAnalyzer func() analyzer.Analyzer

	// OnResult, when set, observes each item as it reaches a terminal
	// state. Called serially under the results lock.
	OnResult func(models.ItemResult)
}

// Orchestrator runs batches against a catalog store.
type Orchestrator struct {
	opts   Options
	store  catalog.Store
	hasher *hashing.Hasher
	now    func() time.Time
}

// New wires an orchestrator to its catalog.
func New(store catalog.Store, opts Options) *Orchestrator {
	if opts.Parallelism < 1 {
		opts.Parallelism = models.DefaultParallelism
	}
	if opts.Timeout <= 0 {
		opts.Timeout = models.DefaultAnalysisTimeout
	}
	if opts.Source == "" {
		opts.Source = models.SourceLocal
	}
	if opts.NewAnalyzer == nil {
		tool := opts.Tool
		timeout := opts.Timeout
		opts.NewAnalyzer = func() analyzer.Analyzer {
			return analyzer.New(tool, timeout)
		}
	}
	return &Orchestrator{
		opts:   opts,
		store:  store,
		hasher: hashing.New(),
		now:    time.Now,
	}
}

// Plan maps each input to its would-be artifact without running anything.
func (o *Orchestrator) Plan(paths []string) []models.PlannedItem {
	planned := make([]models.PlannedItem, 0, len(paths))
	for _, p := range paths {
		planned = append(planned, models.PlannedItem{
			Input:  p,
			IRPath: analyzer.IRPathFor(p, o.opts.OutputDir),
		})
	}
	return planned
}

// Run processes the inputs and returns every item's terminal result plus the
// aggregate summary. The returned error is non-nil only when the context was
// canceled; per-item failures live in the results.
func (o *Orchestrator) Run(ctx context.Context, paths []string) ([]models.ItemResult, models.Summary, error) {
	if o.opts.DryRun {
		return nil, models.Summary{Total: len(paths)}, nil
	}

	var (
		mu      sync.Mutex
		results = make([]models.ItemResult, 0, len(paths))
		stopped atomic.Bool
	)

	g := new(errgroup.Group)
	g.SetLimit(o.opts.Parallelism)

	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		if o.opts.StopOnError && stopped.Load() {
			break
		}
		path := path
		g.Go(func() error {
			res := o.processOne(ctx, path)
			if res.State == models.StateFailed {
				stopped.Store(true)
			}
			mu.Lock()
			results = append(results, res)
			if o.opts.OnResult != nil {
				o.opts.OnResult(res)
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	// Workers finish out of order; restore input order for the report.
	order := make(map[string]int, len(paths))
	for i, p := range paths {
		order[p] = i
	}
	sort.SliceStable(results, func(i, j int) bool {
		return order[results[i].Input] < order[results[j].Input]
	})

	return results, summarize(results), ctx.Err()
}

// processOne walks a single sample through hash, dedup, analysis, and
// catalog append. It never returns an error; every fate is a result.
func (o *Orchestrator) processOne(ctx context.Context, path string) models.ItemResult {
	res := models.ItemResult{Input: path, State: models.StateDiscovered}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		res.State = models.StateFailed
		res.Reason = models.ReasonNotFound
		res.Detail = fmt.Sprintf("sample not found: %s", path)
		return res
	}
	if !hasSampleExtension(path) {
		res.State = models.StateFailed
		res.Reason = models.ReasonWrongExtension
		res.Detail = fmt.Sprintf("expected a %s file", models.SampleExtension)
		return res
	}

	fingerprint, err := o.hasher.FileSHA256(path)
	if err != nil {
		res.State = models.StateFailed
		res.Reason = models.ReasonNotFound
		res.Detail = err.Error()
		return res
	}
	res.Fingerprint = fingerprint

	if !o.opts.Force && o.store.Exists(fingerprint) {
		res.State = models.StateSucceeded
		res.Skipped = true
		res.Detail = "already cataloged"
		return res
	}

	res.State = models.StateAnalyzing
	irPath := analyzer.IRPathFor(path, o.opts.OutputDir)
	an := o.opts.NewAnalyzer()
	if err := an.Analyze(ctx, path, irPath); err != nil {
		if errors.Is(err, context.Canceled) {
			res.State = models.StateFailed
			res.Reason = models.ReasonAnalysisError
			res.Detail = "interrupted"
			return res
		}
		res.State = models.StateFailed
		res.Reason = analyzer.ClassifyFailure(err)
		res.Detail = err.Error()
		return res
	}
	res.IRPath = irPath

	entry := models.CatalogEntry{
		Fingerprint: fingerprint,
		Label:       catalog.InferLabel(path, o.opts.Label),
		Source:      o.opts.Source,
		FirstSeen:   o.now().Format(models.FirstSeenLayout),
		LocalPath:   path,
		IRPath:      irPath,
		Notes:       notesFor(irPath),
	}

	wrote, err := o.store.Append(entry)
	if err != nil {
		res.State = models.StateFailed
		res.Reason = models.ReasonCatalogWriteError
		res.Detail = err.Error()
		return res
	}
	if !wrote {
		// Another worker cataloged the same content first.
		res.Skipped = true
		res.Detail = "already cataloged"
	}
	res.State = models.StateSucceeded
	res.Cataloged = wrote
	return res
}

// notesFor derives the behavior notes from a freshly written IR artifact.
// An unreadable or malformed artifact degrades to "none"; the analysis
// itself already succeeded.
func notesFor(irPath string) string {
	data, err := os.ReadFile(irPath)
	if err != nil {
		return models.NotesNone
	}
	var doc models.IRDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return models.NotesNone
	}
	return catalog.DeriveNotes(doc.Behavior)
}

func summarize(results []models.ItemResult) models.Summary {
	s := models.Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.State == models.StateFailed:
			s.Failed++
			if s.ByReason == nil {
				s.ByReason = make(map[models.FailReason]int)
			}
			s.ByReason[r.Reason]++
		case r.Skipped:
			s.Skipped++
		default:
			s.Succeeded++
		}
	}
	return s
}
