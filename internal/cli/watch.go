// -- internal/cli/watch.go --
package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/srioo10/Meef/internal/batch"
	"github.com/srioo10/Meef/pkg/catalog"
	"github.com/srioo10/Meef/pkg/models"
)

// WatchOptions carries the watch verb's resolved flags.
type WatchOptions struct {
	Dir       string
	Catalog   string
	OutputDir string
	Tool      string
	Timeout   time.Duration
	Label     string

	// Settle is how long a file must stop changing before it is processed.
	// Droppers and copies write incrementally; grabbing the file on the
	// first event reads a torso.
	Settle time.Duration

	// ProcessExisting runs the samples already in Dir before watching.
	ProcessExisting bool

	NewAnalyzer func() Analyzer
}

// watchReport is one line of watch output.
type watchReport struct {
	Event  string            `json:"event"`
	Source string            `json:"source"`
	Item   models.ItemResult `json:"item"`
}

// RunWatch ingests samples dropped into a directory until the context ends.
func RunWatch(ctx context.Context, opts WatchOptions, out io.Writer) error {
	if opts.Settle <= 0 {
		opts.Settle = 500 * time.Millisecond
	}

	store, err := catalog.Open(opts.Catalog, false)
	if err != nil {
		return fmt.Errorf("open catalog %q: %w", opts.Catalog, err)
	}
	defer store.Close()

	orch := batch.New(store, batch.Options{
		Tool:        opts.Tool,
		OutputDir:   opts.OutputDir,
		Timeout:     opts.Timeout,
		Label:       opts.Label,
		Source:      models.SourceWatch,
		NewAnalyzer: wrapAnalyzer(opts.NewAnalyzer),
	})

	process := func(path string) {
		results, _, _ := orch.Run(ctx, []string{path})
		for _, r := range results {
			writeJSON(out, watchReport{Event: "processed", Source: models.SourceWatch, Item: r})
		}
	}

	if opts.ProcessExisting {
		existing, err := batch.Discover("", opts.Dir, "", false)
		if err != nil {
			return err
		}
		for _, p := range existing {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			process(p)
		}
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(opts.Dir); err != nil {
		return fmt.Errorf("watch %q: %w", opts.Dir, err)
	}

	// Debounce per path: every write resets the timer, the last one fires.
	var (
		mu     sync.Mutex
		timers = make(map[string]*time.Timer)
		ready  = make(chan string, 64)
	)
	arm := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if t, ok := timers[path]; ok {
			t.Reset(opts.Settle)
			return
		}
		timers[path] = time.AfterFunc(opts.Settle, func() {
			mu.Lock()
			delete(timers, path)
			mu.Unlock()
			select {
			case ready <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case path := <-ready:
			process(path)

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), models.SampleExtension) {
				continue
			}
			arm(event.Name)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(out, "watch error: %v\n", err)
		}
	}
}
