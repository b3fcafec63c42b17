package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/srioo10/Meef/internal/cli"
	"github.com/srioo10/Meef/internal/config"
	"github.com/srioo10/Meef/pkg/models"
	version "github.com/srioo10/Meef/pkg/version"
)

// Package main provides the meef CLI tool for cataloging malware samples and
// extracting ML feature vectors from their IR.

// -- Main Entry Point --

func main() {
	// Configure help text
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `meef - Malware sample analysis pipeline

Catalogs .asm samples by content fingerprint, drives the external IR parser,
and extracts schema-stable feature vectors for ML training and inference.

Usage:
  meef process --file <sample.asm>            Analyze and catalog a single sample
  meef process --path <dir> [--recursive]     Analyze every sample in a directory
  meef process --batch <list.txt>             Analyze samples from a manifest
  meef features --dataset <out.csv>           Build a training dataset from the catalog
  meef predict --file <sample.asm>            Run the inference path for one sample
  meef stats                                  Show catalog statistics
  meef watch --dir <inbox>                    Ingest samples dropped into a directory

Commands:
  process  Hash, deduplicate, analyze, and catalog samples
           Flags:
             --catalog      Catalog path (.csv or PebbleDB directory)
             --out          IR artifact directory
             --tool         Parser command
             --parallel     Worker count (default 1)
             --timeout      Per-sample parser timeout in seconds
             --label        Explicit label: malicious, benign, dummy
             --stop-on-error  Stop dispatching after the first failure
             --force        Re-analyze already-cataloged samples
             --dry-run      Plan only; touch neither parser nor catalog
             --verbose      Print per-sample progress to stderr

  features Extract one vector per cataloged sample into a CSV dataset
  predict  Analyze one sample and emit its schema-aligned feature vector
  stats    Display catalog entry counts by label and behavior note
  watch    Watch a directory and catalog samples as they land
  version  Display CLI and engine version

Environment:
  MEEF_PARSER, MEEF_CATALOG, MEEF_OUTPUT_DIR, MEEF_TIMEOUT_SECONDS,
  MEEF_PARALLELISM, MEEF_MODEL_METADATA (a .env file is honored)

Examples:
  meef process --path ./samples/malicious --parallel 4
  meef features --dataset dataset.csv --schema-out models/model_metadata.json
  meef predict --file dropper.asm --metadata models/model_metadata.json
  meef watch --dir /srv/inbox --catalog data/catalog.csv
`)
	}

	if len(os.Args) < 2 {
		flag.Usage()
		os.Exit(1)
	}

	cfg := config.Load()
	cmd := os.Args[1]

	// -- Flag Definitions --

	processCmd := flag.NewFlagSet("process", flag.ExitOnError)
	procFile := processCmd.String("file", "", "Single sample to process")
	procPath := processCmd.String("path", "", "Directory of samples to process")
	procBatch := processCmd.String("batch", "", "Manifest of sample paths, one per line")
	procRecursive := processCmd.Bool("recursive", false, "Recurse into subdirectories of --path")
	procCatalog := processCmd.String("catalog", "", "Catalog path")
	procOut := processCmd.String("out", cfg.OutputDir, "IR artifact directory")
	procTool := processCmd.String("tool", cfg.ParserTool, "Parser command")
	procParallel := processCmd.Int("parallel", cfg.Parallelism, "Concurrent workers")
	procTimeout := processCmd.Int("timeout", int(cfg.Timeout/time.Second), "Per-sample timeout in seconds")
	procLabel := processCmd.String("label", "", "Explicit label: malicious, benign, dummy")
	procStop := processCmd.Bool("stop-on-error", false, "Stop dispatching after the first failure")
	procForce := processCmd.Bool("force", false, "Re-analyze already-cataloged samples")
	procDryRun := processCmd.Bool("dry-run", false, "Plan only")
	procVerbose := processCmd.Bool("verbose", false, "Print per-sample progress to stderr")

	featuresCmd := flag.NewFlagSet("features", flag.ExitOnError)
	featCatalog := featuresCmd.String("catalog", "", "Catalog path")
	featDataset := featuresCmd.String("dataset", "dataset.csv", "Output dataset path")
	featSchemaOut := featuresCmd.String("schema-out", "", "Persist the schema as a model metadata sidecar")
	featMetadata := featuresCmd.String("metadata", "", "Reuse a trained model's schema")

	predictCmd := flag.NewFlagSet("predict", flag.ExitOnError)
	predFile := predictCmd.String("file", "", "Sample to classify")
	predOut := predictCmd.String("out", cfg.OutputDir, "IR artifact directory")
	predTool := predictCmd.String("tool", cfg.ParserTool, "Parser command")
	predTimeout := predictCmd.Int("timeout", int(cfg.Timeout/time.Second), "Parser timeout in seconds")
	predMetadata := predictCmd.String("metadata", cfg.ModelMetadata, "Model metadata sidecar")

	statsCmd := flag.NewFlagSet("stats", flag.ExitOnError)
	statsCatalog := statsCmd.String("catalog", "", "Catalog path")

	watchCmd := flag.NewFlagSet("watch", flag.ExitOnError)
	watchDir := watchCmd.String("dir", "", "Directory to watch (required)")
	watchCatalog := watchCmd.String("catalog", "", "Catalog path")
	watchOut := watchCmd.String("out", cfg.OutputDir, "IR artifact directory")
	watchTool := watchCmd.String("tool", cfg.ParserTool, "Parser command")
	watchTimeout := watchCmd.Int("timeout", int(cfg.Timeout/time.Second), "Per-sample timeout in seconds")
	watchLabel := watchCmd.String("label", "", "Explicit label for ingested samples")
	watchExisting := watchCmd.Bool("existing", false, "Process samples already present before watching")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// -- Command Routing --

	switch cmd {
	case "process":
		if err := processCmd.Parse(os.Args[2:]); err != nil {
			cli.ExitError(err)
		}
		if *procFile == "" && *procPath == "" && *procBatch == "" {
			processCmd.Usage()
			os.Exit(1)
		}
		summary, err := cli.RunProcess(ctx, cli.ProcessOptions{
			File:        *procFile,
			Path:        *procPath,
			Batch:       *procBatch,
			Recursive:   *procRecursive,
			Catalog:     config.ResolveCatalogPath(*procCatalog),
			OutputDir:   *procOut,
			Tool:        *procTool,
			Parallelism: *procParallel,
			Timeout:     time.Duration(*procTimeout) * time.Second,
			Label:       *procLabel,
			StopOnError: *procStop,
			Force:       *procForce,
			DryRun:      *procDryRun,
			Verbose:     *procVerbose,
		}, os.Stdout)
		exitFor(ctx, summary, err)

	case "features":
		if err := featuresCmd.Parse(os.Args[2:]); err != nil {
			cli.ExitError(err)
		}
		if err := cli.RunFeatures(cli.FeaturesOptions{
			Catalog:   config.ResolveCatalogPath(*featCatalog),
			Dataset:   *featDataset,
			SchemaOut: *featSchemaOut,
			Metadata:  *featMetadata,
		}, os.Stdout); err != nil {
			cli.ExitError(err)
		}

	case "predict":
		if err := predictCmd.Parse(os.Args[2:]); err != nil {
			cli.ExitError(err)
		}
		if *predFile == "" {
			predictCmd.Usage()
			os.Exit(1)
		}
		if err := cli.RunPredict(ctx, cli.PredictOptions{
			File:      *predFile,
			OutputDir: *predOut,
			Tool:      *predTool,
			Timeout:   time.Duration(*predTimeout) * time.Second,
			Metadata:  *predMetadata,
		}, os.Stdout); err != nil {
			if ctx.Err() != nil {
				os.Exit(models.ExitInterrupted)
			}
			cli.ExitError(err)
		}

	case "stats":
		if err := statsCmd.Parse(os.Args[2:]); err != nil {
			cli.ExitError(err)
		}
		if err := cli.RunStats(config.ResolveCatalogPath(*statsCatalog), os.Stdout); err != nil {
			cli.ExitError(err)
		}

	case "watch":
		if err := watchCmd.Parse(os.Args[2:]); err != nil {
			cli.ExitError(err)
		}
		if *watchDir == "" {
			watchCmd.Usage()
			os.Exit(1)
		}
		err := cli.RunWatch(ctx, cli.WatchOptions{
			Dir:             *watchDir,
			Catalog:         config.ResolveCatalogPath(*watchCatalog),
			OutputDir:       *watchOut,
			Tool:            *watchTool,
			Timeout:         time.Duration(*watchTimeout) * time.Second,
			Label:           *watchLabel,
			ProcessExisting: *watchExisting,
		}, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) {
			cli.ExitError(err)
		}
		if ctx.Err() != nil {
			os.Exit(models.ExitInterrupted)
		}

	case "version":
		fmt.Println("Meef CLI")
		fmt.Printf("Build: %s\n", version.EngineVersion())

	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		if suggestion := cli.SuggestCommand(cmd); suggestion != "" {
			fmt.Fprintf(os.Stderr, "Did you mean '%s'?\n", suggestion)
		}
		flag.Usage()
		os.Exit(1)
	}
}

// exitFor maps a batch outcome to the process exit status: 130 on
// interruption, 1 when any sample failed, 0 otherwise.
func exitFor(ctx context.Context, summary models.Summary, err error) {
	if ctx.Err() != nil {
		os.Exit(models.ExitInterrupted)
	}
	if err != nil {
		cli.ExitError(err)
	}
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
