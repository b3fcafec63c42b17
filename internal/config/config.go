// -- internal/config/config.go --

// Package config resolves runtime settings in precedence order: explicit
// flags beat environment variables, which beat a .env file, which beats the
// built-in defaults. Flags are applied by the CLI layer; this package owns
// the environment and defaults.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/srioo10/Meef/pkg/models"
)

// Environment variable names.
const (
	EnvParser        = "MEEF_PARSER"
	EnvCatalog       = "MEEF_CATALOG"
	EnvOutputDir     = "MEEF_OUTPUT_DIR"
	EnvTimeout       = "MEEF_TIMEOUT_SECONDS"
	EnvParallelism   = "MEEF_PARALLELISM"
	EnvModelMetadata = "MEEF_MODEL_METADATA"
)

// Built-in defaults.
const (
	DefaultParserTool    = "meef_parser"
	DefaultCatalogPath   = "catalog.csv"
	DefaultOutputDir     = "ir_out"
	DefaultModelMetadata = "models/model_metadata.json"
)

// Config is the resolved runtime configuration.
type Config struct {
	ParserTool    string
	CatalogPath   string
	OutputDir     string
	Timeout       time.Duration
	Parallelism   int
	ModelMetadata string
}

// Load builds the configuration from the environment. A .env file in the
// working directory is folded in first; a missing one is not an error.
func Load() Config {
	godotenv.Load()

	return Config{
		ParserTool:    envOr(EnvParser, DefaultParserTool),
		CatalogPath:   envOr(EnvCatalog, DefaultCatalogPath),
		OutputDir:     envOr(EnvOutputDir, DefaultOutputDir),
		Timeout:       envDuration(EnvTimeout, models.DefaultAnalysisTimeout),
		Parallelism:   envInt(EnvParallelism, models.DefaultParallelism),
		ModelMetadata: envOr(EnvModelMetadata, DefaultModelMetadata),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 1 {
		return fallback
	}
	return time.Duration(secs) * time.Second
}

// ResolveCatalogPath picks the catalog location when none was given
// explicitly: an existing candidate wins, otherwise the default is used and
// will be created on first append.
func ResolveCatalogPath(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if env := os.Getenv(EnvCatalog); env != "" {
		return env
	}
	candidates := []string{
		DefaultCatalogPath,
		"data/catalog.csv",
		"data/catalog.db",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return DefaultCatalogPath
}
