package models

// -- IR Document --

// IRDocument is the structured output of the external meef_parser tool.
// It is read-only input for the feature extractor and the notes derivation;
// fields absent from a given document decode as their zero value.
type IRDocument struct {
	Behavior Behavior      `json:"behavior"`
	CFG      CFGSummary    `json:"cfg"`
	APIs     []APICall     `json:"apis"`
	Opcodes  []OpcodeCount `json:"opcodes"`
}

// Behavior holds the boolean capability indicators emitted by the parser.
type Behavior struct {
	UsesNetwork   bool `json:"uses_network"`
	UsesFileops   bool `json:"uses_fileops"`
	UsesRegistry  bool `json:"uses_registry"`
	UsesMemory    bool `json:"uses_memory"`
	UsesInjection bool `json:"uses_injection"`
	UsesCrypto    bool `json:"uses_crypto"`
	UsesPersist   bool `json:"uses_persist"`
}

// CFGSummary is the control-flow-graph section of the IR.
type CFGSummary struct {
	NumBlocks            float64 `json:"num_blocks"`
	NumEdges             float64 `json:"num_edges"`
	BranchDensity        float64 `json:"branch_density"`
	CyclomaticComplexity float64 `json:"cyclomatic_complexity"`
}

// APICall is one (API name, call count) pair.
type APICall struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// OpcodeCount is one (mnemonic, count) pair. Mnemonics are upper case.
type OpcodeCount struct {
	Name  string  `json:"name"`
	Count float64 `json:"count"`
}

// -- Catalog --

// CatalogEntry is one row of the sample ledger, keyed by fingerprint.
// Entries are append-only: the store never rewrites a row in place.
type CatalogEntry struct {
	Fingerprint string `json:"fingerprint"`
	Label       string `json:"label"`
	Source      string `json:"source"`
	FirstSeen   string `json:"first_seen"`
	LocalPath   string `json:"local_path"`
	IRPath      string `json:"ir_path"`
	Notes       string `json:"notes"`
}

// -- Batch processing --

// ItemState tracks one sample through the pipeline.
type ItemState string

const (
	StateDiscovered ItemState = "discovered"
	StateAnalyzing  ItemState = "analyzing"
	StateSucceeded  ItemState = "succeeded"
	StateFailed     ItemState = "failed"
)

// FailReason classifies why a single item failed. Reasons are per item and
// never abort the batch unless stop-on-error is requested.
type FailReason string

const (
	ReasonNotFound          FailReason = "not_found"
	ReasonWrongExtension    FailReason = "wrong_extension"
	ReasonToolMissing       FailReason = "tool_missing"
	ReasonAnalysisError     FailReason = "analysis_error"
	ReasonTimeout           FailReason = "timeout"
	ReasonCatalogWriteError FailReason = "catalog_write_error"
)

// ItemResult is the terminal record for one input file.
type ItemResult struct {
	Input       string     `json:"input"`
	IRPath      string     `json:"ir_path,omitempty"`
	Fingerprint string     `json:"fingerprint,omitempty"`
	State       ItemState  `json:"state"`
	Reason      FailReason `json:"reason,omitempty"`
	Detail      string     `json:"detail,omitempty"`
	Cataloged   bool       `json:"cataloged"`
	Skipped     bool       `json:"skipped,omitempty"`
}

// Summary aggregates a batch run. It is returned by value from the
// orchestrator so runs stay re-entrant under testing.
type Summary struct {
	Total     int                `json:"total"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Skipped   int                `json:"skipped,omitempty"`
	ByReason  map[FailReason]int `json:"by_reason,omitempty"`
}

// ProcessOutput is the JSON document the process verb writes to stdout.
type ProcessOutput struct {
	Target    string       `json:"target"`
	Catalog   string       `json:"catalog"`
	Backend   string       `json:"backend"`
	OutputDir string       `json:"output_dir"`
	DryRun    bool         `json:"dry_run,omitempty"`
	Items     []ItemResult `json:"items"`
	Summary   Summary      `json:"summary"`
	Error     string       `json:"error,omitempty"`
}

// PlannedItem is one input -> artifact mapping reported by dry-run mode.
type PlannedItem struct {
	Input  string `json:"input"`
	IRPath string `json:"ir_path"`
}

// -- Features & prediction --

// FeaturesOutput summarizes a dataset build.
type FeaturesOutput struct {
	Catalog      string `json:"catalog"`
	Dataset      string `json:"dataset"`
	SchemaOut    string `json:"schema_out,omitempty"`
	Samples      int    `json:"samples"`
	SkippedIR    int    `json:"skipped_missing_ir"`
	FeatureCount int    `json:"feature_count"`
	Malicious    int    `json:"malicious"`
	Benign       int    `json:"benign"`
}

// PredictOutput is the inference-path report for a single sample. The vector
// is aligned index-for-index with the persisted schema.
type PredictOutput struct {
	Input        string    `json:"input"`
	Fingerprint  string    `json:"fingerprint"`
	IRPath       string    `json:"ir_path"`
	SchemaSource string    `json:"schema_source"`
	FeatureNames []string  `json:"feature_names"`
	Vector       []float64 `json:"vector"`
	Notes        string    `json:"notes"`
	Label        string    `json:"label,omitempty"`
	Confidence   float64   `json:"confidence,omitempty"`
}

// StatsOutput is the catalog statistics report.
type StatsOutput struct {
	Catalog  string         `json:"catalog"`
	Backend  string         `json:"backend"`
	Entries  int            `json:"entries"`
	ByLabel  map[string]int `json:"by_label"`
	ByNote   map[string]int `json:"by_note"`
	DiskSize int64          `json:"disk_size_bytes,omitempty"`
}
