package models

import "time"

//-- Section --

const (
	// FilePermReadWrite defines standard non-executable file permissions.
	FilePermReadWrite = 0644
	// FilePermDir is applied to every directory the pipeline creates.
	FilePermDir = 0755

	// caps how long a single parser invocation may run before it is killed.
	DefaultAnalysisTimeout = 60 * time.Second
	// default worker count; 1 keeps processing strictly sequential.
	DefaultParallelism = 1
	// prevents a malformed batch list from queueing unbounded work.
	MaxBatchListEntries = 100000

	// the only input format the parser accepts; binaries must be disassembled first.
	SampleExtension = ".asm"
	// suffix appended to an input's stem to name its IR artifact.
	IRSuffix = "_ir.json"

	// sample provenance tags.
	SourceLocal = "local"
	SourceWatch = "watch"

	// classification labels carried in the ledger.
	LabelMalicious = "malicious"
	LabelBenign    = "benign"
	LabelUnknown   = "unknown"
	LabelDummy     = "dummy"

	// timestamp layout for the first_seen column.
	FirstSeenLayout = "2006-01-02 15:04:05"

	// value of the notes column when no behavior flag is set.
	NotesNone = "none"

	//  plain-text ledger keyed by fingerprint, one row per unique sample.
	BackendCSV = "csv"
	//  LSM tree based store for large catalogs needing indexed lookups.
	BackendPebbleDB = "pebbledb"
)

// CatalogColumns is the ledger header, written exactly once on creation.
var CatalogColumns = []string{
	"fingerprint", "label", "source", "first_seen", "local_path", "ir_path", "notes",
}

// ExitInterrupted is the conventional exit status for SIGINT termination.
const ExitInterrupted = 130
