// -- pkg/features/schema.go --

// Package features turns IR documents into fixed-width numeric vectors.
//
// The schema is the contract between dataset building and inference: the
// same ordered feature names must produce the same vector layout on both
// paths, bit for bit, or a trained model silently reads garbage. Names are
// data, not code; a persisted schema from training always wins over the
// built-in default.
package features

import "fmt"

// Schema is an ordered list of feature names. Order is significant and
// immutable once a model has been trained against it.
type Schema struct {
	Names []string
}

// TrackedOpcodes are the mnemonics with dedicated count columns, in column
// order.
var TrackedOpcodes = []string{
	"CALL", "MOV", "PUSH", "POP", "JMP", "RET", "ADD", "SUB", "XOR", "TEST",
}

// TopAPISlots is the number of rank-indexed API count columns.
const TopAPISlots = 10

// DefaultSchema returns the canonical feature layout.
func DefaultSchema() Schema {
	names := []string{
		"uses_network",
		"uses_fileops",
		"uses_registry",
		"uses_memory",
		"uses_injection",
		"uses_crypto",
		"uses_persist",
		"cfg_num_blocks",
		"cfg_num_edges",
		"cfg_branch_density",
		"cfg_cyclomatic_complexity",
		"num_unique_apis",
		"total_api_calls",
	}
	for i := 1; i <= TopAPISlots; i++ {
		names = append(names, fmt.Sprintf("top_api_%d_count", i))
	}
	names = append(names, "num_unique_opcodes", "total_opcodes")
	for _, op := range TrackedOpcodes {
		names = append(names, "opcode_"+lowercase(op)+"_count")
	}
	names = append(names,
		"call_ratio",
		"jmp_ratio",
		"api_to_opcode_ratio",
	)
	return Schema{Names: names}
}

// Len returns the vector width.
func (s Schema) Len() int { return len(s.Names) }

// Equal reports whether two schemas produce interchangeable vectors.
func (s Schema) Equal(other Schema) bool {
	if len(s.Names) != len(other.Names) {
		return false
	}
	for i := range s.Names {
		if s.Names[i] != other.Names[i] {
			return false
		}
	}
	return true
}

func lowercase(s string) string {
	b := []byte(s)
	for i := range b {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}
