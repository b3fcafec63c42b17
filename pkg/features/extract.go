// -- pkg/features/extract.go --
package features

import (
	"sort"
	"strconv"
	"strings"

	"github.com/srioo10/Meef/pkg/models"
)

// resolver precomputes the aggregates a schema's names are decoded against.
// Building it once per document keeps Vector O(names) after setup.
type resolver struct {
	doc models.IRDocument

	apiCountsDesc []float64
	totalAPICalls float64

	opcodeCounts map[string]float64
	totalOpcodes float64
}

func newResolver(doc models.IRDocument) *resolver {
	r := &resolver{
		doc:          doc,
		opcodeCounts: make(map[string]float64, len(doc.Opcodes)),
	}
	for _, api := range doc.APIs {
		r.apiCountsDesc = append(r.apiCountsDesc, api.Count)
		r.totalAPICalls += api.Count
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(r.apiCountsDesc)))

	for _, op := range doc.Opcodes {
		r.opcodeCounts[strings.ToUpper(op.Name)] += op.Count
		r.totalOpcodes += op.Count
	}
	return r
}

// value decodes one feature name against the document. The dispatch is by
// name prefix, so a persisted schema with reordered or dropped columns still
// decodes correctly; names nothing here understands read as zero.
func (r *resolver) value(name string) float64 {
	switch {
	case strings.HasPrefix(name, "uses_"):
		return boolFeature(r.doc.Behavior, name)

	case strings.HasPrefix(name, "cfg_"):
		return r.cfgFeature(name)

	case name == "num_unique_apis":
		return float64(len(r.doc.APIs))
	case name == "total_api_calls":
		return r.totalAPICalls

	case strings.HasPrefix(name, "top_api_"):
		return r.topAPIFeature(name)

	case name == "num_unique_opcodes":
		return float64(len(r.opcodeCounts))
	case name == "total_opcodes":
		return r.totalOpcodes

	case strings.HasPrefix(name, "opcode_"):
		mnemonic := strings.ToUpper(strings.TrimSuffix(strings.TrimPrefix(name, "opcode_"), "_count"))
		return r.opcodeCounts[mnemonic]

	case name == "call_ratio":
		return ratio(r.opcodeCounts["CALL"], r.totalOpcodes)
	case name == "jmp_ratio":
		return ratio(r.opcodeCounts["JMP"], r.totalOpcodes)
	case name == "api_to_opcode_ratio":
		return ratio(r.totalAPICalls, r.totalOpcodes)
	}
	return 0
}

func boolFeature(b models.Behavior, name string) float64 {
	set := false
	switch name {
	case "uses_network":
		set = b.UsesNetwork
	case "uses_fileops":
		set = b.UsesFileops
	case "uses_registry":
		set = b.UsesRegistry
	case "uses_memory":
		set = b.UsesMemory
	case "uses_injection":
		set = b.UsesInjection
	case "uses_crypto":
		set = b.UsesCrypto
	case "uses_persist":
		set = b.UsesPersist
	}
	if set {
		return 1
	}
	return 0
}

func (r *resolver) cfgFeature(name string) float64 {
	switch name {
	case "cfg_num_blocks":
		return r.doc.CFG.NumBlocks
	case "cfg_num_edges":
		return r.doc.CFG.NumEdges
	case "cfg_branch_density":
		return r.doc.CFG.BranchDensity
	case "cfg_cyclomatic_complexity":
		return r.doc.CFG.CyclomaticComplexity
	}
	return 0
}

// topAPIFeature decodes top_api_<rank>_count. Ranks are 1-based over the
// call counts sorted descending; ranks past the document's API list are 0.
func (r *resolver) topAPIFeature(name string) float64 {
	rankStr := strings.TrimSuffix(strings.TrimPrefix(name, "top_api_"), "_count")
	rank, err := strconv.Atoi(rankStr)
	if err != nil || rank < 1 || rank > len(r.apiCountsDesc) {
		return 0
	}
	return r.apiCountsDesc[rank-1]
}

func ratio(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}

// Vector extracts the document's features in schema order. The result always
// has exactly s.Len() elements.
func (s Schema) Vector(doc models.IRDocument) []float64 {
	r := newResolver(doc)
	vec := make([]float64, len(s.Names))
	for i, name := range s.Names {
		vec[i] = r.value(name)
	}
	return vec
}
