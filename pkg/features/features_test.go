package features

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/srioo10/Meef/pkg/models"
	"github.com/srioo10/Meef/pkg/testutil"
)

func sampleDoc() models.IRDocument {
	return models.IRDocument{
		Behavior: models.Behavior{UsesNetwork: true, UsesCrypto: true},
		CFG: models.CFGSummary{
			NumBlocks:            12,
			NumEdges:             18,
			BranchDensity:        1.5,
			CyclomaticComplexity: 8,
		},
		APIs: []models.APICall{
			{Name: "CreateFileA", Count: 3},
			{Name: "connect", Count: 7},
			{Name: "RegSetValueExA", Count: 1},
		},
		Opcodes: []models.OpcodeCount{
			{Name: "MOV", Count: 40},
			{Name: "CALL", Count: 10},
			{Name: "JMP", Count: 5},
			{Name: "XOR", Count: 5},
		},
	}
}

func TestDefaultSchemaLayout(t *testing.T) {
	s := DefaultSchema()
	if s.Len() != 38 {
		t.Fatalf("schema width = %d, want 38", s.Len())
	}
	checks := map[int]string{
		0:  "uses_network",
		6:  "uses_persist",
		7:  "cfg_num_blocks",
		10: "cfg_cyclomatic_complexity",
		11: "num_unique_apis",
		13: "top_api_1_count",
		22: "top_api_10_count",
		23: "num_unique_opcodes",
		25: "opcode_call_count",
		34: "opcode_test_count",
		35: "call_ratio",
		37: "api_to_opcode_ratio",
	}
	for idx, want := range checks {
		if s.Names[idx] != want {
			t.Errorf("Names[%d] = %q, want %q", idx, s.Names[idx], want)
		}
	}
}

func TestVectorWidthMatchesSchema(t *testing.T) {
	s := DefaultSchema()
	for _, doc := range []models.IRDocument{{}, sampleDoc()} {
		if got := len(s.Vector(doc)); got != s.Len() {
			t.Errorf("vector width = %d, want %d", got, s.Len())
		}
	}
}

func TestEmptyDocumentIsAllZeros(t *testing.T) {
	for i, v := range DefaultSchema().Vector(models.IRDocument{}) {
		if v != 0 {
			t.Errorf("Vector[%d] = %v, want 0", i, v)
		}
	}
}

func index(t *testing.T, s Schema, name string) int {
	t.Helper()
	for i, n := range s.Names {
		if n == name {
			return i
		}
	}
	t.Fatalf("schema has no feature %q", name)
	return -1
}

func TestBehaviorFlags(t *testing.T) {
	s := DefaultSchema()
	vec := s.Vector(sampleDoc())
	if vec[index(t, s, "uses_network")] != 1 || vec[index(t, s, "uses_crypto")] != 1 {
		t.Error("set behavior flags did not extract as 1")
	}
	if vec[index(t, s, "uses_injection")] != 0 {
		t.Error("clear behavior flag did not extract as 0")
	}
}

func TestTopAPIRanking(t *testing.T) {
	s := DefaultSchema()
	vec := s.Vector(sampleDoc())
	// Counts 7, 3, 1 sorted descending, then zero fill.
	want := []float64{7, 3, 1, 0, 0, 0, 0, 0, 0, 0}
	start := index(t, s, "top_api_1_count")
	if got := vec[start : start+TopAPISlots]; !reflect.DeepEqual(got, want) {
		t.Errorf("top API counts = %v, want %v", got, want)
	}
}

func TestTopAPISingleEntry(t *testing.T) {
	s := DefaultSchema()
	doc := models.IRDocument{APIs: []models.APICall{{Name: "connect", Count: 4}}}
	vec := s.Vector(doc)
	if vec[index(t, s, "top_api_1_count")] != 4 {
		t.Error("rank 1 should carry the only API's count")
	}
	for rank := 2; rank <= TopAPISlots; rank++ {
		name := s.Names[index(t, s, "top_api_1_count")+rank-1]
		if vec[index(t, s, name)] != 0 {
			t.Errorf("%s = %v, want 0", name, vec[index(t, s, name)])
		}
	}
}

func TestOpcodeCountsAndTotals(t *testing.T) {
	s := DefaultSchema()
	vec := s.Vector(sampleDoc())
	if got := vec[index(t, s, "opcode_mov_count")]; got != 40 {
		t.Errorf("opcode_mov_count = %v", got)
	}
	if got := vec[index(t, s, "opcode_ret_count")]; got != 0 {
		t.Errorf("opcode_ret_count = %v, want 0", got)
	}
	if got := vec[index(t, s, "num_unique_opcodes")]; got != 4 {
		t.Errorf("num_unique_opcodes = %v", got)
	}
	if got := vec[index(t, s, "total_opcodes")]; got != 60 {
		t.Errorf("total_opcodes = %v", got)
	}
}

func TestOpcodeCaseInsensitive(t *testing.T) {
	s := DefaultSchema()
	doc := models.IRDocument{Opcodes: []models.OpcodeCount{
		{Name: "mov", Count: 3},
		{Name: "Mov", Count: 2},
	}}
	vec := s.Vector(doc)
	if got := vec[index(t, s, "opcode_mov_count")]; got != 5 {
		t.Errorf("opcode_mov_count = %v, want merged 5", got)
	}
	if got := vec[index(t, s, "num_unique_opcodes")]; got != 1 {
		t.Errorf("num_unique_opcodes = %v, want 1", got)
	}
}

func TestRatios(t *testing.T) {
	s := DefaultSchema()
	vec := s.Vector(sampleDoc())
	if got := vec[index(t, s, "call_ratio")]; got != 10.0/60.0 {
		t.Errorf("call_ratio = %v", got)
	}
	if got := vec[index(t, s, "jmp_ratio")]; got != 5.0/60.0 {
		t.Errorf("jmp_ratio = %v", got)
	}
	if got := vec[index(t, s, "api_to_opcode_ratio")]; got != 11.0/60.0 {
		t.Errorf("api_to_opcode_ratio = %v", got)
	}
}

func TestRatioZeroGuard(t *testing.T) {
	s := DefaultSchema()
	doc := models.IRDocument{APIs: []models.APICall{{Name: "connect", Count: 2}}}
	vec := s.Vector(doc)
	for _, name := range []string{"call_ratio", "jmp_ratio", "api_to_opcode_ratio"} {
		if got := vec[index(t, s, name)]; got != 0 {
			t.Errorf("%s = %v with zero opcodes, want 0", name, got)
		}
	}
}

func TestUnknownFeatureNameReadsZero(t *testing.T) {
	s := Schema{Names: []string{"entropy_mean", "uses_network", "top_api_x_count"}}
	vec := s.Vector(sampleDoc())
	if vec[0] != 0 || vec[2] != 0 {
		t.Errorf("unknown names must decode to 0, got %v", vec)
	}
	if vec[1] != 1 {
		t.Error("known name in a foreign schema must still decode")
	}
}

func TestTrainInferenceEquivalence(t *testing.T) {
	doc := sampleDoc()
	trainVec := DefaultSchema().Vector(doc)

	path := filepath.Join(t.TempDir(), "model_metadata.json")
	err := SaveMetadata(path, ModelMetadata{FeatureNames: DefaultSchema().Names})
	if err != nil {
		t.Fatal(err)
	}

	schema, source := ResolveSchema(path)
	if source != path {
		t.Errorf("schema source = %q, want the sidecar", source)
	}
	if !reflect.DeepEqual(schema.Vector(doc), trainVec) {
		t.Error("inference vector diverged from training vector")
	}
}

func TestResolveSchemaFallsBackToDefault(t *testing.T) {
	schema, source := ResolveSchema(filepath.Join(t.TempDir(), "missing.json"))
	if source != "default" {
		t.Errorf("source = %q, want default", source)
	}
	if !schema.Equal(DefaultSchema()) {
		t.Error("fallback schema differs from the default")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m", "model_metadata.json")
	in := ModelMetadata{
		FeatureNames: []string{"uses_network", "total_opcodes"},
		ModelType:    "random_forest",
		Metrics:      map[string]float64{"accuracy": 0.93},
		TrainedAt:    "2026-08-30T10:00:00Z",
	}
	if err := SaveMetadata(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := LoadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if out.NumFeatures != 2 {
		t.Errorf("NumFeatures = %d, want 2", out.NumFeatures)
	}
	if !reflect.DeepEqual(out.FeatureNames, in.FeatureNames) {
		t.Errorf("FeatureNames = %v", out.FeatureNames)
	}
	if out.Metrics["accuracy"] != 0.93 {
		t.Errorf("Metrics = %v", out.Metrics)
	}
}

func TestLoadMetadataRejectsMismatchedWidth(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model_metadata.json")
	bad := `{"feature_names":["a","b"],"num_features":5}`
	os.WriteFile(path, []byte(bad), 0o644)
	if _, err := LoadMetadata(path); err == nil {
		t.Error("expected a width mismatch error")
	}
}

func TestBuildDataset(t *testing.T) {
	dir := t.TempDir()

	irPath := filepath.Join(dir, "a_ir.json")
	testutil.WriteIRDocument(t, irPath, models.IRDocument{
		Behavior: models.Behavior{UsesNetwork: true},
		Opcodes:  []models.OpcodeCount{{Name: "MOV", Count: 10}},
	})

	entries := []models.CatalogEntry{
		{Fingerprint: "aaa", Label: models.LabelMalicious, IRPath: irPath},
		{Fingerprint: "bbb", Label: models.LabelBenign, IRPath: filepath.Join(dir, "gone_ir.json")},
	}

	outPath := filepath.Join(dir, "dataset.csv")
	schema := DefaultSchema()
	out, err := BuildDataset(entries, outPath, schema)
	if err != nil {
		t.Fatal(err)
	}
	if out.Samples != 1 || out.SkippedIR != 1 || out.Malicious != 1 {
		t.Errorf("output = %+v", out)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want header + 1", len(rows))
	}

	header := rows[0]
	if len(header) != schema.Len()+3 {
		t.Fatalf("header width = %d, want %d", len(header), schema.Len()+3)
	}
	if header[0] != "uses_network" || header[len(header)-1] != "label_binary" {
		t.Errorf("header boundaries = %q ... %q", header[0], header[len(header)-1])
	}

	row := rows[1]
	if row[0] != "1" {
		t.Errorf("uses_network cell = %q, want 1", row[0])
	}
	if row[len(row)-3] != "aaa" || row[len(row)-2] != models.LabelMalicious || row[len(row)-1] != "1" {
		t.Errorf("tail columns = %v", row[len(row)-3:])
	}
}

func TestFormatFeature(t *testing.T) {
	cases := []struct {
		v    float64
		want string
	}{
		{0, "0"},
		{12, "12"},
		{0.5, "0.5"},
		{1.0 / 3.0, "0.3333333333333333"},
	}
	for _, tc := range cases {
		if got := formatFeature(tc.v); got != tc.want {
			t.Errorf("formatFeature(%v) = %q, want %q", tc.v, got, tc.want)
		}
	}
}
