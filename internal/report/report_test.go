package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rawblock/resolution-eval/internal/evaluator"
	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/pkg/models"
)

func sampleResult(t *testing.T) *models.EvaluationResult {
	t.Helper()
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2", "D": "2", "E": "3"})
	current := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "1", "D": "2"})
	return evaluator.Evaluate(gold, current, evaluator.Options{WithAlignment: true})
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"text", "CSV", "Json"} {
		if _, err := ParseFormat(ok); err != nil {
			t.Errorf("Expected %q to parse. Got: %v", ok, err)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("Expected error for unsupported format")
	}
}

func TestWrite_TextSurfacesUniverseWarning(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(t), FormatText); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "WARNING: record universes differ") {
		t.Errorf("Universe mismatch must be surfaced prominently. Got:\n%s", out)
	}
	if !strings.Contains(out, "Precision: 0.3333") {
		t.Errorf("Expected precision line. Got:\n%s", out)
	}
	if !strings.Contains(out, "Cluster alignment") {
		t.Errorf("Expected alignment section. Got:\n%s", out)
	}
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&buf, sampleResult(t), FormatCSV); err != nil {
		t.Fatal(err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("Report is not valid CSV: %v", err)
	}

	byName := make(map[string]string)
	for _, row := range rows[1:] {
		byName[row[0]] = row[1]
	}
	if byName["true_positives"] != "1" {
		t.Errorf("Expected true_positives=1. Got: %s", byName["true_positives"])
	}
	if byName["gold_only_records"] != "1" {
		t.Errorf("Universe counts must appear in CSV output. Got: %s", byName["gold_only_records"])
	}
	if !strings.HasPrefix(byName["f1"], "0.4") {
		t.Errorf("Expected f1 0.4. Got: %s", byName["f1"])
	}
}

func TestWrite_JSONRoundTrips(t *testing.T) {
	var buf bytes.Buffer
	result := sampleResult(t)
	if err := Write(&buf, result, FormatJSON); err != nil {
		t.Fatal(err)
	}

	var decoded models.EvaluationResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("Report is not valid JSON: %v", err)
	}
	if decoded.RunID != result.RunID || decoded.Pairwise != result.Pairwise {
		t.Errorf("JSON round-trip lost data: %+v", decoded)
	}
}

func TestWriteEntities(t *testing.T) {
	var buf bytes.Buffer
	p := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2"})

	if err := WriteEntities(&buf, p); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	if !strings.Contains(out, "Entity 1 (cluster 1): A, B") {
		t.Errorf("Unexpected entity dump:\n%s", out)
	}
	if !strings.Contains(out, "Entity 2 (cluster 2): C") {
		t.Errorf("Unexpected entity dump:\n%s", out)
	}
}
