package evaluator

import (
	"math"
	"testing"

	"github.com/rawblock/resolution-eval/internal/partition"
)

func TestEvaluate_ReferenceScenario(t *testing.T) {
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2", "D": "2"})
	current := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "1", "D": "2"})

	result := Evaluate(gold, current, Options{WithAlignment: true})

	if result.RunID == "" {
		t.Error("Expected a minted run ID")
	}
	if math.Abs(result.Pairwise.F1-0.4) > 1e-9 {
		t.Errorf("Expected F1 0.4. Got: %f", result.Pairwise.F1)
	}
	if result.GoldClusters != 2 || result.CurrentClusters != 2 {
		t.Errorf("Expected 2 clusters on each side. Got: %d/%d",
			result.GoldClusters, result.CurrentClusters)
	}
	if result.Universe.Mismatch {
		t.Errorf("Universes are identical, no mismatch expected: %+v", result.Universe)
	}
	if len(result.Alignment) != 2 {
		t.Errorf("Expected alignment detail for 2 gold clusters. Got: %d", len(result.Alignment))
	}
	if math.Abs(result.SliceCost-3.0) > 1e-9 {
		t.Errorf("Expected slice cost 3. Got: %f", result.SliceCost)
	}
}

func TestEvaluate_UniverseMismatchUsesIntersection(t *testing.T) {
	// E exists only in gold, F only in current. Metrics must come from
	// {A,B,C,D} and the discrepancy must be reported.
	gold := partition.FromMap(map[string]string{
		"A": "1", "B": "1", "C": "2", "D": "2", "E": "3",
	})
	current := partition.FromMap(map[string]string{
		"A": "1", "B": "1", "C": "2", "D": "2", "F": "9",
	})

	result := Evaluate(gold, current, Options{})

	u := result.Universe
	if !u.Mismatch {
		t.Fatal("Expected universe mismatch to be flagged")
	}
	if u.SharedRecords != 4 || u.GoldOnlyRecords != 1 || u.CurrentOnlyRecords != 1 {
		t.Errorf("Expected shared=4 goldOnly=1 currentOnly=1. Got: %+v", u)
	}

	// Over the intersection the partitions agree perfectly.
	if result.Pairwise.F1 != 1.0 {
		t.Errorf("Expected F1=1.0 over the shared universe. Got: %f", result.Pairwise.F1)
	}
}

func TestEvaluate_DisjointUniverses(t *testing.T) {
	// No record appears on both sides, so the intersection is empty. The
	// empty-side policies make every pairwise score vacuously perfect;
	// the mismatch counts are the only meaningful signal.
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1"})
	current := partition.FromMap(map[string]string{"X": "1", "Y": "2", "Z": "2"})

	result := Evaluate(gold, current, Options{WithAlignment: true})

	u := result.Universe
	if !u.Mismatch {
		t.Fatal("Expected universe mismatch to be flagged")
	}
	if u.SharedRecords != 0 || u.GoldOnlyRecords != 2 || u.CurrentOnlyRecords != 3 {
		t.Errorf("Expected shared=0 goldOnly=2 currentOnly=3. Got: %+v", u)
	}

	p := result.Pairwise
	if p.GoldPairs != 0 || p.CurrentPairs != 0 {
		t.Errorf("Expected no pairs over an empty intersection. Got: %+v", p)
	}
	if p.Precision != 1.0 || p.Recall != 1.0 || p.F1 != 1.0 {
		t.Errorf("Empty-side policy gives vacuous 1.0 scores. Got: %+v", p)
	}

	if result.GoldClusters != 0 || result.CurrentClusters != 0 {
		t.Errorf("Expected no clusters after restriction. Got: %d/%d",
			result.GoldClusters, result.CurrentClusters)
	}
	if result.AdjustedRand != 0 || result.VariationOfInfo != 0 || result.SliceCost != 0 {
		t.Errorf("Expected zero ARI/VI/slice cost on empty input. Got: %f/%f/%f",
			result.AdjustedRand, result.VariationOfInfo, result.SliceCost)
	}
	if len(result.Alignment) != 0 {
		t.Errorf("Expected no alignment rows. Got: %d", len(result.Alignment))
	}
}

func TestEvaluate_RelabelingAndDeterminism(t *testing.T) {
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2", "D": "2"})
	current := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "1", "D": "2"})
	relabeled := partition.FromMap(map[string]string{"A": "k", "B": "k", "C": "k", "D": "m"})

	r1 := Evaluate(gold, current, Options{})
	r2 := Evaluate(gold, relabeled, Options{})

	if r1.Pairwise != r2.Pairwise {
		t.Errorf("Pairwise metrics must survive relabeling: %+v vs %+v", r1.Pairwise, r2.Pairwise)
	}
	if math.Abs(r1.AdjustedRand-r2.AdjustedRand) > 1e-9 {
		t.Errorf("ARI must survive relabeling: %f vs %f", r1.AdjustedRand, r2.AdjustedRand)
	}

	// Repeat runs differ only in run ID and timestamp.
	r3 := Evaluate(gold, current, Options{})
	if r1.Pairwise != r3.Pairwise || r1.SliceCost != r3.SliceCost {
		t.Error("Evaluation must be deterministic for fixed inputs")
	}
	if r1.RunID == r3.RunID {
		t.Error("Each evaluation should mint a fresh run ID")
	}
}

func TestEvaluate_IdenticalPartitions(t *testing.T) {
	p := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2"})

	result := Evaluate(p, p, Options{})

	if result.Pairwise.Precision != 1.0 || result.Pairwise.Recall != 1.0 {
		t.Errorf("Expected perfect scores. Got: %+v", result.Pairwise)
	}
	if result.VariationOfInfo > 1e-9 {
		t.Errorf("Expected VI=0. Got: %f", result.VariationOfInfo)
	}
	if result.SliceCost != 0 {
		t.Errorf("Expected zero slice cost. Got: %f", result.SliceCost)
	}
}
