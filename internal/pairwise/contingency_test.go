package pairwise

import (
	"fmt"
	"testing"

	"github.com/rawblock/resolution-eval/internal/partition"
)

// Reference scenario used throughout the metric tests:
// gold = {A,B | C,D}, current = {A,B,C | D}.
func referencePartitions() (*partition.Partition, *partition.Partition) {
	gold := partition.FromMap(map[string]string{
		"A": "1", "B": "1", "C": "2", "D": "2",
	})
	current := partition.FromMap(map[string]string{
		"A": "1", "B": "1", "C": "1", "D": "2",
	})
	return gold, current
}

func TestPairCounts_ReferenceScenario(t *testing.T) {
	gold, current := referencePartitions()
	ct := Build(gold, current)

	counts := ct.PairCounts()
	if counts.TruePositives != 1 {
		t.Errorf("Expected TP=1 ({A,B}). Got: %d", counts.TruePositives)
	}
	if counts.GoldPairs != 2 {
		t.Errorf("Expected 2 gold pairs. Got: %d", counts.GoldPairs)
	}
	if counts.CurrentPairs != 3 {
		t.Errorf("Expected 3 current pairs (C(3,2)). Got: %d", counts.CurrentPairs)
	}
	if counts.FalseNegatives() != 1 || counts.FalsePositives() != 2 {
		t.Errorf("Expected FN=1 FP=2. Got FN=%d FP=%d",
			counts.FalseNegatives(), counts.FalsePositives())
	}
}

func TestOverlap_Cells(t *testing.T) {
	gold, current := referencePartitions()
	ct := Build(gold, current)

	if ct.Overlap("1", "1") != 2 {
		t.Errorf("Expected overlap(g1,c1)=2. Got: %d", ct.Overlap("1", "1"))
	}
	if ct.Overlap("2", "1") != 1 {
		t.Errorf("Expected overlap(g2,c1)=1. Got: %d", ct.Overlap("2", "1"))
	}
	if ct.Overlap("1", "2") != 0 {
		t.Errorf("Expected overlap(g1,c2)=0. Got: %d", ct.Overlap("1", "2"))
	}
	if ct.Total() != 4 {
		t.Errorf("Expected 4 records aggregated. Got: %d", ct.Total())
	}
}

func TestPairCounts_RelabelingInvariance(t *testing.T) {
	gold, current := referencePartitions()
	relabeled := partition.FromMap(map[string]string{
		"A": "x9", "B": "x9", "C": "x9", "D": "zz",
	})

	a := Build(gold, current).PairCounts()
	b := Build(gold, relabeled).PairCounts()
	if a != b {
		t.Errorf("Pair counts must be invariant under cluster relabeling: %+v vs %+v", a, b)
	}
}

func TestBuildParallel_MatchesSequential(t *testing.T) {
	// Large enough to cross the parallel threshold.
	goldMap := make(map[string]string)
	currentMap := make(map[string]string)
	for i := 0; i < 10000; i++ {
		r := fmt.Sprintf("r%05d", i)
		goldMap[r] = fmt.Sprintf("g%d", i/7)
		currentMap[r] = fmt.Sprintf("c%d", i/11)
	}
	gold := partition.FromMap(goldMap)
	current := partition.FromMap(currentMap)

	seq := Build(gold, current).PairCounts()
	par := BuildParallel(gold, current, 4).PairCounts()

	if seq != par {
		t.Errorf("Parallel build diverged from sequential: %+v vs %+v", seq, par)
	}
}

func TestCoMembers(t *testing.T) {
	gold, _ := referencePartitions()

	if !CoMembers(gold, "A", "B") {
		t.Error("A and B share gold cluster 1")
	}
	if CoMembers(gold, "A", "C") {
		t.Error("A and C are in different gold clusters")
	}
	if CoMembers(gold, "A", "A") {
		t.Error("A record is never a co-member with itself")
	}
	if CoMembers(gold, "A", "missing") {
		t.Error("Unknown records are never co-members")
	}
}
