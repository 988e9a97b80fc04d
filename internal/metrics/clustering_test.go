package metrics

import (
	"math"
	"testing"

	"github.com/rawblock/resolution-eval/internal/pairwise"
	"github.com/rawblock/resolution-eval/internal/partition"
)

func contingencyOf(goldMap, currentMap map[string]string) *pairwise.Contingency {
	return pairwise.Build(partition.FromMap(goldMap), partition.FromMap(currentMap))
}

func TestAdjustedRandIndex_PerfectAgreement(t *testing.T) {
	labels := map[string]string{
		"r1": "0", "r2": "0", "r3": "1", "r4": "1", "r5": "2", "r6": "2",
	}

	ari := AdjustedRandIndex(contingencyOf(labels, labels))

	if math.Abs(ari-1.0) > 0.01 {
		t.Errorf("Expected ARI=1.0 for perfect agreement. Got: %f", ari)
	}
}

func TestAdjustedRandIndex_RelabelingInvariant(t *testing.T) {
	gold := map[string]string{
		"r1": "0", "r2": "0", "r3": "1", "r4": "1", "r5": "2", "r6": "2",
	}
	relabeled := map[string]string{
		"r1": "blue", "r2": "blue", "r3": "red", "r4": "red", "r5": "green", "r6": "green",
	}

	ari := AdjustedRandIndex(contingencyOf(gold, relabeled))

	if math.Abs(ari-1.0) > 0.01 {
		t.Errorf("Expected ARI=1.0 under pure relabeling. Got: %f", ari)
	}
}

func TestAdjustedRandIndex_DissimilarPartitions(t *testing.T) {
	// Two very different partitions should yield ARI near 0
	gold := map[string]string{
		"r1": "0", "r2": "0", "r3": "0", "r4": "1", "r5": "1", "r6": "1",
	}
	current := map[string]string{
		"r1": "0", "r2": "1", "r3": "0", "r4": "1", "r5": "0", "r6": "1",
	}

	ari := AdjustedRandIndex(contingencyOf(gold, current))

	if ari > 0.5 {
		t.Errorf("Expected ARI near 0 for dissimilar partitions. Got: %f", ari)
	}
}

func TestVariationOfInformation_Identical(t *testing.T) {
	labels := map[string]string{
		"r1": "0", "r2": "0", "r3": "1", "r4": "1", "r5": "2", "r6": "2",
	}

	vi := VariationOfInformation(contingencyOf(labels, labels))

	if vi > 0.01 {
		t.Errorf("Expected VI=0.0 for identical partitions. Got: %f", vi)
	}
}

func TestVariationOfInformation_Different(t *testing.T) {
	gold := map[string]string{
		"r1": "0", "r2": "0", "r3": "0", "r4": "1", "r5": "1", "r6": "1",
	}
	current := map[string]string{
		"r1": "0", "r2": "1", "r3": "0", "r4": "1", "r5": "0", "r6": "1",
	}

	vi := VariationOfInformation(contingencyOf(gold, current))

	if vi < 0.1 {
		t.Errorf("Expected VI > 0 for different partitions. Got: %f", vi)
	}
}

func TestEntropy(t *testing.T) {
	// Two equal halves carry exactly one bit.
	ent := Entropy(map[string]int{"a": 4, "b": 4}, 8)
	if math.Abs(ent-1.0) > 1e-9 {
		t.Errorf("Expected entropy 1.0 for an even split. Got: %f", ent)
	}

	if Entropy(map[string]int{"a": 8}, 8) != 0 {
		t.Error("Expected entropy 0 for a single cluster")
	}
}
