package metrics

import (
	"math"
	"testing"

	"github.com/rawblock/resolution-eval/internal/pairwise"
	"github.com/rawblock/resolution-eval/internal/partition"
)

func TestPairwiseMetrics_ReferenceScenario(t *testing.T) {
	// gold = {A,B | C,D}, current = {A,B,C | D}:
	// TP=1, gold pairs=2, current pairs=3 -> P=1/3, R=1/2, F1=0.4
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "2", "D": "2"})
	current := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "1", "D": "2"})

	m := PairwiseMetrics(pairwise.Build(gold, current).PairCounts())

	if math.Abs(m.Precision-1.0/3.0) > 1e-9 {
		t.Errorf("Expected precision 1/3. Got: %f", m.Precision)
	}
	if math.Abs(m.Recall-0.5) > 1e-9 {
		t.Errorf("Expected recall 1/2. Got: %f", m.Recall)
	}
	if math.Abs(m.F1-0.4) > 1e-9 {
		t.Errorf("Expected F1 0.4. Got: %f", m.F1)
	}
}

func TestPairwiseMetrics_IdenticalPartitions(t *testing.T) {
	labels := map[string]string{"A": "1", "B": "1", "C": "2", "D": "2", "E": "2"}
	p := partition.FromMap(labels)

	m := PairwiseMetrics(pairwise.Build(p, p).PairCounts())

	if m.Precision != 1.0 || m.Recall != 1.0 || m.F1 != 1.0 {
		t.Errorf("Expected P=R=F1=1.0 for identical partitions. Got: P=%f R=%f F1=%f",
			m.Precision, m.Recall, m.F1)
	}
	if m.TruePositives != m.GoldPairs || m.TruePositives != m.CurrentPairs {
		t.Errorf("Expected TP == gold pairs == current pairs. Got: %+v", m)
	}
}

func TestPairwiseMetrics_AllSingletonsCurrent(t *testing.T) {
	// Current asserts no pairs at all: recall collapses, precision is 1.0
	// by the no-predicted-pairs policy.
	gold := partition.FromMap(map[string]string{"A": "1", "B": "1", "C": "1"})
	current := partition.FromMap(map[string]string{"A": "x", "B": "y", "C": "z"})

	m := PairwiseMetrics(pairwise.Build(gold, current).PairCounts())

	if m.TruePositives != 0 {
		t.Errorf("Expected TP=0. Got: %d", m.TruePositives)
	}
	if m.Precision != 1.0 {
		t.Errorf("Expected precision 1.0 with no predicted pairs. Got: %f", m.Precision)
	}
	if m.Recall != 0.0 {
		t.Errorf("Expected recall 0. Got: %f", m.Recall)
	}
	if m.F1 != 0.0 {
		t.Errorf("Expected F1 0 when recall is 0. Got: %f", m.F1)
	}
}

func TestPairwiseMetrics_BothAllSingletons(t *testing.T) {
	gold := partition.FromMap(map[string]string{"A": "1", "B": "2"})
	current := partition.FromMap(map[string]string{"A": "x", "B": "y"})

	m := PairwiseMetrics(pairwise.Build(gold, current).PairCounts())

	if m.Precision != 1.0 || m.Recall != 1.0 {
		t.Errorf("Expected P=R=1.0 when neither side asserts pairs. Got: P=%f R=%f",
			m.Precision, m.Recall)
	}
}

func TestPairwiseMetrics_Bounds(t *testing.T) {
	cases := []struct {
		name          string
		gold, current map[string]string
	}{
		{"reference", map[string]string{"A": "1", "B": "1", "C": "2", "D": "2"},
			map[string]string{"A": "1", "B": "1", "C": "1", "D": "2"}},
		{"collapsed", map[string]string{"A": "1", "B": "2", "C": "3"},
			map[string]string{"A": "1", "B": "1", "C": "1"}},
		{"shuffled", map[string]string{"A": "1", "B": "1", "C": "2", "D": "2", "E": "3"},
			map[string]string{"A": "1", "B": "2", "C": "1", "D": "2", "E": "1"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := PairwiseMetrics(pairwise.Build(
				partition.FromMap(tc.gold), partition.FromMap(tc.current)).PairCounts())
			for metric, v := range map[string]float64{"precision": m.Precision, "recall": m.Recall, "f1": m.F1} {
				if v < 0 || v > 1 {
					t.Errorf("%s out of [0,1]: %f", metric, v)
				}
			}
		})
	}
}
