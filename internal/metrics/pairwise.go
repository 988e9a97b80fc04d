package metrics

import (
	"github.com/rawblock/resolution-eval/internal/pairwise"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// PairwiseMetrics derives precision, recall and F1 from the pair-level
// confusion counts.
//
// Edge policy: with no predicted pairs precision is 1.0 (nothing asserted,
// nothing wrong), and with no gold pairs recall is 1.0. F1 is 0 when both
// components are 0. These conventions keep all three values in [0,1] for
// every input, including all-singleton partitions.
func PairwiseMetrics(counts pairwise.Counts) models.PairwiseMetrics {
	m := models.PairwiseMetrics{
		TruePositives:  counts.TruePositives,
		FalsePositives: counts.FalsePositives(),
		FalseNegatives: counts.FalseNegatives(),
		GoldPairs:      counts.GoldPairs,
		CurrentPairs:   counts.CurrentPairs,
	}

	if counts.CurrentPairs == 0 {
		m.Precision = 1.0
	} else {
		m.Precision = float64(counts.TruePositives) / float64(counts.CurrentPairs)
	}

	if counts.GoldPairs == 0 {
		m.Recall = 1.0
	} else {
		m.Recall = float64(counts.TruePositives) / float64(counts.GoldPairs)
	}

	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}

	return m
}
