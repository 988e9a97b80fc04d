package metrics

import (
	"math"
	"sort"

	"github.com/rawblock/resolution-eval/internal/partition"
)

// Generalized Merge Distance (GMD)
//
// Measures the cheapest sequence of cluster merges and splits that
// transforms the gold partition into the current one, with pluggable cost
// functions for each operation (Menestrina, Whang & Garcia-Molina,
// "Evaluating Entity Resolution Results", VLDB 2010).
//
// The slice algorithm's configuration charges max(a, b) for both
// operations. With cost a*b the split total equals the pairwise false
// negatives and the merge total the false positives, which gives an
// independent cross-check of the contingency-table counts.

// CostFunc prices one merge or split between groups of a and b records.
type CostFunc func(a, b float64) float64

// SliceCost is the slice-algorithm cost function: max(a, b).
func SliceCost(a, b float64) float64 {
	return math.Max(a, b)
}

// PairCost prices an operation by the number of record pairs it creates
// or breaks: a*b.
func PairCost(a, b float64) float64 {
	return a * b
}

// MergeDistance returns the total GMD cost of transforming gold into
// current under the given cost functions. Records missing from either
// partition are ignored; callers reconcile universes first.
func MergeDistance(gold, current *partition.Partition, mergeCost, splitCost CostFunc) float64 {
	merges, splits := MergeSplitCosts(gold, current, mergeCost, splitCost)
	return merges + splits
}

// MergeSplitCosts returns the merge and split cost totals separately.
//
// For each current cluster the shared records are grouped by their gold
// cluster. Each group is first sliced off its (remaining) gold cluster,
// charging splitCost, then folded into the current cluster under
// construction, charging mergeCost against the records already placed.
// Groups are visited in gold-cluster-ID order so the result is a pure
// function of the two partitions, independent of input row order.
func MergeSplitCosts(gold, current *partition.Partition, mergeCost, splitCost CostFunc) (merges, splits float64) {
	// Remaining size of each gold cluster as records are sliced away.
	remaining := make(map[string]int, gold.NumClusters())

	for _, record := range current.Records() {
		g, err := gold.ClusterOf(record)
		if err != nil {
			continue
		}
		remaining[g]++
	}

	for _, cc := range current.Clusters() {
		// Group this current cluster's records by gold cluster.
		overlap := make(map[string]int)
		for _, record := range current.Members(cc) {
			g, err := gold.ClusterOf(record)
			if err != nil {
				continue
			}
			overlap[g]++
		}

		goldIDs := make([]string, 0, len(overlap))
		for g := range overlap {
			goldIDs = append(goldIDs, g)
		}
		sort.Strings(goldIDs)

		placed := 0
		for _, g := range goldIDs {
			n := overlap[g]
			if remaining[g] > n {
				splits += splitCost(float64(n), float64(remaining[g]-n))
			}
			remaining[g] -= n

			if placed != 0 {
				merges += mergeCost(float64(n), float64(placed))
			}
			placed += n
		}
	}

	return merges, splits
}
