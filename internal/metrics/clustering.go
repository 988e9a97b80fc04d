package metrics

import (
	"math"

	"github.com/rawblock/resolution-eval/internal/pairwise"
)

// AdjustedRandIndex computes the Adjusted Rand Index (ARI) between the two
// partitions summarized by a contingency table. ARI evaluates how well the
// current clusters reproduce the gold partition, instantly exposing
// cluster collapse that raw accuracy would hide.
//
// ARI = (RI - Expected_RI) / (Max_RI - Expected_RI)
// where RI = (a + b) / C(n, 2)
//   a = number of pairs in same cluster in both partitions
//   b = number of pairs in different clusters in both partitions
//
// Values range from -1 (worse than random) to 1 (perfect agreement). 0 = random.
func AdjustedRandIndex(ct *pairwise.Contingency) float64 {
	n := ct.Total()
	if n < 2 {
		return 0.0
	}

	// sum of C(n_ij, 2) over all cells
	sumNijC2 := 0.0
	ct.Cells(func(key pairwise.CellKey, overlap int) {
		sumNijC2 += comb2f(overlap)
	})

	counts := ct.PairCounts()
	sumAiC2 := float64(counts.GoldPairs)
	sumBjC2 := float64(counts.CurrentPairs)

	nC2 := comb2f(n)
	if nC2 == 0 {
		return 0.0
	}

	expectedIndex := (sumAiC2 * sumBjC2) / nC2
	maxIndex := 0.5 * (sumAiC2 + sumBjC2)

	denominator := maxIndex - expectedIndex
	if math.Abs(denominator) < 1e-12 {
		return 1.0 // Perfect agreement (both are 0)
	}

	return (sumNijC2 - expectedIndex) / denominator
}

// VariationOfInformation computes the VI distance between the two
// partitions summarized by a contingency table. VI is an
// information-theoretic metric measuring the information lost and gained
// when transitioning from one clustering to the other.
//
// VI(C, C') = H(C|C') + H(C'|C)
// where H is the conditional entropy.
//
// Lower is better. 0 = identical partitions.
func VariationOfInformation(ct *pairwise.Contingency) float64 {
	n := ct.Total()
	if n < 2 {
		return 0.0
	}
	nf := float64(n)

	// H(gold|current) = -sum_ij (n_ij/n) * log2(n_ij / b_j)
	// H(current|gold) = -sum_ij (n_ij/n) * log2(n_ij / a_i)
	var hGoldGivenCur, hCurGivenGold float64
	ct.Cells(func(key pairwise.CellKey, overlap int) {
		if overlap <= 0 {
			return
		}
		pij := float64(overlap) / nf
		if b := ct.CurrentSize(key.Current); b > 0 {
			hGoldGivenCur -= pij * math.Log2(float64(overlap)/float64(b))
		}
		if a := ct.GoldSize(key.Gold); a > 0 {
			hCurGivenGold -= pij * math.Log2(float64(overlap)/float64(a))
		}
	})

	return hGoldGivenCur + hCurGivenGold
}

// Entropy calculates the Shannon entropy of a partition given its cluster
// sizes and total record count.
func Entropy(clusterSizes map[string]int, total int) float64 {
	if total <= 0 {
		return 0.0
	}
	var ent float64
	for _, count := range clusterSizes {
		if count <= 0 {
			continue
		}
		p := float64(count) / float64(total)
		ent -= p * math.Log2(p)
	}
	return ent
}

// comb2f computes C(n, 2) = n*(n-1)/2
func comb2f(n int) float64 {
	if n < 2 {
		return 0
	}
	return float64(n) * float64(n-1) / 2.0
}
