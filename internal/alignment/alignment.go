package alignment

import (
	"github.com/rawblock/resolution-eval/internal/pairwise"
	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// BestMatch maps every gold cluster to the current cluster it shares the
// most records with, for human-readable mismatch reporting. Ties break on
// the smallest current cluster ID so reports are stable across runs.
//
// The mapping is informational only. The pairwise metrics are computed
// directly from the contingency table and are invariant to cluster-ID
// relabeling; feeding alignment back into them would break that property.
func BestMatch(gold, current *partition.Partition, ct *pairwise.Contingency) []models.ClusterMatch {
	best := make(map[string]models.ClusterMatch)

	ct.Cells(func(key pairwise.CellKey, overlap int) {
		cur, seen := best[key.Gold]
		if !seen || overlap > cur.Overlap ||
			(overlap == cur.Overlap && key.Current < cur.CurrentCluster) {
			best[key.Gold] = models.ClusterMatch{
				GoldCluster:    key.Gold,
				CurrentCluster: key.Current,
				Overlap:        overlap,
			}
		}
	})

	matches := make([]models.ClusterMatch, 0, len(best))
	for _, g := range gold.Clusters() {
		m, ok := best[g]
		if !ok {
			continue
		}
		m.GoldSize = gold.ClusterSize(g)
		m.CurrentSize = current.ClusterSize(m.CurrentCluster)
		m.MissingRecords = difference(gold.Members(g), current.Members(m.CurrentCluster))
		m.ExtraRecords = difference(current.Members(m.CurrentCluster), gold.Members(g))
		matches = append(matches, m)
	}
	return matches
}

// difference returns the elements of a not present in b. Both inputs are
// sorted, so a single merge pass suffices.
func difference(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) {
		switch {
		case j >= len(b) || a[i] < b[j]:
			out = append(out, a[i])
			i++
		case a[i] == b[j]:
			i++
			j++
		default:
			j++
		}
	}
	return out
}
