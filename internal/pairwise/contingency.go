package pairwise

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/rawblock/resolution-eval/internal/partition"
)

// Contingency cross-tabulates two partitions over a shared record
// universe: for every (gold cluster, current cluster) pair it counts the
// records assigned to both. All pairwise metrics derive from these counts
// in O(N) without ever enumerating record pairs, which would be quadratic
// in the largest cluster size.

// CellKey identifies one cell of the contingency table.
type CellKey struct {
	Gold    string
	Current string
}

type Contingency struct {
	cells       map[CellKey]int
	goldSize    map[string]int
	currentSize map[string]int
	total       int
}

// Build scans the shared records of gold and current and aggregates the
// contingency table. Records outside either partition are skipped; the
// caller reconciles universes beforehand.
func Build(gold, current *partition.Partition) *Contingency {
	ct := newContingency()
	for _, record := range gold.Records() {
		g, err := gold.ClusterOf(record)
		if err != nil {
			continue
		}
		c, err := current.ClusterOf(record)
		if err != nil {
			continue
		}
		ct.add(g, c, 1)
	}
	return ct
}

// BuildParallel partitions the record scan across workers and merges the
// partial tables. Aggregation is associative and commutative, so partial
// tables merge by plain summation of matching cells. Falls back to the
// sequential build for small universes where goroutine overhead dominates.
func BuildParallel(gold, current *partition.Partition, workers int) *Contingency {
	records := gold.Records()
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers == 1 || len(records) < 4096 {
		return Build(gold, current)
	}

	partials := make([]*Contingency, workers)
	chunk := (len(records) + workers - 1) / workers

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		w := w
		lo := w * chunk
		hi := lo + chunk
		if hi > len(records) {
			hi = len(records)
		}
		if lo >= hi {
			partials[w] = newContingency()
			continue
		}
		g.Go(func() error {
			ct := newContingency()
			for _, record := range records[lo:hi] {
				gc, err := gold.ClusterOf(record)
				if err != nil {
					continue
				}
				cc, err := current.ClusterOf(record)
				if err != nil {
					continue
				}
				ct.add(gc, cc, 1)
			}
			partials[w] = ct
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	merged := newContingency()
	for _, ct := range partials {
		merged.merge(ct)
	}
	return merged
}

func newContingency() *Contingency {
	return &Contingency{
		cells:       make(map[CellKey]int),
		goldSize:    make(map[string]int),
		currentSize: make(map[string]int),
	}
}

func (ct *Contingency) add(gold, current string, n int) {
	ct.cells[CellKey{Gold: gold, Current: current}] += n
	ct.goldSize[gold] += n
	ct.currentSize[current] += n
	ct.total += n
}

func (ct *Contingency) merge(other *Contingency) {
	for key, n := range other.cells {
		ct.cells[key] += n
		ct.goldSize[key.Gold] += n
		ct.currentSize[key.Current] += n
	}
	ct.total += other.total
}

// Overlap returns the number of shared records between a gold and a
// current cluster.
func (ct *Contingency) Overlap(gold, current string) int {
	return ct.cells[CellKey{Gold: gold, Current: current}]
}

// GoldSize returns the number of shared-universe records in a gold cluster.
func (ct *Contingency) GoldSize(gold string) int {
	return ct.goldSize[gold]
}

// CurrentSize returns the number of shared-universe records in a current cluster.
func (ct *Contingency) CurrentSize(current string) int {
	return ct.currentSize[current]
}

// Total returns the number of records aggregated into the table.
func (ct *Contingency) Total() int {
	return ct.total
}

// Cells iterates every non-zero cell. Iteration order is unspecified.
func (ct *Contingency) Cells(fn func(key CellKey, overlap int)) {
	for key, n := range ct.cells {
		fn(key, n)
	}
}

// Counts holds the pair-level confusion counts derived from the table.
type Counts struct {
	TruePositives int64
	GoldPairs     int64
	CurrentPairs  int64
}

// FalseNegatives is GoldPairs - TruePositives.
func (c Counts) FalseNegatives() int64 { return c.GoldPairs - c.TruePositives }

// FalsePositives is CurrentPairs - TruePositives.
func (c Counts) FalsePositives() int64 { return c.CurrentPairs - c.TruePositives }

// PairCounts computes TP and the gold/current pair totals:
//
//	TP            = Σ over cells of C(overlap, 2)
//	gold pairs    = Σ over gold clusters of C(size, 2)
//	current pairs = Σ over current clusters of C(size, 2)
func (ct *Contingency) PairCounts() Counts {
	var counts Counts
	for _, n := range ct.cells {
		counts.TruePositives += comb2(n)
	}
	for _, n := range ct.goldSize {
		counts.GoldPairs += comb2(n)
	}
	for _, n := range ct.currentSize {
		counts.CurrentPairs += comb2(n)
	}
	return counts
}

// comb2 computes C(n, 2) = n*(n-1)/2
func comb2(n int) int64 {
	if n < 2 {
		return 0
	}
	return int64(n) * int64(n-1) / 2
}

// CoMembers reports whether two distinct records share a cluster in the
// given partition. O(1): two lookups and a comparison, no pair index.
func CoMembers(p *partition.Partition, r1, r2 string) bool {
	if r1 == r2 {
		return false
	}
	c1, err := p.ClusterOf(r1)
	if err != nil {
		return false
	}
	c2, err := p.ClusterOf(r2)
	if err != nil {
		return false
	}
	return c1 == c2
}
