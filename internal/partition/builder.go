package partition

import (
	"fmt"
	"sort"
)

// Builder assembles a Partition from pairwise same-entity links, the raw
// output shape of most resolution engines before cluster IDs are assigned.
//
// Implementation: weighted Union-Find with path compression.
//   - Find: O(α(n)) ≈ O(1) amortized (inverse Ackermann)
//   - Union: O(α(n)) ≈ O(1) amortized
//   - Space: O(n) where n = number of unique records
type Builder struct {
	parent map[string]string // parent[record] = parent record
	rank   map[string]int    // rank for union by rank
	size   map[string]int    // cluster size at root
}

// NewBuilder creates an empty union-find builder.
func NewBuilder() *Builder {
	return &Builder{
		parent: make(map[string]string),
		rank:   make(map[string]int),
		size:   make(map[string]int),
	}
}

// Add registers a record without linking it to anything, so singletons
// survive into the final partition.
func (b *Builder) Add(record string) {
	b.Find(record)
}

// Find returns the root representative of the set containing record.
// Uses path compression for amortized O(1) performance.
func (b *Builder) Find(record string) string {
	if _, exists := b.parent[record]; !exists {
		b.parent[record] = record
		b.rank[record] = 0
		b.size[record] = 1
	}

	if b.parent[record] != record {
		b.parent[record] = b.Find(b.parent[record])
	}
	return b.parent[record]
}

// Link merges the sets containing r1 and r2. Uses union by rank to keep
// the tree balanced. Returns true if a merge actually occurred.
func (b *Builder) Link(r1, r2 string) bool {
	root1 := b.Find(r1)
	root2 := b.Find(r2)

	if root1 == root2 {
		return false
	}

	if b.rank[root1] < b.rank[root2] {
		b.parent[root1] = root2
		b.size[root2] += b.size[root1]
	} else if b.rank[root1] > b.rank[root2] {
		b.parent[root2] = root1
		b.size[root1] += b.size[root2]
	} else {
		b.parent[root2] = root1
		b.size[root1] += b.size[root2]
		b.rank[root1]++
	}

	return true
}

// SetSize returns the number of records in the set containing record.
func (b *Builder) SetSize(record string) int {
	return b.size[b.Find(record)]
}

// NumRecords returns the number of tracked records.
func (b *Builder) NumRecords() int {
	return len(b.parent)
}

// NumSets returns the number of distinct sets.
func (b *Builder) NumSets() int {
	roots := make(map[string]bool)
	for r := range b.parent {
		roots[b.Find(r)] = true
	}
	return len(roots)
}

// Partition freezes the current sets into a Partition. Cluster IDs are
// assigned deterministically: sets are ordered by their smallest record
// ID and numbered from 1.
func (b *Builder) Partition() *Partition {
	sets := make(map[string][]string)
	for r := range b.parent {
		root := b.Find(r)
		sets[root] = append(sets[root], r)
	}

	minOf := make(map[string]string, len(sets))
	roots := make([]string, 0, len(sets))
	for root, records := range sets {
		sort.Strings(records)
		minOf[root] = records[0]
		roots = append(roots, root)
	}
	sort.Slice(roots, func(i, j int) bool { return minOf[roots[i]] < minOf[roots[j]] })

	clusterOf := make(map[string]string, len(b.parent))
	for i, root := range roots {
		cluster := fmt.Sprintf("%d", i+1)
		for _, r := range sets[root] {
			clusterOf[r] = cluster
		}
	}
	return FromMap(clusterOf)
}
