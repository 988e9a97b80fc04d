package partition

import (
	"errors"
	"fmt"
	"sort"
)

// Partition is a read-only assignment of every record to exactly one
// cluster. Built once per run from external input; the evaluation engine
// never mutates it afterwards.

var (
	// ErrUnknownRecord is returned when a record ID is not part of the
	// partition's universe.
	ErrUnknownRecord = errors.New("unknown record")
	// ErrInvalidPartition is returned when input maps a record to more
	// than one cluster (conflicting duplicate rows in the source file).
	ErrInvalidPartition = errors.New("invalid partition")
)

type Partition struct {
	clusterOf map[string]string   // record -> cluster
	members   map[string][]string // cluster -> records
}

// Assignment is a single record-to-cluster row as produced by a loader.
type Assignment struct {
	RecordID  string
	ClusterID string
}

// New builds a Partition from assignments, rejecting conflicting
// duplicates. A repeated row with the same cluster is tolerated.
func New(assignments []Assignment) (*Partition, error) {
	p := &Partition{
		clusterOf: make(map[string]string, len(assignments)),
		members:   make(map[string][]string),
	}

	for _, a := range assignments {
		if prev, seen := p.clusterOf[a.RecordID]; seen {
			if prev == a.ClusterID {
				continue
			}
			return nil, fmt.Errorf("%w: record %q assigned to clusters %q and %q",
				ErrInvalidPartition, a.RecordID, prev, a.ClusterID)
		}
		p.clusterOf[a.RecordID] = a.ClusterID
		p.members[a.ClusterID] = append(p.members[a.ClusterID], a.RecordID)
	}

	return p, nil
}

// FromMap builds a Partition from a record -> cluster mapping.
func FromMap(clusterOf map[string]string) *Partition {
	p := &Partition{
		clusterOf: make(map[string]string, len(clusterOf)),
		members:   make(map[string][]string),
	}
	for record, cluster := range clusterOf {
		p.clusterOf[record] = cluster
		p.members[cluster] = append(p.members[cluster], record)
	}
	return p
}

// ClusterOf returns the cluster ID for a record.
func (p *Partition) ClusterOf(record string) (string, error) {
	cluster, ok := p.clusterOf[record]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRecord, record)
	}
	return cluster, nil
}

// Contains reports whether the record belongs to the partition's universe.
func (p *Partition) Contains(record string) bool {
	_, ok := p.clusterOf[record]
	return ok
}

// Records returns all record IDs, sorted for deterministic iteration.
func (p *Partition) Records() []string {
	records := make([]string, 0, len(p.clusterOf))
	for r := range p.clusterOf {
		records = append(records, r)
	}
	sort.Strings(records)
	return records
}

// Clusters returns all cluster IDs, sorted for deterministic iteration.
func (p *Partition) Clusters() []string {
	clusters := make([]string, 0, len(p.members))
	for c := range p.members {
		clusters = append(clusters, c)
	}
	sort.Strings(clusters)
	return clusters
}

// Members returns the records of one cluster, sorted. Nil for an unknown
// cluster ID.
func (p *Partition) Members(cluster string) []string {
	records, ok := p.members[cluster]
	if !ok {
		return nil
	}
	out := make([]string, len(records))
	copy(out, records)
	sort.Strings(out)
	return out
}

// ClusterSize returns the number of records in a cluster (0 if unknown).
func (p *Partition) ClusterSize(cluster string) int {
	return len(p.members[cluster])
}

// NumRecords returns the size of the record universe.
func (p *Partition) NumRecords() int {
	return len(p.clusterOf)
}

// NumClusters returns the number of distinct clusters.
func (p *Partition) NumClusters() int {
	return len(p.members)
}

// Restrict returns a new Partition containing only the records for which
// keep returns true. Clusters emptied by the restriction disappear.
func (p *Partition) Restrict(keep func(record string) bool) *Partition {
	out := &Partition{
		clusterOf: make(map[string]string),
		members:   make(map[string][]string),
	}
	for record, cluster := range p.clusterOf {
		if keep(record) {
			out.clusterOf[record] = cluster
			out.members[cluster] = append(out.members[cluster], record)
		}
	}
	return out
}
