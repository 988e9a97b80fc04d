package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rawblock/resolution-eval/internal/partition"
)

// CSV ingestion for partition files.
//
// Three header shapes are accepted:
//
//	record_id,cluster_id   - minimal evaluation schema
//	entity_id,record_id    - resolution-engine export (cluster first)
//	record_a,record_b      - same-entity record pairs (link export)
//
// For the first two, column order follows the header, so either spelling
// works in either position, and every data row must have a value in both
// columns. Link exports carry no cluster IDs: the partition is the
// transitive closure of the pairs, with generated cluster IDs.

// ErrMalformedCSV marks rows that cannot be parsed into a
// (record, cluster) assignment. Wrapped errors carry the line number.
var ErrMalformedCSV = errors.New("malformed csv")

var clusterColumnNames = map[string]bool{
	"cluster_id": true,
	"entity_id":  true,
}

// LoadPartition reads a partition CSV from disk. File-system errors are
// returned as-is so callers can distinguish a missing file from bad content.
func LoadPartition(path string) (*partition.Partition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadPartition(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ReadPartition parses partition rows from a reader.
func ReadPartition(r io.Reader) (*partition.Partition, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // row width validated per line for better messages
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file, expected a header row", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: line 1: %v", ErrMalformedCSV, err)
	}

	if isLinkHeader(header) {
		return readLinkRows(cr)
	}

	recordCol, clusterCol, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}
	width := max(recordCol, clusterCol) + 1

	var assignments []partition.Assignment
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		if len(row) < width {
			return nil, fmt.Errorf("%w: line %d: expected %d columns, got %d",
				ErrMalformedCSV, line, width, len(row))
		}

		record := strings.TrimSpace(row[recordCol])
		cluster := strings.TrimSpace(row[clusterCol])
		if record == "" || cluster == "" {
			return nil, fmt.Errorf("%w: line %d: empty record or cluster id", ErrMalformedCSV, line)
		}
		assignments = append(assignments, partition.Assignment{RecordID: record, ClusterID: cluster})
	}

	if len(assignments) == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformedCSV)
	}

	return partition.New(assignments)
}

// LoadLinks reads a two-column CSV of same-entity record pairs and builds
// a partition from their transitive closure. A row linking a record to
// itself registers the record without merging anything, so singleton
// entities can be declared explicitly.
func LoadLinks(path string) (*partition.Partition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p, err := ReadLinks(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ReadLinks parses record-pair rows from a reader. The header names are
// not significant but it must declare at least two columns.
func ReadLinks(r io.Reader) (*partition.Partition, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file, expected a header row", ErrMalformedCSV)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: line 1: %v", ErrMalformedCSV, err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("%w: link header must name two record columns, got %q",
			ErrMalformedCSV, strings.Join(header, ","))
	}

	return readLinkRows(cr)
}

// isLinkHeader recognizes the pair-export header shape.
func isLinkHeader(header []string) bool {
	if len(header) != 2 {
		return false
	}
	a := strings.ToLower(strings.TrimSpace(header[0]))
	b := strings.ToLower(strings.TrimSpace(header[1]))
	return a == "record_a" && b == "record_b"
}

// readLinkRows consumes the data rows after a link header and freezes the
// transitive closure into a partition.
func readLinkRows(cr *csv.Reader) (*partition.Partition, error) {
	builder := partition.NewBuilder()
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedCSV, line, err)
		}
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: line %d: expected 2 columns, got %d",
				ErrMalformedCSV, line, len(row))
		}

		a := strings.TrimSpace(row[0])
		b := strings.TrimSpace(row[1])
		if a == "" || b == "" {
			return nil, fmt.Errorf("%w: line %d: empty record id", ErrMalformedCSV, line)
		}
		if a == b {
			builder.Add(a)
			continue
		}
		builder.Link(a, b)
	}

	if builder.NumRecords() == 0 {
		return nil, fmt.Errorf("%w: no data rows", ErrMalformedCSV)
	}

	return builder.Partition(), nil
}

func resolveColumns(header []string) (recordCol, clusterCol int, err error) {
	recordCol, clusterCol = -1, -1
	for i, name := range header {
		switch n := strings.ToLower(strings.TrimSpace(name)); {
		case n == "record_id":
			recordCol = i
		case clusterColumnNames[n]:
			clusterCol = i
		}
	}
	if recordCol < 0 || clusterCol < 0 {
		return 0, 0, fmt.Errorf("%w: header must name a record_id column and a cluster_id or entity_id column, got %q",
			ErrMalformedCSV, strings.Join(header, ","))
	}
	return recordCol, clusterCol, nil
}
