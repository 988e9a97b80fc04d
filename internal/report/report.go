package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// Format selects the rendering of an evaluation result.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown report format %q (want text, csv or json)", s)
}

// Write renders the result in the requested format.
func Write(w io.Writer, result *models.EvaluationResult, format Format) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, result)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	default:
		return writeText(w, result)
	}
}

func writeText(w io.Writer, r *models.EvaluationResult) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Run:              %s\n", r.RunID)
	fmt.Fprintf(&b, "Gold clusters:    %d\n", r.GoldClusters)
	fmt.Fprintf(&b, "Current clusters: %d\n", r.CurrentClusters)
	fmt.Fprintf(&b, "Shared records:   %d\n", r.Universe.SharedRecords)

	if r.Universe.Mismatch {
		fmt.Fprintf(&b, "\nWARNING: record universes differ (%d gold-only, %d current-only records).\n",
			r.Universe.GoldOnlyRecords, r.Universe.CurrentOnlyRecords)
		fmt.Fprintf(&b, "Metrics below cover the shared records only.\n")
	}

	p := r.Pairwise
	fmt.Fprintf(&b, "\nPairwise (TP=%d FP=%d FN=%d)\n", p.TruePositives, p.FalsePositives, p.FalseNegatives)
	fmt.Fprintf(&b, "  Precision: %.4f\n", p.Precision)
	fmt.Fprintf(&b, "  Recall:    %.4f\n", p.Recall)
	fmt.Fprintf(&b, "  F1:        %.4f\n", p.F1)

	fmt.Fprintf(&b, "\nAdjusted Rand Index:      %.4f\n", r.AdjustedRand)
	fmt.Fprintf(&b, "Variation of Information: %.4f\n", r.VariationOfInfo)
	fmt.Fprintf(&b, "Slice cost (GMD, max):    %.1f\n", r.SliceCost)

	if len(r.Alignment) > 0 {
		fmt.Fprintf(&b, "\nCluster alignment (gold -> best current):\n")
		for _, m := range r.Alignment {
			fmt.Fprintf(&b, "  %s -> %s  overlap=%d/%d", m.GoldCluster, m.CurrentCluster, m.Overlap, m.GoldSize)
			if len(m.MissingRecords) > 0 {
				fmt.Fprintf(&b, "  missing=%s", strings.Join(m.MissingRecords, "|"))
			}
			if len(m.ExtraRecords) > 0 {
				fmt.Fprintf(&b, "  extra=%s", strings.Join(m.ExtraRecords, "|"))
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, r *models.EvaluationResult) error {
	cw := csv.NewWriter(w)
	rows := [][]string{
		{"metric", "value"},
		{"run_id", r.RunID},
		{"gold_clusters", strconv.Itoa(r.GoldClusters)},
		{"current_clusters", strconv.Itoa(r.CurrentClusters)},
		{"shared_records", strconv.Itoa(r.Universe.SharedRecords)},
		{"gold_only_records", strconv.Itoa(r.Universe.GoldOnlyRecords)},
		{"current_only_records", strconv.Itoa(r.Universe.CurrentOnlyRecords)},
		{"true_positives", strconv.FormatInt(r.Pairwise.TruePositives, 10)},
		{"false_positives", strconv.FormatInt(r.Pairwise.FalsePositives, 10)},
		{"false_negatives", strconv.FormatInt(r.Pairwise.FalseNegatives, 10)},
		{"precision", formatFloat(r.Pairwise.Precision)},
		{"recall", formatFloat(r.Pairwise.Recall)},
		{"f1", formatFloat(r.Pairwise.F1)},
		{"adjusted_rand_index", formatFloat(r.AdjustedRand)},
		{"variation_of_information", formatFloat(r.VariationOfInfo)},
		{"slice_cost", formatFloat(r.SliceCost)},
	}
	for _, row := range rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 6, 64)
}

// WriteEntities dumps a partition cluster by cluster, one line per
// cluster with its member records.
func WriteEntities(w io.Writer, p *partition.Partition) error {
	for i, cluster := range p.Clusters() {
		_, err := fmt.Fprintf(w, "Entity %d (cluster %s): %s\n",
			i+1, cluster, strings.Join(p.Members(cluster), ", "))
		if err != nil {
			return err
		}
	}
	return nil
}
