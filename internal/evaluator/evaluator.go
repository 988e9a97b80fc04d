package evaluator

import (
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/rawblock/resolution-eval/internal/alignment"
	"github.com/rawblock/resolution-eval/internal/metrics"
	"github.com/rawblock/resolution-eval/internal/pairwise"
	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// Options tunes a single evaluation. The zero value is a sensible default.
type Options struct {
	// WithAlignment adds the per-cluster best-match detail to the result.
	WithAlignment bool
	// Workers bounds the contingency build parallelism. 0 = GOMAXPROCS.
	Workers int
}

// Evaluate compares a current partition against the gold reference and
// returns the full metric set. Pure with respect to its inputs: partitions
// are never mutated and repeated calls yield identical metrics (only the
// run ID and timestamp differ).
//
// When the two record universes disagree, metrics are computed over the
// intersection and the disagreement counts are carried on the result.
func Evaluate(gold, current *partition.Partition, opts Options) *models.EvaluationResult {
	universe, goldShared, currentShared := reconcile(gold, current)
	if universe.Mismatch {
		log.Printf("[Evaluator] universe mismatch: %d shared, %d gold-only, %d current-only records",
			universe.SharedRecords, universe.GoldOnlyRecords, universe.CurrentOnlyRecords)
	}

	ct := pairwise.BuildParallel(goldShared, currentShared, opts.Workers)

	result := &models.EvaluationResult{
		RunID:           uuid.New().String(),
		Pairwise:        metrics.PairwiseMetrics(ct.PairCounts()),
		AdjustedRand:    metrics.AdjustedRandIndex(ct),
		VariationOfInfo: metrics.VariationOfInformation(ct),
		SliceCost:       metrics.MergeDistance(goldShared, currentShared, metrics.SliceCost, metrics.SliceCost),
		GoldClusters:    goldShared.NumClusters(),
		CurrentClusters: currentShared.NumClusters(),
		Universe:        universe,
		EvaluatedAt:     time.Now().UTC(),
	}

	if opts.WithAlignment {
		result.Alignment = alignment.BestMatch(goldShared, currentShared, ct)
	}

	return result
}

// reconcile restricts both partitions to their shared record universe and
// reports the disagreement counts.
func reconcile(gold, current *partition.Partition) (models.UniverseReport, *partition.Partition, *partition.Partition) {
	report := models.UniverseReport{}

	goldShared := gold.Restrict(current.Contains)
	currentShared := current.Restrict(gold.Contains)

	report.SharedRecords = goldShared.NumRecords()
	report.GoldOnlyRecords = gold.NumRecords() - goldShared.NumRecords()
	report.CurrentOnlyRecords = current.NumRecords() - currentShared.NumRecords()
	report.Mismatch = report.GoldOnlyRecords > 0 || report.CurrentOnlyRecords > 0

	return report, goldShared, currentShared
}
