package drift

import (
	"context"
	"log"
	"math"
	"time"

	"github.com/rawblock/resolution-eval/internal/db"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// Monitor tracks metric drift across evaluation runs of the same labelled
// comparison (same gold reference, evolving current partitions). Each new
// run is scored against the stored baseline; a quality regression beyond
// the threshold is flagged and persisted, never silently absorbed into
// the baseline.
type Monitor struct {
	store *db.PostgresStore
	// threshold is the absolute F1 delta beyond which a run counts as
	// diverged from the baseline.
	threshold float64
}

// DefaultThreshold flags runs whose F1 moves more than one point.
const DefaultThreshold = 0.01

// NewMonitor creates a drift monitor backed by the run-history store.
func NewMonitor(store *db.PostgresStore, threshold float64) *Monitor {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Monitor{store: store, threshold: threshold}
}

// Record persists a run under label and compares it to the label's
// baseline. The first run of a label becomes its implicit baseline and
// yields no drift row.
func (m *Monitor) Record(ctx context.Context, label string, result *models.EvaluationResult) (*models.DriftResult, error) {
	if err := m.store.SaveRun(ctx, label, result); err != nil {
		return nil, err
	}

	baseline, err := m.store.GetBaseline(ctx, label)
	if err != nil {
		return nil, err
	}
	if baseline.RunID == result.RunID {
		// First run for this label; nothing to compare against.
		return nil, nil
	}

	d := &models.DriftResult{
		RunID:          result.RunID,
		BaselineRunID:  baseline.RunID,
		DeltaPrecision: result.Pairwise.Precision - baseline.Precision,
		DeltaRecall:    result.Pairwise.Recall - baseline.Recall,
		DeltaF1:        result.Pairwise.F1 - baseline.F1,
		CreatedAt:      time.Now().UTC(),
	}
	d.Diverged = math.Abs(d.DeltaF1) > m.threshold

	if d.Diverged {
		log.Printf("[Drift] DIVERGENCE on %s: baseline=%s delta_p=%+.4f delta_r=%+.4f delta_f1=%+.4f",
			label, baseline.RunID, d.DeltaPrecision, d.DeltaRecall, d.DeltaF1)
	}

	if err := m.store.SaveDrift(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Report aggregates the divergence rate for a label.
func (m *Monitor) Report(ctx context.Context, label string) (totalRuns, divergences int, avgDeltaF1 float64, err error) {
	return m.store.DriftReport(ctx, label)
}
