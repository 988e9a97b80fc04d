package db

import (
	"context"
	_ "embed"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rawblock/resolution-eval/pkg/models"
)

// schemaSQL is compiled into the binary at build time so schema init works
// inside runtime images that do not ship internal/db/schema.sql.
//
//go:embed schema.sql
var schemaSQL string

type PostgresStore struct {
	pool *pgxpool.Pool
}

// Connect initializes the connection pool to PostgreSQL using pgx
func Connect(connStr string) (*PostgresStore, error) {
	pool, err := pgxpool.New(context.Background(), connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %v", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("ping failed: %v", err)
	}

	log.Println("Successfully connected to PostgreSQL for run history")
	return &PostgresStore{pool: pool}, nil
}

// Close gracefully closes the connection pool
func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// InitSchema executes the embedded schema.sql DDL statements.
func (s *PostgresStore) InitSchema() error {
	_, err := s.pool.Exec(context.Background(), schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema migrations: %v", err)
	}

	log.Println("Evaluation run schema initialized")
	return nil
}

// SaveRun persists one evaluation result. Conflicting run IDs update in
// place so re-submitting a stored result is idempotent.
func (s *PostgresStore) SaveRun(ctx context.Context, label string, r *models.EvaluationResult) error {
	sql := `
		INSERT INTO eval_runs
			(run_id, label, true_positives, false_positives, false_negatives,
			 precision_score, recall_score, f1_score, adjusted_rand, variation_of_info,
			 slice_cost, gold_clusters, current_clusters, shared_records,
			 gold_only_records, current_only_records, evaluated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		ON CONFLICT (run_id) DO UPDATE SET
			label = EXCLUDED.label,
			precision_score = EXCLUDED.precision_score,
			recall_score = EXCLUDED.recall_score,
			f1_score = EXCLUDED.f1_score;
	`
	_, err := s.pool.Exec(ctx, sql,
		r.RunID, label,
		r.Pairwise.TruePositives, r.Pairwise.FalsePositives, r.Pairwise.FalseNegatives,
		r.Pairwise.Precision, r.Pairwise.Recall, r.Pairwise.F1,
		r.AdjustedRand, r.VariationOfInfo, r.SliceCost,
		r.GoldClusters, r.CurrentClusters,
		r.Universe.SharedRecords, r.Universe.GoldOnlyRecords, r.Universe.CurrentOnlyRecords,
		r.EvaluatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert eval run: %v", err)
	}
	return nil
}

// RunSummary is the row shape returned by run-history queries.
type RunSummary struct {
	RunID        string  `json:"runId"`
	Label        string  `json:"label"`
	Precision    float64 `json:"precision"`
	Recall       float64 `json:"recall"`
	F1           float64 `json:"f1"`
	AdjustedRand float64 `json:"adjustedRand"`
	SliceCost    float64 `json:"sliceCost"`
	EvaluatedAt  string  `json:"evaluatedAt"`
}

// ListRuns returns run summaries, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, page, limit int) ([]RunSummary, int, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * limit

	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM eval_runs`).Scan(&totalCount); err != nil {
		return nil, 0, err
	}

	dataSQL := `
		SELECT run_id, label, precision_score, recall_score, f1_score,
		       adjusted_rand, slice_cost, evaluated_at::text
		FROM eval_runs
		ORDER BY evaluated_at DESC
		LIMIT $1 OFFSET $2
	`
	rows, err := s.pool.Query(ctx, dataSQL, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Label, &r.Precision, &r.Recall, &r.F1,
			&r.AdjustedRand, &r.SliceCost, &r.EvaluatedAt); err != nil {
			return nil, 0, err
		}
		runs = append(runs, r)
	}
	if rows.Err() != nil {
		return nil, 0, rows.Err()
	}
	return runs, totalCount, nil
}

// GetBaseline returns the stored metrics of the run marked as baseline for
// a label, or the oldest run when none is marked.
func (s *PostgresStore) GetBaseline(ctx context.Context, label string) (*RunSummary, error) {
	sql := `
		SELECT run_id, label, precision_score, recall_score, f1_score,
		       adjusted_rand, slice_cost, evaluated_at::text
		FROM eval_runs
		WHERE label = $1
		ORDER BY is_baseline DESC, evaluated_at ASC
		LIMIT 1
	`
	var r RunSummary
	err := s.pool.QueryRow(ctx, sql, label).Scan(&r.RunID, &r.Label, &r.Precision,
		&r.Recall, &r.F1, &r.AdjustedRand, &r.SliceCost, &r.EvaluatedAt)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// MarkBaseline flags one run as the drift baseline for its label.
func (s *PostgresStore) MarkBaseline(ctx context.Context, runID string) error {
	result, err := s.pool.Exec(ctx,
		`UPDATE eval_runs SET is_baseline = (run_id = $1)
		 WHERE label = (SELECT label FROM eval_runs WHERE run_id = $1)`, runID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("run not found: %s", runID)
	}
	return nil
}

// SaveDrift persists a drift comparison between a run and its baseline.
func (s *PostgresStore) SaveDrift(ctx context.Context, d *models.DriftResult) error {
	sql := `
		INSERT INTO drift_results
			(run_id, baseline_run_id, delta_precision, delta_recall, delta_f1, diverged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.pool.Exec(ctx, sql,
		d.RunID, d.BaselineRunID, d.DeltaPrecision, d.DeltaRecall, d.DeltaF1, d.Diverged, d.CreatedAt)
	return err
}

// DriftReport aggregates divergence over all drift rows for a label.
func (s *PostgresStore) DriftReport(ctx context.Context, label string) (totalRuns, divergences int, avgDeltaF1 float64, err error) {
	sql := `
		SELECT COUNT(*) AS total,
		       COUNT(*) FILTER (WHERE diverged) AS divergences,
		       COALESCE(AVG(delta_f1), 0) AS avg_delta
		FROM drift_results d
		JOIN eval_runs r ON r.run_id = d.run_id
		WHERE r.label = $1
	`
	row := s.pool.QueryRow(ctx, sql, label)
	err = row.Scan(&totalRuns, &divergences, &avgDeltaF1)
	return
}
