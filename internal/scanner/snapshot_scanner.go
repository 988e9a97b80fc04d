package scanner

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rawblock/resolution-eval/internal/evaluator"
	"github.com/rawblock/resolution-eval/internal/loader"
	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/pkg/models"
)

// SnapshotScanner walks a directory of partition snapshot CSVs and
// evaluates every snapshot against the gold reference, in file-name
// order. This gives retroactive coverage over an engine's history of
// resolution outputs, not just the latest export.
type SnapshotScanner struct {
	goldPath  string
	alertFunc func(alert RegressionAlert) // Optional broadcast callback
	opts      evaluator.Options

	// Progress tracking (atomic for safe concurrent reads)
	totalScanned     atomic.Int64
	totalRegressions atomic.Int64
	isRunning        atomic.Bool
	currentSnapshot  atomic.Value // string
}

// RegressionAlert is emitted when a snapshot scores below the F1 floor.
type RegressionAlert struct {
	Snapshot  string  `json:"snapshot"`
	RunID     string  `json:"runId"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	F1Floor   float64 `json:"f1Floor"`
	Timestamp string  `json:"timestamp"`
}

// ScanProgress represents the scanner's current state for the API
type ScanProgress struct {
	IsRunning        bool   `json:"isRunning"`
	CurrentSnapshot  string `json:"currentSnapshot"`
	TotalScanned     int64  `json:"totalScanned"`
	TotalRegressions int64  `json:"totalRegressions"`
}

// SnapshotResult pairs a snapshot file with its evaluation.
type SnapshotResult struct {
	Snapshot string                   `json:"snapshot"`
	Result   *models.EvaluationResult `json:"result"`
}

func NewSnapshotScanner(goldPath string, opts evaluator.Options, alertFunc func(RegressionAlert)) *SnapshotScanner {
	s := &SnapshotScanner{
		goldPath:  goldPath,
		alertFunc: alertFunc,
		opts:      opts,
	}
	s.currentSnapshot.Store("")
	return s
}

// GetProgress returns the current scanning progress (thread-safe)
func (s *SnapshotScanner) GetProgress() ScanProgress {
	current, _ := s.currentSnapshot.Load().(string)
	return ScanProgress{
		IsRunning:        s.isRunning.Load(),
		CurrentSnapshot:  current,
		TotalScanned:     s.totalScanned.Load(),
		TotalRegressions: s.totalRegressions.Load(),
	}
}

// ScanDir evaluates every *.csv under dir against the gold reference
// asynchronously, invoking onResult per snapshot and raising an alert
// for any snapshot whose F1 drops below f1Floor.
func (s *SnapshotScanner) ScanDir(ctx context.Context, dir string, f1Floor float64, onResult func(SnapshotResult)) error {
	if s.isRunning.Load() {
		log.Println("[SnapshotScanner] Scan already in progress, ignoring duplicate request")
		return nil
	}

	gold, snapshots, err := s.prepare(dir)
	if err != nil {
		return err
	}

	s.isRunning.Store(true)
	go func() {
		defer s.isRunning.Store(false)
		s.run(ctx, dir, gold, snapshots, f1Floor, onResult)
	}()

	return nil
}

// ScanDirSync is the blocking variant used by the CLI.
func (s *SnapshotScanner) ScanDirSync(ctx context.Context, dir string, f1Floor float64, onResult func(SnapshotResult)) error {
	if !s.isRunning.CompareAndSwap(false, true) {
		log.Println("[SnapshotScanner] Scan already in progress, ignoring duplicate request")
		return nil
	}
	defer s.isRunning.Store(false)

	gold, snapshots, err := s.prepare(dir)
	if err != nil {
		return err
	}

	s.run(ctx, dir, gold, snapshots, f1Floor, onResult)
	return nil
}

func (s *SnapshotScanner) prepare(dir string) (*partition.Partition, []string, error) {
	gold, err := loader.LoadPartition(s.goldPath)
	if err != nil {
		return nil, nil, err
	}
	snapshots, err := listSnapshots(dir)
	if err != nil {
		return nil, nil, err
	}
	return gold, snapshots, nil
}

func (s *SnapshotScanner) run(ctx context.Context, dir string, gold *partition.Partition, snapshots []string, f1Floor float64, onResult func(SnapshotResult)) {
	s.totalScanned.Store(0)
	s.totalRegressions.Store(0)

	log.Printf("[SnapshotScanner] Starting snapshot scan: %d files under %s", len(snapshots), dir)

	for _, path := range snapshots {
		select {
		case <-ctx.Done():
			log.Printf("[SnapshotScanner] Scan cancelled at %s", path)
			return
		default:
		}

		s.currentSnapshot.Store(filepath.Base(path))
		s.scanSnapshot(path, gold, f1Floor, onResult)
		s.totalScanned.Add(1)
	}

	log.Printf("[SnapshotScanner] Scan complete: %d snapshots evaluated, %d regressions flagged",
		s.totalScanned.Load(), s.totalRegressions.Load())
}

// scanSnapshot loads and evaluates a single snapshot file.
func (s *SnapshotScanner) scanSnapshot(path string, gold *partition.Partition, f1Floor float64, onResult func(SnapshotResult)) {
	current, err := loader.LoadPartition(path)
	if err != nil {
		log.Printf("[SnapshotScanner] Skipping %s: %v", path, err)
		return
	}

	result := evaluator.Evaluate(gold, current, s.opts)

	if result.Pairwise.F1 < f1Floor {
		s.totalRegressions.Add(1)
		if s.alertFunc != nil {
			s.alertFunc(RegressionAlert{
				Snapshot:  filepath.Base(path),
				RunID:     result.RunID,
				Precision: result.Pairwise.Precision,
				Recall:    result.Pairwise.Recall,
				F1:        result.Pairwise.F1,
				F1Floor:   f1Floor,
				Timestamp: time.Now().UTC().Format(time.RFC3339),
			})
		}
	}

	if onResult != nil {
		onResult(SnapshotResult{Snapshot: filepath.Base(path), Result: result})
	}
}

// listSnapshots returns the CSV files of dir sorted by name, so dated
// snapshot exports evaluate in chronological order.
func listSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var snapshots []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), ".csv") {
			continue
		}
		snapshots = append(snapshots, filepath.Join(dir, e.Name()))
	}
	sort.Strings(snapshots)
	return snapshots, nil
}
