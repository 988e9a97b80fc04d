package models

import "time"

// PairwiseMetrics holds the pair-level confusion counts and derived ratios
// comparing a current partition against the gold reference.
type PairwiseMetrics struct {
	TruePositives  int64   `json:"truePositives"`  // pairs co-clustered in both partitions
	FalsePositives int64   `json:"falsePositives"` // pairs co-clustered only in current
	FalseNegatives int64   `json:"falseNegatives"` // pairs co-clustered only in gold
	GoldPairs      int64   `json:"goldPairs"`      // TP + FN
	CurrentPairs   int64   `json:"currentPairs"`   // TP + FP
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
}

// ClusterMatch maps one gold cluster to its best-overlapping current cluster.
// Reporting detail only; the pairwise metrics never depend on it.
type ClusterMatch struct {
	GoldCluster    string   `json:"goldCluster"`
	CurrentCluster string   `json:"currentCluster"`
	Overlap        int      `json:"overlap"`
	GoldSize       int      `json:"goldSize"`
	CurrentSize    int      `json:"currentSize"`
	MissingRecords []string `json:"missingRecords,omitempty"` // in gold, not in matched current
	ExtraRecords   []string `json:"extraRecords,omitempty"`   // in matched current, not in gold
}

// UniverseReport surfaces record-universe disagreement between the two
// input files. Metrics are computed over the intersection; these counts
// must never be silently dropped.
type UniverseReport struct {
	SharedRecords      int  `json:"sharedRecords"`
	GoldOnlyRecords    int  `json:"goldOnlyRecords"`
	CurrentOnlyRecords int  `json:"currentOnlyRecords"`
	Mismatch           bool `json:"mismatch"`
}

// EvaluationResult is the full output of one gold-vs-current comparison.
type EvaluationResult struct {
	RunID    string          `json:"runId"`
	Pairwise PairwiseMetrics `json:"pairwise"`
	// AdjustedRand and VariationOfInfo are structural agreement metrics
	// complementing the pairwise view. ARI in [-1,1], VI >= 0 (0 = identical).
	AdjustedRand    float64 `json:"adjustedRand"`
	VariationOfInfo float64 `json:"variationOfInfo"`
	// SliceCost is the generalized merge distance under the slice
	// algorithm's max(a,b) cost functions.
	SliceCost       float64        `json:"sliceCost"`
	GoldClusters    int            `json:"goldClusters"`
	CurrentClusters int            `json:"currentClusters"`
	Universe        UniverseReport `json:"universe"`
	Alignment       []ClusterMatch `json:"alignment,omitempty"`
	EvaluatedAt     time.Time      `json:"evaluatedAt"`
}

// DriftResult captures the divergence between an evaluation run and a
// stored baseline run over the same gold reference.
type DriftResult struct {
	RunID          string    `json:"runId"`
	BaselineRunID  string    `json:"baselineRunId"`
	DeltaPrecision float64   `json:"deltaPrecision"`
	DeltaRecall    float64   `json:"deltaRecall"`
	DeltaF1        float64   `json:"deltaF1"`
	Diverged       bool      `json:"diverged"`
	CreatedAt      time.Time `json:"createdAt"`
}
