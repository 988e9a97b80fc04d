package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/rawblock/resolution-eval/internal/db"
	"github.com/rawblock/resolution-eval/internal/drift"
	"github.com/rawblock/resolution-eval/internal/evaluator"
	"github.com/rawblock/resolution-eval/internal/partition"
	"github.com/rawblock/resolution-eval/internal/scanner"
)

type APIHandler struct {
	dbStore      *db.PostgresStore
	driftMonitor *drift.Monitor
	wsHub        *Hub
	snapScanner  *scanner.SnapshotScanner
}

func SetupRouter(dbStore *db.PostgresStore, driftMonitor *drift.Monitor, wsHub *Hub, snapScanner *scanner.SnapshotScanner) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://eval.rawblock.net
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{dbStore: dbStore, driftMonitor: driftMonitor, wsHub: wsHub, snapScanner: snapScanner}

	limiter := NewRateLimiter(60, 10)

	api := r.Group("/api/v1")
	api.Use(limiter.Middleware())
	{
		api.GET("/health", handler.handleHealth)
		api.GET("/stream", wsHub.Subscribe)

		protected := api.Group("")
		protected.Use(AuthMiddleware())
		{
			protected.POST("/evaluate", handler.handleEvaluate)
			protected.GET("/runs", handler.handleListRuns)
			protected.POST("/runs/:id/baseline", handler.handleMarkBaseline)
			protected.GET("/drift/:label", handler.handleDriftReport)

			// Historical snapshot scanner
			protected.POST("/scan", handler.handleStartScan)
			protected.GET("/scan/progress", handler.handleScanProgress)
		}
	}

	return r
}

// handleEvaluate compares a current partition against a gold reference,
// both supplied inline as record -> cluster maps.
func (h *APIHandler) handleEvaluate(c *gin.Context) {
	var req struct {
		Gold          map[string]string `json:"gold" binding:"required"`
		Current       map[string]string `json:"current" binding:"required"`
		Label         string            `json:"label"`
		WithAlignment bool              `json:"withAlignment"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {gold, current, label?, withAlignment?}"})
		return
	}
	if len(req.Gold) == 0 || len(req.Current) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Both gold and current must be non-empty"})
		return
	}

	gold := partition.FromMap(req.Gold)
	current := partition.FromMap(req.Current)

	result := evaluator.Evaluate(gold, current, evaluator.Options{WithAlignment: req.WithAlignment})

	// Persist and drift-check when a database is connected.
	if h.driftMonitor != nil && req.Label != "" {
		if d, err := h.driftMonitor.Record(c.Request.Context(), req.Label, result); err != nil {
			log.Printf("Failed to record run %s: %v", result.RunID, err)
		} else if d != nil && d.Diverged && h.wsHub != nil {
			h.wsHub.BroadcastEvent(EventDriftAlert, d)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"label":  req.Label,
		"result": result,
	})
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "RawBlock Resolution Eval Engine v1.0",
		"capabilities": gin.H{
			"pairwise_metrics": true,
			"ari_vi_metrics":   true,
			"slice_gmd":        true,
			"alignment_detail": true,
			"drift_tracking":   h.driftMonitor != nil,
			"snapshot_scan":    h.snapScanner != nil,
		},
		"dbConnected": h.dbStore != nil,
	})
}

// handleListRuns returns the persisted evaluation history, newest first.
func (h *APIHandler) handleListRuns(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	runs, totalCount, err := h.dbStore.ListRuns(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch run history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       runs,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
	})
}

// handleMarkBaseline flags a stored run as the drift baseline for its label.
func (h *APIHandler) handleMarkBaseline(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	runID := c.Param("id")
	if err := h.dbStore.MarkBaseline(c.Request.Context(), runID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "baseline_set", "runId": runID})
}

// handleDriftReport aggregates divergence counts for one labelled comparison.
func (h *APIHandler) handleDriftReport(c *gin.Context) {
	if h.driftMonitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	label := c.Param("label")
	totalRuns, divergences, avgDeltaF1, err := h.driftMonitor.Report(c.Request.Context(), label)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build drift report", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"label":       label,
		"totalRuns":   totalRuns,
		"divergences": divergences,
		"avgDeltaF1":  avgDeltaF1,
	})
}

// handleStartScan launches a snapshot directory scan in the background.
// POST /api/v1/scan { "snapshotDir": "/data/snapshots", "f1Floor": 0.9 }
func (h *APIHandler) handleStartScan(c *gin.Context) {
	if h.snapScanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot scanner not initialized"})
		return
	}

	var req struct {
		SnapshotDir string  `json:"snapshotDir" binding:"required"`
		F1Floor     float64 `json:"f1Floor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {snapshotDir, f1Floor?}"})
		return
	}
	if req.F1Floor <= 0 || req.F1Floor > 1 {
		req.F1Floor = 0.9
	}

	// Launch scan in background; the request context dies with the request.
	err := h.snapScanner.ScanDir(context.Background(), req.SnapshotDir, req.F1Floor, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to start scan", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "scan_started",
		"snapshotDir": req.SnapshotDir,
		"f1Floor":     req.F1Floor,
	})
}

// handleScanProgress returns the current progress of the snapshot scanner.
func (h *APIHandler) handleScanProgress(c *gin.Context) {
	if h.snapScanner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Snapshot scanner not initialized"})
		return
	}
	progress := h.snapScanner.GetProgress()
	c.JSON(http.StatusOK, progress)
}

// BroadcastRegressionAlert sends a quality regression alert via the
// WebSocket hub. Wired as the alertFunc callback for the SnapshotScanner.
func BroadcastRegressionAlert(wsHub *Hub) func(scanner.RegressionAlert) {
	return func(alert scanner.RegressionAlert) {
		wsHub.BroadcastEvent(EventRegressionAlert, alert)
		log.Printf("[ALERT] Quality regression in %s: F1 %.4f below floor %.4f (run %s)",
			alert.Snapshot, alert.F1, alert.F1Floor, alert.RunID)
	}
}
