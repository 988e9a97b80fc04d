package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/rawblock/resolution-eval/internal/api"
	"github.com/rawblock/resolution-eval/internal/config"
	"github.com/rawblock/resolution-eval/internal/db"
	"github.com/rawblock/resolution-eval/internal/drift"
	"github.com/rawblock/resolution-eval/internal/evaluator"
	"github.com/rawblock/resolution-eval/internal/loader"
	"github.com/rawblock/resolution-eval/internal/report"
	"github.com/rawblock/resolution-eval/internal/scanner"
)

const usageText = `Usage: resolution-eval <subcommand> [flags]

Subcommands:
  compare        Compare a current partition CSV against the gold reference CSV.
  show-entities  Print the clusters of a single partition CSV.
  scan           Evaluate every snapshot CSV in a directory against the gold CSV.
  serve          Run the evaluation HTTP API.

Run 'resolution-eval <subcommand> -h' for flags. Flags may also be set via
RESOLUTION_EVAL_* environment variables or a YAML config file.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usageText)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "compare":
		err = runCompare(os.Args[2:])
	case "show-entities":
		err = runShowEntities(os.Args[2:])
	case "scan":
		err = runScan(os.Args[2:])
	case "serve":
		err = runServe()
	case "-h", "--help", "help":
		fmt.Print(usageText)
	default:
		fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n%s", os.Args[1], usageText)
		os.Exit(2)
	}

	if err != nil {
		log.Printf("Error: %v", err)
		log.Println("Program terminated with error.")
		os.Exit(1)
	}
}

// runCompare loads the two partition files, evaluates, and writes the
// report to stdout. Fatal input errors abort before any metrics are
// emitted; a universe mismatch is surfaced in the report instead.
func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	configFile := fs.String("config-file", "", "Optional YAML config file.")
	priorFile := fs.String("prior-csv-file", "", "Gold/reference partition CSV.")
	currentFile := fs.String("current-csv-file", "", "Current partition CSV under evaluation.")
	format := fs.String("format", "", "Report format: text, csv or json (default text).")
	detail := fs.Bool("detail", false, "Include per-cluster alignment detail.")
	workers := fs.Int("workers", 0, "Contingency build parallelism (0 = all cores).")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if *priorFile != "" {
		cfg.PriorCSVFile = *priorFile
	}
	if *currentFile != "" {
		cfg.CurrentCSVFile = *currentFile
	}
	if *format != "" {
		cfg.ReportFormat = *format
	}
	if *detail {
		cfg.WithAlignment = true
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if cfg.PriorCSVFile == "" || cfg.CurrentCSVFile == "" {
		return fmt.Errorf("both --prior-csv-file and --current-csv-file are required")
	}

	outFormat, err := report.ParseFormat(cfg.ReportFormat)
	if err != nil {
		return err
	}

	gold, err := loader.LoadPartition(cfg.PriorCSVFile)
	if err != nil {
		return err
	}
	current, err := loader.LoadPartition(cfg.CurrentCSVFile)
	if err != nil {
		return err
	}

	result := evaluator.Evaluate(gold, current, evaluator.Options{
		WithAlignment: cfg.WithAlignment,
		Workers:       cfg.Workers,
	})

	return report.Write(os.Stdout, result, outFormat)
}

// runShowEntities dumps the clusters of one partition file.
func runShowEntities(args []string) error {
	fs := flag.NewFlagSet("show-entities", flag.ExitOnError)
	configFile := fs.String("config-file", "", "Optional YAML config file.")
	csvFile := fs.String("csv-file", "", "Partition CSV to dump.")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if *csvFile != "" {
		cfg.CSVFile = *csvFile
	}
	if cfg.CSVFile == "" {
		return fmt.Errorf("--csv-file is required")
	}

	p, err := loader.LoadPartition(cfg.CSVFile)
	if err != nil {
		return err
	}
	return report.WriteEntities(os.Stdout, p)
}

// runScan evaluates every snapshot CSV under a directory against the gold
// reference, printing one summary line per snapshot.
func runScan(args []string) error {
	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	priorFile := fs.String("prior-csv-file", "", "Gold/reference partition CSV.")
	snapshotDir := fs.String("snapshot-dir", "", "Directory of snapshot CSVs.")
	f1Floor := fs.Float64("f1-floor", 0.9, "Flag snapshots scoring below this F1.")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *priorFile == "" || *snapshotDir == "" {
		return fmt.Errorf("both --prior-csv-file and --snapshot-dir are required")
	}

	snap := scanner.NewSnapshotScanner(*priorFile, evaluator.Options{}, func(alert scanner.RegressionAlert) {
		log.Printf("[ALERT] Quality regression in %s: F1 %.4f below floor %.4f",
			alert.Snapshot, alert.F1, alert.F1Floor)
	})

	return snap.ScanDirSync(context.Background(), *snapshotDir, *f1Floor, func(r scanner.SnapshotResult) {
		fmt.Printf("%s  precision=%.4f recall=%.4f f1=%.4f slice_cost=%.1f\n",
			r.Snapshot, r.Result.Pairwise.Precision, r.Result.Pairwise.Recall,
			r.Result.Pairwise.F1, r.Result.SliceCost)
	})
}

// runServe boots the evaluation API. Credentials come from environment
// variables; the server degrades gracefully when Postgres is unreachable
// (evaluations still work, run history does not).
func runServe() error {
	log.Println("Starting RawBlock Resolution Eval Engine...")

	var dbConn *db.PostgresStore
	var driftMonitor *drift.Monitor

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		conn, err := db.Connect(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to connect to PostgreSQL, continuing without run history. Error: %v", err)
		} else {
			defer conn.Close()
			if err := conn.InitSchema(); err != nil {
				log.Printf("Warning: DB schema init failed: %v", err)
			}
			dbConn = conn
			driftMonitor = drift.NewMonitor(conn, drift.DefaultThreshold)
		}
	} else {
		log.Println("DATABASE_URL not set; run history and drift tracking disabled")
	}

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	// Snapshot scanner needs a gold reference on disk.
	var snapScanner *scanner.SnapshotScanner
	if goldPath := os.Getenv("RESOLUTION_EVAL_GOLD_CSV_FILE"); goldPath != "" {
		snapScanner = scanner.NewSnapshotScanner(goldPath, evaluator.Options{}, api.BroadcastRegressionAlert(wsHub))
	} else {
		log.Println("RESOLUTION_EVAL_GOLD_CSV_FILE not set; snapshot scan endpoints disabled")
	}

	r := api.SetupRouter(dbConn, driftMonitor, wsHub, snapScanner)

	port := getEnvOrDefault("PORT", "5340")
	log.Printf("Engine running on :%s\n", port)
	return r.Run(":" + port)
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
