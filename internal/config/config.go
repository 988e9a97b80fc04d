// Package config resolves evaluation settings with the precedence
// command-line flag > environment variable > YAML config file > default.
// Environment variables use the RESOLUTION_EVAL_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Env variable names recognized by the batch subcommands.
const (
	EnvPriorCSVFile   = "RESOLUTION_EVAL_PRIOR_CSV_FILE"
	EnvCurrentCSVFile = "RESOLUTION_EVAL_CURRENT_CSV_FILE"
	EnvCSVFile        = "RESOLUTION_EVAL_CSV_FILE"
	EnvReportFormat   = "RESOLUTION_EVAL_REPORT_FORMAT"
	EnvConfigFile     = "RESOLUTION_EVAL_CONFIG_FILE"
)

// Config holds the batch-mode settings.
type Config struct {
	PriorCSVFile   string `yaml:"priorCsvFile"`
	CurrentCSVFile string `yaml:"currentCsvFile"`
	CSVFile        string `yaml:"csvFile"`
	ReportFormat   string `yaml:"reportFormat"`
	WithAlignment  bool   `yaml:"withAlignment"`
	Workers        int    `yaml:"workers"`
}

// Default returns the built-in settings before any file, env or flag
// overrides apply.
func Default() Config {
	return Config{
		ReportFormat: "text",
	}
}

// Load resolves the config file layer. path may be empty, in which case
// RESOLUTION_EVAL_CONFIG_FILE is consulted; if neither names a file the
// defaults are returned untouched. A named file that cannot be read or
// parsed is an error, never a silent fallback.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigFile)
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto cfg.
func (c *Config) ApplyEnv() {
	overlayString(&c.PriorCSVFile, EnvPriorCSVFile)
	overlayString(&c.CurrentCSVFile, EnvCurrentCSVFile)
	overlayString(&c.CSVFile, EnvCSVFile)
	overlayString(&c.ReportFormat, EnvReportFormat)
	if v := os.Getenv("RESOLUTION_EVAL_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Workers = n
		}
	}
}

func overlayString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
