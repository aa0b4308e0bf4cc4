package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	WorkspaceDir string `toml:"workspace_dir"`
	LogDir       string `toml:"log_dir"`
}

// Source describes where raw records are read from.
type Source struct {
	Kind       string `toml:"kind"`
	Path       string `toml:"path"`
	MaxRecords int    `toml:"max_records"`
}

// Normalize contains record normalization settings.
type Normalize struct {
	// MinDate floors the sent_at plausibility window (YYYY-MM-DD).
	MinDate string `toml:"min_date"`
	// MaxFutureHours allows small clock skew past "now" before a parsed
	// date is treated as a defect.
	MaxFutureHours int `toml:"max_future_hours"`
}

// Rule declares one schema expectation. Semantic validation (known field,
// known kind, compilable pattern) happens when the expectation suite loads.
type Rule struct {
	Name      string   `toml:"name"`
	Field     string   `toml:"field"`
	Kind      string   `toml:"kind"`
	Threshold float64  `toml:"threshold"`
	Critical  bool     `toml:"critical"`
	Pattern   string   `toml:"pattern"`
	Values    []string `toml:"values"`
}

// Expectations carries the declared rule list in declaration order.
type Expectations struct {
	Rules []Rule `toml:"rules"`
}

// Engine contains validation engine settings.
type Engine struct {
	// Workers bounds parallel expectation evaluation; 0 means one per CPU.
	Workers int `toml:"workers"`
}

// Detector contains anomaly classification settings.
type Detector struct {
	DegradedThreshold int     `toml:"degraded_threshold"`
	MaxThreadParts    int     `toml:"max_thread_parts"`
	MinForwardShare   float64 `toml:"min_forward_share"`
	DateDefectRate    float64 `toml:"date_defect_rate"`
}

// Alerts contains configuration for ntfy push alerts.
type Alerts struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Storage contains run history persistence settings.
type Storage struct {
	Enabled  bool   `toml:"enabled"`
	Path     string `toml:"path"`
	KeepRuns int    `toml:"keep_runs"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes dated log files older than this many days before
	// a run. Zero disables pruning.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for mailvet.
//
// Configuration sections by subsystem:
//   - Paths: workspace and log directories
//   - Source: record source kind and location
//   - Normalize: date plausibility window
//   - Expectations: the declared schema expectation rules
//   - Engine: validation parallelism
//   - Detector: verdict thresholds and heuristics
//   - Alerts: ntfy push alert settings
//   - Storage: run history database
//   - Logging: log format and level
type Config struct {
	Paths        Paths        `toml:"paths"`
	Source       Source       `toml:"source"`
	Normalize    Normalize    `toml:"normalize"`
	Expectations Expectations `toml:"expectations"`
	Engine       Engine       `toml:"engine"`
	Detector     Detector     `toml:"detector"`
	Alerts       Alerts       `toml:"alerts"`
	Storage      Storage      `toml:"storage"`
	Logging      Logging      `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/mailvet/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("mailvet.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories a run needs.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.WorkspaceDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the workspace lock file used to serialize runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.WorkspaceDir, "mailvet.lock")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
