package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validate ensures the configuration is usable. Expectation rules get only a
// presence check here; their semantic validation belongs to the schema suite
// loader, which owns the field registry.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSource(); err != nil {
		return err
	}
	if err := c.validateWindow(); err != nil {
		return err
	}
	if err := c.validateExpectations(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateDetector(); err != nil {
		return err
	}
	if err := c.validateAlerts(); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		return errors.New("paths.workspace_dir must be set")
	}
	return nil
}

func (c *Config) validateSource() error {
	switch c.Source.Kind {
	case "csv", "maildir":
	default:
		return fmt.Errorf("source.kind must be csv or maildir, got %q", c.Source.Kind)
	}
	if c.Source.MaxRecords < 0 {
		return errors.New("source.max_records must be >= 0")
	}
	return nil
}

func (c *Config) validateWindow() error {
	if _, err := time.Parse("2006-01-02", c.Normalize.MinDate); err != nil {
		return fmt.Errorf("normalize.min_date must be YYYY-MM-DD: %w", err)
	}
	if c.Normalize.MaxFutureHours < 0 {
		return errors.New("normalize.max_future_hours must be >= 0")
	}
	return nil
}

func (c *Config) validateExpectations() error {
	if len(c.Expectations.Rules) == 0 {
		return errors.New("expectations.rules must declare at least one rule")
	}
	return nil
}

func (c *Config) validateEngine() error {
	if c.Engine.Workers < 0 {
		return errors.New("engine.workers must be >= 0")
	}
	return nil
}

func (c *Config) validateDetector() error {
	if c.Detector.DegradedThreshold < 1 {
		return errors.New("detector.degraded_threshold must be >= 1")
	}
	if c.Detector.MaxThreadParts <= 0 {
		return errors.New("detector.max_thread_parts must be positive")
	}
	if c.Detector.MinForwardShare < 0 || c.Detector.MinForwardShare > 1 {
		return errors.New("detector.min_forward_share must be between 0 and 1")
	}
	if c.Detector.DateDefectRate < 0 || c.Detector.DateDefectRate > 1 {
		return errors.New("detector.date_defect_rate must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateAlerts() error {
	if c.Alerts.RequestTimeout <= 0 {
		return errors.New("alerts.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateStorage() error {
	if c.Storage.KeepRuns < 0 {
		return errors.New("storage.keep_runs must be >= 0")
	}
	if c.Storage.Enabled && strings.TrimSpace(c.Storage.Path) == "" {
		return errors.New("storage.path must be set when storage.enabled is true")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "auto", "console", "json":
	default:
		return fmt.Errorf("logging.format must be auto, console, or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
