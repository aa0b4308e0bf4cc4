package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSource(); err != nil {
		return err
	}
	c.normalizeWindow()
	c.normalizeAlerts()
	if err := c.normalizeStorage(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.WorkspaceDir) == "" {
		c.Paths.WorkspaceDir = defaultWorkspaceDir
	}
	if c.Paths.WorkspaceDir, err = expandPath(c.Paths.WorkspaceDir); err != nil {
		return fmt.Errorf("paths.workspace_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = filepath.Join(c.Paths.WorkspaceDir, "logs")
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSource() error {
	c.Source.Kind = strings.ToLower(strings.TrimSpace(c.Source.Kind))
	if c.Source.Kind == "" {
		c.Source.Kind = defaultSourceKind
	}
	c.Source.Path = strings.TrimSpace(c.Source.Path)
	if c.Source.Path != "" {
		expanded, err := expandPath(c.Source.Path)
		if err != nil {
			return fmt.Errorf("source.path: %w", err)
		}
		c.Source.Path = expanded
	}
	return nil
}

func (c *Config) normalizeWindow() {
	c.Normalize.MinDate = strings.TrimSpace(c.Normalize.MinDate)
	if c.Normalize.MinDate == "" {
		c.Normalize.MinDate = defaultMinDate
	}
	if c.Normalize.MaxFutureHours == 0 {
		c.Normalize.MaxFutureHours = defaultMaxFutureHours
	}
}

func (c *Config) normalizeAlerts() {
	c.Alerts.NtfyTopic = strings.TrimSpace(c.Alerts.NtfyTopic)
	if c.Alerts.NtfyTopic == "" {
		if value, ok := os.LookupEnv("MAILVET_NTFY_TOPIC"); ok {
			c.Alerts.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Alerts.RequestTimeout == 0 {
		c.Alerts.RequestTimeout = defaultAlertTimeout
	}
}

func (c *Config) normalizeStorage() error {
	c.Storage.Path = strings.TrimSpace(c.Storage.Path)
	if c.Storage.Path == "" {
		c.Storage.Path = filepath.Join(c.Paths.WorkspaceDir, "runs.db")
	}
	expanded, err := expandPath(c.Storage.Path)
	if err != nil {
		return fmt.Errorf("storage.path: %w", err)
	}
	c.Storage.Path = expanded
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
