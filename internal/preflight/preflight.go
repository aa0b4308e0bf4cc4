package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"mailvet/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Directories runs only the filesystem checks. The runner uses these before
// reading records; transport reachability must not gate a run.
func Directories(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Workspace directory", cfg.Paths.WorkspaceDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.Storage.Enabled {
		dir := filepath.Dir(cfg.Storage.Path)
		if dir != cfg.Paths.WorkspaceDir && dir != cfg.Paths.LogDir {
			results = append(results, CheckDirectoryAccess("Storage directory", dir))
		}
	}
	return results
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := Directories(cfg)
	results = append(results, CheckSource(cfg))

	if strings.TrimSpace(cfg.Alerts.NtfyTopic) != "" {
		results = append(results, CheckAlertTransport(ctx, cfg.Alerts.NtfyTopic))
	}
	return results
}

// Failed filters results down to the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, result := range results {
		if !result.Passed {
			failed = append(failed, result)
		}
	}
	return failed
}
