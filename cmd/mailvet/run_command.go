package main

import (
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mailvet/internal/anomaly"
	"mailvet/internal/config"
	"mailvet/internal/logging"
	"mailvet/internal/pipeline"
)

type runSummary struct {
	RunID          string            `json:"run_id"`
	Status         anomaly.Status    `json:"status"`
	Summary        string            `json:"summary"`
	Source         string            `json:"source"`
	TotalRecords   int               `json:"total_records"`
	DroppedRecords int               `json:"dropped_records"`
	TriggeredRules []string          `json:"triggered_rules,omitempty"`
	Findings       []anomaly.Finding `json:"findings,omitempty"`
	AlertSent      bool              `json:"alert_sent"`
	Saved          bool              `json:"saved"`
	DurationMS     int64             `json:"duration_ms"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var sourceOverride string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate the configured record source once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if override := strings.TrimSpace(sourceOverride); override != "" {
				resolved, err := config.ExpandPath(override)
				if err != nil {
					return fmt.Errorf("resolve source path: %w", err)
				}
				cfg.Source.Path = resolved
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
				Dir:     cfg.Paths.LogDir,
				Pattern: "mailvet-*.log",
				Exclude: []string{logging.RunLogPath(cfg.Paths.LogDir)},
			})

			runner, err := pipeline.New(cfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			outcome, err := runner.Run(runCtx)
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, newRunSummary(outcome))
			}
			printRunSummary(cmd.OutOrStdout(), cfg, outcome)
			return nil
		},
	}

	cmd.Flags().StringVarP(&sourceOverride, "source", "s", "", "Record source path (overrides the configuration)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the run summary as JSON")
	return cmd
}

func newRunSummary(outcome *pipeline.Outcome) runSummary {
	return runSummary{
		RunID:          outcome.RunID,
		Status:         outcome.Verdict.Status,
		Summary:        outcome.Verdict.Summary,
		Source:         outcome.Report.Source,
		TotalRecords:   outcome.Report.TotalRecords,
		DroppedRecords: outcome.Report.DroppedRecords,
		TriggeredRules: outcome.Verdict.TriggeredRules,
		Findings:       outcome.Verdict.Findings,
		AlertSent:      outcome.AlertSent,
		Saved:          outcome.Saved,
		DurationMS:     outcome.Duration.Milliseconds(),
	}
}

func printRunSummary(out io.Writer, cfg *config.Config, outcome *pipeline.Outcome) {
	report := outcome.Report
	fmt.Fprintf(out, "Run %s finished in %s\n", outcome.RunID, outcome.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "Status: %s\n", outcome.Verdict.Status)
	fmt.Fprintf(out, "Records: %d validated, %d dropped\n", report.TotalRecords, report.DroppedRecords)
	if summary := outcome.Verdict.Summary; summary != "" {
		fmt.Fprintln(out, summary)
	}

	if failures := report.Failures(); len(failures) > 0 {
		fmt.Fprintln(out, renderResults(failures))
	}
	for _, finding := range outcome.Verdict.Findings {
		fmt.Fprintf(out, "Finding %s: %s\n", finding.Name, finding.Detail)
	}

	fmt.Fprintf(out, "Alert sent: %s\n", yesNo(outcome.AlertSent))
	if cfg.Storage.Enabled {
		fmt.Fprintf(out, "Run saved: %s\n", yesNo(outcome.Saved))
	}
}
