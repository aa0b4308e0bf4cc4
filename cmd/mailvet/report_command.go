package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mailvet/internal/anomaly"
	"mailvet/internal/runstore"
	"mailvet/internal/validate"
)

type storedRunPayload struct {
	ID         string           `json:"id"`
	Source     string           `json:"source"`
	Status     anomaly.Status   `json:"status"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Report     *validate.Report `json:"report"`
	Verdict    anomaly.Verdict  `json:"verdict"`
}

type runHeader struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Status         anomaly.Status `json:"status"`
	TotalRecords   int            `json:"total_records"`
	DroppedRecords int            `json:"dropped_records"`
	FinishedAt     time.Time      `json:"finished_at"`
}

func newReportCommand(ctx *commandContext) *cobra.Command {
	var runID string
	var last int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show stored validation reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(runID) != "" && last > 0 {
				return errors.New("specify only one of --run or --last")
			}
			return ctx.withStore(func(store *runstore.Store) error {
				if last > 0 {
					return listRuns(cmd, store, last, jsonOut)
				}
				return showRun(cmd, store, strings.TrimSpace(runID), jsonOut)
			})
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Show the stored run with this id")
	cmd.Flags().IntVar(&last, "last", 0, "List the most recent stored runs")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func listRuns(cmd *cobra.Command, store *runstore.Store, limit int, jsonOut bool) error {
	runs, err := store.LatestRuns(cmd.Context(), "", limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "No stored runs yet")
		return nil
	}

	if jsonOut {
		headers := make([]runHeader, 0, len(runs))
		for _, run := range runs {
			headers = append(headers, runHeader{
				ID:             run.ID,
				Source:         run.Source,
				Status:         run.Status,
				TotalRecords:   run.TotalRecords,
				DroppedRecords: run.DroppedRecords,
				FinishedAt:     run.FinishedAt,
			})
		}
		return writeJSON(cmd, headers)
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.Source,
			string(run.Status),
			strconv.Itoa(run.TotalRecords),
			strconv.Itoa(run.DroppedRecords),
			run.FinishedAt.Format(time.RFC3339),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Source", "Status", "Records", "Dropped", "Finished"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft},
	))
	return nil
}

func showRun(cmd *cobra.Command, store *runstore.Store, runID string, jsonOut bool) error {
	out := cmd.OutOrStdout()

	var run *runstore.Run
	var err error
	if runID != "" {
		run, err = store.RunByID(cmd.Context(), runID)
		if err != nil {
			return err
		}
		if run == nil {
			return fmt.Errorf("run %s not found", runID)
		}
	} else {
		run, err = store.LatestRun(cmd.Context(), "")
		if err != nil {
			return err
		}
		if run == nil {
			fmt.Fprintln(out, "No stored runs yet")
			return nil
		}
	}

	report, err := run.Report()
	if err != nil {
		return err
	}
	verdict, err := run.Verdict()
	if err != nil {
		return err
	}

	if jsonOut {
		return writeJSON(cmd, storedRunPayload{
			ID:         run.ID,
			Source:     run.Source,
			Status:     run.Status,
			StartedAt:  run.StartedAt,
			FinishedAt: run.FinishedAt,
			Report:     report,
			Verdict:    verdict,
		})
	}

	fmt.Fprintf(out, "Run %s finished %s\n", run.ID, run.FinishedAt.Format(time.RFC3339))
	fmt.Fprintf(out, "Source: %s\n", run.Source)
	fmt.Fprintf(out, "Status: %s\n", run.Status)
	fmt.Fprintf(out, "Records: %d validated, %d dropped\n", report.TotalRecords, report.DroppedRecords)
	if verdict.Summary != "" {
		fmt.Fprintln(out, verdict.Summary)
	}
	if len(report.Results) > 0 {
		fmt.Fprintln(out, renderResults(report.Results))
	}
	return nil
}
