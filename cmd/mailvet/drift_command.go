package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mailvet/internal/drift"
	"mailvet/internal/runstore"
)

type driftPayload struct {
	PreviousRun string        `json:"previous_run"`
	CurrentRun  string        `json:"current_run"`
	Deltas      []drift.Delta `json:"deltas"`
	Regressions int           `json:"regressions"`
}

func newDriftCommand(ctx *commandContext) *cobra.Command {
	var source string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the two most recent stored runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runstore.Store) error {
				runs, err := store.LatestRuns(cmd.Context(), source, 2)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) < 2 {
					fmt.Fprintln(out, "Need at least two stored runs to compare")
					return nil
				}

				current, previous := runs[0], runs[1]
				currentReport, err := current.Report()
				if err != nil {
					return err
				}
				previousReport, err := previous.Report()
				if err != nil {
					return err
				}

				deltas := drift.Compare(previousReport, currentReport)
				regressions := drift.Regressions(deltas)

				if jsonOut {
					return writeJSON(cmd, driftPayload{
						PreviousRun: previous.ID,
						CurrentRun:  current.ID,
						Deltas:      deltas,
						Regressions: regressions,
					})
				}

				fmt.Fprintf(out, "Current:  %s (%s)\n", current.ID, current.FinishedAt.Format(time.RFC3339))
				fmt.Fprintf(out, "Previous: %s (%s)\n", previous.ID, previous.FinishedAt.Format(time.RFC3339))

				rows := make([][]string, 0, len(deltas))
				for _, delta := range deltas {
					before := delta.Before.String()
					if delta.Change == drift.ChangeAdded {
						before = "-"
					}
					after := delta.After.String()
					if delta.Change == drift.ChangeRemoved {
						after = "-"
					}
					rows = append(rows, []string{
						delta.Name,
						string(delta.Change),
						before,
						after,
						delta.Movement(),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Rule", "Change", "Before", "After", "Movement"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				fmt.Fprintf(out, "Regressions: %d\n", regressions)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "Only compare runs for this source")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the comparison as JSON")
	return cmd
}
