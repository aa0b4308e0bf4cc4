package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailvet/internal/schema"
)

type expectationRow struct {
	Name     string `json:"name"`
	Field    string `json:"field"`
	Kind     string `json:"kind"`
	Critical bool   `json:"critical"`
	Checks   string `json:"checks"`
}

func newExpectationsCommand(ctx *commandContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "expectations",
		Short: "Show the loaded expectation suite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			suite, err := schema.Load(cfg.Expectations.Rules)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if suite.Len() == 0 {
				fmt.Fprintln(out, "No expectations declared")
				return nil
			}

			if jsonOut {
				rows := make([]expectationRow, 0, suite.Len())
				for _, exp := range suite.Expectations() {
					rows = append(rows, expectationRow{
						Name:     exp.Name(),
						Field:    string(exp.Field()),
						Kind:     string(exp.Kind()),
						Critical: exp.Critical(),
						Checks:   exp.Describe(),
					})
				}
				return writeJSON(cmd, rows)
			}

			rows := make([][]string, 0, suite.Len())
			for _, exp := range suite.Expectations() {
				rows = append(rows, []string{
					exp.Name(),
					string(exp.Field()),
					string(exp.Kind()),
					yesNo(exp.Critical()),
					exp.Describe(),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Rule", "Field", "Kind", "Critical", "Checks"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit the suite as JSON")
	return cmd
}
