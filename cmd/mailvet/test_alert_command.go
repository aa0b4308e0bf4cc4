package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mailvet/internal/alerts"
)

func newTestAlertCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "test-alert",
		Short: "Send a test alert through the configured transport",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			service := alerts.NewService(cfg)
			if !service.Enabled() {
				fmt.Fprintln(cmd.OutOrStdout(), "Alerts are not configured; set alerts.ntfy_topic to enable them")
				return nil
			}
			if err := service.TestAlert(cmd.Context()); err != nil {
				return fmt.Errorf("send test alert: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Test alert sent")
			return nil
		},
	}
}
