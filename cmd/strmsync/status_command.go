package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"strmsync/internal/runner"
	"strmsync/internal/task"
)

type healthPayload struct {
	Status  string        `json:"status"`
	Runner  runner.Status `json:"runner"`
	LastRun *task.Run     `json:"last_run,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and last-run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			var health healthPayload
			if err := ctx.apiGet("/api/health", &health); err != nil {
				return err
			}

			view := newTableView("Field", "Value")
			view.addRow("Daemon", health.Status)
			view.addRow("Runner active", yesNo(health.Runner.Running))
			view.addRow("Queue depth", fmt.Sprintf("%d", health.Runner.QueueDepth))
			if health.Runner.ActiveRunID != "" {
				view.addRow("Active run", fmt.Sprintf("%s (task %d)",
					health.Runner.ActiveRunID, health.Runner.ActiveTaskID))
			}
			if health.LastRun != nil {
				view.addRow("Last run", string(health.LastRun.Status))
				view.addRow("Last run started",
					health.LastRun.StartedAt.Local().Format("2006-01-02 15:04:05"))
				if health.LastRun.ErrorMessage != "" {
					view.addRow("Last run error", health.LastRun.ErrorMessage)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.render())
			return nil
		},
	}
}
