package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"strmsync/internal/task"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task-id|task-name>",
		Short: "Execute one sync task immediately, without the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger(false)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := task.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}
			defer store.Close()

			t, err := findTask(cmd.Context(), store, args[0])
			if err != nil {
				return err
			}

			executor, err := ctx.newExecutor(logger)
			if err != nil {
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			// One-shot runs bypass the queue but still get a run-scoped id
			// for dedup stats and logging correlation.
			statsJSON, runErr := executor.Execute(signalCtx, *t, uuid.NewString())

			out := cmd.OutOrStdout()
			if statsJSON != "" {
				var pretty map[string]any
				if err := json.Unmarshal([]byte(statsJSON), &pretty); err == nil {
					formatted, _ := json.MarshalIndent(pretty, "", "  ")
					fmt.Fprintln(out, string(formatted))
				}
			}
			if runErr != nil {
				return fmt.Errorf("task %q failed: %w", t.Name, runErr)
			}
			fmt.Fprintf(out, "Task %q completed\n", t.Name)
			return nil
		},
	}
}

// findTask accepts either a numeric task id or a task name.
func findTask(ctx context.Context, store *task.Store, ref string) (*task.Task, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return store.GetTask(ctx, id)
	}
	tasks, err := store.ListTasks(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		if tasks[i].Name == ref {
			return &tasks[i], nil
		}
	}
	return nil, fmt.Errorf("no task named %q (run `strmsync task list`)", ref)
}
