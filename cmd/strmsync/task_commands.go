package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"strmsync/internal/task"
)

func newTaskCommand(ctx *commandContext) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Manage sync tasks on a running daemon",
	}

	taskCmd.AddCommand(newTaskListCommand(ctx))
	taskCmd.AddCommand(newTaskShowCommand(ctx))
	taskCmd.AddCommand(newTaskAddCommand(ctx))
	taskCmd.AddCommand(newTaskDeleteCommand(ctx))
	taskCmd.AddCommand(newTaskRunCommand(ctx))

	return taskCmd
}

func newTaskListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured sync tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			var tasks []task.Task
			if err := ctx.apiGet("/api/tasks", &tasks); err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks configured. Add one with `strmsync task add`.")
				return nil
			}

			view := newTableView("ID", "Name", "Remote", "Local", "Incremental", "Interval")
			view.rightAlign(1, 6)
			for _, t := range tasks {
				interval := "manual"
				if t.IntervalMinutes > 0 {
					interval = fmt.Sprintf("%dm", t.IntervalMinutes)
				}
				view.addRow(strconv.FormatInt(t.ID, 10), t.Name, t.RemoteRoot,
					t.LocalRoot, yesNo(t.Incremental), interval)
			}
			fmt.Fprintln(cmd.OutOrStdout(), view.render())
			return nil
		},
	}
}

func newTaskShowCommand(ctx *commandContext) *cobra.Command {
	var runLimit int

	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task and its recent runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("task id must be numeric: %q", args[0])
			}

			var t task.Task
			if err := ctx.apiGet(fmt.Sprintf("/api/tasks/%d", id), &t); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Task %d: %s\n", t.ID, t.Name)
			fmt.Fprintf(out, "  Remote root:  %s\n", t.RemoteRoot)
			fmt.Fprintf(out, "  Local root:   %s\n", t.LocalRoot)
			fmt.Fprintf(out, "  Incremental:  %s\n", yesNo(t.Incremental))
			if t.RenameRule != "" {
				fmt.Fprintf(out, "  Rename rule:  %s\n", t.RenameRule)
			}
			if t.IntervalMinutes > 0 {
				fmt.Fprintf(out, "  Interval:     %dm\n", t.IntervalMinutes)
			}
			fmt.Fprintf(out, "  Descriptors:  %s  Images: %s  Subtitles: %s\n",
				yesNo(t.Scrape.Descriptors), yesNo(t.Scrape.Images), yesNo(t.Scrape.Subtitles))
			fmt.Fprintf(out, "  Download video: %s  Encode URL: %s\n",
				yesNo(t.Scrape.DownloadVideo), yesNo(t.Scrape.EncodeURL))

			var runs []task.Run
			if err := ctx.apiGet(fmt.Sprintf("/api/tasks/%d/runs?limit=%d", id, runLimit), &runs); err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "\nNo runs recorded.")
				return nil
			}

			view := newTableView("Run", "Status", "Started", "Finished", "Error")
			for _, run := range runs {
				finished := "-"
				if run.FinishedAt != nil {
					finished = run.FinishedAt.Local().Format("2006-01-02 15:04:05")
				}
				view.addRow(run.ID, string(run.Status),
					run.StartedAt.Local().Format("2006-01-02 15:04:05"),
					finished, run.ErrorMessage)
			}
			fmt.Fprintln(out)
			fmt.Fprintln(out, view.render())
			return nil
		},
	}

	cmd.Flags().IntVar(&runLimit, "runs", 10, "Number of recent runs to show")
	return cmd
}

func newTaskAddCommand(ctx *commandContext) *cobra.Command {
	var t task.Task

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a sync task",
		RunE: func(cmd *cobra.Command, args []string) error {
			var created task.Task
			if err := ctx.apiSend("POST", "/api/tasks", t, &created); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %d (%s)\n", created.ID, created.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&t.Name, "name", "", "Task name (unique)")
	cmd.Flags().StringVar(&t.RemoteRoot, "remote", "", "Remote root path on the gateway")
	cmd.Flags().StringVar(&t.LocalRoot, "local", "", "Local directory for STRM artifacts")
	cmd.Flags().BoolVar(&t.Incremental, "incremental", false, "Reconcile orphans after each run")
	cmd.Flags().StringVar(&t.RenameRule, "rename", "", "Rename rule as pattern|replacement")
	cmd.Flags().IntVar(&t.IntervalMinutes, "interval", 0, "Re-run interval in minutes (0 = manual)")
	cmd.Flags().BoolVar(&t.Scrape.Descriptors, "descriptors", false, "Acquire NFO descriptors")
	cmd.Flags().BoolVar(&t.Scrape.Images, "images", false, "Acquire poster/fanart/thumb images")
	cmd.Flags().BoolVar(&t.Scrape.Subtitles, "subtitles", false, "Acquire subtitle sidecars")
	cmd.Flags().BoolVar(&t.Scrape.DownloadVideo, "download-video", false, "Download video bytes instead of pointing at them")
	cmd.Flags().BoolVar(&t.Scrape.EncodeURL, "encode-url", false, "Percent-encode the playback URL path")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("remote")
	_ = cmd.MarkFlagRequired("local")
	return cmd
}

func newTaskDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a sync task and its run history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("task id must be numeric: %q", args[0])
			}
			if err := ctx.apiSend("DELETE", fmt.Sprintf("/api/tasks/%d", id), nil, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d\n", id)
			return nil
		},
	}
}

func newTaskRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task-id>",
		Short: "Queue a task for execution on the daemon",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("task id must be numeric: %q", args[0])
			}
			var run task.Run
			if err := ctx.apiSend("POST", fmt.Sprintf("/api/tasks/%d/run", id), nil, &run); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Queued run %s for task %d\n", run.ID, id)
			return nil
		},
	}
}
