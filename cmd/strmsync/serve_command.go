package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"strmsync/internal/daemon"
	"strmsync/internal/runner"
	"strmsync/internal/task"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the strmsync daemon (HTTP API + scheduler)",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := ctx.newLogger(true)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			executor, err := ctx.newExecutor(logger)
			if err != nil {
				return err
			}

			store, err := task.Open(cfg.DatabasePath())
			if err != nil {
				return fmt.Errorf("open task store: %w", err)
			}

			queue := runner.New(store, executor.Execute, cfg.Sync.QueueSize, logger)
			d, err := daemon.New(store, queue, daemon.Options{
				ListenAddr:    cfg.Paths.APIBind,
				LockPath:      cfg.LockPath(),
				SchedulerTick: time.Duration(cfg.Sync.SchedulerTickSeconds) * time.Second,
			}, logger)
			if err != nil {
				_ = store.Close()
				return err
			}

			signalCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(signalCtx); err != nil {
				_ = store.Close()
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "strmsync daemon listening on %s\n", cfg.Paths.APIBind)

			<-signalCtx.Done()
			return d.Close()
		},
	}
}
