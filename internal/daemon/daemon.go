// Package daemon hosts the long-running strmsync process: the HTTP API, the
// task runner, and the interval scheduler, guarded by a file lock so only one
// instance manages a given state directory.
package daemon

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"strmsync/internal/logging"
	"strmsync/internal/runner"
	"strmsync/internal/services"
	"strmsync/internal/task"
)

// Options configures the daemon surfaces.
type Options struct {
	// ListenAddr is the HTTP API bind address, e.g. "127.0.0.1:8196".
	ListenAddr string
	// LockPath is the singleton lock file, conventionally next to the
	// database.
	LockPath string
	// SchedulerTick is how often interval tasks are checked for due runs.
	// Zero means the default of one minute.
	SchedulerTick time.Duration
}

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	store  *task.Store
	runner *runner.Runner
	api    *API
	sched  *scheduler
	opts   Options
	logger *slog.Logger

	lock   *flock.Flock
	server *http.Server

	running atomic.Bool
	cancel  context.CancelFunc
	srvDone chan struct{}
}

// New constructs a daemon with initialized dependencies.
func New(store *task.Store, r *runner.Runner, opts Options, logger *slog.Logger) (*Daemon, error) {
	if store == nil || r == nil {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "new",
			"store and runner are required", nil)
	}
	if opts.ListenAddr == "" || opts.LockPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "daemon", "new",
			"listen address and lock path are required", nil)
	}
	if opts.SchedulerTick <= 0 {
		opts.SchedulerTick = time.Minute
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "daemon")
	return &Daemon{
		store:  store,
		runner: r,
		api:    NewAPI(store, r, logger),
		sched:  newScheduler(store, r, opts.SchedulerTick, logger),
		opts:   opts,
		logger: logger,
		lock:   flock.New(opts.LockPath),
	}, nil
}

// Start acquires the singleton lock and launches the runner, the scheduler,
// and the HTTP server. It returns once everything is listening.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return services.Wrap(services.ErrValidation, "daemon", "start",
			"daemon already running", nil)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "daemon", "start",
			"acquire lock", err)
	}
	if !ok {
		return services.Wrap(services.ErrConfiguration, "daemon", "start",
			"another strmsync instance holds "+d.opts.LockPath, nil)
	}

	dctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.runner.Start(dctx)
	go d.sched.run(dctx)

	d.server = &http.Server{
		Addr:              d.opts.ListenAddr,
		Handler:           d.api.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	d.srvDone = make(chan struct{})
	go func() {
		defer close(d.srvDone)
		if serveErr := d.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			d.logger.Error("http server exited", logging.Error(serveErr))
		}
	}()

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("listen", d.opts.ListenAddr),
		logging.String("lock", d.opts.LockPath))
	return nil
}

// Stop shuts down the HTTP server, drains the runner, and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.server.Shutdown(shutdownCtx); err != nil {
		d.logger.Warn("http server shutdown", logging.Error(err))
	}
	<-d.srvDone

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.runner.Stop()

	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the backing store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}
