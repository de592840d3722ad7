package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/lifecycle"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/notifications"
)

// Daemon coordinates the orchestrator and API server and enforces
// single-instance execution.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	orch   *lifecycle.Orchestrator

	lockPath string
	lock     *flock.Flock

	api *apiServer

	running atomic.Bool
	cancel  context.CancelFunc

	publisherOK bool
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DBPath       string
	LockFilePath string
	PublisherOK  bool
	Health       content.HealthSummary
	Stats        map[content.State]int
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, orch *lifecycle.Orchestrator, logger *slog.Logger, publisherOK bool) (*Daemon, error) {
	if cfg == nil || orch == nil || logger == nil {
		return nil, errors.New("daemon requires config, orchestrator, and logger")
	}

	lockPath := cfg.LockFilePath()
	d := &Daemon{
		cfg:         cfg,
		logger:      logging.NewComponentLogger(logger, "daemon"),
		orch:        orch,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
		publisherOK: publisherOK,
	}

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock, reconciles interrupted uploads, and brings
// up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another scriptcast daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	if err := d.orch.Reconcile(runCtx); err != nil {
		d.logger.Warn("startup reconcile failed", logging.Error(err))
	}

	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			_ = d.lock.Unlock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("scriptcast daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
	}
	d.orch.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("scriptcast daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	return d.orch.Store().Close()
}

// APIAddr returns the bound API address, or "" before Start.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DBPath:       d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
		PublisherOK:  d.publisherOK,
	}
	if health, err := d.orch.Store().Health(ctx); err == nil {
		status.Health = health
	}
	if stats, err := d.orch.Store().Stats(ctx); err == nil {
		status.Stats = stats
	}
	return status
}
