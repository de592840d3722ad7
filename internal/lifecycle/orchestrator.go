package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/notifications"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

// Orchestrator coordinates item state transitions, upload workers, and event
// fan-out.
type Orchestrator struct {
	cfg       *config.Config
	store     *content.Store
	bus       *events.Bus
	publisher publish.Client
	notifier  notifications.Service
	logger    *slog.Logger

	mu       sync.Mutex
	inflight map[int64]*uploadHandle
	wg       sync.WaitGroup
}

type uploadHandle struct {
	cancel context.CancelFunc
	meta   publish.Metadata
	done   chan struct{}

	// cancelReason is set by requestCancel before the context is canceled;
	// the worker reads it to tell an operator cancel from a daemon shutdown.
	cancelReason string
}

// New constructs an orchestrator. The publisher may be nil until credentials
// are configured; upload operations then fail with ErrAuthExpired.
func New(cfg *config.Config, store *content.Store, bus *events.Bus, publisher publish.Client, notifier notifications.Service, logger *slog.Logger) *Orchestrator {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		bus:       bus,
		publisher: publisher,
		notifier:  notifier,
		logger:    logging.NewComponentLogger(logger, "lifecycle"),
		inflight:  make(map[int64]*uploadHandle),
	}
}

// Store exposes the backing store for read-side consumers.
func (o *Orchestrator) Store() *content.Store {
	return o.store
}

// Bus exposes the event bus for subscribers.
func (o *Orchestrator) Bus() *events.Bus {
	return o.bus
}

// UploadInFlight reports whether an upload worker is currently running for
// the item.
func (o *Orchestrator) UploadInFlight(itemID int64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, ok := o.inflight[itemID]
	return ok
}

// Close cancels in-flight uploads and waits for their workers to exit.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	for _, handle := range o.inflight {
		handle.cancel()
	}
	o.mu.Unlock()
	o.wg.Wait()
}

func (o *Orchestrator) registerUpload(itemID int64, meta publish.Metadata, cancel context.CancelFunc) *uploadHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.inflight[itemID]; exists {
		return nil
	}
	handle := &uploadHandle{cancel: cancel, meta: meta, done: make(chan struct{})}
	o.inflight[itemID] = handle
	return handle
}

// requestCancel records the cancellation reason and interrupts the item's
// worker. The returned channel closes once the worker has observed the
// cancellation and committed its final state.
func (o *Orchestrator) requestCancel(itemID int64, reason string) (<-chan struct{}, bool) {
	o.mu.Lock()
	handle, ok := o.inflight[itemID]
	if ok {
		handle.cancelReason = reason
		handle.cancel()
	}
	o.mu.Unlock()
	if !ok {
		return nil, false
	}
	return handle.done, true
}

func (o *Orchestrator) cancelReason(itemID int64) string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if handle, ok := o.inflight[itemID]; ok {
		return handle.cancelReason
	}
	return ""
}

func (o *Orchestrator) unregisterUpload(itemID int64) {
	o.mu.Lock()
	if handle, ok := o.inflight[itemID]; ok {
		handle.cancel()
		delete(o.inflight, itemID)
	}
	o.mu.Unlock()
}

func (o *Orchestrator) inflightMeta(itemID int64) (publish.Metadata, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if handle, ok := o.inflight[itemID]; ok {
		return handle.meta, true
	}
	return publish.Metadata{}, false
}

func (o *Orchestrator) requestTimeout() time.Duration {
	timeout := time.Duration(o.cfg.Upload.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Minute
	}
	return timeout
}

func (o *Orchestrator) statusTimeout() time.Duration {
	timeout := time.Duration(o.cfg.Upload.StatusTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return timeout
}

func (o *Orchestrator) reconcilePollInterval() time.Duration {
	interval := time.Duration(o.cfg.Workflow.ReconcilePollInterval) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return interval
}
