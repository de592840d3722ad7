package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

// errUploadAbandoned signals that the item left the uploading state while the
// worker was running (canceled or failed by an operator).
var errUploadAbandoned = errors.New("upload abandoned")

// StartUpload moves a video_ready item into uploading and launches the upload
// worker. The item's idempotency token is assigned exactly once; retries of a
// failed upload reuse it so the platform never receives a duplicate. Passing
// nil metadata derives the listing from the script itself.
func (o *Orchestrator) StartUpload(ctx context.Context, itemID int64, meta *publish.Metadata) (*content.Item, error) {
	if o.publisher == nil {
		return nil, publish.Wrap(publish.ErrAuthExpired, "no publish client configured")
	}
	if o.UploadInFlight(itemID) {
		return nil, fmt.Errorf("%w: item %d", ErrUploadInProgress, itemID)
	}

	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if err := ensureState(item, content.StateVideoReady); err != nil {
			return err
		}
		if item.IdempotencyToken == "" {
			item.IdempotencyToken = uuid.NewString()
		}
		item.State = content.StateUploading
		item.ClearError()
		return nil
	})
	if err != nil {
		return nil, err
	}

	effective := metadataFromItem(item)
	if meta != nil {
		effective = *meta
	}
	if err := o.spawnUpload(item, effective); err != nil {
		return item, err
	}

	if err := o.notifier.NotifyUploadStarted(ctx, item.Title); err != nil {
		o.logger.Warn("upload notification failed", logging.Error(err))
	}
	return item, nil
}

func (o *Orchestrator) spawnUpload(item *content.Item, meta publish.Metadata) error {
	workerCtx, cancel := context.WithCancel(context.Background())
	handle := o.registerUpload(item.ID, meta, cancel)
	if handle == nil {
		cancel()
		return fmt.Errorf("%w: item %d", ErrUploadInProgress, item.ID)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(handle.done)
		defer o.unregisterUpload(item.ID)
		o.runUpload(workerCtx, item.ID, item.VideoRef, meta, item.IdempotencyToken)
	}()
	return nil
}

func (o *Orchestrator) runUpload(ctx context.Context, itemID int64, videoRef string, meta publish.Metadata, token string) {
	maxAttempts := o.cfg.Upload.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, o.requestTimeout())
		remoteID, err := o.publisher.Upload(callCtx, videoRef, meta, token)
		cancel()

		if err == nil {
			o.finishUpload(itemID, remoteID)
			return
		}
		if ctx.Err() != nil {
			o.workerInterrupted(itemID)
			return
		}

		lastErr = err
		o.logger.Warn("upload attempt failed",
			logging.Int64(logging.FieldItemID, itemID),
			logging.Int(logging.FieldAttempt, attempt),
			logging.Error(err))

		if !publish.IsRetryable(err) || attempt == maxAttempts {
			break
		}

		select {
		case <-time.After(o.backoffDelay(attempt)):
		case <-ctx.Done():
			o.workerInterrupted(itemID)
			return
		}
	}

	o.failUpload(itemID, lastErr)
}

// workerInterrupted settles an interrupted worker: an operator cancel records
// the item as errored with the cancellation reason, while a daemon shutdown
// leaves it uploading for the next startup reconcile.
func (o *Orchestrator) workerInterrupted(itemID int64) {
	if reason := o.cancelReason(itemID); reason != "" {
		o.failUpload(itemID, errors.New(reason))
		return
	}
	o.logger.Info("upload worker stopped",
		logging.Int64(logging.FieldItemID, itemID))
}

func (o *Orchestrator) finishUpload(itemID int64, remoteID string) {
	ctx := context.Background()
	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if item.State != content.StateUploading {
			return errUploadAbandoned
		}
		item.RemoteID = remoteID
		item.State = content.StateUploaded
		item.ClearError()
		return nil
	})
	if errors.Is(err, errUploadAbandoned) {
		return
	}
	if err != nil {
		o.logger.Error("failed to commit upload result",
			logging.Int64(logging.FieldItemID, itemID),
			logging.String("remote_id", remoteID),
			logging.Error(err))
		return
	}

	o.logger.Info("upload completed",
		logging.Int64(logging.FieldItemID, itemID),
		logging.String("remote_id", remoteID))
	if err := o.notifier.NotifyUploadCompleted(ctx, item.Title, remoteID); err != nil {
		o.logger.Warn("upload notification failed", logging.Error(err))
	}
}

func (o *Orchestrator) failUpload(itemID int64, cause error) {
	detail := "upload failed"
	if cause != nil {
		detail = cause.Error()
	}

	ctx := context.Background()
	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if item.State != content.StateUploading {
			return errUploadAbandoned
		}
		item.SetError(detail)
		return nil
	})
	if errors.Is(err, errUploadAbandoned) {
		return
	}
	if err != nil {
		o.logger.Error("failed to record upload failure",
			logging.Int64(logging.FieldItemID, itemID),
			logging.Error(err))
		return
	}

	hint := "retry with scriptcast retry"
	if errors.Is(cause, publish.ErrAuthExpired) {
		hint = "refresh youtube credentials, then retry"
	}
	o.logger.Error("upload failed",
		logging.Int64(logging.FieldItemID, itemID),
		logging.String(logging.FieldErrorHint, hint),
		logging.Error(cause))
	if err := o.notifier.NotifyUploadFailed(ctx, item.Title, detail); err != nil {
		o.logger.Warn("failure notification failed", logging.Error(err))
	}
}

// Reconcile resolves items left in uploading by a previous daemon run. Items
// with a recorded remote id are settled against the platform's view; items
// without one restart the upload with their original token, which the
// platform resolves to the prior upload if it was in fact accepted.
func (o *Orchestrator) Reconcile(ctx context.Context) error {
	items, err := o.store.List(ctx, content.StateUploading)
	if err != nil {
		return err
	}

	for _, item := range items {
		if o.UploadInFlight(item.ID) {
			continue
		}
		if item.RemoteID != "" {
			o.reconcileRemote(ctx, item)
			continue
		}
		o.logger.Info("resuming interrupted upload",
			logging.Int64(logging.FieldItemID, item.ID))
		if err := o.spawnUpload(item, metadataFromItem(item)); err != nil {
			o.logger.Warn("resume failed",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(err))
		}
	}
	return nil
}

func (o *Orchestrator) reconcileRemote(ctx context.Context, item *content.Item) {
	if o.publisher == nil {
		return
	}
	callCtx, cancel := context.WithTimeout(ctx, o.statusTimeout())
	status, err := o.publisher.Status(callCtx, item.RemoteID)
	cancel()
	if err != nil {
		o.logger.Warn("reconcile status check failed",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.Error(err))
		return
	}

	switch status {
	case publish.RemoteStatusPublished:
		o.finishUpload(item.ID, item.RemoteID)
	case publish.RemoteStatusPending:
		o.logger.Info("upload still processing on platform, polling",
			logging.Int64(logging.FieldItemID, item.ID),
			logging.String("remote_id", item.RemoteID))
		if err := o.spawnStatusPoll(item); err != nil {
			o.logger.Warn("status poll not started",
				logging.Int64(logging.FieldItemID, item.ID),
				logging.Error(err))
		}
	case publish.RemoteStatusFailed:
		o.failUpload(item.ID, publish.Wrap(publish.ErrPermanent, "platform reports upload failed"))
	}
}

// spawnStatusPoll watches a pending remote upload until the platform settles
// it. The poller holds the item's in-flight slot so a second upload cannot
// start and an operator cancel reaches it.
func (o *Orchestrator) spawnStatusPoll(item *content.Item) error {
	pollCtx, cancel := context.WithCancel(context.Background())
	handle := o.registerUpload(item.ID, metadataFromItem(item), cancel)
	if handle == nil {
		cancel()
		return fmt.Errorf("%w: item %d", ErrUploadInProgress, item.ID)
	}

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer close(handle.done)
		defer o.unregisterUpload(item.ID)
		o.runStatusPoll(pollCtx, item.ID, item.RemoteID)
	}()
	return nil
}

func (o *Orchestrator) runStatusPoll(ctx context.Context, itemID int64, remoteID string) {
	for {
		callCtx, cancel := context.WithTimeout(ctx, o.statusTimeout())
		status, err := o.publisher.Status(callCtx, remoteID)
		cancel()

		if ctx.Err() != nil {
			o.workerInterrupted(itemID)
			return
		}
		if err != nil {
			if !publish.IsRetryable(err) {
				o.failUpload(itemID, err)
				return
			}
			o.logger.Warn("status poll failed",
				logging.Int64(logging.FieldItemID, itemID),
				logging.Error(err))
		} else {
			switch status {
			case publish.RemoteStatusPublished:
				o.finishUpload(itemID, remoteID)
				return
			case publish.RemoteStatusFailed:
				o.failUpload(itemID, publish.Wrap(publish.ErrPermanent, "platform reports upload failed"))
				return
			}
		}

		select {
		case <-time.After(o.reconcilePollInterval()):
		case <-ctx.Done():
			o.workerInterrupted(itemID)
			return
		}
	}
}
