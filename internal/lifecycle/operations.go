package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/script"
)

// Ingest parses a raw script document and creates a new draft item.
func (o *Orchestrator) Ingest(ctx context.Context, rawScript string) (*content.Item, error) {
	doc, err := script.Parse(rawScript)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}

	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}

	item, err := o.store.Create(ctx, doc.Title, doc.Body(), string(sectionsJSON))
	if err != nil {
		return nil, err
	}

	o.bus.Publish(events.Event{
		ItemID:  item.ID,
		Next:    item.State,
		Version: item.Version,
	})
	o.logger.Info("script ingested",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("title", item.Title))
	if err := o.notifier.NotifyScriptIngested(ctx, item.Title); err != nil {
		o.logger.Warn("ingest notification failed", logging.Error(err))
	}
	return item, nil
}

// ReplaceScript re-parses a new script document for an item that has not yet
// gone to video. The item keeps its current state.
func (o *Orchestrator) ReplaceScript(ctx context.Context, itemID int64, rawScript string) (*content.Item, error) {
	doc, err := script.Parse(rawScript)
	if err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	sectionsJSON, err := json.Marshal(doc.Sections)
	if err != nil {
		return nil, fmt.Errorf("encode sections: %w", err)
	}

	return o.transition(ctx, itemID, func(item *content.Item) error {
		if err := ensureState(item, content.StateDraft, content.StateScriptReady); err != nil {
			return err
		}
		item.Title = doc.Title
		item.Body = doc.Body()
		item.SectionsJSON = string(sectionsJSON)
		if item.State == content.StateScriptReady {
			// A finalized item must stay complete.
			return ensureCompleteScript(item)
		}
		return nil
	})
}

// FinalizeScript marks the script as complete, moving the item to
// script_ready. A draft without both a title and a body stays a draft.
func (o *Orchestrator) FinalizeScript(ctx context.Context, itemID int64) (*content.Item, error) {
	return o.transition(ctx, itemID, func(item *content.Item) error {
		if err := ensureState(item, content.StateDraft); err != nil {
			return err
		}
		if err := ensureCompleteScript(item); err != nil {
			return err
		}
		item.State = content.StateScriptReady
		return nil
	})
}

// AttachVideo records the rendered video file for the item, moving it to
// video_ready. Re-attaching a different file before upload is allowed.
func (o *Orchestrator) AttachVideo(ctx context.Context, itemID int64, videoRef string) (*content.Item, error) {
	videoRef = strings.TrimSpace(videoRef)
	if videoRef == "" {
		return nil, fmt.Errorf("%w: video ref is empty", ErrInvalidTransition)
	}
	return o.transition(ctx, itemID, func(item *content.Item) error {
		if err := ensureState(item, content.StateScriptReady, content.StateVideoReady); err != nil {
			return err
		}
		item.VideoRef = videoRef
		item.State = content.StateVideoReady
		return nil
	})
}

// Schedule sets or changes the remote publish time for an uploaded video.
// Rescheduling to the already-recorded time is a no-op.
func (o *Orchestrator) Schedule(ctx context.Context, itemID int64, at time.Time) (*content.Item, error) {
	if !at.After(time.Now()) {
		return nil, fmt.Errorf("%w: %s", ErrScheduleInPast, at.UTC().Format(time.RFC3339))
	}

	current, err := o.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := ensureState(current, content.StateUploaded, content.StateScheduled); err != nil {
		return nil, err
	}
	if current.State == content.StateScheduled && current.ScheduledAt != nil && current.ScheduledAt.Equal(at) {
		return current, nil
	}

	if o.publisher == nil {
		return nil, publish.Wrap(publish.ErrAuthExpired, "no publish client configured")
	}
	callCtx, cancel := context.WithTimeout(ctx, o.statusTimeout())
	defer cancel()
	if err := o.publisher.Schedule(callCtx, current.RemoteID, at); err != nil {
		return nil, err
	}

	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if err := ensureState(item, content.StateUploaded, content.StateScheduled); err != nil {
			return err
		}
		scheduled := at.UTC()
		item.ScheduledAt = &scheduled
		item.State = content.StateScheduled
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := o.notifier.NotifyUploadScheduled(ctx, item.Title, at); err != nil {
		o.logger.Warn("schedule notification failed", logging.Error(err))
	}
	return item, nil
}

// Retry re-enters the state an errored item failed in. When the failure
// happened mid-upload, the upload worker is restarted with the item's
// existing idempotency token.
func (o *Orchestrator) Retry(ctx context.Context, itemID int64) (*content.Item, error) {
	if o.UploadInFlight(itemID) {
		return nil, fmt.Errorf("%w: item %d", ErrUploadInProgress, itemID)
	}

	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if item.State != content.StateError {
			return fmt.Errorf("%w: item %d is %s", ErrNotErrored, item.ID, item.State)
		}
		target := item.ErrorState
		if !transitionAllowed(item.State, target) {
			return invalidTransition(item, target)
		}
		item.State = target
		item.ClearError()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if item.State == content.StateUploading {
		meta, ok := o.inflightMeta(itemID)
		if !ok {
			meta = metadataFromItem(item)
		}
		if err := o.spawnUpload(item, meta); err != nil {
			return item, err
		}
	}
	return item, nil
}

// Cancel aborts an in-flight upload. Once the worker's outstanding call
// returns or times out, the item is marked errored with a cancellation
// reason; Retry re-enters uploading with the same idempotency token, so a
// video the platform may have already accepted cannot be duplicated.
func (o *Orchestrator) Cancel(ctx context.Context, itemID int64) (*content.Item, error) {
	current, err := o.store.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if err := ensureState(current, content.StateUploading); err != nil {
		return nil, err
	}

	done, ok := o.requestCancel(itemID, cancelDetail)
	if !ok {
		// No worker holds the item, so the daemon restarted mid-upload;
		// record the cancellation directly.
		return o.transition(ctx, itemID, func(item *content.Item) error {
			if err := ensureState(item, content.StateUploading); err != nil {
				return err
			}
			item.SetError(cancelDetail)
			return nil
		})
	}

	select {
	case <-done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	o.logger.Info("upload canceled", logging.Int64(logging.FieldItemID, itemID))
	return o.store.GetByID(ctx, itemID)
}

// MarkFailed forces a non-terminal item into the error state with an
// operator-supplied reason.
func (o *Orchestrator) MarkFailed(ctx context.Context, itemID int64, detail string) (*content.Item, error) {
	item, err := o.transition(ctx, itemID, func(item *content.Item) error {
		if item.State.IsTerminal() || item.State == content.StateError {
			return invalidTransition(item, content.StateError)
		}
		item.SetError(detail)
		return nil
	})
	if err != nil {
		return nil, err
	}
	o.unregisterUpload(itemID)
	return item, nil
}

// Remove deletes a terminal or errored item. Items with an active upload
// worker cannot be removed.
func (o *Orchestrator) Remove(ctx context.Context, itemID int64) error {
	if o.UploadInFlight(itemID) {
		return fmt.Errorf("%w: item %d", ErrUploadInProgress, itemID)
	}
	return o.store.Remove(ctx, itemID)
}

// cancelDetail is recorded on items whose upload an operator aborted.
const cancelDetail = "upload canceled by operator"

func ensureCompleteScript(item *content.Item) error {
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: item %d has no title", ErrInvalidTransition, item.ID)
	}
	if strings.TrimSpace(item.Body) == "" {
		return fmt.Errorf("%w: item %d has no script body", ErrInvalidTransition, item.ID)
	}
	return nil
}

func metadataFromItem(item *content.Item) publish.Metadata {
	return publish.Metadata{
		Title:       item.Title,
		Description: item.Body,
	}
}
