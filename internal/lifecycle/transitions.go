package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
)

// allowedTransitions maps each state to the states an operation may move it
// into. The error state is additionally reachable from every non-terminal
// state via SetError.
var allowedTransitions = map[content.State][]content.State{
	content.StateDraft:       {content.StateScriptReady},
	content.StateScriptReady: {content.StateVideoReady},
	content.StateVideoReady:  {content.StateUploading},
	content.StateUploading:   {content.StateUploaded},
	content.StateUploaded:    {content.StateScheduled},
	content.StateScheduled:   {content.StateScheduled},
	content.StateError:       {},
}

func transitionAllowed(from, to content.State) bool {
	if to == content.StateError {
		return !from.IsTerminal()
	}
	if from == content.StateError {
		// Retry re-enters the recorded originating state; the caller
		// verifies ErrorState before asking for the transition.
		return true
	}
	for _, allowed := range allowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// transition commits a guarded state change with optimistic retries. The
// guard inspects the freshly read item and returns the mutation to apply, or
// an error to abort. On version conflicts the item is re-read and the guard
// re-evaluated, up to the configured retry budget.
func (o *Orchestrator) transition(ctx context.Context, itemID int64, guard func(*content.Item) error) (*content.Item, error) {
	retries := o.cfg.Workflow.TransitionRetries
	if retries <= 0 {
		retries = 5
	}

	var lastErr error
	for attempt := 0; attempt < retries; attempt++ {
		current, err := o.store.GetByID(ctx, itemID)
		if err != nil {
			return nil, err
		}
		prev := current.State

		updated, err := o.store.CompareAndSwap(ctx, itemID, current.Version, func(item *content.Item) error {
			return guard(item)
		})
		if errors.Is(err, content.ErrVersionConflict) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, err
		}

		o.publishTransition(prev, updated)
		return updated, nil
	}
	return nil, fmt.Errorf("transition retries exhausted for item %d: %w", itemID, lastErr)
}

func (o *Orchestrator) publishTransition(prev content.State, item *content.Item) {
	if prev == item.State && item.State != content.StateScheduled {
		return
	}
	evt := events.Event{
		ItemID:  item.ID,
		Prev:    prev,
		Next:    item.State,
		Version: item.Version,
	}
	if item.State == content.StateError {
		evt.Detail = item.ErrorDetail
	}
	o.bus.Publish(evt)
	o.logger.Info("state transition",
		logging.Int64(logging.FieldItemID, item.ID),
		logging.String("from", string(prev)),
		logging.String(logging.FieldState, string(item.State)),
		logging.Int64("version", item.Version))
}

func invalidTransition(item *content.Item, target content.State) error {
	return fmt.Errorf("%w: item %d cannot move %s -> %s", ErrInvalidTransition, item.ID, item.State, target)
}

// ensureState verifies the item is in one of the expected states.
func ensureState(item *content.Item, expected ...content.State) error {
	for _, state := range expected {
		if item.State == state {
			return nil
		}
	}
	return fmt.Errorf("%w: item %d is %s", ErrInvalidTransition, item.ID, item.State)
}
