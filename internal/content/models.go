package content

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// State represents the lifecycle of a content item.
type State string

const (
	StateDraft       State = "draft"
	StateScriptReady State = "script_ready"
	StateVideoReady  State = "video_ready"
	StateUploading   State = "uploading"
	StateScheduled   State = "scheduled"
	StateUploaded    State = "uploaded"
	StateError       State = "error"
)

var allStates = []State{
	StateDraft,
	StateScriptReady,
	StateVideoReady,
	StateUploading,
	StateScheduled,
	StateUploaded,
	StateError,
}

var stateSet = func() map[State]struct{} {
	set := make(map[State]struct{}, len(allStates))
	for _, state := range allStates {
		set[state] = struct{}{}
	}
	return set
}()

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State.
func ParseState(value string) (State, bool) {
	normalized := State(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := stateSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a state ends the upload lifecycle.
func (s State) IsTerminal() bool {
	return s == StateUploaded || s == StateScheduled
}

// Item is a content item persisted in SQLite. Version increments on every
// committed mutation and backs optimistic concurrency control.
type Item struct {
	ID               int64
	Title            string
	Body             string
	SectionsJSON     string
	State            State
	VideoRef         string
	RemoteID         string
	ScheduledAt      *time.Time
	IdempotencyToken string
	ErrorDetail      string
	ErrorState       State
	CreatedAt        time.Time
	UpdatedAt        time.Time
	Version          int64
}

// Clone returns a deep copy safe to hand to a CAS mutator.
func (i *Item) Clone() *Item {
	if i == nil {
		return nil
	}
	cp := *i
	if i.ScheduledAt != nil {
		at := *i.ScheduledAt
		cp.ScheduledAt = &at
	}
	return &cp
}

// SetError moves the item into the error state, recording the state the
// failure occurred in so a later retry can re-enter it.
func (i *Item) SetError(detail string) {
	if i.State != StateError {
		i.ErrorState = i.State
	}
	i.State = StateError
	i.ErrorDetail = detail
}

// ClearError resets failure bookkeeping after a successful recovery.
func (i *Item) ClearError() {
	i.ErrorDetail = ""
	i.ErrorState = ""
}

// Validate enforces the structural invariants every committed record must hold.
func (i *Item) Validate() error {
	if i == nil {
		return errors.New("item is nil")
	}
	if _, ok := stateSet[i.State]; !ok {
		return fmt.Errorf("unknown state %q", i.State)
	}
	switch i.State {
	case StateUploaded, StateScheduled:
		if strings.TrimSpace(i.RemoteID) == "" {
			return fmt.Errorf("state %s requires a remote id", i.State)
		}
	}
	switch i.State {
	case StateVideoReady, StateUploading, StateUploaded, StateScheduled:
		if strings.TrimSpace(i.VideoRef) == "" {
			return fmt.Errorf("state %s requires a video ref", i.State)
		}
	}
	if i.State == StateScheduled && i.ScheduledAt == nil {
		return errors.New("state scheduled requires a scheduled time")
	}
	if i.State == StateError && i.ErrorState == "" {
		return errors.New("state error requires the originating state")
	}
	if i.Version < 0 {
		return errors.New("version must not be negative")
	}
	return nil
}

// HealthSummary describes aggregated item counts per key lifecycle states.
type HealthSummary struct {
	Total     int
	Drafting  int
	Ready     int
	Uploading int
	Published int
	Errored   int
}
