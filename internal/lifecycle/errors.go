package lifecycle

import "errors"

var (
	// ErrInvalidTransition reports an operation applied to an item whose
	// current state does not permit it.
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	// ErrUploadInProgress reports an attempt to start a second concurrent
	// upload for the same item.
	ErrUploadInProgress = errors.New("upload already in progress")
	// ErrScheduleInPast reports a scheduled publish time that has already
	// passed.
	ErrScheduleInPast = errors.New("scheduled time is in the past")
	// ErrNotErrored reports a retry on an item that is not in the error state.
	ErrNotErrored = errors.New("item is not in the error state")
)
