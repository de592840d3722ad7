package logging

// Standardized attribute keys shared across components so log consumers can
// filter without guessing at spellings.
const (
	// FieldComponent identifies the emitting subsystem (orchestrator, store, api-server).
	FieldComponent = "component"
	// FieldItemID carries the content item identifier.
	FieldItemID = "item_id"
	// FieldState carries a lifecycle state value.
	FieldState = "state"
	// FieldEventType tags machine-readable event categories.
	FieldEventType = "event_type"
	// FieldErrorHint suggests the next diagnostic step for a failure.
	FieldErrorHint = "error_hint"
	// FieldRequestID correlates API requests with orchestrator operations.
	FieldRequestID = "request_id"
	// FieldAttempt carries the upload attempt counter.
	FieldAttempt = "attempt"
)
