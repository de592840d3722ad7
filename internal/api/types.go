package api

import "time"

// ContentItem describes a content item in a transport-friendly format.
type ContentItem struct {
	ID             int64  `json:"id"`
	Title          string `json:"title"`
	State          string `json:"state"`
	VideoRef       string `json:"videoRef,omitempty"`
	RemoteID       string `json:"remoteId,omitempty"`
	ScheduledAt    string `json:"scheduledAt,omitempty"`
	ErrorDetail    string `json:"errorDetail,omitempty"`
	ErrorState     string `json:"errorState,omitempty"`
	UploadInFlight bool   `json:"uploadInFlight"`
	CreatedAt      string `json:"createdAt,omitempty"`
	UpdatedAt      string `json:"updatedAt,omitempty"`
	Version        int64  `json:"version"`
	Body           string `json:"body,omitempty"`
	SectionsJSON   string `json:"sections,omitempty"`
	HasUploadToken bool   `json:"hasUploadToken"`
}

// ItemListResponse wraps a collection of items for API responses.
type ItemListResponse struct {
	Items []ContentItem `json:"items"`
}

// ItemResponse wraps a single item.
type ItemResponse struct {
	Item ContentItem `json:"item"`
}

// StatsResponse provides normalized per-state counts.
type StatsResponse struct {
	Counts map[string]int `json:"counts"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DBPath       string         `json:"dbPath"`
	LockFilePath string         `json:"lockFilePath"`
	PublisherOK  bool           `json:"publisherOk"`
	Counts       map[string]int `json:"counts"`
	Total        int            `json:"total"`
	Errored      int            `json:"errored"`
}

// TransitionEvent mirrors an event bus entry for API consumers.
type TransitionEvent struct {
	Sequence  uint64    `json:"seq"`
	ItemID    int64     `json:"itemId"`
	Prev      string    `json:"prev,omitempty"`
	Next      string    `json:"next"`
	Version   int64     `json:"version"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// EventStreamResponse carries a batch of transition events plus the cursor
// for the next long-poll.
type EventStreamResponse struct {
	Events []TransitionEvent `json:"events"`
	Next   uint64            `json:"next"`
}

// IngestRequest submits a raw script document.
type IngestRequest struct {
	Script string `json:"script"`
}

// AttachRequest records a rendered video file for an item.
type AttachRequest struct {
	VideoRef string `json:"videoRef"`
}

// UploadRequest starts an upload, optionally overriding listing metadata.
type UploadRequest struct {
	MetadataPath string `json:"metadataPath,omitempty"`
}

// ScheduleRequest sets the remote publish time.
type ScheduleRequest struct {
	At time.Time `json:"at"`
}

// FailRequest forces an item into the error state.
type FailRequest struct {
	Detail string `json:"detail"`
}

// ErrorResponse carries an API failure message.
type ErrorResponse struct {
	Error string `json:"error"`
}
