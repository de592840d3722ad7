package publish

import (
	"context"
	"time"
)

// RemoteStatus describes the processing state of an already-uploaded video.
type RemoteStatus string

const (
	RemoteStatusPending   RemoteStatus = "pending"
	RemoteStatusPublished RemoteStatus = "published"
	RemoteStatusFailed    RemoteStatus = "failed"
)

// Metadata carries the listing fields attached to an upload.
type Metadata struct {
	Title             string   `yaml:"title"`
	Description       string   `yaml:"description"`
	Tags              []string `yaml:"tags"`
	CategoryID        string   `yaml:"category_id"`
	PrivacyStatus     string   `yaml:"privacy_status"`
	Language          string   `yaml:"language"`
	NotifySubscribers bool     `yaml:"notify_subscribers"`
	PlaylistID        string   `yaml:"playlist_id"`
}

// Client is implemented by remote video platforms. Upload must be idempotent
// with respect to the token: re-sending a token the platform already accepted
// returns the original remote id instead of creating a duplicate.
type Client interface {
	Upload(ctx context.Context, videoRef string, meta Metadata, idempotencyToken string) (remoteID string, err error)
	Schedule(ctx context.Context, remoteID string, at time.Time) error
	Status(ctx context.Context, remoteID string) (RemoteStatus, error)
}
