// Package youtube implements the publish.Client interface against the
// YouTube Data API v3 using an OAuth2 refresh-token credential.
package youtube

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	yt "google.golang.org/api/youtube/v3"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

const tokenTagPrefix = "upload-token:"

// Client publishes videos to YouTube.
type Client struct {
	service  *yt.Service
	defaults config.YouTube
	logger   *slog.Logger
}

// New authenticates with the configured refresh token and returns a ready
// client. Credentials must already be present in the config.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Client, error) {
	if !cfg.HasYouTubeCredentials() {
		return nil, publish.Wrap(publish.ErrAuthExpired, "youtube credentials are not configured")
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.YouTube.ClientID,
		ClientSecret: cfg.YouTube.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope, yt.YoutubeScope},
	}
	token := &oauth2.Token{
		RefreshToken: cfg.YouTube.RefreshToken,
		Expiry:       time.Now().Add(-time.Hour),
	}

	httpClient := oauth2.NewClient(ctx, oauthCfg.TokenSource(ctx, token))
	service, err := yt.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}

	return &Client{
		service:  service,
		defaults: cfg.YouTube,
		logger:   logging.NewComponentLogger(logger, "youtube"),
	}, nil
}

// Upload sends the video file with its listing metadata. The idempotency
// token rides along as a tag so an interrupted upload can be found again on
// retry instead of producing a duplicate.
func (c *Client) Upload(ctx context.Context, videoRef string, meta publish.Metadata, idempotencyToken string) (string, error) {
	meta.ApplyDefaults(c.defaults.CategoryID, c.defaults.PrivacyStatus, c.defaults.DefaultLanguage, c.defaults.NotifySubscribers)
	if err := meta.Validate(); err != nil {
		return "", publish.Wrap(publish.ErrPermanent, "%v", err)
	}

	if existing, err := c.findByToken(ctx, idempotencyToken); err != nil {
		return "", err
	} else if existing != "" {
		c.logger.InfoContext(ctx, "upload already accepted, reusing remote id",
			logging.String("remote_id", existing))
		return existing, nil
	}

	file, err := os.Open(videoRef)
	if err != nil {
		return "", publish.Wrap(publish.ErrPermanent, "open video file: %v", err)
	}
	defer file.Close()

	video := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:                meta.Title,
			Description:          meta.Description,
			Tags:                 uploadTags(meta.Tags, idempotencyToken),
			CategoryId:           meta.CategoryID,
			DefaultLanguage:      meta.Language,
			DefaultAudioLanguage: meta.Language,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus: meta.PrivacyStatus,
		},
	}

	call := c.service.Videos.Insert([]string{"snippet", "status"}, video).
		Context(ctx).
		NotifySubscribers(meta.NotifySubscribers)
	call.Media(file)

	uploaded, err := call.Do()
	if err != nil {
		return "", classifyAPIError(err)
	}

	c.logger.InfoContext(ctx, "upload accepted", logging.String("remote_id", uploaded.Id))

	if meta.PlaylistID != "" {
		if err := c.addToPlaylist(ctx, meta.PlaylistID, uploaded.Id); err != nil {
			c.logger.WarnContext(ctx, "playlist insert failed", logging.Error(err))
		}
	}

	return uploaded.Id, nil
}

// Schedule moves an uploaded video to private with a publish time; YouTube
// requires private status for scheduled publication.
func (c *Client) Schedule(ctx context.Context, remoteID string, at time.Time) error {
	video := &yt.Video{
		Id: remoteID,
		Status: &yt.VideoStatus{
			PrivacyStatus: "private",
			PublishAt:     at.UTC().Format(time.RFC3339),
		},
	}
	if _, err := c.service.Videos.Update([]string{"status"}, video).Context(ctx).Do(); err != nil {
		return classifyAPIError(err)
	}
	return nil
}

// Status reports the remote processing state of an uploaded video.
func (c *Client) Status(ctx context.Context, remoteID string) (publish.RemoteStatus, error) {
	resp, err := c.service.Videos.List([]string{"status", "processingDetails"}).Id(remoteID).Context(ctx).Do()
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(resp.Items) == 0 {
		return "", publish.Wrap(publish.ErrPermanent, "video %s not found on platform", remoteID)
	}

	video := resp.Items[0]
	switch video.Status.UploadStatus {
	case "processed":
		return publish.RemoteStatusPublished, nil
	case "failed", "rejected", "deleted":
		return publish.RemoteStatusFailed, nil
	default:
		return publish.RemoteStatusPending, nil
	}
}

// uploadTags copies the listing tags before appending the token tag so the
// caller's slice is never written through.
func uploadTags(tags []string, token string) []string {
	out := make([]string, 0, len(tags)+1)
	out = append(out, tags...)
	return append(out, tokenTagPrefix+token)
}

func (c *Client) findByToken(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", nil
	}
	resp, err := c.service.Search.List([]string{"id"}).
		ForMine(true).
		Type("video").
		Q(tokenTagPrefix + token).
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return "", classifyAPIError(err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil {
		return "", nil
	}
	return resp.Items[0].Id.VideoId, nil
}

func (c *Client) addToPlaylist(ctx context.Context, playlistID, videoID string) error {
	item := &yt.PlaylistItem{
		Snippet: &yt.PlaylistItemSnippet{
			PlaylistId: playlistID,
			ResourceId: &yt.ResourceId{
				Kind:    "youtube#video",
				VideoId: videoID,
			},
		},
	}
	if _, err := c.service.PlaylistItems.Insert([]string{"snippet"}, item).Context(ctx).Do(); err != nil {
		return classifyAPIError(err)
	}
	return nil
}
