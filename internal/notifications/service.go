// Package notifications sends push notifications for lifecycle milestones
// via ntfy. When no topic is configured, a noop implementation is used.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
)

const userAgent = "Scriptcast-Go/0.1.0"

// Service defines the notification surface exposed to the lifecycle.
type Service interface {
	NotifyScriptIngested(ctx context.Context, title string) error
	NotifyUploadStarted(ctx context.Context, title string) error
	NotifyUploadCompleted(ctx context.Context, title, remoteID string) error
	NotifyUploadScheduled(ctx context.Context, title string, at time.Time) error
	NotifyUploadFailed(ctx context.Context, title, detail string) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:  topic,
		client:    &http.Client{Timeout: timeout},
		uploadsOn: cfg.Notifications.Uploads,
		errorsOn:  cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint  string
	client    *http.Client
	uploadsOn bool
	errorsOn  bool
}

func (n *ntfyService) NotifyScriptIngested(ctx context.Context, title string) error {
	if !n.uploadsOn {
		return nil
	}
	data := payload{
		title:   "Scriptcast - Script Ingested",
		message: fmt.Sprintf("New script ingested: %s", strings.TrimSpace(title)),
		tags:    []string{"scriptcast", "script", "ingested"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadStarted(ctx context.Context, title string) error {
	if !n.uploadsOn {
		return nil
	}
	data := payload{
		title:   "Scriptcast - Upload Started",
		message: fmt.Sprintf("Started uploading: %s", strings.TrimSpace(title)),
		tags:    []string{"scriptcast", "upload", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadCompleted(ctx context.Context, title, remoteID string) error {
	if !n.uploadsOn {
		return nil
	}
	message := fmt.Sprintf("Upload complete: %s", strings.TrimSpace(title))
	if remoteID = strings.TrimSpace(remoteID); remoteID != "" {
		message = fmt.Sprintf("%s\nhttps://www.youtube.com/watch?v=%s", message, remoteID)
	}
	data := payload{
		title:    "Scriptcast - Upload Complete",
		message:  message,
		tags:     []string{"scriptcast", "upload", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadScheduled(ctx context.Context, title string, at time.Time) error {
	if !n.uploadsOn {
		return nil
	}
	data := payload{
		title:   "Scriptcast - Publish Scheduled",
		message: fmt.Sprintf("Scheduled: %s\nGoes live %s", strings.TrimSpace(title), at.UTC().Format(time.RFC3339)),
		tags:    []string{"scriptcast", "schedule"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyUploadFailed(ctx context.Context, title, detail string) error {
	if !n.errorsOn {
		return nil
	}
	data := payload{
		title:    "Scriptcast - Upload Failed",
		message:  fmt.Sprintf("Upload failed: %s\n%s", strings.TrimSpace(title), strings.TrimSpace(detail)),
		tags:     []string{"scriptcast", "upload", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorsOn {
		return nil
	}
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "Scriptcast - Error",
		message:  builder.String(),
		tags:     []string{"scriptcast", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Scriptcast - Test",
		message:  "Notification system test",
		tags:     []string{"scriptcast", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyScriptIngested(context.Context, string) error               { return nil }
func (noopService) NotifyUploadStarted(context.Context, string) error                { return nil }
func (noopService) NotifyUploadCompleted(context.Context, string, string) error      { return nil }
func (noopService) NotifyUploadScheduled(context.Context, string, time.Time) error   { return nil }
func (noopService) NotifyUploadFailed(context.Context, string, string) error         { return nil }
func (noopService) NotifyError(context.Context, error, string) error                 { return nil }
func (noopService) TestNotification(context.Context) error                           { return nil }
