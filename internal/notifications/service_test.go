package notifications

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
)

type capturedRequest struct {
	title    string
	tags     string
	priority string
	body     string
}

func newCaptureServer(t *testing.T) (*httptest.Server, func() []capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		mu.Lock()
		requests = append(requests, capturedRequest{
			title:    r.Header.Get("Title"),
			tags:     r.Header.Get("Tags"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	return server, func() []capturedRequest {
		mu.Lock()
		defer mu.Unlock()
		out := make([]capturedRequest, len(requests))
		copy(out, requests)
		return out
	}
}

func testConfig(topic string) *config.Config {
	cfg := config.Default()
	cfg.Notifications.NtfyTopic = topic
	cfg.Notifications.Uploads = true
	cfg.Notifications.Errors = true
	return &cfg
}

func TestNoopWhenTopicUnset(t *testing.T) {
	svc := NewService(testConfig(""))
	if _, ok := svc.(noopService); !ok {
		t.Fatalf("expected noop service, got %T", svc)
	}
	if err := svc.NotifyUploadStarted(context.Background(), "Video"); err != nil {
		t.Fatalf("noop notify: %v", err)
	}
}

func TestNotifyUploadCompleted(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := NewService(testConfig(server.URL))

	if err := svc.NotifyUploadCompleted(context.Background(), "My Video", "abc123"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	requests := captured()
	if len(requests) != 1 {
		t.Fatalf("got %d requests, want 1", len(requests))
	}
	req := requests[0]
	if req.title != "Scriptcast - Upload Complete" {
		t.Fatalf("title = %q", req.title)
	}
	if !strings.Contains(req.body, "abc123") {
		t.Fatalf("body missing remote id: %q", req.body)
	}
	if req.priority != "high" {
		t.Fatalf("priority = %q", req.priority)
	}
}

func TestNotifyUploadScheduledIncludesTime(t *testing.T) {
	server, captured := newCaptureServer(t)
	svc := NewService(testConfig(server.URL))

	at := time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC)
	if err := svc.NotifyUploadScheduled(context.Background(), "My Video", at); err != nil {
		t.Fatalf("notify: %v", err)
	}
	requests := captured()
	if len(requests) != 1 || !strings.Contains(requests[0].body, "2026-09-15T18:30:00Z") {
		t.Fatalf("unexpected requests: %+v", requests)
	}
}

func TestUploadNotificationsRespectToggle(t *testing.T) {
	server, captured := newCaptureServer(t)
	cfg := testConfig(server.URL)
	cfg.Notifications.Uploads = false
	svc := NewService(cfg)

	if err := svc.NotifyUploadStarted(context.Background(), "Video"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	if got := captured(); len(got) != 0 {
		t.Fatalf("expected no requests with uploads disabled, got %d", len(got))
	}
}

func TestNotifyErrorSurfacesServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "topic blocked", http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	svc := NewService(testConfig(server.URL))
	err := svc.NotifyError(context.Background(), context.DeadlineExceeded, "upload")
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Fatalf("expected 403 error, got %v", err)
	}
}
