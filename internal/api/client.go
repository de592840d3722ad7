package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the daemon's HTTP API on behalf of the CLI.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given daemon bind address.
func NewClient(bind string) *Client {
	base := strings.TrimSpace(bind)
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL: strings.TrimRight(base, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// StatusError carries a non-2xx API response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("daemon returned %d: %s", e.Code, e.Message)
}

// Status fetches the daemon status summary.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var out DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListItems fetches items, optionally filtered by state.
func (c *Client) ListItems(ctx context.Context, states ...string) ([]ContentItem, error) {
	path := "/api/items"
	if len(states) > 0 {
		values := url.Values{}
		for _, state := range states {
			values.Add("state", state)
		}
		path += "?" + values.Encode()
	}
	var out ItemListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// DescribeItem fetches a single item including its script body.
func (c *Client) DescribeItem(ctx context.Context, id int64) (*ContentItem, error) {
	var out ItemResponse
	if err := c.do(ctx, http.MethodGet, "/api/items/"+strconv.FormatInt(id, 10), nil, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

// Ingest submits a raw script document.
func (c *Client) Ingest(ctx context.Context, script string) (*ContentItem, error) {
	var out ItemResponse
	if err := c.do(ctx, http.MethodPost, "/api/items", IngestRequest{Script: script}, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

// ReplaceScript submits a replacement script for an existing item.
func (c *Client) ReplaceScript(ctx context.Context, id int64, script string) (*ContentItem, error) {
	var out ItemResponse
	if err := c.do(ctx, http.MethodPut, c.itemPath(id, "script"), IngestRequest{Script: script}, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

// Finalize marks an item's script as complete.
func (c *Client) Finalize(ctx context.Context, id int64) (*ContentItem, error) {
	return c.action(ctx, id, "finalize", nil)
}

// AttachVideo records a rendered video file for an item.
func (c *Client) AttachVideo(ctx context.Context, id int64, videoRef string) (*ContentItem, error) {
	return c.action(ctx, id, "video", AttachRequest{VideoRef: videoRef})
}

// StartUpload begins the upload for a video_ready item.
func (c *Client) StartUpload(ctx context.Context, id int64, metadataPath string) (*ContentItem, error) {
	return c.action(ctx, id, "upload", UploadRequest{MetadataPath: metadataPath})
}

// Schedule sets the remote publish time for an uploaded item.
func (c *Client) Schedule(ctx context.Context, id int64, at time.Time) (*ContentItem, error) {
	return c.action(ctx, id, "schedule", ScheduleRequest{At: at})
}

// Retry re-enters the state an errored item failed in.
func (c *Client) Retry(ctx context.Context, id int64) (*ContentItem, error) {
	return c.action(ctx, id, "retry", nil)
}

// Cancel aborts an in-flight upload.
func (c *Client) Cancel(ctx context.Context, id int64) (*ContentItem, error) {
	return c.action(ctx, id, "cancel", nil)
}

// MarkFailed forces an item into the error state.
func (c *Client) MarkFailed(ctx context.Context, id int64, detail string) (*ContentItem, error) {
	return c.action(ctx, id, "fail", FailRequest{Detail: detail})
}

// RemoveItem deletes a terminal or errored item.
func (c *Client) RemoveItem(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/api/items/"+strconv.FormatInt(id, 10), nil, nil)
}

// Events long-polls the transition event stream.
func (c *Client) Events(ctx context.Context, since uint64, limit int, follow bool) (*EventStreamResponse, error) {
	values := url.Values{}
	values.Set("since", strconv.FormatUint(since, 10))
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	if follow {
		values.Set("follow", "1")
	}
	var out EventStreamResponse
	if err := c.do(ctx, http.MethodGet, "/api/events?"+values.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) action(ctx context.Context, id int64, verb string, body any) (*ContentItem, error) {
	var out ItemResponse
	if err := c.do(ctx, http.MethodPost, c.itemPath(id, verb), body, &out); err != nil {
		return nil, err
	}
	return &out.Item, nil
}

func (c *Client) itemPath(id int64, verb string) string {
	return "/api/items/" + strconv.FormatInt(id, 10) + "/" + verb
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("daemon request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var apiErr ErrorResponse
		message := resp.Status
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil {
			if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
				message = apiErr.Error
			}
		}
		return &StatusError{Code: resp.StatusCode, Message: message}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
