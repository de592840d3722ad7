package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type fakeNetError struct{}

func (fakeNetError) Error() string   { return "connection reset" }
func (fakeNetError) Timeout() bool   { return true }
func (fakeNetError) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"already transient", Wrap(ErrTransient, "rate limited"), ErrTransient},
		{"already permanent", Wrap(ErrPermanent, "bad metadata"), ErrPermanent},
		{"auth passthrough", Wrap(ErrAuthExpired, "token revoked"), ErrAuthExpired},
		{"deadline exceeded", context.DeadlineExceeded, ErrTransient},
		{"network error", fakeNetError{}, ErrTransient},
		{"unknown defaults to permanent", errors.New("boom"), ErrPermanent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.err)
			if !errors.Is(got, tc.want) {
				t.Fatalf("Classify(%v) = %v, want %v", tc.err, got, tc.want)
			}
		})
	}
	if Classify(nil) != nil {
		t.Fatal("Classify(nil) should be nil")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Wrap(ErrTransient, "503")) {
		t.Fatal("transient should be retryable")
	}
	if IsRetryable(Wrap(ErrPermanent, "rejected")) {
		t.Fatal("permanent should not be retryable")
	}
	if IsRetryable(Wrap(ErrAuthExpired, "expired")) {
		t.Fatal("auth expiry should not be auto-retryable")
	}
}

func TestLoadMetadata(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.yaml")
	content := `title: "My upload"
description: |
  Line one.
  Line two.
tags:
  - golang
  - automation
privacy_status: unlisted
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}

	meta, err := LoadMetadata(path)
	if err != nil {
		t.Fatalf("load metadata: %v", err)
	}
	if meta.Title != "My upload" {
		t.Fatalf("title = %q", meta.Title)
	}
	if len(meta.Tags) != 2 || meta.Tags[0] != "golang" {
		t.Fatalf("tags = %v", meta.Tags)
	}
	if meta.PrivacyStatus != "unlisted" {
		t.Fatalf("privacy = %q", meta.PrivacyStatus)
	}
}

func TestLoadMetadataRejectsMissingTitle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.yaml")
	if err := os.WriteFile(path, []byte("description: no title here\n"), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if _, err := LoadMetadata(path); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata, got %v", err)
	}
}

func TestLoadMetadataRejectsBadPrivacy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meta.yaml")
	if err := os.WriteFile(path, []byte("title: ok\nprivacy_status: secret\n"), 0o644); err != nil {
		t.Fatalf("write metadata: %v", err)
	}
	if _, err := LoadMetadata(path); !errors.Is(err, ErrInvalidMetadata) {
		t.Fatalf("expected ErrInvalidMetadata, got %v", err)
	}
}

func TestApplyDefaults(t *testing.T) {
	meta := Metadata{Title: "Set", PrivacyStatus: "public"}
	meta.ApplyDefaults("22", "private", "en", true)

	if meta.PrivacyStatus != "public" {
		t.Fatalf("explicit privacy overwritten: %q", meta.PrivacyStatus)
	}
	if meta.CategoryID != "22" || meta.Language != "en" || !meta.NotifySubscribers {
		t.Fatalf("defaults not applied: %+v", meta)
	}
}
