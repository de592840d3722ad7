package testsupport

import (
	"context"
	"testing"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
)

// MustOpenStore opens a content.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *content.Store {
	t.Helper()

	store, err := content.Open(cfg.DatabasePath())
	if err != nil {
		t.Fatalf("content.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// NewDraft creates a draft item for tests using the provided store.
func NewDraft(t testing.TB, store *content.Store, title, body string) *content.Item {
	t.Helper()

	item, err := store.Create(context.Background(), title, body, "")
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return item
}

// AdvanceTo walks an item to the requested state through raw store commits,
// bypassing orchestrator guards. Tests use it to set up mid-pipeline items.
func AdvanceTo(t testing.TB, store *content.Store, item *content.Item, state content.State, videoRef string) *content.Item {
	t.Helper()

	updated, err := store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = state
		if videoRef != "" {
			it.VideoRef = videoRef
		}
		if state == content.StateError && it.ErrorState == "" {
			it.ErrorState = content.StateUploading
			it.ErrorDetail = "test failure"
		}
		return nil
	})
	if err != nil {
		t.Fatalf("advance item to %s: %v", state, err)
	}
	return updated
}
