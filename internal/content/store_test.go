package content

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "First video", "Hello world", `[{"label":"body","text":"Hello world"}]`)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if item.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if item.State != StateDraft {
		t.Fatalf("state = %s, want draft", item.State)
	}
	if item.Version != 1 {
		t.Fatalf("version = %d, want 1", item.Version)
	}
	if item.CreatedAt.IsZero() || item.UpdatedAt.IsZero() {
		t.Fatal("expected timestamps to be set")
	}

	fetched, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if fetched.Title != "First video" || fetched.Body != "Hello world" {
		t.Fatalf("round trip mismatch: %+v", fetched)
	}
}

func TestGetMissingItem(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetByID(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompareAndSwapCommits(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Video", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.State = StateScriptReady
		return nil
	})
	if err != nil {
		t.Fatalf("cas: %v", err)
	}
	if updated.State != StateScriptReady {
		t.Fatalf("state = %s, want script_ready", updated.State)
	}
	if updated.Version != item.Version+1 {
		t.Fatalf("version = %d, want %d", updated.Version, item.Version+1)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != StateScriptReady || stored.Version != updated.Version {
		t.Fatalf("commit not visible: %+v", stored)
	}
}

func TestCompareAndSwapStaleVersion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Video", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.Title = "Renamed"
		return nil
	}); err != nil {
		t.Fatalf("first cas: %v", err)
	}

	_, err = store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.Title = "Stale write"
		return nil
	})
	if !errors.Is(err, ErrVersionConflict) {
		t.Fatalf("expected ErrVersionConflict, got %v", err)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Renamed" {
		t.Fatalf("stale write leaked: %q", stored.Title)
	}
}

func TestCompareAndSwapRejectsInvalidMutation(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Video", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.State = StateUploaded
		return nil
	})
	if err == nil {
		t.Fatal("expected validation failure for uploaded without remote id")
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.State != StateDraft || stored.Version != 1 {
		t.Fatalf("rejected mutation changed stored record: %+v", stored)
	}
}

func TestCompareAndSwapMutatorErrorAborts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Video", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	sentinel := errors.New("guard rejected")
	_, err = store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.Title = "Should not persist"
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected mutator error, got %v", err)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Title != "Video" {
		t.Fatalf("aborted mutation persisted: %q", stored.Title)
	}
}

func TestCompareAndSwapConcurrentWritersOneWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Video", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	const writers = 8
	var wg sync.WaitGroup
	results := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, casErr := store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
				it.State = StateScriptReady
				return nil
			})
			results[idx] = casErr
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, res := range results {
		if res == nil {
			winners++
			continue
		}
		if !errors.Is(res, ErrVersionConflict) {
			t.Fatalf("unexpected cas error: %v", res)
		}
	}
	if winners != 1 {
		t.Fatalf("winners = %d, want exactly 1", winners)
	}

	stored, err := store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Version != item.Version+1 {
		t.Fatalf("version = %d, want %d", stored.Version, item.Version+1)
	}
}

func TestListFiltersByState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, "One", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.Create(ctx, "Two", "Body", ""); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CompareAndSwap(ctx, first.ID, first.Version, func(it *Item) error {
		it.State = StateScriptReady
		return nil
	}); err != nil {
		t.Fatalf("cas: %v", err)
	}

	all, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("list all = %d items, want 2", len(all))
	}

	ready, err := store.List(ctx, StateScriptReady)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(ready) != 1 || ready[0].ID != first.ID {
		t.Fatalf("filtered list mismatch: %+v", ready)
	}
}

func TestStatsAndHealth(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	draft, err := store.Create(ctx, "Draft", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	errored, err := store.Create(ctx, "Errored", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CompareAndSwap(ctx, errored.ID, errored.Version, func(it *Item) error {
		it.SetError("render failed")
		return nil
	}); err != nil {
		t.Fatalf("cas: %v", err)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats[StateDraft] != 1 || stats[StateError] != 1 {
		t.Fatalf("stats mismatch: %v", stats)
	}

	health, err := store.Health(ctx)
	if err != nil {
		t.Fatalf("health: %v", err)
	}
	if health.Total != 2 || health.Drafting != 1 || health.Errored != 1 {
		t.Fatalf("health mismatch: %+v", health)
	}
	_ = draft
}

func TestRemoveGuards(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	active, err := store.Create(ctx, "Active", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Remove(ctx, active.ID); !errors.Is(err, ErrNotRemovable) {
		t.Fatalf("expected ErrNotRemovable for draft, got %v", err)
	}

	done, err := store.Create(ctx, "Done", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := store.CompareAndSwap(ctx, done.ID, done.Version, func(it *Item) error {
		it.State = StateUploaded
		it.VideoRef = "final.mp4"
		it.RemoteID = "yt-abc"
		return nil
	}); err != nil {
		t.Fatalf("cas: %v", err)
	}
	if err := store.Remove(ctx, done.ID); err != nil {
		t.Fatalf("remove uploaded item: %v", err)
	}
	if _, err := store.GetByID(ctx, done.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected removal, got %v", err)
	}

	if err := store.Remove(ctx, 4242); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestScheduledAtRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	item, err := store.Create(ctx, "Scheduled", "Body", "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	at := time.Date(2026, 9, 15, 18, 30, 0, 0, time.UTC)
	updated, err := store.CompareAndSwap(ctx, item.ID, item.Version, func(it *Item) error {
		it.State = StateScheduled
		it.VideoRef = "final.mp4"
		it.RemoteID = "yt-xyz"
		it.ScheduledAt = &at
		return nil
	})
	if err != nil {
		t.Fatalf("cas: %v", err)
	}

	stored, err := store.GetByID(ctx, updated.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.ScheduledAt == nil || !stored.ScheduledAt.Equal(at) {
		t.Fatalf("scheduled time round trip mismatch: %v", stored.ScheduledAt)
	}
}
