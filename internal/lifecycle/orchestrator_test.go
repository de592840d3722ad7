package lifecycle_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/config"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/events"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/lifecycle"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/logging"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/testsupport"
)

const sampleScript = `=== title ===
Launch Video

=== body ===
Welcome to the channel.
`

type harness struct {
	cfg       *config.Config
	store     *content.Store
	bus       *events.Bus
	publisher *testsupport.FakePublisher
	orch      *lifecycle.Orchestrator
}

func newHarness(t *testing.T, opts ...testsupport.ConfigOption) *harness {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	store := testsupport.MustOpenStore(t, cfg)
	bus := events.NewBus(cfg.Events.BufferSize, cfg.Events.SubscriberQueue)
	publisher := testsupport.NewFakePublisher()
	orch := lifecycle.New(cfg, store, bus, publisher, nil, logging.NewNop())
	t.Cleanup(orch.Close)

	return &harness{cfg: cfg, store: store, bus: bus, publisher: publisher, orch: orch}
}

func (h *harness) waitForState(t *testing.T, itemID int64, want content.State) *content.Item {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		item, err := h.store.GetByID(context.Background(), itemID)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if item.State == want {
			return item
		}
		time.Sleep(5 * time.Millisecond)
	}
	item, _ := h.store.GetByID(context.Background(), itemID)
	t.Fatalf("item %d never reached %s, stuck at %+v", itemID, want, item)
	return nil
}

func (h *harness) readyItem(t *testing.T) *content.Item {
	t.Helper()

	ctx := context.Background()
	item, err := h.orch.Ingest(ctx, sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if item, err = h.orch.FinalizeScript(ctx, item.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if item, err = h.orch.AttachVideo(ctx, item.ID, "/videos/final.mp4"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	return item
}

func TestIngestCreatesDraft(t *testing.T) {
	h := newHarness(t)

	item, err := h.orch.Ingest(context.Background(), sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if item.State != content.StateDraft {
		t.Fatalf("state = %s, want draft", item.State)
	}
	if item.Title != "Launch Video" {
		t.Fatalf("title = %q", item.Title)
	}
	if item.Body != "Welcome to the channel." {
		t.Fatalf("body = %q", item.Body)
	}
}

func TestIngestRejectsInvalidScript(t *testing.T) {
	h := newHarness(t)

	if _, err := h.orch.Ingest(context.Background(), "no delimiters here"); err == nil {
		t.Fatal("expected parse failure")
	}
}

func TestFinalizeRequiresTitleAndBody(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	bodyless, err := h.orch.Ingest(ctx, "=== title ===\nOnly a title\n")
	if err != nil {
		t.Fatalf("ingest title-only script: %v", err)
	}
	if _, err := h.orch.FinalizeScript(ctx, bodyless.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for empty body, got %v", err)
	}

	untitled, err := h.orch.Ingest(ctx, "=== title ===\n\n=== body ===\nSome body.\n")
	if err != nil {
		t.Fatalf("ingest untitled script: %v", err)
	}
	if _, err := h.orch.FinalizeScript(ctx, untitled.ID); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for empty title, got %v", err)
	}

	// Both stay drafts and finalize after a complete replacement.
	for _, id := range []int64{bodyless.ID, untitled.ID} {
		item, err := h.store.GetByID(ctx, id)
		if err != nil {
			t.Fatalf("get item: %v", err)
		}
		if item.State != content.StateDraft {
			t.Fatalf("item %d state = %s, want draft", id, item.State)
		}
		if _, err := h.orch.ReplaceScript(ctx, id, sampleScript); err != nil {
			t.Fatalf("replace: %v", err)
		}
		if _, err := h.orch.FinalizeScript(ctx, id); err != nil {
			t.Fatalf("finalize after replacement: %v", err)
		}
	}
}

func TestReplaceScriptKeepsFinalizedItemComplete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	item, err := h.orch.Ingest(ctx, sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := h.orch.FinalizeScript(ctx, item.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	if _, err := h.orch.ReplaceScript(ctx, item.ID, "=== title ===\nOnly a title\n"); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for body-less replacement, got %v", err)
	}

	kept, err := h.store.GetByID(ctx, item.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if kept.State != content.StateScriptReady || kept.Body == "" {
		t.Fatalf("rejected replacement modified the item: %+v", kept)
	}
}

func TestHappyPathToUploaded(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	started, err := h.orch.StartUpload(context.Background(), item.ID, nil)
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}
	if started.State != content.StateUploading {
		t.Fatalf("state = %s, want uploading", started.State)
	}
	if started.IdempotencyToken == "" {
		t.Fatal("idempotency token not assigned")
	}

	final := h.waitForState(t, item.ID, content.StateUploaded)
	if final.RemoteID == "" {
		t.Fatal("remote id not recorded")
	}
	if final.IdempotencyToken != started.IdempotencyToken {
		t.Fatal("token changed during upload")
	}
}

func TestUploadGuardsState(t *testing.T) {
	h := newHarness(t)

	item, err := h.orch.Ingest(context.Background(), sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for draft, got %v", err)
	}
}

func TestAtMostOneUploadInFlight(t *testing.T) {
	// Slow retries keep the first upload in flight long enough to observe.
	h := newHarness(t, testsupport.WithBackoff(200, 400))
	item := h.readyItem(t)

	h.publisher.FailNext(
		publish.Wrap(publish.ErrTransient, "hold"),
		publish.Wrap(publish.ErrTransient, "hold"),
	)

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	if !h.orch.UploadInFlight(item.ID) {
		t.Fatal("upload not registered in flight")
	}

	_, err := h.orch.StartUpload(context.Background(), item.ID, nil)
	if !errors.Is(err, lifecycle.ErrUploadInProgress) && !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("second upload should be rejected, got %v", err)
	}

	h.waitForState(t, item.ID, content.StateUploaded)
}

func TestConcurrentStartUploadSingleWinner(t *testing.T) {
	h := newHarness(t)

	const rounds = 5
	const callers = 8
	for round := 0; round < rounds; round++ {
		item := h.readyItem(t)

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, callers)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func(slot int) {
				defer wg.Done()
				<-start
				_, errs[slot] = h.orch.StartUpload(context.Background(), item.ID, nil)
			}(i)
		}
		close(start)
		wg.Wait()

		winners := 0
		for _, err := range errs {
			switch {
			case err == nil:
				winners++
			case errors.Is(err, lifecycle.ErrUploadInProgress), errors.Is(err, lifecycle.ErrInvalidTransition):
			default:
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
		}
		if winners != 1 {
			t.Fatalf("round %d: %d winners, want exactly 1", round, winners)
		}

		h.waitForState(t, item.ID, content.StateUploaded)
		if calls := len(h.publisher.Calls()); calls != round+1 {
			t.Fatalf("round %d: publisher saw %d uploads, want %d", round, calls, round+1)
		}
	}
}

func TestTransientFailureRetriesWithSameToken(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	h.publisher.FailNext(
		publish.Wrap(publish.ErrTransient, "503"),
		publish.Wrap(publish.ErrTransient, "rate limited"),
	)

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	h.waitForState(t, item.ID, content.StateUploaded)

	calls := h.publisher.Calls()
	if len(calls) != 3 {
		t.Fatalf("got %d upload calls, want 3", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if calls[i].Token != calls[0].Token {
			t.Fatalf("token changed between attempts: %q vs %q", calls[i].Token, calls[0].Token)
		}
	}
}

func TestPermanentFailureStopsImmediately(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	h.publisher.FailNext(publish.Wrap(publish.ErrPermanent, "metadata rejected"))

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	errored := h.waitForState(t, item.ID, content.StateError)

	if errored.ErrorState != content.StateUploading {
		t.Fatalf("error state = %s, want uploading", errored.ErrorState)
	}
	if len(h.publisher.Calls()) != 1 {
		t.Fatalf("permanent failure should not retry, got %d calls", len(h.publisher.Calls()))
	}
}

func TestExhaustedRetriesLandInError(t *testing.T) {
	h := newHarness(t, testsupport.WithMaxAttempts(2))
	item := h.readyItem(t)

	h.publisher.FailNext(
		publish.Wrap(publish.ErrTransient, "503"),
		publish.Wrap(publish.ErrTransient, "503"),
		publish.Wrap(publish.ErrTransient, "503"),
	)

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	h.waitForState(t, item.ID, content.StateError)

	if got := len(h.publisher.Calls()); got != 2 {
		t.Fatalf("got %d calls, want the configured 2 attempts", got)
	}
}

func TestRetryReentersUploadWithOriginalToken(t *testing.T) {
	h := newHarness(t, testsupport.WithMaxAttempts(1))
	item := h.readyItem(t)

	h.publisher.FailNext(publish.Wrap(publish.ErrTransient, "quota"))
	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	errored := h.waitForState(t, item.ID, content.StateError)
	token := errored.IdempotencyToken
	if token == "" {
		t.Fatal("token missing after failed upload")
	}

	if _, err := h.orch.Retry(context.Background(), item.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	final := h.waitForState(t, item.ID, content.StateUploaded)

	if final.IdempotencyToken != token {
		t.Fatal("retry minted a new token")
	}
	calls := h.publisher.Calls()
	if len(calls) != 2 || calls[1].Token != token {
		t.Fatalf("retry did not reuse token: %+v", calls)
	}
}

func TestRetryRequiresErrorState(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	if _, err := h.orch.Retry(context.Background(), item.ID); !errors.Is(err, lifecycle.ErrNotErrored) {
		t.Fatalf("expected ErrNotErrored, got %v", err)
	}
}

func TestScheduleAfterUpload(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	uploaded := h.waitForState(t, item.ID, content.StateUploaded)

	at := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	scheduled, err := h.orch.Schedule(context.Background(), item.ID, at)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if scheduled.State != content.StateScheduled {
		t.Fatalf("state = %s, want scheduled", scheduled.State)
	}
	if scheduled.ScheduledAt == nil || !scheduled.ScheduledAt.Equal(at) {
		t.Fatalf("scheduled time = %v, want %v", scheduled.ScheduledAt, at)
	}
	if got, ok := h.publisher.ScheduledTime(uploaded.RemoteID); !ok || !got.Equal(at) {
		t.Fatalf("platform schedule = %v (%v)", got, ok)
	}
}

func TestScheduleSameTimeIsNoOp(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	h.waitForState(t, item.ID, content.StateUploaded)

	at := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	first, err := h.orch.Schedule(context.Background(), item.ID, at)
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	second, err := h.orch.Schedule(context.Background(), item.ID, at)
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if second.Version != first.Version {
		t.Fatalf("same-time reschedule bumped version: %d -> %d", first.Version, second.Version)
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	_, err := h.orch.Schedule(context.Background(), item.ID, time.Now().Add(-time.Hour))
	if !errors.Is(err, lifecycle.ErrScheduleInPast) {
		t.Fatalf("expected ErrScheduleInPast, got %v", err)
	}
}

func TestScheduleRequiresUploadedState(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	_, err := h.orch.Schedule(context.Background(), item.ID, time.Now().Add(time.Hour))
	if !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelMarksErrorOnceWorkerStops(t *testing.T) {
	// Slow retries park the worker in backoff so the cancel interrupts it.
	h := newHarness(t, testsupport.WithBackoff(500, 1000))
	item := h.readyItem(t)

	h.publisher.FailNext(publish.Wrap(publish.ErrTransient, "hold"))

	started, err := h.orch.StartUpload(context.Background(), item.ID, nil)
	if err != nil {
		t.Fatalf("start upload: %v", err)
	}

	canceled, err := h.orch.Cancel(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.State != content.StateError {
		t.Fatalf("state = %s, want error", canceled.State)
	}
	if canceled.ErrorState != content.StateUploading {
		t.Fatalf("error state = %s, want uploading", canceled.ErrorState)
	}
	if canceled.ErrorDetail == "" || !strings.Contains(canceled.ErrorDetail, "canceled") {
		t.Fatalf("error detail = %q, want a cancellation reason", canceled.ErrorDetail)
	}
	if canceled.IdempotencyToken != started.IdempotencyToken {
		t.Fatal("cancel dropped the idempotency token")
	}
	if h.orch.UploadInFlight(item.ID) {
		t.Fatal("worker still registered after cancel")
	}

	// Retry resumes the upload with the original token.
	if _, err := h.orch.Retry(context.Background(), item.ID); err != nil {
		t.Fatalf("retry: %v", err)
	}
	final := h.waitForState(t, item.ID, content.StateUploaded)
	if final.IdempotencyToken != started.IdempotencyToken {
		t.Fatal("retry after cancel minted a new token")
	}
}

func TestCancelWithoutWorkerRecordsError(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	// Uploading state without a live worker, as after a daemon restart.
	stuck, err := h.store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = content.StateUploading
		it.IdempotencyToken = "crash-token"
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	canceled, err := h.orch.Cancel(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if canceled.State != content.StateError || canceled.ErrorState != content.StateUploading {
		t.Fatalf("unexpected cancel record: %+v", canceled)
	}
}

func TestMarkFailedRecordsState(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	failed, err := h.orch.MarkFailed(context.Background(), item.ID, "render artifact corrupted")
	if err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if failed.State != content.StateError || failed.ErrorState != content.StateVideoReady {
		t.Fatalf("unexpected failure record: %+v", failed)
	}

	retried, err := h.orch.Retry(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if retried.State != content.StateVideoReady {
		t.Fatalf("retry state = %s, want video_ready", retried.State)
	}
}

func TestTransitionsPublishEvents(t *testing.T) {
	h := newHarness(t)

	item, err := h.orch.Ingest(context.Background(), sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if _, err := h.orch.FinalizeScript(context.Background(), item.ID); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	evts, _, err := h.bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("fetch events: %v", err)
	}
	if len(evts) != 2 {
		t.Fatalf("got %d events, want 2", len(evts))
	}
	if evts[0].Next != content.StateDraft {
		t.Fatalf("first event = %+v", evts[0])
	}
	if evts[1].Prev != content.StateDraft || evts[1].Next != content.StateScriptReady {
		t.Fatalf("second event = %+v", evts[1])
	}
}

func TestReconcileResumesTokenlessUpload(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	// Simulate a daemon crash mid-upload: uploading state, token set, no
	// remote id, no worker.
	stuck, err := h.store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = content.StateUploading
		it.IdempotencyToken = "crash-token"
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	if err := h.orch.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	final := h.waitForState(t, stuck.ID, content.StateUploaded)
	if final.RemoteID == "" {
		t.Fatal("reconcile did not record remote id")
	}

	calls := h.publisher.Calls()
	if len(calls) != 1 || calls[0].Token != "crash-token" {
		t.Fatalf("reconcile did not reuse the stored token: %+v", calls)
	}
}

func TestReconcileSettlesRecordedRemoteID(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	stuck, err := h.store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = content.StateUploading
		it.IdempotencyToken = "crash-token"
		it.RemoteID = "vid-recovered"
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	h.publisher.SetStatus("vid-recovered", publish.RemoteStatusPublished)

	if err := h.orch.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	final := h.waitForState(t, stuck.ID, content.StateUploaded)
	if final.RemoteID != "vid-recovered" {
		t.Fatalf("remote id = %q", final.RemoteID)
	}
	if len(h.publisher.Calls()) != 0 {
		t.Fatal("status reconcile should not re-upload")
	}
}

func TestReconcilePollsPendingRemote(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	stuck, err := h.store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = content.StateUploading
		it.IdempotencyToken = "crash-token"
		it.RemoteID = "vid-processing"
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	h.publisher.SetStatus("vid-processing", publish.RemoteStatusPending)

	if err := h.orch.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	// The item stays uploading while the poller watches the platform.
	if !h.orch.UploadInFlight(stuck.ID) {
		t.Fatal("pending remote did not register a poller")
	}
	current, err := h.store.GetByID(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("get item: %v", err)
	}
	if current.State != content.StateUploading {
		t.Fatalf("state = %s, want uploading while pending", current.State)
	}

	h.publisher.SetStatus("vid-processing", publish.RemoteStatusPublished)
	final := h.waitForState(t, stuck.ID, content.StateUploaded)
	if final.RemoteID != "vid-processing" {
		t.Fatalf("remote id = %q", final.RemoteID)
	}
	if len(h.publisher.Calls()) != 0 {
		t.Fatal("pending reconcile should not re-upload")
	}
}

func TestReconcileMarksRemoteFailure(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	stuck, err := h.store.CompareAndSwap(context.Background(), item.ID, item.Version, func(it *content.Item) error {
		it.State = content.StateUploading
		it.IdempotencyToken = "crash-token"
		it.RemoteID = "vid-dead"
		return nil
	})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	h.publisher.SetStatus("vid-dead", publish.RemoteStatusFailed)

	if err := h.orch.Reconcile(context.Background()); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	errored := h.waitForState(t, stuck.ID, content.StateError)
	if errored.ErrorState != content.StateUploading {
		t.Fatalf("error state = %s", errored.ErrorState)
	}
}

func TestReplaceScriptOnlyBeforeVideo(t *testing.T) {
	h := newHarness(t)

	item, err := h.orch.Ingest(context.Background(), sampleScript)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}

	replacement := "=== title ===\nNew Title\n\n=== body ===\nNew body.\n"
	replaced, err := h.orch.ReplaceScript(context.Background(), item.ID, replacement)
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if replaced.Title != "New Title" || replaced.State != content.StateDraft {
		t.Fatalf("unexpected replacement: %+v", replaced)
	}

	ready := h.readyItem(t)
	if _, err := h.orch.ReplaceScript(context.Background(), ready.ID, replacement); !errors.Is(err, lifecycle.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition after video attach, got %v", err)
	}
}

func TestRemoveRefusesActiveItems(t *testing.T) {
	h := newHarness(t)
	item := h.readyItem(t)

	if err := h.orch.Remove(context.Background(), item.ID); !errors.Is(err, content.ErrNotRemovable) {
		t.Fatalf("expected ErrNotRemovable, got %v", err)
	}

	if _, err := h.orch.StartUpload(context.Background(), item.ID, nil); err != nil {
		t.Fatalf("start upload: %v", err)
	}
	h.waitForState(t, item.ID, content.StateUploaded)
	if err := h.orch.Remove(context.Background(), item.ID); err != nil {
		t.Fatalf("remove uploaded item: %v", err)
	}
}
