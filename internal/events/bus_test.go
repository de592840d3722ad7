package events

import (
	"context"
	"testing"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
)

func transition(itemID int64, prev, next content.State, version int64) Event {
	return Event{ItemID: itemID, Prev: prev, Next: next, Version: version}
}

func TestPublishAssignsMonotonicSequence(t *testing.T) {
	bus := NewBus(8, 4)
	bus.Publish(transition(1, content.StateDraft, content.StateScriptReady, 2))
	bus.Publish(transition(1, content.StateScriptReady, content.StateVideoReady, 3))

	events, next, err := bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Sequence != 1 || events[1].Sequence != 2 {
		t.Fatalf("sequences = %d, %d", events[0].Sequence, events[1].Sequence)
	}
	if next != 2 {
		t.Fatalf("next = %d, want 2", next)
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("timestamp not stamped")
	}
}

func TestFetchSince(t *testing.T) {
	bus := NewBus(8, 4)
	for i := int64(1); i <= 5; i++ {
		bus.Publish(transition(i, content.StateDraft, content.StateScriptReady, 2))
	}

	events, _, err := bus.Fetch(context.Background(), 3, 10, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Sequence != 4 {
		t.Fatalf("first sequence = %d, want 4", events[0].Sequence)
	}
}

func TestReplayBufferEvictsOldest(t *testing.T) {
	bus := NewBus(3, 4)
	for i := int64(1); i <= 5; i++ {
		bus.Publish(transition(i, content.StateDraft, content.StateScriptReady, 2))
	}

	if first := bus.FirstSequence(); first != 3 {
		t.Fatalf("first sequence = %d, want 3", first)
	}
	events, _, err := bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
}

func TestFetchWaitWakesOnPublish(t *testing.T) {
	bus := NewBus(8, 4)
	done := make(chan []Event, 1)
	go func() {
		events, _, _ := bus.Fetch(context.Background(), 0, 10, true)
		done <- events
	}()

	time.Sleep(20 * time.Millisecond)
	bus.Publish(transition(9, content.StateVideoReady, content.StateUploading, 4))

	select {
	case events := <-done:
		if len(events) != 1 || events[0].ItemID != 9 {
			t.Fatalf("unexpected events: %+v", events)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not wake on publish")
	}
}

func TestFetchWaitHonorsContext(t *testing.T) {
	bus := NewBus(8, 4)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := bus.Fetch(ctx, 0, 10, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestSubscribeDelivers(t *testing.T) {
	bus := NewBus(8, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := bus.Subscribe(ctx)
	bus.Publish(transition(2, content.StateUploading, content.StateUploaded, 5))

	select {
	case evt := <-sub.Events():
		if evt.ItemID != 2 || evt.Next != content.StateUploaded {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(time.Second):
		t.Fatal("event not delivered")
	}
}

func TestSlowSubscriberDropsOldest(t *testing.T) {
	bus := NewBus(32, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub := bus.Subscribe(ctx)
	for i := int64(1); i <= 5; i++ {
		bus.Publish(transition(i, content.StateDraft, content.StateScriptReady, 2))
	}

	if dropped := sub.Dropped(); dropped != 3 {
		t.Fatalf("dropped = %d, want 3", dropped)
	}
	evt := <-sub.Events()
	if evt.ItemID != 4 {
		t.Fatalf("first delivered item = %d, want 4 (oldest were dropped)", evt.ItemID)
	}
}

func TestSubscribeClosesOnCancel(t *testing.T) {
	bus := NewBus(8, 4)
	ctx, cancel := context.WithCancel(context.Background())
	sub := bus.Subscribe(ctx)
	cancel()

	select {
	case _, ok := <-sub.Events():
		if ok {
			t.Fatal("expected closed channel")
		}
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}

	// Publishing after detach must not panic or deliver.
	bus.Publish(transition(1, content.StateDraft, content.StateScriptReady, 2))
}
