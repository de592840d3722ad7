// Package events fans out content item state changes to in-process
// subscribers and long-polling API clients.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/content"
)

// Event records one committed state transition.
type Event struct {
	Sequence  uint64         `json:"seq"`
	ItemID    int64          `json:"item_id"`
	Prev      content.State  `json:"prev"`
	Next      content.State  `json:"next"`
	Version   int64          `json:"version"`
	Detail    string         `json:"detail,omitempty"`
	Timestamp time.Time      `json:"ts"`
}

// Subscription delivers events over a bounded channel. When a subscriber
// falls behind, the oldest undelivered event is dropped and counted rather
// than blocking publishers.
type Subscription struct {
	ch      chan Event
	mu      sync.Mutex
	dropped uint64
	closed  bool
}

// Events returns the delivery channel.
func (s *Subscription) Events() <-chan Event {
	return s.ch
}

// Dropped reports how many events were discarded because the subscriber was slow.
func (s *Subscription) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *Subscription) deliver(evt Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	for {
		select {
		case s.ch <- evt:
			return
		default:
		}
		select {
		case <-s.ch:
			s.dropped++
		default:
		}
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
}

// Bus stores recent transition events in a bounded replay buffer and wakes
// long-poll waiters when new events arrive.
type Bus struct {
	mu        sync.Mutex
	cond      *sync.Cond
	capacity  int
	queueSize int
	buffer    []Event
	nextSeq   uint64
	subs      map[*Subscription]struct{}
}

// NewBus constructs a bus holding up to capacity events for replay, with
// queueSize slots per subscriber channel.
func NewBus(capacity, queueSize int) *Bus {
	if capacity <= 0 {
		capacity = 512
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	b := &Bus{
		capacity:  capacity,
		queueSize: queueSize,
		subs:      make(map[*Subscription]struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish appends a transition event and wakes all waiters.
func (b *Bus) Publish(evt Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	b.nextSeq++
	evt.Sequence = b.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(b.buffer) == b.capacity {
		copy(b.buffer, b.buffer[1:])
		b.buffer = b.buffer[:b.capacity-1]
	}
	b.buffer = append(b.buffer, evt)
	subs := make([]*Subscription, 0, len(b.subs))
	for sub := range b.subs {
		subs = append(subs, sub)
	}
	b.cond.Broadcast()
	b.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(evt)
	}
}

// Subscribe registers a channel-based consumer. Cancel the context to detach.
func (b *Bus) Subscribe(ctx context.Context) *Subscription {
	sub := &Subscription{ch: make(chan Event, b.queueSize)}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	if ctx != nil && ctx.Done() != nil {
		go func() {
			<-ctx.Done()
			b.mu.Lock()
			delete(b.subs, sub)
			b.mu.Unlock()
			sub.close()
		}()
	}
	return sub
}

// Fetch returns buffered events with sequence greater than since. When wait is
// true and nothing is pending, Fetch blocks until an event arrives or the
// context ends.
func (b *Bus) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if b == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > b.capacity {
		limit = b.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		events, next := b.snapshotLocked(since, limit)
		if len(events) > 0 || !wait {
			return events, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		b.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

// Tail returns the most recent limit events without blocking.
func (b *Bus) Tail(limit int) ([]Event, uint64) {
	if b == nil {
		return nil, 0
	}
	if limit <= 0 || limit > b.capacity {
		limit = b.capacity
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return nil, b.nextSeq
	}
	start := len(b.buffer) - limit
	if start < 0 {
		start = 0
	}
	out := make([]Event, len(b.buffer)-start)
	copy(out, b.buffer[start:])
	return out, b.nextSeq
}

// FirstSequence reports the smallest sequence number still buffered.
func (b *Bus) FirstSequence() uint64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buffer) == 0 {
		return b.nextSeq
	}
	return b.buffer[0].Sequence
}

func (b *Bus) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	if len(b.buffer) == 0 {
		return nil, b.nextSeq
	}
	startIdx := -1
	for i, evt := range b.buffer {
		if evt.Sequence > since {
			startIdx = i
			break
		}
	}
	if startIdx < 0 {
		return nil, b.nextSeq
	}
	end := startIdx + limit
	if end > len(b.buffer) {
		end = len(b.buffer)
	}
	out := make([]Event, end-startIdx)
	copy(out, b.buffer[startIdx:end])
	return out, b.nextSeq
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
