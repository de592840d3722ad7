package testsupport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Ragtimelab/youtube-upload-automation-sub001/internal/publish"
)

// UploadCall records one Upload invocation against the fake publisher.
type UploadCall struct {
	VideoRef string
	Meta     publish.Metadata
	Token    string
}

// FakePublisher is a scripted publish.Client. Queue errors with FailNext to
// simulate transient or permanent failures; successful uploads return
// deterministic remote ids and remember their tokens so retried tokens
// resolve to the original id.
type FakePublisher struct {
	mu            sync.Mutex
	uploadErrs    []error
	scheduleErrs  []error
	statuses      map[string]publish.RemoteStatus
	tokenToRemote map[string]string
	calls         []UploadCall
	scheduled     map[string]time.Time
	nextID        int
}

// NewFakePublisher builds an empty scripted publisher.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{
		statuses:      make(map[string]publish.RemoteStatus),
		tokenToRemote: make(map[string]string),
		scheduled:     make(map[string]time.Time),
	}
}

// FailNext queues errors returned by subsequent Upload calls, in order.
func (f *FakePublisher) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploadErrs = append(f.uploadErrs, errs...)
}

// FailNextSchedule queues errors returned by subsequent Schedule calls.
func (f *FakePublisher) FailNextSchedule(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scheduleErrs = append(f.scheduleErrs, errs...)
}

// SetStatus scripts the remote status reported for a remote id.
func (f *FakePublisher) SetStatus(remoteID string, status publish.RemoteStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses[remoteID] = status
}

// Calls returns a copy of all recorded Upload invocations.
func (f *FakePublisher) Calls() []UploadCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]UploadCall, len(f.calls))
	copy(out, f.calls)
	return out
}

// ScheduledTime reports the publish time recorded for a remote id.
func (f *FakePublisher) ScheduledTime(remoteID string) (time.Time, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	at, ok := f.scheduled[remoteID]
	return at, ok
}

// Upload implements publish.Client.
func (f *FakePublisher) Upload(ctx context.Context, videoRef string, meta publish.Metadata, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, UploadCall{VideoRef: videoRef, Meta: meta, Token: token})

	if len(f.uploadErrs) > 0 {
		err := f.uploadErrs[0]
		f.uploadErrs = f.uploadErrs[1:]
		if err != nil {
			return "", err
		}
	}

	if existing, ok := f.tokenToRemote[token]; ok && token != "" {
		return existing, nil
	}

	f.nextID++
	remoteID := fmt.Sprintf("vid-%03d", f.nextID)
	if token != "" {
		f.tokenToRemote[token] = remoteID
	}
	f.statuses[remoteID] = publish.RemoteStatusPublished
	return remoteID, nil
}

// Schedule implements publish.Client.
func (f *FakePublisher) Schedule(ctx context.Context, remoteID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.scheduleErrs) > 0 {
		err := f.scheduleErrs[0]
		f.scheduleErrs = f.scheduleErrs[1:]
		if err != nil {
			return err
		}
	}
	f.scheduled[remoteID] = at
	return nil
}

// Status implements publish.Client.
func (f *FakePublisher) Status(ctx context.Context, remoteID string) (publish.RemoteStatus, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if status, ok := f.statuses[remoteID]; ok {
		return status, nil
	}
	return "", publish.Wrap(publish.ErrPermanent, "unknown remote id %s", remoteID)
}
