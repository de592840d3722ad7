package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Sentinel errors classify publish failures so callers can decide whether a
// retry with the same idempotency token makes sense.
var (
	// ErrTransient marks failures worth retrying: network faults, rate
	// limits, platform 5xx responses.
	ErrTransient = errors.New("transient publish failure")
	// ErrPermanent marks failures no retry can fix: invalid metadata,
	// rejected content, missing video file.
	ErrPermanent = errors.New("permanent publish failure")
	// ErrAuthExpired marks failures that need operator credential refresh
	// before any retry can succeed.
	ErrAuthExpired = errors.New("publish credentials expired")
)

// Wrap attaches a classification sentinel to an underlying cause.
func Wrap(kind error, format string, args ...any) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether the failure classification permits an automatic
// retry with the same idempotency token.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

// Classify maps an arbitrary error onto the sentinel taxonomy. Errors that are
// already classified pass through; context cancellation and network faults are
// treated as transient; everything else defaults to permanent.
func Classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTransient), errors.Is(err, ErrPermanent), errors.Is(err, ErrAuthExpired):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return Wrap(ErrTransient, "request deadline exceeded: %v", err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return Wrap(ErrTransient, "network failure: %v", err)
	}
	return Wrap(ErrPermanent, "%v", err)
}
