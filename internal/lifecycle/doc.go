// Package lifecycle drives content items from ingested script to published
// video. All state changes go through optimistic compare-and-swap commits so
// concurrent operators and the upload worker cannot corrupt an item, and
// every committed transition is fanned out on the event bus.
package lifecycle
