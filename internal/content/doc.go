// Package content persists content items and their lifecycle state in SQLite.
//
// The store is the single source of truth for lifecycle state. All mutation
// flows through CompareAndSwap, a conditional update on the item version that
// gives the orchestrator a lock-free way to serialize concurrent transitions.
package content
