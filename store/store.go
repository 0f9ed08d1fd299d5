// Package store persists workflow state keyed by thread ID. Two backends
// share one interface: an in-process map for tests and single-binary use, and
// a JetStream KV bucket for durable state that survives restarts.
package store

import (
	"context"

	"github.com/scenesplit/scenesplit/breakdown"
)

// Store is the checkpoint interface the orchestrator works against.
//
// Get and Put move deep copies; callers never share memory with the store.
// WithLock serializes read-modify-write cycles on one thread so concurrent
// resume calls cannot lose updates.
type Store interface {
	// Get returns the state for a thread, or a NotFoundError.
	Get(ctx context.Context, threadID string) (*breakdown.WorkflowState, error)

	// Put creates or replaces the state for state.ThreadID.
	Put(ctx context.Context, state *breakdown.WorkflowState) error

	// WithLock loads the thread state, passes it to fn, and persists the
	// mutated state if fn returns nil. Returns a NotFoundError for unknown
	// threads; fn errors abort the write and propagate unchanged.
	WithLock(ctx context.Context, threadID string, fn func(*breakdown.WorkflowState) error) error
}
