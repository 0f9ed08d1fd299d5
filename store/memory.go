package store

import (
	"context"
	"sync"

	"github.com/scenesplit/scenesplit/breakdown"
)

// MemoryStore is an in-process Store. State is deep copied on every boundary
// crossing so callers cannot mutate stored state behind the store's back.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]*breakdown.WorkflowState

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		states: make(map[string]*breakdown.WorkflowState),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Get returns a deep copy of the thread state.
func (s *MemoryStore) Get(_ context.Context, threadID string) (*breakdown.WorkflowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.states[threadID]
	if !ok {
		return nil, breakdown.NewNotFoundError(threadID)
	}
	return state.DeepCopy(), nil
}

// Put stores a deep copy of state under state.ThreadID.
func (s *MemoryStore) Put(_ context.Context, state *breakdown.WorkflowState) error {
	if state.ThreadID == "" {
		return breakdown.NewValidationError("thread ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.states[state.ThreadID] = state.DeepCopy()
	return nil
}

// WithLock runs fn under the thread's mutex and persists the result.
func (s *MemoryStore) WithLock(ctx context.Context, threadID string, fn func(*breakdown.WorkflowState) error) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.Get(ctx, threadID)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}
	return s.Put(ctx, state)
}

// threadLock returns the per-thread mutex, creating it on first use.
func (s *MemoryStore) threadLock(threadID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	return lock
}
