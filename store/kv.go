package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/scenesplit/scenesplit/breakdown"
)

// DefaultBucket is the KV bucket name for workflow state.
const DefaultBucket = "SCRIPT_BREAKDOWNS"

// maxCASAttempts bounds optimistic-concurrency retries when another process
// updated the same key between our read and write.
const maxCASAttempts = 3

// KVStore persists workflow state in a JetStream KV bucket. Concurrency
// control is layered: an in-process per-thread mutex serializes local
// callers, and the bucket revision number guards against a second process
// writing the same key.
type KVStore struct {
	bucket jetstream.KeyValue
	logger *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// KVStoreOption configures a KVStore.
type KVStoreOption func(*KVStore)

// WithKVLogger sets a custom logger.
func WithKVLogger(logger *slog.Logger) KVStoreOption {
	return func(s *KVStore) {
		s.logger = logger
	}
}

// NewKVStore creates or opens the state bucket on an established NATS
// connection.
func NewKVStore(ctx context.Context, nc *nats.Conn, bucketName string, opts ...KVStoreOption) (*KVStore, error) {
	if nc == nil {
		return nil, fmt.Errorf("NATS connection required")
	}
	if bucketName == "" {
		bucketName = DefaultBucket
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("get jetstream: %w", err)
	}

	// CreateOrUpdateKeyValue is idempotent and handles race conditions
	bucket, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucketName,
		Description: "Script breakdown workflow state",
		History:     5,
	})
	if err != nil {
		return nil, fmt.Errorf("create state bucket: %w", err)
	}

	s := &KVStore{
		bucket: bucket,
		logger: slog.Default(),
		locks:  make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get loads and decodes the thread state.
func (s *KVStore) Get(ctx context.Context, threadID string) (*breakdown.WorkflowState, error) {
	entry, err := s.bucket.Get(ctx, threadID)
	if err != nil {
		if errors.Is(err, jetstream.ErrKeyNotFound) {
			return nil, breakdown.NewNotFoundError(threadID)
		}
		return nil, fmt.Errorf("get state %s: %w", threadID, err)
	}

	var state breakdown.WorkflowState
	if err := json.Unmarshal(entry.Value(), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state %s: %w", threadID, err)
	}
	return &state, nil
}

// Put creates or replaces the thread state.
func (s *KVStore) Put(ctx context.Context, state *breakdown.WorkflowState) error {
	if state.ThreadID == "" {
		return breakdown.NewValidationError("thread ID is required")
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state %s: %w", state.ThreadID, err)
	}
	if _, err := s.bucket.Put(ctx, state.ThreadID, data); err != nil {
		return fmt.Errorf("put state %s: %w", state.ThreadID, err)
	}
	return nil
}

// WithLock runs fn inside the per-thread mutex and writes back with the
// entry's revision number, retrying the whole cycle when another writer won
// the race.
func (s *KVStore) WithLock(ctx context.Context, threadID string, fn func(*breakdown.WorkflowState) error) error {
	lock := s.threadLock(threadID)
	lock.Lock()
	defer lock.Unlock()

	var lastErr error
	for attempt := 0; attempt < maxCASAttempts; attempt++ {
		entry, err := s.bucket.Get(ctx, threadID)
		if err != nil {
			if errors.Is(err, jetstream.ErrKeyNotFound) {
				return breakdown.NewNotFoundError(threadID)
			}
			return fmt.Errorf("get state %s: %w", threadID, err)
		}

		var state breakdown.WorkflowState
		if err := json.Unmarshal(entry.Value(), &state); err != nil {
			return fmt.Errorf("unmarshal state %s: %w", threadID, err)
		}

		if err := fn(&state); err != nil {
			return err
		}

		data, err := json.Marshal(&state)
		if err != nil {
			return fmt.Errorf("marshal state %s: %w", threadID, err)
		}

		if _, err := s.bucket.Update(ctx, threadID, data, entry.Revision()); err != nil {
			lastErr = err
			s.logger.Warn("State update conflict, retrying",
				"thread_id", threadID,
				"attempt", attempt+1,
				"error", err)
			continue
		}
		return nil
	}
	return fmt.Errorf("update state %s after %d attempts: %w", threadID, maxCASAttempts, lastErr)
}

func (s *KVStore) threadLock(threadID string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	lock, ok := s.locks[threadID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[threadID] = lock
	}
	return lock
}
