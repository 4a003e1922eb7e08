// Package records provides the in-memory ordered record list backing each
// collection, loaded once at startup and written through to the localstore
// adapter on every mutation.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"curapharm/internal/adapters/storage/localstore"
)

// Domain errors shared by both collections.
var (
	// ErrDuplicate means the conflict predicate matched an existing record.
	ErrDuplicate = errors.New("record conflicts with an existing one")

	// ErrIndexOutOfRange means the positional index does not address a record.
	ErrIndexOutOfRange = errors.New("record index out of range")
)

// KV is the storage adapter the record store persists through.
type KV interface {
	LoadList(ctx context.Context, key string) ([]json.RawMessage, bool, error)
	SaveList(ctx context.Context, key string, v any) error
}

// Store holds one ordered collection of T. Mutations append/replace/remove by
// positional index and persist the whole list under the store's key. The
// logical model is single-writer; the mutex only guards against overlapping
// HTTP requests.
type Store[T any] struct {
	kv        KV
	key       string
	seeds     []T
	conflicts func(candidate, existing T) bool

	mu             sync.Mutex
	records        []T
	corruptWarning string
}

// New creates a Store for the given key. conflicts is the uniqueness
// predicate checked on Add; seeds are used when no usable data is persisted.
func New[T any](kv KV, key string, seeds []T, conflicts func(candidate, existing T) bool) *Store[T] {
	return &Store[T]{kv: kv, key: key, seeds: seeds, conflicts: conflicts}
}

// Initialize loads the collection from storage. Absent or non-list data
// yields the seed records. Corrupt data also yields the seeds and records a
// one-time warning for the UI. Elements that fail to decode keep their zero
// values; no per-record validation happens at load time.
func (s *Store[T]) Initialize(ctx context.Context) error {
	items, found, err := s.kv.LoadList(ctx, s.key)
	if err != nil {
		if !errors.Is(err, localstore.ErrCorruptData) {
			return err
		}
		s.mu.Lock()
		s.corruptWarning = "failed to load saved " + s.key + ", using default data"
		s.records = append([]T(nil), s.seeds...)
		s.mu.Unlock()
		slog.Warn("records_load_corrupt", "key", s.key, "seeded", len(s.seeds))
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !found {
		s.records = append([]T(nil), s.seeds...)
		slog.Info("records_seeded", "key", s.key, "count", len(s.seeds))
		return nil
	}

	s.records = make([]T, len(items))
	for i, raw := range items {
		// Decode errors are deliberately ignored: malformed entries
		// propagate as zero-valued records, matching the stored shape
		// being trusted as-is.
		_ = json.Unmarshal(raw, &s.records[i])
	}
	slog.Info("records_loaded", "key", s.key, "count", len(s.records))
	return nil
}

// Add appends the record unless the conflict predicate matches an existing
// one. The append stays in memory even when persisting fails, so the user
// can retry the save by mutating again.
func (s *Store[T]) Add(ctx context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.records {
		if s.conflicts(rec, existing) {
			return ErrDuplicate
		}
	}
	s.records = append(s.records, rec)
	return s.persist(ctx)
}

// Update unconditionally replaces the record at index. Uniqueness is NOT
// re-checked against other records on update.
func (s *Store[T]) Update(ctx context.Context, index int, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return ErrIndexOutOfRange
	}
	s.records[index] = rec
	return s.persist(ctx)
}

// Remove deletes the record at index, shifting later records left by one.
// Positional references held before the call are invalidated.
func (s *Store[T]) Remove(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.records) {
		return ErrIndexOutOfRange
	}
	s.records = append(s.records[:index], s.records[index+1:]...)
	return s.persist(ctx)
}

// Get returns the record at index.
func (s *Store[T]) Get(index int) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var zero T
	if index < 0 || index >= len(s.records) {
		return zero, ErrIndexOutOfRange
	}
	return s.records[index], nil
}

// All returns a snapshot of the collection in insertion order.
func (s *Store[T]) All() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.records...)
}

// Len returns the current number of records.
func (s *Store[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// CorruptWarning returns the pending load-corruption warning once, clearing
// it so the user sees it a single time.
func (s *Store[T]) CorruptWarning() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.corruptWarning
	s.corruptWarning = ""
	return w
}

// persist writes the current list through the storage adapter.
// PRE: s.mu is held
func (s *Store[T]) persist(ctx context.Context) error {
	if err := s.kv.SaveList(ctx, s.key, s.records); err != nil {
		slog.Error("records_persist_failed", "key", s.key, "error", err)
		return err
	}
	return nil
}
