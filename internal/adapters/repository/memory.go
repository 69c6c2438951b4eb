package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/catalog/pkg/metrics"
)

// MemoryStore is an in-process Store. It mirrors the relational schema,
// including the unique name constraint, and is used for local runs and tests.
type MemoryStore[T any] struct {
	mu      sync.RWMutex
	table   Table[T]
	records map[string]T
	order   []string // ids in insertion order
	now     func() time.Time
	newID   func() string
}

// MemoryOption configures a MemoryStore.
type MemoryOption[T any] func(*MemoryStore[T])

// WithClock overrides the creation time source.
func WithClock[T any](now func() time.Time) MemoryOption[T] {
	return func(s *MemoryStore[T]) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides id generation.
func WithIDGenerator[T any](gen func() string) MemoryOption[T] {
	return func(s *MemoryStore[T]) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewMemoryStore creates an empty in-memory store for table.
func NewMemoryStore[T any](table Table[T], opts ...MemoryOption[T]) *MemoryStore[T] {
	s := &MemoryStore[T]{
		table:   table,
		records: make(map[string]T),
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping always succeeds.
func (s *MemoryStore[T]) Ping(context.Context) error { return nil }

// List returns all records in insertion order, projected to list fields.
func (s *MemoryStore[T]) List(context.Context) ([]T, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.table.project(s.records[id]))
	}
	s.observe("list", start, nil)
	return out, nil
}

// FindByName returns records whose name equals name.
func (s *MemoryStore[T]) FindByName(_ context.Context, name string) ([]T, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, 0, 1)
	for _, id := range s.order {
		if rec := s.records[id]; s.table.NameOf(rec) == name {
			out = append(out, rec)
		}
	}
	s.observe("find_by_name", start, nil)
	return out, nil
}

// Create stores record with a fresh id and creation time.
func (s *MemoryStore[T]) Create(_ context.Context, record T) (T, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.table.NameOf(record)
	for _, id := range s.order {
		if s.table.NameOf(s.records[id]) == name {
			var zero T
			err := fmt.Errorf("inserting %s %q: %w", s.table.Kind, name, ErrUniqueViolation)
			s.observe("create", start, err)
			return zero, err
		}
	}

	stored := s.table.Stamp(record, s.newID(), s.now())
	id := s.table.IDOf(stored)
	s.records[id] = stored
	s.order = append(s.order, id)
	s.observe("create", start, nil)
	return stored, nil
}

// Delete removes the record with id and reports how many were removed.
func (s *MemoryStore[T]) Delete(_ context.Context, id string) (int64, error) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		s.observe("delete", start, nil)
		return 0, nil
	}
	delete(s.records, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.observe("delete", start, nil)
	return 1, nil
}

// Len returns the number of stored records.
func (s *MemoryStore[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore[T]) observe(op string, start time.Time, err error) {
	metrics.RecordStoreOperation(s.table.Kind.String(), op, float64(time.Since(start).Microseconds())/1000, err)
}
