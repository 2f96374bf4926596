package eventsource

import (
	"context"
	"errors"
	"sync"
)

// ErrConcurrencyConflict is returned when an append names an expected
// version that does not match the stream head.
var ErrConcurrencyConflict = errors.New("eventsource: expected version does not match stream head")

// EventFilter selects events for ReadAll. Zero-value fields match
// everything.
type EventFilter struct {
	StreamID string
	Types    []string
}

func (f EventFilter) matches(e *Event) bool {
	if f.StreamID != "" && e.StreamID != f.StreamID {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, t := range f.Types {
			if e.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Store persists event streams. Versions are 0-based; an empty stream has
// version -1.
type Store interface {
	// Append adds events to a stream, failing with ErrConcurrencyConflict
	// if expectedVersion is not the current stream head. Returns the new
	// head version.
	Append(ctx context.Context, streamID string, expectedVersion int, events []*Event) (int, error)

	// Read returns a stream's events starting at fromVersion, in order.
	Read(ctx context.Context, streamID string, fromVersion int) ([]*Event, error)

	// ReadAll returns events across streams matching the filter, in global
	// append order.
	ReadAll(ctx context.Context, filter EventFilter) ([]*Event, error)

	// StreamVersion returns the head version of a stream, -1 if it does
	// not exist.
	StreamVersion(ctx context.Context, streamID string) (int, error)

	// DeleteStream removes a stream and its events.
	DeleteStream(ctx context.Context, streamID string) error

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-process Store for tests and ephemeral ledgers.
type MemoryStore struct {
	mu      sync.RWMutex
	streams map[string][]*Event
	global  []*Event
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		streams: make(map[string][]*Event),
	}
}

// Append implements Store.
func (s *MemoryStore) Append(ctx context.Context, streamID string, expectedVersion int, events []*Event) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stream := s.streams[streamID]
	head := len(stream) - 1
	if head != expectedVersion {
		return head, ErrConcurrencyConflict
	}

	for _, e := range events {
		head++
		e.StreamID = streamID
		e.Version = head
		stream = append(stream, e)
		s.global = append(s.global, e)
	}
	s.streams[streamID] = stream
	return head, nil
}

// Read implements Store.
func (s *MemoryStore) Read(ctx context.Context, streamID string, fromVersion int) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stream := s.streams[streamID]
	var result []*Event
	for _, e := range stream {
		if e.Version >= fromVersion {
			result = append(result, e)
		}
	}
	return result, nil
}

// ReadAll implements Store.
func (s *MemoryStore) ReadAll(ctx context.Context, filter EventFilter) ([]*Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*Event
	for _, e := range s.global {
		if filter.matches(e) {
			result = append(result, e)
		}
	}
	return result, nil
}

// StreamVersion implements Store.
func (s *MemoryStore) StreamVersion(ctx context.Context, streamID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.streams[streamID]) - 1, nil
}

// DeleteStream implements Store.
func (s *MemoryStore) DeleteStream(ctx context.Context, streamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.streams, streamID)
	kept := s.global[:0]
	for _, e := range s.global {
		if e.StreamID != streamID {
			kept = append(kept, e)
		}
	}
	s.global = kept
	return nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
