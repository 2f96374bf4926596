// Package eventsource provides the append-only journal behind the
// collectible contract: every successful state transition is recorded as an
// event, and a contract can be rebuilt by replaying its stream.
//
// Streams use optimistic concurrency: an append names the version it
// expects the stream to be at, and conflicting writers lose with
// ErrConcurrencyConflict.
package eventsource

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event is a single journal entry. Data holds the JSON-encoded payload.
type Event struct {
	ID        string          `json:"id"`
	StreamID  string          `json:"stream_id"`
	Type      string          `json:"type"`
	Version   int             `json:"version"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewEvent creates an event with a fresh uuid and the payload encoded as
// JSON. Version is assigned by the store on append.
func NewEvent(streamID, eventType string, payload any) (*Event, error) {
	var data json.RawMessage
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("eventsource: encode payload: %w", err)
		}
		data = encoded
	}

	return &Event{
		ID:        uuid.New().String(),
		StreamID:  streamID,
		Type:      eventType,
		Version:   -1,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}, nil
}

// Decode unmarshals the event payload into v.
func (e *Event) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("eventsource: event %s has no payload", e.ID)
	}
	return json.Unmarshal(e.Data, v)
}
