// Package export renders journal streams into flat files for offline
// analysis. JSONL carries the full event payloads; CSV carries the fixed
// columns spreadsheet tools expect.
package export

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pflow-xyz/go-collectible/eventsource"
)

// WriteJSONL writes every event matching the filter as one JSON object per
// line, in append order.
func WriteJSONL(ctx context.Context, store eventsource.Store, filter eventsource.EventFilter, w io.Writer) (int, error) {
	events, err := store.ReadAll(ctx, filter)
	if err != nil {
		return 0, err
	}

	enc := json.NewEncoder(w)
	for i, event := range events {
		if err := enc.Encode(event); err != nil {
			return i, fmt.Errorf("export: encode event %s: %w", event.ID, err)
		}
	}
	return len(events), nil
}

// csvHeader is the fixed column set of a CSV export. The payload travels
// as a single JSON column rather than being flattened, so every event type
// fits the same schema.
var csvHeader = []string{"stream_id", "version", "type", "timestamp", "event_id", "payload"}

// WriteCSV writes every event matching the filter as CSV rows under a
// header, in append order.
func WriteCSV(ctx context.Context, store eventsource.Store, filter eventsource.EventFilter, w io.Writer) (int, error) {
	events, err := store.ReadAll(ctx, filter)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("export: write header: %w", err)
	}
	for i, event := range events {
		row := []string{
			event.StreamID,
			strconv.Itoa(event.Version),
			event.Type,
			event.Timestamp.Format(time.RFC3339Nano),
			event.ID,
			string(event.Data),
		}
		if err := cw.Write(row); err != nil {
			return i, fmt.Errorf("export: write event %s: %w", event.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return len(events), fmt.Errorf("export: flush: %w", err)
	}
	return len(events), nil
}

// Summary aggregates a stream for a quick operational overview.
type Summary struct {
	Events     int
	ByType     map[string]int
	FirstEvent time.Time
	LastEvent  time.Time
}

// Summarize counts the events matching the filter by type and records the
// covered time range.
func Summarize(ctx context.Context, store eventsource.Store, filter eventsource.EventFilter) (Summary, error) {
	events, err := store.ReadAll(ctx, filter)
	if err != nil {
		return Summary{}, err
	}

	s := Summary{ByType: make(map[string]int)}
	for _, event := range events {
		s.Events++
		s.ByType[event.Type]++
		if s.FirstEvent.IsZero() || event.Timestamp.Before(s.FirstEvent) {
			s.FirstEvent = event.Timestamp
		}
		if event.Timestamp.After(s.LastEvent) {
			s.LastEvent = event.Timestamp
		}
	}
	return s, nil
}
