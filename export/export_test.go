package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/pflow-xyz/go-collectible/eventsource"
)

func seedStore(t *testing.T) eventsource.Store {
	t.Helper()
	store := eventsource.NewMemoryStore()
	ctx := context.Background()

	events := []*eventsource.Event{}
	for _, tc := range []struct {
		eventType string
		payload   any
	}{
		{"SaleOpened", map[string]string{"caller": "owner"}},
		{"Minted", map[string]any{"caller": "alice", "quantity": 2}},
		{"Minted", map[string]any{"caller": "bob", "quantity": 1}},
		{"Listed", map[string]any{"seller": "alice", "token_id": 1}},
	} {
		event, err := eventsource.NewEvent("contract-1", tc.eventType, tc.payload)
		if err != nil {
			t.Fatalf("build event: %v", err)
		}
		events = append(events, event)
	}
	if _, err := store.Append(ctx, "contract-1", -1, events); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}

func TestWriteJSONL(t *testing.T) {
	store := seedStore(t)

	var buf bytes.Buffer
	n, err := WriteJSONL(context.Background(), store, eventsource.EventFilter{StreamID: "contract-1"}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 4 {
		t.Errorf("expected 4 events, got %d", n)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], `"SaleOpened"`) {
		t.Errorf("first line should be the sale opening: %s", lines[0])
	}
}

func TestWriteCSV(t *testing.T) {
	store := seedStore(t)

	var buf bytes.Buffer
	n, err := WriteCSV(context.Background(), store, eventsource.EventFilter{Types: []string{"Minted"}}, &buf)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 mint events, got %d", n)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != 3 { // header + 2 rows
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if records[0][0] != "stream_id" {
		t.Errorf("unexpected header: %v", records[0])
	}
	for _, row := range records[1:] {
		if row[2] != "Minted" {
			t.Errorf("type filter leaked event: %v", row)
		}
		if !strings.Contains(row[5], "quantity") {
			t.Errorf("payload column missing data: %v", row)
		}
	}
}

func TestSummarize(t *testing.T) {
	store := seedStore(t)

	s, err := Summarize(context.Background(), store, eventsource.EventFilter{StreamID: "contract-1"})
	if err != nil {
		t.Fatalf("summarize failed: %v", err)
	}
	if s.Events != 4 {
		t.Errorf("expected 4 events, got %d", s.Events)
	}
	if s.ByType["Minted"] != 2 {
		t.Errorf("expected 2 mints, got %d", s.ByType["Minted"])
	}
	if s.FirstEvent.After(s.LastEvent) {
		t.Error("time range inverted")
	}
}
