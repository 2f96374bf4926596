package eventsource_test

import (
	"context"
	"errors"
	"testing"

	"github.com/pflow-xyz/go-collectible/eventsource"
)

func TestMemoryStore(t *testing.T) {
	runStoreTests(t, func() eventsource.Store {
		return eventsource.NewMemoryStore()
	})
}

func TestSQLiteStore(t *testing.T) {
	runStoreTests(t, func() eventsource.Store {
		store, err := eventsource.NewSQLiteStore(":memory:")
		if err != nil {
			t.Fatalf("failed to create sqlite store: %v", err)
		}
		return store
	})
}

func runStoreTests(t *testing.T, newStore func() eventsource.Store) {
	t.Run("AppendAndRead", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		opened, _ := eventsource.NewEvent("contract-1", "SaleOpened", nil)
		minted, _ := eventsource.NewEvent("contract-1", "Minted", map[string]any{
			"caller": "alice", "quantity": 2,
		})

		version, err := store.Append(ctx, "contract-1", -1, []*eventsource.Event{opened})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}

		version, err = store.Append(ctx, "contract-1", 0, []*eventsource.Event{minted})
		if err != nil {
			t.Fatalf("append failed: %v", err)
		}
		if version != 1 {
			t.Errorf("expected version 1, got %d", version)
		}

		events, err := store.Read(ctx, "contract-1", 0)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Type != "SaleOpened" || events[1].Type != "Minted" {
			t.Errorf("unexpected event order: %s, %s", events[0].Type, events[1].Type)
		}

		var payload struct {
			Caller   string `json:"caller"`
			Quantity int    `json:"quantity"`
		}
		if err := events[1].Decode(&payload); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if payload.Caller != "alice" || payload.Quantity != 2 {
			t.Errorf("unexpected payload: %+v", payload)
		}
	})

	t.Run("ConcurrencyConflict", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		first, _ := eventsource.NewEvent("contract-1", "SaleOpened", nil)
		second, _ := eventsource.NewEvent("contract-1", "Minted", nil)

		if _, err := store.Append(ctx, "contract-1", -1, []*eventsource.Event{first}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		// Wrong expected version loses.
		if _, err := store.Append(ctx, "contract-1", 5, []*eventsource.Event{second}); !errors.Is(err, eventsource.ErrConcurrencyConflict) {
			t.Errorf("expected concurrency conflict, got: %v", err)
		}

		// The correct version wins.
		if _, err := store.Append(ctx, "contract-1", 0, []*eventsource.Event{second}); err != nil {
			t.Errorf("append with correct version failed: %v", err)
		}
	})

	t.Run("StreamVersion", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		version, err := store.StreamVersion(ctx, "contract-1")
		if err != nil {
			t.Fatalf("stream version failed: %v", err)
		}
		if version != -1 {
			t.Errorf("expected version -1 for missing stream, got %d", version)
		}

		event, _ := eventsource.NewEvent("contract-1", "SaleOpened", nil)
		if _, err := store.Append(ctx, "contract-1", -1, []*eventsource.Event{event}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		version, err = store.StreamVersion(ctx, "contract-1")
		if err != nil {
			t.Fatalf("stream version failed: %v", err)
		}
		if version != 0 {
			t.Errorf("expected version 0, got %d", version)
		}
	})

	t.Run("ReadFromVersion", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			event, _ := eventsource.NewEvent("contract-1", "Minted", map[string]int{"n": i})
			if _, err := store.Append(ctx, "contract-1", i-1, []*eventsource.Event{event}); err != nil {
				t.Fatalf("append failed: %v", err)
			}
		}

		events, err := store.Read(ctx, "contract-1", 1)
		if err != nil {
			t.Fatalf("read failed: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected 2 events, got %d", len(events))
		}
		if events[0].Version != 1 {
			t.Errorf("expected first event version 1, got %d", events[0].Version)
		}
	})

	t.Run("ReadAllWithFilter", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		minted, _ := eventsource.NewEvent("contract-1", "Minted", nil)
		listed, _ := eventsource.NewEvent("contract-1", "Listed", nil)
		other, _ := eventsource.NewEvent("contract-2", "Minted", nil)

		store.Append(ctx, "contract-1", -1, []*eventsource.Event{minted, listed})
		store.Append(ctx, "contract-2", -1, []*eventsource.Event{other})

		events, err := store.ReadAll(ctx, eventsource.EventFilter{Types: []string{"Minted"}})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 Minted events, got %d", len(events))
		}

		events, err = store.ReadAll(ctx, eventsource.EventFilter{StreamID: "contract-1"})
		if err != nil {
			t.Fatalf("read all failed: %v", err)
		}
		if len(events) != 2 {
			t.Errorf("expected 2 events in contract-1, got %d", len(events))
		}
	})

	t.Run("DeleteStream", func(t *testing.T) {
		store := newStore()
		defer store.Close()
		ctx := context.Background()

		event, _ := eventsource.NewEvent("contract-1", "SaleOpened", nil)
		if _, err := store.Append(ctx, "contract-1", -1, []*eventsource.Event{event}); err != nil {
			t.Fatalf("append failed: %v", err)
		}

		if err := store.DeleteStream(ctx, "contract-1"); err != nil {
			t.Fatalf("delete stream failed: %v", err)
		}

		version, _ := store.StreamVersion(ctx, "contract-1")
		if version != -1 {
			t.Errorf("expected version -1 after delete, got %d", version)
		}
	})
}
