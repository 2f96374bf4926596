package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pflow-xyz/go-collectible/config"
	"github.com/pflow-xyz/go-collectible/eventsource"
	"github.com/pflow-xyz/go-collectible/export"
)

func exportCmd(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	journalPath := fs.String("journal", "", "SQLite journal file (overrides COLLECTIBLE_JOURNAL)")
	stream := fs.String("stream", demoStream, "Stream id to export")
	format := fs.String("format", "jsonl", "Output format: jsonl or csv")
	types := fs.String("types", "", "Only these event types (comma-separated)")
	output := fs.String("output", "", "Output file (default stdout)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: collectible export [options]

Dump a journal stream as JSONL or CSV for offline analysis.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	_, envJournal, err := config.Load()
	if err != nil {
		return err
	}
	path := *journalPath
	if path == "" {
		path = envJournal
	}
	if path == "" {
		fs.Usage()
		return fmt.Errorf("--journal or COLLECTIBLE_JOURNAL required")
	}

	store, err := eventsource.NewSQLiteStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	out := os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	filter := eventsource.EventFilter{StreamID: *stream}
	if *types != "" {
		filter.Types = strings.Split(*types, ",")
	}

	ctx := context.Background()
	var n int
	switch *format {
	case "jsonl":
		n, err = export.WriteJSONL(ctx, store, filter, out)
	case "csv":
		n, err = export.WriteCSV(ctx, store, filter, out)
	default:
		return fmt.Errorf("unknown format %q (want jsonl or csv)", *format)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Exported %d events\n", n)
	return nil
}
