package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pflow-xyz/go-collectible/collectible"
	"github.com/pflow-xyz/go-collectible/config"
	"github.com/pflow-xyz/go-collectible/eventsource"
	"github.com/pflow-xyz/go-collectible/ledger"
)

func replay(args []string) error {
	fs := flag.NewFlagSet("replay", flag.ExitOnError)
	journalPath := fs.String("journal", "", "SQLite journal file (overrides COLLECTIBLE_JOURNAL)")
	stream := fs.String("stream", demoStream, "Stream id to rebuild")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: collectible replay [options]

Rebuild a contract from a journal and print its observable state. The
deployment constants come from the COLLECTIBLE_* environment and must
match the ones the journal was written under.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, envJournal, err := config.Load()
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

	ctx := context.Background()
	journal, err := collectible.Rebuild(ctx, store, *stream, cfg)
	if err != nil {
		return err
	}

	contract := journal.Contract()
	fmt.Printf("Rebuilt stream %q at version %d\n", *stream, journal.Version())
	fmt.Printf("Sale open: %v\n", contract.IsSaleOpen())
	fmt.Printf("Tokens minted: %d\n", contract.TotalMinted())
	fmt.Printf("Treasury balance: %s wei\n", contract.TreasuryBalance().Dec())

	owners := make(map[ledger.Address]int)
	for id := uint64(1); id <= contract.TotalMinted(); id++ {
		owner, err := contract.OwnerOf(id)
		if err != nil {
			return err
		}
		owners[owner]++
		fmt.Printf("  token %d: %s", id, owner)
		if listing, ok := contract.Listing(id); ok {
			fmt.Printf(" (listed at %s wei)", listing.Price.Dec())
		}
		fmt.Println()
	}
	for owner, count := range owners {
		if proceeds := contract.Proceeds(owner); !proceeds.IsZero() {
			fmt.Printf("%s holds %d tokens, proceeds %s wei\n", owner, count, proceeds.Dec())
		}
	}

	if err := contract.Audit(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	fmt.Println("Audit clean")
	return nil
}
