package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/collectible"
	"github.com/pflow-xyz/go-collectible/config"
	"github.com/pflow-xyz/go-collectible/eventsource"
	"github.com/pflow-xyz/go-collectible/ledger"
	"github.com/pflow-xyz/go-collectible/treasury"
)

const demoStream = "demo"

func demo(args []string) error {
	fs := flag.NewFlagSet("demo", flag.ExitOnError)
	journalPath := fs.String("journal", "", "SQLite journal file (overrides COLLECTIBLE_JOURNAL; empty = in-memory)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: collectible demo [options]

Deploy a contract and drive it through a full lifecycle: open the sale,
mint, trade on the marketplace, and withdraw the treasury. Every mutation
is journaled; pass --journal to keep the stream for 'collectible replay'.

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

	store, err := openStore(path)
	if err != nil {
		return err
	}
	defer store.Close()

	sink := treasury.NewAccountSink()
	cfg.Receiver = sink
	contract, err := collectible.New(cfg)
	if err != nil {
		return err
	}

	ctx := context.Background()
	journal, err := collectible.NewJournal(ctx, contract, store, demoStream)
	if err != nil {
		return err
	}
	if journal.Version() != -1 {
		return fmt.Errorf("stream %q already has %d events; replay it instead", demoStream, journal.Version()+1)
	}

	authority := cfg.Authority
	alice := ledger.Address("alice")
	bob := ledger.Address("bob")
	unit := cfg.UnitPrice

	fmt.Printf("Deployed: authority=%s unit price=%s wei royalty=%d bps\n",
		authority, unit.Dec(), cfg.RoyaltyBps)

	if err := journal.OpenPublicSale(ctx, authority); err != nil {
		return err
	}
	fmt.Println("Sale opened")

	payment := new(uint256.Int).Mul(unit, uint256.NewInt(3))
	first, last, err := journal.MintNFTs(ctx, alice, 3, payment)
	if err != nil {
		return err
	}
	fmt.Printf("alice minted tokens %d-%d for %s wei\n", first, last, payment.Dec())

	if err := journal.SetApprovalForAll(ctx, alice, contract.MarketOperator(), true); err != nil {
		return err
	}
	askPrice := new(uint256.Int).Mul(unit, uint256.NewInt(100))
	if err := journal.ListNft(ctx, alice, first, askPrice); err != nil {
		return err
	}
	fmt.Printf("alice listed token %d at %s wei\n", first, askPrice.Dec())

	settlement, err := journal.BuyExactMatchNative(ctx, bob, first, 1, nil, askPrice)
	if err != nil {
		return err
	}
	fmt.Printf("bob bought token %d: royalty %s wei, seller %s wei\n",
		first, settlement.Royalty.Dec(), settlement.SellerProceeds.Dec())

	amount, err := journal.Withdraw(ctx, authority)
	if err != nil {
		return err
	}
	fmt.Printf("Treasury swept: %s wei delivered to %s (external balance %s)\n",
		amount.Dec(), authority, sink.Balance(authority).Dec())

	if err := contract.Audit(); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	fmt.Printf("Audit clean; journal head at version %d\n", journal.Version())
	return nil
}

func openStore(path string) (eventsource.Store, error) {
	if path == "" {
		return eventsource.NewMemoryStore(), nil
	}
	return eventsource.NewSQLiteStore(path)
}
