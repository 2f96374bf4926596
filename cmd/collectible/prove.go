package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/market"
	"github.com/pflow-xyz/go-collectible/proof"
)

func prove(args []string) error {
	fs := flag.NewFlagSet("prove", flag.ExitOnError)
	price := fs.String("price", "10000000000000000000", "Sale price in wei")
	bps := fs.Uint64("bps", 1000, "Royalty rate in basis points")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: collectible prove [options]

Compute the royalty split for a price and generate a Groth16 proof that
the split is conserved and correctly floor-divided. Circuit setup runs
from scratch, so expect a few seconds.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	salePrice, err := uint256.FromDecimal(*price)
	if err != nil {
		return fmt.Errorf("price %q: %w", *price, err)
	}

	m := market.New("marketplace", "owner", *bps)
	settlement := m.QuoteSplit(salePrice)
	fmt.Printf("Price %s wei at %d bps: royalty %s, seller %s\n",
		salePrice.Dec(), *bps, settlement.Royalty.Dec(), settlement.SellerProceeds.Dec())

	fmt.Println("Compiling circuits...")
	prover, err := proof.NewProver()
	if err != nil {
		return err
	}
	constraints, err := prover.Constraints(proof.CircuitSettlement)
	if err != nil {
		return err
	}

	if _, err := prover.Prove(proof.CircuitSettlement, proof.SettlementAssignment(settlement, *bps)); err != nil {
		return err
	}
	fmt.Printf("Settlement proof verified (%d constraints)\n", constraints)
	return nil
}
