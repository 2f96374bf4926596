// Package proof generates Groth16 proofs that settlement arithmetic was
// performed correctly, without revealing anything beyond the public
// amounts. The circuits mirror the checks the contract performs natively;
// a proof lets a third party audit a settlement from the public inputs
// alone.
package proof

import (
	"github.com/consensys/gnark/frontend"
)

// bpsDenominator is the basis-point scale used by the royalty split.
const bpsDenominator = 10000

// SettlementCircuit proves a royalty split is conserved and correctly
// floor-divided: royalty = price × bps / 10000 with the remainder
// discarded, and royalty + seller proceeds equal the full price.
type SettlementCircuit struct {
	Price          frontend.Variable `gnark:",public"`
	RoyaltyBps     frontend.Variable `gnark:",public"`
	Royalty        frontend.Variable `gnark:",public"`
	SellerProceeds frontend.Variable `gnark:",public"`

	// Remainder of the floor division, private.
	Remainder frontend.Variable
}

// Define encodes the split constraints.
func (c *SettlementCircuit) Define(api frontend.API) error {
	// price × bps == royalty × 10000 + remainder, remainder < 10000.
	// Together these pin royalty to the floor division exactly.
	scaled := api.Mul(c.Price, c.RoyaltyBps)
	api.AssertIsEqual(scaled, api.Add(api.Mul(c.Royalty, bpsDenominator), c.Remainder))
	api.AssertIsLessOrEqual(c.Remainder, bpsDenominator-1)

	// Conservation: nothing minted, nothing burned.
	api.AssertIsEqual(c.Price, api.Add(c.Royalty, c.SellerProceeds))
	return nil
}

// MintPaymentCircuit proves a mint payment was an exact match for the
// quantity purchased at the published unit price, with the quantity inside
// the per-wallet cap.
type MintPaymentCircuit struct {
	UnitPrice frontend.Variable `gnark:",public"`
	Quantity  frontend.Variable `gnark:",public"`
	Payment   frontend.Variable `gnark:",public"`
}

// Define encodes the exact-payment constraint.
func (c *MintPaymentCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.Payment, api.Mul(c.Quantity, c.UnitPrice))
	api.AssertIsLessOrEqual(1, c.Quantity)
	api.AssertIsLessOrEqual(c.Quantity, 10)
	return nil
}
