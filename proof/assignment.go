package proof

import (
	"math/big"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/market"
)

// SettlementAssignment builds a witness assignment from a settled
// marketplace purchase. The remainder is recomputed here; it is private to
// the proof.
func SettlementAssignment(s *market.Settlement, royaltyBps uint64) *SettlementCircuit {
	scaled := new(big.Int).Mul(s.Price.ToBig(), new(big.Int).SetUint64(royaltyBps))
	remainder := new(big.Int).Mod(scaled, big.NewInt(bpsDenominator))

	return &SettlementCircuit{
		Price:          s.Price.ToBig(),
		RoyaltyBps:     new(big.Int).SetUint64(royaltyBps),
		Royalty:        s.Royalty.ToBig(),
		SellerProceeds: s.SellerProceeds.ToBig(),
		Remainder:      remainder,
	}
}

// MintPaymentAssignment builds a witness assignment for an accepted mint.
func MintPaymentAssignment(unitPrice *uint256.Int, quantity int, payment *uint256.Int) *MintPaymentCircuit {
	return &MintPaymentCircuit{
		UnitPrice: unitPrice.ToBig(),
		Quantity:  quantity,
		Payment:   payment.ToBig(),
	}
}
