package proof

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/market"
)

func newTestProver(t *testing.T) *Prover {
	t.Helper()
	p, err := NewProver()
	if err != nil {
		t.Fatalf("prover setup failed: %v", err)
	}
	return p
}

func TestSettlementProof(t *testing.T) {
	p := newTestProver(t)

	// 10 ether at 10%: royalty 1 ether, seller 9 ether.
	s := &market.Settlement{
		Price:          uint256.MustFromDecimal("10000000000000000000"),
		Royalty:        uint256.MustFromDecimal("1000000000000000000"),
		SellerProceeds: uint256.MustFromDecimal("9000000000000000000"),
	}
	if _, err := p.Prove(CircuitSettlement, SettlementAssignment(s, 1000)); err != nil {
		t.Fatalf("prove failed: %v", err)
	}

	n, err := p.Constraints(CircuitSettlement)
	if err != nil {
		t.Fatalf("constraints: %v", err)
	}
	t.Logf("settlement circuit: %d constraints", n)
}

func TestSettlementProofWithRemainder(t *testing.T) {
	p := newTestProver(t)

	// 33 wei at 10% floor-divides to royalty 3, seller 30.
	s := &market.Settlement{
		Price:          uint256.NewInt(33),
		Royalty:        uint256.NewInt(3),
		SellerProceeds: uint256.NewInt(30),
	}
	if _, err := p.Prove(CircuitSettlement, SettlementAssignment(s, 1000)); err != nil {
		t.Fatalf("prove failed: %v", err)
	}
}

func TestSettlementProofRejectsSkimming(t *testing.T) {
	p := newTestProver(t)

	// Royalty inflated by 1 wei at the seller's expense: conserved, but no
	// longer the floor division, so the witness cannot be solved.
	s := &market.Settlement{
		Price:          uint256.NewInt(1000),
		Royalty:        uint256.NewInt(101),
		SellerProceeds: uint256.NewInt(899),
	}
	if _, err := p.Prove(CircuitSettlement, SettlementAssignment(s, 1000)); err == nil {
		t.Error("expected proof to fail for a non-floor split")
	}
}

func TestSettlementProofRejectsInflation(t *testing.T) {
	p := newTestProver(t)

	// Royalty + proceeds exceed the price.
	s := &market.Settlement{
		Price:          uint256.NewInt(1000),
		Royalty:        uint256.NewInt(100),
		SellerProceeds: uint256.NewInt(950),
	}
	if _, err := p.Prove(CircuitSettlement, SettlementAssignment(s, 1000)); err == nil {
		t.Error("expected proof to fail when the split exceeds the price")
	}
}

func TestMintPaymentProof(t *testing.T) {
	p := newTestProver(t)

	unit := uint256.MustFromDecimal("100000000000000000")
	payment := new(uint256.Int).Mul(unit, uint256.NewInt(3))
	if _, err := p.Prove(CircuitMintPayment, MintPaymentAssignment(unit, 3, payment)); err != nil {
		t.Fatalf("prove failed: %v", err)
	}
}

func TestMintPaymentProofRejectsMismatch(t *testing.T) {
	p := newTestProver(t)
	unit := uint256.MustFromDecimal("100000000000000000")

	t.Run("WrongAmount", func(t *testing.T) {
		payment := new(uint256.Int).Mul(unit, uint256.NewInt(2))
		if _, err := p.Prove(CircuitMintPayment, MintPaymentAssignment(unit, 3, payment)); err == nil {
			t.Error("expected proof to fail for a payment mismatch")
		}
	})

	t.Run("QuantityOverCap", func(t *testing.T) {
		payment := new(uint256.Int).Mul(unit, uint256.NewInt(11))
		if _, err := p.Prove(CircuitMintPayment, MintPaymentAssignment(unit, 11, payment)); err == nil {
			t.Error("expected proof to fail above the per-wallet cap")
		}
	})
}
