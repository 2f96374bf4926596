// Package sale gates primary issuance: a one-way public-sale phase flag,
// per-wallet mint quotas, and exact-payment validation in wei.
//
// Minting rejects overpayment as well as underpayment. The exact-match rule
// is deliberate: the contract never holds change it would owe back.
package sale

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/ledger"
	"github.com/pflow-xyz/go-collectible/treasury"
)

// MaxPerWallet is the hard cap on tokens minted by a single wallet during
// the sale. It is enforced at mint time and never retroactively adjusted.
const MaxPerWallet = 10

// The first three sentinel texts are asserted verbatim by external test
// suites and must not be reworded.
var (
	ErrAlreadyOpen     = errors.New("Sale is already Open!")
	ErrQuotaExceeded   = errors.New("Cannot mint more than 10 NFTs per wallet")
	ErrPaymentMismatch = errors.New("Not enough/too much ether sent")
	ErrSaleClosed      = errors.New("sale: public sale is not open")
	ErrZeroQuantity    = errors.New("sale: quantity must be positive")
)

// Controller tracks the sale phase and per-wallet mint counts, and drives
// issuance into the ledger and treasury.
type Controller struct {
	open       bool
	unitPrice  *uint256.Int
	mintCounts map[ledger.Address]int
}

// NewController creates a closed sale with the given unit price in wei.
func NewController(unitPrice *uint256.Int) *Controller {
	return &Controller{
		unitPrice:  unitPrice.Clone(),
		mintCounts: make(map[ledger.Address]int),
	}
}

// Open transitions the sale from closed to open. The transition happens
// exactly once; reopening fails.
func (c *Controller) Open() error {
	if c.open {
		return ErrAlreadyOpen
	}
	c.open = true
	return nil
}

// IsOpen reports whether public minting is permitted.
func (c *Controller) IsOpen() bool {
	return c.open
}

// UnitPrice returns a copy of the per-token mint price.
func (c *Controller) UnitPrice() *uint256.Int {
	return c.unitPrice.Clone()
}

// MintCount returns the number of tokens the wallet has minted so far.
func (c *Controller) MintCount(wallet ledger.Address) int {
	return c.mintCounts[wallet]
}

// AuditQuotas verifies that no wallet has exceeded the per-wallet cap.
// A non-nil error indicates quota-state corruption.
func (c *Controller) AuditQuotas() error {
	for wallet, count := range c.mintCounts {
		if count > MaxPerWallet {
			return fmt.Errorf("sale: wallet %s minted %d, cap is %d", wallet, count, MaxPerWallet)
		}
	}
	return nil
}

// Mint validates the request and, on success, allocates quantity sequential
// tokens to the caller and credits the payment to the treasury. Returns the
// allocated id range.
//
// Preconditions are checked in a fixed order — phase, quota, payment — and
// the first failure is the reported error. Any failure leaves ledger,
// treasury, and quota state unchanged.
func (c *Controller) Mint(led *ledger.Ledger, bank *treasury.Treasury, caller ledger.Address, quantity int, payment *uint256.Int) (first, last uint64, err error) {
	if quantity < 1 {
		return 0, 0, ErrZeroQuantity
	}
	if !c.open {
		return 0, 0, ErrSaleClosed
	}
	if c.mintCounts[caller]+quantity > MaxPerWallet {
		return 0, 0, ErrQuotaExceeded
	}
	required := new(uint256.Int).Mul(c.unitPrice, uint256.NewInt(uint64(quantity)))
	if !payment.Eq(required) {
		return 0, 0, ErrPaymentMismatch
	}

	first, last, err = led.Mint(caller, quantity)
	if err != nil {
		return 0, 0, err
	}
	c.mintCounts[caller] += quantity
	bank.Credit(payment)
	return first, last, nil
}
