// Package market implements the secondary-market settlement engine: owners
// list tokens at a fixed price, buyers pay the exact listed price, and the
// engine atomically transfers the token, routes a royalty percentage to the
// issuing authority, and credits the remainder to the seller.
//
// Operator approval for the marketplace is checked only at purchase time,
// when the transfer actually runs. A listing can therefore exist without a
// valid approval and fail later.
package market

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/ledger"
)

var (
	ErrNoSuchListing   = errors.New("market: no active listing for token")
	ErrNotOwner        = errors.New("market: caller does not own token")
	ErrPaymentMismatch = errors.New("market: payment must exactly match listing price")
	ErrInvalidPrice    = errors.New("market: listing price must be positive")
	ErrInvalidQuantity = errors.New("market: quantity must be 1 for a non-fungible item")
)

// bpsDenominator converts basis points to a fraction.
const bpsDenominator = 10000

// Listing is an active sale offer for a single token.
type Listing struct {
	TokenID  uint64
	Seller   ledger.Address
	Price    *uint256.Int
	Quantity int // always 1; carried for interface parity with fungible markets
}

// Settlement describes the outcome of a completed purchase.
type Settlement struct {
	TokenID        uint64
	Seller         ledger.Address
	Buyer          ledger.Address
	Price          *uint256.Int
	Royalty        *uint256.Int
	SellerProceeds *uint256.Int
}

// Market holds the active listings and the withdrawable proceeds credited
// by settlements.
type Market struct {
	operator    ledger.Address // identity the marketplace transfers under
	beneficiary ledger.Address // royalty recipient, the issuing authority
	royaltyBps  uint64
	listings    map[uint64]Listing
	proceeds    map[ledger.Address]*uint256.Int
}

// New creates an empty market. Sellers must grant operator approval to the
// market's operator address before their listings can settle.
func New(operator, beneficiary ledger.Address, royaltyBps uint64) *Market {
	return &Market{
		operator:    operator,
		beneficiary: beneficiary,
		royaltyBps:  royaltyBps,
		listings:    make(map[uint64]Listing),
		proceeds:    make(map[ledger.Address]*uint256.Int),
	}
}

// Operator returns the address the marketplace transfers tokens under.
func (m *Market) Operator() ledger.Address {
	return m.operator
}

// List creates or overwrites the listing for a token. The caller must own
// the token; operator approval is not required yet.
func (m *Market) List(led *ledger.Ledger, caller ledger.Address, tokenID uint64, price *uint256.Int) error {
	owner, err := led.OwnerOf(tokenID)
	if err != nil {
		return err
	}
	if owner != caller {
		return fmt.Errorf("%w: token %d", ErrNotOwner, tokenID)
	}
	if price == nil || price.IsZero() {
		return ErrInvalidPrice
	}

	m.listings[tokenID] = Listing{
		TokenID:  tokenID,
		Seller:   caller,
		Price:    price.Clone(),
		Quantity: 1,
	}
	return nil
}

// Listing returns a copy of the active listing for a token, if any.
func (m *Market) Listing(tokenID uint64) (Listing, bool) {
	l, ok := m.listings[tokenID]
	if !ok {
		return Listing{}, false
	}
	l.Price = l.Price.Clone()
	return l, true
}

// Buy settles a purchase with an exact-match payment. On success the token
// moves from seller to buyer through the ledger's operator transfer path,
// the royalty share is credited to the beneficiary, the remainder to the
// seller, and the listing is consumed. Any failure leaves every piece of
// state unchanged.
func (m *Market) Buy(led *ledger.Ledger, buyer ledger.Address, tokenID uint64, quantity int, extraData []byte, payment *uint256.Int) (*Settlement, error) {
	_ = extraData // opaque to the settlement engine

	listing, ok := m.listings[tokenID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrNoSuchListing, tokenID)
	}
	if quantity != 1 {
		return nil, ErrInvalidQuantity
	}
	if !payment.Eq(listing.Price) {
		return nil, fmt.Errorf("%w: want %s, got %s", ErrPaymentMismatch, listing.Price.Dec(), payment.Dec())
	}

	royalty, sellerShare := m.split(listing.Price)

	// The transfer is the only step that can fail; it runs before any
	// bookkeeping so a missing approval or a stale listing aborts cleanly.
	if err := led.Transfer(m.operator, listing.Seller, buyer, tokenID); err != nil {
		return nil, err
	}

	m.credit(listing.Seller, sellerShare)
	m.credit(m.beneficiary, royalty)
	delete(m.listings, tokenID)

	return &Settlement{
		TokenID:        tokenID,
		Seller:         listing.Seller,
		Buyer:          buyer,
		Price:          listing.Price.Clone(),
		Royalty:        royalty,
		SellerProceeds: sellerShare,
	}, nil
}

// QuoteSplit computes the settlement shares for a hypothetical sale at the
// given price without touching any state. Only the amounts are populated.
func (m *Market) QuoteSplit(price *uint256.Int) *Settlement {
	royalty, sellerShare := m.split(price)
	return &Settlement{
		Price:          price.Clone(),
		Royalty:        royalty,
		SellerProceeds: sellerShare,
	}
}

// Proceeds returns a copy of an account's withdrawable settlement balance.
func (m *Market) Proceeds(addr ledger.Address) *uint256.Int {
	p, ok := m.proceeds[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	return p.Clone()
}

// split divides a price into royalty and seller shares. The two always sum
// to the full price; the royalty takes the rounding remainder's complement.
func (m *Market) split(price *uint256.Int) (royalty, sellerShare *uint256.Int) {
	royalty = new(uint256.Int).Mul(price, uint256.NewInt(m.royaltyBps))
	royalty.Div(royalty, uint256.NewInt(bpsDenominator))
	sellerShare = new(uint256.Int).Sub(price, royalty)
	return royalty, sellerShare
}

func (m *Market) credit(addr ledger.Address, amount *uint256.Int) {
	p, ok := m.proceeds[addr]
	if !ok {
		p = uint256.NewInt(0)
		m.proceeds[addr] = p
	}
	p.Add(p, amount)
}
