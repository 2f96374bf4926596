// Package ledger maintains the authoritative ownership state for a
// fixed-supply collectible token: token id → owner, owner → balance, and
// blanket operator approvals.
//
// Token ids are allocated arena-style from a monotonically increasing
// counter, starting at 1, in issuance order. Tokens are never destroyed.
//
// The ledger is plain data with no internal locking; the collectible
// aggregate serializes all access under a single writer.
package ledger

import (
	"errors"
	"fmt"
)

// Address identifies an account. Accounts are created implicitly on first
// interaction and never destroyed. The zero value never owns tokens.
type Address string

// ZeroAddress is the reserved empty account identity.
const ZeroAddress Address = ""

var (
	ErrUnknownToken  = errors.New("ledger: unknown token id")
	ErrNotOwner      = errors.New("ledger: from address does not own token")
	ErrNotAuthorized = errors.New("ledger: caller is neither owner nor approved operator")
	ErrZeroAddress   = errors.New("ledger: zero address")
	ErrZeroQuantity  = errors.New("ledger: quantity must be positive")
)

// Ledger is the token ownership state machine.
type Ledger struct {
	owners    map[uint64]Address
	balances  map[Address]int
	operators map[Address]map[Address]bool
	lastID    uint64
}

// New creates an empty ledger. No tokens exist until Mint is called.
func New() *Ledger {
	return &Ledger{
		owners:    make(map[uint64]Address),
		balances:  make(map[Address]int),
		operators: make(map[Address]map[Address]bool),
	}
}

// Mint allocates quantity sequential token ids to the given owner and
// returns the inclusive id range [first, last]. The allocation is
// all-or-nothing: a precondition failure leaves the ledger unchanged.
func (l *Ledger) Mint(to Address, quantity int) (first, last uint64, err error) {
	if to == ZeroAddress {
		return 0, 0, ErrZeroAddress
	}
	if quantity < 1 {
		return 0, 0, ErrZeroQuantity
	}

	first = l.lastID + 1
	last = l.lastID + uint64(quantity)
	for id := first; id <= last; id++ {
		l.owners[id] = to
	}
	l.balances[to] += quantity
	l.lastID = last
	return first, last, nil
}

// Transfer moves a token from one account to another. The caller must be
// the from account itself or an operator the from account has approved.
func (l *Ledger) Transfer(caller, from, to Address, tokenID uint64) error {
	owner, ok := l.owners[tokenID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	if owner != from {
		return fmt.Errorf("%w: token %d", ErrNotOwner, tokenID)
	}
	if to == ZeroAddress {
		return ErrZeroAddress
	}
	if caller != from && !l.IsApprovedForAll(from, caller) {
		return fmt.Errorf("%w: %s", ErrNotAuthorized, caller)
	}

	l.owners[tokenID] = to
	l.balances[from]--
	l.balances[to]++
	return nil
}

// SetApprovalForAll grants or revokes a blanket capability for operator to
// move any of owner's tokens.
func (l *Ledger) SetApprovalForAll(owner, operator Address, approved bool) error {
	if owner == ZeroAddress || operator == ZeroAddress {
		return ErrZeroAddress
	}
	grants, ok := l.operators[owner]
	if !ok {
		grants = make(map[Address]bool)
		l.operators[owner] = grants
	}
	grants[operator] = approved
	return nil
}

// IsApprovedForAll reports whether operator may move owner's tokens.
func (l *Ledger) IsApprovedForAll(owner, operator Address) bool {
	return l.operators[owner][operator]
}

// OwnerOf returns the current owner of a token.
func (l *Ledger) OwnerOf(tokenID uint64) (Address, error) {
	owner, ok := l.owners[tokenID]
	if !ok {
		return ZeroAddress, fmt.Errorf("%w: %d", ErrUnknownToken, tokenID)
	}
	return owner, nil
}

// BalanceOf returns the number of tokens owned by an account.
func (l *Ledger) BalanceOf(owner Address) int {
	return l.balances[owner]
}

// TotalMinted returns the number of tokens issued so far.
func (l *Ledger) TotalMinted() uint64 {
	return l.lastID
}

// LastTokenID returns the most recently allocated token id, 0 before any
// mint.
func (l *Ledger) LastTokenID() uint64 {
	return l.lastID
}

// Audit verifies the conservation invariants: every id in [1, totalMinted]
// has exactly one owner, and the sum of balances equals totalMinted.
// A non-nil error indicates ledger corruption.
func (l *Ledger) Audit() error {
	if uint64(len(l.owners)) != l.lastID {
		return fmt.Errorf("ledger: %d owned tokens, %d minted", len(l.owners), l.lastID)
	}
	for id := uint64(1); id <= l.lastID; id++ {
		if owner, ok := l.owners[id]; !ok || owner == ZeroAddress {
			return fmt.Errorf("ledger: token %d has no owner", id)
		}
	}
	sum := 0
	for addr, balance := range l.balances {
		if balance < 0 {
			return fmt.Errorf("ledger: negative balance for %s", addr)
		}
		sum += balance
	}
	if uint64(sum) != l.lastID {
		return fmt.Errorf("ledger: balance sum %d != total minted %d", sum, l.lastID)
	}
	return nil
}
