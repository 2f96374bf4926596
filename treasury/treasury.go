// Package treasury holds the funds collected from primary sales. The
// balance is credited by every successful mint and may only be swept, in
// full, by the single designated authority.
package treasury

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/ledger"
)

// ErrNotAuthorized carries the exact revert text asserted by external test
// suites.
var ErrNotAuthorized = errors.New("Ownable: caller is not the owner")

// FundReceiver delivers swept funds to an external account. An
// implementation may reject the transfer by returning an error, in which
// case the withdrawal as a whole is rolled back.
type FundReceiver interface {
	Receive(to ledger.Address, amount *uint256.Int) error
}

// Treasury is the custodial fund accumulator. Amounts are wei.
type Treasury struct {
	authority ledger.Address
	balance   *uint256.Int
}

// New creates an empty treasury owned by the given authority.
func New(authority ledger.Address) *Treasury {
	return &Treasury{
		authority: authority,
		balance:   uint256.NewInt(0),
	}
}

// Authority returns the single account allowed to withdraw.
func (t *Treasury) Authority() ledger.Address {
	return t.authority
}

// Credit adds a mint payment to the balance.
func (t *Treasury) Credit(amount *uint256.Int) {
	t.balance.Add(t.balance, amount)
}

// Balance returns a copy of the current balance.
func (t *Treasury) Balance() *uint256.Int {
	return t.balance.Clone()
}

// AccountSink is a FundReceiver that accumulates delivered funds per
// address, standing in for the external accounts of a chain.
type AccountSink struct {
	balances map[ledger.Address]*uint256.Int
}

// NewAccountSink creates an empty sink.
func NewAccountSink() *AccountSink {
	return &AccountSink{balances: make(map[ledger.Address]*uint256.Int)}
}

// Receive implements FundReceiver.
func (s *AccountSink) Receive(to ledger.Address, amount *uint256.Int) error {
	current, ok := s.balances[to]
	if !ok {
		current = uint256.NewInt(0)
		s.balances[to] = current
	}
	current.Add(current, amount)
	return nil
}

// Balance returns a copy of the funds delivered to an address so far.
func (s *AccountSink) Balance(addr ledger.Address) *uint256.Int {
	current, ok := s.balances[addr]
	if !ok {
		return uint256.NewInt(0)
	}
	return current.Clone()
}

// Withdraw sweeps the full balance to the authority's external account via
// the receiver. The internal zeroing and the external delivery form a
// single transaction: if the receiver rejects the funds, the balance is
// left untouched. Returns the amount delivered.
func (t *Treasury) Withdraw(caller ledger.Address, receiver FundReceiver) (*uint256.Int, error) {
	if caller != t.authority {
		return nil, ErrNotAuthorized
	}

	amount := t.balance.Clone()
	if err := receiver.Receive(t.authority, amount); err != nil {
		return nil, fmt.Errorf("treasury: withdrawal rejected: %w", err)
	}
	t.balance.Clear()
	return amount, nil
}
