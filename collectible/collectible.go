// Package collectible wires the ledger, sale controller, treasury, and
// marketplace into a single contract-shaped state machine behind the
// external entry points.
//
// Every operation executes as one atomic unit under a single mutex: no
// caller ever observes a partially applied transition, and a failed
// precondition leaves all state exactly as it was.
package collectible

import (
	"errors"
	"strconv"
	"sync"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/ledger"
	"github.com/pflow-xyz/go-collectible/market"
	"github.com/pflow-xyz/go-collectible/sale"
	"github.com/pflow-xyz/go-collectible/treasury"
)

var (
	ErrMissingAuthority = errors.New("collectible: config is missing an authority")
	ErrMissingUnitPrice = errors.New("collectible: config is missing a unit price")
)

// DefaultMarketOperator is the identity the built-in marketplace transfers
// tokens under when the config does not name one.
const DefaultMarketOperator ledger.Address = "marketplace"

// Config fixes the constants of a deployment. The base URI is opaque to
// the core and only surfaces through TokenURI.
type Config struct {
	BaseURI        string
	UnitPrice      *uint256.Int // wei per token
	RoyaltyBps     uint64       // secondary-sale royalty in basis points
	Authority      ledger.Address
	MarketOperator ledger.Address
	Receiver       treasury.FundReceiver // destination of treasury sweeps
}

// Contract is the deployed collectible: a sequential state-transition
// system over ledger, sale, treasury, and market state.
type Contract struct {
	mu  sync.Mutex
	cfg Config

	ledger   *ledger.Ledger
	sale     *sale.Controller
	treasury *treasury.Treasury
	market   *market.Market

	// Cumulative wei in and out, for the custody invariant.
	mintedWei    *uint256.Int
	withdrawnWei *uint256.Int
}

// New deploys a contract from the given config. The sale starts closed and
// no tokens exist.
func New(cfg Config) (*Contract, error) {
	if cfg.Authority == ledger.ZeroAddress {
		return nil, ErrMissingAuthority
	}
	if cfg.UnitPrice == nil {
		return nil, ErrMissingUnitPrice
	}
	if cfg.MarketOperator == ledger.ZeroAddress {
		cfg.MarketOperator = DefaultMarketOperator
	}
	if cfg.Receiver == nil {
		cfg.Receiver = treasury.NewAccountSink()
	}

	return &Contract{
		cfg:          cfg,
		ledger:       ledger.New(),
		sale:         sale.NewController(cfg.UnitPrice),
		treasury:     treasury.New(cfg.Authority),
		market:       market.New(cfg.MarketOperator, cfg.Authority, cfg.RoyaltyBps),
		mintedWei:    uint256.NewInt(0),
		withdrawnWei: uint256.NewInt(0),
	}, nil
}

// Authority returns the deploying authority.
func (c *Contract) Authority() ledger.Address {
	return c.cfg.Authority
}

// MarketOperator returns the identity sellers must approve for listings to
// settle.
func (c *Contract) MarketOperator() ledger.Address {
	return c.cfg.MarketOperator
}

// OpenPublicSale transitions the sale from closed to open, exactly once.
// Only the authority may call it.
func (c *Contract) OpenPublicSale(caller ledger.Address) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if caller != c.cfg.Authority {
		return treasury.ErrNotAuthorized
	}
	return c.sale.Open()
}

// IsSaleOpen reports whether public minting is permitted.
func (c *Contract) IsSaleOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sale.IsOpen()
}

// MintNFTs mints quantity tokens to the caller against an exact payment of
// quantity × unit price, returning the allocated id range.
func (c *Contract) MintNFTs(caller ledger.Address, quantity int, payment *uint256.Int) (first, last uint64, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	first, last, err = c.sale.Mint(c.ledger, c.treasury, caller, quantity, payment)
	if err != nil {
		return 0, 0, err
	}
	c.mintedWei.Add(c.mintedWei, payment)
	return first, last, nil
}

// TransferFrom moves a token; the caller must be the from account or one of
// its approved operators.
func (c *Contract) TransferFrom(caller, from, to ledger.Address, tokenID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.Transfer(caller, from, to, tokenID)
}

// SetApprovalForAll grants or revokes a blanket operator approval for the
// caller's tokens.
func (c *Contract) SetApprovalForAll(caller, operator ledger.Address, approved bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.SetApprovalForAll(caller, operator, approved)
}

// IsApprovedForAll reports whether operator may move owner's tokens.
func (c *Contract) IsApprovedForAll(owner, operator ledger.Address) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.IsApprovedForAll(owner, operator)
}

// Withdraw sweeps the full treasury balance to the authority's external
// account. Authority only; a rejected delivery rolls back.
func (c *Contract) Withdraw(caller ledger.Address) (*uint256.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	amount, err := c.treasury.Withdraw(caller, c.cfg.Receiver)
	if err != nil {
		return nil, err
	}
	c.withdrawnWei.Add(c.withdrawnWei, amount)
	return amount, nil
}

// ListNft creates or overwrites a marketplace listing for a token the
// caller owns.
func (c *Contract) ListNft(caller ledger.Address, tokenID uint64, price *uint256.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.market.List(c.ledger, caller, tokenID, price)
}

// BuyExactMatchNative settles a listed token against an exact-match
// payment: the token moves to the buyer, the royalty share is credited to
// the authority, and the remainder to the seller.
func (c *Contract) BuyExactMatchNative(buyer ledger.Address, tokenID uint64, quantity int, extraData []byte, payment *uint256.Int) (*market.Settlement, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.market.Buy(c.ledger, buyer, tokenID, quantity, extraData, payment)
}

// BalanceOf returns the number of tokens an account owns.
func (c *Contract) BalanceOf(owner ledger.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.BalanceOf(owner)
}

// OwnerOf returns the current owner of a token.
func (c *Contract) OwnerOf(tokenID uint64) (ledger.Address, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.OwnerOf(tokenID)
}

// TokenID returns the most recently allocated token id, 0 before any mint.
func (c *Contract) TokenID() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.LastTokenID()
}

// TotalMinted returns the number of tokens issued.
func (c *Contract) TotalMinted() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ledger.TotalMinted()
}

// MintCount returns the tokens a wallet has minted during the sale.
func (c *Contract) MintCount(wallet ledger.Address) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sale.MintCount(wallet)
}

// TreasuryBalance returns a copy of the custodial balance.
func (c *Contract) TreasuryBalance() *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.treasury.Balance()
}

// Proceeds returns an account's withdrawable marketplace balance.
func (c *Contract) Proceeds(addr ledger.Address) *uint256.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.market.Proceeds(addr)
}

// Listing returns the active listing for a token, if any.
func (c *Contract) Listing(tokenID uint64) (market.Listing, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.market.Listing(tokenID)
}

// TokenURI returns the metadata location for a minted token: the base URI
// followed by the decimal token id.
func (c *Contract) TokenURI(tokenID uint64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.ledger.OwnerOf(tokenID); err != nil {
		return "", err
	}
	return c.cfg.BaseURI + strconv.FormatUint(tokenID, 10), nil
}

// Audit checks every cross-component invariant: ownership conservation,
// per-wallet quota, and custody accounting (treasury balance equals
// cumulative mint payments minus withdrawals).
func (c *Contract) Audit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ledger.Audit(); err != nil {
		return err
	}
	if err := c.sale.AuditQuotas(); err != nil {
		return err
	}
	expected := new(uint256.Int).Sub(c.mintedWei, c.withdrawnWei)
	if !c.treasury.Balance().Eq(expected) {
		return errors.New("collectible: treasury balance does not match cumulative payments minus withdrawals")
	}
	return nil
}
