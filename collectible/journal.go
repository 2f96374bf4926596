package collectible

import (
	"context"
	"fmt"

	"github.com/holiman/uint256"

	"github.com/pflow-xyz/go-collectible/eventsource"
	"github.com/pflow-xyz/go-collectible/ledger"
	"github.com/pflow-xyz/go-collectible/market"
)

// Journal event types.
const (
	EventSaleOpened     = "SaleOpened"
	EventMinted         = "Minted"
	EventTransferred    = "Transferred"
	EventApprovalForAll = "ApprovalForAll"
	EventWithdrawn      = "Withdrawn"
	EventListed         = "Listed"
	EventPurchased      = "Purchased"
)

// Amounts travel as decimal strings so journals survive JSON round trips
// without precision loss.
type saleOpenedPayload struct {
	Caller string `json:"caller"`
}

type mintedPayload struct {
	Caller   string `json:"caller"`
	Quantity int    `json:"quantity"`
	Payment  string `json:"payment"`
	First    uint64 `json:"first"`
	Last     uint64 `json:"last"`
}

type transferredPayload struct {
	Caller  string `json:"caller"`
	From    string `json:"from"`
	To      string `json:"to"`
	TokenID uint64 `json:"token_id"`
}

type approvalPayload struct {
	Owner    string `json:"owner"`
	Operator string `json:"operator"`
	Approved bool   `json:"approved"`
}

type withdrawnPayload struct {
	Caller string `json:"caller"`
	Amount string `json:"amount"`
}

type listedPayload struct {
	Seller  string `json:"seller"`
	TokenID uint64 `json:"token_id"`
	Price   string `json:"price"`
}

type purchasedPayload struct {
	Buyer   string `json:"buyer"`
	TokenID uint64 `json:"token_id"`
	Payment string `json:"payment"`
}

// Journal pairs a contract with an event stream: every successful mutation
// is appended as an event, and Rebuild replays a stream into a fresh
// contract.
//
// The journal is an audit trail, not a second source of truth: if an
// append fails after the state transition committed, the error is
// surfaced and the pair should be abandoned.
type Journal struct {
	contract *Contract
	store    eventsource.Store
	streamID string
	version  int
}

// NewJournal attaches a contract to a stream. The stream's current head is
// read so appends continue from it.
func NewJournal(ctx context.Context, contract *Contract, store eventsource.Store, streamID string) (*Journal, error) {
	version, err := store.StreamVersion(ctx, streamID)
	if err != nil {
		return nil, err
	}
	return &Journal{
		contract: contract,
		store:    store,
		streamID: streamID,
		version:  version,
	}, nil
}

// Contract returns the underlying contract for queries.
func (j *Journal) Contract() *Contract {
	return j.contract
}

// Version returns the stream head version, -1 for an empty stream.
func (j *Journal) Version() int {
	return j.version
}

func (j *Journal) record(ctx context.Context, eventType string, payload any) error {
	event, err := eventsource.NewEvent(j.streamID, eventType, payload)
	if err != nil {
		return err
	}
	version, err := j.store.Append(ctx, j.streamID, j.version, []*eventsource.Event{event})
	if err != nil {
		return fmt.Errorf("collectible: journal append: %w", err)
	}
	j.version = version
	return nil
}

// OpenPublicSale opens the sale and journals the transition.
func (j *Journal) OpenPublicSale(ctx context.Context, caller ledger.Address) error {
	if err := j.contract.OpenPublicSale(caller); err != nil {
		return err
	}
	return j.record(ctx, EventSaleOpened, saleOpenedPayload{Caller: string(caller)})
}

// MintNFTs mints and journals the allocated range.
func (j *Journal) MintNFTs(ctx context.Context, caller ledger.Address, quantity int, payment *uint256.Int) (first, last uint64, err error) {
	first, last, err = j.contract.MintNFTs(caller, quantity, payment)
	if err != nil {
		return 0, 0, err
	}
	err = j.record(ctx, EventMinted, mintedPayload{
		Caller:   string(caller),
		Quantity: quantity,
		Payment:  payment.Dec(),
		First:    first,
		Last:     last,
	})
	return first, last, err
}

// TransferFrom transfers and journals the move.
func (j *Journal) TransferFrom(ctx context.Context, caller, from, to ledger.Address, tokenID uint64) error {
	if err := j.contract.TransferFrom(caller, from, to, tokenID); err != nil {
		return err
	}
	return j.record(ctx, EventTransferred, transferredPayload{
		Caller:  string(caller),
		From:    string(from),
		To:      string(to),
		TokenID: tokenID,
	})
}

// SetApprovalForAll updates an operator grant and journals it.
func (j *Journal) SetApprovalForAll(ctx context.Context, caller, operator ledger.Address, approved bool) error {
	if err := j.contract.SetApprovalForAll(caller, operator, approved); err != nil {
		return err
	}
	return j.record(ctx, EventApprovalForAll, approvalPayload{
		Owner:    string(caller),
		Operator: string(operator),
		Approved: approved,
	})
}

// Withdraw sweeps the treasury and journals the amount delivered.
func (j *Journal) Withdraw(ctx context.Context, caller ledger.Address) (*uint256.Int, error) {
	amount, err := j.contract.Withdraw(caller)
	if err != nil {
		return nil, err
	}
	err = j.record(ctx, EventWithdrawn, withdrawnPayload{
		Caller: string(caller),
		Amount: amount.Dec(),
	})
	return amount, err
}

// ListNft lists a token and journals the listing.
func (j *Journal) ListNft(ctx context.Context, caller ledger.Address, tokenID uint64, price *uint256.Int) error {
	if err := j.contract.ListNft(caller, tokenID, price); err != nil {
		return err
	}
	return j.record(ctx, EventListed, listedPayload{
		Seller:  string(caller),
		TokenID: tokenID,
		Price:   price.Dec(),
	})
}

// BuyExactMatchNative settles a purchase and journals it.
func (j *Journal) BuyExactMatchNative(ctx context.Context, buyer ledger.Address, tokenID uint64, quantity int, extraData []byte, payment *uint256.Int) (*market.Settlement, error) {
	settlement, err := j.contract.BuyExactMatchNative(buyer, tokenID, quantity, extraData, payment)
	if err != nil {
		return nil, err
	}
	err = j.record(ctx, EventPurchased, purchasedPayload{
		Buyer:   string(buyer),
		TokenID: tokenID,
		Payment: payment.Dec(),
	})
	return settlement, err
}

// Rebuild replays a stream into a freshly deployed contract and returns a
// journal positioned at the stream head. Replay applies events through the
// same entry points as live traffic, so a journal written by a correct
// contract always replays cleanly.
func Rebuild(ctx context.Context, store eventsource.Store, streamID string, cfg Config) (*Journal, error) {
	contract, err := New(cfg)
	if err != nil {
		return nil, err
	}

	events, err := store.Read(ctx, streamID, 0)
	if err != nil {
		return nil, err
	}

	for _, event := range events {
		if err := apply(contract, event); err != nil {
			return nil, fmt.Errorf("collectible: replay %s at version %d: %w", event.Type, event.Version, err)
		}
	}

	version := -1
	if len(events) > 0 {
		version = events[len(events)-1].Version
	}
	return &Journal{
		contract: contract,
		store:    store,
		streamID: streamID,
		version:  version,
	}, nil
}

func apply(c *Contract, event *eventsource.Event) error {
	switch event.Type {
	case EventSaleOpened:
		var p saleOpenedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		return c.OpenPublicSale(ledger.Address(p.Caller))

	case EventMinted:
		var p mintedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		payment, err := uint256.FromDecimal(p.Payment)
		if err != nil {
			return err
		}
		_, _, err = c.MintNFTs(ledger.Address(p.Caller), p.Quantity, payment)
		return err

	case EventTransferred:
		var p transferredPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		return c.TransferFrom(ledger.Address(p.Caller), ledger.Address(p.From), ledger.Address(p.To), p.TokenID)

	case EventApprovalForAll:
		var p approvalPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		return c.SetApprovalForAll(ledger.Address(p.Owner), ledger.Address(p.Operator), p.Approved)

	case EventWithdrawn:
		var p withdrawnPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		_, err := c.Withdraw(ledger.Address(p.Caller))
		return err

	case EventListed:
		var p listedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		price, err := uint256.FromDecimal(p.Price)
		if err != nil {
			return err
		}
		return c.ListNft(ledger.Address(p.Seller), p.TokenID, price)

	case EventPurchased:
		var p purchasedPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		payment, err := uint256.FromDecimal(p.Payment)
		if err != nil {
			return err
		}
		_, err = c.BuyExactMatchNative(ledger.Address(p.Buyer), p.TokenID, 1, nil, payment)
		return err

	default:
		return fmt.Errorf("collectible: unknown event type %q", event.Type)
	}
}
