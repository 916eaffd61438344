// Package storage defines persistence contracts for ledger state.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrInsufficientFunds indicates the source account cannot cover a transfer.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrAmountOutOfRange indicates an amount or resulting balance exceeds the ledger range.
	ErrAmountOutOfRange = errors.New("amount out of range")
	// ErrInvalidFilter indicates an event filter that could not be parsed.
	ErrInvalidFilter = errors.New("invalid event filter")
	// ErrInvalidPageToken indicates a page token this store did not issue.
	ErrInvalidPageToken = errors.New("invalid page token")
)

// CampaignPage stores one page of campaign records.
type CampaignPage struct {
	Campaigns     []campaign.State
	NextPageToken string
}

// EventQuery selects events for one campaign.
type EventQuery struct {
	CampaignID string
	AfterSeq   uint64
	PageSize   int
	// Filter is an AIP-160 expression over type, actor_type, actor_id,
	// entity_type, entity_id, request_id, seq and ts.
	Filter string
}

// EventPage stores one page of events ordered by sequence.
type EventPage struct {
	Events  []event.Event
	LastSeq uint64
	HasMore bool
}

// TransferRecord is one row of the transfer journal.
type TransferRecord struct {
	ID         int64
	CampaignID string
	EventSeq   uint64
	Kind       campaign.TransferKind
	AssetID    string
	From       string
	To         string
	Amount     uint64
	CreatedAt  time.Time
}

// Balance is an account's holding of the native currency or one asset.
type Balance struct {
	AccountID string
	// AssetID is empty for native balances.
	AssetID string
	Amount  uint64
}

// CampaignReader loads folded campaign state.
type CampaignReader interface {
	GetCampaign(ctx context.Context, campaignID string) (campaign.State, error)
}

// TransferExecutor moves value between accounts. Implementations fail with
// ErrInsufficientFunds without moving anything when the source cannot pay.
type TransferExecutor interface {
	Transfer(ctx context.Context, campaignID string, eventSeq uint64, transfer campaign.Transfer, at time.Time) error
}

// Tx is the unit of work handed to Store.Atomic callbacks.
type Tx interface {
	CampaignReader
	TransferExecutor
	PutCampaign(ctx context.Context, state campaign.State) error
	// AppendEvents assigns per-campaign sequence numbers and returns the stored events.
	AppendEvents(ctx context.Context, events []event.Event) ([]event.Event, error)
}

// BalanceStore reads and credits account balances.
type BalanceStore interface {
	GetBalance(ctx context.Context, accountID, assetID string) (Balance, error)
	Credit(ctx context.Context, accountID, assetID string, amount uint64) (Balance, error)
}

// Store is the full ledger persistence contract.
type Store interface {
	CampaignReader
	BalanceStore
	// Atomic runs fn in one transaction; any error rolls everything back.
	Atomic(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	ListCampaigns(ctx context.Context, pageSize int, pageToken string) (CampaignPage, error)
	ListEvents(ctx context.Context, query EventQuery) (EventPage, error)
	ListTransfers(ctx context.Context, campaignID string) ([]TransferRecord, error)
}
