package engine

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

type balanceKey struct {
	account string
	asset   string
}

// memStore is an in-memory storage.Store whose Atomic restores a snapshot on error.
type memStore struct {
	mu           sync.Mutex
	campaigns    map[string]campaign.State
	events       map[string][]event.Event
	balances     map[balanceKey]uint64
	transfers    []storage.TransferRecord
	atomicCalls  int
	transferFail error
}

func newMemStore() *memStore {
	return &memStore{
		campaigns: make(map[string]campaign.State),
		events:    make(map[string][]event.Event),
		balances:  make(map[balanceKey]uint64),
	}
}

func (s *memStore) GetCampaign(_ context.Context, campaignID string) (campaign.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.campaigns[campaignID]
	if !ok {
		return campaign.State{}, storage.ErrNotFound
	}
	return state.Clone(), nil
}

func (s *memStore) GetBalance(_ context.Context, accountID, assetID string) (storage.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.Balance{AccountID: accountID, AssetID: assetID, Amount: s.balances[balanceKey{accountID, assetID}]}, nil
}

func (s *memStore) Credit(_ context.Context, accountID, assetID string, amount uint64) (storage.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := balanceKey{accountID, assetID}
	s.balances[key] += amount
	return storage.Balance{AccountID: accountID, AssetID: assetID, Amount: s.balances[key]}, nil
}

func (s *memStore) Atomic(ctx context.Context, fn func(ctx context.Context, tx storage.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.atomicCalls++

	campaigns := maps.Clone(s.campaigns)
	events := make(map[string][]event.Event, len(s.events))
	for id, list := range s.events {
		events[id] = slices.Clone(list)
	}
	balances := maps.Clone(s.balances)
	transfers := slices.Clone(s.transfers)

	if err := fn(ctx, memTx{s}); err != nil {
		s.campaigns, s.events, s.balances, s.transfers = campaigns, events, balances, transfers
		return err
	}
	return nil
}

func (s *memStore) ListCampaigns(context.Context, int, string) (storage.CampaignPage, error) {
	return storage.CampaignPage{}, nil
}

func (s *memStore) ListEvents(_ context.Context, query storage.EventQuery) (storage.EventPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return storage.EventPage{Events: slices.Clone(s.events[query.CampaignID])}, nil
}

func (s *memStore) ListTransfers(_ context.Context, campaignID string) ([]storage.TransferRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.TransferRecord
	for _, record := range s.transfers {
		if record.CampaignID == campaignID {
			out = append(out, record)
		}
	}
	return out, nil
}

func (s *memStore) balance(accountID, assetID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balances[balanceKey{accountID, assetID}]
}

func (s *memStore) eventCount(campaignID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events[campaignID])
}

// memTx runs with memStore.mu held by Atomic.
type memTx struct {
	s *memStore
}

func (t memTx) GetCampaign(_ context.Context, campaignID string) (campaign.State, error) {
	state, ok := t.s.campaigns[campaignID]
	if !ok {
		return campaign.State{}, storage.ErrNotFound
	}
	return state.Clone(), nil
}

func (t memTx) PutCampaign(_ context.Context, state campaign.State) error {
	t.s.campaigns[state.CampaignID] = state.Clone()
	return nil
}

func (t memTx) AppendEvents(_ context.Context, events []event.Event) ([]event.Event, error) {
	stored := make([]event.Event, 0, len(events))
	for _, evt := range events {
		if err := evt.Validate(); err != nil {
			return nil, err
		}
		evt.Seq = uint64(len(t.s.events[evt.CampaignID]) + 1)
		t.s.events[evt.CampaignID] = append(t.s.events[evt.CampaignID], evt)
		stored = append(stored, evt)
	}
	return stored, nil
}

func (t memTx) Transfer(_ context.Context, campaignID string, eventSeq uint64, transfer campaign.Transfer, at time.Time) error {
	if t.s.transferFail != nil {
		return t.s.transferFail
	}
	from := balanceKey{transfer.From, transfer.AssetID}
	to := balanceKey{transfer.To, transfer.AssetID}
	if t.s.balances[from] < transfer.Amount {
		return storage.ErrInsufficientFunds
	}
	t.s.balances[from] -= transfer.Amount
	t.s.balances[to] += transfer.Amount
	t.s.transfers = append(t.s.transfers, storage.TransferRecord{
		CampaignID: campaignID,
		EventSeq:   eventSeq,
		Kind:       transfer.Kind,
		AssetID:    transfer.AssetID,
		From:       transfer.From,
		To:         transfer.To,
		Amount:     transfer.Amount,
		CreatedAt:  at,
	})
	return nil
}
