package sqlite

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

var testNow = time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}

func sampleCampaign(id string) campaign.State {
	return campaign.State{
		Initialized:      true,
		CampaignID:       id,
		SponsorID:        "sponsor-1",
		RewardAssetID:    "drop",
		RewardPoolAmount: 1_000_000,
		Capacity:         10,
		StakeAmount:      1_000_000_000,
		Roster:           []string{"p-2", "p-1", "p-3"},
		CreatedAt:        testNow,
		UpdatedAt:        testNow,
	}
}

func putCampaign(t *testing.T, store *Store, state campaign.State) {
	t.Helper()
	err := store.Atomic(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.PutCampaign(ctx, state)
	})
	if err != nil {
		t.Fatalf("put campaign: %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpenIsIdempotentAcrossRestarts(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "ledger.db")
	first, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	putCampaign(t, first, sampleCampaign("camp-1"))
	if err := first.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()
	if _, err := second.GetCampaign(context.Background(), "camp-1"); err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
}

func TestPutGetCampaignRoundTrip(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	input := sampleCampaign("camp-1")
	putCampaign(t, store, input)

	got, err := store.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if !got.Initialized {
		t.Fatal("expected initialized campaign")
	}
	if got.SponsorID != input.SponsorID || got.RewardAssetID != input.RewardAssetID {
		t.Fatalf("identity mismatch: %+v", got)
	}
	if got.RewardPoolAmount != input.RewardPoolAmount || got.StakeAmount != input.StakeAmount || got.Capacity != input.Capacity {
		t.Fatalf("amounts mismatch: %+v", got)
	}
	if fmt.Sprint(got.Roster) != fmt.Sprint(input.Roster) {
		t.Fatalf("roster = %v, want %v", got.Roster, input.Roster)
	}
	if !got.CreatedAt.Equal(testNow) {
		t.Fatalf("created_at = %s, want %s", got.CreatedAt, testNow)
	}
	if !got.DistributedAt.IsZero() {
		t.Fatalf("distributed_at = %s, want zero", got.DistributedAt)
	}
}

func TestPutCampaignUpdatesRosterAndGuard(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	state := sampleCampaign("camp-1")
	putCampaign(t, store, state)

	state.Roster = []string{"p-1", "p-3"}
	state.Distributed = true
	state.ShareAmount = 500_000
	state.DistributedAt = testNow.Add(time.Hour)
	state.UpdatedAt = testNow.Add(time.Hour)
	putCampaign(t, store, state)

	got, err := store.GetCampaign(context.Background(), "camp-1")
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if fmt.Sprint(got.Roster) != "[p-1 p-3]" {
		t.Fatalf("roster = %v, want [p-1 p-3]", got.Roster)
	}
	if !got.Distributed || got.ShareAmount != 500_000 {
		t.Fatalf("guard not persisted: %+v", got)
	}
	if !got.DistributedAt.Equal(testNow.Add(time.Hour)) {
		t.Fatalf("distributed_at = %s", got.DistributedAt)
	}
}

func TestPutCampaignRejectsDuplicateRosterEntries(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	state := sampleCampaign("camp-1")
	state.Roster = []string{"p-1", "p-1"}
	err := store.Atomic(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		return tx.PutCampaign(ctx, state)
	})
	if !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("err = %v, want %v", err, storage.ErrAlreadyExists)
	}
	if _, err := store.GetCampaign(context.Background(), "camp-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected rollback, got %v", err)
	}
}

func TestGetCampaignNotFound(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.GetCampaign(context.Background(), "missing"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestListCampaignsPaginates(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	for _, id := range []string{"camp-c", "camp-a", "camp-b"} {
		putCampaign(t, store, sampleCampaign(id))
	}

	first, err := store.ListCampaigns(context.Background(), 2, "")
	if err != nil {
		t.Fatalf("list first page: %v", err)
	}
	if len(first.Campaigns) != 2 || first.Campaigns[0].CampaignID != "camp-a" || first.Campaigns[1].CampaignID != "camp-b" {
		t.Fatalf("first page = %+v", first.Campaigns)
	}
	if len(first.Campaigns[0].Roster) != 3 {
		t.Fatalf("expected roster on listed campaign, got %v", first.Campaigns[0].Roster)
	}
	if first.NextPageToken == "" {
		t.Fatal("expected next page token")
	}

	second, err := store.ListCampaigns(context.Background(), 2, first.NextPageToken)
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Campaigns) != 1 || second.Campaigns[0].CampaignID != "camp-c" {
		t.Fatalf("second page = %+v", second.Campaigns)
	}
	if second.NextPageToken != "" {
		t.Fatalf("expected no further pages, got %q", second.NextPageToken)
	}

	if _, err := store.ListCampaigns(context.Background(), 2, "not-a-token!"); !errors.Is(err, storage.ErrInvalidPageToken) {
		t.Fatalf("err = %v, want %v", err, storage.ErrInvalidPageToken)
	}
}

func TestCreditAndTransfer(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.Credit(ctx, "p-1", "", 5_000); err != nil {
		t.Fatalf("credit native: %v", err)
	}
	balance, err := store.Credit(ctx, "sponsor-1", "drop", 100)
	if err != nil {
		t.Fatalf("credit asset: %v", err)
	}
	if balance.Amount != 100 || balance.AssetID != "drop" {
		t.Fatalf("balance = %+v", balance)
	}

	err = store.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.Transfer(ctx, "camp-1", 1, campaign.Transfer{
			Kind: campaign.TransferKindNative, From: "p-1", To: "custody:camp-1", Amount: 2_000,
		}, testNow); err != nil {
			return err
		}
		return tx.Transfer(ctx, "camp-1", 2, campaign.Transfer{
			Kind: campaign.TransferKindAsset, AssetID: "drop", From: "sponsor-1", To: "custody:camp-1", Amount: 60,
		}, testNow)
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	assertBalance(t, store, "p-1", "", 3_000)
	assertBalance(t, store, "custody:camp-1", "", 2_000)
	assertBalance(t, store, "sponsor-1", "drop", 40)
	assertBalance(t, store, "custody:camp-1", "drop", 60)

	records, err := store.ListTransfers(ctx, "camp-1")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
	if records[0].Kind != campaign.TransferKindNative || records[0].EventSeq != 1 || records[0].Amount != 2_000 {
		t.Fatalf("record[0] = %+v", records[0])
	}
	if records[1].AssetID != "drop" || records[1].From != "sponsor-1" {
		t.Fatalf("record[1] = %+v", records[1])
	}
}

func TestTransferInsufficientFundsRollsBackUnitOfWork(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.Credit(ctx, "p-1", "", 10); err != nil {
		t.Fatalf("credit: %v", err)
	}

	err := store.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
		if err := tx.PutCampaign(ctx, sampleCampaign("camp-1")); err != nil {
			return err
		}
		return tx.Transfer(ctx, "camp-1", 1, campaign.Transfer{
			Kind: campaign.TransferKindNative, From: "p-1", To: "custody:camp-1", Amount: 11,
		}, testNow)
	})
	if !errors.Is(err, storage.ErrInsufficientFunds) {
		t.Fatalf("err = %v, want %v", err, storage.ErrInsufficientFunds)
	}
	assertBalance(t, store, "p-1", "", 10)
	if _, err := store.GetCampaign(ctx, "camp-1"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("campaign should be rolled back, got %v", err)
	}
	records, err := store.ListTransfers(ctx, "camp-1")
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("records = %d, want 0", len(records))
	}
}

func TestCreditRejectsOverflow(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if _, err := store.Credit(ctx, "p-1", "", 1<<62); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := store.Credit(ctx, "p-1", "", 1<<62); !errors.Is(err, storage.ErrAmountOutOfRange) {
		t.Fatalf("err = %v, want %v", err, storage.ErrAmountOutOfRange)
	}
	if _, err := store.Credit(ctx, "p-2", "", 1<<63); !errors.Is(err, storage.ErrAmountOutOfRange) {
		t.Fatalf("err = %v, want %v", err, storage.ErrAmountOutOfRange)
	}
}

func TestAppendAndListEvents(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	events := []event.Event{
		{CampaignID: "camp-1", Type: "campaign.initialized", Timestamp: testNow, EntityType: "campaign", EntityID: "camp-1", PayloadJSON: []byte(`{}`)},
		{CampaignID: "camp-1", Type: "participant.joined", Timestamp: testNow.Add(time.Minute), ActorType: event.ActorTypeParticipant, ActorID: "p-1", EntityType: "participant", EntityID: "p-1"},
		{CampaignID: "camp-1", Type: "participant.joined", Timestamp: testNow.Add(2 * time.Minute), EntityType: "participant", EntityID: "p-2"},
		{CampaignID: "camp-2", Type: "campaign.initialized", Timestamp: testNow},
	}
	var stored []event.Event
	err := store.Atomic(ctx, func(ctx context.Context, tx storage.Tx) error {
		var err error
		stored, err = tx.AppendEvents(ctx, events)
		return err
	})
	if err != nil {
		t.Fatalf("append events: %v", err)
	}
	wantSeqs := []uint64{1, 2, 3, 1}
	for i, evt := range stored {
		if evt.Seq != wantSeqs[i] {
			t.Fatalf("stored[%d].Seq = %d, want %d", i, evt.Seq, wantSeqs[i])
		}
	}

	page, err := store.ListEvents(ctx, storage.EventQuery{CampaignID: "camp-1", PageSize: 2})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(page.Events) != 2 || !page.HasMore || page.LastSeq != 2 {
		t.Fatalf("page = %+v", page)
	}
	if page.Events[1].ActorID != "p-1" || page.Events[1].ActorType != event.ActorTypeParticipant {
		t.Fatalf("event envelope lost: %+v", page.Events[1])
	}

	page, err = store.ListEvents(ctx, storage.EventQuery{CampaignID: "camp-1", AfterSeq: page.LastSeq, PageSize: 2})
	if err != nil {
		t.Fatalf("list next events: %v", err)
	}
	if len(page.Events) != 1 || page.HasMore || page.Events[0].EntityID != "p-2" {
		t.Fatalf("next page = %+v", page)
	}

	page, err = store.ListEvents(ctx, storage.EventQuery{
		CampaignID: "camp-1",
		PageSize:   10,
		Filter:     `type = "participant.joined" AND ts > timestamp("2026-03-02T10:01:30Z")`,
	})
	if err != nil {
		t.Fatalf("list filtered events: %v", err)
	}
	if len(page.Events) != 1 || page.Events[0].EntityID != "p-2" {
		t.Fatalf("filtered page = %+v", page.Events)
	}

	if _, err := store.ListEvents(ctx, storage.EventQuery{CampaignID: "camp-1", PageSize: 10, Filter: `bogus = 1`}); !errors.Is(err, storage.ErrInvalidFilter) {
		t.Fatalf("err = %v, want %v", err, storage.ErrInvalidFilter)
	}
}

func TestAppendEventsValidatesEnvelope(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.Atomic(context.Background(), func(ctx context.Context, tx storage.Tx) error {
		_, err := tx.AppendEvents(ctx, []event.Event{{Type: "campaign.initialized"}})
		return err
	})
	if !errors.Is(err, event.ErrCampaignIDRequired) {
		t.Fatalf("err = %v, want %v", err, event.ErrCampaignIDRequired)
	}
}

func TestAtomicHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := store.Atomic(ctx, func(context.Context, storage.Tx) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected cancelled context to abort before running, err=%v called=%v", err, called)
	}
}

func assertBalance(t *testing.T, store *Store, accountID, assetID string, want uint64) {
	t.Helper()
	balance, err := store.GetBalance(context.Background(), accountID, assetID)
	if err != nil {
		t.Fatalf("get balance %s/%s: %v", accountID, assetID, err)
	}
	if balance.Amount != want {
		t.Fatalf("balance %s/%s = %d, want %d", accountID, assetID, balance.Amount, want)
	}
}
