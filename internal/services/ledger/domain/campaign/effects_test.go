package campaign

import (
	"testing"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
)

func TestEffects(t *testing.T) {
	state := initializedState(t, 100, 10)

	_, initEvents := apply(t, State{}, initCommand(t, InitializePayload{
		SponsorID: "sponsor-1", RewardAssetID: "drop", RewardAmount: 100, Capacity: 10, StakeAmount: 7,
	}))
	transfers, err := Effects(initEvents[0])
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	if len(transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(transfers))
	}
	want := Transfer{Kind: TransferKindAsset, AssetID: "drop", From: "sponsor-1", To: "custody:camp-1", Amount: 100}
	if transfers[0] != want {
		t.Fatalf("transfer = %+v, want %+v", transfers[0], want)
	}

	state, joinEvents := apply(t, state, joinCommand(t, "p-1"))
	transfers, err = Effects(joinEvents[0])
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	want = Transfer{Kind: TransferKindNative, From: "p-1", To: "custody:camp-1", Amount: 1_000_000_000}
	if len(transfers) != 1 || transfers[0] != want {
		t.Fatalf("join transfers = %+v, want %+v", transfers, want)
	}

	state, _ = apply(t, state, joinCommand(t, "p-2"))
	_, leaveEvents := apply(t, state, leaveCommand(t, "p-2"))
	transfers, err = Effects(leaveEvents[0])
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	want = Transfer{Kind: TransferKindNative, From: "custody:camp-1", To: "p-2", Amount: 1_000_000_000}
	if len(transfers) != 1 || transfers[0] != want {
		t.Fatalf("leave transfers = %+v, want %+v", transfers, want)
	}
}

func TestEffects_DistributionSkipsZeroShares(t *testing.T) {
	state := initializedState(t, 2, 10)
	for _, id := range []string{"a", "b", "c"} {
		state, _ = apply(t, state, joinCommand(t, id))
	}
	_, events := apply(t, state, distributeCommand())
	transfers, err := Effects(events[0])
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	if len(transfers) != 0 {
		t.Fatalf("transfers = %+v, want none for zero shares", transfers)
	}

	state = initializedState(t, 90, 10)
	for _, id := range []string{"a", "b", "c"} {
		state, _ = apply(t, state, joinCommand(t, id))
	}
	_, events = apply(t, state, distributeCommand())
	transfers, err = Effects(events[0])
	if err != nil {
		t.Fatalf("effects: %v", err)
	}
	if len(transfers) != 3 {
		t.Fatalf("transfers = %d, want 3", len(transfers))
	}
	for i, id := range []string{"a", "b", "c"} {
		if transfers[i].To != id || transfers[i].Amount != 30 || transfers[i].From != "custody:camp-1" {
			t.Fatalf("transfer %d = %+v", i, transfers[i])
		}
	}
}

func TestEffects_UnknownEvent(t *testing.T) {
	if _, err := Effects(event.Event{CampaignID: "c", Type: "campaign.closed"}); err == nil {
		t.Fatal("expected error for unknown event")
	}
	if _, err := Effects(event.Event{CampaignID: "c", Type: EventTypeJoined, PayloadJSON: []byte("{")}); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestEscrowMatchesRosterAcrossSequences(t *testing.T) {
	state := initializedState(t, 100, 4)
	var custody uint64
	steps := []struct {
		join bool
		id   string
	}{
		{true, "a"}, {true, "b"}, {false, "a"}, {true, "c"}, {true, "a"}, {false, "b"}, {true, "d"}, {false, "c"},
	}
	for _, step := range steps {
		cmd := leaveCommand(t, step.id)
		if step.join {
			cmd = joinCommand(t, step.id)
		}
		var events []event.Event
		state, events = apply(t, state, cmd)
		transfers, err := Effects(events[0])
		if err != nil {
			t.Fatalf("effects: %v", err)
		}
		for _, transfer := range transfers {
			if transfer.To == "custody:camp-1" {
				custody += transfer.Amount
			} else {
				custody -= transfer.Amount
			}
		}
		if custody != state.Escrow() {
			t.Fatalf("custody = %d, escrow = %d after %+v", custody, state.Escrow(), step)
		}
	}
}
