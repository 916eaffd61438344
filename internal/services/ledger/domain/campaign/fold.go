package campaign

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
)

// Fold applies an event to campaign state.
func Fold(state State, evt event.Event) (State, error) {
	state = state.Clone()
	switch evt.Type {
	case EventTypeInitialized:
		var payload InitializedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		state.Initialized = true
		state.CampaignID = evt.CampaignID
		state.SponsorID = payload.SponsorID
		state.RewardAssetID = payload.RewardAssetID
		state.RewardPoolAmount = payload.RewardPoolAmount
		state.Capacity = payload.Capacity
		state.StakeAmount = payload.StakeAmount
		state.Roster = []string{}
		state.CreatedAt = evt.Timestamp
	case EventTypeJoined:
		var payload RosterChangedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		state.Roster = append(state.Roster, payload.ParticipantID)
	case EventTypeLeft:
		var payload RosterChangedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		if index := slices.Index(state.Roster, payload.ParticipantID); index >= 0 {
			state.Roster = slices.Delete(state.Roster, index, index+1)
		}
	case EventTypeDistributed:
		var payload DistributedPayload
		if err := json.Unmarshal(evt.PayloadJSON, &payload); err != nil {
			return state, fmt.Errorf("decode %s payload: %w", evt.Type, err)
		}
		state.Distributed = true
		state.ShareAmount = payload.ShareAmount
		state.RemainderAmount = payload.RemainderAmount
		state.DistributedAt = evt.Timestamp
	default:
		return state, fmt.Errorf("unknown event type %q", evt.Type)
	}
	state.UpdatedAt = evt.Timestamp
	return state, nil
}

// Replay folds events in order starting from empty state.
func Replay(events []event.Event) (State, error) {
	var state State
	for _, evt := range events {
		next, err := Fold(state, evt)
		if err != nil {
			return State{}, err
		}
		state = next
	}
	return state, nil
}
