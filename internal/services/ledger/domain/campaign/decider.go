package campaign

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
)

const (
	CommandTypeInitialize command.Type = "campaign.initialize"
	CommandTypeJoin       command.Type = "participant.join"
	CommandTypeLeave      command.Type = "participant.leave"
	CommandTypeDistribute command.Type = "rewards.distribute"

	EventTypeInitialized event.Type = "campaign.initialized"
	EventTypeJoined      event.Type = "participant.joined"
	EventTypeLeft        event.Type = "participant.left"
	EventTypeDistributed event.Type = "rewards.distributed"

	entityTypeCampaign    = "campaign"
	entityTypeParticipant = "participant"
)

// maxAmount bounds every amount so it fits a signed 64-bit column.
const maxAmount = uint64(math.MaxInt64)

// Decide returns the decision for a campaign command against current state.
func Decide(state State, cmd command.Command, now func() time.Time) command.Decision {
	if now == nil {
		now = time.Now
	}
	switch cmd.Type {
	case CommandTypeInitialize:
		return decideInitialize(state, cmd, now)
	case CommandTypeJoin:
		return decideJoin(state, cmd, now)
	case CommandTypeLeave:
		return decideLeave(state, cmd, now)
	case CommandTypeDistribute:
		return decideDistribute(state, cmd, now)
	default:
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeCommandRejected,
			Message: "unsupported command type " + string(cmd.Type),
		})
	}
}

func decideInitialize(state State, cmd command.Command, now func() time.Time) command.Decision {
	if state.Initialized {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeCampaignAlreadyInitialized,
			Message:  "campaign already initialized",
			Metadata: map[string]string{"CampaignID": cmd.CampaignID},
		})
	}
	var payload InitializePayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)

	sponsorID := strings.TrimSpace(payload.SponsorID)
	if sponsorID == "" {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeCampaignSponsorRequired,
			Message: "sponsor id is required",
		})
	}
	if IsCustodyAccount(sponsorID) {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeParticipantIsCustodian,
			Message: "sponsor cannot be a custody account",
		})
	}
	if rejection, ok := requireActor(cmd, command.ActorTypeSponsor, sponsorID); !ok {
		return command.Reject(rejection)
	}
	assetID := strings.TrimSpace(payload.RewardAssetID)
	if assetID == "" {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeCampaignRewardAssetRequired,
			Message: "reward asset id is required",
		})
	}
	if payload.RewardAmount > maxAmount {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeAmountOutOfRange,
			Message: "reward amount exceeds the supported range",
		})
	}
	if payload.Capacity < 1 {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeCampaignCapacityInvalid,
			Message:  "capacity must be at least 1",
			Metadata: map[string]string{"Capacity": strconv.Itoa(payload.Capacity)},
		})
	}
	// A full roster's escrow must still be representable.
	if payload.StakeAmount == 0 || payload.StakeAmount > maxAmount/uint64(payload.Capacity) {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeCampaignStakeAmountInvalid,
			Message: "stake amount must be positive and capacity * stake must fit the ledger",
		})
	}

	payloadJSON, _ := json.Marshal(InitializedPayload{
		SponsorID:        sponsorID,
		RewardAssetID:    assetID,
		RewardPoolAmount: payload.RewardAmount,
		Capacity:         payload.Capacity,
		StakeAmount:      payload.StakeAmount,
		CustodyAccountID: CustodyAccount(cmd.CampaignID),
	})
	evt := command.NewEvent(cmd, EventTypeInitialized, entityTypeCampaign, cmd.CampaignID, payloadJSON, now().UTC())
	return command.Accept(evt)
}

func decideJoin(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload JoinPayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	participantID := strings.TrimSpace(payload.ParticipantID)
	if participantID == "" {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeParticipantIDRequired,
			Message: "participant id is required",
		})
	}
	if IsCustodyAccount(participantID) {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeParticipantIsCustodian,
			Message: "participant cannot be a custody account",
		})
	}
	if rejection, ok := requireActor(cmd, command.ActorTypeParticipant, participantID); !ok {
		return command.Reject(rejection)
	}
	if rejection, ok := requireInitialized(state, cmd); !ok {
		return command.Reject(rejection)
	}
	if state.Distributed {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeAlreadyDistributed,
			Message: "campaign rewards already distributed",
		})
	}
	if state.Full() {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeRosterFull,
			Message:  "roster is full",
			Metadata: map[string]string{"Capacity": strconv.Itoa(state.Capacity)},
		})
	}
	if state.HasParticipant(participantID) {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeDuplicateParticipant,
			Message:  "participant already on roster",
			Metadata: map[string]string{"ParticipantID": participantID},
		})
	}

	payloadJSON, _ := json.Marshal(RosterChangedPayload{
		ParticipantID: participantID,
		StakeAmount:   state.StakeAmount,
		RosterSize:    len(state.Roster) + 1,
	})
	evt := command.NewEvent(cmd, EventTypeJoined, entityTypeParticipant, participantID, payloadJSON, now().UTC())
	return command.Accept(evt)
}

func decideLeave(state State, cmd command.Command, now func() time.Time) command.Decision {
	var payload LeavePayload
	_ = json.Unmarshal(cmd.PayloadJSON, &payload)
	participantID := strings.TrimSpace(payload.ParticipantID)
	if participantID == "" {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeParticipantIDRequired,
			Message: "participant id is required",
		})
	}
	if rejection, ok := requireActor(cmd, command.ActorTypeParticipant, participantID); !ok {
		return command.Reject(rejection)
	}
	if rejection, ok := requireInitialized(state, cmd); !ok {
		return command.Reject(rejection)
	}
	if !state.HasParticipant(participantID) {
		return command.Reject(command.Rejection{
			Code:     apperrors.CodeParticipantNotFound,
			Message:  "participant not on roster",
			Metadata: map[string]string{"ParticipantID": participantID},
		})
	}

	payloadJSON, _ := json.Marshal(RosterChangedPayload{
		ParticipantID: participantID,
		StakeAmount:   state.StakeAmount,
		RosterSize:    len(state.Roster) - 1,
	})
	evt := command.NewEvent(cmd, EventTypeLeft, entityTypeParticipant, participantID, payloadJSON, now().UTC())
	return command.Accept(evt)
}

func decideDistribute(state State, cmd command.Command, now func() time.Time) command.Decision {
	if rejection, ok := requireInitialized(state, cmd); !ok {
		return command.Reject(rejection)
	}
	if rejection, ok := requireActor(cmd, command.ActorTypeSponsor, state.SponsorID); !ok {
		return command.Reject(rejection)
	}
	if state.Distributed {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeAlreadyDistributed,
			Message: "campaign rewards already distributed",
		})
	}
	if len(state.Roster) == 0 {
		return command.Reject(command.Rejection{
			Code:    apperrors.CodeEmptyRoster,
			Message: "cannot distribute to an empty roster",
		})
	}

	share, remainder := Split(state.RewardPoolAmount, len(state.Roster))
	payouts := make([]Payout, 0, len(state.Roster))
	for _, participantID := range state.Roster {
		payouts = append(payouts, Payout{ParticipantID: participantID, Amount: share})
	}
	payloadJSON, _ := json.Marshal(DistributedPayload{
		RewardAssetID:    state.RewardAssetID,
		RewardPoolAmount: state.RewardPoolAmount,
		ShareAmount:      share,
		RemainderAmount:  remainder,
		Payouts:          payouts,
	})
	evt := command.NewEvent(cmd, EventTypeDistributed, entityTypeCampaign, cmd.CampaignID, payloadJSON, now().UTC())
	return command.Accept(evt)
}

// Split divides pool evenly across n participants and returns the per-head
// share and the undistributed remainder. n must be positive.
func Split(pool uint64, n int) (share, remainder uint64) {
	share = pool / uint64(n)
	return share, pool - share*uint64(n)
}

// requireActor rejects a command issued by an actor of type actorType on
// behalf of an account other than accountID. Other actor types pass.
func requireActor(cmd command.Command, actorType command.ActorType, accountID string) (command.Rejection, bool) {
	if cmd.ActorType != actorType || strings.TrimSpace(cmd.ActorID) == accountID {
		return command.Rejection{}, true
	}
	return command.Rejection{
		Code:     apperrors.CodeCommandRejected,
		Message:  string(actorType) + " actor does not own account " + accountID,
		Metadata: map[string]string{"ActorID": cmd.ActorID},
	}, false
}

func requireInitialized(state State, cmd command.Command) (command.Rejection, bool) {
	if state.Initialized {
		return command.Rejection{}, true
	}
	return command.Rejection{
		Code:     apperrors.CodeNotFound,
		Message:  "campaign not found",
		Metadata: map[string]string{"CampaignID": cmd.CampaignID},
	}, false
}
