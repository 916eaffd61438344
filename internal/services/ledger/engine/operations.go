package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
)

// Actor identifies who issued a command.
type Actor struct {
	Type      command.ActorType
	ID        string
	RequestID string
}

// InitializeInput carries campaign creation parameters.
type InitializeInput struct {
	CampaignID    string
	SponsorID     string
	RewardAssetID string
	RewardAmount  uint64
	Capacity      int
	StakeAmount   uint64
}

// Initialize creates a campaign and moves the reward pool into custody.
// Zero capacity or stake take the engine defaults.
func (e *Engine) Initialize(ctx context.Context, actor Actor, in InitializeInput) (Result, error) {
	if in.Capacity == 0 {
		in.Capacity = e.defaults.Capacity
	}
	if in.StakeAmount == 0 {
		in.StakeAmount = e.defaults.StakeAmount
	}
	return e.run(ctx, actor, in.CampaignID, campaign.CommandTypeInitialize, campaign.InitializePayload{
		SponsorID:     in.SponsorID,
		RewardAssetID: in.RewardAssetID,
		RewardAmount:  in.RewardAmount,
		Capacity:      in.Capacity,
		StakeAmount:   in.StakeAmount,
	})
}

// Join adds participantID to the roster and escrows the stake.
func (e *Engine) Join(ctx context.Context, actor Actor, campaignID, participantID string) (Result, error) {
	return e.run(ctx, actor, campaignID, campaign.CommandTypeJoin, campaign.JoinPayload{ParticipantID: participantID})
}

// Leave removes participantID from the roster and refunds the stake.
func (e *Engine) Leave(ctx context.Context, actor Actor, campaignID, participantID string) (Result, error) {
	return e.run(ctx, actor, campaignID, campaign.CommandTypeLeave, campaign.LeavePayload{ParticipantID: participantID})
}

// Distribute pays every rostered participant an equal share of the pool.
func (e *Engine) Distribute(ctx context.Context, actor Actor, campaignID string) (Result, error) {
	return e.run(ctx, actor, campaignID, campaign.CommandTypeDistribute, struct{}{})
}

func (e *Engine) run(ctx context.Context, actor Actor, campaignID string, cmdType command.Type, payload any) (Result, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode %s payload: %w", cmdType, err)
	}
	return e.Execute(ctx, command.Command{
		CampaignID:  campaignID,
		Type:        cmdType,
		ActorType:   actor.Type,
		ActorID:     actor.ID,
		RequestID:   actor.RequestID,
		PayloadJSON: payloadJSON,
	})
}
