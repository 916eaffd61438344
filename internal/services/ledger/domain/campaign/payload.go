package campaign

// InitializePayload captures the payload for campaign.initialize commands.
type InitializePayload struct {
	SponsorID     string `json:"sponsor_id"`
	RewardAssetID string `json:"reward_asset_id"`
	RewardAmount  uint64 `json:"reward_amount"`
	Capacity      int    `json:"capacity"`
	StakeAmount   uint64 `json:"stake_amount"`
}

// InitializedPayload captures the payload for campaign.initialized events.
type InitializedPayload struct {
	SponsorID        string `json:"sponsor_id"`
	RewardAssetID    string `json:"reward_asset_id"`
	RewardPoolAmount uint64 `json:"reward_pool_amount"`
	Capacity         int    `json:"capacity"`
	StakeAmount      uint64 `json:"stake_amount"`
	CustodyAccountID string `json:"custody_account_id"`
}

// JoinPayload captures the payload for participant.join commands.
type JoinPayload struct {
	ParticipantID string `json:"participant_id"`
}

// LeavePayload captures the payload for participant.leave commands.
type LeavePayload struct {
	ParticipantID string `json:"participant_id"`
}

// RosterChangedPayload captures the payload for participant.joined and
// participant.left events.
type RosterChangedPayload struct {
	ParticipantID string `json:"participant_id"`
	StakeAmount   uint64 `json:"stake_amount"`
	RosterSize    int    `json:"roster_size"`
}

// Payout is one participant's share of a distribution.
type Payout struct {
	ParticipantID string `json:"participant_id"`
	Amount        uint64 `json:"amount"`
}

// DistributedPayload captures the payload for rewards.distributed events.
type DistributedPayload struct {
	RewardAssetID    string   `json:"reward_asset_id"`
	RewardPoolAmount uint64   `json:"reward_pool_amount"`
	ShareAmount      uint64   `json:"share_amount"`
	RemainderAmount  uint64   `json:"remainder_amount"`
	Payouts          []Payout `json:"payouts"`
}

// PayoutMap returns the payouts keyed by participant.
func (p DistributedPayload) PayoutMap() map[string]uint64 {
	out := make(map[string]uint64, len(p.Payouts))
	for _, payout := range p.Payouts {
		out[payout.ParticipantID] = payout.Amount
	}
	return out
}
