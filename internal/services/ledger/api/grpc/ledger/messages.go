package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/event"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

// Amounts are encoded as decimal strings so uint64 values survive the
// double-precision numbers of google.protobuf.Struct.

// InitializeRequest creates a campaign.
type InitializeRequest struct {
	CampaignID    string `json:"campaign_id"`
	SponsorID     string `json:"sponsor_id"`
	RewardAssetID string `json:"reward_asset_id"`
	RewardAmount  uint64 `json:"reward_amount,string"`
	// Capacity and StakeAmount fall back to server defaults when zero.
	Capacity    int    `json:"capacity,omitempty"`
	StakeAmount uint64 `json:"stake_amount,string,omitempty"`
	// Proof is a sponsor proof for the initialize action, required when the
	// server enforces proofs.
	Proof     string `json:"proof,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// JoinRequest adds a participant to a campaign roster.
type JoinRequest struct {
	CampaignID    string `json:"campaign_id"`
	ParticipantID string `json:"participant_id"`
	// Proof is a participant proof for the join action, required when the
	// server enforces proofs.
	Proof     string `json:"proof,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// LeaveRequest removes a participant from a campaign roster.
type LeaveRequest struct {
	CampaignID    string `json:"campaign_id"`
	ParticipantID string `json:"participant_id"`
	Proof         string `json:"proof,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// DistributeRequest pays out a campaign's reward pool. The command is issued
// on behalf of the campaign sponsor.
type DistributeRequest struct {
	CampaignID string `json:"campaign_id"`
	// Proof is a sponsor proof for the distribute action.
	Proof     string `json:"proof,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// GetCampaignRequest reads one campaign.
type GetCampaignRequest struct {
	CampaignID string `json:"campaign_id"`
}

// ListCampaignsRequest reads a page of campaigns.
type ListCampaignsRequest struct {
	PageSize  int32  `json:"page_size,omitempty"`
	PageToken string `json:"page_token,omitempty"`
}

// ListEventsRequest reads a page of campaign events.
type ListEventsRequest struct {
	CampaignID string `json:"campaign_id"`
	AfterSeq   uint64 `json:"after_seq,string,omitempty"`
	PageSize   int32  `json:"page_size,omitempty"`
	Filter     string `json:"filter,omitempty"`
}

// GetBalanceRequest reads one account balance. An empty asset id reads the
// native balance.
type GetBalanceRequest struct {
	AccountID string `json:"account_id"`
	AssetID   string `json:"asset_id,omitempty"`
}

// FundAccountRequest credits an account when funding is enabled.
type FundAccountRequest struct {
	AccountID string `json:"account_id"`
	AssetID   string `json:"asset_id,omitempty"`
	Amount    uint64 `json:"amount,string"`
}

// Campaign is the wire form of a campaign record.
type Campaign struct {
	CampaignID       string   `json:"campaign_id"`
	SponsorID        string   `json:"sponsor_id"`
	RewardAssetID    string   `json:"reward_asset_id"`
	RewardPoolAmount uint64   `json:"reward_pool_amount,string"`
	Capacity         int      `json:"capacity"`
	StakeAmount      uint64   `json:"stake_amount,string"`
	Roster           []string `json:"roster"`
	CustodyAccountID string   `json:"custody_account_id"`
	EscrowAmount     uint64   `json:"escrow_amount,string"`
	Distributed      bool     `json:"distributed"`
	ShareAmount      uint64   `json:"share_amount,string"`
	RemainderAmount  uint64   `json:"remainder_amount,string"`
	CreatedAt        string   `json:"created_at,omitempty"`
	UpdatedAt        string   `json:"updated_at,omitempty"`
	DistributedAt    string   `json:"distributed_at,omitempty"`
}

// CampaignResponse wraps one campaign.
type CampaignResponse struct {
	Campaign Campaign `json:"campaign"`
}

// Payout is one participant's distributed share.
type Payout struct {
	ParticipantID string `json:"participant_id"`
	Amount        uint64 `json:"amount,string"`
}

// DistributeResponse reports the payouts of a distribution.
type DistributeResponse struct {
	Campaign Campaign `json:"campaign"`
	Payouts  []Payout `json:"payouts"`
}

// PayoutMap returns the payouts keyed by participant.
func (r DistributeResponse) PayoutMap() map[string]uint64 {
	out := make(map[string]uint64, len(r.Payouts))
	for _, payout := range r.Payouts {
		out[payout.ParticipantID] = payout.Amount
	}
	return out
}

// ListCampaignsResponse is one page of campaigns.
type ListCampaignsResponse struct {
	Campaigns     []Campaign `json:"campaigns"`
	NextPageToken string     `json:"next_page_token,omitempty"`
}

// Event is the wire form of a journal event.
type Event struct {
	CampaignID string          `json:"campaign_id"`
	Seq        uint64          `json:"seq,string"`
	Type       string          `json:"type"`
	Timestamp  string          `json:"timestamp"`
	ActorType  string          `json:"actor_type,omitempty"`
	ActorID    string          `json:"actor_id,omitempty"`
	RequestID  string          `json:"request_id,omitempty"`
	EntityType string          `json:"entity_type,omitempty"`
	EntityID   string          `json:"entity_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
}

// ListEventsResponse is one page of events.
type ListEventsResponse struct {
	Events  []Event `json:"events"`
	LastSeq uint64  `json:"last_seq,string"`
	HasMore bool    `json:"has_more"`
}

// BalanceResponse reports one account balance.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	AssetID   string `json:"asset_id,omitempty"`
	Amount    uint64 `json:"amount,string"`
}

func campaignToWire(state campaign.State) Campaign {
	roster := state.Roster
	if roster == nil {
		roster = []string{}
	}
	return Campaign{
		CampaignID:       state.CampaignID,
		SponsorID:        state.SponsorID,
		RewardAssetID:    state.RewardAssetID,
		RewardPoolAmount: state.RewardPoolAmount,
		Capacity:         state.Capacity,
		StakeAmount:      state.StakeAmount,
		Roster:           roster,
		CustodyAccountID: campaign.CustodyAccount(state.CampaignID),
		EscrowAmount:     state.Escrow(),
		Distributed:      state.Distributed,
		ShareAmount:      state.ShareAmount,
		RemainderAmount:  state.RemainderAmount,
		CreatedAt:        formatTime(state.CreatedAt),
		UpdatedAt:        formatTime(state.UpdatedAt),
		DistributedAt:    formatTime(state.DistributedAt),
	}
}

func eventToWire(evt event.Event) Event {
	out := Event{
		CampaignID: evt.CampaignID,
		Seq:        evt.Seq,
		Type:       string(evt.Type),
		Timestamp:  formatTime(evt.Timestamp),
		ActorType:  string(evt.ActorType),
		ActorID:    evt.ActorID,
		RequestID:  evt.RequestID,
		EntityType: evt.EntityType,
		EntityID:   evt.EntityID,
	}
	if json.Valid(evt.PayloadJSON) {
		out.Payload = json.RawMessage(evt.PayloadJSON)
	}
	return out
}

func balanceToWire(balance storage.Balance) BalanceResponse {
	return BalanceResponse{AccountID: balance.AccountID, AssetID: balance.AssetID, Amount: balance.Amount}
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.UTC().Format(time.RFC3339Nano)
}

// encodeMessage converts a wire type into a Struct message.
func encodeMessage(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return out, nil
}

// decodeMessage converts a Struct message into a wire type.
func decodeMessage(in *structpb.Struct, v any) error {
	if in == nil {
		return errors.New("message is required")
	}
	raw, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	return nil
}
