package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	ledgerapi "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
)

// Amounts are taken as decimal strings so values past 2^53 survive JSON
// clients that decode numbers as float64.

// InitializeInput represents the MCP tool input for campaign creation.
type InitializeInput struct {
	CampaignID    string `json:"campaign_id,omitempty" jsonschema:"campaign identifier; generated when omitted"`
	SponsorID     string `json:"sponsor_id" jsonschema:"account funding the reward pool"`
	RewardAssetID string `json:"reward_asset_id" jsonschema:"asset distributed to participants"`
	RewardAmount  string `json:"reward_amount" jsonschema:"reward pool in asset minor units, as a decimal string"`
	Capacity      int    `json:"capacity,omitempty" jsonschema:"maximum roster size; server default when omitted"`
	StakeAmount   string `json:"stake_amount,omitempty" jsonschema:"native stake per participant as a decimal string; server default when omitted"`
	Proof         string `json:"proof,omitempty" jsonschema:"signed sponsor proof when the ledger enforces proofs"`
	Locale        string `json:"locale,omitempty" jsonschema:"preferred locale for error messages (en-US, pt-BR)"`
}

// RosterInput represents the MCP tool input for joining or leaving a campaign.
type RosterInput struct {
	CampaignID    string `json:"campaign_id" jsonschema:"campaign identifier"`
	ParticipantID string `json:"participant_id" jsonschema:"participant account identifier"`
	Proof         string `json:"proof,omitempty" jsonschema:"signed participant proof when the ledger enforces proofs"`
	Locale        string `json:"locale,omitempty" jsonschema:"preferred locale for error messages (en-US, pt-BR)"`
}

// DistributeInput represents the MCP tool input for paying out a campaign.
type DistributeInput struct {
	CampaignID string `json:"campaign_id" jsonschema:"campaign identifier"`
	Proof      string `json:"proof,omitempty" jsonschema:"signed sponsor proof when the ledger enforces proofs"`
	Locale     string `json:"locale,omitempty" jsonschema:"preferred locale for error messages (en-US, pt-BR)"`
}

// CampaignInput represents the MCP tool input for campaign-scoped calls.
type CampaignInput struct {
	CampaignID string `json:"campaign_id" jsonschema:"campaign identifier"`
	Locale     string `json:"locale,omitempty" jsonschema:"preferred locale for error messages (en-US, pt-BR)"`
}

// FundInput represents the MCP tool input for crediting a development account.
type FundInput struct {
	AccountID string `json:"account_id" jsonschema:"account to credit"`
	AssetID   string `json:"asset_id,omitempty" jsonschema:"asset to credit; native currency when omitted"`
	Amount    string `json:"amount" jsonschema:"amount in minor units, as a decimal string"`
	Locale    string `json:"locale,omitempty" jsonschema:"preferred locale for error messages (en-US, pt-BR)"`
}

// CampaignResult represents a campaign record returned by MCP tools and resources.
type CampaignResult struct {
	ID               string   `json:"id" jsonschema:"campaign identifier"`
	SponsorID        string   `json:"sponsor_id" jsonschema:"sponsor account"`
	RewardAssetID    string   `json:"reward_asset_id" jsonschema:"reward asset"`
	RewardPoolAmount uint64   `json:"reward_pool_amount" jsonschema:"reward pool deposited at creation"`
	Capacity         int      `json:"capacity" jsonschema:"maximum roster size"`
	StakeAmount      uint64   `json:"stake_amount" jsonschema:"native stake per participant"`
	Roster           []string `json:"roster" jsonschema:"participants in join order"`
	CustodyAccountID string   `json:"custody_account_id" jsonschema:"account holding stakes and rewards"`
	EscrowAmount     uint64   `json:"escrow_amount" jsonschema:"stake currently held for the roster"`
	Distributed      bool     `json:"distributed" jsonschema:"whether rewards were paid out"`
	ShareAmount      uint64   `json:"share_amount,omitempty" jsonschema:"per-participant share after distribution"`
	RemainderAmount  uint64   `json:"remainder_amount,omitempty" jsonschema:"undistributed remainder kept in custody"`
	CreatedAt        string   `json:"created_at,omitempty" jsonschema:"RFC3339 timestamp when campaign was created"`
	UpdatedAt        string   `json:"updated_at,omitempty" jsonschema:"RFC3339 timestamp when campaign was last updated"`
	DistributedAt    string   `json:"distributed_at,omitempty" jsonschema:"RFC3339 timestamp of the distribution"`
}

// PayoutResult is one participant's distributed share.
type PayoutResult struct {
	ParticipantID string `json:"participant_id" jsonschema:"participant account"`
	Amount        uint64 `json:"amount" jsonschema:"share paid in reward asset minor units"`
}

// DistributeResult represents the MCP tool output for a distribution.
type DistributeResult struct {
	Campaign CampaignResult `json:"campaign" jsonschema:"campaign after distribution"`
	Payouts  []PayoutResult `json:"payouts" jsonschema:"payouts in roster order"`
}

// FundResult represents an account balance after funding.
type FundResult struct {
	AccountID string `json:"account_id" jsonschema:"credited account"`
	AssetID   string `json:"asset_id,omitempty" jsonschema:"credited asset; empty for native"`
	Amount    uint64 `json:"amount" jsonschema:"balance after the credit"`
}

// CampaignPayload represents the MCP resource payload for a single campaign.
type CampaignPayload struct {
	Campaign CampaignResult `json:"campaign"`
}

// InitializeTool defines the MCP tool schema for creating a campaign.
func InitializeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_initialize",
		Description: "Creates an airdrop campaign and moves the sponsor's reward pool into custody",
	}
}

// JoinTool defines the MCP tool schema for joining a campaign.
func JoinTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_join",
		Description: "Adds a participant to a campaign roster and escrows their stake",
	}
}

// LeaveTool defines the MCP tool schema for leaving a campaign.
func LeaveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_leave",
		Description: "Removes a participant from a campaign roster and refunds their stake",
	}
}

// DistributeTool defines the MCP tool schema for paying out rewards.
func DistributeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_distribute",
		Description: "Splits the reward pool equally across the roster; the remainder stays in custody",
	}
}

// CampaignGetTool defines the MCP tool schema for reading a campaign.
func CampaignGetTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_campaign_get",
		Description: "Returns a campaign record with its roster and distribution state",
	}
}

// FundTool defines the MCP tool schema for crediting development accounts.
func FundTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "airdrop_fund",
		Description: "Credits native or asset balance to an account when the ledger allows funding",
	}
}

func campaignFromWire(in ledgerapi.Campaign) CampaignResult {
	roster := in.Roster
	if roster == nil {
		roster = []string{}
	}
	return CampaignResult{
		ID:               in.CampaignID,
		SponsorID:        in.SponsorID,
		RewardAssetID:    in.RewardAssetID,
		RewardPoolAmount: in.RewardPoolAmount,
		Capacity:         in.Capacity,
		StakeAmount:      in.StakeAmount,
		Roster:           roster,
		CustodyAccountID: in.CustodyAccountID,
		EscrowAmount:     in.EscrowAmount,
		Distributed:      in.Distributed,
		ShareAmount:      in.ShareAmount,
		RemainderAmount:  in.RemainderAmount,
		CreatedAt:        in.CreatedAt,
		UpdatedAt:        in.UpdatedAt,
		DistributedAt:    in.DistributedAt,
	}
}

// parseAmount reads a decimal minor-unit amount. Empty reads as zero when
// optional.
func parseAmount(field, value string, optional bool) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if optional {
			return 0, nil
		}
		return 0, fmt.Errorf("%s is required", field)
	}
	amount, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a non-negative decimal integer: %q", field, value)
	}
	return amount, nil
}
