package domain

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/stakedrop/internal/platform/id"
	ledgerapi "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
)

// InitializeHandler executes a campaign initialize request.
func InitializeHandler(client LedgerClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[InitializeInput, CampaignResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input InitializeInput) (*mcp.CallToolResult, CampaignResult, error) {
		if client == nil {
			return nil, CampaignResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		defer call.cancel()

		rewardAmount, err := parseAmount("reward_amount", input.RewardAmount, false)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		stakeAmount, err := parseAmount("stake_amount", input.StakeAmount, true)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		campaignID := strings.TrimSpace(input.CampaignID)
		if campaignID == "" {
			campaignID, err = id.NewID()
			if err != nil {
				return nil, CampaignResult{}, fmt.Errorf("generate campaign id: %w", err)
			}
		}
		response, err := client.Initialize(call.ctx, ledgerapi.InitializeRequest{
			CampaignID:    campaignID,
			SponsorID:     input.SponsorID,
			RewardAssetID: input.RewardAssetID,
			RewardAmount:  rewardAmount,
			Capacity:      input.Capacity,
			StakeAmount:   stakeAmount,
			Proof:         input.Proof,
			RequestID:     call.requestID,
		})
		if err != nil {
			return nil, CampaignResult{}, ledgerCallError("campaign initialize", err)
		}
		result := campaignFromWire(response.Campaign)
		NotifyResourceUpdates(ctx, notify, CampaignResourceURI(result.ID))
		return nil, result, nil
	}
}

// JoinHandler executes a roster join request.
func JoinHandler(client LedgerClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RosterInput, CampaignResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RosterInput) (*mcp.CallToolResult, CampaignResult, error) {
		if client == nil {
			return nil, CampaignResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		defer call.cancel()

		response, err := client.Join(call.ctx, ledgerapi.JoinRequest{
			CampaignID:    input.CampaignID,
			ParticipantID: input.ParticipantID,
			Proof:         input.Proof,
			RequestID:     call.requestID,
		})
		if err != nil {
			return nil, CampaignResult{}, ledgerCallError("campaign join", err)
		}
		result := campaignFromWire(response.Campaign)
		NotifyResourceUpdates(ctx, notify, CampaignResourceURI(result.ID))
		return nil, result, nil
	}
}

// LeaveHandler executes a roster leave request.
func LeaveHandler(client LedgerClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RosterInput, CampaignResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RosterInput) (*mcp.CallToolResult, CampaignResult, error) {
		if client == nil {
			return nil, CampaignResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		defer call.cancel()

		response, err := client.Leave(call.ctx, ledgerapi.LeaveRequest{
			CampaignID:    input.CampaignID,
			ParticipantID: input.ParticipantID,
			Proof:         input.Proof,
			RequestID:     call.requestID,
		})
		if err != nil {
			return nil, CampaignResult{}, ledgerCallError("campaign leave", err)
		}
		result := campaignFromWire(response.Campaign)
		NotifyResourceUpdates(ctx, notify, CampaignResourceURI(result.ID))
		return nil, result, nil
	}
}

// DistributeHandler executes a reward distribution request.
func DistributeHandler(client LedgerClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[DistributeInput, DistributeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input DistributeInput) (*mcp.CallToolResult, DistributeResult, error) {
		if client == nil {
			return nil, DistributeResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, DistributeResult{}, err
		}
		defer call.cancel()

		response, err := client.Distribute(call.ctx, ledgerapi.DistributeRequest{
			CampaignID: input.CampaignID,
			Proof:      input.Proof,
			RequestID:  call.requestID,
		})
		if err != nil {
			return nil, DistributeResult{}, ledgerCallError("reward distribution", err)
		}
		result := DistributeResult{
			Campaign: campaignFromWire(response.Campaign),
			Payouts:  make([]PayoutResult, 0, len(response.Payouts)),
		}
		for _, payout := range response.Payouts {
			result.Payouts = append(result.Payouts, PayoutResult{ParticipantID: payout.ParticipantID, Amount: payout.Amount})
		}
		NotifyResourceUpdates(ctx, notify, CampaignResourceURI(result.Campaign.ID))
		return nil, result, nil
	}
}

// CampaignGetHandler reads a campaign record.
func CampaignGetHandler(client LedgerClient) mcp.ToolHandlerFor[CampaignInput, CampaignResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CampaignInput) (*mcp.CallToolResult, CampaignResult, error) {
		if client == nil {
			return nil, CampaignResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, CampaignResult{}, err
		}
		defer call.cancel()

		response, err := client.GetCampaign(call.ctx, ledgerapi.GetCampaignRequest{CampaignID: input.CampaignID})
		if err != nil {
			return nil, CampaignResult{}, ledgerCallError("campaign get", err)
		}
		return nil, campaignFromWire(response.Campaign), nil
	}
}

// FundHandler credits a development account.
func FundHandler(client LedgerClient) mcp.ToolHandlerFor[FundInput, FundResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input FundInput) (*mcp.CallToolResult, FundResult, error) {
		if client == nil {
			return nil, FundResult{}, fmt.Errorf("ledger client is not configured")
		}
		call, err := newInvocation(ctx, input.Locale)
		if err != nil {
			return nil, FundResult{}, err
		}
		defer call.cancel()

		amount, err := parseAmount("amount", input.Amount, false)
		if err != nil {
			return nil, FundResult{}, err
		}
		response, err := client.FundAccount(call.ctx, ledgerapi.FundAccountRequest{
			AccountID: input.AccountID,
			AssetID:   input.AssetID,
			Amount:    amount,
		})
		if err != nil {
			return nil, FundResult{}, ledgerCallError("account funding", err)
		}
		return nil, FundResult{AccountID: response.AccountID, AssetID: response.AssetID, Amount: response.Amount}, nil
	}
}
