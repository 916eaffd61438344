package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/stakedrop/internal/platform/timeouts"
	ledgerapi "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
)

const campaignURIPrefix = "airdrop://campaign/"

// CampaignResourceURI returns the resource URI for one campaign.
func CampaignResourceURI(campaignID string) string {
	campaignID = strings.TrimSpace(campaignID)
	if campaignID == "" {
		return ""
	}
	return campaignURIPrefix + campaignID
}

// CampaignResourceTemplate defines the MCP resource template for campaign records.
func CampaignResourceTemplate() *mcp.ResourceTemplate {
	return &mcp.ResourceTemplate{
		Name:        "airdrop_campaign",
		Description: "Readable campaign record with roster, escrow, and distribution state",
		MIMEType:    "application/json",
		URITemplate: campaignURIPrefix + "{campaign_id}",
	}
}

// CampaignResourceHandler reads a campaign record addressed by airdrop://campaign/{campaign_id}.
func CampaignResourceHandler(client LedgerClient) mcp.ResourceHandler {
	return func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		if client == nil {
			return nil, fmt.Errorf("ledger client is not configured")
		}
		if req == nil || req.Params == nil || req.Params.URI == "" {
			return nil, fmt.Errorf("campaign ID is required; use URI format %s{campaign_id}", campaignURIPrefix)
		}
		uri := req.Params.URI
		campaignID, err := parseCampaignURI(uri)
		if err != nil {
			return nil, fmt.Errorf("parse campaign ID from URI: %w", err)
		}

		runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
		defer cancel()

		response, err := client.GetCampaign(runCtx, ledgerapi.GetCampaignRequest{CampaignID: campaignID})
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			return nil, ledgerCallError("campaign get", err)
		}

		data, err := json.MarshalIndent(CampaignPayload{Campaign: campaignFromWire(response.Campaign)}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal campaign: %w", err)
		}
		return &mcp.ReadResourceResult{
			Contents: []*mcp.ResourceContents{
				{
					URI:      uri,
					MIMEType: "application/json",
					Text:     string(data),
				},
			},
		}, nil
	}
}

func parseCampaignURI(uri string) (string, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), campaignURIPrefix)
	if !ok {
		return "", fmt.Errorf("URI must start with %q", campaignURIPrefix)
	}
	rest = strings.TrimSpace(rest)
	if rest == "" || strings.Contains(rest, "/") {
		return "", fmt.Errorf("URI must be %s{campaign_id}", campaignURIPrefix)
	}
	return rest, nil
}
