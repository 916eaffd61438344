package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/stakedrop/internal/services/mcp/domain"
)

func registerAirdropTools(server *mcp.Server, client domain.LedgerClient, notify domain.ResourceUpdateNotifier) {
	mcp.AddTool(server, domain.InitializeTool(), domain.InitializeHandler(client, notify))
	mcp.AddTool(server, domain.JoinTool(), domain.JoinHandler(client, notify))
	mcp.AddTool(server, domain.LeaveTool(), domain.LeaveHandler(client, notify))
	mcp.AddTool(server, domain.DistributeTool(), domain.DistributeHandler(client, notify))
	mcp.AddTool(server, domain.CampaignGetTool(), domain.CampaignGetHandler(client))
	mcp.AddTool(server, domain.FundTool(), domain.FundHandler(client))
}

func registerAirdropResources(server *mcp.Server, client domain.LedgerClient) {
	server.AddResourceTemplate(domain.CampaignResourceTemplate(), domain.CampaignResourceHandler(client))
}
