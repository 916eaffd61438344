package ledger

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"
)

// LocaleHeader carries the caller's preferred locale for error messages.
const LocaleHeader = "accept-language"

// WithLocale returns a context that asks the server for messages in locale.
func WithLocale(ctx context.Context, locale string) context.Context {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ctx
	}
	return metadata.AppendToOutgoingContext(ctx, LocaleHeader, locale)
}

// Client calls the ledger service with typed requests.
type Client struct {
	conn grpc.ClientConnInterface
}

// NewClient wraps conn.
func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Initialize creates a campaign.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest, opts ...grpc.CallOption) (CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c.conn, InitializeMethod, req, opts...)
}

// Join adds a participant to a campaign.
func (c *Client) Join(ctx context.Context, req JoinRequest, opts ...grpc.CallOption) (CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c.conn, JoinMethod, req, opts...)
}

// Leave removes a participant from a campaign.
func (c *Client) Leave(ctx context.Context, req LeaveRequest, opts ...grpc.CallOption) (CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c.conn, LeaveMethod, req, opts...)
}

// Distribute pays out a campaign.
func (c *Client) Distribute(ctx context.Context, req DistributeRequest, opts ...grpc.CallOption) (DistributeResponse, error) {
	return invoke[DistributeResponse](ctx, c.conn, DistributeMethod, req, opts...)
}

// GetCampaign reads one campaign.
func (c *Client) GetCampaign(ctx context.Context, req GetCampaignRequest, opts ...grpc.CallOption) (CampaignResponse, error) {
	return invoke[CampaignResponse](ctx, c.conn, GetCampaignMethod, req, opts...)
}

// ListCampaigns reads a page of campaigns.
func (c *Client) ListCampaigns(ctx context.Context, req ListCampaignsRequest, opts ...grpc.CallOption) (ListCampaignsResponse, error) {
	return invoke[ListCampaignsResponse](ctx, c.conn, ListCampaignsMethod, req, opts...)
}

// ListEvents reads a page of campaign events.
func (c *Client) ListEvents(ctx context.Context, req ListEventsRequest, opts ...grpc.CallOption) (ListEventsResponse, error) {
	return invoke[ListEventsResponse](ctx, c.conn, ListEventsMethod, req, opts...)
}

// GetBalance reads an account balance.
func (c *Client) GetBalance(ctx context.Context, req GetBalanceRequest, opts ...grpc.CallOption) (BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.conn, GetBalanceMethod, req, opts...)
}

// FundAccount credits an account.
func (c *Client) FundAccount(ctx context.Context, req FundAccountRequest, opts ...grpc.CallOption) (BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.conn, FundAccountMethod, req, opts...)
}

func invoke[Resp any](ctx context.Context, conn grpc.ClientConnInterface, method string, req any, opts ...grpc.CallOption) (Resp, error) {
	var resp Resp
	in, err := encodeMessage(req)
	if err != nil {
		return resp, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, method, in, out, opts...); err != nil {
		return resp, err
	}
	if err := decodeMessage(out, &resp); err != nil {
		return resp, err
	}
	return resp, nil
}
