package domain

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/platform/id"
	"github.com/louisbranch/stakedrop/internal/platform/timeouts"
	ledgerapi "github.com/louisbranch/stakedrop/internal/services/ledger/api/grpc/ledger"
)

// LedgerClient is the subset of the ledger gRPC client used by MCP handlers.
type LedgerClient interface {
	Initialize(ctx context.Context, req ledgerapi.InitializeRequest, opts ...grpc.CallOption) (ledgerapi.CampaignResponse, error)
	Join(ctx context.Context, req ledgerapi.JoinRequest, opts ...grpc.CallOption) (ledgerapi.CampaignResponse, error)
	Leave(ctx context.Context, req ledgerapi.LeaveRequest, opts ...grpc.CallOption) (ledgerapi.CampaignResponse, error)
	Distribute(ctx context.Context, req ledgerapi.DistributeRequest, opts ...grpc.CallOption) (ledgerapi.DistributeResponse, error)
	GetCampaign(ctx context.Context, req ledgerapi.GetCampaignRequest, opts ...grpc.CallOption) (ledgerapi.CampaignResponse, error)
	FundAccount(ctx context.Context, req ledgerapi.FundAccountRequest, opts ...grpc.CallOption) (ledgerapi.BalanceResponse, error)
}

// ResourceUpdateNotifier publishes resource update notifications.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates emits one notification per non-empty URI.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

// invocation carries the bounded context and request id of one tool call.
type invocation struct {
	ctx       context.Context
	cancel    context.CancelFunc
	requestID string
}

func newInvocation(ctx context.Context, locale string) (invocation, error) {
	requestID, err := id.NewID()
	if err != nil {
		return invocation{}, fmt.Errorf("generate request id: %w", err)
	}
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	if locale = strings.TrimSpace(locale); locale != "" {
		runCtx = ledgerapi.WithLocale(runCtx, locale)
	}
	return invocation{ctx: runCtx, cancel: cancel, requestID: requestID}, nil
}

// ledgerCallError renders a ledger failure as "<action> failed (<code>): <message>",
// preferring the domain code and localized message carried in status details.
func ledgerCallError(action string, err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return fmt.Errorf("%s failed: %w", action, err)
	}
	message := st.Message()
	for _, detail := range st.Details() {
		if localized, ok := detail.(*errdetails.LocalizedMessage); ok && localized.GetMessage() != "" {
			message = localized.GetMessage()
		}
	}
	code := st.Code().String()
	if domainErr := apperrors.FromGRPCStatus(st); domainErr != nil {
		code = string(domainErr.Code)
	}
	return fmt.Errorf("%s failed (%s): %s", action, code, message)
}
