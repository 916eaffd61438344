package ledger

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
)

func startLedgerServer(t *testing.T, svc *Service) *Client {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	server := grpc.NewServer()
	RegisterLedgerServer(server, NewServer(svc))
	go func() { _ = server.Serve(listener) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(listener.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestClientRoundTrip(t *testing.T) {
	svc, _ := newTestService(t, Options{AllowFunding: true})
	client := startLedgerServer(t, svc)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	const pool = uint64(9_007_199_254_740_993) // beyond float64 integer precision
	if _, err := client.FundAccount(ctx, FundAccountRequest{AccountID: "sponsor", AssetID: "drop", Amount: pool}); err != nil {
		t.Fatalf("fund sponsor: %v", err)
	}
	created, err := client.Initialize(ctx, InitializeRequest{
		CampaignID: "camp-1", SponsorID: "sponsor", RewardAssetID: "drop", RewardAmount: pool, Capacity: 1, StakeAmount: 100,
	})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if created.Campaign.RewardPoolAmount != pool {
		t.Fatalf("pool = %d, want %d", created.Campaign.RewardPoolAmount, pool)
	}

	if _, err := client.FundAccount(ctx, FundAccountRequest{AccountID: "A", Amount: 100}); err != nil {
		t.Fatalf("fund A: %v", err)
	}
	if _, err := client.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	got, err := client.GetCampaign(ctx, GetCampaignRequest{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("get campaign: %v", err)
	}
	if len(got.Campaign.Roster) != 1 || got.Campaign.Roster[0] != "A" || got.Campaign.CreatedAt == "" {
		t.Fatalf("campaign = %+v", got.Campaign)
	}

	dist, err := client.Distribute(ctx, DistributeRequest{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if dist.PayoutMap()["A"] != pool {
		t.Fatalf("payouts = %+v", dist.Payouts)
	}

	events, err := client.ListEvents(ctx, ListEventsRequest{CampaignID: "camp-1", PageSize: 2})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events.Events) != 2 || !events.HasMore || events.LastSeq != 2 {
		t.Fatalf("events = %+v", events)
	}
}

func TestClientReceivesLocalizedDomainErrors(t *testing.T) {
	svc, _ := newTestService(t, Options{AllowFunding: true})
	client := startLedgerServer(t, svc)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Initialize(ctx, InitializeRequest{CampaignID: "camp-1", SponsorID: "s", RewardAssetID: "drop", Capacity: 1, StakeAmount: 1}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	for _, id := range []string{"A", "B"} {
		if _, err := client.FundAccount(ctx, FundAccountRequest{AccountID: id, Amount: 1}); err != nil {
			t.Fatalf("fund: %v", err)
		}
	}
	if _, err := client.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A"}); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := client.Join(WithLocale(ctx, "pt-BR,pt;q=0.9"), JoinRequest{CampaignID: "camp-1", ParticipantID: "B"})
	st := status.Convert(err)
	if st.Code() != codes.FailedPrecondition {
		t.Fatalf("code = %v, want %v", st.Code(), codes.FailedPrecondition)
	}
	domainErr := apperrors.FromGRPCStatus(st)
	if domainErr == nil || domainErr.Code != apperrors.CodeRosterFull || domainErr.Metadata["Capacity"] != "1" {
		t.Fatalf("domain error = %+v", domainErr)
	}
	var localized *errdetails.LocalizedMessage
	for _, detail := range st.Details() {
		if msg, ok := detail.(*errdetails.LocalizedMessage); ok {
			localized = msg
		}
	}
	if localized == nil || localized.GetLocale() != "pt-BR" {
		t.Fatalf("localized = %v", localized)
	}

	_, err = client.Leave(ctx, LeaveRequest{CampaignID: "camp-1", ParticipantID: "Z"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("leave unknown code = %v, want %v", status.Code(err), codes.NotFound)
	}
}

func TestServerRejectsMalformedMessages(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	server := NewServer(svc)
	in, err := structpb.NewStruct(map[string]any{"reward_amount": 12})
	if err != nil {
		t.Fatalf("new struct: %v", err)
	}
	_, err = server.Initialize(context.Background(), in)
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
	if _, err := server.GetCampaign(context.Background(), nil); status.Code(err) != codes.InvalidArgument {
		t.Fatalf("nil message code = %v", status.Code(err))
	}
}

func TestLocaleFromContext(t *testing.T) {
	if got := localeFromContext(context.Background()); got != "" {
		t.Fatalf("locale = %q", got)
	}
}
