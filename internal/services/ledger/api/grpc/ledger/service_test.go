package ledger

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/services/ledger/authz"
	"github.com/louisbranch/stakedrop/internal/services/ledger/engine"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage/sqlite"
)

func newTestService(t *testing.T, opts Options) (*Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	e, err := engine.New(store, engine.WithDefaults(engine.Defaults{Capacity: 3, StakeAmount: 100}))
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return NewService(e, store, opts), store
}

func fund(t *testing.T, svc *Service, accountID, assetID string, amount uint64) {
	t.Helper()
	if _, err := svc.FundAccount(context.Background(), FundAccountRequest{AccountID: accountID, AssetID: assetID, Amount: amount}); err != nil {
		t.Fatalf("fund %s: %v", accountID, err)
	}
}

func assertAppCode(t *testing.T, err error, want apperrors.Code) {
	t.Helper()
	if got := apperrors.CodeOf(err); got != want {
		t.Fatalf("code = %s, want %s (err=%v)", got, want, err)
	}
}

func TestServiceRequiresDependencies(t *testing.T) {
	svc := NewService(nil, nil, Options{})
	_, err := svc.GetCampaign(context.Background(), GetCampaignRequest{CampaignID: "c"})
	if status.Code(err) != codes.Internal {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.Internal)
	}
}

func TestServiceCampaignFlow(t *testing.T) {
	svc, _ := newTestService(t, Options{AllowFunding: true})
	ctx := context.Background()
	fund(t, svc, "sponsor", "drop", 10)
	for _, id := range []string{"A", "B", "C", "D"} {
		fund(t, svc, id, "", 100)
	}

	created, err := svc.Initialize(ctx, InitializeRequest{CampaignID: "camp-1", SponsorID: "sponsor", RewardAssetID: "drop", RewardAmount: 10})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if created.Campaign.Capacity != 3 || created.Campaign.StakeAmount != 100 {
		t.Fatalf("defaults not applied: %+v", created.Campaign)
	}
	if created.Campaign.CustodyAccountID != "custody:camp-1" {
		t.Fatalf("custody = %q", created.Campaign.CustodyAccountID)
	}

	for _, id := range []string{"A", "B", "C"} {
		if _, err := svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	_, err = svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "D"})
	assertAppCode(t, err, apperrors.CodeRosterFull)

	left, err := svc.Leave(ctx, LeaveRequest{CampaignID: "camp-1", ParticipantID: "B"})
	if err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(left.Campaign.Roster) != 2 || left.Campaign.EscrowAmount != 200 {
		t.Fatalf("after leave = %+v", left.Campaign)
	}

	dist, err := svc.Distribute(ctx, DistributeRequest{CampaignID: "camp-1"})
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(dist.Payouts) != 2 || dist.Payouts[0].ParticipantID != "A" || dist.Payouts[1].ParticipantID != "C" {
		t.Fatalf("payouts = %+v", dist.Payouts)
	}
	if dist.Payouts[0].Amount != 5 || dist.Campaign.RemainderAmount != 0 || !dist.Campaign.Distributed {
		t.Fatalf("distribution = %+v", dist)
	}

	balance, err := svc.GetBalance(ctx, GetBalanceRequest{AccountID: "A", AssetID: "drop"})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount != 5 {
		t.Fatalf("reward balance = %d, want 5", balance.Amount)
	}

	events, err := svc.ListEvents(ctx, ListEventsRequest{CampaignID: "camp-1", Filter: `type = "participant.joined"`})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events.Events) != 3 || events.Events[0].EntityID != "A" || len(events.Events[0].Payload) == 0 {
		t.Fatalf("events = %+v", events.Events)
	}
}

func TestServiceGetCampaignErrors(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.GetCampaign(context.Background(), GetCampaignRequest{CampaignID: " "})
	assertAppCode(t, err, apperrors.CodeCampaignIDRequired)

	_, err = svc.GetCampaign(context.Background(), GetCampaignRequest{CampaignID: "missing"})
	assertAppCode(t, err, apperrors.CodeNotFound)
}

func TestServiceInitializeRejectsNegativeCapacity(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.Initialize(context.Background(), InitializeRequest{CampaignID: "c", SponsorID: "s", RewardAssetID: "a", Capacity: -1})
	assertAppCode(t, err, apperrors.CodeCampaignCapacityInvalid)
}

func TestServiceListEventsInvalidFilter(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.ListEvents(context.Background(), ListEventsRequest{CampaignID: "c", Filter: "nope ="})
	assertAppCode(t, err, apperrors.CodeEventFilterFailed)
	if !errors.Is(err, storage.ErrInvalidFilter) {
		t.Fatalf("expected filter cause, got %v", err)
	}
}

func TestServiceListCampaignsInvalidToken(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	_, err := svc.ListCampaigns(context.Background(), ListCampaignsRequest{PageToken: "%%%"})
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("code = %v, want %v", status.Code(err), codes.InvalidArgument)
	}
}

func TestServiceListCampaignsPages(t *testing.T) {
	svc, _ := newTestService(t, Options{})
	for _, id := range []string{"c-1", "c-2", "c-3"} {
		if _, err := svc.Initialize(context.Background(), InitializeRequest{CampaignID: id, SponsorID: "s", RewardAssetID: "a"}); err != nil {
			t.Fatalf("initialize %s: %v", id, err)
		}
	}
	page, err := svc.ListCampaigns(context.Background(), ListCampaignsRequest{PageSize: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Campaigns) != 2 || page.NextPageToken == "" {
		t.Fatalf("page = %+v", page)
	}
	next, err := svc.ListCampaigns(context.Background(), ListCampaignsRequest{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list next: %v", err)
	}
	if len(next.Campaigns) != 1 || next.Campaigns[0].CampaignID != "c-3" {
		t.Fatalf("next = %+v", next)
	}
}

func TestServiceFunding(t *testing.T) {
	disabled, _ := newTestService(t, Options{})
	_, err := disabled.FundAccount(context.Background(), FundAccountRequest{AccountID: "A", Amount: 1})
	assertAppCode(t, err, apperrors.CodeFundingDisabled)

	svc, _ := newTestService(t, Options{AllowFunding: true})
	tests := []struct {
		name string
		req  FundAccountRequest
		want apperrors.Code
	}{
		{name: "missing account", req: FundAccountRequest{Amount: 1}, want: apperrors.CodeFundingInvalid},
		{name: "custody account", req: FundAccountRequest{AccountID: "custody:c", Amount: 1}, want: apperrors.CodeFundingInvalid},
		{name: "zero amount", req: FundAccountRequest{AccountID: "A"}, want: apperrors.CodeFundingInvalid},
		{name: "overflow", req: FundAccountRequest{AccountID: "A", Amount: 1 << 63}, want: apperrors.CodeAmountOutOfRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FundAccount(context.Background(), tt.req)
			assertAppCode(t, err, tt.want)
		})
	}
}

func newProofService(t *testing.T) (*Service, ed25519.PrivateKey, time.Time) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	now := time.Now()
	verifier := authz.NewVerifier(authz.Config{Issuer: "iss", Audience: "ledger", Key: pub, Now: func() time.Time { return now }})
	svc, _ := newTestService(t, Options{AllowFunding: true, Proofs: verifier})
	return svc, priv, now
}

func signProof(t *testing.T, priv ed25519.PrivateKey, now time.Time, action authz.Action, campaignID, accountID, jti string) string {
	t.Helper()
	proof, err := authz.Sign(priv, authz.SignInput{
		Issuer:     "iss",
		Audience:   "ledger",
		Action:     action,
		CampaignID: campaignID,
		AccountID:  accountID,
		JWTID:      jti,
		IssuedAt:   now,
		TTL:        time.Minute,
	})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return proof
}

func TestServiceEnforcesProofs(t *testing.T) {
	svc, priv, now := newProofService(t)
	ctx := context.Background()
	fund(t, svc, "A", "", 100)
	fund(t, svc, "s", "drop", 10)
	initProof := signProof(t, priv, now, authz.ActionInitialize, "camp-1", "s", "init-1")
	if _, err := svc.Initialize(ctx, InitializeRequest{CampaignID: "camp-1", SponsorID: "s", RewardAssetID: "drop", RewardAmount: 10, Proof: initProof}); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	_, err := svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A"})
	assertAppCode(t, err, apperrors.CodeProofInvalid)

	otherProof := signProof(t, priv, now, authz.ActionJoin, "camp-1", "B", "join-b")
	_, err = svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: otherProof})
	assertAppCode(t, err, apperrors.CodeProofMismatch)

	joinProof := signProof(t, priv, now, authz.ActionJoin, "camp-1", "A", "join-a")
	if _, err := svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: joinProof}); err != nil {
		t.Fatalf("join with proof: %v", err)
	}

	_, err = svc.Leave(ctx, LeaveRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: joinProof})
	assertAppCode(t, err, apperrors.CodeProofMismatch)

	leaveProof := signProof(t, priv, now, authz.ActionLeave, "camp-1", "A", "leave-a")
	if _, err := svc.Leave(ctx, LeaveRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: leaveProof}); err != nil {
		t.Fatalf("leave with proof: %v", err)
	}

	// Rejoining with the spent join proof must not re-escrow.
	_, err = svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: joinProof})
	assertAppCode(t, err, apperrors.CodeProofReused)
	balance, err := svc.GetBalance(ctx, GetBalanceRequest{AccountID: "A"})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount != 100 {
		t.Fatalf("A balance = %d, want 100", balance.Amount)
	}
}

func TestServiceInitializeRequiresSponsorProof(t *testing.T) {
	svc, priv, now := newProofService(t)
	ctx := context.Background()
	fund(t, svc, "victim", "drop", 1000)

	req := InitializeRequest{CampaignID: "attacker-camp", SponsorID: "victim", RewardAssetID: "drop", RewardAmount: 1000}
	_, err := svc.Initialize(ctx, req)
	assertAppCode(t, err, apperrors.CodeProofInvalid)

	req.Proof = signProof(t, priv, now, authz.ActionInitialize, "attacker-camp", "attacker", "init-attacker")
	_, err = svc.Initialize(ctx, req)
	assertAppCode(t, err, apperrors.CodeProofMismatch)

	req.Proof = signProof(t, priv, now, authz.ActionJoin, "attacker-camp", "victim", "join-victim")
	_, err = svc.Initialize(ctx, req)
	assertAppCode(t, err, apperrors.CodeProofMismatch)

	balance, err := svc.GetBalance(ctx, GetBalanceRequest{AccountID: "victim", AssetID: "drop"})
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance.Amount != 1000 {
		t.Fatalf("victim balance = %d, want 1000", balance.Amount)
	}
	_, err = svc.GetCampaign(ctx, GetCampaignRequest{CampaignID: "attacker-camp"})
	assertAppCode(t, err, apperrors.CodeNotFound)

	req.Proof = signProof(t, priv, now, authz.ActionInitialize, "attacker-camp", "victim", "init-victim")
	if _, err := svc.Initialize(ctx, req); err != nil {
		t.Fatalf("initialize with sponsor proof: %v", err)
	}
}

func TestServiceDistributeRequiresSponsorProof(t *testing.T) {
	svc, priv, now := newProofService(t)
	ctx := context.Background()
	fund(t, svc, "s", "drop", 10)
	fund(t, svc, "A", "", 100)
	initProof := signProof(t, priv, now, authz.ActionInitialize, "camp-1", "s", "init-1")
	if _, err := svc.Initialize(ctx, InitializeRequest{CampaignID: "camp-1", SponsorID: "s", RewardAssetID: "drop", RewardAmount: 10, Proof: initProof}); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	joinProof := signProof(t, priv, now, authz.ActionJoin, "camp-1", "A", "join-a")
	if _, err := svc.Join(ctx, JoinRequest{CampaignID: "camp-1", ParticipantID: "A", Proof: joinProof}); err != nil {
		t.Fatalf("join: %v", err)
	}

	_, err := svc.Distribute(ctx, DistributeRequest{CampaignID: "camp-1"})
	assertAppCode(t, err, apperrors.CodeProofInvalid)

	participantProof := signProof(t, priv, now, authz.ActionDistribute, "camp-1", "A", "dist-a")
	_, err = svc.Distribute(ctx, DistributeRequest{CampaignID: "camp-1", Proof: participantProof})
	assertAppCode(t, err, apperrors.CodeProofMismatch)

	_, err = svc.Distribute(ctx, DistributeRequest{CampaignID: "missing", Proof: participantProof})
	assertAppCode(t, err, apperrors.CodeNotFound)

	distProof := signProof(t, priv, now, authz.ActionDistribute, "camp-1", "s", "dist-s")
	result, err := svc.Distribute(ctx, DistributeRequest{CampaignID: "camp-1", Proof: distProof})
	if err != nil {
		t.Fatalf("distribute with sponsor proof: %v", err)
	}
	if len(result.Payouts) != 1 || result.Payouts[0].Amount != 10 {
		t.Fatalf("payouts = %+v", result.Payouts)
	}
}
