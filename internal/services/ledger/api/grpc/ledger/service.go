// Package ledger exposes campaign ledger operations over gRPC.
package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
	"github.com/louisbranch/stakedrop/internal/platform/grpc/pagination"
	"github.com/louisbranch/stakedrop/internal/services/ledger/authz"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/campaign"
	"github.com/louisbranch/stakedrop/internal/services/ledger/domain/command"
	"github.com/louisbranch/stakedrop/internal/services/ledger/engine"
	"github.com/louisbranch/stakedrop/internal/services/ledger/storage"
)

const (
	defaultListCampaignsPageSize = 10
	maxListCampaignsPageSize     = 50
	defaultListEventsPageSize    = 50
	maxListEventsPageSize        = 200
)

// Engine executes campaign commands.
type Engine interface {
	Initialize(ctx context.Context, actor engine.Actor, in engine.InitializeInput) (engine.Result, error)
	Join(ctx context.Context, actor engine.Actor, campaignID, participantID string) (engine.Result, error)
	Leave(ctx context.Context, actor engine.Actor, campaignID, participantID string) (engine.Result, error)
	Distribute(ctx context.Context, actor engine.Actor, campaignID string) (engine.Result, error)
	GetCampaign(ctx context.Context, campaignID string) (campaign.State, error)
}

// ReadStore serves list and balance reads.
type ReadStore interface {
	storage.BalanceStore
	ListCampaigns(ctx context.Context, pageSize int, pageToken string) (storage.CampaignPage, error)
	ListEvents(ctx context.Context, query storage.EventQuery) (storage.EventPage, error)
}

// Options configures optional service behavior.
type Options struct {
	// AllowFunding enables FundAccount.
	AllowFunding bool
	// Proofs, when enabled, requires a sponsor proof on initialize and
	// distribute and a participant proof on join and leave.
	Proofs *authz.Verifier
}

// Service implements ledger operations with typed requests. Errors are
// application errors; Server converts them to gRPC statuses.
type Service struct {
	engine Engine
	store  ReadStore
	opts   Options
}

// NewService creates a ledger service.
func NewService(e Engine, store ReadStore, opts Options) *Service {
	return &Service{engine: e, store: store, opts: opts}
}

func (s *Service) ready() error {
	if s == nil || s.engine == nil || s.store == nil {
		return status.Error(codes.Internal, "ledger service is not configured")
	}
	return nil
}

// Initialize creates a campaign and deposits its reward pool.
func (s *Service) Initialize(ctx context.Context, in InitializeRequest) (CampaignResponse, error) {
	if err := s.ready(); err != nil {
		return CampaignResponse{}, err
	}
	if in.Capacity < 0 {
		return CampaignResponse{}, apperrors.WithMetadata(apperrors.CodeCampaignCapacityInvalid, "capacity must be at least 1",
			map[string]string{"Capacity": strconv.Itoa(in.Capacity)})
	}
	sponsorID := strings.TrimSpace(in.SponsorID)
	if err := s.checkProof(ctx, in.Proof, authz.ActionInitialize, in.CampaignID, sponsorID); err != nil {
		return CampaignResponse{}, err
	}
	actor := engine.Actor{Type: command.ActorTypeSponsor, ID: sponsorID, RequestID: in.RequestID}
	result, err := s.engine.Initialize(ctx, actor, engine.InitializeInput{
		CampaignID:    in.CampaignID,
		SponsorID:     sponsorID,
		RewardAssetID: in.RewardAssetID,
		RewardAmount:  in.RewardAmount,
		Capacity:      in.Capacity,
		StakeAmount:   in.StakeAmount,
	})
	if err != nil {
		return CampaignResponse{}, err
	}
	return CampaignResponse{Campaign: campaignToWire(result.State)}, nil
}

// Join adds a participant and escrows the stake.
func (s *Service) Join(ctx context.Context, in JoinRequest) (CampaignResponse, error) {
	if err := s.ready(); err != nil {
		return CampaignResponse{}, err
	}
	participantID := strings.TrimSpace(in.ParticipantID)
	if err := s.checkProof(ctx, in.Proof, authz.ActionJoin, in.CampaignID, participantID); err != nil {
		return CampaignResponse{}, err
	}
	actor := engine.Actor{Type: command.ActorTypeParticipant, ID: participantID, RequestID: in.RequestID}
	result, err := s.engine.Join(ctx, actor, in.CampaignID, participantID)
	if err != nil {
		return CampaignResponse{}, err
	}
	return CampaignResponse{Campaign: campaignToWire(result.State)}, nil
}

// Leave removes a participant and refunds the stake.
func (s *Service) Leave(ctx context.Context, in LeaveRequest) (CampaignResponse, error) {
	if err := s.ready(); err != nil {
		return CampaignResponse{}, err
	}
	participantID := strings.TrimSpace(in.ParticipantID)
	if err := s.checkProof(ctx, in.Proof, authz.ActionLeave, in.CampaignID, participantID); err != nil {
		return CampaignResponse{}, err
	}
	actor := engine.Actor{Type: command.ActorTypeParticipant, ID: participantID, RequestID: in.RequestID}
	result, err := s.engine.Leave(ctx, actor, in.CampaignID, participantID)
	if err != nil {
		return CampaignResponse{}, err
	}
	return CampaignResponse{Campaign: campaignToWire(result.State)}, nil
}

// Distribute pays each rostered participant an equal share.
func (s *Service) Distribute(ctx context.Context, in DistributeRequest) (DistributeResponse, error) {
	if err := s.ready(); err != nil {
		return DistributeResponse{}, err
	}
	campaignID := strings.TrimSpace(in.CampaignID)
	if campaignID == "" {
		return DistributeResponse{}, apperrors.New(apperrors.CodeCampaignIDRequired, "campaign id is required")
	}
	current, err := s.engine.GetCampaign(ctx, campaignID)
	if err != nil {
		return DistributeResponse{}, err
	}
	if err := s.checkProof(ctx, in.Proof, authz.ActionDistribute, campaignID, current.SponsorID); err != nil {
		return DistributeResponse{}, err
	}
	actor := engine.Actor{Type: command.ActorTypeSponsor, ID: current.SponsorID, RequestID: in.RequestID}
	result, err := s.engine.Distribute(ctx, actor, campaignID)
	if err != nil {
		return DistributeResponse{}, err
	}
	payouts := make([]Payout, 0, len(result.Payouts))
	for _, participantID := range result.State.Roster {
		if amount, ok := result.Payouts[participantID]; ok {
			payouts = append(payouts, Payout{ParticipantID: participantID, Amount: amount})
		}
	}
	return DistributeResponse{Campaign: campaignToWire(result.State), Payouts: payouts}, nil
}

// GetCampaign reads one campaign.
func (s *Service) GetCampaign(ctx context.Context, in GetCampaignRequest) (CampaignResponse, error) {
	if err := s.ready(); err != nil {
		return CampaignResponse{}, err
	}
	campaignID := strings.TrimSpace(in.CampaignID)
	if campaignID == "" {
		return CampaignResponse{}, apperrors.New(apperrors.CodeCampaignIDRequired, "campaign id is required")
	}
	state, err := s.engine.GetCampaign(ctx, campaignID)
	if err != nil {
		return CampaignResponse{}, err
	}
	return CampaignResponse{Campaign: campaignToWire(state)}, nil
}

// ListCampaigns returns a page of campaigns ordered by id.
func (s *Service) ListCampaigns(ctx context.Context, in ListCampaignsRequest) (ListCampaignsResponse, error) {
	if err := s.ready(); err != nil {
		return ListCampaignsResponse{}, err
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultListCampaignsPageSize,
		Max:     maxListCampaignsPageSize,
	})
	page, err := s.store.ListCampaigns(ctx, pageSize, in.PageToken)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidPageToken) {
			return ListCampaignsResponse{}, status.Error(codes.InvalidArgument, "page token is invalid")
		}
		return ListCampaignsResponse{}, err
	}
	resp := ListCampaignsResponse{
		Campaigns:     make([]Campaign, 0, len(page.Campaigns)),
		NextPageToken: page.NextPageToken,
	}
	for _, state := range page.Campaigns {
		resp.Campaigns = append(resp.Campaigns, campaignToWire(state))
	}
	return resp, nil
}

// ListEvents returns a page of campaign events after a sequence number.
func (s *Service) ListEvents(ctx context.Context, in ListEventsRequest) (ListEventsResponse, error) {
	if err := s.ready(); err != nil {
		return ListEventsResponse{}, err
	}
	campaignID := strings.TrimSpace(in.CampaignID)
	if campaignID == "" {
		return ListEventsResponse{}, apperrors.New(apperrors.CodeCampaignIDRequired, "campaign id is required")
	}
	pageSize := pagination.ClampPageSize(in.PageSize, pagination.PageSizeConfig{
		Default: defaultListEventsPageSize,
		Max:     maxListEventsPageSize,
	})
	page, err := s.store.ListEvents(ctx, storage.EventQuery{
		CampaignID: campaignID,
		AfterSeq:   in.AfterSeq,
		PageSize:   pageSize,
		Filter:     strings.TrimSpace(in.Filter),
	})
	if err != nil {
		if errors.Is(err, storage.ErrInvalidFilter) {
			return ListEventsResponse{}, apperrors.Wrap(apperrors.CodeEventFilterFailed, "event filter is invalid", err)
		}
		return ListEventsResponse{}, err
	}
	resp := ListEventsResponse{
		Events:  make([]Event, 0, len(page.Events)),
		LastSeq: page.LastSeq,
		HasMore: page.HasMore,
	}
	for _, evt := range page.Events {
		resp.Events = append(resp.Events, eventToWire(evt))
	}
	return resp, nil
}

// GetBalance reads an account's native or asset balance.
func (s *Service) GetBalance(ctx context.Context, in GetBalanceRequest) (BalanceResponse, error) {
	if err := s.ready(); err != nil {
		return BalanceResponse{}, err
	}
	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" {
		return BalanceResponse{}, status.Error(codes.InvalidArgument, "account id is required")
	}
	balance, err := s.store.GetBalance(ctx, accountID, strings.TrimSpace(in.AssetID))
	if err != nil {
		return BalanceResponse{}, err
	}
	return balanceToWire(balance), nil
}

// FundAccount credits a caller account. Custody accounts can only be funded
// through campaign operations.
func (s *Service) FundAccount(ctx context.Context, in FundAccountRequest) (BalanceResponse, error) {
	if err := s.ready(); err != nil {
		return BalanceResponse{}, err
	}
	if !s.opts.AllowFunding {
		return BalanceResponse{}, apperrors.New(apperrors.CodeFundingDisabled, "funding is disabled")
	}
	accountID := strings.TrimSpace(in.AccountID)
	if accountID == "" || campaign.IsCustodyAccount(accountID) {
		return BalanceResponse{}, apperrors.WithMetadata(apperrors.CodeFundingInvalid, "account cannot be funded",
			map[string]string{"Field": "account_id"})
	}
	if in.Amount == 0 {
		return BalanceResponse{}, apperrors.WithMetadata(apperrors.CodeFundingInvalid, "amount must be positive",
			map[string]string{"Field": "amount"})
	}
	balance, err := s.store.Credit(ctx, accountID, strings.TrimSpace(in.AssetID), in.Amount)
	if err != nil {
		if errors.Is(err, storage.ErrAmountOutOfRange) {
			return BalanceResponse{}, apperrors.Wrap(apperrors.CodeAmountOutOfRange, "balance would exceed the supported range", err)
		}
		return BalanceResponse{}, err
	}
	return balanceToWire(balance), nil
}

// checkProof enforces a proof for accountID when proofs are on. An empty
// account is left for the decider to reject with its own code.
func (s *Service) checkProof(ctx context.Context, proof string, action authz.Action, campaignID, accountID string) error {
	if !s.opts.Proofs.Enabled() || accountID == "" {
		return nil
	}
	return s.opts.Proofs.Check(ctx, proof, authz.Expectation{
		Action:     action,
		CampaignID: strings.TrimSpace(campaignID),
		AccountID:  accountID,
	})
}
