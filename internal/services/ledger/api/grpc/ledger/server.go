package ledger

import (
	"context"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	apperrors "github.com/louisbranch/stakedrop/internal/platform/errors"
)

// Server adapts Service to the Struct-based gRPC surface.
type Server struct {
	svc *Service
}

// NewServer wraps svc for registration with RegisterLedgerServer.
func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

var _ LedgerServer = (*Server)(nil)

func (s *Server) Initialize(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.Initialize)
}

func (s *Server) Join(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.Join)
}

func (s *Server) Leave(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.Leave)
}

func (s *Server) Distribute(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.Distribute)
}

func (s *Server) GetCampaign(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.GetCampaign)
}

func (s *Server) ListCampaigns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.ListCampaigns)
}

func (s *Server) ListEvents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.ListEvents)
}

func (s *Server) GetBalance(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.GetBalance)
}

func (s *Server) FundAccount(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return serve(ctx, in, s.svc.FundAccount)
}

func serve[Req, Resp any](ctx context.Context, in *structpb.Struct, call func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := decodeMessage(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	resp, err := call(ctx, req)
	if err != nil {
		return nil, handleDomainError(ctx, err)
	}
	out, err := encodeMessage(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// handleDomainError converts err to a status localized for the caller.
func handleDomainError(ctx context.Context, err error) error {
	return apperrors.HandleError(err, localeFromContext(ctx))
}

func localeFromContext(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(LocaleHeader)
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
