package ledger

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stakedrop.ledger.v1.LedgerService"

// Full method names.
const (
	InitializeMethod    = "/" + ServiceName + "/Initialize"
	JoinMethod          = "/" + ServiceName + "/Join"
	LeaveMethod         = "/" + ServiceName + "/Leave"
	DistributeMethod    = "/" + ServiceName + "/Distribute"
	GetCampaignMethod   = "/" + ServiceName + "/GetCampaign"
	ListCampaignsMethod = "/" + ServiceName + "/ListCampaigns"
	ListEventsMethod    = "/" + ServiceName + "/ListEvents"
	GetBalanceMethod    = "/" + ServiceName + "/GetBalance"
	FundAccountMethod   = "/" + ServiceName + "/FundAccount"
)

// LedgerServer is the server API for the ledger service. Every method takes
// and returns a google.protobuf.Struct carrying the JSON form of the request
// and response types in this package.
type LedgerServer interface {
	Initialize(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Leave(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Distribute(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCampaigns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FundAccount(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterLedgerServer registers srv on s.
func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerServiceDesc describes the ledger service for grpc.Server registration.
var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("Initialize", LedgerServer.Initialize),
		unaryMethod("Join", LedgerServer.Join),
		unaryMethod("Leave", LedgerServer.Leave),
		unaryMethod("Distribute", LedgerServer.Distribute),
		unaryMethod("GetCampaign", LedgerServer.GetCampaign),
		unaryMethod("ListCampaigns", LedgerServer.ListCampaigns),
		unaryMethod("ListEvents", LedgerServer.ListEvents),
		unaryMethod("GetBalance", LedgerServer.GetBalance),
		unaryMethod("FundAccount", LedgerServer.FundAccount),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stakedrop/ledger/v1/ledger.proto",
}

type structCall func(LedgerServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call structCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(LedgerServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(LedgerServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
