package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "fundledger.v1.FundService"

// FundServiceServer is the server API for FundService.
// Every RPC exchanges google.protobuf.Struct messages.
type FundServiceServer interface {
	AddInvestor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EditInvestor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInvestor(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInvestors(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Deposit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Withdraw(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateValuation(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SettleFees(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Undo(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Delete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBalance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetFeeDetail(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNAV(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetNAVHistory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTransactions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ FundServiceServer = (*Server)(nil)

type method func(FundServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unary(name string, call method) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(FundServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(FundServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// FullMethod returns the invocation path of an RPC, e.g. /fundledger.v1.FundService/Deposit
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// FundServiceDesc is the grpc.ServiceDesc for FundService
var FundServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*FundServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("AddInvestor", FundServiceServer.AddInvestor),
		unary("EditInvestor", FundServiceServer.EditInvestor),
		unary("GetInvestor", FundServiceServer.GetInvestor),
		unary("ListInvestors", FundServiceServer.ListInvestors),
		unary("Deposit", FundServiceServer.Deposit),
		unary("Withdraw", FundServiceServer.Withdraw),
		unary("UpdateValuation", FundServiceServer.UpdateValuation),
		unary("SettleFees", FundServiceServer.SettleFees),
		unary("Undo", FundServiceServer.Undo),
		unary("Delete", FundServiceServer.Delete),
		unary("GetBalance", FundServiceServer.GetBalance),
		unary("GetFeeDetail", FundServiceServer.GetFeeDetail),
		unary("GetNAV", FundServiceServer.GetNAV),
		unary("GetNAVHistory", FundServiceServer.GetNAVHistory),
		unary("ListTransactions", FundServiceServer.ListTransactions),
		unary("GetSummary", FundServiceServer.GetSummary),
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterFundServiceServer registers srv on s
func RegisterFundServiceServer(s grpc.ServiceRegistrar, srv FundServiceServer) {
	s.RegisterService(&FundServiceDesc, srv)
}

// Client calls FundService over a connection
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes the named RPC with fields as the request
func (c *Client) Call(ctx context.Context, name string, fields map[string]any, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(name), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
