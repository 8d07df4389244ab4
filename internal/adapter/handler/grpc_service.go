package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The score API only exchanges well-known protobuf types, so the service is
// declared here instead of being generated from a .proto file:
//
//	service ScoreService {
//	  rpc Upvote(google.protobuf.Empty) returns (google.protobuf.Int64Value);
//	  rpc Downvote(google.protobuf.Empty) returns (google.protobuf.Int64Value);
//	  rpc GetScore(google.protobuf.Empty) returns (google.protobuf.Int64Value);
//	}
const ScoreServiceName = "score.v1.ScoreService"

const (
	upvoteFullMethod   = "/" + ScoreServiceName + "/Upvote"
	downvoteFullMethod = "/" + ScoreServiceName + "/Downvote"
	getScoreFullMethod = "/" + ScoreServiceName + "/GetScore"
)

type ScoreServiceServer interface {
	Upvote(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	Downvote(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
	GetScore(context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)
}

type scoreMethod func(ScoreServiceServer, context.Context, *emptypb.Empty) (*wrapperspb.Int64Value, error)

var ScoreServiceDesc = grpc.ServiceDesc{
	ServiceName: ScoreServiceName,
	HandlerType: (*ScoreServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Upvote", Handler: unaryHandler(ScoreServiceServer.Upvote, upvoteFullMethod)},
		{MethodName: "Downvote", Handler: unaryHandler(ScoreServiceServer.Downvote, downvoteFullMethod)},
		{MethodName: "GetScore", Handler: unaryHandler(ScoreServiceServer.GetScore, getScoreFullMethod)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "score/v1/score.proto",
}

func RegisterScoreServiceServer(s grpc.ServiceRegistrar, srv ScoreServiceServer) {
	s.RegisterService(&ScoreServiceDesc, srv)
}

func unaryHandler(method scoreMethod, fullMethod string) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(emptypb.Empty)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return method(srv.(ScoreServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return method(srv.(ScoreServiceServer), ctx, req.(*emptypb.Empty))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ScoreClient calls ScoreService over an established connection.
type ScoreClient struct {
	cc grpc.ClientConnInterface
}

func NewScoreClient(cc grpc.ClientConnInterface) *ScoreClient {
	return &ScoreClient{cc: cc}
}

func (c *ScoreClient) Upvote(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	return c.call(ctx, upvoteFullMethod, opts...)
}

func (c *ScoreClient) Downvote(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	return c.call(ctx, downvoteFullMethod, opts...)
}

func (c *ScoreClient) GetScore(ctx context.Context, opts ...grpc.CallOption) (int64, error) {
	return c.call(ctx, getScoreFullMethod, opts...)
}

func (c *ScoreClient) call(ctx context.Context, method string, opts ...grpc.CallOption) (int64, error) {
	out := new(wrapperspb.Int64Value)
	if err := c.cc.Invoke(ctx, method, &emptypb.Empty{}, out, opts...); err != nil {
		return 0, err
	}
	return out.GetValue(), nil
}
