// Package transport serves the scoring service over gRPC. Messages are
// google.protobuf.Struct values carrying the JSON shapes in messages.go.
package transport

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "h2ready.scoring.v1.ScoringService"

// #region server-interface
// ScoringServer is the server API for the scoring service.
type ScoringServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputeSegmentScore(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LatestScores(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpsertInputs(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreatePipeline(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateSegment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPipelines(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListSegments(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInputs(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// #endregion server-interface

// #region service-desc
type unaryCall func(ScoringServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ScoringServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/" + method}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ScoringServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// ServiceDesc describes the scoring service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ScoringServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler("Evaluate", ScoringServer.Evaluate)},
		{MethodName: "ComputeSegmentScore", Handler: unaryHandler("ComputeSegmentScore", ScoringServer.ComputeSegmentScore)},
		{MethodName: "LatestScores", Handler: unaryHandler("LatestScores", ScoringServer.LatestScores)},
		{MethodName: "UpsertInputs", Handler: unaryHandler("UpsertInputs", ScoringServer.UpsertInputs)},
		{MethodName: "CreatePipeline", Handler: unaryHandler("CreatePipeline", ScoringServer.CreatePipeline)},
		{MethodName: "CreateSegment", Handler: unaryHandler("CreateSegment", ScoringServer.CreateSegment)},
		{MethodName: "ListPipelines", Handler: unaryHandler("ListPipelines", ScoringServer.ListPipelines)},
		{MethodName: "ListSegments", Handler: unaryHandler("ListSegments", ScoringServer.ListSegments)},
		{MethodName: "GetInputs", Handler: unaryHandler("GetInputs", ScoringServer.GetInputs)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "h2ready/scoring/v1/scoring.proto",
}

// RegisterScoringServer registers srv on s.
func RegisterScoringServer(s grpc.ServiceRegistrar, srv ScoringServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// #endregion service-desc
