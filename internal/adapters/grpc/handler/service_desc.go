package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// EligibilityServiceName は再雇用判定サービスの完全修飾名です。
const EligibilityServiceName = "hr.eligibility.v1.EligibilityService"

const (
	EvaluateFullMethodName      = "/" + EligibilityServiceName + "/Evaluate"
	EvaluateBatchFullMethodName = "/" + EligibilityServiceName + "/EvaluateBatch"
)

// EligibilityServiceServer は EligibilityService のサーバー側インターフェースです。
// リクエストとレスポンスは google.protobuf.Struct で表現します。
type EligibilityServiceServer interface {
	Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	EvaluateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// EligibilityServiceDesc は EligibilityService の grpc.ServiceDesc です。
var EligibilityServiceDesc = grpc.ServiceDesc{
	ServiceName: EligibilityServiceName,
	HandlerType: (*EligibilityServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: evaluateMethodHandler},
		{MethodName: "EvaluateBatch", Handler: evaluateBatchMethodHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "hr/eligibility/v1/eligibility.proto",
}

// RegisterEligibilityServiceServer は srv を gRPC サーバーに登録します。
func RegisterEligibilityServiceServer(s grpc.ServiceRegistrar, srv EligibilityServiceServer) {
	s.RegisterService(&EligibilityServiceDesc, srv)
}

func evaluateMethodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EligibilityServiceServer).Evaluate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluateFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EligibilityServiceServer).Evaluate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func evaluateBatchMethodHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(EligibilityServiceServer).EvaluateBatch(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: EvaluateBatchFullMethodName}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(EligibilityServiceServer).EvaluateBatch(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
