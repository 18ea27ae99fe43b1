package handler

import (
	"context"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

// MaxBatchSubjects は一回の EvaluateBatch で受け付ける対象者数の上限です。
const MaxBatchSubjects = 5000

// EligibilityGrpcHandler は EligibilityService の gRPC 実装です。
type EligibilityGrpcHandler struct {
	svc eligibility.UseCase
}

var _ EligibilityServiceServer = (*EligibilityGrpcHandler)(nil)

// NewEligibilityGrpcHandler は EligibilityGrpcHandler を生成します。
func NewEligibilityGrpcHandler(svc eligibility.UseCase) *EligibilityGrpcHandler {
	return &EligibilityGrpcHandler{svc: svc}
}

// Evaluate は一人分の判定を行います。
func (h *EligibilityGrpcHandler) Evaluate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	subject, err := subjectFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	report, err := h.svc.Evaluate(ctx, subject)
	if err != nil {
		return nil, toStatusError(err)
	}

	resp, err := reportToStruct(report)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode report: %v", err))
	}
	return resp, nil
}

// EvaluateBatch は複数人の判定を行います。対象ごとの失敗はレスポンスの各エントリに含めます。
func (h *EligibilityGrpcHandler) EvaluateBatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if req == nil {
		return nil, status.Error(codes.InvalidArgument, "request is required")
	}

	subjects, err := subjectsFromStruct(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(subjects) > MaxBatchSubjects {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("at most %d subjects per batch", MaxBatchSubjects))
	}

	result, err := h.svc.EvaluateBatch(ctx, subjects)
	if err != nil {
		return nil, toStatusError(err)
	}

	resp, err := batchToStruct(result)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode batch: %v", err))
	}
	return resp, nil
}
