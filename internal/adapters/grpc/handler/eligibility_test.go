package handler

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

type stubUseCase struct {
	evaluateInput eligibility.Subject
	evaluateOut   *eligibility.Report
	evaluateErr   error

	batchInput []eligibility.Subject
	batchOut   *eligibility.BatchResult
	batchErr   error

	panicOnEvaluate bool
}

func (s *stubUseCase) Evaluate(ctx context.Context, subject eligibility.Subject) (*eligibility.Report, error) {
	if s.panicOnEvaluate {
		panic("boom")
	}
	s.evaluateInput = subject
	return s.evaluateOut, s.evaluateErr
}

func (s *stubUseCase) EvaluateBatch(ctx context.Context, subjects []eligibility.Subject) (*eligibility.BatchResult, error) {
	s.batchInput = subjects
	return s.batchOut, s.batchErr
}

func dialBufconn(t *testing.T, svc eligibility.UseCase, logBuf *bytes.Buffer) *grpc.ClientConn {
	t.Helper()

	log := zerolog.New(logBuf)
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryUnaryInterceptor(log),
		LoggingUnaryInterceptor(log),
	))
	RegisterEligibilityServiceServer(srv, NewEligibilityGrpcHandler(svc))

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("failed to dial bufconn: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("failed to build struct: %v", err)
	}
	return s
}

func approvedReport() *eligibility.Report {
	return &eligibility.Report{
		Subject:    eligibility.Subject{Name: "Alice Chen", PersonalID: "******6789"},
		EmployeeID: "E001",
		Checks: []eligibility.CheckResult{
			{Item: eligibility.ItemEmployeeLookup, Status: eligibility.CheckPass, Detail: "found E001"},
			{Item: eligibility.ItemBlacklist, Status: eligibility.CheckPass, Detail: "not blacklisted"},
		},
		OverallStatus:  eligibility.DecisionApproved,
		Recommendation: "all checks passed; rehire recommended",
		EvaluatedAt:    time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestEligibilityGrpcHandler_Evaluate(t *testing.T) {
	t.Parallel()

	stub := &stubUseCase{evaluateOut: approvedReport()}
	var logBuf bytes.Buffer
	conn := dialBufconn(t, stub, &logBuf)

	out := new(structpb.Struct)
	in := mustStruct(t, map[string]any{"name": "Alice Chen", "personal_id": "A123456789"})
	if err := conn.Invoke(context.Background(), EvaluateFullMethodName, in, out); err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}

	if stub.evaluateInput.Name != "Alice Chen" || stub.evaluateInput.PersonalID != "A123456789" {
		t.Fatalf("unexpected subject passed to use case: %+v", stub.evaluateInput)
	}

	fields := out.GetFields()
	if got := fields["overall_status"].GetStringValue(); got != "APPROVED" {
		t.Fatalf("expected APPROVED, got %s", got)
	}
	if got := fields["employee_id"].GetStringValue(); got != "E001" {
		t.Fatalf("expected E001, got %s", got)
	}
	if got := len(fields["checks"].GetListValue().GetValues()); got != 2 {
		t.Fatalf("expected 2 checks, got %d", got)
	}
	if got := fields["evaluated_at"].GetStringValue(); got != "2026-10-01T09:00:00Z" {
		t.Fatalf("unexpected evaluated_at %s", got)
	}

	if strings.Contains(logBuf.String(), "A123456789") {
		t.Fatalf("personal id leaked into logs: %s", logBuf.String())
	}
	if !strings.Contains(logBuf.String(), EvaluateFullMethodName) {
		t.Fatalf("expected request log line, got %s", logBuf.String())
	}
}

func TestEligibilityGrpcHandler_EvaluateErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		request  map[string]any
		err      error
		wantCode codes.Code
	}{
		{name: "invalid subject", request: map[string]any{}, err: eligibility.ErrInvalidSubject, wantCode: codes.InvalidArgument},
		{name: "ambiguous", request: map[string]any{"name": "Alice"}, err: eligibility.ErrAmbiguousMatch, wantCode: codes.FailedPrecondition},
		{name: "store down", request: map[string]any{"name": "Alice"}, err: eligibility.ErrStoreUnavailable, wantCode: codes.Unavailable},
		{name: "unexpected", request: map[string]any{"name": "Alice"}, err: errors.New("boom"), wantCode: codes.Internal},
		{name: "wrong type", request: map[string]any{"name": 42.0}, wantCode: codes.InvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			conn := dialBufconn(t, &stubUseCase{evaluateErr: tt.err}, &bytes.Buffer{})
			err := conn.Invoke(context.Background(), EvaluateFullMethodName, mustStruct(t, tt.request), new(structpb.Struct))
			if status.Code(err) != tt.wantCode {
				t.Fatalf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestEligibilityGrpcHandler_EvaluateBatch(t *testing.T) {
	t.Parallel()

	result := eligibility.NewBatchResult("batch-1", 2)
	result.Entries = []eligibility.BatchEntry{
		{Index: 0, Subject: eligibility.Subject{Name: "Alice Chen"}, Report: approvedReport()},
		{Index: 1, Subject: eligibility.Subject{Name: "Alice"}, Err: eligibility.ErrAmbiguousMatch},
	}
	result.Counts[eligibility.DecisionApproved] = 1
	result.Failed = 1

	stub := &stubUseCase{batchOut: result}
	conn := dialBufconn(t, stub, &bytes.Buffer{})

	in := mustStruct(t, map[string]any{
		"subjects": []any{
			map[string]any{"name": "Alice Chen"},
			map[string]any{"name": "Alice"},
		},
	})
	out := new(structpb.Struct)
	if err := conn.Invoke(context.Background(), EvaluateBatchFullMethodName, in, out); err != nil {
		t.Fatalf("EvaluateBatch returned error: %v", err)
	}

	if len(stub.batchInput) != 2 {
		t.Fatalf("expected 2 subjects, got %d", len(stub.batchInput))
	}

	fields := out.GetFields()
	if fields["batch_id"].GetStringValue() != "batch-1" {
		t.Fatalf("unexpected batch id %v", fields["batch_id"])
	}
	counts := fields["counts"].GetStructValue().GetFields()
	if len(counts) != 4 || counts["APPROVED"].GetNumberValue() != 1 || counts["NOT_FOUND"].GetNumberValue() != 0 {
		t.Fatalf("unexpected counts %v", counts)
	}

	entries := fields["entries"].GetListValue().GetValues()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	failed := entries[1].GetStructValue().GetFields()["error"].GetStructValue().GetFields()
	if failed["code"].GetStringValue() != codes.FailedPrecondition.String() {
		t.Fatalf("unexpected entry error %v", failed)
	}
}

func TestEligibilityGrpcHandler_EvaluateBatchValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		request map[string]any
	}{
		{name: "missing subjects", request: map[string]any{}},
		{name: "not a list", request: map[string]any{"subjects": "Alice"}},
		{name: "not an object", request: map[string]any{"subjects": []any{"Alice"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := &stubUseCase{}
			conn := dialBufconn(t, stub, &bytes.Buffer{})
			err := conn.Invoke(context.Background(), EvaluateBatchFullMethodName, mustStruct(t, tt.request), new(structpb.Struct))
			if status.Code(err) != codes.InvalidArgument {
				t.Fatalf("expected InvalidArgument, got %v", err)
			}
			if stub.batchInput != nil {
				t.Fatalf("use case must not be called on invalid input")
			}
		})
	}
}

func TestEligibilityGrpcHandler_BatchAbortIsUnavailable(t *testing.T) {
	t.Parallel()

	stub := &stubUseCase{batchErr: eligibility.ErrStoreUnavailable}
	conn := dialBufconn(t, stub, &bytes.Buffer{})

	in := mustStruct(t, map[string]any{"subjects": []any{map[string]any{"name": "Bob"}}})
	err := conn.Invoke(context.Background(), EvaluateBatchFullMethodName, in, new(structpb.Struct))
	if status.Code(err) != codes.Unavailable {
		t.Fatalf("expected Unavailable, got %v", err)
	}
}

func TestRecoveryUnaryInterceptor(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	conn := dialBufconn(t, &stubUseCase{panicOnEvaluate: true}, &logBuf)

	err := conn.Invoke(context.Background(), EvaluateFullMethodName, mustStruct(t, map[string]any{"name": "x"}), new(structpb.Struct))
	if status.Code(err) != codes.Internal {
		t.Fatalf("expected Internal, got %v", err)
	}
	if !strings.Contains(logBuf.String(), "panicked") {
		t.Fatalf("expected panic to be logged, got %s", logBuf.String())
	}
}
