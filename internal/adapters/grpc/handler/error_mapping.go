package handler

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, eligibility.ErrInvalidSubject),
		errors.Is(err, eligibility.ErrInvalidBatchInput):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, eligibility.ErrAmbiguousMatch):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, eligibility.ErrEmployeeNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, eligibility.ErrStoreUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
