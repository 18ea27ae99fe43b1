package eligibility

import "errors"

var (
	ErrInvalidSubject    = errors.New("eligibility: name or personal id is required")
	ErrEmployeeNotFound  = errors.New("eligibility: employee not found")
	ErrAmbiguousMatch    = errors.New("eligibility: name matches more than one employee")
	ErrStoreUnavailable  = errors.New("eligibility: record store unavailable")
	ErrInvalidBatchInput = errors.New("eligibility: batch requires at least one subject")
)
