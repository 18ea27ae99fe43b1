package eligibility

import "context"

// RecordStore は判定に必要な読み取り専用の照会を表します。
// I/O 失敗は ErrStoreUnavailable でラップして返す必要があります。
type RecordStore interface {
	FindEmployeesByName(ctx context.Context, name string) ([]EmployeeRecord, error)
	// 該当がない場合は ErrEmployeeNotFound を返します。
	FindEmployeeByPersonalIDHash(ctx context.Context, hash string) (*EmployeeRecord, error)
	// 離職記録がない場合は nil, nil を返します。
	LatestSeparation(ctx context.Context, employeeID string) (*SeparationRecord, error)
	PerformanceHistory(ctx context.Context, employeeID string) ([]PerformanceRecord, error)
	TrainingHistory(ctx context.Context, employeeID string) ([]TrainingRecord, error)
}
