package roster

import (
	"context"
	"time"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

// Repository は取り込み記録の永続化の抽象です。記録は追記のみで、社員の更新は状態だけです。
type Repository interface {
	CreateEmployee(ctx context.Context, emp *eligibility.EmployeeRecord) (*eligibility.EmployeeRecord, error)
	FindEmployee(ctx context.Context, employeeID string) (*eligibility.EmployeeRecord, error)
	ExistsPersonalIDHash(ctx context.Context, hash string) (bool, error)
	UpdateEmployeeStatus(ctx context.Context, employeeID, status string, updatedAt time.Time) error
	AppendSeparation(ctx context.Context, rec *eligibility.SeparationRecord) (*eligibility.SeparationRecord, error)
	AppendPerformance(ctx context.Context, rec *eligibility.PerformanceRecord) error
	AppendTraining(ctx context.Context, rec *eligibility.TrainingRecord) error
	ListEmployees(ctx context.Context, filter ListEmployeesFilter) ([]eligibility.EmployeeRecord, string, error)
	DeleteEmployeeRecords(ctx context.Context, employeeID string) (*DeletedRecords, error)
}

// ListEmployeesFilter は一覧取得用フィルタです。Status が空なら全件を対象にします。
type ListEmployeesFilter struct {
	Status string
	Limit  int
	Offset int
}

// DeletedRecords は社員一人分の削除件数です。
type DeletedRecords struct {
	Separations int
	Performance int
	Training    int
}
