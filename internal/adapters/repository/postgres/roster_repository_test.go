package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
)

func TestRosterRepository_CreateEmployee(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO employees`)).
		WithArgs("E010", "Frank Wu", nil, "Ops", nil, "active").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("E010", "Frank Wu", nil, "Ops", nil, "active"))

	created, err := repo.CreateEmployee(context.Background(), &eligibility.EmployeeRecord{
		EmployeeID: "E010",
		Name:       "Frank Wu",
		Department: "Ops",
		Status:     "active",
	})
	if err != nil {
		t.Fatalf("CreateEmployee returned error: %v", err)
	}
	if created.EmployeeID != "E010" || created.PersonalIDHash != "" {
		t.Fatalf("unexpected employee %+v", created)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRosterRepository_CreateEmployee_DuplicatePersonalID(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO employees`)).
		WithArgs("E011", "Gina", "hash", "", nil, "active").
		WillReturnError(&pgconn.PgError{Code: uniqueViolationCode, ConstraintName: personalIDHashConstraint})

	_, err := repo.CreateEmployee(context.Background(), &eligibility.EmployeeRecord{
		EmployeeID:     "E011",
		Name:           "Gina",
		PersonalIDHash: "hash",
		Status:         "active",
	})
	if !errors.Is(err, roster.ErrPersonalIDAlreadyRegistered) {
		t.Fatalf("expected ErrPersonalIDAlreadyRegistered, got %v", err)
	}
}

func TestRosterRepository_UpdateEmployeeStatus_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE employees`)).
		WithArgs("separated", now, "E404").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateEmployeeStatus(context.Background(), "E404", "separated", now)
	if !errors.Is(err, roster.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}
}

func TestRosterRepository_AppendSeparation(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	sepDate := time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO separation_records`)).
		WithArgs("E004", sepDate, "layoff", "restructuring", false).
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "separation_date", "separation_type", "reason", "blacklist"}).
			AddRow(int64(3), "E004", sepDate, "layoff", "restructuring", false))

	rec, err := repo.AppendSeparation(context.Background(), &eligibility.SeparationRecord{
		EmployeeID:     "E004",
		SeparationDate: sepDate,
		SeparationType: "layoff",
		Reason:         "restructuring",
	})
	if err != nil {
		t.Fatalf("AppendSeparation returned error: %v", err)
	}
	if rec.ID != 3 {
		t.Fatalf("expected assigned id 3, got %d", rec.ID)
	}
}

func TestRosterRepository_AppendPerformanceAndTraining(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO performance_records`)).
		WithArgs("E001", 2023, "A", nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO training_records`)).
		WithArgs("E001", "Safety", "compliance", 4.5, nil).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.AppendPerformance(context.Background(), &eligibility.PerformanceRecord{EmployeeID: "E001", Year: 2023, Rating: "A"}); err != nil {
		t.Fatalf("AppendPerformance returned error: %v", err)
	}
	if err := repo.AppendTraining(context.Background(), &eligibility.TrainingRecord{EmployeeID: "E001", CourseName: "Safety", CourseType: "compliance", Hours: 4.5}); err != nil {
		t.Fatalf("AppendTraining returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTranslateRosterPgError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want error
	}{
		{name: "duplicate id", err: &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: "employees_pkey"}, want: roster.ErrEmployeeAlreadyExists},
		{name: "duplicate personal id", err: &pgconn.PgError{Code: uniqueViolationCode, ConstraintName: personalIDHashConstraint}, want: roster.ErrPersonalIDAlreadyRegistered},
		{name: "unknown employee", err: &pgconn.PgError{Code: foreignKeyViolationCode}, want: roster.ErrEmployeeNotFound},
		{name: "year out of range", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "performance_records_year_check"}, want: roster.ErrInvalidYear},
		{name: "negative hours", err: &pgconn.PgError{Code: checkViolationCode, ConstraintName: "training_records_hours_check"}, want: roster.ErrInvalidHours},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := translateRosterPgError(tt.err); !errors.Is(got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}

	other := errors.New("other")
	if translateRosterPgError(other) != other {
		t.Fatalf("unexpected translation for generic error")
	}
}

func TestRosterRepository_ListEmployees_Pagination(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE status = $1`)).
		WithArgs("separated", 3, 2).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("E003", "Carol Lin", nil, "Finance", nil, "separated").
			AddRow("E004", "Dave Park", nil, "Logistics", nil, "separated").
			AddRow("E005", "Erin Wu", nil, "Support", nil, "separated"))

	employees, next, err := repo.ListEmployees(context.Background(), roster.ListEmployeesFilter{Status: "separated", Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(employees) != 2 || employees[0].EmployeeID != "E003" || employees[1].EmployeeID != "E004" {
		t.Fatalf("unexpected page %+v", employees)
	}
	if next != "4" {
		t.Fatalf("expected next token 4, got %q", next)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRosterRepository_ListEmployees_LastPage(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY employee_id`)).
		WithArgs(51, 0).
		WillReturnRows(pgxmock.NewRows(employeeRowColumns).
			AddRow("E001", "Alice Chen", "hash", "Sales", nil, "separated"))

	employees, next, err := repo.ListEmployees(context.Background(), roster.ListEmployeesFilter{Limit: 50})
	if err != nil {
		t.Fatalf("ListEmployees returned error: %v", err)
	}
	if len(employees) != 1 || next != "" {
		t.Fatalf("unexpected result %+v next=%q", employees, next)
	}

	if _, _, err := repo.ListEmployees(context.Background(), roster.ListEmployeesFilter{}); !errors.Is(err, roster.ErrInvalidPageSize) {
		t.Fatalf("expected ErrInvalidPageSize, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRosterRepository_DeleteEmployeeRecords(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM separation_records`)).
		WithArgs("E005").
		WillReturnResult(pgxmock.NewResult("DELETE", 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM performance_records`)).
		WithArgs("E005").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM training_records`)).
		WithArgs("E005").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM employees`)).
		WithArgs("E005").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	deleted, err := repo.DeleteEmployeeRecords(context.Background(), "E005")
	if err != nil {
		t.Fatalf("DeleteEmployeeRecords returned error: %v", err)
	}
	if *deleted != (roster.DeletedRecords{Separations: 2, Performance: 1}) {
		t.Fatalf("unexpected counts %+v", deleted)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRosterRepository_DeleteEmployeeRecords_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	repo := NewRosterRepository(mock)

	for _, table := range []string{"separation_records", "performance_records", "training_records", "employees"} {
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ` + table)).
			WithArgs("E404").
			WillReturnResult(pgxmock.NewResult("DELETE", 0))
	}

	_, err := repo.DeleteEmployeeRecords(context.Background(), "E404")
	if !errors.Is(err, roster.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
