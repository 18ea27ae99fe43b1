package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

var employeeRowColumns = []string{"employee_id", "name", "personal_id_hash", "department", "hire_date", "status"}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func TestRecordStore_FindEmployeesByName(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	hired := time.Date(2015, 4, 1, 0, 0, 0, 0, time.UTC)
	rows := pgxmock.NewRows(employeeRowColumns).
		AddRow("E001", "Alice Chen", "abc", "Sales", hired, "separated").
		AddRow("E009", "Alice Chen", nil, "Support", nil, "active")

	mock.ExpectQuery(regexp.QuoteMeta(`FROM employees WHERE name = $1 ORDER BY employee_id`)).
		WithArgs("Alice Chen").
		WillReturnRows(rows)

	found, err := store.FindEmployeesByName(context.Background(), "Alice Chen")
	if err != nil {
		t.Fatalf("FindEmployeesByName returned error: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(found))
	}
	if found[0].HireDate == nil || !found[0].HireDate.Equal(hired) {
		t.Fatalf("unexpected hire date %+v", found[0].HireDate)
	}
	if found[1].PersonalIDHash != "" || found[1].HireDate != nil {
		t.Fatalf("expected NULL columns to map to zero values, got %+v", found[1])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordStore_FindEmployeeByPersonalIDHash_NotFound(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`WHERE personal_id_hash = $1`)).
		WithArgs("deadbeef").
		WillReturnRows(pgxmock.NewRows(employeeRowColumns))

	_, err := store.FindEmployeeByPersonalIDHash(context.Background(), "deadbeef")
	if !errors.Is(err, eligibility.ErrEmployeeNotFound) {
		t.Fatalf("expected ErrEmployeeNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordStore_LatestSeparation(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	sepDate := time.Date(2022, 8, 31, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY separation_date DESC, id DESC LIMIT 1`)).
		WithArgs("E003").
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "separation_date", "separation_type", "reason", "blacklist"}).
			AddRow(int64(7), "E003", sepDate, "termination_for_cause", "misconduct", true))

	rec, err := store.LatestSeparation(context.Background(), "E003")
	if err != nil {
		t.Fatalf("LatestSeparation returned error: %v", err)
	}
	if rec == nil || rec.ID != 7 || !rec.Blacklist || !rec.SeparationDate.Equal(sepDate) {
		t.Fatalf("unexpected separation %+v", rec)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordStore_LatestSeparation_None(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM separation_records`)).
		WithArgs("E001").
		WillReturnRows(pgxmock.NewRows([]string{"id", "employee_id", "separation_date", "separation_type", "reason", "blacklist"}))

	rec, err := store.LatestSeparation(context.Background(), "E001")
	if err != nil {
		t.Fatalf("LatestSeparation returned error: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no separation, got %+v", rec)
	}
}

func TestRecordStore_PerformanceHistory_KeepsMissingScores(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM performance_records`)).
		WithArgs("E002").
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "year", "rating", "score"}).
			AddRow("E002", 2023, "C", 68.0).
			AddRow("E002", 2022, "B", nil))

	records, err := store.PerformanceHistory(context.Background(), "E002")
	if err != nil {
		t.Fatalf("PerformanceHistory returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Score == nil || *records[0].Score != 68.0 {
		t.Fatalf("expected score 68, got %+v", records[0].Score)
	}
	if records[1].Score != nil {
		t.Fatalf("missing score must stay nil, got %v", *records[1].Score)
	}
}

func TestRecordStore_TrainingHistory(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	completed := time.Date(2021, 6, 30, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(`FROM training_records`)).
		WithArgs("E001").
		WillReturnRows(pgxmock.NewRows([]string{"employee_id", "course_name", "course_type", "hours", "completion_date"}).
			AddRow("E001", "Leadership", "management", 16.0, completed).
			AddRow("E001", "Safety", "compliance", 4.5, nil))

	records, err := store.TrainingHistory(context.Background(), "E001")
	if err != nil {
		t.Fatalf("TrainingHistory returned error: %v", err)
	}
	if len(records) != 2 || records[0].CompletionDate == nil || records[1].CompletionDate != nil {
		t.Fatalf("unexpected training records %+v", records)
	}
}

func TestRecordStore_QueryFailureIsStoreUnavailable(t *testing.T) {
	t.Parallel()

	mock := newMockPool(t)
	store := NewRecordStore(mock)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM employees`)).
		WithArgs("Bob").
		WillReturnError(errors.New("connection reset by peer"))

	_, err := store.FindEmployeesByName(context.Background(), "Bob")
	if !errors.Is(err, eligibility.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestTranslateStoreError(t *testing.T) {
	t.Parallel()

	if translateStoreError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}
	if err := translateStoreError(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, eligibility.ErrStoreUnavailable) {
		t.Fatalf("context cancellation must pass through, got %v", err)
	}
	if err := translateStoreError(errors.New("io")); !errors.Is(err, eligibility.ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
