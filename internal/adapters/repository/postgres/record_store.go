package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	pgdb "github.com/ogurasousui/rehire-eligibility/internal/platform/db/postgres"
)

const employeeColumns = `employee_id, name, personal_id_hash, department, hire_date, status`

// RecordStore は PostgreSQL を利用した判定用の読み取り実装です。
type RecordStore struct {
	pool pgdb.Queryer
}

var _ eligibility.RecordStore = (*RecordStore)(nil)

// NewRecordStore は RecordStore を生成します。
func NewRecordStore(pool pgdb.Queryer) *RecordStore {
	return &RecordStore{pool: pool}
}

// FindEmployeesByName は氏名が完全一致する社員をすべて返します。
func (s *RecordStore) FindEmployeesByName(ctx context.Context, name string) ([]eligibility.EmployeeRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE name = $1
         ORDER BY employee_id
    `, name)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer rows.Close()

	var found []eligibility.EmployeeRecord
	for rows.Next() {
		emp, err := scanEmployeeRecord(rows)
		if err != nil {
			return nil, translateStoreError(err)
		}
		found = append(found, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreError(err)
	}
	return found, nil
}

// FindEmployeeByPersonalIDHash は個人識別番号のダイジェストで社員を取得します。
func (s *RecordStore) FindEmployeeByPersonalIDHash(ctx context.Context, hash string) (*eligibility.EmployeeRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE personal_id_hash = $1
         LIMIT 1
    `, hash)

	emp, err := scanEmployeeRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eligibility.ErrEmployeeNotFound
		}
		return nil, translateStoreError(err)
	}
	return emp, nil
}

// LatestSeparation は最新の離職記録を返します。同日の場合は後から登録したものを優先します。
func (s *RecordStore) LatestSeparation(ctx context.Context, employeeID string) (*eligibility.SeparationRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	row := exec.QueryRow(ctx, `
        SELECT id, employee_id, separation_date, separation_type, reason, blacklist
          FROM separation_records
         WHERE employee_id = $1
         ORDER BY separation_date DESC, id DESC
         LIMIT 1
    `, employeeID)

	rec, err := scanSeparationRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, translateStoreError(err)
	}
	return rec, nil
}

// PerformanceHistory は評価記録を新しい年度順に返します。
func (s *RecordStore) PerformanceHistory(ctx context.Context, employeeID string) ([]eligibility.PerformanceRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT employee_id, year, rating, score
          FROM performance_records
         WHERE employee_id = $1
         ORDER BY year DESC, id DESC
    `, employeeID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer rows.Close()

	var records []eligibility.PerformanceRecord
	for rows.Next() {
		var (
			rec   eligibility.PerformanceRecord
			score sql.NullFloat64
		)
		if err := rows.Scan(&rec.EmployeeID, &rec.Year, &rec.Rating, &score); err != nil {
			return nil, translateStoreError(err)
		}
		if score.Valid {
			v := score.Float64
			rec.Score = &v
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreError(err)
	}
	return records, nil
}

// TrainingHistory は研修記録を新しい修了日順に返します。
func (s *RecordStore) TrainingHistory(ctx context.Context, employeeID string) ([]eligibility.TrainingRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, s.pool)
	rows, err := exec.Query(ctx, `
        SELECT employee_id, course_name, course_type, hours, completion_date
          FROM training_records
         WHERE employee_id = $1
         ORDER BY completion_date DESC NULLS LAST, id DESC
    `, employeeID)
	if err != nil {
		return nil, translateStoreError(err)
	}
	defer rows.Close()

	var records []eligibility.TrainingRecord
	for rows.Next() {
		var (
			rec       eligibility.TrainingRecord
			completed sql.NullTime
		)
		if err := rows.Scan(&rec.EmployeeID, &rec.CourseName, &rec.CourseType, &rec.Hours, &completed); err != nil {
			return nil, translateStoreError(err)
		}
		rec.CompletionDate = datePointer(completed)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, translateStoreError(err)
	}
	return records, nil
}

func scanEmployeeRecord(row pgx.Row) (*eligibility.EmployeeRecord, error) {
	var (
		emp      eligibility.EmployeeRecord
		hash     sql.NullString
		hireDate sql.NullTime
	)
	if err := row.Scan(&emp.EmployeeID, &emp.Name, &hash, &emp.Department, &hireDate, &emp.Status); err != nil {
		return nil, err
	}
	emp.PersonalIDHash = hash.String
	emp.HireDate = datePointer(hireDate)
	return &emp, nil
}

func scanSeparationRecord(row pgx.Row) (*eligibility.SeparationRecord, error) {
	var rec eligibility.SeparationRecord
	if err := row.Scan(&rec.ID, &rec.EmployeeID, &rec.SeparationDate, &rec.SeparationType, &rec.Reason, &rec.Blacklist); err != nil {
		return nil, err
	}
	rec.SeparationDate = truncateDate(rec.SeparationDate)
	return &rec, nil
}

// translateStoreError は読み取り時の失敗を ErrStoreUnavailable として包みます。
// コンテキストの終了はそのまま返し、呼び出し側で区別できるようにします。
func translateStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", eligibility.ErrStoreUnavailable, err)
	}
}

func datePointer(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	date := truncateDate(value.Time)
	return &date
}

func truncateDate(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return truncateDate(*value)
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableFloat(value *float64) any {
	if value == nil {
		return nil
	}
	return *value
}
