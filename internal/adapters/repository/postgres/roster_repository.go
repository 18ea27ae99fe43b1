package postgres

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
	pgdb "github.com/ogurasousui/rehire-eligibility/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"

	personalIDHashConstraint = "employees_personal_id_hash_key"
)

// RosterRepository は PostgreSQL を利用した人事記録の書き込み実装です。
type RosterRepository struct {
	pool pgdb.Queryer
}

var _ roster.Repository = (*RosterRepository)(nil)

// NewRosterRepository は RosterRepository を生成します。
func NewRosterRepository(pool pgdb.Queryer) *RosterRepository {
	return &RosterRepository{pool: pool}
}

// CreateEmployee は社員を登録します。
func (r *RosterRepository) CreateEmployee(ctx context.Context, emp *eligibility.EmployeeRecord) (*eligibility.EmployeeRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (employee_id, name, personal_id_hash, department, hire_date, status)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING `+employeeColumns,
		emp.EmployeeID,
		emp.Name,
		nullableString(emp.PersonalIDHash),
		emp.Department,
		nullableTime(emp.HireDate),
		emp.Status,
	)

	created, err := scanEmployeeRecord(row)
	if err != nil {
		return nil, translateRosterPgError(err)
	}
	return created, nil
}

// FindEmployee は社員番号で社員を取得します。
func (r *RosterRepository) FindEmployee(ctx context.Context, employeeID string) (*eligibility.EmployeeRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees
         WHERE employee_id = $1
         LIMIT 1
    `, employeeID)

	found, err := scanEmployeeRecord(row)
	if err != nil {
		return nil, translateRosterPgError(err)
	}
	return found, nil
}

// ExistsPersonalIDHash はダイジェストが登録済みかを返します。
func (r *RosterRepository) ExistsPersonalIDHash(ctx context.Context, hash string) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE personal_id_hash = $1)`, hash).Scan(&exists); err != nil {
		return false, translateRosterPgError(err)
	}
	return exists, nil
}

// UpdateEmployeeStatus は社員の状態を更新します。
func (r *RosterRepository) UpdateEmployeeStatus(ctx context.Context, employeeID, status string, updatedAt time.Time) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET status = $1,
               updated_at = $2
         WHERE employee_id = $3
    `, status, updatedAt, employeeID)
	if err != nil {
		return translateRosterPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return roster.ErrEmployeeNotFound
	}
	return nil
}

// AppendSeparation は離職記録を追記し、採番済みの記録を返します。
func (r *RosterRepository) AppendSeparation(ctx context.Context, rec *eligibility.SeparationRecord) (*eligibility.SeparationRecord, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO separation_records (employee_id, separation_date, separation_type, reason, blacklist)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, employee_id, separation_date, separation_type, reason, blacklist
    `,
		rec.EmployeeID,
		truncateDate(rec.SeparationDate),
		rec.SeparationType,
		rec.Reason,
		rec.Blacklist,
	)

	created, err := scanSeparationRecord(row)
	if err != nil {
		return nil, translateRosterPgError(err)
	}
	return created, nil
}

// AppendPerformance は評価記録を追記します。
func (r *RosterRepository) AppendPerformance(ctx context.Context, rec *eligibility.PerformanceRecord) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        INSERT INTO performance_records (employee_id, year, rating, score)
        VALUES ($1, $2, $3, $4)
    `, rec.EmployeeID, rec.Year, rec.Rating, nullableFloat(rec.Score)); err != nil {
		return translateRosterPgError(err)
	}
	return nil
}

// AppendTraining は研修記録を追記します。
func (r *RosterRepository) AppendTraining(ctx context.Context, rec *eligibility.TrainingRecord) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        INSERT INTO training_records (employee_id, course_name, course_type, hours, completion_date)
        VALUES ($1, $2, $3, $4, $5)
    `, rec.EmployeeID, rec.CourseName, rec.CourseType, rec.Hours, nullableTime(rec.CompletionDate)); err != nil {
		return translateRosterPgError(err)
	}
	return nil
}

// ListEmployees は社員番号順に一覧を返します。次のページがあればオフセットをトークンとして返します。
func (r *RosterRepository) ListEmployees(ctx context.Context, filter roster.ListEmployeesFilter) ([]eligibility.EmployeeRecord, string, error) {
	if filter.Limit <= 0 {
		return nil, "", roster.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", roster.ErrInvalidPageToken
	}

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Status != "" {
		args = append(args, filter.Status)
		whereClause = `
         WHERE status = $1`
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Limit+1)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT `+employeeColumns+`
          FROM employees`+whereClause+`
         ORDER BY employee_id
         LIMIT `+limitPlaceholder+`
        OFFSET `+offsetPlaceholder, args...)
	if err != nil {
		return nil, "", translateRosterPgError(err)
	}
	defer rows.Close()

	employees := make([]eligibility.EmployeeRecord, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployeeRecord(rows)
		if err != nil {
			return nil, "", translateRosterPgError(err)
		}
		employees = append(employees, *emp)
	}
	if err := rows.Err(); err != nil {
		return nil, "", translateRosterPgError(err)
	}

	nextToken := ""
	if len(employees) > filter.Limit {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}
	return employees, nextToken, nil
}

// DeleteEmployeeRecords は子テーブルから順に社員一人分の記録を削除します。
func (r *RosterRepository) DeleteEmployeeRecords(ctx context.Context, employeeID string) (*roster.DeletedRecords, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	deleted := &roster.DeletedRecords{}

	steps := []struct {
		query string
		count *int
	}{
		{`DELETE FROM separation_records WHERE employee_id = $1`, &deleted.Separations},
		{`DELETE FROM performance_records WHERE employee_id = $1`, &deleted.Performance},
		{`DELETE FROM training_records WHERE employee_id = $1`, &deleted.Training},
	}
	for _, step := range steps {
		tag, err := exec.Exec(ctx, step.query, employeeID)
		if err != nil {
			return nil, translateRosterPgError(err)
		}
		*step.count = int(tag.RowsAffected())
	}

	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE employee_id = $1`, employeeID)
	if err != nil {
		return nil, translateRosterPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, roster.ErrEmployeeNotFound
	}
	return deleted, nil
}

func translateRosterPgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return roster.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == personalIDHashConstraint {
				return roster.ErrPersonalIDAlreadyRegistered
			}
			return roster.ErrEmployeeAlreadyExists
		case foreignKeyViolationCode:
			return roster.ErrEmployeeNotFound
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "performance_records_year_check":
				return roster.ErrInvalidYear
			case "performance_records_score_check":
				return roster.ErrInvalidScore
			case "training_records_hours_check":
				return roster.ErrInvalidHours
			default:
				return err
			}
		}
	}

	return err
}
