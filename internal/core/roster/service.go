package roster

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const (
	StatusActive    = "active"
	StatusSeparated = "separated"

	minPerformanceYear = 1900
	maxPerformanceYear = 2100

	defaultListPageSize = 50
	maxListPageSize     = 200
)

// Service は人事記録の取り込みユースケースをまとめます。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	hasher eligibility.Hasher
}

// UseCase は取り込みユースケースの公開インターフェースです。
type UseCase interface {
	RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (*eligibility.EmployeeRecord, error)
	UpdateEmployeeStatus(ctx context.Context, in UpdateEmployeeStatusInput) error
	RecordSeparation(ctx context.Context, in RecordSeparationInput) (*eligibility.SeparationRecord, error)
	RecordPerformance(ctx context.Context, in RecordPerformanceInput) error
	RecordTraining(ctx context.Context, in RecordTrainingInput) error
	Import(ctx context.Context, in ImportInput) (*ImportSummary, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	DeleteEmployeeRecords(ctx context.Context, in DeleteEmployeeRecordsInput) (*DeletedRecords, error)
}

// NewService は Service を生成します。hasher は判定側と同じものを渡す必要があります。
func NewService(repo Repository, clock Clock, tx TransactionManager, hasher eligibility.Hasher) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, hasher: hasher}
}

// RegisterEmployeeInput は社員登録時の入力です。PersonalID は保存されず、ダイジェストのみ保存されます。
type RegisterEmployeeInput struct {
	EmployeeID string
	Name       string
	PersonalID string
	Department string
	HireDate   *time.Time
	Status     string
}

// UpdateEmployeeStatusInput は状態変更時の入力です。
type UpdateEmployeeStatusInput struct {
	EmployeeID string
	Status     string
}

// RecordSeparationInput は離職記録の入力です。
type RecordSeparationInput struct {
	EmployeeID     string
	SeparationDate time.Time
	SeparationType string
	Reason         string
	Blacklist      bool
}

// RecordPerformanceInput は評価記録の入力です。
type RecordPerformanceInput struct {
	EmployeeID string
	Year       int
	Rating     string
	Score      *float64
}

// RecordTrainingInput は研修記録の入力です。
type RecordTrainingInput struct {
	EmployeeID     string
	CourseName     string
	CourseType     string
	Hours          float64
	CompletionDate *time.Time
}

// ImportInput は一括取り込みの入力です。全件が一つのトランザクションで書き込まれます。
type ImportInput struct {
	Employees   []RegisterEmployeeInput
	Separations []RecordSeparationInput
	Performance []RecordPerformanceInput
	Training    []RecordTrainingInput
}

// ImportSummary は一括取り込みの件数です。
type ImportSummary struct {
	Employees   int
	Separations int
	Performance int
	Training    int
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Status    string
	PageSize  int
	PageToken string
}

// ListEmployeesResult は一覧取得結果を表します。
type ListEmployeesResult struct {
	Employees     []eligibility.EmployeeRecord
	NextPageToken string
}

// DeleteEmployeeRecordsInput は社員一人分の記録削除の入力です。
type DeleteEmployeeRecordsInput struct {
	EmployeeID string
}

// RegisterEmployee は社員を登録します。
func (s *Service) RegisterEmployee(ctx context.Context, in RegisterEmployeeInput) (*eligibility.EmployeeRecord, error) {
	var created *eligibility.EmployeeRecord
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.registerEmployee(txCtx, in)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateEmployeeStatus は社員の状態を更新します。社員記録で変更できるのは状態だけです。
func (s *Service) UpdateEmployeeStatus(ctx context.Context, in UpdateEmployeeStatusInput) error {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return err
	}
	status := normalizeStatus(in.Status)
	if status == "" {
		return ErrInvalidStatus
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.UpdateEmployeeStatus(txCtx, id, status, s.clock.Now())
	})
}

// RecordSeparation は離職記録を追記します。
func (s *Service) RecordSeparation(ctx context.Context, in RecordSeparationInput) (*eligibility.SeparationRecord, error) {
	var created *eligibility.SeparationRecord
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.recordSeparation(txCtx, in)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}
	return created, nil
}

// RecordPerformance は評価記録を追記します。同一年度の重複は許容します。
func (s *Service) RecordPerformance(ctx context.Context, in RecordPerformanceInput) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.recordPerformance(txCtx, in)
	})
}

// RecordTraining は研修記録を追記します。
func (s *Service) RecordTraining(ctx context.Context, in RecordTrainingInput) error {
	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.recordTraining(txCtx, in)
	})
}

// Import は社員、離職、評価、研修の順に取り込みます。一件でも失敗すれば全体を取り消します。
func (s *Service) Import(ctx context.Context, in ImportInput) (*ImportSummary, error) {
	summary := &ImportSummary{}
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		for i, emp := range in.Employees {
			if _, err := s.registerEmployee(txCtx, emp); err != nil {
				return fmt.Errorf("employees[%d]: %w", i, err)
			}
			summary.Employees++
		}
		for i, sep := range in.Separations {
			if _, err := s.recordSeparation(txCtx, sep); err != nil {
				return fmt.Errorf("separations[%d]: %w", i, err)
			}
			summary.Separations++
		}
		for i, perf := range in.Performance {
			if err := s.recordPerformance(txCtx, perf); err != nil {
				return fmt.Errorf("performance[%d]: %w", i, err)
			}
			summary.Performance++
		}
		for i, tr := range in.Training {
			if err := s.recordTraining(txCtx, tr); err != nil {
				return fmt.Errorf("training[%d]: %w", i, err)
			}
			summary.Training++
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return summary, nil
}

// ListEmployees は社員番号順に社員の一覧を取得します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	limit, err := normalizePageSize(in.PageSize)
	if err != nil {
		return nil, err
	}

	offset, err := parsePageToken(in.PageToken)
	if err != nil {
		return nil, err
	}

	var (
		employees []eligibility.EmployeeRecord
		nextToken string
	)

	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, token, err := s.repo.ListEmployees(txCtx, ListEmployeesFilter{
			Status: normalizeStatus(in.Status),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			return err
		}
		employees = found
		nextToken = token
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, NextPageToken: nextToken}, nil
}

// DeleteEmployeeRecords は社員と、その離職、評価、研修の記録をまとめて削除します。
func (s *Service) DeleteEmployeeRecords(ctx context.Context, in DeleteEmployeeRecordsInput) (*DeletedRecords, error) {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	var deleted *DeletedRecords
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		result, err := s.repo.DeleteEmployeeRecords(txCtx, id)
		if err != nil {
			return err
		}
		deleted = result
		return nil
	}); err != nil {
		return nil, err
	}
	return deleted, nil
}

func (s *Service) registerEmployee(ctx context.Context, in RegisterEmployeeInput) (*eligibility.EmployeeRecord, error) {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	status := StatusActive
	if strings.TrimSpace(in.Status) != "" {
		status = normalizeStatus(in.Status)
	}

	var hash string
	if personalID := strings.TrimSpace(in.PersonalID); personalID != "" {
		hash = s.hasher.Hash(personalID)
		exists, err := s.repo.ExistsPersonalIDHash(ctx, hash)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrPersonalIDAlreadyRegistered
		}
	}

	return s.repo.CreateEmployee(ctx, &eligibility.EmployeeRecord{
		EmployeeID:     id,
		Name:           name,
		PersonalIDHash: hash,
		Department:     strings.TrimSpace(in.Department),
		HireDate:       normalizeDate(in.HireDate),
		Status:         status,
	})
}

func (s *Service) recordSeparation(ctx context.Context, in RecordSeparationInput) (*eligibility.SeparationRecord, error) {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return nil, err
	}
	if in.SeparationDate.IsZero() {
		return nil, ErrInvalidSeparationDate
	}
	sepType := eligibility.NormalizeSeparationType(in.SeparationType)
	if sepType == "" {
		return nil, ErrInvalidSeparationType
	}

	if _, err := s.repo.FindEmployee(ctx, id); err != nil {
		return nil, err
	}

	sepDate := *normalizeDate(&in.SeparationDate)

	return s.repo.AppendSeparation(ctx, &eligibility.SeparationRecord{
		EmployeeID:     id,
		SeparationDate: sepDate,
		SeparationType: sepType,
		Reason:         strings.TrimSpace(in.Reason),
		Blacklist:      in.Blacklist,
	})
}

func (s *Service) recordPerformance(ctx context.Context, in RecordPerformanceInput) error {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return err
	}
	if in.Year < minPerformanceYear || in.Year > maxPerformanceYear {
		return ErrInvalidYear
	}
	rating := strings.ToUpper(strings.TrimSpace(in.Rating))
	if rating == "" {
		return ErrInvalidRating
	}
	if in.Score != nil && (!isFinite(*in.Score) || *in.Score < 0 || *in.Score > 100) {
		return ErrInvalidScore
	}

	if _, err := s.repo.FindEmployee(ctx, id); err != nil {
		return err
	}

	return s.repo.AppendPerformance(ctx, &eligibility.PerformanceRecord{
		EmployeeID: id,
		Year:       in.Year,
		Rating:     rating,
		Score:      cloneFloat(in.Score),
	})
}

func (s *Service) recordTraining(ctx context.Context, in RecordTrainingInput) error {
	id, err := normalizeEmployeeID(in.EmployeeID)
	if err != nil {
		return err
	}
	course := strings.TrimSpace(in.CourseName)
	if course == "" {
		return ErrInvalidCourseName
	}
	if !isFinite(in.Hours) || in.Hours < 0 {
		return ErrInvalidHours
	}

	if _, err := s.repo.FindEmployee(ctx, id); err != nil {
		return err
	}

	return s.repo.AppendTraining(ctx, &eligibility.TrainingRecord{
		EmployeeID:     id,
		CourseName:     course,
		CourseType:     strings.TrimSpace(in.CourseType),
		Hours:          in.Hours,
		CompletionDate: normalizeDate(in.CompletionDate),
	})
}

func normalizeEmployeeID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmployeeID
	}
	return trimmed, nil
}

func normalizeStatus(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

func normalizeDate(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}

	normalized := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &normalized
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func normalizePageSize(pageSize int) (int, error) {
	if pageSize <= 0 {
		return defaultListPageSize, nil
	}
	if pageSize > maxListPageSize {
		return 0, ErrInvalidPageSize
	}
	return pageSize, nil
}

func parsePageToken(token string) (int, error) {
	if strings.TrimSpace(token) == "" {
		return 0, nil
	}

	offset, err := strconv.Atoi(token)
	if err != nil || offset < 0 {
		return 0, ErrInvalidPageToken
	}

	return offset, nil
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}
