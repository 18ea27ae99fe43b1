package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/core/roster"
)

// Store はプロセス内で完結する人事記録ストアです。CLI のフィクスチャ実行とテストで使います。
// eligibility.RecordStore と roster.Repository の両方を満たします。
type Store struct {
	mu   sync.RWMutex
	txMu sync.RWMutex

	employees   map[string]eligibility.EmployeeRecord
	separations []eligibility.SeparationRecord
	performance []eligibility.PerformanceRecord
	training    []eligibility.TrainingRecord
	nextSepID   int64
}

var (
	_ eligibility.RecordStore = (*Store)(nil)
	_ roster.Repository       = (*Store)(nil)
)

// NewStore は空のストアを生成します。
func NewStore() *Store {
	return &Store{
		employees: make(map[string]eligibility.EmployeeRecord),
		nextSepID: 1,
	}
}

// FindEmployeesByName は氏名が完全一致する社員を社員番号順に返します。
func (s *Store) FindEmployeesByName(ctx context.Context, name string) ([]eligibility.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var found []eligibility.EmployeeRecord
	for _, emp := range s.employees {
		if emp.Name == name {
			found = append(found, cloneEmployee(emp))
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].EmployeeID < found[j].EmployeeID })
	return found, nil
}

// FindEmployeeByPersonalIDHash はダイジェストで社員を取得します。
func (s *Store) FindEmployeeByPersonalIDHash(ctx context.Context, hash string) (*eligibility.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, emp := range s.employees {
		if hash != "" && emp.PersonalIDHash == hash {
			clone := cloneEmployee(emp)
			return &clone, nil
		}
	}
	return nil, eligibility.ErrEmployeeNotFound
}

// LatestSeparation は最新の離職記録を返します。
func (s *Store) LatestSeparation(ctx context.Context, employeeID string) (*eligibility.SeparationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []eligibility.SeparationRecord
	for _, rec := range s.separations {
		if rec.EmployeeID == employeeID {
			owned = append(owned, rec)
		}
	}
	return eligibility.MostRecentSeparation(owned), nil
}

// PerformanceHistory は評価記録を新しい年度順に返します。
func (s *Store) PerformanceHistory(ctx context.Context, employeeID string) ([]eligibility.PerformanceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []eligibility.PerformanceRecord
	for _, rec := range s.performance {
		if rec.EmployeeID == employeeID {
			rec.Score = cloneFloat(rec.Score)
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Year > records[j].Year })
	return records, nil
}

// TrainingHistory は研修記録を新しい修了日順に返します。修了日のない記録は末尾です。
func (s *Store) TrainingHistory(ctx context.Context, employeeID string) ([]eligibility.TrainingRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []eligibility.TrainingRecord
	for _, rec := range s.training {
		if rec.EmployeeID == employeeID {
			rec.CompletionDate = cloneTime(rec.CompletionDate)
			records = append(records, rec)
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].CompletionDate, records[j].CompletionDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return records, nil
}

// CreateEmployee は社員を登録します。
func (s *Store) CreateEmployee(ctx context.Context, emp *eligibility.EmployeeRecord) (*eligibility.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[emp.EmployeeID]; ok {
		return nil, roster.ErrEmployeeAlreadyExists
	}
	if emp.PersonalIDHash != "" {
		for _, existing := range s.employees {
			if existing.PersonalIDHash == emp.PersonalIDHash {
				return nil, roster.ErrPersonalIDAlreadyRegistered
			}
		}
	}

	stored := cloneEmployee(*emp)
	s.employees[stored.EmployeeID] = stored
	out := cloneEmployee(stored)
	return &out, nil
}

// FindEmployee は社員番号で社員を取得します。
func (s *Store) FindEmployee(ctx context.Context, employeeID string) (*eligibility.EmployeeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	emp, ok := s.employees[employeeID]
	if !ok {
		return nil, roster.ErrEmployeeNotFound
	}
	out := cloneEmployee(emp)
	return &out, nil
}

// ExistsPersonalIDHash はダイジェストが登録済みかを返します。
func (s *Store) ExistsPersonalIDHash(ctx context.Context, hash string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, emp := range s.employees {
		if emp.PersonalIDHash == hash {
			return true, nil
		}
	}
	return false, nil
}

// UpdateEmployeeStatus は社員の状態を更新します。
func (s *Store) UpdateEmployeeStatus(ctx context.Context, employeeID, status string, _ time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	emp, ok := s.employees[employeeID]
	if !ok {
		return roster.ErrEmployeeNotFound
	}
	emp.Status = status
	s.employees[employeeID] = emp
	return nil
}

// AppendSeparation は離職記録を追記し、挿入順の ID を採番します。
func (s *Store) AppendSeparation(ctx context.Context, rec *eligibility.SeparationRecord) (*eligibility.SeparationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[rec.EmployeeID]; !ok {
		return nil, roster.ErrEmployeeNotFound
	}
	stored := *rec
	stored.ID = s.nextSepID
	s.nextSepID++
	s.separations = append(s.separations, stored)
	return &stored, nil
}

// AppendPerformance は評価記録を追記します。
func (s *Store) AppendPerformance(ctx context.Context, rec *eligibility.PerformanceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[rec.EmployeeID]; !ok {
		return roster.ErrEmployeeNotFound
	}
	stored := *rec
	stored.Score = cloneFloat(rec.Score)
	s.performance = append(s.performance, stored)
	return nil
}

// AppendTraining は研修記録を追記します。
func (s *Store) AppendTraining(ctx context.Context, rec *eligibility.TrainingRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[rec.EmployeeID]; !ok {
		return roster.ErrEmployeeNotFound
	}
	stored := *rec
	stored.CompletionDate = cloneTime(rec.CompletionDate)
	s.training = append(s.training, stored)
	return nil
}

// ListEmployees は社員番号順に一覧を返します。
func (s *Store) ListEmployees(ctx context.Context, filter roster.ListEmployeesFilter) ([]eligibility.EmployeeRecord, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if filter.Limit <= 0 {
		return nil, "", roster.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", roster.ErrInvalidPageToken
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]eligibility.EmployeeRecord, 0, len(s.employees))
	for _, id := range s.employeeIDs() {
		emp := s.employees[id]
		if filter.Status == "" || emp.Status == filter.Status {
			matched = append(matched, cloneEmployee(emp))
		}
	}

	if filter.Offset >= len(matched) {
		return []eligibility.EmployeeRecord{}, "", nil
	}
	end := filter.Offset + filter.Limit
	if end >= len(matched) {
		return matched[filter.Offset:], "", nil
	}
	return matched[filter.Offset:end], strconv.Itoa(end), nil
}

// DeleteEmployeeRecords は社員と、その離職、評価、研修の記録を削除します。
func (s *Store) DeleteEmployeeRecords(ctx context.Context, employeeID string) (*roster.DeletedRecords, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.employees[employeeID]; !ok {
		return nil, roster.ErrEmployeeNotFound
	}

	deleted := &roster.DeletedRecords{}
	s.separations, deleted.Separations = withoutEmployee(s.separations, employeeID, func(r eligibility.SeparationRecord) string { return r.EmployeeID })
	s.performance, deleted.Performance = withoutEmployee(s.performance, employeeID, func(r eligibility.PerformanceRecord) string { return r.EmployeeID })
	s.training, deleted.Training = withoutEmployee(s.training, employeeID, func(r eligibility.TrainingRecord) string { return r.EmployeeID })
	delete(s.employees, employeeID)
	return deleted, nil
}

// employeeIDs は登録済みの社員番号を昇順で返します。s.mu を保持した状態で呼び出します。
func (s *Store) employeeIDs() []string {
	ids := make([]string, 0, len(s.employees))
	for id := range s.employees {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// withoutEmployee は employeeID の記録を除いた新しいスライスと除いた件数を返します。
func withoutEmployee[T any](records []T, employeeID string, idOf func(T) string) ([]T, int) {
	kept := make([]T, 0, len(records))
	removed := 0
	for _, rec := range records {
		if idOf(rec) == employeeID {
			removed++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, removed
}

func cloneEmployee(emp eligibility.EmployeeRecord) eligibility.EmployeeRecord {
	emp.HireDate = cloneTime(emp.HireDate)
	return emp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	clone := *v
	return &clone
}
