package memory

import (
	"context"
	"maps"
	"slices"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

type snapshot struct {
	employees   map[string]eligibility.EmployeeRecord
	separations []eligibility.SeparationRecord
	performance []eligibility.PerformanceRecord
	training    []eligibility.TrainingRecord
	nextSepID   int64
}

// WithinReadOnly は実行中の書き込みトランザクションの完了を待ってから fn を実行します。
// 読み取り同士は並行に実行できます。
func (s *Store) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}

	s.txMu.RLock()
	defer s.txMu.RUnlock()
	return fn(ctx)
}

// WithinReadWrite は書き込みを直列化し、fn が失敗した場合は開始時点の状態に戻します。
func (s *Store) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return snapshot{
		employees:   maps.Clone(s.employees),
		separations: slices.Clone(s.separations),
		performance: slices.Clone(s.performance),
		training:    slices.Clone(s.training),
		nextSepID:   s.nextSepID,
	}
}

func (s *Store) restore(saved snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.employees = saved.employees
	s.separations = saved.separations
	s.performance = saved.performance
	s.training = saved.training
	s.nextSepID = saved.nextSepID
}
