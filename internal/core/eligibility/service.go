package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
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
// 一人分の照会は一つの読み取り専用トランザクション内で行い、途中の更新を混在させません。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Observer は判定結果の計測を受け取ります。
type Observer interface {
	ObserveEvaluation(decision Decision, elapsed time.Duration)
	ObserveBatch(subjects int, elapsed time.Duration)
}

type noopObserver struct{}

func (noopObserver) ObserveEvaluation(Decision, time.Duration) {}
func (noopObserver) ObserveBatch(int, time.Duration)           {}

// ReportSink は確定したレポートの送り先です。
type ReportSink interface {
	Publish(ctx context.Context, report *Report) error
}

const defaultLookupTimeout = 3 * time.Second

// UseCase は再雇用判定ユースケースの公開インターフェースです。
type UseCase interface {
	Evaluate(ctx context.Context, subject Subject) (*Report, error)
	EvaluateBatch(ctx context.Context, subjects []Subject) (*BatchResult, error)
}

// Service は再雇用可否を判定します。
type Service struct {
	store            RecordStore
	clock            Clock
	tx               TransactionManager
	rules            Rules
	hasher           Hasher
	observer         Observer
	sink             ReportSink
	lookupTimeout    time.Duration
	batchConcurrency int
	newBatchID       func() string
}

// Option は Service の任意設定です。
type Option func(*Service)

// WithRules は判定ルールを差し替えます。
func WithRules(rules Rules) Option {
	return func(s *Service) {
		s.rules = rules.withDefaults()
	}
}

// WithHasher は個人識別番号のハッシュ方式を指定します。
func WithHasher(h Hasher) Option {
	return func(s *Service) {
		s.hasher = h
	}
}

// WithObserver は計測先を指定します。
func WithObserver(o Observer) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// WithReportSink は判定後にレポートを送る先を指定します。送信失敗は判定失敗として扱います。
func WithReportSink(sink ReportSink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// WithLookupTimeout は RecordStore への一回の照会の上限時間です。
func WithLookupTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.lookupTimeout = d
		}
	}
}

// WithBatchConcurrency はバッチ判定の同時実行数です。1 で逐次実行になります。
func WithBatchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchConcurrency = n
		}
	}
}

// WithBatchIDGenerator はバッチ ID の採番方法を指定します。
func WithBatchIDGenerator(fn func() string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newBatchID = fn
		}
	}
}

// NewService は Service を生成します。
func NewService(store RecordStore, clock Clock, tx TransactionManager, opts ...Option) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	s := &Service{
		store:            store,
		clock:            clock,
		tx:               tx,
		rules:            DefaultRules(),
		observer:         noopObserver{},
		lookupTimeout:    defaultLookupTimeout,
		batchConcurrency: 1,
		newBatchID:       newBatchID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Evaluate は一人分の判定を行います。社員が見つからない場合もエラーではなく NOT_FOUND のレポートを返します。
func (s *Service) Evaluate(ctx context.Context, subject Subject) (*Report, error) {
	normalized, err := normalizeSubject(subject)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	var report *Report
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		built, err := s.evaluate(txCtx, normalized)
		if err != nil {
			return err
		}
		report = built
		return nil
	}); err != nil {
		return nil, classifyStoreError(err)
	}

	if s.sink != nil {
		if err := s.sink.Publish(ctx, report); err != nil {
			return nil, fmt.Errorf("eligibility: publish report: %w", err)
		}
	}

	s.observer.ObserveEvaluation(report.OverallStatus, time.Since(start))
	return report, nil
}

// EvaluateBatch は複数の対象を独立に判定し、集計結果を返します。
func (s *Service) EvaluateBatch(ctx context.Context, subjects []Subject) (*BatchResult, error) {
	if len(subjects) == 0 {
		return nil, ErrInvalidBatchInput
	}

	start := time.Now()
	result := NewBatchResult(s.newBatchID(), len(subjects))
	result.StartedAt = s.clock.Now()

	runner := NewBatchRunner(s, WithConcurrency(s.batchConcurrency))
	err := runner.Run(ctx, subjects, result)

	result.FinishedAt = s.clock.Now()
	s.observer.ObserveBatch(len(subjects), time.Since(start))

	if err != nil {
		return result, err
	}
	return result, nil
}

func (s *Service) evaluate(ctx context.Context, subject Subject) (*Report, error) {
	now := s.clock.Now()

	emp, err := s.resolve(ctx, subject)
	if errors.Is(err, ErrEmployeeNotFound) {
		return buildReport(subject, "", []CheckResult{lookupFailed()}, now), nil
	}
	if err != nil {
		return nil, err
	}

	checks := make([]CheckResult, 0, 5)
	checks = append(checks, lookupPassed(emp))

	var latest *SeparationRecord
	if err := s.call(ctx, func(callCtx context.Context) error {
		var err error
		latest, err = s.store.LatestSeparation(callCtx, emp.EmployeeID)
		return err
	}); err != nil {
		return nil, err
	}

	blacklist := CheckBlacklist(latest)
	checks = append(checks, blacklist)
	if blacklist.Status == CheckFail {
		return buildReport(subject, emp.EmployeeID, checks, now), nil
	}

	var performance []PerformanceRecord
	if err := s.call(ctx, func(callCtx context.Context) error {
		var err error
		performance, err = s.store.PerformanceHistory(callCtx, emp.EmployeeID)
		return err
	}); err != nil {
		return nil, err
	}

	var training []TrainingRecord
	if err := s.call(ctx, func(callCtx context.Context) error {
		var err error
		training, err = s.store.TrainingHistory(callCtx, emp.EmployeeID)
		return err
	}); err != nil {
		return nil, err
	}

	checks = append(checks,
		s.rules.CheckSeparation(latest),
		s.rules.CheckPerformance(performance),
		CheckTraining(training),
	)

	return buildReport(subject, emp.EmployeeID, checks, now), nil
}

func (s *Service) resolve(ctx context.Context, subject Subject) (*EmployeeRecord, error) {
	if subject.PersonalID != "" {
		hash := s.hasher.Hash(subject.PersonalID)
		var found *EmployeeRecord
		if err := s.call(ctx, func(callCtx context.Context) error {
			var err error
			found, err = s.store.FindEmployeeByPersonalIDHash(callCtx, hash)
			return err
		}); err != nil {
			return nil, err
		}
		if found == nil {
			return nil, ErrEmployeeNotFound
		}
		return found, nil
	}

	var matches []EmployeeRecord
	if err := s.call(ctx, func(callCtx context.Context) error {
		var err error
		matches, err = s.store.FindEmployeesByName(callCtx, subject.Name)
		return err
	}); err != nil {
		return nil, err
	}

	switch len(matches) {
	case 0:
		return nil, ErrEmployeeNotFound
	case 1:
		emp := matches[0]
		return &emp, nil
	default:
		return nil, fmt.Errorf("%w: %q matched %d records, supply a personal id", ErrAmbiguousMatch, subject.Name, len(matches))
	}
}

// call は照会一回ごとに上限時間を設けます。
func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.lookupTimeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: lookup timed out after %s", ErrStoreUnavailable, s.lookupTimeout)
	}
	return err
}

// classifyStoreError は既知の分類に当てはまらない失敗を ErrStoreUnavailable に寄せます。
func classifyStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStoreUnavailable),
		errors.Is(err, ErrAmbiguousMatch),
		errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
}

func normalizeSubject(subject Subject) (Subject, error) {
	normalized := Subject{
		Name:       strings.TrimSpace(subject.Name),
		PersonalID: strings.TrimSpace(subject.PersonalID),
	}
	if normalized.Name == "" && normalized.PersonalID == "" {
		return Subject{}, ErrInvalidSubject
	}
	return normalized, nil
}
