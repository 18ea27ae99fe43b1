package eligibility

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Evaluator は一人分の判定を行うものです。
type Evaluator interface {
	Evaluate(ctx context.Context, subject Subject) (*Report, error)
}

// BatchEntry はバッチ内の一件分の結果です。Report と Err はどちらか一方だけが設定されます。
type BatchEntry struct {
	Index   int
	Subject Subject
	Report  *Report
	Err     error
}

// BatchResult はバッチ判定の集計です。呼び出し側が所有し、Run に渡します。
type BatchResult struct {
	ID           string
	Entries      []BatchEntry
	ByEmployeeID map[string]*Report
	Counts       map[Decision]int
	Failed       int
	StartedAt    time.Time
	FinishedAt   time.Time

	mu sync.Mutex
}

// NewBatchResult は空の集計を生成します。Counts は全終端状態を 0 で持ちます。
func NewBatchResult(id string, capacity int) *BatchResult {
	counts := make(map[Decision]int, 4)
	for _, d := range Decisions() {
		counts[d] = 0
	}
	return &BatchResult{
		ID:           id,
		Entries:      make([]BatchEntry, 0, capacity),
		ByEmployeeID: make(map[string]*Report, capacity),
		Counts:       counts,
	}
}

// Reports は成功した判定のレポートを入力順で返します。
func (r *BatchResult) Reports() []*Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Report, 0, len(r.Entries))
	for _, e := range r.Entries {
		if e.Report != nil {
			out = append(out, e.Report)
		}
	}
	return out
}

func (r *BatchResult) record(entry BatchEntry) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.Entries = append(r.Entries, entry)
	if entry.Err != nil {
		r.Failed++
	} else if entry.Report != nil {
		r.Counts[entry.Report.OverallStatus]++
		if entry.Report.EmployeeID != "" {
			r.ByEmployeeID[entry.Report.EmployeeID] = entry.Report
		}
	}
	return len(r.Entries)
}

func (r *BatchResult) sortEntries() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Slice(r.Entries, func(i, j int) bool { return r.Entries[i].Index < r.Entries[j].Index })
}

// ProgressFunc は一件の判定が終わるたびに呼ばれます。呼び出しは直列化されます。
type ProgressFunc func(done, total int, entry BatchEntry)

// BatchRunner は対象ごとに独立して Evaluator を呼び出します。
type BatchRunner struct {
	evaluator   Evaluator
	concurrency int
	progress    ProgressFunc
}

// BatchOption は BatchRunner の任意設定です。
type BatchOption func(*BatchRunner)

// WithConcurrency は同時に判定する人数です。
func WithConcurrency(n int) BatchOption {
	return func(b *BatchRunner) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// WithProgress は進捗通知を設定します。
func WithProgress(fn ProgressFunc) BatchOption {
	return func(b *BatchRunner) {
		b.progress = fn
	}
}

// NewBatchRunner は BatchRunner を生成します。
func NewBatchRunner(evaluator Evaluator, opts ...BatchOption) *BatchRunner {
	b := &BatchRunner{evaluator: evaluator, concurrency: 1}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Run は subjects を判定し acc に記録します。
// ErrStoreUnavailable が発生した時点で残りの対象を打ち切り、そのエラーを返します。
// それ以外の対象ごとのエラーは Entry に記録して処理を続けます。
// 打ち切りは対象の間でのみ行われ、判定途中のレポートが記録されることはありません。
func (b *BatchRunner) Run(ctx context.Context, subjects []Subject, acc *BatchResult) error {
	if len(subjects) == 0 {
		return ErrInvalidBatchInput
	}
	if acc == nil {
		return errors.New("eligibility: batch accumulator is required")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	var progressMu sync.Mutex
	total := len(subjects)

	for i, subject := range subjects {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			report, err := b.evaluator.Evaluate(gctx, subject)
			if err != nil {
				if errors.Is(err, ErrStoreUnavailable) || gctx.Err() != nil {
					return err
				}
				report = nil
			}

			entry := BatchEntry{
				Index:   i,
				Subject: Subject{Name: subject.Name, PersonalID: maskPersonalID(subject.PersonalID)},
				Report:  report,
				Err:     err,
			}
			done := acc.record(entry)

			if b.progress != nil {
				progressMu.Lock()
				b.progress(done, total, entry)
				progressMu.Unlock()
			}
			return nil
		})
	}

	err := g.Wait()
	acc.sortEntries()
	if err != nil {
		return err
	}
	return ctx.Err()
}

func newBatchID() string {
	return uuid.NewString()
}
