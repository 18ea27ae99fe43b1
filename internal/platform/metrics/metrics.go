package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
)

// Metrics は再雇用判定の計測値を保持します。eligibility.Observer を満たします。
type Metrics struct {
	// 最終判定ごとの件数
	DecisionOutcome *prometheus.CounterVec

	// 一人分の判定にかかった時間
	EvaluateLatency prometheus.Histogram

	// バッチの対象者数と所要時間
	BatchSize    prometheus.Histogram
	BatchLatency prometheus.Histogram
}

// New は reg に判定用のメトリクスを登録します。
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		DecisionOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "rehire_eligibility_decisions_total",
			Help: "Total eligibility decisions by overall status",
		}, []string{"status"}),

		EvaluateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehire_eligibility_evaluate_duration_seconds",
			Help:    "Duration of a single eligibility evaluation including record lookups",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),

		BatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehire_eligibility_batch_subjects",
			Help:    "Number of subjects submitted per batch",
			Buckets: prometheus.ExponentialBuckets(1, 4, 7),
		}),

		BatchLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "rehire_eligibility_batch_duration_seconds",
			Help:    "Duration of a batch evaluation",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
		}),
	}

	// 集計表示で常に四つの状態が並ぶよう、ラベルを先に作っておきます。
	for _, d := range eligibility.Decisions() {
		m.DecisionOutcome.WithLabelValues(string(d))
	}
	return m
}

// NewRegistry はプロセスと Go ランタイムのコレクタを含むレジストリを返します。
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ObserveEvaluation は判定一件を記録します。
func (m *Metrics) ObserveEvaluation(decision eligibility.Decision, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DecisionOutcome.WithLabelValues(string(decision)).Inc()
	m.EvaluateLatency.Observe(elapsed.Seconds())
}

// ObserveBatch はバッチ一回を記録します。
func (m *Metrics) ObserveBatch(subjects int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.BatchSize.Observe(float64(subjects))
	m.BatchLatency.Observe(elapsed.Seconds())
}
