package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/ogurasousui/rehire-eligibility/internal/core/eligibility"
	"github.com/ogurasousui/rehire-eligibility/internal/platform/config"
)

// EventDecisionMade は判定確定イベントの種別です。
const EventDecisionMade = "decision_made"

// Producer は同期送信できる Kafka クライアントです。*kgo.Client が満たします。
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// DecisionEvent は Kafka に送る判定結果です。生の個人識別番号は含めません。
type DecisionEvent struct {
	EventID         string    `json:"event_id"`
	Event           string    `json:"event"`
	EmployeeID      string    `json:"employee_id,omitempty"`
	SubjectName     string    `json:"subject_name,omitempty"`
	OverallStatus   string    `json:"overall_status"`
	Recommendation  string    `json:"recommendation"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	WarningItems    []string  `json:"warning_items,omitempty"`
	EvaluatedAt     time.Time `json:"evaluated_at"`
}

// Publisher は判定結果を decision_made イベントとして同期送信します。
// 送信に失敗した場合はエラーを返し、判定自体を失敗させます。
type Publisher struct {
	producer Producer
	topic    string
	log      zerolog.Logger
	newID    func() string
}

var _ eligibility.ReportSink = (*Publisher)(nil)

// Option は Publisher の任意設定です。
type Option func(*Publisher)

// WithLogger は送信失敗を記録するロガーを指定します。
func WithLogger(log zerolog.Logger) Option {
	return func(p *Publisher) {
		p.log = log
	}
}

// WithEventIDGenerator はイベント ID の採番方法を指定します。
func WithEventIDGenerator(fn func() string) Option {
	return func(p *Publisher) {
		if fn != nil {
			p.newID = fn
		}
	}
}

// New は Publisher を生成します。
func New(producer Producer, topic string, opts ...Option) *Publisher {
	p := &Publisher{
		producer: producer,
		topic:    topic,
		log:      zerolog.Nop(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewClient は設定から franz-go のクライアントを生成します。
func NewClient(cfg config.KafkaConfig) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.DefaultProduceTopic(cfg.Topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
		kgo.ProducerBatchMaxBytes(1<<20),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka: create client: %w", err)
	}
	return client, nil
}

// Publish はレポートを一件送信します。
func (p *Publisher) Publish(ctx context.Context, report *eligibility.Report) error {
	if report == nil {
		return fmt.Errorf("kafka: report is required")
	}

	event := p.toEvent(report)
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(report.EmployeeID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "event", Value: []byte(EventDecisionMade)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}

	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		p.log.Error().
			Err(err).
			Str("event_id", event.EventID).
			Str("employee_id", report.EmployeeID).
			Str("overall_status", event.OverallStatus).
			Msg("decision event publish failed")
		return fmt.Errorf("kafka: publish %s: %w", EventDecisionMade, err)
	}
	return nil
}

func (p *Publisher) toEvent(report *eligibility.Report) DecisionEvent {
	items := make([]string, 0, len(report.Warnings))
	for _, w := range report.Warnings {
		items = append(items, w.Item)
	}
	return DecisionEvent{
		EventID:         p.newID(),
		Event:           EventDecisionMade,
		EmployeeID:      report.EmployeeID,
		SubjectName:     report.Subject.Name,
		OverallStatus:   string(report.OverallStatus),
		Recommendation:  report.Recommendation,
		RejectionReason: report.RejectionReason,
		WarningItems:    items,
		EvaluatedAt:     report.EvaluatedAt.UTC(),
	}
}
