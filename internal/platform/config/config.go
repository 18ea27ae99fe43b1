package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// 環境変数による上書き。秘匿値はファイルに置かずこちらで渡します。
const (
	EnvDatabasePassword = "HR_DATABASE_PASSWORD"
	EnvPersonalIDKey    = "HR_PERSONAL_ID_KEY"
	EnvKafkaBrokers     = "HR_KAFKA_BROKERS"

	defaultLookupTimeout = 3 * time.Second
	maxBatchConcurrency  = 64
)

// Config はアプリケーション全体の設定を表現します。
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Ops         OpsConfig         `yaml:"ops"`
	Database    DatabaseConfig    `yaml:"database"`
	Logging     LoggingConfig     `yaml:"logging"`
	Eligibility EligibilityConfig `yaml:"eligibility"`
	Rules       RulesConfig       `yaml:"rules"`
	Sink        SinkConfig        `yaml:"sink"`
}

// ServerConfig は gRPC サーバーに関する設定です。
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// OpsConfig はメトリクスとヘルスチェック用 HTTP サーバーの設定です。空の場合は起動しません。
type OpsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// DatabaseConfig は PostgreSQL 接続に関する設定です。
type DatabaseConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	Name               string        `yaml:"name"`
	SSLMode            string        `yaml:"ssl_mode"`
	MaxOpenConns       int           `yaml:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"-"`
	ConnMaxIdleTime    time.Duration `yaml:"-"`
	ConnMaxLifetimeRaw string        `yaml:"conn_max_lifetime"`
	ConnMaxIdleTimeRaw string        `yaml:"conn_max_idle_time"`
}

// LoggingConfig はログ出力の設定です。
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// EligibilityConfig は判定処理の設定です。
type EligibilityConfig struct {
	LookupTimeout    time.Duration `yaml:"-"`
	LookupTimeoutRaw string        `yaml:"lookup_timeout"`
	PersonalIDKey    string        `yaml:"personal_id_key"`
	BatchConcurrency int           `yaml:"batch_concurrency"`
}

// RulesConfig は判定ルールの設定です。空の項目は既定値になります。
type RulesConfig struct {
	LowRatings                 []string `yaml:"low_ratings"`
	InvoluntarySeparationTypes []string `yaml:"involuntary_separation_types"`
}

// SinkConfig は判定結果の送信先です。
type SinkConfig struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// KafkaConfig は判定イベントを送る Kafka の設定です。Brokers が空なら無効です。
type KafkaConfig struct {
	Brokers  []string `yaml:"brokers"`
	Topic    string   `yaml:"topic"`
	ClientID string   `yaml:"client_id"`
}

// Enabled は Kafka 送信が有効かを返します。
func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

// Load は指定されたパスから設定ファイルを読み込みます。
// カレントディレクトリに .env があれば先に読み込み、環境変数での上書きを適用します。
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	cfg.applyEnv(os.LookupEnv)

	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Defaults は設定ファイルなしで動かす場合の既定値を返します。データベース設定は含みません。
func Defaults() *Config {
	cfg := &Config{}
	cfg.applyEnv(os.LookupEnv)
	_ = cfg.Logging.validateAndNormalize()
	_ = cfg.Eligibility.validateAndNormalize()
	cfg.Rules.normalize()
	return cfg
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvDatabasePassword); ok && v != "" {
		c.Database.Password = v
	}
	if v, ok := lookup(EnvPersonalIDKey); ok && v != "" {
		c.Eligibility.PersonalIDKey = v
	}
	if v, ok := lookup(EnvKafkaBrokers); ok && v != "" {
		c.Sink.Kafka.Brokers = splitList(v)
	}
}

func (c *Config) validateAndNormalize() error {
	if c.Server.ListenAddr == "" {
		return fmt.Errorf("config: server.listen_addr must be set")
	}

	if c.Ops.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(c.Ops.ListenAddr); err != nil {
			return fmt.Errorf("config: ops.listen_addr: %w", err)
		}
	}

	if err := c.Database.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Logging.validateAndNormalize(); err != nil {
		return err
	}

	if err := c.Eligibility.validateAndNormalize(); err != nil {
		return err
	}

	c.Rules.normalize()

	if err := c.Sink.Kafka.validateAndNormalize(); err != nil {
		return err
	}

	return nil
}

func (d *DatabaseConfig) validateAndNormalize() error {
	if d.Host == "" {
		return fmt.Errorf("config: database.host must be set")
	}
	if d.Port == 0 {
		return fmt.Errorf("config: database.port must be set")
	}
	if d.User == "" {
		return fmt.Errorf("config: database.user must be set")
	}
	if d.Password == "" {
		return fmt.Errorf("config: database.password must be set (or %s)", EnvDatabasePassword)
	}
	if d.Name == "" {
		return fmt.Errorf("config: database.name must be set")
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}

	lifetime, err := parseDurationAllowEmpty(d.ConnMaxLifetimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_lifetime: %w", err)
	}
	d.ConnMaxLifetime = lifetime

	idleTime, err := parseDurationAllowEmpty(d.ConnMaxIdleTimeRaw)
	if err != nil {
		return fmt.Errorf("config: database.conn_max_idle_time: %w", err)
	}
	d.ConnMaxIdleTime = idleTime

	return nil
}

func (l *LoggingConfig) validateAndNormalize() error {
	l.Level = strings.ToLower(strings.TrimSpace(l.Level))
	if l.Level == "" {
		l.Level = "info"
	}

	l.Format = strings.ToLower(strings.TrimSpace(l.Format))
	switch l.Format {
	case "":
		l.Format = "json"
	case "json", "console":
	default:
		return fmt.Errorf("config: logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

func (e *EligibilityConfig) validateAndNormalize() error {
	timeout, err := parseDurationAllowEmpty(e.LookupTimeoutRaw)
	if err != nil {
		return fmt.Errorf("config: eligibility.lookup_timeout: %w", err)
	}
	if timeout < 0 {
		return fmt.Errorf("config: eligibility.lookup_timeout must not be negative")
	}
	if timeout == 0 {
		timeout = defaultLookupTimeout
	}
	e.LookupTimeout = timeout

	switch {
	case e.BatchConcurrency == 0:
		e.BatchConcurrency = 1
	case e.BatchConcurrency < 0 || e.BatchConcurrency > maxBatchConcurrency:
		return fmt.Errorf("config: eligibility.batch_concurrency must be between 1 and %d", maxBatchConcurrency)
	}
	return nil
}

func (r *RulesConfig) normalize() {
	r.LowRatings = trimList(r.LowRatings)
	r.InvoluntarySeparationTypes = trimList(r.InvoluntarySeparationTypes)
}

func (k *KafkaConfig) validateAndNormalize() error {
	k.Brokers = trimList(k.Brokers)
	if !k.Enabled() {
		return nil
	}
	if k.Topic == "" {
		k.Topic = "hr.eligibility.decisions"
	}
	if k.ClientID == "" {
		k.ClientID = "rehire-eligibility"
	}
	return nil
}

func parseDurationAllowEmpty(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	return d, nil
}

func splitList(raw string) []string {
	return trimList(strings.Split(raw, ","))
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DSN は pgx 用の接続文字列を返します。
func (d DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(d.Port)),
		Path:     "/" + d.Name,
		RawQuery: url.Values{"sslmode": []string{d.SSLMode}}.Encode(),
	}
	return u.String()
}
