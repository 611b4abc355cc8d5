// Package config loads service configuration from defaults, an optional
// .env file and MARATHON_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	strs "marathon/pkg/platform/strings"
)

const envPrefix = "MARATHON"

type Config struct {
	Server    Server          `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Kafka     KafkaConfig     `mapstructure:"kafka"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Payments  PaymentsConfig  `mapstructure:"payments"`
	Admission AdmissionConfig `mapstructure:"admission"`
	Fallback  FallbackConfig  `mapstructure:"fallback"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
	Log       LogConfig       `mapstructure:"log"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `mapstructure:"addr"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig points at the durable store. An empty URL runs the service
// on the fallback store alone.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LockTimeout     time.Duration `mapstructure:"lock_timeout"`
	MigrateOnStart  bool          `mapstructure:"migrate_on_start"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// KafkaConfig enables event publishing when Brokers is set.
type KafkaConfig struct {
	Brokers           []string `mapstructure:"brokers"`
	Topic             string   `mapstructure:"topic"`
	ClientID          string   `mapstructure:"client_id"`
	Partitions        int32    `mapstructure:"partitions"`
	ReplicationFactor int16    `mapstructure:"replication_factor"`
}

func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AuthConfig struct {
	JWTSigningKey string `mapstructure:"jwt_signing_key"`
	JWTIssuer     string `mapstructure:"jwt_issuer"`
	JWTAudience   string `mapstructure:"jwt_audience"`
}

// PaymentsConfig configures the payment callback endpoint. An empty secret
// disables signature checks.
type PaymentsConfig struct {
	WebhookSecret string        `mapstructure:"webhook_secret"`
	DedupeTTL     time.Duration `mapstructure:"dedupe_ttl"`
}

type AdmissionConfig struct {
	TxTimeout      time.Duration `mapstructure:"tx_timeout"`
	MaxAttempts    int           `mapstructure:"max_attempts"`
	InitialBackoff time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	BibPrefix      string        `mapstructure:"bib_prefix"`
	FallbackPrefix string        `mapstructure:"fallback_bib_prefix"`
}

type FallbackConfig struct {
	SeedFile         string        `mapstructure:"seed_file"`
	FailureThreshold int           `mapstructure:"failure_threshold"`
	SuccessThreshold int           `mapstructure:"success_threshold"`
	ProbeInterval    time.Duration `mapstructure:"probe_interval"`
	// PrimaryTimeout bounds each call to the durable store. A call that runs
	// out of it counts as an outage and is re-run on the fallback.
	PrimaryTimeout time.Duration `mapstructure:"primary_timeout"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.request_timeout", 15*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.lock_timeout", 2*time.Second)
	v.SetDefault("database.migrate_on_start", false)

	v.SetDefault("redis.url", "")
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.min_idle_conns", 2)
	v.SetDefault("redis.dial_timeout", 2*time.Second)
	v.SetDefault("redis.read_timeout", time.Second)
	v.SetDefault("redis.write_timeout", time.Second)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "marathon.registrations")
	v.SetDefault("kafka.client_id", "marathon-registration")
	v.SetDefault("kafka.partitions", 3)
	v.SetDefault("kafka.replication_factor", 1)

	v.SetDefault("auth.jwt_signing_key", "")
	v.SetDefault("auth.jwt_issuer", "marathon")
	v.SetDefault("auth.jwt_audience", "marathon-api")

	v.SetDefault("payments.webhook_secret", "")
	v.SetDefault("payments.dedupe_ttl", 24*time.Hour)

	v.SetDefault("admission.tx_timeout", 5*time.Second)
	v.SetDefault("admission.max_attempts", 3)
	v.SetDefault("admission.initial_backoff", 20*time.Millisecond)
	v.SetDefault("admission.max_backoff", 200*time.Millisecond)
	v.SetDefault("admission.bib_prefix", "RACE")
	v.SetDefault("admission.fallback_bib_prefix", "RACEF")

	v.SetDefault("fallback.seed_file", "config/races.yaml")
	v.SetDefault("fallback.failure_threshold", 3)
	v.SetDefault("fallback.success_threshold", 3)
	v.SetDefault("fallback.probe_interval", 5*time.Second)
	v.SetDefault("fallback.primary_timeout", 2*time.Second)

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "marathon-registration")
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("log.level", "info")
}

// Load reads configuration. envFile may be empty; a missing .env file is not
// an error. A config file, when given, is read before environment overrides.
func Load(envFile, configFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !isNotExist(err) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.Kafka.Brokers = strs.DedupeAndTrim(cfg.Kafka.Brokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if c.Auth.JWTSigningKey == "" {
		return errors.New("auth.jwt_signing_key is required (MARATHON_AUTH_JWT_SIGNING_KEY)")
	}
	if c.Admission.MaxAttempts < 1 {
		return errors.New("admission.max_attempts must be at least 1")
	}
	if c.Admission.TxTimeout <= 0 {
		return errors.New("admission.tx_timeout must be positive")
	}
	if c.Admission.BibPrefix == c.Admission.FallbackPrefix {
		return errors.New("admission.bib_prefix and admission.fallback_bib_prefix must differ")
	}
	if c.Fallback.FailureThreshold < 1 || c.Fallback.SuccessThreshold < 1 {
		return errors.New("fallback thresholds must be at least 1")
	}
	if c.Fallback.PrimaryTimeout <= 0 || c.Fallback.PrimaryTimeout >= c.Admission.TxTimeout {
		return errors.New("fallback.primary_timeout must be positive and shorter than admission.tx_timeout")
	}
	return nil
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
