package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Policy   PolicyConfig
	SMTP     SMTPConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// PolicyConfig carries the tunable allocation policy values. The weights are
// named here rather than inlined in scoring code; the literals duplicated in
// the legacy application paths were not authoritative.
type PolicyConfig struct {
	ResponseDeadlineHours int     `mapstructure:"response_deadline_hours"`
	MatchResultLimit      int     `mapstructure:"match_result_limit"`
	BloodExactWeight      float64 `mapstructure:"blood_exact_weight"`
	BloodCompatibleWeight float64 `mapstructure:"blood_compatible_weight"`
	WaitDaysPerPoint      float64 `mapstructure:"wait_days_per_point"`
	WaitScoreCap          float64 `mapstructure:"wait_score_cap"`
	UrgencyWeight         float64 `mapstructure:"urgency_weight"`
	EligibilityBase       float64 `mapstructure:"eligibility_base"`
	PriorityUrgencyWeight float64 `mapstructure:"priority_urgency_weight"`
	PriorityWaitCap       float64 `mapstructure:"priority_wait_cap"`
	PriorityMELDWeight    float64 `mapstructure:"priority_meld_weight"`
	PriorityCPRAWeight    float64 `mapstructure:"priority_cpra_weight"`
}

// DefaultPolicy returns the policy values used when the config file does not
// override them.
func DefaultPolicy() PolicyConfig {
	return PolicyConfig{
		ResponseDeadlineHours: 24,
		MatchResultLimit:      10,
		BloodExactWeight:      30,
		BloodCompatibleWeight: 20,
		WaitDaysPerPoint:      30,
		WaitScoreCap:          20,
		UrgencyWeight:         2,
		EligibilityBase:       30,
		PriorityUrgencyWeight: 10,
		PriorityWaitCap:       20,
		PriorityMELDWeight:    0.5,
		PriorityCPRAWeight:    0.3,
	}
}

// WorkerConfig is read from the environment. The worker binary runs in
// contexts where no config file is mounted.
type WorkerConfig struct {
	OutboxBatchSize      int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxPollInterval   time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	OutboxRetryAttempts  int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	OutboxRetryDelay     time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"5s"`
	ExpirySweepInterval  time.Duration `envconfig:"EXPIRY_SWEEP_INTERVAL" default:"1m"`
	AuditRetentionDays   int           `envconfig:"AUDIT_RETENTION_DAYS" default:"365"`
	AuditCleanupInterval time.Duration `envconfig:"AUDIT_CLEANUP_INTERVAL" default:"24h"`
	HealthPort           int           `envconfig:"WORKER_HEALTH_PORT" default:"8081"`
}

func LoadWorkerConfig() (*WorkerConfig, error) {
	var cfg WorkerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process worker env config: %w", err)
	}
	return &cfg, nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Config{Policy: DefaultPolicy()}
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
