package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server       ServerConfig       `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:",squash"`
	Redis        RedisConfig        `mapstructure:",squash"`
	Scheduler    SchedulerConfig    `mapstructure:",squash"`
	Logging      LoggingConfig      `mapstructure:",squash"`
	Notification NotificationConfig `mapstructure:",squash"`
	Audit        AuditConfig        `mapstructure:",squash"`
	Tracing      TracingConfig      `mapstructure:",squash"`
	Health       HealthConfig       `mapstructure:",squash"`
}

type ServerConfig struct {
	Port string `mapstructure:"SERVER_PORT"`
	Host string `mapstructure:"SERVER_HOST"`
	Env  string `mapstructure:"ENV"`
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

type DatabaseConfig struct {
	Driver       string `mapstructure:"DATABASE_DRIVER"`
	URL          string `mapstructure:"DATABASE_URL"`
	MaxOpenConns int    `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
}

type RedisConfig struct {
	URL          string `mapstructure:"REDIS_URL"`
	Host         string `mapstructure:"REDIS_HOST"`
	Port         string `mapstructure:"REDIS_PORT"`
	Password     string `mapstructure:"REDIS_PASSWORD"`
	BalanceTTL   string `mapstructure:"REDIS_BALANCE_TTL"`
	FiringLedger bool   `mapstructure:"REDIS_FIRING_LEDGER"`
}

type SchedulerConfig struct {
	Cron                string `mapstructure:"SCHEDULER_CRON"`
	Timezone            string `mapstructure:"SCHEDULER_TIMEZONE"`
	Embedded            bool   `mapstructure:"SCHEDULER_EMBEDDED"`
	MemberOffsets       string `mapstructure:"SCHEDULER_LOCKER_MEMBER_OFFSETS"`
	StaffOffsets        string `mapstructure:"SCHEDULER_LOCKER_STAFF_OFFSETS"`
	BalanceWeekday      string `mapstructure:"SCHEDULER_BALANCE_WEEKDAY"`
	RegistrationWeekday string `mapstructure:"SCHEDULER_REGISTRATION_WEEKDAY"`
	FiringRetention     string `mapstructure:"SCHEDULER_FIRING_RETENTION"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

const (
	ProviderLog    = "log"
	ProviderResend = "resend"
)

type NotificationConfig struct {
	Provider         string  `mapstructure:"NOTIFICATION_PROVIDER"`
	ResendAPIKey     string  `mapstructure:"RESEND_API_KEY"`
	From             string  `mapstructure:"NOTIFICATION_FROM"`
	StaffRecipients  string  `mapstructure:"NOTIFICATION_STAFF_RECIPIENTS"`
	TelegramBotToken string  `mapstructure:"TELEGRAM_BOT_TOKEN"`
	RatePerSecond    float64 `mapstructure:"NOTIFICATION_RATE_PER_SECOND"`
	Burst            int     `mapstructure:"NOTIFICATION_BURST"`
}

const (
	AuditSinkLog   = "log"
	AuditSinkKafka = "kafka"
)

type AuditConfig struct {
	Sink         string `mapstructure:"AUDIT_SINK"`
	KafkaBrokers string `mapstructure:"AUDIT_KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"AUDIT_KAFKA_TOPIC"`
	BufferSize   int    `mapstructure:"AUDIT_BUFFER_SIZE"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string  `mapstructure:"OTEL_SERVICE_NAME"`
	SampleRatio  float64 `mapstructure:"OTEL_SAMPLE_RATIO"`
}

type HealthConfig struct {
	Timeout string `mapstructure:"HEALTH_CHECK_TIMEOUT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                     "8080",
	"SERVER_HOST":                     "0.0.0.0",
	"ENV":                             "development",
	"DATABASE_DRIVER":                 DriverPostgres,
	"DATABASE_URL":                    "",
	"DATABASE_MAX_OPEN_CONNS":         10,
	"REDIS_URL":                       "",
	"REDIS_HOST":                      "",
	"REDIS_PORT":                      "6379",
	"REDIS_PASSWORD":                  "",
	"REDIS_BALANCE_TTL":               "0s",
	"REDIS_FIRING_LEDGER":             false,
	"SCHEDULER_CRON":                  "0 0 9 * * *",
	"SCHEDULER_TIMEZONE":              "Pacific/Auckland",
	"SCHEDULER_EMBEDDED":              false,
	"SCHEDULER_LOCKER_MEMBER_OFFSETS": "30,14,7",
	"SCHEDULER_LOCKER_STAFF_OFFSETS":  "14,7",
	"SCHEDULER_BALANCE_WEEKDAY":       "monday",
	"SCHEDULER_REGISTRATION_WEEKDAY":  "friday",
	"SCHEDULER_FIRING_RETENTION":      "1440h",
	"LOG_LEVEL":                       "info",
	"LOG_FORMAT":                      "json",
	"NOTIFICATION_PROVIDER":           ProviderLog,
	"RESEND_API_KEY":                  "",
	"NOTIFICATION_FROM":               "League Ledger <noreply@example.com>",
	"NOTIFICATION_STAFF_RECIPIENTS":   "",
	"TELEGRAM_BOT_TOKEN":              "",
	"NOTIFICATION_RATE_PER_SECOND":    2.0,
	"NOTIFICATION_BURST":              5,
	"AUDIT_SINK":                      AuditSinkLog,
	"AUDIT_KAFKA_BROKERS":             "",
	"AUDIT_KAFKA_TOPIC":               "league-ledger.audit",
	"AUDIT_BUFFER_SIZE":               256,
	"OTEL_EXPORTER_OTLP_ENDPOINT":     "",
	"OTEL_SERVICE_NAME":               "league-ledger",
	"OTEL_SAMPLE_RATIO":               1.0,
	"HEALTH_CHECK_TIMEOUT":            "5s",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults; every key needs one so AutomaticEnv values reach Unmarshal
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Read from environment variables
	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverPostgres, DriverSQLite:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for driver %s", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("DATABASE_DRIVER must be one of postgres, sqlite, memory")
	}

	if c.Redis.FiringLedger && !c.Redis.Enabled() {
		return fmt.Errorf("REDIS_FIRING_LEDGER requires REDIS_URL or REDIS_HOST")
	}

	// Validate scheduler
	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow).Parse(c.Scheduler.Cron); err != nil {
		return fmt.Errorf("SCHEDULER_CRON must be a valid cron spec with seconds: %w", err)
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid IANA zone: %w", err)
	}
	if _, err := parseOffsets(c.Scheduler.MemberOffsets); err != nil {
		return fmt.Errorf("SCHEDULER_LOCKER_MEMBER_OFFSETS: %w", err)
	}
	if _, err := parseOffsets(c.Scheduler.StaffOffsets); err != nil {
		return fmt.Errorf("SCHEDULER_LOCKER_STAFF_OFFSETS: %w", err)
	}
	if _, err := parseWeekday(c.Scheduler.BalanceWeekday); err != nil {
		return fmt.Errorf("SCHEDULER_BALANCE_WEEKDAY: %w", err)
	}
	if _, err := parseWeekday(c.Scheduler.RegistrationWeekday); err != nil {
		return fmt.Errorf("SCHEDULER_REGISTRATION_WEEKDAY: %w", err)
	}
	if _, err := time.ParseDuration(c.Scheduler.FiringRetention); err != nil {
		return fmt.Errorf("SCHEDULER_FIRING_RETENTION must be a valid duration: %w", err)
	}
	if _, err := time.ParseDuration(c.Redis.BalanceTTL); err != nil {
		return fmt.Errorf("REDIS_BALANCE_TTL must be a valid duration: %w", err)
	}

	// Validate notification delivery
	switch c.Notification.Provider {
	case ProviderLog:
	case ProviderResend:
		if c.Notification.ResendAPIKey == "" {
			return fmt.Errorf("RESEND_API_KEY is required for the resend provider")
		}
	default:
		return fmt.Errorf("NOTIFICATION_PROVIDER must be log or resend")
	}
	if c.Notification.RatePerSecond <= 0 {
		return fmt.Errorf("NOTIFICATION_RATE_PER_SECOND must be greater than 0")
	}

	switch c.Audit.Sink {
	case AuditSinkLog:
	case AuditSinkKafka:
		if c.Audit.KafkaBrokers == "" {
			return fmt.Errorf("AUDIT_KAFKA_BROKERS is required for the kafka sink")
		}
	default:
		return fmt.Errorf("AUDIT_SINK must be log or kafka")
	}

	// Validate health check timeout
	if _, err := time.ParseDuration(c.Health.Timeout); err != nil {
		return fmt.Errorf("HEALTH_CHECK_TIMEOUT must be a valid duration: %w", err)
	}

	return nil
}

// Enabled reports whether a Redis server is configured.
func (r RedisConfig) Enabled() bool {
	return r.URL != "" || r.Host != ""
}

// GetBalanceTTL returns the balance cache ttl; zero keeps entries until overwritten
func (c *Config) GetBalanceTTL() time.Duration {
	ttl, _ := time.ParseDuration(c.Redis.BalanceTTL)
	return ttl
}

// GetLocation returns the scheduler timezone
func (c *Config) GetLocation() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// GetMemberOffsets returns the locker member reminder offsets in days
func (c *Config) GetMemberOffsets() []int {
	offsets, _ := parseOffsets(c.Scheduler.MemberOffsets)
	return offsets
}

// GetStaffOffsets returns the locker staff reminder offsets in days
func (c *Config) GetStaffOffsets() []int {
	offsets, _ := parseOffsets(c.Scheduler.StaffOffsets)
	return offsets
}

func (c *Config) GetBalanceWeekday() time.Weekday {
	day, _ := parseWeekday(c.Scheduler.BalanceWeekday)
	return day
}

func (c *Config) GetRegistrationWeekday() time.Weekday {
	day, _ := parseWeekday(c.Scheduler.RegistrationWeekday)
	return day
}

// GetFiringRetention returns how long Redis keeps firing records
func (c *Config) GetFiringRetention() time.Duration {
	retention, _ := time.ParseDuration(c.Scheduler.FiringRetention)
	return retention
}

// GetStaffRecipients returns the staff addresses for locker alerts
func (c *Config) GetStaffRecipients() []string {
	return splitList(c.Notification.StaffRecipients)
}

func (c *Config) GetKafkaBrokers() []string {
	return splitList(c.Audit.KafkaBrokers)
}

// GetHealthTimeout returns the health check timeout as duration
func (c *Config) GetHealthTimeout() time.Duration {
	timeout, _ := time.ParseDuration(c.Health.Timeout)
	return timeout
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseOffsets(s string) ([]int, error) {
	var offsets []int
	seen := make(map[int]bool)
	for _, part := range splitList(s) {
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("offset %q is not a number", part)
		}
		if n <= 0 {
			return nil, fmt.Errorf("offset %d must be greater than 0", n)
		}
		if !seen[n] {
			seen[n] = true
			offsets = append(offsets, n)
		}
	}
	return offsets, nil
}

func parseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for day := time.Sunday; day <= time.Saturday; day++ {
		if strings.ToLower(day.String()) == name {
			return day, nil
		}
	}
	return time.Sunday, fmt.Errorf("%q is not a weekday", s)
}
