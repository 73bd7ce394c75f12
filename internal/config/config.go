package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Assistant    AssistantConfig    `mapstructure:"assistant"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Store        StoreConfig        `mapstructure:"store"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Session      SessionConfig      `mapstructure:"session"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Knowledge    KnowledgeConfig    `mapstructure:"knowledge"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	CORS         CORSConfig         `mapstructure:"cors"`
	Notification NotificationConfig `mapstructure:"notification"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// AssistantConfig controls the chat behaviour.
type AssistantConfig struct {
	DemoUserID string `mapstructure:"demo_user_id"`
	// Timezone used to compute "today" and "tomorrow".
	Timezone string `mapstructure:"timezone"`
}

// Location resolves the configured timezone.
func (c AssistantConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid assistant timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

type LLMConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Model    string        `mapstructure:"model"`
	Referer  string        `mapstructure:"referer"`
	Title    string        `mapstructure:"title"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// APIKey is only ever filled from Secrets.
	APIKey  string        `mapstructure:"-"`
	Breaker BreakerConfig `mapstructure:"breaker"`
}

type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout"`
	Interval    time.Duration `mapstructure:"interval"`
}

type StoreConfig struct {
	// Driver is "memory" or "postgres".
	Driver string `mapstructure:"driver"`
}

type DatabaseConfig struct {
	Host                   string `mapstructure:"host"`
	Port                   int    `mapstructure:"port"`
	User                   string `mapstructure:"user"`
	Password               string `mapstructure:"-"`
	Name                   string `mapstructure:"name"`
	SSLMode                string `mapstructure:"sslmode"`
	MaxOpenConns           int    `mapstructure:"max_open_conns"`
	MaxIdleConns           int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `mapstructure:"conn_max_lifetime_minutes"`
	AutoMigrate            bool   `mapstructure:"auto_migrate"`
}

func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

type SessionConfig struct {
	// Driver is "memory" or "redis".
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	URL          string `mapstructure:"url"`
	EventChannel string `mapstructure:"event_channel"`
	// PublishEvents turns on appointment.booked publishing from the API.
	PublishEvents bool `mapstructure:"publish_events"`
}

type KnowledgeConfig struct {
	// Path to a YAML knowledge file; empty uses the built-in entries.
	Path string `mapstructure:"path"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type NotificationConfig struct {
	SMTPHost string `mapstructure:"smtp_host"`
	SMTPPort int    `mapstructure:"smtp_port"`
	SMTPUser string `mapstructure:"smtp_user"`
	Password string `mapstructure:"-"`
	From     string `mapstructure:"from"`
	To       string `mapstructure:"to"`

	RetryAttempts int           `mapstructure:"retry_attempts"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_body_bytes", 64<<10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.SetDefault("assistant.demo_user_id", "1")
	v.SetDefault("assistant.timezone", "UTC")

	v.SetDefault("llm.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("llm.model", "mistralai/mistral-7b-instruct")
	v.SetDefault("llm.referer", "http://localhost:3000")
	v.SetDefault("llm.title", "EMR Assistant")
	v.SetDefault("llm.timeout", "30s")
	v.SetDefault("llm.breaker.max_failures", 5)
	v.SetDefault("llm.breaker.open_timeout", "30s")
	v.SetDefault("llm.breaker.interval", "60s")

	v.SetDefault("store.driver", "memory")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "emr")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime_minutes", 30)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("session.driver", "memory")
	v.SetDefault("session.ttl", "1h")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.event_channel", "emr.events")
	v.SetDefault("redis.publish_events", false)

	v.SetDefault("knowledge.path", "")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_second", 5)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("cors.allowed_origins", []string{"*"})

	v.SetDefault("notification.smtp_host", "")
	v.SetDefault("notification.smtp_port", 587)
	v.SetDefault("notification.smtp_user", "")
	v.SetDefault("notification.from", "assistant@localhost")
	v.SetDefault("notification.to", "")
	v.SetDefault("notification.retry_attempts", 3)
	v.SetDefault("notification.retry_delay", "2s")
}

// LoadConfig reads config.yaml from path (or . and ./config), applies EMR_*
// environment overrides and fills secrets from the environment.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("EMR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	secrets, err := LoadSecrets()
	if err != nil {
		return nil, err
	}
	secrets.apply(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case "memory", "postgres":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.Session.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown session driver %q", c.Session.Driver)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive")
	}
	if c.Assistant.DemoUserID == "" {
		return fmt.Errorf("assistant demo_user_id is required")
	}
	if _, err := c.Assistant.Location(); err != nil {
		return err
	}
	return nil
}
