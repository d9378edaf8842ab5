package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "TOOLSDIR_"

// Config holds all configuration for the API service
type Config struct {
	Environment string `koanf:"environment" validate:"required,oneof=development staging production test"`

	Server    ServerConfig    `koanf:"server"`
	Site      SiteConfig      `koanf:"site"`
	Log       LogConfig       `koanf:"log"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	NATS      NATSConfig      `koanf:"nats"`
	Temporal  TemporalConfig  `koanf:"temporal"`
	Anthropic AnthropicConfig `koanf:"anthropic"`
	Agents    AgentsConfig    `koanf:"agents"`
	Jobs      JobsConfig      `koanf:"jobs"`
	Storage   StorageConfig   `koanf:"storage"`
	Notify    NotifyConfig    `koanf:"notify"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

type ServerConfig struct {
	Port               string        `koanf:"port" validate:"required,numeric"`
	ReadTimeout        time.Duration `koanf:"read_timeout"`
	WriteTimeout       time.Duration `koanf:"write_timeout"`
	IdleTimeout        time.Duration `koanf:"idle_timeout"`
	CORSAllowedOrigins []string      `koanf:"cors_allowed_origins"`
	// TrustedProxies may set X-Forwarded-For. Empty trusts none, so the
	// client IP is always the socket peer.
	TrustedProxies []string `koanf:"trusted_proxies" validate:"dive,cidr|ip"`
}

// SiteConfig is only consumed by page metadata (canonical URLs of generated pages).
type SiteConfig struct {
	BaseURL string `koanf:"base_url" validate:"omitempty,url"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// DatabaseConfig is optional. An empty URL runs the service without persistence.
type DatabaseConfig struct {
	URL           string `koanf:"url"`
	RunMigrations bool   `koanf:"run_migrations"`
}

type RedisConfig struct {
	URL string `koanf:"url"`
}

type NATSConfig struct {
	URL string `koanf:"url"`
}

type TemporalConfig struct {
	HostPort  string `koanf:"host_port"`
	Namespace string `koanf:"namespace"`
	TaskQueue string `koanf:"task_queue"`
}

// AnthropicConfig configures the generative-AI provider. An empty APIKey puts
// every agent into fallback-only mode.
type AnthropicConfig struct {
	APIKey    string        `koanf:"api_key"`
	BaseURL   string        `koanf:"base_url" validate:"required,url"`
	Model     string        `koanf:"model" validate:"required"`
	Version   string        `koanf:"version" validate:"required"`
	MaxTokens int           `koanf:"max_tokens" validate:"min=1"`
	Timeout   time.Duration `koanf:"timeout" validate:"min=0"`
}

type AgentsConfig struct {
	// BreakerFailures consecutive provider failures open the circuit.
	BreakerFailures int           `koanf:"breaker_failures" validate:"min=1"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown"`
	// ClientQuota is the number of provider-backed generations per client per QuotaPeriod.
	ClientQuota int           `koanf:"client_quota" validate:"min=1"`
	QuotaPeriod time.Duration `koanf:"quota_period"`
}

type JobsConfig struct {
	Secret      string        `koanf:"secret"`
	SeedFile    string        `koanf:"seed_file"`
	Concurrency int           `koanf:"concurrency" validate:"min=1,max=16"`
	Timeout     time.Duration `koanf:"timeout"`
	StatusTTL   time.Duration `koanf:"status_ttl"`
}

// StorageConfig points at an S3-compatible bucket for SEO cover images.
type StorageConfig struct {
	Endpoint  string `koanf:"endpoint" validate:"omitempty,url"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	PublicURL string `koanf:"public_url" validate:"omitempty,url"`
}

type NotifyConfig struct {
	SNSTopicARN string `koanf:"sns_topic_arn"`
	Region      string `koanf:"region"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	ServiceName  string `koanf:"service_name"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
//
// Keys use the TOOLSDIR_ prefix with "__" between sections, e.g.
// TOOLSDIR_ANTHROPIC__API_KEY. The short names used by the hosting platform
// (ANTHROPIC_API_KEY, CRON_SECRET, SITE_URL, DATABASE_URL, REDIS_URL, NATS_URL,
// PORT) fill anything left empty.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	overrideEmpty(cfg)
	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

func overrideEmpty(cfg *Config) {
	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = getEnv(key, "")
		}
	}
	fill(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	fill(&cfg.Jobs.Secret, "CRON_SECRET")
	fill(&cfg.Site.BaseURL, "SITE_URL")
	fill(&cfg.Database.URL, "DATABASE_URL")
	fill(&cfg.Redis.URL, "REDIS_URL")
	fill(&cfg.NATS.URL, "NATS_URL")
	fill(&cfg.Server.Port, "PORT")
	fill(&cfg.Environment, "GO_ENV")
}

func applyDefaults(cfg *Config) {
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	// Agent calls can take up to the provider timeout.
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 60 * time.Second
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60 * time.Second
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Temporal.Namespace == "" {
		cfg.Temporal.Namespace = "default"
	}
	if cfg.Temporal.TaskQueue == "" {
		cfg.Temporal.TaskQueue = "toolsdir-jobs"
	}
	if cfg.Anthropic.BaseURL == "" {
		cfg.Anthropic.BaseURL = "https://api.anthropic.com"
	}
	if cfg.Anthropic.Model == "" {
		cfg.Anthropic.Model = "claude-3-5-sonnet-latest"
	}
	if cfg.Anthropic.Version == "" {
		cfg.Anthropic.Version = "2023-06-01"
	}
	if cfg.Anthropic.MaxTokens == 0 {
		cfg.Anthropic.MaxTokens = 1500
	}
	if cfg.Anthropic.Timeout == 0 {
		cfg.Anthropic.Timeout = 30 * time.Second
	}
	if cfg.Agents.BreakerFailures == 0 {
		cfg.Agents.BreakerFailures = 5
	}
	if cfg.Agents.BreakerCooldown == 0 {
		cfg.Agents.BreakerCooldown = 30 * time.Second
	}
	if cfg.Agents.ClientQuota == 0 {
		cfg.Agents.ClientQuota = 30
	}
	if cfg.Agents.QuotaPeriod == 0 {
		cfg.Agents.QuotaPeriod = time.Minute
	}
	if cfg.Jobs.Concurrency == 0 {
		cfg.Jobs.Concurrency = 1
	}
	if cfg.Jobs.Timeout == 0 {
		cfg.Jobs.Timeout = 30 * time.Minute
	}
	if cfg.Jobs.StatusTTL == 0 {
		cfg.Jobs.StatusTTL = 7 * 24 * time.Hour
	}
	if cfg.Storage.Region == "" {
		cfg.Storage.Region = "us-east-1"
	}
	if cfg.Notify.Region == "" {
		cfg.Notify.Region = cfg.Storage.Region
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = "toolsdir-api"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
