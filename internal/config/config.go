// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"strings"
	"time"

	ozzo "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. YTSEO_WORKFLOW_DRYRUN.
const EnvPrefix = "YTSEO"

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Logging    LoggingConfig
	LLM        LLMConfig
	YouTube    YouTubeConfig
	Workflow   WorkflowConfig
	SEO        SEOConfig
	Enrichment EnrichmentConfig
	Redis      RedisConfig
	Worker     WorkerConfig
	RabbitMQ   RabbitMQConfig
	Auth       AuthConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
	MigrationsPath string
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// LLMConfig selects and configures the text generation backend.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type LLMConfig struct {
	Provider    string // ollama, openai or anthropic
	BaseURL     string
	Model       string
	APIKey      string
	Timeout     time.Duration
	MaxRetries  int
	MaxTokens   int
	Temperature float64
}

// YouTubeConfig contains Data API credentials and quota settings.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type YouTubeConfig struct {
	APIKey           string
	ClientSecretFile string
	TokenFile        string
	ChannelHandle    string
	DailyQuota       int
	QuotaThreshold   int
	WritesPerSecond  float64
}

// WorkflowConfig controls batch defaults and the apply safety gate.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type WorkflowConfig struct {
	DryRun        bool
	Confirmation  string // prompt, allow or deny
	Language      string
	Priority      string
	GenerateLimit int
	ApplyLimit    int
	SyncLimit     int
}

// SEOConfig holds the fallback values used when generation of a field fails.
type SEOConfig struct {
	ShowName         string
	DefaultTags      []string
	DefaultHashtags  []string
	PinnedCommentFmt string
}

// EnrichmentConfig points at the read-only AI-EWG episode database.
type EnrichmentConfig struct {
	DBPath   string
	CacheTTL time.Duration
}

// RedisConfig is shared by the task queue and the enrichment cache. An empty
// URL disables both.
type RedisConfig struct {
	URL string
}

// WorkerConfig controls the background task worker.
type WorkerConfig struct {
	Concurrency int
	// SyncInterval schedules a recurring channel sync. Zero disables it.
	SyncInterval time.Duration
}

// RabbitMQConfig contains RabbitMQ connection settings for workflow events.
// An empty host disables publishing.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Host       string
	User       string
	Password   string
	Exchange   string
	Queue      string
	RoutingKey string
	Port       int
}

// AuthConfig lists API keys accepted by the HTTP API.
type AuthConfig struct {
	APIKeys []string
}

// Load loads configuration from a .env file, config.yaml and environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail late, mid-batch.
func (c *Config) Validate() error {
	if err := ozzo.ValidateStruct(&c.LLM,
		ozzo.Field(&c.LLM.Provider, ozzo.Required, ozzo.In("ollama", "openai", "anthropic")),
		ozzo.Field(&c.LLM.Model, ozzo.Required),
		ozzo.Field(&c.LLM.MaxRetries, ozzo.Min(0), ozzo.Max(2)),
	); err != nil {
		return fmt.Errorf("llm: %w", err)
	}

	if err := ozzo.ValidateStruct(&c.Workflow,
		ozzo.Field(&c.Workflow.Confirmation, ozzo.Required, ozzo.In("prompt", "allow", "deny")),
		ozzo.Field(&c.Workflow.Priority, ozzo.In("recent", "oldest", "linked")),
		ozzo.Field(&c.Workflow.Language, ozzo.Required, ozzo.Length(2, 10)),
	); err != nil {
		return fmt.Errorf("workflow: %w", err)
	}

	return nil
}

// DatabaseURL builds a postgres connection URL, used by golang-migrate.
func (d DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// AMQPURL builds the RabbitMQ connection URL.
func (r RabbitMQConfig) AMQPURL() string {
	return fmt.Sprintf("amqp://%s:%s@%s:%d/", r.User, r.Password, r.Host, r.Port)
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "ytseo")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.maxconnections", 10)
	viper.SetDefault("database.minconnections", 2)
	viper.SetDefault("database.maxidletime", 10*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)
	viper.SetDefault("database.migrationspath", "migrations")

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")

	// LLM
	viper.SetDefault("llm.provider", "ollama")
	viper.SetDefault("llm.baseurl", "http://localhost:11434")
	viper.SetDefault("llm.model", "llama3.1:8b")
	viper.SetDefault("llm.apikey", "")
	viper.SetDefault("llm.timeout", 60*time.Second)
	viper.SetDefault("llm.maxretries", 2)
	viper.SetDefault("llm.maxtokens", 1024)
	viper.SetDefault("llm.temperature", 0.7)

	// YouTube
	viper.SetDefault("youtube.apikey", "")
	viper.SetDefault("youtube.clientsecretfile", "client_secret.json")
	viper.SetDefault("youtube.tokenfile", "token.json")
	viper.SetDefault("youtube.channelhandle", "@TheNewsForum")
	viper.SetDefault("youtube.dailyquota", 10000)
	viper.SetDefault("youtube.quotathreshold", 90)
	viper.SetDefault("youtube.writespersecond", 1.0)

	// Workflow
	viper.SetDefault("workflow.dryrun", true)
	viper.SetDefault("workflow.confirmation", "prompt")
	viper.SetDefault("workflow.language", "en")
	viper.SetDefault("workflow.priority", "recent")
	viper.SetDefault("workflow.generatelimit", 10)
	viper.SetDefault("workflow.applylimit", 10)
	viper.SetDefault("workflow.synclimit", 50)

	// SEO fallbacks
	viper.SetDefault("seo.showname", "The News Forum")
	viper.SetDefault("seo.defaulttags", []string{"news", "canada", "canadian news"})
	viper.SetDefault("seo.defaulthashtags", []string{"#CanadianNews", "#Canada", "#News"})
	viper.SetDefault("seo.pinnedcommentfmt",
		"Thanks for watching! Subscribe to %s for more Canadian news and analysis.")

	// Enrichment
	viper.SetDefault("enrichment.dbpath", "")
	viper.SetDefault("enrichment.cachettl", 1*time.Hour)

	// Redis
	viper.SetDefault("redis.url", "")

	// Worker
	viper.SetDefault("worker.concurrency", 2)
	viper.SetDefault("worker.syncinterval", time.Duration(0))

	// RabbitMQ
	viper.SetDefault("rabbitmq.host", "")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "ytseo.workflow")
	viper.SetDefault("rabbitmq.queue", "ytseo.status_changes")
	viper.SetDefault("rabbitmq.routingkey", "video.status_changed")

	// Auth
	viper.SetDefault("auth.apikeys", []string{})
}
