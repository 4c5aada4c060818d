package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the reelforge server.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Render     RenderConfig
	Brief      BriefConfig
	Storage    StorageConfig
	Production ProductionConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// RenderConfig points at the external render pipeline.
type RenderConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type BriefConfig struct {
	Provider          string
	GenerationTimeout time.Duration
	OpenAI            OpenAIConfig
	Anthropic         AnthropicConfig
}

type OpenAIConfig struct {
	APIKey string
	Model  string
}

type AnthropicConfig struct {
	APIKey string
	Model  string
}

type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// ProductionConfig carries the credit costs and timeout profiles for the
// two production kinds. The numbers are product decisions, so they are
// configuration, never literals in the lifecycle code.
type ProductionConfig struct {
	InitialCost  int
	RevisionCost int

	InitialGrace   time.Duration
	InitialPoll    time.Duration
	InitialTimeout time.Duration

	RevisionGrace   time.Duration
	RevisionPoll    time.Duration
	RevisionTimeout time.Duration
}

var validProviders = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"mock":      true,
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("REELFORGE_PORT", 8080),
			Env:  envString("REELFORGE_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Render: RenderConfig{
			BaseURL: os.Getenv("RENDER_BASE_URL"),
			Token:   os.Getenv("RENDER_API_TOKEN"),
			Timeout: envDuration("RENDER_TIMEOUT", 30*time.Second),
		},
		Brief: BriefConfig{
			Provider:          envString("BRIEF_PROVIDER", "openai"),
			GenerationTimeout: envDuration("BRIEF_GENERATION_TIMEOUT", 60*time.Second),
			OpenAI: OpenAIConfig{
				APIKey: os.Getenv("OPENAI_API_KEY"),
				Model:  envString("OPENAI_MODEL", "gpt-4o"),
			},
			Anthropic: AnthropicConfig{
				APIKey: os.Getenv("ANTHROPIC_API_KEY"),
				Model:  envString("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
			},
		},
		Storage: StorageConfig{
			Endpoint:  os.Getenv("MINIO_ENDPOINT"),
			AccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			SecretKey: os.Getenv("MINIO_SECRET_KEY"),
			Bucket:    envString("MINIO_BUCKET", "reelforge-uploads"),
			UseSSL:    envBool("MINIO_USE_SSL", false),
			URLExpiry: envDuration("MINIO_URL_EXPIRY", 24*time.Hour),
		},
		Production: ProductionConfig{
			InitialCost:     envInt("PRODUCTION_INITIAL_COST", 10),
			RevisionCost:    envInt("PRODUCTION_REVISION_COST", 3),
			InitialGrace:    envDuration("PRODUCTION_INITIAL_GRACE", 30*time.Second),
			InitialPoll:     envDuration("PRODUCTION_INITIAL_POLL", 5*time.Second),
			InitialTimeout:  envDuration("PRODUCTION_INITIAL_TIMEOUT", 15*time.Minute),
			RevisionGrace:   envDuration("PRODUCTION_REVISION_GRACE", 2*time.Minute),
			RevisionPoll:    envDuration("PRODUCTION_REVISION_POLL", 3*time.Second),
			RevisionTimeout: envDuration("PRODUCTION_REVISION_TIMEOUT", 7*time.Minute),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Render.BaseURL == "" {
		return fmt.Errorf("RENDER_BASE_URL is required")
	}
	if !strings.HasPrefix(c.Render.BaseURL, "http://") && !strings.HasPrefix(c.Render.BaseURL, "https://") {
		return fmt.Errorf("RENDER_BASE_URL must start with http:// or https://, got %q", c.Render.BaseURL)
	}

	if !validProviders[c.Brief.Provider] {
		return fmt.Errorf("BRIEF_PROVIDER must be one of openai, anthropic, mock; got %q", c.Brief.Provider)
	}
	if c.Brief.Provider == "openai" && c.Brief.OpenAI.APIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY is required when BRIEF_PROVIDER is openai")
	}
	if c.Brief.Provider == "anthropic" && c.Brief.Anthropic.APIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required when BRIEF_PROVIDER is anthropic")
	}

	if c.Storage.Endpoint == "" {
		return fmt.Errorf("MINIO_ENDPOINT is required")
	}

	if c.Production.InitialCost <= 0 || c.Production.RevisionCost <= 0 {
		return fmt.Errorf("production credit costs must be positive")
	}
	if c.Production.InitialTimeout <= c.Production.InitialGrace {
		return fmt.Errorf("PRODUCTION_INITIAL_TIMEOUT must exceed PRODUCTION_INITIAL_GRACE")
	}
	if c.Production.RevisionTimeout <= c.Production.RevisionGrace {
		return fmt.Errorf("PRODUCTION_REVISION_TIMEOUT must exceed PRODUCTION_REVISION_GRACE")
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
