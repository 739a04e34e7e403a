package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for risk-engine.
// Configuration can come from a YAML file (config.yaml) or environment
// variables. Environment variables always override YAML values. Secrets
// (API keys, passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8460"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Redis cache backend. Optional: with no host configured the engine
	// falls back to the in-process cache.
	Redis RedisConfig `yaml:"redis"`

	// Remote classifier endpoint configuration.
	Cloud CloudConfig `yaml:"cloud"`

	// Pipeline tuning knobs.
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// RedisConfig holds Redis connection settings for the result cache.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

// CloudConfig holds settings for the remote classification endpoint.
type CloudConfig struct {
	// Provider selects the client implementation: "openai" for any
	// OpenAI-compatible endpoint, or "anthropic".
	Provider string `yaml:"provider" env:"CLOUD_PROVIDER" env-default:"openai"`
	// Endpoint is the base URL for OpenAI-compatible providers.
	Endpoint string `yaml:"endpoint" env:"CLOUD_ENDPOINT" env-default:""`
	Model    string `yaml:"model" env:"CLOUD_MODEL" env-default:""`
	APIKey   string `yaml:"-" env:"CLOUD_API_KEY"` // Secret - not in YAML
	// TimeoutSeconds is the hard per-call ceiling on remote classification.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"CLOUD_TIMEOUT_SECONDS" env-default:"30"`
	// MaxConcurrent bounds in-flight remote calls across a classification pass.
	MaxConcurrent int `yaml:"max_concurrent" env:"CLOUD_MAX_CONCURRENT" env-default:"8"`
}

// IsAvailable returns true if a remote classifier is configured.
func (c *CloudConfig) IsAvailable() bool {
	return c.Model != "" && (c.Provider == "anthropic" || c.Endpoint != "")
}

// Timeout returns the per-call ceiling as a duration.
func (c *CloudConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PipelineConfig holds classification pipeline settings.
type PipelineConfig struct {
	// CacheTTLSeconds is the profile cache lifetime (24h default).
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" env:"CACHE_TTL_SECONDS" env-default:"86400"`
	// RulesetPath points at a YAML keyword ruleset. Empty uses the
	// embedded default set.
	RulesetPath string `yaml:"ruleset_path" env:"RULESET_PATH" env-default:""`
	// EscalationRetries is the number of caller-side retries for a failed
	// remote classification before falling back. 0 means fall back on the
	// first failure.
	EscalationRetries int `yaml:"escalation_retries" env:"ESCALATION_RETRIES" env-default:"0"`
}

// CacheTTL returns the cache lifetime as a duration.
func (p *PipelineConfig) CacheTTL() time.Duration {
	return time.Duration(p.CacheTTLSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. If config.yaml does not exist, configuration comes from the
// environment alone. The version parameter is injected at build time.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if _, err := os.Stat("config.yaml"); err == nil {
		if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
	} else {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Cloud.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unknown cloud provider %q", c.Cloud.Provider)
	}
	if c.Cloud.TimeoutSeconds <= 0 {
		return fmt.Errorf("cloud timeout must be positive, got %d", c.Cloud.TimeoutSeconds)
	}
	if c.Cloud.MaxConcurrent < 1 {
		return fmt.Errorf("cloud max_concurrent must be at least 1, got %d", c.Cloud.MaxConcurrent)
	}
	if c.Pipeline.CacheTTLSeconds <= 0 {
		return fmt.Errorf("cache TTL must be positive, got %d", c.Pipeline.CacheTTLSeconds)
	}
	return nil
}
