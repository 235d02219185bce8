package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for ideafarm-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (passwords,
// keys, client secrets) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (PostgreSQL record store)
	Database DatabaseConfig `yaml:"database"`

	// Vault holds the credential encryption key and its version.
	Vault VaultConfig `yaml:"vault"`

	// OAuth holds the delegated-access identity provider configuration.
	OAuth OAuthConfig `yaml:"oauth"`

	// LLM holds the generative completion service configuration.
	LLM LLMConfig `yaml:"llm"`

	// Extract holds content extraction settings.
	Extract ExtractConfig `yaml:"extract"`

	// Archive holds the external document archive API settings.
	Archive ArchiveConfig `yaml:"archive"`

	// Pipeline holds orchestrator settings.
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"ideafarm"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"ideafarm_engine"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MigrationsPath string `yaml:"migrations_path" env:"PGMIGRATIONS_PATH" env-default:"migrations"`
}

// VaultConfig holds the symmetric key material for refresh-token encryption.
// The key is versioned configuration injected at process start; rotation is
// an operational action. Rotating to a new version makes every ciphertext
// written under earlier versions unreadable, forcing re-consent.
type VaultConfig struct {
	// Key is a 32-byte base64 key (openssl rand -base64 32) or a passphrase.
	// Server will fail to start if this is not set.
	Key string `yaml:"-" env:"VAULT_KEY"` // Secret - not in YAML
	// KeyVersion identifies the active key. Bump it on rotation.
	KeyVersion int `yaml:"key_version" env:"VAULT_KEY_VERSION" env-default:"1"`
}

// OAuthConfig holds the identity provider settings for the offline-access
// authorization-code exchange and refresh-token grant.
type OAuthConfig struct {
	TokenEndpoint string `yaml:"token_endpoint" env:"OAUTH_TOKEN_ENDPOINT" env-default:"https://oauth2.googleapis.com/token"`
	ClientID      string `yaml:"client_id" env:"OAUTH_CLIENT_ID"`
	ClientSecret  string `yaml:"-" env:"OAUTH_CLIENT_SECRET"` // Secret - not in YAML
}

// LLMConfig holds the completion service settings.
type LLMConfig struct {
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
	// MaxTokens is the generation budget. It must be large enough that the
	// JSON payload is never truncated; truncated JSON is a known failure mode.
	MaxTokens   int     `yaml:"max_tokens" env:"LLM_MAX_TOKENS" env-default:"4096"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.2"`
}

// ExtractConfig holds content extraction settings.
type ExtractConfig struct {
	// FetchTimeoutSeconds bounds a single URL fetch. A fetch that does not
	// complete in time is a failure, not a hang.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" env:"EXTRACT_FETCH_TIMEOUT_SECONDS" env-default:"20"`
	// MaxContentChars caps extracted text before archival and prompting.
	MaxContentChars int `yaml:"max_content_chars" env:"EXTRACT_MAX_CONTENT_CHARS" env-default:"900000"`
}

// ArchiveConfig holds the external document archive API settings.
type ArchiveConfig struct {
	BaseURL        string `yaml:"base_url" env:"ARCHIVE_BASE_URL" env-default:""`
	TimeoutSeconds int    `yaml:"timeout_seconds" env:"ARCHIVE_TIMEOUT_SECONDS" env-default:"30"`
}

// PipelineConfig holds orchestrator settings.
type PipelineConfig struct {
	// ProcessTimeoutSeconds is the hard deadline for one pipeline run.
	ProcessTimeoutSeconds int `yaml:"process_timeout_seconds" env:"PIPELINE_PROCESS_TIMEOUT_SECONDS" env-default:"540"`
}

// Load reads configuration from config.yaml with environment variable overrides.
// The version parameter is injected at build time and set on the returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that must be present for the engine to run.
func (c *Config) Validate() error {
	if c.Vault.Key == "" {
		return fmt.Errorf("VAULT_KEY must be set")
	}
	if c.Vault.KeyVersion < 1 {
		return fmt.Errorf("VAULT_KEY_VERSION must be >= 1, got %d", c.Vault.KeyVersion)
	}
	if c.LLM.MaxTokens < 1024 {
		return fmt.Errorf("LLM_MAX_TOKENS too small (%d): truncated JSON responses are rejected, budget at least 1024", c.LLM.MaxTokens)
	}
	return nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
