package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the registry assistant.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	Env     string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version string `yaml:"-"` // Set at load time, not from config

	// Registry database (PostgreSQL, read-only for the chat core)
	Database DatabaseConfig `yaml:"database"`

	// LLM provider configuration
	LLM LLMConfig `yaml:"llm"`

	// Chat behavior configuration
	Chat ChatConfig `yaml:"chat"`

	// Notes output directory for generated property note documents
	NotesDir string `yaml:"notes_dir" env:"NOTES_DIR" env-default:"property_notes"`

	// Optional YAML file overriding the compiled-in table/column whitelist
	WhitelistPath string `yaml:"whitelist_path" env:"WHITELIST_PATH" env-default:""`

	// MigrationsPath is the directory containing chat-history migrations.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"registry"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"registry"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// LLMConfig holds configuration for the text-generation and embedding provider.
type LLMConfig struct {
	// Provider selects the text-generation backend: "openai" or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`

	// Endpoint is the OpenAI-compatible base URL. Ignored for anthropic.
	Endpoint string `yaml:"endpoint" env:"LLM_ENDPOINT" env-default:"https://api.openai.com/v1"`

	// Model is the chat model name.
	Model string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4.1-mini"`

	// EmbeddingModel is the embedding model used by the retrieval index.
	// Embeddings always go through the OpenAI-compatible endpoint.
	EmbeddingModel string `yaml:"embedding_model" env:"LLM_EMBEDDING_MODEL" env-default:"text-embedding-3-small"`

	APIKey string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML
}

// ChatConfig holds tunables for the conversation state machine.
type ChatConfig struct {
	// HistoryWindow is how many prior messages are loaded per turn.
	HistoryWindow int `yaml:"history_window" env:"CHAT_HISTORY_WINDOW" env-default:"6"`

	// MaxHistoryPerThread caps stored messages per user+thread.
	MaxHistoryPerThread int `yaml:"max_history_per_thread" env:"CHAT_MAX_HISTORY" env-default:"20"`

	// SQLSimilarityThreshold gates whether retrieved SQL examples are
	// trusted enough to include in the generation prompt.
	SQLSimilarityThreshold float64 `yaml:"sql_similarity_threshold" env:"CHAT_SQL_SIMILARITY_THRESHOLD" env-default:"0.3"`

	// RepairMaxRetries bounds the post-generation validation repair loop.
	RepairMaxRetries int `yaml:"repair_max_retries" env:"CHAT_REPAIR_MAX_RETRIES" env-default:"1"`
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

	return cfg, nil
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}
