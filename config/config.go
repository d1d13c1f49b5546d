package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	Selection     SelectionConfig
	Observability ObservabilityConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// ProvidersConfig holds AI provider configurations
type ProvidersConfig struct {
	Claude ClaudeConfig
	Ollama OllamaConfig
	Mock   MockConfig
}

// ClaudeConfig holds Anthropic API provider configuration
type ClaudeConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// OllamaConfig holds local Ollama provider configuration
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// MockConfig controls the deterministic in-process provider
type MockConfig struct {
	Enabled bool
}

// SelectionConfig holds the provider selection policy configuration
type SelectionConfig struct {
	Primary   string
	Secondary string
}

// ObservabilityConfig holds logging configuration
type ObservabilityConfig struct {
	LogLevel  string
	LogFormat string // json or text
}

// New creates a new Config instance by loading environment variables
func New() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			Claude: ClaudeConfig{
				APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
				BaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
				Model:   getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
				Timeout: getEnvAsDuration("ANTHROPIC_TIMEOUT", 30*time.Second),
			},
			Ollama: OllamaConfig{
				BaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
				Model:   getEnv("OLLAMA_MODEL", "llama3.2"),
				Timeout: getEnvAsDuration("OLLAMA_TIMEOUT", 60*time.Second),
			},
			Mock: MockConfig{
				Enabled: getEnvAsBool("MOCK_PROVIDER_ENABLED", true),
			},
		},
		Selection: SelectionConfig{
			Primary:   getEnv("SELECTION_PRIMARY", "claude"),
			Secondary: getEnv("SELECTION_SECONDARY", "ollama"),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}

	if c.Selection.Primary == "" {
		return fmt.Errorf("selection primary provider is required")
	}

	// A hosted provider needs credentials outside development; the mock
	// keeps local development working without any
	if c.IsProduction() {
		if c.Providers.Claude.APIKey == "" && c.Providers.Ollama.BaseURL == "" {
			return fmt.Errorf("at least one real provider must be configured in production")
		}
		if c.Selection.Primary == "mock" {
			return fmt.Errorf("mock provider cannot be primary in production")
		}
	}

	if c.Observability.LogLevel == "" {
		return fmt.Errorf("log level is required")
	}

	return nil
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "prod"
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development" || c.Environment == "dev"
}

// Address returns the HTTP server address
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
