package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the complete application configuration
type Config struct {
	Server        ServerConfig
	Providers     ProvidersConfig
	Routing       RoutingConfig
	Sessions      SessionsConfig
	Observability ObservabilityConfig
	CORS          CORSConfig
	Environment   string
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration // 0 disables the limit; streamed replies can run long
	ShutdownTimeout time.Duration
}

// ProvidersConfig holds credentials for the built-in providers
type ProvidersConfig struct {
	GroqAPIKey     string
	CerebrasAPIKey string
	// UpstreamTimeout bounds a single upstream call, 0 means no limit
	UpstreamTimeout time.Duration
}

// RoutingConfig holds failover and route table settings
type RoutingConfig struct {
	Cooldown time.Duration
	File     string // Optional YAML registry merged over the built-in defaults
	Watch    bool   // Reload File on change
}

// SessionsConfig holds conversation store settings
type SessionsConfig struct {
	TTL           time.Duration
	MaxSessions   int
	SweepSchedule string // cron schedule, empty disables periodic sweeps
}

// ObservabilityConfig holds monitoring and logging configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string // json or console
	MetricsEnabled bool
}

// CORSConfig holds cross-origin settings for the public API
type CORSConfig struct {
	AllowedOrigins []string
}

// New creates a new Config instance by loading environment variables
func New(ctx context.Context) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getPort(),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 0),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Providers: ProvidersConfig{
			GroqAPIKey:      getEnv("GROQ_API_KEY", ""),
			CerebrasAPIKey:  getEnv("CEREBRAS_API_KEY", ""),
			UpstreamTimeout: getEnvAsDuration("UPSTREAM_TIMEOUT", 0),
		},
		Routing: RoutingConfig{
			Cooldown: getEnvAsDuration("ROUTING_COOLDOWN", 5*time.Minute),
			File:     getEnv("ROUTING_FILE", ""),
			Watch:    getEnvAsBool("ROUTING_WATCH", false),
		},
		Sessions: SessionsConfig{
			TTL:           getEnvAsDuration("SESSION_TTL", 24*time.Hour),
			MaxSessions:   getEnvAsInt("SESSION_MAX", 1000),
			SweepSchedule: getEnvRaw("SESSION_SWEEP_SCHEDULE", "@every 10m"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if all required configuration fields are set
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d is out of range", c.Server.Port)
	}

	// Provider validation (at least one credential in production)
	if c.IsProduction() && c.Providers.GroqAPIKey == "" && c.Providers.CerebrasAPIKey == "" && c.Routing.File == "" {
		return fmt.Errorf("at least one LLM provider must be configured in production")
	}
	if c.Providers.UpstreamTimeout < 0 {
		return fmt.Errorf("upstream timeout must not be negative")
	}

	if c.Routing.Cooldown <= 0 {
		return fmt.Errorf("routing cooldown must be positive")
	}
	if c.Routing.Watch && c.Routing.File == "" {
		return fmt.Errorf("routing watch requires ROUTING_FILE")
	}

	if c.Sessions.TTL <= 0 {
		return fmt.Errorf("session TTL must be positive")
	}
	if c.Sessions.MaxSessions <= 0 {
		return fmt.Errorf("session capacity must be positive")
	}

	// Observability validation
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

// getPort returns the server port from PORT or SERVER_PORT env vars (default: 8080)
func getPort() int {
	if value := os.Getenv("PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	if value := os.Getenv("SERVER_PORT"); value != "" {
		if p, err := strconv.Atoi(value); err == nil {
			return p
		}
	}
	return 8080
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRaw distinguishes an explicitly empty variable from an unset one
func getEnvRaw(key, defaultValue string) string {
	if value, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(value)
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

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
