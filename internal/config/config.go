package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"surveytab/internal/errors"
)

// Source kinds accepted by DATA_SOURCE.
const (
	SourceMock = "mock"
	SourceAPI  = "api"
	SourceFile = "file"
	SourceSQL  = "sql"
)

const defaultDashboardURL = "http://localhost:8888/api/dashboard"

// Config represents the complete application configuration
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Database  DatabaseConfig
	Mock      MockConfig
	Codebook  string
	Profiling ProfilingConfig
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port    string
	GinMode string
}

// SourceConfig selects where the survey dataset is loaded from
type SourceConfig struct {
	Kind         string
	DashboardURL string
	FetchTimeout time.Duration
	File         string
	Sheet        string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver string
	URL    string
}

// MockConfig sizes the generated survey used when no source is configured
type MockConfig struct {
	Rows int
	Seed int64
}

// ProfilingConfig holds performance profiling settings
type ProfilingConfig struct {
	Port    string
	Enabled bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Server:    *loadServerConfig(),
		Source:    *loadSourceConfig(),
		Database:  *loadDatabaseConfig(),
		Mock:      *loadMockConfig(),
		Codebook:  getEnvOrDefault("CODEBOOK_PATH", ""),
		Profiling: *loadProfilingConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadSourceConfig() *SourceConfig {
	return &SourceConfig{
		Kind:         strings.ToLower(getEnvOrDefault("DATA_SOURCE", SourceMock)),
		DashboardURL: DashboardURL(),
		FetchTimeout: getEnvDurationOrDefault("FETCH_TIMEOUT", 10*time.Second),
		File:         getEnvOrDefault("DATA_FILE", ""),
		Sheet:        getEnvOrDefault("DATA_SHEET", ""),
	}
}

// DashboardURL resolves the dashboard endpoint: DASHBOARD_URL wins, then a
// deploy base URL with the functions path, then the local dev server.
func DashboardURL() string {
	if explicit := os.Getenv("DASHBOARD_URL"); explicit != "" {
		return explicit
	}
	base := os.Getenv("DEPLOY_URL")
	if base == "" {
		base = os.Getenv("URL")
	}
	if base != "" {
		return strings.TrimRight(base, "/") + "/.netlify/functions/dashboard"
	}
	return defaultDashboardURL
}

func loadDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
		URL:    getEnvOrDefault("DATABASE_URL", ""),
	}
}

func loadMockConfig() *MockConfig {
	return &MockConfig{
		Rows: getEnvIntOrDefault("MOCK_ROWS", 220),
		Seed: int64(getEnvIntOrDefault("MOCK_SEED", 7)),
	}
}

func loadProfilingConfig() *ProfilingConfig {
	return &ProfilingConfig{
		Port:    getEnvOrDefault("PPROF_PORT", "6060"),
		Enabled: getEnvBoolOrDefault("PPROF_ENABLED", false),
	}
}

func validateConfig(config *Config) error {
	switch config.Source.Kind {
	case SourceMock, SourceAPI:
	case SourceFile:
		if config.Source.File == "" {
			return errors.ConfigInvalid("DATA_FILE is required when DATA_SOURCE=file")
		}
	case SourceSQL:
		if config.Database.URL == "" {
			return errors.ConfigInvalid("DATABASE_URL is required when DATA_SOURCE=sql")
		}
		switch config.Database.Driver {
		case "postgres", "pgx", "sqlite3":
		default:
			return errors.ConfigInvalid("DATABASE_DRIVER must be postgres, pgx or sqlite3")
		}
	default:
		return errors.ConfigInvalid("DATA_SOURCE must be one of mock, api, file, sql")
	}
	if config.Mock.Rows <= 0 {
		return errors.ConfigInvalid("MOCK_ROWS must be positive")
	}
	if config.Source.FetchTimeout <= 0 {
		return errors.ConfigInvalid("FETCH_TIMEOUT must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
