package api

import (
	"fmt"
	"time"
)

// DashboardConfig holds configuration for the dashboard dataset source
type DashboardConfig struct {
	URL     string            `json:"url"`
	Timeout time.Duration     `json:"timeout"`
	Headers map[string]string `json:"headers,omitempty"`

	// Authentication
	AuthMethod string `json:"auth_method"` // "none", "bearer", "api_key"
	AuthToken  string `json:"auth_token,omitempty"`

	// RowPaths are tried in order; the first non-empty array wins.
	RowPaths []string `json:"row_paths"`
}

// DefaultDashboardConfig returns defaults for the dashboard endpoint
func DefaultDashboardConfig(url string) *DashboardConfig {
	return &DashboardConfig{
		URL:        url,
		Timeout:    30 * time.Second,
		Headers:    map[string]string{"Accept": "application/json"},
		AuthMethod: "none",
		RowPaths:   []string{"analysisRows", "rows"},
	}
}

// Validate checks if the configuration is valid
func (c *DashboardConfig) Validate() error {
	if c.URL == "" {
		return &ValidationError{Field: "URL", Message: "is required"}
	}
	if c.Timeout <= 0 {
		return &ValidationError{Field: "Timeout", Message: "must be positive"}
	}
	if len(c.RowPaths) == 0 {
		return &ValidationError{Field: "RowPaths", Message: "needs at least one path"}
	}
	switch c.AuthMethod {
	case "", "none", "bearer", "api_key":
	default:
		return &ValidationError{Field: "AuthMethod", Message: fmt.Sprintf("unsupported method %q", c.AuthMethod)}
	}
	return nil
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}
