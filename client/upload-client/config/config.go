package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds the upload client configuration
type Config struct {
	ServerURL            string `json:"server_url"`
	ServerTimeoutSeconds int    `json:"server_timeout_seconds"` // HTTP timeout, must cover mixing and publishing
	DefaultAccount       string `json:"default_account"`
	DefaultProfile       string `json:"default_profile"`
}

// DefaultConfig returns the configuration used when no file exists
func DefaultConfig() *Config {
	return &Config{
		ServerURL:            "http://localhost:8048",
		ServerTimeoutSeconds: 900,
		DefaultProfile:       "mix",
	}
}

// LoadConfig loads configuration from a JSON file. A missing file yields the defaults.
func LoadConfig(filename string) (*Config, error) {
	config := DefaultConfig()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing values
	if config.ServerTimeoutSeconds <= 0 {
		config.ServerTimeoutSeconds = 900
	}
	if config.DefaultProfile == "" {
		config.DefaultProfile = "mix"
	}

	return config, nil
}

// ConfigOverrides holds potential override values for configuration
type ConfigOverrides struct {
	ServerURL            *string
	ServerTimeoutSeconds *int
}

// Override replaces configured values with the non-empty overrides
func (c *Config) Override(overrides ConfigOverrides) {
	if overrides.ServerURL != nil && *overrides.ServerURL != "" {
		c.ServerURL = *overrides.ServerURL
	}
	if overrides.ServerTimeoutSeconds != nil && *overrides.ServerTimeoutSeconds > 0 {
		c.ServerTimeoutSeconds = *overrides.ServerTimeoutSeconds
	}
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.ServerURL, "http://") && !strings.HasPrefix(c.ServerURL, "https://") {
		return fmt.Errorf("server_url must start with http:// or https://: %q", c.ServerURL)
	}
	return nil
}

// ServerTimeout returns the HTTP timeout as a duration
func (c *Config) ServerTimeout() time.Duration {
	return time.Duration(c.ServerTimeoutSeconds) * time.Second
}
