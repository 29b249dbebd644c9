// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for skiff.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete skiff configuration.
type Config struct {
	Version string `toml:"version"`

	// Client configuration (TUI process)
	Client ClientConfig `toml:"client"`

	// Server configuration (serve process)
	Server ServerConfig `toml:"server"`

	// AI provider configuration (serve process)
	AI AIConfig `toml:"ai"`

	// UI configuration
	UI UIConfig `toml:"ui"`
}

// ClientConfig controls how the TUI reaches the backend.
type ClientConfig struct {
	// ServerURL is the base URL of the skiff backend
	ServerURL string `toml:"server_url"`
	// TimeoutSecs is the default per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// MaxRetries is the retry budget for retryable failures
	MaxRetries int `toml:"max_retries"`
	// InitialDelayMs is the first backoff delay in milliseconds;
	// subsequent delays double
	InitialDelayMs int `toml:"initial_delay_ms"`
}

// ServerConfig controls the backend listener and storage.
type ServerConfig struct {
	// Host is the bind address
	Host string `toml:"host"`
	// Port is the listen port
	Port int `toml:"port"`
	// DBPath is the SQLite database file (empty = ~/.skiff/skiff.db)
	DBPath string `toml:"db_path"`
	// RateLimitRPS is the sustained per-client request rate (0 disables)
	RateLimitRPS float64 `toml:"rate_limit_rps"`
	// RateLimitBurst is the per-client burst allowance
	RateLimitBurst int `toml:"rate_limit_burst"`
}

// AIConfig controls the upstream completion provider.
type AIConfig struct {
	// APIKey authenticates against the provider. Empty enables the
	// built-in mock provider.
	APIKey string `toml:"api_key"`
	// BaseURL overrides the provider endpoint (empty = provider default)
	BaseURL string `toml:"base_url"`
	// Model is the completion model identifier
	Model string `toml:"model"`
	// TimeoutSecs bounds a single completion call
	TimeoutSecs int `toml:"timeout_secs"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light"
	Theme string `toml:"theme"`
	// CompactMode tightens message spacing
	CompactMode bool `toml:"compact_mode"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:3000",
			TimeoutSecs:    30,
			MaxRetries:     3,
			InitialDelayMs: 1000,
		},
		Server: ServerConfig{
			Host:           "127.0.0.1",
			Port:           3000,
			RateLimitRPS:   5,
			RateLimitBurst: 10,
		},
		AI: AIConfig{
			Model:       "gpt-4o-mini",
			TimeoutSecs: 30,
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

// ClientTimeout returns the per-request timeout as a duration.
func (c *ClientConfig) ClientTimeout() time.Duration {
	return time.Duration(c.TimeoutSecs) * time.Second
}

// InitialDelay returns the first backoff delay as a duration.
func (c *ClientConfig) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMs) * time.Millisecond
}

// Addr returns the listener address in host:port form.
func (s *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Timeout returns the completion call timeout as a duration.
func (a *AIConfig) Timeout() time.Duration {
	return time.Duration(a.TimeoutSecs) * time.Second
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the skiff configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".skiff"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultDBPath returns the default SQLite database location.
func DefaultDBPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "skiff.db"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD
// =============================================================================

// Load loads configuration from ~/.skiff/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. A
// missing file is not an error; defaults apply.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration to ~/.skiff/config.toml with owner-only
// permissions, since the file may carry the provider API key.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variables on top of the loaded
// configuration. Recognized variables:
//
//	SKIFF_SERVER_URL   client.server_url
//	SKIFF_HOST         server.host
//	PORT               server.port
//	SKIFF_DB_PATH      server.db_path
//	OPENAI_API_KEY     ai.api_key
//	OPENAI_BASE_URL    ai.base_url
//	SKIFF_AI_MODEL     ai.model
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("SKIFF_SERVER_URL"); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv("SKIFF_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("SKIFF_DB_PATH"); v != "" {
		c.Server.DBPath = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.AI.APIKey = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		c.AI.BaseURL = v
	}
	if v := os.Getenv("SKIFF_AI_MODEL"); v != "" {
		c.AI.Model = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for out-of-range or malformed
// values.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Client.ServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{"client.server_url", "must be an absolute URL"}.Error())
	}
	if c.Client.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"client.timeout_secs", "must be positive"}.Error())
	}
	if c.Client.MaxRetries < 0 {
		errs = append(errs, ValidationError{"client.max_retries", "must not be negative"}.Error())
	}
	if c.Client.InitialDelayMs <= 0 {
		errs = append(errs, ValidationError{"client.initial_delay_ms", "must be positive"}.Error())
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{"server.port", "must be in 1-65535"}.Error())
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{"server.rate_limit_rps", "must not be negative"}.Error())
	}
	if c.AI.TimeoutSecs <= 0 {
		errs = append(errs, ValidationError{"ai.timeout_secs", "must be positive"}.Error())
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		errs = append(errs, ValidationError{"ui.theme", `must be "dark" or "light"`}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}
