// Package config loads and validates the environment-sourced configuration
// for the advisor process.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/viper"
)

// GLM-4.7 based defaults: 200K context window, 150K per-message ceiling,
// 32K output. Users targeting other models override these through the
// environment.
const (
	DefaultContextWindow    = 200000
	DefaultMaxMessageTokens = 150000
	DefaultMaxTokens        = 32000
	DefaultMaxIterations    = 10
	DefaultMaxHistory       = 50
	DefaultTemperature      = 0.7
)

// Provider is the immutable per-process backend configuration.
type Provider struct {
	Name             string  `mapstructure:"provider"`
	APIKey           string  `mapstructure:"api_key"`
	BaseURL          string  `mapstructure:"base_url"`
	Model            string  `mapstructure:"model"`
	ContextWindow    int     `mapstructure:"context_window"`
	MaxMessageTokens int     `mapstructure:"max_message_tokens"`
	MaxTokens        int     `mapstructure:"max_tokens"`
	MaxIterations    int     `mapstructure:"max_iterations"`
	Temperature      float64 `mapstructure:"temperature"`
}

// Server carries the session-side configuration.
type Server struct {
	Name              string `mapstructure:"server_name"`
	LogLevel          string `mapstructure:"log_level"`
	MaxHistory        int    `mapstructure:"max_history"`
	EnablePersistence bool   `mapstructure:"enable_persistence"`
	HistoryPath       string `mapstructure:"history_path"`
}

// Config bundles both halves.
type Config struct {
	Provider Provider `mapstructure:",squash"`
	Server   Server   `mapstructure:",squash"`
}

// Load reads configuration from AURAI_* environment variables, applies
// defaults, and validates the result.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AURAI")
	v.AutomaticEnv()

	v.SetDefault("provider", "openai")
	v.SetDefault("api_key", "")
	v.SetDefault("base_url", "")
	v.SetDefault("model", "gpt-4o")
	v.SetDefault("context_window", DefaultContextWindow)
	v.SetDefault("max_message_tokens", DefaultMaxMessageTokens)
	v.SetDefault("max_tokens", DefaultMaxTokens)
	v.SetDefault("max_iterations", DefaultMaxIterations)
	v.SetDefault("temperature", DefaultTemperature)

	v.SetDefault("server_name", "Aurai Advisor")
	v.SetDefault("log_level", "info")
	v.SetDefault("max_history", DefaultMaxHistory)
	v.SetDefault("enable_persistence", true)
	v.SetDefault("history_path", defaultHistoryPath())

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".aurai", "history.json")
	}
	return filepath.Join(home, ".aurai", "history.json")
}

var baseURLPattern = regexp.MustCompile(
	`(?i)^https?://` +
		`(?:(?:[A-Z0-9](?:[A-Z0-9-]{0,61}[A-Z0-9])?\.)+[A-Z]{2,6}\.?|` +
		`localhost|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)

// Validate checks both halves; failures here are fatal at startup.
func (c Config) Validate() error {
	if err := c.Provider.Validate(); err != nil {
		return err
	}
	return c.Server.Validate()
}

// Validate enforces the credential and endpoint constraints.
func (p Provider) Validate() error {
	key := strings.TrimSpace(p.APIKey)
	if key == "" {
		return errors.New("AURAI_API_KEY is not set")
	}
	if len(key) < 10 {
		return errors.New("API key must be at least 10 characters")
	}
	if strings.ContainsAny(key, " \t\n\r") {
		return errors.New("API key must not contain whitespace or control characters")
	}

	base := strings.TrimSpace(p.BaseURL)
	if base == "" {
		return errors.New("AURAI_BASE_URL is not set")
	}
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		return errors.New("base URL must start with http:// or https://")
	}
	if !baseURLPattern.MatchString(base) {
		return fmt.Errorf("base URL %q is not a valid endpoint", base)
	}

	if strings.TrimSpace(p.Model) == "" {
		return errors.New("model name must not be empty")
	}
	if p.ContextWindow < 1 {
		return errors.New("context window must be positive")
	}
	if p.MaxMessageTokens < 1 {
		return errors.New("max message tokens must be positive")
	}
	if p.MaxTokens < 1 {
		return errors.New("max tokens must be positive")
	}
	if p.MaxIterations < 1 {
		return errors.New("max iterations must be positive")
	}
	if p.Temperature < 0.0 || p.Temperature > 2.0 {
		return fmt.Errorf("temperature %v outside [0.0, 2.0]", p.Temperature)
	}
	return nil
}

// Validate enforces the history bounds and log level.
func (s Server) Validate() error {
	if s.MaxHistory < 1 || s.MaxHistory > 200 {
		return fmt.Errorf("max history %d outside [1, 200]", s.MaxHistory)
	}
	switch strings.ToLower(strings.TrimSpace(s.LogLevel)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", s.LogLevel)
	}
	if s.EnablePersistence && strings.TrimSpace(s.HistoryPath) == "" {
		return errors.New("history path must be set when persistence is enabled")
	}
	return nil
}
