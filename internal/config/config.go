// Package config assembles the explicit configuration object handed to the
// loop constructor. Precedence: defaults < .aicli.yaml < AICLI_* environment
// < command-line flags. No package carries ambient mutable session state;
// everything flows through Config.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Defaults match the daemon's standard local setup.
const (
	DefaultModel          = "qwen3-coder:30b"
	DefaultBaseURL        = "http://localhost:11434"
	DefaultMaxTurns       = 100
	DefaultMaxRedirects   = 3
	DefaultBashTimeoutSec = 30
	DefaultHistoryLimit   = 50
)

// Config is the process-wide session configuration. Created at CLI startup
// and passed down by value semantics; nothing mutates it after Load.
type Config struct {
	Model          string `mapstructure:"model"`
	BaseURL        string `mapstructure:"url"`
	ProjectDir     string `mapstructure:"project_dir"`
	Stream         bool   `mapstructure:"stream"`
	Debug          bool   `mapstructure:"debug"`
	MaxTurns       int    `mapstructure:"max_turns"`
	MaxRedirects   int    `mapstructure:"max_redirects"`
	TokenBudget    int    `mapstructure:"token_budget"`
	BashTimeoutSec int    `mapstructure:"bash_timeout_sec"`
	HistoryLimit   int    `mapstructure:"history_limit"`
}

// BashTimeout returns the shell tool's wall-clock bound as a Duration.
func (c *Config) BashTimeout() time.Duration {
	return time.Duration(c.BashTimeoutSec) * time.Second
}

// NewViper returns a viper instance with defaults, env binding, and optional
// config-file lookup wired. The caller binds its flags before Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("model", DefaultModel)
	v.SetDefault("url", DefaultBaseURL)
	v.SetDefault("project_dir", ".")
	v.SetDefault("stream", true)
	v.SetDefault("debug", false)
	v.SetDefault("max_turns", DefaultMaxTurns)
	v.SetDefault("max_redirects", DefaultMaxRedirects)
	v.SetDefault("token_budget", 0) // 0 disables history windowing
	v.SetDefault("bash_timeout_sec", DefaultBashTimeoutSec)
	v.SetDefault("history_limit", DefaultHistoryLimit)

	v.SetEnvPrefix("AICLI")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName(".aicli")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME")
	return v
}

// Load reads the optional config file and unmarshals into Config.
// A missing file is fine; a malformed one is not.
func Load(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Model == "" {
		return fmt.Errorf("model must not be empty")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("url must not be empty")
	}
	if c.MaxTurns <= 0 {
		return fmt.Errorf("max_turns must be positive, got %d", c.MaxTurns)
	}
	if c.MaxRedirects < 0 {
		return fmt.Errorf("max_redirects must not be negative, got %d", c.MaxRedirects)
	}
	if c.BashTimeoutSec <= 0 {
		return fmt.Errorf("bash_timeout_sec must be positive, got %d", c.BashTimeoutSec)
	}
	return nil
}
