package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultConfigPath = "config.yaml"
	localConfigPath   = "config.local.yaml"
)

// Config application configuration structure
type Config struct {
	Claim   ClaimConfig   `yaml:"claim"`
	Run     RunConfig     `yaml:"run"`
	Log     LogConfig     `yaml:"log"`
	Metrics MetricsConfig `yaml:"metrics"`
	NATS    NATSConfig    `yaml:"nats"`
}

// ClaimConfig claim service configuration
type ClaimConfig struct {
	BaseURL string `yaml:"baseUrl"`
	Timeout int    `yaml:"timeout"` // request timeout (seconds)
}

// RunConfig batch run configuration
type RunConfig struct {
	AccountsFile  string `yaml:"accountsFile"`
	Concurrency   int    `yaml:"concurrency"`   // admission slots
	RetryAttempts int    `yaml:"retryAttempts"` // attempts per account workflow
	RetryDelay    int    `yaml:"retryDelay"`    // pause between attempts (seconds)
}

// LogConfig logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// MetricsConfig status listener; empty Addr disables it
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// NATSConfig outcome event publishing; empty URL disables it
type NATSConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
	Timeout int    `yaml:"timeout"` // connect timeout (seconds)
}

// Default configuration: one account at a time, three attempts two seconds apart
func Default() *Config {
	return &Config{
		Claim: ClaimConfig{
			BaseURL: "https://claim.hyperlane.foundation",
			Timeout: 30,
		},
		Run: RunConfig{
			AccountsFile:  "accounts_data.xlsx",
			Concurrency:   1,
			RetryAttempts: 3,
			RetryDelay:    2,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		NATS: NATSConfig{
			Subject: "hyperlane.registration.outcomes",
			Timeout: 10,
		},
	}
}

// LoadConfig Load configuration file. An empty path looks for config.local.yaml,
// then config.yaml, and falls back to defaults when neither exists.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	explicit := configPath != ""
	if !explicit {
		configPath = defaultConfigPath
		if _, err := os.Stat(localConfigPath); err == nil {
			configPath = localConfigPath
		}
	}

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := overrideFromEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// overrideFromEnv Override configuration from environment variables
func overrideFromEnv(cfg *Config) error {
	if v := os.Getenv("CLAIM_BASE_URL"); v != "" {
		cfg.Claim.BaseURL = v
	}

	ints := []struct {
		key string
		dst *int
	}{
		{"HTTP_TIMEOUT", &cfg.Claim.Timeout},
		{"CLAIM_CONCURRENCY", &cfg.Run.Concurrency},
		{"CLAIM_RETRY_ATTEMPTS", &cfg.Run.RetryAttempts},
		{"CLAIM_RETRY_DELAY", &cfg.Run.RetryDelay},
		{"NATS_TIMEOUT", &cfg.NATS.Timeout},
	}
	for _, item := range ints {
		raw := os.Getenv(item.key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(strings.TrimSpace(raw))
		if err != nil {
			return fmt.Errorf("invalid %s: %w", item.key, err)
		}
		*item.dst = v
	}

	if v := os.Getenv("ACCOUNTS_FILE"); v != "" {
		cfg.Run.AccountsFile = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_SUBJECT"); v != "" {
		cfg.NATS.Subject = v
	}
	return nil
}

// Validate rejects settings the run cannot work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Claim.BaseURL) == "" {
		return errors.New("claim.baseUrl must not be empty")
	}
	if c.Run.Concurrency < 1 {
		return fmt.Errorf("run.concurrency must be at least 1, got %d", c.Run.Concurrency)
	}
	if c.Run.RetryAttempts < 1 {
		return fmt.Errorf("run.retryAttempts must be at least 1, got %d", c.Run.RetryAttempts)
	}
	if c.Run.RetryDelay < 0 {
		return fmt.Errorf("run.retryDelay must not be negative, got %d", c.Run.RetryDelay)
	}
	if c.NATS.URL != "" && c.NATS.Subject == "" {
		return errors.New("nats.subject must be set when nats.url is")
	}
	return nil
}

func (c ClaimConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

func (r RunConfig) Delay() time.Duration {
	return time.Duration(r.RetryDelay) * time.Second
}

func (n NATSConfig) ConnectTimeout() time.Duration {
	if n.Timeout <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.Timeout) * time.Second
}
