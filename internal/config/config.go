// Package config resolves CLI configuration from defaults, an optional YAML
// file, an optional .env file and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	core "github.com/coinbase-samples/core-go"
)

// Environment variables read by Load.
const (
	EnvBaseURL     = "COINBASE_BASE_URL"
	EnvAccessKey   = "COINBASE_ACCESS_KEY"
	EnvPassphrase  = "COINBASE_PASSPHRASE"
	EnvSigningKey  = "COINBASE_SIGNING_KEY"
	EnvMaxRetries  = "COINBASE_MAX_RETRIES"
	EnvTimeout     = "COINBASE_TIMEOUT"
	EnvMetricsAddr = "COINBASE_METRICS_ADDR"
)

// DefaultBaseURL is used when neither file nor environment names one.
const DefaultBaseURL = "https://api.exchange.coinbase.com"

// Config is the resolved runtime configuration.
type Config struct {
	BaseURL string

	AccessKey  string
	Passphrase string
	SigningKey string

	Timeout              time.Duration
	MaxRetries           int
	MinDelay             time.Duration
	MaxDelay             time.Duration
	RetryableStatusCodes []int

	MetricsAddr string
	Debug       bool
}

// configFile mirrors the YAML schema. Credentials are never read from it.
type configFile struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
	Retry   struct {
		MaxRetries           *int   `yaml:"max_retries"`
		MinDelay             string `yaml:"min_delay"`
		MaxDelay             string `yaml:"max_delay"`
		RetryableStatusCodes []int  `yaml:"retryable_status_codes"`
	} `yaml:"retry"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
	Debug bool `yaml:"debug"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		BaseURL:    DefaultBaseURL,
		Timeout:    30 * time.Second,
		MaxRetries: core.DefaultMaxRetries,
		MinDelay:   core.DefaultMinDelay,
		MaxDelay:   core.DefaultMaxDelay,
	}
}

// Load resolves configuration in priority order: defaults -> file -> env.
// A missing file at path is not an error; an empty path skips the file.
// When envFile is set, its variables are loaded into the process
// environment first without overriding variables that are already set.
func Load(path, envFile string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := applyFile(&cfg, raw); err != nil {
				return Config{}, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return Config{}, fmt.Errorf("load env file %s: %w", envFile, err)
		}
	}

	cfg.BaseURL = envOrDefault(EnvBaseURL, cfg.BaseURL)
	cfg.AccessKey = envOrDefault(EnvAccessKey, cfg.AccessKey)
	cfg.Passphrase = envOrDefault(EnvPassphrase, cfg.Passphrase)
	cfg.SigningKey = envOrDefault(EnvSigningKey, cfg.SigningKey)
	cfg.MaxRetries = envInt(EnvMaxRetries, cfg.MaxRetries)
	cfg.Timeout = envDuration(EnvTimeout, cfg.Timeout)
	cfg.MetricsAddr = envOrDefault(EnvMetricsAddr, cfg.MetricsAddr)

	return cfg, nil
}

func applyFile(cfg *Config, raw []byte) error {
	var f configFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	if f.BaseURL != "" {
		cfg.BaseURL = f.BaseURL
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return fmt.Errorf("parse timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if f.Retry.MaxRetries != nil {
		cfg.MaxRetries = *f.Retry.MaxRetries
	}
	if f.Retry.MinDelay != "" {
		d, err := time.ParseDuration(f.Retry.MinDelay)
		if err != nil {
			return fmt.Errorf("parse retry.min_delay: %w", err)
		}
		cfg.MinDelay = d
	}
	if f.Retry.MaxDelay != "" {
		d, err := time.ParseDuration(f.Retry.MaxDelay)
		if err != nil {
			return fmt.Errorf("parse retry.max_delay: %w", err)
		}
		cfg.MaxDelay = d
	}
	if len(f.Retry.RetryableStatusCodes) > 0 {
		cfg.RetryableStatusCodes = f.Retry.RetryableStatusCodes
	}
	if f.Metrics.Addr != "" {
		cfg.MetricsAddr = f.Metrics.Addr
	}
	cfg.Debug = cfg.Debug || f.Debug

	return nil
}

// Credentials builds validated credentials from the resolved values.
func (c Config) Credentials() (*core.Credentials, error) {
	creds, err := core.NewCredentials(c.AccessKey, c.Passphrase, c.SigningKey)
	if err != nil {
		return nil, fmt.Errorf("set %s, %s and %s: %w", EnvAccessKey, EnvPassphrase, EnvSigningKey, err)
	}
	return creds, nil
}

// Policy returns the call policy described by the configuration.
func (c Config) Policy() core.CallPolicy {
	policy := core.DefaultCallPolicy()
	policy.MaxRetries = c.MaxRetries
	policy.MinDelay = c.MinDelay
	policy.MaxDelay = c.MaxDelay
	if len(c.RetryableStatusCodes) > 0 {
		policy.RetryOnStatusCodes = true
		policy.RetryableStatusCodes = append([]int(nil), c.RetryableStatusCodes...)
	}
	return policy
}

// envOrDefault returns an env var when present, otherwise the provided fallback.
func envOrDefault(name, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(name)); value != "" {
		return value
	}
	return fallback
}

// envInt parses integer env vars with safe fallback on empty/invalid values.
func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// envDuration accepts Go durations ("15s") or whole seconds ("15").
func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
