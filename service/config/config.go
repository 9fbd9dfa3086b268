package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
)

// Config holds all application configuration loaded from environment variables.
// All required fields are validated at load time to ensure fail-fast behavior.
type Config struct {
	// Backend API configuration
	APIBaseURL  string
	SenderLabel string

	// Chain RPC configuration
	SolanaRPCURL string
	Commitment   string

	// Wallet configuration. Empty means no wallet capability is present;
	// the application reports that rather than failing at startup.
	WalletKey         string
	WalletDisplayName string

	// NATS configuration. Empty disables submission event publishing.
	NATSURL string

	// Dashboard configuration
	PageSize int

	LogLevel string
}

// FromEnv reads configuration from environment variables, applying
// defaults and checking the format of optional settings. Required fields
// are left as read; Load enforces their presence. Callers that overlay
// values from another source (CLI flags) use FromEnv and then Validate.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	var errs []error

	cfg.APIBaseURL = os.Getenv("ROLLUP_API_URL")
	cfg.SenderLabel = getEnvOrDefault("SENDER_LABEL", "lamplight")

	cfg.SolanaRPCURL = os.Getenv("SOLANA_RPC_URL")
	cfg.Commitment = getEnvOrDefault("COMMITMENT", "finalized")
	switch cfg.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("COMMITMENT must be processed, confirmed, or finalized, got %q", cfg.Commitment))
	}

	cfg.WalletKey = os.Getenv("WALLET_KEY")
	cfg.WalletDisplayName = getEnvOrDefault("WALLET_DISPLAY_NAME", "lamplight wallet")

	cfg.NATSURL = os.Getenv("NATS_URL")

	pageSize, err := parseInt("PAGE_SIZE", 10)
	if err != nil {
		errs = append(errs, err)
	} else {
		cfg.PageSize = pageSize
		if cfg.PageSize < 1 {
			errs = append(errs, fmt.Errorf("PAGE_SIZE must be at least 1, got %d", cfg.PageSize))
		}
	}

	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", "info")

	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// Load reads configuration from environment variables and validates all
// required fields. Returns an error if any required configuration is
// missing or invalid.
func Load() (*Config, error) {
	cfg, err := FromEnv()
	if err != nil {
		return nil, err
	}

	var errs []error
	if cfg.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("ROLLUP_API_URL is required"))
	}
	if cfg.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SOLANA_RPC_URL is required"))
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %v", errs)
	}

	return cfg, nil
}

// MustLoad is like Load but panics if configuration is invalid.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// Validate checks if the configuration is valid. This is useful for
// testing configuration without loading from env.
func (c *Config) Validate() error {
	var errs []error

	if c.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("APIBaseURL is required"))
	}
	if c.SolanaRPCURL == "" {
		errs = append(errs, fmt.Errorf("SolanaRPCURL is required"))
	}
	if c.SenderLabel == "" {
		errs = append(errs, fmt.Errorf("SenderLabel is required"))
	}
	if c.PageSize < 1 {
		errs = append(errs, fmt.Errorf("PageSize must be at least 1"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errs)
	}

	return nil
}

// SlogLevel maps the configured log level to a slog.Level. Unrecognized
// values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// getEnvOrDefault returns the environment variable value or a default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseInt parses an integer from an environment variable or uses a default.
func parseInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q: %w", key, value, err)
	}
	return result, nil
}
