// Package config loads daemon configuration from the environment.
//
// Credentials are required at startup and nothing else is: every tunable has a
// default that matches a single-host homelab deployment. A missing credential
// is the only fatal configuration condition; everything after startup is
// handled per-cycle and never terminates the daemon.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for tunable settings. Overridable via environment variables with
// the PIMON_ prefix.
const (
	DefaultPollInterval   = 60 * time.Second
	DefaultCommandTimeout = 30 * time.Second
	DefaultBaseBackoff    = 5 * time.Minute
	DefaultMountPoint     = "/mnt/nas"
	DefaultServiceUnit    = "cockpit.service"
	DefaultCacheFile      = "/data/fix_cache.json"
	DefaultHeartbeatFile  = "/tmp/heartbeat"
	DefaultHistoryDB      = "/data/history.db"
)

// Config holds the complete daemon configuration.
type Config struct {
	// Required credentials
	TelegramBotToken string // TELEGRAM_BOT_TOKEN
	TelegramChatID   string // TELEGRAM_CHAT_ID
	AnthropicAPIKey  string // ANTHROPIC_API_KEY

	// OpenAIAPIKey enables the fallback provider tier when present.
	// With it absent the chain has exactly one provider.
	OpenAIAPIKey string // OPENAI_API_KEY

	PollInterval   time.Duration // PIMON_POLL_INTERVAL
	CommandTimeout time.Duration // PIMON_COMMAND_TIMEOUT
	BaseBackoff    time.Duration // PIMON_BASE_BACKOFF

	MountPoint  string // PIMON_MOUNT_POINT
	ServiceUnit string // PIMON_SERVICE_UNIT

	CacheFile     string // PIMON_CACHE_FILE
	HeartbeatFile string // PIMON_HEARTBEAT_FILE
	HistoryDB     string // PIMON_HISTORY_DB

	// SeverityRules points to an optional YAML file of dangerous-command
	// patterns. Empty means compiled-in defaults.
	SeverityRules string // PIMON_SEVERITY_RULES

	// UseNsenter wraps host commands in nsenter so the daemon can run inside
	// a container and still operate on the host. PIMON_NSENTER
	UseNsenter bool
}

// ConfigurationError indicates a required setting is missing or invalid.
// It is the only error class that is fatal, and only at startup.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Setting, e.Reason)
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramChatID:   os.Getenv("TELEGRAM_CHAT_ID"),
		AnthropicAPIKey:  os.Getenv("ANTHROPIC_API_KEY"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		PollInterval:     DefaultPollInterval,
		CommandTimeout:   DefaultCommandTimeout,
		BaseBackoff:      DefaultBaseBackoff,
		MountPoint:       DefaultMountPoint,
		ServiceUnit:      DefaultServiceUnit,
		CacheFile:        DefaultCacheFile,
		HeartbeatFile:    DefaultHeartbeatFile,
		HistoryDB:        DefaultHistoryDB,
		SeverityRules:    os.Getenv("PIMON_SEVERITY_RULES"),
		UseNsenter:       true,
	}

	if val := os.Getenv("PIMON_POLL_INTERVAL"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.PollInterval = d
		}
	}
	if val := os.Getenv("PIMON_COMMAND_TIMEOUT"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.CommandTimeout = d
		}
	}
	if val := os.Getenv("PIMON_BASE_BACKOFF"); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			cfg.BaseBackoff = d
		}
	}
	if val := os.Getenv("PIMON_MOUNT_POINT"); val != "" {
		cfg.MountPoint = val
	}
	if val := os.Getenv("PIMON_SERVICE_UNIT"); val != "" {
		cfg.ServiceUnit = val
	}
	if val := os.Getenv("PIMON_CACHE_FILE"); val != "" {
		cfg.CacheFile = val
	}
	if val := os.Getenv("PIMON_HEARTBEAT_FILE"); val != "" {
		cfg.HeartbeatFile = val
	}
	if val := os.Getenv("PIMON_HISTORY_DB"); val != "" {
		cfg.HistoryDB = val
	}
	if val := os.Getenv("PIMON_NSENTER"); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			cfg.UseNsenter = b
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.TelegramBotToken == "" {
		return &ConfigurationError{Setting: "TELEGRAM_BOT_TOKEN", Reason: "not set"}
	}
	if c.TelegramChatID == "" {
		return &ConfigurationError{Setting: "TELEGRAM_CHAT_ID", Reason: "not set"}
	}
	if c.AnthropicAPIKey == "" {
		return &ConfigurationError{Setting: "ANTHROPIC_API_KEY", Reason: "not set"}
	}
	if c.PollInterval < time.Second {
		return &ConfigurationError{Setting: "PIMON_POLL_INTERVAL", Reason: fmt.Sprintf("too fast (minimum 1s), got %v", c.PollInterval)}
	}
	if c.CommandTimeout <= 0 {
		return &ConfigurationError{Setting: "PIMON_COMMAND_TIMEOUT", Reason: fmt.Sprintf("must be positive, got %v", c.CommandTimeout)}
	}
	if c.BaseBackoff <= 0 {
		return &ConfigurationError{Setting: "PIMON_BASE_BACKOFF", Reason: fmt.Sprintf("must be positive, got %v", c.BaseBackoff)}
	}
	return nil
}

// HasFallbackProvider reports whether the optional second provider tier is
// configured.
func (c *Config) HasFallbackProvider() bool {
	return c.OpenAIAPIKey != ""
}
