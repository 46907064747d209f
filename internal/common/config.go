package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string         `toml:"environment"` // "development" or "production"
	Server      ServerConfig   `toml:"server"`
	Storage     StorageConfig  `toml:"storage"`
	Logging     LoggingConfig  `toml:"logging"`
	Connect     ConnectConfig  `toml:"connect"`
	Providers   ProviderConfig `toml:"providers"`
	Sessions    SessionConfig  `toml:"sessions"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Type   string       `toml:"type"` // Only "badger" is supported
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Format string   `toml:"format"` // "json" or "text"
	Output []string `toml:"output"` // "stdout", "file"
}

// ConnectConfig controls popup completion flows
type ConnectConfig struct {
	OwnOrigin      string        `toml:"own_origin"`       // Origin the app pages are served from
	ExtraOrigins   []string      `toml:"extra_origins"`    // Known backend origins always trusted for replies
	ClosePollEvery time.Duration `toml:"close_poll_every"` // Popup liveness polling interval
	MessageRate    float64       `toml:"message_rate"`     // Inbound popup messages per second before dropping
	MessageBurst   int           `toml:"message_burst"`    // Burst allowance for inbound popup messages
}

// ProviderConfig contains configuration for provider definition loading
type ProviderConfig struct {
	DefinitionsDir string `toml:"definitions_dir"` // Directory containing provider definition files (YAML)
}

// SessionConfig controls session issuance and expiry
type SessionConfig struct {
	CookieName    string        `toml:"cookie_name"`
	TTL           time.Duration `toml:"ttl"`            // Idle time before a session's state is swept
	SweepSchedule string        `toml:"sweep_schedule"` // Cron schedule for the expiry sweeper
}

// NewDefaultConfig returns a config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: []string{"stdout", "file"},
		},
		Connect: ConnectConfig{
			OwnOrigin:      "http://localhost:8085",
			ExtraOrigins:   []string{},
			ClosePollEvery: 500 * time.Millisecond,
			MessageRate:    5,
			MessageBurst:   10,
		},
		Providers: ProviderConfig{
			DefinitionsDir: "./providers",
		},
		Sessions: SessionConfig{
			CookieName:    "reditus_session",
			TTL:           24 * time.Hour,
			SweepSchedule: "*/15 * * * *", // Every 15 minutes
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("REDITUS_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	if port := os.Getenv("REDITUS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("REDITUS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	if badgerPath := os.Getenv("REDITUS_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}

	if level := os.Getenv("REDITUS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("REDITUS_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	if origin := os.Getenv("REDITUS_OWN_ORIGIN"); origin != "" {
		config.Connect.OwnOrigin = origin
	}
	if extra := os.Getenv("REDITUS_EXTRA_ORIGINS"); extra != "" {
		origins := []string{}
		for _, o := range strings.Split(extra, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				origins = append(origins, trimmed)
			}
		}
		config.Connect.ExtraOrigins = origins
	}

	if dir := os.Getenv("REDITUS_PROVIDERS_DIR"); dir != "" {
		config.Providers.DefinitionsDir = dir
	}

	if ttl := os.Getenv("REDITUS_SESSION_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			config.Sessions.TTL = d
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(config *Config, port int, host string) {
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
}

// IsProduction returns true when running in production mode
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}
