package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

//go:embed config.example.toml
var exampleConf []byte

// EnvPrefix is the prefix for environment variable overrides (e.g. REPERTOIRE_SERVER_PORT).
const EnvPrefix = "REPERTOIRE"

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database   DatabaseConfig   `toml:"database" envconfig:"DATABASE"`
	Server     ServerConfig     `toml:"server" envconfig:"SERVER"`
	Auth       AuthConfig       `toml:"auth" envconfig:"AUTH"`
	RateLimit  RateLimitConfig  `toml:"rate_limit" envconfig:"RATE_LIMIT"`
	Log        LogConfig        `toml:"log" envconfig:"LOG"`
	Stats      StatsConfig      `toml:"stats" envconfig:"STATS"`
	Pagination PaginationConfig `toml:"pagination" envconfig:"PAGINATION"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path" envconfig:"PATH"`
	MaxOpenConns int    `toml:"max_open_conns" envconfig:"MAX_OPEN_CONNS"`
	MaxIdleConns int    `toml:"max_idle_conns" envconfig:"MAX_IDLE_CONNS"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string   `toml:"host" envconfig:"HOST"`
	Port            int      `toml:"port" envconfig:"PORT"`
	ReadTimeout     Duration `toml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    Duration `toml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	ShutdownTimeout Duration `toml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// AuthConfig names the request header carrying the authenticated user's email.
//
// Sign-in itself is handled by the upstream auth proxy.
type AuthConfig struct {
	Header string `toml:"header" envconfig:"HEADER"`
}

// RateLimitConfig contains token bucket settings for the HTTP API.
type RateLimitConfig struct {
	Enabled bool    `toml:"enabled" envconfig:"ENABLED"`
	RPS     float64 `toml:"rps" envconfig:"RPS"`
	Burst   int     `toml:"burst" envconfig:"BURST"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level" envconfig:"LEVEL"`
}

// StatsConfig contains statistics view settings.
type StatsConfig struct {
	RecentLimit int `toml:"recent_limit" envconfig:"RECENT_LIMIT"`
}

// PaginationConfig contains list pagination settings.
type PaginationConfig struct {
	PerPage int `toml:"per_page" envconfig:"PER_PAGE"`
}

// Duration wraps [time.Duration] so it can be decoded from TOML and environment strings like "15s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements [encoding.TextUnmarshaler].
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: duration %q: %v", ErrInvalidConfig, string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Decode implements [envconfig.Decoder].
func (d *Duration) Decode(value string) error {
	return d.UnmarshalText([]byte(value))
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their defaults, and environment overrides are applied last.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := ApplyEnv(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides config values with REPERTOIRE_* environment variables.
func ApplyEnv(config *Config) error {
	if err := envconfig.Process(EnvPrefix, config); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
