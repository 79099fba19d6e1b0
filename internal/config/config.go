package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Log    LogConfig    `mapstructure:"log"`
	Store  StoreConfig  `mapstructure:"store"`
	People PeopleConfig `mapstructure:"people"`
}

// ServerConfig holds the role endpoint configuration
type ServerConfig struct {
	URL            string `mapstructure:"url"`             // Project base URL, e.g. http://localhost:8080/cog/t/
	Token          string `mapstructure:"token"`           // Bearer token (optional)
	TimeoutSeconds int    `mapstructure:"timeout_seconds"` // Per-request timeout
}

// Timeout returns the request timeout as a duration.
func (s ServerConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format"` // "json" or "text"
	Level  string `mapstructure:"level"`  // "debug", "info", "warn", "error"
}

// StoreConfig holds local cache configuration
type StoreConfig struct {
	DataDir string `mapstructure:"data_dir"` // Empty means the platform data directory
}

// PeopleConfig holds player autocomplete configuration
type PeopleConfig struct {
	Limit int `mapstructure:"limit"` // Maximum suggestions per query
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	return load(viper.New())
}

// LoadFile reads configuration from an explicit file, with environment
// variables still taking precedence.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.SetDefault("server.url", "http://localhost:8080/cog/t/")
	v.SetDefault("server.token", "")
	v.SetDefault("server.timeout_seconds", 30)
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("store.data_dir", "")
	v.SetDefault("people.limit", 20)

	if v.ConfigFileUsed() == "" {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/roster/")
		v.AddConfigPath("/etc/roster/")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, using defaults
	}

	// Environment variables override
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.Server.URL == "" {
		return nil, fmt.Errorf("server.url must be set")
	}
	if cfg.Server.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("server.timeout_seconds must be positive, got %d", cfg.Server.TimeoutSeconds)
	}

	return &cfg, nil
}
