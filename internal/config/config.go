package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Config is the driver configuration. The catalog itself has no settings.
type Config struct {
	Backend    string `yaml:"backend"`
	LogLevel   string `yaml:"log_level"`
	ChartWidth int    `yaml:"chart_width"`
	Color      *bool  `yaml:"color"`
	Seed       Seed   `yaml:"seed"`
}

// Seed is a catalog loaded at startup: books and users in id order, then
// loans applied as lend operations.
type Seed struct {
	Users []string   `yaml:"users"`
	Books []SeedBook `yaml:"books"`
	Loans []SeedLoan `yaml:"loans"`
}

type SeedBook struct {
	Title  string `yaml:"title"`
	Author string `yaml:"author"`
	Genre  string `yaml:"genre"`
}

type SeedLoan struct {
	User int64 `yaml:"user"`
	Book int64 `yaml:"book"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Backend:  BackendMemory,
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, the YAML file at path (if
// path is not empty), then CATALOG_* variables from the environment and a
// .env file in the working directory.
func Load(path string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.Backend = GetEnvAsString("CATALOG_BACKEND", cfg.Backend)
	cfg.LogLevel = GetEnvAsString("CATALOG_LOG_LEVEL", cfg.LogLevel)
	cfg.ChartWidth = GetEnvAsInt("CATALOG_CHART_WIDTH", cfg.ChartWidth)
	if v, ok := os.LookupEnv("CATALOG_COLOR"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Color = &b
		}
	}

	return cfg, cfg.Validate()
}

// Validate checks enumerated fields and seed references.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendSQLite:
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendMemory, BackendSQLite)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ChartWidth < 0 {
		return fmt.Errorf("chart_width must not be negative")
	}
	for i, l := range c.Seed.Loans {
		if l.User < 1 || l.User > int64(len(c.Seed.Users)) {
			return fmt.Errorf("seed loan %d: unknown user %d", i, l.User)
		}
		if l.Book < 1 || l.Book > int64(len(c.Seed.Books)) {
			return fmt.Errorf("seed loan %d: unknown book %d", i, l.Book)
		}
	}
	return nil
}

// ParseLevel maps debug|info|warn|error to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return l, nil
}

// GetEnvAsInt gets environment variable as int with default value
func GetEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvAsString gets environment variable as string with default value
func GetEnvAsString(key string, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
