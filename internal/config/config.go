package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Supported values of the DB_DRIVER environment variable.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the whole application configuration. It is populated from environment variables.
type Config struct {
	App      AppConfig
	Database Database
}

type AppConfig struct {
	Environment string // development, production
	Port        string
	LogLevel    string
	HTTPLogging bool
}

// Database describes how to reach the contacts database.
type Database struct {
	Driver   string
	Host     string
	User     string
	Password string
	Name     string
	Path     string // sqlite only
}

// Load reads an optional .env file from the working directory and then builds the configuration
// from the environment. Variables that are already set take precedence over the .env file.
//
// Usage example:
// > PORT=8080 DB_DRIVER=mysql DBHOST=localhost DBUSER=dirk DBPWD=bullo92 go run ./cmd/service
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("could not read .env file: %w", err)
	}
	cfg := FromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// FromEnv builds the configuration from the current environment without validating it.
func FromEnv() *Config {
	return &Config{
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("PORT", "8080"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			HTTPLogging: !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off"),
		},
		Database: Database{
			Driver:   strings.ToLower(getEnv("DB_DRIVER", DriverSQLite)),
			Host:     getEnv("DBHOST", "localhost"),
			User:     os.Getenv("DBUSER"),
			Password: os.Getenv("DBPWD"),
			Name:     getEnv("DBNAME", "test"),
			Path:     getEnv("DB_PATH", "data/contacts.db"),
		},
	}
}

// Validate checks the values that would otherwise only fail at startup of the server.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.App.Port); err != nil {
		return fmt.Errorf("could not parse PORT %q: %w", c.App.Port, err)
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
		if c.App.Environment == "production" && c.Database.Password == "" {
			return fmt.Errorf("DBPWD must be set in production")
		}
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH must not be empty")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	return nil
}

// IsDevelopment reports whether the application runs on a developer machine.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
