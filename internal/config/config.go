// Package config loads service configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds all runtime settings for the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	SMTP     SMTPConfig     `yaml:"smtp"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port" envconfig:"PORT" validate:"required"`
}

// DatabaseConfig configures the PostgreSQL connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"     envconfig:"DB_HOST"     validate:"required"`
	Port     string `yaml:"port"     envconfig:"DB_PORT"     validate:"required"`
	User     string `yaml:"user"     envconfig:"DB_USER"     validate:"required"`
	Password string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name     string `yaml:"name"     envconfig:"DB_NAME"     validate:"required"`
	SSLMode  string `yaml:"sslMode"  envconfig:"DB_SSLMODE"  validate:"required"`
}

// SMTPConfig configures the outbound notification mailer. With Enabled
// false the service logs notifications instead of sending them.
type SMTPConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"SMTP_ENABLED"`
	Host    string `yaml:"host"    envconfig:"SMTP_HOST"    validate:"required_if=Enabled true"`
	Port    string `yaml:"port"    envconfig:"SMTP_PORT"    validate:"required_if=Enabled true"`
	From    string `yaml:"from"    envconfig:"SMTP_FROM"    validate:"required_if=Enabled true,omitempty,email"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "greenevents",
			SSLMode: "disable",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration: defaults, then the YAML file at path if
// it exists, then environment variable overrides, then validation. An
// empty path skips the file step entirely.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("process environment overrides: %w", err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// DSN builds a libpq-compatible connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Addr returns the SMTP dial address.
func (c SMTPConfig) Addr() string {
	return c.Host + ":" + c.Port
}
