/*
Package config loads clientdesk settings.

PRECEDENCE (later wins):
  1. Built-in defaults
  2. YAML file (optional, path from --config)
  3. .env file in the working directory (optional)
  4. Environment variables

ENVIRONMENT:
  PORT, ENV, LOG_LEVEL, DATABASE_PATH, STATIC_DIR, CORS_ALLOWED_ORIGINS,
  PDF_ENABLED, SMTP_HOST, SMTP_PORT, SMTP_USER, SMTP_PASS, SMTP_FROM,
  SMTP_TLS, SMTP_TIMEOUT

  An empty SMTP_HOST leaves email in preview mode.

EXAMPLE config.yaml:
  server:
    port: 8080
    env: prod
    log_level: info
  database:
    path: ./data/clientdesk.db
  smtp:
    host: smtp.example.com
    port: 587
    timeout: 10s
*/
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Tools    ToolsConfig    `yaml:"tools"`
	SMTP     SMTPConfig     `yaml:"smtp"`
}

type ServerConfig struct {
	Port               int      `yaml:"port"`
	Env                string   `yaml:"env"`
	LogLevel           string   `yaml:"log_level"`
	StaticDir          string   `yaml:"static_dir"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type ToolsConfig struct {
	PDFEnabled bool `yaml:"pdf_enabled"`
}

// SMTPConfig configures outbound email. Host empty means preview only.
type SMTPConfig struct {
	Host    string        `yaml:"host"`
	Port    int           `yaml:"port"`
	User    string        `yaml:"user"`
	Pass    string        `yaml:"pass"`
	From    string        `yaml:"from"`
	TLS     bool          `yaml:"tls"`
	Timeout time.Duration `yaml:"timeout"`
}

// Configured reports whether a relay host has been set.
func (c SMTPConfig) Configured() bool {
	return strings.TrimSpace(c.Host) != ""
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8080,
			Env:                "dev",
			LogLevel:           "info",
			StaticDir:          "./frontend/build",
			CORSAllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Path: "clientdesk.db",
		},
		Tools: ToolsConfig{
			PDFEnabled: true,
		},
		SMTP: SMTPConfig{
			Port:    587,
			From:    "noreply@example.com",
			TLS:     true,
			Timeout: 10 * time.Second,
		},
	}
}

// Load builds the configuration. A missing YAML file is not an error; a
// malformed one is.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// Variables already in the environment take precedence over .env.
	_ = godotenv.Load()

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if env := os.Getenv("ENV"); env != "" {
		cfg.Server.Env = env
	}
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.Database.Path = dbPath
	}
	if staticDir := os.Getenv("STATIC_DIR"); staticDir != "" {
		cfg.Server.StaticDir = staticDir
	}
	if origins := os.Getenv("CORS_ALLOWED_ORIGINS"); origins != "" {
		cfg.Server.CORSAllowedOrigins = splitList(origins)
	}
	if pdf := os.Getenv("PDF_ENABLED"); pdf != "" {
		if b, err := strconv.ParseBool(pdf); err == nil {
			cfg.Tools.PDFEnabled = b
		}
	}

	if host, ok := os.LookupEnv("SMTP_HOST"); ok {
		cfg.SMTP.Host = strings.TrimSpace(host)
	}
	if port := os.Getenv("SMTP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.SMTP.Port = p
		}
	}
	if user := os.Getenv("SMTP_USER"); user != "" {
		cfg.SMTP.User = user
	}
	if pass := os.Getenv("SMTP_PASS"); pass != "" {
		cfg.SMTP.Pass = pass
	}
	if from := os.Getenv("SMTP_FROM"); from != "" {
		cfg.SMTP.From = from
	}
	if tls := os.Getenv("SMTP_TLS"); tls != "" {
		if b, err := strconv.ParseBool(tls); err == nil {
			cfg.SMTP.TLS = b
		}
	}
	if timeout := os.Getenv("SMTP_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			cfg.SMTP.Timeout = d
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
