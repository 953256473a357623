// Package config provides YAML-based configuration loading for the
// messenger service.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the top-level messenger configuration, loaded from msgd.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Digest DigestConfig `yaml:"digest"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// DBConfig holds connection settings for the MySQL server. Password is
// normally supplied via the MSGD_DB_PASSWORD environment variable rather
// than the config file.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DigestConfig controls the scheduled unread-digest sweep. An empty
// schedule disables the digest entirely.
type DigestConfig struct {
	Schedule      string `yaml:"schedule"`       // cron spec, e.g. "@every 15m"
	NotifyCommand string `yaml:"notify_command"` // shell command template
}

// Load reads a YAML config file from path and returns a validated Config.
// A .env file next to the working directory is applied first, best-effort,
// so secrets can stay out of the YAML.
func Load(path string) (*Config, error) {
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnv()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"*"}
	}
	if c.DB.Host == "" {
		c.DB.Host = "127.0.0.1"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 3306
	}
	if c.DB.User == "" {
		c.DB.User = "messenger"
	}
	if c.DB.Database == "" {
		c.DB.Database = "messenger"
	}
}

// applyEnv overrides credentials from the environment.
func (c *Config) applyEnv() {
	if v := os.Getenv("MSGD_DB_USER"); v != "" {
		c.DB.User = v
	}
	if v := os.Getenv("MSGD_DB_PASSWORD"); v != "" {
		c.DB.Password = v
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("db.port %d out of range", c.DB.Port))
	}
	if c.Digest.Schedule != "" && c.Digest.NotifyCommand == "" {
		errs = append(errs, "digest.notify_command is required when digest.schedule is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
