package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the runtime configuration of the server and CLI.
type Config struct {
	Database Database `yaml:"database"`
	HTTP     HTTP     `yaml:"http"`
	Log      Log      `yaml:"log"`
}

// Database selects the engine and the session credentials.
type Database struct {
	Driver      string `yaml:"driver"`
	User        string `yaml:"user"`
	Password    string `yaml:"password"`
	Name        string `yaml:"name"`
	Host        string `yaml:"host"`
	Port        int    `yaml:"port"`
	TablePrefix string `yaml:"table_prefix"`
	LineBreaks  *bool  `yaml:"line_breaks"`
}

// HTTP configures the console server.
type HTTP struct {
	Addr           string        `yaml:"addr"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// Log configures zerolog output and file rotation.
type Log struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Database: Database{
			Driver: DriverMySQL,
			Host:   "127.0.0.1",
			Port:   3306,
		},
		HTTP: HTTP{
			Addr:           ":8080",
			RequestTimeout: 3 * time.Second,
		},
		Log: Log{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 5,
			MaxAgeDays: 30,
			Compress:   true,
		},
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (skipped when path is empty), then environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(content, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := map[string]*string{
		"DB_DRIVER":       &c.Database.Driver,
		"MYSQL_USER":      &c.Database.User,
		"MYSQL_PASSWORD":  &c.Database.Password,
		"MYSQL_DATABASE":  &c.Database.Name,
		"MYSQL_HOST":      &c.Database.Host,
		"DB_TABLE_PREFIX": &c.Database.TablePrefix,
		"HTTP_ADDR":       &c.HTTP.Addr,
		"LOG_LEVEL":       &c.Log.Level,
		"LOG_FILE":        &c.Log.File,
	}
	for key, dst := range strs {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup("MYSQL_PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return &configError{fmt.Sprintf("MYSQL_PORT must be a number, got %q", v)}
		}
		c.Database.Port = port
	}
	if v, ok := lookup("HTTP_REQUEST_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return &configError{fmt.Sprintf("HTTP_REQUEST_TIMEOUT must be a duration, got %q", v)}
		}
		c.HTTP.RequestTimeout = d
	}
	return nil
}

// Validate reports the first problem found in the configuration.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverMySQL:
		if c.Database.User == "" {
			return ErrMissingUser
		}
		if c.Database.Name == "" {
			return ErrMissingDatabase
		}
	case DriverSQLite:
	default:
		return &configError{fmt.Sprintf("unsupported database driver %q", c.Database.Driver)}
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		return &configError{fmt.Sprintf("database port %d out of range", c.Database.Port)}
	}
	if c.HTTP.RequestTimeout <= 0 {
		return &configError{"http request timeout must be positive"}
	}
	return nil
}

// LineBreaksEnabled reports whether fetched newlines become "<br>". It
// defaults to true.
func (d Database) LineBreaksEnabled() bool {
	return d.LineBreaks == nil || *d.LineBreaks
}

var (
	// ErrMissingUser is returned when the MySQL user is not configured.
	ErrMissingUser = &configError{"database user is required (MYSQL_USER)"}

	// ErrMissingDatabase is returned when the MySQL schema is not configured.
	ErrMissingDatabase = &configError{"database name is required (MYSQL_DATABASE)"}
)

type configError struct {
	msg string
}

func (e *configError) Error() string {
	return e.msg
}

// IsConfigError reports whether err is a validation failure rather than an
// I/O or parse error.
func IsConfigError(err error) bool {
	var cerr *configError
	return errors.As(err, &cerr)
}
