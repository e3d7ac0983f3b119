// Package config assembles the server configuration from defaults, a YAML
// file, a dotenv file, LABSTOCK_* environment variables and command-line
// flags, in that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/erazemk/labstock/internal/blob"
	"github.com/erazemk/labstock/internal/notify"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "LABSTOCK_"

// Config is the complete server configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Auth     AuthConfig     `yaml:"auth"`
	Blob     BlobConfig     `yaml:"blob"`
	Notify   NotifyConfig   `yaml:"notify"`
	Admin    AdminConfig    `yaml:"admin"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" env:"ADDR"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"READ_HEADER_TIMEOUT"`
	ReadTimeout       time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout      time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// MetricsEnabled exposes GET /metrics.
	MetricsEnabled bool `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" env:"DB"`
}

type LogConfig struct {
	// Path is an optional file that receives every level in addition to
	// stdout and stderr.
	Path string `yaml:"path" env:"LOG"`
}

type AuthConfig struct {
	// JWTSecret overrides the secret persisted in the database.
	JWTSecret string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	TokenTTL  time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

type BlobConfig struct {
	Driver string        `yaml:"driver" env:"BLOB_DRIVER"`
	Dir    string        `yaml:"dir" env:"BLOB_DIR"`
	S3     blob.S3Config `yaml:"s3" envPrefix:"S3_"`
}

type NotifyConfig struct {
	WebhookURL string            `yaml:"webhook_url" env:"WEBHOOK_URL"`
	Timeout    time.Duration     `yaml:"timeout" env:"NOTIFY_TIMEOUT"`
	SMTP       notify.SMTPConfig `yaml:"smtp" envPrefix:"SMTP_"`
}

// AdminConfig names the account created on first run.
type AdminConfig struct {
	Name  string `yaml:"name" env:"ADMIN_NAME"`
	Email string `yaml:"email" env:"ADMIN_EMAIL"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			MetricsEnabled:    true,
		},
		Database: DatabaseConfig{Path: "labstock.sqlite3"},
		Auth:     AuthConfig{TokenTTL: 7 * 24 * time.Hour},
		Blob:     BlobConfig{Driver: blob.DriverFS, Dir: "uploads"},
		Notify:   NotifyConfig{Timeout: 10 * time.Second},
		Admin:    AdminConfig{Name: "Admin", Email: "admin@example.com"},
	}
}

// Load reads the optional YAML file at path and the optional dotenv file at
// envFile, then applies environment overrides. Process environment wins
// over the dotenv file.
func Load(path, envFile string) (*Config, error) {
	return load(path, envFile, os.Environ())
}

func load(path, envFile string, environ []string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	vars := map[string]string{}
	if envFile != "" {
		m, err := godotenv.Read(envFile)
		switch {
		case err == nil:
			vars = m
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	// Only variables that are present and non-empty override a field.
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix, Environment: vars}); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}
	cfg.Notify.SMTP.To = cleanList(cfg.Notify.SMTP.To)
	return cfg, nil
}

// cleanList trims list entries and drops empty ones, so "a, b," is [a b].
func cleanList(list []string) []string {
	var out []string
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Validate reports settings that would stop the server from starting.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	switch c.Blob.Driver {
	case blob.DriverFS:
	case blob.DriverS3:
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown blob.driver %q", c.Blob.Driver))
	}
	return errors.Join(errs...)
}

// BlobOptions converts the blob section for blob.Open.
func (c *Config) BlobOptions() blob.Options {
	return blob.Options{Driver: c.Blob.Driver, Dir: c.Blob.Dir, S3: c.Blob.S3}
}

// NotifyOptions converts the notify section for notify.New.
func (c *Config) NotifyOptions() notify.Options {
	return notify.Options{WebhookURL: c.Notify.WebhookURL, SMTP: c.Notify.SMTP, Timeout: c.Notify.Timeout}
}

// Flags holds command-line overrides registered on a pflag.FlagSet. Only
// flags the user actually set override the loaded configuration.
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath string
	EnvFile    string

	addr       string
	dbPath     string
	logPath    string
	adminName  string
	adminEmail string
	blobDir    string
}

// RegisterFlags adds the server flags to fs.
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	d := Default()
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "YAML configuration file")
	fs.StringVar(&f.EnvFile, "env-file", ".env", "dotenv file with LABSTOCK_* variables")
	fs.StringVarP(&f.addr, "addr", "a", d.Server.Addr, "listen address")
	fs.StringVarP(&f.dbPath, "db", "d", d.Database.Path, "SQLite database path")
	fs.StringVarP(&f.logPath, "log", "l", "", "log file path (default: stdout/stderr only)")
	fs.StringVar(&f.adminName, "admin-name", d.Admin.Name, "admin name on first run")
	fs.StringVarP(&f.adminEmail, "admin-email", "u", d.Admin.Email, "admin email on first run")
	fs.StringVar(&f.blobDir, "uploads", d.Blob.Dir, "attachment directory for the fs blob driver")
	return f
}

// Load loads the configuration named by the flags and applies the flags
// on top.
func (f *Flags) Load() (*Config, error) {
	cfg, err := Load(f.ConfigPath, f.EnvFile)
	if err != nil {
		return nil, err
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (f *Flags) apply(cfg *Config) {
	set := func(name, v string, dst *string) {
		if f.fs.Changed(name) {
			*dst = v
		}
	}
	set("addr", f.addr, &cfg.Server.Addr)
	set("db", f.dbPath, &cfg.Database.Path)
	set("log", f.logPath, &cfg.Log.Path)
	set("admin-name", f.adminName, &cfg.Admin.Name)
	set("admin-email", f.adminEmail, &cfg.Admin.Email)
	set("uploads", f.blobDir, &cfg.Blob.Dir)
}
