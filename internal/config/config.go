package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"policyguard/internal/telemetry"
)

// Store backends for the audit log.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
)

type Config struct {
	Env             string
	ListenAddr      string
	DatabaseURL     string
	StoreBackend    string
	SQLitePath      string
	AutoMigrate     bool
	RulesPath       string
	MaxTextLength   int
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	Tracing         telemetry.TracingConfig
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_env", "development")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("store_backend", "")
	v.SetDefault("sqlite_path", "data/policyguard.db")
	v.SetDefault("auto_migrate", true)
	v.SetDefault("rules_path", "")
	v.SetDefault("max_text_length", 8000)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("shutdown_timeout", "10s")
	v.SetDefault("otel_enabled", false)
	v.SetDefault("otel_exporter_otlp_endpoint", "")
	v.SetDefault("otel_insecure", false)
	v.SetDefault("otel_sample_ratio", 1.0)
}

// Load reads configuration from the environment, optionally layered over a
// YAML file named by CONFIG_FILE. Environment variables win.
func Load() (Config, error) {
	v := viper.New()
	defaults(v)
	v.AutomaticEnv()
	if file := os.Getenv("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	cfg := Config{
		Env:             v.GetString("app_env"),
		ListenAddr:      v.GetString("listen_addr"),
		DatabaseURL:     v.GetString("database_url"),
		StoreBackend:    strings.ToLower(strings.TrimSpace(v.GetString("store_backend"))),
		SQLitePath:      v.GetString("sqlite_path"),
		AutoMigrate:     v.GetBool("auto_migrate"),
		RulesPath:       v.GetString("rules_path"),
		MaxTextLength:   v.GetInt("max_text_length"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: v.GetDuration("shutdown_timeout"),
		Tracing: telemetry.TracingConfig{
			Enabled:     v.GetBool("otel_enabled"),
			Endpoint:    v.GetString("otel_exporter_otlp_endpoint"),
			Insecure:    v.GetBool("otel_insecure"),
			ServiceName: "policyguard",
			SampleRatio: v.GetFloat64("otel_sample_ratio"),
		},
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = StoreMemory
		if cfg.DatabaseURL != "" {
			cfg.StoreBackend = StorePostgres
		}
	}
	return cfg, cfg.Validate()
}

// Validate reports the first configuration problem found.
func (c Config) Validate() error {
	switch c.StoreBackend {
	case StoreMemory:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres store")
		}
	case StoreSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if _, err := telemetry.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT must be positive")
	}
	return c.Tracing.Validate()
}
