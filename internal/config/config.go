package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	DatabaseURL     string        `yaml:"databaseURL" validate:"required"`
	NATSURL         string        `yaml:"natsURL" validate:"required,url"`
	SnapshotSubject string        `yaml:"snapshotSubject" validate:"required"`
	SnapshotTimeout time.Duration `yaml:"snapshotTimeout" validate:"gt=0"`
	SnapshotTTL     time.Duration `yaml:"snapshotTTL" validate:"gt=0"`
	PollInterval    time.Duration `yaml:"pollInterval" validate:"gt=0"`
	ProgressSubject string        `yaml:"progressSubject" validate:"required"`
	LogNATSSubjects bool          `yaml:"logNATSSubjects"`
	LogTrackChanges bool          `yaml:"logTrackChanges"`
	LogCacheHits    bool          `yaml:"logCacheHits"`
	HTTPAddr        string        `yaml:"httpAddr" validate:"omitempty,hostname_port"`
	MetricsAddr     string        `yaml:"metricsAddr" validate:"omitempty,hostname_port"`
}

func defaults() *Config {
	return &Config{
		NATSURL:         "nats://127.0.0.1:4222",
		SnapshotSubject: "nav.snapshot",
		SnapshotTimeout: 500 * time.Millisecond,
		SnapshotTTL:     950 * time.Millisecond,
		PollInterval:    time.Second,
		ProgressSubject: "nav.progress",
		HTTPAddr:        ":8088",
	}
}

// Load builds the configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and environment variables (including .env), in that order.
func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("PGDATABASE or DATABASE_URL must be set")
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	// Database URL: prefer DATABASE_URL / PG_DSN, else build from PG* vars
	if dsn := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN")); dsn != "" {
		cfg.DatabaseURL = dsn
	} else if db := os.Getenv("PGDATABASE"); db != "" {
		host := getenvDefault("PGHOST", "127.0.0.1")
		port := getenvDefault("PGPORT", "5432")
		user := getenvDefault("PGUSER", "postgres")
		pass := os.Getenv("PGPASSWORD")
		sslmode := getenvDefault("PGSSLMODE", "disable")
		if pass != "" {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode)
		} else {
			cfg.DatabaseURL = fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode)
		}
	}

	cfg.NATSURL = getenvDefault("NATS_URL", cfg.NATSURL)
	cfg.SnapshotSubject = getenvDefault("SNAPSHOT_SUBJECT", cfg.SnapshotSubject)
	cfg.ProgressSubject = getenvDefault("PROGRESS_SUBJECT", cfg.ProgressSubject)

	for key, dst := range map[string]*time.Duration{
		"SNAPSHOT_TIMEOUT_MS": &cfg.SnapshotTimeout,
		"SNAPSHOT_TTL_MS":     &cfg.SnapshotTTL,
		"POLL_INTERVAL_MS":    &cfg.PollInterval,
	} {
		if err := envMillis(key, dst); err != nil {
			return err
		}
	}

	if v := os.Getenv("LOG_NATS_SUBJECTS"); v != "" {
		cfg.LogNATSSubjects = parseBool(v)
	}
	if v := os.Getenv("LOG_TRACK_CHANGES"); v != "" {
		cfg.LogTrackChanges = parseBool(v)
	}
	if v := os.Getenv("LOG_CACHE_HITS"); v != "" {
		cfg.LogCacheHits = parseBool(v)
	}

	// Listen addresses; "off" disables a server.
	if v, ok := os.LookupEnv("HTTP_ADDR"); ok {
		cfg.HTTPAddr = disabled(v)
	}
	if v, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.MetricsAddr = disabled(v)
	}
	return nil
}

func envMillis(key string, dst *time.Duration) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms <= 0 {
		return fmt.Errorf("invalid %s: %q", key, v)
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func disabled(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "off") {
		return ""
	}
	return v
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
