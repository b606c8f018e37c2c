package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
)

type Config struct {
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	StoreDriver  string // sqlite or redis (default: sqlite)
	DatabaseFile string // SQLite database file (default: ./download.db)
	RedisURL     string // redis:// URL or host:port (default: localhost:6379)

	PublicBaseURL    string        // Prefix for issued download URLs (default: "", relative URLs)
	DownloadTokenTTL time.Duration // Download link lifetime (default: 1h)
	SweepEnabled     bool          // Run the expiry sweeper (default: true)
	SweepInterval    time.Duration // Sweeper period (default: 5m)
	UpstreamTimeout  time.Duration // Origin response header timeout (default: 30s)
	RewriteRulesFile string        // Optional: YAML rewrite rules appended after the Google Drive rule

	JWTSecret    string   // Optional: enables bearer authentication (HS256)
	Issuer       string   // Optional: expected "iss" of bearer tokens
	AdminUserIDs []string // Optional: profiles flagged admin at startup

	KafkaBrokers []string // Optional: enables the Kafka event publisher
	KafkaTopic   string   // Download event topic (default: luofilm.downloads)
}

// fileConfig is the CONFIG_FILE layout. Environment variables win over it.
type fileConfig struct {
	Server struct {
		Port                int    `yaml:"port"`
		Env                 string `yaml:"env"`
		PublicBaseURL       string `yaml:"public_base_url"`
		ShutdownGracePeriod string `yaml:"shutdown_grace_period"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Store struct {
		Driver       string `yaml:"driver"`
		DatabaseFile string `yaml:"database_file"`
		RedisURL     string `yaml:"redis_url"`
	} `yaml:"store"`
	Downloads struct {
		TokenTTL         string `yaml:"token_ttl"`
		SweepEnabled     *bool  `yaml:"sweep_enabled"`
		SweepInterval    string `yaml:"sweep_interval"`
		UpstreamTimeout  string `yaml:"upstream_timeout"`
		RewriteRulesFile string `yaml:"rewrite_rules_file"`
	} `yaml:"downloads"`
	Auth struct {
		Issuer       string   `yaml:"issuer"`
		AdminUserIDs []string `yaml:"admin_user_ids"`
	} `yaml:"auth"`
	Kafka struct {
		Brokers []string `yaml:"brokers"`
		Topic   string   `yaml:"topic"`
	} `yaml:"kafka"`
}

func defaultConfig() Config {
	return Config{
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,
		StoreDriver:         StoreDriverSQLite,
		DatabaseFile:        "download.db",
		RedisURL:            "localhost:6379",
		DownloadTokenTTL:    time.Hour,
		SweepEnabled:        true,
		SweepInterval:       5 * time.Minute,
		UpstreamTimeout:     30 * time.Second,
		KafkaTopic:          "luofilm.downloads",
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by CONFIG_FILE (if any), then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := cfg.applyFile(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.Env = getEnvOrDefault("ENV", cfg.Env)
	cfg.LogLevel = getEnvOrDefault("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnvOrDefault("LOG_FORMAT", cfg.LogFormat)
	cfg.Port = getEnvIntOrDefault("PORT", cfg.Port)
	cfg.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", cfg.ShutdownGracePeriod)

	cfg.StoreDriver = strings.ToLower(getEnvOrDefault("STORE_DRIVER", cfg.StoreDriver))
	cfg.DatabaseFile = getEnvOrDefault("DATABASE_FILE", cfg.DatabaseFile)
	cfg.RedisURL = getEnvOrDefault("REDIS_URL", cfg.RedisURL)

	cfg.PublicBaseURL = strings.TrimSuffix(getEnvOrDefault("PUBLIC_BASE_URL", cfg.PublicBaseURL), "/")
	cfg.DownloadTokenTTL = getEnvDurationOrDefault("DOWNLOAD_TOKEN_TTL", cfg.DownloadTokenTTL)
	cfg.SweepEnabled = getEnvBoolOrDefault("SWEEP_ENABLED", cfg.SweepEnabled)
	cfg.SweepInterval = getEnvDurationOrDefault("SWEEP_INTERVAL", cfg.SweepInterval)
	cfg.UpstreamTimeout = getEnvDurationOrDefault("UPSTREAM_TIMEOUT", cfg.UpstreamTimeout)
	cfg.RewriteRulesFile = getEnvOrDefault("REWRITE_RULES_FILE", cfg.RewriteRulesFile)

	// The secret is never read from the config file.
	cfg.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	cfg.Issuer = getEnvOrDefault("AUTH_ISSUER", cfg.Issuer)
	if ids := os.Getenv("ADMIN_USER_IDS"); ids != "" {
		cfg.AdminUserIDs = splitList(ids)
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.KafkaTopic = getEnvOrDefault("KAFKA_TOPIC", cfg.KafkaTopic)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyFile(raw []byte) error {
	var f fileConfig
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}

	setString(&c.Env, f.Server.Env)
	setString(&c.PublicBaseURL, f.Server.PublicBaseURL)
	if f.Server.Port > 0 {
		c.Port = f.Server.Port
	}
	setString(&c.LogLevel, f.Log.Level)
	setString(&c.LogFormat, f.Log.Format)
	setString(&c.StoreDriver, f.Store.Driver)
	setString(&c.DatabaseFile, f.Store.DatabaseFile)
	setString(&c.RedisURL, f.Store.RedisURL)
	setString(&c.RewriteRulesFile, f.Downloads.RewriteRulesFile)
	if f.Downloads.SweepEnabled != nil {
		c.SweepEnabled = *f.Downloads.SweepEnabled
	}
	setString(&c.Issuer, f.Auth.Issuer)
	if len(f.Auth.AdminUserIDs) > 0 {
		c.AdminUserIDs = trimNonEmpty(f.Auth.AdminUserIDs)
	}
	if len(f.Kafka.Brokers) > 0 {
		c.KafkaBrokers = trimNonEmpty(f.Kafka.Brokers)
	}
	setString(&c.KafkaTopic, f.Kafka.Topic)

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"server.shutdown_grace_period", f.Server.ShutdownGracePeriod, &c.ShutdownGracePeriod},
		{"downloads.token_ttl", f.Downloads.TokenTTL, &c.DownloadTokenTTL},
		{"downloads.sweep_interval", f.Downloads.SweepInterval, &c.SweepInterval},
		{"downloads.upstream_timeout", f.Downloads.UpstreamTimeout, &c.UpstreamTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("parse config file: %s: %w", d.key, err)
		}
		*d.dst = v
	}
	return nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreDriverSQLite, StoreDriverRedis:
	default:
		return fmt.Errorf("unknown store driver %q (want sqlite or redis)", c.StoreDriver)
	}
	if c.DownloadTokenTTL <= 0 {
		return fmt.Errorf("download token ttl must be positive, got %s", c.DownloadTokenTTL)
	}
	if c.SweepEnabled && c.SweepInterval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %s", c.SweepInterval)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return fmt.Errorf("kafka topic is required when brokers are set")
	}
	return nil
}

// AuthEnabled reports whether bearer authentication is configured.
func (c *Config) AuthEnabled() bool { return c.JWTSecret != "" }

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	return trimNonEmpty(strings.Split(s, ","))
}

func trimNonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
