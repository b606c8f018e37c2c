package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CONFIG_FILE", "ENV", "LOG_LEVEL", "LOG_FORMAT", "PORT", "SHUTDOWN_GRACE_PERIOD",
	"STORE_DRIVER", "DATABASE_FILE", "REDIS_URL", "PUBLIC_BASE_URL", "DOWNLOAD_TOKEN_TTL",
	"SWEEP_ENABLED", "SWEEP_INTERVAL", "UPSTREAM_TIMEOUT", "REWRITE_RULES_FILE",
	"AUTH_JWT_SECRET", "AUTH_ISSUER", "ADMIN_USER_IDS", "KAFKA_BROKERS", "KAFKA_TOPIC",
}

// clearConfigEnv blanks every variable LoadConfig reads.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnv {
		t.Setenv(key, "")
	}
}

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, StoreDriverSQLite, cfg.StoreDriver)
	require.Equal(t, "download.db", cfg.DatabaseFile)
	require.Equal(t, time.Hour, cfg.DownloadTokenTTL)
	require.True(t, cfg.SweepEnabled)
	require.Equal(t, 5*time.Minute, cfg.SweepInterval)
	require.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
	require.Equal(t, "luofilm.downloads", cfg.KafkaTopic)
	require.Empty(t, cfg.KafkaBrokers)
	require.False(t, cfg.AuthEnabled())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "REDIS")
	t.Setenv("REDIS_URL", "redis://cache:6379/1")
	t.Setenv("PUBLIC_BASE_URL", "https://api.luofilm.example/")
	t.Setenv("DOWNLOAD_TOKEN_TTL", "30m")
	t.Setenv("SWEEP_ENABLED", "false")
	t.Setenv("SWEEP_INTERVAL", "2")
	t.Setenv("ADMIN_USER_IDS", " admin1, ,admin2 ")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("AUTH_JWT_SECRET", "0123456789abcdef0123456789abcdef")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, StoreDriverRedis, cfg.StoreDriver)
	require.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	require.Equal(t, "https://api.luofilm.example", cfg.PublicBaseURL)
	require.Equal(t, 30*time.Minute, cfg.DownloadTokenTTL)
	require.False(t, cfg.SweepEnabled)
	require.Equal(t, 2*time.Minute, cfg.SweepInterval, "bare integers are minutes")
	require.Equal(t, []string{"admin1", "admin2"}, cfg.AdminUserIDs)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.AuthEnabled())
}

func TestLoadConfigMalformedEnvKeepsDefault(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("PORT", "eighty")
	t.Setenv("SWEEP_ENABLED", "maybe")
	t.Setenv("UPSTREAM_TIMEOUT", "soon")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 8080, cfg.Port)
	require.True(t, cfg.SweepEnabled)
	require.Equal(t, 30*time.Second, cfg.UpstreamTimeout)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", writeConfigFile(t, `
server:
  port: 7000
  public_base_url: https://dl.luofilm.example
log:
  format: text
store:
  driver: redis
  redis_url: redis://file-cache:6379
downloads:
  token_ttl: 45m
  sweep_enabled: false
  sweep_interval: 1m
auth:
  admin_user_ids: [ops]
kafka:
  brokers: [kafka:9092]
  topic: film.downloads
`))
	// Environment beats the file.
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, 7100, cfg.Port)
	require.Equal(t, "https://dl.luofilm.example", cfg.PublicBaseURL)
	require.Equal(t, "text", cfg.LogFormat)
	require.Equal(t, StoreDriverRedis, cfg.StoreDriver)
	require.Equal(t, "redis://file-cache:6379", cfg.RedisURL)
	require.Equal(t, 45*time.Minute, cfg.DownloadTokenTTL)
	require.False(t, cfg.SweepEnabled)
	require.Equal(t, time.Minute, cfg.SweepInterval)
	require.Equal(t, []string{"ops"}, cfg.AdminUserIDs)
	require.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
	require.Equal(t, "film.downloads", cfg.KafkaTopic)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		file string
	}{
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "postgres"}},
		{name: "non-positive ttl", env: map[string]string{"DOWNLOAD_TOKEN_TTL": "-1m"}},
		{name: "bad yaml", file: "server: [port"},
		{name: "bad file duration", file: "downloads:\n  token_ttl: forever\n"},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv(t)
			if tt.file != "" {
				t.Setenv("CONFIG_FILE", writeConfigFile(t, tt.file))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
