// 配置加载器测试。
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_LoadDefaults(t *testing.T) {
	cfg, err := NewLoader().Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.HTTPPort)
	assert.Equal(t, "memory", cfg.Store.Driver)
}

func TestLoader_LoadFromYAML(t *testing.T) {
	path := writeConfig(t, `
server:
  http_port: 8888
  cors_origins: ["https://console.example.com"]
store:
  driver: redis
  retention: 48h
livekit:
  api_key: key
  api_secret: secret-secret-secret-secret-1234
  ws_url: wss://media.example.com
notify:
  backend: redis
  mailbox_cap: 20
`)
	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8888, cfg.Server.HTTPPort)
	assert.Equal(t, []string{"https://console.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "redis", cfg.Store.Driver)
	assert.Equal(t, 48*time.Hour, cfg.Store.Retention)
	assert.Equal(t, 10*time.Minute, cfg.Store.SweepInterval, "unset fields keep defaults")
	assert.Equal(t, "wss://media.example.com", cfg.LiveKit.WSURL)
	assert.Equal(t, 20, cfg.Notify.MailboxCap)
}

func TestLoader_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := NewLoader().WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "server: [unclosed")
	_, err := NewLoader().WithConfigPath(path).Load()
	assert.Error(t, err)
}

func TestLoader_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "server:\n  http_port: 8888\n")
	t.Setenv("WARMTRANSFER_SERVER_HTTP_PORT", "7000")
	t.Setenv("WARMTRANSFER_STORE_RETENTION", "36h")
	t.Setenv("WARMTRANSFER_TRANSCRIPT_SENTIMENT_ENABLED", "false")
	t.Setenv("WARMTRANSFER_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WARMTRANSFER_SERVER_RATE_LIMIT_RPS", "12.5")
	t.Setenv("WARMTRANSFER_LLM_API_KEY", "sk-test")

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Server.HTTPPort)
	assert.Equal(t, 36*time.Hour, cfg.Store.Retention)
	assert.False(t, cfg.Transcript.SentimentEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.InDelta(t, 12.5, cfg.Server.RateLimitRPS, 0.001)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestLoader_CustomPrefix(t *testing.T) {
	t.Setenv("WT_SERVER_HTTP_PORT", "9999")
	cfg, err := NewLoader().WithEnvPrefix("WT").Load()
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.HTTPPort)
}

func TestLoader_BadEnvValue(t *testing.T) {
	t.Setenv("WARMTRANSFER_SERVER_HTTP_PORT", "not-a-number")
	_, err := NewLoader().Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "WARMTRANSFER_SERVER_HTTP_PORT")
}

func TestLoader_Validators(t *testing.T) {
	_, err := NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.NoError(t, err)

	t.Setenv("WARMTRANSFER_STORE_DRIVER", "cassandra")
	_, err = NewLoader().
		WithValidator(func(c *Config) error { return c.Validate() }).
		Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store driver")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad http port", func(c *Config) { c.Server.HTTPPort = 0 }, "invalid HTTP port"},
		{"port clash", func(c *Config) { c.Server.MetricsPort = c.Server.HTTPPort }, "must differ"},
		{"bad driver", func(c *Config) { c.Store.Driver = "mongo" }, "unknown store driver"},
		{"zero retention", func(c *Config) { c.Store.Retention = 0 }, "retention"},
		{"zero sweep interval", func(c *Config) { c.Store.SweepInterval = 0 }, "sweep interval"},
		{"bad notify backend", func(c *Config) { c.Notify.Backend = "kafka" }, "unknown notify backend"},
		{"sample rate", func(c *Config) { c.Telemetry.SampleRate = 2 }, "sample rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestConfig_SQLDriver(t *testing.T) {
	cfg := DefaultConfig()
	for _, d := range []string{"postgres", "mysql", "sqlite"} {
		cfg.Store.Driver = d
		assert.Equal(t, d, cfg.SQLDriver())
	}
	cfg.Store.Driver = "redis"
	assert.Empty(t, cfg.SQLDriver())
}

func TestDatabaseConfig_DSN(t *testing.T) {
	db := DatabaseConfig{Driver: "postgres", Host: "db", Port: 5432, User: "u", Password: "p", Name: "wt", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=wt sslmode=disable", db.DSN())
	assert.Equal(t, "postgres://u:p@db:5432/wt?sslmode=disable", db.MigrationURL())

	db.Driver, db.Port = "mysql", 3306
	assert.Equal(t, "u:p@tcp(db:3306)/wt?parseTime=true", db.DSN())
	assert.Equal(t, "mysql://u:p@tcp(db:3306)/wt?multiStatements=true", db.MigrationURL())

	db.Driver, db.Name = "sqlite", "/tmp/wt.db"
	assert.Equal(t, "/tmp/wt.db", db.DSN())
	assert.Empty(t, db.MigrationURL())

	db.Driver = "oracle"
	assert.Empty(t, db.DSN())
}
