package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Empty(t, cfg.SQLDriver(), "memory store has no SQL driver")
}

func TestDefaultServerConfig(t *testing.T) {
	cfg := DefaultServerConfig()
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 9091, cfg.MetricsPort)
	assert.Equal(t, 30*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestDefaultStoreConfig(t *testing.T) {
	cfg := DefaultStoreConfig()
	assert.Equal(t, "memory", cfg.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Retention)
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval)
}

func TestDefaultLLMConfig(t *testing.T) {
	cfg := DefaultLLMConfig()
	assert.Empty(t, cfg.APIKey, "no key means every AI call degrades")
	assert.Equal(t, 20*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.BreakerThreshold)
}

func TestDefaultLiveKitConfig(t *testing.T) {
	cfg := DefaultLiveKitConfig()
	assert.Equal(t, 6*time.Hour, cfg.TokenTTL)
	assert.True(t, cfg.Configured())
	cfg.APISecret = ""
	assert.False(t, cfg.Configured())
}

func TestDefaultNotifyConfig(t *testing.T) {
	cfg := DefaultNotifyConfig()
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, 2*time.Second, cfg.PollInterval)
	assert.Equal(t, 100, cfg.MailboxCap)
}

func TestDefaultLogConfig(t *testing.T) {
	cfg := DefaultLogConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "json", cfg.Format)
	assert.Equal(t, []string{"stdout"}, cfg.OutputPaths)
	assert.True(t, cfg.EnableCaller)
	assert.False(t, cfg.EnableStacktrace)
}

func TestDefaultTelemetryConfig(t *testing.T) {
	cfg := DefaultTelemetryConfig()
	assert.False(t, cfg.Enabled)
	assert.Equal(t, "localhost:4317", cfg.OTLPEndpoint)
	assert.Equal(t, "warmtransfer", cfg.ServiceName)
	assert.InDelta(t, 0.1, cfg.SampleRate, 0.001)
}

func TestTwilioConfig_Configured(t *testing.T) {
	assert.False(t, TwilioConfig{}.Configured())
	assert.True(t, TwilioConfig{AccountSID: "AC1", AuthToken: "t"}.Configured())
}
