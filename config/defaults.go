// =============================================================================
// 📦 WarmTransfer 默认配置
// =============================================================================
// 提供所有配置项的合理默认值，开箱即可在内存模式下运行
// =============================================================================
package config

import "time"

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Server:     DefaultServerConfig(),
		Log:        DefaultLogConfig(),
		Telemetry:  DefaultTelemetryConfig(),
		LLM:        DefaultLLMConfig(),
		LiveKit:    DefaultLiveKitConfig(),
		Twilio:     TwilioConfig{},
		Store:      DefaultStoreConfig(),
		Redis:      DefaultRedisConfig(),
		Database:   DefaultDatabaseConfig(),
		Transcript: DefaultTranscriptConfig(),
		Notify:     DefaultNotifyConfig(),
	}
}

// DefaultServerConfig 返回默认服务器配置
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    50,
		RateLimitBurst:  100,
	}
}

// DefaultLogConfig 返回默认日志配置
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{"stdout"},
		EnableCaller:     true,
		EnableStacktrace: false,
	}
}

// DefaultTelemetryConfig 返回默认遥测配置
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		Enabled:      false,
		OTLPEndpoint: "localhost:4317",
		ServiceName:  "warmtransfer",
		SampleRate:   0.1,
	}
}

// DefaultLLMConfig 返回默认模型配置
func DefaultLLMConfig() LLMConfig {
	return LLMConfig{
		Provider:            "openai",
		BaseURL:             "https://api.openai.com",
		Model:               "gpt-4o-mini",
		Timeout:             20 * time.Second,
		MaxRetries:          2,
		MaxTokens:           800,
		BreakerThreshold:    5,
		BreakerResetTimeout: 30 * time.Second,
	}
}

// DefaultLiveKitConfig 返回默认媒体服务器配置
func DefaultLiveKitConfig() LiveKitConfig {
	return LiveKitConfig{
		APIKey:          "devkey",
		APISecret:       "secret",
		WSURL:           "ws://localhost:7880",
		TokenTTL:        6 * time.Hour,
		EmptyTimeout:    300,
		MaxParticipants: 10,
	}
}

// DefaultStoreConfig 返回默认会话存储配置
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		Driver:        "memory",
		SweepInterval: 10 * time.Minute,
		Retention:     24 * time.Hour,
		AutoMigrate:   true,
	}
}

// DefaultRedisConfig 返回默认 Redis 配置
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		Prefix:       "warmtransfer:",
	}
}

// DefaultDatabaseConfig 返回默认数据库配置
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "postgres",
		Host:            "localhost",
		Port:            5432,
		User:            "warmtransfer",
		Name:            "warmtransfer",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// DefaultTranscriptConfig 返回默认转写配置
func DefaultTranscriptConfig() TranscriptConfig {
	return TranscriptConfig{
		SentimentEnabled: true,
		SentimentTimeout: 5 * time.Second,
	}
}

// DefaultNotifyConfig 返回默认通知配置
func DefaultNotifyConfig() NotifyConfig {
	return NotifyConfig{
		Backend:      "memory",
		PollInterval: 2 * time.Second,
		MailboxCap:   100,
	}
}
