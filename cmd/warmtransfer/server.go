package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/BaSui01/warmtransfer/agent"
	"github.com/BaSui01/warmtransfer/agent/handoff"
	"github.com/BaSui01/warmtransfer/api/handlers"
	"github.com/BaSui01/warmtransfer/briefing"
	"github.com/BaSui01/warmtransfer/config"
	"github.com/BaSui01/warmtransfer/internal/cache"
	"github.com/BaSui01/warmtransfer/internal/database"
	"github.com/BaSui01/warmtransfer/internal/metrics"
	"github.com/BaSui01/warmtransfer/internal/server"
	"github.com/BaSui01/warmtransfer/internal/telemetry"
	"github.com/BaSui01/warmtransfer/llm"
	"github.com/BaSui01/warmtransfer/llm/circuitbreaker"
	"github.com/BaSui01/warmtransfer/llm/providers/openaicompat"
	"github.com/BaSui01/warmtransfer/llm/retry"
	"github.com/BaSui01/warmtransfer/notify"
	"github.com/BaSui01/warmtransfer/rtc"
	"github.com/BaSui01/warmtransfer/session"
	"github.com/BaSui01/warmtransfer/telephony"
	"github.com/BaSui01/warmtransfer/transcript"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// =============================================================================
// 🖥️ 服务器组装
// =============================================================================

// Server 持有全部协作方以及 API、Metrics 两个 HTTP 服务器
type Server struct {
	cfg    *config.Config
	logger *zap.Logger

	collector *metrics.Collector
	telemetry *telemetry.Providers
	cache     *cache.Manager
	db        *database.PoolManager

	orchestrator *handoff.Orchestrator
	handlers     handlers.Set

	httpManager    *server.Manager
	metricsManager *server.Manager

	ctx    context.Context
	cancel context.CancelFunc
	errs   chan error
}

// NewServer 按配置组装存储、通知、模型与媒体/电话客户端。
// ctx 取消时后台任务（清理、限流器回收）随之退出。
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		collector: metrics.NewCollector("warmtransfer", logger),
		ctx:       ctx,
		cancel:    cancel,
		errs:      make(chan error, 2),
	}

	otelProviders, err := telemetry.Init(cfg.Telemetry, Version, logger)
	if err != nil {
		logger.Warn("failed to initialize telemetry", zap.Error(err))
	}
	s.telemetry = otelProviders

	if err := s.init(); err != nil {
		_ = s.closeResources()
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	store, err := s.openStore()
	if err != nil {
		return err
	}
	broker, err := s.openBroker()
	if err != nil {
		return err
	}

	generator := briefing.New(s.newProvider(), briefing.Config{
		Model:     s.cfg.LLM.Model,
		MaxTokens: s.cfg.LLM.MaxTokens,
		Timeout:   s.cfg.LLM.Timeout,
	}, s.logger, briefing.WithRecorder(s.collector))

	var annotator transcript.Annotator
	if s.cfg.Transcript.SentimentEnabled {
		annotator = generator
	}
	transcripts := transcript.NewAggregator(annotator, transcript.Config{
		Annotate:        s.cfg.Transcript.SentimentEnabled,
		AnnotateTimeout: s.cfg.Transcript.SentimentTimeout,
	}, s.logger)

	rooms := s.newRoomService()
	phone := s.newTelephony()

	s.orchestrator = handoff.NewOrchestrator(handoff.Deps{
		Agents:      agent.NewRegistry(s.logger),
		Sessions:    session.NewManager(store, s.logger),
		Rooms:       rooms,
		Briefer:     generator,
		Notifier:    broker,
		Calls:       session.NewCallBook(),
		Transcripts: transcripts,
	}, s.logger, handoff.WithRecorder(s.collector))
	s.registerGauges()

	health := handlers.NewHealthHandler(s.logger)
	health.SetDetails(s.healthDetails)
	if s.cache != nil {
		health.RegisterCheck(handlers.NewRedisHealthCheck("redis", s.cache.Ping))
	}
	if s.db != nil {
		health.RegisterCheck(handlers.NewDatabaseHealthCheck("database", s.db.Ping))
	}

	s.handlers = handlers.Set{
		Health:        health,
		Agents:        handlers.NewAgentHandler(s.orchestrator, s.logger),
		Calls:         handlers.NewCallHandler(s.orchestrator, s.logger),
		Transfers:     handlers.NewTransferHandler(s.orchestrator, s.logger),
		Transcripts:   handlers.NewTranscriptHandler(transcripts, s.logger),
		LLM:           handlers.NewLLMHandler(generator, transcripts, s.logger),
		Notifications: handlers.NewNotificationHandler(broker, s.cfg.Notify.PollInterval, s.logger, handlers.WithOriginPatterns(s.cfg.Server.CORSOrigins...)),
		RTC:           handlers.NewRTCHandler(rooms, s.cfg.LiveKit.WSURL, s.logger),
		Telephony: handlers.NewTelephonyHandler(phone,
			telephony.URLs{BaseURL: s.cfg.Twilio.PublicBaseURL}, s.cfg.Twilio.StreamURL, s.logger),
		Version:   Version,
		BuildTime: BuildTime,
		GitCommit: GitCommit,
	}
	return nil
}

// =============================================================================
// 🔧 协作方构建
// =============================================================================

func (s *Server) redis() (*cache.Manager, error) {
	if s.cache != nil {
		return s.cache, nil
	}
	rc := s.cfg.Redis
	cacheCfg := cache.DefaultConfig()
	cacheCfg.Addr = rc.Addr
	cacheCfg.Password = rc.Password
	cacheCfg.DB = rc.DB
	if rc.PoolSize > 0 {
		cacheCfg.PoolSize = rc.PoolSize
	}
	if rc.MinIdleConns > 0 {
		cacheCfg.MinIdleConns = rc.MinIdleConns
	}
	m, err := cache.NewManager(cacheCfg, s.logger)
	if err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	s.cache = m
	return m, nil
}

func (s *Server) openStore() (session.Store, error) {
	switch s.cfg.Store.Driver {
	case "memory":
		return session.NewMemoryStore(), nil
	case "redis":
		m, err := s.redis()
		if err != nil {
			return nil, err
		}
		return session.NewRedisStore(m.Client(), s.cfg.Redis.Prefix), nil
	}

	dbCfg := s.cfg.Database
	dbCfg.Driver = s.cfg.SQLDriver()
	if dbCfg.Driver == "" {
		return nil, fmt.Errorf("unknown store driver %q", s.cfg.Store.Driver)
	}
	pool := database.DefaultPoolConfig()
	if dbCfg.MaxOpenConns > 0 {
		pool.MaxOpenConns = dbCfg.MaxOpenConns
	}
	if dbCfg.MaxIdleConns > 0 {
		pool.MaxIdleConns = dbCfg.MaxIdleConns
	}
	if dbCfg.ConnMaxLifetime > 0 {
		pool.ConnMaxLifetime = dbCfg.ConnMaxLifetime
	}
	db, err := database.Open(dbCfg.Driver, dbCfg.DSN(), pool, s.logger,
		database.WithName(dbCfg.Driver),
		database.WithStatsRecorder(s.collector),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dbCfg.Driver, err)
	}
	s.db = db

	store, err := session.NewSQLStore(db.DB(), s.cfg.Store.AutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("init session store: %w", err)
	}
	return store, nil
}

func (s *Server) openBroker() (notify.Broker, error) {
	if s.cfg.Notify.Backend != "redis" {
		return notify.NewMemoryBroker(s.cfg.Notify.MailboxCap, s.logger), nil
	}
	m, err := s.redis()
	if err != nil {
		return nil, err
	}
	return notify.NewRedisBroker(m.Client(), s.cfg.Redis.Prefix, s.cfg.Notify.MailboxCap, s.logger), nil
}

// newProvider 未配置 API Key 时返回 nil，简报生成全部走降级结果
func (s *Server) newProvider() llm.Provider {
	lc := s.cfg.LLM
	if lc.APIKey == "" {
		s.logger.Warn("llm api key not configured, AI output will use fallbacks")
		return nil
	}

	base := openaicompat.New(openaicompat.Config{
		ProviderName: lc.Provider,
		APIKey:       lc.APIKey,
		BaseURL:      lc.BaseURL,
		DefaultModel: lc.Model,
		Timeout:      lc.Timeout,
		JSONMode:     true,
	}, s.logger)

	policy := retry.DefaultRetryPolicy()
	policy.MaxRetries = lc.MaxRetries

	breaker := circuitbreaker.DefaultConfig()
	if lc.BreakerThreshold > 0 {
		breaker.Threshold = lc.BreakerThreshold
	}
	if lc.BreakerResetTimeout > 0 {
		breaker.ResetTimeout = lc.BreakerResetTimeout
	}
	breaker.Timeout = lc.Timeout
	breaker.OnStateChange = func(from, to circuitbreaker.State) {
		s.collector.RecordCircuitState(base.Name(), to.String())
	}
	s.collector.RecordCircuitState(base.Name(), circuitbreaker.StateClosed.String())

	return llm.NewResilientProvider(base, llm.ResilientConfig{
		RetryPolicy:    policy,
		BreakerConfig:  breaker,
		DisableRetry:   lc.MaxRetries <= 0,
		DisableBreaker: lc.BreakerThreshold <= 0,
	}, s.logger)
}

func (s *Server) newRoomService() rtc.RoomService {
	lk := s.cfg.LiveKit
	if !lk.Configured() {
		s.logger.Warn("livekit not configured, rooms are tracked in memory only")
		return rtc.NewNoopRoomService(rtc.NewTokenIssuer(lk.APIKey, lk.APISecret, lk.TokenTTL))
	}
	url := lk.HTTPURL
	if url == "" {
		url = lk.WSURL
	}
	return rtc.NewLiveKitClient(rtc.LiveKitConfig{
		APIKey:          lk.APIKey,
		APISecret:       lk.APISecret,
		URL:             url,
		TokenTTL:        lk.TokenTTL,
		EmptyTimeout:    uint32(max(lk.EmptyTimeout, 0)),
		MaxParticipants: uint32(max(lk.MaxParticipants, 0)),
	}, s.logger)
}

func (s *Server) newTelephony() telephony.Client {
	tw := s.cfg.Twilio
	if !tw.Configured() {
		return telephony.Disabled{}
	}
	return telephony.NewTwilioClient(telephony.TwilioConfig{
		AccountSID:  tw.AccountSID,
		AuthToken:   tw.AuthToken,
		PhoneNumber: tw.PhoneNumber,
	}, s.logger)
}

// registerGauges 向 OTel 暴露活跃通话与活跃转接数
func (s *Server) registerGauges() {
	meter := s.telemetry.Meter()
	gauges := []struct {
		name, desc string
		observe    telemetry.Observer
	}{
		{"warmtransfer.calls.active", "Customer calls that have not ended", func(context.Context) (int64, error) {
			return int64(s.orchestrator.Calls().ActiveCount()), nil
		}},
		{"warmtransfer.transfers.active", "Transfers not yet completed or cancelled", func(ctx context.Context) (int64, error) {
			active, err := s.orchestrator.ListActive(ctx)
			return int64(len(active)), err
		}},
	}
	for _, g := range gauges {
		if _, err := telemetry.RegisterGauge(meter, g.name, g.desc, g.observe); err != nil {
			s.logger.Warn("failed to register gauge", zap.String("gauge", g.name), zap.Error(err))
		}
	}
}

func (s *Server) healthDetails() map[string]any {
	details := map[string]any{
		"livekitConfigured": s.cfg.LiveKit.Configured(),
		"twilioConfigured":  s.cfg.Twilio.Configured(),
		"llmConfigured":     s.cfg.LLM.APIKey != "",
		"store":             s.cfg.Store.Driver,
		"activeCalls":       s.orchestrator.Calls().ActiveCount(),
	}
	ctx, cancel := context.WithTimeout(s.ctx, 2*time.Second)
	defer cancel()
	if active, err := s.orchestrator.ListActive(ctx); err == nil {
		details["activeTransfers"] = len(active)
	}
	return details
}

// =============================================================================
// 🚀 启动与关闭
// =============================================================================

// Start 启动 API 与 Metrics 服务器以及会话清理任务，不阻塞
func (s *Server) Start() error {
	mux := http.NewServeMux()
	s.handlers.Register(mux)

	handler := Chain(mux,
		Recovery(s.logger),
		RequestID(),
		SecurityHeaders(),
		OTelTracing(),
		MetricsMiddleware(s.collector),
		RequestLogger(s.logger),
		CORS(s.cfg.Server.CORSOrigins),
		RateLimiter(s.ctx, s.cfg.Server.RateLimitRPS, s.cfg.Server.RateLimitBurst, s.logger),
	)

	s.httpManager = server.NewManager(handler, server.Config{
		Name:            "api",
		Addr:            fmt.Sprintf(":%d", s.cfg.Server.HTTPPort),
		ReadTimeout:     s.cfg.Server.ReadTimeout,
		WriteTimeout:    s.cfg.Server.WriteTimeout,
		IdleTimeout:     2 * time.Minute,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		TLSCertFile:     s.cfg.Server.TLSCertFile,
		TLSKeyFile:      s.cfg.Server.TLSKeyFile,
	}, s.logger)
	if err := s.httpManager.Start(); err != nil {
		return fmt.Errorf("start api server: %w", err)
	}
	go s.forward(s.httpManager)

	if s.cfg.Server.MetricsPort > 0 {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("GET /metrics", promhttp.Handler())
		s.metricsManager = server.NewManager(metricsMux, server.Config{
			Name:            "metrics",
			Addr:            fmt.Sprintf(":%d", s.cfg.Server.MetricsPort),
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: s.cfg.Server.ShutdownTimeout,
		}, s.logger)
		if err := s.metricsManager.Start(); err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		go s.forward(s.metricsManager)
	}

	go s.orchestrator.RunSweeper(s.ctx, s.cfg.Store.SweepInterval, s.cfg.Store.Retention)

	s.logger.Info("server started",
		zap.Int("http_port", s.cfg.Server.HTTPPort),
		zap.Int("metrics_port", s.cfg.Server.MetricsPort),
		zap.Bool("tls", s.cfg.Server.TLSEnabled()),
	)
	return nil
}

func (s *Server) forward(m *server.Manager) {
	select {
	case err, ok := <-m.Errors():
		if ok && err != nil {
			select {
			case s.errs <- err:
			default:
			}
		}
	case <-s.ctx.Done():
	}
}

// Errors 报告任一服务器的意外退出
func (s *Server) Errors() <-chan error {
	return s.errs
}

// Shutdown 优雅关闭：停止后台任务 → 关闭 HTTP → 关闭 Metrics → 释放连接
func (s *Server) Shutdown(ctx context.Context) {
	s.cancel()

	var errs []error
	if s.httpManager != nil {
		if err := s.httpManager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("api server: %w", err))
		}
	}
	if s.metricsManager != nil {
		if err := s.metricsManager.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server: %w", err))
		}
	}
	if err := s.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}
	if err := s.closeResources(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("shutdown completed with errors", zap.Error(err))
		return
	}
	s.logger.Info("shutdown complete")
}

func (s *Server) closeResources() error {
	var errs []error
	if s.cache != nil {
		if err := s.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	return errors.Join(errs...)
}
