// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/BaSui01/warmtransfer/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpRequestSize     *prometheus.HistogramVec
	httpResponseSize    *prometheus.HistogramVec

	// LLM 指标
	llmRequestsTotal   *prometheus.CounterVec
	llmRequestDuration *prometheus.HistogramVec
	llmCircuitState    *prometheus.GaugeVec

	// 转接指标
	transferTransitions *prometheus.CounterVec
	transferOperations  *prometheus.CounterVec
	transferDuration    *prometheus.HistogramVec
	sessionsSwept       prometheus.Counter

	// 坐席与通知指标
	agentStatusChanges *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec

	// 数据库指标
	dbConnectionsOpen *prometheus.GaugeVec
	dbConnectionsIdle *prometheus.GaugeVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器
func NewCollector(namespace string, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	// HTTP 指标
	c.httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	c.httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	c.httpRequestSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_size_bytes",
			Help:      "HTTP request size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "path"},
	)

	c.httpResponseSize = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_response_size_bytes",
			Help:      "HTTP response size in bytes",
			Buckets:   prometheus.ExponentialBuckets(100, 10, 6),
		},
		[]string{"method", "path"},
	)

	// LLM 指标
	c.llmRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "llm_requests_total",
			Help:      "Total number of briefing model requests",
		},
		[]string{"operation", "status"}, // status: success, fallback
	)

	c.llmRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "llm_request_duration_seconds",
			Help:      "Briefing model request duration in seconds",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20},
		},
		[]string{"operation"},
	)

	c.llmCircuitState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "llm_circuit_state",
			Help:      "Circuit breaker state per provider (0 closed, 1 half-open, 2 open)",
		},
		[]string{"provider"},
	)

	// 转接指标
	c.transferTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_transitions_total",
			Help:      "Total number of transfer session state transitions",
		},
		[]string{"from", "to"},
	)

	c.transferOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_operations_total",
			Help:      "Total number of transfer operations by outcome",
		},
		[]string{"operation", "outcome"},
	)

	c.transferDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transfer_operation_duration_seconds",
			Help:      "Transfer operation duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"operation"},
	)

	c.sessionsSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_sessions_swept_total",
			Help:      "Total number of completed transfer sessions removed by the sweeper",
		},
	)

	// 坐席与通知指标
	c.agentStatusChanges = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "agent_status_changes_total",
			Help:      "Total number of agent status changes",
		},
		[]string{"agent_id", "status"},
	)

	c.notificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Total number of agent notifications published",
		},
		[]string{"type", "result"},
	)

	// 数据库指标
	c.dbConnectionsOpen = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_open",
			Help:      "Number of open database connections",
		},
		[]string{"database"},
	)

	c.dbConnectionsIdle = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_connections_idle",
			Help:      "Number of idle database connections",
		},
		[]string{"database"},
	)

	c.logger.Info("metrics collector initialized", zap.String("namespace", namespace))

	return c
}

// =============================================================================
// 🎯 HTTP 指标记录
// =============================================================================

// RecordHTTPRequest 记录 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration, requestSize, responseSize int64) {
	c.httpRequestsTotal.WithLabelValues(method, path, statusCode(status)).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	c.httpRequestSize.WithLabelValues(method, path).Observe(float64(requestSize))
	c.httpResponseSize.WithLabelValues(method, path).Observe(float64(responseSize))
}

// =============================================================================
// 🤖 LLM 指标记录
// =============================================================================

// RecordLLMRequest 记录简报模型请求，实现 briefing.Recorder
func (c *Collector) RecordLLMRequest(operation, status string, duration time.Duration) {
	c.llmRequestsTotal.WithLabelValues(operation, status).Inc()
	c.llmRequestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordCircuitState 记录熔断器状态
func (c *Collector) RecordCircuitState(provider, state string) {
	v := 0.0
	switch state {
	case "half-open":
		v = 1
	case "open":
		v = 2
	}
	c.llmCircuitState.WithLabelValues(provider).Set(v)
}

// =============================================================================
// 🔀 转接指标记录（实现 handoff.Recorder）
// =============================================================================

// RecordTransferTransition 记录会话状态迁移，from 为空表示新建
func (c *Collector) RecordTransferTransition(from, to types.TransferStatus) {
	f := string(from)
	if f == "" {
		f = "none"
	}
	c.transferTransitions.WithLabelValues(f, string(to)).Inc()
}

// RecordTransferOperation 记录编排操作结果与耗时
func (c *Collector) RecordTransferOperation(op, outcome string, duration time.Duration) {
	c.transferOperations.WithLabelValues(op, outcome).Inc()
	c.transferDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordAgentStatus 记录坐席状态变化
func (c *Collector) RecordAgentStatus(agentID string, status types.AgentStatus) {
	c.agentStatusChanges.WithLabelValues(agentID, string(status)).Inc()
}

// RecordNotification 记录通知发布结果
func (c *Collector) RecordNotification(eventType string, delivered bool) {
	result := "ok"
	if !delivered {
		result = "error"
	}
	c.notificationsTotal.WithLabelValues(eventType, result).Inc()
}

// RecordSweep 记录清理掉的会话数
func (c *Collector) RecordSweep(removed int) {
	if removed > 0 {
		c.sessionsSwept.Add(float64(removed))
	}
}

// =============================================================================
// 🗄️ 数据库指标记录
// =============================================================================

// RecordDBConnections 记录数据库连接数
func (c *Collector) RecordDBConnections(database string, open, idle int) {
	c.dbConnectionsOpen.WithLabelValues(database).Set(float64(open))
	c.dbConnectionsIdle.WithLabelValues(database).Set(float64(idle))
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// statusCode 将 HTTP 状态码转换为字符串
func statusCode(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
