package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/BaSui01/warmtransfer/llm/circuitbreaker"
	"github.com/BaSui01/warmtransfer/llm/retry"
	"go.uber.org/zap"
)

// ResilientProvider 为 Provider 增加重试与熔断能力（装饰器模式）。
// 重试在熔断器内层：一次熔断调用包含完整的重试序列，
// 熔断打开时直接返回 ErrModelOverloaded，不再访问上游。
type ResilientProvider struct {
	provider Provider
	retryer  retry.Retryer
	breaker  *circuitbreaker.CircuitBreaker
	logger   *zap.Logger
}

// ResilientConfig 弹性 Provider 配置
type ResilientConfig struct {
	RetryPolicy    *retry.RetryPolicy
	BreakerConfig  *circuitbreaker.Config
	DisableRetry   bool
	DisableBreaker bool
}

// NewResilientProvider 包装底层 Provider
func NewResilientProvider(provider Provider, cfg ResilientConfig, logger *zap.Logger) *ResilientProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	rp := &ResilientProvider{
		provider: provider,
		logger:   logger.With(zap.String("component", "resilient_provider"), zap.String("provider", provider.Name())),
	}

	if !cfg.DisableRetry {
		policy := cfg.RetryPolicy
		if policy == nil {
			policy = retry.DefaultRetryPolicy()
		}
		if policy.ShouldRetry == nil {
			policy.ShouldRetry = IsRetryable
		}
		rp.retryer = retry.NewBackoffRetryer(policy, logger)
	}
	if !cfg.DisableBreaker {
		bc := cfg.BreakerConfig
		if bc == nil {
			bc = circuitbreaker.DefaultConfig()
		}
		if bc.IsFailure == nil {
			bc.IsFailure = countsAsFailure
		}
		rp.breaker = circuitbreaker.New(bc, logger)
	}
	return rp
}

// Name 实现 Provider.Name
func (rp *ResilientProvider) Name() string { return rp.provider.Name() }

// HealthCheck 直接透传，不经过重试与熔断
func (rp *ResilientProvider) HealthCheck(ctx context.Context) (*HealthStatus, error) {
	return rp.provider.HealthCheck(ctx)
}

// BreakerState 返回熔断器状态；未启用时恒为 closed
func (rp *ResilientProvider) BreakerState() circuitbreaker.State {
	if rp.breaker == nil {
		return circuitbreaker.StateClosed
	}
	return rp.breaker.State()
}

// Completion 实现 Provider.Completion
func (rp *ResilientProvider) Completion(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	attempt := func(ctx context.Context) (*ChatResponse, error) {
		if rp.retryer == nil {
			return rp.provider.Completion(ctx, req)
		}
		return retry.DoWithResult(ctx, rp.retryer, func() (*ChatResponse, error) {
			return rp.provider.Completion(ctx, req)
		})
	}

	if rp.breaker == nil {
		return attempt(ctx)
	}

	resp, err := circuitbreaker.Do(ctx, rp.breaker, attempt)
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyCallsInHalfOpen) {
		rp.logger.Debug("completion short-circuited", zap.Error(err))
		return nil, &Error{
			Code:       ErrModelOverloaded,
			Message:    err.Error(),
			HTTPStatus: http.StatusServiceUnavailable,
			Provider:   rp.provider.Name(),
		}
	}
	return resp, err
}

// IsRetryable 判断错误是否值得重试：*Error 看 Retryable 标志，
// 超时视为可重试，其它错误（如网络错误）也重试。
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Retryable
	}
	return true
}

// countsAsFailure 客户端错误（4xx 非限流）不计入熔断失败
func countsAsFailure(err error) bool {
	var le *Error
	if errors.As(err, &le) {
		switch le.Code {
		case ErrInvalidRequest, ErrUnauthorized, ErrForbidden, ErrQuotaExceeded:
			return false
		}
	}
	return !errors.Is(err, context.Canceled)
}
