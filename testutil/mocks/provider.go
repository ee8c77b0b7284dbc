// MockProvider 是 llm.Provider 的测试模拟实现。
//
// 支持固定响应、按系统提示路由响应、延迟与错误注入。
package mocks

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/BaSui01/warmtransfer/llm"
)

// MockProvider 是 LLM Provider 的模拟实现
type MockProvider struct {
	mu sync.Mutex

	response string
	routes   []route
	err      error
	delay    time.Duration
	fn       func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

	calls []*llm.ChatRequest
}

type route struct {
	systemContains string
	response       string
}

// NewMockProvider 创建默认返回 "Mock response" 的 MockProvider
func NewMockProvider() *MockProvider {
	return &MockProvider{response: "Mock response"}
}

// WithResponse 设置默认响应
func (m *MockProvider) WithResponse(s string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.response = s
	return m
}

// WithRoute 当系统提示包含 substr 时返回 response
func (m *MockProvider) WithRoute(substr, response string) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, route{systemContains: substr, response: response})
	return m
}

// WithError 让每次调用返回 err
func (m *MockProvider) WithError(err error) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithDelay 在响应前等待 d（尊重 ctx 取消）
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// WithCompletionFunc 完全接管 Completion
func (m *MockProvider) WithCompletionFunc(fn func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fn = fn
	return m
}

// Name 实现 llm.Provider
func (m *MockProvider) Name() string { return "mock" }

// HealthCheck 实现 llm.Provider
func (m *MockProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &llm.HealthStatus{Healthy: m.err == nil}, m.err
}

// Completion 实现 llm.Provider
func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	fn, err, delay := m.fn, m.err, m.delay
	content := m.response
	system := ""
	for _, msg := range req.Messages {
		if msg.Role == llm.RoleSystem {
			system = msg.Content
			break
		}
	}
	for _, r := range m.routes {
		if strings.Contains(system, r.systemContains) {
			content = r.response
			break
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	if fn != nil {
		return fn(ctx, req)
	}
	if err != nil {
		return nil, err
	}
	return &llm.ChatResponse{
		Provider: "mock",
		Model:    req.Model,
		Choices:  []llm.ChatChoice{{Message: llm.Message{Role: llm.RoleAssistant, Content: content}}},
	}, nil
}

// Calls 返回调用记录的副本
func (m *MockProvider) Calls() []*llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*llm.ChatRequest(nil), m.calls...)
}

// CallCount 返回调用次数
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}
