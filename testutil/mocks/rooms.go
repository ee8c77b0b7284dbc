// =============================================================================
// 🎥 MockRoomService - 媒体房间服务模拟实现
// =============================================================================
// 用于测试的 rtc.RoomService 模拟，令牌由真实 TokenIssuer 签发，可被解析校验
//
// 使用方法:
//
//	rooms := mocks.NewMockRoomService().WithCreateError(errors.New("boom"))
//	_, err := rooms.CreateRoom(ctx, "transfer_1_handoff")
//
// =============================================================================
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/warmtransfer/rtc"
)

// 测试用 API 凭据
const (
	TestAPIKey    = "devkey"
	TestAPISecret = "devsecret-devsecret-devsecret-32"
)

// Removal 记录一次 RemoveParticipant 调用
type Removal struct {
	Room     string
	Identity string
}

// MockRoomService 是 rtc.RoomService 的模拟实现
type MockRoomService struct {
	mu sync.Mutex

	issuer *rtc.TokenIssuer

	// 错误注入
	createErr error
	deleteErr error
	removeErr error
	tokenErr  error
	delay     time.Duration

	// 调用记录
	created  []string
	deleted  []string
	removed  []Removal
	tokens   []rtc.TokenRequest
	creating func(name string)
}

// =============================================================================
// 🔧 构造函数和 Builder 方法
// =============================================================================

// NewMockRoomService 创建新的 MockRoomService
func NewMockRoomService() *MockRoomService {
	return &MockRoomService{issuer: rtc.NewTokenIssuer(TestAPIKey, TestAPISecret, time.Hour)}
}

// WithCreateError 让 CreateRoom 返回 err
func (m *MockRoomService) WithCreateError(err error) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createErr = err
	return m
}

// WithDeleteError 让 DeleteRoom 返回 err
func (m *MockRoomService) WithDeleteError(err error) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteErr = err
	return m
}

// WithRemoveError 让 RemoveParticipant 返回 err
func (m *MockRoomService) WithRemoveError(err error) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeErr = err
	return m
}

// WithTokenError 让 IssueToken 返回 err
func (m *MockRoomService) WithTokenError(err error) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokenErr = err
	return m
}

// WithDelay 设置 CreateRoom 延迟，遵守 ctx 取消
func (m *MockRoomService) WithDelay(d time.Duration) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
	return m
}

// OnCreate 在每次 CreateRoom 时回调
func (m *MockRoomService) OnCreate(fn func(name string)) *MockRoomService {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creating = fn
	return m
}

// =============================================================================
// 🎯 rtc.RoomService 实现
// =============================================================================

func (m *MockRoomService) CreateRoom(ctx context.Context, name string) (*rtc.Room, error) {
	m.mu.Lock()
	delay, err, hook := m.delay, m.createErr, m.creating
	m.created = append(m.created, name)
	m.mu.Unlock()

	if hook != nil {
		hook(name)
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &rtc.Room{SID: "RM_" + name, Name: name, CreatedAt: time.Now()}, nil
}

func (m *MockRoomService) DeleteRoom(_ context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, name)
	return m.deleteErr
}

func (m *MockRoomService) RemoveParticipant(_ context.Context, room, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, Removal{Room: room, Identity: identity})
	return m.removeErr
}

func (m *MockRoomService) IssueToken(req rtc.TokenRequest) (string, error) {
	m.mu.Lock()
	m.tokens = append(m.tokens, req)
	err := m.tokenErr
	m.mu.Unlock()
	if err != nil {
		return "", err
	}
	return m.issuer.IssueToken(req)
}

// =============================================================================
// 📋 调用记录
// =============================================================================

// Issuer 返回签发令牌的 TokenIssuer，用于解析校验
func (m *MockRoomService) Issuer() *rtc.TokenIssuer { return m.issuer }

// Created 返回 CreateRoom 收到的房间名
func (m *MockRoomService) Created() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.created...)
}

// Deleted 返回 DeleteRoom 收到的房间名
func (m *MockRoomService) Deleted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deleted...)
}

// Removed 返回 RemoveParticipant 调用记录
func (m *MockRoomService) Removed() []Removal {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Removal(nil), m.removed...)
}

// TokenRequests 返回 IssueToken 收到的请求
func (m *MockRoomService) TokenRequests() []rtc.TokenRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rtc.TokenRequest(nil), m.tokens...)
}
