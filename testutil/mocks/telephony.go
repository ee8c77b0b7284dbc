// =============================================================================
// ☎️ MockTelephony - 电话服务模拟实现
// =============================================================================
// 基于 testify/mock 的 telephony.Client 模拟，调用方用 On(...) 设定期望
//
// 使用方法:
//
//	tel := mocks.NewMockTelephony()
//	tel.On("GetCall", mock.Anything, "CA1").Return(&telephony.Call{SID: "CA1"}, nil)
//
// =============================================================================
package mocks

import (
	"context"

	"github.com/BaSui01/warmtransfer/telephony"
	"github.com/stretchr/testify/mock"
)

// MockTelephony 是 telephony.Client 的模拟实现
type MockTelephony struct {
	mock.Mock
	configured bool
}

// NewMockTelephony 创建已配置的 MockTelephony
func NewMockTelephony() *MockTelephony {
	return &MockTelephony{configured: true}
}

// Unconfigured 让 Configured 返回 false
func (m *MockTelephony) Unconfigured() *MockTelephony {
	m.configured = false
	return m
}

func (m *MockTelephony) Configured() bool { return m.configured }

func (m *MockTelephony) PlaceCall(ctx context.Context, req telephony.PlaceCallRequest) (*telephony.Call, error) {
	args := m.Called(ctx, req)
	return callResult(args)
}

func (m *MockTelephony) RedirectCall(ctx context.Context, sid, instructionsURL string) (*telephony.Call, error) {
	args := m.Called(ctx, sid, instructionsURL)
	return callResult(args)
}

func (m *MockTelephony) GetCall(ctx context.Context, sid string) (*telephony.Call, error) {
	args := m.Called(ctx, sid)
	return callResult(args)
}

func (m *MockTelephony) EndCall(ctx context.Context, sid string) (*telephony.Call, error) {
	args := m.Called(ctx, sid)
	return callResult(args)
}

func callResult(args mock.Arguments) (*telephony.Call, error) {
	var call *telephony.Call
	if v := args.Get(0); v != nil {
		call = v.(*telephony.Call)
	}
	return call, args.Error(1)
}
