package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/BaSui01/warmtransfer/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestMapHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		msg       string
		wantCode  llm.ErrorCode
		wantRetry bool
	}{
		{"401", http.StatusUnauthorized, "Invalid API key", llm.ErrUnauthorized, false},
		{"403", http.StatusForbidden, "Access denied", llm.ErrForbidden, false},
		{"429", http.StatusTooManyRequests, "slow down", llm.ErrRateLimited, true},
		{"400 quota", http.StatusBadRequest, "You exceeded your current Quota", llm.ErrQuotaExceeded, false},
		{"400 credit", http.StatusBadRequest, "insufficient credit balance", llm.ErrQuotaExceeded, false},
		{"400 plain", http.StatusBadRequest, "bad messages", llm.ErrInvalidRequest, false},
		{"408", http.StatusRequestTimeout, "", llm.ErrUpstreamTimeout, true},
		{"504", http.StatusGatewayTimeout, "", llm.ErrUpstreamTimeout, true},
		{"529", 529, "overloaded", llm.ErrModelOverloaded, true},
		{"500", http.StatusInternalServerError, "oops", llm.ErrUpstreamError, true},
		{"503", http.StatusServiceUnavailable, "", llm.ErrUpstreamError, true},
		{"404", http.StatusNotFound, "no such model", llm.ErrUpstreamError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := MapHTTPError(tt.status, tt.msg, "openai")
			assert.Equal(t, tt.wantCode, e.Code)
			assert.Equal(t, tt.wantRetry, e.Retryable)
			assert.Equal(t, tt.status, e.HTTPStatus)
			assert.Equal(t, "openai", e.Provider)
			assert.Equal(t, tt.msg, e.Message)
		})
	}
}

// 5xx 总是可重试，401/403 永不重试
func TestMapHTTPError_RetryableProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		status := rapid.IntRange(400, 599).Draw(t, "status")
		msg := rapid.String().Draw(t, "msg")
		e := MapHTTPError(status, msg, "p")

		if status >= 500 {
			assert.True(t, e.Retryable, "status %d", status)
		}
		if status == http.StatusUnauthorized || status == http.StatusForbidden {
			assert.False(t, e.Retryable)
		}
		assert.NotEmpty(t, e.Code)
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestMapTransportError(t *testing.T) {
	assert.NoError(t, MapTransportError(nil, "p"))
	assert.ErrorIs(t, MapTransportError(context.Canceled, "p"), context.Canceled)

	var le *llm.Error
	require.ErrorAs(t, MapTransportError(fmt.Errorf("dial: %w", context.DeadlineExceeded), "p"), &le)
	assert.Equal(t, llm.ErrUpstreamTimeout, le.Code)
	assert.Equal(t, http.StatusGatewayTimeout, le.HTTPStatus)

	require.ErrorAs(t, MapTransportError(timeoutErr{}, "p"), &le)
	assert.Equal(t, llm.ErrUpstreamTimeout, le.Code)

	require.ErrorAs(t, MapTransportError(errors.New("connection refused"), "p"), &le)
	assert.Equal(t, llm.ErrUpstreamError, le.Code)
	assert.True(t, le.Retryable)
}

func TestReadErrorMessage(t *testing.T) {
	tests := map[string]string{
		`{"error":{"message":"bad key","type":"invalid_request_error"}}`: "bad key (type: invalid_request_error)",
		`{"error":{"message":"bad key"}}`:                                "bad key",
		"  upstream exploded \n":                                         "upstream exploded",
	}
	for body, want := range tests {
		assert.Equal(t, want, ReadErrorMessage(strings.NewReader(body)))
	}
}

func TestConvertMessagesAndResponse(t *testing.T) {
	msgs := ConvertMessages([]llm.Message{
		{Role: llm.RoleSystem, Content: "sys"},
		{Role: llm.RoleUser, Content: "hi"},
	})
	require.Len(t, msgs, 2)
	assert.Equal(t, OpenAICompatMessage{Role: "system", Content: "sys"}, msgs[0])

	resp := ToChatResponse(OpenAICompatResponse{
		ID:    "chatcmpl-1",
		Model: "gpt-4o-mini",
		Choices: []OpenAICompatChoice{
			{Index: 0, FinishReason: "stop", Message: OpenAICompatMessage{Role: "assistant", Content: "hello"}},
		},
		Usage: &OpenAICompatUsage{PromptTokens: 3, CompletionTokens: 1, TotalTokens: 4},
	}, "openai")

	assert.Equal(t, "openai", resp.Provider)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, llm.RoleAssistant, resp.Choices[0].Message.Role)
	assert.Equal(t, "hello", resp.Choices[0].Message.Content)
	assert.Equal(t, 4, resp.Usage.TotalTokens)
}
