package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFirstChoice(t *testing.T) {
	tests := []struct {
		name    string
		resp    *ChatResponse
		wantErr string
	}{
		{"nil response", nil, "nil ChatResponse"},
		{"empty choices", &ChatResponse{Choices: []ChatChoice{}}, "empty choices"},
		{"single choice", &ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "hello"}}}}, ""},
		{"multiple choices returns first", &ChatResponse{Choices: []ChatChoice{
			{Index: 0, Message: Message{Content: "first"}},
			{Index: 1, Message: Message{Content: "second"}},
		}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			choice, err := FirstChoice(tt.resp)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				var le *Error
				require.True(t, errors.As(err, &le))
				assert.Equal(t, ErrEmptyResponse, le.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.resp.Choices[0], choice)
		})
	}
}

func TestGenerateText(t *testing.T) {
	ctx := context.Background()

	t.Run("no provider", func(t *testing.T) {
		_, err := GenerateText(ctx, nil, TextRequest{User: "hi"})
		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, ErrProviderUnavailable, le.Code)
	})

	t.Run("builds system and user messages", func(t *testing.T) {
		p := new(MockProvider)
		p.On("Completion", mock.Anything, mock.MatchedBy(func(req *ChatRequest) bool {
			return len(req.Messages) == 2 &&
				req.Messages[0].Role == RoleSystem && req.Messages[0].Content == "be brief" &&
				req.Messages[1].Role == RoleUser && req.Messages[1].Content == "hi" &&
				req.Model == "m1" && req.Metadata["format"] == "json"
		})).Return(&ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "  hello \n"}}}}, nil)

		out, err := GenerateText(ctx, p, TextRequest{
			Model: "m1", System: "be brief", User: "hi",
			Metadata: map[string]string{"format": "json"},
		})
		require.NoError(t, err)
		assert.Equal(t, "hello", out)
		p.AssertExpectations(t)
	})

	t.Run("omits empty system prompt", func(t *testing.T) {
		p := new(MockProvider)
		p.On("Completion", mock.Anything, mock.MatchedBy(func(req *ChatRequest) bool {
			return len(req.Messages) == 1 && req.Messages[0].Role == RoleUser
		})).Return(&ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "ok"}}}}, nil)

		out, err := GenerateText(ctx, p, TextRequest{User: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "ok", out)
	})

	t.Run("blank content is empty response", func(t *testing.T) {
		p := new(MockProvider)
		p.On("Completion", mock.Anything, mock.Anything).
			Return(&ChatResponse{Choices: []ChatChoice{{Message: Message{Content: "   "}}}}, nil)

		_, err := GenerateText(ctx, p, TextRequest{User: "hi"})
		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, ErrEmptyResponse, le.Code)
		assert.Equal(t, "mock", le.Provider)
	})

	t.Run("no choices names the provider", func(t *testing.T) {
		p := new(MockProvider)
		p.On("Completion", mock.Anything, mock.Anything).Return(&ChatResponse{}, nil)

		_, err := GenerateText(ctx, p, TextRequest{User: "hi"})
		var le *Error
		require.True(t, errors.As(err, &le))
		assert.Equal(t, "mock", le.Provider)
	})

	t.Run("provider error passes through", func(t *testing.T) {
		boom := &Error{Code: ErrUpstreamTimeout, Message: "slow", Retryable: true}
		p := new(MockProvider)
		p.On("Completion", mock.Anything, mock.Anything).Return(nil, boom)

		_, err := GenerateText(ctx, p, TextRequest{User: "hi"})
		assert.Same(t, boom, err)
	})
}
