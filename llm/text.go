package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// TextRequest is a single system+user prompt.
type TextRequest struct {
	Model       string
	System      string
	User        string
	MaxTokens   int
	Temperature float32
	// Metadata is passed to the provider untouched ("format"="json" asks
	// for a JSON object where supported).
	Metadata map[string]string
}

// FirstChoice returns the first choice of resp. A nil response or one
// without choices is reported as ErrEmptyResponse.
func FirstChoice(resp *ChatResponse) (ChatChoice, error) {
	if resp == nil {
		return ChatChoice{}, &Error{Code: ErrEmptyResponse, Message: "nil ChatResponse"}
	}
	if len(resp.Choices) == 0 {
		return ChatChoice{}, &Error{Code: ErrEmptyResponse, Message: "empty choices in ChatResponse", Provider: resp.Provider}
	}
	return resp.Choices[0], nil
}

// GenerateText sends one system+user exchange and returns the first choice's
// content, trimmed. An empty answer is reported as ErrEmptyResponse.
func GenerateText(ctx context.Context, p Provider, req TextRequest) (string, error) {
	if p == nil {
		return "", &Error{
			Code:       ErrProviderUnavailable,
			Message:    "no language model configured",
			HTTPStatus: http.StatusServiceUnavailable,
		}
	}

	msgs := make([]Message, 0, 2)
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, Message{Role: RoleUser, Content: req.User})

	resp, err := p.Completion(ctx, &ChatRequest{
		Model:       req.Model,
		Messages:    msgs,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return "", err
	}

	choice, err := FirstChoice(resp)
	if err != nil {
		var le *Error
		if errors.As(err, &le) && le.Provider == "" {
			le.Provider = p.Name()
		}
		return "", err
	}

	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return "", &Error{Code: ErrEmptyResponse, Message: "empty content", Provider: p.Name()}
	}
	return content, nil
}
