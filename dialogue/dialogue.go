package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// RequestError wraps any failure talking to the completion endpoint.
// StatusCode is zero when no HTTP response was received.
type RequestError struct {
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("chat completion failed with status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("chat completion failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

type Client struct {
	api   completer
	model string
}

type Option func(*openai.ClientConfig)

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *openai.ClientConfig) { c.BaseURL = url }
}

func NewClient(apiKey, model string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	for _, opt := range opts {
		opt(&cfg)
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: openai.NewClientWithConfig(cfg), model: model}
}

// Complete sends prompt as a single user message with no history and
// returns the reply text.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", &RequestError{StatusCode: statusCode(err), Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &RequestError{Err: errors.New("response has no choices")}
	}
	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", &RequestError{Err: fmt.Errorf("empty reply (finish reason %q)", resp.Choices[0].FinishReason)}
	}

	slog.Debug("Chat completion", "model", c.model, "promptTokens", resp.Usage.PromptTokens, "completionTokens", resp.Usage.CompletionTokens)
	return reply, nil
}

func statusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}
