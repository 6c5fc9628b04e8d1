package unifiedllm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIAdapter talks to the OpenAI chat completions endpoint, or any
// endpoint that speaks the same protocol, through go-openai.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
}

var _ ProviderAdapter = new(OpenAIAdapter)

// OpenAIAdapterOption configures an OpenAIAdapter.
type OpenAIAdapterOption func(*openai.ClientConfig)

// WithBaseURL points the adapter at an OpenAI-compatible endpoint.
func WithBaseURL(url string) OpenAIAdapterOption {
	return func(c *openai.ClientConfig) {
		if url != "" {
			c.BaseURL = url
		}
	}
}

// NewOpenAIAdapter creates an adapter authenticated with token. The model is
// the fallback when a request does not name one.
func NewOpenAIAdapter(token, model string, opts ...OpenAIAdapterOption) (*OpenAIAdapter, error) {
	if token == "" {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: "unable to resolve an OpenAI token",
		}}
	}
	cfg := openai.DefaultConfig(token)
	for _, opt := range opts {
		opt(&cfg)
	}
	if model == "" {
		model = DefaultModel("openai").ID
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Complete sends one chat completion request and returns the first choice.
func (a *OpenAIAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: toOpenAIMessages(req.Messages),
	}
	if req.WantsJSON() {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	}

	resp, err := a.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, a.translateError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{
			SDKError: SDKError{Message: "response contained no choices"},
			Provider: a.Name(),
		}
	}

	choice := resp.Choices[0]
	return &Response{
		ID:       resp.ID,
		Model:    resp.Model,
		Provider: a.Name(),
		Message:  AssistantMessage(choice.Message.Content),
		FinishReason: FinishReason{
			Reason: normalizeFinishReason(string(choice.FinishReason)),
			Raw:    string(choice.FinishReason),
		},
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			TotalTokens:  resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}
	return out
}

func normalizeFinishReason(raw string) string {
	switch raw {
	case "stop", "length", "content_filter":
		return raw
	case "":
		return "stop"
	default:
		return "other"
	}
}

// translateError converts a go-openai error into the unified error hierarchy.
func (a *OpenAIAdapter) translateError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return &AbortError{SDKError: SDKError{Message: "request cancelled", Cause: err}}
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code := ""
		if apiErr.Code != nil {
			code = fmt.Sprint(apiErr.Code)
		}
		return ErrorFromStatusCode(apiErr.HTTPStatusCode, apiErr.Message, a.Name(), code, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return ErrorFromStatusCode(reqErr.HTTPStatusCode, "request failed", a.Name(), "", err)
	}

	return &NetworkError{SDKError: SDKError{Message: "openai request failed", Cause: err}}
}
