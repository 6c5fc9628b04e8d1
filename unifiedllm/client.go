package unifiedllm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Middleware wraps a provider call. It receives the request and a next function
// that calls the downstream handler, and returns the response.
type Middleware func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error)

// Client sends requests to one provider adapter through a middleware chain.
// It is built once per run and handed to the loop.
type Client struct {
	adapter ProviderAdapter
	chain   []Middleware
	handler func(context.Context, Request) (*Response, error)
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithMiddleware appends middleware. The first one added sees the request
// first and the response last.
func WithMiddleware(mw ...Middleware) ClientOption {
	return func(c *Client) {
		c.chain = append(c.chain, mw...)
	}
}

// NewClient returns a Client for adapter.
func NewClient(adapter ProviderAdapter, opts ...ClientOption) *Client {
	c := &Client{adapter: adapter}
	for _, opt := range opts {
		opt(c)
	}
	c.handler = c.send
	for i := len(c.chain) - 1; i >= 0; i-- {
		mw, next := c.chain[i], c.handler
		c.handler = func(ctx context.Context, r Request) (*Response, error) {
			return mw(ctx, r, next)
		}
	}
	return c
}

// Provider returns the adapter's provider name, or "" without an adapter.
func (c *Client) Provider() string {
	if c.adapter == nil {
		return ""
	}
	return c.adapter.Name()
}

// Complete sends req through the middleware to the adapter. An empty
// req.Provider means the client's provider.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Provider == "" {
		req.Provider = c.Provider()
	}
	return c.handler(ctx, req)
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	if c.adapter == nil {
		return nil, &ConfigurationError{SDKError: SDKError{Message: "no provider adapter configured"}}
	}
	if req.Provider != c.adapter.Name() {
		return nil, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("provider %q is not configured, this client uses %q", req.Provider, c.adapter.Name()),
		}}
	}
	return c.adapter.Complete(ctx, req)
}

// LoggingMiddleware records each completion at debug level, and failures at
// error level.
func LoggingMiddleware(logger *slog.Logger) Middleware {
	return func(ctx context.Context, req Request, next func(context.Context, Request) (*Response, error)) (*Response, error) {
		start := time.Now()
		logger.DebugContext(ctx, "completion request",
			"provider", req.Provider,
			"model", req.Model,
			"messages", len(req.Messages),
			"json", req.WantsJSON(),
		)
		resp, err := next(ctx, req)
		if err != nil {
			logger.ErrorContext(ctx, "completion failed",
				"provider", req.Provider,
				"model", req.Model,
				"error", err,
				"retryable", IsRetryable(err),
			)
			return nil, err
		}
		logger.DebugContext(ctx, "completion response",
			"id", resp.ID,
			"finish", resp.FinishReason.Reason,
			"output_tokens", resp.Usage.OutputTokens,
			"duration", time.Since(start),
		)
		return resp, nil
	}
}
