package unifiedllm

import (
	"context"
	"sync"
)

// ProviderAdapter is the interface every provider backend must implement.
type ProviderAdapter interface {
	// Name returns the provider identifier (e.g. "openai", "anthropic", "ollama").
	Name() string

	// Complete sends a blocking request and returns the full response.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// LazyAdapter defers building its underlying adapter until the first call.
// The build result, including a failure, is kept for the adapter's lifetime.
type LazyAdapter struct {
	name  string
	build func() (ProviderAdapter, error)
}

var _ ProviderAdapter = new(LazyAdapter)

// Lazy wraps build so it runs at most once, on the first Complete.
func Lazy(name string, build func() (ProviderAdapter, error)) *LazyAdapter {
	return &LazyAdapter{
		name:  name,
		build: sync.OnceValues(build),
	}
}

func (l *LazyAdapter) Name() string {
	return l.name
}

func (l *LazyAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	adapter, err := l.build()
	if err != nil {
		return nil, err
	}
	return adapter.Complete(ctx, req)
}
