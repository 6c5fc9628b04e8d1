package unifiedllm

import "fmt"

// AdapterConfig selects and configures a provider adapter.
type AdapterConfig struct {
	Provider string
	Model    string
	BaseURL  string // OpenAI-compatible endpoint override, openai only

	// Token resolves the credential. It is called once, when the adapter is
	// first used.
	Token func() (string, error)
}

// NewLazyAdapter returns an adapter for cfg.Provider whose credential read and
// construction happen on the first call.
func NewLazyAdapter(cfg AdapterConfig) *LazyAdapter {
	return Lazy(cfg.Provider, func() (ProviderAdapter, error) {
		token := ""
		if cfg.Token != nil {
			var err error
			token, err = cfg.Token()
			if err != nil {
				return nil, &ConfigurationError{SDKError: SDKError{
					Message: "unable to resolve credential",
					Cause:   err,
				}}
			}
		}

		switch cfg.Provider {
		case "openai":
			return NewOpenAIAdapter(token, cfg.Model, WithBaseURL(cfg.BaseURL))
		case "":
			return nil, &ConfigurationError{SDKError: SDKError{Message: "no provider configured"}}
		default:
			adapter, err := NewGollmAdapter(cfg.Provider, token, WithModel(cfg.Model))
			if err != nil {
				return nil, &ConfigurationError{SDKError: SDKError{
					Message: fmt.Sprintf("provider %q", cfg.Provider),
					Cause:   err,
				}}
			}
			return adapter, nil
		}
	})
}
