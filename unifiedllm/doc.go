// Package unifiedllm is the model client layer. It presents one
// provider-agnostic chat completion call on top of go-openai
// (github.com/sashabaranov/go-openai) and gollm
// (github.com/teilomillet/gollm).
//
// # Architecture
//
//   - ProviderAdapter: one backend. OpenAIAdapter speaks the chat completions
//     protocol with JSON object mode; GollmAdapter covers the other
//     providers gollm supports.
//   - LazyAdapter: defers construction, and therefore the credential read,
//     to the first call, then reuses the result for the process lifetime.
//   - Client: sends a Request to its one adapter through a middleware chain.
//   - Catalog: known models, their aliases, and whether they take JSON mode.
//   - Errors: provider failures are mapped into a typed hierarchy
//     (AuthenticationError, RateLimitError, ServerError, ...).
//
// # Quick Start
//
//	adapter := unifiedllm.NewLazyAdapter(unifiedllm.AdapterConfig{
//	    Provider: "openai",
//	    Model:    "gpt-4o",
//	    Token:    func() (string, error) { return os.Getenv("OPENAI_API_KEY"), nil },
//	})
//	client := unifiedllm.NewClient(adapter)
//
//	resp, err := client.Complete(ctx, unifiedllm.Request{
//	    Model:          "gpt-4o",
//	    Messages:       []unifiedllm.Message{unifiedllm.UserMessage("Hello")},
//	    ResponseFormat: unifiedllm.JSONObjectFormat(),
//	})
//	fmt.Println(resp.Text())
//
// No call is retried. A failed completion is returned to the caller as is.
package unifiedllm
