package unifiedllm

import "strings"

// ModelInfo is a known model. JSONMode reports whether the provider can be
// asked for JSON object output for this model.
type ModelInfo struct {
	ID       string
	Provider string
	JSONMode bool
	Aliases  []string
}

// Models lists the known models. The first entry per provider is that
// provider's default.
var Models = []ModelInfo{
	{ID: "gpt-4o", Provider: "openai", JSONMode: true, Aliases: []string{"4o"}},
	{ID: "gpt-4o-mini", Provider: "openai", JSONMode: true, Aliases: []string{"4o-mini"}},
	{ID: "gpt-4.1", Provider: "openai", JSONMode: true},

	{ID: "claude-sonnet-4-5", Provider: "anthropic", Aliases: []string{"sonnet", "claude-sonnet"}},
	{ID: "claude-opus-4-6", Provider: "anthropic", Aliases: []string{"opus", "claude-opus"}},

	{ID: "llama-3.3-70b-versatile", Provider: "groq", JSONMode: true},
	{ID: "llama3.2", Provider: "ollama", JSONMode: true},
}

// GetModelInfo looks up a model by id or alias, ignoring case.
func GetModelInfo(modelID string) *ModelInfo {
	for i := range Models {
		m := &Models[i]
		if strings.EqualFold(m.ID, modelID) {
			return m
		}
		for _, alias := range m.Aliases {
			if strings.EqualFold(alias, modelID) {
				return m
			}
		}
	}
	return nil
}

// DefaultModel returns the first known model of provider, or nil.
func DefaultModel(provider string) *ModelInfo {
	for i := range Models {
		if Models[i].Provider == provider {
			return &Models[i]
		}
	}
	return nil
}

// ResolveModel maps an alias to its id. Unknown ids pass through.
func ResolveModel(modelID string) string {
	if info := GetModelInfo(modelID); info != nil {
		return info.ID
	}
	return modelID
}
