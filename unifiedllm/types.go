package unifiedllm

import "strings"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is the fundamental unit of conversation. Its JSON form is the
// persisted transcript entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemMessage creates a system Message.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// UserMessage creates a user Message.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates an assistant Message.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// Response format types.
const (
	FormatText       = "text"
	FormatJSONObject = "json_object"
)

// ResponseFormat specifies the desired output format.
type ResponseFormat struct {
	Type string `json:"type"` // "text" or "json_object"
}

// JSONObjectFormat asks the provider to return a single JSON object.
func JSONObjectFormat() *ResponseFormat {
	return &ResponseFormat{Type: FormatJSONObject}
}

// FinishReason describes why generation stopped.
type FinishReason struct {
	Reason string `json:"reason"` // "stop", "length", "content_filter", "error", "other"
	Raw    string `json:"raw,omitempty"`
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Request is the input type for Complete.
type Request struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	Provider       string          `json:"provider,omitempty"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
}

// WantsJSON reports whether the request asks for a JSON object reply.
func (r Request) WantsJSON() bool {
	return r.ResponseFormat != nil && r.ResponseFormat.Type == FormatJSONObject
}

// SystemPrompt returns the concatenated content of all system messages.
func (r Request) SystemPrompt() string {
	var parts []string
	for _, msg := range r.Messages {
		if msg.Role == RoleSystem {
			parts = append(parts, msg.Content)
		}
	}
	return strings.Join(parts, "\n")
}

// Response is the output of Complete.
type Response struct {
	ID           string       `json:"id"`
	Model        string       `json:"model"`
	Provider     string       `json:"provider"`
	Message      Message      `json:"message"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
}

// Text returns the text of the response message.
func (r Response) Text() string {
	return r.Message.Content
}
