// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// ChatModel is the core's only view of an LLM provider: invocable with
// {system, prompt, tools, stepBudget}, yielding a finished text or a full
// stream of typed events. The Agent Driver builds on Chat, ChatStream and
// ModelName; Hybrid Search does not use a ChatModel.
//
// Implementations may include:
//   - OpenAI (GPT-4, GPT-3.5)
//   - Anthropic (Claude)
//   - Ollama (local models)
type ChatModel interface {
	// Generate produces text completion from a prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// Chat conducts a multi-turn conversation, optionally exposing tools.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ChatStream is Chat's streaming counterpart: the returned channel
	// yields typed events (text-delta, tool-call, tool-result, finish,
	// error) and is closed after a terminal event.
	ChatStream(ctx context.Context, messages []ChatMessage, opts ChatOptions) (<-chan StreamEvent, error)

	// RewriteQuery expands or rewrites a search query for better recall.
	RewriteQuery(ctx context.Context, query string) (string, error)

	// Summarise creates a summary of document content.
	Summarise(ctx context.Context, content string, maxLength int) (string, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// StreamEventKind tags the variants of a ChatModel stream event.
type StreamEventKind string

const (
	EventTextDelta  StreamEventKind = "text-delta"
	EventToolCall   StreamEventKind = "tool-call"
	EventToolResult StreamEventKind = "tool-result"
	EventFinish     StreamEventKind = "finish"
	EventError      StreamEventKind = "error"
)

// StreamEvent is a tagged-union event from ChatModel.ChatStream. Only the
// fields relevant to Kind are populated; tool inputs/outputs stay as
// free-form JSON-ish values rather than provider types.
type StreamEvent struct {
	Kind         StreamEventKind
	Text         string
	Reasoning    string
	ToolName     string
	ToolInput    map[string]any
	ToolOutput   any
	FinishReason string
	Usage        Usage
	Err          error
}

// Usage mirrors domain.Usage for the provider boundary, kept separate so
// adapters never need to import domain.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// Tools are made available to the model for this call; nil disables
	// tool use (the quick-answer mode never sets this).
	Tools []ToolSpec

	// StepBudget caps the number of tool-call round trips the model may take.
	StepBudget int

	// System is the system prompt; kept out of Chat's messages slice so
	// providers that take it as a distinct field (Anthropic) don't need
	// to hunt for a role=="system" message.
	System string
}

// ToolSpec describes one callable tool in provider-agnostic form: a name,
// a JSON-schema-shaped input description, and nothing else — the core
// never hands a provider-specific tool type across this boundary.
type ToolSpec struct {
	Name        string
	Description string
	InputSchema map[string]any
}
