package models

// ChatMessage is a single model-visible message. Conversation state keeps
// richer typed messages; by the time a message reaches a provider it has been
// flattened to a role plus plain string content.
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user", "assistant", "tool"
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleTool      = "tool"
)

// FunctionDeclaration describes a tool the model may invoke.
type FunctionDeclaration struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Parameters  Parameters `json:"parameters"`
}

// Parameters defines the JSON Schema for function parameters
type Parameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

// ToolCall is a model-initiated tool invocation. Args is the raw JSON
// argument object exactly as the model produced it.
type ToolCall struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Args string `json:"args"`
}

// Finish reasons reported by providers, normalized across APIs.
const (
	FinishStop      = "stop"
	FinishToolCalls = "tool-calls"
	FinishLength    = "length"
)

// Delta is one increment of a streamed model response. Exactly one of the
// fields is meaningful per delta; a FinishReason delta is always the last
// one emitted for a successful stream.
type Delta struct {
	Text         string    `json:"text,omitempty"`
	ToolCall     *ToolCall `json:"toolCall,omitempty"`
	FinishReason string    `json:"finishReason,omitempty"`
}

// Request is a provider-independent model invocation.
type Request struct {
	Model     string                // override the provider's configured model
	System    string                // system prompt
	Messages  []ChatMessage         // trimmed model-visible history
	Tools     []FunctionDeclaration // tool declarations, empty for plain generation
	MaxTokens int
	JSONMode  bool // ask the provider for a JSON object response
}

// Response is the result of a non-streaming model invocation.
type Response struct {
	Text         string
	FinishReason string
}
