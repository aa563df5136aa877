package openaichat

import "github.com/Desarso/searchpilot/models"

// Chat Completions request/response types (OpenAI-compatible format).
// The same wire shape serves OpenAI, OpenRouter, Groq-style "specific"
// writer endpoints and Ollama's /v1 compatibility layer.

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	Tools          []tool          `json:"tools,omitempty"`
	ToolChoice     interface{}     `json:"tool_choice,omitempty"` // "auto", "none", or specific tool
	Stream         bool            `json:"stream,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"` // "json_object"
}

type chatMessage struct {
	Role       string     `json:"role"` // "system", "user", "assistant", "tool"
	Content    string     `json:"content"`
	Name       *string    `json:"name,omitempty"`
	ToolCalls  []toolCall `json:"tool_calls,omitempty"`
	ToolCallID *string    `json:"tool_call_id,omitempty"`
}

type tool struct {
	Type     string       `json:"type"` // "function"
	Function toolFunction `json:"function"`
}

type toolFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"` // JSON Schema object
}

type toolCall struct {
	Index    int              `json:"index,omitempty"` // streaming chunks key fragments by index
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string of arguments
}

type chatResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type choice struct {
	Index        int            `json:"index"`
	Message      *choiceMessage `json:"message,omitempty"` // non-streaming
	Delta        *choiceMessage `json:"delta,omitempty"`   // streaming
	FinishReason *string        `json:"finish_reason,omitempty"`
}

type choiceMessage struct {
	Role      string     `json:"role,omitempty"`
	Content   *string    `json:"content,omitempty"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

type streamResponse struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"` // "chat.completion.chunk"
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []choice `json:"choices"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// sanitizedParameters ensures the schema has proper structure for strict
// APIs: properties must be an object (not null) and required an array.
type sanitizedParameters struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Required   []string               `json:"required"`
}

func convertTool(fd models.FunctionDeclaration) tool {
	params := sanitizedParameters{
		Type:       fd.Parameters.Type,
		Properties: fd.Parameters.Properties,
		Required:   fd.Parameters.Required,
	}
	if params.Properties == nil {
		params.Properties = make(map[string]interface{})
	}
	if params.Required == nil {
		params.Required = []string{}
	}
	if params.Type == "" {
		params.Type = "object"
	}

	return tool{
		Type: "function",
		Function: toolFunction{
			Name:        fd.Name,
			Description: fd.Description,
			Parameters:  params,
		},
	}
}

func convertTools(fds []models.FunctionDeclaration) []tool {
	tools := make([]tool, len(fds))
	for i, fd := range fds {
		tools[i] = convertTool(fd)
	}
	return tools
}

// normalizeFinishReason maps API finish reasons onto the provider-neutral
// constants used by the loop termination predicates.
func normalizeFinishReason(reason string) string {
	switch reason {
	case "stop":
		return models.FinishStop
	case "tool_calls", "function_call":
		return models.FinishToolCalls
	case "length":
		return models.FinishLength
	default:
		return reason
	}
}
