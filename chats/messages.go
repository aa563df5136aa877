package chats

import (
	"github.com/google/uuid"

	"github.com/Desarso/searchpilot/models"
)

// Role identifies who produced a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// MessageType tags user/assistant messages so the UI can be reconstructed
// from persisted state. The zero value means "untyped" (e.g. a skip payload).
type MessageType string

const (
	TypeNone         MessageType = ""
	TypeInput        MessageType = "input"
	TypeInputRelated MessageType = "input_related"
	TypeInquiry      MessageType = "inquiry"
	TypeAnswer       MessageType = "answer"
	TypeRelated      MessageType = "related"
	TypeFollowup     MessageType = "followup"
	TypeEnd          MessageType = "end"
	TypeTool         MessageType = "tool"
)

// Message is one entry of a chat's durable log. Content is always a string;
// structured payloads (form submissions, tool results, related-query lists)
// are serialized into it.
type Message struct {
	ID      string      `json:"id"`
	Role    Role        `json:"role"`
	Content string      `json:"content"`
	Type    MessageType `json:"type,omitempty"`
	Name    string      `json:"name,omitempty"` // tool name for tool-role messages
}

// NewMessage builds a message with a fresh ID.
func NewMessage(role Role, content string, msgType MessageType) Message {
	return Message{
		ID:      uuid.NewString(),
		Role:    role,
		Content: content,
		Type:    msgType,
	}
}

// State is the in-memory conversation state for one chat. A single turn owns
// it at a time; mutation is append-only.
type State struct {
	ChatID      string    `json:"chatId"`
	Messages    []Message `json:"messages"`
	IsSharePage bool      `json:"isSharePage,omitempty"`
}

// NewState creates an empty conversation with a fresh chat ID.
func NewState() *State {
	return &State{ChatID: uuid.NewString()}
}

// Append adds messages to the end of the log.
func (s *State) Append(msgs ...Message) {
	s.Messages = append(s.Messages, msgs...)
}

// HasAnswer reports whether the log contains at least one answer-typed
// message. Persistence is gated on this.
func (s *State) HasAnswer() bool {
	for _, m := range s.Messages {
		if m.Type == TypeAnswer {
			return true
		}
	}
	return false
}

// ModelVisible builds the trimmed model-visible message list: tool-role
// messages and followup/related/end entries are dropped, then only the
// `window` most recent messages are kept (oldest trimmed first). A window
// of 0 keeps everything.
func ModelVisible(msgs []Message, window int) []models.ChatMessage {
	visible := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleTool {
			continue
		}
		switch m.Type {
		case TypeFollowup, TypeRelated, TypeEnd:
			continue
		}
		visible = append(visible, models.ChatMessage{Role: string(m.Role), Content: m.Content})
	}
	if window > 0 && len(visible) > window {
		visible = visible[len(visible)-window:]
	}
	return visible
}

// FlattenToolMessages rewrites tool-role messages as plain assistant-role
// messages so a tool-call-incapable model can still read their content.
func FlattenToolMessages(msgs []models.ChatMessage) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == models.ChatRoleTool {
			out = append(out, models.ChatMessage{Role: models.ChatRoleAssistant, Content: m.Content})
			continue
		}
		out = append(out, m)
	}
	return out
}
