package chats

import (
	"testing"

	"github.com/Desarso/searchpilot/models"
)

func TestModelVisible_FiltersHiddenTypes(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: `{"input":"hello"}`, Type: TypeInput},
		{Role: RoleTool, Content: `{"results":[]}`, Type: TypeTool, Name: "search"},
		{Role: RoleAssistant, Content: "the answer", Type: TypeAnswer},
		{Role: RoleAssistant, Content: `{"items":["a"]}`, Type: TypeRelated},
		{Role: RoleAssistant, Content: "followup", Type: TypeFollowup},
		{Role: RoleAssistant, Content: "end", Type: TypeEnd},
	}
	result := ModelVisible(msgs, 10)
	if len(result) != 2 {
		t.Fatalf("Expected 2 visible messages, got %d", len(result))
	}
	if result[0].Role != models.ChatRoleUser {
		t.Errorf("Expected first visible message to be user, got %s", result[0].Role)
	}
	if result[1].Content != "the answer" {
		t.Errorf("Expected answer content, got %q", result[1].Content)
	}
}

func TestModelVisible_TrimsOldestBeyondWindow(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "first", Type: TypeInput},
		{Role: RoleAssistant, Content: "second", Type: TypeAnswer},
		{Role: RoleUser, Content: "third", Type: TypeInput},
	}
	result := ModelVisible(msgs, 1)
	if len(result) != 1 {
		t.Fatalf("Expected 1 message with window 1, got %d", len(result))
	}
	if result[0].Content != "third" {
		t.Errorf("Expected most recent message kept, got %q", result[0].Content)
	}
}

func TestModelVisible_WindowLargerThanHistory(t *testing.T) {
	msgs := []Message{
		{Role: RoleUser, Content: "only", Type: TypeInput},
	}
	result := ModelVisible(msgs, 10)
	if len(result) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(result))
	}
}

func TestFlattenToolMessages_ReRolesKeepingContent(t *testing.T) {
	msgs := []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "query"},
		{Role: models.ChatRoleTool, Name: "search", Content: `{"results":[]}`},
	}
	result := FlattenToolMessages(msgs)
	if len(result) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result))
	}
	if result[1].Role != models.ChatRoleAssistant {
		t.Errorf("Expected tool message re-roled to assistant, got %s", result[1].Role)
	}
	if result[1].Content != `{"results":[]}` {
		t.Errorf("Expected content unchanged, got %q", result[1].Content)
	}
	if msgs[1].Role != models.ChatRoleTool {
		t.Error("Expected input slice to be left unmodified")
	}
}

func TestHasAnswer(t *testing.T) {
	state := NewState()
	state.Append(Message{Role: RoleUser, Content: `{"input":"hi"}`, Type: TypeInput})
	if state.HasAnswer() {
		t.Error("Expected no answer before one is appended")
	}
	state.Append(Message{Role: RoleAssistant, Content: "done", Type: TypeAnswer})
	if !state.HasAnswer() {
		t.Error("Expected HasAnswer after appending an answer message")
	}
}
