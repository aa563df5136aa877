package chats

import (
	"strings"
	"testing"
	"time"
)

func TestDeriveTitle(t *testing.T) {
	tests := []struct {
		name string
		msgs []Message
		want string
	}{
		{
			name: "from input field",
			msgs: []Message{{Content: `{"input":"what is quantum computing"}`}},
			want: "what is quantum computing",
		},
		{
			name: "no messages",
			msgs: nil,
			want: UntitledChat,
		},
		{
			name: "unparseable content",
			msgs: []Message{{Content: "plain text"}},
			want: UntitledChat,
		},
		{
			name: "missing input field",
			msgs: []Message{{Content: `{"related_query":"more"}`}},
			want: UntitledChat,
		},
		{
			name: "truncated to 100 characters",
			msgs: []Message{{Content: `{"input":"` + strings.Repeat("a", 150) + `"}`}},
			want: strings.Repeat("a", 100),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveTitle(tt.msgs)
			if got != tt.want {
				t.Errorf("DeriveTitle() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBuildChat_AppendsEndSentinelToCopyOnly(t *testing.T) {
	state := NewState()
	state.Append(Message{ID: "m1", Role: RoleUser, Content: `{"input":"hi"}`, Type: TypeInput})
	state.Append(Message{ID: "m2", Role: RoleAssistant, Content: "answer", Type: TypeAnswer})

	chat := BuildChat(state, "user-1", time.Now())

	if len(chat.Messages) != 3 {
		t.Fatalf("Expected 3 persisted messages, got %d", len(chat.Messages))
	}
	last := chat.Messages[len(chat.Messages)-1]
	if last.Type != TypeEnd || last.Content != "end" {
		t.Errorf("Expected trailing end sentinel, got type %q content %q", last.Type, last.Content)
	}
	if len(state.Messages) != 2 {
		t.Errorf("Expected in-memory state untouched, got %d messages", len(state.Messages))
	}
}

func TestBuildChat_Metadata(t *testing.T) {
	state := NewState()
	state.Append(Message{Role: RoleUser, Content: `{"input":"hello"}`, Type: TypeInput})

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	chat := BuildChat(state, "user-7", now)

	if chat.ID != state.ChatID {
		t.Errorf("Expected chat ID %q, got %q", state.ChatID, chat.ID)
	}
	if chat.Path != "/search/"+state.ChatID {
		t.Errorf("Unexpected path %q", chat.Path)
	}
	if chat.Title != "hello" {
		t.Errorf("Expected title derived from input, got %q", chat.Title)
	}
	if chat.UserID != "user-7" || !chat.CreatedAt.Equal(now) {
		t.Errorf("Unexpected metadata: user %q, created %v", chat.UserID, chat.CreatedAt)
	}
}
