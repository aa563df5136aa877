package chats

import (
	"encoding/json"
	"time"
)

const (
	// UntitledChat is used when no title can be derived from the first message.
	UntitledChat = "Untitled"

	maxTitleLength = 100
)

// Chat is the persisted form of a conversation: metadata plus the full
// message log, including the trailing end sentinel.
type Chat struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UserID    string    `json:"userId"`
	Path      string    `json:"path"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
}

// BuildChat assembles the persistable chat record from in-memory state.
// The end sentinel is appended to the persisted copy only; the in-memory
// state keeps accepting turns without it.
func BuildChat(state *State, userID string, now time.Time) Chat {
	msgs := make([]Message, 0, len(state.Messages)+1)
	msgs = append(msgs, state.Messages...)
	msgs = append(msgs, Message{
		ID:      NewMessage(RoleAssistant, "end", TypeEnd).ID,
		Role:    RoleAssistant,
		Content: "end",
		Type:    TypeEnd,
	})

	return Chat{
		ID:        state.ChatID,
		CreatedAt: now,
		UserID:    userID,
		Path:      "/search/" + state.ChatID,
		Title:     DeriveTitle(state.Messages),
		Messages:  msgs,
	}
}

// DeriveTitle parses the first message's content as a form payload and takes
// the first 100 characters of its "input" field. Any parse failure falls
// back to a placeholder.
func DeriveTitle(msgs []Message) string {
	if len(msgs) == 0 {
		return UntitledChat
	}
	var payload struct {
		Input string `json:"input"`
	}
	if err := json.Unmarshal([]byte(msgs[0].Content), &payload); err != nil || payload.Input == "" {
		return UntitledChat
	}
	title := []rune(payload.Input)
	if len(title) > maxTitleLength {
		title = title[:maxTitleLength]
	}
	return string(title)
}
