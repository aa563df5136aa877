package agents

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
)

const (
	// NextAction values.
	ActionProceed = "proceed"
	ActionInquire = "inquire"
)

// NextAction is the classifier's decision for a turn.
type NextAction struct {
	Next string `json:"next"`
}

// TaskManager decides whether the turn needs a clarifying inquiry or can
// proceed straight to research. It fails open: any failure returns nil and
// the caller proceeds.
func TaskManager(ctx context.Context, m CompletionModel, messages []models.ChatMessage, log *logger.Logger) *NextAction {
	resp, err := m.Complete(ctx, models.Request{
		System:   taskManagerPrompt,
		Messages: messages,
		JSONMode: true,
	})
	if err != nil {
		log.Warn("task manager failed, proceeding", "error", err)
		return nil
	}

	var action NextAction
	if err := json.Unmarshal([]byte(extractJSONObject(resp.Text)), &action); err != nil {
		log.Warn("task manager returned unparseable output, proceeding", "output", resp.Text)
		return nil
	}
	if action.Next != ActionProceed && action.Next != ActionInquire {
		log.Warn("task manager returned unknown action, proceeding", "next", action.Next)
		return nil
	}
	return &action
}

// extractJSONObject returns the first balanced JSON object in s, for models
// that wrap their JSON output in prose or code fences.
func extractJSONObject(s string) string {
	start := strings.Index(s, "{")
	if start < 0 {
		return s
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if escaped {
			escaped = false
			continue
		}
		if inString {
			switch c {
			case '\\':
				escaped = true
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return s[start:]
}
