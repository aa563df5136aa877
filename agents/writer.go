package agents

import (
	"context"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
)

// Write composes a final answer from accumulated research context when the
// research model stopped at tool calls. Returns the answer text and whether
// an error occurred.
func Write(ctx context.Context, m StreamModel, set *streams.Set, messages []models.ChatMessage, log *logger.Logger) (string, bool) {
	set.UI.Send(streams.Append(streams.KindAnswer, ""))

	deltas, errs := m.Stream(ctx, models.Request{
		System:    writerPrompt,
		Messages:  messages,
		MaxTokens: researchMaxTokens,
	})

	answer := ""
	for deltas != nil || errs != nil {
		select {
		case delta, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			if delta.Text != "" {
				answer += delta.Text
				set.UI.Send(streams.Update(streams.KindAnswer, answer))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				log.Error("writer stream failed", "error", err)
				answer = "Error: " + err.Error()
				set.UI.Send(streams.Update(streams.KindAnswer, answer))
				return answer, true
			}
		}
	}
	return answer, false
}
