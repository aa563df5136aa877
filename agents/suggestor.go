package agents

import (
	"context"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
)

// Related holds follow-up queries suggested after an answer.
type Related struct {
	Items []string `json:"items"`
}

// SuggestRelated streams three follow-up queries building on the answered
// turn. Only the last visible message is sent, re-roled as a user message.
// Failures are non-fatal: whatever accumulated before the failure is
// returned alongside the error, possibly an empty list.
func SuggestRelated(ctx context.Context, m StreamModel, set *streams.Set, messages []models.ChatMessage, log *logger.Logger) (*Related, error) {
	set.UI.Send(streams.Append(streams.KindRelated, Related{}))

	last := messages
	if len(last) > 1 {
		last = last[len(last)-1:]
	}
	reRoled := make([]models.ChatMessage, len(last))
	for i, msg := range last {
		reRoled[i] = msg
		reRoled[i].Role = models.ChatRoleUser
	}

	deltas, errs := m.Stream(ctx, models.Request{
		System:   suggestorPrompt,
		Messages: reRoled,
		JSONMode: true,
	})

	accumulated := ""
	final := &Related{Items: []string{}}
	for deltas != nil || errs != nil {
		select {
		case delta, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			if delta.Text == "" {
				continue
			}
			accumulated += delta.Text
			var related Related
			if parsePartial(accumulated, &related) && len(related.Items) > 0 {
				final = &related
				set.UI.Send(streams.Update(streams.KindRelated, related))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				log.Warn("query suggestor failed", "error", err, "items", len(final.Items))
				return final, err
			}
		}
	}

	if len(final.Items) == 0 {
		log.Warn("query suggestor produced no items", "output", accumulated)
	}
	return final, nil
}
