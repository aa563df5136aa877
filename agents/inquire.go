package agents

import (
	"context"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
)

// InquiryOption is a predefined choice the user can pick.
type InquiryOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Inquiry is a clarifying question presented to the user before research.
type Inquiry struct {
	Question         string          `json:"question"`
	Options          []InquiryOption `json:"options"`
	AllowsInput      bool            `json:"allowsInput"`
	InputLabel       string          `json:"inputLabel,omitempty"`
	InputPlaceholder string          `json:"inputPlaceholder,omitempty"`
}

// Inquire streams a clarifying question, updating the UI with each parseable
// refinement of the partial object, and returns the final inquiry.
func Inquire(ctx context.Context, m StreamModel, set *streams.Set, messages []models.ChatMessage, log *logger.Logger) (*Inquiry, error) {
	set.UI.Send(streams.Update(streams.KindCopilot, Inquiry{}))

	deltas, errs := m.Stream(ctx, models.Request{
		System:   inquirePrompt,
		Messages: messages,
		JSONMode: true,
	})

	accumulated := ""
	var final *Inquiry
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
			var inquiry Inquiry
			if parsePartial(accumulated, &inquiry) && inquiry.Question != "" {
				final = &inquiry
				set.UI.Send(streams.Update(streams.KindCopilot, inquiry))
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return nil, err
			}
		}
	}

	if final == nil {
		log.Warn("inquire produced no parseable question", "output", accumulated)
		return &Inquiry{}, nil
	}
	return final, nil
}
