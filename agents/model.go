// Package agents contains the per-turn agents: classification, inquiry,
// research, writing and query suggestion. Each agent takes a model and the
// visible conversation, streams into the UI where it applies, and returns
// a plain result for the orchestrator.
package agents

import (
	"context"

	"github.com/Desarso/searchpilot/models"
)

// StreamModel is a model that streams deltas.
type StreamModel interface {
	Stream(ctx context.Context, req models.Request) (<-chan models.Delta, <-chan error)
}

// CompletionModel is a model invoked for a single structured response.
type CompletionModel interface {
	Complete(ctx context.Context, req models.Request) (models.Response, error)
}
