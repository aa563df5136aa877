package agents

import (
	"context"
	"encoding/json"

	"github.com/Desarso/searchpilot/chats"
	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
	"github.com/Desarso/searchpilot/tools"
)

const researchMaxTokens = 2500

// ToolOutput is the result of one tool invocation during research.
type ToolOutput struct {
	Name   string
	Result string
}

// ResearchResult is the outcome of one research iteration.
type ResearchResult struct {
	Answer       string
	ToolOutputs  []ToolOutput
	HasError     bool
	FinishReason string
}

// ResearchOptions tune one research iteration for the active provider.
type ResearchOptions struct {
	// FlattenTools rewrites tool messages as assistant messages before the
	// request, for providers that reject the tool role.
	FlattenTools bool
	// StreamDirect streams answer text straight into the top-level answer
	// instead of a dedicated section, until a tool result exists.
	StreamDirect bool
	MaxTokens    int
}

// Research runs one iteration of the research loop: stream the model with
// tools available, execute any tool calls as they complete, and render
// results into the UI. The visible history is extended in place with the
// assistant turn and the tool outputs.
func Research(ctx context.Context, m StreamModel, exec tools.Executor, set *streams.Set, visible *[]models.ChatMessage, declarations []models.FunctionDeclaration, opts ResearchOptions, log *logger.Logger) ResearchResult {
	processed := *visible
	if opts.FlattenTools {
		processed = chats.FlattenToolMessages(processed)
	}
	hasToolResult := false
	for _, msg := range *visible {
		if msg.Role == models.ChatRoleTool {
			hasToolResult = true
			break
		}
	}

	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = researchMaxTokens
	}

	if !opts.StreamDirect || hasToolResult {
		set.UI.Send(streams.Append(streams.KindAnswer, ""))
	}

	deltas, errs := m.Stream(ctx, models.Request{
		System:    researcherPrompt(),
		Messages:  processed,
		Tools:     declarations,
		MaxTokens: maxTokens,
	})

	result := ResearchResult{}
	for deltas != nil || errs != nil {
		select {
		case delta, ok := <-deltas:
			if !ok {
				deltas = nil
				continue
			}
			switch {
			case delta.Text != "":
				result.Answer += delta.Text
				set.UI.Send(streams.Update(streams.KindAnswer, result.Answer))
			case delta.ToolCall != nil:
				call := delta.ToolCall
				log.Info("executing tool", "tool", call.Name)
				output, err := exec.Execute(ctx, call.Name, call.Args)
				if err != nil {
					log.Error("tool execution failed", "tool", call.Name, "error", err)
					result.HasError = true
					result.Answer += "\nError occurred while executing the tool"
					continue
				}
				if output == "" {
					result.HasError = true
				}
				result.ToolOutputs = append(result.ToolOutputs, ToolOutput{Name: call.Name, Result: output})
				set.UI.Send(streams.Append(sectionKind(call.Name), json.RawMessage(output)))
			case delta.FinishReason != "":
				result.FinishReason = delta.FinishReason
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				log.Error("research stream failed", "error", err)
				result.HasError = true
				result.Answer = "Error: " + err.Error()
				set.UI.Send(streams.Update(streams.KindAnswer, result.Answer))
				return result
			}
		}
	}

	if result.Answer != "" {
		*visible = append(*visible, models.ChatMessage{
			Role:    models.ChatRoleAssistant,
			Content: result.Answer,
		})
	}
	for _, out := range result.ToolOutputs {
		*visible = append(*visible, models.ChatMessage{
			Role:    models.ChatRoleTool,
			Name:    out.Name,
			Content: out.Result,
		})
	}
	return result
}

func sectionKind(toolName string) streams.FragmentKind {
	switch toolName {
	case "search":
		return streams.KindSearchResults
	case "retrieve":
		return streams.KindRetrievedPage
	case "videoSearch":
		return streams.KindVideoResults
	default:
		return streams.KindSearchResults
	}
}
