package searchpilot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Desarso/searchpilot/agents"
	"github.com/Desarso/searchpilot/chats"
	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
)

// ErrorFallbackMessage is shown when a turn fails without partial output.
const ErrorFallbackMessage = "An error occurred. Please try again."

// TurnRequest is one user submission.
type TurnRequest struct {
	// Form holds the submitted fields. The "input" key marks a fresh query,
	// "related_query" a follow-up suggestion click, anything else an
	// inquiry response.
	Form map[string]string
	// Skip bypasses classification and proceeds straight to research.
	Skip bool
	// Retry replays the given message log instead of the stored state.
	Retry []chats.Message
}

// TurnResult exposes the three per-turn streams. Each channel closes exactly
// once, when the turn is over.
type TurnResult struct {
	TurnID     string
	UI         <-chan streams.Event
	Generating <-chan bool
	Collapsed  <-chan bool
}

// Submit starts a turn against the given conversation state and returns the
// stream handles immediately. The turn runs in its own goroutine; the caller
// owns the state and must not mutate it until the streams close.
func (c *Copilot) Submit(ctx context.Context, state *chats.State, req TurnRequest) TurnResult {
	turnID := uuid.NewString()
	set := streams.NewSet()
	set.Generating.Send(true)

	go c.runTurn(ctx, state, req, set, turnID)

	return TurnResult{
		TurnID:     turnID,
		UI:         set.UI.C(),
		Generating: set.Generating.C(),
		Collapsed:  set.Collapsed.C(),
	}
}

func (c *Copilot) runTurn(ctx context.Context, state *chats.State, req TurnRequest, set *streams.Set, turnID string) {
	defer set.CloseAll()
	log := c.Log.WithChat(state.ChatID, turnID)
	groupID := uuid.NewString()

	source := state.Messages
	if len(req.Retry) > 0 {
		source = req.Retry
	}
	visible := chats.ModelVisible(source, c.Provider.HistoryWindow)

	userInput := c.appendUserInput(state, &visible, req, turnID)

	set.UI.Send(streams.Update(streams.KindSpinner, nil))

	next := agents.ActionProceed
	if !req.Skip {
		if action := agents.TaskManager(ctx, c.Classifier, visible, log); action != nil {
			next = action.Next
		}
	}

	if next == agents.ActionInquire {
		c.runInquiry(ctx, state, visible, set, log)
		return
	}

	set.Collapsed.DoneWith(true)

	answer := ""
	errorOccurred := false
	if c.allowsResearch(userInput) {
		answer, errorOccurred = c.runResearch(ctx, state, &visible, set, groupID, log)
	} else {
		answer, errorOccurred = agents.Write(ctx, c.Writer, set, visible, log)
		if answer != "" {
			visible = append(visible, models.ChatMessage{Role: models.ChatRoleAssistant, Content: answer})
		}
	}

	if errorOccurred {
		display := answer
		if display == "" {
			display = ErrorFallbackMessage
		}
		set.UI.Send(streams.Append(streams.KindError, display))
		set.Generating.DoneWith(false)
		if c.Config.FinalizeOnError {
			c.finalize(state, log)
		}
		return
	}

	state.Append(chats.Message{
		ID:      groupID,
		Role:    chats.RoleAssistant,
		Content: answer,
		Type:    chats.TypeAnswer,
	})

	related, err := agents.SuggestRelated(ctx, c.Generator, set, chats.FlattenToolMessages(visible), log)
	if err != nil {
		log.Warn("related query suggestion failed", "error", err)
	}
	if related == nil {
		related = &agents.Related{Items: []string{}}
	}
	relatedJSON, _ := json.Marshal(related)
	state.Append(chats.Message{
		ID:      groupID,
		Role:    chats.RoleAssistant,
		Content: string(relatedJSON),
		Type:    chats.TypeRelated,
	})

	set.UI.Send(streams.Append(streams.KindFollowup, nil))
	state.Append(chats.Message{
		ID:      groupID,
		Role:    chats.RoleAssistant,
		Content: "followup",
		Type:    chats.TypeFollowup,
	})

	set.Generating.DoneWith(false)
	c.finalize(state, log)
}

// appendUserInput records the submission on the state and the visible
// history, and returns the raw user input text for gating.
func (c *Copilot) appendUserInput(state *chats.State, visible *[]models.ChatMessage, req TurnRequest, turnID string) string {
	var content string
	var msgType chats.MessageType
	userInput := ""

	switch {
	case req.Skip:
		content = `{"action": "skip"}`
		msgType = chats.TypeNone
	case req.Form != nil:
		encoded, err := json.Marshal(req.Form)
		if err != nil {
			return ""
		}
		content = string(encoded)
		if v, ok := req.Form["input"]; ok {
			msgType = chats.TypeInput
			userInput = v
		} else if v, ok := req.Form["related_query"]; ok {
			msgType = chats.TypeInputRelated
			userInput = v
		} else {
			msgType = chats.TypeInquiry
		}
	default:
		return ""
	}

	state.Append(chats.Message{
		ID:      turnID,
		Role:    chats.RoleUser,
		Content: content,
		Type:    msgType,
	})
	*visible = append(*visible, models.ChatMessage{
		Role:    models.ChatRoleUser,
		Content: content,
	})
	return userInput
}

func (c *Copilot) runInquiry(ctx context.Context, state *chats.State, visible []models.ChatMessage, set *streams.Set, log *logger.Logger) {
	inquiry, err := agents.Inquire(ctx, c.Generator, set, visible, log)
	question := ""
	if err != nil {
		log.Error("inquiry failed", "error", err)
	} else if inquiry != nil {
		question = inquiry.Question
	}

	set.Collapsed.DoneWith(false)
	set.Generating.DoneWith(false)

	state.Append(chats.Message{
		ID:      uuid.NewString(),
		Role:    chats.RoleAssistant,
		Content: "inquiry: " + question,
		Type:    chats.TypeInquiry,
	})
	c.finalize(state, log)
}

// runResearch drives the bounded research loop, persisting tool output per
// iteration, and falls back to the writer when the provider stops at tool
// calls without composing an answer.
func (c *Copilot) runResearch(ctx context.Context, state *chats.State, visible *[]models.ChatMessage, set *streams.Set, groupID string, log *logger.Logger) (string, bool) {
	if c.Provider.SupportsStreamingAnswerDirectly {
		set.UI.Send(streams.Update(streams.KindAnswer, ""))
	}

	answer := ""
	stopReason := ""
	errorOccurred := false
	toolOutputCount := 0
	iterations := 0

	for {
		if iterations >= c.Config.MaxResearchIterations {
			errorOccurred = true
			answer = fmt.Sprintf("Error: research loop exceeded %d iterations", c.Config.MaxResearchIterations)
			set.UI.Send(streams.Update(streams.KindAnswer, answer))
			break
		}
		iterations++

		hasToolResult := false
		for _, msg := range *visible {
			if msg.Role == models.ChatRoleTool {
				hasToolResult = true
				break
			}
		}

		result := agents.Research(ctx, c.researchModel(hasToolResult), c.Executor, set, visible, c.Declarations, agents.ResearchOptions{
			FlattenTools: c.Config.UsesOllama(),
			StreamDirect: c.Provider.SupportsStreamingAnswerDirectly,
		}, log)
		answer = result.Answer
		stopReason = result.FinishReason
		errorOccurred = result.HasError
		toolOutputCount = len(result.ToolOutputs)

		for _, out := range result.ToolOutputs {
			state.Append(chats.Message{
				ID:      groupID,
				Role:    chats.RoleTool,
				Content: out.Result,
				Type:    chats.TypeTool,
				Name:    out.Name,
			})
		}

		if errorOccurred {
			break
		}
		if c.Provider.LoopMode == LoopToolCallCount {
			if toolOutputCount > 0 || answer != "" {
				break
			}
		} else {
			if stopReason == models.FinishStop && answer != "" {
				break
			}
		}
	}

	if c.Provider.LoopMode == LoopToolCallCount && answer == "" && !errorOccurred {
		flattened := chats.FlattenToolMessages(*visible)
		if len(flattened) > c.Provider.HistoryWindow {
			flattened = flattened[len(flattened)-c.Provider.HistoryWindow:]
		}
		answer, errorOccurred = agents.Write(ctx, c.Writer, set, flattened, log)
		if answer != "" && !errorOccurred {
			*visible = append(*visible, models.ChatMessage{Role: models.ChatRoleAssistant, Content: answer})
		}
	}
	return answer, errorOccurred
}

// allowsResearch gates the research loop on the submitted query. An empty
// keyword list always allows research.
func (c *Copilot) allowsResearch(userInput string) bool {
	if len(c.Config.SearchKeywords) == 0 {
		return true
	}
	if userInput == "" {
		return true
	}
	lowered := strings.ToLower(userInput)
	for _, kw := range c.Config.SearchKeywords {
		if strings.Contains(lowered, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// finalize persists the conversation when it has at least one answer.
func (c *Copilot) finalize(state *chats.State, log *logger.Logger) {
	if !state.HasAnswer() {
		return
	}
	chat := chats.BuildChat(state, c.Config.UserID, time.Now())
	if err := c.Store.SaveChat(chat); err != nil {
		log.Error("failed to save chat", "chat_id", state.ChatID, "error", err)
	}
}
