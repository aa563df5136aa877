package agents

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/streams"
)

// fakeStream replays scripted deltas, then an optional error.
type fakeStream struct {
	deltas  []models.Delta
	err     error
	lastReq models.Request
}

func (f *fakeStream) Stream(ctx context.Context, req models.Request) (<-chan models.Delta, <-chan error) {
	f.lastReq = req
	d := make(chan models.Delta)
	e := make(chan error, 1)
	go func() {
		defer close(d)
		defer close(e)
		for _, delta := range f.deltas {
			d <- delta
		}
		if f.err != nil {
			e <- f.err
		}
	}()
	return d, e
}

type fakeCompletion struct {
	resp    models.Response
	err     error
	lastReq models.Request
}

func (f *fakeCompletion) Complete(ctx context.Context, req models.Request) (models.Response, error) {
	f.lastReq = req
	return f.resp, f.err
}

// fakeExecutor returns canned results per tool name.
type fakeExecutor struct {
	results map[string]string
	err     error
	calls   []string
}

func (f *fakeExecutor) Execute(ctx context.Context, name, args string) (string, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return "", f.err
	}
	return f.results[name], nil
}

func textDeltas(chunks ...string) []models.Delta {
	out := make([]models.Delta, 0, len(chunks)+1)
	for _, c := range chunks {
		out = append(out, models.Delta{Text: c})
	}
	out = append(out, models.Delta{FinishReason: models.FinishStop})
	return out
}

func drainUI(set *streams.Set) []streams.Event {
	set.CloseAll()
	var events []streams.Event
	for ev := range set.UI.C() {
		events = append(events, ev)
	}
	return events
}

func userMessages(content string) []models.ChatMessage {
	return []models.ChatMessage{{Role: models.ChatRoleUser, Content: content}}
}

func TestTaskManager_Proceed(t *testing.T) {
	m := &fakeCompletion{resp: models.Response{Text: `{"next":"proceed"}`}}
	action := TaskManager(context.Background(), m, userMessages("hi"), logger.Discard())
	if action == nil || action.Next != ActionProceed {
		t.Errorf("Expected proceed action, got %+v", action)
	}
	if !m.lastReq.JSONMode {
		t.Error("Expected classifier request in JSON mode")
	}
}

func TestTaskManager_InquireWrappedInProse(t *testing.T) {
	m := &fakeCompletion{resp: models.Response{Text: "Here is my decision: {\"next\":\"inquire\"}"}}
	action := TaskManager(context.Background(), m, userMessages("hi"), logger.Discard())
	if action == nil || action.Next != ActionInquire {
		t.Errorf("Expected inquire action, got %+v", action)
	}
}

func TestTaskManager_FailsOpen(t *testing.T) {
	tests := []struct {
		name string
		m    *fakeCompletion
	}{
		{"model error", &fakeCompletion{err: errors.New("boom")}},
		{"unparseable output", &fakeCompletion{resp: models.Response{Text: "no json here"}}},
		{"unknown action", &fakeCompletion{resp: models.Response{Text: `{"next":"dance"}`}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action := TaskManager(context.Background(), tt.m, userMessages("hi"), logger.Discard())
			if action != nil {
				t.Errorf("Expected nil action, got %+v", action)
			}
		})
	}
}

func TestInquire_StreamsRefinements(t *testing.T) {
	m := &fakeStream{deltas: textDeltas(
		`{"question":"Which`,
		` aspect?","options":[{"value":"history","label":"History"}],`,
		`"allowsInput":true}`,
	)}
	set := streams.NewSet()

	inquiry, err := Inquire(context.Background(), m, set, userMessages("tell me about Go"), logger.Discard())
	if err != nil {
		t.Fatalf("Inquire failed: %v", err)
	}
	if inquiry.Question != "Which aspect?" {
		t.Errorf("Expected final question, got %q", inquiry.Question)
	}
	if len(inquiry.Options) != 1 || inquiry.Options[0].Value != "history" {
		t.Errorf("Expected one option with value history, got %+v", inquiry.Options)
	}
	if !inquiry.AllowsInput {
		t.Error("Expected allowsInput true")
	}

	events := drainUI(set)
	if len(events) < 2 {
		t.Fatalf("Expected initial placeholder plus refinements, got %d events", len(events))
	}
	for _, ev := range events {
		if ev.Fragment.Kind != streams.KindCopilot {
			t.Errorf("Expected only copilot events, got %s", ev.Fragment.Kind)
		}
	}
}

func TestInquire_StreamError(t *testing.T) {
	m := &fakeStream{err: errors.New("connection reset")}
	set := streams.NewSet()

	_, err := Inquire(context.Background(), m, set, userMessages("hi"), logger.Discard())
	if err == nil {
		t.Error("Expected error from failed stream")
	}
	drainUI(set)
}

func TestResearch_TextAnswer(t *testing.T) {
	m := &fakeStream{deltas: textDeltas("The answer", " is 42.")}
	set := streams.NewSet()
	visible := userMessages("what is the answer?")

	result := Research(context.Background(), m, &fakeExecutor{}, set, &visible, nil, ResearchOptions{}, logger.Discard())

	if result.HasError {
		t.Error("Expected no error")
	}
	if result.Answer != "The answer is 42." {
		t.Errorf("Unexpected answer %q", result.Answer)
	}
	if result.FinishReason != models.FinishStop {
		t.Errorf("Expected stop finish reason, got %q", result.FinishReason)
	}
	if len(visible) != 2 || visible[1].Role != models.ChatRoleAssistant {
		t.Errorf("Expected assistant message appended to history, got %+v", visible)
	}

	events := drainUI(set)
	sawAnswer := false
	for _, ev := range events {
		if ev.Fragment.Kind == streams.KindAnswer && ev.Op == streams.OpUpdate {
			sawAnswer = true
		}
	}
	if !sawAnswer {
		t.Error("Expected answer updates in the UI stream")
	}
}

func TestResearch_ExecutesToolCall(t *testing.T) {
	m := &fakeStream{deltas: []models.Delta{
		{ToolCall: &models.ToolCall{ID: "c1", Name: "search", Args: `{"query":"go"}`}},
		{FinishReason: models.FinishToolCalls},
	}}
	exec := &fakeExecutor{results: map[string]string{"search": `{"results":[{"title":"Go"}]}`}}
	set := streams.NewSet()
	visible := userMessages("search go")

	result := Research(context.Background(), m, exec, set, &visible, nil, ResearchOptions{}, logger.Discard())

	if result.HasError {
		t.Error("Expected no error")
	}
	if len(result.ToolOutputs) != 1 || result.ToolOutputs[0].Name != "search" {
		t.Fatalf("Expected one search tool output, got %+v", result.ToolOutputs)
	}
	if result.FinishReason != models.FinishToolCalls {
		t.Errorf("Expected tool-calls finish reason, got %q", result.FinishReason)
	}
	if len(exec.calls) != 1 || exec.calls[0] != "search" {
		t.Errorf("Expected executor called once for search, got %v", exec.calls)
	}
	if len(visible) != 2 || visible[1].Role != models.ChatRoleTool || visible[1].Name != "search" {
		t.Errorf("Expected tool message appended to history, got %+v", visible)
	}

	events := drainUI(set)
	sawSection := false
	for _, ev := range events {
		if ev.Fragment.Kind == streams.KindSearchResults && ev.Op == streams.OpAppend {
			sawSection = true
		}
	}
	if !sawSection {
		t.Error("Expected a search results section appended to the UI stream")
	}
}

func TestResearch_ToolExecutionErrorIsNonTerminal(t *testing.T) {
	m := &fakeStream{deltas: []models.Delta{
		{ToolCall: &models.ToolCall{ID: "c1", Name: "search", Args: `{}`}},
		{Text: "partial"},
		{FinishReason: models.FinishStop},
	}}
	exec := &fakeExecutor{err: errors.New("upstream 500")}
	set := streams.NewSet()
	visible := userMessages("search go")

	result := Research(context.Background(), m, exec, set, &visible, nil, ResearchOptions{}, logger.Discard())

	if !result.HasError {
		t.Error("Expected HasError after tool failure")
	}
	if !strings.Contains(result.Answer, "Error occurred while executing the tool") {
		t.Errorf("Expected tool error note in answer, got %q", result.Answer)
	}
	if len(result.ToolOutputs) != 0 {
		t.Errorf("Expected no tool outputs after failure, got %+v", result.ToolOutputs)
	}
	drainUI(set)
}

func TestResearch_EmptyToolPayloadIsError(t *testing.T) {
	m := &fakeStream{deltas: []models.Delta{
		{ToolCall: &models.ToolCall{ID: "c1", Name: "search", Args: `{}`}},
		{FinishReason: models.FinishToolCalls},
	}}
	exec := &fakeExecutor{results: map[string]string{"search": ""}}
	set := streams.NewSet()
	visible := userMessages("search go")

	result := Research(context.Background(), m, exec, set, &visible, nil, ResearchOptions{}, logger.Discard())
	if !result.HasError {
		t.Error("Expected HasError for empty tool payload")
	}
	drainUI(set)
}

func TestResearch_TransportError(t *testing.T) {
	m := &fakeStream{err: errors.New("dial tcp: refused")}
	set := streams.NewSet()
	visible := userMessages("hi")

	result := Research(context.Background(), m, &fakeExecutor{}, set, &visible, nil, ResearchOptions{}, logger.Discard())

	if !result.HasError {
		t.Error("Expected HasError on transport failure")
	}
	if !strings.HasPrefix(result.Answer, "Error: ") {
		t.Errorf("Expected error-prefixed answer, got %q", result.Answer)
	}
	if len(visible) != 1 {
		t.Errorf("Expected history untouched on transport error, got %+v", visible)
	}
	drainUI(set)
}

func TestResearch_FlattensToolMessages(t *testing.T) {
	m := &fakeStream{deltas: textDeltas("done")}
	set := streams.NewSet()
	visible := []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "query"},
		{Role: models.ChatRoleTool, Name: "search", Content: `{"results":[]}`},
	}

	Research(context.Background(), m, &fakeExecutor{}, set, &visible, nil, ResearchOptions{FlattenTools: true}, logger.Discard())

	for _, msg := range m.lastReq.Messages {
		if msg.Role == models.ChatRoleTool {
			t.Error("Expected no tool-role messages in flattened request")
		}
	}
	drainUI(set)
}

func TestWrite_StreamsAnswer(t *testing.T) {
	m := &fakeStream{deltas: textDeltas("Based on the results, ", "yes.")}
	set := streams.NewSet()

	answer, hasError := Write(context.Background(), m, set, userMessages("is it true?"), logger.Discard())
	if hasError {
		t.Error("Expected no error")
	}
	if answer != "Based on the results, yes." {
		t.Errorf("Unexpected answer %q", answer)
	}
	drainUI(set)
}

func TestWrite_Error(t *testing.T) {
	m := &fakeStream{err: errors.New("quota exceeded")}
	set := streams.NewSet()

	answer, hasError := Write(context.Background(), m, set, userMessages("hi"), logger.Discard())
	if !hasError {
		t.Error("Expected error flag")
	}
	if !strings.HasPrefix(answer, "Error: ") {
		t.Errorf("Expected error-prefixed answer, got %q", answer)
	}
	drainUI(set)
}

func TestSuggestRelated_ReRolesLastMessage(t *testing.T) {
	m := &fakeStream{deltas: textDeltas(`{"items":["q1","q2","q3"]}`)}
	set := streams.NewSet()
	messages := []models.ChatMessage{
		{Role: models.ChatRoleUser, Content: "original query"},
		{Role: models.ChatRoleAssistant, Content: "the answer"},
	}

	related, err := SuggestRelated(context.Background(), m, set, messages, logger.Discard())
	if err != nil {
		t.Fatalf("SuggestRelated failed: %v", err)
	}
	if related == nil || len(related.Items) != 3 {
		t.Fatalf("Expected 3 related queries, got %+v", related)
	}

	if len(m.lastReq.Messages) != 1 {
		t.Fatalf("Expected only the last message sent, got %d", len(m.lastReq.Messages))
	}
	if m.lastReq.Messages[0].Role != models.ChatRoleUser {
		t.Errorf("Expected last message re-roled to user, got %s", m.lastReq.Messages[0].Role)
	}
	if m.lastReq.Messages[0].Content != "the answer" {
		t.Errorf("Expected last message content, got %q", m.lastReq.Messages[0].Content)
	}
	drainUI(set)
}

func TestSuggestRelated_NoItemsIsNonFatal(t *testing.T) {
	m := &fakeStream{deltas: textDeltas("not json")}
	set := streams.NewSet()

	related, err := SuggestRelated(context.Background(), m, set, userMessages("hi"), logger.Discard())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if related == nil || len(related.Items) != 0 {
		t.Errorf("Expected an empty list on unparseable output, got %+v", related)
	}
	drainUI(set)
}

func TestSuggestRelated_ReturnsAccumulatedOnStreamError(t *testing.T) {
	m := &fakeStream{
		deltas: []models.Delta{{Text: `{"items":["follow-up one","follow-up two"]`}},
		err:    errors.New("stream reset"),
	}
	set := streams.NewSet()

	related, err := SuggestRelated(context.Background(), m, set, userMessages("hi"), logger.Discard())
	if err == nil {
		t.Fatal("Expected the stream error to be reported")
	}
	if related == nil || len(related.Items) != 2 {
		t.Fatalf("Expected the accumulated queries despite the error, got %+v", related)
	}
	if related.Items[0] != "follow-up one" || related.Items[1] != "follow-up two" {
		t.Errorf("Unexpected accumulated queries %v", related.Items)
	}
	drainUI(set)
}
