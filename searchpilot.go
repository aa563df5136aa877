// Package searchpilot orchestrates search copilot turns: a classifier
// decides between inquiry and research, a tool-calling research loop
// gathers web context, a writer composes answers when the research model
// stops at tool calls, and a suggestor proposes follow-up queries. Turn
// progress streams over channels; completed turns persist to a chat store.
package searchpilot

import (
	"github.com/Desarso/searchpilot/agents"
	"github.com/Desarso/searchpilot/chats"
	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
	"github.com/Desarso/searchpilot/models/gemini"
	"github.com/Desarso/searchpilot/models/openaichat"
	"github.com/Desarso/searchpilot/tools"
)

// Copilot runs turns against a chat store. Construct with New, or populate
// the fields directly in tests.
type Copilot struct {
	Config       Config
	Provider     Provider
	Research     agents.StreamModel // tool-calling research model
	Sub          agents.StreamModel // smaller model for tool replay, may be nil
	Writer       agents.StreamModel // composes answers from tool output
	Generator    agents.StreamModel // inquiry and suggestion streaming
	Classifier   agents.CompletionModel
	Executor     tools.Executor
	Declarations []models.FunctionDeclaration
	Store        chats.Store
	Log          *logger.Logger
}

// New assembles a Copilot from configuration.
func New(cfg Config, store chats.Store, executor tools.Executor, declarations []models.FunctionDeclaration, log *logger.Logger) *Copilot {
	c := &Copilot{
		Config:       cfg,
		Provider:     SelectProvider(cfg),
		Executor:     executor,
		Declarations: declarations,
		Store:        store,
		Log:          log,
	}

	if cfg.UsesOllama() {
		base := cfg.OllamaBaseURL + "/v1/chat/completions"
		c.Research = &openaichat.Model{Model: cfg.OllamaModel, BaseURL: base, APIKeyEnv: "OLLAMA_API_KEY"}
		if cfg.OllamaSubModel != "" {
			c.Sub = &openaichat.Model{Model: cfg.OllamaSubModel, BaseURL: base, APIKeyEnv: "OLLAMA_API_KEY"}
		}
	} else {
		c.Research = &openaichat.Model{Model: cfg.OpenAIModel, BaseURL: cfg.BaseURL}
	}

	if cfg.UsesSpecificAPI() {
		c.Writer = &openaichat.Model{
			Model:     cfg.SpecificAPIModel,
			BaseURL:   cfg.SpecificAPIBase,
			APIKeyEnv: "SPECIFIC_API_KEY",
		}
	} else {
		c.Writer = c.Research
	}

	if cfg.GoogleAPIKey != "" {
		g := &gemini.Model{}
		c.Classifier = g
		c.Generator = g
	} else {
		m := c.Research.(*openaichat.Model)
		c.Classifier = m
		c.Generator = m
	}
	return c
}

// researchModel picks the model for a research iteration. Providers that
// replay tool output through a smaller model switch once the visible
// history carries a tool message.
func (c *Copilot) researchModel(hasToolResult bool) agents.StreamModel {
	if hasToolResult && c.Provider.UsesSubModelOnToolReplay && c.Sub != nil {
		return c.Sub
	}
	return c.Research
}
