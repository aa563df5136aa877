package searchpilot

// LoopMode selects how the research loop decides it is finished.
type LoopMode string

const (
	// LoopToolCallCount exits once a tool has produced output, an answer
	// exists, or an error occurred. Providers in this mode stop generating
	// after emitting tool calls, so the answer comes from a follow-up pass.
	LoopToolCallCount LoopMode = "toolcall-count"
	// LoopStopReason exits when the model reports a natural stop with an
	// answer in hand, or an error occurred.
	LoopStopReason LoopMode = "stop-reason"
)

// Provider describes the behavior profile of the active model provider.
type Provider struct {
	// HistoryWindow limits how many model-visible messages are replayed.
	HistoryWindow int
	// LoopMode picks the research loop's termination rule.
	LoopMode LoopMode
	// UsesSubModelOnToolReplay switches to a smaller model once tool
	// results are in the context.
	UsesSubModelOnToolReplay bool
	// SupportsStreamingAnswerDirectly streams the first answer into the
	// top-level text instead of a dedicated section.
	SupportsStreamingAnswerDirectly bool
}

// SelectProvider derives the provider profile from configuration. It is a
// pure function of the config.
func SelectProvider(cfg Config) Provider {
	p := Provider{
		HistoryWindow: 10,
		LoopMode:      LoopStopReason,
	}
	if cfg.UsesOllama() {
		p.HistoryWindow = 1
		p.UsesSubModelOnToolReplay = cfg.OllamaSubModel != ""
	}
	if cfg.UsesSpecificAPI() {
		p.HistoryWindow = 5
		p.LoopMode = LoopToolCallCount
	}
	if cfg.AnthropicAPIKey != "" {
		p.SupportsStreamingAnswerDirectly = true
	}
	return p
}
