package searchpilot

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config carries everything needed to assemble a Copilot. Values come from
// the environment; LoadConfig applies defaults for anything unset.
type Config struct {
	// Primary provider.
	OpenAIAPIKey string
	OpenAIModel  string
	BaseURL      string

	// Writer-only endpoint, enabled when UseSpecificAPIForWriter is set.
	UseSpecificAPIForWriter bool
	SpecificAPIBase         string
	SpecificAPIKey          string
	SpecificAPIModel        string

	// Ollama compatibility mode.
	OllamaModel    string
	OllamaSubModel string
	OllamaBaseURL  string

	// Extra providers.
	AnthropicAPIKey string
	GoogleAPIKey    string

	// Infrastructure.
	RedisAddr   string
	DatabaseURL string
	Port        string
	LogLevel    string
	LogFormat   string

	// Orchestration policy.
	MaxResearchIterations int
	FinalizeOnError       bool
	SearchKeywords        []string
	UserID                string
	RetentionDays         int
}

const (
	defaultMaxResearchIterations = 5
	defaultUserID                = "anonymous"
	defaultPort                  = "8080"
)

// LoadConfig reads configuration from a .env file (if present) and the
// environment.
func LoadConfig() Config {
	_ = godotenv.Load()

	cfg := Config{
		OpenAIAPIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:             envDefault("OPENAI_MODEL", "gpt-4o-mini"),
		BaseURL:                 os.Getenv("OPENAI_BASE_URL"),
		UseSpecificAPIForWriter: envBool("USE_SPECIFIC_API_FOR_WRITER"),
		SpecificAPIBase:         os.Getenv("SPECIFIC_API_BASE"),
		SpecificAPIKey:          os.Getenv("SPECIFIC_API_KEY"),
		SpecificAPIModel:        envDefault("SPECIFIC_API_MODEL", "llama3-70b-8192"),
		OllamaModel:             os.Getenv("OLLAMA_MODEL"),
		OllamaSubModel:          os.Getenv("OLLAMA_SUB_MODEL"),
		OllamaBaseURL:           os.Getenv("OLLAMA_BASE_URL"),
		AnthropicAPIKey:         os.Getenv("ANTHROPIC_API_KEY"),
		GoogleAPIKey:            os.Getenv("GOOGLE_GENERATIVE_AI_API_KEY"),
		RedisAddr:               os.Getenv("REDIS_ADDR"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		Port:                    envDefault("PORT", defaultPort),
		LogLevel:                os.Getenv("LOG_LEVEL"),
		LogFormat:               os.Getenv("LOG_FORMAT"),
		MaxResearchIterations:   envInt("MAX_RESEARCH_ITERATIONS", defaultMaxResearchIterations),
		FinalizeOnError:         envBoolDefault("FINALIZE_ON_ERROR", true),
		UserID:                  envDefault("USER_ID", defaultUserID),
		RetentionDays:           envInt("CHAT_RETENTION_DAYS", 0),
	}
	if keywords := os.Getenv("SEARCH_KEYWORDS"); keywords != "" {
		for _, kw := range strings.Split(keywords, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				cfg.SearchKeywords = append(cfg.SearchKeywords, kw)
			}
		}
	}
	return cfg
}

// UsesOllama reports whether the Ollama compatibility mode is active.
func (c Config) UsesOllama() bool {
	return c.OllamaModel != "" && c.OllamaBaseURL != ""
}

// UsesSpecificAPI reports whether the dedicated writer endpoint is active.
func (c Config) UsesSpecificAPI() bool {
	return c.UseSpecificAPIForWriter && c.SpecificAPIBase != "" && c.SpecificAPIKey != ""
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && v
}

func envBoolDefault(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func envInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}
