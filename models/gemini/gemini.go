// Package gemini implements a model backed by the Google Gemini API. It is
// used for classification and suggestion duties; tool calling goes through
// the OpenAI-compatible transport instead.
package gemini

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/genai"

	"github.com/Desarso/searchpilot/models"
)

const defaultModel = "gemini-2.0-flash"

// Model is a Gemini-backed chat model.
type Model struct {
	Model     string // model identifier, e.g. "gemini-2.0-flash"
	APIKeyEnv string // env var holding the API key; defaults to GOOGLE_GENERATIVE_AI_API_KEY
}

func (m *Model) newClient(ctx context.Context) (*genai.Client, error) {
	apiKeyEnv := m.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "GOOGLE_GENERATIVE_AI_API_KEY"
	}
	cfg := &genai.ClientConfig{Backend: genai.BackendGeminiAPI}
	if key := os.Getenv(apiKeyEnv); key != "" {
		cfg.APIKey = key
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

func (m *Model) modelName() string {
	if m.Model != "" {
		return m.Model
	}
	return defaultModel
}

func buildContents(msgs []models.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := genai.RoleUser
		if msg.Role == models.ChatRoleAssistant {
			role = genai.RoleModel
		}
		content := msg.Content
		if msg.Role == models.ChatRoleTool {
			name := msg.Name
			if name == "" {
				name = "tool"
			}
			content = fmt.Sprintf("Results from the %s tool:\n%s", name, content)
		}
		if content == "" {
			continue
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []*genai.Part{{Text: content}},
		})
	}
	return contents
}

func buildConfig(req models.Request) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.JSONMode {
		cfg.ResponseMIMEType = "application/json"
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	return cfg
}

// Complete implements a single-shot model invocation.
func (m *Model) Complete(ctx context.Context, req models.Request) (models.Response, error) {
	client, err := m.newClient(ctx)
	if err != nil {
		return models.Response{}, err
	}

	contents := buildContents(req.Messages)
	if len(contents) == 0 {
		return models.Response{}, fmt.Errorf("cannot create Gemini request with no messages")
	}

	result, err := client.Models.GenerateContent(ctx, m.modelName(), contents, buildConfig(req))
	if err != nil {
		return models.Response{}, fmt.Errorf("Gemini request failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return models.Response{}, fmt.Errorf("Gemini response contained no candidates")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	return models.Response{Text: text, FinishReason: models.FinishStop}, nil
}

// Stream implements a streaming model invocation. Gemini streams text only
// here; tool-calling models use the OpenAI-compatible transport.
func (m *Model) Stream(ctx context.Context, req models.Request) (<-chan models.Delta, <-chan error) {
	deltaChan := make(chan models.Delta)
	errChan := make(chan error, 1)

	go func() {
		defer close(deltaChan)
		defer close(errChan)

		client, err := m.newClient(ctx)
		if err != nil {
			errChan <- err
			return
		}

		contents := buildContents(req.Messages)
		if len(contents) == 0 {
			errChan <- fmt.Errorf("cannot create Gemini request with no messages")
			return
		}

		stream := client.Models.GenerateContentStream(ctx, m.modelName(), contents, buildConfig(req))
		for chunk, err := range stream {
			if err != nil {
				errChan <- fmt.Errorf("Gemini stream failed: %w", err)
				return
			}
			if len(chunk.Candidates) == 0 || chunk.Candidates[0].Content == nil {
				continue
			}
			for _, part := range chunk.Candidates[0].Content.Parts {
				if part.Text != "" {
					deltaChan <- models.Delta{Text: part.Text}
				}
			}
		}
		deltaChan <- models.Delta{FinishReason: models.FinishStop}
	}()

	return deltaChan, errChan
}
