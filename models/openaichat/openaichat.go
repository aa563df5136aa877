// Package openaichat implements the model transport for OpenAI-compatible
// chat completion APIs, including streaming with tool calls. It covers the
// default provider, the "specific" writer-only endpoint and Ollama's
// compatibility layer; only the base URL, key and model name differ.
package openaichat

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Desarso/searchpilot/models"
)

const (
	defaultBaseURL = "https://api.openai.com/v1/chat/completions"
	defaultModel   = "gpt-4o-mini"
)

// Model is an OpenAI-compatible chat model.
type Model struct {
	Model       string   // model identifier, e.g. "gpt-4o-mini", "llama3-70b-8192"
	BaseURL     string   // chat completions endpoint; defaults to OpenAI
	APIKeyEnv   string   // env var holding the API key; defaults to OPENAI_API_KEY
	Temperature *float64
	Timeout     time.Duration // per-request timeout; 0 means no client timeout
}

// Complete implements a single-shot (non-streaming) model invocation.
func (m *Model) Complete(ctx context.Context, req models.Request) (models.Response, error) {
	body, err := m.buildRequest(req, false)
	if err != nil {
		return models.Response{}, err
	}

	jsonBytes, err := json.Marshal(body)
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", m.baseURL(), bytes.NewReader(jsonBytes))
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	m.setHeaders(httpReq)

	resp, err := m.client().Do(httpReq)
	if err != nil {
		return models.Response{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.Response{}, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Response{}, apiErrorFrom(resp.StatusCode, respBody)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return models.Response{}, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil {
		return models.Response{}, fmt.Errorf("response contained no choices")
	}

	out := models.Response{}
	if parsed.Choices[0].Message.Content != nil {
		out.Text = *parsed.Choices[0].Message.Content
	}
	if parsed.Choices[0].FinishReason != nil {
		out.FinishReason = normalizeFinishReason(*parsed.Choices[0].FinishReason)
	}
	return out, nil
}

// Stream implements a streaming model invocation. Text deltas are emitted
// as they arrive; tool calls are accumulated across chunks and emitted once
// their argument JSON is complete, before the final FinishReason delta.
func (m *Model) Stream(ctx context.Context, req models.Request) (<-chan models.Delta, <-chan error) {
	deltaChan := make(chan models.Delta)
	errChan := make(chan error, 1)

	go func() {
		defer close(deltaChan)
		defer close(errChan)

		body, err := m.buildRequest(req, true)
		if err != nil {
			errChan <- err
			return
		}

		jsonBytes, err := json.Marshal(body)
		if err != nil {
			errChan <- fmt.Errorf("failed to marshal request body: %w", err)
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, "POST", m.baseURL(), bytes.NewReader(jsonBytes))
		if err != nil {
			errChan <- fmt.Errorf("failed to create HTTP request: %w", err)
			return
		}
		m.setHeaders(httpReq)

		resp, err := m.client().Do(httpReq)
		if err != nil {
			errChan <- fmt.Errorf("HTTP request failed: %w", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			errChan <- apiErrorFrom(resp.StatusCode, respBody)
			return
		}

		// Tool calls stream as argument fragments keyed by index.
		toolCallAccumulator := make(map[int]*toolCall)
		finishReason := ""

		flush := func() {
			indexes := make([]int, 0, len(toolCallAccumulator))
			for idx := range toolCallAccumulator {
				indexes = append(indexes, idx)
			}
			sort.Ints(indexes)
			for _, idx := range indexes {
				tc := toolCallAccumulator[idx]
				deltaChan <- models.Delta{ToolCall: &models.ToolCall{
					ID:   tc.ID,
					Name: tc.Function.Name,
					Args: tc.Function.Arguments,
				}}
			}
			if finishReason != "" {
				deltaChan <- models.Delta{FinishReason: finishReason}
			}
		}

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					flush()
					return
				}
				errChan <- fmt.Errorf("error reading stream: %w", err)
				return
			}

			line = strings.TrimSpace(line)
			if line == "" || !strings.HasPrefix(line, "data: ") {
				continue
			}

			data := strings.TrimPrefix(line, "data: ")
			if data == "[DONE]" {
				flush()
				return
			}

			var chunk streamResponse
			if err := json.Unmarshal([]byte(data), &chunk); err != nil {
				continue
			}

			for _, c := range chunk.Choices {
				if c.FinishReason != nil && *c.FinishReason != "" {
					finishReason = normalizeFinishReason(*c.FinishReason)
				}
				if c.Delta == nil {
					continue
				}
				if c.Delta.Content != nil && *c.Delta.Content != "" {
					deltaChan <- models.Delta{Text: *c.Delta.Content}
				}
				for _, tc := range c.Delta.ToolCalls {
					idx := tc.Index
					if existing, ok := toolCallAccumulator[idx]; ok {
						existing.Function.Arguments += tc.Function.Arguments
						if tc.Function.Name != "" {
							existing.Function.Name = tc.Function.Name
						}
					} else {
						toolCallAccumulator[idx] = &toolCall{
							ID:   tc.ID,
							Type: tc.Type,
							Function: toolCallFunction{
								Name:      tc.Function.Name,
								Arguments: tc.Function.Arguments,
							},
						}
					}
				}
			}
		}
	}()

	return deltaChan, errChan
}

func (m *Model) buildRequest(req models.Request, stream bool) (chatRequest, error) {
	messages := make([]chatMessage, 0, len(req.Messages)+1)

	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case models.ChatRoleTool:
			// Without the originating call IDs, tool output travels as a
			// labeled user message. Models treat it as replayed context.
			name := msg.Name
			if name == "" {
				name = "tool"
			}
			messages = append(messages, chatMessage{
				Role:    "user",
				Content: fmt.Sprintf("Results from the %s tool:\n%s", name, msg.Content),
			})
		case models.ChatRoleAssistant:
			if msg.Content == "" {
				continue
			}
			messages = append(messages, chatMessage{Role: "assistant", Content: msg.Content})
		default:
			messages = append(messages, chatMessage{Role: msg.Role, Content: msg.Content})
		}
	}

	if len(messages) == 0 {
		return chatRequest{}, fmt.Errorf("cannot create chat request with no messages")
	}

	modelToUse := req.Model
	if modelToUse == "" {
		modelToUse = m.Model
	}
	if modelToUse == "" {
		modelToUse = defaultModel
	}

	out := chatRequest{
		Model:       modelToUse,
		Messages:    messages,
		Stream:      stream,
		Temperature: m.Temperature,
	}
	if req.MaxTokens > 0 {
		maxTokens := req.MaxTokens
		out.MaxTokens = &maxTokens
	}
	if len(req.Tools) > 0 {
		out.Tools = convertTools(req.Tools)
		out.ToolChoice = "auto"
	}
	if req.JSONMode {
		out.ResponseFormat = &responseFormat{Type: "json_object"}
	}
	return out, nil
}

func (m *Model) baseURL() string {
	if m.BaseURL != "" {
		return m.BaseURL
	}
	return defaultBaseURL
}

func (m *Model) client() *http.Client {
	return &http.Client{Timeout: m.Timeout}
}

func (m *Model) setHeaders(req *http.Request) {
	apiKeyEnv := m.APIKeyEnv
	if apiKeyEnv == "" {
		apiKeyEnv = "OPENAI_API_KEY"
	}
	if apiKey := os.Getenv(apiKeyEnv); apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
}

func apiErrorFrom(status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error.Message != "" {
		return fmt.Errorf("chat API error: %s (type: %s)", errResp.Error.Message, errResp.Error.Type)
	}
	return fmt.Errorf("chat API error: status %d, body: %s", status, string(body))
}
