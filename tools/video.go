package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/Desarso/searchpilot/models"
)

const serperVideosURL = "https://google.serper.dev/videos"

// VideoSearchTool returns the video search tool backed by the Serper API.
func VideoSearchTool() Tool {
	return Tool{
		Declaration: models.FunctionDeclaration{
			Name:        "videoSearch",
			Description: "Search for videos on the web. Useful for tutorials, reviews and event footage.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Video search query string",
					},
				},
				Required: []string{"query"},
			},
		},
		Run: VideoSearch,
	}
}

type videoSearchArgs struct {
	Query string `json:"query"`
}

// VideoSearch searches for videos and returns the provider's JSON payload.
func VideoSearch(ctx context.Context, args string) (string, error) {
	var parsed videoSearchArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid videoSearch arguments: %w", err)
	}
	parsed.Query = strings.TrimSpace(parsed.Query)
	if parsed.Query == "" {
		return "", fmt.Errorf("video search query cannot be empty")
	}

	apiKey := os.Getenv("SERPER_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("SERPER_API_KEY environment variable not set")
	}

	jsonData, err := json.Marshal(map[string]string{"q": parsed.Query})
	if err != nil {
		return "", fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", serperVideosURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("X-API-KEY", apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpDo(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2*1024*1024))
	if err != nil {
		return "", fmt.Errorf("error reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("video search API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}
