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

const tavilySearchURL = "https://api.tavily.com/search"

// SearchTool returns the web search tool backed by the Tavily API.
func SearchTool() Tool {
	return Tool{
		Declaration: models.FunctionDeclaration{
			Name:        "search",
			Description: "Search the web for information. Returns titles, URLs, snippets and related images.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]interface{}{
					"query": map[string]interface{}{
						"type":        "string",
						"description": "Search query string",
					},
					"max_results": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of results to return (default 10)",
					},
					"search_depth": map[string]interface{}{
						"type":        "string",
						"description": "Depth of the search: 'basic' or 'advanced'",
						"enum":        []string{"basic", "advanced"},
					},
					"include_domains": map[string]interface{}{
						"type":        "array",
						"description": "Domains to restrict the search to",
						"items":       map[string]interface{}{"type": "string"},
					},
				},
				Required: []string{"query"},
			},
		},
		Run: Search,
	}
}

type searchArgs struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeDomains []string `json:"include_domains"`
}

type tavilyRequest struct {
	APIKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results"`
	SearchDepth    string   `json:"search_depth"`
	IncludeImages  bool     `json:"include_images"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

// Search performs a web search and returns the provider's JSON payload
// (query, results, images) as a string.
func Search(ctx context.Context, args string) (string, error) {
	var parsed searchArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid search arguments: %w", err)
	}
	parsed.Query = strings.TrimSpace(parsed.Query)
	if parsed.Query == "" {
		return "", fmt.Errorf("search query cannot be empty")
	}

	apiKey := os.Getenv("TAVILY_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("TAVILY_API_KEY environment variable not set")
	}

	maxResults := parsed.MaxResults
	if maxResults <= 0 || maxResults > 20 {
		maxResults = 10
	}
	depth := parsed.SearchDepth
	if depth != "advanced" {
		depth = "basic"
	}

	requestBody := tavilyRequest{
		APIKey:         apiKey,
		Query:          parsed.Query,
		MaxResults:     maxResults,
		SearchDepth:    depth,
		IncludeImages:  true,
		IncludeDomains: parsed.IncludeDomains,
	}

	jsonData, err := json.Marshal(requestBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", tavilySearchURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

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
		return "", fmt.Errorf("search API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	return string(body), nil
}

// httpDo is a package-level var so tests can mock tool transport.
var httpDo = defaultHTTPDo

func defaultHTTPDo(req *http.Request) (*http.Response, error) {
	client := &http.Client{}
	return client.Do(req)
}
