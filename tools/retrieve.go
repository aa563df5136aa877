package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/Desarso/searchpilot/models"
)

// RetrieveTool returns the page retrieval tool: fetches a URL and extracts
// readable text content.
func RetrieveTool() Tool {
	return Tool{
		Declaration: models.FunctionDeclaration{
			Name:        "retrieve",
			Description: "Fetch and extract readable content from a URL the user provided. Do not use with URLs found in search results.",
			Parameters: models.Parameters{
				Type: "object",
				Properties: map[string]interface{}{
					"url": map[string]interface{}{
						"type":        "string",
						"description": "HTTP or HTTPS URL to fetch",
					},
				},
				Required: []string{"url"},
			},
		},
		Run: Retrieve,
	}
}

type retrieveArgs struct {
	URL string `json:"url"`
}

// RetrieveResult is the serialized payload of a retrieve call.
type RetrieveResult struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Content string `json:"content"`
}

const maxRetrieveChars = 10000

// Retrieve fetches a URL and returns its readable content as JSON.
func Retrieve(ctx context.Context, args string) (string, error) {
	var parsed retrieveArgs
	if err := json.Unmarshal([]byte(args), &parsed); err != nil {
		return "", fmt.Errorf("invalid retrieve arguments: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.HasPrefix(parsed.URL, "http://") && !strings.HasPrefix(parsed.URL, "https://") {
		return "", fmt.Errorf("unsupported URL scheme: %s", parsed.URL)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", parsed.URL, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", "searchpilot/1.0 (retrieve tool)")

	resp, err := httpDo(req)
	if err != nil {
		return "", fmt.Errorf("fetching %s: %w", parsed.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, parsed.URL)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5*1024*1024))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	html := string(body)
	content := htmlToText(html)
	if len(content) > maxRetrieveChars {
		content = content[:maxRetrieveChars] + "\n...(truncated)"
	}

	result := RetrieveResult{
		URL:     parsed.URL,
		Title:   extractTitle(html),
		Content: content,
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshalling result: %w", err)
	}
	return string(out), nil
}

var (
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	scriptRe = regexp.MustCompile(`(?is)<(script|style|noscript)[^>]*>.*?</(script|style|noscript)>`)
	tagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	spaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	blankRe  = regexp.MustCompile(`\n{3,}`)
)

func extractTitle(html string) string {
	if m := titleRe.FindStringSubmatch(html); len(m) == 2 {
		return strings.TrimSpace(decodeEntities(m[1]))
	}
	return ""
}

// htmlToText strips markup and collapses whitespace. Not a full readability
// pass, but enough for a model to consume article content.
func htmlToText(html string) string {
	text := scriptRe.ReplaceAllString(html, "")
	text = tagRe.ReplaceAllString(text, " ")
	text = decodeEntities(text)
	text = spaceRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")
	text = blankRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

var entityReplacer = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
	"&nbsp;", " ",
)

func decodeEntities(s string) string {
	return entityReplacer.Replace(s)
}
