package tools

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/Desarso/searchpilot/logger"
	"github.com/Desarso/searchpilot/models"
)

func mockResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

func withMockTransport(t *testing.T, fn func(req *http.Request) (*http.Response, error)) {
	t.Helper()
	orig := httpDo
	httpDo = fn
	t.Cleanup(func() { httpDo = orig })
}

func TestRegistry_ExecuteKnownTool(t *testing.T) {
	r := NewRegistry(logger.Discard(), nil)
	r.Register(Tool{
		Declaration: models.FunctionDeclaration{Name: "echo"},
		Run: func(ctx context.Context, args string) (string, error) {
			return args, nil
		},
	})

	result, err := r.Execute(context.Background(), "echo", `{"x":1}`)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if result != `{"x":1}` {
		t.Errorf("Expected args echoed back, got %q", result)
	}
}

func TestRegistry_ExecuteUnknownTool(t *testing.T) {
	r := NewRegistry(logger.Discard(), nil)
	_, err := r.Execute(context.Background(), "missing", `{}`)
	if err == nil {
		t.Error("Expected error for unknown tool")
	}
}

func TestRegistry_DeclarationsSorted(t *testing.T) {
	r := NewDefaultRegistry(logger.Discard(), nil)
	decls := r.Declarations()
	if len(decls) != 3 {
		t.Fatalf("Expected 3 default tools, got %d", len(decls))
	}
	names := []string{decls[0].Name, decls[1].Name, decls[2].Name}
	want := []string{"retrieve", "search", "videoSearch"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("Expected declarations %v, got %v", want, names)
			break
		}
	}
}

func TestSearch_ReturnsProviderPayload(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "test-key")
	payload := `{"query":"go","results":[{"title":"The Go Programming Language","url":"https://go.dev"}],"images":[]}`
	withMockTransport(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "api.tavily.com" {
			t.Errorf("Unexpected host %s", req.URL.Host)
		}
		body, _ := io.ReadAll(req.Body)
		if !strings.Contains(string(body), `"query":"go"`) {
			t.Errorf("Expected query in request body, got %s", body)
		}
		if !strings.Contains(string(body), `"include_images":true`) {
			t.Errorf("Expected include_images in request body, got %s", body)
		}
		return mockResponse(http.StatusOK, payload), nil
	})

	result, err := Search(context.Background(), `{"query":"go"}`)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if result != payload {
		t.Errorf("Expected raw provider payload, got %q", result)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "test-key")
	if _, err := Search(context.Background(), `{"query":"  "}`); err == nil {
		t.Error("Expected error for empty query")
	}
}

func TestSearch_MissingAPIKey(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "")
	if _, err := Search(context.Background(), `{"query":"go"}`); err == nil {
		t.Error("Expected error without API key")
	}
}

func TestSearch_NonOKStatus(t *testing.T) {
	t.Setenv("TAVILY_API_KEY", "test-key")
	withMockTransport(t, func(req *http.Request) (*http.Response, error) {
		return mockResponse(http.StatusTooManyRequests, `{"error":"rate limited"}`), nil
	})
	if _, err := Search(context.Background(), `{"query":"go"}`); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestRetrieve_ExtractsTextAndTitle(t *testing.T) {
	html := `<html><head><title>Test Page</title><style>body{color:red}</style></head>` +
		`<body><script>var x=1;</script><h1>Heading</h1><p>Some &amp; content.</p></body></html>`
	withMockTransport(t, func(req *http.Request) (*http.Response, error) {
		return mockResponse(http.StatusOK, html), nil
	})

	result, err := Retrieve(context.Background(), `{"url":"https://example.com/page"}`)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	if !strings.Contains(result, "Test Page") {
		t.Errorf("Expected title in result, got %q", result)
	}
	if !strings.Contains(result, "Some & content.") {
		t.Errorf("Expected decoded body text, got %q", result)
	}
	if strings.Contains(result, "var x=1") {
		t.Errorf("Expected script content stripped, got %q", result)
	}
}

func TestRetrieve_RejectsInvalidURL(t *testing.T) {
	if _, err := Retrieve(context.Background(), `{"url":"not a url"}`); err == nil {
		t.Error("Expected error for invalid URL")
	}
}

func TestVideoSearch_SendsSerperRequest(t *testing.T) {
	t.Setenv("SERPER_API_KEY", "test-key")
	payload := `{"videos":[{"title":"Go Tutorial","link":"https://youtube.com/watch?v=1"}]}`
	withMockTransport(t, func(req *http.Request) (*http.Response, error) {
		if req.URL.Host != "google.serper.dev" {
			t.Errorf("Unexpected host %s", req.URL.Host)
		}
		if req.Header.Get("X-API-KEY") != "test-key" {
			t.Error("Expected API key header")
		}
		return mockResponse(http.StatusOK, payload), nil
	})

	result, err := VideoSearch(context.Background(), `{"query":"go tutorial"}`)
	if err != nil {
		t.Fatalf("VideoSearch failed: %v", err)
	}
	if result != payload {
		t.Errorf("Expected raw provider payload, got %q", result)
	}
}
