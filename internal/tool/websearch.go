package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const maxSearchChars = 10000

// WebSearchTool fetches DuckDuckGo HTML results for a query. The raw markup
// is handed to the model to extract from.
type WebSearchTool struct {
	client  *http.Client
	baseURL string
}

func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{
		client:  &http.Client{Timeout: 15 * time.Second},
		baseURL: "https://html.duckduckgo.com/html/",
	}
}

func (t *WebSearchTool) Name() string { return "websearch" }

func (t *WebSearchTool) Description() string {
	return "Search the web for current information. Returns raw result markup with titles and URLs."
}

func (t *WebSearchTool) Parameters() json.RawMessage {
	return json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "The search query"}
		},
		"required": ["query"]
	}`)
}

func (t *WebSearchTool) Execute(ctx context.Context, args json.RawMessage) (*Result, error) {
	var params struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return ErrorResult("invalid arguments: " + err.Error()), nil
	}
	if params.Query == "" {
		return ErrorResult("query is required"), nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"?q="+url.QueryEscape(params.Query), nil)
	if err != nil {
		return ErrorResult("build request: " + err.Error()), nil
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; modelrelay/1.0)")

	resp, err := t.client.Do(req)
	if err != nil {
		return ErrorResult("search request failed: " + err.Error()), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ErrorResult(fmt.Sprintf("search returned status %d", resp.StatusCode)), nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 100000))
	if err != nil {
		return ErrorResult("read response: " + err.Error()), nil
	}

	out := string(body)
	if len(out) > maxSearchChars {
		out = out[:maxSearchChars] + "\n... (truncated)"
	}
	return &Result{Output: out}, nil
}
