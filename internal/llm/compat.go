package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	contentTypeJSON = "application/json"
	userAgent       = "modelrelay/0.1"

	// charsPerToken is the fixed estimation heuristic used when a vendor
	// does not return usage counts.
	charsPerToken = 4
)

// CompatProvider implements Provider against any OpenAI-compatible HTTP API
// (Ollama, LM Studio, vLLM, NVIDIA NIM, OpenRouter). Unlike the SDK-backed
// adapters it decodes the vendor's event-stream framing itself.
type CompatProvider struct {
	name    string
	apiKey  string
	baseURL string
	headers map[string]string
	client  *http.Client
}

// CompatConfig holds configuration for an OpenAI-compatible provider.
type CompatConfig struct {
	Name    string
	APIKey  string
	BaseURL string
	Headers map[string]string
	Timeout time.Duration
}

// NewCompatProvider creates an adapter for an OpenAI-compatible endpoint.
func NewCompatProvider(cfg CompatConfig) (*CompatProvider, error) {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		return nil, errors.New("base url must not be empty")
	}
	name := cfg.Name
	if name == "" {
		name = "compat"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &CompatProvider{
		name:    name,
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (p *CompatProvider) Name() string { return p.name }

func (p *CompatProvider) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	httpResp, err := p.send(ctx, req, false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	var body compatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&body); err != nil {
		return nil, &ProviderError{Provider: p.name, Type: ErrorUnknown, Err: err}
	}

	resp := &Response{FinishReason: FinishStop}
	if body.Usage != nil {
		resp.Usage = Usage{
			PromptTokens:     body.Usage.PromptTokens,
			CompletionTokens: body.Usage.CompletionTokens,
			TotalTokens:      body.Usage.TotalTokens,
		}
	}
	if len(body.Choices) > 0 {
		choice := body.Choices[0]
		resp.Content = choice.Message.Content
		resp.FinishReason = normalizeFinishReason(choice.FinishReason)
		for _, tc := range choice.Message.ToolCalls {
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: json.RawMessage(tc.Function.Arguments),
			})
		}
	}
	if resp.Usage == (Usage{}) {
		resp.Usage = estimateUsage(req.Messages, resp.Content)
	}
	return resp, nil
}

func (p *CompatProvider) StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	httpResp, err := p.send(ctx, req, true)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 64)
	go func() {
		defer close(ch)
		defer httpResp.Body.Close()

		decoder := newEventStreamDecoder(httpResp.Body)
		acc := newToolCallAccumulator()
		var textLen int
		var sawUsage bool
		var finish string

		for {
			payload, err := decoder.Next()
			if errors.Is(err, errStreamDone) {
				break
			}
			if err != nil {
				if err != io.EOF && ctx.Err() == nil {
					ch <- StreamChunk{Err: &ProviderError{Provider: p.name, Type: ErrorNetwork, Err: err}}
				}
				break
			}

			var record compatStreamRecord
			if err := json.Unmarshal(payload, &record); err != nil {
				// Malformed records are skipped, never fatal.
				continue
			}

			chunk := StreamChunk{}
			if record.Usage != nil {
				chunk.Usage = &Usage{
					PromptTokens:     record.Usage.PromptTokens,
					CompletionTokens: record.Usage.CompletionTokens,
					TotalTokens:      record.Usage.TotalTokens,
				}
				sawUsage = true
			}
			if len(record.Choices) > 0 {
				delta := record.Choices[0].Delta
				if delta.ReasoningContent != "" {
					chunk.Text = delta.ReasoningContent
					chunk.Reasoning = true
				} else {
					chunk.Text = delta.Content
					// Reasoning deltas are not part of the completion; only
					// answer text feeds the estimate.
					textLen += len(chunk.Text)
				}
				for _, tc := range delta.ToolCalls {
					acc.Add(tc.Index, tc.ID, tc.Function.Name, tc.Function.Arguments)
				}
				if fr := record.Choices[0].FinishReason; fr != "" {
					finish = normalizeFinishReason(fr)
				}
			}
			if chunk.Text != "" || chunk.Usage != nil {
				select {
				case ch <- chunk:
				case <-ctx.Done():
					return
				}
			}
		}

		final := StreamChunk{FinishReason: finish}
		if final.FinishReason == "" {
			final.FinishReason = FinishStop
		}
		if !acc.Empty() {
			final.ToolCalls = acc.Drain()
			final.FinishReason = FinishToolCalls
		}
		if !sawUsage {
			usage := estimateUsage(req.Messages, strings.Repeat("x", textLen))
			final.Usage = &usage
		}
		select {
		case ch <- final:
		case <-ctx.Done():
		}
	}()

	return ch, nil
}

// send builds and issues the vendor request, translating the uniform message
// list into the compat wire shape with family quirks resolved up front.
func (p *CompatProvider) send(ctx context.Context, req *ChatRequest, stream bool) (*http.Response, error) {
	family := FamilyOf(req.Model)

	payload := map[string]any{
		"model":    req.Model,
		"messages": compatMessages(req),
		"stream":   stream,
	}
	if req.MaxTokens > 0 {
		payload[family.MaxTokensField] = req.MaxTokens
	}
	if req.Temperature > 0 && !family.NoTemperature {
		payload["temperature"] = req.Temperature
	}
	if len(req.Tools) > 0 && !family.InlineTools {
		tools := make([]map[string]any, 0, len(req.Tools))
		for _, t := range req.Tools {
			var params map[string]any
			if t.Parameters != nil {
				_ = json.Unmarshal(t.Parameters, &params)
			}
			tools = append(tools, map[string]any{
				"type": "function",
				"function": map[string]any{
					"name":        t.Name,
					"description": t.Description,
					"parameters":  params,
				},
			})
		}
		payload["tools"] = tools
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Type: ErrorInvalidInput, Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.name, Type: ErrorUnknown, Err: err}
	}
	httpReq.Header.Set("Content-Type", contentTypeJSON)
	httpReq.Header.Set("User-Agent", userAgent)
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := p.client.Do(httpReq)
	if err != nil {
		errType := ErrorNetwork
		if ctx.Err() != nil {
			errType = ErrorTimeout
		}
		return nil, &ProviderError{Provider: p.name, Type: errType, Err: err}
	}

	if httpResp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(httpResp.Body, 64*1024))
		httpResp.Body.Close()
		return nil, &ProviderError{
			Provider: p.name,
			Type:     classifyStatus(httpResp.StatusCode),
			Status:   httpResp.StatusCode,
			Body:     strings.TrimSpace(string(raw)),
		}
	}
	return httpResp, nil
}

func compatMessages(req *ChatRequest) []map[string]any {
	msgs := make([]map[string]any, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		msgs = append(msgs, map[string]any{"role": "system", "content": req.SystemPrompt})
	}
	for _, m := range req.Messages {
		entry := map[string]any{"role": m.Role, "content": m.Content}
		if m.ToolCallID != "" {
			entry["tool_call_id"] = m.ToolCallID
		}
		if m.Name != "" {
			entry["name"] = m.Name
		}
		if len(m.ToolCalls) > 0 {
			calls := make([]map[string]any, 0, len(m.ToolCalls))
			for _, tc := range m.ToolCalls {
				calls = append(calls, map[string]any{
					"id":   tc.ID,
					"type": "function",
					"function": map[string]any{
						"name":      tc.Name,
						"arguments": string(tc.Arguments),
					},
				})
			}
			entry["tool_calls"] = calls
		}
		msgs = append(msgs, entry)
	}
	return msgs
}

func normalizeFinishReason(reason string) string {
	switch reason {
	case "tool_calls", "function_call", "tool_use":
		return FinishToolCalls
	case "length", "max_tokens":
		return FinishLength
	default:
		return FinishStop
	}
}

// estimateUsage applies the fixed characters-per-token heuristic for vendors
// that omit usage counts.
func estimateUsage(messages []Message, completion string) Usage {
	var promptChars int
	for _, m := range messages {
		promptChars += len(m.Content)
		for _, tc := range m.ToolCalls {
			promptChars += len(tc.Arguments)
		}
	}
	usage := Usage{
		PromptTokens:     promptChars / charsPerToken,
		CompletionTokens: len(completion) / charsPerToken,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}

type compatResponse struct {
	Choices []struct {
		Message struct {
			Content   string           `json:"content"`
			ToolCalls []compatToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *compatUsage `json:"usage"`
}

type compatStreamRecord struct {
	Choices []struct {
		Delta struct {
			Content          string                `json:"content"`
			ReasoningContent string                `json:"reasoning_content"`
			ToolCalls        []compatToolCallDelta `json:"tool_calls"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *compatUsage `json:"usage"`
}

type compatToolCall struct {
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type compatToolCallDelta struct {
	Index    int    `json:"index"`
	ID       string `json:"id"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type compatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
