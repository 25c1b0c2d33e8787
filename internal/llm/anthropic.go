package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider using the Anthropic API. The vendor
// wants system instructions in a dedicated field rather than an inline system
// message, and tool results travel as user-role tool_result blocks.
type AnthropicProvider struct {
	client anthropic.Client
}

// AnthropicConfig holds configuration for the Anthropic provider.
type AnthropicConfig struct {
	APIKey string
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg AnthropicConfig) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(cfg.APIKey)),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Chat(ctx context.Context, req *ChatRequest) (*Response, error) {
	params := p.buildParams(req)

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyAnthropicError(err)
	}

	result := &Response{
		FinishReason: normalizeFinishReason(string(resp.StopReason)),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Content += b.Text
		case anthropic.ToolUseBlock:
			args, _ := json.Marshal(b.Input)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: args,
			})
		}
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = FinishToolCalls
	}
	return result, nil
}

func (p *AnthropicProvider) StreamChat(ctx context.Context, req *ChatRequest) (<-chan StreamChunk, error) {
	params := p.buildParams(req)

	stream := p.client.Messages.NewStreaming(ctx, params)
	ch := make(chan StreamChunk, 64)

	go func() {
		defer close(ch)
		acc := newToolCallAccumulator()
		var usage Usage
		var finish string

		for stream.Next() {
			event := stream.Current()
			evt := StreamChunk{}
			switch e := event.AsAny().(type) {
			case anthropic.MessageStartEvent:
				usage.PromptTokens = int(e.Message.Usage.InputTokens)
			case anthropic.ContentBlockStartEvent:
				if e.ContentBlock.Type == "tool_use" {
					acc.Add(int(e.Index), e.ContentBlock.ID, e.ContentBlock.Name, "")
				}
			case anthropic.ContentBlockDeltaEvent:
				switch e.Delta.Type {
				case "text_delta":
					evt.Text = e.Delta.Text
				case "thinking_delta":
					evt.Text = e.Delta.Thinking
					evt.Reasoning = true
				case "input_json_delta":
					acc.Add(int(e.Index), "", "", e.Delta.PartialJSON)
				}
			case anthropic.MessageDeltaEvent:
				finish = normalizeFinishReason(string(e.Delta.StopReason))
				if e.Usage.OutputTokens > 0 {
					usage.CompletionTokens = int(e.Usage.OutputTokens)
				}
			}
			if evt.Text != "" {
				select {
				case ch <- evt:
				case <-ctx.Done():
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			ch <- StreamChunk{Err: classifyAnthropicError(err)}
			return
		}

		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
		final := StreamChunk{FinishReason: finish, Usage: &usage}
		if final.FinishReason == "" {
			final.FinishReason = FinishStop
		}
		if !acc.Empty() {
			final.ToolCalls = acc.Drain()
			final.FinishReason = FinishToolCalls
		}
		select {
		case ch <- final:
		case <-ctx.Done():
		}
	}()

	return ch, nil
}

func (p *AnthropicProvider) buildParams(req *ChatRequest) anthropic.MessageNewParams {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		Messages:  p.convertMessages(req),
		MaxTokens: int64(maxTokens),
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.SystemPrompt},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if tools := p.convertTools(req.Tools); len(tools) > 0 {
		params.Tools = tools
	}
	return params
}

func (p *AnthropicProvider) convertMessages(req *ChatRequest) []anthropic.MessageParam {
	var msgs []anthropic.MessageParam

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			// Inline system messages become user turns; the real system
			// instruction travels in the dedicated field.
			msgs = append(msgs, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		case "user":
			msgs = append(msgs, anthropic.NewUserMessage(
				anthropic.NewTextBlock(m.Content),
			))
		case "assistant":
			if len(m.ToolCalls) > 0 {
				var blocks []anthropic.ContentBlockParamUnion
				if m.Content != "" {
					blocks = append(blocks, anthropic.NewTextBlock(m.Content))
				}
				for _, tc := range m.ToolCalls {
					var input map[string]any
					_ = json.Unmarshal(tc.Arguments, &input)
					blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
				}
				msgs = append(msgs, anthropic.NewAssistantMessage(blocks...))
			} else {
				msgs = append(msgs, anthropic.NewAssistantMessage(
					anthropic.NewTextBlock(m.Content),
				))
			}
		case "tool":
			msgs = append(msgs, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(m.ToolCallID, m.Content, false),
			))
		}
	}
	return msgs
}

func (p *AnthropicProvider) convertTools(tools []ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		var schema anthropic.ToolInputSchemaParam
		if t.Parameters != nil {
			_ = json.Unmarshal(t.Parameters, &schema)
		}
		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        t.Name,
				Description: anthropic.String(t.Description),
				InputSchema: schema,
			},
		}
	}
	return result
}

func classifyAnthropicError(err error) *ProviderError {
	msg := err.Error()
	lower := strings.ToLower(msg)
	provErr := &ProviderError{Provider: "anthropic", Err: err, Body: msg}

	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "authentication"):
		provErr.Type = ErrorAuth
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate_limit"):
		provErr.Type = ErrorRateLimit
	case strings.Contains(lower, "400") || strings.Contains(lower, "invalid_request"):
		provErr.Type = ErrorInvalidInput
	case strings.Contains(lower, "500") || strings.Contains(lower, "overloaded"):
		provErr.Type = ErrorServerError
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		provErr.Type = ErrorTimeout
	default:
		provErr.Type = ErrorUnknown
	}
	return provErr
}
