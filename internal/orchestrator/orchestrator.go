// Package orchestrator drives one turn through classification, model
// selection, streaming and tool rounds to a terminal answer.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"modelrelay/internal/catalog"
	"modelrelay/internal/classify"
	"modelrelay/internal/config"
	"modelrelay/internal/events"
	"modelrelay/internal/llm"
	"modelrelay/internal/route"
	"modelrelay/internal/tool"
)

// ErrAllCandidatesFailed reports that every candidate in the list was tried
// and none produced output.
var ErrAllCandidatesFailed = errors.New("orchestrator: all candidates failed")

// Orchestrator owns the per-turn state machine. One instance serves many
// concurrent turns; all mutable state lives in the per-turn generationState.
type Orchestrator struct {
	classifier *classify.Classifier
	selector   *route.Selector
	providers  *llm.Registry
	tools      *tool.Registry
	cfg        config.GenerationConfig
	logger     *log.Logger
}

func New(classifier *classify.Classifier, selector *route.Selector, providers *llm.Registry, tools *tool.Registry, cfg config.GenerationConfig, logger *log.Logger) *Orchestrator {
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = 8
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		classifier: classifier,
		selector:   selector,
		providers:  providers,
		tools:      tools,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run executes one turn. It emits progress events as it goes and always ends
// the stream with exactly one terminal event. The returned error carries the
// selection sentinels (route.ErrModelNotAvailable, route.ErrNoModelsConfigured)
// so the transport layer can map them to status codes.
func (o *Orchestrator) Run(ctx context.Context, req TurnRequest, emit events.Emitter) (*TurnResult, error) {
	if emit == nil {
		emit = events.NewLogEmitter(o.logger)
	}
	g := newGenerationState(req)

	header, err := o.classifier.Classify(ctx, req.Message, req.History)
	if err != nil {
		return nil, o.fail(emit, fmt.Errorf("classification failed: %w", err))
	}
	g.header = header
	emit.Emit(events.New(events.TypeClassification, events.ClassificationPayload{
		Intent:     header.Intent,
		Category:   header.Category,
		Lane:       string(header.Lane),
		Tier:       header.Tier,
		Confidence: header.Confidence,
	}))

	g.state = StateSelecting
	prefs := route.Preferences{Override: req.Override, Speed: req.Speed}
	if !req.Auto && req.Mode != "" {
		prefs.Mode = req.Mode
	}
	candidates, err := o.selector.SelectCandidates(header, prefs)
	if err != nil {
		return nil, o.fail(emit, err)
	}
	g.candidates = candidates

	var attemptErrs []error
	for i, cand := range g.candidates {
		if g.blocked[cand.Model.Provider] {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, o.fail(emit, err)
		}

		provider, err := o.providers.Get(cand.Model.Provider)
		if err != nil {
			attemptErrs = append(attemptErrs, err)
			o.recordFailure(g, emit, cand, i, err)
			continue
		}

		emit.Emit(events.New(events.TypeModelSelected, events.ModelSelectedPayload{
			Provider: cand.Model.Provider,
			Model:    cand.Model.ID,
			Reason:   cand.Reason,
		}))

		err = o.runCandidate(ctx, g, provider, cand, emit)
		if err == nil {
			return o.finish(g, cand, emit), nil
		}
		if ctx.Err() != nil {
			return nil, o.fail(emit, ctx.Err())
		}
		attemptErrs = append(attemptErrs, err)
		o.recordFailure(g, emit, cand, i, err)
	}

	return nil, o.fail(emit, fmt.Errorf("%w: %w", ErrAllCandidatesFailed, errors.Join(attemptErrs...)))
}

// PreflightOverride resolves an explicit model override against the catalog
// without classifying, so transports can reject bad overrides before opening
// an event stream. Override resolution does not depend on the classified
// tier.
func (o *Orchestrator) PreflightOverride(override string, speed bool) ([]route.Candidate, error) {
	return o.selector.SelectCandidates(
		classify.Header{Tier: 2, Lane: classify.LaneStandard},
		route.Preferences{Override: override, Speed: speed},
	)
}

// runCandidate streams against one candidate, executing tool rounds until the
// model stops asking for tools or the round budget runs out. A nil return
// means g holds a usable answer.
func (o *Orchestrator) runCandidate(ctx context.Context, g *generationState, provider llm.Provider, cand route.Candidate, emit events.Emitter) error {
	nativeTools := cand.Model.Has(catalog.CapabilityTools)

	for {
		g.state = StateStreaming
		text, toolCalls, err := o.streamOnce(ctx, g, provider, cand.Model, nativeTools, emit)
		if err != nil {
			return err
		}

		if !nativeTools && len(toolCalls) == 0 {
			inline, cleaned := scanInlineCalls(text)
			if len(inline) > 0 {
				toolCalls = inline
				text = cleaned
			}
		}

		if len(toolCalls) == 0 {
			if strings.TrimSpace(text) == "" && strings.TrimSpace(g.text) == "" {
				return fmt.Errorf("provider %s returned no text and no tool calls", cand.Model.Provider)
			}
			g.appendText(text)
			g.state = StateFinalizing
			return nil
		}

		g.appendText(text)
		if g.toolRounds >= o.cfg.MaxToolRounds {
			o.logger.Printf("[orchestrator] tool round budget (%d) exhausted, finalizing", o.cfg.MaxToolRounds)
			g.state = StateFinalizing
			return nil
		}

		g.state = StateToolRound
		g.toolRounds++
		o.executeToolRound(ctx, g, text, toolCalls, emit)
	}
}

// streamOnce performs a single streaming call, forwarding deltas as events
// and collecting the full text, tool calls and usage.
func (o *Orchestrator) streamOnce(ctx context.Context, g *generationState, provider llm.Provider, model catalog.ModelDefinition, nativeTools bool, emit events.Emitter) (string, []llm.ToolCall, error) {
	req := &llm.ChatRequest{
		Model:        model.DeploymentName,
		Messages:     g.messages,
		SystemPrompt: o.cfg.SystemPrompt,
		MaxTokens:    o.cfg.MaxTokens,
		Temperature:  o.cfg.Temperature,
	}
	if model.MaxOutputTokens > 0 && (req.MaxTokens <= 0 || req.MaxTokens > model.MaxOutputTokens) {
		req.MaxTokens = model.MaxOutputTokens
	}
	if nativeTools {
		req.Tools = o.tools.Definitions()
	}

	ch, err := provider.StreamChat(ctx, req)
	if err != nil {
		return "", nil, err
	}

	var text strings.Builder
	var calls []llm.ToolCall
	// Within one call, a later usage chunk carries more complete counts and
	// replaces the earlier one. Totals stay additive across calls.
	var callUsage *llm.Usage
	for chunk := range ch {
		if chunk.Err != nil {
			return "", nil, chunk.Err
		}
		if chunk.Text != "" {
			if chunk.Reasoning {
				emit.Emit(events.New(events.TypeReasoning, events.DeltaPayload{Text: chunk.Text}))
			} else {
				text.WriteString(chunk.Text)
				emit.Emit(events.New(events.TypeDelta, events.DeltaPayload{Text: chunk.Text}))
			}
		}
		if len(chunk.ToolCalls) > 0 {
			calls = append(calls, chunk.ToolCalls...)
		}
		if chunk.Usage != nil {
			callUsage = chunk.Usage
		}
	}
	// Adapters close the stream cleanly when the caller goes away; a
	// truncated answer must not reach the success path.
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}
	g.addUsage(callUsage)
	return text.String(), calls, nil
}

// executeToolRound appends the assistant's tool-call message, runs every call
// through the tool boundary and appends the tool results. Tool failures are
// data for the model, never round failures.
func (o *Orchestrator) executeToolRound(ctx context.Context, g *generationState, text string, calls []llm.ToolCall, emit events.Emitter) {
	g.messages = append(g.messages, llm.Message{
		Role:      "assistant",
		Content:   text,
		ToolCalls: calls,
	})

	for _, call := range calls {
		args := call.Arguments
		if len(args) == 0 || !json.Valid(args) {
			args = json.RawMessage("{}")
		}

		emit.Emit(events.New(events.TypeToolStarted, events.ToolPayload{
			CallID: call.ID,
			Name:   call.Name,
			Round:  g.toolRounds,
		}))

		content, toolErr := o.dispatchTool(ctx, call.Name, args)

		payload := events.ToolPayload{CallID: call.ID, Name: call.Name, Round: g.toolRounds}
		if toolErr != "" {
			payload.Error = toolErr
		}
		emit.Emit(events.New(events.TypeToolFinished, payload))

		g.messages = append(g.messages, llm.Message{
			Role:       "tool",
			Content:    content,
			ToolCallID: call.ID,
			Name:       call.Name,
		})
	}
}

// dispatchTool runs one call and renders its outcome as message content. The
// second return value is a short error description for the status event.
func (o *Orchestrator) dispatchTool(ctx context.Context, name string, args json.RawMessage) (string, string) {
	t, err := o.tools.Get(name)
	if err != nil {
		msg := fmt.Sprintf("unknown tool: %s", name)
		return renderToolError(msg), msg
	}
	res, err := t.Execute(ctx, args)
	if err != nil {
		return renderToolError(err.Error()), err.Error()
	}
	if res.IsError {
		return renderToolError(res.Error), res.Error
	}
	return res.Output, ""
}

func renderToolError(msg string) string {
	data, _ := json.Marshal(map[string]string{"error": msg})
	return string(data)
}

// recordFailure marks the provider blocked when the error is an auth/config
// failure and emits the fallback status event.
func (o *Orchestrator) recordFailure(g *generationState, emit events.Emitter, cand route.Candidate, idx int, err error) {
	blocked := false
	var perr *llm.ProviderError
	if errors.As(err, &perr) && perr.Blocking() {
		g.blocked[cand.Model.Provider] = true
		blocked = true
	}

	next := ""
	for _, c := range g.candidates[idx+1:] {
		if !g.blocked[c.Model.Provider] {
			next = c.Model.Provider + ":" + c.Model.ID
			break
		}
	}

	o.logger.Printf("[orchestrator] candidate %s:%s failed (blocked=%v): %v", cand.Model.Provider, cand.Model.ID, blocked, err)
	emit.Emit(events.New(events.TypeProviderFailure, events.ProviderFailurePayload{
		Provider: cand.Model.Provider,
		Model:    cand.Model.ID,
		Error:    err.Error(),
		Blocked:  blocked,
		Next:     next,
	}))
}

// finish strips routing artifacts from the accumulated text and emits the
// final event.
func (o *Orchestrator) finish(g *generationState, cand route.Candidate, emit events.Emitter) *TurnResult {
	g.state = StateDone
	final := classify.Strip(g.text)
	emit.Emit(events.New(events.TypeFinal, events.FinalPayload{
		Text:             final,
		Provider:         cand.Model.Provider,
		Model:            cand.Model.ID,
		PromptTokens:     g.usage.PromptTokens,
		CompletionTokens: g.usage.CompletionTokens,
		TotalTokens:      g.usage.TotalTokens,
		ToolRounds:       g.toolRounds,
	}))
	return &TurnResult{
		Text:       final,
		Header:     g.header,
		Provider:   cand.Model.Provider,
		Model:      cand.Model.ID,
		Usage:      g.usage,
		ToolRounds: g.toolRounds,
	}
}

// fail emits the terminal error event and returns err unchanged.
func (o *Orchestrator) fail(emit events.Emitter, err error) error {
	code := ""
	switch {
	case errors.Is(err, route.ErrModelNotAvailable):
		code = "model_not_available"
	case errors.Is(err, route.ErrNoModelsConfigured):
		code = "no_models_configured"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		code = "cancelled"
	}
	emit.Emit(events.New(events.TypeError, events.ErrorPayload{Message: err.Error(), Code: code}))
	return err
}
