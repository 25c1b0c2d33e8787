// Package server exposes the turn pipeline over HTTP with server-sent
// events.
package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"modelrelay/internal/catalog"
	"modelrelay/internal/classify"
	"modelrelay/internal/config"
	"modelrelay/internal/events"
	"modelrelay/internal/orchestrator"
	"modelrelay/internal/route"
	"modelrelay/internal/store"
)

// Server wires the HTTP surface over the orchestrator.
type Server struct {
	echo    *echo.Echo
	cfg     *config.Config
	orch    *orchestrator.Orchestrator
	store   store.Store
	catalog *catalog.Catalog
	logger  *log.Logger
}

func New(cfg *config.Config, orch *orchestrator.Orchestrator, st store.Store, cat *catalog.Catalog, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{echo: e, cfg: cfg, orch: orch, store: st, catalog: cat, logger: logger}

	e.Use(middleware.Recover())
	if cfg.Server.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:  rate.Limit(cfg.Server.RateLimit),
				Burst: cfg.Server.RateBurst,
			},
		)))
	}
	if cfg.Server.AuthToken != "" {
		e.Use(s.bearerAuth)
	}

	e.GET("/health", s.handleHealth)
	e.GET("/v1/models", s.handleModels)
	e.POST("/v1/turns", s.handleTurn)
	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.cfg.Server.Port)
	s.logger.Printf("[server] listening on %s", addr)
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Handler exposes the routing tree for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) bearerAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if c.Path() == "/health" {
			return next(c)
		}
		auth := c.Request().Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || token != s.cfg.Server.AuthToken {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
		}
		return next(c)
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// handleModels dumps the catalog with per-provider configuration flags.
func (s *Server) handleModels(c echo.Context) error {
	type modelEntry struct {
		catalog.ModelDefinition
		Configured bool `json:"configured"`
	}
	all := s.catalog.List(catalog.Filter{})
	out := make([]modelEntry, 0, len(all))
	for _, m := range all {
		out = append(out, modelEntry{ModelDefinition: m, Configured: s.catalog.Configured(m.Provider)})
	}
	return c.JSON(http.StatusOK, map[string]any{"models": out})
}

type turnRequest struct {
	ConversationID string `json:"conversation_id"`
	Message        string `json:"message"`
	Mode           string `json:"mode"`
	Auto           bool   `json:"auto"`
	Speed          bool   `json:"speed"`
	Model          string `json:"model"`
}

// handleTurn streams one turn as server-sent events. Errors before the first
// event are plain JSON with a mapped status; after streaming begins they
// arrive as the terminal error event.
func (s *Server) handleTurn(c echo.Context) error {
	var req turnRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	var mode classify.Lane
	switch req.Mode {
	case "":
	case "quick", "standard", "deep":
		mode = classify.Lane(req.Mode)
	default:
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid mode %q", req.Mode))
	}

	// An explicit override is resolvable without classifying; reject bad ones
	// before committing to the event stream.
	if req.Model != "" {
		if _, err := s.orch.PreflightOverride(req.Model, req.Speed); err != nil {
			return s.selectionError(err)
		}
	}

	turn := orchestrator.TurnRequest{
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Mode:           mode,
		Auto:           req.Auto,
		Speed:          req.Speed,
		Override:       req.Model,
	}

	if turn.ConversationID != "" && s.store != nil {
		history, err := s.store.GetHistory(c.Request().Context(), turn.ConversationID, s.cfg.Generation.HistoryLimit)
		if err != nil {
			s.logger.Printf("[server] history load failed for %s: %v", turn.ConversationID, err)
		} else {
			turn.History = history
		}
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	flusher, _ := resp.Writer.(http.Flusher)
	emitter := events.NewSSEEmitter(resp, flusher, s.logger)

	result, err := s.orch.Run(c.Request().Context(), turn, emitter)
	if err != nil {
		// The emitter already delivered the terminal error event.
		s.logger.Printf("[server] turn failed: %v", err)
		return nil
	}

	s.persistTurn(turn, result)
	return nil
}

// persistTurn stores the user message, the final answer and the turn
// artifact. Persistence failures are logged, not surfaced: the answer has
// already been delivered.
func (s *Server) persistTurn(turn orchestrator.TurnRequest, result *orchestrator.TurnResult) {
	if s.store == nil || turn.ConversationID == "" {
		return
	}
	ctx := context.Background()
	if err := s.store.SaveMessage(ctx, turn.ConversationID, userMessage(turn.Message)); err != nil {
		s.logger.Printf("[server] persist user message: %v", err)
	}
	if err := s.store.SaveMessage(ctx, turn.ConversationID, assistantMessage(result.Text)); err != nil {
		s.logger.Printf("[server] persist assistant message: %v", err)
	}
	err := s.store.SaveTurn(ctx, store.Turn{
		ConversationID:   turn.ConversationID,
		Text:             result.Text,
		Provider:         result.Provider,
		Model:            result.Model,
		Header:           result.Header.Encode(),
		PromptTokens:     result.Usage.PromptTokens,
		CompletionTokens: result.Usage.CompletionTokens,
		TotalTokens:      result.Usage.TotalTokens,
		ToolRounds:       result.ToolRounds,
	})
	if err != nil {
		s.logger.Printf("[server] persist turn artifact: %v", err)
	}
}

func (s *Server) selectionError(err error) error {
	switch {
	case errors.Is(err, route.ErrModelNotAvailable):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, route.ErrNoModelsConfigured):
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
}
