// Package webhook exposes the chat pipeline over HTTP so a messaging
// platform (or anything else) can POST user messages and get replies back.
package webhook

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/lukman83/shopgenie/internal/assistant"
	"github.com/lukman83/shopgenie/internal/status"
)

// Assistant is the part of assistant.Service the webhook calls.
type Assistant interface {
	HandleMessage(ctx context.Context, text string) assistant.Reply
	Welcome() string
	Help() string
}

// StatusSource reports recent platform outcomes.
type StatusSource interface {
	Snapshot() map[string]status.Entry
}

// IncomingMessage is the request body of POST /api/v1/messages.
type IncomingMessage struct {
	ChatID string `json:"chat_id" validate:"omitempty,max=128"`
	Text   string `json:"text" validate:"required,max=500"`
}

// MessageReply wraps the pipeline reply with the caller's chat id.
type MessageReply struct {
	ChatID string `json:"chat_id,omitempty"`
	assistant.Reply
}

// Server is the echo application serving the webhook.
type Server struct {
	echo      *echo.Echo
	assistant Assistant
	status    StatusSource
	apiKey    string
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithAPIKey requires "Authorization: Bearer <key>" on /api routes.
func WithAPIKey(key string) Option {
	return func(s *Server) { s.apiKey = key }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// New builds the echo app and registers routes.
func New(a Assistant, st StatusSource, opts ...Option) *Server {
	s := &Server{
		echo:      echo.New(),
		assistant: a,
		status:    st,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "webhook")

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(s.logRequests)

	e.GET("/health", s.Health)

	api := e.Group("/api/v1")
	if s.apiKey != "" {
		api.Use(middleware.KeyAuth(func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) == 1, nil
		}))
	}
	api.POST("/messages", s.ProcessMessage)
	api.GET("/status", s.Status)
	return s
}

// Handler exposes the server as an http.Handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("webhook listening", "addr", addr)
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.echo.Shutdown(shutdownCtx)
}

// ProcessMessage answers one chat message. /start and /help are answered
// here; everything else goes through the search pipeline.
func (s *Server) ProcessMessage(c echo.Context) error {
	var msg IncomingMessage
	if err := c.Bind(&msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(msg); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	text := strings.TrimSpace(msg.Text)
	switch strings.ToLower(text) {
	case "/start", "start":
		return c.JSON(http.StatusOK, map[string]string{"chat_id": msg.ChatID, "kind": "welcome", "message": s.assistant.Welcome()})
	case "/help", "help":
		return c.JSON(http.StatusOK, map[string]string{"chat_id": msg.ChatID, "kind": "help", "message": s.assistant.Help()})
	}

	reply := s.assistant.HandleMessage(c.Request().Context(), text)
	return c.JSON(http.StatusOK, MessageReply{ChatID: msg.ChatID, Reply: reply})
}

// Status returns the fresh per-platform status entries.
func (s *Server) Status(c echo.Context) error {
	return c.JSON(http.StatusOK, s.status.Snapshot())
}

func (s *Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "shopgenie",
	})
}

func (s *Server) logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		s.logger.Info("request",
			"method", c.Request().Method,
			"path", c.Path(),
			"status", c.Response().Status,
			"duration", time.Since(start),
			"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		)
		return nil
	}
}
