// Package http exposes the engine over a JSON HTTP API.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/podyouths/rollcall"
	"github.com/podyouths/rollcall/internal/logging"
	"github.com/podyouths/rollcall/pkg/domain"
	"github.com/podyouths/rollcall/pkg/ports"
	"github.com/podyouths/rollcall/pkg/runner"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Engine is the part of *rollcall.Engine the server needs.
type Engine interface {
	Handle(ctx context.Context, msg domain.Message) (domain.Reply, error)
	Gateway() ports.Gateway
	Transitions() []domain.Edge
}

// Server serves the rollcall API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	logger   *slog.Logger
	gatherer prometheus.Gatherer
	webhook  http.Handler
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics serves the gatherer's metrics at /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTelegramWebhook mounts a Telegram update handler at POST /telegram/webhook.
func WithTelegramWebhook(h http.Handler) Option {
	return func(s *Server) {
		s.webhook = h
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) (http.Handler, error) {
	return newServer(engine, opts...).routes()
}

func newServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:  engine,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Server) routes() (http.Handler, error) {
	router, err := newRouter()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(rawSpec)
	})
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	if s.webhook != nil {
		r.Post("/telegram/webhook", s.webhook.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(requestValidator(router))
		r.Post("/chats/{chatID}/messages", s.SendMessage)
		r.Get("/chats/{chatID}/events", s.SubscribeEvents)
		r.Get("/cell-groups", s.ListCellGroups)
		r.Get("/attendance", s.GetAttendance)
		r.Get("/graph", s.GetGraph)
	})

	return r, nil
}

type messageRequest struct {
	Text       string `json:"text"`
	SenderName string `json:"sender_name,omitempty"`
}

// SendMessage handles POST /v1/chats/{chatID}/messages.
func (s *Server) SendMessage(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatID")

	var body messageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := runner.HandleAndRespond(r.Context(), s.Engine, domain.Message{
		ChatID:     chatID,
		Text:       body.Text,
		SenderName: body.SenderName,
	})
	switch {
	case errors.Is(err, runner.ErrInputTooLarge), errors.Is(err, runner.ErrInvalidUTF8):
		s.logger.Warn("message rejected", "chat_id", chatID, "size", len(body.Text), "err", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.logger.Error("message failed", "chat_id", chatID, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to handle message")
		return
	}

	if payload, err := json.Marshal(resp); err == nil {
		s.Streams.Broadcast(chatID, string(payload))
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListCellGroups handles GET /v1/cell-groups.
func (s *Server) ListCellGroups(w http.ResponseWriter, r *http.Request) {
	cells, err := s.Engine.Gateway().CellGroups(r.Context())
	if err != nil {
		s.logger.Error("cell groups unavailable", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read cell groups")
		return
	}
	writeJSON(w, http.StatusOK, cells)
}

// GetAttendance handles GET /v1/attendance?cell_group=&date=.
func (s *Server) GetAttendance(w http.ResponseWriter, r *http.Request) {
	var cell, rawDate string
	if err := runtime.BindQueryParameter("form", true, true, "cell_group", r.URL.Query(), &cell); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid cell_group: %v", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, true, "date", r.URL.Query(), &rawDate); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid date: %v", err))
		return
	}
	date, err := domain.ParseDate(rawDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	reader, ok := s.Engine.Gateway().(ports.AttendanceReader)
	if !ok {
		writeError(w, http.StatusNotImplemented, "attendance store cannot list records")
		return
	}
	records, err := reader.Attendance(r.Context(), cell, date)
	if err != nil {
		s.logger.Error("attendance unavailable", "cell_group", cell, "date", rawDate, "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read attendance")
		return
	}
	if records == nil {
		records = []domain.Record{}
	}
	writeJSON(w, http.StatusOK, records)
}

// GetGraph handles GET /v1/graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Transitions())
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "rollcall-http",
		"version":     strings.TrimSpace(rollcall.Version),
		"api_version": apiVersion,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
