package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aretw0/reel/internal/logging"
	"github.com/aretw0/reel/pkg/agent"
	"github.com/aretw0/reel/pkg/domain"
	"github.com/aretw0/reel/pkg/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AgentFactory builds a fresh agent. Each request restores the session's
// snapshot into its own agent, so agents are never shared between requests.
type AgentFactory func() (*agent.Agent, error)

// MessageRequest is the body of POST /sessions/{id}/messages.
type MessageRequest struct {
	Text string `json:"text"`
}

// MessageResponse carries a system reply.
type MessageResponse struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Terminal bool   `json:"terminal"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Server exposes chat sessions over HTTP.
type Server struct {
	sessions *session.Manager
	newAgent AgentFactory
	logger   *slog.Logger
	gatherer prometheus.Gatherer
	maxInput int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithGatherer sets the registry served on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithMaxInputSize overrides DefaultMaxInputSize.
func WithMaxInputSize(n int) Option {
	return func(s *Server) {
		s.maxInput = n
	}
}

// NewServer creates a server persisting sessions through sessions.
func NewServer(sessions *session.Manager, newAgent AgentFactory, opts ...Option) *Server {
	s := &Server{
		sessions: sessions,
		newAgent: newAgent,
		logger:   logging.NewNop(),
		gatherer: prometheus.DefaultGatherer,
		maxInput: DefaultMaxInputSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes of the server.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.listSessions)
		r.Post("/", s.createSession)
		r.Get("/{id}", s.getSession)
		r.Delete("/{id}", s.deleteSession)
		r.Post("/{id}/messages", s.postMessage)
	})
	return r
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	s.respond(w, http.StatusOK, ids)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	id := uuid.NewString()
	var welcome string
	_, _, err := s.sessions.LoadOrStart(r.Context(), id, func() (*domain.Snapshot, error) {
		a, err := s.newAgent()
		if err != nil {
			return nil, err
		}
		a.Initialize()
		welcome = a.StartDialogue(r.Context())
		return a.Snapshot(), nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.logger.Info("session created", "session_id", id)
	s.respond(w, http.StatusCreated, MessageResponse{ID: id, Text: welcome})
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	snap, err := s.sessions.Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, snap)
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req MessageRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, int64(s.maxInput)*2)).Decode(&req); err != nil {
		s.respond(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	text, err := SanitizeInput(req.Text, s.maxInput)
	if err != nil {
		s.logger.Warn("message rejected", "session_id", id, "err", err, "size", len(req.Text))
		s.respond(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	resp := MessageResponse{ID: id}
	_, err = s.sessions.Update(r.Context(), id, func(snap *domain.Snapshot) error {
		a, err := s.newAgent()
		if err != nil {
			return err
		}
		a.Restore(snap)
		if resp.Text, err = a.ContinueDialogue(r.Context(), text); err != nil {
			return err
		}
		resp.Terminal = a.Terminated()
		if resp.Terminal {
			if err := a.EndDialogue(r.Context()); err != nil {
				s.logger.Warn("failed to end dialogue", "session_id", id, "err", err)
			}
		}
		*snap = *a.Snapshot()
		return nil
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, resp)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "err", err)
	}
	s.respond(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}
