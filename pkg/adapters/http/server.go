package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/shindan"
	"github.com/aretw0/shindan/internal/logging"
	"github.com/aretw0/shindan/internal/presentation/graph"
	"github.com/aretw0/shindan/pkg/adapters/memory"
	"github.com/aretw0/shindan/pkg/catalog"
	"github.com/aretw0/shindan/pkg/domain"
	"github.com/aretw0/shindan/pkg/session"
	"github.com/aretw0/shindan/pkg/tree"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

// Engine is the part of the tree engine the HTTP surface uses. *shindan.Engine satisfies it.
type Engine interface {
	session.Navigator
	Tree() *tree.Tree
	GetNode(id string) (domain.Node, bool)
	Catalog() *catalog.Catalog
	Audit() tree.Report
}

// Server implements ServerInterface.
type Server struct {
	Engine   Engine
	Sessions *session.Manager
	Streams  *StreamManager

	name     string
	metrics  http.Handler
	logger   *slog.Logger
	validate *validator.Validate
}

var _ ServerInterface = (*Server)(nil)

// Option configures a Server.
type Option func(*Server)

// WithSessions sets the session manager. Defaults to one backed by an in-memory store.
func WithSessions(m *session.Manager) Option {
	return func(s *Server) {
		s.Sessions = m
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTreeName sets the tree label reported by /info.
func WithTreeName(name string) Option {
	return func(s *Server) {
		s.name = name
	}
}

// NewServer builds a Server for engine.
func NewServer(engine Engine, opts ...Option) *Server {
	s := &Server{
		Engine:   engine,
		logger:   logging.NewNop(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Sessions == nil {
		s.Sessions = session.NewManager(engine, memory.NewStore(), session.WithLogger(s.logger))
	}
	s.Streams = NewStreamManager(s.logger)
	return s
}

// Handler returns the routed handler with CORS enabled.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		spec, err := rawSpec()
		if err != nil {
			s.logger.Error("failed to load openapi document", "err", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(spec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(HandlerFromMux(s, r))
}

// NewHandler is NewServer(engine, opts...).Handler().
func NewHandler(engine Engine, opts ...Option) http.Handler {
	return NewServer(engine, opts...).Handler()
}

// NotifyReload tells global SSE subscribers that the tree was swapped.
func (s *Server) NotifyReload() {
	t := s.Engine.Tree()
	payload, err := json.Marshal(map[string]any{
		"type":  "reload",
		"entry": t.Entry(),
		"nodes": t.Len(),
	})
	if err != nil {
		s.logger.Error("reload event encode failed", "err", err)
		return
	}
	s.Streams.Broadcast(GlobalTopic, string(payload))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>Shindan API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// -- Wire types --

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// NodeView is a node with what a client needs to render it.
type NodeView struct {
	Node        domain.Node       `json:"node"`
	Terminal    bool              `json:"terminal"`
	Services    []catalog.Service `json:"services,omitempty"`
	ContactLink string            `json:"contact_link,omitempty"`
}

// AdvanceRequest is the body of POST /advance.
type AdvanceRequest struct {
	CurrentID   string `json:"current_id" validate:"required"`
	AnswerIndex *int   `json:"answer_index" validate:"required"`
}

// AdvanceResponse is the body returned by POST /advance.
type AdvanceResponse struct {
	NextID string `json:"next_id"`
	NodeView
}

// AnswerRequest is the body of POST /sessions/{id}/answers.
type AnswerRequest struct {
	AnswerIndex *int `json:"answer_index" validate:"required"`
}

// SessionView is a session with its current node.
type SessionView struct {
	Session *domain.Session `json:"session"`
	NodeView
}

// -- Handlers --

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
		"app":         "shindan-http",
		"version":     strings.TrimSpace(shindan.Version),
		"api_version": apiVersion,
		"tree":        s.name,
	})
}

// GetTree handles GET /tree.
func (s *Server) GetTree(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Engine.Audit())
}

// GetNode handles GET /nodes/{id}.
func (s *Server) GetNode(w http.ResponseWriter, r *http.Request, id string) {
	view, ok := s.nodeView(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, id))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Advance handles POST /advance.
func (s *Server) Advance(w http.ResponseWriter, r *http.Request) {
	var body AdvanceRequest
	if !s.decode(w, r, &body) {
		return
	}

	next, err := s.Engine.Advance(r.Context(), body.CurrentID, *body.AnswerIndex)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	view, ok := s.nodeView(next)
	if !ok {
		writeError(w, http.StatusInternalServerError, fmt.Errorf("%w: %q", domain.ErrNodeNotFound, next))
		return
	}
	writeJSON(w, http.StatusOK, AdvanceResponse{NextID: next, NodeView: view})
}

// GetGraph handles GET /graph.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request, params GetGraphParams) {
	var overlay *graph.GraphOverlay
	if params.SessionId != nil && *params.SessionId != "" {
		sess, err := s.Sessions.Load(r.Context(), *params.SessionId)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		overlay = graph.OverlayFromSession(sess)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, graph.GenerateMermaid(s.Engine.Tree(), overlay))
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Sessions.List(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ids)
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Sessions.Start(r.Context())
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondSession(w, http.StatusCreated, sess, false)
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Sessions.Load(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondSession(w, http.StatusOK, sess, false)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request, id string) {
	if _, err := s.Sessions.Load(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	if err := s.Sessions.Delete(r.Context(), id); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AnswerSession handles POST /sessions/{id}/answers.
func (s *Server) AnswerSession(w http.ResponseWriter, r *http.Request, id string) {
	var body AnswerRequest
	if !s.decode(w, r, &body) {
		return
	}
	sess, err := s.Sessions.Answer(r.Context(), id, *body.AnswerIndex)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondSession(w, http.StatusOK, sess, true)
}

// BackSession handles POST /sessions/{id}/back.
func (s *Server) BackSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Sessions.Back(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondSession(w, http.StatusOK, sess, true)
}

// ResetSession handles POST /sessions/{id}/reset.
func (s *Server) ResetSession(w http.ResponseWriter, r *http.Request, id string) {
	sess, err := s.Sessions.Reset(r.Context(), id)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	s.respondSession(w, http.StatusOK, sess, true)
}

// SubscribeEvents handles GET /events (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request, params SubscribeEventsParams) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}

	topic := GlobalTopic
	if params.SessionId != nil {
		topic = *params.SessionId
		if _, err := s.Sessions.Load(r.Context(), topic); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()
	s.logger.Info("sse client connected", "topic", topic)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("sse client disconnected", "topic", topic)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

// -- Helpers --

func (s *Server) nodeView(id string) (NodeView, bool) {
	n, ok := s.Engine.GetNode(id)
	if !ok {
		return NodeView{}, false
	}
	view := NodeView{Node: n}
	if res, isResult := n.(*domain.Result); isResult {
		view.Terminal = true
		if c := s.Engine.Catalog(); c != nil {
			view.Services, _ = c.Resolve(res.RecommendedServices)
		}
		view.ContactLink = catalog.ContactLink(res)
	}
	return view, true
}

func (s *Server) respondSession(w http.ResponseWriter, status int, sess *domain.Session, broadcast bool) {
	view, ok := s.nodeView(sess.Current)
	if !ok {
		// The tree was reloaded under this session.
		s.logger.Warn("session points at a missing node", "session_id", sess.ID, "node_id", sess.Current)
	}
	resp := SessionView{Session: sess, NodeView: view}

	if broadcast {
		if payload, err := json.Marshal(resp); err == nil {
			s.Streams.Broadcast(sess.ID, string(payload))
		}
	}
	writeJSON(w, status, resp)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.logger.Warn("invalid request body", "path", r.URL.Path, "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

// writeDomainError maps engine and session errors to status codes.
func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case domain.IsUsageError(err):
		writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNodeNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrNoHistory):
		writeError(w, http.StatusConflict, err)
	default:
		s.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "err", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}
