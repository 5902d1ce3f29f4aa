package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aretw0/onboard"
	"github.com/aretw0/onboard/pkg/conversation"
	"github.com/aretw0/onboard/pkg/domain"
	"github.com/aretw0/onboard/pkg/ports"
	"github.com/aretw0/onboard/pkg/runner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultMaxUploadBytes bounds a single import file.
const DefaultMaxUploadBytes = 10 << 20

// Server exposes a SessionEngine over HTTP.
type Server struct {
	Engine   ports.SessionEngine
	logger   *slog.Logger
	metrics  prometheus.Gatherer
	maxBytes int64
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics exposes the given registry on /metrics.
func WithMetrics(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = g
	}
}

// WithMaxUploadBytes overrides DefaultMaxUploadBytes.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxBytes = n
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine ports.SessionEngine, opts ...Option) http.Handler {
	s := &Server{
		Engine:   engine,
		logger:   slog.Default(),
		maxBytes: DefaultMaxUploadBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.metrics, promhttp.HandlerOpts{}))
	}

	r.Get("/stages", s.ListStages)
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.StartSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Get("/turns", s.ListTurns)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/input", s.SendInput)
			r.Post("/jump", s.Jump)
			r.Post("/files/{stage}", s.SelectFile)
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type startRequest struct {
	SessionID string         `json:"session_id"`
	Claims    map[string]any `json:"claims"`
}

type inputRequest struct {
	Token string `json:"token"`
	Text  string `json:"text"`
}

type jumpRequest struct {
	Stage domain.StageID `json:"stage"`
}

type turnsResponse struct {
	Total int           `json:"total"`
	Turns []domain.Turn `json:"turns"`
}

// StartSession handles POST /sessions. The request carries the host session
// claims; the session is resumed when session_id already exists.
func (s *Server) StartSession(w http.ResponseWriter, r *http.Request) {
	var body startRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	sc, err := domain.SessionFromClaims(body.Claims)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	view, err := s.Engine.Start(r.Context(), body.SessionID, sc)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusCreated, view)
}

// GetSession handles GET /sessions/{sessionID}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.Engine.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

// ListTurns handles GET /sessions/{sessionID}/turns?after=N, letting clients
// poll for the turns appended since they last rendered.
func (s *Server) ListTurns(w http.ResponseWriter, r *http.Request) {
	after := 0
	if raw := r.URL.Query().Get("after"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.fail(w, r, fmt.Errorf("%w: after must be a non-negative integer", errBadRequest))
			return
		}
		after = n
	}

	view, err := s.Engine.View(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	turns := conversation.After(view.Turns, after)
	if turns == nil {
		turns = []domain.Turn{}
	}
	s.respond(w, http.StatusOK, turnsResponse{Total: len(view.Turns), Turns: turns})
}

// SendInput handles POST /sessions/{sessionID}/input.
func (s *Server) SendInput(w http.ResponseWriter, r *http.Request) {
	var body inputRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	// Sanitize Input (Global Policy)
	text, err := runner.SanitizeInput(body.Text)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	view, err := s.Engine.Input(r.Context(), chi.URLParam(r, "sessionID"), body.Token, text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

// Jump handles POST /sessions/{sessionID}/jump.
func (s *Server) Jump(w http.ResponseWriter, r *http.Request) {
	var body jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	view, err := s.Engine.Jump(r.Context(), chi.URLParam(r, "sessionID"), body.Stage)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

// SelectFile handles POST /sessions/{sessionID}/files/{stage} with a
// multipart "file" field.
func (s *Server) SelectFile(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: missing file: %w", errBadRequest, err))
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.fail(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}

	upload := domain.Upload{Name: header.Filename, Content: content}
	stage := domain.StageID(chi.URLParam(r, "stage"))
	view, err := s.Engine.SelectFile(r.Context(), chi.URLParam(r, "sessionID"), stage, upload)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.respond(w, http.StatusOK, view)
}

// ListStages handles GET /stages?role=.
func (s *Server) ListStages(w http.ResponseWriter, r *http.Request) {
	role := domain.RolePlatformAdmin
	if raw := r.URL.Query().Get("role"); raw != "" {
		role = domain.Role(raw)
	}
	if !role.Valid() {
		s.fail(w, r, fmt.Errorf("%w: unsupported role %q", errBadRequest, role))
		return
	}
	s.respond(w, http.StatusOK, s.Engine.Stages(domain.SessionContext{ActorRole: role}))
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if swagger, err := GetSwagger(); err == nil && swagger.Info != nil {
		apiVersion = swagger.Info.Version
	}
	s.respond(w, http.StatusOK, map[string]string{
		"app":         "onboard-http",
		"version":     onboard.Version,
		"api_version": apiVersion,
	})
}

func (s *Server) respond(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

var errBadRequest = errors.New("bad request")

// statusFor maps engine errors onto HTTP status codes.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	switch {
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrSessionClosed),
		errors.Is(err, domain.ErrSessionConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		s.logger.Warn("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	s.respond(w, status, map[string]string{"error": err.Error()})
}
