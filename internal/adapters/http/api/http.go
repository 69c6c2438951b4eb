// Package api serves the catalog over HTTP: routing, CORS, body handling
// and the JSON envelope.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	service "github.com/okian/catalog/internal/app"
	"github.com/okian/catalog/internal/domain/model"
	"github.com/okian/catalog/internal/domain/validate"
	"github.com/okian/catalog/pkg/logger"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 1 << 20

// Resource is the per-kind operation set the handlers depend on.
type Resource[T any] interface {
	Kind() model.Kind
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, payload validate.Payload) (T, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// Server wires HTTP routes for the catalog API.
type Server struct {
	packages     *resourceHandler[model.CreditPackage]
	skills       *resourceHandler[model.Skill]
	health       *HealthHandler
	maxBodyBytes int64
	logger       logger.Logger
}

// Option applies a configuration option to the Server.
type Option func(*Server)

// WithLogger sets the logger used for request failures.
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodyBytes caps how many request body bytes create handlers read.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBodyBytes = n
		}
	}
}

// NewServer creates the API server for the two catalog resources.
func NewServer(packages Resource[model.CreditPackage], skills Resource[model.Skill], opts ...Option) *Server {
	s := &Server{
		maxBodyBytes: DefaultMaxBodyBytes,
		logger:       logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.packages = newResourceHandler(packages, s)
	s.skills = newResourceHandler(skills, s)
	s.health = NewHealthHandler(packages, skills)
	return s
}

// Register attaches the catalog routes and the 404 fallbacks to r.
func (s *Server) Register(_ context.Context, r chi.Router) {
	if r == nil {
		panic("router is nil")
	}

	s.packages.mount(r, "/api/credit-package")
	s.skills.mount(r, "/api/coaches/skill")

	r.Get("/healthz", s.health.HandleHealth)
	r.Get("/metrics", s.health.HandleMetrics)

	r.NotFound(s.handleUnrouted)
	r.MethodNotAllowed(s.handleUnrouted)
}

// NewRouter returns a chi router with the middleware chain every response
// goes through. Routes are added with Register.
func (s *Server) NewRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(MetricsMiddleware, CORSMiddleware, s.RecoverMiddleware)
	return r
}

// Handler returns a ready router with all catalog routes registered.
func (s *Server) Handler(ctx context.Context) http.Handler {
	r := s.NewRouter()
	s.Register(ctx, r)
	return r
}

func (s *Server) handleUnrouted(w http.ResponseWriter, _ *http.Request) {
	writeFailed(w, http.StatusNotFound, "no such route")
}

// Envelope statuses.
const (
	statusSuccess = "success"
	statusFailed  = "failed"
	statusError   = "error"
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeSuccess answers 200. A nil data omits the data member.
func writeSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, envelope{Status: statusSuccess, Data: data})
}

func writeFailed(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Status: statusFailed, Message: message})
}

func writeServerError(w http.ResponseWriter) {
	writeJSON(w, http.StatusInternalServerError, envelope{Status: statusError, Message: "server error"})
}

// writeError maps an operation error to its response. Only validation,
// duplicate and invalid-id outcomes reach the client with detail.
func (s *Server) writeError(ctx context.Context, w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		msg := validate.ErrInvalidFields.Error()
		var verr *validate.Error
		if errors.As(err, &verr) {
			msg = verr.Error()
		}
		writeFailed(w, http.StatusBadRequest, msg)
	case errors.Is(err, service.ErrDuplicate):
		writeFailed(w, http.StatusConflict, "duplicate")
	case errors.Is(err, service.ErrInvalidID):
		writeFailed(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, validate.ErrMalformedBody):
		s.logger.Warn(ctx, "malformed request body",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeServerError(w)
	default:
		s.logger.Error(ctx, "request failed",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Error(err),
		)
		writeServerError(w)
	}
}
