// Package api provides the HTTP API server and handlers for the OpenShelf catalog.
package api

import (
	"context"
	"encoding/json/v2"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/openshelf/openshelf-server/internal/config"
	"github.com/openshelf/openshelf-server/internal/service"
	"github.com/openshelf/openshelf-server/internal/store"
)

// Services bundles the service layer dependencies of the HTTP surface.
type Services struct {
	Author   *service.AuthorService
	Category *service.CategoryService
	Book     *service.BookService
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store    *store.Store
	services *Services
	router   *chi.Mux
	api      huma.API
	logger   *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(cfg *config.Config, st *store.Store, services *Services, logger *slog.Logger) *Server {
	s := &Server{
		store:    st,
		services: services,
		router:   chi.NewRouter(),
		logger:   logger,
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("OpenShelf API", "1.0.0")
	humaConfig.Info.Description = "Book catalog with authors, categories, and file attachments"
	RegisterErrorHandler()
	s.api = humachi.New(s.router, humaConfig)

	s.registerHealthRoutes()
	s.registerAuthorRoutes()
	s.registerCategoryRoutes()
	s.registerBookRoutes()
	s.registerAdminRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
}

// MessageResponse is a simple message body.
type MessageResponse struct {
	Message string `json:"message" doc:"Result message"`
}

// MessageOutput wraps a message response.
type MessageOutput struct {
	Body MessageResponse
}

type HealthOutput struct {
	Body struct {
		Status string `json:"status" doc:"Server health status"`
	}
}

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Tags:        []string{"System"},
	}, s.handleHealthCheck)
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	out := &HealthOutput{}
	out.Body.Status = "healthy"
	return out, nil
}

// writeJSON writes a JSON response for the direct chi handlers that
// bypass huma (multipart and file streaming).
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.MarshalWrite(w, v); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}

// writeError writes a domain error as a JSON error response.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr := apiErrorFrom(err)
	if apiErr == nil {
		s.logger.Error("Unhandled error in request", "error", err)
		apiErr = &APIError{
			status:  http.StatusInternalServerError,
			Code:    statusToCode(http.StatusInternalServerError),
			Message: "internal server error",
		}
	}
	s.writeJSON(w, apiErr.GetStatus(), apiErr)
}
