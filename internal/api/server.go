// Package api provides a RESTful HTTP API server for pocket-placeholders.
//
// SYSTEM ARCHITECTURE ROLE:
// This module implements the HTTP interface layer. Every endpoint validates its input,
// runs the matching command through the CommandExecutor and writes a standardized
// JSON response.
//
// INTEGRATION POINTS:
// - internal/commands/types.go: APIServer.executor executes all operations through CommandExecutor
// - internal/errors/handlers.go: APIServer.errorHandler (HTTPErrorHandler) formats error responses
// - internal/validation/middleware.go: RequestValidator checks query, path and body per route
// - internal/session: the X-User-ID header becomes the session user of the request
// - internal/api/openapi.go: OpenAPI spec at /api/openapi.json, docs at /api/docs
//
// MIDDLEWARE STACK:
// - Logging: Request/response logging with timing information
// - CORS: Cross-origin resource sharing for web application integration
// - Content-Type: Automatic JSON content type setting
// - Error Handling: Panic recovery and standardized error responses
// - Rate limiting: token bucket shared by all clients, 429 when empty
// - Session: X-User-ID header authenticates the request
//
// ENDPOINT STRUCTURE:
// - /api/v1/placeholders: placeholder listing, ?owner= filter
// - /api/v1/owners: owner groups
// - /api/v1/search: fuzzy search
// - /api/v1/substitute: substitution (POST)
// - /api/v1/values: resolved values
// - /api/v1/lint: unknown token report (POST)
// - /api/v1/users, /api/v1/users/{id}: user profiles
// - /api/v1/health: System health monitoring
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/dpshade/pocket-placeholders/internal/commands"
	"github.com/dpshade/pocket-placeholders/internal/errors"
	"github.com/dpshade/pocket-placeholders/internal/models"
	"github.com/dpshade/pocket-placeholders/internal/renderer"
	"github.com/dpshade/pocket-placeholders/internal/service"
	"github.com/dpshade/pocket-placeholders/internal/session"
	"github.com/dpshade/pocket-placeholders/internal/validation"
)

// UserHeader carries the id of the user a request acts for
const UserHeader = "X-User-ID"

// APIServer provides the HTTP API with middleware support
type APIServer struct {
	service      *service.Service
	executor     *commands.CommandExecutor
	errorHandler *errors.HTTPErrorHandler
	validator    *validation.RequestValidator
	limiter      *rate.Limiter
	port         int
	server       *http.Server
}

// NewAPIServer creates a new API server instance
func NewAPIServer(svc *service.Service, port int) *APIServer {
	return &APIServer{
		service:      svc,
		executor:     commands.NewCommandExecutor(svc),
		errorHandler: errors.NewHTTPErrorHandler(true),
		validator:    validation.NewRequestValidator(),
		port:         port,
	}
}

// SetRateLimit allows rps requests per second with the given burst. rps <= 0
// disables limiting.
func (s *APIServer) SetRateLimit(rps float64, burst int) {
	if rps <= 0 {
		s.limiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	s.limiter = rate.NewLimiter(rate.Limit(rps), burst)
}

// Handler returns the routed HTTP handler
func (s *APIServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/placeholders", s.withMiddleware(s.validate("list_placeholders", s.handlePlaceholders)))
	mux.HandleFunc("/api/v1/owners", s.withMiddleware(s.handleOwners))
	mux.HandleFunc("/api/v1/search", s.withMiddleware(s.handleSearch))
	mux.HandleFunc("/api/v1/substitute", s.withMiddleware(s.validate("substitute", s.handleSubstitute)))
	mux.HandleFunc("/api/v1/values", s.withMiddleware(s.validate("resolve_values", s.handleValues)))
	mux.HandleFunc("/api/v1/lint", s.withMiddleware(s.validate("lint", s.handleLint)))
	mux.HandleFunc("/api/v1/users", s.withMiddleware(s.handleUsers))
	mux.HandleFunc("/api/v1/users/{id}", s.withMiddleware(s.validate("get_user", s.handleUser)))
	mux.HandleFunc("/api/v1/packs", s.withMiddleware(s.handlePacks))
	mux.HandleFunc("/api/v1/health", s.withMiddleware(s.handleHealth))

	mux.HandleFunc("/api/docs", s.withMiddleware(s.handleOpenAPI))
	mux.HandleFunc("/api/openapi.json", s.withMiddleware(s.handleOpenAPISpec))

	return mux
}

// Start begins serving HTTP requests with middleware
func (s *APIServer) Start() error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Printf("API server starting on http://localhost:%d", s.port)
	log.Printf("OpenAPI documentation: http://localhost:%d/api/docs", s.port)
	log.Printf("API specification: http://localhost:%d/api/openapi.json", s.port)

	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server
func (s *APIServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// withMiddleware applies middleware to HTTP handlers
func (s *APIServer) withMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return s.loggingMiddleware(
		s.corsMiddleware(
			s.contentTypeMiddleware(
				s.errorMiddleware(
					s.rateLimitMiddleware(
						s.sessionMiddleware(handler),
					),
				),
			),
		),
	)
}

func (s *APIServer) validate(schema string, handler http.HandlerFunc) http.HandlerFunc {
	return s.validator.ValidateRequest(schema)(handler)
}

// loggingMiddleware logs HTTP requests
func (s *APIServer) loggingMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next(w, r)
		duration := time.Since(start)
		log.Printf("[%s] %s %s - %v", r.Method, r.URL.Path, r.RemoteAddr, duration)
	}
}

// corsMiddleware handles CORS headers
func (s *APIServer) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+UserHeader)
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

// contentTypeMiddleware sets default content type
func (s *APIServer) contentTypeMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next(w, r)
	}
}

// errorMiddleware handles panics and errors
func (s *APIServer) errorMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic in handler: %v", err)
				appErr := errors.InternalError("Internal server error")
				s.errorHandler.WriteHTTPError(w, appErr)
			}
		}()
		next(w, r)
	}
}

// rateLimitMiddleware rejects requests once the token bucket is empty
func (s *APIServer) rateLimitMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			s.writeError(w, errors.NewAppError(errors.ErrCodeRateLimited, "Too many requests"))
			return
		}
		next(w, r)
	}
}

// sessionMiddleware authenticates the request from the X-User-ID header
func (s *APIServer) sessionMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(UserHeader)
		if id == "" {
			next(w, r)
			return
		}
		if err := validation.ValidateIdentifier(id); err != nil {
			s.writeError(w, err)
			return
		}
		ctx := session.WithUser(r.Context(), models.NewUserID(id))
		next(w, r.WithContext(ctx))
	}
}

// APIResponse represents a standardized API response
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Error     interface{} `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// writeResponse writes a standardized JSON response
func (s *APIServer) writeResponse(w http.ResponseWriter, data interface{}, message string, statusCode int) {
	response := APIResponse{
		Success:   statusCode < 400,
		Data:      data,
		Message:   message,
		Timestamp: time.Now(),
	}

	w.WriteHeader(statusCode)

	jsonData, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		json.NewEncoder(w).Encode(response)
		return
	}

	w.Write(jsonData)
}

// writeError writes an error response using the error handler
func (s *APIServer) writeError(w http.ResponseWriter, err error) {
	s.errorHandler.WriteHTTPError(w, err)
}

// allowMethod writes a 405 style error unless r uses method
func (s *APIServer) allowMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	s.writeError(w, errors.NewAppError(errors.ErrCodeInvalidCommand, "Method not allowed").
		WithContext("allowed", method))
	return false
}

// run executes a command and returns its result, writing the error response on failure
func (s *APIServer) run(w http.ResponseWriter, r *http.Request, name string, params map[string]interface{}) (*commands.CommandResult, bool) {
	result, err := s.executor.Execute(r.Context(), name, params)
	if err != nil {
		s.writeError(w, err)
		return nil, false
	}

	if !result.Success {
		if result.Error != nil {
			s.writeError(w, result.Error.AppError())
		} else {
			s.writeError(w, errors.InternalError("Command failed"))
		}
		return nil, false
	}
	return result, true
}

// runAndWrite executes a command and writes its data as the response
func (s *APIServer) runAndWrite(w http.ResponseWriter, r *http.Request, name string, params map[string]interface{}) {
	if result, ok := s.run(w, r, name, params); ok {
		s.writeResponse(w, result.Data, result.Message, http.StatusOK)
	}
}

// handlePlaceholders handles GET /api/v1/placeholders
func (s *APIServer) handlePlaceholders(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "list", validation.ValidatedData(r))
}

// handleOwners handles GET /api/v1/owners
func (s *APIServer) handleOwners(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "owners", nil)
}

// handleSearch handles GET /api/v1/search?q=
func (s *APIServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		s.writeError(w, errors.NewAppError(errors.ErrCodeMissingField, "Search query 'q' is required"))
		return
	}
	s.runAndWrite(w, r, "search", map[string]interface{}{"query": query})
}

// substituteResponse adds the markdown rendering when it was asked for
type substituteResponse struct {
	*commands.SubstituteResult
	Rendered string `json:"rendered,omitempty"`
}

// handleSubstitute handles POST /api/v1/substitute
func (s *APIServer) handleSubstitute(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}

	result, ok := s.run(w, r, "substitute", validation.ValidatedData(r))
	if !ok {
		return
	}

	data := result.Data.(*commands.SubstituteResult)
	response := substituteResponse{SubstituteResult: data}
	if data.Format == renderer.FormatMarkdown {
		rendered, err := renderer.NewRenderer(data.Document).WithStyle("notty").RenderMarkdown()
		if err != nil {
			s.writeError(w, errors.Wrap(err, errors.ErrCodeInternalError, "Failed to render markdown"))
			return
		}
		response.Rendered = rendered
	}

	s.writeResponse(w, response, result.Message, http.StatusOK)
}

// handleValues handles GET /api/v1/values
func (s *APIServer) handleValues(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "values", validation.ValidatedData(r))
}

// handleLint handles POST /api/v1/lint
func (s *APIServer) handleLint(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodPost) {
		return
	}
	s.runAndWrite(w, r, "lint", validation.ValidatedData(r))
}

// handleUsers handles GET /api/v1/users
func (s *APIServer) handleUsers(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "list-users", nil)
}

// handleUser handles GET /api/v1/users/{id}
func (s *APIServer) handleUser(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "get-user", map[string]interface{}{"id": r.PathValue("id")})
}

// handlePacks handles GET /api/v1/packs
func (s *APIServer) handlePacks(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}
	s.runAndWrite(w, r, "list-packs", nil)
}

// handleHealth handles GET /api/v1/health
func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !s.allowMethod(w, r, http.MethodGet) {
		return
	}

	result, err := s.executor.Execute(r.Context(), "health", nil)
	if err != nil {
		s.writeError(w, err)
		return
	}

	statusCode := http.StatusOK
	if !result.Success {
		statusCode = http.StatusServiceUnavailable
	}
	s.writeResponse(w, result.Data, result.Message, statusCode)
}
