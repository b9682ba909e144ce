// Package http provides HTTP handlers for the world generator.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/easyworld/worldgen/adapters/metrics"
	"github.com/easyworld/worldgen/app"
	"github.com/easyworld/worldgen/core/schema"
	"github.com/easyworld/worldgen/docs/swagger"
	"github.com/easyworld/worldgen/domain/world"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger"
)

const (
	// DefaultRequestTimeout bounds every request handled by the router.
	DefaultRequestTimeout = 60 * time.Second

	// DefaultRetryAfter is advertised when the oracle is unavailable.
	DefaultRetryAfter = 5 * time.Second

	maxBodyBytes = 1 << 20
)

// ParseRequest is the body of POST /parse_description.
type ParseRequest struct {
	Description string `json:"description" example:"rolling green hills with a small lake and a village"`
}

// ErrorResponseBody represents a JSON:API error document for swagger docs.
type ErrorResponseBody struct {
	Errors []Error `json:"errors"`
}

// VersionResponse represents the version endpoint response.
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
	Service string `json:"service" example:"worldgen"`
}

// HealthResponse represents a health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}

// WorldHandler serves world generation requests.
type WorldHandler struct {
	service    *app.WorldService
	logger     zerolog.Logger
	retryAfter atomic.Int64
}

// NewWorldHandler creates a new world handler.
func NewWorldHandler(service *app.WorldService, logger zerolog.Logger) *WorldHandler {
	h := &WorldHandler{
		service: service,
		logger:  logger,
	}
	h.retryAfter.Store(int64(DefaultRetryAfter))
	return h
}

// SetRetryAfter changes the Retry-After hint sent with 503 responses.
func (h *WorldHandler) SetRetryAfter(d time.Duration) {
	if d > 0 {
		h.retryAfter.Store(int64(d))
	}
}

// ParseDescription turns a free-text description into a world configuration.
//
//	@Summary		Generate a world configuration
//	@Description	Asks the language model oracle for parameters matching the description, then validates and reconciles them
//	@Tags			World
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ParseRequest		true	"World description"
//	@Success		200		{object}	world.Config		"World configuration"
//	@Failure		400		{object}	ErrorResponseBody	"Missing description or malformed body"
//	@Failure		500		{object}	ErrorResponseBody	"Oracle reply could not be parsed"
//	@Failure		503		{object}	ErrorResponseBody	"Oracle unavailable or timed out"
//	@Router			/parse_description [post]
func (h *WorldHandler) ParseDescription(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to read request body")
		WriteError(w, NewError(http.StatusBadRequest, "bad_request", "Bad Request").
			Detail("Failed to read request body").Build())
		return
	}

	var req ParseRequest
	if err := json.Unmarshal(body, &req); err != nil {
		WriteError(w, NewError(http.StatusBadRequest, "invalid_json", "Invalid JSON").
			Detail(err.Error()).Build())
		return
	}
	if strings.TrimSpace(req.Description) == "" {
		WriteError(w, descriptionRequired())
		return
	}

	res, err := h.service.Generate(r.Context(), req.Description)
	if err != nil {
		h.writeGenerateError(w, r, err)
		return
	}

	w.Header().Set("X-Request-ID", res.RequestID)
	w.Header().Set("X-World-Adjustments", strconv.Itoa(len(res.Adjustments)))
	writeJSON(w, http.StatusOK, res.Config)
}

func (h *WorldHandler) writeGenerateError(w http.ResponseWriter, r *http.Request, err error) {
	var oracleErr *world.OracleError
	var extractErr *world.ExtractionError

	switch {
	case errors.Is(err, world.ErrEmptyDescription):
		WriteError(w, descriptionRequired())

	case errors.As(err, &oracleErr):
		w.Header().Set("Retry-After", strconv.Itoa(int(time.Duration(h.retryAfter.Load()).Seconds())))
		code, title := "oracle_unavailable", "Oracle Unavailable"
		if oracleErr.Timeout {
			code, title = "oracle_timeout", "Oracle Timeout"
		}
		WriteError(w, NewError(http.StatusServiceUnavailable, code, title).
			Detail(oracleErr.Error()).Build())

	case errors.As(err, &extractErr):
		WriteError(w, NewError(http.StatusInternalServerError, "extraction_failed", "Extraction Failed").
			Detail(extractErr.Reason).
			Meta("raw", extractErr.Raw).
			Build())

	default:
		h.logger.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("world generation failed")
		WriteError(w, NewError(http.StatusInternalServerError, "internal_error", "Internal Server Error").Build())
	}
}

func descriptionRequired() Error {
	return NewError(http.StatusBadRequest, "description_required", "Description Required").
		Detail("A non-empty description is required").
		Pointer("/description").
		Build()
}

// SchemaHandler exposes the field schema registry.
type SchemaHandler struct {
	registry *schema.Registry
}

// NewSchemaHandler creates a new schema handler.
func NewSchemaHandler(registry *schema.Registry) *SchemaHandler {
	if registry == nil {
		registry = schema.Default()
	}
	return &SchemaHandler{registry: registry}
}

// List returns every module definition.
//
//	@Summary		List module schemas
//	@Description	Returns the field definitions of every configuration module in renderer order
//	@Tags			Schema
//	@Produce		json
//	@Success		200	{object}	Document	"Module collection"
//	@Router			/schema [get]
func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	mods := h.registry.Modules()
	data := make([]Resource, 0, len(mods))
	for _, m := range mods {
		data = append(data, moduleResource(m))
	}
	WriteDocument(w, http.StatusOK, Document{
		Data: data,
		Meta: Meta{"total": len(data)},
	})
}

// Get returns one module definition.
//
//	@Summary		Get a module schema
//	@Description	Returns the field definitions of one configuration module
//	@Tags			Schema
//	@Produce		json
//	@Param			kind	path		string				true	"Module kind"	Enums(heights, textures, grass, trees, water, objects, atmosphere, city)
//	@Success		200		{object}	Document			"Module"
//	@Failure		404		{object}	ErrorResponseBody	"Unknown module"
//	@Router			/schema/{kind} [get]
func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	m, err := h.registry.SchemaFor(schema.Kind(kind))
	if err != nil {
		WriteError(w, NewError(http.StatusNotFound, "module_not_found", "Module Not Found").
			Detail(err.Error()).
			Parameter("kind").
			Build())
		return
	}
	WriteDocument(w, http.StatusOK, Document{Data: moduleResource(m)})
}

func moduleResource(m schema.Module) Resource {
	attrs := map[string]any{
		"key":    m.Key,
		"fields": m.Fields,
	}
	if len(m.Aliases) > 0 {
		attrs["aliases"] = m.Aliases
	}
	if m.Repeated {
		attrs["repeated"] = true
	}
	if m.Description != "" {
		attrs["description"] = m.Description
	}
	return Resource{Type: "module", ID: string(m.Kind), Attributes: attrs}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	checker HealthChecker
}

// HealthChecker interface for checking dependency health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewHealthHandler creates a new health handler. A nil checker is always ready.
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Liveness returns a simple liveness check.
//
//	@Summary		Liveness check
//	@Description	Returns OK if the service is running
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse	"status: ok"
//	@Router			/health [get]
//	@Router			/health/live [get]
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Readiness checks if the service is ready to handle traffic.
//
//	@Summary		Readiness check
//	@Description	Checks if the service and its journal are ready to handle traffic
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	HealthResponse			"status: ok"
//	@Failure		503	{object}	map[string]interface{}	"status: unhealthy, error: message"
//	@Router			/health/ready [get]
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.checker != nil {
		if err := h.checker.HealthCheck(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			})
			return
		}
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// Version returns a handler reporting the service version.
//
//	@Summary		Get service version
//	@Description	Returns the version information for the worldgen service
//	@Tags			System
//	@Produce		json
//	@Success		200	{object}	VersionResponse	"Version information"
//	@Router			/version [get]
func Version(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, VersionResponse{
			Version: version,
			Service: "worldgen",
		})
	}
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics        *metrics.Collector
	MetricsHandler http.Handler  // Optional /metrics handler; defaults to promhttp when Metrics is set
	EnableOpenAPI  bool
	RequestTimeout time.Duration // Zero means DefaultRequestTimeout
	Version        string
}

// NewRouter creates the HTTP router with all routes mounted.
func NewRouter(worldHandler *WorldHandler, schemaHandler *SchemaHandler, healthHandler *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", healthHandler.Liveness)
	r.Get("/health/live", healthHandler.Liveness)
	r.Get("/health/ready", healthHandler.Readiness)

	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	} else if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	if cfg.EnableOpenAPI {
		r.Get("/.well-known/openapi.json", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Access-Control-Allow-Origin", "*")
			io.WriteString(w, swagger.SwaggerInfo.ReadDoc())
		})

		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/.well-known/openapi.json"),
		))
	}

	r.Get("/version", Version(cfg.Version))

	r.Post("/parse_description", worldHandler.ParseDescription)
	r.Get("/schema", schemaHandler.List)
	r.Get("/schema/{kind}", schemaHandler.Get)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, NewError(http.StatusNotFound, "not_found", "Not Found").
			Detail("No route for "+r.Method+" "+r.URL.Path).Build())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		WriteError(w, NewError(http.StatusMethodNotAllowed, "method_not_allowed", "Method Not Allowed").Build())
	})

	return r
}

func isInternalPath(path string) bool {
	return strings.HasPrefix(path, "/health") || path == "/metrics" ||
		strings.HasPrefix(path, "/swagger") || strings.HasPrefix(path, "/.well-known")
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isInternalPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			// Route patterns keep /schema/{kind} to one series.
			path := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				path = rctx.RoutePattern()
			}
			path = metrics.NormalizePath(path)
			status := metrics.StatusClass(ww.Status())

			m.RequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
