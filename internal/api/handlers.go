package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"tripplanner/internal/models"
	"tripplanner/internal/planner"
	"tripplanner/internal/storage"
	"tripplanner/internal/travel"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// Handlers contains HTTP handlers for the trip planner API
type Handlers struct {
	planner   planner.ServiceInterface
	catalog   travel.CatalogInterface
	storage   storage.Storage
	version   string
	startedAt time.Time
}

// HandlerOption configures optional Handlers dependencies.
type HandlerOption func(*Handlers)

// WithStorage lets the health check ping the storage backend.
func WithStorage(s storage.Storage) HandlerOption {
	return func(h *Handlers) { h.storage = s }
}

// WithVersion sets the version reported by the health check.
func WithVersion(v string) HandlerOption {
	return func(h *Handlers) { h.version = v }
}

// NewHandlers creates a new handlers instance
func NewHandlers(plannerService planner.ServiceInterface, catalog travel.CatalogInterface, opts ...HandlerOption) *Handlers {
	h := &Handlers{
		planner:   plannerService,
		catalog:   catalog,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Chat handles planner conversation turns
// POST /api/v1/chat
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.ChatRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	response, err := h.planner.Chat(r.Context(), user, &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Debug("Chat turn handled",
		"user_id", user.ID,
		"trip_id", response.TripID,
		"missing", strings.Join(response.Missing, ","))

	h.writeJSONResponse(w, http.StatusOK, response)
}

// HealthCheck handles health check requests
// GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	response := models.NewHealthCheckResponse(models.StatusHealthy)
	response.Version = h.version
	response.Uptime = time.Since(h.startedAt).Round(time.Second).String()
	response.AddComponent("api", models.StatusHealthy, "API is operational")

	statusCode := http.StatusOK
	if h.storage != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		if err := h.storage.Ping(ctx); err != nil {
			slog.Warn("Storage health check failed", "error", err)
			response.Status = models.StatusUnhealthy
			response.AddComponent("storage", models.StatusUnhealthy, "Storage is unreachable")
			statusCode = http.StatusServiceUnavailable
		} else {
			response.AddComponent("storage", models.StatusHealthy, "Storage is operational")
		}
		response.AddMetric("storage_ping_ms", time.Since(start).Milliseconds())
	}

	h.writeJSONResponse(w, statusCode, response)
}

// decodeJSON reads a JSON request body into dst, writing a 400 on failure.
func (h *Handlers) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		h.writeErrorResponse(w, http.StatusUnsupportedMediaType, models.ErrorCodeBadRequest, "Content-Type must be application/json")
		return false
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "Invalid JSON body")
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (h *Handlers) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already written.
		slog.Error("Error encoding JSON response", "error", err)
	}
}

// writeErrorResponse writes an error response
func (h *Handlers) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeJSONError(w, statusCode, errorCode, message)
}

// writeServiceErrorResponse maps planner errors to their HTTP status. Errors
// that carry no HTTP context become a generic 500.
func (h *Handlers) writeServiceErrorResponse(w http.ResponseWriter, err error) {
	var svcErr *planner.ServiceError
	if errors.As(err, &svcErr) {
		if svcErr.StatusCode >= http.StatusInternalServerError {
			slog.Error("Planner operation failed", "code", svcErr.Code, "error", err)
			h.writeErrorResponse(w, svcErr.StatusCode, svcErr.Code, svcErr.Message)
			return
		}
		h.writeErrorResponse(w, svcErr.StatusCode, svcErr.Code, svcErr.Error())
		return
	}

	slog.Error("Unexpected planner error", "error", err)
	h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Internal server error")
}

// writeJSONError writes a models.ErrorResponse outside of a Handlers method.
func writeJSONError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(models.NewErrorResponse(message, errorCode)); err != nil {
		slog.Error("Error encoding JSON error response", "error", err)
	}
}
