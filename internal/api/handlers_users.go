package api

import (
	"log/slog"
	"net/http"

	"tripplanner/internal/models"
)

// CreateUser handles signup requests. The response carries the access token,
// which is never shown again.
// POST /api/v1/users
func (h *Handlers) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req models.CreateUserRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	response, err := h.planner.CreateUser(r.Context(), &req)
	if err != nil {
		slog.Warn("User signup failed",
			"event", "security_audit",
			"client_ip", clientIP(r),
			"error", err.Error())
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("User signed up",
		"event", "security_audit",
		"user_id", response.User.ID,
		"client_ip", clientIP(r))

	h.writeJSONResponse(w, http.StatusCreated, response)
}

// GetCurrentUser returns the authenticated user
// GET /api/v1/users/me
func (h *Handlers) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.planner.GetUser(r.Context(), UserFromContext(r.Context()).ID)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, user)
}

// ListUsers handles the mocked user directory
// GET /api/v1/users
func (h *Handlers) ListUsers(w http.ResponseWriter, r *http.Request) {
	response, err := h.planner.ListUsers(r.Context())
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}
