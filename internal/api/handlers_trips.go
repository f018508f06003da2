package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"tripplanner/internal/models"

	"github.com/gorilla/mux"
)

// ListTrips handles trip listing requests
// GET /api/v1/trips
func (h *Handlers) ListTrips(w http.ResponseWriter, r *http.Request) {
	response, err := h.planner.ListTrips(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// CreateTrip handles trip creation requests
// POST /api/v1/trips
func (h *Handlers) CreateTrip(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req models.CreateTripRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	trip, err := h.planner.CreateTrip(r.Context(), user, &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("Trip created", "trip_id", trip.ID, "user_id", user.ID)

	w.Header().Set("Location", "/api/v1/trips/"+trip.ID)
	h.writeJSONResponse(w, http.StatusCreated, trip)
}

// GetTrip handles trip retrieval requests
// GET /api/v1/trips/{trip_id}
func (h *Handlers) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["trip_id"]

	trip, err := h.planner.GetTrip(r.Context(), UserFromContext(r.Context()), tripID)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, trip)
}

// UpdateTrip handles partial trip updates
// PUT /api/v1/trips/{trip_id}
func (h *Handlers) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["trip_id"]

	var req models.UpdateTripRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	trip, err := h.planner.UpdateTrip(r.Context(), UserFromContext(r.Context()), tripID, &req)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, trip)
}

// DeleteTrip handles trip deletion requests
// DELETE /api/v1/trips/{trip_id}
func (h *Handlers) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	tripID := mux.Vars(r)["trip_id"]

	if err := h.planner.DeleteTrip(r.Context(), user, tripID); err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	slog.Info("Trip deleted", "trip_id", tripID, "user_id", user.ID)

	h.writeJSONResponse(w, http.StatusOK, &models.DeleteTripResponse{
		ID:      tripID,
		Message: fmt.Sprintf("trip '%s' deleted", tripID),
	})
}

// ListMessages handles conversation history requests
// GET /api/v1/trips/{trip_id}/messages
func (h *Handlers) ListMessages(w http.ResponseWriter, r *http.Request) {
	tripID := mux.Vars(r)["trip_id"]

	response, err := h.planner.Messages(r.Context(), UserFromContext(r.Context()), tripID)
	if err != nil {
		h.writeServiceErrorResponse(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}
