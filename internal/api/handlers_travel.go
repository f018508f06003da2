package api

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"tripplanner/internal/models"
	"tripplanner/internal/travel"
)

// SearchFlights handles mocked flight searches
// GET /api/v1/flights/search?origin=LHR&destination=JFK&departure_date=2025-07-01
func (h *Handlers) SearchFlights(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	passengers, err := intParam(q, "passengers")
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	req := models.FlightSearchRequest{
		Origin:        q.Get("origin"),
		Destination:   q.Get("destination"),
		DepartureDate: q.Get("departure_date"),
		ReturnDate:    q.Get("return_date"),
		Passengers:    passengers,
		CabinClass:    q.Get("cabin_class"),
	}

	response, err := h.catalog.SearchFlights(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// SearchAccommodations handles mocked stay searches
// GET /api/v1/accommodations/search?city=Lisbon&check_in=2025-07-01&check_out=2025-07-04
func (h *Handlers) SearchAccommodations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	guests, err := intParam(q, "guests")
	if err != nil {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}

	var maxPrice float64
	if raw := q.Get("max_price"); raw != "" {
		if maxPrice, err = strconv.ParseFloat(raw, 64); err != nil {
			h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, "max_price must be a number")
			return
		}
	}

	req := models.AccommodationSearchRequest{
		City:     q.Get("city"),
		CheckIn:  q.Get("check_in"),
		CheckOut: q.Get("check_out"),
		Guests:   guests,
		MaxPrice: maxPrice,
	}

	response, err := h.catalog.SearchAccommodations(r.Context(), req)
	if err != nil {
		h.writeSearchError(w, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

func (h *Handlers) writeSearchError(w http.ResponseWriter, err error) {
	if errors.Is(err, travel.ErrInvalidQuery) {
		h.writeErrorResponse(w, http.StatusBadRequest, models.ErrorCodeInvalidRequest, err.Error())
		return
	}
	slog.Error("Search failed", "error", err)
	h.writeErrorResponse(w, http.StatusInternalServerError, models.ErrorCodeInternalError, "Search failed")
}

// intParam parses an optional integer query parameter; absent means zero.
func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + " must be an integer")
	}
	return n, nil
}
