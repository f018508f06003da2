package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatRequest_Validate(t *testing.T) {
	tests := []struct {
		name        string
		req         ChatRequest
		expectError bool
	}{
		{name: "valid", req: ChatRequest{Message: "I want to go to Lisbon"}},
		{name: "empty", req: ChatRequest{Message: ""}, expectError: true},
		{name: "whitespace", req: ChatRequest{Message: "   \n"}, expectError: true},
		{name: "too long", req: ChatRequest{Message: strings.Repeat("a", MaxChatMessageLength+1)}, expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChatRequest_Normalize(t *testing.T) {
	req := ChatRequest{TripID: "  abc ", Message: "  hello  "}
	req.Normalize()
	assert.Equal(t, "abc", req.TripID)
	assert.Equal(t, "hello", req.Message)
}

func TestFlightSearchRequest_Validate(t *testing.T) {
	valid := func() FlightSearchRequest {
		return FlightSearchRequest{
			Origin:        "lhr",
			Destination:   "jfk",
			DepartureDate: "2025-07-01",
			Passengers:    2,
		}
	}

	t.Run("valid after normalize", func(t *testing.T) {
		req := valid()
		req.Normalize()
		assert.Equal(t, "LHR", req.Origin)
		assert.Equal(t, "economy", req.CabinClass)
		assert.NoError(t, req.Validate())
	})

	tests := []struct {
		name   string
		mutate func(r *FlightSearchRequest)
	}{
		{name: "bad origin", mutate: func(r *FlightSearchRequest) { r.Origin = "LONDON" }},
		{name: "same airports", mutate: func(r *FlightSearchRequest) { r.Destination = r.Origin }},
		{name: "missing date", mutate: func(r *FlightSearchRequest) { r.DepartureDate = "" }},
		{name: "bad date", mutate: func(r *FlightSearchRequest) { r.DepartureDate = "01/07/2025" }},
		{name: "return before departure", mutate: func(r *FlightSearchRequest) { r.ReturnDate = "2025-06-01" }},
		{name: "too many passengers", mutate: func(r *FlightSearchRequest) { r.Passengers = 10 }},
		{name: "bad cabin", mutate: func(r *FlightSearchRequest) { r.CabinClass = "steerage" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			req.Normalize()
			tt.mutate(&req)
			assert.Error(t, req.Validate())
		})
	}
}

func TestFlightSearchRequest_CacheKey(t *testing.T) {
	a := FlightSearchRequest{Origin: "lhr", Destination: "JFK", DepartureDate: "2025-07-01"}
	b := FlightSearchRequest{Origin: "LHR", Destination: "jfk ", DepartureDate: "2025-07-01", Passengers: 1}
	a.Normalize()
	b.Normalize()
	assert.Equal(t, a.CacheKey(), b.CacheKey())
}

func TestAccommodationSearchRequest_Validate(t *testing.T) {
	req := AccommodationSearchRequest{City: " Tokyo ", CheckIn: "2025-07-01", CheckOut: "2025-07-05"}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "Tokyo", req.City)
	assert.Equal(t, 1, req.Guests)
	assert.Equal(t, 4, req.Nights())

	same := AccommodationSearchRequest{City: "Tokyo", CheckIn: "2025-07-01", CheckOut: "2025-07-01", Guests: 1}
	assert.Error(t, same.Validate(), "check-out must be after check-in")

	noCity := AccommodationSearchRequest{CheckIn: "2025-07-01", CheckOut: "2025-07-02", Guests: 1}
	assert.Error(t, noCity.Validate())

	crowd := AccommodationSearchRequest{City: "Tokyo", CheckIn: "2025-07-01", CheckOut: "2025-07-02", Guests: 20}
	assert.Error(t, crowd.Validate())
}

func TestCreateTripRequest(t *testing.T) {
	req := CreateTripRequest{Destination: " Rome ", Currency: "eur", StartDate: "2025-09-01", EndDate: "2025-09-08"}
	req.Normalize()
	require.NoError(t, req.Validate())

	trip := req.ToTrip("user-1")
	assert.Equal(t, "Trip to Rome", trip.Title)
	assert.Equal(t, "EUR", trip.Currency)
	assert.Equal(t, TripStatusPlanning, trip.Status)
	assert.NoError(t, trip.Validate())

	bad := CreateTripRequest{StartDate: "2025-09-08", EndDate: "2025-09-01"}
	assert.Error(t, bad.Validate())
}

func TestUpdateTripRequest(t *testing.T) {
	trip := NewTrip("user-1", "Summer")
	title := "Summer in Crete"
	travelers := 3
	status := TripStatusBooked

	req := UpdateTripRequest{Title: &title, Travelers: &travelers, Status: &status}
	require.NoError(t, req.Validate())
	req.Apply(trip)

	assert.Equal(t, "Summer in Crete", trip.Title)
	assert.Equal(t, 3, trip.Travelers)
	assert.Equal(t, TripStatusBooked, trip.Status)

	bogus := "lost"
	assert.Error(t, (&UpdateTripRequest{Status: &bogus}).Validate())

	empty := " "
	assert.Error(t, (&UpdateTripRequest{Title: &empty}).Validate())
}

func TestCreateUserRequest(t *testing.T) {
	req := CreateUserRequest{Email: " Ada@Example.com ", Name: " Ada "}
	req.Normalize()
	require.NoError(t, req.Validate())
	assert.Equal(t, "ada@example.com", req.Email)

	assert.Error(t, (&CreateUserRequest{Email: "not-an-email", Name: "x"}).Validate())
	assert.Error(t, (&CreateUserRequest{Email: "a@b.co"}).Validate())
}
