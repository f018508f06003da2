// Package models - API request types and input validation.
// This file defines the incoming API request structures with validation.
//
// Validation Philosophy:
// - Fail fast with clear error messages for invalid input
// - Normalize input data for consistent processing (upper-case IATA codes, trimmed strings)
// - Separate validation from normalization for clear error reporting
package models

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// MaxChatMessageLength bounds a single chat message.
const MaxChatMessageLength = 4000

var iataCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ChatRequest is a user's message to the planner. An empty TripID starts a new trip.
type ChatRequest struct {
	TripID  string `json:"trip_id,omitempty"`
	Message string `json:"message"`
}

type CreateTripRequest struct {
	Title       string   `json:"title"`
	Destination string   `json:"destination,omitempty"`
	Origin      string   `json:"origin,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	Travelers   int      `json:"travelers,omitempty"`
	Budget      float64  `json:"budget,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// UpdateTripRequest carries a partial update; nil fields are left unchanged.
type UpdateTripRequest struct {
	Title       *string  `json:"title,omitempty"`
	Destination *string  `json:"destination,omitempty"`
	Origin      *string  `json:"origin,omitempty"`
	StartDate   *string  `json:"start_date,omitempty"`
	EndDate     *string  `json:"end_date,omitempty"`
	Travelers   *int     `json:"travelers,omitempty"`
	Budget      *float64 `json:"budget,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	Status      *string  `json:"status,omitempty"`
}

type CreateUserRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Newsletter bool   `json:"newsletter"`
}

// FlightSearchRequest is a one-way or return flight search.
type FlightSearchRequest struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departure_date"`
	ReturnDate    string `json:"return_date,omitempty"`
	Passengers    int    `json:"passengers"`
	CabinClass    string `json:"cabin_class,omitempty"`
}

// AccommodationSearchRequest is a stay search in one city.
type AccommodationSearchRequest struct {
	City     string  `json:"city"`
	CheckIn  string  `json:"check_in"`
	CheckOut string  `json:"check_out"`
	Guests   int     `json:"guests"`
	MaxPrice float64 `json:"max_price,omitempty"`
}

func (r *ChatRequest) Validate() error {
	msg := strings.TrimSpace(r.Message)
	if msg == "" {
		return errors.New("message is required")
	}
	if len(msg) > MaxChatMessageLength {
		return fmt.Errorf("message exceeds %d characters", MaxChatMessageLength)
	}
	return nil
}

func (r *ChatRequest) Normalize() {
	r.TripID = strings.TrimSpace(r.TripID)
	r.Message = strings.TrimSpace(r.Message)
}

func (r *CreateTripRequest) Validate() error {
	if r.Travelers < 0 {
		return errors.New("travelers cannot be negative")
	}
	if r.Budget < 0 {
		return errors.New("budget cannot be negative")
	}
	return validateDateRange(r.StartDate, r.EndDate, "start_date", "end_date", false)
}

func (r *CreateTripRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Destination = strings.TrimSpace(r.Destination)
	r.Origin = strings.TrimSpace(r.Origin)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
}

// ToTrip builds a new trip owned by userID.
func (r *CreateTripRequest) ToTrip(userID string) *Trip {
	title := r.Title
	if title == "" && r.Destination != "" {
		title = "Trip to " + r.Destination
	}
	trip := NewTrip(userID, title)
	trip.Destination = r.Destination
	trip.Origin = r.Origin
	trip.StartDate = r.StartDate
	trip.EndDate = r.EndDate
	trip.Travelers = r.Travelers
	trip.Budget = r.Budget
	trip.Currency = r.Currency
	if r.Interests != nil {
		trip.Interests = r.Interests
	}
	return trip
}

func (r *UpdateTripRequest) Validate() error {
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		return errors.New("title cannot be empty")
	}
	if r.Travelers != nil && *r.Travelers < 0 {
		return errors.New("travelers cannot be negative")
	}
	if r.Budget != nil && *r.Budget < 0 {
		return errors.New("budget cannot be negative")
	}
	if r.Status != nil && !IsValidTripStatus(*r.Status) {
		return fmt.Errorf("invalid status: %s", *r.Status)
	}
	var start, end string
	if r.StartDate != nil {
		start = *r.StartDate
	}
	if r.EndDate != nil {
		end = *r.EndDate
	}
	return validateDateRange(start, end, "start_date", "end_date", false)
}

// Apply writes the set fields onto trip.
func (r *UpdateTripRequest) Apply(trip *Trip) {
	if r.Title != nil {
		trip.Title = strings.TrimSpace(*r.Title)
	}
	if r.Destination != nil {
		trip.Destination = strings.TrimSpace(*r.Destination)
	}
	if r.Origin != nil {
		trip.Origin = strings.TrimSpace(*r.Origin)
	}
	if r.StartDate != nil {
		trip.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		trip.EndDate = *r.EndDate
	}
	if r.Travelers != nil {
		trip.Travelers = *r.Travelers
	}
	if r.Budget != nil {
		trip.Budget = *r.Budget
	}
	if r.Currency != nil {
		trip.Currency = strings.ToUpper(strings.TrimSpace(*r.Currency))
	}
	if r.Interests != nil {
		trip.Interests = r.Interests
	}
	if r.Status != nil {
		trip.Status = *r.Status
	}
	trip.UpdatedAt = time.Now().UTC()
}

func (r *CreateUserRequest) Validate() error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if r.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

func (r *CreateUserRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
	r.Name = strings.TrimSpace(r.Name)
}

func (r *FlightSearchRequest) Validate() error {
	if !iataCode.MatchString(r.Origin) {
		return fmt.Errorf("invalid origin airport code: %q", r.Origin)
	}
	if !iataCode.MatchString(r.Destination) {
		return fmt.Errorf("invalid destination airport code: %q", r.Destination)
	}
	if r.Origin == r.Destination {
		return errors.New("origin and destination must differ")
	}
	if r.DepartureDate == "" {
		return errors.New("departure_date is required")
	}
	if err := validateDateRange(r.DepartureDate, r.ReturnDate, "departure_date", "return_date", false); err != nil {
		return err
	}
	if r.Passengers < 1 || r.Passengers > 9 {
		return errors.New("passengers must be between 1 and 9")
	}
	switch r.CabinClass {
	case "economy", "premium_economy", "business", "first":
	default:
		return fmt.Errorf("invalid cabin_class: %s", r.CabinClass)
	}
	return nil
}

func (r *FlightSearchRequest) Normalize() {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.DepartureDate = strings.TrimSpace(r.DepartureDate)
	r.ReturnDate = strings.TrimSpace(r.ReturnDate)
	r.CabinClass = strings.ToLower(strings.TrimSpace(r.CabinClass))
	if r.CabinClass == "" {
		r.CabinClass = "economy"
	}
	if r.Passengers == 0 {
		r.Passengers = 1
	}
}

// CacheKey identifies the normalized query.
func (r *FlightSearchRequest) CacheKey() string {
	return fmt.Sprintf("flights:%s:%s:%s:%s:%d:%s",
		r.Origin, r.Destination, r.DepartureDate, r.ReturnDate, r.Passengers, r.CabinClass)
}

func (r *AccommodationSearchRequest) Validate() error {
	if r.City == "" {
		return errors.New("city is required")
	}
	if r.CheckIn == "" || r.CheckOut == "" {
		return errors.New("check_in and check_out are required")
	}
	if err := validateDateRange(r.CheckIn, r.CheckOut, "check_in", "check_out", true); err != nil {
		return err
	}
	if r.Guests < 1 || r.Guests > 16 {
		return errors.New("guests must be between 1 and 16")
	}
	if r.MaxPrice < 0 {
		return errors.New("max_price cannot be negative")
	}
	return nil
}

func (r *AccommodationSearchRequest) Normalize() {
	r.City = strings.TrimSpace(r.City)
	r.CheckIn = strings.TrimSpace(r.CheckIn)
	r.CheckOut = strings.TrimSpace(r.CheckOut)
	if r.Guests == 0 {
		r.Guests = 1
	}
}

// CacheKey identifies the normalized query.
func (r *AccommodationSearchRequest) CacheKey() string {
	return fmt.Sprintf("stays:%s:%s:%s:%d:%g",
		strings.ToLower(r.City), r.CheckIn, r.CheckOut, r.Guests, r.MaxPrice)
}

// Nights returns the number of nights between check-in and check-out.
// The request must be valid.
func (r *AccommodationSearchRequest) Nights() int {
	in, _ := time.Parse(DateLayout, r.CheckIn)
	out, _ := time.Parse(DateLayout, r.CheckOut)
	return int(out.Sub(in).Hours() / 24)
}

// validateDateRange checks that both dates, when present, use DateLayout and
// that end is not before start. With strict set, end must be after start.
func validateDateRange(start, end, startName, endName string, strict bool) error {
	var s, e time.Time
	var err error
	if start != "" {
		if s, err = time.Parse(DateLayout, start); err != nil {
			return fmt.Errorf("invalid %s: %s", startName, start)
		}
	}
	if end != "" {
		if e, err = time.Parse(DateLayout, end); err != nil {
			return fmt.Errorf("invalid %s: %s", endName, end)
		}
	}
	if s.IsZero() || e.IsZero() {
		return nil
	}
	if e.Before(s) || (strict && !e.After(s)) {
		return fmt.Errorf("%s must be after %s", endName, startName)
	}
	return nil
}
