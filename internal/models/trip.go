// Package models - Trip planning domain types.
// A Trip collects what the planner knows about one journey. Conversation
// messages belong to a trip, and the context extracted from each user
// message is merged into it.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Trip status constants
const (
	TripStatusPlanning  = "planning"
	TripStatusBooked    = "booked"
	TripStatusCompleted = "completed"
	TripStatusCancelled = "cancelled"
)

// DateLayout is the calendar date format used on the wire.
const DateLayout = "2006-01-02"

// Trip is a planned journey owned by a user.
type Trip struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Destination string    `json:"destination,omitempty"`
	Origin      string    `json:"origin,omitempty"`
	StartDate   string    `json:"start_date,omitempty"`
	EndDate     string    `json:"end_date,omitempty"`
	Travelers   int       `json:"travelers,omitempty"`
	Budget      float64   `json:"budget,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Interests   []string  `json:"interests,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewTrip creates an empty trip in the planning state.
func NewTrip(userID, title string) *Trip {
	now := time.Now().UTC()
	if strings.TrimSpace(title) == "" {
		title = "New trip"
	}
	return &Trip{
		ID:        NewID(),
		UserID:    userID,
		Title:     strings.TrimSpace(title),
		Status:    TripStatusPlanning,
		Interests: []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks the trip's invariants.
func (t *Trip) Validate() error {
	if t.ID == "" {
		return errors.New("trip ID is required")
	}
	if t.UserID == "" {
		return errors.New("trip user ID is required")
	}
	if t.Title == "" {
		return errors.New("trip title is required")
	}
	if !IsValidTripStatus(t.Status) {
		return fmt.Errorf("invalid trip status: %s", t.Status)
	}
	if t.Travelers < 0 {
		return errors.New("travelers cannot be negative")
	}
	if t.Budget < 0 {
		return errors.New("budget cannot be negative")
	}

	var start, end time.Time
	var err error
	if t.StartDate != "" {
		if start, err = time.Parse(DateLayout, t.StartDate); err != nil {
			return fmt.Errorf("invalid start date: %s", t.StartDate)
		}
	}
	if t.EndDate != "" {
		if end, err = time.Parse(DateLayout, t.EndDate); err != nil {
			return fmt.Errorf("invalid end date: %s", t.EndDate)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return errors.New("end date cannot be before start date")
	}

	return nil
}

// ApplyContext merges the non-empty fields of ctx into the trip and reports
// whether anything changed. Interests are accumulated rather than replaced.
func (t *Trip) ApplyContext(ctx TripContext) bool {
	changed := false

	set := func(dst *string, v string) {
		if v != "" && *dst != v {
			*dst = v
			changed = true
		}
	}

	set(&t.Destination, ctx.Destination)
	set(&t.Origin, ctx.Origin)
	set(&t.StartDate, ctx.StartDate)
	set(&t.EndDate, ctx.EndDate)
	set(&t.Currency, ctx.Currency)

	if ctx.Travelers > 0 && t.Travelers != ctx.Travelers {
		t.Travelers = ctx.Travelers
		changed = true
	}
	if ctx.Budget > 0 && t.Budget != ctx.Budget {
		t.Budget = ctx.Budget
		changed = true
	}

	for _, interest := range ctx.Interests {
		if !containsFold(t.Interests, interest) {
			t.Interests = append(t.Interests, interest)
			changed = true
		}
	}

	if ctx.Destination != "" && (t.Title == "" || t.Title == "New trip") {
		t.Title = "Trip to " + ctx.Destination
		changed = true
	}

	if changed {
		t.UpdatedAt = time.Now().UTC()
	}
	return changed
}

// IsValidTripStatus reports whether status is a known trip status.
func IsValidTripStatus(status string) bool {
	switch status {
	case TripStatusPlanning, TripStatusBooked, TripStatusCompleted, TripStatusCancelled:
		return true
	}
	return false
}

// TripContext is what the planner could extract from one free-text message.
type TripContext struct {
	Destination  string   `json:"destination,omitempty"`
	Origin       string   `json:"origin,omitempty"`
	StartDate    string   `json:"start_date,omitempty"`
	EndDate      string   `json:"end_date,omitempty"`
	DurationDays int      `json:"duration_days,omitempty"`
	Travelers    int      `json:"travelers,omitempty"`
	Budget       float64  `json:"budget,omitempty"`
	Currency     string   `json:"currency,omitempty"`
	Interests    []string `json:"interests,omitempty"`
}

// IsEmpty reports whether no field was extracted.
func (c TripContext) IsEmpty() bool {
	return c.Destination == "" && c.Origin == "" && c.StartDate == "" && c.EndDate == "" &&
		c.DurationDays == 0 && c.Travelers == 0 && c.Budget == 0 && len(c.Interests) == 0
}

func containsFold(values []string, v string) bool {
	for _, candidate := range values {
		if strings.EqualFold(candidate, v) {
			return true
		}
	}
	return false
}
