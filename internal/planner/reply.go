package planner

import (
	"fmt"
	"strconv"
	"strings"

	"tripplanner/internal/models"
)

// Fields the planner asks for, in the order it asks.
const (
	FieldDestination = "destination"
	FieldDates       = "dates"
	FieldTravelers   = "travelers"
	FieldBudget      = "budget"
)

var questions = map[string]string{
	FieldDestination: "Where would you like to go?",
	FieldDates:       "When are you planning to travel, and for how long?",
	FieldTravelers:   "How many people are travelling?",
	FieldBudget:      "What budget do you have in mind for the trip?",
}

// MissingFields lists the core trip details that are still unknown.
func MissingFields(trip *models.Trip) []string {
	var missing []string
	if trip.Destination == "" {
		missing = append(missing, FieldDestination)
	}
	if trip.StartDate == "" || trip.EndDate == "" {
		missing = append(missing, FieldDates)
	}
	if trip.Travelers == 0 {
		missing = append(missing, FieldTravelers)
	}
	if trip.Budget == 0 {
		missing = append(missing, FieldBudget)
	}
	return missing
}

// BuildReply renders the assistant answer for a trip after a message that
// yielded extracted. It summarizes what is known and asks for the first
// missing field.
func BuildReply(trip *models.Trip, extracted models.TripContext) (string, []string) {
	var b strings.Builder

	if extracted.IsEmpty() {
		b.WriteString("I didn't catch any new trip details in that message.")
	} else {
		b.WriteString("Got it!")
	}

	if summary := summarize(trip); len(summary) > 0 {
		b.WriteString(" Here's what I have so far:\n")
		for _, line := range summary {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("\n")
	}

	missing := MissingFields(trip)
	if len(missing) > 0 {
		b.WriteString(questions[missing[0]])
	} else {
		fmt.Fprintf(&b, "Your trip to %s is taking shape. I can search flights and places to stay whenever you're ready.", trip.Destination)
	}
	return b.String(), missing
}

func summarize(trip *models.Trip) []string {
	var lines []string
	if trip.Destination != "" {
		lines = append(lines, "Destination: "+trip.Destination)
	}
	if trip.Origin != "" {
		lines = append(lines, "Departing from: "+trip.Origin)
	}
	switch {
	case trip.StartDate != "" && trip.EndDate != "":
		lines = append(lines, fmt.Sprintf("Dates: %s to %s", trip.StartDate, trip.EndDate))
	case trip.StartDate != "":
		lines = append(lines, "Starting: "+trip.StartDate)
	case trip.EndDate != "":
		lines = append(lines, "Returning: "+trip.EndDate)
	}
	if trip.Travelers > 0 {
		lines = append(lines, "Travelers: "+strconv.Itoa(trip.Travelers))
	}
	if trip.Budget > 0 {
		budget := strconv.FormatFloat(trip.Budget, 'f', -1, 64)
		if trip.Currency != "" {
			budget += " " + trip.Currency
		}
		lines = append(lines, "Budget: "+budget)
	}
	if len(trip.Interests) > 0 {
		lines = append(lines, "Interests: "+strings.Join(trip.Interests, ", "))
	}
	return lines
}
