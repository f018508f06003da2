package models

import "time"

// Flight is a mocked flight offer.
type Flight struct {
	ID            string    `json:"id"`
	Airline       string    `json:"airline"`
	FlightNumber  string    `json:"flight_number"`
	Origin        string    `json:"origin"`
	Destination   string    `json:"destination"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	DurationMins  int       `json:"duration_minutes"`
	Stops         int       `json:"stops"`
	CabinClass    string    `json:"cabin_class"`
	Price         float64   `json:"price"`
	Currency      string    `json:"currency"`
	SeatsLeft     int       `json:"seats_left"`
}

// Accommodation is a mocked stay listing.
type Accommodation struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Type          string   `json:"type"`
	City          string   `json:"city"`
	Rating        float64  `json:"rating"`
	PricePerNight float64  `json:"price_per_night"`
	TotalPrice    float64  `json:"total_price"`
	Currency      string   `json:"currency"`
	Amenities     []string `json:"amenities"`
	MaxGuests     int      `json:"max_guests"`
}
