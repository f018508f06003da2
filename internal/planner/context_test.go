package planner

import (
	"testing"
	"time"

	"tripplanner/internal/models"

	"github.com/stretchr/testify/assert"
)

var refTime = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestExtractContext_FullMessage(t *testing.T) {
	ctx := ExtractContextAt("I want to fly from London to Paris on 2025-07-01 for 5 days with 2 people, budget $2,500. We love food and museums.", refTime)

	assert.Equal(t, "London", ctx.Origin)
	assert.Equal(t, "Paris", ctx.Destination)
	assert.Equal(t, "2025-07-01", ctx.StartDate)
	assert.Equal(t, "2025-07-06", ctx.EndDate)
	assert.Equal(t, 5, ctx.DurationDays)
	assert.Equal(t, 2, ctx.Travelers)
	assert.Equal(t, 2500.0, ctx.Budget)
	assert.Equal(t, "USD", ctx.Currency)
	assert.Equal(t, []string{"food", "museums"}, ctx.Interests)
}

func TestExtractContext_Destination(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"to", "Take me to Lisbon please", "Lisbon"},
		{"visit", "I'd love to visit Kyoto.", "Kyoto"},
		{"visiting lowercase keyword", "VISITING Oslo soon", "Oslo"},
		{"multi word", "Planning a trip to New York City next month", "New York City"},
		{"connector", "Heading to Rio de Janeiro.", "Rio de Janeiro"},
		{"stops at lowercase", "Going to Paris and Rome", "Paris"},
		{"in", "A week in Rome sounds great", "Rome"},
		{"prefers to over in", "I live in Berlin but want to visit Prague", "Prague"},
		{"month is not a place", "We will travel in June", ""},
		{"month skipped for later place", "In June we go to Tokyo", "Tokyo"},
		{"lowercase place ignored", "going to paris", ""},
		{"none", "hello there", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractContextAt(tt.text, refTime).Destination)
		})
	}
}

func TestExtractContext_Origin(t *testing.T) {
	assert.Equal(t, "San Francisco", ExtractContextAt("Flying from San Francisco to Tokyo", refTime).Origin)
	assert.Empty(t, ExtractContextAt("Greetings from Berlin!", refTime).Origin)
}

func TestExtractContext_Dates(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantStart string
		wantEnd   string
		wantDays  int
	}{
		{"iso range", "from 2025-07-01 until 2025-07-10", "2025-07-01", "2025-07-10", 9},
		{"iso single", "leaving 2025-08-15", "2025-08-15", "", 0},
		{"invalid iso ignored", "on 2025-13-40", "", "", 0},
		{"month day", "June 12 to June 20", "2025-06-12", "2025-06-20", 8},
		{"abbreviated with suffix", "Sept 3rd", "2025-09-03", "", 0},
		{"explicit year", "March 2, 2027", "2027-03-02", "", 0},
		{"past date rolls to next year", "Jan 5", "2026-01-05", "", 0},
		{"day month", "from 12 March to 19 March", "2025-03-12", "2025-03-19", 7},
		{"range across new year", "Dec 28 to Jan 3", "2025-12-28", "2026-01-03", 6},
		{"impossible day", "Feb 30", "", "", 0},
		{"start plus weeks", "2025-05-01 for 2 weeks", "2025-05-01", "2025-05-15", 14},
		{"start plus weekend", "Paris on 2025-05-03, just a weekend", "2025-05-03", "2025-05-05", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := ExtractContextAt(tt.text, refTime)
			assert.Equal(t, tt.wantStart, ctx.StartDate)
			assert.Equal(t, tt.wantEnd, ctx.EndDate)
			assert.Equal(t, tt.wantDays, ctx.DurationDays)
		})
	}
}

func TestExtractContext_Duration(t *testing.T) {
	tests := map[string]int{
		"5 days":               5,
		"three nights":         3,
		"a week":               7,
		"2 weeks":              14,
		"a long weekend":       2,
		"a fortnight away":     14,
		"no duration given":    0,
		"one day trip to Bath": 1,
	}
	for text, want := range tests {
		assert.Equal(t, want, ExtractContextAt(text, refTime).DurationDays, text)
	}
}

func TestExtractContext_Travelers(t *testing.T) {
	tests := map[string]int{
		"4 people":                  4,
		"two adults":                2,
		"3 travellers":              3,
		"6 travelers":               6,
		"five of us":                5,
		"a family of 4":             4,
		"travelling solo":           1,
		"just me":                   1,
		"a couple":                  2,
		"with my wife":              2,
		"nobody mentioned how many": 0,
	}
	for text, want := range tests {
		assert.Equal(t, want, ExtractContextAt(text, refTime).Travelers, text)
	}
}

func TestExtractContext_Budget(t *testing.T) {
	tests := []struct {
		text     string
		amount   float64
		currency string
	}{
		{"around $3,000 total", 3000, "USD"},
		{"$ 800", 800, "USD"},
		{"€1.5k max", 1500, "EUR"},
		{"£1,200", 1200, "GBP"},
		{"2000 euros", 2000, "EUR"},
		{"1500 USD", 1500, "USD"},
		{"500 bucks", 500, "USD"},
		{"3k pounds", 3000, "GBP"},
		{"our budget of 4000", 4000, ""},
		{"budget is 2k", 2000, ""},
		{"no money talk", 0, ""},
	}
	for _, tt := range tests {
		ctx := ExtractContextAt(tt.text, refTime)
		assert.Equal(t, tt.amount, ctx.Budget, tt.text)
		assert.Equal(t, tt.currency, ctx.Currency, tt.text)
	}
}

func TestExtractContext_Interests(t *testing.T) {
	ctx := ExtractContextAt("Beaches, some hiking, great cuisine and a bit of nightlife. Maybe a spa.", refTime)
	assert.Equal(t, []string{"beach", "hiking", "food", "nightlife", "relaxation"}, ctx.Interests)

	ctx = ExtractContextAt("Somewhere in Spain with a party of four", refTime)
	assert.Nil(t, ctx.Interests)
}

func TestExtractContext_Empty(t *testing.T) {
	ctx := ExtractContextAt("hello, can you help me?", refTime)
	assert.True(t, ctx.IsEmpty())
	assert.Equal(t, models.TripContext{}, ctx)
}

func TestExtractContext_UsesWallClock(t *testing.T) {
	ctx := ExtractContext("to Madrid on 2030-01-02")
	assert.Equal(t, "Madrid", ctx.Destination)
	assert.Equal(t, "2030-01-02", ctx.StartDate)
}
