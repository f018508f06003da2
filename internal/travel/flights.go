package travel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"tripplanner/internal/models"
)

type airline struct {
	code string
	name string
}

var airlines = []airline{
	{"TW", "Tripwing Air"},
	{"NB", "Northbound Airways"},
	{"CJ", "Coastal Jet"},
	{"AX", "Atlas Express"},
	{"SK", "Skyline Connect"},
	{"MR", "Meridian Air"},
}

var cabinMultiplier = map[string]float64{
	"economy":         1.0,
	"premium_economy": 1.6,
	"business":        3.2,
	"first":           5.5,
}

// SearchFlights returns between three and six offers for the route, cheapest first.
func (c *Catalog) SearchFlights(ctx context.Context, req models.FlightSearchRequest) (*models.FlightSearchResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	key := req.CacheKey()
	var resp models.FlightSearchResponse
	if c.cached(ctx, key, &resp) {
		resp.Cached = true
		return &resp, nil
	}

	flights := generateFlights(req)
	resp = models.FlightSearchResponse{
		Query:      req,
		Flights:    flights,
		TotalCount: len(flights),
	}
	c.store(ctx, key, resp)
	return &resp, nil
}

func generateFlights(req models.FlightSearchRequest) []models.Flight {
	day, _ := time.Parse(models.DateLayout, req.DepartureDate)
	route := seed(req.Origin, req.Destination)
	baseDuration := 75 + int(route%540)

	n := 3 + int(seed(req.Origin, req.Destination, req.DepartureDate)%4)
	flights := make([]models.Flight, 0, n)
	for i := 0; i < n; i++ {
		s := seed(req.Origin, req.Destination, req.DepartureDate, strconv.Itoa(i))
		al := airlines[s%uint64(len(airlines))]

		stops := 0
		duration := baseDuration + int((s>>8)%30)
		if (s>>12)%3 == 0 {
			stops = 1
			duration += 60 + int((s>>16)%60)
		}

		departure := day.Add(time.Duration(6+(s>>20)%16)*time.Hour + time.Duration(15*((s>>28)%4))*time.Minute)
		perSeat := 49 + float64(duration)*0.85 + float64((s>>32)%150)
		if stops > 0 {
			perSeat *= 0.8
		}
		price := round2(perSeat * cabinMultiplier[req.CabinClass] * float64(req.Passengers))

		flights = append(flights, models.Flight{
			ID:            fmt.Sprintf("fl_%012x", s&0xffffffffffff),
			Airline:       al.name,
			FlightNumber:  fmt.Sprintf("%s%d", al.code, 100+(s>>40)%900),
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureTime: departure,
			ArrivalTime:   departure.Add(time.Duration(duration) * time.Minute),
			DurationMins:  duration,
			Stops:         stops,
			CabinClass:    req.CabinClass,
			Price:         price,
			Currency:      "USD",
			SeatsLeft:     1 + int((s>>48)%9),
		})
	}

	sort.SliceStable(flights, func(i, j int) bool {
		return flights[i].Price < flights[j].Price
	})
	return flights
}
