package travel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"tripplanner/internal/models"
)

var stayKinds = []struct {
	kind   string
	suffix string
	base   float64
}{
	{"hotel", "Grand Hotel", 140},
	{"hotel", "City Inn", 95},
	{"apartment", "Loft Apartments", 110},
	{"hostel", "Backpackers Hostel", 35},
	{"guesthouse", "Garden Guesthouse", 70},
	{"resort", "Bay Resort", 230},
}

var amenityPool = []string{"wifi", "breakfast", "pool", "parking", "gym", "kitchen", "air_conditioning", "spa"}

// SearchAccommodations returns between four and eight listings in the city,
// cheapest nightly price first. Listings that cannot host the party or exceed
// MaxPrice are omitted.
func (c *Catalog) SearchAccommodations(ctx context.Context, req models.AccommodationSearchRequest) (*models.AccommodationSearchResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, invalid(err)
	}

	key := req.CacheKey()
	var resp models.AccommodationSearchResponse
	if c.cached(ctx, key, &resp) {
		resp.Cached = true
		return &resp, nil
	}

	nights := req.Nights()
	stays := generateStays(req, nights)
	resp = models.AccommodationSearchResponse{
		Query:          req,
		Accommodations: stays,
		TotalCount:     len(stays),
		Nights:         nights,
	}
	c.store(ctx, key, resp)
	return &resp, nil
}

func generateStays(req models.AccommodationSearchRequest, nights int) []models.Accommodation {
	city := strings.ToLower(req.City)
	n := 4 + int(seed(city)%5)

	stays := make([]models.Accommodation, 0, n)
	for i := 0; i < n; i++ {
		s := seed(city, strconv.Itoa(i))
		k := stayKinds[s%uint64(len(stayKinds))]

		maxGuests := 2 + int((s>>8)%5)
		if k.kind == "hostel" || k.kind == "apartment" {
			maxGuests += 2
		}
		if maxGuests < req.Guests {
			continue
		}

		nightly := round2(k.base * (0.7 + float64((s>>16)%80)/100))
		if req.MaxPrice > 0 && nightly > req.MaxPrice {
			continue
		}

		amenities := []string{}
		for bit, a := range amenityPool {
			if (s>>(24+uint(bit)))&1 == 1 {
				amenities = append(amenities, a)
			}
		}

		stays = append(stays, models.Accommodation{
			ID:            fmt.Sprintf("st_%012x", s&0xffffffffffff),
			Name:          fmt.Sprintf("%s %s", req.City, k.suffix),
			Type:          k.kind,
			City:          req.City,
			Rating:        float64(30+(s>>40)%21) / 10,
			PricePerNight: nightly,
			TotalPrice:    round2(nightly * float64(nights)),
			Currency:      "USD",
			Amenities:     amenities,
			MaxGuests:     maxGuests,
		})
	}

	sort.SliceStable(stays, func(i, j int) bool {
		return stays[i].PricePerNight < stays[j].PricePerNight
	})
	return stays
}
