package gateway

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// Candidate is one ranked geocoding match for a free-text city name.
type Candidate struct {
	Name      string
	Country   string // ISO country code
	Region    string // optional admin subdivision
	Latitude  float64
	Longitude float64
}

// GeocodingClient resolves free-text city names into ranked coordinate
// candidates. An empty candidate list is a valid outcome ("city not found"),
// not an error.
type GeocodingClient struct {
	baseURL string
	caller  *caller
}

// NewGeocodingClient creates a client for the given geocoding endpoint.
func NewGeocodingClient(baseURL string, opts *Options) *GeocodingClient {
	return &GeocodingClient{
		baseURL: baseURL,
		caller:  newCaller("geocoding", opts),
	}
}

const maxCandidates = 10

type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		CountryCode string  `json:"country_code"`
		Admin1      string  `json:"admin1"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
	} `json:"results"`
}

// Search returns the upstream's ranked candidates for name, best match first.
func (c *GeocodingClient) Search(ctx context.Context, name string) ([]Candidate, error) {
	params := url.Values{}
	params.Set("name", name)
	params.Set("count", strconv.Itoa(maxCandidates))
	params.Set("language", "en")
	params.Set("format", "json")

	var resp geocodingResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("geocode %q: %w", name, err)
	}

	candidates := make([]Candidate, 0, len(resp.Results))
	for _, r := range resp.Results {
		candidates = append(candidates, Candidate{
			Name:      r.Name,
			Country:   r.CountryCode,
			Region:    r.Admin1,
			Latitude:  r.Latitude,
			Longitude: r.Longitude,
		})
	}
	return candidates, nil
}
