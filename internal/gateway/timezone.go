package gateway

import (
	"context"
	"net/url"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/observability"
)

// TimezoneInfo is the outcome of a timezone lookup. Fallback is true when the
// upstream could not be reached and the local runtime zone was substituted.
type TimezoneInfo struct {
	ZoneName string
	AsOf     time.Time
	Fallback bool
}

// TimezoneClient resolves coordinates to an IANA zone name. Resolution is
// cosmetic (it only drives the local-time label on a card), so every failure
// degrades to the runtime's local zone instead of propagating an error —
// timezone resolution must never be the reason a city fails to refresh.
type TimezoneClient struct {
	baseURL string
	caller  *caller
}

// NewTimezoneClient creates a client for the given timezone endpoint.
func NewTimezoneClient(baseURL string, opts *Options) *TimezoneClient {
	// A single attempt: the fallback is cheap and a cosmetic lookup should
	// not burn the refresh budget on retries.
	single := opts.withDefaults()
	single.RetryAttempts = 1
	return &TimezoneClient{
		baseURL: baseURL,
		caller:  newCaller("timezone", &single),
	}
}

type timezoneResponse struct {
	// Field names vary across timezone providers; accept the common spellings.
	TimeZone string `json:"timeZone"`
	Timezone string `json:"timezone"`
	DateTime string `json:"dateTime"`
}

// Resolve returns the zone for the coordinates, falling back to the local
// runtime zone on any failure. The returned TimezoneInfo is always usable.
func (c *TimezoneClient) Resolve(ctx context.Context, lat, lon float64) TimezoneInfo {
	params := url.Values{}
	params.Set("latitude", formatCoord(lat))
	params.Set("longitude", formatCoord(lon))

	var resp timezoneResponse
	if err := c.caller.getJSON(ctx, c.baseURL+"?"+params.Encode(), &resp); err != nil {
		return c.fallback()
	}

	zone := resp.TimeZone
	if zone == "" {
		zone = resp.Timezone
	}
	if zone == "" {
		return c.fallback()
	}

	asOf := time.Now()
	if resp.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, resp.DateTime); err == nil {
			asOf = t
		}
	}
	return TimezoneInfo{ZoneName: zone, AsOf: asOf}
}

func (c *TimezoneClient) fallback() TimezoneInfo {
	observability.TimezoneFallbacksTotal.Inc()
	return TimezoneInfo{
		ZoneName: time.Local.String(),
		AsOf:     time.Now(),
		Fallback: true,
	}
}
