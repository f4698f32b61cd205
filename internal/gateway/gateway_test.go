package gateway

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastOptions() *Options {
	return &Options{
		RetryAttempts:  3,
		RetryBaseDelay: time.Millisecond,
		RetryMaxDelay:  5 * time.Millisecond,
	}
}

// TestGeocoding_Search verifies candidate mapping from the upstream payload,
// ranked order preserved.
func TestGeocoding_Search(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("name"); got != "London" {
			t.Errorf("name param = %q, want London", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"name":"London","country_code":"GB","admin1":"England","latitude":51.51,"longitude":-0.13},
			{"name":"London","country_code":"CA","admin1":"Ontario","latitude":42.98,"longitude":-81.25}
		]}`))
	}))
	defer srv.Close()

	c := NewGeocodingClient(srv.URL, fastOptions())
	got, err := c.Search(context.Background(), "London")
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Search() returned %d candidates, want 2", len(got))
	}
	top := got[0]
	if top.Name != "London" || top.Country != "GB" || top.Region != "England" {
		t.Errorf("top candidate = %+v, want London/GB/England", top)
	}
	if top.Latitude != 51.51 || top.Longitude != -0.13 {
		t.Errorf("top candidate coordinates = (%v, %v), want (51.51, -0.13)", top.Latitude, top.Longitude)
	}
}

// TestGeocoding_EmptyResults verifies zero candidates is a valid outcome, not an error.
func TestGeocoding_EmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"generationtime_ms":0.5}`))
	}))
	defer srv.Close()

	c := NewGeocodingClient(srv.URL, fastOptions())
	got, err := c.Search(context.Background(), "Zzzxxqqnotacity")
	if err != nil {
		t.Fatalf("Search() error = %v, want nil for empty result", err)
	}
	if len(got) != 0 {
		t.Fatalf("Search() returned %d candidates, want 0", len(got))
	}
}

// TestGeocoding_ServerErrorRetriesThenFails verifies 5xx responses are retried
// up to the configured attempts and surface as ErrUpstreamFailure.
func TestGeocoding_ServerErrorRetriesThenFails(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewGeocodingClient(srv.URL, fastOptions())
	_, err := c.Search(context.Background(), "London")
	if !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("Search() error = %v, want ErrUpstreamFailure", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("upstream hit %d times, want 3 (retries exhausted)", got)
	}
}

// TestGeocoding_MalformedPayloadNotRetried verifies undecodable bodies fail
// immediately as ErrMalformedPayload.
func TestGeocoding_MalformedPayloadNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := NewGeocodingClient(srv.URL, fastOptions())
	_, err := c.Search(context.Background(), "London")
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Search() error = %v, want ErrMalformedPayload", err)
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hit %d times, want 1 (no retry on malformed payload)", got)
	}
}

// TestForecast_Fetch verifies mapping of the combined current+daily payload.
func TestForecast_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("forecast_days") != "7" {
			t.Errorf("forecast_days = %q, want 7", q.Get("forecast_days"))
		}
		if q.Get("timezone") != "auto" {
			t.Errorf("timezone = %q, want auto", q.Get("timezone"))
		}
		_, _ = w.Write([]byte(`{
			"timezone":"Europe/London",
			"current":{
				"temperature_2m":15.0,"relative_humidity_2m":81,"apparent_temperature":14.2,
				"weather_code":3,"cloud_cover":97,"pressure_msl":1011.5,
				"wind_speed_10m":12.3,"wind_gusts_10m":25.1,"is_day":1
			},
			"daily":{
				"time":["2025-06-01","2025-06-02","2025-06-03"],
				"weather_code":[3,61,0],
				"temperature_2m_max":[18.1,16.0,20.5],
				"temperature_2m_min":[11.2,10.8,12.0],
				"precipitation_sum":[0.0,4.2,0.0],
				"wind_speed_10m_max":[20.0,31.5,15.0]
			}
		}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, fastOptions())
	got, err := c.Fetch(context.Background(), 51.51, -0.13)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got.Current.Temperature != 15.0 || got.Current.ConditionCode != 3 {
		t.Errorf("current = %+v, want temperature 15 and code 3", got.Current)
	}
	if !got.Current.IsDaytime {
		t.Error("IsDaytime = false, want true for is_day=1")
	}
	if got.Timezone != "Europe/London" {
		t.Errorf("Timezone = %q, want Europe/London", got.Timezone)
	}
	if len(got.Daily) != 3 {
		t.Fatalf("Daily has %d days, want 3", len(got.Daily))
	}
	if got.Daily[0].Date != "2025-06-01" || got.Daily[2].Date != "2025-06-03" {
		t.Errorf("daily dates out of order: %v, %v", got.Daily[0].Date, got.Daily[2].Date)
	}
	if got.Daily[1].ConditionCode != 61 || got.Daily[1].PrecipitationSum != 4.2 {
		t.Errorf("day 1 = %+v, want code 61 and precipitation 4.2", got.Daily[1])
	}
}

// TestForecast_ClampsDailyArrays verifies mismatched parallel arrays are
// clamped to the shortest instead of panicking.
func TestForecast_ClampsDailyArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"current":{"temperature_2m":10.0,"weather_code":0,"is_day":0},
			"daily":{
				"time":["2025-06-01","2025-06-02","2025-06-03"],
				"weather_code":[3,61],
				"temperature_2m_max":[18.1,16.0,20.5],
				"temperature_2m_min":[11.2]
			}
		}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, fastOptions())
	got, err := c.Fetch(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got.Daily) != 1 {
		t.Fatalf("Daily has %d days, want 1 (clamped to shortest array)", len(got.Daily))
	}
	if got.Current.IsDaytime {
		t.Error("IsDaytime = true, want false for is_day=0")
	}
}

// TestForecast_MissingCurrentIsMalformed verifies a payload without the
// current block fails as ErrMalformedPayload.
func TestForecast_MissingCurrentIsMalformed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timezone":"UTC"}`))
	}))
	defer srv.Close()

	c := NewForecastClient(srv.URL, fastOptions())
	_, err := c.Fetch(context.Background(), 0, 0)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("Fetch() error = %v, want ErrMalformedPayload", err)
	}
}

// TestTimezone_Resolve verifies the zone and timestamp are taken from the upstream.
func TestTimezone_Resolve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"timeZone":"Asia/Tokyo","dateTime":"2025-06-01T21:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewTimezoneClient(srv.URL, fastOptions())
	got := c.Resolve(context.Background(), 35.68, 139.69)
	if got.ZoneName != "Asia/Tokyo" {
		t.Errorf("ZoneName = %q, want Asia/Tokyo", got.ZoneName)
	}
	if got.Fallback {
		t.Error("Fallback = true for a successful lookup")
	}
}

// TestTimezone_FallsBackOnFailure verifies every failure mode degrades to the
// local zone instead of returning an error.
func TestTimezone_FallsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
		},
		{
			name:    "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("oops")) },
		},
		{
			name:    "empty zone",
			handler: func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte(`{}`)) },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(tc.handler)
			defer srv.Close()

			c := NewTimezoneClient(srv.URL, fastOptions())
			got := c.Resolve(context.Background(), 0, 0)
			if !got.Fallback {
				t.Error("Fallback = false, want true")
			}
			if got.ZoneName == "" {
				t.Error("ZoneName empty, want local zone name")
			}
		})
	}
}

// TestTimezone_UnreachableHost verifies a dead upstream also falls back.
func TestTimezone_UnreachableHost(t *testing.T) {
	c := NewTimezoneClient("http://127.0.0.1:1", fastOptions())
	got := c.Resolve(context.Background(), 0, 0)
	if !got.Fallback {
		t.Fatal("Fallback = false for unreachable host, want true")
	}
}
