package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

func testCities() []models.TrackedCity {
	updated := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return []models.TrackedCity{
		{
			ID:        "a1",
			Name:      "London",
			Country:   "GB",
			Latitude:  51.51,
			Longitude: -0.13,
			Current: &models.CurrentConditions{
				Temperature:   15,
				ConditionCode: 3,
				IsDaytime:     true,
			},
			DailyForecast: []models.ForecastDay{
				{Date: "2025-06-01", ConditionCode: 3, MaxTemperature: 18, MinTemperature: 11},
			},
			TimezoneName:  "Europe/London",
			LastUpdatedAt: &updated,
		},
		{
			ID:        "b2",
			Name:      "Nuuk",
			Country:   "GL",
			Region:    "Sermersooq",
			Latitude:  64.18,
			Longitude: -51.69,
			LastError: "upstream failure: HTTP 502",
		},
	}
}

// TestFileStore_RoundTrip verifies persist-then-load preserves identifiers,
// names, coordinates, and order.
func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	s := NewFileStore(path)
	want := testCities()

	if err := s.Persist(context.Background(), want); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(got) != len(want) {
		t.Fatalf("Load() returned %d cities, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Name != want[i].Name {
			t.Errorf("city %d = %s/%s, want %s/%s", i, got[i].ID, got[i].Name, want[i].ID, want[i].Name)
		}
		if got[i].Latitude != want[i].Latitude || got[i].Longitude != want[i].Longitude {
			t.Errorf("city %d coordinates = (%v, %v), want (%v, %v)",
				i, got[i].Latitude, got[i].Longitude, want[i].Latitude, want[i].Longitude)
		}
	}
	if got[0].Current == nil || got[0].Current.Temperature != 15 {
		t.Errorf("city 0 current = %+v, want temperature 15", got[0].Current)
	}
	if got[1].LastError == "" {
		t.Error("city 1 LastError lost in round trip")
	}
}

// TestFileStore_LoadMissingFile verifies a missing store file loads as empty.
func TestFileStore_LoadMissingFile(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "nope", "cities.json"))
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for missing file", err)
	}
	if len(got) != 0 {
		t.Fatalf("Load() = %d cities, want 0", len(got))
	}
}

// TestFileStore_LoadCorruptFile verifies corrupt data is treated as empty and
// backed up rather than failing startup.
func TestFileStore_LoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	s := NewFileStore(path)
	got, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v, want nil for corrupt file", err)
	}
	if len(got) != 0 {
		t.Fatalf("Load() = %d cities, want 0", len(got))
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt file not backed up: %v", err)
	}
}

// TestFileStore_PersistOverwrites verifies each persist replaces the previous
// snapshot entirely.
func TestFileStore_PersistOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Persist(ctx, testCities()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if err := s.Persist(ctx, testCities()[:1]); err != nil {
		t.Fatalf("second Persist() error = %v", err)
	}

	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("Load() = %d cities after overwrite, want 1", len(got))
	}
}

// TestFileStore_PersistEmpty verifies an empty sequence round-trips (removing
// the last city must persist the empty list, not keep the old one).
func TestFileStore_PersistEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.json")
	s := NewFileStore(path)
	ctx := context.Background()

	if err := s.Persist(ctx, testCities()); err != nil {
		t.Fatalf("Persist() error = %v", err)
	}
	if err := s.Persist(ctx, []models.TrackedCity{}); err != nil {
		t.Fatalf("Persist(empty) error = %v", err)
	}
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("Load() = %d cities, want 0", len(got))
	}
}
