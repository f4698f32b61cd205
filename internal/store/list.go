package store

import (
	"strings"
	"sync"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// CityList is the mutex-guarded in-memory sequence of tracked cities. It is
// the sole owner of city records: refreshes and mutations go through Update
// so concurrent refresh passes degrade to last-writer-wins per record instead
// of corrupting it. Insertion order is preserved for display.
type CityList struct {
	mu     sync.RWMutex
	cities []models.TrackedCity
}

// NewCityList creates a CityList seeded with the given records.
func NewCityList(initial []models.TrackedCity) *CityList {
	l := &CityList{}
	l.cities = append(l.cities, initial...)
	return l
}

// Insert appends a city to the end of the sequence.
func (l *CityList) Insert(city models.TrackedCity) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cities = append(l.cities, city)
}

// Remove deletes the city with the given id. Returns false if absent;
// removal of a missing id is a no-op, not an error.
func (l *CityList) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.cities {
		if l.cities[i].ID == id {
			l.cities = append(l.cities[:i], l.cities[i+1:]...)
			return true
		}
	}
	return false
}

// Find returns a copy of the city with the given id.
func (l *CityList) Find(id string) (models.TrackedCity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.cities {
		if l.cities[i].ID == id {
			return l.cities[i], true
		}
	}
	return models.TrackedCity{}, false
}

// FindByName returns a copy of the city whose name matches case-insensitively.
func (l *CityList) FindByName(name string) (models.TrackedCity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.cities {
		if strings.EqualFold(l.cities[i].Name, name) {
			return l.cities[i], true
		}
	}
	return models.TrackedCity{}, false
}

// Update applies fn to the current record with the given id under the lock.
// Returns false if the id is no longer tracked (e.g. removed mid-refresh).
// Each refresh looks the record up by id at apply time rather than writing
// back a copy taken before the fetch, so a stale copy cannot clobber fields
// a concurrent pass already updated.
func (l *CityList) Update(id string, fn func(*models.TrackedCity)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.cities {
		if l.cities[i].ID == id {
			fn(&l.cities[i])
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the current sequence in display order.
func (l *CityList) Snapshot() []models.TrackedCity {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.TrackedCity, len(l.cities))
	copy(out, l.cities)
	return out
}

// Len returns the number of tracked cities.
func (l *CityList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.cities)
}
