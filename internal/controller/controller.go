// Package controller implements the city membership operations: adding a city
// through geocoding, removing one, and reloading one on demand. It sits
// between the HTTP layer and the refresh orchestrator.
package controller

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-dashboard/internal/gateway"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	"github.com/kjstillabower/weather-dashboard/internal/refresh"
	"github.com/kjstillabower/weather-dashboard/internal/store"
)

// ErrDuplicateCity is returned when the requested name matches an already
// tracked city, compared case-insensitively.
var ErrDuplicateCity = errors.New("city already tracked")

// ErrCityNotFound is returned when geocoding yields no candidate for the name.
var ErrCityNotFound = errors.New("city not found")

// ErrCityGone mirrors the refresh-side error for a missing id.
var ErrCityGone = refresh.ErrCityGone

// Geocoder resolves a free-form city name to location candidates.
type Geocoder interface {
	Search(ctx context.Context, name string) ([]gateway.Candidate, error)
}

// Refresher is the slice of the orchestrator the controller drives.
type Refresher interface {
	RefreshOne(ctx context.Context, id string) error
	Sync(ctx context.Context)
}

// Controller owns tracked-city membership.
type Controller struct {
	list      *store.CityList
	geocoder  Geocoder
	refresher Refresher
	logger    *zap.Logger
}

// New creates a Controller.
func New(list *store.CityList, geocoder Geocoder, refresher Refresher, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		list:      list,
		geocoder:  geocoder,
		refresher: refresher,
		logger:    logger,
	}
}

// Cities returns the tracked cities in insertion order.
func (c *Controller) Cities() []models.TrackedCity {
	return c.list.Snapshot()
}

// AddCity validates and geocodes the name, appends the top candidate to the
// tracked list, and runs the city's first refresh. The add succeeds even if
// that first refresh fails: the city stays tracked in an errored state and the
// next refresh pass retries it. The returned record reflects the refresh
// outcome.
func (c *Controller) AddCity(ctx context.Context, name string) (models.TrackedCity, error) {
	trimmed, err := validateCityName(name)
	if err != nil {
		return models.TrackedCity{}, err
	}
	if _, ok := c.list.FindByName(trimmed); ok {
		return models.TrackedCity{}, fmt.Errorf("%w: %s", ErrDuplicateCity, trimmed)
	}

	candidates, err := c.geocoder.Search(ctx, trimmed)
	if err != nil {
		return models.TrackedCity{}, fmt.Errorf("geocode %q: %w", trimmed, err)
	}
	if len(candidates) == 0 {
		return models.TrackedCity{}, fmt.Errorf("%w: %s", ErrCityNotFound, trimmed)
	}

	// Multiple candidates resolve to the highest-ranked match; disambiguation
	// by country or region rides on the query string ("Paris, US").
	top := candidates[0]
	if top.Name != trimmed {
		if _, ok := c.list.FindByName(top.Name); ok {
			return models.TrackedCity{}, fmt.Errorf("%w: %s", ErrDuplicateCity, top.Name)
		}
	}

	city := models.TrackedCity{
		ID:        uuid.New().String(),
		Name:      top.Name,
		Country:   top.Country,
		Region:    top.Region,
		Latitude:  top.Latitude,
		Longitude: top.Longitude,
	}
	c.list.Insert(city)
	c.logger.Info("city added",
		zap.String("id", city.ID),
		zap.String("name", city.Name),
		zap.String("country", city.Country))

	if err := c.refresher.RefreshOne(ctx, city.ID); err != nil {
		c.logger.Warn("initial refresh failed, city kept",
			zap.String("id", city.ID),
			zap.Error(err))
	}

	added, ok := c.list.Find(city.ID)
	if !ok {
		return city, nil
	}
	return added, nil
}

// RemoveCity drops the city with the given id and persists the shrunken
// sequence. Removing an unknown id is a no-op; the reported bool says whether
// anything was removed.
func (c *Controller) RemoveCity(ctx context.Context, id string) bool {
	removed := c.list.Remove(id)
	if removed {
		c.logger.Info("city removed", zap.String("id", id))
		c.refresher.Sync(ctx)
	}
	return removed
}

// ReloadCity clears any recorded error and re-runs a single city's refresh on
// demand, independent of the periodic cycle.
func (c *Controller) ReloadCity(ctx context.Context, id string) error {
	cleared := c.list.Update(id, func(city *models.TrackedCity) {
		city.LastError = ""
	})
	if !cleared {
		return ErrCityGone
	}
	return c.refresher.RefreshOne(ctx, id)
}
