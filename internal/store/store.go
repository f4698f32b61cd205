package store

import (
	"context"
	"errors"

	"github.com/kjstillabower/weather-dashboard/internal/models"
)

// ErrPersistence indicates a store write failed. Callers report it and keep
// the in-memory state; durability is best-effort and never rolls back.
var ErrPersistence = errors.New("store persist failed")

// Store loads and persists the full tracked-city sequence. Persist overwrites
// the previous snapshot; order is preserved across a Load round trip.
type Store interface {
	Load(ctx context.Context) ([]models.TrackedCity, error)
	Persist(ctx context.Context, cities []models.TrackedCity) error
}
