package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/kjstillabower/weather-dashboard/internal/models"
	_ "github.com/mattn/go-sqlite3" // sqlite driver for database/sql
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS tracked_cities (
	position  INTEGER NOT NULL,
	id        TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	country   TEXT NOT NULL,
	latitude  REAL NOT NULL,
	longitude REAL NOT NULL,
	payload   TEXT NOT NULL
);
`

// SQLiteStore persists the tracked-city sequence in a single sqlite table.
// Identity columns are duplicated out of the JSON payload so the database can
// be inspected with plain SQL; the payload column is authoritative.
type SQLiteStore struct {
	db *sqlx.DB
}

// OpenSQLiteStore opens (creating if necessary) the sqlite database at path
// and ensures the schema exists.
func OpenSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

type cityRow struct {
	Position int    `db:"position"`
	ID       string `db:"id"`
	Payload  string `db:"payload"`
}

// Load reads the persisted sequence in display order. Rows whose payload does
// not decode are skipped rather than failing the load.
func (s *SQLiteStore) Load(ctx context.Context) ([]models.TrackedCity, error) {
	var rows []cityRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT position, id, payload FROM tracked_cities ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}

	cities := make([]models.TrackedCity, 0, len(rows))
	for _, row := range rows {
		var city models.TrackedCity
		if err := json.Unmarshal([]byte(row.Payload), &city); err != nil {
			continue
		}
		cities = append(cities, city)
	}
	return cities, nil
}

// Persist replaces the stored snapshot with the given sequence in one
// transaction.
func (s *SQLiteStore) Persist(ctx context.Context, cities []models.TrackedCity) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM tracked_cities`); err != nil {
		return fmt.Errorf("%w: clear: %v", ErrPersistence, err)
	}
	for i, city := range cities {
		payload, err := json.Marshal(city)
		if err != nil {
			return fmt.Errorf("%w: marshal %s: %v", ErrPersistence, city.ID, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO tracked_cities (position, id, name, country, latitude, longitude, payload)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			i, city.ID, city.Name, city.Country, city.Latitude, city.Longitude, string(payload))
		if err != nil {
			return fmt.Errorf("%w: insert %s: %v", ErrPersistence, city.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
