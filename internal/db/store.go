// Package db holds the DuckDB-backed campground directory: a local copy
// of provider campground listings so name lookups don't re-enumerate a
// whole state per request.
package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"strings"
	"time"

	"github.com/campscout/campscout/internal/providers"
	_ "github.com/marcboeker/go-duckdb"
)

//go:embed schema.sql
var schemaFS embed.FS

type Store struct {
	DB *sql.DB
}

func Open(path string) (*Store, error) {
	return OpenWithMode(path, "READ_WRITE")
}

// OpenReadOnly opens the database in READ_ONLY mode (no write lock)
func OpenReadOnly(path string) (*Store, error) { return OpenWithMode(path, "READ_ONLY") }

// OpenWithMode allows specifying DuckDB access_mode (READ_WRITE or READ_ONLY)
func OpenWithMode(path, mode string) (*Store, error) {
	if mode == "" {
		mode = "READ_WRITE"
	}
	dsn := fmt.Sprintf("%s?access_mode=%s", path, mode)
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	if strings.EqualFold(mode, "READ_WRITE") {
		if err := migrate(db); err != nil {
			return nil, err
		}
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

func migrate(db *sql.DB) error {
	schemaBytes, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return err
	}
	_, err = db.Exec(string(schemaBytes))
	return err
}

// Models

type Campground struct {
	Provider string
	ID       string
	Name     string
	State    string
	City     string
	Lat      float64
	Lon      float64
}

type SyncLog struct {
	SyncType   string
	Provider   string
	StartedAt  time.Time
	FinishedAt time.Time
	Success    bool
	Err        string
	Count      int64
}

// UpsertCampgroundBatch writes one provider's campground listing in a
// single transaction.
func (s *Store) UpsertCampgroundBatch(ctx context.Context, provider string, cgs []providers.Campground) error {
	if len(cgs) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO campgrounds(provider, id, name, state, city, lat, lon, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, now())
	`)
	if err != nil {
		tx.Rollback()
		return err
	}
	for _, cg := range cgs {
		var lat, lon float64
		if cg.Latitude != nil {
			lat = *cg.Latitude
		}
		if cg.Longitude != nil {
			lon = *cg.Longitude
		}
		if _, err := stmt.ExecContext(ctx, provider, cg.ID, cg.Name, cg.State, cg.City, lat, lon); err != nil {
			stmt.Close()
			tx.Rollback()
			return err
		}
	}
	stmt.Close()
	return tx.Commit()
}

func (s *Store) GetCampgroundByID(ctx context.Context, provider, campgroundID string) (Campground, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT provider, id, name, coalesce(state, ''), coalesce(city, ''), coalesce(lat, 0.0), coalesce(lon, 0.0)
		FROM campgrounds
		WHERE provider=? AND id=?
	`, provider, campgroundID)
	var c Campground
	if err := row.Scan(&c.Provider, &c.ID, &c.Name, &c.State, &c.City, &c.Lat, &c.Lon); err != nil {
		if err == sql.ErrNoRows {
			return Campground{}, false, nil
		}
		return Campground{}, false, err
	}
	return c, true, nil
}

// CampgroundName implements availability.NameLookup. A miss returns an
// empty name and no error so callers fall through to their generic
// display name.
func (s *Store) CampgroundName(ctx context.Context, campgroundID string) (string, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT name FROM campgrounds WHERE id=? LIMIT 1
	`, campgroundID)
	var name string
	switch err := row.Scan(&name); err {
	case nil:
		return name, nil
	case sql.ErrNoRows:
		return "", nil
	default:
		return "", err
	}
}

func (s *Store) CountCampgrounds(ctx context.Context, provider string) (int64, error) {
	row := s.DB.QueryRowContext(ctx, `SELECT count(*) FROM campgrounds WHERE provider=?`, provider)
	var n int64
	if err := row.Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Sync helpers

func (s *Store) RecordSync(ctx context.Context, l SyncLog) error {
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO sync_log(sync_type, provider, started_at, finished_at, success, err, count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.SyncType, l.Provider, l.StartedAt, l.FinishedAt, l.Success, l.Err, l.Count)
	return err
}

func (s *Store) GetLastSuccessfulSync(ctx context.Context, syncType, provider string) (time.Time, bool, error) {
	row := s.DB.QueryRowContext(ctx, `
		SELECT finished_at FROM sync_log
		WHERE sync_type=? AND provider=? AND success=true
		ORDER BY finished_at DESC LIMIT 1
	`, syncType, provider)
	var t time.Time
	switch err := row.Scan(&t); err {
	case nil:
		return t, true, nil
	case sql.ErrNoRows:
		return time.Time{}, false, nil
	default:
		return time.Time{}, false, err
	}
}
