// Package store persists the selection and the cached blocked days in
// SQLite so they survive restarts.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"gridcal/internal/model"
)

//go:embed schema.sql
var schemaSQL string

const currentSchemaVersion = 1

// Store is the SQLite-backed state of one calendar.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates or opens the database at path and applies the schema.
// It is safe to call repeatedly on the same path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// LoadSelection returns the persisted selection in ascending order.
func (s *Store) LoadSelection(ctx context.Context) ([]model.CalendarDate, error) {
	return s.loadDays(ctx, "SELECT day FROM selection ORDER BY day")
}

// SaveSelection replaces the persisted selection with dates.
func (s *Store) SaveSelection(ctx context.Context, dates []model.CalendarDate) error {
	return s.replaceDays(ctx, "selection", "selected_at", dates)
}

// LoadBlocked returns the cached blocked days in ascending order.
func (s *Store) LoadBlocked(ctx context.Context) ([]model.CalendarDate, error) {
	return s.loadDays(ctx, "SELECT day FROM blocked ORDER BY day")
}

// SaveBlocked replaces the cached blocked days.
func (s *Store) SaveBlocked(ctx context.Context, dates []model.CalendarDate) error {
	return s.replaceDays(ctx, "blocked", "updated_at", dates)
}

func (s *Store) loadDays(ctx context.Context, query string) ([]model.CalendarDate, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var out []model.CalendarDate
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		d, err := model.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate days: %w", err)
	}
	return out, nil
}

// replaceDays rewrites table in one transaction. table and stampColumn are
// package constants, never user input.
func (s *Store) replaceDays(ctx context.Context, table, stampColumn string, dates []model.CalendarDate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf("INSERT OR IGNORE INTO %s (day, %s) VALUES (?, ?)", table, stampColumn))
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	stamp := s.now().UTC().Format(time.RFC3339)
	for _, d := range dates {
		if _, err := stmt.ExecContext(ctx, d.String(), stamp); err != nil {
			return fmt.Errorf("insert %s into %s: %w", d, table, err)
		}
	}
	return tx.Commit()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}
