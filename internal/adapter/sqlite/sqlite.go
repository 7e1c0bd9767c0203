// Package sqlite provides a SQLite-backed store for single-node deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"koerperwerte/internal/domain"
)

// Store persists measurements, users and sessions in SQLite.
type Store struct {
	sqlDB *sql.DB
}

var _ domain.MeasurementRepository = (*Store)(nil)
var _ domain.UserRepository = (*Store)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// one writer keeps busy errors away from concurrent upserts
	sqlDB.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	s := &Store{sqlDB: sqlDB}
	if err := s.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping reports whether the database file is usable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Migrate creates the schema if it does not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS measurements (
			id TEXT PRIMARY KEY,
			group_name TEXT NOT NULL,
			identity TEXT NOT NULL,
			email TEXT NOT NULL,
			day TEXT NOT NULL,
			weight INTEGER NOT NULL CHECK (weight >= 0),
			created_at INTEGER NOT NULL,
			UNIQUE (group_name, identity, day)
		);`,
		"CREATE INDEX IF NOT EXISTS idx_measurements_group_day ON measurements(group_name, day);",
		"CREATE TABLE IF NOT EXISTS users (id INTEGER PRIMARY KEY AUTOINCREMENT, username TEXT UNIQUE NOT NULL, password_hash TEXT NOT NULL, created_at INTEGER NOT NULL);",
		"CREATE TABLE IF NOT EXISTS sessions (token TEXT PRIMARY KEY, identity TEXT NOT NULL, email TEXT NOT NULL, user_agent TEXT NOT NULL DEFAULT '', expires_at INTEGER NOT NULL, created_at INTEGER NOT NULL);",
		"CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);",
	}
	for _, stmt := range stmts {
		if _, err := s.sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

const measurementColumns = "id, group_name, identity, email, day, weight, created_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*domain.MeasurementRecord, error) {
	var (
		r       domain.MeasurementRecord
		created int64
	)
	if err := row.Scan(&r.ID, &r.Group, &r.Person.Identity, &r.Person.Email, &r.Day, &r.Weight, &created); err != nil {
		return nil, err
	}
	r.CreatedAt = fromMillis(created)
	return &r, nil
}

// FindMeasurement returns the record for (group, identity, day) or nil.
func (s *Store) FindMeasurement(ctx context.Context, group, identity string, day domain.Day) (*domain.MeasurementRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE group_name = ? AND identity = ? AND day = ?",
		group, identity, day.String(),
	)
	r, err := scanMeasurement(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find measurement: %w", err)
	}
	return r, nil
}

// CreateMeasurement inserts rec, overwriting the weight of an existing record
// for the same person and day.
func (s *Store) CreateMeasurement(ctx context.Context, rec domain.MeasurementRecord) (*domain.MeasurementRecord, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		`INSERT INTO measurements (`+measurementColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_name, identity, day) DO UPDATE SET weight = excluded.weight
		 RETURNING `+measurementColumns,
		rec.ID, rec.Group, rec.Person.Identity, rec.Person.Email, rec.Day.String(), rec.Weight, toMillis(rec.CreatedAt),
	)
	r, err := scanMeasurement(row)
	if err != nil {
		return nil, fmt.Errorf("create measurement: %w", err)
	}
	return r, nil
}

// UpdateMeasurementWeight sets the weight of one record.
func (s *Store) UpdateMeasurementWeight(ctx context.Context, group, id string, weight int) error {
	res, err := s.sqlDB.ExecContext(ctx,
		"UPDATE measurements SET weight = ? WHERE group_name = ? AND id = ?",
		weight, group, id,
	)
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update measurement: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("measurement %s not found", id)
	}
	return nil
}

// ListMeasurements returns every record of the group ordered by day.
func (s *Store) ListMeasurements(ctx context.Context, group string) ([]domain.MeasurementRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx,
		"SELECT "+measurementColumns+" FROM measurements WHERE group_name = ? ORDER BY day, id", group)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	out := make([]domain.MeasurementRecord, 0)
	for rows.Next() {
		r, err := scanMeasurement(rows)
		if err != nil {
			return nil, fmt.Errorf("list measurements: %w", err)
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}
