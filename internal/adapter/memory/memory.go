// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"koerperwerte/internal/domain"
)

// DB implements an in-memory database storage.
type DB struct {
	mu           sync.Mutex
	measurements map[string][]domain.MeasurementRecord
	users        []*domain.User
	sessions     map[string]*domain.Session

	userIDCounter int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{
		measurements: make(map[string][]domain.MeasurementRecord),
		sessions:     make(map[string]*domain.Session),
	}
}

// Ensure interfaces are met.
var _ domain.MeasurementRepository = (*DB)(nil)
var _ domain.UserRepository = (*DB)(nil)
var _ domain.SessionRepository = (*SessionRepo)(nil)

// Ping always succeeds.
func (db *DB) Ping(ctx context.Context) error { return nil }

// Close is a no-op.
func (db *DB) Close() error { return nil }

// --- MeasurementRepository ---

// FindMeasurement returns a copy of the record for (group, identity, day).
func (db *DB) FindMeasurement(ctx context.Context, group, identity string, day domain.Day) (*domain.MeasurementRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.indexOf(group, identity, day); i >= 0 {
		rec := db.measurements[group][i]
		return &rec, nil
	}
	return nil, nil
}

// CreateMeasurement appends rec to its group. An existing record for the same
// person and day keeps its ID and creation time and takes the new weight.
func (db *DB) CreateMeasurement(ctx context.Context, rec domain.MeasurementRecord) (*domain.MeasurementRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i := db.indexOf(rec.Group, rec.Person.Identity, rec.Day); i >= 0 {
		existing := &db.measurements[rec.Group][i]
		existing.Weight = rec.Weight
		out := *existing
		return &out, nil
	}

	rec.CreatedAt = rec.CreatedAt.UTC()
	db.measurements[rec.Group] = append(db.measurements[rec.Group], rec)
	return &rec, nil
}

// UpdateMeasurementWeight sets the weight of the record with the given ID.
func (db *DB) UpdateMeasurementWeight(ctx context.Context, group, id string, weight int) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	records := db.measurements[group]
	for i := range records {
		if records[i].ID == id {
			records[i].Weight = weight
			return nil
		}
	}
	return errors.New("measurement not found")
}

// ListMeasurements returns a snapshot of the group ordered by day. Records
// are kept in insertion order, so a stable sort preserves it for ties.
func (db *DB) ListMeasurements(ctx context.Context, group string) ([]domain.MeasurementRecord, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	result := make([]domain.MeasurementRecord, len(db.measurements[group]))
	copy(result, db.measurements[group])

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Day.Before(result[j].Day)
	})
	return result, nil
}

func (db *DB) indexOf(group, identity string, day domain.Day) int {
	for i, rec := range db.measurements[group] {
		if rec.Person.Identity == identity && rec.Day == day {
			return i
		}
	}
	return -1
}

// --- UserRepository ---

// GetByUsername retrieves a user by username.
func (db *DB) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, nil
}

// Create creates a new user.
func (db *DB) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for _, u := range db.users {
		if u.Username == username {
			return nil, errors.New("user already exists")
		}
	}

	db.userIDCounter++
	u := &domain.User{
		ID:           db.userIDCounter,
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	db.users = append(db.users, u)
	return u, nil
}

// Count returns the total number of users.
func (db *DB) Count(ctx context.Context) (int, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.users), nil
}

// --- SessionRepository ---

// SessionRepo implements session persistence.
type SessionRepo struct {
	db *DB
}

// NewSessionRepo creates a new session repository.
func (db *DB) NewSessionRepo() *SessionRepo {
	return &SessionRepo{db: db}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	r.db.sessions[s.Token] = &s
	return nil
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if s, ok := r.db.sessions[token]; ok {
		out := *s
		return &out, nil
	}
	return nil, nil
}

// Delete deletes a session.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	delete(r.db.sessions, token)
	return nil
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	now := time.Now()
	for k, v := range r.db.sessions {
		if now.After(v.ExpiresAt) {
			delete(r.db.sessions, k)
		}
	}
	return nil
}
