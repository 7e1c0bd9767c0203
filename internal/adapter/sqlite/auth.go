package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"koerperwerte/internal/domain"
)

// GetByUsername returns nil when no account has that name.
func (s *Store) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	var (
		u       domain.User
		created int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE username = ?", username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	u.CreatedAt = fromMillis(created)
	return &u, nil
}

// Create creates a new user.
func (s *Store) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	now := time.Now().UTC()
	res, err := s.sqlDB.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)",
		username, passwordHash, toMillis(now),
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &domain.User{ID: id, Username: username, PasswordHash: passwordHash, CreatedAt: fromMillis(toMillis(now))}, nil
}

// Count returns the total number of users.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	err := s.sqlDB.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

// SessionRepo implements session persistence on a Store.
type SessionRepo struct {
	store *Store
}

// NewSessionRepo wraps a Store as a SessionRepository.
func NewSessionRepo(store *Store) *SessionRepo {
	return &SessionRepo{store: store}
}

// Create stores a new session.
func (r *SessionRepo) Create(ctx context.Context, s domain.Session) error {
	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.store.sqlDB.ExecContext(ctx,
		"INSERT INTO sessions (token, identity, email, user_agent, expires_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		s.Token, s.Identity, s.Email, s.UserAgent, toMillis(s.ExpiresAt), toMillis(createdAt),
	)
	return err
}

// GetByToken retrieves a session by token.
func (r *SessionRepo) GetByToken(ctx context.Context, token string) (*domain.Session, error) {
	var (
		s                domain.Session
		expires, created int64
	)
	err := r.store.sqlDB.QueryRowContext(ctx,
		"SELECT token, identity, email, user_agent, expires_at, created_at FROM sessions WHERE token = ?",
		token,
	).Scan(&s.Token, &s.Identity, &s.Email, &s.UserAgent, &expires, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.ExpiresAt = fromMillis(expires)
	s.CreatedAt = fromMillis(created)
	return &s, nil
}

// Delete deletes a session by token.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	_, err := r.store.sqlDB.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteExpired deletes all expired sessions.
func (r *SessionRepo) DeleteExpired(ctx context.Context) error {
	_, err := r.store.sqlDB.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at < ?", toMillis(time.Now()))
	return err
}
