// Package domain contains the core business entities and interfaces.
package domain

import (
	"context"
	"time"
)

// User is a local account. Accounts from an external identity provider are
// not stored as users; they only live in sessions.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Person returns the identity a local account records measurements as.
func (u *User) Person() Person {
	return Person{Identity: "local:" + u.Username, Email: u.Username}
}

// Session represents an active login bound to a person.
type Session struct {
	Token     string
	Identity  string
	Email     string
	UserAgent string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// Person returns the person the session was issued for.
func (s *Session) Person() Person {
	return Person{Identity: s.Identity, Email: s.Email}
}

// UserRepository defines the port for user persistence operations.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, username, passwordHash string) (*User, error)
	Count(ctx context.Context) (int, error)
}

// SessionRepository defines the port for session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, s Session) error
	GetByToken(ctx context.Context, token string) (*Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context) error
}
