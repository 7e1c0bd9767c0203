// Package app holds the application services and business logic.
package app

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	"koerperwerte/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials indicates that the provided username or password was incorrect.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrSessionNotFound indicates that the requested session does not exist.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionExpired indicates that the session has expired.
	ErrSessionExpired = errors.New("session expired")
	// ErrUserNotFound indicates that the user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrUsersExist is returned by CreateInitialUser once any account exists.
	ErrUsersExist = errors.New("users already exist")
)

// DefaultSessionTTL is the session lifetime used when none is configured.
const DefaultSessionTTL = 24 * time.Hour

// AuthService resolves the person behind a request. Persons come from local
// accounts, an external OIDC provider, or a trusted forward-auth proxy; all
// of them end up as sessions bound to an identity and an email.
type AuthService struct {
	users      domain.UserRepository
	sessions   domain.SessionRepository
	sessionTTL time.Duration
}

// NewAuthService creates a new authentication service.
func NewAuthService(users domain.UserRepository, sessions domain.SessionRepository) *AuthService {
	return &AuthService{
		users:      users,
		sessions:   sessions,
		sessionTTL: DefaultSessionTTL,
	}
}

// WithSessionTTL overrides the session lifetime.
func (s *AuthService) WithSessionTTL(ttl time.Duration) *AuthService {
	if ttl > 0 {
		s.sessionTTL = ttl
	}
	return s
}

// Login authenticates a local account and creates a session.
func (s *AuthService) Login(ctx context.Context, username, password, userAgent string) (string, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil || user == nil {
		return "", ErrInvalidCredentials
	}
	if user.PasswordHash == "" {
		return "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.LoginAs(ctx, user.Person(), userAgent)
}

// LoginAs creates a session for a person that was already authenticated
// elsewhere (e.g. via SSO).
func (s *AuthService) LoginAs(ctx context.Context, person domain.Person, userAgent string) (string, error) {
	if person.Identity == "" {
		return "", domain.ErrNotAuthenticated
	}

	// Opportunistic cleanup; a failure here must not block the login.
	_ = s.sessions.DeleteExpired(ctx)

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	if err := s.sessions.Create(ctx, domain.Session{
		Token:     token,
		Identity:  person.Identity,
		Email:     person.Email,
		UserAgent: userAgent,
		ExpiresAt: now.Add(s.sessionTTL),
		CreatedAt: now,
	}); err != nil {
		return "", err
	}
	return token, nil
}

// Logout invalidates a session.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.sessions.Delete(ctx, token)
}

// ValidateSession checks if a session token is valid and matches the user
// agent, and returns the person it was issued for.
func (s *AuthService) ValidateSession(ctx context.Context, token, userAgent string) (*domain.Person, error) {
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if time.Now().After(session.ExpiresAt) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	if !ConstantTimeCompare(session.UserAgent, userAgent) {
		_ = s.sessions.Delete(ctx, token)
		return nil, ErrSessionExpired
	}

	p := session.Person()
	return &p, nil
}

// CreateInitialUser creates the first local account if none exist.
func (s *AuthService) CreateInitialUser(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return &domain.ValidationError{Field: "credentials", Reason: "username and password are required"}
	}

	count, err := s.users.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrUsersExist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	_, err = s.users.Create(ctx, username, string(hash))
	return err
}

// ForwardAuthPerson resolves the person asserted by a trusted reverse proxy
// (Authelia-style Remote-User / Remote-Email headers).
func (s *AuthService) ForwardAuthPerson(remoteUser, remoteEmail string) (*domain.Person, error) {
	remoteUser = strings.TrimSpace(remoteUser)
	if remoteUser == "" {
		return nil, errors.New("no remote user header")
	}
	email := strings.TrimSpace(remoteEmail)
	if email == "" {
		email = remoteUser
	}
	return &domain.Person{Identity: "forward:" + remoteUser, Email: email}, nil
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// ConstantTimeCompare performs a constant-time comparison of two strings.
func ConstantTimeCompare(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
