// Package adapthttp implements the HTTP adapter for the application.
package adapthttp

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"koerperwerte/internal/app"
	"koerperwerte/internal/domain"
)

// Deps are the services and settings the HTTP adapter is wired to.
type Deps struct {
	Ledger   *app.Ledger
	Calendar *app.CalendarService
	Auth     *app.AuthService
	Health   *HealthHandler
	// OIDC is nil when single sign-on is not configured.
	OIDC   *OIDCConfig
	Logger *slog.Logger

	DefaultGroup     string
	TrustForwardAuth bool
	SessionTTL       time.Duration
}

// Server is the driving HTTP adapter that routes requests to application
// services.
type Server struct {
	ledger   *app.Ledger
	calendar *app.CalendarService
	auth     *app.AuthService
	health   *HealthHandler
	oidc     *OIDCConfig
	logger   *slog.Logger
	page     *template.Template

	defaultGroup     string
	trustForwardAuth bool
	sessionTTL       time.Duration
}

// New creates a Server wired to the given application services.
func New(d Deps) (*Server, error) {
	page, err := parsePage()
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	s := &Server{
		ledger:           d.Ledger,
		calendar:         d.Calendar,
		auth:             d.Auth,
		health:           d.Health,
		oidc:             d.OIDC,
		logger:           d.Logger,
		page:             page,
		defaultGroup:     d.DefaultGroup,
		trustForwardAuth: d.TrustForwardAuth,
		sessionTTL:       d.SessionTTL,
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.health == nil {
		s.health = NewHealthHandler(nil, nil)
	}
	if s.defaultGroup == "" {
		s.defaultGroup = domain.DefaultGroup
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = app.DefaultSessionTTL
	}
	return s, nil
}

// Handler returns the root http.Handler for the application.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(RequestID)
	r.Use(Logger(s.logger))
	r.Use(Recoverer(s.logger))
	r.Use(withNoCache)

	r.Get("/healthz", s.health.Healthz)
	r.Get("/readyz", s.health.Readyz)

	r.Group(func(r chi.Router) {
		r.Use(s.identityMiddleware)

		r.Get("/", s.handleIndex)
		r.Post("/weighing", s.handleWeighing)

		r.Route("/api", func(r chi.Router) {
			r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			})

			r.Route("/groups/{group}", func(r chi.Router) {
				r.Get("/weighings", s.handleListWeighings)
				r.Post("/weighings", s.handleGroupWeighing)
				r.Get("/calendar", s.handleCalendar)
			})

			r.Route("/auth", func(r chi.Router) {
				r.Get("/config", s.handleConfig)
				r.Get("/me", s.handleMe)
				r.Post("/login", s.handleLogin)
				r.Post("/logout", s.handleLogout)
				r.Post("/setup", s.handleSetupUser)
			})
		})

		r.Get("/auth/sso/login", s.handleSSOLogin)
		r.Get("/auth/sso/callback", s.handleSSOCallback)
	})

	return r
}

// groupFromQuery returns the group_name query parameter or the default group.
func (s *Server) groupFromQuery(r *http.Request) string {
	return domain.ResolveGroup(r.URL.Query().Get("group_name"), s.defaultGroup)
}
