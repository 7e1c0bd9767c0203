package adapthttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"koerperwerte/internal/app"
	"koerperwerte/internal/domain"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	personKey    contextKey = "person"
)

// RequestIDHeader is the HTTP header for request ID.
const RequestIDHeader = "X-Request-ID"

// Forward-auth headers set by a trusted reverse proxy.
const (
	remoteUserHeader  = "Remote-User"
	remoteEmailHeader = "Remote-Email"
)

const sessionCookie = "session"

// RequestID injects a request ID into each request, reusing X-Request-ID
// when the client sent one.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(RequestIDHeader, requestID)
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetRequestID retrieves the request ID from context.
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// Logger returns a middleware that logs every request once it completes.
// 4xx responses log at WARN and 5xx at ERROR.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			if wrapped.status >= 500 {
				level = slog.LevelError
			} else if wrapped.status >= 400 {
				level = slog.LevelWarn
			}
			logger.LogAttrs(r.Context(), level, "http request",
				slog.String("request_id", GetRequestID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status_code", wrapped.status),
				slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000),
				slog.String("remote_addr", r.RemoteAddr),
			)
		})
	}
}

// Recoverer turns a panic into a logged 500.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					if rvr == http.ErrAbortHandler {
						panic(rvr)
					}
					logger.Error("panic recovered",
						slog.String("request_id", GetRequestID(r.Context())),
						slog.Any("panic", rvr),
						slog.String("stack", string(debug.Stack())),
					)
					if os.Getenv("APP_ENV") == "development" {
						debug.PrintStack()
					}
					writeError(w, http.StatusInternalServerError, errInternal)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// identityMiddleware attaches the resolved person to the request context.
// It never rejects a request; handlers decide whether a person is required.
func (s *Server) identityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if p := s.resolvePerson(r); p != nil {
			r = r.WithContext(context.WithValue(r.Context(), personKey, p))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) resolvePerson(r *http.Request) *domain.Person {
	if s.trustForwardAuth {
		if remoteUser := r.Header.Get(remoteUserHeader); remoteUser != "" {
			p, err := s.auth.ForwardAuthPerson(remoteUser, r.Header.Get(remoteEmailHeader))
			if err == nil {
				return p
			}
		}
	}

	cookie, err := r.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil
	}
	p, err := s.auth.ValidateSession(r.Context(), cookie.Value, r.UserAgent())
	if err != nil {
		if !errors.Is(err, app.ErrSessionNotFound) && !errors.Is(err, app.ErrSessionExpired) {
			s.logger.WarnContext(r.Context(), "session lookup failed", "error", err)
		}
		return nil
	}
	return p
}

// personFromContext returns the viewer of the request, or nil.
func personFromContext(r *http.Request) *domain.Person {
	p, _ := r.Context().Value(personKey).(*domain.Person)
	return p
}
