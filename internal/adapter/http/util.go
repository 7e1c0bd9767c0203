package adapthttp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"koerperwerte/internal/domain"
)

var errInternal = errors.New("internal error")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func parseJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &domain.ValidationError{Field: "body", Reason: fmt.Sprintf("invalid json: %v", err)}
	}
	return nil
}

// statusFor maps a service error to its HTTP status.
func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Server errors are logged and their
// detail is not sent to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed",
			"request_id", GetRequestID(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, errInternal)
		return
	}
	writeError(w, status, err)
}

func withNoCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// weightField accepts a weight as a JSON string or number. Strings follow
// domain.ParseWeight ("84,5", or "845" as tenths). Numbers are whole units, so
// 84 and 84.0 both mean 84.0.
type weightField string

func (f *weightField) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = weightField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("weight must be a string or number")
	}
	v := n.String()
	if !strings.ContainsAny(v, ".eE") {
		v += ".0"
	}
	*f = weightField(v)
	return nil
}
