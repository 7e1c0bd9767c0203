package adapthttp

import (
	"embed"
	"html/template"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"koerperwerte/internal/app"
	"koerperwerte/internal/domain"
)

//go:embed templates/index.html
var templateFS embed.FS

func parsePage() (*template.Template, error) {
	return template.New("index.html").
		Funcs(template.FuncMap{"formatWeight": domain.FormatWeight}).
		ParseFS(templateFS, "templates/index.html")
}

type indexPage struct {
	Group      string
	GroupQuery string
	Viewer     *domain.Person
	Persons    []domain.Person
	Days       []app.DayRow
	SSOEnabled bool
}

// handleIndex renders the calendar page for ?group_name=.
//
// GET /
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	group := s.groupFromQuery(r)
	viewer := personFromContext(r)

	cal, err := s.calendar.View(r.Context(), group, viewer)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = s.page.Execute(w, indexPage{
		Group:      group,
		GroupQuery: url.QueryEscape(group),
		Viewer:     viewer,
		Persons:    cal.Persons,
		Days:       cal.Days,
		SSOEnabled: s.oidc != nil,
	})
	if err != nil {
		s.logger.ErrorContext(r.Context(), "render page", "error", err)
	}
}

type calendarDay struct {
	Day       domain.Day        `json:"day"`
	Weights   map[string]int    `json:"weights"`
	Formatted map[string]string `json:"formatted"`
}

type calendarResponse struct {
	Group   string          `json:"group"`
	Persons []domain.Person `json:"persons"`
	Days    []calendarDay   `json:"days"`
}

// GET /api/groups/{group}/calendar
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	cal, err := s.calendar.View(r.Context(), chi.URLParam(r, "group"), personFromContext(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}

	days := make([]calendarDay, 0, len(cal.Days))
	for _, row := range cal.Days {
		formatted := make(map[string]string, len(row.Weights))
		for id, weight := range row.Weights {
			formatted[id] = domain.FormatWeight(weight)
		}
		days = append(days, calendarDay{Day: row.Day, Weights: row.Weights, Formatted: formatted})
	}
	writeJSON(w, http.StatusOK, calendarResponse{Group: cal.Group, Persons: cal.Persons, Days: days})
}
