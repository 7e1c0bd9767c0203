package adapthttp

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"koerperwerte/internal/domain"
)

type weighingRequest struct {
	Datum  string      `json:"datum"`
	Weight weightField `json:"weight"`
}

type weighingResponse struct {
	Record    *domain.MeasurementRecord `json:"record"`
	Formatted string                    `json:"formatted"`
}

// handleWeighing records the viewer's weight for ?group_name=.
//
// POST /weighing
func (s *Server) handleWeighing(w http.ResponseWriter, r *http.Request) {
	s.recordWeighing(w, r, s.groupFromQuery(r))
}

// POST /api/groups/{group}/weighings
func (s *Server) handleGroupWeighing(w http.ResponseWriter, r *http.Request) {
	s.recordWeighing(w, r, chi.URLParam(r, "group"))
}

func (s *Server) recordWeighing(w http.ResponseWriter, r *http.Request, group string) {
	viewer := personFromContext(r)
	if viewer == nil {
		s.fail(w, r, domain.ErrNotAuthenticated)
		return
	}

	var body weighingRequest
	if err := parseJSON(r, &body); err != nil {
		s.fail(w, r, err)
		return
	}

	rec, err := s.ledger.Record(r.Context(), group, viewer, body.Datum, string(body.Weight))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weighingResponse{Record: rec, Formatted: domain.FormatWeight(rec.Weight)})
}

// GET /api/groups/{group}/weighings
func (s *Server) handleListWeighings(w http.ResponseWriter, r *http.Request) {
	items, err := s.ledger.ListAll(r.Context(), chi.URLParam(r, "group"), personFromContext(r))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}
