package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"policyguard/internal/domain"
)

type checkRequest struct {
	Text       string  `json:"text"`
	Department *string `json:"department"`
	PolicyType *string `json:"policy_type"`
}

func (s *Server) postCheck(w http.ResponseWriter, r *http.Request) {
	var body checkRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.compliance.CheckCompliance(r.Context(), domain.CheckRequest{
		Text:       body.Text,
		Department: body.Department,
		PolicyType: body.PolicyType,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if res.Issues == nil {
		res.Issues = []domain.ComplianceIssue{}
	}
	writeJSON(w, http.StatusOK, res)
}

// defaultLogLimit caps listings when the caller sends no limit. An explicit
// limit of 0 returns every matching entry.
const defaultLogLimit = 100

// logsParams are the query parameters of GET /compliance/logs.
type logsParams struct {
	Department *string
	Risk       *string
	Limit      *int
}

func (s *Server) getLogs(w http.ResponseWriter, r *http.Request) {
	var p logsParams
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "department", q, &p.Department); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "department", Reason: err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "risk", q, &p.Risk); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "risk", Reason: err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &p.Limit); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "limit", Reason: err.Error()})
		return
	}

	filter := domain.LogFilter{Limit: defaultLogLimit}
	if p.Department != nil && *p.Department != "" {
		filter.Department = p.Department
	}
	if p.Risk != nil && *p.Risk != "" {
		lvl, err := domain.ParseRiskLevel(*p.Risk)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.Risk = &lvl
	}
	if p.Limit != nil {
		filter.Limit = *p.Limit
	}
	entries, err := s.compliance.ListLogs(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) getLog(w http.ResponseWriter, r *http.Request) {
	var id int64
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "id", Reason: err.Error()})
		return
	}
	entry, err := s.compliance.GetLog(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (s *Server) getRules(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.compliance.Rules())
}
