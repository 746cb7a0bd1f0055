package httpadapter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"policyguard/internal/domain"
)

type policyVersionRequest struct {
	Version    string `json:"version"`
	StorageRef string `json:"storage_ref"`
}

func (s *Server) getPolicies(w http.ResponseWriter, r *http.Request) {
	var (
		policyType *string
		department *string
	)
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "policy_type", q, &policyType); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "policy_type", Reason: err.Error()})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "department", q, &department); err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "department", Reason: err.Error()})
		return
	}
	var filter domain.PolicyFilter
	if policyType != nil && *policyType != "" {
		pt, err := domain.ParsePolicyType(*policyType)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		filter.PolicyType = &pt
	}
	if department != nil && *department != "" {
		filter.Department = department
	}
	docs, err := s.policies.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

func (s *Server) postPolicy(w http.ResponseWriter, r *http.Request) {
	var body domain.PolicyRegistration
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.policies.Register(r.Context(), body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) getPolicy(w http.ResponseWriter, r *http.Request) {
	id, ok := s.policyID(w, r)
	if !ok {
		return
	}
	doc, err := s.policies.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) postPolicyVersion(w http.ResponseWriter, r *http.Request) {
	id, ok := s.policyID(w, r)
	if !ok {
		return
	}
	var body policyVersionRequest
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	doc, err := s.policies.Supersede(r.Context(), id, body.Version, body.StorageRef)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) policyID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		s.writeError(w, r, &domain.ValidationError{Field: "id", Reason: err.Error()})
		return "", false
	}
	return id, true
}
