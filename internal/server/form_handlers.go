package server

import (
	"net/http"
	"strings"

	"hireflow/pkg/domain"
)

type formRequest struct {
	Title          string                   `json:"title" validate:"required,max=200"`
	JobDescription string                   `json:"jobDescription" validate:"max=20000"`
	Fields         []domain.FieldDefinition `json:"fields" validate:"max=50"`
}

type activeRequest struct {
	Active *bool `json:"active" validate:"required"`
}

type jobDescriptionRequest struct {
	JobDescription string `json:"jobDescription" validate:"required,max=20000"`
}

func (s *Server) handleForms(w http.ResponseWriter, r *http.Request, account domain.Account) {
	switch r.Method {
	case http.MethodGet:
		forms, err := s.app.ListForms(account.ID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"forms": forms})
	case http.MethodPost:
		var req formRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		form, err := s.app.CreateForm(account.ID, req.Title, req.JobDescription, req.Fields)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, form)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleActiveForms(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	forms, err := s.app.ListActiveForms()
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forms": forms})
}

func (s *Server) handleFormByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/forms/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	formID := parts[0]
	if formID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if len(parts) == 1 {
		s.handleFormRoot(w, r, formID)
		return
	}
	switch parts[1] {
	case "active":
		s.authenticated(func(w http.ResponseWriter, r *http.Request, account domain.Account) {
			s.handleFormActive(w, r, account, formID)
		}).ServeHTTP(w, r)
	case "job-description":
		s.authenticated(func(w http.ResponseWriter, r *http.Request, account domain.Account) {
			s.handleFormJobDescription(w, r, account, formID)
		}).ServeHTTP(w, r)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleFormRoot serves the candidate-facing form read publicly and
// restricts mutation to the owner.
func (s *Server) handleFormRoot(w http.ResponseWriter, r *http.Request, formID string) {
	switch r.Method {
	case http.MethodGet:
		form, err := s.app.GetForm(formID)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, form)
	case http.MethodPut:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		var req formRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		form, err := s.app.UpdateForm(account.ID, formID, req.Title, req.JobDescription, req.Fields)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, form)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleFormActive(w http.ResponseWriter, r *http.Request, account domain.Account, formID string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req activeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	form, err := s.app.SetFormActive(account.ID, formID, *req.Active)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (s *Server) handleFormJobDescription(w http.ResponseWriter, r *http.Request, account domain.Account, formID string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req jobDescriptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	form, err := s.app.SetFormJobDescription(account.ID, formID, req.JobDescription)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}
