package server

import (
	"net/http"
	"strings"

	"hireflow/pkg/domain"
)

type submitApplicationRequest struct {
	FormID    string            `json:"formId" validate:"required"`
	Responses map[string]string `json:"responses"`
	ResumeURL string            `json:"resumeUrl" validate:"required,url"`
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type uploadURLRequest struct {
	Filename    string `json:"filename" validate:"max=255"`
	ContentType string `json:"contentType" validate:"max=255"`
}

type generateFieldsRequest struct {
	JobDescription string `json:"jobDescription" validate:"max=20000"`
	DomainHint     string `json:"domainHint" validate:"max=100"`
}

type generateJobDescriptionRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Hints string `json:"hints" validate:"max=5000"`
}

func (s *Server) handleApplications(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		// Candidate intake is public.
		if !s.allowRate(w, r, s.intakeLimiter, "too many submissions") {
			s.audit(r, "server.application.submit", "rate_limited")
			return
		}
		var req submitApplicationRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}
		application, err := s.app.SubmitApplication(req.FormID, req.Responses, req.ResumeURL)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, application)
	case http.MethodGet:
		account, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		applications, err := s.app.ListApplications(account.ID, r.URL.Query().Get("formId"))
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"applications": applications})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleApplicationByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/applications/")
	parts := strings.SplitN(strings.Trim(rest, "/"), "/", 2)
	applicationID := parts[0]
	if applicationID == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	action := ""
	if len(parts) == 2 {
		action = parts[1]
	}
	s.authenticated(func(w http.ResponseWriter, r *http.Request, account domain.Account) {
		switch action {
		case "":
			s.handleApplicationRoot(w, r, account, applicationID)
		case "status":
			s.handleApplicationStatus(w, r, account, applicationID)
		case "score":
			s.handleApplicationScore(w, r, account, applicationID)
		case "notify":
			s.handleApplicationNotify(w, r, account, applicationID)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}
	}).ServeHTTP(w, r)
}

func (s *Server) handleApplicationRoot(w http.ResponseWriter, r *http.Request, account domain.Account, applicationID string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	application, err := s.app.GetApplication(account.ID, applicationID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request, account domain.Account, applicationID string) {
	if r.Method != http.MethodPut && r.Method != http.MethodPatch {
		methodNotAllowed(w)
		return
	}
	var req statusRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	application, err := s.app.SetApplicationStatus(account.ID, applicationID, domain.ApplicationStatus(req.Status))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *Server) handleApplicationScore(w http.ResponseWriter, r *http.Request, account domain.Account, applicationID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many scoring requests") {
		s.audit(r, "server.application.score", "rate_limited")
		return
	}
	application, err := s.app.ScoreApplication(r.Context(), account.ID, applicationID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, application)
}

func (s *Server) handleApplicationNotify(w http.ResponseWriter, r *http.Request, account domain.Account, applicationID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	job, err := s.app.NotifyCandidate(r.Context(), account.ID, applicationID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleUploadURL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.uploadLimiter, "too many upload requests") {
		s.audit(r, "server.upload.url", "rate_limited")
		return
	}
	var req uploadURLRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Filename) == "" && strings.TrimSpace(req.ContentType) == "" {
		writeError(w, http.StatusBadRequest, "filename or contentType is required")
		return
	}
	slot, err := s.app.RequestUploadSlot(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (s *Server) handleGenerateFields(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many generation requests") {
		s.audit(r, "server.ai.generate_fields", "rate_limited")
		return
	}
	var req generateFieldsRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	fields := s.app.SuggestFields(r.Context(), req.JobDescription, req.DomainHint)
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (s *Server) handleGenerateJobDescription(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.aiLimiter, "too many generation requests") {
		s.audit(r, "server.ai.generate_job_description", "rate_limited")
		return
	}
	var req generateJobDescriptionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	text, err := s.app.GenerateJobDescription(r.Context(), req.Title, req.Hints)
	if err != nil {
		writeError(w, http.StatusBadGateway, "job description generation failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"jobDescription": text})
}
