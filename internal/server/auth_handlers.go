package server

import (
	"net/http"

	"hireflow/pkg/domain"
)

type signupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Company  string `json:"company" validate:"max=200"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Account domain.Account `json:"account"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		s.audit(r, "server.signup", "rate_limited")
		return
	}
	var req signupRequest
	if !decodeAndValidate(w, r, &req) {
		s.audit(r, "server.signup", "fail", "reason", "invalid_body")
		return
	}
	account, token, err := s.app.SignUp(req.Email, req.Password, req.Company)
	if err != nil {
		s.audit(r, "server.signup", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "server.signup", "success", "account_id", account.ID)
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, Account: account})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		s.audit(r, "server.login", "rate_limited")
		return
	}
	var req loginRequest
	if !decodeAndValidate(w, r, &req) {
		s.audit(r, "server.login", "fail", "reason", "invalid_body")
		return
	}
	account, token, err := s.app.LogIn(req.Email, req.Password)
	if err != nil {
		s.audit(r, "server.login", "fail", "reason", err.Error())
		writeAppError(w, err)
		return
	}
	s.audit(r, "server.login", "success", "account_id", account.ID)
	s.setSessionCookie(w, token)
	writeJSON(w, http.StatusOK, authResponse{Token: token, Account: account})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, account domain.Account) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, account)
}
