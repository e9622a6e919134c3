package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"hireflow/internal/app"
	"hireflow/internal/ratelimit"
	"hireflow/internal/util"
	"hireflow/pkg/auth"
	"hireflow/pkg/domain"
)

// SessionCookie is the name of the employer session cookie.
const SessionCookie = "hireflow_session"

var validate = validator.New()

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                      *app.App
	RedisAddr                string
	RedisPassword            string
	SignupRateLimitPerMinute int
	LoginRateLimitPerMinute  int
	AIRateLimitPerMinute     int
	UploadRateLimitPerMinute int
	IntakeRateLimitPerMinute int
	SecureCookies            bool
	TrustedProxies           []string
	AllowedOrigins           []string
}

// Server exposes HTTP endpoints for the backend.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	secureCookies  bool
	trustedProxies *util.TrustedProxies
	allowedOrigins []string
	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
	aiLimiter      *ratelimit.FixedWindowLimiter
	uploadLimiter  *ratelimit.FixedWindowLimiter
	intakeLimiter  *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("app required")
	}
	signupLimit := cfg.SignupRateLimitPerMinute
	if signupLimit <= 0 {
		signupLimit = 5
	}
	loginLimit := cfg.LoginRateLimitPerMinute
	if loginLimit <= 0 {
		loginLimit = 10
	}
	aiLimit := cfg.AIRateLimitPerMinute
	if aiLimit <= 0 {
		aiLimit = 10
	}
	uploadLimit := cfg.UploadRateLimitPerMinute
	if uploadLimit <= 0 {
		uploadLimit = 20
	}
	intakeLimit := cfg.IntakeRateLimitPerMinute
	if intakeLimit <= 0 {
		intakeLimit = 20
	}
	rateWindow := time.Minute
	newLimiter := func(name string, limit int) (*ratelimit.FixedWindowLimiter, error) {
		prefix := "hireflow:ratelimit:" + name
		limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, rateWindow)
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	signupLimiter, err := newLimiter("signup", signupLimit)
	if err != nil {
		return nil, err
	}
	loginLimiter, err := newLimiter("login", loginLimit)
	if err != nil {
		return nil, err
	}
	aiLimiter, err := newLimiter("ai", aiLimit)
	if err != nil {
		return nil, err
	}
	uploadLimiter, err := newLimiter("upload", uploadLimit)
	if err != nil {
		return nil, err
	}
	intakeLimiter, err := newLimiter("intake", intakeLimit)
	if err != nil {
		return nil, err
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		secureCookies:  cfg.SecureCookies,
		trustedProxies: trusted,
		allowedOrigins: cfg.AllowedOrigins,
		signupLimiter:  signupLimiter,
		loginLimiter:   loginLimiter,
		aiLimiter:      aiLimiter,
		uploadLimiter:  uploadLimiter,
		intakeLimiter:  intakeLimiter,
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.allowedOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.handleSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/users/me", s.authenticated(s.handleMe))

	// forms
	s.mux.Handle("/api/forms", s.authenticated(s.handleForms))
	s.mux.HandleFunc("/api/forms/active", s.handleActiveForms)
	s.mux.HandleFunc("/api/forms/", s.handleFormByID)

	// applications
	s.mux.HandleFunc("/api/applications", s.handleApplications)
	s.mux.HandleFunc("/api/applications/", s.handleApplicationByID)

	// uploads & ai
	s.mux.HandleFunc("/api/uploads/url", s.handleUploadURL)
	s.mux.Handle("/api/ai/generate-fields", s.authenticated(s.handleGenerateFields))
	s.mux.Handle("/api/ai/generate-job-description", s.authenticated(s.handleGenerateJobDescription))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.Account)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := s.authorize(r)
		if !ok {
			s.audit(r, "server.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, account)
	})
}

func (s *Server) authorize(r *http.Request) (domain.Account, bool) {
	token, ok := sessionToken(r)
	if !ok {
		s.audit(r, "server.session.verify", "fail", "reason", "missing_token")
		return domain.Account{}, false
	}
	account, err := s.app.Authenticate(token)
	if err != nil {
		s.audit(r, "server.session.verify", "fail", "reason", "invalid_session")
		return domain.Account{}, false
	}
	return account, true
}

// sessionToken reads the session from the cookie, falling back to a
// bearer header for API clients.
func sessionToken(r *http.Request) (string, bool) {
	if c, err := r.Cookie(SessionCookie); err == nil && strings.TrimSpace(c.Value) != "" {
		return c.Value, true
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.app.SessionTTL() / time.Second),
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeAppError maps application sentinels to HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrValidation),
		errors.Is(err, app.ErrInvalidStatus),
		errors.Is(err, app.ErrNoCandidateEmail),
		errors.Is(err, app.ErrEmailAndPasswordRequired):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidSession):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, app.ErrEmailAlreadyExists), errors.Is(err, app.ErrFormInactive):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrUpstream):
		slog.Warn("upstream failure", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		slog.Error("internal error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", s.clientIP(r),
	}
	logAttrs = append(logAttrs, attrs...)
	if outcome == "success" {
		slog.Info("security_event", logAttrs...)
		return
	}
	slog.Warn("security_event", logAttrs...)
}

func (s *Server) clientIP(r *http.Request) string {
	return util.ClientIP(r, s.trustedProxies)
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	key := r.URL.Path + "|" + s.clientIP(r)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// decodeAndValidate decodes a JSON body into dst and runs struct
// validation. The body is capped at 1 MiB.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		switch f.Tag() {
		case "required":
			return fmt.Sprintf("%s is required", jsonFieldName(f))
		case "email":
			return fmt.Sprintf("%s must be a valid email address", jsonFieldName(f))
		case "min":
			return fmt.Sprintf("%s is too short", jsonFieldName(f))
		case "max":
			return fmt.Sprintf("%s is too long", jsonFieldName(f))
		}
		return fmt.Sprintf("%s is invalid", jsonFieldName(f))
	}
	return "invalid request"
}

func jsonFieldName(f validator.FieldError) string {
	name := f.Field()
	if name == "" {
		return "request"
	}
	return strings.ToLower(name[:1]) + name[1:]
}
