package app

import "errors"

var (
	// ErrInvalidCredentials is returned when the supplied credentials do not match.
	// This message is intended to be shown to end users and should not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect email address or password")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("email already exists")

	// ErrNotFound covers any entity lookup miss. Handlers map it to 404.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when an authenticated account targets a
	// form or application it does not own.
	ErrForbidden = errors.New("forbidden")

	ErrFormInactive     = errors.New("form is not accepting applications")
	ErrInvalidStatus    = errors.New("invalid application status")
	ErrNoCandidateEmail = errors.New("application has no candidate email")

	// ErrValidation wraps user-facing input problems; the wrapped
	// message names the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrUpstream wraps failures from storage, extraction, or model
	// collaborators that fail the request. Handlers map it to 502.
	ErrUpstream = errors.New("upstream failure")
)
