package domain

import "time"

type AccountRole string

const (
	RoleOwner AccountRole = "owner"
	RoleAdmin AccountRole = "admin"
)

type ApplicationStatus string

const (
	StatusPending     ApplicationStatus = "pending"
	StatusReviewed    ApplicationStatus = "reviewed"
	StatusShortlisted ApplicationStatus = "shortlisted"
	StatusRejected    ApplicationStatus = "rejected"
)

// ValidStatus reports whether s is one of the four lifecycle values.
func ValidStatus(s ApplicationStatus) bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusRejected:
		return true
	}
	return false
}

type FieldType string

const (
	FieldShortText FieldType = "short_text"
	FieldLongText  FieldType = "long_text"
	FieldSelect    FieldType = "select"
	FieldFile      FieldType = "file"
	FieldEmail     FieldType = "email"
	FieldPhone     FieldType = "phone"
)

// ValidFieldType reports whether t is in the fixed field type enumeration.
func ValidFieldType(t FieldType) bool {
	switch t {
	case FieldShortText, FieldLongText, FieldSelect, FieldFile, FieldEmail, FieldPhone:
		return true
	}
	return false
}

type Account struct {
	ID           string      `json:"id"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Role         AccountRole `json:"role"`
	Company      string      `json:"company,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// FieldDefinition describes one input a candidate fills in.
// Options is present only for select fields.
type FieldDefinition struct {
	ID          string    `json:"id"`
	Type        FieldType `json:"type"`
	Label       string    `json:"label"`
	Required    bool      `json:"required"`
	Options     []string  `json:"options,omitempty"`
	AIGenerated bool      `json:"aiGenerated"`
}

type Form struct {
	ID             string            `json:"id"`
	OwnerID        string            `json:"ownerId"`
	Title          string            `json:"title"`
	JobDescription string            `json:"jobDescription"`
	Fields         []FieldDefinition `json:"fields"`
	Active         bool              `json:"active"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// Application is one candidate submission against a form.
// Responses are immutable after creation; only Status and the match
// fields change afterwards.
type Application struct {
	ID             string            `json:"id"`
	FormID         string            `json:"formId"`
	Responses      map[string]string `json:"responses"`
	ResumeURL      string            `json:"resumeUrl"`
	Status         ApplicationStatus `json:"status"`
	MatchScore     *int              `json:"matchScore,omitempty"`
	Strengths      []string          `json:"strengths,omitempty"`
	Weaknesses     []string          `json:"weaknesses,omitempty"`
	MatchReasoning string            `json:"matchReasoning,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// CandidateName pulls the candidate's name out of the fixed response
// fields, falling back to their email address.
func (a Application) CandidateName() string {
	if v := a.Responses["Full Name"]; v != "" {
		return v
	}
	if v := a.Responses["name"]; v != "" {
		return v
	}
	return a.CandidateEmail()
}

// CandidateEmail returns the submitted email response, if any.
func (a Application) CandidateEmail() string {
	if v := a.Responses["Email"]; v != "" {
		return v
	}
	return a.Responses["email"]
}

// MatchResult is the structured outcome of resume-to-job evaluation.
type MatchResult struct {
	Score      int      `json:"matchScore"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Reasoning  string   `json:"reasoning"`
}

// UploadSlot is a short-lived signed upload location plus the permanent
// read location of the eventual object.
type UploadSlot struct {
	Key       string    `json:"key"`
	UploadURL string    `json:"uploadUrl"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}
