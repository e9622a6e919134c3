package app

import (
	"context"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"hireflow/internal/util"
	"hireflow/pkg/domain"
	"hireflow/pkg/queue"
)

const uploadSlotTTL = time.Hour

// RequestUploadSlot presigns an upload location for a resume file.
// The object key embeds a fresh uuid and timestamp so concurrent
// uploads never collide.
func (a *App) RequestUploadSlot(ctx context.Context, filename, contentType string) (domain.UploadSlot, error) {
	if a.objects == nil {
		return domain.UploadSlot{}, fmt.Errorf("object storage not configured")
	}
	key := fmt.Sprintf("resumes/%s-%d.%s", uuid.NewString(), time.Now().Unix(), fileExtension(filename, contentType))
	uploadURL, err := a.objects.PresignPut(ctx, key, uploadSlotTTL)
	if err != nil {
		return domain.UploadSlot{}, fmt.Errorf("presign upload: %w", err)
	}
	return domain.UploadSlot{
		Key:       key,
		UploadURL: uploadURL,
		PublicURL: a.objects.PublicURL(key),
		ExpiresAt: time.Now().UTC().Add(uploadSlotTTL),
	}, nil
}

// fileExtension derives the object key suffix from the original
// filename, then the MIME type, then falls back to "bin".
func fileExtension(filename, contentType string) string {
	if ext := strings.TrimPrefix(path.Ext(filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return strings.TrimPrefix(exts[0], ".")
	}
	return "bin"
}

// SubmitApplication records a candidate submission against an active
// form. Only the form's own field rules are enforced; a submission
// without a candidate email is accepted and surfaces later when a
// notification is requested. Duplicate submissions from the same
// candidate are allowed; screening happens downstream.
func (a *App) SubmitApplication(formID string, responses map[string]string, resumeURL string) (domain.Application, error) {
	form, ok, err := a.store.GetForm(formID)
	if err != nil {
		return domain.Application{}, fmt.Errorf("lookup form: %w", err)
	}
	if !ok {
		return domain.Application{}, ErrNotFound
	}
	if !form.Active {
		return domain.Application{}, ErrFormInactive
	}
	if strings.TrimSpace(resumeURL) == "" {
		return domain.Application{}, fmt.Errorf("%w: resume is required", ErrValidation)
	}
	if responses == nil {
		responses = map[string]string{}
	}
	if err := validateResponses(form, responses); err != nil {
		return domain.Application{}, err
	}
	now := time.Now().UTC()
	application := domain.Application{
		ID:        util.NewID(),
		FormID:    form.ID,
		Responses: responses,
		ResumeURL: resumeURL,
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveApplication(application); err != nil {
		return domain.Application{}, fmt.Errorf("save application: %w", err)
	}
	return application, nil
}

func validateResponses(form domain.Form, responses map[string]string) error {
	for _, f := range form.Fields {
		value := strings.TrimSpace(responses[f.ID])
		if value == "" {
			if f.Required {
				return fmt.Errorf("%w: %q is required", ErrValidation, f.Label)
			}
			continue
		}
		if f.Type == domain.FieldSelect && !containsOption(f.Options, value) {
			return fmt.Errorf("%w: %q is not an option for %q", ErrValidation, value, f.Label)
		}
	}
	return nil
}

func containsOption(options []string, value string) bool {
	for _, o := range options {
		if o == value {
			return true
		}
	}
	return false
}

// GetApplication returns an application to the owner of its form.
func (a *App) GetApplication(ownerID, applicationID string) (domain.Application, error) {
	application, _, err := a.getOwnedApplication(ownerID, applicationID)
	return application, err
}

// ListApplications returns applications for one form, or for every form
// the account owns when formID is empty.
func (a *App) ListApplications(ownerID, formID string) ([]domain.Application, error) {
	if formID == "" {
		apps, err := a.store.ListApplicationsByOwner(ownerID)
		if err != nil {
			return nil, fmt.Errorf("list applications: %w", err)
		}
		return apps, nil
	}
	if _, err := a.getOwnedForm(ownerID, formID); err != nil {
		return nil, err
	}
	apps, err := a.store.ListApplicationsByForm(formID)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return apps, nil
}

// SetApplicationStatus moves an application to any lifecycle status.
// Transitions are unrestricted so reviewers can undo mistakes. No email
// is sent here; notification is an explicit separate step.
func (a *App) SetApplicationStatus(ownerID, applicationID string, status domain.ApplicationStatus) (domain.Application, error) {
	if !domain.ValidStatus(status) {
		return domain.Application{}, ErrInvalidStatus
	}
	application, _, err := a.getOwnedApplication(ownerID, applicationID)
	if err != nil {
		return domain.Application{}, err
	}
	if err := a.store.SetApplicationStatus(applicationID, status); err != nil {
		return domain.Application{}, fmt.Errorf("set status: %w", err)
	}
	application.Status = status
	application.UpdatedAt = time.Now().UTC()
	return application, nil
}

// ScoreApplication extracts the resume text and scores it against the
// form's job description. Extraction failures fail the request; the
// matcher itself never fails, so any model-side problem persists the
// zero-score sentinel and the reviewer still sees an outcome.
func (a *App) ScoreApplication(ctx context.Context, ownerID, applicationID string) (domain.Application, error) {
	application, form, err := a.getOwnedApplication(ownerID, applicationID)
	if err != nil {
		return domain.Application{}, err
	}
	if a.extractor == nil {
		return domain.Application{}, fmt.Errorf("%w: resume extraction not configured", ErrUpstream)
	}
	resumeText, err := a.extractor.ExtractText(ctx, application.ResumeURL)
	if err != nil {
		a.logger.Warn("resume extraction failed", "application", application.ID, "error", err)
		return domain.Application{}, fmt.Errorf("%w: extract resume text: %v", ErrUpstream, err)
	}

	result := a.matcher.MatchResume(ctx, resumeText, form.JobDescription)
	if err := a.store.SetApplicationMatch(applicationID, result); err != nil {
		return domain.Application{}, fmt.Errorf("save match result: %w", err)
	}

	score := result.Score
	application.MatchScore = &score
	application.Strengths = result.Strengths
	application.Weaknesses = result.Weaknesses
	application.MatchReasoning = result.Reasoning
	application.UpdatedAt = time.Now().UTC()
	return application, nil
}

// NotifyCandidate queues a status email for the application's candidate.
func (a *App) NotifyCandidate(ctx context.Context, ownerID, applicationID string) (queue.JobStatus, error) {
	if a.notifier == nil {
		return queue.JobStatus{}, fmt.Errorf("notification queue not configured")
	}
	application, form, err := a.getOwnedApplication(ownerID, applicationID)
	if err != nil {
		return queue.JobStatus{}, err
	}
	email := application.CandidateEmail()
	if email == "" {
		return queue.JobStatus{}, ErrNoCandidateEmail
	}
	job, err := a.notifier.Enqueue(ctx, queue.Notification{
		ApplicationID: application.ID,
		Email:         email,
		CandidateName: application.CandidateName(),
		FormTitle:     form.Title,
		Status:        string(application.Status),
	})
	if err != nil {
		return queue.JobStatus{}, fmt.Errorf("enqueue notification: %w", err)
	}
	return job, nil
}

func (a *App) getOwnedApplication(ownerID, applicationID string) (domain.Application, domain.Form, error) {
	application, ok, err := a.store.GetApplication(applicationID)
	if err != nil {
		return domain.Application{}, domain.Form{}, fmt.Errorf("lookup application: %w", err)
	}
	if !ok {
		return domain.Application{}, domain.Form{}, ErrNotFound
	}
	form, ok, err := a.store.GetForm(application.FormID)
	if err != nil {
		return domain.Application{}, domain.Form{}, fmt.Errorf("lookup form: %w", err)
	}
	if !ok {
		return domain.Application{}, domain.Form{}, ErrNotFound
	}
	if form.OwnerID != ownerID {
		return domain.Application{}, domain.Form{}, ErrForbidden
	}
	return application, form, nil
}
