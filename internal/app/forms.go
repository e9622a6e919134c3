package app

import (
	"fmt"
	"strings"
	"time"

	"hireflow/internal/util"
	"hireflow/pkg/domain"
)

// CreateForm persists a new application form owned by ownerID.
func (a *App) CreateForm(ownerID, title, jobDescription string, fields []domain.FieldDefinition) (domain.Form, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Form{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return domain.Form{}, err
	}
	now := time.Now().UTC()
	form := domain.Form{
		ID:             util.NewID(),
		OwnerID:        ownerID,
		Title:          title,
		JobDescription: jobDescription,
		Fields:         normalized,
		Active:         true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := a.store.SaveForm(form); err != nil {
		return domain.Form{}, fmt.Errorf("save form: %w", err)
	}
	return form, nil
}

// UpdateForm replaces title, job description and fields of an owned form.
func (a *App) UpdateForm(ownerID, formID, title, jobDescription string, fields []domain.FieldDefinition) (domain.Form, error) {
	form, err := a.getOwnedForm(ownerID, formID)
	if err != nil {
		return domain.Form{}, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Form{}, fmt.Errorf("%w: title is required", ErrValidation)
	}
	normalized, err := normalizeFields(fields)
	if err != nil {
		return domain.Form{}, err
	}
	form.Title = title
	form.JobDescription = jobDescription
	form.Fields = normalized
	form.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveForm(form); err != nil {
		return domain.Form{}, fmt.Errorf("save form: %w", err)
	}
	return form, nil
}

// GetForm returns any form by id. Candidates use this to render an
// application page, so no ownership check applies.
func (a *App) GetForm(formID string) (domain.Form, error) {
	form, ok, err := a.store.GetForm(formID)
	if err != nil {
		return domain.Form{}, fmt.Errorf("lookup form: %w", err)
	}
	if !ok {
		return domain.Form{}, ErrNotFound
	}
	return form, nil
}

// GetOwnedForm returns a form only to its owner.
func (a *App) GetOwnedForm(ownerID, formID string) (domain.Form, error) {
	return a.getOwnedForm(ownerID, formID)
}

// ListForms returns the forms owned by ownerID.
func (a *App) ListForms(ownerID string) ([]domain.Form, error) {
	forms, err := a.store.ListFormsByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("list forms: %w", err)
	}
	return forms, nil
}

// ListActiveForms returns every form currently accepting applications.
func (a *App) ListActiveForms() ([]domain.Form, error) {
	forms, err := a.store.ListActiveForms()
	if err != nil {
		return nil, fmt.Errorf("list active forms: %w", err)
	}
	return forms, nil
}

// SetFormActive opens or closes a form for new applications.
func (a *App) SetFormActive(ownerID, formID string, active bool) (domain.Form, error) {
	form, err := a.getOwnedForm(ownerID, formID)
	if err != nil {
		return domain.Form{}, err
	}
	if err := a.store.SetFormActive(formID, active); err != nil {
		return domain.Form{}, fmt.Errorf("set form active: %w", err)
	}
	form.Active = active
	form.UpdatedAt = time.Now().UTC()
	return form, nil
}

// SetFormJobDescription updates only the job description text.
func (a *App) SetFormJobDescription(ownerID, formID, jobDescription string) (domain.Form, error) {
	form, err := a.getOwnedForm(ownerID, formID)
	if err != nil {
		return domain.Form{}, err
	}
	if err := a.store.SetFormJobDescription(formID, jobDescription); err != nil {
		return domain.Form{}, fmt.Errorf("set job description: %w", err)
	}
	form.JobDescription = jobDescription
	form.UpdatedAt = time.Now().UTC()
	return form, nil
}

func (a *App) getOwnedForm(ownerID, formID string) (domain.Form, error) {
	form, ok, err := a.store.GetForm(formID)
	if err != nil {
		return domain.Form{}, fmt.Errorf("lookup form: %w", err)
	}
	if !ok {
		return domain.Form{}, ErrNotFound
	}
	if form.OwnerID != ownerID {
		return domain.Form{}, ErrForbidden
	}
	return form, nil
}

// normalizeFields validates field definitions and assigns ids to new
// fields. Ids must be unique within the form so responses stay keyed
// unambiguously.
func normalizeFields(fields []domain.FieldDefinition) ([]domain.FieldDefinition, error) {
	seen := make(map[string]bool, len(fields))
	out := make([]domain.FieldDefinition, 0, len(fields))
	for i, f := range fields {
		f.Label = strings.TrimSpace(f.Label)
		if f.Label == "" {
			return nil, fmt.Errorf("%w: field %d has no label", ErrValidation, i+1)
		}
		if !domain.ValidFieldType(f.Type) {
			return nil, fmt.Errorf("%w: field %q has unknown type %q", ErrValidation, f.Label, f.Type)
		}
		if f.Type == domain.FieldSelect {
			if len(f.Options) < 2 {
				return nil, fmt.Errorf("%w: select field %q needs at least two options", ErrValidation, f.Label)
			}
		} else if len(f.Options) > 0 {
			return nil, fmt.Errorf("%w: field %q has options but is not a select", ErrValidation, f.Label)
		}
		if f.ID == "" {
			f.ID = util.NewID()
		}
		if seen[f.ID] {
			return nil, fmt.Errorf("%w: duplicate field id %q", ErrValidation, f.ID)
		}
		seen[f.ID] = true
		out = append(out, f)
	}
	return out, nil
}
