package store

import "hireflow/pkg/domain"

// Store abstracts persistence for accounts, forms, and applications.
type Store interface {
	SaveAccount(a domain.Account) error
	HasAccountEmail(email string) (bool, error)
	GetAccountByEmail(email string) (domain.Account, bool, error)
	GetAccountByID(id string) (domain.Account, bool, error)

	SaveForm(f domain.Form) error
	GetForm(id string) (domain.Form, bool, error)
	ListFormsByOwner(ownerID string) ([]domain.Form, error)
	ListActiveForms() ([]domain.Form, error)
	SetFormActive(id string, active bool) error
	SetFormJobDescription(id, jobDescription string) error

	SaveApplication(app domain.Application) error
	GetApplication(id string) (domain.Application, bool, error)
	ListApplicationsByForm(formID string) ([]domain.Application, error)
	ListApplicationsByOwner(ownerID string) ([]domain.Application, error)
	SetApplicationStatus(id string, status domain.ApplicationStatus) error
	SetApplicationMatch(id string, result domain.MatchResult) error
}
