package store

import (
	"sync"
	"time"

	"hireflow/pkg/domain"
)

// MemoryStore keeps all records in-process. Used in tests and local
// development without Postgres.
type MemoryStore struct {
	mu        sync.RWMutex
	accounts  map[string]domain.Account
	email     map[string]string // email -> account ID
	forms     map[string]domain.Form
	apps      map[string]domain.Application
	formOrder []string
	appOrder  []string
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		accounts: make(map[string]domain.Account),
		email:    make(map[string]string),
		forms:    make(map[string]domain.Form),
		apps:     make(map[string]domain.Application),
	}
}

func (m *MemoryStore) SaveAccount(a domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.accounts[a.ID]; ok && old.Email != a.Email {
		delete(m.email, old.Email)
	}
	m.accounts[a.ID] = a
	m.email[a.Email] = a.ID
	return nil
}

func (m *MemoryStore) HasAccountEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

func (m *MemoryStore) GetAccountByEmail(email string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.Account{}, false, nil
	}
	a, ok := m.accounts[id]
	return a, ok, nil
}

func (m *MemoryStore) GetAccountByID(id string) (domain.Account, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.accounts[id]
	return a, ok, nil
}

func (m *MemoryStore) SaveForm(f domain.Form) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.forms[f.ID]; !exists {
		m.formOrder = append(m.formOrder, f.ID)
	}
	m.forms[f.ID] = f
	return nil
}

func (m *MemoryStore) GetForm(id string) (domain.Form, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.forms[id]
	return f, ok, nil
}

func (m *MemoryStore) ListFormsByOwner(ownerID string) ([]domain.Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Form, 0, len(m.formOrder))
	for _, id := range m.formOrder {
		if f, ok := m.forms[id]; ok && f.OwnerID == ownerID {
			res = append(res, f)
		}
	}
	return res, nil
}

func (m *MemoryStore) ListActiveForms() ([]domain.Form, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Form, 0, len(m.formOrder))
	for _, id := range m.formOrder {
		if f, ok := m.forms[id]; ok && f.Active {
			res = append(res, f)
		}
	}
	return res, nil
}

func (m *MemoryStore) SetFormActive(id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok {
		return nil
	}
	f.Active = active
	f.UpdatedAt = time.Now().UTC()
	m.forms[id] = f
	return nil
}

func (m *MemoryStore) SetFormJobDescription(id, jobDescription string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.forms[id]
	if !ok {
		return nil
	}
	f.JobDescription = jobDescription
	f.UpdatedAt = time.Now().UTC()
	m.forms[id] = f
	return nil
}

func (m *MemoryStore) SaveApplication(app domain.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.apps[app.ID]; !exists {
		m.appOrder = append(m.appOrder, app.ID)
	}
	m.apps[app.ID] = app
	return nil
}

func (m *MemoryStore) GetApplication(id string) (domain.Application, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	app, ok := m.apps[id]
	return app, ok, nil
}

func (m *MemoryStore) ListApplicationsByForm(formID string) ([]domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Application, 0, len(m.appOrder))
	for _, id := range m.appOrder {
		if app, ok := m.apps[id]; ok && app.FormID == formID {
			res = append(res, app)
		}
	}
	return res, nil
}

func (m *MemoryStore) ListApplicationsByOwner(ownerID string) ([]domain.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	owned := make(map[string]struct{})
	for id, f := range m.forms {
		if f.OwnerID == ownerID {
			owned[id] = struct{}{}
		}
	}
	res := make([]domain.Application, 0, len(m.appOrder))
	for _, id := range m.appOrder {
		if app, ok := m.apps[id]; ok {
			if _, mine := owned[app.FormID]; mine {
				res = append(res, app)
			}
		}
	}
	return res, nil
}

func (m *MemoryStore) SetApplicationStatus(id string, status domain.ApplicationStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil
	}
	app.Status = status
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = app
	return nil
}

func (m *MemoryStore) SetApplicationMatch(id string, result domain.MatchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return nil
	}
	score := result.Score
	app.MatchScore = &score
	app.Strengths = result.Strengths
	app.Weaknesses = result.Weaknesses
	app.MatchReasoning = result.Reasoning
	app.UpdatedAt = time.Now().UTC()
	m.apps[id] = app
	return nil
}
