package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hireflow/internal/util"
	"hireflow/pkg/ai"
	"hireflow/pkg/auth"
	"hireflow/pkg/domain"
	"hireflow/pkg/extract"
	"hireflow/pkg/queue"
	"hireflow/pkg/storage"
	"hireflow/pkg/store"
)

// NotifyEnqueuer pushes candidate notifications onto the delivery queue.
type NotifyEnqueuer interface {
	Enqueue(ctx context.Context, n queue.Notification) (queue.JobStatus, error)
}

// Config holds runtime configuration for the core application.
type Config struct {
	DatabaseURL string
	SessionTTL  time.Duration

	SessionSecret string

	Store     store.Store
	Objects   storage.ObjectStore
	Extractor extract.Extractor
	Notifier  NotifyEnqueuer
	Generator ai.TextGenerator

	Logger *slog.Logger
}

// App is the core application service wiring storage, AI, and the
// notification queue together.
type App struct {
	store     store.Store
	signer    *auth.SessionSigner
	objects   storage.ObjectStore
	extractor extract.Extractor
	notifier  NotifyEnqueuer
	suggester *ai.FieldSuggester
	matcher   *ai.Matcher
	jobDesc   *ai.JobDescWriter
	logger    *slog.Logger
}

// New constructs the application. cfg.Store overrides DatabaseURL when
// set, which tests use to run against the in-memory store.
func New(cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	dataStore := cfg.Store
	if dataStore == nil {
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("database URL required")
		}
		var err error
		dataStore, err = store.NewGormStore(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("init postgres store: %w", err)
		}
	}

	signer, err := auth.NewSessionSigner(cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		return nil, fmt.Errorf("init session signer: %w", err)
	}

	if cfg.Generator == nil {
		logger.Warn("no AI provider configured, field suggestion and resume scoring run degraded")
	}

	return &App{
		store:     dataStore,
		signer:    signer,
		objects:   cfg.Objects,
		extractor: cfg.Extractor,
		notifier:  cfg.Notifier,
		suggester: ai.NewFieldSuggester(cfg.Generator, logger),
		matcher:   ai.NewMatcher(cfg.Generator, logger),
		jobDesc:   ai.NewJobDescWriter(cfg.Generator),
		logger:    logger,
	}, nil
}

// SessionTTL exposes the configured session lifetime for cookie expiry.
func (a *App) SessionTTL() time.Duration {
	return a.signer.TTL()
}

// SignUp registers a new employer account and returns a session token.
func (a *App) SignUp(email, password, company string) (domain.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.Account{}, "", ErrEmailAndPasswordRequired
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.Account{}, "", fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	exists, err := a.store.HasAccountEmail(email)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Account{}, "", ErrEmailAlreadyExists
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	account := domain.Account{
		ID:           util.NewID(),
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleOwner,
		Company:      strings.TrimSpace(company),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveAccount(account); err != nil {
		return domain.Account{}, "", fmt.Errorf("save account: %w", err)
	}
	token, err := a.signer.NewSession(account.ID)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("issue session: %w", err)
	}
	return account, token, nil
}

// LogIn verifies credentials and returns a fresh session token.
func (a *App) LogIn(email, password string) (domain.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return domain.Account{}, "", ErrEmailAndPasswordRequired
	}
	account, ok, err := a.store.GetAccountByEmail(email)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("lookup account: %w", err)
	}
	if !ok || !auth.CheckPassword(password, account.PasswordHash) {
		return domain.Account{}, "", ErrInvalidCredentials
	}
	token, err := a.signer.NewSession(account.ID)
	if err != nil {
		return domain.Account{}, "", fmt.Errorf("issue session: %w", err)
	}
	return account, token, nil
}

// Authenticate resolves a session token to its account.
func (a *App) Authenticate(token string) (domain.Account, error) {
	accountID, err := a.signer.AccountIDFromToken(token)
	if err != nil {
		return domain.Account{}, err
	}
	account, ok, err := a.store.GetAccountByID(accountID)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if !ok {
		return domain.Account{}, auth.ErrInvalidSession
	}
	return account, nil
}

// GetAccount returns the account by id.
func (a *App) GetAccount(id string) (domain.Account, error) {
	account, ok, err := a.store.GetAccountByID(id)
	if err != nil {
		return domain.Account{}, fmt.Errorf("lookup account: %w", err)
	}
	if !ok {
		return domain.Account{}, ErrNotFound
	}
	return account, nil
}

// SuggestFields proposes custom form fields for a job description.
// It never fails; without an AI provider it returns the static set for
// the domain hint.
func (a *App) SuggestFields(ctx context.Context, jobDescription, domainHint string) []domain.FieldDefinition {
	return a.suggester.SuggestFields(ctx, jobDescription, domainHint)
}

// GenerateJobDescription drafts a job description for a role title.
func (a *App) GenerateJobDescription(ctx context.Context, title, hints string) (string, error) {
	return a.jobDesc.Write(ctx, title, hints)
}
