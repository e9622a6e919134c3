package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"hireflow/pkg/domain"
)

const migrateLockID int64 = 48215521

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory
// lock so concurrent replicas do not race the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&AccountModel{}, &FormModel{}, &ApplicationModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveAccount registers or updates an account.
func (s *GormStore) SaveAccount(a domain.Account) error {
	model := accountToModel(a)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "password_hash", "role", "company", "updated_at"}),
	}).Create(&model).Error
}

// HasAccountEmail checks if email exists.
func (s *GormStore) HasAccountEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&AccountModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetAccountByEmail looks up an account by email.
func (s *GormStore) GetAccountByEmail(email string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// GetAccountByID returns an account by ID.
func (s *GormStore) GetAccountByID(id string) (domain.Account, bool, error) {
	var model AccountModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Account{}, false, nil
		}
		return domain.Account{}, false, err
	}
	return accountFromModel(model), true, nil
}

// SaveForm stores or updates a form.
func (s *GormStore) SaveForm(f domain.Form) error {
	model, err := formToModel(f)
	if err != nil {
		return err
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "job_description", "fields", "active", "updated_at"}),
	}).Create(&model).Error
}

// GetForm retrieves a form.
func (s *GormStore) GetForm(id string) (domain.Form, bool, error) {
	var model FormModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Form{}, false, nil
		}
		return domain.Form{}, false, err
	}
	form, err := formFromModel(model)
	if err != nil {
		return domain.Form{}, false, err
	}
	return form, true, nil
}

// ListFormsByOwner returns an owner's forms ordered by created_at.
func (s *GormStore) ListFormsByOwner(ownerID string) ([]domain.Form, error) {
	return s.listForms("owner_id = ?", ownerID)
}

// ListActiveForms returns forms currently accepting applications.
func (s *GormStore) ListActiveForms() ([]domain.Form, error) {
	return s.listForms("active = ?", true)
}

func (s *GormStore) listForms(cond string, args ...any) ([]domain.Form, error) {
	var models []FormModel
	if err := s.db.Order("created_at ASC").Where(cond, args...).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Form, 0, len(models))
	for _, m := range models {
		form, err := formFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, form)
	}
	return res, nil
}

// SetFormActive flips the active flag.
func (s *GormStore) SetFormActive(id string, active bool) error {
	return s.db.Model(&FormModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"active":     active,
			"updated_at": time.Now().UTC(),
		}).Error
}

// SetFormJobDescription replaces the job description text.
func (s *GormStore) SetFormJobDescription(id, jobDescription string) error {
	return s.db.Model(&FormModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"job_description": jobDescription,
			"updated_at":      time.Now().UTC(),
		}).Error
}

// SaveApplication stores a submission. Responses are written once at
// creation and never updated through this path.
func (s *GormStore) SaveApplication(app domain.Application) error {
	model, err := applicationToModel(app)
	if err != nil {
		return err
	}
	return s.db.Create(&model).Error
}

// GetApplication retrieves an application.
func (s *GormStore) GetApplication(id string) (domain.Application, bool, error) {
	var model ApplicationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Application{}, false, nil
		}
		return domain.Application{}, false, err
	}
	app, err := applicationFromModel(model)
	if err != nil {
		return domain.Application{}, false, err
	}
	return app, true, nil
}

// ListApplicationsByForm returns submissions against one form.
func (s *GormStore) ListApplicationsByForm(formID string) ([]domain.Application, error) {
	return s.listApplications(s.db.Where("form_id = ?", formID))
}

// ListApplicationsByOwner returns submissions across all of an owner's forms.
func (s *GormStore) ListApplicationsByOwner(ownerID string) ([]domain.Application, error) {
	sub := s.db.Model(&FormModel{}).Select("id").Where("owner_id = ?", ownerID)
	return s.listApplications(s.db.Where("form_id IN (?)", sub))
}

func (s *GormStore) listApplications(tx *gorm.DB) ([]domain.Application, error) {
	var models []ApplicationModel
	if err := tx.Order("created_at DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Application, 0, len(models))
	for _, m := range models {
		app, err := applicationFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, app)
	}
	return res, nil
}

// SetApplicationStatus performs an unconditional status update
// (last write wins; no revision check).
func (s *GormStore) SetApplicationStatus(id string, status domain.ApplicationStatus) error {
	return s.db.Model(&ApplicationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// SetApplicationMatch persists the match outcome onto the application.
func (s *GormStore) SetApplicationMatch(id string, result domain.MatchResult) error {
	strengths, _ := json.Marshal(result.Strengths)
	weaknesses, _ := json.Marshal(result.Weaknesses)
	return s.db.Model(&ApplicationModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"match_score":     result.Score,
			"strengths":       datatypes.JSON(strengths),
			"weaknesses":      datatypes.JSON(weaknesses),
			"match_reasoning": result.Reasoning,
			"updated_at":      time.Now().UTC(),
		}).Error
}

func accountToModel(a domain.Account) AccountModel {
	return AccountModel{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Role:         string(a.Role),
		Company:      a.Company,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func accountFromModel(m AccountModel) domain.Account {
	role := domain.AccountRole(m.Role)
	if role == "" {
		role = domain.RoleOwner
	}
	return domain.Account{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         role,
		Company:      m.Company,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func formToModel(f domain.Form) (FormModel, error) {
	fields, err := json.Marshal(f.Fields)
	if err != nil {
		return FormModel{}, fmt.Errorf("encode fields: %w", err)
	}
	return FormModel{
		ID:             f.ID,
		OwnerID:        f.OwnerID,
		Title:          f.Title,
		JobDescription: f.JobDescription,
		Fields:         fields,
		Active:         f.Active,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}, nil
}

func formFromModel(m FormModel) (domain.Form, error) {
	var fields []domain.FieldDefinition
	if len(m.Fields) > 0 {
		if err := json.Unmarshal(m.Fields, &fields); err != nil {
			return domain.Form{}, fmt.Errorf("decode fields: %w", err)
		}
	}
	return domain.Form{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Title:          m.Title,
		JobDescription: m.JobDescription,
		Fields:         fields,
		Active:         m.Active,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}

func applicationToModel(app domain.Application) (ApplicationModel, error) {
	responses, err := json.Marshal(app.Responses)
	if err != nil {
		return ApplicationModel{}, fmt.Errorf("encode responses: %w", err)
	}
	strengths, _ := json.Marshal(app.Strengths)
	weaknesses, _ := json.Marshal(app.Weaknesses)
	return ApplicationModel{
		ID:             app.ID,
		FormID:         app.FormID,
		Responses:      responses,
		ResumeURL:      app.ResumeURL,
		Status:         string(app.Status),
		MatchScore:     app.MatchScore,
		Strengths:      strengths,
		Weaknesses:     weaknesses,
		MatchReasoning: app.MatchReasoning,
		CreatedAt:      app.CreatedAt,
		UpdatedAt:      app.UpdatedAt,
	}, nil
}

func applicationFromModel(m ApplicationModel) (domain.Application, error) {
	var responses map[string]string
	if len(m.Responses) > 0 {
		if err := json.Unmarshal(m.Responses, &responses); err != nil {
			return domain.Application{}, fmt.Errorf("decode responses: %w", err)
		}
	}
	var strengths, weaknesses []string
	if len(m.Strengths) > 0 {
		_ = json.Unmarshal(m.Strengths, &strengths)
	}
	if len(m.Weaknesses) > 0 {
		_ = json.Unmarshal(m.Weaknesses, &weaknesses)
	}
	return domain.Application{
		ID:             m.ID,
		FormID:         m.FormID,
		Responses:      responses,
		ResumeURL:      m.ResumeURL,
		Status:         domain.ApplicationStatus(m.Status),
		MatchScore:     m.MatchScore,
		Strengths:      strengths,
		Weaknesses:     weaknesses,
		MatchReasoning: m.MatchReasoning,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}, nil
}
