package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type AccountModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Role         string    `gorm:"not null"`
	Company      string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type FormModel struct {
	ID             string         `gorm:"primaryKey"`
	OwnerID        string         `gorm:"not null;index"`
	Title          string         `gorm:"not null"`
	JobDescription string         `gorm:"type:text"`
	Fields         datatypes.JSON `gorm:"type:jsonb"`
	Active         bool           `gorm:"not null;index"`
	CreatedAt      time.Time      `gorm:"not null"`
	UpdatedAt      time.Time      `gorm:"not null"`
}

type ApplicationModel struct {
	ID             string         `gorm:"primaryKey"`
	FormID         string         `gorm:"not null;index"`
	Responses      datatypes.JSON `gorm:"type:jsonb"`
	ResumeURL      string         `gorm:"not null"`
	Status         string         `gorm:"not null;index"`
	MatchScore     *int
	Strengths      datatypes.JSON `gorm:"type:jsonb"`
	Weaknesses     datatypes.JSON `gorm:"type:jsonb"`
	MatchReasoning string         `gorm:"type:text"`
	CreatedAt      time.Time      `gorm:"not null;index"`
	UpdatedAt      time.Time      `gorm:"not null"`
}
