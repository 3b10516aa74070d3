package model

import (
	"time"

	"github.com/google/uuid"
)

// Owner is the tenant account. Every product and sale belongs to one.
type Owner struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Owner) TableName() string { return "owners" }
