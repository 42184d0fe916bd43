package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/souqly/souqly-backend/pkg/enums"
)

// User is an authenticated account in any of the platform roles.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Email        string         `gorm:"column:email;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FullName     string         `gorm:"column:full_name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'client'"`
	Region       *string        `gorm:"column:region"`
	Phone        *string        `gorm:"column:phone"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
