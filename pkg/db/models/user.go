package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents the canonical identity entity.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Email        *string    `gorm:"type:text;uniqueIndex"`
	Phone        *string    `gorm:"column:phone"`
	PasswordHash *string    `gorm:"column:password_hash"`
	GoogleID     *string    `gorm:"column:google_id;uniqueIndex"`
	IsAdmin      bool       `gorm:"column:is_admin;not null;default:false"`
	IsGuest      bool       `gorm:"column:is_guest;not null;default:false"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// UserAddress is a saved delivery address with its map pin.
type UserAddress struct {
	ID                   int64     `gorm:"column:id;primaryKey;autoIncrement"`
	UserID               uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	Title                string    `gorm:"column:title;not null"`
	Address              string    `gorm:"column:address;not null"`
	AdditionalReferences *string   `gorm:"column:additional_references"`
	Latitude             float64   `gorm:"column:latitude;not null"`
	Longitude            float64   `gorm:"column:longitude;not null"`
	CreatedAt            time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (UserAddress) TableName() string { return "user_addresses" }
