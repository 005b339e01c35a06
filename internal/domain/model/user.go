package model

import "time"

type Role string

const (
	RoleUser   Role = "USER"
	RoleVendor Role = "VENDOR"
	RoleAdmin  Role = "ADMIN"
)

type User struct {
	ID           string     `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string     `gorm:"uniqueIndex;not null" json:"email"`
	Name         string     `gorm:"type:varchar(255)" json:"name"`
	PasswordHash string     `gorm:"column:password_hash;not null" json:"-"`
	Role         Role       `gorm:"type:varchar(20);not null;default:'USER'" json:"role"`
	TokenVersion int        `gorm:"not null;default:0" json:"token_version"`
	IsActive     bool       `gorm:"not null;default:true" json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
