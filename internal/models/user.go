package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// User represents an identity record keyed by email. Users are upserted on
// first sign-in; emails are stored lower-cased and matched case-insensitively.
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Name      string         `gorm:"size:200" json:"name"`
	Image     string         `gorm:"size:500" json:"image"`
	Password  string         `gorm:"size:255" json:"-"` // Hashed password, empty for LDAP or invite-provisioned users
	Role      string         `gorm:"size:50;default:user" json:"role"`       // admin, user (operational role, distinct from team roles)
	AuthType  string         `gorm:"size:20;default:local" json:"auth_type"` // local, ldap
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

// NormalizeEmail lower-cases and trims an email for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
