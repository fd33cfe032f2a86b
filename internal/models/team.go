package models

import (
	"time"

	"gorm.io/gorm"
)

// Team is an organizational unit owning zero or more sessions.
type Team struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Name      string         `gorm:"size:200;not null" json:"name"`
	Slug      string         `gorm:"uniqueIndex;size:200;not null" json:"slug"`
	CreatedBy uint           `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Team) TableName() string { return "teams" }
