package models

import "time"

// ActivityLogEntry is an append-only record of a tracked session action.
// Entries are never mutated or deleted.
type ActivityLogEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"index;size:64;not null" json:"session_id"`
	Session   *Session  `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	UserID    uint      `gorm:"index" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Type      string    `gorm:"size:100;not null" json:"type"`
	Step      *int      `json:"step,omitempty"`
	Metadata  string    `gorm:"type:text" json:"metadata,omitempty"` // JSON
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (ActivityLogEntry) TableName() string { return "activity_log" }
