package models

import "time"

// Review request states. Exactly one transition out of pending.
const (
	ReviewStatusPending          = "pending"
	ReviewStatusApproved         = "approved"
	ReviewStatusChangesRequested = "changes_requested"
	ReviewStatusCancelled        = "cancelled"
)

// ReviewRequest asks a specific reviewer to evaluate a session, optionally
// scoped to one pipeline step.
type ReviewRequest struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	SessionID    string     `gorm:"index;size:64;not null" json:"session_id"`
	Session      *Session   `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Step         *int       `json:"step,omitempty"`
	RequesterID  uint       `gorm:"index;not null" json:"requester_id"`
	Requester    *User      `gorm:"foreignKey:RequesterID" json:"requester,omitempty"`
	ReviewerID   uint       `gorm:"index;not null" json:"reviewer_id"`
	Reviewer     *User      `gorm:"foreignKey:ReviewerID" json:"reviewer,omitempty"`
	Note         string     `gorm:"type:text" json:"note,omitempty"`
	Status       string     `gorm:"size:50;default:pending;index" json:"status"`
	ResponseNote string     `gorm:"type:text" json:"response_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RespondedAt  *time.Time `json:"responded_at,omitempty"`
}

func (ReviewRequest) TableName() string { return "review_requests" }
