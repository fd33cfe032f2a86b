package models

import "time"

// Invite lifecycle states. Transitions out of pending are terminal.
const (
	InviteStatusPending   = "pending"
	InviteStatusAccepted  = "accepted"
	InviteStatusExpired   = "expired"
	InviteStatusCancelled = "cancelled"
)

// TeamInvite is a pending invitation for an email address to join a team.
// At most one pending invite may exist per (team, email); the invite
// service enforces this inside a transaction.
type TeamInvite struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	TeamID    uint      `gorm:"index:idx_invite_team_email;not null" json:"team_id"`
	Team      *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	Email     string    `gorm:"index:idx_invite_team_email;size:255;not null" json:"email"` // stored lower-cased
	Role      string    `gorm:"size:50;default:member" json:"role"`
	InvitedBy uint      `json:"invited_by"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
	Status    string    `gorm:"size:20;default:pending;index" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TeamInvite) TableName() string { return "team_invites" }
