package services

import (
	"errors"
	"strings"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

// inviteTTL is how long an invite stays acceptable.
const inviteTTL = 7 * 24 * time.Hour

type InviteService struct {
	db    *gorm.DB
	teams *TeamService
}

func NewInviteService(db *gorm.DB) *InviteService {
	return &InviteService{db: db, teams: NewTeamService(db)}
}

type CreateInviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
}

// Create issues a pending invite. Owners and admins may invite members;
// only owners may grant admin or owner. The duplicate-pending and
// already-a-member checks run inside a transaction with the insert so two
// concurrent creations cannot both pass.
func (s *InviteService) Create(teamID uint, actorEmail string, req *CreateInviteRequest) (*models.TeamInvite, error) {
	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if !models.ValidRole(role) {
		return nil, response.NewBadRequest("invalid role: " + role)
	}

	actorRole, actor, err := s.teams.ResolveRole(teamID, actorEmail)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleOwner && actorRole != models.RoleAdmin {
		return nil, response.NewForbidden("only owners and admins may invite")
	}
	if role != models.RoleMember && actorRole != models.RoleOwner {
		return nil, response.NewForbidden("only owners may invite admins or owners")
	}

	email := models.NormalizeEmail(req.Email)

	invite := models.TeamInvite{
		TeamID:    teamID,
		Email:     email,
		Role:      role,
		InvitedBy: actor.ID,
		ExpiresAt: time.Now().Add(inviteTTL),
		Status:    models.InviteStatusPending,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var pending int64
		if err := tx.Model(&models.TeamInvite{}).
			Where("team_id = ? AND email = ? AND status = ?", teamID, email, models.InviteStatusPending).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return response.NewBadRequest("a pending invite already exists for this email")
		}

		var existing models.User
		if err := tx.Where("email = ?", email).First(&existing).Error; err == nil {
			var member int64
			if err := tx.Model(&models.TeamMember{}).
				Where("team_id = ? AND user_id = ?", teamID, existing.ID).
				Count(&member).Error; err != nil {
				return err
			}
			if member > 0 {
				return response.NewBadRequest("user is already a member of this team")
			}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		return tx.Create(&invite).Error
	})
	if err != nil {
		return nil, err
	}

	return &invite, nil
}

// List returns a team's invites, pending first. Owner/admin only.
func (s *InviteService) List(teamID uint, actorEmail string) ([]models.TeamInvite, error) {
	actorRole, _, err := s.teams.ResolveRole(teamID, actorEmail)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleOwner && actorRole != models.RoleAdmin {
		return nil, response.NewForbidden("only owners and admins may list invites")
	}

	var invites []models.TeamInvite
	if err := s.db.Where("team_id = ?", teamID).
		Order("status = 'pending' DESC, created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

// Cancel transitions a pending invite to cancelled. Owner/admin only.
func (s *InviteService) Cancel(teamID uint, actorEmail string, inviteID uint) error {
	actorRole, _, err := s.teams.ResolveRole(teamID, actorEmail)
	if err != nil {
		return err
	}
	if actorRole != models.RoleOwner && actorRole != models.RoleAdmin {
		return response.NewForbidden("only owners and admins may cancel invites")
	}

	var invite models.TeamInvite
	if err := s.db.Where("id = ? AND team_id = ?", inviteID, teamID).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("invite not found")
		}
		return err
	}
	if invite.Status != models.InviteStatusPending {
		return response.NewBadRequest("invite is not pending")
	}

	return s.db.Model(&invite).Update("status", models.InviteStatusCancelled).Error
}

// Accept joins the caller to the invite's team. The caller's verified
// email must match the invite (case-insensitively) and the invite must
// still be pending. A past expiry flips the invite to expired before
// failing. Membership insert and status update share one transaction; the
// unique (team, user) index turns a lost race into a duplicate-key error
// instead of a duplicate row.
func (s *InviteService) Accept(inviteID uint, callerEmail, callerName string) (*models.TeamMember, error) {
	var invite models.TeamInvite
	if err := s.db.First(&invite, inviteID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("invite not found")
		}
		return nil, err
	}

	if invite.Status != models.InviteStatusPending {
		return nil, response.NewBadRequest("invite is no longer pending")
	}
	if models.NormalizeEmail(callerEmail) != invite.Email {
		return nil, response.NewForbidden("this invite was issued for a different email")
	}
	if time.Now().After(invite.ExpiresAt) {
		s.db.Model(&invite).Update("status", models.InviteStatusExpired)
		return nil, response.NewBadRequest("invite has expired")
	}

	user, err := s.teams.UpsertUserByEmail(invite.Email, callerName)
	if err != nil {
		return nil, err
	}

	member := models.TeamMember{
		TeamID: invite.TeamID,
		UserID: user.ID,
		Role:   invite.Role,
	}

	var existing int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", invite.TeamID, user.ID).
		Count(&existing).Error; err != nil {
		return nil, err
	}
	if existing > 0 {
		// The invite is still consumed; the caller just isn't added twice.
		if err := s.db.Model(&invite).Update("status", models.InviteStatusAccepted).Error; err != nil {
			return nil, err
		}
		return nil, response.NewBadRequest("already a member of this team")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			if isDuplicateKeyError(err) {
				return response.NewBadRequest("already a member of this team")
			}
			return err
		}
		return tx.Model(&invite).Update("status", models.InviteStatusAccepted).Error
	})
	if err != nil {
		return nil, err
	}

	return &member, nil
}

// PendingForEmail lists the caller's open invites across teams.
func (s *InviteService) PendingForEmail(email string) ([]models.TeamInvite, error) {
	var invites []models.TeamInvite
	if err := s.db.Where("email = ? AND status = ?", models.NormalizeEmail(email), models.InviteStatusPending).
		Preload("Team").
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, err
	}
	return invites, nil
}

func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
