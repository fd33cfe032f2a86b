package services

import (
	"errors"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/utils"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type TeamService struct {
	db *gorm.DB
}

func NewTeamService(db *gorm.DB) *TeamService {
	return &TeamService{db: db}
}

type CreateTeamRequest struct {
	Name string `json:"name" binding:"required"`
}

type TeamWithRole struct {
	models.Team
	Role string `json:"role"`
}

// ResolveRole maps (team, verified email) to the caller's role in that
// team. Two sequential lookups against the store of record, no caching:
// email to user id (emails are stored lower-cased), then (team, user) to
// role. Returns a 403 AppError for non-members.
func (s *TeamService) ResolveRole(teamID uint, email string) (string, *models.User, error) {
	if email == "" {
		return "", nil, response.NewUnauthorized("authentication required")
	}

	var user models.User
	if err := s.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, response.NewForbidden("not a member of this team")
		}
		return "", nil, err
	}

	var member models.TeamMember
	if err := s.db.Where("team_id = ? AND user_id = ?", teamID, user.ID).First(&member).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", &user, response.NewForbidden("not a member of this team")
		}
		return "", &user, err
	}

	return member.Role, &user, nil
}

// Create creates a team and its first owner membership in one transaction.
func (s *TeamService) Create(req *CreateTeamRequest, userID uint) (*models.Team, error) {
	team := models.Team{
		Name:      req.Name,
		Slug:      utils.Slugify(req.Name),
		CreatedBy: userID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&team).Error; err != nil {
			return err
		}
		member := models.TeamMember{
			TeamID: team.ID,
			UserID: userID,
			Role:   models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, err
	}

	return &team, nil
}

// ListForUser returns the caller's teams with their role in each, ordered
// by join time.
func (s *TeamService) ListForUser(userID uint) ([]TeamWithRole, error) {
	var members []models.TeamMember
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Preload("Team").
		Find(&members).Error; err != nil {
		return nil, err
	}

	teams := make([]TeamWithRole, 0, len(members))
	for _, m := range members {
		if m.Team == nil {
			continue
		}
		teams = append(teams, TeamWithRole{Team: *m.Team, Role: m.Role})
	}
	return teams, nil
}

// FirstTeamForUser returns the user's earliest membership by join order,
// or nil when the user belongs to no team. This is the adoption target for
// legacy team-less sessions.
func (s *TeamService) FirstTeamForUser(userID uint) (*models.TeamMember, error) {
	var member models.TeamMember
	err := s.db.Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembers returns a team's members. Caller must belong to the team.
func (s *TeamService) ListMembers(teamID uint, email string) ([]models.TeamMember, error) {
	if _, _, err := s.ResolveRole(teamID, email); err != nil {
		return nil, err
	}

	var members []models.TeamMember
	if err := s.db.Where("team_id = ?", teamID).
		Order("created_at ASC, id ASC").
		Preload("User").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

type UpdateMemberRoleRequest struct {
	MemberID uint   `json:"memberId" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

// UpdateMemberRole changes a member's role. Only owners may mutate roles;
// an owner's role can only be changed by that owner, and never in a way
// that would leave the team with zero owners.
func (s *TeamService) UpdateMemberRole(teamID uint, actorEmail string, req *UpdateMemberRoleRequest) (*models.TeamMember, error) {
	if !models.ValidRole(req.Role) {
		return nil, response.NewBadRequest("invalid role: " + req.Role)
	}

	actorRole, actor, err := s.ResolveRole(teamID, actorEmail)
	if err != nil {
		return nil, err
	}
	if actorRole != models.RoleOwner {
		return nil, response.NewForbidden("only owners may change member roles")
	}

	var target models.TeamMember
	if err := s.db.Where("id = ? AND team_id = ?", req.MemberID, teamID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("member not found")
		}
		return nil, err
	}

	if target.Role == models.RoleOwner {
		if target.UserID != actor.ID {
			return nil, response.NewForbidden("cannot change another owner's role")
		}
		if req.Role != models.RoleOwner {
			owners, err := s.ownerCount(teamID)
			if err != nil {
				return nil, err
			}
			if owners <= 1 {
				return nil, response.NewBadRequest("team must retain at least one owner")
			}
		}
	}

	if err := s.db.Model(&target).Update("role", req.Role).Error; err != nil {
		return nil, err
	}
	target.Role = req.Role
	return &target, nil
}

// RemoveMember deletes a membership. Any member may remove themselves;
// only owners may remove others; owners cannot be removed by anyone else,
// and a lone owner cannot leave.
func (s *TeamService) RemoveMember(teamID uint, actorEmail string, memberID uint) error {
	actorRole, actor, err := s.ResolveRole(teamID, actorEmail)
	if err != nil {
		return err
	}

	var target models.TeamMember
	if err := s.db.Where("id = ? AND team_id = ?", memberID, teamID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("member not found")
		}
		return err
	}

	if target.UserID == actor.ID {
		// Self-removal (leave). A lone owner cannot leave.
		if target.Role == models.RoleOwner {
			owners, err := s.ownerCount(teamID)
			if err != nil {
				return err
			}
			if owners <= 1 {
				return response.NewBadRequest("team must retain at least one owner")
			}
		}
	} else {
		if actorRole != models.RoleOwner {
			return response.NewForbidden("only owners may remove other members")
		}
		if target.Role == models.RoleOwner {
			return response.NewForbidden("owners can only remove themselves")
		}
	}

	return s.db.Delete(&models.TeamMember{}, target.ID).Error
}

func (s *TeamService) ownerCount(teamID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND role = ?", teamID, models.RoleOwner).
		Count(&count).Error
	return count, err
}

// UpsertUserByEmail fetches or creates the user row for a verified email.
func (s *TeamService) UpsertUserByEmail(email, name string) (*models.User, error) {
	normalized := models.NormalizeEmail(email)
	if normalized == "" {
		return nil, response.NewBadRequest("email is required")
	}

	var user models.User
	err := s.db.Where("email = ?", normalized).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{Email: normalized, Name: name, IsActive: true}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if name != "" && user.Name == "" {
		user.Name = name
		s.db.Save(&user)
	}
	return &user, nil
}
