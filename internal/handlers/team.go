package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/middleware"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type TeamHandler struct {
	teamService   *services.TeamService
	inviteService *services.InviteService
}

func NewTeamHandler(db *gorm.DB) *TeamHandler {
	return &TeamHandler{
		teamService:   services.NewTeamService(db),
		inviteService: services.NewInviteService(db),
	}
}

func teamIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid team id")
		return 0, false
	}
	return uint(id), true
}

// Create creates a team with the caller as owner
// POST /api/teams
func (h *TeamHandler) Create(c *gin.Context) {
	var req services.CreateTeamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	team, err := h.teamService.Create(&req, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, team)
}

// List returns the caller's teams with roles
// GET /api/teams
func (h *TeamHandler) List(c *gin.Context) {
	teams, err := h.teamService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, teams)
}

// ListMembers returns a team's members
// GET /api/teams/:id/members
func (h *TeamHandler) ListMembers(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	members, err := h.teamService.ListMembers(teamID, middleware.GetEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// UpdateMemberRole changes a member's role
// PUT /api/teams/:id/members
func (h *TeamHandler) UpdateMemberRole(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.teamService.UpdateMemberRole(teamID, middleware.GetEmail(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// RemoveMember removes a membership
// DELETE /api/teams/:id/members?memberId=
func (h *TeamHandler) RemoveMember(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	memberID, err := strconv.ParseUint(c.Query("memberId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid memberId")
		return
	}

	if err := h.teamService.RemoveMember(teamID, middleware.GetEmail(c), uint(memberID)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}

// CreateInvite issues a pending invite
// POST /api/teams/:id/invites
func (h *TeamHandler) CreateInvite(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	var req services.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	invite, err := h.inviteService.Create(teamID, middleware.GetEmail(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invite)
}

// ListInvites returns a team's invites
// GET /api/teams/:id/invites
func (h *TeamHandler) ListInvites(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	invites, err := h.inviteService.List(teamID, middleware.GetEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invites)
}

// CancelInvite cancels a pending invite
// DELETE /api/teams/:id/invites?inviteId=
func (h *TeamHandler) CancelInvite(c *gin.Context) {
	teamID, ok := teamIDParam(c)
	if !ok {
		return
	}

	inviteID, err := strconv.ParseUint(c.Query("inviteId"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid inviteId")
		return
	}

	if err := h.inviteService.Cancel(teamID, middleware.GetEmail(c), uint(inviteID)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "invite cancelled"})
}

// AcceptInvite joins the caller to the invite's team
// POST /api/invites/accept
func (h *TeamHandler) AcceptInvite(c *gin.Context) {
	var req struct {
		InviteID uint `json:"invite_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.inviteService.Accept(req.InviteID, middleware.GetEmail(c), "")
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// ListMyInvites returns the caller's pending invites across teams
// GET /api/invites
func (h *TeamHandler) ListMyInvites(c *gin.Context) {
	invites, err := h.inviteService.PendingForEmail(middleware.GetEmail(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, invites)
}
