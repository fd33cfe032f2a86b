package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/middleware"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/services"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(db *gorm.DB) *ReviewHandler {
	return &ReviewHandler{reviewService: services.NewReviewService(db)}
}

// Create asks a teammate to review a session
// POST /api/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	var req services.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// List returns the caller's review requests with aggregate counts
// GET /api/reviews?filter=pending|completed|requested|all
func (h *ReviewHandler) List(c *gin.Context) {
	result, err := h.reviewService.List(middleware.GetUserID(c), c.Query("filter"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Respond records the reviewer's verdict
// PUT /api/reviews/:id/respond
func (h *ReviewHandler) Respond(c *gin.Context) {
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid review id")
		return
	}

	var req services.RespondReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	review, err := h.reviewService.Respond(uint(reviewID), middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, review)
}

// Cancel withdraws a pending review request
// DELETE /api/reviews/:id
func (h *ReviewHandler) Cancel(c *gin.Context) {
	reviewID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid review id")
		return
	}

	if err := h.reviewService.Cancel(uint(reviewID), middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "review request cancelled"})
}
