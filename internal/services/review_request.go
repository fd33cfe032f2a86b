package services

import (
	"errors"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type ReviewService struct {
	db       *gorm.DB
	sessions *SessionService
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db, sessions: NewSessionService(db)}
}

type CreateReviewRequest struct {
	SessionID  string `json:"session_id" binding:"required"`
	ReviewerID uint   `json:"reviewer_id" binding:"required"`
	Step       *int   `json:"step"`
	Note       string `json:"note"`
}

// Create asks reviewerID to look at a session. Both the requester and the
// reviewer must be able to see the session.
func (s *ReviewService) Create(requesterID uint, req *CreateReviewRequest) (*models.ReviewRequest, error) {
	session, err := s.sessions.load(req.SessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, requesterID); err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, req.ReviewerID); err != nil {
		return nil, response.NewBadRequest("reviewer has no access to this session")
	}
	if req.ReviewerID == requesterID {
		return nil, response.NewBadRequest("cannot request a review from yourself")
	}

	review := models.ReviewRequest{
		SessionID:   req.SessionID,
		Step:        req.Step,
		RequesterID: requesterID,
		ReviewerID:  req.ReviewerID,
		Note:        req.Note,
		Status:      models.ReviewStatusPending,
	}
	if err := s.db.Create(&review).Error; err != nil {
		return nil, err
	}
	return &review, nil
}

// ReviewCounts are aggregate totals for the caller, independent of the
// list filter in effect. Each count equals the size of the corresponding
// filtered list.
type ReviewCounts struct {
	Pending   int64 `json:"pending"`
	Completed int64 `json:"completed"`
	Requested int64 `json:"requested"`
}

type ReviewListResponse struct {
	Items  []models.ReviewRequest `json:"items"`
	Counts ReviewCounts           `json:"counts"`
}

// List returns review requests for the caller under one of four filters:
// pending (assigned, awaiting response), completed (assigned, responded,
// newest response first), requested (authored by the caller), or all
// (every request the caller appears in).
func (s *ReviewService) List(userID uint, filter string) (*ReviewListResponse, error) {
	var reviews []models.ReviewRequest
	query := s.db.Preload("Session").Preload("Requester").Preload("Reviewer")

	switch filter {
	case "", "pending":
		query = query.
			Where("reviewer_id = ? AND status = ?", userID, models.ReviewStatusPending).
			Order("created_at DESC")
	case "completed":
		query = query.
			Where("reviewer_id = ? AND status IN ?", userID,
				[]string{models.ReviewStatusApproved, models.ReviewStatusChangesRequested}).
			Order("responded_at DESC")
	case "requested":
		query = query.
			Where("requester_id = ?", userID).
			Order("created_at DESC")
	case "all":
		query = query.
			Where("reviewer_id = ? OR requester_id = ?", userID, userID).
			Order("created_at DESC")
	default:
		return nil, response.NewBadRequest("invalid filter: " + filter)
	}

	if err := query.Find(&reviews).Error; err != nil {
		return nil, err
	}

	counts, err := s.counts(userID)
	if err != nil {
		return nil, err
	}
	return &ReviewListResponse{Items: reviews, Counts: *counts}, nil
}

func (s *ReviewService) counts(userID uint) (*ReviewCounts, error) {
	var counts ReviewCounts
	if err := s.db.Model(&models.ReviewRequest{}).
		Where("reviewer_id = ? AND status = ?", userID, models.ReviewStatusPending).
		Count(&counts.Pending).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.ReviewRequest{}).
		Where("reviewer_id = ? AND status IN ?", userID,
			[]string{models.ReviewStatusApproved, models.ReviewStatusChangesRequested}).
		Count(&counts.Completed).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&models.ReviewRequest{}).
		Where("requester_id = ?", userID).
		Count(&counts.Requested).Error; err != nil {
		return nil, err
	}
	return &counts, nil
}

type RespondReviewRequest struct {
	Status       string `json:"status" binding:"required"`
	ResponseNote string `json:"response_note"`
}

// Respond records the reviewer's verdict. Only the assigned reviewer may
// respond, only while pending, and only once.
func (s *ReviewService) Respond(reviewID, userID uint, req *RespondReviewRequest) (*models.ReviewRequest, error) {
	if req.Status != models.ReviewStatusApproved && req.Status != models.ReviewStatusChangesRequested {
		return nil, response.NewBadRequest("status must be approved or changes_requested")
	}

	review, err := s.load(reviewID)
	if err != nil {
		return nil, err
	}
	if review.ReviewerID != userID {
		return nil, response.NewForbidden("only the assigned reviewer may respond")
	}
	if review.Status != models.ReviewStatusPending {
		return nil, response.NewBadRequest("review request is no longer pending")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        req.Status,
		"response_note": req.ResponseNote,
		"responded_at":  now,
	}
	if err := s.db.Model(review).Updates(updates).Error; err != nil {
		return nil, err
	}
	review.Status = req.Status
	review.ResponseNote = req.ResponseNote
	review.RespondedAt = &now
	return review, nil
}

// Cancel withdraws a pending request. Requester only.
func (s *ReviewService) Cancel(reviewID, userID uint) error {
	review, err := s.load(reviewID)
	if err != nil {
		return err
	}
	if review.RequesterID != userID {
		return response.NewForbidden("only the requester may cancel a review request")
	}
	if review.Status != models.ReviewStatusPending {
		return response.NewBadRequest("review request is no longer pending")
	}

	return s.db.Model(review).Update("status", models.ReviewStatusCancelled).Error
}

func (s *ReviewService) load(id uint) (*models.ReviewRequest, error) {
	var review models.ReviewRequest
	if err := s.db.First(&review, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("review request not found")
		}
		return nil, err
	}
	return &review, nil
}
