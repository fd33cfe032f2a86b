package services

import (
	"encoding/json"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

const defaultActivityLimit = 50

type ActivityService struct {
	db       *gorm.DB
	sessions *SessionService
}

func NewActivityService(db *gorm.DB) *ActivityService {
	return &ActivityService{db: db, sessions: NewSessionService(db)}
}

type RecordActivityRequest struct {
	Type     string                 `json:"type" binding:"required"`
	Step     *int                   `json:"step"`
	Metadata map[string]interface{} `json:"metadata"`
}

// Record appends one entry to a session's activity log. The caller must
// be able to see the session. Entries are never updated or deleted.
func (s *ActivityService) Record(sessionID string, userID uint, req *RecordActivityRequest) (*models.ActivityLogEntry, error) {
	session, err := s.sessions.load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, userID); err != nil {
		return nil, err
	}

	entry := models.ActivityLogEntry{
		SessionID: sessionID,
		UserID:    userID,
		Type:      req.Type,
		Step:      req.Step,
	}
	if req.Metadata != nil {
		b, err := json.Marshal(req.Metadata)
		if err != nil {
			return nil, response.NewBadRequest("metadata is not serializable")
		}
		entry.Metadata = string(b)
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns a session's activity, newest first. limit <= 0 falls back
// to the default page size.
func (s *ActivityService) List(sessionID string, userID uint, limit int) ([]models.ActivityLogEntry, error) {
	session, err := s.sessions.load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, userID); err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = defaultActivityLimit
	}

	var entries []models.ActivityLogEntry
	if err := s.db.Where("session_id = ?", sessionID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Preload("User").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
