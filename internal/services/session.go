package services

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/utils"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

type SessionService struct {
	db    *gorm.DB
	teams *TeamService
}

func NewSessionService(db *gorm.DB) *SessionService {
	return &SessionService{db: db, teams: NewTeamService(db)}
}

// SessionView pairs a session row with its decoded document.
type SessionView struct {
	models.Session
	Document *models.SessionData `json:"data"`
}

func newSessionView(session *models.Session) (*SessionView, error) {
	doc, err := session.Document()
	if err != nil {
		return nil, response.NewServerError("failed to decode session document")
	}
	return &SessionView{Session: *session, Document: doc}, nil
}

type CreateSessionRequest struct {
	Title    string   `json:"title" binding:"required"`
	Keywords []string `json:"keywords"`
	Audience string   `json:"audience"`
	Angle    string   `json:"angle"`
}

// Create starts a new pipeline run owned by the caller. The session joins
// the caller's earliest team when they have one; otherwise it is created
// team-less, same as legacy rows.
func (s *SessionService) Create(userID uint, req *CreateSessionRequest) (*SessionView, error) {
	session := models.Session{
		ID:             utils.NewSessionID(),
		CreatedBy:      &userID,
		CurrentStep:    1,
		Status:         models.SessionStatusInProgress,
		WorkflowStatus: models.WorkflowStatusBacklog,
	}

	member, err := s.teams.FirstTeamForUser(userID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		session.TeamID = &member.TeamID
	}

	doc := &models.SessionData{
		Topic: models.TopicData{
			Title:    req.Title,
			Keywords: req.Keywords,
			Audience: req.Audience,
			Angle:    req.Angle,
		},
	}
	if err := session.SetDocument(doc); err != nil {
		return nil, err
	}

	if err := s.db.Create(&session).Error; err != nil {
		return nil, err
	}
	return newSessionView(&session)
}

// List returns the sessions visible to the caller: everything in the
// caller's teams plus their own team-less sessions.
func (s *SessionService) List(userID uint) ([]SessionView, error) {
	var teamIDs []uint
	if err := s.db.Model(&models.TeamMember{}).
		Where("user_id = ?", userID).
		Pluck("team_id", &teamIDs).Error; err != nil {
		return nil, err
	}

	query := s.db.Order("updated_at DESC")
	if len(teamIDs) > 0 {
		query = query.Where("team_id IN ? OR (team_id IS NULL AND created_by = ?)", teamIDs, userID)
	} else {
		query = query.Where("team_id IS NULL AND created_by = ?", userID)
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		return nil, err
	}

	views := make([]SessionView, 0, len(sessions))
	for i := range sessions {
		view, err := newSessionView(&sessions[i])
		if err != nil {
			// A single corrupt row should not hide the rest of the list.
			logger.Warnf("[Session] Skipping undecodable session %s", sessions[i].ID)
			continue
		}
		views = append(views, *view)
	}
	return views, nil
}

// Get loads one session after a visibility check.
func (s *SessionService) Get(id string, userID uint) (*SessionView, error) {
	session, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(session, userID); err != nil {
		return nil, err
	}
	return newSessionView(session)
}

type UpdateSessionRequest struct {
	CurrentStep    *int                 `json:"current_step"`
	Status         *string              `json:"status"`
	WorkflowStatus *string              `json:"workflow_status"`
	Topic          *models.TopicData    `json:"topic"`
	Blog           *models.BlogData     `json:"blog"`
	LinkedIn       *models.LinkedInData `json:"linkedin"`
	Carousel       *models.CarouselData `json:"carousel"`
	PDF            *models.PDFData      `json:"pdf"`
	Export         *models.ExportData   `json:"export"`
	Queue          *[]models.QueueEntry `json:"queue"`
}

// Update saves step data. Only the fields present in the request change;
// absent step payloads keep their stored values.
func (s *SessionService) Update(id string, userID uint, req *UpdateSessionRequest) (*SessionView, error) {
	session, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(session, userID); err != nil {
		return nil, err
	}

	if req.CurrentStep != nil {
		if *req.CurrentStep < 1 || *req.CurrentStep > 7 {
			return nil, response.NewBadRequest("current_step must be between 1 and 7")
		}
		session.CurrentStep = *req.CurrentStep
	}
	if req.Status != nil {
		if *req.Status != models.SessionStatusInProgress && *req.Status != models.SessionStatusCompleted {
			return nil, response.NewBadRequest("invalid status: " + *req.Status)
		}
		session.Status = *req.Status
	}
	if req.WorkflowStatus != nil {
		if !validWorkflowStatus(*req.WorkflowStatus) {
			return nil, response.NewBadRequest("invalid workflow_status: " + *req.WorkflowStatus)
		}
		session.WorkflowStatus = *req.WorkflowStatus
	}

	doc, err := session.Document()
	if err != nil {
		return nil, response.NewServerError("failed to decode session document")
	}
	if req.Topic != nil {
		doc.Topic = *req.Topic
	}
	if req.Blog != nil {
		doc.Blog = *req.Blog
	}
	if req.LinkedIn != nil {
		doc.LinkedIn = *req.LinkedIn
	}
	if req.Carousel != nil {
		doc.Carousel = *req.Carousel
	}
	if req.PDF != nil {
		doc.PDF = *req.PDF
	}
	if req.Export != nil {
		doc.Export = *req.Export
	}
	if req.Queue != nil {
		doc.Queue = *req.Queue
	}
	if err := session.SetDocument(doc); err != nil {
		return nil, err
	}

	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}
	return newSessionView(session)
}

// Duplicate copies a session. Team sessions require membership; team-less
// sessions are open, and an authenticated caller's copy is adopted into
// their earliest team while an anonymous caller's copy stays team-less.
// userID 0 means anonymous.
func (s *SessionService) Duplicate(id string, userID uint) (*SessionView, error) {
	source, err := s.load(id)
	if err != nil {
		return nil, err
	}

	copySession := models.Session{
		ID:             utils.NewSessionID(),
		CurrentStep:    1,
		Status:         models.SessionStatusInProgress,
		WorkflowStatus: models.WorkflowStatusBacklog,
	}

	if source.TeamID != nil {
		if userID == 0 {
			return nil, response.NewUnauthorized("authentication required")
		}
		var member models.TeamMember
		if err := s.db.Where("team_id = ? AND user_id = ?", *source.TeamID, userID).
			First(&member).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewForbidden("not a member of this session's team")
			}
			return nil, err
		}
		copySession.TeamID = source.TeamID
	} else if userID != 0 {
		member, err := s.teams.FirstTeamForUser(userID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			copySession.TeamID = &member.TeamID
		}
	}

	if userID != 0 {
		copySession.CreatedBy = &userID
	}

	doc, err := source.Document()
	if err != nil {
		return nil, response.NewServerError("failed to decode session document")
	}
	if err := copySession.SetDocument(duplicateDocument(doc)); err != nil {
		return nil, err
	}

	if err := s.db.Create(&copySession).Error; err != nil {
		return nil, err
	}

	s.recordActivity(copySession.ID, userID, "session_duplicated", nil,
		map[string]interface{}{"source_session_id": source.ID})

	return newSessionView(&copySession)
}

// duplicateDocument applies the reset policy: authored content is copied,
// derived publish state is zeroed, and the topic title is suffixed so the
// copy is distinguishable. Duplicating a copy accumulates suffixes.
func duplicateDocument(doc *models.SessionData) *models.SessionData {
	out := &models.SessionData{
		Topic: doc.Topic,
		Blog: models.BlogData{
			Title:           doc.Blog.Title,
			Body:            doc.Blog.Body,
			MetaDescription: doc.Blog.MetaDescription,
		},
		LinkedIn: doc.LinkedIn,
		Carousel: models.CarouselData{
			Slides: doc.Carousel.Slides,
		},
	}
	out.Topic.Title = doc.Topic.Title + " (Copy)"
	return out
}

// MigrationResult summarizes one orphan-migration sweep.
type MigrationResult struct {
	Scanned  int `json:"scanned"`
	Migrated int `json:"migrated"`
	Skipped  int `json:"skipped"`
}

// MigrateOrphans back-fills team ownership on legacy team-less sessions.
// The creator comes from the created_by column, falling back to the
// document's created_by field for the oldest rows; the session joins the
// creator's earliest team. Rows with no resolvable creator or whose
// creator has no team are skipped. Safe to run repeatedly.
func (s *SessionService) MigrateOrphans() (*MigrationResult, error) {
	var orphans []models.Session
	if err := s.db.Where("team_id IS NULL").Find(&orphans).Error; err != nil {
		return nil, err
	}

	result := &MigrationResult{Scanned: len(orphans)}
	for i := range orphans {
		session := &orphans[i]

		var creatorID uint
		if session.CreatedBy != nil {
			creatorID = *session.CreatedBy
		} else if doc, err := session.Document(); err == nil {
			creatorID = doc.CreatedBy
		}
		if creatorID == 0 {
			result.Skipped++
			continue
		}

		member, err := s.teams.FirstTeamForUser(creatorID)
		if err != nil {
			return nil, err
		}
		if member == nil {
			result.Skipped++
			continue
		}

		updates := map[string]interface{}{"team_id": member.TeamID}
		if session.CreatedBy == nil {
			updates["created_by"] = creatorID
		}
		if err := s.db.Model(session).Updates(updates).Error; err != nil {
			return nil, err
		}
		result.Migrated++
	}

	if result.Migrated > 0 {
		logger.Infof("[Session] Migrated %d orphan sessions (%d skipped)", result.Migrated, result.Skipped)
	}
	return result, nil
}

func (s *SessionService) load(id string) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("id = ?", id).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("session not found")
		}
		return nil, err
	}
	return &session, nil
}

// authorize gates reads and writes: team sessions require membership,
// team-less sessions only their creator.
func (s *SessionService) authorize(session *models.Session, userID uint) error {
	if userID == 0 {
		return response.NewUnauthorized("authentication required")
	}
	if session.TeamID == nil {
		if session.CreatedBy != nil && *session.CreatedBy == userID {
			return nil
		}
		return response.NewForbidden("no access to this session")
	}

	var count int64
	if err := s.db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", *session.TeamID, userID).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return response.NewForbidden("not a member of this session's team")
	}
	return nil
}

func (s *SessionService) recordActivity(sessionID string, userID uint, activityType string, step *int, metadata map[string]interface{}) {
	entry := models.ActivityLogEntry{
		SessionID: sessionID,
		UserID:    userID,
		Type:      activityType,
		Step:      step,
		CreatedAt: time.Now(),
	}
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			entry.Metadata = string(b)
		}
	}
	if err := s.db.Create(&entry).Error; err != nil {
		logger.Warnf("[Session] Failed to record %s activity for %s: %v", activityType, sessionID, err)
	}
}

func validWorkflowStatus(status string) bool {
	switch status {
	case models.WorkflowStatusBacklog, models.WorkflowStatusInReview,
		models.WorkflowStatusScheduled, models.WorkflowStatusPublished:
		return true
	}
	return false
}
