package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"gorm.io/gorm"
)

const webflowAPIBase = "https://api.webflow.com/v2"

// Export targets.
const (
	ExportTargetWebflow = "webflow"
	ExportTargetZapier  = "zapier"
	ExportTargetSheets  = "sheets"
)

type ExportService struct {
	db         *gorm.DB
	config     *config.IntegrationsConfig
	sessions   *SessionService
	sheets     *SheetsService
	httpClient *http.Client
}

func NewExportService(db *gorm.DB, cfg *config.IntegrationsConfig) *ExportService {
	return &ExportService{
		db:         db,
		config:     cfg,
		sessions:   NewSessionService(db),
		sheets:     NewSheetsService(&cfg.Google),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type ExportRequest struct {
	Target string `json:"target" binding:"required"` // webflow, zapier, sheets
}

// Export pushes a session's content to one external target and records the
// outcome in the session document. Failures surface to the caller with the
// upstream body in details; there is no retry.
func (s *ExportService) Export(sessionID string, userID uint, req *ExportRequest) (*SessionView, error) {
	session, err := s.sessions.load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, userID); err != nil {
		return nil, err
	}

	doc, err := session.Document()
	if err != nil {
		return nil, response.NewServerError("failed to decode session document")
	}

	switch req.Target {
	case ExportTargetWebflow:
		err = s.exportToWebflow(doc)
	case ExportTargetZapier:
		err = s.exportToZapier(session, doc)
	case ExportTargetSheets:
		err = s.exportToSheets(session, doc)
	default:
		return nil, response.NewBadRequest("invalid export target: " + req.Target)
	}
	if err != nil {
		return nil, err
	}

	if err := session.SetDocument(doc); err != nil {
		return nil, err
	}
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	s.sessions.recordActivity(session.ID, userID, "content_exported", nil,
		map[string]interface{}{"target": req.Target})

	return newSessionView(session)
}

// exportToWebflow creates and publishes a CMS item from the blog step.
func (s *ExportService) exportToWebflow(doc *models.SessionData) error {
	cfg := &s.config.Webflow
	if cfg.APIToken == "" || cfg.CollectionID == "" {
		return response.NewBadRequest("webflow integration is not configured")
	}
	if doc.Blog.Body == "" {
		return response.NewBadRequest("session has no blog post to publish")
	}

	payload := map[string]interface{}{
		"isArchived": false,
		"isDraft":    false,
		"fieldData": map[string]interface{}{
			"name":             doc.Blog.Title,
			"post-body":        doc.Blog.Body,
			"meta-description": doc.Blog.MetaDescription,
		},
	}

	itemURL := fmt.Sprintf("%s/collections/%s/items/live", webflowAPIBase, cfg.CollectionID)
	respBody, err := s.postJSON(itemURL, payload, map[string]string{
		"Authorization": "Bearer " + cfg.APIToken,
	})
	if err != nil {
		return err
	}

	var item struct {
		ID        string `json:"id"`
		FieldData struct {
			Slug string `json:"slug"`
		} `json:"fieldData"`
	}
	if err := json.Unmarshal(respBody, &item); err != nil {
		return response.NewServerError("unparseable webflow response").WithDetails(err.Error())
	}

	doc.Blog.WebflowItemID = item.ID
	doc.Blog.Published = true
	if item.FieldData.Slug != "" {
		doc.Blog.PublishedURL = "/blog/" + item.FieldData.Slug
	}
	doc.Export.ExportedToWebflow = true

	logger.Infof("[Export] Webflow item created: %s", item.ID)
	return nil
}

// exportToZapier fires the configured webhook with a session summary.
func (s *ExportService) exportToZapier(session *models.Session, doc *models.SessionData) error {
	cfg := &s.config.Zapier
	if cfg.WebhookURL == "" {
		return response.NewBadRequest("zapier integration is not configured")
	}

	payload := map[string]interface{}{
		"session_id":      session.ID,
		"topic":           doc.Topic.Title,
		"blog_title":      doc.Blog.Title,
		"linkedin_posts":  doc.LinkedIn.Posts,
		"carousel_slides": len(doc.Carousel.Slides),
		"workflow_status": session.WorkflowStatus,
	}

	if _, err := s.postJSON(cfg.WebhookURL, payload, nil); err != nil {
		return err
	}

	doc.Export.ZapierTriggered = true
	return nil
}

// exportToSheets appends the session's queue entries to the spreadsheet.
func (s *ExportService) exportToSheets(session *models.Session, doc *models.SessionData) error {
	if !s.sheets.IsConfigured() {
		return response.NewBadRequest("google sheets integration is not configured")
	}

	rows := make([][]interface{}, 0, len(doc.Queue)+1)
	if len(doc.Queue) == 0 {
		rows = append(rows, []interface{}{
			session.ID, doc.Topic.Title, "blog", doc.Blog.Title, "", session.WorkflowStatus,
		})
	}
	for _, entry := range doc.Queue {
		scheduled := ""
		if entry.ScheduledFor != nil {
			scheduled = entry.ScheduledFor.Format(time.RFC3339)
		}
		rows = append(rows, []interface{}{
			session.ID, doc.Topic.Title, entry.Platform, entry.Content, scheduled, entry.Status,
		})
	}

	if err := s.sheets.AppendRows(rows); err != nil {
		return err
	}

	doc.Export.ExportedToSheets = true
	return nil
}

// postJSON POSTs a JSON payload and returns the response body. Non-2xx
// responses become 500 AppErrors carrying the upstream body.
func (s *ExportService) postJSON(url string, payload interface{}, headers map[string]string) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, response.NewServerError("export request failed").WithDetails(err.Error())
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, response.NewServerError(fmt.Sprintf("export target returned %d", resp.StatusCode)).
			WithDetails(string(respBody))
	}
	return respBody, nil
}
