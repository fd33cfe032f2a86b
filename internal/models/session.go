package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session lifecycle fields.
const (
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"

	WorkflowStatusBacklog   = "backlog"
	WorkflowStatusInReview  = "in_review"
	WorkflowStatusScheduled = "scheduled"
	WorkflowStatusPublished = "published"

	SessionDataVersion = 1
)

// Session is one end-to-end content-production run. The pipeline document
// lives in the Data column as versioned JSON; TeamID is nullable only for
// legacy rows created before team support ("orphan" sessions).
type Session struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	Data           string    `gorm:"type:text" json:"-"`
	TeamID         *uint     `gorm:"index" json:"team_id"`
	Team           *Team     `gorm:"foreignKey:TeamID" json:"team,omitempty"`
	CreatedBy      *uint     `gorm:"index" json:"created_by"`
	CurrentStep    int       `gorm:"default:1" json:"current_step"`
	Status         string    `gorm:"size:50;default:in_progress" json:"status"`
	WorkflowStatus string    `gorm:"size:50;default:backlog" json:"workflow_status"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Session) TableName() string { return "sessions" }

// SessionData is the typed pipeline document. Each wizard step owns one
// sub-object; the store boundary validates the version on read.
type SessionData struct {
	Version   int          `json:"version"`
	CreatedBy uint         `json:"created_by,omitempty"` // legacy creator fallback, pre-dates the created_by column
	Topic     TopicData    `json:"topic"`
	Blog      BlogData     `json:"blog"`
	LinkedIn  LinkedInData `json:"linkedin"`
	Carousel  CarouselData `json:"carousel"`
	PDF       PDFData      `json:"pdf"`
	Export    ExportData   `json:"export"`
	Queue     []QueueEntry `json:"queue"`
}

type TopicData struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords,omitempty"`
	Audience string   `json:"audience,omitempty"`
	Angle    string   `json:"angle,omitempty"`
}

type BlogData struct {
	Title           string `json:"title"`
	Body            string `json:"body"`
	MetaDescription string `json:"meta_description,omitempty"`
	// Derived publish state, reset on duplication.
	Published     bool   `json:"published"`
	PublishedURL  string `json:"published_url,omitempty"`
	WebflowItemID string `json:"webflow_item_id,omitempty"`
}

type LinkedInData struct {
	Posts    []string `json:"posts,omitempty"`
	Hashtags []string `json:"hashtags,omitempty"`
}

type CarouselSlide struct {
	Heading string `json:"heading"`
	Body    string `json:"body,omitempty"`
}

type CarouselData struct {
	Slides []CarouselSlide `json:"slides,omitempty"`
	// Derived, reset on duplication.
	GeneratedImageURLs []string `json:"generated_image_urls,omitempty"`
}

// PDF generation states.
const (
	PDFStatusPending    = "pending"
	PDFStatusGenerating = "generating"
	PDFStatusReady      = "ready"
)

type PDFData struct {
	Status string `json:"status,omitempty"`
	URL    string `json:"url,omitempty"`
}

type ExportData struct {
	ExportedToSheets  bool `json:"exported_to_sheets"`
	ExportedToWebflow bool `json:"exported_to_webflow"`
	ZapierTriggered   bool `json:"zapier_triggered"`
}

// Queue entry states.
const (
	QueueStatusScheduled = "scheduled"
	QueueStatusPublished = "published"
)

type QueueEntry struct {
	Platform     string     `json:"platform"` // blog, linkedin, carousel
	Content      string     `json:"content"`
	ScheduledFor *time.Time `json:"scheduled_for,omitempty"`
	Status       string     `json:"status"`
}

// Document decodes the session's data column. An empty column yields a
// fresh document at the current version.
func (s *Session) Document() (*SessionData, error) {
	doc := &SessionData{Version: SessionDataVersion}
	if s.Data == "" {
		return doc, nil
	}
	if err := json.Unmarshal([]byte(s.Data), doc); err != nil {
		return nil, fmt.Errorf("session %s: malformed document: %w", s.ID, err)
	}
	if doc.Version > SessionDataVersion {
		return nil, fmt.Errorf("session %s: unsupported document version %d", s.ID, doc.Version)
	}
	if doc.Version == 0 {
		doc.Version = SessionDataVersion
	}
	return doc, nil
}

// SetDocument encodes doc into the data column, stamping the current version.
func (s *Session) SetDocument(doc *SessionData) error {
	doc.Version = SessionDataVersion
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	s.Data = string(b)
	return nil
}
