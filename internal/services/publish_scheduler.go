package services

import (
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// PublishScheduler runs the background sweeps: releasing due queue
// entries on working days and adopting orphan sessions into teams.
type PublishScheduler struct {
	db        *gorm.DB
	config    *config.SchedulerConfig
	sessions  *SessionService
	exports   *ExportService
	holidays  *HolidayService
	scheduler *cron.Cron
}

func NewPublishScheduler(db *gorm.DB, cfg *config.Config) *PublishScheduler {
	return &PublishScheduler{
		db:       db,
		config:   &cfg.Scheduler,
		sessions: NewSessionService(db),
		exports:  NewExportService(db, &cfg.Integrations),
		holidays: NewHolidayService(),
	}
}

// Start registers the cron entries and begins the schedule.
func (s *PublishScheduler) Start() error {
	s.scheduler = cron.New()

	if _, err := s.scheduler.AddFunc(s.config.PublishCron, s.runPublishSweep); err != nil {
		return err
	}
	if _, err := s.scheduler.AddFunc(s.config.MigrateCron, s.runMigrateSweep); err != nil {
		return err
	}

	s.scheduler.Start()
	logger.Infof("[Scheduler] Started (publish: %q, migrate: %q, country: %s)",
		s.config.PublishCron, s.config.MigrateCron, s.config.Country)
	return nil
}

func (s *PublishScheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

// runPublishSweep releases every due queue entry across all sessions.
// Nothing is published on weekends or holidays; due entries simply wait
// for the next working-day sweep.
func (s *PublishScheduler) runPublishSweep() {
	now := time.Now()
	if !s.holidays.IsWorkday(now, s.config.Country) {
		return
	}

	var sessions []models.Session
	if err := s.db.Where("workflow_status = ?", models.WorkflowStatusScheduled).Find(&sessions).Error; err != nil {
		logger.Errorf("[Scheduler] Publish sweep query failed: %v", err)
		return
	}

	released := 0
	for i := range sessions {
		n, err := s.releaseDueEntries(&sessions[i], now)
		if err != nil {
			logger.Errorf("[Scheduler] Failed to release entries for %s: %v", sessions[i].ID, err)
			continue
		}
		released += n
	}

	if released > 0 {
		logger.Infof("[Scheduler] Released %d due queue entries", released)
	}
}

// releaseDueEntries marks due entries published and fires the Zapier hook
// for each. Once every entry is out the door the session's workflow
// status flips to published.
func (s *PublishScheduler) releaseDueEntries(session *models.Session, now time.Time) (int, error) {
	doc, err := session.Document()
	if err != nil {
		return 0, err
	}

	released := 0
	allPublished := len(doc.Queue) > 0
	for i := range doc.Queue {
		entry := &doc.Queue[i]
		if entry.Status != models.QueueStatusScheduled {
			continue
		}
		if entry.ScheduledFor == nil || entry.ScheduledFor.After(now) {
			allPublished = false
			continue
		}

		entry.Status = models.QueueStatusPublished
		released++

		if s.exports.config.Zapier.WebhookURL != "" {
			if err := s.exports.exportToZapier(session, doc); err != nil {
				// The entry is still released; the hook is best-effort.
				logger.Warnf("[Scheduler] Zapier hook failed for %s: %v", session.ID, err)
			}
		}
	}

	if released == 0 {
		return 0, nil
	}

	if allPublished {
		session.WorkflowStatus = models.WorkflowStatusPublished
	}
	if err := session.SetDocument(doc); err != nil {
		return 0, err
	}
	if err := s.db.Save(session).Error; err != nil {
		return 0, err
	}
	return released, nil
}

func (s *PublishScheduler) runMigrateSweep() {
	result, err := s.sessions.MigrateOrphans()
	if err != nil {
		logger.Errorf("[Scheduler] Orphan migration sweep failed: %v", err)
		return
	}
	if result.Migrated > 0 || result.Skipped > 0 {
		logger.Infof("[Scheduler] Orphan sweep: scanned=%d migrated=%d skipped=%d",
			result.Scanned, result.Migrated, result.Skipped)
	}
}
