package services

import (
	"testing"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
)

func TestSessionCreate(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	team := createTestTeam(t, db, "Marketing", user)

	svc := NewSessionService(db)
	view, err := svc.Create(user.ID, &CreateSessionRequest{
		Title:    "Q2 Launch",
		Keywords: []string{"launch"},
		Audience: "founders",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if view.CurrentStep != 1 {
		t.Errorf("CurrentStep = %d, expected 1", view.CurrentStep)
	}
	if view.Status != models.SessionStatusInProgress {
		t.Errorf("Status = %q, expected in_progress", view.Status)
	}
	if view.WorkflowStatus != models.WorkflowStatusBacklog {
		t.Errorf("WorkflowStatus = %q, expected backlog", view.WorkflowStatus)
	}
	if view.TeamID == nil || *view.TeamID != team.ID {
		t.Errorf("TeamID = %v, expected %d", view.TeamID, team.ID)
	}
	if view.CreatedBy == nil || *view.CreatedBy != user.ID {
		t.Errorf("CreatedBy = %v, expected %d", view.CreatedBy, user.ID)
	}
	if view.Document.Topic.Title != "Q2 Launch" {
		t.Errorf("topic title = %q, expected %q", view.Document.Topic.Title, "Q2 Launch")
	}
}

func TestSessionCreate_NoTeam(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "loner@example.com")

	view, err := NewSessionService(db).Create(user.ID, &CreateSessionRequest{Title: "Solo"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if view.TeamID != nil {
		t.Errorf("TeamID = %d, expected team-less", *view.TeamID)
	}
}

func TestSessionList_Visibility(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	teammate := createTestUser(t, db, "teammate@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")
	team := createTestTeam(t, db, "Marketing", user)
	addTestMember(t, db, team.ID, teammate, models.RoleMember)

	svc := NewSessionService(db)
	svc.Create(teammate.ID, &CreateSessionRequest{Title: "Teammate Session"})
	orphanOwner, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Mine"})
	_ = orphanOwner
	outsiderView, _ := svc.Create(outsider.ID, &CreateSessionRequest{Title: "Outsider Orphan"})

	views, err := svc.List(user.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("visible sessions = %d, expected 2", len(views))
	}
	for _, v := range views {
		if v.ID == outsiderView.ID {
			t.Error("outsider's team-less session should not be visible")
		}
	}

	// The outsider still sees their own team-less session
	outsiderList, err := svc.List(outsider.ID)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(outsiderList) != 1 || outsiderList[0].ID != outsiderView.ID {
		t.Errorf("outsider list = %d sessions, expected their own only", len(outsiderList))
	}
}

func TestSessionGet_Authorization(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")
	createTestTeam(t, db, "Marketing", user)

	svc := NewSessionService(db)
	view, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Guarded"})

	_, err := svc.Get(view.ID, 0)
	assertHTTPStatus(t, err, 401)

	_, err = svc.Get(view.ID, outsider.ID)
	assertHTTPStatus(t, err, 403)

	_, err = svc.Get("sess_missing", user.ID)
	assertHTTPStatus(t, err, 404)

	got, err := svc.Get(view.ID, user.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.ID != view.ID {
		t.Errorf("id = %q, expected %q", got.ID, view.ID)
	}
}

func TestSessionUpdate_PartialMerge(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	createTestTeam(t, db, "Marketing", user)

	svc := NewSessionService(db)
	view, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Merge"})

	step := 2
	blog := models.BlogData{Title: "Draft", Body: "body"}
	updated, err := svc.Update(view.ID, user.ID, &UpdateSessionRequest{
		CurrentStep: &step,
		Blog:        &blog,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.CurrentStep != 2 {
		t.Errorf("CurrentStep = %d, expected 2", updated.CurrentStep)
	}
	if updated.Document.Blog.Title != "Draft" {
		t.Errorf("blog title = %q, expected Draft", updated.Document.Blog.Title)
	}
	// Absent payloads keep their stored values
	if updated.Document.Topic.Title != "Merge" {
		t.Errorf("topic title = %q, should be untouched", updated.Document.Topic.Title)
	}

	// A later update without the blog leaves it intact
	wf := models.WorkflowStatusInReview
	again, err := svc.Update(view.ID, user.ID, &UpdateSessionRequest{WorkflowStatus: &wf})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if again.Document.Blog.Body != "body" {
		t.Errorf("blog body = %q, should survive unrelated update", again.Document.Blog.Body)
	}
	if again.WorkflowStatus != models.WorkflowStatusInReview {
		t.Errorf("workflow = %q, expected in_review", again.WorkflowStatus)
	}
}

func TestSessionUpdate_Validation(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	createTestTeam(t, db, "Marketing", user)

	svc := NewSessionService(db)
	view, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Strict"})

	bad := 8
	_, err := svc.Update(view.ID, user.ID, &UpdateSessionRequest{CurrentStep: &bad})
	assertHTTPStatus(t, err, 400)

	zero := 0
	_, err = svc.Update(view.ID, user.ID, &UpdateSessionRequest{CurrentStep: &zero})
	assertHTTPStatus(t, err, 400)

	status := "archived"
	_, err = svc.Update(view.ID, user.ID, &UpdateSessionRequest{Status: &status})
	assertHTTPStatus(t, err, 400)

	wf := "done"
	_, err = svc.Update(view.ID, user.ID, &UpdateSessionRequest{WorkflowStatus: &wf})
	assertHTTPStatus(t, err, 400)
}

func TestDuplicateDocument_ResetPolicy(t *testing.T) {
	scheduled := time.Now().Add(24 * time.Hour)
	doc := &models.SessionData{
		Topic: models.TopicData{Title: "Original", Keywords: []string{"k"}},
		Blog: models.BlogData{
			Title:         "Post",
			Body:          "body",
			Published:     true,
			PublishedURL:  "/blog/post",
			WebflowItemID: "wf_123",
		},
		LinkedIn: models.LinkedInData{Posts: []string{"post one"}},
		Carousel: models.CarouselData{
			Slides:             []models.CarouselSlide{{Heading: "One"}},
			GeneratedImageURLs: []string{"https://cdn/img.png"},
		},
		PDF:    models.PDFData{Status: models.PDFStatusReady, URL: "https://cdn/file.pdf"},
		Export: models.ExportData{ExportedToWebflow: true, ZapierTriggered: true},
		Queue: []models.QueueEntry{
			{Platform: "blog", Content: "Post", ScheduledFor: &scheduled, Status: models.QueueStatusScheduled},
		},
	}

	out := duplicateDocument(doc)

	if out.Topic.Title != "Original (Copy)" {
		t.Errorf("topic title = %q, expected %q", out.Topic.Title, "Original (Copy)")
	}
	if out.Blog.Title != "Post" || out.Blog.Body != "body" {
		t.Error("authored blog content should be copied")
	}
	if out.Blog.Published || out.Blog.PublishedURL != "" || out.Blog.WebflowItemID != "" {
		t.Error("blog publish state should be reset")
	}
	if len(out.LinkedIn.Posts) != 1 {
		t.Error("linkedin posts should be copied")
	}
	if len(out.Carousel.Slides) != 1 {
		t.Error("carousel slides should be copied")
	}
	if len(out.Carousel.GeneratedImageURLs) != 0 {
		t.Error("generated carousel images should be reset")
	}
	if out.PDF.Status != "" || out.PDF.URL != "" {
		t.Error("pdf state should be reset")
	}
	if out.Export.ExportedToWebflow || out.Export.ZapierTriggered {
		t.Error("export flags should be reset")
	}
	if len(out.Queue) != 0 {
		t.Error("queue should be reset")
	}

	// Source is untouched
	if doc.Topic.Title != "Original" {
		t.Errorf("source topic mutated to %q", doc.Topic.Title)
	}
}

func TestDuplicateDocument_CopySuffixAccumulates(t *testing.T) {
	doc := &models.SessionData{Topic: models.TopicData{Title: "Original"}}

	once := duplicateDocument(doc)
	twice := duplicateDocument(once)

	if twice.Topic.Title != "Original (Copy) (Copy)" {
		t.Errorf("title = %q, expected %q", twice.Topic.Title, "Original (Copy) (Copy)")
	}
}

func TestSessionDuplicate_TeamSession(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	teammate := createTestUser(t, db, "teammate@example.com")
	outsider := createTestUser(t, db, "outsider@example.com")
	team := createTestTeam(t, db, "Marketing", user)
	addTestMember(t, db, team.ID, teammate, models.RoleMember)

	svc := NewSessionService(db)
	source, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Source"})

	// Anonymous callers cannot copy team sessions
	_, err := svc.Duplicate(source.ID, 0)
	assertHTTPStatus(t, err, 401)

	// Nor can non-members
	_, err = svc.Duplicate(source.ID, outsider.ID)
	assertHTTPStatus(t, err, 403)

	copied, err := svc.Duplicate(source.ID, teammate.ID)
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if copied.ID == source.ID {
		t.Error("copy should get a fresh id")
	}
	if copied.TeamID == nil || *copied.TeamID != team.ID {
		t.Errorf("copy team = %v, expected %d", copied.TeamID, team.ID)
	}
	if copied.CreatedBy == nil || *copied.CreatedBy != teammate.ID {
		t.Errorf("copy creator = %v, expected %d", copied.CreatedBy, teammate.ID)
	}
	if copied.CurrentStep != 1 || copied.Status != models.SessionStatusInProgress {
		t.Error("copy should restart the pipeline")
	}
	if copied.Document.Topic.Title != "Source (Copy)" {
		t.Errorf("copy title = %q, expected %q", copied.Document.Topic.Title, "Source (Copy)")
	}

	// Duplication leaves an activity trail
	var count int64
	db.Model(&models.ActivityLogEntry{}).
		Where("session_id = ? AND type = ?", copied.ID, "session_duplicated").
		Count(&count)
	if count != 1 {
		t.Errorf("session_duplicated entries = %d, expected 1", count)
	}
}

func TestSessionDuplicate_Orphan(t *testing.T) {
	db := newTestDB(t)
	creator := createTestUser(t, db, "creator@example.com")
	adopter := createTestUser(t, db, "adopter@example.com")
	adopterTeam := createTestTeam(t, db, "Adopters", adopter)

	svc := NewSessionService(db)
	orphan, _ := svc.Create(creator.ID, &CreateSessionRequest{Title: "Open"})
	if orphan.TeamID != nil {
		t.Fatal("fixture session should be team-less")
	}

	// Team-less sessions are open to any authenticated caller; the copy is
	// adopted into the caller's earliest team.
	adopted, err := svc.Duplicate(orphan.ID, adopter.ID)
	if err != nil {
		t.Fatalf("Duplicate() error = %v", err)
	}
	if adopted.TeamID == nil || *adopted.TeamID != adopterTeam.ID {
		t.Errorf("adopted team = %v, expected %d", adopted.TeamID, adopterTeam.ID)
	}

	// Anonymous copies stay team-less and creator-less
	anon, err := svc.Duplicate(orphan.ID, 0)
	if err != nil {
		t.Fatalf("anonymous Duplicate() error = %v", err)
	}
	if anon.TeamID != nil {
		t.Errorf("anonymous copy team = %d, expected team-less", *anon.TeamID)
	}
	if anon.CreatedBy != nil {
		t.Errorf("anonymous copy creator = %d, expected none", *anon.CreatedBy)
	}
}

func TestMigrateOrphans(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "user@example.com")
	teamless := createTestUser(t, db, "teamless@example.com")

	svc := NewSessionService(db)

	// Orphan with a created_by column, creator has no team yet
	withColumn, _ := svc.Create(user.ID, &CreateSessionRequest{Title: "Column"})

	// Orphan whose creator lives only in the document
	legacy := models.Session{ID: "sess_legacy1", CurrentStep: 1,
		Status: models.SessionStatusInProgress, WorkflowStatus: models.WorkflowStatusBacklog}
	legacy.SetDocument(&models.SessionData{CreatedBy: user.ID, Topic: models.TopicData{Title: "Legacy"}})
	db.Create(&legacy)

	// Orphan with no resolvable creator
	unowned := models.Session{ID: "sess_unowned", CurrentStep: 1,
		Status: models.SessionStatusInProgress, WorkflowStatus: models.WorkflowStatusBacklog}
	db.Create(&unowned)

	// Orphan whose creator has no team
	noTeam, _ := svc.Create(teamless.ID, &CreateSessionRequest{Title: "No Team"})
	_ = noTeam

	// Nothing migrates before the creator joins a team
	result, err := svc.MigrateOrphans()
	if err != nil {
		t.Fatalf("MigrateOrphans() error = %v", err)
	}
	if result.Migrated != 0 || result.Skipped != 4 {
		t.Errorf("before team: migrated=%d skipped=%d, expected 0/4", result.Migrated, result.Skipped)
	}

	team := createTestTeam(t, db, "Marketing", user)

	result, err = svc.MigrateOrphans()
	if err != nil {
		t.Fatalf("MigrateOrphans() error = %v", err)
	}
	if result.Migrated != 2 {
		t.Errorf("migrated = %d, expected 2", result.Migrated)
	}
	if result.Skipped != 2 {
		t.Errorf("skipped = %d, expected 2", result.Skipped)
	}

	var migrated models.Session
	db.First(&migrated, "id = ?", withColumn.ID)
	if migrated.TeamID == nil || *migrated.TeamID != team.ID {
		t.Errorf("column orphan team = %v, expected %d", migrated.TeamID, team.ID)
	}

	// The document fallback also back-fills the created_by column
	db.First(&migrated, "id = ?", legacy.ID)
	if migrated.TeamID == nil || *migrated.TeamID != team.ID {
		t.Errorf("legacy orphan team = %v, expected %d", migrated.TeamID, team.ID)
	}
	if migrated.CreatedBy == nil || *migrated.CreatedBy != user.ID {
		t.Errorf("legacy orphan created_by = %v, expected %d", migrated.CreatedBy, user.ID)
	}

	// Idempotent: a second sweep finds only the still-unresolvable rows
	result, err = svc.MigrateOrphans()
	if err != nil {
		t.Fatalf("MigrateOrphans() error = %v", err)
	}
	if result.Migrated != 0 {
		t.Errorf("second sweep migrated = %d, expected 0", result.Migrated)
	}
	if result.Scanned != 2 {
		t.Errorf("second sweep scanned = %d, expected 2", result.Scanned)
	}
}
