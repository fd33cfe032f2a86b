package services

import (
	"testing"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
)

// reviewFixture returns two teammates sharing a session plus an outsider.
func reviewFixture(t *testing.T) (svc *ReviewService, sessionID string, requester, reviewer, outsider *models.User) {
	t.Helper()
	db := newTestDB(t)
	requester = createTestUser(t, db, "requester@example.com")
	reviewer = createTestUser(t, db, "reviewer@example.com")
	outsider = createTestUser(t, db, "outsider@example.com")
	team := createTestTeam(t, db, "Marketing", requester)
	addTestMember(t, db, team.ID, reviewer, models.RoleMember)

	view, err := NewSessionService(db).Create(requester.ID, &CreateSessionRequest{Title: "Draft"})
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return NewReviewService(db), view.ID, requester, reviewer, outsider
}

func TestReviewCreate(t *testing.T) {
	svc, sessionID, requester, reviewer, outsider := reviewFixture(t)

	step := 2
	review, err := svc.Create(requester.ID, &CreateReviewRequest{
		SessionID:  sessionID,
		ReviewerID: reviewer.ID,
		Step:       &step,
		Note:       "please check the intro",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if review.Status != models.ReviewStatusPending {
		t.Errorf("status = %q, expected pending", review.Status)
	}
	if review.RequesterID != requester.ID || review.ReviewerID != reviewer.ID {
		t.Error("requester/reviewer not recorded")
	}

	// Reviewer must be able to see the session
	_, err = svc.Create(requester.ID, &CreateReviewRequest{
		SessionID: sessionID, ReviewerID: outsider.ID,
	})
	assertHTTPStatus(t, err, 400)

	// No self-review
	_, err = svc.Create(requester.ID, &CreateReviewRequest{
		SessionID: sessionID, ReviewerID: requester.ID,
	})
	assertHTTPStatus(t, err, 400)

	// Requester must see the session too
	_, err = svc.Create(outsider.ID, &CreateReviewRequest{
		SessionID: sessionID, ReviewerID: reviewer.ID,
	})
	assertHTTPStatus(t, err, 403)

	_, err = svc.Create(requester.ID, &CreateReviewRequest{
		SessionID: "sess_missing", ReviewerID: reviewer.ID,
	})
	assertHTTPStatus(t, err, 404)
}

func TestReviewList_FiltersAndCounts(t *testing.T) {
	svc, sessionID, requester, reviewer, _ := reviewFixture(t)

	first, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})
	second, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID, Note: "again"})
	third, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID, Note: "third"})

	svc.Respond(first.ID, reviewer.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	svc.Cancel(third.ID, requester.ID)

	// Default filter: pending reviews assigned to the caller
	list, err := svc.List(reviewer.ID, "")
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].ID != second.ID {
		t.Errorf("pending items = %d, expected just the unanswered request", len(list.Items))
	}

	// Counts are independent of the filter
	if list.Counts.Pending != 1 {
		t.Errorf("pending count = %d, expected 1", list.Counts.Pending)
	}
	if list.Counts.Completed != 1 {
		t.Errorf("completed count = %d, expected 1", list.Counts.Completed)
	}

	completed, err := svc.List(reviewer.ID, "completed")
	if err != nil {
		t.Fatalf("List(completed) error = %v", err)
	}
	if len(completed.Items) != 1 || completed.Items[0].ID != first.ID {
		t.Errorf("completed items = %d, expected the approved request", len(completed.Items))
	}

	// Requested: everything authored by the caller, cancelled included
	requested, err := svc.List(requester.ID, "requested")
	if err != nil {
		t.Fatalf("List(requested) error = %v", err)
	}
	if len(requested.Items) != 3 {
		t.Errorf("requested items = %d, expected 3", len(requested.Items))
	}
	if requested.Counts.Requested != 3 {
		t.Errorf("requested count = %d, expected 3", requested.Counts.Requested)
	}

	all, err := svc.List(reviewer.ID, "all")
	if err != nil {
		t.Fatalf("List(all) error = %v", err)
	}
	if len(all.Items) != 3 {
		t.Errorf("all items = %d, expected 3", len(all.Items))
	}

	_, err = svc.List(reviewer.ID, "bogus")
	assertHTTPStatus(t, err, 400)
}

func TestReviewList_CountsMatchFilteredLists(t *testing.T) {
	svc, sessionID, requester, reviewer, _ := reviewFixture(t)

	first, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})
	svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})
	third, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})
	svc.Respond(first.ID, reviewer.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	svc.Cancel(third.ID, requester.ID)

	// Each count equals the length of its filtered list, for both sides
	for _, userID := range []uint{requester.ID, reviewer.ID} {
		pending, err := svc.List(userID, "pending")
		if err != nil {
			t.Fatalf("List(pending) error = %v", err)
		}
		if int64(len(pending.Items)) != pending.Counts.Pending {
			t.Errorf("user %d: pending items = %d, count = %d", userID, len(pending.Items), pending.Counts.Pending)
		}

		completed, err := svc.List(userID, "completed")
		if err != nil {
			t.Fatalf("List(completed) error = %v", err)
		}
		if int64(len(completed.Items)) != completed.Counts.Completed {
			t.Errorf("user %d: completed items = %d, count = %d", userID, len(completed.Items), completed.Counts.Completed)
		}

		requested, err := svc.List(userID, "requested")
		if err != nil {
			t.Fatalf("List(requested) error = %v", err)
		}
		if int64(len(requested.Items)) != requested.Counts.Requested {
			t.Errorf("user %d: requested items = %d, count = %d", userID, len(requested.Items), requested.Counts.Requested)
		}
	}
}

func TestReviewRespond(t *testing.T) {
	svc, sessionID, requester, reviewer, outsider := reviewFixture(t)
	review, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})

	// Verdict must be a response status
	_, err := svc.Respond(review.ID, reviewer.ID, &RespondReviewRequest{Status: models.ReviewStatusPending})
	assertHTTPStatus(t, err, 400)

	// Only the assigned reviewer
	_, err = svc.Respond(review.ID, requester.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	assertHTTPStatus(t, err, 403)
	_, err = svc.Respond(review.ID, outsider.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	assertHTTPStatus(t, err, 403)

	responded, err := svc.Respond(review.ID, reviewer.ID, &RespondReviewRequest{
		Status:       models.ReviewStatusChangesRequested,
		ResponseNote: "needs a stronger hook",
	})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if responded.Status != models.ReviewStatusChangesRequested {
		t.Errorf("status = %q, expected changes_requested", responded.Status)
	}
	if responded.ResponseNote != "needs a stronger hook" {
		t.Errorf("response note = %q", responded.ResponseNote)
	}
	if responded.RespondedAt == nil {
		t.Error("responded_at should be set")
	}

	// Only once
	_, err = svc.Respond(review.ID, reviewer.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	assertHTTPStatus(t, err, 400)
}

func TestReviewCancel(t *testing.T) {
	svc, sessionID, requester, reviewer, _ := reviewFixture(t)
	review, _ := svc.Create(requester.ID, &CreateReviewRequest{SessionID: sessionID, ReviewerID: reviewer.ID})

	// Requester only
	err := svc.Cancel(review.ID, reviewer.ID)
	assertHTTPStatus(t, err, 403)

	if err := svc.Cancel(review.ID, requester.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	// Pending only
	err = svc.Cancel(review.ID, requester.ID)
	assertHTTPStatus(t, err, 400)

	// The reviewer can no longer respond to a cancelled request
	_, err = svc.Respond(review.ID, reviewer.ID, &RespondReviewRequest{Status: models.ReviewStatusApproved})
	assertHTTPStatus(t, err, 400)

	err = svc.Cancel(9999, requester.ID)
	assertHTTPStatus(t, err, 404)
}
