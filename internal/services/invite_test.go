package services

import (
	"testing"
	"time"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
)

func TestInviteCreate_RoleGates(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	admin := createTestUser(t, db, "admin@example.com")
	member := createTestUser(t, db, "member@example.com")
	team := createTestTeam(t, db, "Marketing", owner)
	addTestMember(t, db, team.ID, admin, models.RoleAdmin)
	addTestMember(t, db, team.ID, member, models.RoleMember)

	svc := NewInviteService(db)

	// Member cannot invite
	_, err := svc.Create(team.ID, "member@example.com", &CreateInviteRequest{Email: "a@example.com"})
	assertHTTPStatus(t, err, 403)

	// Admin can invite members
	invite, err := svc.Create(team.ID, "admin@example.com", &CreateInviteRequest{Email: "b@example.com"})
	if err != nil {
		t.Fatalf("admin invite error = %v", err)
	}
	if invite.Role != models.RoleMember {
		t.Errorf("default role = %q, expected %q", invite.Role, models.RoleMember)
	}
	if invite.Status != models.InviteStatusPending {
		t.Errorf("status = %q, expected pending", invite.Status)
	}

	// Admin cannot grant admin
	_, err = svc.Create(team.ID, "admin@example.com", &CreateInviteRequest{Email: "c@example.com", Role: models.RoleAdmin})
	assertHTTPStatus(t, err, 403)

	// Owner can grant admin
	if _, err := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "c@example.com", Role: models.RoleAdmin}); err != nil {
		t.Fatalf("owner admin invite error = %v", err)
	}
}

func TestInviteCreate_Duplicates(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	member := createTestUser(t, db, "member@example.com")
	team := createTestTeam(t, db, "Marketing", owner)
	addTestMember(t, db, team.ID, member, models.RoleMember)

	svc := NewInviteService(db)

	// Existing member
	_, err := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "member@example.com"})
	assertHTTPStatus(t, err, 400)

	// One pending invite per (team, email); emails compared lower-cased
	if _, err := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "new@example.com"}); err != nil {
		t.Fatalf("first invite error = %v", err)
	}
	_, err = svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "NEW@Example.com"})
	assertHTTPStatus(t, err, 400)
}

func TestInviteCreate_InvalidRole(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	team := createTestTeam(t, db, "Marketing", owner)

	_, err := NewInviteService(db).Create(team.ID, "owner@example.com", &CreateInviteRequest{
		Email: "x@example.com", Role: "superuser",
	})
	assertHTTPStatus(t, err, 400)
}

func TestInviteAccept(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	team := createTestTeam(t, db, "Marketing", owner)

	svc := NewInviteService(db)
	invite, err := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "new@example.com"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// Accepting provisions the user row
	member, err := svc.Accept(invite.ID, "New@Example.com", "New Person")
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if member.TeamID != team.ID {
		t.Errorf("member team = %d, expected %d", member.TeamID, team.ID)
	}
	if member.Role != models.RoleMember {
		t.Errorf("member role = %q, expected member", member.Role)
	}

	var stored models.TeamInvite
	db.First(&stored, invite.ID)
	if stored.Status != models.InviteStatusAccepted {
		t.Errorf("invite status = %q, expected accepted", stored.Status)
	}

	var user models.User
	if err := db.Where("email = ?", "new@example.com").First(&user).Error; err != nil {
		t.Fatalf("provisioned user not found: %v", err)
	}
	if user.Name != "New Person" {
		t.Errorf("user name = %q, expected %q", user.Name, "New Person")
	}

	// Terminal: accepting again fails
	_, err = svc.Accept(invite.ID, "new@example.com", "")
	assertHTTPStatus(t, err, 400)
}

func TestInviteAccept_EmailMismatch(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	team := createTestTeam(t, db, "Marketing", owner)

	svc := NewInviteService(db)
	invite, _ := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "right@example.com"})

	_, err := svc.Accept(invite.ID, "wrong@example.com", "")
	assertHTTPStatus(t, err, 403)
}

func TestInviteAccept_Expired(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	team := createTestTeam(t, db, "Marketing", owner)

	svc := NewInviteService(db)
	invite, _ := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "late@example.com"})

	db.Model(&models.TeamInvite{}).Where("id = ?", invite.ID).
		Update("expires_at", time.Now().Add(-time.Hour))

	_, err := svc.Accept(invite.ID, "late@example.com", "")
	assertHTTPStatus(t, err, 400)

	// Expiry is durable: the invite flips to expired, not just the response
	var stored models.TeamInvite
	db.First(&stored, invite.ID)
	if stored.Status != models.InviteStatusExpired {
		t.Errorf("invite status = %q, expected expired", stored.Status)
	}
}

func TestInviteAccept_AlreadyMember(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	team := createTestTeam(t, db, "Marketing", owner)

	svc := NewInviteService(db)
	invite, _ := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "dup@example.com"})

	user := createTestUser(t, db, "dup@example.com")
	addTestMember(t, db, team.ID, user, models.RoleMember)

	_, err := svc.Accept(invite.ID, "dup@example.com", "")
	assertHTTPStatus(t, err, 400)

	// The invite is consumed even though no second membership was created
	var stored models.TeamInvite
	db.First(&stored, invite.ID)
	if stored.Status != models.InviteStatusAccepted {
		t.Errorf("invite status = %q, expected accepted", stored.Status)
	}

	var count int64
	db.Model(&models.TeamMember{}).
		Where("team_id = ? AND user_id = ?", team.ID, user.ID).
		Count(&count)
	if count != 1 {
		t.Errorf("membership count = %d, expected 1", count)
	}
}

func TestInviteAccept_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := NewInviteService(db).Accept(9999, "any@example.com", "")
	assertHTTPStatus(t, err, 404)
}

func TestInviteCancel(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	member := createTestUser(t, db, "member@example.com")
	team := createTestTeam(t, db, "Marketing", owner)
	addTestMember(t, db, team.ID, member, models.RoleMember)

	svc := NewInviteService(db)
	invite, _ := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "x@example.com"})

	// Member cannot cancel
	err := svc.Cancel(team.ID, "member@example.com", invite.ID)
	assertHTTPStatus(t, err, 403)

	if err := svc.Cancel(team.ID, "owner@example.com", invite.ID); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}

	var stored models.TeamInvite
	db.First(&stored, invite.ID)
	if stored.Status != models.InviteStatusCancelled {
		t.Errorf("status = %q, expected cancelled", stored.Status)
	}

	// Terminal: cancelling again fails
	err = svc.Cancel(team.ID, "owner@example.com", invite.ID)
	assertHTTPStatus(t, err, 400)

	// A cancelled invite frees the (team, email) slot
	if _, err := svc.Create(team.ID, "owner@example.com", &CreateInviteRequest{Email: "x@example.com"}); err != nil {
		t.Fatalf("re-invite after cancel error = %v", err)
	}
}

func TestPendingForEmail(t *testing.T) {
	db := newTestDB(t)
	ownerA := createTestUser(t, db, "a@example.com")
	ownerB := createTestUser(t, db, "b@example.com")
	teamA := createTestTeam(t, db, "Alpha", ownerA)
	teamB := createTestTeam(t, db, "Beta", ownerB)

	svc := NewInviteService(db)
	svc.Create(teamA.ID, "a@example.com", &CreateInviteRequest{Email: "invitee@example.com"})
	inviteB, _ := svc.Create(teamB.ID, "b@example.com", &CreateInviteRequest{Email: "invitee@example.com"})
	svc.Cancel(teamB.ID, "b@example.com", inviteB.ID)

	invites, err := svc.PendingForEmail("Invitee@Example.com")
	if err != nil {
		t.Fatalf("PendingForEmail() error = %v", err)
	}
	if len(invites) != 1 {
		t.Fatalf("pending count = %d, expected 1", len(invites))
	}
	if invites[0].TeamID != teamA.ID {
		t.Errorf("pending invite team = %d, expected %d", invites[0].TeamID, teamA.ID)
	}
}
