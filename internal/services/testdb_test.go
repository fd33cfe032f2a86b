package services

import (
	"path/filepath"
	"testing"

	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a throwaway sqlite database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Team{},
		&models.TeamMember{},
		&models.TeamInvite{},
		&models.Session{},
		&models.ActivityLogEntry{},
		&models.ReviewRequest{},
		&models.LLMConfig{},
		&models.RefreshToken{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Name: email, IsActive: true}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// createTestTeam creates a team with owner via the service, so the owner
// membership invariant holds.
func createTestTeam(t *testing.T, db *gorm.DB, name string, owner *models.User) *models.Team {
	t.Helper()
	team, err := NewTeamService(db).Create(&CreateTeamRequest{Name: name}, owner.ID)
	if err != nil {
		t.Fatalf("failed to create team %s: %v", name, err)
	}
	return team
}

func addTestMember(t *testing.T, db *gorm.DB, teamID uint, user *models.User, role string) *models.TeamMember {
	t.Helper()
	member := &models.TeamMember{TeamID: teamID, UserID: user.ID, Role: role}
	if err := db.Create(member).Error; err != nil {
		t.Fatalf("failed to add member: %v", err)
	}
	return member
}
