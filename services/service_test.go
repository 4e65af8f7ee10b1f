package services

import (
	"path/filepath"
	"testing"

	"penaltybox-backend/config"
	"penaltybox-backend/database"
	"penaltybox-backend/models"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB creates a migrated sqlite database in a temp directory.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// quietNotifier returns a Notifier with no API key, so every send is a
// no-op.
func quietNotifier() *Notifier {
	return NewNotifier(&config.Config{AppName: "test"})
}

func createTestUser(t *testing.T, db *gorm.DB, name string, platformAdmin bool) models.User {
	t.Helper()

	user := models.User{
		Name:         name,
		Email:        name + "@example.com",
		PasswordHash: "x",
		IsAdmin:      platformAdmin,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", name, err)
	}
	return user
}

// createTestGroup builds a group through the service so the creator is
// enrolled as admin.
func createTestGroup(t *testing.T, members *MembershipService, creator models.User, name string) models.Group {
	t.Helper()

	group, err := members.CreateGroup(creator.ID, name, "")
	if err != nil {
		t.Fatalf("failed to create group %s: %v", name, err)
	}
	return *group
}

func createTestRule(t *testing.T, rules *RuleService, admin models.User, groupID uuid.UUID, title string, amount float64) models.Rule {
	t.Helper()

	rule, err := rules.CreateRule(admin.ID, groupID, title, amount)
	if err != nil {
		t.Fatalf("failed to create rule %s: %v", title, err)
	}
	return *rule
}
