package services

import (
	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Authorization primitives. These always read committed state; role and
// status checks are never cached across requests.

func isPlatformAdmin(db *gorm.DB, userID uuid.UUID) bool {
	var user models.User
	if err := db.First(&user, "id = ?", userID).Error; err != nil {
		return false
	}
	return user.IsAdmin
}

func roleOf(db *gorm.DB, userID, groupID uuid.UUID) (models.Role, bool) {
	var membership models.GroupMember
	err := db.Where("group_id = ? AND user_id = ?", groupID, userID).First(&membership).Error
	if err != nil {
		return "", false
	}
	return membership.Role, true
}

// canAdminister reports whether userID may perform group-admin actions in
// groupID: either a platform admin or the holder of the group's admin role.
func canAdminister(db *gorm.DB, userID, groupID uuid.UUID) bool {
	if role, ok := roleOf(db, userID, groupID); ok && role == models.RoleAdmin {
		return true
	}
	return isPlatformAdmin(db, userID)
}

func isMember(db *gorm.DB, userID, groupID uuid.UUID) bool {
	_, ok := roleOf(db, userID, groupID)
	return ok
}
