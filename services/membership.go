package services

import (
	"sort"
	"strings"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MembershipService owns the group ↔ user relationship and enforces the
// last-admin invariant: a group with members always keeps at least one
// admin membership.
type MembershipService struct {
	db *gorm.DB
}

func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{db: db}
}

// CreateGroup creates the group and enrolls the creator as admin in one
// transaction.
func (s *MembershipService) CreateGroup(creatorID uuid.UUID, name, description string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, Validation("group name is required")
	}

	group := models.Group{
		Name:        name,
		Description: description,
		CreatedBy:   creatorID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&group).Error; err != nil {
			return StorageError("failed to create group", err)
		}
		member := models.GroupMember{
			GroupID: group.ID,
			UserID:  creatorID,
			Role:    models.RoleAdmin,
		}
		if err := tx.Create(&member).Error; err != nil {
			return StorageError("failed to enroll group creator", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *MembershipService) AddMember(actingUserID, groupID, targetUserID uuid.UUID, role models.Role) (*models.GroupMember, error) {
	if role == "" {
		role = models.RoleMember
	}
	if !role.Valid() {
		return nil, Validation("role must be admin or member")
	}

	if !canAdminister(s.db, actingUserID, groupID) {
		return nil, Forbidden("only group admins can add members")
	}

	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}
	var target models.User
	if err := s.db.First(&target, "id = ?", targetUserID).Error; err != nil {
		return nil, NotFound("user not found")
	}

	member := models.GroupMember{
		GroupID: groupID,
		UserID:  targetUserID,
		Role:    role,
	}
	if err := s.db.Create(&member).Error; err != nil {
		// The composite primary key rejects duplicates, including ones
		// racing this call.
		var existing models.GroupMember
		if s.db.Where("group_id = ? AND user_id = ?", groupID, targetUserID).First(&existing).Error == nil {
			return nil, Conflict("user is already a member of this group")
		}
		return nil, StorageError("failed to add member", err)
	}
	return &member, nil
}

// RemoveMember deletes a membership. The transaction takes a write lock
// on the group row before counting admins, so two concurrent removals of
// different admins cannot both observe "two admins" and leave none.
func (s *MembershipService) RemoveMember(actingUserID, groupID, targetUserID uuid.UUID) error {
	if !canAdminister(s.db, actingUserID, groupID) {
		return Forbidden("only group admins can remove members")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// Removals for the same group serialize on the group row; the
		// admin count below must not run against a pre-removal snapshot.
		if err := tx.Exec(`UPDATE groups SET updated_at = updated_at WHERE id = ?`, groupID).Error; err != nil {
			return StorageError("failed to lock group", err)
		}

		var membership models.GroupMember
		if err := tx.Where("group_id = ? AND user_id = ?", groupID, targetUserID).First(&membership).Error; err != nil {
			return NotFound("membership not found")
		}

		res := tx.Exec(`
			DELETE FROM user_groups
			WHERE group_id = ? AND user_id = ?
			AND (role <> 'admin'
			     OR (SELECT COUNT(*) FROM user_groups ug
			         WHERE ug.group_id = ? AND ug.role = 'admin') > 1)`,
			groupID, targetUserID, groupID)
		if res.Error != nil {
			return StorageError("failed to remove member", res.Error)
		}
		if res.RowsAffected == 0 {
			return Conflict("cannot remove last admin")
		}
		return nil
	})
}

// RoleOf is the authorization primitive used by every group-scoped
// operation.
func (s *MembershipService) RoleOf(userID, groupID uuid.UUID) (models.Role, bool) {
	return roleOf(s.db, userID, groupID)
}

func (s *MembershipService) ListGroupsForUser(userID uuid.UUID) ([]models.GroupSummary, error) {
	var memberships []models.GroupMember
	if err := s.db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		return nil, StorageError("failed to list memberships", err)
	}

	summaries := make([]models.GroupSummary, 0, len(memberships))
	for _, m := range memberships {
		var group models.Group
		if err := s.db.First(&group, "id = ?", m.GroupID).Error; err != nil {
			continue
		}

		var memberCount, adminCount int64
		s.db.Model(&models.GroupMember{}).Where("group_id = ?", m.GroupID).Count(&memberCount)
		s.db.Model(&models.GroupMember{}).Where("group_id = ? AND role = ?", m.GroupID, models.RoleAdmin).Count(&adminCount)

		summaries = append(summaries, models.GroupSummary{
			ID:          group.ID,
			Name:        group.Name,
			Description: group.Description,
			Role:        m.Role,
			MemberCount: memberCount,
			AdminCount:  adminCount,
			CreatedAt:   group.CreatedAt,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (s *MembershipService) GetGroup(actingUserID, groupID uuid.UUID) (*models.GroupResponse, error) {
	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}

	if !isMember(s.db, actingUserID, groupID) && !isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("you are not a member of this group")
	}

	var members []models.GroupMember
	if err := s.db.Where("group_id = ?", groupID).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, StorageError("failed to load members", err)
	}

	memberResponses := make([]models.GroupMemberResponse, 0, len(members))
	for _, m := range members {
		var user models.User
		if err := s.db.First(&user, "id = ?", m.UserID).Error; err != nil {
			continue
		}
		memberResponses = append(memberResponses, models.GroupMemberResponse{
			UserID:   user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}

	return &models.GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		CreatedBy:   group.CreatedBy,
		Members:     memberResponses,
		CreatedAt:   group.CreatedAt,
	}, nil
}

// Leaderboard aggregates per-member penalty totals for a group, sorted
// descending by the requested key.
func (s *MembershipService) Leaderboard(actingUserID, groupID uuid.UUID, sortBy string) ([]models.LeaderboardEntry, error) {
	switch sortBy {
	case "":
		sortBy = "total_amount"
	case "total_penalties", "total_amount", "paid_amount", "unpaid_amount":
	default:
		return nil, Validation("invalid sort_by value")
	}

	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}
	if !isMember(s.db, actingUserID, groupID) && !isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("you are not a member of this group")
	}

	var members []models.GroupMember
	if err := s.db.Where("group_id = ?", groupID).Find(&members).Error; err != nil {
		return nil, StorageError("failed to load members", err)
	}

	entries := make([]models.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		var user models.User
		if err := s.db.First(&user, "id = ?", m.UserID).Error; err != nil {
			continue
		}

		var penalties []models.Penalty
		s.db.Where("group_id = ? AND user_id = ?", groupID, m.UserID).Find(&penalties)

		entry := models.LeaderboardEntry{UserID: user.ID, Name: user.Name}
		for _, p := range penalties {
			entry.TotalPenalties++
			entry.TotalAmount += p.Amount
			if p.Status == models.PenaltyPaid {
				entry.PaidAmount += p.Amount
			} else {
				entry.UnpaidAmount += p.Amount
			}
		}
		entries = append(entries, entry)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch sortBy {
		case "total_penalties":
			if a.TotalPenalties != b.TotalPenalties {
				return a.TotalPenalties > b.TotalPenalties
			}
		case "paid_amount":
			if a.PaidAmount != b.PaidAmount {
				return a.PaidAmount > b.PaidAmount
			}
		case "unpaid_amount":
			if a.UnpaidAmount != b.UnpaidAmount {
				return a.UnpaidAmount > b.UnpaidAmount
			}
		default:
			if a.TotalAmount != b.TotalAmount {
				return a.TotalAmount > b.TotalAmount
			}
		}
		return a.Name < b.Name
	})
	return entries, nil
}
