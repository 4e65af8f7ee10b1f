package services

import (
	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PenaltyService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewPenaltyService(db *gorm.DB, notifier *Notifier) *PenaltyService {
	return &PenaltyService{db: db, notifier: notifier}
}

// CreatePenalty stamps the penalty with the rule's amount at this instant;
// later rule edits never change existing penalties.
func (s *PenaltyService) CreatePenalty(actingUserID, groupID, targetUserID, ruleID uuid.UUID, note string) (*models.Penalty, error) {
	if !canAdminister(s.db, actingUserID, groupID) {
		return nil, Forbidden("only group admins can create penalties")
	}

	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}
	var target models.User
	if err := s.db.First(&target, "id = ?", targetUserID).Error; err != nil {
		return nil, NotFound("user not found")
	}
	if !isMember(s.db, targetUserID, groupID) {
		return nil, Validation("user is not a member of this group")
	}

	var rule models.Rule
	if err := s.db.First(&rule, "id = ?", ruleID).Error; err != nil {
		return nil, NotFound("rule not found")
	}
	if rule.GroupID != groupID {
		return nil, Validation("rule does not belong to this group")
	}

	penalty := models.Penalty{
		UserID:  targetUserID,
		GroupID: groupID,
		RuleID:  ruleID,
		Amount:  rule.Amount,
		Note:    note,
		Status:  models.PenaltyUnpaid,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&penalty).Error; err != nil {
			return StorageError("failed to create penalty", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", targetUserID).
			Update("balance", gorm.Expr("balance + ?", rule.Amount)).Error
	})
	if err != nil {
		return nil, err
	}

	go s.notifier.PenaltyAssigned(target, group, rule)

	return &penalty, nil
}

// ListPenalties returns newest first; clients rely on this ordering.
func (s *PenaltyService) ListPenalties(groupID, userID *uuid.UUID) ([]models.Penalty, error) {
	query := s.db.Order("created_at DESC")
	if groupID != nil {
		query = query.Where("group_id = ?", *groupID)
	}
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var penalties []models.Penalty
	if err := query.Find(&penalties).Error; err != nil {
		return nil, StorageError("failed to list penalties", err)
	}
	return penalties, nil
}

// UpdateStatus is the explicit admin override, e.g. reversing a penalty
// that was settled by mistake.
func (s *PenaltyService) UpdateStatus(actingUserID, penaltyID uuid.UUID, status models.PenaltyStatus) (*models.Penalty, error) {
	if !status.Valid() {
		return nil, Validation("status must be PAID or UNPAID")
	}

	var penalty models.Penalty
	if err := s.db.First(&penalty, "id = ?", penaltyID).Error; err != nil {
		return nil, NotFound("penalty not found")
	}
	if !canAdminister(s.db, actingUserID, penalty.GroupID) {
		return nil, Forbidden("only group admins can update penalty status")
	}

	if penalty.Status == status {
		return &penalty, nil
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if status == models.PenaltyPaid {
			_, err := settlePenalty(tx, penaltyID)
			return err
		}
		if err := tx.Model(&models.Penalty{}).Where("id = ?", penaltyID).
			Update("status", models.PenaltyUnpaid).Error; err != nil {
			return StorageError("failed to update penalty", err)
		}
		return tx.Model(&models.User{}).
			Where("id = ?", penalty.UserID).
			Update("balance", gorm.Expr("balance + ?", penalty.Amount)).Error
	})
	if err != nil {
		return nil, err
	}

	penalty.Status = status
	return &penalty, nil
}

// settlePenalty flips an UNPAID penalty to PAID with a conditional update
// so concurrent settlements resolve to exactly one flip, then lowers the
// owner's informational balance. Reports whether this call did the flip.
func settlePenalty(tx *gorm.DB, penaltyID uuid.UUID) (bool, error) {
	res := tx.Model(&models.Penalty{}).
		Where("id = ? AND status = ?", penaltyID, models.PenaltyUnpaid).
		Update("status", models.PenaltyPaid)
	if res.Error != nil {
		return false, StorageError("failed to settle penalty", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, debitOwnerBalance(tx, penaltyID)
}

// debitOwnerBalance lowers the owner's informational balance by the
// penalty amount after a PAID flip, clamped at zero. Both settlement
// paths go through here.
func debitOwnerBalance(tx *gorm.DB, penaltyID uuid.UUID) error {
	var penalty models.Penalty
	if err := tx.First(&penalty, "id = ?", penaltyID).Error; err != nil {
		return StorageError("failed to reload penalty", err)
	}
	var user models.User
	if err := tx.First(&user, "id = ?", penalty.UserID).Error; err != nil {
		return StorageError("failed to load penalty owner", err)
	}

	balance := user.Balance - penalty.Amount
	if balance < 0 {
		balance = 0
	}
	if err := tx.Model(&user).Update("balance", balance).Error; err != nil {
		return StorageError("failed to update balance", err)
	}
	return nil
}
