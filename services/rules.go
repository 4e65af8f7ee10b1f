package services

import (
	"strings"

	"penaltybox-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RuleService struct {
	db *gorm.DB
}

func NewRuleService(db *gorm.DB) *RuleService {
	return &RuleService{db: db}
}

func (s *RuleService) CreateRule(actingUserID, groupID uuid.UUID, title string, amount float64) (*models.Rule, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, Validation("rule title is required")
	}
	if amount <= 0 {
		return nil, Validation("rule amount must be greater than zero")
	}

	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}
	if !canAdminister(s.db, actingUserID, groupID) {
		return nil, Forbidden("only group admins can create rules")
	}

	rule := models.Rule{
		GroupID: groupID,
		Title:   title,
		Amount:  amount,
	}
	if err := s.db.Create(&rule).Error; err != nil {
		return nil, StorageError("failed to create rule", err)
	}
	return &rule, nil
}

func (s *RuleService) UpdateRule(actingUserID, ruleID uuid.UUID, title string, amount float64) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.First(&rule, "id = ?", ruleID).Error; err != nil {
		return nil, NotFound("rule not found")
	}
	if !canAdminister(s.db, actingUserID, rule.GroupID) {
		return nil, Forbidden("only group admins can update rules")
	}

	if title = strings.TrimSpace(title); title != "" {
		rule.Title = title
	}
	if amount != 0 {
		if amount < 0 {
			return nil, Validation("rule amount must be greater than zero")
		}
		rule.Amount = amount
	}

	if err := s.db.Save(&rule).Error; err != nil {
		return nil, StorageError("failed to update rule", err)
	}
	return &rule, nil
}

// DeleteRule is blocked while penalties still reference the rule, so
// historical penalty amounts keep a resolvable origin.
func (s *RuleService) DeleteRule(actingUserID, ruleID uuid.UUID) error {
	var rule models.Rule
	if err := s.db.First(&rule, "id = ?", ruleID).Error; err != nil {
		return NotFound("rule not found")
	}
	if !canAdminister(s.db, actingUserID, rule.GroupID) {
		return Forbidden("only group admins can delete rules")
	}

	var refs int64
	s.db.Model(&models.Penalty{}).Where("rule_id = ?", ruleID).Count(&refs)
	if refs > 0 {
		return Conflict("rule is referenced by existing penalties")
	}

	if err := s.db.Delete(&rule).Error; err != nil {
		return StorageError("failed to delete rule", err)
	}
	return nil
}

func (s *RuleService) ListRules(actingUserID, groupID uuid.UUID) ([]models.Rule, error) {
	var group models.Group
	if err := s.db.First(&group, "id = ?", groupID).Error; err != nil {
		return nil, NotFound("group not found")
	}
	if !isMember(s.db, actingUserID, groupID) && !isPlatformAdmin(s.db, actingUserID) {
		return nil, Forbidden("you are not a member of this group")
	}

	var rules []models.Rule
	if err := s.db.Where("group_id = ?", groupID).Order("created_at DESC").Find(&rules).Error; err != nil {
		return nil, StorageError("failed to list rules", err)
	}
	return rules, nil
}
