package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PenaltyStatus string

const (
	PenaltyUnpaid PenaltyStatus = "UNPAID"
	PenaltyPaid   PenaltyStatus = "PAID"
)

func (s PenaltyStatus) Valid() bool {
	return s == PenaltyUnpaid || s == PenaltyPaid
}

// Penalty is a fine owed by a user to a group under a rule. The amount is
// copied from the rule at creation time and never recomputed.
type Penalty struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	GroupID   uuid.UUID     `gorm:"type:uuid;index" json:"group_id"`
	RuleID    uuid.UUID     `gorm:"type:uuid;index" json:"rule_id"`
	Amount    float64       `gorm:"type:decimal(12,2);not null" json:"amount"`
	Note      string        `gorm:"size:500" json:"note,omitempty"`
	Status    PenaltyStatus `gorm:"type:varchar(10);not null;default:UNPAID" json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (p *Penalty) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreatePenaltyRequest struct {
	UserID string `json:"user_id" binding:"required"`
	RuleID string `json:"rule_id" binding:"required"`
	Note   string `json:"note"`
}

type UpdatePenaltyStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
