package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is immutable once created. Settlement happens through the
// penalty_payments allocation rows, not on the payment itself.
type Payment struct {
	ID                uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID            uuid.UUID  `gorm:"type:uuid;index" json:"user_id"`
	Amount            float64    `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaymentMethod     string     `gorm:"not null;size:20;default:CASH" json:"payment_method"`
	ReferenceID       string     `gorm:"size:100" json:"reference_id,omitempty"`
	ApprovedByAdminID *uuid.UUID `gorm:"type:uuid" json:"approved_by_admin_id,omitempty"`
	Notes             string     `gorm:"size:500" json:"notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// PenaltyPayment is the portion of a single payment applied to a single
// penalty. For a given payment the allocation amounts never sum past the
// payment amount.
type PenaltyPayment struct {
	PenaltyID uuid.UUID `gorm:"type:uuid;primaryKey" json:"penalty_id"`
	PaymentID uuid.UUID `gorm:"type:uuid;primaryKey" json:"payment_id"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (PenaltyPayment) TableName() string {
	return "penalty_payments"
}

// Request structs
type AllocationInput struct {
	PenaltyID string  `json:"penalty_id" binding:"required"`
	Amount    float64 `json:"amount" binding:"required,gt=0"`
}

type RecordPaymentRequest struct {
	UserID        string            `json:"user_id" binding:"required"`
	Amount        float64           `json:"amount" binding:"required,gt=0"`
	PaymentMethod string            `json:"payment_method"`
	ReferenceID   string            `json:"reference_id"`
	Notes         string            `json:"notes"`
	Allocations   []AllocationInput `json:"allocations" binding:"required,min=1"`
}

type CashPaymentRequest struct {
	Note string `json:"note"`
}

// Response
type PaymentResponse struct {
	Payment     Payment          `json:"payment"`
	Allocations []PenaltyPayment `json:"allocations"`
}
