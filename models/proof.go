package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProofStatus string

const (
	ProofPending  ProofStatus = "PENDING"
	ProofApproved ProofStatus = "APPROVED"
	ProofDeclined ProofStatus = "DECLINED"
)

// Terminal reports whether the status admits no further transition.
func (s ProofStatus) Terminal() bool {
	return s == ProofApproved || s == ProofDeclined
}

// Proof is evidence submitted to justify marking a penalty settled.
// ImageURL starts at the uploaded path and is swapped to the thumbnail
// path once the background pipeline completes.
type Proof struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	PenaltyID  uuid.UUID   `gorm:"type:uuid;index" json:"penalty_id"`
	ImageURL   string      `gorm:"not null;size:500" json:"image_url"`
	Status     ProofStatus `gorm:"type:varchar(10);not null;default:PENDING" json:"status"`
	ReviewedBy *uuid.UUID  `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time  `json:"reviewed_at,omitempty"`
	AdminNote  string      `gorm:"size:500" json:"admin_note,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}

func (p *Proof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ReviewProofRequest struct {
	Note string `json:"note"`
}
