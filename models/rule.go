package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Rule struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	GroupID   uuid.UUID `gorm:"type:uuid;index" json:"group_id"`
	Title     string    `gorm:"not null;size:255" json:"title"`
	Amount    float64   `gorm:"type:decimal(12,2);not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Rule) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Request structs
type CreateRuleRequest struct {
	Title  string  `json:"title" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
}

type UpdateRuleRequest struct {
	Title  string  `json:"title"`
	Amount float64 `json:"amount"`
}
