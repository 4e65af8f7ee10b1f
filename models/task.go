package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TaskStatus string

const (
	TaskStarted   TaskStatus = "STARTED"
	TaskCompleted TaskStatus = "COMPLETED"
	TaskFailed    TaskStatus = "FAILED"
)

// BackgroundTask is an audit record for one asynchronous pipeline run.
// It is written by the pipeline and never read back to drive business
// logic.
type BackgroundTask struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TaskID    string     `gorm:"uniqueIndex;not null;size:64" json:"task_id"`
	TaskType  string     `gorm:"not null;size:50" json:"task_type"`
	ProofID   *uuid.UUID `gorm:"type:uuid;index" json:"proof_id,omitempty"`
	Status    TaskStatus `gorm:"type:varchar(10);not null;default:STARTED" json:"status"`
	Error     string     `gorm:"size:1000" json:"error,omitempty"`
	Metadata  string     `gorm:"size:1000" json:"metadata,omitempty"` // JSON-encoded
	StartedAt time.Time  `json:"started_at"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

func (t *BackgroundTask) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (BackgroundTask) TableName() string {
	return "background_tasks"
}
