package genjob

import (
	"encoding/json"
	"time"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusFailed || s == StatusCancelled
}

const (
	TypePanelGeneration     = "panel_generation"
	TypeCharacterGeneration = "character_generation"
	TypeBatchGeneration     = "batch_generation"
)

type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"job_id"` // ULID length

	UserID  uint64  `gorm:"index;not null" json:"-"`
	PanelID *string `gorm:"type:varchar(36);index" json:"panel_id,omitempty"`

	JobType string `gorm:"type:varchar(50);not null" json:"job_type"`
	Status  Status `gorm:"type:varchar(16);index;not null" json:"status"`

	Input json.RawMessage `gorm:"type:json" json:"input,omitempty"`

	// Filled on success
	Result json.RawMessage `gorm:"type:json" json:"result,omitempty"`

	// Filled on failure
	Error json.RawMessage `gorm:"type:json" json:"error,omitempty"`

	EstimatedCredits         int `gorm:"not null" json:"estimated_credits"`
	EstimatedDurationSeconds int `gorm:"not null;default:0" json:"estimated_duration_seconds"`
	Progress                 int `gorm:"not null;default:0" json:"progress"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (Job) TableName() string { return "generation_jobs" }

// errorPayload is the shape stored in Job.Error.
type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func marshalError(msg string) json.RawMessage {
	b, err := json.Marshal(errorPayload{Code: "GENERATION_FAILED", Message: msg})
	if err != nil {
		return json.RawMessage(`{"code":"GENERATION_FAILED"}`)
	}
	return b
}
