package entity

import (
	"database/sql"
	"time"

	"gorm.io/datatypes"
)

// JobType is the kind of work a queued job performs.
type JobType string

const (
	JobTypeCollect JobType = "COLLECT"
	JobTypeAnalyze JobType = "ANALYZE"
	JobTypeBoth    JobType = "BOTH"
)

// JobPriority controls queue placement: HIGH jobs are consumed first.
type JobPriority string

const (
	JobPriorityLow    JobPriority = "LOW"
	JobPriorityNormal JobPriority = "NORMAL"
	JobPriorityHigh   JobPriority = "HIGH"
)

// JobStatus is the lifecycle state of a job execution.
type JobStatus string

const (
	JobStatusPending   JobStatus = "PENDING"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusFailed    JobStatus = "FAILED"
)

// JobExecution records one processed job: its outcome, duration, and the JSON
// result payload produced by the job strategy.
type JobExecution struct {
	ID           uint           `gorm:"primaryKey" json:"-"`
	JobID        string         `gorm:"uniqueIndex;not null" json:"job_id"`
	Type         JobType        `gorm:"not null" json:"type"`
	Priority     JobPriority    `gorm:"not null" json:"priority"`
	Status       JobStatus      `gorm:"not null" json:"status"`
	Result       datatypes.JSON `json:"result,omitempty"`
	ErrorMessage sql.NullString `json:"error_message,omitempty"`
	StartedAt    time.Time      `json:"started_at"`
	CompletedAt  sql.NullTime   `json:"completed_at"`
	DurationMS   int64          `json:"duration_ms"`
}
