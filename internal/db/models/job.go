package models

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type JobStatus string

const (
	JobStatusFailed    JobStatus = "FAILED"
	JobStatusQueued    JobStatus = "IN_QUEUE"
	JobStatusCompleted JobStatus = "COMPLETED"
	JobStatusProgress  JobStatus = "IN_PROGRESS"
)

// Job records one asynchronous segmentation request: the parameters it
// was submitted with, where its output ended up and how it finished.
type Job struct {
	bun.BaseModel `bun:"table:jobs"`

	ID          uuid.UUID       `bun:",pk"`
	Status      JobStatus       `bun:",notnull"`
	Filename    string          `bun:",nullzero"`
	Input       json.RawMessage `bun:",type:jsonb,notnull"`
	ResultUrl   string          `bun:",nullzero"`
	Error       string          `bun:",nullzero"`
	CompletedAt bun.NullTime    `bun:",nullzero"`
	UpdatedAt   bun.NullTime    `bun:",nullzero,notnull,default:current_timestamp"`
	CreatedAt   bun.NullTime    `bun:",nullzero,notnull,default:current_timestamp"`
}
