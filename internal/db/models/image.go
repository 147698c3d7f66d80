package models

import (
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Image is a stored segmentation output.
type Image struct {
	bun.BaseModel `bun:"table:images"`

	ID        uuid.UUID    `bun:",pk"`
	Url       string       `bun:",notnull"`
	JobID     uuid.UUID    `bun:",notnull"`
	MediaType string       `bun:",nullzero"`
	Width     int          `bun:",nullzero"`
	Height    int          `bun:",nullzero"`
	UpdatedAt bun.NullTime `bun:",nullzero,notnull,default:current_timestamp"`
	CreatedAt bun.NullTime `bun:",nullzero,notnull,default:current_timestamp"`
}
