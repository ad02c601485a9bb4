package models

import "time"

// Project is a top-level container for tasks, owned by a single identity.
// OwnerID is the verified token subject of the creator and never changes.
type Project struct {
	ID          int64
	OwnerID     string
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validation limits for project fields.
const (
	MaxProjectNameLength        = 120
	MaxProjectDescriptionLength = 2000
)
