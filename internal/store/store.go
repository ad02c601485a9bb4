package store

import (
	"context"
	"errors"
	"time"

	"github.com/wolfeidau/tracker/internal/models"
)

// Sentinel errors for common error conditions. A lookup scoped to the wrong
// owner returns the same not-found error as a missing row, so callers cannot
// tell another tenant's record exists.
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("task not found")
)

// ProjectStore defines storage operations for projects. Every method is
// scoped to a single owner identity.
type ProjectStore interface {
	// Create inserts a new project and fills in its generated ID and
	// timestamps.
	Create(ctx context.Context, project *models.Project) error

	// ListByOwner returns all projects for an owner ordered by ascending ID.
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error)

	// Get returns the project with the given ID if it belongs to the owner,
	// otherwise ErrProjectNotFound.
	Get(ctx context.Context, id int64, ownerID string) (*models.Project, error)

	// Delete removes the project and, via cascade, all of its tasks.
	// Returns ErrProjectNotFound if the project is missing or foreign.
	Delete(ctx context.Context, id int64, ownerID string) error
}

// OptionalTime is a three-state optional timestamp for partial updates:
// unset (leave the column untouched), a value, or an explicit null that
// clears the column.
type OptionalTime struct {
	Set  bool
	Time *time.Time
}

// TaskPatch carries the fields of a partial task update. A nil pointer means
// the field was omitted from the request and must be left untouched.
type TaskPatch struct {
	Title    *string
	Status   *models.TaskStatus
	Priority *models.TaskPriority
	Deadline OptionalTime
}

// Empty reports whether the patch changes nothing.
func (p *TaskPatch) Empty() bool {
	return p.Title == nil && p.Status == nil && p.Priority == nil && !p.Deadline.Set
}

// TaskStore defines storage operations for tasks. Creation and listing
// resolve the parent project under the same owner first; task lookups by ID
// are scoped to the owner alone.
type TaskStore interface {
	// Create inserts a new task under task.ProjectID after verifying the
	// project belongs to task.OwnerID. Returns ErrProjectNotFound when the
	// project is missing or foreign.
	Create(ctx context.Context, task *models.Task) error

	// ListByProject returns the owner's tasks under a project ordered by
	// ascending ID. Returns ErrProjectNotFound when the project is missing
	// or foreign.
	ListByProject(ctx context.Context, projectID int64, ownerID string) ([]*models.Task, error)

	// Get returns the task with the given ID if it belongs to the owner,
	// otherwise ErrTaskNotFound.
	Get(ctx context.Context, id int64, ownerID string) (*models.Task, error)

	// Update applies the patch to the owner's task and returns the updated
	// row with a refreshed UpdatedAt. Returns ErrTaskNotFound if the task is
	// missing or foreign.
	Update(ctx context.Context, id int64, ownerID string, patch *TaskPatch) (*models.Task, error)

	// Delete removes the owner's task. Returns ErrTaskNotFound if the task
	// is missing or foreign.
	Delete(ctx context.Context, id int64, ownerID string) error
}
