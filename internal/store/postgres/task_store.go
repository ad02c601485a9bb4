package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// TaskStore implements store.TaskStore using PostgreSQL.
type TaskStore struct {
	pool *pgxpool.Pool
}

// NewTaskStore creates a new PostgreSQL-backed task store.
// It shares the connection pool with other stores.
func NewTaskStore(pool *pgxpool.Pool) *TaskStore {
	return &TaskStore{
		pool: pool,
	}
}

const taskColumns = `id, project_id, owner_id, title, status::text, priority::text, deadline, created_at, updated_at`

func scanTask(row pgx.Row) (*models.Task, error) {
	var task models.Task
	var status, priority string
	err := row.Scan(
		&task.ID,
		&task.ProjectID,
		&task.OwnerID,
		&task.Title,
		&status,
		&priority,
		&task.Deadline,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = models.TaskStatus(status)
	task.Priority = models.TaskPriority(priority)
	return &task, nil
}

// Create inserts a new task after verifying the parent project belongs to the
// task's owner. Both steps run in one transaction so the project cannot be
// deleted between the check and the insert.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	var projectID int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM projects WHERE id = $1 AND owner_id = $2`,
		task.ProjectID, task.OwnerID,
	).Scan(&projectID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return store.ErrProjectNotFound
		}
		return fmt.Errorf("failed to resolve project: %w", mapPostgresError(err))
	}

	query := `
		INSERT INTO tasks (project_id, owner_id, title, status, priority, deadline)
		VALUES ($1, $2, $3, $4::task_status, $5::task_priority, $6)
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(ctx, query,
		task.ProjectID,
		task.OwnerID,
		task.Title,
		task.Status.String(),
		task.Priority.String(),
		task.Deadline,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", mapPostgresError(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit task create: %w", err)
	}

	log.Debug().
		Int64("task_id", task.ID).
		Int64("project_id", task.ProjectID).
		Msg("Created task")

	return nil
}

// ListByProject returns the owner's tasks under a project in creation order.
// The parent project is resolved first so a missing or foreign project yields
// ErrProjectNotFound rather than an empty list.
func (s *TaskStore) ListByProject(ctx context.Context, projectID int64, ownerID string) ([]*models.Task, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var id int64
	err = tx.QueryRow(ctx,
		`SELECT id FROM projects WHERE id = $1 AND owner_id = $2`,
		projectID, ownerID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to resolve project: %w", mapPostgresError(err))
	}

	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE project_id = $1 AND owner_id = $2
		ORDER BY id ASC
	`

	rows, err := tx.Query(ctx, query, projectID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var tasks []*models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit task list: %w", err)
	}

	return tasks, nil
}

// Get retrieves a task by ID scoped to an owner. Lookup is across all of the
// owner's tasks, not additionally scoped to a project.
func (s *TaskStore) Get(ctx context.Context, id int64, ownerID string) (*models.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE id = $1 AND owner_id = $2
	`

	task, err := scanTask(s.pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", mapPostgresError(err))
	}

	return task, nil
}

// Update applies a partial update to the owner's task. Only the fields set on
// the patch appear in the SET clause; updated_at always refreshes.
func (s *TaskStore) Update(ctx context.Context, id int64, ownerID string, patch *store.TaskPatch) (*models.Task, error) {
	if patch.Empty() {
		// Nothing to apply, but the task must still exist for the caller.
		return s.Get(ctx, id, ownerID)
	}

	sets := []string{"updated_at = now()"}
	args := []any{id, ownerID}
	idx := 3

	if patch.Title != nil {
		sets = append(sets, fmt.Sprintf("title = $%d", idx))
		args = append(args, *patch.Title)
		idx++
	}
	if patch.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d::task_status", idx))
		args = append(args, patch.Status.String())
		idx++
	}
	if patch.Priority != nil {
		sets = append(sets, fmt.Sprintf("priority = $%d::task_priority", idx))
		args = append(args, patch.Priority.String())
		idx++
	}
	if patch.Deadline.Set {
		// A nil time here means the client sent an explicit null to clear it.
		sets = append(sets, fmt.Sprintf("deadline = $%d", idx))
		args = append(args, patch.Deadline.Time)
		idx++
	}

	query := fmt.Sprintf(`
		UPDATE tasks SET %s
		WHERE id = $1 AND owner_id = $2
		RETURNING %s
	`, strings.Join(sets, ", "), taskColumns)

	task, err := scanTask(s.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("task_id", task.ID).
		Msg("Updated task")

	return task, nil
}

// Delete deletes a task by ID scoped to an owner.
func (s *TaskStore) Delete(ctx context.Context, id int64, ownerID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	result, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}

	log.Debug().
		Int64("task_id", id).
		Msg("Deleted task")

	return nil
}
