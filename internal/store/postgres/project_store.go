package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// ProjectStore implements store.ProjectStore using PostgreSQL.
type ProjectStore struct {
	pool *pgxpool.Pool
}

// NewProjectStore creates a new PostgreSQL-backed project store.
// It shares the connection pool with other stores.
func NewProjectStore(pool *pgxpool.Pool) *ProjectStore {
	return &ProjectStore{
		pool: pool,
	}
}

// Create inserts a new project. The database assigns the ID and timestamps,
// which are written back onto the passed project.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	query := `
		INSERT INTO projects (owner_id, name, description)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := s.pool.QueryRow(ctx, query,
		project.OwnerID,
		project.Name,
		project.Description,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create project: %w", mapPostgresError(err))
	}

	log.Debug().
		Int64("project_id", project.ID).
		Str("name", project.Name).
		Msg("Created project")

	return nil
}

// ListByOwner returns all projects for an owner in creation order.
func (s *ProjectStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		var project models.Project
		err := rows.Scan(
			&project.ID,
			&project.OwnerID,
			&project.Name,
			&project.Description,
			&project.CreatedAt,
			&project.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, &project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

// Get retrieves a project by ID scoped to an owner.
func (s *ProjectStore) Get(ctx context.Context, id int64, ownerID string) (*models.Project, error) {
	query := `
		SELECT id, owner_id, name, description, created_at, updated_at
		FROM projects
		WHERE id = $1 AND owner_id = $2
	`

	var project models.Project
	err := s.pool.QueryRow(ctx, query, id, ownerID).Scan(
		&project.ID,
		&project.OwnerID,
		&project.Name,
		&project.Description,
		&project.CreatedAt,
		&project.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", mapPostgresError(err))
	}

	return &project, nil
}

// Delete deletes a project by ID scoped to an owner.
// All tasks under the project are removed by the FK ON DELETE CASCADE rule.
func (s *ProjectStore) Delete(ctx context.Context, id int64, ownerID string) error {
	query := `DELETE FROM projects WHERE id = $1 AND owner_id = $2`

	result, err := s.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", mapPostgresError(err))
	}

	if result.RowsAffected() == 0 {
		return store.ErrProjectNotFound
	}

	log.Info().
		Int64("project_id", id).
		Msg("Deleted project (and cascade-deleted its tasks)")

	return nil
}
