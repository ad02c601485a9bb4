package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// ProjectStore implements store.ProjectStore using in-memory storage.
// This implementation is for testing and local development - data is lost on
// restart.
type ProjectStore struct {
	mu sync.RWMutex

	projects map[int64]*models.Project
	nextID   int64

	// tasks is set by NewTaskStore so a project delete can fan out the
	// cascade the database would otherwise perform.
	tasks *TaskStore
}

// NewProjectStore creates a new in-memory project store.
func NewProjectStore() *ProjectStore {
	return &ProjectStore{
		projects: make(map[int64]*models.Project),
		nextID:   1,
	}
}

// Create creates a new project in memory. IDs are strictly increasing and
// never reused after deletion.
func (s *ProjectStore) Create(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	project.ID = s.nextID
	s.nextID++
	project.CreatedAt = now
	project.UpdatedAt = now

	clone := *project
	s.projects[project.ID] = &clone

	return nil
}

// ListByOwner returns the owner's projects ordered by ascending ID.
func (s *ProjectStore) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var projects []*models.Project
	for _, project := range s.projects {
		if project.OwnerID == ownerID {
			clone := *project
			projects = append(projects, &clone)
		}
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].ID < projects[j].ID
	})

	return projects, nil
}

// Get retrieves a project by ID scoped to an owner.
func (s *ProjectStore) Get(ctx context.Context, id int64, ownerID string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok || project.OwnerID != ownerID {
		return nil, store.ErrProjectNotFound
	}

	clone := *project
	return &clone, nil
}

// Delete removes a project and fans out the cascade to its tasks.
func (s *ProjectStore) Delete(ctx context.Context, id int64, ownerID string) error {
	s.mu.Lock()
	project, ok := s.projects[id]
	if !ok || project.OwnerID != ownerID {
		s.mu.Unlock()
		return store.ErrProjectNotFound
	}
	delete(s.projects, id)
	s.mu.Unlock()

	if s.tasks != nil {
		s.tasks.deleteByProject(id)
	}

	return nil
}

// exists reports whether a project exists for an owner. Used by the task
// store to resolve parent projects.
func (s *ProjectStore) exists(id int64, ownerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	return ok && project.OwnerID == ownerID
}
