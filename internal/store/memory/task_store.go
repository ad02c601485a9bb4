package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

// TaskStore implements store.TaskStore using in-memory storage.
// This implementation is for testing and local development - data is lost on
// restart.
type TaskStore struct {
	mu sync.RWMutex

	tasks  map[int64]*models.Task
	nextID int64

	projects *ProjectStore
}

// NewTaskStore creates a new in-memory task store bound to a project store.
// The binding lets project deletion cascade to tasks, mirroring the FK rule
// the PostgreSQL store relies on.
func NewTaskStore(projects *ProjectStore) *TaskStore {
	s := &TaskStore{
		tasks:    make(map[int64]*models.Task),
		nextID:   1,
		projects: projects,
	}
	projects.tasks = s
	return s
}

// Create creates a new task after resolving the parent project under the
// task's owner.
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	if !s.projects.exists(task.ProjectID, task.OwnerID) {
		return store.ErrProjectNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	task.ID = s.nextID
	s.nextID++
	task.CreatedAt = now
	task.UpdatedAt = now

	clone := cloneTask(task)
	s.tasks[task.ID] = clone

	return nil
}

// ListByProject returns the owner's tasks under a project ordered by
// ascending ID.
func (s *TaskStore) ListByProject(ctx context.Context, projectID int64, ownerID string) ([]*models.Task, error) {
	if !s.projects.exists(projectID, ownerID) {
		return nil, store.ErrProjectNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var tasks []*models.Task
	for _, task := range s.tasks {
		if task.ProjectID == projectID && task.OwnerID == ownerID {
			tasks = append(tasks, cloneTask(task))
		}
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].ID < tasks[j].ID
	})

	return tasks, nil
}

// Get retrieves a task by ID scoped to an owner.
func (s *TaskStore) Get(ctx context.Context, id int64, ownerID string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}

	return cloneTask(task), nil
}

// Update applies a partial update to the owner's task.
func (s *TaskStore) Update(ctx context.Context, id int64, ownerID string, patch *store.TaskPatch) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}

	if patch.Empty() {
		return cloneTask(task), nil
	}

	if patch.Title != nil {
		task.Title = *patch.Title
	}
	if patch.Status != nil {
		task.Status = *patch.Status
	}
	if patch.Priority != nil {
		task.Priority = *patch.Priority
	}
	if patch.Deadline.Set {
		task.Deadline = patch.Deadline.Time
	}
	task.UpdatedAt = time.Now().UTC()

	return cloneTask(task), nil
}

// Delete removes the owner's task.
func (s *TaskStore) Delete(ctx context.Context, id int64, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.OwnerID != ownerID {
		return store.ErrTaskNotFound
	}

	delete(s.tasks, id)
	return nil
}

// deleteByProject removes all tasks under a project. Called by the project
// store when a project is deleted.
func (s *TaskStore) deleteByProject(projectID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, task := range s.tasks {
		if task.ProjectID == projectID {
			delete(s.tasks, id)
		}
	}
}

// cloneTask copies a task, including its deadline, to keep callers from
// mutating stored state.
func cloneTask(task *models.Task) *models.Task {
	clone := *task
	if task.Deadline != nil {
		deadline := *task.Deadline
		clone.Deadline = &deadline
	}
	return &clone
}
