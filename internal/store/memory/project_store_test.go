package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func newStores() (*ProjectStore, *TaskStore) {
	projects := NewProjectStore()
	tasks := NewTaskStore(projects)
	return projects, tasks
}

func createProject(t *testing.T, projects *ProjectStore, owner, name string) *models.Project {
	t.Helper()
	project := &models.Project{OwnerID: owner, Name: name}
	require.NoError(t, projects.Create(context.Background(), project))
	return project
}

func TestProjectStoreCreate(t *testing.T) {
	projects, _ := newStores()

	project := createProject(t, projects, "user_1", "Jira MVP")
	require.Equal(t, int64(1), project.ID)
	require.False(t, project.CreatedAt.IsZero())
	require.Equal(t, project.CreatedAt, project.UpdatedAt)

	second := createProject(t, projects, "user_1", "Board 2")
	require.Equal(t, int64(2), second.ID)
}

func TestProjectStoreIDsNeverReused(t *testing.T) {
	projects, _ := newStores()
	ctx := context.Background()

	first := createProject(t, projects, "user_1", "first")
	require.NoError(t, projects.Delete(ctx, first.ID, "user_1"))

	second := createProject(t, projects, "user_1", "second")
	require.Greater(t, second.ID, first.ID)
}

func TestProjectStoreListByOwner(t *testing.T) {
	projects, _ := newStores()
	ctx := context.Background()

	createProject(t, projects, "user_1", "a")
	createProject(t, projects, "user_2", "b")
	createProject(t, projects, "user_1", "c")

	list, err := projects.ListByOwner(ctx, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "a", list[0].Name)
	require.Equal(t, "c", list[1].Name)
	require.Less(t, list[0].ID, list[1].ID)

	empty, err := projects.ListByOwner(ctx, "user_3")
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestProjectStoreOwnerScoping(t *testing.T) {
	projects, _ := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "mine")

	// A foreign project looks exactly like a missing one.
	_, err := projects.Get(ctx, project.ID, "user_2")
	require.ErrorIs(t, err, store.ErrProjectNotFound)

	err = projects.Delete(ctx, project.ID, "user_2")
	require.ErrorIs(t, err, store.ErrProjectNotFound)

	got, err := projects.Get(ctx, project.ID, "user_1")
	require.NoError(t, err)
	require.Equal(t, "mine", got.Name)
}

func TestProjectStoreDeleteCascades(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "doomed")
	task := &models.Task{
		ProjectID: project.ID,
		OwnerID:   "user_1",
		Title:     "orphan-to-be",
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
	}
	require.NoError(t, tasks.Create(ctx, task))

	require.NoError(t, projects.Delete(ctx, project.ID, "user_1"))

	_, err := tasks.Get(ctx, task.ID, "user_1")
	require.ErrorIs(t, err, store.ErrTaskNotFound)

	// Repeat delete behaves like the project never existed.
	err = projects.Delete(ctx, project.ID, "user_1")
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}
