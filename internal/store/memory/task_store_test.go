package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/tracker/internal/models"
	"github.com/wolfeidau/tracker/internal/store"
)

func createTask(t *testing.T, tasks *TaskStore, projectID int64, owner, title string) *models.Task {
	t.Helper()
	task := &models.Task{
		ProjectID: projectID,
		OwnerID:   owner,
		Title:     title,
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
	}
	require.NoError(t, tasks.Create(context.Background(), task))
	return task
}

func TestTaskStoreCreateRequiresOwnedProject(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "board")

	task := createTask(t, tasks, project.ID, "user_1", "first")
	require.Equal(t, int64(1), task.ID)

	// Missing project.
	err := tasks.Create(ctx, &models.Task{ProjectID: 999, OwnerID: "user_1", Title: "x"})
	require.ErrorIs(t, err, store.ErrProjectNotFound)

	// Foreign project looks missing too.
	err = tasks.Create(ctx, &models.Task{ProjectID: project.ID, OwnerID: "user_2", Title: "x"})
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestTaskStoreListByProject(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "board")
	other := createProject(t, projects, "user_1", "other")

	createTask(t, tasks, project.ID, "user_1", "one")
	createTask(t, tasks, other.ID, "user_1", "elsewhere")
	createTask(t, tasks, project.ID, "user_1", "two")

	list, err := tasks.ListByProject(ctx, project.ID, "user_1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "one", list[0].Title)
	require.Equal(t, "two", list[1].Title)

	_, err = tasks.ListByProject(ctx, project.ID, "user_2")
	require.ErrorIs(t, err, store.ErrProjectNotFound)
}

func TestTaskStoreUpdatePartial(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "board")
	deadline := time.Now().Add(48 * time.Hour).UTC()
	task := &models.Task{
		ProjectID: project.ID,
		OwnerID:   "user_1",
		Title:     "write report",
		Status:    models.TaskStatusNotStarted,
		Priority:  models.TaskPriorityMedium,
		Deadline:  &deadline,
	}
	require.NoError(t, tasks.Create(ctx, task))

	t.Run("only provided fields change", func(t *testing.T) {
		done := models.TaskStatusDone
		updated, err := tasks.Update(ctx, task.ID, "user_1", &store.TaskPatch{Status: &done})
		require.NoError(t, err)
		require.Equal(t, models.TaskStatusDone, updated.Status)
		require.Equal(t, "write report", updated.Title)
		require.Equal(t, models.TaskPriorityMedium, updated.Priority)
		require.NotNil(t, updated.Deadline)
		require.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))
	})

	t.Run("omitted deadline is preserved", func(t *testing.T) {
		title := "write the report"
		updated, err := tasks.Update(ctx, task.ID, "user_1", &store.TaskPatch{Title: &title})
		require.NoError(t, err)
		require.Equal(t, "write the report", updated.Title)
		require.NotNil(t, updated.Deadline)
	})

	t.Run("explicit null clears deadline", func(t *testing.T) {
		updated, err := tasks.Update(ctx, task.ID, "user_1", &store.TaskPatch{
			Deadline: store.OptionalTime{Set: true, Time: nil},
		})
		require.NoError(t, err)
		require.Nil(t, updated.Deadline)
	})

	t.Run("foreign task looks missing", func(t *testing.T) {
		title := "stolen"
		_, err := tasks.Update(ctx, task.ID, "user_2", &store.TaskPatch{Title: &title})
		require.ErrorIs(t, err, store.ErrTaskNotFound)
	})
}

func TestTaskStoreDelete(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "board")
	task := createTask(t, tasks, project.ID, "user_1", "ephemeral")

	require.ErrorIs(t, tasks.Delete(ctx, task.ID, "user_2"), store.ErrTaskNotFound)
	require.NoError(t, tasks.Delete(ctx, task.ID, "user_1"))
	require.ErrorIs(t, tasks.Delete(ctx, task.ID, "user_1"), store.ErrTaskNotFound)
}

func TestTaskStoreCloneIsolation(t *testing.T) {
	projects, tasks := newStores()
	ctx := context.Background()

	project := createProject(t, projects, "user_1", "board")
	task := createTask(t, tasks, project.ID, "user_1", "original")

	got, err := tasks.Get(ctx, task.ID, "user_1")
	require.NoError(t, err)
	got.Title = "mutated"

	again, err := tasks.Get(ctx, task.ID, "user_1")
	require.NoError(t, err)
	require.Equal(t, "original", again.Title)
}
