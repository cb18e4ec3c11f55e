package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/config"
	"github.com/taskmaster/taskapi/internal/infrastructure/database"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/ports"
)

func setupTestRepo(t *testing.T) *TaskRepository {
	t.Helper()

	db, err := database.New(config.DatabaseConfig{
		URL:          "sqlite://" + filepath.Join(t.TempDir(), "tasks.db"),
		MaxOpenConns: 4,
		MaxIdleConns: 4,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.EnsureSchema(context.Background()))
	return NewTaskRepository(db, logger.NewNop())
}

func newTask(title string, status entities.TaskStatus) *entities.Task {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &entities.Task{
		Title:     title,
		Status:    status,
		Priority:  entities.DefaultPriority,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func mustCreate(t *testing.T, repo *TaskRepository, task *entities.Task) *entities.Task {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), task))
	return task
}

func TestTaskRepository_CreateAndGet(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	desc := "Original Description"
	task := newTask("Original Title", entities.TaskStatusInProgress)
	task.Description = &desc
	task.Priority = entities.PriorityHigh

	require.NoError(t, repo.Create(ctx, task))
	assert.Positive(t, task.ID)

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)

	assert.Equal(t, task.ID, got.ID)
	assert.Equal(t, "Original Title", got.Title)
	require.NotNil(t, got.Description)
	assert.Equal(t, desc, *got.Description)
	assert.Equal(t, entities.TaskStatusInProgress, got.Status)
	assert.Equal(t, entities.PriorityHigh, got.Priority)
	assert.True(t, got.CreatedAt.Equal(task.CreatedAt), "created_at round trips")
	assert.True(t, got.UpdatedAt.Equal(task.UpdatedAt), "updated_at round trips")
}

func TestTaskRepository_IDsAreUniqueAndNotReused(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	seen := map[int64]bool{}
	var last int64
	for i := 0; i < 5; i++ {
		task := mustCreate(t, repo, newTask("task", entities.TaskStatusPending))
		assert.False(t, seen[task.ID])
		seen[task.ID] = true
		last = task.ID
	}

	require.NoError(t, repo.Delete(ctx, last))
	next := mustCreate(t, repo, newTask("after delete", entities.TaskStatusPending))

	assert.Greater(t, next.ID, last)
}

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), 999)

	assert.True(t, errors.Is(err, entities.ErrNotFound))
	assert.EqualError(t, err, "Task with ID 999 not found")
}

func TestTaskRepository_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	desc := "to be cleared"
	task := newTask("before", entities.TaskStatusPending)
	task.Description = &desc
	mustCreate(t, repo, task)

	task.Title = "after"
	task.Description = nil
	task.Status = entities.TaskStatusCompleted
	task.Priority = entities.PriorityMedium
	task.Touch(time.Now())
	require.NoError(t, repo.Update(ctx, task))

	got, err := repo.GetByID(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", got.Title)
	assert.Nil(t, got.Description)
	assert.Equal(t, entities.TaskStatusCompleted, got.Status)
	assert.Equal(t, entities.PriorityMedium, got.Priority)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestTaskRepository_UpdateMissing(t *testing.T) {
	repo := setupTestRepo(t)

	task := newTask("ghost", entities.TaskStatusPending)
	task.ID = 12345

	err := repo.Update(context.Background(), task)
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

func TestTaskRepository_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	keep := mustCreate(t, repo, newTask("keep", entities.TaskStatusPending))
	drop := mustCreate(t, repo, newTask("drop", entities.TaskStatusPending))

	require.NoError(t, repo.Delete(ctx, drop.ID))

	_, err := repo.GetByID(ctx, drop.ID)
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	_, err = repo.GetByID(ctx, keep.ID)
	assert.NoError(t, err)

	err = repo.Delete(ctx, drop.ID)
	assert.True(t, errors.Is(err, entities.ErrNotFound), "second delete reports not found")
}

func TestTaskRepository_List(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	statuses := []entities.TaskStatus{
		entities.TaskStatusPending,
		entities.TaskStatusCompleted,
		entities.TaskStatusPending,
		entities.TaskStatusInProgress,
		entities.TaskStatusPending,
	}
	var ids []int64
	for i, s := range statuses {
		task := mustCreate(t, repo, newTask(string(rune('A'+i)), s))
		ids = append(ids, task.ID)
	}

	pending := entities.TaskStatusPending
	archived := entities.TaskStatus("archived")

	tests := []struct {
		name    string
		filter  ports.TaskFilter
		wantIDs []int64
	}{
		{name: "all", filter: ports.TaskFilter{Limit: 100}, wantIDs: ids},
		{name: "page", filter: ports.TaskFilter{Offset: 2, Limit: 2}, wantIDs: ids[2:4]},
		{name: "past the end", filter: ports.TaskFilter{Offset: 10, Limit: 2}, wantIDs: []int64{}},
		{name: "status", filter: ports.TaskFilter{Status: &pending, Limit: 100}, wantIDs: []int64{ids[0], ids[2], ids[4]}},
		{name: "filter before paging", filter: ports.TaskFilter{Status: &pending, Offset: 1, Limit: 1}, wantIDs: []int64{ids[2]}},
		{name: "no matches", filter: ports.TaskFilter{Status: &archived, Limit: 100}, wantIDs: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tasks, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			require.NotNil(t, tasks)

			got := make([]int64, 0, len(tasks))
			for _, task := range tasks {
				got = append(got, task.ID)
			}
			assert.Equal(t, tt.wantIDs, got)
		})
	}
}

func TestTaskRepository_Stats(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStats{}, *stats)

	for _, s := range []entities.TaskStatus{
		entities.TaskStatusPending,
		entities.TaskStatusPending,
		entities.TaskStatusInProgress,
		entities.TaskStatusCompleted,
	} {
		mustCreate(t, repo, newTask("t", s))
	}

	stats, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStats{Total: 4, Pending: 2, InProgress: 1, Completed: 1}, *stats)
	assert.Equal(t, stats.Total, stats.Pending+stats.InProgress+stats.Completed)
}
