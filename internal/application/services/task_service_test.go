package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/ports"
)

// memoryRepo is an in-memory ports.TaskRepository.
type memoryRepo struct {
	tasks     map[int64]entities.Task
	nextID    int64
	updateErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{tasks: map[int64]entities.Task{}, nextID: 1}
}

func (m *memoryRepo) Create(_ context.Context, task *entities.Task) error {
	task.ID = m.nextID
	m.nextID++
	m.tasks[task.ID] = *task
	return nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (*entities.Task, error) {
	task, ok := m.tasks[id]
	if !ok {
		return nil, entities.NewTaskNotFoundError(id)
	}
	return &task, nil
}

func (m *memoryRepo) Update(_ context.Context, task *entities.Task) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.tasks[task.ID]; !ok {
		return entities.NewTaskNotFoundError(task.ID)
	}
	m.tasks[task.ID] = *task
	return nil
}

func (m *memoryRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.tasks[id]; !ok {
		return entities.NewTaskNotFoundError(id)
	}
	delete(m.tasks, id)
	return nil
}

func (m *memoryRepo) List(_ context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	out := []*entities.Task{}
	for id := int64(1); id < m.nextID; id++ {
		task, ok := m.tasks[id]
		if !ok || (filter.Status != nil && task.Status != *filter.Status) {
			continue
		}
		out = append(out, &task)
	}
	if filter.Offset >= len(out) {
		return []*entities.Task{}, nil
	}
	out = out[filter.Offset:]
	if filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *memoryRepo) Stats(_ context.Context) (*entities.TaskStats, error) {
	var stats entities.TaskStats
	for _, task := range m.tasks {
		stats.Total++
		switch task.Status {
		case entities.TaskStatusPending:
			stats.Pending++
		case entities.TaskStatusInProgress:
			stats.InProgress++
		case entities.TaskStatusCompleted:
			stats.Completed++
		}
	}
	return &stats, nil
}

// recordingTx runs fn directly and counts how often it was asked to.
type recordingTx struct {
	calls int
}

func (r *recordingTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	return fn(ctx)
}

type fixture struct {
	service *TaskService
	repo    *memoryRepo
	tx      *recordingTx
	clock   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:  newMemoryRepo(),
		tx:    &recordingTx{},
		clock: time.Date(2024, 5, 1, 9, 30, 0, 123456789, time.UTC),
	}
	f.service = NewTaskService(f.repo, f.tx, logger.NewNop())
	f.service.now = func() time.Time { return f.clock }
	return f
}

func TestCreateTask_Defaults(t *testing.T) {
	f := setup(t)

	task, err := f.service.CreateTask(context.Background(), ports.CreateTaskRequest{Title: "Write report"})
	require.NoError(t, err)

	assert.Equal(t, int64(1), task.ID)
	assert.Equal(t, entities.TaskStatusPending, task.Status)
	assert.Equal(t, 1, task.Priority)
	assert.Nil(t, task.Description)
	assert.Equal(t, f.clock.Truncate(time.Microsecond), task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)
	assert.Equal(t, 1, f.tx.calls)
}

func TestCreateTask_ExplicitFields(t *testing.T) {
	f := setup(t)

	desc := "quarterly numbers"
	status := entities.TaskStatusInProgress
	priority := entities.PriorityHigh

	task, err := f.service.CreateTask(context.Background(), ports.CreateTaskRequest{
		Title:       "Write report",
		Description: &desc,
		Status:      entities.Some(status),
		Priority:    entities.Some(priority),
	})
	require.NoError(t, err)

	assert.Equal(t, desc, *task.Description)
	assert.Equal(t, status, task.Status)
	assert.Equal(t, priority, task.Priority)
}

func TestGetTask_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.service.GetTask(context.Background(), 7)

	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

func TestUpdateTask_MergesPresentFields(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	desc := "Original Description"
	created, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{
		Title:       "Original Title",
		Description: &desc,
		Priority:    entities.Some(entities.PriorityLow),
	})
	require.NoError(t, err)

	f.clock = f.clock.Add(time.Second)
	updated, err := f.service.UpdateTask(ctx, created.ID, ports.UpdateTaskRequest{
		Status: entities.Some(entities.TaskStatusCompleted),
	})
	require.NoError(t, err)

	assert.Equal(t, "Original Title", updated.Title)
	assert.Equal(t, "Original Description", *updated.Description)
	assert.Equal(t, 1, updated.Priority)
	assert.Equal(t, entities.TaskStatusCompleted, updated.Status)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestUpdateTask_ClearsDescriptionOnNull(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	desc := "temporary"
	created, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "t", Description: &desc})
	require.NoError(t, err)

	updated, err := f.service.UpdateTask(ctx, created.ID, ports.UpdateTaskRequest{
		Description: entities.Null[string](),
	})
	require.NoError(t, err)

	assert.Nil(t, updated.Description)
	assert.Equal(t, "t", updated.Title)
}

func TestUpdateTask_UpdatedAtIncreasesWithFrozenClock(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "t"})
	require.NoError(t, err)

	first, err := f.service.UpdateTask(ctx, created.ID, ports.UpdateTaskRequest{})
	require.NoError(t, err)
	second, err := f.service.UpdateTask(ctx, created.ID, ports.UpdateTaskRequest{})
	require.NoError(t, err)

	assert.True(t, first.UpdatedAt.After(created.UpdatedAt))
	assert.True(t, second.UpdatedAt.After(first.UpdatedAt))
}

func TestUpdateTask_NotFound(t *testing.T) {
	f := setup(t)

	_, err := f.service.UpdateTask(context.Background(), 99, ports.UpdateTaskRequest{
		Title: entities.Some("new"),
	})

	assert.True(t, errors.Is(err, entities.ErrNotFound))
	assert.Empty(t, f.repo.tasks)
}

func TestUpdateTask_StoreFailureLeavesRecord(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	created, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "stable"})
	require.NoError(t, err)

	f.repo.updateErr = errors.New("disk full")
	_, err = f.service.UpdateTask(ctx, created.ID, ports.UpdateTaskRequest{Title: entities.Some("changed")})
	require.Error(t, err)

	stored, err := f.service.GetTask(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "stable", stored.Title)
}

func TestDeleteTask(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	a, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "a"})
	require.NoError(t, err)
	b, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "b"})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteTask(ctx, a.ID))

	_, err = f.service.GetTask(ctx, a.ID)
	assert.True(t, errors.Is(err, entities.ErrNotFound))

	_, err = f.service.GetTask(ctx, b.ID)
	assert.NoError(t, err)

	err = f.service.DeleteTask(ctx, a.ID)
	assert.True(t, errors.Is(err, entities.ErrNotFound))
}

func TestListTasksAndStats(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	for _, s := range []entities.TaskStatus{
		entities.TaskStatusPending,
		entities.TaskStatusCompleted,
		entities.TaskStatusPending,
	} {
		_, err := f.service.CreateTask(ctx, ports.CreateTaskRequest{Title: "t", Status: entities.Some(s)})
		require.NoError(t, err)
	}

	completed := entities.TaskStatusCompleted
	tasks, err := f.service.ListTasks(ctx, ports.TaskFilter{Status: &completed, Limit: 100})
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, int64(2), tasks[0].ID)

	stats, err := f.service.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entities.TaskStats{Total: 3, Pending: 2, Completed: 1}, *stats)
}
