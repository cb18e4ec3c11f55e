package services

import (
	"context"
	"fmt"
	"time"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/ports"
)

// TaskService handles task-related operations. Payloads reach it already
// validated; it owns defaults, merge semantics and timestamps.
type TaskService struct {
	taskRepo ports.TaskRepository
	tx       ports.Transactor
	logger   *logger.Logger
	now      func() time.Time
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, tx ports.Transactor, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		tx:       tx,
		logger:   logger.WithComponent("task_service"),
		now:      time.Now,
	}
}

var _ ports.TaskService = (*TaskService)(nil)

// CreateTask creates a new task
func (s *TaskService) CreateTask(ctx context.Context, req ports.CreateTaskRequest) (*entities.Task, error) {
	now := s.now().UTC().Truncate(time.Microsecond)

	task := &entities.Task{
		Title:       req.Title,
		Description: req.Description,
		Status:      entities.TaskStatusPending,
		Priority:    entities.DefaultPriority,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if req.Status.Present() {
		task.Status = req.Status.Value
	}
	if req.Priority.Present() {
		task.Priority = req.Priority.Value
	}

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.taskRepo.Create(ctx, task)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Infow("Task created", "task_id", task.ID, "title", task.Title)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id int64) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}

	return task, nil
}

// UpdateTask applies the fields present in req to the stored task and bumps
// updated_at. Read, merge and write share one transaction.
func (s *TaskService) UpdateTask(ctx context.Context, id int64, req ports.UpdateTaskRequest) (*entities.Task, error) {
	var task *entities.Task

	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		existing, err := s.taskRepo.GetByID(ctx, id)
		if err != nil {
			return err
		}

		applyUpdate(existing, req)
		existing.Touch(s.now())

		if err := s.taskRepo.Update(ctx, existing); err != nil {
			return err
		}
		task = existing
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Infow("Task updated", "task_id", task.ID, "status", task.Status)

	return task, nil
}

// DeleteTask deletes a task
func (s *TaskService) DeleteTask(ctx context.Context, id int64) error {
	err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		return s.taskRepo.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Infow("Task deleted", "task_id", id)

	return nil
}

// ListTasks retrieves tasks with filtering and pagination
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// GetStats counts tasks by status
func (s *TaskService) GetStats(ctx context.Context) (*entities.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}

	return stats, nil
}

// applyUpdate copies every field present in req onto task. An explicit null
// clears description; the validator has already rejected nulls elsewhere.
func applyUpdate(task *entities.Task, req ports.UpdateTaskRequest) {
	if req.Title.Present() {
		task.Title = req.Title.Value
	}
	if req.Description.Set {
		task.Description = req.Description.Ptr()
	}
	if req.Status.Present() {
		task.Status = req.Status.Value
	}
	if req.Priority.Present() {
		task.Priority = req.Priority.Value
	}
}
