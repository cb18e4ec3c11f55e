package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/database"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/ports"
)

const taskColumns = `id, title, description, status, priority, created_at, updated_at`

// TaskRepository implements ports.TaskRepository on top of sqlx. Every call
// runs on whatever handle database.DB.Executor finds in the context.
type TaskRepository struct {
	db     *database.DB
	logger *logger.Logger
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *database.DB, logger *logger.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger.WithComponent("task_repository"),
	}
}

var _ ports.TaskRepository = (*TaskRepository)(nil)

func (r *TaskRepository) Create(ctx context.Context, task *entities.Task) (err error) {
	query := r.db.Rebind(`
		INSERT INTO tasks (title, description, status, priority, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)
	defer r.trace(query, time.Now(), &err)

	err = r.db.Executor(ctx).QueryRowxContext(ctx, query,
		task.Title, task.Description, string(task.Status), task.Priority,
		task.CreatedAt, task.UpdatedAt,
	).Scan(&task.ID)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id int64) (_ *entities.Task, err error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ?`)
	defer r.trace(query, time.Now(), &err)

	var task entities.Task
	err = sqlx.GetContext(ctx, r.db.Executor(ctx), &task, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.NewTaskNotFoundError(id)
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return &task, nil
}

// Update overwrites every mutable column with the values held by task.
func (r *TaskRepository) Update(ctx context.Context, task *entities.Task) (err error) {
	query := r.db.Rebind(`
		UPDATE tasks
		SET title = ?, description = ?, status = ?, priority = ?, updated_at = ?
		WHERE id = ?`)
	defer r.trace(query, time.Now(), &err)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query,
		task.Title, task.Description, string(task.Status), task.Priority, task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	return expectOneRow(result, task.ID)
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) (err error) {
	query := r.db.Rebind(`DELETE FROM tasks WHERE id = ?`)
	defer r.trace(query, time.Now(), &err)

	result, err := r.db.Executor(ctx).ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	return expectOneRow(result, id)
}

// List returns tasks in insertion order. The status filter is applied before
// OFFSET/LIMIT.
func (r *TaskRepository) List(ctx context.Context, filter ports.TaskFilter) (_ []*entities.Task, err error) {
	var (
		sb   strings.Builder
		args []interface{}
	)

	sb.WriteString(`SELECT ` + taskColumns + ` FROM tasks`)
	if filter.Status != nil {
		sb.WriteString(` WHERE status = ?`)
		args = append(args, string(*filter.Status))
	}
	sb.WriteString(` ORDER BY id ASC LIMIT ? OFFSET ?`)
	args = append(args, filter.Limit, filter.Offset)

	query := r.db.Rebind(sb.String())
	defer r.trace(query, time.Now(), &err)

	tasks := []*entities.Task{}
	err = sqlx.SelectContext(ctx, r.db.Executor(ctx), &tasks, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return tasks, nil
}

// Stats counts tasks per status in a single scan.
func (r *TaskRepository) Stats(ctx context.Context) (_ *entities.TaskStats, err error) {
	query := r.db.Rebind(`
		SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS pending,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS in_progress,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed
		FROM tasks`)
	defer r.trace(query, time.Now(), &err)

	var stats entities.TaskStats
	err = sqlx.GetContext(ctx, r.db.Executor(ctx), &stats, query,
		string(entities.TaskStatusPending), string(entities.TaskStatusInProgress), string(entities.TaskStatusCompleted),
	)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}

	return &stats, nil
}

func (r *TaskRepository) trace(query string, start time.Time, errp *error) {
	err := *errp
	if errors.Is(err, entities.ErrNotFound) {
		err = nil
	}
	r.logger.LogDatabaseQuery(strings.Join(strings.Fields(query), " "), time.Since(start), err)
}

func expectOneRow(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return entities.NewTaskNotFoundError(id)
	}

	return nil
}
