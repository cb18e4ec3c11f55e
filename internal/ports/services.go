package ports

import (
	"context"

	"github.com/taskmaster/taskapi/internal/domain/entities"
)

// TaskService interface for task management operations
type TaskService interface {
	CreateTask(ctx context.Context, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, id int64) (*entities.Task, error)
	UpdateTask(ctx context.Context, id int64, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	GetStats(ctx context.Context) (*entities.TaskStats, error)
}

// Request types

// CreateTaskRequest is the create payload. Absent optional fields take their
// server-side defaults; status and priority may be omitted but not null.
type CreateTaskRequest struct {
	Title       string                                 `json:"title" validate:"required,min=1,max=200"`
	Description *string                                `json:"description" validate:"omitempty,max=2000"`
	Status      entities.Optional[entities.TaskStatus] `json:"status" validate:"omitempty,task_status"`
	Priority    entities.Optional[int]                 `json:"priority" validate:"omitempty,min=1,max=3"`
}

// UpdateTaskRequest is the update payload. Fields left out of the JSON document
// keep their stored values.
type UpdateTaskRequest struct {
	Title       entities.Optional[string]              `json:"title" validate:"omitempty,min=1,max=200"`
	Description entities.Optional[string]              `json:"description" validate:"omitempty,max=2000"`
	Status      entities.Optional[entities.TaskStatus] `json:"status" validate:"omitempty,task_status"`
	Priority    entities.Optional[int]                 `json:"priority" validate:"omitempty,min=1,max=3"`
}

// ListTasksQuery holds the list endpoint's query parameters.
type ListTasksQuery struct {
	Skip         int                  `json:"skip" validate:"min=0"`
	Limit        int                  `json:"limit" validate:"min=1"`
	StatusFilter *entities.TaskStatus `json:"status_filter" validate:"omitempty,task_status"`
}

// Filter converts the query into a repository filter.
func (q ListTasksQuery) Filter() TaskFilter {
	return TaskFilter{
		Status: q.StatusFilter,
		Offset: q.Skip,
		Limit:  q.Limit,
	}
}

// Defaults for list pagination.
const (
	DefaultListSkip  = 0
	DefaultListLimit = 100
)
