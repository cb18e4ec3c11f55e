package ports

import (
	"context"

	"github.com/taskmaster/taskapi/internal/domain/entities"
)

// TaskRepository defines the interface for task data operations
type TaskRepository interface {
	// Create inserts the task and fills in its server-assigned ID.
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int64) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	Stats(ctx context.Context) (*entities.TaskStats, error)
}

// Transactor runs fn inside a single database transaction. Repository calls
// made with the context passed to fn participate in that transaction.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// TaskFilter selects and pages tasks. Status is applied before Offset/Limit.
type TaskFilter struct {
	Status *entities.TaskStatus
	Offset int
	Limit  int
}
