package entities

import "time"

// TaskStatus is the closed set of states a task can be in. There is no
// transition graph: any status may be replaced by any other.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every valid status in display order.
var TaskStatuses = []TaskStatus{
	TaskStatusPending,
	TaskStatusInProgress,
	TaskStatusCompleted,
}

// IsValid reports whether s is one of the known statuses.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

// Priority bounds and defaults. The validate tags on the request payloads in
// ports spell these out literally and must be kept in step.
const (
	PriorityLow     = 1
	PriorityMedium  = 2
	PriorityHigh    = 3
	DefaultPriority = PriorityLow

	TitleMaxLength       = 200
	DescriptionMaxLength = 2000
)

// Task represents a task in the system
type Task struct {
	ID          int64      `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description" db:"description"`
	Status      TaskStatus `json:"status" db:"status"`
	Priority    int        `json:"priority" db:"priority"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// TaskStats holds task counts over the whole table.
type TaskStats struct {
	Total      int64 `json:"total" db:"total"`
	Pending    int64 `json:"pending" db:"pending"`
	InProgress int64 `json:"in_progress" db:"in_progress"`
	Completed  int64 `json:"completed" db:"completed"`
}

// Touch moves UpdatedAt to now, keeping it strictly after its previous value
// even when the clock has not advanced past the stored precision.
func (t *Task) Touch(now time.Time) {
	now = now.UTC().Truncate(time.Microsecond)
	if !now.After(t.UpdatedAt) {
		now = t.UpdatedAt.Add(time.Microsecond)
	}
	t.UpdatedAt = now
}
