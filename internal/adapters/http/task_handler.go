package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
	"github.com/taskmaster/taskapi/internal/ports"
)

// TaskHandler handles task-related requests
type TaskHandler struct {
	taskService ports.TaskService
	logger      *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService ports.TaskService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		logger:      logger.WithComponent("task_handler"),
	}
}

// Register connects the handlers to the router. m wraps every task route,
// which is how each request gets its database session.
func (h *TaskHandler) Register(e *echo.Echo, m ...echo.MiddlewareFunc) {
	e.POST("/tasks", h.CreateTask, m...)
	e.GET("/tasks", h.ListTasks, m...)
	e.GET("/tasks/:id", h.GetTask, m...)
	e.PUT("/tasks/:id", h.UpdateTask, m...)
	e.DELETE("/tasks/:id", h.DeleteTask, m...)
	e.GET("/stats", h.GetStats, m...)
}

// CreateTask handles POST /tasks
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, task)
}

// ListTasks handles GET /tasks?skip=&limit=&status_filter=
func (h *TaskHandler) ListTasks(c echo.Context) error {
	query := ports.ListTasksQuery{
		Skip:  ports.DefaultListSkip,
		Limit: ports.DefaultListLimit,
	}

	var status string
	err := echo.QueryParamsBinder(c).
		Int("skip", &query.Skip).
		Int("limit", &query.Limit).
		String("status_filter", &status).
		BindError()
	if err != nil {
		return bindingError(LocationQuery, err)
	}

	// An empty status_filter means no filter.
	if status != "" {
		s := entities.TaskStatus(status)
		query.StatusFilter = &s
	}

	if err := c.Validate(&query); err != nil {
		return relocate(err, LocationQuery)
	}

	tasks, err := h.taskService.ListTasks(c.Request().Context(), query.Filter())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, tasks)
}

// GetTask handles GET /tasks/:id
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles PUT /tasks/:id with merge semantics
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := bindBody(c, &req); err != nil {
		return err
	}

	if err := c.Validate(&req); err != nil {
		return err
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), id, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := taskID(c)
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), id); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}

// GetStats handles GET /stats
func (h *TaskHandler) GetStats(c echo.Context) error {
	stats, err := h.taskService.GetStats(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

func taskID(c echo.Context) (int64, error) {
	var id int64
	if err := echo.PathParamsBinder(c).MustInt64("id", &id).BindError(); err != nil {
		return 0, bindingError(LocationPath, err)
	}
	return id, nil
}
