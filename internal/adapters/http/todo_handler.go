package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Todo is one entry of the static todo listing.
type Todo struct {
	ID   int    `json:"id"`
	Task string `json:"task"`
}

var todos = []Todo{
	{ID: 1, Task: "Buy groceries"},
	{ID: 2, Task: "Walk the dog"},
	{ID: 3, Task: "Read a book"},
	{ID: 4, Task: "Write code"},
}

// TodoHandler serves the static todo listing service.
type TodoHandler struct{}

func NewTodoHandler() *TodoHandler {
	return &TodoHandler{}
}

func (h *TodoHandler) Register(e *echo.Echo) {
	e.GET("/todos", h.ListTodos)
	e.GET("/tasks/:id", h.GetTodo)
}

// ListTodos returns the fixed four-item listing.
func (h *TodoHandler) ListTodos(c echo.Context) error {
	return c.JSON(http.StatusOK, todos)
}

// GetTodo echoes the id back with a fixed task. Ids below 1 get an empty
// error object with a 200, as the listing service always has.
func (h *TodoHandler) GetTodo(c echo.Context) error {
	var id int
	if err := echo.PathParamsBinder(c).MustInt("id", &id).BindError(); err != nil {
		return bindingError(LocationPath, err)
	}

	if id < 1 {
		return c.JSON(http.StatusOK, map[string]string{"error": ""})
	}
	return c.JSON(http.StatusOK, Todo{ID: id, Task: "Go jogging"})
}
