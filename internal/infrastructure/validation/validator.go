// Package validation adapts go-playground/validator to the task domain: it
// understands Optional payload fields and reports failures as
// *entities.ValidationError keyed by JSON field name.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/ports"
)

// Location used when the caller does not say where the value came from.
const LocationBody = "body"

// Validator wraps the validator and implements echo.Validator.
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the task rules registered.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterCustomTypeFunc(unwrapOptional[string], entities.Optional[string]{})
	v.RegisterCustomTypeFunc(unwrapOptional[int], entities.Optional[int]{})
	v.RegisterCustomTypeFunc(unwrapOptional[entities.TaskStatus], entities.Optional[entities.TaskStatus]{})

	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("task_status", func(fl validator.FieldLevel) bool {
		return entities.TaskStatus(fl.Field().String()).IsValid()
	})

	v.RegisterStructValidation(createTaskNulls, ports.CreateTaskRequest{})
	v.RegisterStructValidation(updateTaskNulls, ports.UpdateTaskRequest{})

	return &Validator{validate: v}
}

// Validate validates structs
func (cv *Validator) Validate(i interface{}) error {
	return cv.ValidateIn(LocationBody, i)
}

// ValidateIn validates i and tags every failure with location.
func (cv *Validator) ValidateIn(location string, i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %T: %w", i, err)
	}

	out := &entities.ValidationError{Fields: make([]entities.FieldError, 0, len(fieldErrs))}
	for _, fe := range fieldErrs {
		out.Fields = append(out.Fields, entities.FieldError{
			Location: location,
			Field:    fe.Field(),
			Message:  message(fe),
			Type:     fe.Tag(),
		})
	}
	return out
}

// unwrapOptional hands the validator a *T: nil when the field is absent or
// null, so omitempty skips it, and a pointer otherwise, so zero values such as
// an empty title or priority 0 are still checked.
func unwrapOptional[T any](field reflect.Value) interface{} {
	o, ok := field.Interface().(entities.Optional[T])
	if !ok {
		return nil
	}
	return o.Ptr()
}

// createTaskNulls rejects an explicit null status or priority on create. A
// null title already fails required.
func createTaskNulls(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(ports.CreateTaskRequest)
	if !ok {
		return
	}
	rejectNull(sl, req.Status, req.Status.Null, "status", "Status")
	rejectNull(sl, req.Priority, req.Priority.Null, "priority", "Priority")
}

// updateTaskNulls rejects explicit nulls on update fields that cannot be
// cleared. description is nullable and is left alone.
func updateTaskNulls(sl validator.StructLevel) {
	req, ok := sl.Current().Interface().(ports.UpdateTaskRequest)
	if !ok {
		return
	}
	rejectNull(sl, req.Title, req.Title.Null, "title", "Title")
	rejectNull(sl, req.Status, req.Status.Null, "status", "Status")
	rejectNull(sl, req.Priority, req.Priority.Null, "priority", "Priority")
}

func rejectNull(sl validator.StructLevel, value interface{}, null bool, field, structField string) {
	if null {
		sl.ReportError(value, field, structField, "not_null", "")
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "not_null":
		return "none is not an allowed value"
	case "task_status":
		return fmt.Sprintf("value is not a valid enumeration member; permitted: %s", permittedStatuses())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this value has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this value has at most %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the %q rule", fe.Tag())
	}
}

func permittedStatuses() string {
	quoted := make([]string, 0, len(entities.TaskStatuses))
	for _, s := range entities.TaskStatuses {
		quoted = append(quoted, fmt.Sprintf("'%s'", s))
	}
	return strings.Join(quoted, ", ")
}
