package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/taskapi/internal/domain/entities"
	"github.com/taskmaster/taskapi/internal/infrastructure/logger"
)

// Locations reported in validation details.
const (
	LocationBody  = "body"
	LocationQuery = "query"
	LocationPath  = "path"
)

// ErrorResponse is the body of every error reply. Detail is a string for
// not-found and framework errors and a []ValidationDetail for 422s.
type ErrorResponse struct {
	Detail interface{} `json:"detail"`
}

// ValidationDetail describes one rejected field.
type ValidationDetail struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ErrorHandler maps domain and framework errors to HTTP responses.
func ErrorHandler(appLogger *logger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, body := errorResponse(err)
		if code >= http.StatusInternalServerError {
			appLogger.WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
				Errorw("Internal server error", "error", err, "path", c.Request().URL.Path)
		}

		var sendErr error
		if c.Request().Method == http.MethodHead {
			sendErr = c.NoContent(code)
		} else {
			sendErr = c.JSON(code, body)
		}
		if sendErr != nil {
			appLogger.Errorw("Error sending response", "error", sendErr)
		}
	}
}

func errorResponse(err error) (int, ErrorResponse) {
	var (
		validationErr *entities.ValidationError
		notFoundErr   *entities.NotFoundError
		httpErr       *echo.HTTPError
	)

	switch {
	case errors.As(err, &validationErr):
		details := make([]ValidationDetail, 0, len(validationErr.Fields))
		for _, f := range validationErr.Fields {
			loc := []string{f.Location}
			if f.Field != "" {
				loc = append(loc, f.Field)
			}
			details = append(details, ValidationDetail{Loc: loc, Msg: f.Message, Type: f.Type})
		}
		return http.StatusUnprocessableEntity, ErrorResponse{Detail: details}

	case errors.As(err, &notFoundErr):
		return http.StatusNotFound, ErrorResponse{Detail: notFoundErr.Error()}

	case errors.As(err, &httpErr):
		msg, ok := httpErr.Message.(string)
		if !ok {
			msg = http.StatusText(httpErr.Code)
		}
		return httpErr.Code, ErrorResponse{Detail: msg}

	default:
		return http.StatusInternalServerError, ErrorResponse{Detail: http.StatusText(http.StatusInternalServerError)}
	}
}

// bindBody decodes the JSON body into dst. Decoding failures become
// validation errors so they are reported as 422 like any other bad input.
func bindBody(c echo.Context, dst interface{}) error {
	err := (&echo.DefaultBinder{}).BindBody(c, dst)
	if err == nil {
		return nil
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) && httpErr.Code != http.StatusBadRequest {
		return err
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return entities.NewValidationError(LocationBody, typeErr.Field,
			fmt.Sprintf("value is not a valid %s", typeErr.Type), "type_error")
	}
	return entities.NewValidationError(LocationBody, "", "invalid JSON body", "value_error.jsondecode")
}

// bindingError converts an echo value binder failure into a validation error.
func bindingError(location string, err error) error {
	var be *echo.BindingError
	if errors.As(err, &be) {
		return entities.NewValidationError(location, be.Field, "value is not a valid integer", "type_error.integer")
	}
	return entities.NewValidationError(location, "", err.Error(), "type_error")
}

// relocate rewrites the location of every field in a validation error.
func relocate(err error, location string) error {
	var validationErr *entities.ValidationError
	if !errors.As(err, &validationErr) {
		return err
	}
	for i := range validationErr.Fields {
		validationErr.Fields[i].Location = location
	}
	return validationErr
}
