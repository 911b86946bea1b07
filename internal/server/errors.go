package server

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"github.com/desertthunder/repertoire/internal/shared"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// APIError is the JSON body of every failed request.
type APIError struct {
	StatusCode int               `json:"-"`
	ErrorCode  string            `json:"error"`
	Message    string            `json:"message"`
	Details    []ValidationError `json:"details,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.ErrorCode, e.Message)
}

var (
	ErrUnauthenticated = &APIError{StatusCode: http.StatusUnauthorized, ErrorCode: "UNAUTHENTICATED", Message: "authentication required"}
	ErrRateLimited     = &APIError{StatusCode: http.StatusTooManyRequests, ErrorCode: "RATE_LIMITED", Message: "too many requests"}
	ErrInternal        = &APIError{StatusCode: http.StatusInternalServerError, ErrorCode: "INTERNAL", Message: "internal server error"}
)

// errorFrom maps service and validation errors onto API errors.
func errorFrom(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		details := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, ValidationError{Field: fe.Field(), Message: describeField(fe)})
		}
		return &APIError{
			StatusCode: http.StatusBadRequest,
			ErrorCode:  "VALIDATION_FAILED",
			Message:    "request validation failed",
			Details:    details,
		}
	}

	switch {
	case errors.Is(err, shared.ErrNotFound):
		return &APIError{StatusCode: http.StatusNotFound, ErrorCode: "NOT_FOUND", Message: err.Error()}
	case errors.Is(err, shared.ErrForbidden):
		return &APIError{StatusCode: http.StatusForbidden, ErrorCode: "FORBIDDEN", Message: err.Error()}
	case errors.Is(err, shared.ErrNotAuthenticated):
		return ErrUnauthenticated
	case errors.Is(err, shared.ErrConflict):
		return &APIError{StatusCode: http.StatusConflict, ErrorCode: "CONFLICT", Message: err.Error()}
	case errors.Is(err, shared.ErrInvalidLevel):
		return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "INVALID_LEVEL", Message: err.Error()}
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument):
		return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "INVALID_INPUT", Message: err.Error()}
	default:
		return ErrInternal
	}
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "uuid":
		return "must be a UUID"
	default:
		return "failed " + fe.Tag()
	}
}

// badRequest wraps a body decoding failure.
func badRequest(err error) *APIError {
	return &APIError{StatusCode: http.StatusBadRequest, ErrorCode: "BAD_REQUEST", Message: err.Error()}
}
