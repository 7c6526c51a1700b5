package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors shared by the dev backend and its callers.
var (
	ErrNotFound        = errors.New("resource not found")
	ErrAlreadyExists   = errors.New("resource already exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrConflict        = errors.New("conflict")
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Kind describes how a sentinel is reported over HTTP.
type Kind struct {
	Code    string
	Status  int
	Message string // empty means use err.Error()
}

var kinds = []struct {
	sentinel error
	kind     Kind
}{
	{ErrNotFound, Kind{"NOT_FOUND", http.StatusNotFound, "resource not found"}},
	{ErrAlreadyExists, Kind{"ALREADY_EXISTS", http.StatusConflict, "resource already exists"}},
	{ErrConflict, Kind{"CONFLICT", http.StatusConflict, ""}},
	{ErrPayloadTooLarge, Kind{"PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, "request body too large"}},
	{ErrInvalidInput, Kind{"INVALID_INPUT", http.StatusBadRequest, ""}},
}

var internal = Kind{"INTERNAL_ERROR", http.StatusInternalServerError, "an internal error occurred"}

// Classify maps err onto the first sentinel it wraps. Unknown errors are
// internal and their message is replaced.
func Classify(err error) Kind {
	for _, k := range kinds {
		if errors.Is(err, k.sentinel) {
			if k.kind.Message == "" {
				k.kind.Message = err.Error()
			}
			return k.kind
		}
	}
	return internal
}

// AppError is an error with a stable code, client message and HTTP status.
type AppError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Status  int               `json:"-"`
	Err     error             `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(code string, status int, sentinel error, message string) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound reports a missing resource, e.g. NotFound("brand", id).
func NotFound(resource, id string) *AppError {
	return newError("NOT_FOUND", http.StatusNotFound, ErrNotFound,
		fmt.Sprintf("%s %s not found", resource, id))
}

// AlreadyExists reports a uniqueness violation on field.
func AlreadyExists(resource, field, value string) *AppError {
	return newError("ALREADY_EXISTS", http.StatusConflict, ErrAlreadyExists,
		fmt.Sprintf("%s with %s %q already exists", resource, field, value))
}

// InvalidInput reports a malformed request.
func InvalidInput(message string) *AppError {
	return newError("INVALID_INPUT", http.StatusBadRequest, ErrInvalidInput, message)
}

// InvalidFields reports per-field validation failures.
func InvalidFields(fields map[string]string) *AppError {
	e := newError("VALIDATION_ERROR", http.StatusBadRequest, ErrInvalidInput, "request validation failed")
	e.Fields = fields
	return e
}

// PayloadTooLarge reports an upload over the size limit.
func PayloadTooLarge(message string) *AppError {
	return newError("PAYLOAD_TOO_LARGE", http.StatusRequestEntityTooLarge, ErrPayloadTooLarge, message)
}
