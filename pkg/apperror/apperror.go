package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrConfiguration    = errors.New("configuration error")
	ErrUnknownModel     = errors.New("unknown model")
	ErrDocumentNotFound = errors.New("document not found")
	ErrDocumentIO       = errors.New("document io error")
	ErrUpstream         = errors.New("upstream error")
	ErrSchemaValidation = errors.New("schema validation error")
	ErrRateLimited      = errors.New("rate limited")
	ErrNotFound         = errors.New("not found")
	ErrInternal         = errors.New("internal server error")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.BaseError
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewConfiguration(details string, err error) *AppError {
	return NewAppError(ErrConfiguration, "Invalid configuration", details, err)
}

func NewUnknownModel(name string) *AppError {
	details := fmt.Sprintf("model '%s' is not registered", name)
	return NewAppError(ErrUnknownModel, "Unknown model", details, nil)
}

func NewDocumentNotFound(path string, err error) *AppError {
	details := fmt.Sprintf("document '%s' does not exist", path)
	return NewAppError(ErrDocumentNotFound, "Document not found", details, err)
}

func NewDocumentIO(path string, err error) *AppError {
	details := fmt.Sprintf("document '%s' could not be read", path)
	return NewAppError(ErrDocumentIO, "Document could not be read", details, err)
}

func NewUpstream(details string, err error) *AppError {
	return NewAppError(ErrUpstream, "Model provider request failed", details, err)
}

func NewSchemaValidation(details string, err error) *AppError {
	return NewAppError(ErrSchemaValidation, "Model output does not match the extraction schema", details, err)
}

func NewRateLimited(details string) *AppError {
	return NewAppError(ErrRateLimited, "Too many requests", details, nil)
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

// Kind returns the short machine-readable name used in error bodies and events.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "configuration_error"
	case errors.Is(err, ErrUnknownModel):
		return "unknown_model"
	case errors.Is(err, ErrDocumentNotFound):
		return "document_not_found"
	case errors.Is(err, ErrDocumentIO):
		return "document_io_error"
	case errors.Is(err, ErrUpstream):
		return "upstream_error"
	case errors.Is(err, ErrSchemaValidation):
		return "schema_validation_error"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal_error"
	}
}

func ToHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrRateLimited) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrUpstream) || errors.Is(err, ErrSchemaValidation) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
