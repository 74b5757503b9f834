package errors

import (
	"net/http"
)

// APIError is the error type surfaced by HTTP handlers. It carries the HTTP
// status, a stable machine-readable code and a human-readable message.
type APIError struct {
	HTTPStatus int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Predefined errors.
var (
	ErrBadRequest        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "BAD_REQUEST", Message: "Invalid request parameters"}
	ErrInvalidJSON       = &APIError{HTTPStatus: http.StatusBadRequest, Code: "INVALID_JSON", Message: "Invalid JSON format"}
	ErrValidation        = &APIError{HTTPStatus: http.StatusBadRequest, Code: "VALIDATION_FAILED", Message: "Validation failed"}
	ErrUnauthorized      = &APIError{HTTPStatus: http.StatusUnauthorized, Code: "UNAUTHORIZED", Message: "Authentication required"}
	ErrForbidden         = &APIError{HTTPStatus: http.StatusForbidden, Code: "FORBIDDEN", Message: "Access denied"}
	ErrResourceNotFound  = &APIError{HTTPStatus: http.StatusNotFound, Code: "NOT_FOUND", Message: "Resource not found"}
	ErrDuplicateResource = &APIError{HTTPStatus: http.StatusConflict, Code: "DUPLICATE_RESOURCE", Message: "Resource already exists"}
	ErrTooManyRequests   = &APIError{HTTPStatus: http.StatusTooManyRequests, Code: "TOO_MANY_REQUESTS", Message: "Too many concurrent requests"}
	ErrInternalServer    = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "INTERNAL_SERVER_ERROR", Message: "Internal server error"}
	ErrDatabase          = &APIError{HTTPStatus: http.StatusInternalServerError, Code: "DATABASE_ERROR", Message: "Database operation failed"}
	ErrBadGateway        = &APIError{HTTPStatus: http.StatusBadGateway, Code: "BAD_GATEWAY", Message: "Failed to connect to upstream server"}
	ErrGatewayTimeout    = &APIError{HTTPStatus: http.StatusGatewayTimeout, Code: "GATEWAY_TIMEOUT", Message: "Upstream server timeout"}
)

// NewAPIError creates a copy of a predefined error with a custom message.
func NewAPIError(base *APIError, message string) *APIError {
	return &APIError{
		HTTPStatus: base.HTTPStatus,
		Code:       base.Code,
		Message:    message,
	}
}

// NewAPIErrorWithUpstream creates an error that mirrors an upstream response.
func NewAPIErrorWithUpstream(httpStatus int, code string, message string) *APIError {
	return &APIError{
		HTTPStatus: httpStatus,
		Code:       code,
		Message:    message,
	}
}

// NewValidationError creates a validation error with a custom message.
func NewValidationError(message string) *APIError {
	return NewAPIError(ErrValidation, message)
}

// NewNotFoundError creates a not found error with a custom message.
func NewNotFoundError(message string) *APIError {
	return NewAPIError(ErrResourceNotFound, message)
}
