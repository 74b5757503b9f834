package errors

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestAPIError_Error(t *testing.T) {
	tests := []struct {
		name     string
		apiError *APIError
		expected string
	}{
		{
			name:     "standard error",
			apiError: ErrBadRequest,
			expected: "Invalid request parameters",
		},
		{
			name:     "custom error",
			apiError: &APIError{HTTPStatus: 500, Code: "TEST", Message: "Test message"},
			expected: "Test message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.apiError.Error())
		})
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		statusCode int
		code       string
	}{
		{"ErrBadRequest", ErrBadRequest, http.StatusBadRequest, "BAD_REQUEST"},
		{"ErrInvalidJSON", ErrInvalidJSON, http.StatusBadRequest, "INVALID_JSON"},
		{"ErrValidation", ErrValidation, http.StatusBadRequest, "VALIDATION_FAILED"},
		{"ErrUnauthorized", ErrUnauthorized, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"ErrForbidden", ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
		{"ErrResourceNotFound", ErrResourceNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"ErrDuplicateResource", ErrDuplicateResource, http.StatusConflict, "DUPLICATE_RESOURCE"},
		{"ErrTooManyRequests", ErrTooManyRequests, http.StatusTooManyRequests, "TOO_MANY_REQUESTS"},
		{"ErrInternalServer", ErrInternalServer, http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
		{"ErrDatabase", ErrDatabase, http.StatusInternalServerError, "DATABASE_ERROR"},
		{"ErrBadGateway", ErrBadGateway, http.StatusBadGateway, "BAD_GATEWAY"},
		{"ErrGatewayTimeout", ErrGatewayTimeout, http.StatusGatewayTimeout, "GATEWAY_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.statusCode, tt.err.HTTPStatus)
			assert.Equal(t, tt.code, tt.err.Code)
			assert.NotEmpty(t, tt.err.Message)
		})
	}
}

func TestNewAPIError(t *testing.T) {
	customMsg := "Custom error message"
	err := NewAPIError(ErrBadRequest, customMsg)

	assert.Equal(t, ErrBadRequest.HTTPStatus, err.HTTPStatus)
	assert.Equal(t, ErrBadRequest.Code, err.Code)
	assert.Equal(t, customMsg, err.Message)
}

func TestNewAPIErrorWithUpstream(t *testing.T) {
	err := NewAPIErrorWithUpstream(http.StatusBadGateway, "UPSTREAM_ERROR", "Upstream service returned an error")

	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus)
	assert.Equal(t, "UPSTREAM_ERROR", err.Code)
	assert.Equal(t, "Upstream service returned an error", err.Message)
}

func TestParseUpstreamError(t *testing.T) {
	tests := []struct {
		name     string
		body     []byte
		expected string
	}{
		{
			name:     "standard OpenAI format",
			body:     []byte(`{"error": {"message": "Invalid API key"}}`),
			expected: "Invalid API key",
		},
		{
			name:     "vendor format",
			body:     []byte(`{"error_msg": "Access denied"}`),
			expected: "Access denied",
		},
		{
			name:     "simple error format",
			body:     []byte(`{"error": "Rate limit exceeded"}`),
			expected: "Rate limit exceeded",
		},
		{
			name:     "root message format",
			body:     []byte(`{"message": "Service unavailable"}`),
			expected: "Service unavailable",
		},
		{
			name:     "invalid JSON",
			body:     []byte(`not a json`),
			expected: "not a json",
		},
		{
			name:     "empty body",
			body:     []byte(``),
			expected: "",
		},
		{
			name:     "whitespace in message",
			body:     []byte(`{"error": {"message": "  Error with spaces  "}}`),
			expected: "Error with spaces",
		},
		{
			name:     "long error message",
			body:     []byte(`{"error": {"message": "` + strings.Repeat("a", 3000) + `"}}`),
			expected: strings.Repeat("a", maxErrorBodyLength),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseUpstreamError(tt.body))
		})
	}
}

func TestIsIgnorableError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"context canceled", errors.New("context canceled"), true},
		{"connection reset by peer", errors.New("read tcp: connection reset by peer"), true},
		{"broken pipe", errors.New("write tcp: broken pipe"), true},
		{"use of closed network connection", errors.New("use of closed network connection"), true},
		{"request canceled", errors.New("request canceled while waiting for connection"), true},
		{"non-ignorable error", errors.New("database connection failed"), false},
		{"case sensitive match", errors.New("Context Canceled"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsIgnorableError(tt.err))
		})
	}
}

func TestParseDBError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected *APIError
	}{
		{
			name:     "nil error",
			err:      nil,
			expected: nil,
		},
		{
			name:     "record not found",
			err:      gorm.ErrRecordNotFound,
			expected: ErrResourceNotFound,
		},
		{
			name:     "postgres unique violation",
			err:      &pgconn.PgError{Code: "23505"},
			expected: ErrDuplicateResource,
		},
		{
			name:     "mysql duplicate entry",
			err:      &mysql.MySQLError{Number: 1062},
			expected: ErrDuplicateResource,
		},
		{
			name:     "sqlite unique constraint",
			err:      errors.New("UNIQUE constraint failed: request_logs.request_id"),
			expected: ErrDuplicateResource,
		},
		{
			name:     "generic database error",
			err:      errors.New("database connection failed"),
			expected: ErrDatabase,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ParseDBError(tt.err)
			if tt.expected == nil {
				assert.Nil(t, result)
			} else {
				assert.Equal(t, tt.expected.HTTPStatus, result.HTTPStatus)
				assert.Equal(t, tt.expected.Code, result.Code)
			}
		})
	}
}
