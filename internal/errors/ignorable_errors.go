package errors

import (
	"strings"
)

// ignorableErrorSubstrings identify errors caused by clients going away.
// They are logged at debug level instead of polluting error logs.
var ignorableErrorSubstrings = []string{
	"context canceled",
	"connection reset by peer",
	"broken pipe",
	"use of closed network connection",
	"request canceled",
}

// IsIgnorableError reports whether the error stems from a client disconnect
// or a canceled request.
func IsIgnorableError(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	for _, substr := range ignorableErrorSubstrings {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}
