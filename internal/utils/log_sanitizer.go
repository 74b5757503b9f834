package utils

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sensitiveHeaders are replaced with a placeholder before headers reach logs
// or persisted request records.
var sensitiveHeaders = map[string]bool{
	"authorization": true,
	"cookie":        true,
	"set-cookie":    true,
	"x-api-key":     true,
}

// RedactHeaders flattens request headers into a loggable map with credential
// values masked.
func RedactHeaders(header http.Header) map[string]string {
	redacted := make(map[string]string, len(header))
	for key, values := range header {
		if sensitiveHeaders[strings.ToLower(key)] {
			redacted[key] = "***REDACTED***"
			continue
		}
		redacted[key] = strings.Join(values, ", ")
	}
	return redacted
}

// SanitizeRequestBody trims oversized message content in a chat completion
// request body so persisted records stay bounded. Non-JSON bodies and bodies
// without messages are returned unchanged.
func SanitizeRequestBody(body []byte, maxContentLen int) []byte {
	if maxContentLen <= 0 || !gjson.ValidBytes(body) {
		return body
	}

	messages := gjson.GetBytes(body, "messages")
	if !messages.IsArray() {
		return body
	}

	sanitized := body
	messages.ForEach(func(idx, msg gjson.Result) bool {
		content := msg.Get("content")
		if content.Type != gjson.String || len(content.Str) <= maxContentLen {
			return true
		}
		path := fmt.Sprintf("messages.%d.content", idx.Int())
		truncated := content.Str[:maxContentLen] + "...(truncated)"
		if updated, err := sjson.SetBytes(sanitized, path, truncated); err == nil {
			sanitized = updated
		}
		return true
	})
	return sanitized
}
