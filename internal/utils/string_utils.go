package utils

import (
	"strings"
)

// MaskToken masks a credential for safe logging.
// Example: "sk-1234567890abcdef" -> "sk-1****cdef"
func MaskToken(token string) string {
	length := len(token)
	if length <= 8 {
		return token
	}
	var b strings.Builder
	b.Grow(12)
	b.WriteString(token[:4])
	b.WriteString("****")
	b.WriteString(token[length-4:])
	return b.String()
}

// TruncateString shortens a string to a maximum length.
func TruncateString(s string, maxLength int) string {
	if len(s) > maxLength {
		return s[:maxLength]
	}
	return s
}

// SplitAndTrim splits a string by a separator and drops empty parts.
func SplitAndTrim(s string, sep string) []string {
	if s == "" {
		return []string{}
	}

	parts := strings.Split(s, sep)
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
