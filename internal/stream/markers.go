// Package stream reconstructs structured tool calls from inference server
// streams that embed them as marker text inside reasoning content, and
// aggregates streaming deltas into complete responses.
package stream

import (
	"regexp"
	"strings"
)

// Explicit marker tokens the inference server may emit verbatim around an
// embedded tool call.
const (
	markerSectionBegin  = "<|tool_calls_section_begin|>"
	markerCallBegin     = "<|tool_call_begin|>"
	markerArgumentBegin = "<|tool_call_argument_begin|>"
	markerCallEnd       = "<|tool_call_end|>"
	markerSectionEnd    = "<|tool_calls_section_end|>"
)

var asciiMarkers = []string{
	markerSectionBegin,
	markerCallBegin,
	markerArgumentBegin,
	markerCallEnd,
	markerSectionEnd,
}

var asciiMarkerPattern = regexp.MustCompile(
	regexp.QuoteMeta(markerSectionBegin) +
		"|" + regexp.QuoteMeta(markerCallBegin) +
		"|" + regexp.QuoteMeta(markerArgumentBegin) +
		"|" + regexp.QuoteMeta(markerCallEnd) +
		"|" + regexp.QuoteMeta(markerSectionEnd),
)

// functionHeaderPattern matches a tool call header like "functions.read_file:1".
var functionHeaderPattern = regexp.MustCompile(`functions\.(\w+):(\d+)`)

// isControlMarkerRune reports whether the rune falls in the Unicode ranges
// the server uses as out-of-band control markers.
func isControlMarkerRune(r rune) bool {
	return (r >= 0x0F00 && r <= 0x0FFF) || (r >= 0x1800 && r <= 0x18AF)
}

// stripMarkersAndDetect removes control runes and explicit marker tokens from
// text, returning the cleaned text and whether any marker was present. When
// trimWhitespace is set, leading and trailing whitespace is trimmed; argument
// segments must keep their whitespace since it can be split across chunks.
func stripMarkersAndDetect(text string, trimWhitespace bool) (string, bool) {
	if text == "" {
		return "", false
	}

	hasControl := false
	noControl := strings.Map(func(r rune) rune {
		if isControlMarkerRune(r) {
			hasControl = true
			return -1
		}
		return r
	}, text)

	hasASCIIMarker := asciiMarkerPattern.MatchString(noControl)
	cleaned := asciiMarkerPattern.ReplaceAllString(noControl, "")

	if trimWhitespace {
		cleaned = strings.TrimSpace(cleaned)
	}

	return cleaned, hasControl || hasASCIIMarker
}

// stripArgumentMarkers removes only the explicit marker tokens from an
// argument segment. Whitespace, backslashes, and every other character are
// preserved exactly as the model produced them.
func stripArgumentMarkers(text string) string {
	if text == "" {
		return ""
	}
	for _, marker := range asciiMarkers {
		text = strings.ReplaceAll(text, marker, "")
	}
	return text
}

// containsEndMarker reports whether the raw (pre-strip) text carries an
// explicit end-of-call signal.
func containsEndMarker(raw string) bool {
	return strings.Contains(raw, markerCallEnd) || strings.Contains(raw, markerSectionEnd)
}

// looksLikeToolStart reports whether cleaned text appears to begin a tool
// call header.
func looksLikeToolStart(text string) bool {
	return text != "" && strings.Contains(text, "functions.")
}
