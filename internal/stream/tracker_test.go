package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func feedAll(t *testing.T, tracker *completenessTracker, fragments []string) (completedAt int, payload string) {
	t.Helper()
	completedAt = -1
	for i, fragment := range fragments {
		complete, body := tracker.Feed(fragment)
		if complete && completedAt == -1 {
			completedAt = i
			payload = body
		}
	}
	return completedAt, payload
}

func TestCompletenessTracker(t *testing.T) {
	tests := []struct {
		name        string
		fragments   []string
		completedAt int
		payload     string
	}{
		{
			name:        "single fragment object",
			fragments:   []string{`{"a":1}`},
			completedAt: 0,
			payload:     `{"a":1}`,
		},
		{
			name:        "object split across fragments",
			fragments:   []string{`{"a":`, `1}`},
			completedAt: 1,
			payload:     `{"a":1}`,
		},
		{
			name:        "nested braces complete at outer close",
			fragments:   []string{`{"a":{"b":`, `2}`, `}`},
			completedAt: 2,
			payload:     `{"a":{"b":2}}`,
		},
		{
			name:        "brace inside string is not structural",
			fragments:   []string{`{"s":"}{",`, `"n":1}`},
			completedAt: 1,
			payload:     `{"s":"}{","n":1}`,
		},
		{
			name:        "escaped quote does not close string",
			fragments:   []string{`{"s":"x\"}`, `y"}`},
			completedAt: 1,
			payload:     `{"s":"x\"}y"}`,
		},
		{
			name:        "escape split across fragments",
			fragments:   []string{`{"s":"a\`, `"}b"}`},
			completedAt: 1,
			payload:     `{"s":"a\"}b"}`,
		},
		{
			name:        "character by character",
			fragments:   []string{`{`, `"`, `a`, `"`, `:`, `1`, `}`},
			completedAt: 6,
			payload:     `{"a":1}`,
		},
		{
			name:        "incomplete object never reports",
			fragments:   []string{`{"a":`, `"unterminated`},
			completedAt: -1,
		},
		{
			name:        "single quoted strings are not valid",
			fragments:   []string{`{'a':1}`},
			completedAt: -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracker := &completenessTracker{}
			completedAt, payload := feedAll(t, tracker, tt.fragments)
			assert.Equal(t, tt.completedAt, completedAt)
			if tt.completedAt >= 0 {
				assert.Equal(t, tt.payload, payload)
			}
		})
	}
}

func TestCompletenessTrackerUnbalancedCloseNeverCompletes(t *testing.T) {
	// The candidate includes every character fed so far, so earlier junk
	// keeps the prefix from ever validating as JSON.
	tracker := &completenessTracker{}
	complete, _ := tracker.Feed(`}`)
	assert.False(t, complete)
	complete, _ = tracker.Feed(`{"a":1}`)
	assert.False(t, complete)
}

func TestCompletenessTrackerReportsOnlyAtClosingBrace(t *testing.T) {
	tracker := &completenessTracker{}

	complete, _ := tracker.Feed(`{"path":`)
	require.False(t, complete)
	complete, _ = tracker.Feed(`"a.txt"`)
	require.False(t, complete)

	complete, payload := tracker.Feed(`}`)
	require.True(t, complete)
	assert.Equal(t, `{"path":"a.txt"}`, payload)
}

func TestCompletenessTrackerSticky(t *testing.T) {
	tracker := &completenessTracker{}

	complete, payload := tracker.Feed(`{"a":1}`)
	require.True(t, complete)
	require.Equal(t, `{"a":1}`, payload)

	// Further input never reopens the object.
	complete, payload = tracker.Feed(`{"b":2}`)
	assert.True(t, complete)
	assert.Equal(t, `{"a":1}`, payload)
}

func TestCompletenessTrackerTrailingTextDropped(t *testing.T) {
	tracker := &completenessTracker{}

	complete, payload := tracker.Feed(`{"a":1}trailing`)
	require.True(t, complete)
	assert.Equal(t, `{"a":1}`, payload)
}

func TestCompletenessTrackerEmptyFragment(t *testing.T) {
	tracker := &completenessTracker{}
	complete, _ := tracker.Feed("")
	assert.False(t, complete)
}

func TestCompletenessTrackerReset(t *testing.T) {
	tracker := &completenessTracker{}

	complete, _ := tracker.Feed(`{"a":1}`)
	require.True(t, complete)

	tracker.Reset()

	complete, _ = tracker.Feed(`{"b":`)
	assert.False(t, complete)
	complete, payload := tracker.Feed(`2}`)
	require.True(t, complete)
	assert.Equal(t, `{"b":2}`, payload)
}
