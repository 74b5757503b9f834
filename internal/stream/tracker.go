package stream

import (
	"encoding/json"
	"strings"
	"unicode/utf8"
)

// completenessTracker detects the instant a top-level JSON object closes
// validly in a character stream that arrives in arbitrary fragments. It is
// stateful and resumable: each Feed call advances brace depth, string mode,
// and escape state across only the new characters.
type completenessTracker struct {
	buf           strings.Builder
	braceDepth    int
	inString      bool
	stringChar    rune
	escapePending bool
	complete      bool
}

// Feed consumes the next fragment. Once the accumulated text forms a valid
// top-level JSON object, it returns true along with that object; further
// calls keep returning the same result.
func (t *completenessTracker) Feed(fragment string) (bool, string) {
	if t.complete {
		return true, t.buf.String()
	}
	if fragment == "" {
		return false, ""
	}

	base := t.buf.Len()
	t.buf.WriteString(fragment)

	for i, ch := range fragment {
		if t.inString {
			switch {
			case t.escapePending:
				t.escapePending = false
			case ch == '\\':
				t.escapePending = true
			case ch == t.stringChar:
				t.inString = false
				t.stringChar = 0
			}
			continue
		}

		switch ch {
		case '"', '\'':
			t.inString = true
			t.stringChar = ch
		case '{':
			t.braceDepth++
		case '}':
			if t.braceDepth > 0 {
				t.braceDepth--
				if t.braceDepth == 0 {
					candidate := t.buf.String()[:base+i+utf8.RuneLen(ch)]
					if json.Valid([]byte(candidate)) {
						t.complete = true
						// Drop anything scanned past the close.
						t.buf.Reset()
						t.buf.WriteString(candidate)
						return true, candidate
					}
				}
			}
		}
	}

	return false, ""
}

// Reset clears all tracker state.
func (t *completenessTracker) Reset() {
	t.buf.Reset()
	t.braceDepth = 0
	t.inString = false
	t.stringChar = 0
	t.escapePending = false
	t.complete = false
}
