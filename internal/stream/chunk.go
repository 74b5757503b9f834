package stream

// Chunk is one parsed streaming response chunk. Chunks stay as generic maps
// so unknown fields survive the round trip back to the client untouched.
type Chunk = map[string]any

// CopyChunk returns a deep copy of a chunk. Emitted chunks are always copies
// so surgery on one never mutates a chunk that was already forwarded or
// queued for replay.
func CopyChunk(chunk Chunk) Chunk {
	if chunk == nil {
		return nil
	}
	return deepCopyValue(chunk).(map[string]any)
}

func deepCopyValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		copied := make(map[string]any, len(v))
		for key, val := range v {
			copied[key] = deepCopyValue(val)
		}
		return copied
	case []any:
		copied := make([]any, len(v))
		for i, val := range v {
			copied[i] = deepCopyValue(val)
		}
		return copied
	default:
		return v
	}
}

// IsValidChunk reports whether a chunk has the shape the transformer knows
// how to handle: a non-empty choices list whose first element carries a delta.
func IsValidChunk(chunk Chunk) bool {
	if chunk == nil {
		return false
	}
	choices, ok := chunk["choices"].([]any)
	if !ok || len(choices) == 0 {
		return false
	}
	first, ok := choices[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasDelta := first["delta"]
	return hasDelta
}

// firstChoice returns the first choice map of a valid chunk.
func firstChoice(chunk Chunk) map[string]any {
	choices := chunk["choices"].([]any)
	return choices[0].(map[string]any)
}

// deltaOf returns the delta map of the first choice, or nil if absent or of
// an unexpected type.
func deltaOf(chunk Chunk) map[string]any {
	delta, _ := firstChoice(chunk)["delta"].(map[string]any)
	return delta
}

// reasoningContentOf extracts the reasoning_content string from a delta.
func reasoningContentOf(delta map[string]any) string {
	if delta == nil {
		return ""
	}
	reasoning, _ := delta["reasoning_content"].(string)
	return reasoning
}
