package stream

import (
	"github.com/google/uuid"
)

// ResponseAggregator folds streaming deltas into a complete chat completion
// response, mirroring what a non-streaming request would have returned.
type ResponseAggregator struct {
	choices           []map[string]any
	usage             any
	systemFingerprint any
	model             string
	chunkCount        int
}

// NewResponseAggregator creates an empty aggregator.
func NewResponseAggregator() *ResponseAggregator {
	return &ResponseAggregator{}
}

// ProcessChunk merges one streaming chunk into the aggregate. Chunks without
// a choices key are ignored.
func (a *ResponseAggregator) ProcessChunk(chunk Chunk) {
	if chunk == nil {
		return
	}
	a.chunkCount++

	choices, ok := chunk["choices"].([]any)
	if !ok {
		return
	}

	// Lazily allocate one slot per choice seen in the first chunk.
	if len(a.choices) == 0 {
		a.choices = make([]map[string]any, 0, len(choices))
		for i, raw := range choices {
			choice, _ := raw.(map[string]any)
			index := any(i)
			var logprobs any
			if choice != nil {
				if v, ok := choice["index"]; ok {
					index = v
				}
				logprobs = choice["logprobs"]
			}
			a.choices = append(a.choices, map[string]any{
				"index":         index,
				"delta":         map[string]any{},
				"finish_reason": nil,
				"logprobs":      logprobs,
			})
		}
	}

	for i, raw := range choices {
		if i >= len(a.choices) {
			continue
		}
		choice, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		slot := a.choices[i]
		slotDelta := slot["delta"].(map[string]any)

		delta, _ := choice["delta"].(map[string]any)
		if delta != nil {
			if _, present := delta["content"]; present {
				slotDelta["content"] = stringOf(slotDelta["content"]) + stringOf(delta["content"])
			}
			if _, present := delta["reasoning_content"]; present {
				slotDelta["reasoning_content"] = stringOf(slotDelta["reasoning_content"]) + stringOf(delta["reasoning_content"])
			}
			if toolCalls, _ := delta["tool_calls"].([]any); len(toolCalls) > 0 {
				a.mergeToolCalls(slotDelta, toolCalls)
			}
		}

		if finishReason, present := choice["finish_reason"]; present {
			slot["finish_reason"] = finishReason
		}
		if logprobs, present := choice["logprobs"]; present {
			slot["logprobs"] = logprobs
		}
	}

	a.captureMetadata(chunk)
}

func (a *ResponseAggregator) captureMetadata(chunk Chunk) {
	if usage, present := chunk["usage"]; present {
		a.usage = usage
	}
	if fingerprint, present := chunk["system_fingerprint"]; present {
		a.systemFingerprint = fingerprint
	}
	if model, ok := chunk["model"].(string); ok {
		a.model = model
	}
}

// mergeToolCalls merges tool call fragments into the slot's delta, matching
// fragments to existing entries by their index field and concatenating name
// and arguments.
func (a *ResponseAggregator) mergeToolCalls(slotDelta map[string]any, fragments []any) {
	existing, _ := slotDelta["tool_calls"].([]any)

	for _, raw := range fragments {
		fragment, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		var target map[string]any
		for _, rawExisting := range existing {
			entry, ok := rawExisting.(map[string]any)
			if ok && sameIndex(entry["index"], fragment["index"]) {
				target = entry
				break
			}
		}

		if target == nil {
			existing = append(existing, deepCopyValue(fragment))
			continue
		}

		fragmentFn, ok := fragment["function"].(map[string]any)
		if !ok {
			continue
		}
		targetFn, ok := target["function"].(map[string]any)
		if !ok {
			targetFn = map[string]any{"name": "", "arguments": ""}
			target["function"] = targetFn
		}
		if _, present := fragmentFn["name"]; present {
			targetFn["name"] = stringOf(targetFn["name"]) + stringOf(fragmentFn["name"])
		}
		if _, present := fragmentFn["arguments"]; present {
			targetFn["arguments"] = stringOf(targetFn["arguments"]) + stringOf(fragmentFn["arguments"])
		}
	}

	slotDelta["tool_calls"] = existing
}

// FinalResponse assembles the aggregated chat completion. Returns nil if no
// choices were ever seen.
func (a *ResponseAggregator) FinalResponse() Chunk {
	if len(a.choices) == 0 {
		return nil
	}

	choicesData := make([]any, 0, len(a.choices))
	for _, choice := range a.choices {
		delta := choice["delta"].(map[string]any)

		toolCalls, _ := delta["tool_calls"].([]any)
		if toolCalls == nil {
			toolCalls = []any{}
		}

		message := map[string]any{
			"role":              "assistant",
			"content":           stringOf(delta["content"]),
			"reasoning_content": stringOf(delta["reasoning_content"]),
			"tool_calls":        toolCalls,
		}

		choicesData = append(choicesData, map[string]any{
			"index":         choice["index"],
			"message":       message,
			"finish_reason": choice["finish_reason"],
			"logprobs":      choice["logprobs"],
		})
	}

	model := a.model
	if model == "" {
		model = "unknown"
	}

	return Chunk{
		"id":                 "chatcmpl-" + uuid.NewString()[:8],
		"object":             "chat.completion",
		"created":            nil,
		"model":              model,
		"choices":            choicesData,
		"usage":              a.usage,
		"system_fingerprint": a.systemFingerprint,
	}
}

// ChunkCount returns how many chunks were merged.
func (a *ResponseAggregator) ChunkCount() int {
	return a.chunkCount
}

// Summary reports what the first choice produced, for logging and the
// persisted request record.
func (a *ResponseAggregator) Summary() (contentLen, reasoningLen, toolCallCount int, finishReason string) {
	if len(a.choices) == 0 {
		return 0, 0, 0, ""
	}
	first := a.choices[0]
	delta := first["delta"].(map[string]any)

	contentLen = len(stringOf(delta["content"]))
	reasoningLen = len(stringOf(delta["reasoning_content"]))
	if toolCalls, ok := delta["tool_calls"].([]any); ok {
		toolCallCount = len(toolCalls)
	}
	finishReason = stringOf(first["finish_reason"])
	return contentLen, reasoningLen, toolCallCount, finishReason
}

// stringOf converts a possibly-nil delta field to a string, treating nil and
// non-string values as empty.
func stringOf(value any) string {
	s, _ := value.(string)
	return s
}

// sameIndex compares two index values that may be ints (locally built) or
// float64s (decoded from JSON).
func sameIndex(a, b any) bool {
	av, aok := numericValue(a)
	bv, bok := numericValue(b)
	if aok && bok {
		return av == bv
	}
	return a == b
}

func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
