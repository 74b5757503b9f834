package stream

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// parserState enumerates the transformer's reconstruction phases.
type parserState int

const (
	// stateIdle passes chunks through while watching for tool markers.
	stateIdle parserState = iota
	// stateToolCallBuild collects text until a "functions.<name>:<id>"
	// header can be matched.
	stateToolCallBuild
	// stateArgumentBuild streams argument text as tool_calls deltas until
	// the call ends.
	stateArgumentBuild
)

func (s parserState) String() string {
	switch s {
	case stateToolCallBuild:
		return "tool_call_build"
	case stateArgumentBuild:
		return "argument_build"
	default:
		return "idle"
	}
}

// toolCallBuilder holds the reconstruction buffers for one tool call. It is
// meaningful only while the transformer is not idle and is fully reset on
// every transition back to idle.
type toolCallBuilder struct {
	headerBuffer    string
	toolName        string
	toolID          string
	argumentsBuffer strings.Builder
	tracker         completenessTracker
}

func (b *toolCallBuilder) reset() {
	b.headerBuffer = ""
	b.toolName = ""
	b.toolID = ""
	b.argumentsBuffer.Reset()
	b.tracker.Reset()
}

func (b *toolCallBuilder) callID() string {
	return "functions." + b.toolName + ":" + b.toolID
}

// ToolCallTransformer converts tool calls embedded as marker text in
// reasoning_content into structured tool_calls streaming deltas.
//
// Usage:
//
//	transformer := NewToolCallTransformer()
//	for _, out := range transformer.ProcessChunk(chunk) { ... }
//	for _, pending := range transformer.FlushPending() { ... }
//
// Only the first choice of each chunk is examined. Every original chunk
// consumed mid-reconstruction is queued, so if the stream ends before the
// tool call completes, FlushPending replays the originals and nothing the
// upstream sent is lost.
type ToolCallTransformer struct {
	state   parserState
	builder toolCallBuilder
	pending []Chunk
}

// NewToolCallTransformer creates a transformer in the idle state.
func NewToolCallTransformer() *ToolCallTransformer {
	return &ToolCallTransformer{}
}

// ProcessChunk consumes one parsed chunk and returns zero or more chunks to
// forward to the client.
func (t *ToolCallTransformer) ProcessChunk(chunk Chunk) []Chunk {
	if !IsValidChunk(chunk) {
		if t.state == stateIdle {
			return []Chunk{chunk}
		}
		// Mid-reconstruction an unexpected chunk may carry raw marker
		// text. Queue it for a possible flush instead of forwarding.
		logrus.Debugf("stream transformer: queuing invalid chunk in state=%s", t.state)
		t.pending = append(t.pending, CopyChunk(chunk))
		return nil
	}

	reasoning := reasoningContentOf(deltaOf(chunk))

	if t.state == stateIdle && reasoning == "" {
		return []Chunk{chunk}
	}

	switch t.state {
	case stateIdle:
		return t.processIdle(chunk, reasoning)
	case stateToolCallBuild:
		return t.processToolCallBuild(chunk, reasoning)
	case stateArgumentBuild:
		return t.processArgumentBuild(chunk, reasoning)
	default:
		return []Chunk{chunk}
	}
}

// FlushPending replays any queued original chunks if the stream ended with an
// incomplete tool call, then resets the transformer.
func (t *ToolCallTransformer) FlushPending() []Chunk {
	var out []Chunk
	if len(t.pending) > 0 {
		logrus.Warnf("stream transformer: flushing %d pending chunks with incomplete tool call; state=%s",
			len(t.pending), t.state)
		out = t.pending
	}
	t.resetState()
	return out
}

func (t *ToolCallTransformer) processIdle(chunk Chunk, reasoning string) []Chunk {
	cleaned, hasMarker := stripMarkersAndDetect(reasoning, true)
	headerLike := looksLikeToolStart(cleaned)

	if !hasMarker && !headerLike {
		return []Chunk{chunk}
	}

	// A trailing end marker after the call already closed carries nothing
	// to forward and does not open a new call.
	if cleaned == "" && containsEndMarker(reasoning) {
		return nil
	}

	// A marker arrived but no header text yet, e.g. "I'll check. <|tool_call_begin|>".
	// Forward the cleaned reasoning and wait for the header.
	if hasMarker && !strings.Contains(cleaned, "functions.") {
		logrus.Debugf("stream transformer: tool marker detected, building header")
		out := t.cloneChunkWithReasoning(chunk, cleaned)

		t.state = stateToolCallBuild
		t.builder.reset()
		t.pending = nil
		return []Chunk{out}
	}

	headerStart := strings.Index(cleaned, "functions.")
	if headerStart == -1 {
		return []Chunk{chunk}
	}

	prefix := cleaned[:headerStart]
	header := cleaned[headerStart:]

	var out []Chunk
	if strings.TrimSpace(prefix) != "" {
		out = append(out, t.cloneChunkWithReasoning(chunk, prefix))
	}

	t.state = stateToolCallBuild
	t.builder.reset()
	t.builder.headerBuffer = header
	t.pending = []Chunk{CopyChunk(chunk)}

	return append(out, t.tryFinishToolHeader(chunk)...)
}

func (t *ToolCallTransformer) processToolCallBuild(chunk Chunk, reasoning string) []Chunk {
	cleaned, _ := stripMarkersAndDetect(reasoning, true)
	t.builder.headerBuffer += cleaned
	t.pending = append(t.pending, CopyChunk(chunk))

	return t.tryFinishToolHeader(chunk)
}

// tryFinishToolHeader attempts to match "functions.<name>:<id>" in the header
// buffer. On a match it emits the tool call start chunk, switches to argument
// building, and treats any text after the header as the first argument
// segment.
func (t *ToolCallTransformer) tryFinishToolHeader(chunkFrom Chunk) []Chunk {
	match := functionHeaderPattern.FindStringSubmatchIndex(t.builder.headerBuffer)
	if match == nil {
		return nil
	}

	t.builder.toolName = t.builder.headerBuffer[match[2]:match[3]]
	t.builder.toolID = t.builder.headerBuffer[match[4]:match[5]]

	remaining := t.builder.headerBuffer[match[1]:]
	t.builder.headerBuffer = ""

	logrus.Debugf("stream transformer: tool header %s", t.builder.callID())
	out := []Chunk{t.createToolCallStartChunk(chunkFrom)}

	t.state = stateArgumentBuild

	if remaining != "" {
		out = append(out, t.emitArgumentDelta(remaining, chunkFrom)...)
	}
	return out
}

func (t *ToolCallTransformer) processArgumentBuild(chunk Chunk, reasoning string) []Chunk {
	t.pending = append(t.pending, CopyChunk(chunk))
	return t.emitArgumentDelta(reasoning, chunk)
}

// emitArgumentDelta streams one raw argument segment as a tool_calls delta.
// Only explicit marker tokens are stripped; whitespace, quotes, and
// backslashes pass through exactly as the model emitted them. The call ends
// when the raw text carries an end marker, or when the accumulated arguments
// form a complete JSON object.
func (t *ToolCallTransformer) emitArgumentDelta(rawText string, originalChunk Chunk) []Chunk {
	if rawText == "" {
		return nil
	}

	cleanedArgs := stripArgumentMarkers(rawText)

	var out []Chunk
	if cleanedArgs != "" {
		t.builder.argumentsBuffer.WriteString(cleanedArgs)
		out = append(out, t.createArgumentChunk(cleanedArgs, originalChunk))

		complete, _ := t.builder.tracker.Feed(cleanedArgs)
		if complete && t.state == stateArgumentBuild {
			logrus.Debugf("stream transformer: complete JSON arguments for %s", t.builder.callID())
			t.resetState()
			return out
		}
	}

	// End markers are authoritative, checked against the raw text.
	if containsEndMarker(rawText) {
		logrus.Debugf("stream transformer: end marker for %s", t.builder.callID())
		t.resetState()
	}

	return out
}

// cloneChunkWithReasoning copies a chunk and overrides its reasoning_content,
// making sure no tool_calls ride along with the reasoning piece.
func (t *ToolCallTransformer) cloneChunkWithReasoning(originalChunk Chunk, reasoning string) Chunk {
	newChunk := CopyChunk(originalChunk)
	choice := firstChoice(newChunk)
	delta, ok := choice["delta"].(map[string]any)
	if !ok {
		delta = map[string]any{}
		choice["delta"] = delta
	}
	delta["reasoning_content"] = reasoning
	if _, hasToolCalls := delta["tool_calls"]; hasToolCalls {
		delta["tool_calls"] = nil
	}
	return newChunk
}

// createToolCallStartChunk announces the tool call with its name and an
// empty arguments string.
func (t *ToolCallTransformer) createToolCallStartChunk(originalChunk Chunk) Chunk {
	return t.createToolCallChunk(originalChunk, t.builder.toolName, "")
}

// createArgumentChunk carries one argument segment. The name is nil since it
// was already sent in the start chunk.
func (t *ToolCallTransformer) createArgumentChunk(args string, originalChunk Chunk) Chunk {
	return t.createToolCallChunk(originalChunk, nil, args)
}

func (t *ToolCallTransformer) createToolCallChunk(originalChunk Chunk, name any, args string) Chunk {
	newChunk := CopyChunk(originalChunk)
	firstChoice(newChunk)["delta"] = map[string]any{
		"role":              nil,
		"content":           nil,
		"reasoning_content": nil,
		"tool_calls": []any{
			map[string]any{
				"id":    t.builder.callID(),
				"index": 0,
				"type":  "function",
				"function": map[string]any{
					"name":      name,
					"arguments": args,
				},
			},
		},
	}
	return newChunk
}

func (t *ToolCallTransformer) resetState() {
	t.state = stateIdle
	t.builder.reset()
	t.pending = nil
}
