package proxy

import (
	"bufio"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"llm-proxy/internal/models"
	"llm-proxy/internal/stream"
	"llm-proxy/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// maxLoggedRequestBodyBytes bounds request bodies persisted in the request log.
const maxLoggedRequestBodyBytes = 2000

const doneSentinel = "[DONE]"

// handleStreamingResponse relays an upstream event stream to the client. Each
// data line is parsed, optionally run through the tool-call transformer, fed
// to the aggregator, and re-serialized. The terminal sentinel is forwarded
// exactly once, after any pending transformer flush.
func (ps *ProxyServer) handleStreamingResponse(c *gin.Context, resp *http.Response, requestID string) *models.StreamSummary {
	utils.CopyResponseHeaders(c.Writer.Header(), resp.Header, true)
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(resp.StatusCode)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		logrus.Error("Streaming unsupported by the writer, falling back to normal response")
		ps.handleNormalResponse(c, resp)
		return nil
	}

	var transformer *stream.ToolCallTransformer
	if ps.configManager.GetUpstreamConfig().EnableStreamToolParser {
		transformer = stream.NewToolCallTransformer()
	}
	aggregator := stream.NewResponseAggregator()

	writeChunk := func(chunk stream.Chunk) bool {
		data, err := json.Marshal(chunk)
		if err != nil {
			ps.streamLogger.LogError(requestID, "marshaling chunk", err)
			return true
		}
		line := "data: " + string(data) + "\n\n"
		if _, err := c.Writer.WriteString(line); err != nil {
			logUpstreamError("writing stream to client", err)
			return false
		}
		flusher.Flush()
		ps.streamLogger.LogStreamChunk(requestID, line)
		return true
	}

	relayChunks := func(chunks []stream.Chunk) bool {
		for _, chunk := range chunks {
			aggregator.ProcessChunk(chunk)
			if !writeChunk(chunk) {
				return false
			}
		}
		return true
	}

	finish := func() *models.StreamSummary {
		if transformer != nil {
			relayChunks(transformer.FlushPending())
		}
		if _, err := c.Writer.WriteString("data: " + doneSentinel + "\n\n"); err != nil {
			logUpstreamError("writing stream terminator", err)
		} else {
			flusher.Flush()
		}

		contentLen, reasoningLen, toolCallCount, finishReason := aggregator.Summary()
		summary := &models.StreamSummary{
			ContentLength:          contentLen,
			ReasoningContentLength: reasoningLen,
			ToolCallsCount:         toolCallCount,
			ChunkCount:             aggregator.ChunkCount(),
			FinishReason:           finishReason,
		}
		ps.streamLogger.LogAggregatedResponse(requestID, *summary)
		return summary
	}

	reader := bufio.NewReader(resp.Body)
	for {
		rawLine, err := reader.ReadString('\n')
		line := strings.TrimRight(rawLine, "\r\n")

		if line != "" {
			if !ps.relayLine(c, line, requestID, transformer, relayChunks) {
				if err == nil {
					return finish()
				}
			}
		}

		if err == io.EOF {
			return finish()
		}
		if err != nil {
			logUpstreamError("reading from upstream", err)
			return finish()
		}
	}
}

// relayLine handles one upstream SSE line. It returns false once the terminal
// sentinel is seen or the client connection broke.
func (ps *ProxyServer) relayLine(
	c *gin.Context,
	line string,
	requestID string,
	transformer *stream.ToolCallTransformer,
	relayChunks func([]stream.Chunk) bool,
) bool {
	ps.streamLogger.LogServerChunk(requestID, line)

	if !strings.HasPrefix(line, "data:") {
		// SSE comments or event fields; pass them through untouched.
		if _, err := c.Writer.WriteString(line + "\n\n"); err != nil {
			logUpstreamError("writing stream to client", err)
			return false
		}
		return true
	}

	payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
	if payload == doneSentinel {
		return false
	}
	if payload == "" {
		return true
	}

	var chunk stream.Chunk
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		ps.streamLogger.LogError(requestID, "parsing upstream chunk", err)
		return true
	}

	outgoing := []stream.Chunk{chunk}
	if transformer != nil {
		outgoing = transformer.ProcessChunk(chunk)
	}
	return relayChunks(outgoing)
}

// handleNormalResponse relays a non-streaming response body verbatim.
func (ps *ProxyServer) handleNormalResponse(c *gin.Context, resp *http.Response) {
	utils.CopyResponseHeaders(c.Writer.Header(), resp.Header, false)
	c.Status(resp.StatusCode)

	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		logUpstreamError("copying response body", err)
	}
}

// handleRawResponse relays any response as raw bytes, flushing as data
// arrives so pass-through event streams stay live.
func (ps *ProxyServer) handleRawResponse(c *gin.Context, resp *http.Response) {
	streaming := strings.Contains(resp.Header.Get("Content-Type"), "text/event-stream")
	utils.CopyResponseHeaders(c.Writer.Header(), resp.Header, streaming)
	c.Status(resp.StatusCode)

	flusher, _ := c.Writer.(http.Flusher)
	buf := make([]byte, 4*1024)
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := c.Writer.Write(buf[:n]); writeErr != nil {
				logUpstreamError("writing to client", writeErr)
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
		}
		if err == io.EOF {
			return
		}
		if err != nil {
			logUpstreamError("reading from upstream", err)
			return
		}
	}
}
