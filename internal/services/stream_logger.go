package services

import (
	"net/http"

	"llm-proxy/internal/models"
	"llm-proxy/internal/types"
	"llm-proxy/internal/utils"

	"github.com/sirupsen/logrus"
)

// maxLoggedBodyLength bounds request bodies in log output.
const maxLoggedBodyLength = 2000

// StreamLogger writes structured diagnostics for proxied requests and their
// streaming responses. Per-chunk logging is expensive and stays off unless
// chunk debugging is enabled.
type StreamLogger struct {
	chunkDebug bool
}

// NewStreamLogger creates a StreamLogger from the log configuration.
func NewStreamLogger(configManager types.ConfigManager) *StreamLogger {
	return &StreamLogger{
		chunkDebug: configManager.GetLogConfig().EnableChunkDebug,
	}
}

// LogRequest logs an incoming request with credentials masked.
func (l *StreamLogger) LogRequest(requestID, method, path string, header http.Header, body []byte) {
	fields := logrus.Fields{
		"request_id": requestID,
		"method":     method,
		"path":       path,
	}
	if logrus.IsLevelEnabled(logrus.DebugLevel) {
		fields["headers"] = utils.RedactHeaders(header)
		fields["body"] = utils.TruncateString(string(utils.SanitizeRequestBody(body, maxLoggedBodyLength)), maxLoggedBodyLength)
	}
	logrus.WithFields(fields).Info("Incoming request")
}

// LogServerChunk logs a raw SSE line as received from the upstream.
func (l *StreamLogger) LogServerChunk(requestID string, line string) {
	if !l.chunkDebug {
		return
	}
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"direction":  "upstream",
	}).Debugf("chunk: %s", utils.TruncateString(line, maxLoggedBodyLength))
}

// LogStreamChunk logs an SSE line as sent to the client.
func (l *StreamLogger) LogStreamChunk(requestID string, line string) {
	if !l.chunkDebug {
		return
	}
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"direction":  "client",
	}).Debugf("chunk: %s", utils.TruncateString(line, maxLoggedBodyLength))
}

// LogAggregatedResponse logs the summary of a completed stream.
func (l *StreamLogger) LogAggregatedResponse(requestID string, summary models.StreamSummary) {
	logrus.WithFields(logrus.Fields{
		"request_id":               requestID,
		"content_length":           summary.ContentLength,
		"reasoning_content_length": summary.ReasoningContentLength,
		"tool_calls_count":         summary.ToolCallsCount,
		"chunk_count":              summary.ChunkCount,
		"finish_reason":            summary.FinishReason,
	}).Info("Stream completed")
}

// LogError logs a proxy error unless it stems from a client disconnect.
func (l *StreamLogger) LogError(requestID string, context string, err error) {
	logrus.WithFields(logrus.Fields{
		"request_id": requestID,
		"context":    context,
	}).Errorf("%v", err)
}
