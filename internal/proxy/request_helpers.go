package proxy

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	app_errors "llm-proxy/internal/errors"
	"llm-proxy/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// maxUpstreamErrorBodySize bounds how much of an upstream error body is read.
const maxUpstreamErrorBodySize = 64 * 1024 // 64KB

// isStreamRequest reports whether the client asked for a streaming response,
// either via the "stream" field in the request body or the Accept header.
func isStreamRequest(c *gin.Context, bodyBytes []byte) bool {
	if gjson.GetBytes(bodyBytes, "stream").Bool() {
		return true
	}
	return strings.Contains(c.GetHeader("Accept"), "text/event-stream")
}

// extractModel pulls the model name out of the request body for logging.
func extractModel(bodyBytes []byte) string {
	return gjson.GetBytes(bodyBytes, "model").String()
}

// classifyUpstreamError maps a transport-level failure to a stable gateway
// error so clients can tell a timeout from a connection failure.
func classifyUpstreamError(err error) *app_errors.APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return app_errors.ErrGatewayTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return app_errors.ErrGatewayTimeout
	}
	return app_errors.NewAPIError(app_errors.ErrBadGateway, err.Error())
}

// readUpstreamErrorBody extracts a human-readable error message from an
// upstream error response, decompressing the body if needed.
func readUpstreamErrorBody(resp *http.Response) string {
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBodySize))
	if err != nil {
		logrus.Errorf("Failed to read upstream error body: %v", err)
		return "Failed to read upstream error body"
	}

	decompressed, err := utils.DecompressResponse(resp.Header.Get("Content-Encoding"), body)
	if err == nil {
		body = decompressed
	}

	return app_errors.ParseUpstreamError(body)
}

// logUpstreamError logs errors from upstream interactions, downgrading
// client-disconnect noise to debug level.
func logUpstreamError(context string, err error) {
	if err == nil {
		return
	}
	if app_errors.IsIgnorableError(err) {
		logrus.Debugf("Ignorable upstream error in %s: %v", context, err)
	} else {
		logrus.Errorf("Upstream error in %s: %v", context, err)
	}
}
