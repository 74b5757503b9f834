// Package proxy implements the transparent proxy in front of the inference
// server, including the streaming relay that rewrites embedded tool calls.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	app_errors "llm-proxy/internal/errors"
	"llm-proxy/internal/httpclient"
	"llm-proxy/internal/middleware"
	"llm-proxy/internal/models"
	"llm-proxy/internal/response"
	"llm-proxy/internal/services"
	"llm-proxy/internal/types"
	"llm-proxy/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// ProxyServer relays chat completion requests to the upstream inference
// server, transforming streaming responses on the way back.
type ProxyServer struct {
	configManager     types.ConfigManager
	clients           *httpclient.UpstreamClients
	requestLogService *services.RequestLogService
	streamLogger      *services.StreamLogger
}

// NewProxyServer creates a ProxyServer.
func NewProxyServer(
	configManager types.ConfigManager,
	clients *httpclient.UpstreamClients,
	requestLogService *services.RequestLogService,
	streamLogger *services.StreamLogger,
) *ProxyServer {
	return &ProxyServer{
		configManager:     configManager,
		clients:           clients,
		requestLogService: requestLogService,
		streamLogger:      streamLogger,
	}
}

// HandleChatCompletions proxies a chat completion request. Streaming
// responses go through the tool-call transformer and the aggregator;
// non-streaming responses are relayed verbatim.
func (ps *ProxyServer) HandleChatCompletions(c *gin.Context) {
	startTime := time.Now()
	requestID := middleware.GetRequestID(c)

	buf := utils.GetBuffer()
	defer utils.PutBuffer(buf)

	if _, err := buf.ReadFrom(c.Request.Body); err != nil {
		logrus.Errorf("Failed to read request body: %v", err)
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "Failed to read request body"))
		return
	}
	c.Request.Body.Close()
	bodyBytes := buf.Bytes()

	ps.streamLogger.LogRequest(requestID, c.Request.Method, c.Request.URL.Path, c.Request.Header, bodyBytes)

	isStream := isStreamRequest(c, bodyBytes)
	model := extractModel(bodyBytes)

	resp, cancel, apiErr := ps.sendUpstream(c, ps.upstreamURL("/chat/completions"), bodyBytes, isStream, true)
	if apiErr != nil {
		response.Error(c, apiErr)
		ps.logRequest(c, requestID, model, isStream, apiErr.HTTPStatus, startTime, apiErr.Message, bodyBytes, nil)
		return
	}
	defer cancel()
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		parsedError := readUpstreamErrorBody(resp)
		logrus.WithFields(logrus.Fields{
			"request_id":  requestID,
			"status_code": resp.StatusCode,
		}).Warnf("Upstream returned error: %s", parsedError)
		response.Error(c, app_errors.NewAPIErrorWithUpstream(resp.StatusCode, "UPSTREAM_ERROR", parsedError))
		ps.logRequest(c, requestID, model, isStream, resp.StatusCode, startTime, parsedError, bodyBytes, nil)
		return
	}

	var summary *models.StreamSummary
	if isStream {
		summary = ps.handleStreamingResponse(c, resp, requestID)
	} else {
		ps.handleNormalResponse(c, resp)
	}

	ps.logRequest(c, requestID, model, isStream, resp.StatusCode, startTime, "", bodyBytes, summary)
}

// HandleV1Relay transparently forwards any other /v1 endpoint. Streaming
// bodies are flushed through as raw bytes without transformation.
func (ps *ProxyServer) HandleV1Relay(c *gin.Context) {
	startTime := time.Now()
	requestID := middleware.GetRequestID(c)

	buf := utils.GetBuffer()
	defer utils.PutBuffer(buf)

	if _, err := buf.ReadFrom(c.Request.Body); err != nil {
		logrus.Errorf("Failed to read request body: %v", err)
		response.Error(c, app_errors.NewAPIError(app_errors.ErrBadRequest, "Failed to read request body"))
		return
	}
	c.Request.Body.Close()
	bodyBytes := buf.Bytes()

	ps.streamLogger.LogRequest(requestID, c.Request.Method, c.Request.URL.Path, c.Request.Header, bodyBytes)

	target := ps.upstreamURL(c.Param("path"))
	if rawQuery := c.Request.URL.RawQuery; rawQuery != "" {
		target += "?" + rawQuery
	}

	isStream := isStreamRequest(c, bodyBytes)
	resp, cancel, apiErr := ps.sendUpstream(c, target, bodyBytes, isStream, false)
	if apiErr != nil {
		response.Error(c, apiErr)
		ps.logRequest(c, requestID, extractModel(bodyBytes), isStream, apiErr.HTTPStatus, startTime, apiErr.Message, bodyBytes, nil)
		return
	}
	defer cancel()
	defer resp.Body.Close()

	ps.handleRawResponse(c, resp)
	ps.logRequest(c, requestID, extractModel(bodyBytes), isStream, resp.StatusCode, startTime, "", bodyBytes, nil)
}

// sendUpstream builds and executes the upstream request. Streaming requests
// run without a total deadline and are canceled when the client goes away;
// other requests are bounded by the configured timeout. The returned cancel
// func must be called once the response body has been consumed.
func (ps *ProxyServer) sendUpstream(c *gin.Context, target string, bodyBytes []byte, isStream, forceJSON bool) (*http.Response, context.CancelFunc, *app_errors.APIError) {
	upstreamConfig := ps.configManager.GetUpstreamConfig()

	var ctx context.Context
	var cancel context.CancelFunc
	if isStream {
		ctx, cancel = context.WithCancel(c.Request.Context())
	} else {
		timeout := time.Duration(upstreamConfig.RequestTimeout) * time.Second
		ctx, cancel = context.WithTimeout(c.Request.Context(), timeout)
	}

	req, err := http.NewRequestWithContext(ctx, c.Request.Method, target, bytes.NewReader(bodyBytes))
	if err != nil {
		cancel()
		logrus.Errorf("Failed to create upstream request: %v", err)
		return nil, nil, app_errors.ErrInternalServer
	}
	req.ContentLength = int64(len(bodyBytes))
	utils.ForwardProxyHeaders(req, c.Request)
	// Chat completion bodies are always JSON regardless of what the client
	// declared.
	if forceJSON {
		req.Header.Set("Content-Type", "application/json")
	}

	client := ps.clients.Default
	if isStream {
		client = ps.clients.Stream
		req.Header.Set("X-Accel-Buffering", "no")
	}

	resp, err := client.Do(req)
	if err != nil {
		cancel()
		logUpstreamError("sending request to upstream", err)
		return nil, nil, classifyUpstreamError(err)
	}
	return resp, cancel, nil
}

func (ps *ProxyServer) upstreamURL(path string) string {
	return ps.configManager.GetUpstreamConfig().BaseURL + path
}

// logRequest records the request outcome for the write-behind request log.
func (ps *ProxyServer) logRequest(
	c *gin.Context,
	requestID string,
	model string,
	isStream bool,
	statusCode int,
	startTime time.Time,
	errorMessage string,
	bodyBytes []byte,
	summary *models.StreamSummary,
) {
	if ps.requestLogService == nil {
		return
	}

	entry := &models.RequestLog{
		RequestID:    requestID,
		Method:       c.Request.Method,
		RequestPath:  c.Request.URL.Path,
		Model:        model,
		IsStream:     isStream,
		IsSuccess:    errorMessage == "" && statusCode < http.StatusBadRequest,
		StatusCode:   statusCode,
		Duration:     time.Since(startTime).Milliseconds(),
		SourceIP:     c.ClientIP(),
		UserAgent:    c.Request.UserAgent(),
		ErrorMessage: errorMessage,
		UpstreamAddr: ps.configManager.GetUpstreamConfig().BaseURL,
		RequestBody:  string(utils.SanitizeRequestBody(bodyBytes, maxLoggedRequestBodyBytes)),
	}
	if summary != nil {
		if data, err := json.Marshal(summary); err == nil {
			entry.StreamSummary = datatypes.JSON(data)
		}
	}

	if err := ps.requestLogService.Record(entry); err != nil {
		logrus.WithField("request_id", requestID).Warnf("Failed to record request log: %v", err)
	}
}
