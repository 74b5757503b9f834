// Package handler exposes the service's own HTTP endpoints: health, service
// info, and the persisted request log.
package handler

import (
	"net/http"
	"time"

	app_errors "llm-proxy/internal/errors"
	"llm-proxy/internal/models"
	"llm-proxy/internal/response"
	"llm-proxy/internal/services"
	"llm-proxy/internal/types"
	"llm-proxy/internal/version"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Server bundles the dependencies of the non-proxy endpoints.
type Server struct {
	DB            *gorm.DB
	LogService    *services.RequestLogService
	ConfigManager types.ConfigManager
}

// NewServer creates a handler server.
func NewServer(db *gorm.DB, logService *services.RequestLogService, configManager types.ConfigManager) *Server {
	return &Server{
		DB:            db,
		LogService:    logService,
		ConfigManager: configManager,
	}
}

// Health reports liveness plus database connectivity.
func (s *Server) Health(c *gin.Context) {
	status := "healthy"
	database := "ok"
	httpStatus := http.StatusOK

	if sqlDB, err := s.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
		status = "unhealthy"
		database = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	}

	payload := gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().Format(time.RFC3339),
	}
	if startVal, exists := c.Get("serverStartTime"); exists {
		if start, ok := startVal.(time.Time); ok {
			payload["uptime"] = time.Since(start).Round(time.Second).String()
		}
	}

	c.JSON(httpStatus, payload)
}

// ServiceInfo describes the running proxy on the root endpoint.
func (s *Server) ServiceInfo(c *gin.Context) {
	upstreamConfig := s.ConfigManager.GetUpstreamConfig()
	c.JSON(http.StatusOK, gin.H{
		"service":                       "llm-proxy",
		"version":                       version.Version,
		"upstream":                      upstreamConfig.BaseURL,
		"streaming_tool_parser_enabled": upstreamConfig.EnableStreamToolParser,
	})
}

// GetLogs returns the persisted request log, newest first, with optional
// filters on model, request path, success, stream flag, and request id.
func (s *Server) GetLogs(c *gin.Context) {
	query := s.LogService.Query()

	if model := c.Query("model"); model != "" {
		query = query.Where("model = ?", model)
	}
	if requestID := c.Query("request_id"); requestID != "" {
		query = query.Where("request_id = ?", requestID)
	}
	if path := c.Query("path"); path != "" {
		query = query.Where("request_path = ?", path)
	}
	if success := c.Query("is_success"); success != "" {
		query = query.Where("is_success = ?", success == "true")
	}
	if isStream := c.Query("is_stream"); isStream != "" {
		query = query.Where("is_stream = ?", isStream == "true")
	}
	if startTime := c.Query("start_time"); startTime != "" {
		if parsed, err := time.Parse(time.RFC3339, startTime); err == nil {
			query = query.Where("timestamp >= ?", parsed)
		}
	}
	if endTime := c.Query("end_time"); endTime != "" {
		if parsed, err := time.Parse(time.RFC3339, endTime); err == nil {
			query = query.Where("timestamp <= ?", parsed)
		}
	}

	var logs []models.RequestLog
	result, err := response.Paginate(c, query, &logs)
	if err != nil {
		response.Error(c, app_errors.ParseDBError(err))
		return
	}

	response.Success(c, result)
}
