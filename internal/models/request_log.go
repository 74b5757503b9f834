// Package models defines the persistent data structures.
package models

import (
	"time"

	"gorm.io/datatypes"
)

// RequestLog records one proxied request for auditing and debugging.
type RequestLog struct {
	ID            string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	Timestamp     time.Time      `gorm:"not null;index:idx_request_logs_timestamp" json:"timestamp"`
	RequestID     string         `gorm:"type:varchar(64);index" json:"request_id"`
	Method        string         `gorm:"type:varchar(10);not null" json:"method"`
	RequestPath   string         `gorm:"type:varchar(500)" json:"request_path"`
	Model         string         `gorm:"type:varchar(255);index" json:"model"`
	IsStream      bool           `gorm:"not null" json:"is_stream"`
	IsSuccess     bool           `gorm:"not null;index:idx_request_logs_success" json:"is_success"`
	StatusCode    int            `gorm:"not null" json:"status_code"`
	Duration      int64          `gorm:"not null" json:"duration_ms"`
	SourceIP      string         `gorm:"type:varchar(64)" json:"source_ip"`
	UserAgent     string         `gorm:"type:varchar(512)" json:"user_agent"`
	ErrorMessage  string         `gorm:"type:text" json:"error_message"`
	UpstreamAddr  string         `gorm:"type:varchar(500)" json:"upstream_addr"`
	RequestBody   string         `gorm:"type:text" json:"request_body"`
	StreamSummary datatypes.JSON `gorm:"type:json" json:"stream_summary"`
}

// TableName overrides the default table name.
func (RequestLog) TableName() string {
	return "request_logs"
}

// StreamSummary captures what a streaming response produced once the stream
// has been fully aggregated.
type StreamSummary struct {
	ContentLength          int    `json:"content_length"`
	ReasoningContentLength int    `json:"reasoning_content_length"`
	ToolCallsCount         int    `json:"tool_calls_count"`
	ChunkCount             int    `json:"chunk_count"`
	FinishReason           string `json:"finish_reason,omitempty"`
}
