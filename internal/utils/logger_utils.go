package utils

import (
	"bufio"
	"io"
	"llm-proxy/internal/types"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	loggerFileMu sync.Mutex
	loggerFile   *os.File
)

// syncWriter serializes writes so concurrent goroutines cannot interleave
// log entries on the shared output.
type syncWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func (sw *syncWriter) Write(p []byte) (n int, err error) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.writer.Write(p)
}

// flushWriter wraps a buffered writer and flushes after each write so entries
// land on disk immediately. Not thread-safe on its own; wrap with syncWriter.
type flushWriter struct {
	file   *os.File
	writer *bufio.Writer
}

func newFlushWriter(file *os.File) *flushWriter {
	return &flushWriter{
		file:   file,
		writer: bufio.NewWriter(file),
	}
}

func (fw *flushWriter) Write(p []byte) (n int, err error) {
	n, err = fw.writer.Write(p)
	if err != nil {
		return n, err
	}
	return n, fw.writer.Flush()
}

// SetupLogger configures the global logrus instance from the log configuration.
func SetupLogger(configManager types.ConfigManager) {
	logConfig := configManager.GetLogConfig()

	level, err := logrus.ParseLevel(logConfig.Level)
	if err != nil {
		logrus.Warn("Invalid log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)

	if logConfig.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if logConfig.EnableFile {
		logDir := filepath.Dir(logConfig.FilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			logrus.Warnf("Failed to create log directory: %v", err)
			return
		}
		logFile, err := os.OpenFile(logConfig.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			logrus.Warnf("Failed to open log file: %v", err)
			return
		}
		var fileWriter io.Writer
		// Flush per entry only in debug/trace; buffered writes otherwise.
		if level == logrus.DebugLevel || level == logrus.TraceLevel {
			fileWriter = newFlushWriter(logFile)
		} else {
			fileWriter = logFile
		}
		loggerFileMu.Lock()
		loggerFile = logFile
		loggerFileMu.Unlock()
		logrus.SetOutput(&syncWriter{
			writer: io.MultiWriter(os.Stdout, fileWriter),
		})
	}
}

// CloseLogger closes the log file, if any, and resets output to stdout.
// Safe to call multiple times.
func CloseLogger() {
	loggerFileMu.Lock()
	defer loggerFileMu.Unlock()

	if loggerFile != nil {
		logrus.SetOutput(os.Stdout)
		if err := loggerFile.Close(); err != nil {
			logrus.Warnf("Failed to close log file: %v", err)
		}
		loggerFile = nil
	}
}
