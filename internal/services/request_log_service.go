// Package services contains the application's business logic services.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"llm-proxy/internal/models"
	"llm-proxy/internal/store"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	RequestLogCachePrefix    = "request_log:"
	PendingLogKeysSet        = "pending_log_keys"
	DefaultLogFlushBatchSize = 200
	DefaultLogFlushInterval  = time.Minute
)

// RequestLogService buffers request logs in the store and flushes them to the
// database in batches. Writes never sit on the request path.
type RequestLogService struct {
	db       *gorm.DB
	store    store.Store
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewRequestLogService creates a new RequestLogService instance.
func NewRequestLogService(db *gorm.DB, store store.Store) *RequestLogService {
	return &RequestLogService{
		db:       db,
		store:    store,
		stopChan: make(chan struct{}),
	}
}

// Start begins the periodic flush routine.
func (s *RequestLogService) Start() {
	s.wg.Add(1)
	go s.runLoop()
}

func (s *RequestLogService) runLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(DefaultLogFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.flush()
		case <-s.stopChan:
			return
		}
	}
}

// Stop flushes remaining logs and stops the service.
func (s *RequestLogService) Stop(ctx context.Context) {
	close(s.stopChan)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.flush()
		logrus.Info("RequestLogService stopped gracefully.")
	case <-ctx.Done():
		logrus.Warn("RequestLogService stop timed out.")
	}
}

// Record queues a request log for the next flush.
func (s *RequestLogService) Record(log *models.RequestLog) error {
	log.ID = uuid.NewString()
	log.Timestamp = time.Now()

	cacheKey := RequestLogCachePrefix + log.ID

	logBytes, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("failed to marshal request log: %w", err)
	}

	// Keep the body long enough to survive several missed flushes.
	if err := s.store.Set(cacheKey, logBytes, 5*DefaultLogFlushInterval); err != nil {
		return err
	}

	return s.store.SAdd(PendingLogKeysSet, cacheKey)
}

// Query returns a request log query ordered by recency, for pagination.
func (s *RequestLogService) Query() *gorm.DB {
	return s.db.Model(&models.RequestLog{}).Order("timestamp desc")
}

// flush drains pending logs from the store into the database.
func (s *RequestLogService) flush() {
	for {
		keys, err := s.store.SPopN(PendingLogKeysSet, DefaultLogFlushBatchSize)
		if err != nil {
			logrus.Errorf("Failed to pop pending log keys from store: %v", err)
			return
		}

		if len(keys) == 0 {
			return
		}

		logs := make([]*models.RequestLog, 0, len(keys))
		processedKeys := make([]string, 0, len(keys))
		retryKeys := make([]string, 0, len(keys))
		for _, key := range keys {
			logBytes, err := s.store.Get(key)
			if err != nil {
				if err == store.ErrNotFound {
					logrus.Warnf("Log key %s found in set but not in store, skipping.", key)
				} else {
					logrus.Warnf("Failed to get log for key %s: %v", key, err)
					retryKeys = append(retryKeys, key)
				}
				continue
			}
			var log models.RequestLog
			if err := json.Unmarshal(logBytes, &log); err != nil {
				logrus.Warnf("Failed to unmarshal log for key %s, dropping: %v", key, err)
				if delErr := s.store.Del(key); delErr != nil {
					logrus.WithError(delErr).Error("Failed to delete corrupted log body from store")
				}
				continue
			}
			logs = append(logs, &log)
			processedKeys = append(processedKeys, key)
		}

		if len(logs) > 0 {
			if err := s.writeLogsToDB(logs); err != nil {
				logrus.Errorf("Failed to flush request logs batch, will retry next time: %v", err)
				retryKeys = append(retryKeys, processedKeys...)
				s.requeue(retryKeys)
				return
			}
			if err := s.store.Del(processedKeys...); err != nil {
				logrus.Errorf("Failed to delete flushed log bodies from store: %v", err)
			}
			logrus.Debugf("Flushed %d request logs.", len(logs))
		}

		s.requeue(retryKeys)
	}
}

func (s *RequestLogService) requeue(keys []string) {
	if len(keys) == 0 {
		return
	}
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	if err := s.store.SAdd(PendingLogKeysSet, args...); err != nil {
		logrus.Errorf("CRITICAL: Failed to re-add log keys to pending set: %v", err)
	}
}

// writeLogsToDB writes a batch of request logs to the database.
func (s *RequestLogService) writeLogsToDB(logs []*models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.CreateInBatches(logs, len(logs)).Error; err != nil {
			return fmt.Errorf("failed to batch insert request logs: %w", err)
		}
		return nil
	})
}
