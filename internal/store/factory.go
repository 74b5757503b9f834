package store

import (
	"fmt"

	"llm-proxy/internal/types"

	"github.com/sirupsen/logrus"
)

// NewStore creates a Store based on the configuration. A Redis DSN selects
// the Redis backend; otherwise an in-memory store is used.
func NewStore(configManager types.ConfigManager) (Store, error) {
	redisDSN := configManager.GetRedisDSN()

	if redisDSN == "" {
		logrus.Info("Using in-memory store")
		return NewMemoryStore(), nil
	}

	logrus.Info("Using redis store")
	redisStore, err := NewRedisStore(redisDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return redisStore, nil
}
