package httpclient

import (
	"net/http"
	"testing"
	"time"

	"llm-proxy/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetClientReuse(t *testing.T) {
	manager := NewManager()

	cfg := &Config{
		ConnectTimeout:      15 * time.Second,
		RequestTimeout:      300 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 50,
	}

	first := manager.GetClient(cfg)
	second := manager.GetClient(cfg)
	assert.Same(t, first, second)
}

func TestGetClientDifferentConfigs(t *testing.T) {
	manager := NewManager()

	first := manager.GetClient(&Config{RequestTimeout: 10 * time.Second})
	second := manager.GetClient(&Config{RequestTimeout: 20 * time.Second})
	assert.NotSame(t, first, second)
}

func TestFingerprintStability(t *testing.T) {
	a := &Config{ConnectTimeout: 5 * time.Second, MaxIdleConns: 10}
	b := &Config{ConnectTimeout: 5 * time.Second, MaxIdleConns: 10}
	assert.Equal(t, a.getFingerprint(), b.getFingerprint())

	c := &Config{ConnectTimeout: 5 * time.Second, MaxIdleConns: 10, DisableCompression: true}
	assert.NotEqual(t, a.getFingerprint(), c.getFingerprint())
}

func TestNewUpstreamClients(t *testing.T) {
	manager := NewManager()
	clients := NewUpstreamClients(&config.MockConfig{}, manager)

	require.NotNil(t, clients.Default)
	require.NotNil(t, clients.Stream)

	// Streaming responses can outlive any fixed deadline.
	assert.Equal(t, time.Duration(0), clients.Stream.Timeout)
	assert.NotZero(t, clients.Default.Timeout)

	transport, ok := clients.Stream.Transport.(*http.Transport)
	require.True(t, ok)
	assert.True(t, transport.DisableCompression)
}
