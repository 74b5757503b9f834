// Package httpclient creates and caches upstream HTTP clients.
package httpclient

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"llm-proxy/internal/types"

	"github.com/sirupsen/logrus"
)

// Config defines the parameters for creating an HTTP client.
// It is used to generate a unique fingerprint for client reuse.
type Config struct {
	ConnectTimeout        time.Duration
	RequestTimeout        time.Duration
	IdleConnTimeout       time.Duration
	MaxIdleConns          int
	MaxIdleConnsPerHost   int
	ResponseHeaderTimeout time.Duration
	DisableCompression    bool
}

// getFingerprint generates a unique string representation of the configuration.
func (c *Config) getFingerprint() string {
	return fmt.Sprintf(
		"ct:%.0fs|rt:%.0fs|it:%.0fs|mic:%d|mich:%d|rht:%.0fs|dc:%t",
		c.ConnectTimeout.Seconds(),
		c.RequestTimeout.Seconds(),
		c.IdleConnTimeout.Seconds(),
		c.MaxIdleConns,
		c.MaxIdleConnsPerHost,
		c.ResponseHeaderTimeout.Seconds(),
		c.DisableCompression,
	)
}

// Manager caches HTTP clients by configuration fingerprint so clients with
// the same configuration share a connection pool.
type Manager struct {
	clients map[string]*http.Client
	lock    sync.RWMutex
}

// NewManager creates a new client manager.
func NewManager() *Manager {
	return &Manager{
		clients: make(map[string]*http.Client),
	}
}

// GetClient returns an HTTP client matching the given configuration, creating
// and caching it on first use.
func (m *Manager) GetClient(config *Config) *http.Client {
	fingerprint := config.getFingerprint()

	m.lock.RLock()
	client, exists := m.clients[fingerprint]
	m.lock.RUnlock()
	if exists {
		return client
	}

	m.lock.Lock()
	defer m.lock.Unlock()

	if client, exists = m.clients[fingerprint]; exists {
		return client
	}

	// Allow bursts beyond the idle pool, with a floor so a low idle setting
	// does not strangle concurrency.
	maxConnsPerHost := config.MaxIdleConnsPerHost * 2
	if maxConnsPerHost < 10 {
		maxConnsPerHost = 10
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		MaxConnsPerHost:       maxConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableCompression:    config.DisableCompression,
	}

	newClient := &http.Client{
		Transport: transport,
		Timeout:   config.RequestTimeout,
	}

	m.clients[fingerprint] = newClient

	logrus.WithFields(logrus.Fields{
		"fingerprint":        fingerprint,
		"timeout":            config.RequestTimeout,
		"max_conns_per_host": maxConnsPerHost,
	}).Debug("Created new HTTP client")

	return newClient
}

// CloseIdleConnections closes idle connections for all managed clients.
func (m *Manager) CloseIdleConnections() {
	m.lock.RLock()
	defer m.lock.RUnlock()

	for _, client := range m.clients {
		if transport, ok := client.Transport.(*http.Transport); ok {
			transport.CloseIdleConnections()
		}
	}
}

// UpstreamClients holds the two clients used against the inference server.
// Default enforces an overall request deadline. Stream has no overall
// deadline since token generation can legally run for many minutes; it
// bounds the wait for response headers instead and disables transparent
// compression so relayed bytes match what the upstream sent.
type UpstreamClients struct {
	Default *http.Client
	Stream  *http.Client
}

// NewUpstreamClients builds the client pair from the upstream configuration.
func NewUpstreamClients(configManager types.ConfigManager, manager *Manager) *UpstreamClients {
	upstream := configManager.GetUpstreamConfig()

	defaultClient := manager.GetClient(&Config{
		ConnectTimeout:      time.Duration(upstream.ConnectTimeout) * time.Second,
		RequestTimeout:      time.Duration(upstream.RequestTimeout) * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxIdleConns:        upstream.MaxIdleConns,
		MaxIdleConnsPerHost: upstream.MaxIdleConnsPerHost,
	})

	streamClient := manager.GetClient(&Config{
		ConnectTimeout:        time.Duration(upstream.ConnectTimeout) * time.Second,
		RequestTimeout:        0,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          upstream.MaxIdleConns,
		MaxIdleConnsPerHost:   upstream.MaxIdleConnsPerHost,
		ResponseHeaderTimeout: time.Duration(upstream.RequestTimeout) * time.Second,
		DisableCompression:    true,
	})

	return &UpstreamClients{
		Default: defaultClient,
		Stream:  streamClient,
	}
}
