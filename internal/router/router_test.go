package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"llm-proxy/internal/config"
	"llm-proxy/internal/handler"
	"llm-proxy/internal/httpclient"
	"llm-proxy/internal/models"
	"llm-proxy/internal/proxy"
	"llm-proxy/internal/services"
	"llm-proxy/internal/store"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestEngine(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	configManager := &config.MockConfig{UpstreamBaseURL: upstreamURL}

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.RequestLog{}))

	logService := services.NewRequestLogService(db, store.NewMemoryStore())
	streamLogger := services.NewStreamLogger(configManager)
	clients := httpclient.NewUpstreamClients(configManager, httpclient.NewManager())

	proxyServer := proxy.NewProxyServer(configManager, clients, logService, streamLogger)
	serverHandler := handler.NewServer(db, logService, configManager)

	return NewRouter(serverHandler, proxyServer, configManager)
}

func TestRouterSystemRoutes(t *testing.T) {
	engine := newTestEngine(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "llm-proxy")
}

func TestRouterV1Dispatch(t *testing.T) {
	var gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	engine := newTestEngine(t, upstream.URL)

	// Chat completions go through the transforming handler, which targets
	// the fixed upstream path.
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/v1/chat/completions", strings.NewReader(`{"model":"m1"}`)))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/chat/completions", gotPath)

	// Everything else is relayed with its own path.
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/models", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/models", gotPath)
}

func TestRouterSecurityHeaders(t *testing.T) {
	engine := newTestEngine(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
}

func TestRouterRequestIDHeader(t *testing.T) {
	engine := newTestEngine(t, "http://127.0.0.1:1")

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestIsChatCompletionsPath(t *testing.T) {
	assert.True(t, isChatCompletionsPath("/chat/completions"))
	assert.True(t, isChatCompletionsPath("/chat/completions/"))
	assert.False(t, isChatCompletionsPath("/completions"))
	assert.False(t, isChatCompletionsPath("/models"))
}
