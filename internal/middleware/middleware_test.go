package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"llm-proxy/internal/types"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(handlers...)
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	return router
}

func TestRequestIDGenerated(t *testing.T) {
	router := newTestRouter(RequestID())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.NotEmpty(t, w.Header().Get(RequestIDKey))
}

func TestRequestIDPreserved(t *testing.T) {
	router := newTestRouter(RequestID())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set(RequestIDKey, "client-id-123")
	router.ServeHTTP(w, req)

	assert.Equal(t, "client-id-123", w.Header().Get(RequestIDKey))
}

func TestCORSPreflightAllowed(t *testing.T) {
	config := types.CORSConfig{
		Enabled:        true,
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"*"},
	}
	router := newTestRouter(CORS(config))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("OPTIONS", "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, 204, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET, POST", w.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSExplicitOrigin(t *testing.T) {
	config := types.CORSConfig{
		Enabled:          true,
		AllowedOrigins:   []string{"http://trusted.example.com"},
		AllowedMethods:   []string{"GET"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}
	router := newTestRouter(CORS(config))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://trusted.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, "http://trusted.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSDisabled(t *testing.T) {
	router := newTestRouter(CORS(types.CORSConfig{Enabled: false}))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	req.Header.Set("Origin", "http://example.com")
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	router := gin.New()
	router.Use(Recovery())
	router.GET("/panic", func(c *gin.Context) {
		panic("something broke")
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_SERVER_ERROR")
}

func TestRateLimiter(t *testing.T) {
	blocker := make(chan struct{})
	router := gin.New()
	router.Use(RateLimiter(types.PerformanceConfig{MaxConcurrentRequests: 1}))
	router.GET("/slow", func(c *gin.Context) {
		<-blocker
		c.String(http.StatusOK, "ok")
	})

	firstDone := make(chan struct{})
	go func() {
		defer close(firstDone)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/slow", nil)
		router.ServeHTTP(w, req)
	}()

	// Wait for the first request to occupy the slot.
	assert.Eventually(t, func() bool {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/slow", nil)
		router.ServeHTTP(w, req)
		return w.Code == http.StatusTooManyRequests
	}, time.Second, 10*time.Millisecond)

	close(blocker)
	<-firstDone
}

func TestSecurityHeaders(t *testing.T) {
	router := newTestRouter(SecurityHeaders())

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", w.Header().Get("X-Frame-Options"))
}
