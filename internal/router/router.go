// Package router wires the HTTP routes and the global middleware chain.
package router

import (
	"net/http"
	"strings"
	"time"

	"llm-proxy/internal/handler"
	"llm-proxy/internal/middleware"
	"llm-proxy/internal/proxy"
	"llm-proxy/internal/types"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// NewRouter builds the gin engine with the full middleware chain and all
// routes registered.
func NewRouter(
	serverHandler *handler.Server,
	proxyServer *proxy.ProxyServer,
	configManager types.ConfigManager,
) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(configManager.GetCORSConfig()))
	router.Use(middleware.RateLimiter(configManager.GetPerformanceConfig()))
	router.Use(middleware.SecurityHeaders())

	startTime := time.Now()
	router.Use(func(c *gin.Context) {
		c.Set("serverStartTime", startTime)
		c.Next()
	})

	registerSystemRoutes(router, serverHandler)
	registerAPIRoutes(router, serverHandler, proxyServer)
	registerProxyRoutes(router, proxyServer)

	return router
}

func registerSystemRoutes(router *gin.Engine, serverHandler *handler.Server) {
	router.GET("/health", serverHandler.Health)
	router.GET("/", serverHandler.ServiceInfo)
}

func registerAPIRoutes(router *gin.Engine, serverHandler *handler.Server, proxyServer *proxy.ProxyServer) {
	api := router.Group("/api")

	// Gzip only applies to the admin log listing; event streams must never
	// be buffered by a compressing writer.
	api.GET("/logs", gzip.Gzip(gzip.DefaultCompression), serverHandler.GetLogs)

	api.POST("/chat/completions", proxyServer.HandleChatCompletions)
}

// registerProxyRoutes mounts the transparent /v1 surface. A single catch-all
// dispatches chat completions to the transforming handler and relays
// everything else untouched.
func registerProxyRoutes(router *gin.Engine, proxyServer *proxy.ProxyServer) {
	router.Any("/v1/*path", func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && isChatCompletionsPath(c.Param("path")) {
			proxyServer.HandleChatCompletions(c)
			return
		}
		proxyServer.HandleV1Relay(c)
	})
}

func isChatCompletionsPath(path string) bool {
	return strings.TrimSuffix(path, "/") == "/chat/completions"
}
