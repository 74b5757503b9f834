// Package app manages the application lifecycle.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"llm-proxy/internal/httpclient"
	"llm-proxy/internal/models"
	"llm-proxy/internal/services"
	"llm-proxy/internal/store"
	"llm-proxy/internal/types"
	"llm-proxy/internal/version"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.uber.org/dig"
	"gorm.io/gorm"
)

// App holds all services and manages startup and shutdown.
type App struct {
	engine            *gin.Engine
	configManager     types.ConfigManager
	requestLogService *services.RequestLogService
	httpClientManager *httpclient.Manager
	storage           store.Store
	db                *gorm.DB
	httpServer        *http.Server
}

// AppParams defines the dependencies for the App.
type AppParams struct {
	dig.In
	Engine            *gin.Engine
	ConfigManager     types.ConfigManager
	RequestLogService *services.RequestLogService
	HTTPClientManager *httpclient.Manager
	Storage           store.Store
	DB                *gorm.DB
}

// NewApp is the constructor for App, with dependencies injected by dig.
func NewApp(params AppParams) *App {
	return &App{
		engine:            params.Engine,
		configManager:     params.ConfigManager,
		requestLogService: params.RequestLogService,
		httpClientManager: params.HTTPClientManager,
		storage:           params.Storage,
		db:                params.DB,
	}
}

// Start runs the application, it is a non-blocking call.
func (a *App) Start() error {
	if err := a.db.AutoMigrate(&models.RequestLog{}); err != nil {
		return fmt.Errorf("database auto-migration failed: %w", err)
	}
	logrus.Debug("Database auto-migration completed.")

	a.requestLogService.Start()

	a.configManager.DisplayServerConfig()

	serverConfig := a.configManager.GetEffectiveServerConfig()
	a.httpServer = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", serverConfig.Host, serverConfig.Port),
		Handler:        a.engine,
		ReadTimeout:    time.Duration(serverConfig.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(serverConfig.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(serverConfig.IdleTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logrus.Infof("llm-proxy %s listening on http://%s:%d", version.Version, serverConfig.Host, serverConfig.Port)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Server startup failed: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the application.
func (a *App) Stop(ctx context.Context) {
	logrus.Info("Shutting down server...")

	serverConfig := a.configManager.GetEffectiveServerConfig()
	totalTimeout := time.Duration(serverConfig.GracefulShutdownTimeout) * time.Second

	// Leave a slice of the budget for the background services.
	httpShutdownTimeout := totalTimeout - 5*time.Second
	if httpShutdownTimeout < time.Second {
		httpShutdownTimeout = time.Second
	}
	httpShutdownCtx, cancelHTTPShutdown := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancelHTTPShutdown()

	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(httpShutdownCtx); err != nil {
			logrus.Debug("HTTP server graceful shutdown timed out, forcing remaining connections to close.")
			if closeErr := a.httpServer.Close(); closeErr != nil {
				logrus.Errorf("Error forcing HTTP server to close: %v", closeErr)
			}
		}
		logrus.Info("HTTP server has been shut down.")
	}

	// The request log service flushes its pending entries on stop.
	a.requestLogService.Stop(ctx)

	if a.httpClientManager != nil {
		a.httpClientManager.CloseIdleConnections()
	}

	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			logrus.Errorf("Error closing storage: %v", err)
		}
	}

	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				logrus.Errorf("Error closing database: %v", err)
			}
		}
	}

	logrus.Info("Shutdown complete.")
}
