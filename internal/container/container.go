// Package container wires the application object graph.
package container

import (
	"llm-proxy/internal/app"
	"llm-proxy/internal/config"
	"llm-proxy/internal/db"
	"llm-proxy/internal/handler"
	"llm-proxy/internal/httpclient"
	"llm-proxy/internal/proxy"
	"llm-proxy/internal/router"
	"llm-proxy/internal/services"
	"llm-proxy/internal/store"

	"go.uber.org/dig"
)

// BuildContainer registers every constructor with dig.
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	constructors := []any{
		config.NewManager,
		db.NewDB,
		store.NewStore,
		httpclient.NewManager,
		httpclient.NewUpstreamClients,
		services.NewRequestLogService,
		services.NewStreamLogger,
		proxy.NewProxyServer,
		handler.NewServer,
		router.NewRouter,
		app.NewApp,
	}

	for _, constructor := range constructors {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	return container, nil
}
