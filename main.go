// Package main provides the entry point for the llm-proxy server
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"llm-proxy/internal/app"
	"llm-proxy/internal/container"
	"llm-proxy/internal/types"
	"llm-proxy/internal/utils"
	"llm-proxy/internal/version"

	"github.com/sirupsen/logrus"
)

func main() {
	if len(os.Args) > 1 {
		runCommand()
	} else {
		runServer()
	}
}

// runCommand dispatches to the appropriate command handler
func runCommand() {
	switch command := os.Args[1]; command {
	case "version", "-v", "--version":
		fmt.Println(version.Version)
	case "help", "-h", "--help":
		printHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println("Run 'llm-proxy help' for usage.")
		os.Exit(1)
	}
}

// printHelp displays the general help information
func printHelp() {
	fmt.Println("llm-proxy - Streaming proxy with tool call extraction for LLM inference servers.")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  llm-proxy                   Start the proxy server")
	fmt.Println("  llm-proxy <command>         Execute a command")
	fmt.Println()
	fmt.Println("Available Commands:")
	fmt.Println("  version         Print the version")
	fmt.Println("  help            Display this help message")
}

// runServer run App Server
func runServer() {
	// Build the dependency injection container
	container, err := container.BuildContainer()
	if err != nil {
		logrus.Fatalf("Failed to build container: %v", err)
	}

	// Initialize global logger
	if err := container.Invoke(func(configManager types.ConfigManager) {
		utils.SetupLogger(configManager)
	}); err != nil {
		logrus.Fatalf("Failed to setup logger: %v", err)
	}
	defer utils.CloseLogger()

	// Create and run the application
	if err := container.Invoke(func(application *app.App, configManager types.ConfigManager) {
		if err := application.Start(); err != nil {
			logrus.Fatalf("Failed to start application: %v", err)
		}

		// Setup signal handling for graceful shutdown
		// Use buffered channel to avoid missing signals
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		// Wait for first interrupt signal
		sig := <-quit
		logrus.Infof("Received signal: %v, initiating graceful shutdown...", sig)

		// Create a context with timeout for shutdown
		serverConfig := configManager.GetEffectiveServerConfig()
		shutdownTimeout := time.Duration(serverConfig.GracefulShutdownTimeout) * time.Second
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		// Start graceful shutdown in a goroutine
		done := make(chan struct{})
		go func() {
			application.Stop(shutdownCtx)
			close(done)
		}()

		// Wait for shutdown to complete or second signal for force exit
		select {
		case <-done:
			logrus.Info("Graceful shutdown completed successfully")
		case <-quit:
			logrus.Warn("Second interrupt signal received, forcing immediate exit")
			os.Exit(1)
		case <-shutdownCtx.Done():
			logrus.Warn("Shutdown timeout exceeded, forcing exit")
			os.Exit(1)
		}

	}); err != nil {
		logrus.Fatalf("Failed to run application: %v", err)
	}
}
