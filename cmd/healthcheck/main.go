// Package main implements a minimal health probe for container images that
// ship without curl or wget. It hits the server's /health endpoint and exits
// non-zero on any failure.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	defaultPort  = "8000"
	probeTimeout = 5 * time.Second
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	client := &http.Client{Timeout: probeTimeout}
	resp, err := client.Get(fmt.Sprintf("http://localhost:%s/health", port))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	// os.Exit skips deferred calls, so close the body inline.
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check returned status %d\n", resp.StatusCode)
		os.Exit(1)
	}
}
