// Package version holds the build version of the proxy.
package version

// Version is set at build time via -ldflags "-X llm-proxy/internal/version.Version=vX.Y.Z"
var Version = "dev"
