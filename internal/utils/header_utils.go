package utils

import (
	"net/http"
	"strings"
)

// hopByHopHeaders must not be forwarded between the client and the upstream.
var hopByHopHeaders = map[string]bool{
	"connection":          true,
	"keep-alive":          true,
	"proxy-authenticate":  true,
	"proxy-authorization": true,
	"proxy-connection":    true,
	"te":                  true,
	"trailers":            true,
	"transfer-encoding":   true,
	"upgrade":             true,
}

// ForwardProxyHeaders copies client request headers onto an upstream request,
// dropping hop-by-hop headers plus Host and Content-Length, which the HTTP
// client recomputes for the new connection.
func ForwardProxyHeaders(dst *http.Request, src *http.Request) {
	for key, values := range src.Header {
		lower := strings.ToLower(key)
		if hopByHopHeaders[lower] || lower == "host" || lower == "content-length" {
			continue
		}
		for _, v := range values {
			dst.Header.Add(key, v)
		}
	}
}

// CopyResponseHeaders copies upstream response headers to the client response,
// dropping hop-by-hop headers. When streaming, length and encoding headers are
// dropped too since the relayed body no longer matches them.
func CopyResponseHeaders(dst http.Header, src http.Header, streaming bool) {
	for key, values := range src {
		lower := strings.ToLower(key)
		if hopByHopHeaders[lower] {
			continue
		}
		if streaming && (lower == "content-length" || lower == "content-encoding" || lower == "content-type") {
			continue
		}
		for _, v := range values {
			dst.Add(key, v)
		}
	}
}
