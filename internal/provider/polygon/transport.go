package polygon

import (
	"net/http"
	"time"
)

// baseTransportConfig returns the shared HTTP transport configuration used by Polygon clients.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		ResponseHeaderTimeout: time.Minute,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          16,
		MaxIdleConnsPerHost:   16,
		IdleConnTimeout:       90 * time.Second,
	}
}

// newHTTPClient creates an HTTP client configured for Polygon requests.
// Per-call deadlines come from the request context.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   2 * time.Minute,
	}
}

// NewCrawler constructs a Crawler with a shared HTTP client. An empty
// baseURL means DefaultBaseURL.
func NewCrawler(baseURL string, maxAttempts int) *Crawler {
	return &Crawler{
		client:      newHTTPClient(),
		BaseURL:     baseURL,
		MaxAttempts: maxAttempts,
		RetryDelay:  retryDelay,
	}
}
