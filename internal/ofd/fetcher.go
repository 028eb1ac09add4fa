package ofd

import (
	"context"
	"maps"
	"time"
)

// Fetcher defines the interface for downloading receipt pages
type Fetcher interface {
	// Fetch returns the raw markup of the receipt page at url
	Fetch(ctx context.Context, url string) (string, error)
}

// FetcherConfig is fixed when the fetcher is built; NewHTTPFetcher copies it
type FetcherConfig struct {
	Headers          map[string]string
	Timeout          time.Duration // bound on the whole fetch, retries included
	MaxRetries       int           // transport-level retries after the first attempt
	RetryWait        time.Duration
	RetryMaxWait     time.Duration
	MaxRedirects     int
	MaxIdleConns     int
	MaxConnsPerHost  int
	IdleConnTimeout  time.Duration
	BypassCloudflare bool
}

// DefaultHeaders returns the browser header set the receipt portal expects;
// Accept-Encoding is left to the transport so compressed bodies are decoded
func DefaultHeaders() map[string]string {
	return map[string]string{
		"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8",
		"Accept-Language":           "ru-RU,ru;q=0.9,en-US;q=0.8,en;q=0.7",
		"Connection":                "keep-alive",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Sec-Fetch-User":            "?1",
		"Cache-Control":             "max-age=0",
	}
}

// DefaultFetcherConfig mirrors the portal client settings: 15s timeout,
// 3 retries, redirects followed, small keep-alive pool
func DefaultFetcherConfig() FetcherConfig {
	return FetcherConfig{
		Headers:         DefaultHeaders(),
		Timeout:         15 * time.Second,
		MaxRetries:      3,
		RetryWait:       200 * time.Millisecond,
		RetryMaxWait:    2 * time.Second,
		MaxRedirects:    10,
		MaxIdleConns:    5,
		MaxConnsPerHost: 10,
		IdleConnTimeout: 5 * time.Second,
	}
}

func (c FetcherConfig) clone() FetcherConfig {
	c.Headers = maps.Clone(c.Headers)
	return c
}
