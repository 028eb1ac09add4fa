package ofd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// bodySnippetLength caps how much of an error body ends up in ServerError
const bodySnippetLength = 500

// HTTPFetcher implements the Fetcher interface using resty
type HTTPFetcher struct {
	client  *resty.Client
	timeout time.Duration
}

// NewHTTPFetcher creates a new HTTPFetcher from cfg
func NewHTTPFetcher(cfg FetcherConfig) *HTTPFetcher {
	cfg = cfg.clone()

	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		ForceAttemptHTTP2: true,
		MaxIdleConns:      cfg.MaxIdleConns,
		MaxConnsPerHost:   cfg.MaxConnsPerHost,
		IdleConnTimeout:   cfg.IdleConnTimeout,
	}

	client := resty.NewWithClient(&http.Client{Transport: transport})
	if cfg.BypassCloudflare {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}

	client.SetHeaders(cfg.Headers)
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(cfg.MaxRedirects))
	client.SetLogger(slogLogger{})
	client.SetRetryCount(cfg.MaxRetries)
	client.SetRetryWaitTime(cfg.RetryWait)
	client.SetRetryMaxWaitTime(cfg.RetryMaxWait)
	// only transport failures are retried, never an HTTP status
	client.AddRetryCondition(func(_ *resty.Response, err error) bool {
		return err != nil && !isTimeout(err) && !errors.Is(err, context.Canceled)
	})

	return &HTTPFetcher{
		client:  client,
		timeout: cfg.Timeout,
	}
}

// Fetch downloads the receipt page and returns its body untouched
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	slog.DebugContext(ctx, "fetching receipt", "url", url)

	res, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", classifyTransportError(err)
	}

	slog.DebugContext(ctx, "receipt response", "url", url, "status", res.StatusCode(), "attempts", res.Request.Attempt)

	if !res.IsSuccess() {
		if res.StatusCode() == http.StatusNotFound {
			return "", ErrNotFound
		}
		return "", &ServerError{
			StatusCode: res.StatusCode(),
			Body:       snippet(string(res.Body()), bodySnippetLength),
		}
	}

	return string(res.Body()), nil
}

func classifyTransportError(err error) error {
	switch {
	case isTimeout(err):
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	default:
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func snippet(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// slogLogger routes resty's internal messages into slog
type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...interface{}) {
	slog.Warn("resty", "message", fmt.Sprintf(format, v...))
}

func (slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn("resty", "message", fmt.Sprintf(format, v...))
}

func (slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug("resty", "message", fmt.Sprintf(format, v...))
}
