package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/metrics"
	"crypto-advisor/src/models"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultBaseDelay = 100 * time.Millisecond
	maxBodyBytes     = 4 << 20
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("bad status %d from %s", e.StatusCode, e.URL)
}

// -----------------------------------------------------------------------------

// AsyncNetworkManager issues GET requests against one upstream service,
// retrying network errors and 5xx responses with exponential backoff.
type AsyncNetworkManager struct {
	Service      string
	Timeout      time.Duration
	MaxRetries   int
	BaseDelay    time.Duration
	ProxyManager interfaces.IProxyManager
	Logger       *logger.Logger

	mu     sync.RWMutex
	client *http.Client
}

// -----------------------------------------------------------------------------

// NewAsyncNetworkManager builds a client for service. The upstream timeout
// and retry count win over the global network settings when set.
func NewAsyncNetworkManager(cfg *models.MConfig, service string, upstream models.MUpstreamConfig, log *logger.Logger) *AsyncNetworkManager {
	timeout := time.Duration(cfg.Network.RequestTimeout) * time.Second
	if upstream.TimeoutSeconds > 0 {
		timeout = time.Duration(upstream.TimeoutSeconds) * time.Second
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := cfg.Network.MaxRetries
	if upstream.Retries != nil {
		retries = *upstream.Retries
	}

	nm := &AsyncNetworkManager{
		Service:      service,
		Timeout:      timeout,
		MaxRetries:   retries,
		BaseDelay:    defaultBaseDelay,
		ProxyManager: helpers.NewProxyManager(cfg.Network.Proxies, cfg.Network.UserAgent, log.Named("ProxyManager")),
		Logger:       log,
	}
	nm.client = nm.createClient()
	return nm
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.ProxyManager.HasProxies() {
		proxyStr, err := nm.ProxyManager.GetCurrentProxy()
		if err == nil && proxyStr != "" {
			proxyURL, err := url.Parse(proxyStr)
			if err == nil {
				transport.Proxy = http.ProxyURL(proxyURL)
			}
		}
	}

	return &http.Client{
		Transport: transport,
		Timeout:   nm.Timeout,
	}
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) rotateProxy() {
	if !nm.ProxyManager.HasProxies() {
		return
	}

	nm.ProxyManager.RotateProxy()
	client := nm.createClient()

	nm.mu.Lock()
	nm.client = client
	nm.mu.Unlock()
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) httpClient() *http.Client {
	nm.mu.RLock()
	defer nm.mu.RUnlock()
	return nm.client
}

// -----------------------------------------------------------------------------

// Get performs a GET request with retries and proxy rotation.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, params map[string]string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, err
	}

	q := reqURL.Query()
	for k, v := range params {
		q.Set(k, v)
	}
	reqURL.RawQuery = q.Encode()
	finalURL := reqURL.String()

	var body []byte
	err = helpers.RetryWithBackoff(ctx, nm.MaxRetries+1, nm.BaseDelay, IsRetryable,
		func(attempt int, err error, delay time.Duration) {
			nm.Logger.Warning("%s request retry %d/%d in %v: %v", nm.Service, attempt, nm.MaxRetries, delay, err)
			nm.rotateProxy()
		},
		func() error {
			b, err := nm.do(ctx, finalURL)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	if err != nil {
		return nil, helpers.NewNetworkError(fmt.Sprintf("%s request failed", nm.Service), err)
	}

	return body, nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) do(ctx context.Context, finalURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", nm.ProxyManager.GetUserAgent())
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := nm.httpClient().Do(req)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(nm.Service, "error").Inc()
		nm.Logger.Debug("%s request error after %v: %v", nm.Service, time.Since(start), err)
		return nil, err
	}
	defer resp.Body.Close()

	nm.Logger.Debug("%s responded %d in %v", nm.Service, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequests.WithLabelValues(nm.Service, fmt.Sprintf("%dxx", resp.StatusCode/100)).Inc()
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.Scheme + "://" + req.URL.Host + req.URL.Path}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(nm.Service, "error").Inc()
		return nil, err
	}

	metrics.UpstreamRequests.WithLabelValues(nm.Service, "ok").Inc()
	return body, nil
}

// -----------------------------------------------------------------------------

// IsRetryable reports whether err is worth another attempt: transport
// failures and 5xx responses are, 4xx responses and cancellations are not.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode >= 500
	}
	return true
}
