package httpclient

import (
	"net/http"
	"time"

	"live-tracker/internal/core/logger"
	"live-tracker/internal/core/proxy"

	"go.uber.org/zap"
)

// LoggingRoundTripper captures request details for debugging.
type LoggingRoundTripper struct {
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip executes the request and logs details.
func (lrt *LoggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	logger.Get().Debug("HTTP Request Started",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
	)

	resp, err := lrt.Proxied.RoundTrip(req)

	duration := time.Since(start)

	if err != nil {
		logger.Get().Error("HTTP Request Failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	logger.Get().Debug("HTTP Request Completed",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status_code", resp.StatusCode),
		zap.Duration("duration", duration),
	)

	return resp, nil
}

// BearerRoundTripper injects a bearer credential into outgoing requests.
// With an empty token requests go out unauthenticated.
type BearerRoundTripper struct {
	// Token is the opaque bearer credential.
	Token string
	// Proxied is the underlying RoundTripper to execute the request.
	Proxied http.RoundTripper
}

// RoundTrip attaches the Authorization header and executes the request.
func (brt *BearerRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if brt.Token != "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+brt.Token)
	}
	return brt.Proxied.RoundTrip(req)
}

// NewClient returns an http.Client with logging middleware.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: http.DefaultTransport,
		},
		Timeout: timeout,
	}
}

// NewAuthenticatedClient returns an http.Client that presents the bearer
// credential on every request, routed through the configured proxy when one
// is enabled.
func NewAuthenticatedClient(timeout time.Duration, token string, p proxy.Settings) *http.Client {
	base := http.DefaultTransport

	if u, err := p.URL(); err == nil && u != nil {
		base = &http.Transport{Proxy: http.ProxyURL(u)}
	} else if err != nil {
		logger.Get().Warn("Ignoring invalid proxy configuration", zap.Error(err))
	}

	return &http.Client{
		Transport: &LoggingRoundTripper{
			Proxied: &BearerRoundTripper{
				Token:   token,
				Proxied: base,
			},
		},
		Timeout: timeout,
	}
}
