package upstream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// Client performs single-shot GET requests against third-party APIs.
// It never retries; callers classify the result with Classify.
type Client struct {
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// ClientConfig holds configuration for the upstream client
type ClientConfig struct {
	// Timeout of zero leaves the platform default (no client-side deadline).
	Timeout time.Duration
	Logger  logrus.FieldLogger
}

// Response is a fully buffered upstream reply
type Response struct {
	StatusCode int
	Body       []byte
}

// NewClient creates a new upstream client with a pooled transport
func NewClient(cfg ClientConfig) *Client {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: cfg.Logger,
	}
}

// Get sends one GET request and buffers the whole body.
// A non-2xx status is not an error at this level.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"host":    req.URL.Host,
		"path":    req.URL.Path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("upstream call completed")

	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
