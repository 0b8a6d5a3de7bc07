package zeroex

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/token-sweeper/internal/config"
	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

// ErrMissingAPIKey is returned before any network call when no 0x key is configured.
var ErrMissingAPIKey = errors.New("0x API key not configured")

// Getter is the transport the client forwards through.
type Getter interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error)
}

type Client struct {
	baseURL string
	apiKey  string
	policy  config.FeePolicy
	http    Getter
	logger  logrus.FieldLogger
}

type ClientConfig struct {
	BaseURL string
	APIKey  string
	Policy  config.FeePolicy
	HTTP    Getter
	Logger  logrus.FieldLogger
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = constants.ZeroExBaseURL
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.HTTP == nil {
		cfg.HTTP = upstream.NewClient(upstream.ClientConfig{Logger: cfg.Logger})
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		policy:  cfg.Policy,
		http:    cfg.HTTP,
		logger:  cfg.Logger,
	}
}

// Policy returns the fee policy applied to every request.
func (c *Client) Policy() config.FeePolicy {
	return c.policy
}

// Quote forwards a firm quote request. The only error it returns is
// ErrMissingAPIKey; everything else is expressed in the Outcome.
func (c *Client) Quote(ctx context.Context, caller url.Values) (upstream.Outcome, error) {
	return c.forward(ctx, constants.ZeroExQuotePath, caller)
}

// Price forwards an indicative price request with the same transformation.
func (c *Client) Price(ctx context.Context, caller url.Values) (upstream.Outcome, error) {
	return c.forward(ctx, constants.ZeroExPricePath, caller)
}

func (c *Client) forward(ctx context.Context, path string, caller url.Values) (upstream.Outcome, error) {
	if c.apiKey == "" {
		return upstream.Outcome{}, ErrMissingAPIKey
	}

	params := BuildQuoteParams(caller, c.policy)
	u := c.baseURL + path + "?" + params.Encode()

	log := c.logger.WithField("path", path)
	log.WithField("url", u).Info("forwarding 0x request")

	header := http.Header{}
	header.Set("0x-api-key", c.apiKey)
	header.Set("0x-version", constants.ZeroExAPIVersion)

	resp, err := c.http.Get(ctx, u, header)
	out := upstream.Classify(resp, err)

	switch out.Kind {
	case upstream.KindUpstreamError:
		log.WithFields(logrus.Fields{
			"status": out.Status,
			"body":   string(resp.Body),
		}).Warn("0x rejected request")
	case upstream.KindTransportError:
		if resp != nil {
			log = log.WithField("body", string(resp.Body))
		}
		log.WithError(out.Cause).Error("0x request failed")
	}

	return out, nil
}
