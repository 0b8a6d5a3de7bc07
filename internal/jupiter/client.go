package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mr-tron/base58"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

// Getter is the transport quote calls go through.
type Getter interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error)
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    Getter
}

func NewClient(baseURL, apiKey string) *Client {
	return NewClientWithHTTP(baseURL, apiKey, nil)
}

// NewClientWithHTTP builds a client on a shared transport. A nil getter gets
// its own upstream client with the Jupiter timeout.
func NewClientWithHTTP(baseURL, apiKey string, httpGetter Getter) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = constants.JupiterBaseURL
	}
	if httpGetter == nil {
		httpGetter = upstream.NewClient(upstream.ClientConfig{Timeout: constants.JupiterCallTimeout})
	}
	return &Client{
		BaseURL: baseURL,
		APIKey:  strings.TrimSpace(apiKey),
		HTTP:    httpGetter,
	}
}

type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("jupiter http %d", e.StatusCode)
	}
	return fmt.Sprintf("jupiter http %d: %s", e.StatusCode, b)
}

// ValidateMint checks that s is a base58 encoded 32-byte mint address.
func ValidateMint(s string) error {
	b, err := base58.Decode(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("decode mint: %w", err)
	}
	if len(b) != 32 {
		return fmt.Errorf("mint must be 32 bytes, got %d", len(b))
	}
	return nil
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if strings.TrimSpace(req.InputMint) == "" {
		return nil, errors.New("inputMint is required")
	}
	if strings.TrimSpace(req.OutputMint) == "" {
		return nil, errors.New("outputMint is required")
	}
	if strings.TrimSpace(req.Amount) == "" {
		return nil, errors.New("amount is required")
	}

	u := c.BaseURL + "/quote?" + req.Values().Encode()
	header := http.Header{}
	if c.APIKey != "" {
		header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Get(ctx, u, header)
	if err != nil {
		return nil, fmt.Errorf("jupiter quote: %w", err)
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: res.Body}
	}

	var out QuoteResponse
	if err := json.Unmarshal(res.Body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jupiter quote response: %w", err)
	}
	return &out, nil
}

// Values encodes the request as Jupiter quote query parameters.
func (req QuoteRequest) Values() url.Values {
	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)

	if req.SlippageBps != nil {
		q.Set("slippageBps", fmt.Sprintf("%d", *req.SlippageBps))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if len(req.Dexes) > 0 {
		q.Set("dexes", strings.Join(req.Dexes, ","))
	}
	if len(req.ExcludeDexes) > 0 {
		q.Set("excludeDexes", strings.Join(req.ExcludeDexes, ","))
	}
	if req.RestrictIntermediateTokens != nil {
		q.Set("restrictIntermediateTokens", fmt.Sprintf("%t", *req.RestrictIntermediateTokens))
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", fmt.Sprintf("%t", *req.OnlyDirectRoutes))
	}
	if req.PlatformFeeBps != nil {
		q.Set("platformFeeBps", fmt.Sprintf("%d", *req.PlatformFeeBps))
	}
	if req.MaxAccounts != nil {
		q.Set("maxAccounts", fmt.Sprintf("%d", *req.MaxAccounts))
	}
	if req.DynamicSlippage != nil {
		q.Set("dynamicSlippage", fmt.Sprintf("%t", *req.DynamicSlippage))
	}
	return q
}
