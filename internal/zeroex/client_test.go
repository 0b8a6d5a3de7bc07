package zeroex

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

type getterFunc func(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error)

func (f getterFunc) Get(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error) {
	return f(ctx, rawURL, header)
}

func newTestClient(t *testing.T, apiKey string, handler http.HandlerFunc) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(ClientConfig{
		BaseURL: srv.URL + "/",
		APIKey:  apiKey,
		Policy:  defaultPolicy(),
		Logger:  logrus.New(),
	})
}

func TestClient_Quote_MissingAPIKey(t *testing.T) {
	t.Parallel()

	called := false
	c := NewClient(ClientConfig{
		APIKey: "  ",
		Policy: defaultPolicy(),
		HTTP: getterFunc(func(context.Context, string, http.Header) (*upstream.Response, error) {
			called = true
			return nil, nil
		}),
	})

	_, err := c.Quote(context.Background(), callerParams())
	require.ErrorIs(t, err, ErrMissingAPIKey)
	_, err = c.Price(context.Background(), callerParams())
	require.ErrorIs(t, err, ErrMissingAPIKey)
	assert.False(t, called, "no network call without a key")
}

func TestClient_Quote_ForwardsTransformedRequest(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, constants.ZeroExQuotePath, r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("0x-api-key"))
		assert.Equal(t, "v2", r.Header.Get("0x-version"))

		q := r.URL.Query()
		assert.Equal(t, usdc, q.Get("buyToken"))
		assert.Equal(t, usdc, q.Get(ParamSwapFeeToken))
		assert.Equal(t, recipient, q.Get(ParamSwapFeeRecipient))
		assert.Equal(t, "5", q.Get(ParamSwapFeeBps))
		assert.Equal(t, "30", q.Get(ParamSlippageBps))
		assert.Equal(t, constants.PriceImpactThreshold, q.Get(ParamPriceImpact))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"price":"1.23","buyAmount":"999"}`))
	})

	out, err := c.Quote(context.Background(), callerParams())
	require.NoError(t, err)
	require.Equal(t, upstream.KindSuccess, out.Kind)
	assert.Equal(t, http.StatusOK, out.Status)
	assert.Equal(t, `{"price":"1.23","buyAmount":"999"}`, string(out.Body))
}

func TestClient_Price_UsesPriceEndpoint(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, constants.ZeroExPricePath, r.URL.Path)
		_, _ = w.Write([]byte(`{"price":"2"}`))
	})

	out, err := c.Price(context.Background(), url.Values{"buyToken": {usdc}})
	require.NoError(t, err)
	assert.Equal(t, upstream.KindSuccess, out.Kind)
}

func TestClient_Quote_UpstreamRejection(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, "test-key", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"reason":"insufficient liquidity"}`))
	})

	out, err := c.Quote(context.Background(), callerParams())
	require.NoError(t, err)
	require.Equal(t, upstream.KindUpstreamError, out.Kind)
	assert.Equal(t, http.StatusBadRequest, out.Status)
	assert.Equal(t, "insufficient liquidity", out.Rejection.Error)
}

func TestClient_Quote_TransportFailure(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{
		APIKey: "test-key",
		Policy: defaultPolicy(),
		HTTP: getterFunc(func(context.Context, string, http.Header) (*upstream.Response, error) {
			return nil, errors.New("dial tcp: connection refused")
		}),
	})

	out, err := c.Quote(context.Background(), callerParams())
	require.NoError(t, err)
	assert.Equal(t, upstream.KindTransportError, out.Kind)
	assert.Error(t, out.Cause)
}

func TestClient_Quote_CallerParamsUntouched(t *testing.T) {
	t.Parallel()

	c := NewClient(ClientConfig{
		APIKey: "test-key",
		Policy: defaultPolicy(),
		HTTP: getterFunc(func(context.Context, string, http.Header) (*upstream.Response, error) {
			return &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{}`)}, nil
		}),
	})

	caller := callerParams()
	before := caller.Encode()
	_, err := c.Quote(context.Background(), caller)
	require.NoError(t, err)
	assert.Equal(t, before, caller.Encode())
}
