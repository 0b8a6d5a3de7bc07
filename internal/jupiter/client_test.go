package jupiter

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aman-zulfiqar/token-sweeper/internal/config"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

func TestValidateMint(t *testing.T) {
	t.Parallel()

	assert.NoError(t, ValidateMint(solMint))
	assert.NoError(t, ValidateMint(usdcMint))
	assert.Error(t, ValidateMint(""))
	assert.Error(t, ValidateMint("0OIl"))   // not base58 alphabet
	assert.Error(t, ValidateMint("3yZe7d")) // valid base58, wrong length
}

func TestQuoteRequest_WithPolicy(t *testing.T) {
	t.Parallel()

	policy := config.FeePolicy{FeeBps: 5, FeeRecipient: "0xabc", DefaultSlippageBps: 30}

	t.Run("fills defaults", func(t *testing.T) {
		t.Parallel()

		req := QuoteRequest{InputMint: solMint, OutputMint: usdcMint, Amount: "1"}
		out := req.WithPolicy(policy)

		require.NotNil(t, out.SlippageBps)
		require.NotNil(t, out.PlatformFeeBps)
		assert.Equal(t, uint16(30), *out.SlippageBps)
		assert.Equal(t, uint16(5), *out.PlatformFeeBps)
		assert.Nil(t, req.SlippageBps, "original untouched")
		assert.Nil(t, req.PlatformFeeBps, "original untouched")
	})

	t.Run("caller values win", func(t *testing.T) {
		t.Parallel()

		slip, fee := uint16(100), uint16(0)
		out := QuoteRequest{SlippageBps: &slip, PlatformFeeBps: &fee}.WithPolicy(policy)
		assert.Equal(t, uint16(100), *out.SlippageBps)
		assert.Equal(t, uint16(0), *out.PlatformFeeBps)
	})

	t.Run("inactive fee policy", func(t *testing.T) {
		t.Parallel()

		out := QuoteRequest{}.WithPolicy(config.FeePolicy{DefaultSlippageBps: 30})
		assert.Nil(t, out.PlatformFeeBps)
		assert.Equal(t, "30", out.Values().Get("slippageBps"))
	})
}

func TestClient_Quote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "jup-key", r.Header.Get("x-api-key"))
		q := r.URL.Query()
		assert.Equal(t, solMint, q.Get("inputMint"))
		assert.Equal(t, usdcMint, q.Get("outputMint"))
		assert.Equal(t, "1000", q.Get("amount"))
		assert.Equal(t, "50", q.Get("slippageBps"))
		assert.Equal(t, "Raydium,Orca V2", q.Get("dexes"))

		_ = json.NewEncoder(w).Encode(QuoteResponse{InputMint: solMint, OutputMint: usdcMint, InAmount: "1000", OutAmount: "150"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", " jup-key ")
	slip := uint16(50)
	out, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:   solMint,
		OutputMint:  usdcMint,
		Amount:      "1000",
		SlippageBps: &slip,
		Dexes:       []string{"Raydium", "Orca V2"},
	})
	require.NoError(t, err)
	assert.Equal(t, "150", out.OutAmount)
}

func TestClient_Quote_HTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Quote(context.Background(), QuoteRequest{InputMint: solMint, OutputMint: usdcMint, Amount: "1"})
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Contains(t, httpErr.Error(), "COULD_NOT_FIND_ANY_ROUTE")
}

func TestClient_Quote_RequiredFields(t *testing.T) {
	t.Parallel()

	c := NewClient("", "")
	assert.Equal(t, "https://api.jup.ag/swap/v1", c.BaseURL)

	_, err := c.Quote(context.Background(), QuoteRequest{OutputMint: usdcMint, Amount: "1"})
	assert.Error(t, err)
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: solMint, Amount: "1"})
	assert.Error(t, err)
	_, err = c.Quote(context.Background(), QuoteRequest{InputMint: solMint, OutputMint: usdcMint})
	assert.Error(t, err)
}

type getterFunc func(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error)

func (f getterFunc) Get(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error) {
	return f(ctx, rawURL, header)
}

func TestClient_Quote_UsesSharedTransport(t *testing.T) {
	t.Parallel()

	var gotURL string
	var gotHeader http.Header
	c := NewClientWithHTTP("https://jup.test/", "jup-key", getterFunc(func(_ context.Context, rawURL string, header http.Header) (*upstream.Response, error) {
		gotURL, gotHeader = rawURL, header
		return &upstream.Response{StatusCode: http.StatusOK, Body: []byte(`{"outAmount":"7"}`)}, nil
	}))

	out, err := c.Quote(context.Background(), QuoteRequest{InputMint: solMint, OutputMint: usdcMint, Amount: "1"})
	require.NoError(t, err)
	assert.Equal(t, "7", out.OutAmount)
	assert.True(t, strings.HasPrefix(gotURL, "https://jup.test/quote?"), gotURL)
	assert.Equal(t, "jup-key", gotHeader.Get("x-api-key"))
}

func TestClient_Quote_TransportErrorWrapped(t *testing.T) {
	t.Parallel()

	cause := errors.New("dial tcp: connection refused")
	c := NewClientWithHTTP("", "", getterFunc(func(context.Context, string, http.Header) (*upstream.Response, error) {
		return nil, cause
	}))

	_, err := c.Quote(context.Background(), QuoteRequest{InputMint: solMint, OutputMint: usdcMint, Amount: "1"})
	require.ErrorIs(t, err, cause)

	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}

func TestClient_Quote_TruncatedBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "200")
		_, _ = w.Write([]byte(`{"outAmount":`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	_, err := c.Quote(context.Background(), QuoteRequest{InputMint: solMint, OutputMint: usdcMint, Amount: "1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read response")
	assert.NotContains(t, err.Error(), "decode")
}
