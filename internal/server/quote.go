package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/aman-zulfiqar/token-sweeper/internal/jupiter"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

// paramError is a caller input problem rendered as a 400.
type paramError struct {
	field string
	want  string
}

func (e *paramError) Error() string { return "invalid " + e.field }

func splitCSVQuery(values []string) []string {
	var out []string
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func optUint16(c echo.Context, name string) (*uint16, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 16)
	if err != nil {
		return nil, &paramError{field: name, want: "must be uint16"}
	}
	out := uint16(n)
	return &out, nil
}

func optUint64(c echo.Context, name string) (*uint64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return nil, &paramError{field: name, want: "must be uint64"}
	}
	return &n, nil
}

func optBool(c echo.Context, name string) (*bool, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil, &paramError{field: name, want: "must be boolean"}
	}
	return &b, nil
}

func parseJupiterQuote(c echo.Context) (jupiter.QuoteRequest, error) {
	req := jupiter.QuoteRequest{
		InputMint:    strings.TrimSpace(c.QueryParam("inputMint")),
		OutputMint:   strings.TrimSpace(c.QueryParam("outputMint")),
		Amount:       strings.TrimSpace(c.QueryParam("amount")),
		SwapMode:     strings.TrimSpace(c.QueryParam("swapMode")),
		Dexes:        splitCSVQuery(c.QueryParams()["dexes"]),
		ExcludeDexes: splitCSVQuery(c.QueryParams()["excludeDexes"]),
	}

	mints := []struct{ name, value string }{
		{"inputMint", req.InputMint},
		{"outputMint", req.OutputMint},
	}
	for _, m := range mints {
		if m.value == "" {
			return req, &paramError{field: m.name, want: "required"}
		}
		if jupiter.ValidateMint(m.value) != nil {
			return req, &paramError{field: m.name, want: "must be a base58 mint address"}
		}
	}
	if req.Amount == "" {
		return req, &paramError{field: "amount", want: "required"}
	}
	if _, err := strconv.ParseUint(req.Amount, 10, 64); err != nil {
		return req, &paramError{field: "amount", want: "must be uint64"}
	}
	if req.SwapMode != "" && req.SwapMode != "ExactIn" && req.SwapMode != "ExactOut" {
		return req, &paramError{field: "swapMode", want: "must be ExactIn or ExactOut"}
	}

	var err error
	if req.SlippageBps, err = optUint16(c, "slippageBps"); err != nil {
		return req, err
	}
	if req.PlatformFeeBps, err = optUint16(c, "platformFeeBps"); err != nil {
		return req, err
	}
	if req.MaxAccounts, err = optUint64(c, "maxAccounts"); err != nil {
		return req, err
	}
	if req.RestrictIntermediateTokens, err = optBool(c, "restrictIntermediateTokens"); err != nil {
		return req, err
	}
	if req.OnlyDirectRoutes, err = optBool(c, "onlyDirectRoutes"); err != nil {
		return req, err
	}
	if req.DynamicSlippage, err = optBool(c, "dynamicSlippage"); err != nil {
		return req, err
	}
	return req, nil
}

// SolanaQuote returns a Jupiter quote with the default slippage and platform
// fee filled in where the caller left them out.
func (h *Handlers) SolanaQuote(c echo.Context) error {
	if h.Jupiter == nil {
		return h.err(c, http.StatusInternalServerError, "jupiter is not configured", nil)
	}

	req, err := parseJupiterQuote(c)
	if err != nil {
		var pe *paramError
		if errors.As(err, &pe) {
			return h.err(c, http.StatusBadRequest, pe.Error(), map[string]any{pe.field: pe.want})
		}
		return h.err(c, http.StatusBadRequest, "invalid request", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 0)
	defer cancel()

	out, err := h.Jupiter.Quote(ctx, req.WithPolicy(h.Policy))
	if err != nil {
		var he *jupiter.HTTPError
		if errors.As(err, &he) {
			res := upstream.Classify(&upstream.Response{StatusCode: he.StatusCode, Body: he.Body}, nil)
			if res.Kind == upstream.KindUpstreamError {
				h.logger().WithField("status", he.StatusCode).Warn("jupiter rejected quote")
				return c.JSON(res.Status, res.Rejection)
			}
		}
		h.logger().WithError(err).Error("jupiter quote failed")
		return h.err(c, http.StatusBadGateway, msgSolanaQuoteFailed, map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, out)
}
