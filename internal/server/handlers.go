package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/token-sweeper/internal/balances"
	"github.com/aman-zulfiqar/token-sweeper/internal/config"
	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/flags"
	"github.com/aman-zulfiqar/token-sweeper/internal/jupiter"
	"github.com/aman-zulfiqar/token-sweeper/internal/storage"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
	"github.com/aman-zulfiqar/token-sweeper/internal/zeroex"
)

// Generic messages returned when an upstream call fails without a usable
// rejection body.
const (
	msgQuoteFailed       = "Failed to fetch quote"
	msgPriceFailed       = "Failed to fetch price"
	msgSolanaQuoteFailed = "Failed to fetch Solana quote"
	msgBalancesFailed    = "Failed to fetch balances"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	ZeroEx   *zeroex.Client       // 0x quote/price proxy
	Jupiter  *jupiter.Client      // Jupiter quote API client
	Balances *balances.Service    // 1inch / Helius balance proxy
	Flags    *flags.Store         // Redis-backed route switches (optional)
	Cache    storage.BalanceCache // Balance cache, reported by Health (optional)
	Policy   config.FeePolicy     // Fee policy for the Solana side
	DevMode  bool                 // Include error details in responses
	Logger   logrus.FieldLogger
}

// err returns a standardized JSON error response.
// Details are only included in dev mode.
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

func (h *Handlers) logger() logrus.FieldLogger {
	if h.Logger == nil {
		return logrus.StandardLogger()
	}
	return h.Logger
}

// relay writes an upstream outcome: success bodies verbatim, rejections with
// the upstream status, everything else as a generic 500.
func relay(c echo.Context, out upstream.Outcome, generic string) error {
	if out.Kind == upstream.KindSuccess {
		return c.Blob(out.Status, echo.MIMEApplicationJSON, out.Body)
	}
	status, body := out.Render(generic)
	return c.JSON(status, body)
}

// Health reports liveness plus the balance cache state. A cache outage does
// not fail the check.
func (h *Handlers) Health(c echo.Context) error {
	resp := HealthResponse{OK: true}
	if h.Cache != nil {
		ctx, cancel := h.withTimeout(c.Request().Context(), constants.FlagLookupTimeout)
		defer cancel()
		resp.Cache = "up"
		if err := h.Cache.Ping(ctx); err != nil {
			h.logger().WithError(err).Warn("balance cache ping failed")
			resp.Cache = "down"
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// Chains lists the supported sweep targets ordered by chain id.
func (h *Handlers) Chains(c echo.Context) error {
	items := make([]constants.ChainTargets, 0, len(constants.SweepTargets))
	for _, t := range constants.SweepTargets {
		items = append(items, t)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ChainID < items[j].ChainID })
	return c.JSON(http.StatusOK, ChainsResponse{Items: items})
}

// SwapQuote forwards a firm 0x quote with the fee policy applied.
func (h *Handlers) SwapQuote(c echo.Context) error {
	if h.ZeroEx == nil {
		return h.err(c, http.StatusInternalServerError, zeroex.ErrMissingAPIKey.Error(), nil)
	}
	return h.forwardZeroEx(c, h.ZeroEx.Quote, msgQuoteFailed)
}

// SwapPrice forwards an indicative 0x price with the fee policy applied.
func (h *Handlers) SwapPrice(c echo.Context) error {
	if h.ZeroEx == nil {
		return h.err(c, http.StatusInternalServerError, zeroex.ErrMissingAPIKey.Error(), nil)
	}
	return h.forwardZeroEx(c, h.ZeroEx.Price, msgPriceFailed)
}

func (h *Handlers) forwardZeroEx(c echo.Context, call func(context.Context, url.Values) (upstream.Outcome, error), generic string) error {
	// The outbound call is not tied to the inbound connection.
	ctx := context.WithoutCancel(c.Request().Context())

	out, err := call(ctx, c.QueryParams())
	if errors.Is(err, zeroex.ErrMissingAPIKey) {
		return h.err(c, http.StatusInternalServerError, err.Error(), nil)
	}
	if err != nil {
		h.logger().WithError(err).Error("0x forward failed")
		return h.err(c, http.StatusInternalServerError, generic, nil)
	}
	return relay(c, out, generic)
}

// EVMBalances proxies a 1inch balance lookup for one wallet on one chain.
func (h *Handlers) EVMBalances(c echo.Context) error {
	if h.Balances == nil {
		return h.err(c, http.StatusInternalServerError, balances.ErrOneInchNotConfigured.Error(), nil)
	}

	chainID, err := balances.ParseChainID(c.Param("chainId"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid chainId", map[string]any{"chainId": "must be a positive integer"})
	}
	address, err := balances.ParseEVMAddress(c.Param("address"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"address": "must be a 20-byte hex address"})
	}
	fresh, err := parseFresh(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fresh", map[string]any{"fresh": "must be boolean"})
	}

	out, err := h.Balances.EVM(c.Request().Context(), chainID, address, fresh)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, err.Error(), nil)
	}
	return relay(c, out, msgBalancesFailed)
}

// SolanaBalances proxies a Helius balance lookup for one wallet.
func (h *Handlers) SolanaBalances(c echo.Context) error {
	if h.Balances == nil {
		return h.err(c, http.StatusInternalServerError, balances.ErrHeliusNotConfigured.Error(), nil)
	}

	address, err := balances.ParseSolanaAddress(c.Param("address"))
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid address", map[string]any{"address": "must be a base58 public key"})
	}
	fresh, err := parseFresh(c)
	if err != nil {
		return h.err(c, http.StatusBadRequest, "invalid fresh", map[string]any{"fresh": "must be boolean"})
	}

	out, err := h.Balances.Solana(c.Request().Context(), address, fresh)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, err.Error(), nil)
	}
	return relay(c, out, msgBalancesFailed)
}

func parseFresh(c echo.Context) (bool, error) {
	v := strings.TrimSpace(c.QueryParam("fresh"))
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
