package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
)

// RegisterRoutes configures all API routes, middleware, and error handlers
func RegisterRoutes(e *echo.Echo, h *Handlers, cfg ServerConfig) {
	e.HTTPErrorHandler = NotFoundJSON()

	e.Use(SetJSONContentType)
	e.Use(SetNoCacheHeaders)

	// Optional API key authentication
	if cfg.APIKey != "" {
		e.Use(middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
			KeyLookup: "header:X-API-Key",
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/v1/health"
			},
			Validator: func(key string, c echo.Context) (bool, error) {
				return key == cfg.APIKey, nil
			},
		}))
	}

	v1 := e.Group("/v1")
	v1.GET("/health", h.Health)
	v1.GET("/chains", h.Chains)

	// Aggregator routes share a per-client rate limit
	swap := v1.Group("/swap", h.RequireFlag(constants.FlagQuotesEnabled), rateLimiter(cfg))
	swap.GET("/quote", h.SwapQuote)
	swap.GET("/price", h.SwapPrice)

	sol := v1.Group("/solana", h.RequireFlag(constants.FlagSolanaEnabled), rateLimiter(cfg))
	sol.GET("/quote", h.SolanaQuote)

	bal := v1.Group("/balances", h.RequireFlag(constants.FlagBalancesEnabled))
	bal.GET("/evm/:chainId/:address", h.EVMBalances)
	bal.GET("/solana/:address", h.SolanaBalances)

	// Route switch admin. Flags can take routes offline, so the group is
	// closed unless API_KEY is set, in which case key auth above covers it.
	flagGroup := v1.Group("/flags", requireAPIKey(cfg.APIKey))
	flagGroup.GET("", h.FlagsList)
	flagGroup.POST("", h.FlagsUpsert)
	flagGroup.GET("/:key", h.FlagsGet)
	flagGroup.PUT("/:key", h.FlagsUpdate)
	flagGroup.DELETE("/:key", h.FlagsDelete)

	e.RouteNotFound("/*", func(c echo.Context) error {
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found", Code: http.StatusNotFound})
	})
}

// rateLimiter returns a per-IP limiter for cfg, or a pass-through when
// limiting is disabled.
func rateLimiter(cfg ServerConfig) echo.MiddlewareFunc {
	if cfg.RateLimit <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}
	return middleware.RateLimiter(middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RateLimit),
		Burst:     burst,
		ExpiresIn: 2 * time.Minute,
	}))
}

// requireAPIKey refuses every request when no API key is configured.
func requireAPIKey(apiKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if apiKey == "" {
				return c.JSON(http.StatusForbidden, ErrorResponse{
					Error: "flag admin requires API_KEY",
					Code:  http.StatusForbidden,
				})
			}
			return next(c)
		}
	}
}
