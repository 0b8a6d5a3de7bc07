package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
)

type Config struct {
	// API settings
	APIAddr  string
	APIKey   string
	DevMode  bool
	LogLevel string

	// 0x aggregator
	ZeroExAPIKey  string
	ZeroExBaseURL string

	// Fee policy. FeeBps is kept as the raw env string so Validate can report it.
	FeeBps       string
	FeeRecipient string

	// Jupiter (Solana quotes)
	JupiterBaseURL string
	JupiterAPIKey  string

	// Balance providers
	OneInchBaseURL string
	OneInchAPIKey  string
	HeliusBaseURL  string
	HeliusAPIKey   string

	// Redis settings
	RedisAddr       string
	BalanceCacheTTL time.Duration

	// Rate limiting for the swap routes
	SwapRateLimit float64
	SwapRateBurst int
}

func Load() *Config {
	return &Config{
		// API
		APIAddr:  getEnv("API_ADDR", ":8090"),
		APIKey:   getEnv("API_KEY", ""),
		DevMode:  getBoolEnv("DEV_MODE", false),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// 0x
		ZeroExAPIKey:  strings.TrimSpace(os.Getenv("ZEROEX_API_KEY")),
		ZeroExBaseURL: getEnv("ZEROEX_BASE_URL", constants.ZeroExBaseURL),

		// Fees
		FeeBps:       getEnv("FEE_BPS", constants.DefaultFeeBps),
		FeeRecipient: getEnv("FEE_RECIPIENT", constants.TreasuryAddress),

		// Jupiter
		JupiterBaseURL: getEnv("JUPITER_BASE_URL", constants.JupiterBaseURL),
		JupiterAPIKey:  getEnv("JUPITER_API_KEY", ""),

		// Balances
		OneInchBaseURL: getEnv("ONEINCH_BASE_URL", constants.OneInchBaseURL),
		OneInchAPIKey:  getEnv("ONEINCH_API_KEY", ""),
		HeliusBaseURL:  getEnv("HELIUS_BASE_URL", constants.HeliusBaseURL),
		HeliusAPIKey:   getEnv("HELIUS_API_KEY", ""),

		// Redis
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		BalanceCacheTTL: getDurationEnv("BALANCE_CACHE_TTL", 15*time.Second),

		// Rate limiting
		SwapRateLimit: getFloatEnv("SWAP_RATE_LIMIT", 5),
		SwapRateBurst: getIntEnv("SWAP_RATE_BURST", 10),
	}
}

// Validate checks settings that must be correct before the server starts.
// A missing ZEROEX_API_KEY is not checked here; the quote routes report it
// per request.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIAddr) == "" {
		return errors.New("API_ADDR is required")
	}
	bps, err := strconv.Atoi(strings.TrimSpace(c.FeeBps))
	if err != nil {
		return fmt.Errorf("FEE_BPS must be an integer: %w", err)
	}
	if bps < 0 || bps > constants.MaxFeeBps {
		return fmt.Errorf("FEE_BPS must be within [0, %d], got %d", constants.MaxFeeBps, bps)
	}
	if c.FeeRecipient != "" && !common.IsHexAddress(c.FeeRecipient) {
		return fmt.Errorf("FEE_RECIPIENT is not a valid address: %q", c.FeeRecipient)
	}
	if c.BalanceCacheTTL < 0 {
		return errors.New("BALANCE_CACHE_TTL must not be negative")
	}
	if c.SwapRateLimit <= 0 || c.SwapRateBurst <= 0 {
		return errors.New("SWAP_RATE_LIMIT and SWAP_RATE_BURST must be positive")
	}
	return nil
}

// FeePolicy returns the process-wide fee and slippage policy.
// Call Validate first; an unparsable FEE_BPS yields a zero fee.
func (c *Config) FeePolicy() FeePolicy {
	bps, _ := strconv.Atoi(strings.TrimSpace(c.FeeBps))
	return FeePolicy{
		FeeBps:             bps,
		FeeRecipient:       strings.TrimSpace(c.FeeRecipient),
		DefaultSlippageBps: constants.DefaultSlippageBps,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}
