package constants

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Upstream endpoints
const (
	ZeroExBaseURL    = "https://api.0x.org"
	ZeroExQuotePath  = "/swap/allowance-holder/quote"
	ZeroExPricePath  = "/swap/allowance-holder/price"
	ZeroExAPIVersion = "v2"

	JupiterBaseURL = "https://api.jup.ag/swap/v1"
	OneInchBaseURL = "https://api.1inch.dev"
	HeliusBaseURL  = "https://api.helius.xyz"
)

// Fee and slippage policy
const (
	DefaultFeeBps      = "5"
	DefaultSlippageBps = 30
	MaxFeeBps          = 1000

	// PriceImpactThreshold is sent as priceImpactProtectionPercentage on every
	// quote: 100% means the aggregator reports impact but never blocks on it.
	PriceImpactThreshold = "1"

	TreasuryAddress = "0x8Dd5E58CE7B1F7e8bD3c5D1e61F5c1bC4AAb8cB2"
)

// Redis keys
const (
	RedisKeyEVMBalancesPrefix    = "balances:evm:"
	RedisKeySolanaBalancesPrefix = "balances:solana:"
)

// Route switches
const (
	FlagQuotesEnabled   = "quotes.enabled"
	FlagBalancesEnabled = "balances.enabled"
	FlagSolanaEnabled   = "solana.enabled"
)

// Timeouts for calls the service owns. Aggregator quote calls use the
// platform default.
const (
	BalanceCallTimeout = 10 * time.Second
	JupiterCallTimeout = 12 * time.Second
	FlagLookupTimeout  = 500 * time.Millisecond
)

// ChainTargets lists the tokens a sweep can end in on a given chain.
type ChainTargets struct {
	ChainID uint64         `json:"chainId"`
	Name    string         `json:"name"`
	USDC    common.Address `json:"usdc"`
	WETH    common.Address `json:"weth"`
}

// SweepTargets by chain id
var SweepTargets = map[uint64]ChainTargets{
	1: {
		ChainID: 1,
		Name:    "ethereum",
		USDC:    common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48"),
		WETH:    common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
	},
	10: {
		ChainID: 10,
		Name:    "optimism",
		USDC:    common.HexToAddress("0x0b2C639c533813f4Aa9D7837CAf62653d097Ff85"),
		WETH:    common.HexToAddress("0x4200000000000000000000000000000000000006"),
	},
	137: {
		ChainID: 137,
		Name:    "polygon",
		USDC:    common.HexToAddress("0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359"),
		WETH:    common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"),
	},
	8453: {
		ChainID: 8453,
		Name:    "base",
		USDC:    common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"),
		WETH:    common.HexToAddress("0x4200000000000000000000000000000000000006"),
	},
	42161: {
		ChainID: 42161,
		Name:    "arbitrum",
		USDC:    common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831"),
		WETH:    common.HexToAddress("0x82aF49447D8a07e3bd95BD0d56f35241523fBab1"),
	},
}

// Solana sweep targets (mint addresses)
var SolanaTokenSymbols = map[string]string{
	"So11111111111111111111111111111111111111112":  "SOL",
	"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v": "USDC",
}
