package balances

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/storage"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
)

var (
	// ErrOneInchNotConfigured is returned before any network call when no 1inch key is set.
	ErrOneInchNotConfigured = errors.New("1inch API key not configured")

	// ErrHeliusNotConfigured is returned before any network call when no Helius key is set.
	ErrHeliusNotConfigured = errors.New("helius API key not configured")
)

// Getter is the transport used for provider calls.
type Getter interface {
	Get(ctx context.Context, rawURL string, header http.Header) (*upstream.Response, error)
}

// Config wires the balance providers.
type Config struct {
	OneInchBaseURL string
	OneInchAPIKey  string
	HeliusBaseURL  string
	HeliusAPIKey   string

	// Cache is optional; nil disables caching.
	Cache    storage.BalanceCache
	CacheTTL time.Duration

	HTTP   Getter
	Logger logrus.FieldLogger
}

// Service proxies wallet balance lookups to 1inch (EVM) and Helius (Solana).
type Service struct {
	oneInchBase string
	oneInchKey  string
	heliusBase  string
	heliusKey   string

	cache    storage.BalanceCache
	cacheTTL time.Duration

	http   Getter
	logger logrus.FieldLogger
}

func NewService(cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.HTTP == nil {
		cfg.HTTP = upstream.NewClient(upstream.ClientConfig{Timeout: constants.BalanceCallTimeout, Logger: cfg.Logger})
	}
	return &Service{
		oneInchBase: trimBase(cfg.OneInchBaseURL, constants.OneInchBaseURL),
		oneInchKey:  strings.TrimSpace(cfg.OneInchAPIKey),
		heliusBase:  trimBase(cfg.HeliusBaseURL, constants.HeliusBaseURL),
		heliusKey:   strings.TrimSpace(cfg.HeliusAPIKey),
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
		http:        cfg.HTTP,
		logger:      cfg.Logger,
	}
}

// ParseChainID parses a positive decimal EVM chain id.
func ParseChainID(s string) (uint64, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid chain id %q", s)
	}
	return id, nil
}

// ParseEVMAddress validates a 20-byte hex address.
func ParseEVMAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// ParseSolanaAddress validates a base58 Solana public key.
func ParseSolanaAddress(s string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(strings.TrimSpace(s))
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("invalid solana address: %w", err)
	}
	return pk, nil
}

// EVM returns the token balances of address on chainID.
// fresh skips the cache read but still refreshes the cached copy.
func (s *Service) EVM(ctx context.Context, chainID uint64, address common.Address, fresh bool) (upstream.Outcome, error) {
	if s.oneInchKey == "" {
		return upstream.Outcome{}, ErrOneInchNotConfigured
	}

	key := fmt.Sprintf("%s%d:%s", constants.RedisKeyEVMBalancesPrefix, chainID, strings.ToLower(address.Hex()))
	u := fmt.Sprintf("%s/balance/v1.2/%d/balances/%s", s.oneInchBase, chainID, address.Hex())

	header := http.Header{}
	header.Set("Authorization", "Bearer "+s.oneInchKey)

	return s.fetch(ctx, "1inch", key, u, header, fresh)
}

// Solana returns the native and SPL balances of address.
func (s *Service) Solana(ctx context.Context, address solana.PublicKey, fresh bool) (upstream.Outcome, error) {
	if s.heliusKey == "" {
		return upstream.Outcome{}, ErrHeliusNotConfigured
	}

	key := constants.RedisKeySolanaBalancesPrefix + address.String()
	u := fmt.Sprintf("%s/v0/addresses/%s/balances?%s", s.heliusBase, address.String(),
		url.Values{"api-key": {s.heliusKey}}.Encode())

	return s.fetch(ctx, "helius", key, u, nil, fresh)
}

func (s *Service) fetch(ctx context.Context, provider, key, rawURL string, header http.Header, fresh bool) (upstream.Outcome, error) {
	log := s.logger.WithFields(logrus.Fields{"provider": provider, "key": key})

	if s.cache != nil && !fresh {
		body, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			log.WithError(err).Warn("balance cache read failed")
		case ok:
			log.Debug("balance cache hit")
			return upstream.Outcome{Kind: upstream.KindSuccess, Status: http.StatusOK, Body: body}, nil
		}
	}

	resp, err := s.http.Get(ctx, rawURL, header)
	out := upstream.Classify(resp, err)

	switch out.Kind {
	case upstream.KindSuccess:
		if s.cache != nil {
			if err := s.cache.Set(ctx, key, out.Body, s.cacheTTL); err != nil {
				log.WithError(err).Warn("balance cache write failed")
			}
		}
	case upstream.KindUpstreamError:
		log.WithFields(logrus.Fields{"status": out.Status, "body": string(resp.Body)}).Warn("balance provider rejected request")
	case upstream.KindTransportError:
		log.WithError(out.Cause).Error("balance provider request failed")
	}

	return out, nil
}

func trimBase(base, def string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return def
	}
	return base
}
