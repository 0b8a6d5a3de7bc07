package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/aman-zulfiqar/token-sweeper/internal/balances"
	"github.com/aman-zulfiqar/token-sweeper/internal/cache"
	"github.com/aman-zulfiqar/token-sweeper/internal/config"
	"github.com/aman-zulfiqar/token-sweeper/internal/constants"
	"github.com/aman-zulfiqar/token-sweeper/internal/flags"
	"github.com/aman-zulfiqar/token-sweeper/internal/jupiter"
	"github.com/aman-zulfiqar/token-sweeper/internal/server"
	"github.com/aman-zulfiqar/token-sweeper/internal/storage"
	"github.com/aman-zulfiqar/token-sweeper/internal/upstream"
	"github.com/aman-zulfiqar/token-sweeper/internal/zeroex"
)

// env bootstrap function
func loadEnv(logger *logrus.Logger) {
	// Get the project root directory (where go.mod is)
	_, filename, _, _ := runtime.Caller(0)
	projectRoot := filepath.Join(filepath.Dir(filename), "../..")
	envPath := filepath.Join(projectRoot, ".env")

	if err := godotenv.Load(envPath); err != nil {
		// fall back to the working directory for packaged binaries
		if err := godotenv.Load(); err != nil {
			logger.Warnf("no .env file found at %s, using system environment variables", envPath)
			return
		}
	}
	logger.Info("loaded .env")
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	logger.SetLevel(logrus.InfoLevel)

	// load .env BEFORE anything reads os.Getenv
	loadEnv(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.WithError(err).Fatal("invalid configuration")
	}
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	} else {
		logger.WithField("level", cfg.LogLevel).Warn("unknown log level, keeping info")
	}

	policy := cfg.FeePolicy()
	logger.WithFields(logrus.Fields{
		"fee_bps":       policy.FeeBps,
		"fee_recipient": policy.FeeRecipient,
		"fee_active":    policy.FeeActive(),
		"slippage_bps":  policy.DefaultSlippageBps,
	}).Info("fee policy loaded")
	if cfg.ZeroExAPIKey == "" {
		logger.Warn("ZEROEX_API_KEY is not set, quote requests will fail")
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	// Redis backs the balance cache and the route switches. The proxy keeps
	// serving without it.
	rclient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	redisCache := cache.NewRedisCacheFromClient(rclient, logger)
	var (
		balanceCache storage.BalanceCache
		flagStore    *flags.Store
	)
	pingCtx, cancelPing := context.WithTimeout(context.Background(), 3*time.Second)
	err := redisCache.Ping(pingCtx)
	cancelPing()
	if err != nil {
		logger.WithError(err).Warn("redis unavailable, running without balance cache and route switches")
		_ = redisCache.Close()
	} else {
		balanceCache = redisCache
		defer func() { _ = balanceCache.Close() }()

		flagStore, err = flags.NewStore(rclient)
		if err != nil {
			logger.WithError(err).Fatal("failed to create flags store")
		}
	}

	// Quote calls carry no client timeout; balance calls get their own bound.
	quoteHTTP := upstream.NewClient(upstream.ClientConfig{Logger: logger})
	balanceHTTP := upstream.NewClient(upstream.ClientConfig{Timeout: constants.BalanceCallTimeout, Logger: logger})

	h := &server.Handlers{
		ZeroEx: zeroex.NewClient(zeroex.ClientConfig{
			BaseURL: cfg.ZeroExBaseURL,
			APIKey:  cfg.ZeroExAPIKey,
			Policy:  policy,
			HTTP:    quoteHTTP,
			Logger:  logger.WithField("component", "zeroex"),
		}),
		Jupiter: jupiter.NewClientWithHTTP(cfg.JupiterBaseURL, cfg.JupiterAPIKey,
			upstream.NewClient(upstream.ClientConfig{Timeout: constants.JupiterCallTimeout, Logger: logger})),
		Balances: balances.NewService(balances.Config{
			OneInchBaseURL: cfg.OneInchBaseURL,
			OneInchAPIKey:  cfg.OneInchAPIKey,
			HeliusBaseURL:  cfg.HeliusBaseURL,
			HeliusAPIKey:   cfg.HeliusAPIKey,
			Cache:          balanceCache,
			CacheTTL:       cfg.BalanceCacheTTL,
			HTTP:           balanceHTTP,
			Logger:         logger.WithField("component", "balances"),
		}),
		Flags:  flagStore,
		Cache:  balanceCache,
		Policy: policy,
		Logger: logger,
	}

	srv, err := server.NewServer(server.ServerDeps{
		Handlers: h,
		Config: server.ServerConfig{
			Addr:      cfg.APIAddr,
			DevMode:   cfg.DevMode,
			APIKey:    cfg.APIKey,
			RateLimit: cfg.SwapRateLimit,
			RateBurst: cfg.SwapRateBurst,
		},
	})
	if err != nil {
		logger.WithError(err).Fatal("failed to create http server")
	}

	go func() {
		<-sigCh
		logger.Info("shutting down")
		_ = srv.Shutdown(context.Background())
	}()

	logger.WithField("addr", cfg.APIAddr).Info("api server starting")
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Fatal("api server failed")
	}

	waitCtx, cancelWait := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelWait()
	if err := srv.WaitClosed(waitCtx); err != nil {
		logger.WithError(err).Warn("shutdown did not complete")
	}
}
