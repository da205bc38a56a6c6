package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/0gfoundation/0g-vrf-coordinator/internal/api"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/blockhash"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/callback"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/chain"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/config"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/coordinator"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/events"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/metrics"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/settler"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/token"
	"github.com/0gfoundation/0g-vrf-coordinator/internal/vrf"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── Redis ─────────────────────────────────────────────────────────────────
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("redis ping failed", zap.Error(err))
	}

	a, err := build(ctx, cfg, rdb, log)
	if err != nil {
		log.Fatal("wiring failed", zap.Error(err))
	}
	defer a.close()

	// ── Goroutines ────────────────────────────────────────────────────────────
	go blockhash.Run(ctx, a.headers, a.recent, a.archive, cfg.Chain.PollInterval, log)
	go settler.Run(ctx, rdb, a.coord, a.headers, a.settlerOpts, log)
	go settler.RunRetry(ctx, rdb, a.settlerOpts, log)

	// ── HTTP server ───────────────────────────────────────────────────────────
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: a.router,
	}

	go func() {
		log.Info("HTTP server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Info("shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}
	log.Info("shutdown complete")
}

// nodeSource is what both a real node and the dev chain provide.
type nodeSource interface {
	blockhash.HeaderSource
	settler.GasPricer
}

type app struct {
	coord       *coordinator.Coordinator
	headers     nodeSource
	recent      *blockhash.Recent
	archive     *blockhash.RedisArchive
	settlerOpts settler.Options
	router      *gin.Engine
	close       func()
}

// build wires every component from cfg without starting background loops.
func build(ctx context.Context, cfg *config.Config, rdb *redis.Client, log *zap.Logger) (*app, error) {
	a := &app{close: func() {}}

	// ── Chain: headers and price feed ─────────────────────────────────────────
	var prices coordinator.PriceOracle
	if cfg.Chain.MockChain {
		log.Warn("MOCK_CHAIN enabled: block hashes are synthetic")
		a.headers = chain.NewDevChain(time.Now(), cfg.Chain.MockBlockTime, cfg.Coordinator.Address)
	} else {
		client, err := chain.Dial(ctx, cfg.Chain.RPCURL)
		if err != nil {
			return nil, err
		}
		a.headers = client
		a.close = client.Close
		if cfg.Chain.StaticPrice == "" {
			feed, err := chain.NewAggregator(common.HexToAddress(cfg.Chain.PriceFeedAddress), client)
			if err != nil {
				return nil, fmt.Errorf("price feed binding: %w", err)
			}
			prices = feed
		}
	}
	if prices == nil {
		prices = chain.NewStaticPrice(cfg.StaticPriceWei())
	}

	// ── Block hashes: native window + Redis archive ───────────────────────────
	a.recent = blockhash.NewRecent()
	a.archive = blockhash.NewRedisArchive(rdb)
	if err := blockhash.Poll(ctx, a.headers, a.recent, a.archive); err != nil {
		log.Warn("initial header sync failed", zap.Error(err))
	}

	// ── Proof verifier ────────────────────────────────────────────────────────
	var verifier coordinator.ProofVerifier
	if cfg.Verifier.Mock {
		log.Warn("MOCK_VRF enabled: proofs are NOT cryptographically verified")
		verifier = vrf.Mock{}
	} else {
		verifier = vrf.NewRemote(cfg.Verifier.URL, cfg.Verifier.APIKey, cfg.Verifier.Timeout)
	}

	// ── Coordinator ───────────────────────────────────────────────────────────
	policy, err := cfg.Policy()
	if err != nil {
		return nil, err
	}
	ledger := token.NewRedisLedger(rdb)
	webhooks := callback.NewWebhook(rdb, cfg.Callback.Timeout)
	a.coord, err = coordinator.New(
		common.HexToAddress(cfg.Coordinator.Address),
		common.HexToAddress(cfg.Coordinator.AdminAddress),
		policy,
		coordinator.Backends{
			Tokens:    ledger,
			Prices:    prices,
			Blocks:    a.recent,
			Archive:   a.archive,
			Verifier:  verifier,
			Callbacks: callback.NewRegistry(webhooks),
			Sink:      metrics.NewSink(events.NewRedisSink(rdb, cfg.Events.StreamKey)),
		},
		log,
	)
	if err != nil {
		return nil, fmt.Errorf("coordinator: %w", err)
	}

	a.settlerOpts = settler.Options{
		Queue:           cfg.Settler.QueueKey,
		Retry:           cfg.Settler.RetryKey,
		DLQ:             cfg.Settler.DLQKey,
		RetryInterval:   cfg.Settler.RetryInterval,
		MaxAttempts:     cfg.Settler.MaxAttempts,
		DefaultGasLimit: cfg.Settler.DefaultGasLimit,
	}

	// ── HTTP ──────────────────────────────────────────────────────────────────
	r := gin.New()
	r.Use(gin.Recovery(), metrics.Gin())
	r.GET("/healthz", func(c *gin.Context) {
		head, synced := a.recent.Head()
		c.JSON(http.StatusOK, gin.H{"ok": true, "synced": synced, "head": head})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api.NewHandler(api.Deps{
		Coordinator:     a.coord,
		Ledger:          ledger,
		Webhooks:        webhooks,
		Redis:           rdb,
		Gas:             a.headers,
		Queue:           cfg.Settler.QueueKey,
		DefaultGasLimit: cfg.Settler.DefaultGasLimit,
		Log:             log,
	}).Register(r.Group("/api"))
	a.router = r

	log.Info("coordinator wired",
		zap.String("address", a.coord.Address().Hex()),
		zap.String("admin", a.coord.Admin().Hex()),
		zap.Bool("mock_chain", cfg.Chain.MockChain),
		zap.Bool("mock_vrf", cfg.Verifier.Mock),
	)
	return a, nil
}
