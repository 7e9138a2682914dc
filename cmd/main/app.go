package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"crypto-advisor/src/auth"
	"crypto-advisor/src/config"
	"crypto-advisor/src/dashboard"
	"crypto-advisor/src/data_source/coingecko"
	"crypto-advisor/src/data_source/cryptopanic"
	"crypto-advisor/src/data_source/insight"
	"crypto-advisor/src/data_source/meme"
	"crypto-advisor/src/helpers"
	"crypto-advisor/src/interfaces"
	"crypto-advisor/src/logger"
	"crypto-advisor/src/network"
	"crypto-advisor/src/server"
	"crypto-advisor/src/services"
	"crypto-advisor/src/storage"
	"crypto-advisor/src/utils"
)

const shutdownTimeout = 30 * time.Second

// application holds every long-lived component so shutdown can release them
// in reverse order.
type application struct {
	cfg    *config.Config
	log    *logger.Logger
	db     interfaces.IDatabase
	caches *utils.CacheRegistry
	server *server.APIServer
}

// -----------------------------------------------------------------------------

func buildApplication(ctx context.Context, cfg *config.Config) (*application, error) {
	log := logger.NewLogger(cfg.MConfig, cfg.Name)

	ttl, err := cfg.TokenTTL()
	if err != nil {
		return nil, fmt.Errorf("invalid auth.expires_in: %w", err)
	}

	if _, set := os.LookupEnv("GOMEMLIMIT"); !set {
		if limit := helpers.SoftMemoryLimitBytes(); limit > 0 {
			debug.SetMemoryLimit(limit)
			log.Info("soft memory limit set to %dMB", limit>>20)
		}
	}

	// 1. Storage
	db, err := storage.NewDatabase(ctx, cfg.MConfig, log.Named("storage"))
	if err != nil {
		return nil, err
	}

	// 2. Caches and upstream providers
	caches := utils.NewCacheRegistry(cfg.Cache)

	ext := cfg.External
	prices := coingecko.NewCoinGeckoSource(ext.CoinGecko,
		network.NewAsyncNetworkManager(cfg.MConfig, "coingecko", ext.CoinGecko, log.Named("coingecko")),
		caches.Prices, log.Named("prices"))
	news := cryptopanic.NewCryptoPanicSource(ext.CryptoPanic,
		network.NewAsyncNetworkManager(cfg.MConfig, "cryptopanic", ext.CryptoPanic, log.Named("cryptopanic")),
		caches.News, log.Named("news"))
	insights := insight.NewInsightSource(ext.AI, caches.Insight, log.Named("insight"))
	memes := meme.NewMemeSource(cfg.Memes.Path, log.Named("memes"))

	if ext.CryptoPanic.APIKey == "" {
		log.Warning("CRYPTOPANIC_API_KEY not set, news will use fallback items")
	}
	if ext.AI.APIKey == "" {
		log.Warning("AI_API_KEY not set, insights will use fallback texts")
	}

	// 3. Domain services
	tokens := auth.NewTokenManager(cfg.Auth, ttl)
	deps := server.Dependencies{
		Dashboard: dashboard.NewAggregator(db, prices, news, insights, memes, log.Named("dashboard")),
		Auth:      services.NewAuthService(db, tokens, cfg.Auth.BcryptCost, log.Named("auth")),
		Users:     services.NewUserService(db, log.Named("users")),
		Feedback:  services.NewFeedbackService(db, log.Named("feedback")),
		Tokens:    tokens,
		Caches:    caches,
		Database:  db,
		Prices:    prices,
	}

	return &application{
		cfg:    cfg,
		log:    log,
		db:     db,
		caches: caches,
		server: server.NewAPIServer(cfg, deps, log.Named("api")),
	}, nil
}

// -----------------------------------------------------------------------------

// shutdown stops accepting requests, drains in-flight ones, then releases
// caches and the database.
func (a *application) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("server shutdown: %v", err)
	}
	a.caches.Close()
	if err := a.db.Close(); err != nil {
		a.log.Error("database close: %v", err)
	}
	a.log.Info("shutdown complete")
}

// -----------------------------------------------------------------------------

func runServe(path string) error {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := buildApplication(ctx, cfg)
	if err != nil {
		return err
	}
	app.log.Info("starting %s (%s) on port %d", cfg.Name, cfg.Env, cfg.Port)

	errCh := make(chan error, 1)
	go func() { errCh <- app.server.Start() }()

	select {
	case err = <-errCh:
		if err != nil {
			app.log.Error("server failed: %v", err)
		}
	case <-ctx.Done():
		app.log.Info("shutting down...")
	}

	app.shutdown()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func runCheckConfig(out io.Writer, path, writeTo string) error {
	cfg, err := config.NewConfig(path)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "config OK: %s (%s) on %s:%d, storage=%s\n",
		cfg.Name, cfg.Env, cfg.Host, cfg.Port, cfg.Storage.DBType)

	if writeTo != "" {
		if err := cfg.Save(writeTo); err != nil {
			return err
		}
		fmt.Fprintf(out, "effective config written to %s\n", writeTo)
	}
	return nil
}
