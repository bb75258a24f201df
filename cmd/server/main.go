package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/PD410/coinbase-notion-sync/internal/api"
	"github.com/PD410/coinbase-notion-sync/internal/coinbase"
	"github.com/PD410/coinbase-notion-sync/internal/config"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
	"github.com/PD410/coinbase-notion-sync/internal/notion"
	"github.com/PD410/coinbase-notion-sync/internal/prices"
	syncsvc "github.com/PD410/coinbase-notion-sync/internal/sync"
)

func main() {
	// .env is optional; real deployments use the environment directly
	_ = godotenv.Load()

	log := logger.New()
	cfg := config.Load()

	var (
		port     = flag.String("port", cfg.HTTPPort, "HTTP server port")
		interval = flag.Duration("interval", cfg.SyncInterval, "Scheduled sync interval (0 disables the worker)")
	)
	flag.Parse()

	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Msg("Credentials incomplete - sync requests will fail until configured")
	}

	exchange := coinbase.NewClient(cfg.CoinbaseBaseURL, cfg.CoinbaseAPIKey, cfg.CoinbaseAPISecret)
	priceFetcher := prices.NewFetcher(exchange)
	reconciler := notion.NewReconciler(notion.NewClient(cfg.NotionToken), cfg.NotionDatabaseID)
	svc := syncsvc.New(cfg, exchange, priceFetcher, reconciler)

	ctx, cancel := context.WithCancel(logger.WithContext(context.Background(), log))
	defer cancel()

	if *interval > 0 {
		worker := syncsvc.NewWorker(svc, *interval)
		go worker.Run(ctx)
	}

	handler := api.NewSyncHandler(svc, log)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/sync", handler.Handle)
	mux.HandleFunc("/healthz", handler.Health)

	chain := api.RequestID(api.Logger(log)(api.Recovery(log)(mux)))

	server := &http.Server{
		Addr:        ":" + *port,
		Handler:     chain,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info().Msg("Shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}
