package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/lo"

	"github.com/PD410/coinbase-notion-sync/internal/coinbase"
	"github.com/PD410/coinbase-notion-sync/internal/config"
	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
	"github.com/PD410/coinbase-notion-sync/internal/notion"
	"github.com/PD410/coinbase-notion-sync/internal/prices"
	syncsvc "github.com/PD410/coinbase-notion-sync/internal/sync"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	dryRun := flag.Bool("dry-run", false, "Preview the sync without writing to Notion")
	flag.Parse()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Configuration incomplete")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	exchange := coinbase.NewClient(cfg.CoinbaseBaseURL, cfg.CoinbaseAPIKey, cfg.CoinbaseAPISecret)
	priceFetcher := prices.NewFetcher(exchange)

	if *dryRun {
		if err := preview(ctx, exchange, priceFetcher); err != nil {
			log.Fatal().Err(err).Msg("Dry run failed")
		}
		return
	}

	reconciler := notion.NewReconciler(notion.NewClient(cfg.NotionToken), cfg.NotionDatabaseID)
	svc := syncsvc.New(cfg, exchange, priceFetcher, reconciler)

	result := svc.Run(ctx)

	out, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(out))

	if !result.Success {
		os.Exit(1)
	}
}

// preview fetches balances and quotes and logs the rows a real sync would
// write, without touching Notion.
func preview(ctx context.Context, exchange *coinbase.Client, priceFetcher *prices.Fetcher) error {
	log := logger.FromContext(ctx)

	balances, err := exchange.Balances(ctx)
	if err != nil {
		return err
	}
	if len(balances) == 0 {
		log.Info().Msg("No balances to sync")
		return nil
	}

	symbols := lo.Uniq(lo.Map(balances, func(b domain.Balance, _ int) string {
		return b.Asset
	}))
	quotes := priceFetcher.Fetch(ctx, symbols)

	for _, b := range balances {
		quote := quotes[b.Asset]
		log.Info().
			Str("asset", b.Asset).
			Str("balance", b.Amount.String()).
			Str("price", quote.Price.String()).
			Msg("[DRY RUN] Would upsert portfolio row")
	}

	return nil
}
