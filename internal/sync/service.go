package sync

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/PD410/coinbase-notion-sync/internal/config"
	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
	"github.com/PD410/coinbase-notion-sync/internal/notion"
)

// BalanceSource fetches the current exchange holdings.
type BalanceSource interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
}

// QuoteSource resolves USD quotes for a set of symbols. It never fails;
// unresolvable symbols come back as zero quotes.
type QuoteSource interface {
	Fetch(ctx context.Context, symbols []string) map[string]domain.PriceQuote
}

// RowReconciler upserts holdings into the portfolio table.
type RowReconciler interface {
	LoadIndex(ctx context.Context) (notion.PageIndex, error)
	Upsert(ctx context.Context, index notion.PageIndex, balance domain.Balance, quote domain.PriceQuote) (bool, error)
}

// Service runs one full balance→price→table sync per invocation.
type Service struct {
	cfg      config.Config
	balances BalanceSource
	quotes   QuoteSource
	recon    RowReconciler
}

// New creates a sync service with injected stage implementations.
func New(cfg config.Config, balances BalanceSource, quotes QuoteSource, recon RowReconciler) *Service {
	return &Service{
		cfg:      cfg,
		balances: balances,
		quotes:   quotes,
		recon:    recon,
	}
}

// Run executes the pipeline and always returns a SyncResult; every failure
// is converted here, never propagated to the caller. Duration is measured
// entry to exit regardless of outcome.
func (s *Service) Run(ctx context.Context) domain.SyncResult {
	start := time.Now()

	log := logger.FromContext(ctx).With().Str("run_id", uuid.NewString()).Logger()
	ctx = logger.WithContext(ctx, log)

	fail := func(err error) domain.SyncResult {
		log.Error().Err(err).Msg("Sync failed")
		return domain.SyncResult{
			Success:  false,
			Error:    err.Error(),
			Duration: time.Since(start).Milliseconds(),
		}
	}

	if err := s.cfg.Validate(); err != nil {
		return fail(err)
	}

	log.Info().Msg("Starting portfolio sync")

	balances, err := s.balances.Balances(ctx)
	if err != nil {
		return fail(err)
	}
	log.Info().Int("balance_count", len(balances)).Msg("Fetched exchange balances")

	if len(balances) == 0 {
		return domain.SyncResult{
			Success:  true,
			Message:  "No balances to sync",
			Assets:   0,
			Duration: time.Since(start).Milliseconds(),
		}
	}

	symbols := lo.Uniq(lo.Map(balances, func(b domain.Balance, _ int) string {
		return b.Asset
	}))
	quotes := s.quotes.Fetch(ctx, symbols)
	log.Info().Int("symbol_count", len(symbols)).Msg("Fetched price quotes")

	if err := s.reconcile(ctx, balances, quotes); err != nil {
		return fail(err)
	}

	totalValue := decimal.Zero
	for _, b := range balances {
		if quote, ok := quotes[b.Asset]; ok {
			totalValue = totalValue.Add(b.Amount.Mul(quote.Price))
		}
	}

	result := domain.SyncResult{
		Success:    true,
		Message:    "Sync completed",
		Assets:     len(balances),
		TotalValue: totalValue.InexactFloat64(),
		Duration:   time.Since(start).Milliseconds(),
	}
	log.Info().
		Int("assets", result.Assets).
		Float64("total_value", result.TotalValue).
		Int64("duration_ms", result.Duration).
		Msg("Portfolio sync completed")
	return result
}

// reconcile reads the existing rows once, then upserts every balance
// concurrently and waits for all of them. The first reconciliation error,
// if any, fails the run after the barrier.
func (s *Service) reconcile(ctx context.Context, balances []domain.Balance, quotes map[string]domain.PriceQuote) error {
	index, err := s.recon.LoadIndex(ctx)
	if err != nil {
		return err
	}

	errCh := make(chan error, len(balances))
	var wg sync.WaitGroup

	for _, b := range balances {
		wg.Add(1)
		go func(b domain.Balance) {
			defer wg.Done()
			quote := quotes[b.Asset]
			if _, err := s.recon.Upsert(ctx, index, b, quote); err != nil {
				errCh <- err
			}
		}(b)
	}

	wg.Wait()
	close(errCh)

	return <-errCh
}
