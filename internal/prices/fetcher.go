package prices

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
)

// RateSource provides the two public Coinbase price endpoints.
// This interface enables mocking and testing of price lookups.
type RateSource interface {
	// ExchangeRate returns the USD exchange rate for one unit of the symbol.
	ExchangeRate(ctx context.Context, symbol string) (decimal.Decimal, error)

	// SpotPrice returns the spot price for the symbol against the home fiat.
	SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// fixedValue lists the assets priced at exactly 1.0 without a lookup:
// the home fiat and the supported stablecoins.
var fixedValue = map[string]bool{
	domain.HomeFiat: true,
	"USDC":          true,
	"USDT":          true,
	"DAI":           true,
}

// Fetcher resolves current USD quotes for a set of asset symbols.
type Fetcher struct {
	rates RateSource
}

// NewFetcher creates a price fetcher backed by the given rate source.
func NewFetcher(rates RateSource) *Fetcher {
	return &Fetcher{rates: rates}
}

// Fetch resolves a quote for every symbol concurrently and returns them keyed
// by symbol. It never fails: a symbol whose lookup errors degrades to a zero
// quote. Duplicate symbols produce redundant but harmless lookups.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) map[string]domain.PriceQuote {
	quotesCh := make(chan domain.PriceQuote, len(symbols))

	for _, symbol := range symbols {
		go func(symbol string) {
			quotesCh <- f.quote(ctx, symbol)
		}(symbol)
	}

	quotes := make(map[string]domain.PriceQuote, len(symbols))
	for range symbols {
		q := <-quotesCh
		quotes[q.Symbol] = q
	}

	return quotes
}

// quote resolves the price for a single symbol. The exchange-rate price is
// the baseline; a successful spot lookup overrides it, a failed spot lookup
// is swallowed. The 24h change is not populated by either endpoint and stays 0.
func (f *Fetcher) quote(ctx context.Context, symbol string) domain.PriceQuote {
	if fixedValue[symbol] {
		return domain.PriceQuote{Symbol: symbol, Price: decimal.NewFromInt(1)}
	}

	log := logger.FromContext(ctx)

	price, err := f.rates.ExchangeRate(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("Price lookup failed, defaulting to zero")
		return domain.PriceQuote{Symbol: symbol, Price: decimal.Zero}
	}

	if spot, err := f.rates.SpotPrice(ctx, symbol); err == nil {
		price = spot
	} else {
		log.Debug().Err(err).Str("symbol", symbol).Msg("Spot price unavailable, keeping exchange rate")
	}

	return domain.PriceQuote{Symbol: symbol, Price: price}
}
