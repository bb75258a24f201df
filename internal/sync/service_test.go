package sync

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/PD410/coinbase-notion-sync/internal/config"
	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/notion"
)

// mockBalanceSource is a mock exchange balance source.
type mockBalanceSource struct {
	balances []domain.Balance
	err      error
	calls    int
}

func (m *mockBalanceSource) Balances(ctx context.Context) ([]domain.Balance, error) {
	m.calls++
	return m.balances, m.err
}

// mockQuoteSource returns canned quotes for requested symbols.
type mockQuoteSource struct {
	quotes map[string]domain.PriceQuote
	calls  int
}

func (m *mockQuoteSource) Fetch(ctx context.Context, symbols []string) map[string]domain.PriceQuote {
	m.calls++
	out := make(map[string]domain.PriceQuote, len(symbols))
	for _, s := range symbols {
		if q, ok := m.quotes[s]; ok {
			out[s] = q
		}
	}
	return out
}

// mockReconciler records upserts against an in-memory index.
type mockReconciler struct {
	mu         sync.Mutex
	index      notion.PageIndex
	loadErr    error
	upsertErr  error
	loadCalls  int
	upserts    []domain.Balance
	lastQuotes map[string]domain.PriceQuote
}

func (m *mockReconciler) LoadIndex(ctx context.Context) (notion.PageIndex, error) {
	m.loadCalls++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.index == nil {
		m.index = notion.PageIndex{}
	}
	return m.index, nil
}

func (m *mockReconciler) Upsert(ctx context.Context, index notion.PageIndex, balance domain.Balance, quote domain.PriceQuote) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil {
		return false, m.upsertErr
	}
	m.upserts = append(m.upserts, balance)
	if m.lastQuotes == nil {
		m.lastQuotes = make(map[string]domain.PriceQuote)
	}
	m.lastQuotes[balance.Asset] = quote
	_, existed := index[balance.Asset]
	return !existed, nil
}

func validConfig() config.Config {
	return config.Config{
		CoinbaseAPIKey:    "key",
		CoinbaseAPISecret: "secret",
		NotionToken:       "token",
		NotionDatabaseID:  "db",
	}
}

func bal(asset, amount string) domain.Balance {
	return domain.Balance{
		Asset:     asset,
		Amount:    decimal.RequireFromString(amount),
		Currency:  asset,
		AccountID: "acc-" + asset,
	}
}

func quote(symbol, price string) domain.PriceQuote {
	return domain.PriceQuote{Symbol: symbol, Price: decimal.RequireFromString(price)}
}

// Scenario A: one ETH holding, one priced symbol, one row written.
func TestRun_SingleHolding(t *testing.T) {
	balances := &mockBalanceSource{balances: []domain.Balance{bal("ETH", "2.5")}}
	quotes := &mockQuoteSource{quotes: map[string]domain.PriceQuote{"ETH": quote("ETH", "3000")}}
	recon := &mockReconciler{}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Assets != 1 {
		t.Errorf("Assets = %d, want 1", result.Assets)
	}
	if result.TotalValue != 7500 {
		t.Errorf("TotalValue = %v, want 7500", result.TotalValue)
	}
	if len(recon.upserts) != 1 || recon.upserts[0].Asset != "ETH" {
		t.Errorf("unexpected upserts: %+v", recon.upserts)
	}
	if got := recon.lastQuotes["ETH"]; !got.Price.Equal(decimal.RequireFromString("3000")) {
		t.Errorf("upserted price = %s, want 3000", got.Price)
	}
}

// Scenario B: no qualifying balances short-circuits before prices and database.
func TestRun_NoBalances(t *testing.T) {
	balances := &mockBalanceSource{}
	quotes := &mockQuoteSource{}
	recon := &mockReconciler{}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Assets != 0 {
		t.Errorf("Assets = %d, want 0", result.Assets)
	}
	if result.Message != "No balances to sync" {
		t.Errorf("Message = %q, want 'No balances to sync'", result.Message)
	}
	if quotes.calls != 0 {
		t.Errorf("price fetcher called %d times, want 0", quotes.calls)
	}
	if recon.loadCalls != 0 || len(recon.upserts) != 0 {
		t.Error("Expected no database calls")
	}
}

// Scenario C: exchange failure surfaces its status, no database calls made.
func TestRun_BalanceFetchFails(t *testing.T) {
	balances := &mockBalanceSource{
		err: &domain.ExternalAPIError{Service: "coinbase", Status: 401, Body: "unauthorized"},
	}
	quotes := &mockQuoteSource{}
	recon := &mockReconciler{}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if result.Success {
		t.Fatal("Run() succeeded, want failure")
	}
	if !strings.Contains(result.Error, "401") {
		t.Errorf("Error = %q, want mention of status 401", result.Error)
	}
	if recon.loadCalls != 0 || len(recon.upserts) != 0 {
		t.Error("Expected no database calls")
	}
}

// Scenario D: a missing credential fails before any outbound call.
func TestRun_MissingCredentials(t *testing.T) {
	cfg := validConfig()
	cfg.NotionToken = ""
	balances := &mockBalanceSource{balances: []domain.Balance{bal("ETH", "1")}}
	quotes := &mockQuoteSource{}
	recon := &mockReconciler{}

	result := New(cfg, balances, quotes, recon).Run(context.Background())

	if result.Success {
		t.Fatal("Run() succeeded, want failure")
	}
	if !strings.Contains(result.Error, "NOTION_TOKEN") {
		t.Errorf("Error = %q, want mention of NOTION_TOKEN", result.Error)
	}
	if balances.calls != 0 || quotes.calls != 0 || recon.loadCalls != 0 {
		t.Error("Expected no outbound calls at all")
	}
}

// Total value sums balance×price, defaulting a missing quote to zero.
func TestRun_TotalValueWithMissingQuote(t *testing.T) {
	balances := &mockBalanceSource{balances: []domain.Balance{
		bal("BTC", "0.5"),
		bal("ETH", "2"),
		bal("MYSTERY", "100"),
	}}
	quotes := &mockQuoteSource{quotes: map[string]domain.PriceQuote{
		"BTC": quote("BTC", "40000"),
		"ETH": quote("ETH", "3000"),
	}}
	recon := &mockReconciler{}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if result.Assets != 3 {
		t.Errorf("Assets = %d, want 3", result.Assets)
	}
	// 0.5×40000 + 2×3000 + 100×0
	if result.TotalValue != 26000 {
		t.Errorf("TotalValue = %v, want 26000", result.TotalValue)
	}
}

func TestRun_ReconcileErrorFailsRun(t *testing.T) {
	balances := &mockBalanceSource{balances: []domain.Balance{bal("ETH", "1")}}
	quotes := &mockQuoteSource{quotes: map[string]domain.PriceQuote{"ETH": quote("ETH", "3000")}}
	recon := &mockReconciler{
		upsertErr: &domain.ExternalAPIError{Service: "notion", Status: 500, Body: "boom", Asset: "ETH"},
	}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if result.Success {
		t.Fatal("Run() succeeded, want failure")
	}
	if !strings.Contains(result.Error, "notion") {
		t.Errorf("Error = %q, want notion API error", result.Error)
	}
	if result.Duration < 0 {
		t.Errorf("Duration = %d, want >= 0", result.Duration)
	}
}

func TestRun_ExistingRowsAreUpdated(t *testing.T) {
	balances := &mockBalanceSource{balances: []domain.Balance{bal("BTC", "1"), bal("ETH", "2")}}
	quotes := &mockQuoteSource{quotes: map[string]domain.PriceQuote{
		"BTC": quote("BTC", "40000"),
		"ETH": quote("ETH", "3000"),
	}}
	recon := &mockReconciler{index: notion.PageIndex{"BTC": "page-btc"}}

	result := New(validConfig(), balances, quotes, recon).Run(context.Background())

	if !result.Success {
		t.Fatalf("Run() failed: %s", result.Error)
	}
	if recon.loadCalls != 1 {
		t.Errorf("LoadIndex called %d times, want exactly 1 per sync", recon.loadCalls)
	}
	if len(recon.upserts) != 2 {
		t.Errorf("upserts = %d, want 2", len(recon.upserts))
	}
}
