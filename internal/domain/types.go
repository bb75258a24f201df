package domain

import "github.com/shopspring/decimal"

// Balance is one exchange account holding, produced fresh on every sync.
type Balance struct {
	Asset     string          `json:"asset"`
	Amount    decimal.Decimal `json:"balance"`
	Currency  string          `json:"currency"`
	AccountID string          `json:"accountId"`
}

// PriceQuote is the current USD price for one asset symbol.
type PriceQuote struct {
	Symbol    string          `json:"symbol"`
	Price     decimal.Decimal `json:"price"`
	Change24h decimal.Decimal `json:"change24h"`
}

// SyncResult is the outcome of a single sync run. It is returned once per
// invocation and never persisted.
type SyncResult struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
	Assets     int     `json:"assets"`
	TotalValue float64 `json:"totalValue"`
	Duration   int64   `json:"duration"`
}

// HomeFiat is the reference currency used for pricing and the
// balance-significance threshold.
const HomeFiat = "USD"

// Row statuses written to the Notion table.
const (
	StatusActive      = "Active"
	StatusZeroBalance = "Zero Balance"
)
