package coinbase

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"resty.dev/v3"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
)

const (
	_accountsURL      = "/v2/accounts"
	_exchangeRatesURL = "/v2/exchange-rates"

	// apiVersion pins the Coinbase API behavior for signed requests.
	apiVersion = "2023-01-01"
	userAgent  = "coinbase-notion-sync/1.0"
)

// Client talks to the Coinbase v2 REST API. Account listing is signed with
// the API secret; price endpoints are public.
type Client struct {
	c         *resty.Client
	apiKey    string
	apiSecret string
}

// NewClient creates a Coinbase client for the given base URL and credentials.
func NewClient(baseURL, apiKey, apiSecret string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", userAgent)

	return &Client{
		c:         client,
		apiKey:    apiKey,
		apiSecret: apiSecret,
	}
}

// signedHeaders builds the CB-ACCESS authentication headers for one request.
// The signature is a hex HMAC-SHA256 over timestamp + method + path + body.
func (c *Client) signedHeaders(method, path, body string) map[string]string {
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)

	mac := hmac.New(sha256.New, []byte(c.apiSecret))
	mac.Write([]byte(timestamp + method + path + body))
	signature := hex.EncodeToString(mac.Sum(nil))

	return map[string]string{
		"CB-ACCESS-KEY":       c.apiKey,
		"CB-ACCESS-SIGN":      signature,
		"CB-ACCESS-TIMESTAMP": timestamp,
		"CB-VERSION":          apiVersion,
		"Content-Type":        "application/json",
	}
}

// Balances fetches all accounts and returns the holdings worth syncing:
// positive balances, except home-fiat dust of one unit or less.
func (c *Client) Balances(ctx context.Context) ([]domain.Balance, error) {
	accounts, err := c.listAccounts(ctx)
	if err != nil {
		return nil, err
	}

	one := decimal.NewFromInt(1)

	var balances []domain.Balance
	for _, acc := range accounts {
		amount, err := decimal.NewFromString(acc.Balance.Amount)
		if err != nil {
			continue
		}
		if !amount.IsPositive() {
			continue
		}
		if acc.Currency.Code == domain.HomeFiat && !amount.GreaterThan(one) {
			continue
		}

		balances = append(balances, domain.Balance{
			Asset:     acc.Currency.Code,
			Amount:    amount,
			Currency:  acc.Currency.Code,
			AccountID: acc.ID,
		})
	}

	return balances, nil
}

// listAccounts issues the signed GET /v2/accounts request.
func (c *Client) listAccounts(ctx context.Context) ([]account, error) {
	resp, err := c.c.R().
		SetContext(ctx).
		SetHeaders(c.signedHeaders("GET", _accountsURL, "")).
		Get(_accountsURL)
	if err != nil {
		return nil, fmt.Errorf("coinbase accounts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, &domain.ExternalAPIError{
			Service: "coinbase",
			Status:  resp.StatusCode(),
			Body:    resp.String(),
		}
	}

	var parsed accountsResponse
	if err := json.Unmarshal(resp.Bytes(), &parsed); err != nil {
		return nil, &domain.InvalidResponseError{Service: "coinbase", Reason: err.Error()}
	}
	if parsed.Data == nil {
		return nil, &domain.InvalidResponseError{Service: "coinbase", Reason: "missing data array in accounts response"}
	}

	return parsed.Data, nil
}

// ExchangeRate returns the USD exchange rate for one unit of the symbol.
func (c *Client) ExchangeRate(ctx context.Context, symbol string) (decimal.Decimal, error) {
	resp, err := c.c.R().
		SetContext(ctx).
		SetQueryParam("currency", symbol).
		Get(_exchangeRatesURL)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coinbase exchange rates request: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return decimal.Zero, &domain.ExternalAPIError{
			Service: "coinbase",
			Status:  resp.StatusCode(),
			Body:    resp.String(),
			Asset:   symbol,
		}
	}

	var parsed exchangeRatesResponse
	if err := json.Unmarshal(resp.Bytes(), &parsed); err != nil {
		return decimal.Zero, &domain.InvalidResponseError{Service: "coinbase", Reason: err.Error()}
	}

	rate, ok := parsed.Data.Rates[domain.HomeFiat]
	if !ok {
		return decimal.Zero, &domain.InvalidResponseError{
			Service: "coinbase",
			Reason:  fmt.Sprintf("no %s rate for %s", domain.HomeFiat, symbol),
		}
	}

	price, err := decimal.NewFromString(rate)
	if err != nil {
		return decimal.Zero, &domain.InvalidResponseError{
			Service: "coinbase",
			Reason:  fmt.Sprintf("unparseable %s rate for %s: %q", domain.HomeFiat, symbol, rate),
		}
	}

	return price, nil
}

// SpotPrice returns the spot price for the symbol against the home fiat.
func (c *Client) SpotPrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	path := fmt.Sprintf("/v2/prices/%s-%s/spot", symbol, domain.HomeFiat)

	resp, err := c.c.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return decimal.Zero, fmt.Errorf("coinbase spot price request: %w", err)
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return decimal.Zero, &domain.ExternalAPIError{
			Service: "coinbase",
			Status:  resp.StatusCode(),
			Body:    resp.String(),
			Asset:   symbol,
		}
	}

	var parsed spotPriceResponse
	if err := json.Unmarshal(resp.Bytes(), &parsed); err != nil {
		return decimal.Zero, &domain.InvalidResponseError{Service: "coinbase", Reason: err.Error()}
	}

	price, err := decimal.NewFromString(parsed.Data.Amount)
	if err != nil {
		return decimal.Zero, &domain.InvalidResponseError{
			Service: "coinbase",
			Reason:  fmt.Sprintf("unparseable spot price for %s: %q", symbol, parsed.Data.Amount),
		}
	}

	return price, nil
}
