package coinbase

// account is one entry of the GET /v2/accounts response.
type account struct {
	ID       string          `json:"id"`
	Currency accountCurrency `json:"currency"`
	Balance  accountBalance  `json:"balance"`
}

type accountCurrency struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type accountBalance struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

type accountsResponse struct {
	Data []account `json:"data"`
}

type exchangeRatesResponse struct {
	Data struct {
		Currency string            `json:"currency"`
		Rates    map[string]string `json:"rates"`
	} `json:"data"`
}

type spotPriceResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}
