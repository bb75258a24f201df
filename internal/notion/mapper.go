package notion

import (
	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
)

// asset title property name, matched exactly on reconciliation
const titleProperty = "Asset"

var oneHundred = decimal.NewFromInt(100)

// HoldingProperties converts one (balance, quote) pair to the Notion
// properties of a portfolio row. The 24h change is stored as a fraction
// because the table column uses the percent format.
func HoldingProperties(balance domain.Balance, quote domain.PriceQuote) notionapi.Properties {
	status := domain.StatusZeroBalance
	if balance.Amount.IsPositive() {
		status = domain.StatusActive
	}

	return notionapi.Properties{
		titleProperty: notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{
						Content: balance.Asset,
					},
				},
			},
		},
		"Balance": notionapi.NumberProperty{
			Number: balance.Amount.InexactFloat64(),
		},
		"Current Price": notionapi.NumberProperty{
			Number: quote.Price.InexactFloat64(),
		},
		"24h Change": notionapi.NumberProperty{
			Number: quote.Change24h.Div(oneHundred).InexactFloat64(),
		},
		"Status": notionapi.SelectProperty{
			Select: notionapi.Option{
				Name: status,
			},
		},
	}
}

// assetTitle extracts the first text segment of a page's Asset title.
// Returns empty string if not found.
func assetTitle(page notionapi.Page) string {
	if prop, ok := page.Properties[titleProperty]; ok {
		if title, ok := prop.(*notionapi.TitleProperty); ok {
			if len(title.Title) > 0 {
				return title.Title[0].PlainText
			}
		}
	}
	return ""
}
