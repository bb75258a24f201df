package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/PD410/coinbase-notion-sync/internal/domain"
	"github.com/PD410/coinbase-notion-sync/internal/logger"
)

const pageSize = 100

// PageIndex maps an asset symbol to the ID of its existing row.
// Matching is exact and case-sensitive on the title's first text segment.
type PageIndex map[string]notionapi.ObjectID

// Reconciler upserts portfolio holdings into one Notion database.
// Existing rows are read once per sync via LoadIndex and matched in memory,
// so concurrent Upsert calls for different assets cannot race to create
// duplicate rows. Rows for assets no longer held are never removed.
type Reconciler struct {
	svc        Service
	databaseID string
}

// NewReconciler creates a reconciler for the given database.
func NewReconciler(svc Service, databaseID string) *Reconciler {
	return &Reconciler{
		svc:        svc,
		databaseID: databaseID,
	}
}

// LoadIndex queries every row of the database, following pagination, and
// returns an index of asset title to page ID. Pages without a readable
// title are skipped.
func (r *Reconciler) LoadIndex(ctx context.Context) (PageIndex, error) {
	index := make(PageIndex)
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{
			PageSize: pageSize,
		}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := r.svc.QueryDatabase(ctx, r.databaseID, req)
		if err != nil {
			return nil, wrapNotionError(err, "")
		}

		for _, page := range resp.Results {
			if asset := assetTitle(page); asset != "" {
				index[asset] = page.ID
			}
		}

		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return index, nil
}

// Upsert writes one holding: a PATCH of the indexed row when the asset is
// already present, otherwise a POST creating a row under the parent database.
// Returns true when a row was created.
func (r *Reconciler) Upsert(ctx context.Context, index PageIndex, balance domain.Balance, quote domain.PriceQuote) (bool, error) {
	log := logger.FromContext(ctx)
	props := HoldingProperties(balance, quote)

	if pageID, ok := index[balance.Asset]; ok {
		if _, err := r.svc.UpdatePage(ctx, string(pageID), props); err != nil {
			return false, wrapNotionError(err, balance.Asset)
		}
		log.Info().
			Str("asset", balance.Asset).
			Str("page_id", string(pageID)).
			Msg("Updated portfolio row")
		return false, nil
	}

	page, err := r.svc.CreatePage(ctx, r.databaseID, props)
	if err != nil {
		return false, wrapNotionError(err, balance.Asset)
	}
	log.Info().
		Str("asset", balance.Asset).
		Str("page_id", string(page.ID)).
		Msg("Created portfolio row")
	return true, nil
}

// wrapNotionError converts SDK errors that carry an HTTP status into the
// shared ExternalAPIError shape.
func wrapNotionError(err error, asset string) error {
	var apiErr *notionapi.Error
	if errors.As(err, &apiErr) {
		return &domain.ExternalAPIError{
			Service: "notion",
			Status:  apiErr.Status,
			Body:    apiErr.Message,
			Asset:   asset,
		}
	}
	if asset != "" {
		return fmt.Errorf("notion upsert for %s: %w", asset, err)
	}
	return fmt.Errorf("notion query: %w", err)
}
