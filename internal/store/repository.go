package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"crypto-price-service/internal/model"

	"github.com/sirupsen/logrus"
)

// Repository is the transactional access layer over tracked_assets and
// price_history. Assets are upserted by symbol; history rows are append-only
// and never mutated.
type Repository struct {
	db     *DB
	logger *logrus.Logger
}

// NewRepository creates a repository over the given connection pool
func NewRepository(db *DB, logger *logrus.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// FindAssetWithLatestPrice returns the tracked asset for the symbol together
// with its most recent price history entry. Returns (nil, nil, nil) when the
// symbol has never been observed, and (asset, nil, nil) when the asset exists
// but has no history yet.
func (r *Repository) FindAssetWithLatestPrice(ctx context.Context, symbol string) (*model.TrackedAsset, *model.PriceHistoryEntry, error) {
	const assetQuery = `
        SELECT id, symbol, name, provider_slug, created_at, updated_at
        FROM tracked_assets
        WHERE symbol = $1
    `

	var asset model.TrackedAsset
	err := r.db.QueryRowContext(ctx, assetQuery, symbol).Scan(
		&asset.ID, &asset.Symbol, &asset.Name, &asset.ProviderSlug,
		&asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to find tracked asset: %w", err)
	}

	const latestQuery = `
        SELECT id, asset_id, price, market_cap, volume_24h, change_24h, quoted_at
        FROM price_history
        WHERE asset_id = $1
        ORDER BY quoted_at DESC
        LIMIT 1
    `

	var entry model.PriceHistoryEntry
	err = r.db.QueryRowContext(ctx, latestQuery, asset.ID).Scan(
		&entry.ID, &entry.AssetID, &entry.Price, &entry.MarketCap,
		&entry.Volume24h, &entry.Change24h, &entry.QuotedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return &asset, nil, nil
		}
		return nil, nil, fmt.Errorf("failed to find latest price entry: %w", err)
	}

	return &asset, &entry, nil
}

// UpsertAsset creates or updates the tracked asset row for the symbol.
// Idempotent; the symbol is the conflict key.
func (r *Repository) UpsertAsset(ctx context.Context, symbol, name, providerSlug string) (*model.TrackedAsset, error) {
	asset, err := upsertAsset(ctx, r.db.DB, symbol, name, providerSlug)
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// AppendPriceHistory inserts one price observation for the asset
func (r *Repository) AppendPriceHistory(ctx context.Context, assetID int64, listing model.Listing) error {
	return appendPriceHistory(ctx, r.db.DB, assetID, listing)
}

// SaveSnapshot persists a full universe listing in a single transaction:
// every asset is upserted and one history row appended per entry. A failure
// anywhere rolls back the whole batch.
func (r *Repository) SaveSnapshot(ctx context.Context, listings []model.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	start := time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer tx.Rollback()

	for _, listing := range listings {
		asset, err := upsertAsset(ctx, tx, listing.Symbol, listing.Name, listing.ProviderID)
		if err != nil {
			return err
		}
		if err := appendPriceHistory(ctx, tx, asset.ID, listing); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot transaction: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"records_count": len(listings),
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("Successfully persisted universe snapshot")

	return nil
}

// execer covers both *sql.DB and *sql.Tx
type execer interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func upsertAsset(ctx context.Context, db execer, symbol, name, providerSlug string) (*model.TrackedAsset, error) {
	const query = `
        INSERT INTO tracked_assets (symbol, name, provider_slug)
        VALUES ($1, $2, $3)
        ON CONFLICT (symbol) DO UPDATE SET
            name = EXCLUDED.name,
            provider_slug = EXCLUDED.provider_slug,
            updated_at = now()
        RETURNING id, symbol, name, provider_slug, created_at, updated_at
    `

	var asset model.TrackedAsset
	err := db.QueryRowContext(ctx, query, symbol, name, providerSlug).Scan(
		&asset.ID, &asset.Symbol, &asset.Name, &asset.ProviderSlug,
		&asset.CreatedAt, &asset.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert tracked asset %s: %w", symbol, err)
	}

	return &asset, nil
}

func appendPriceHistory(ctx context.Context, db execer, assetID int64, listing model.Listing) error {
	const query = `
        INSERT INTO price_history (asset_id, price, market_cap, volume_24h, change_24h, quoted_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `

	_, err := db.ExecContext(ctx, query, assetID, listing.Price, listing.MarketCap,
		listing.Volume24h, listing.Change24h, listing.LastUpdated)
	if err != nil {
		return fmt.Errorf("failed to append price history for asset %d: %w", assetID, err)
	}

	return nil
}
