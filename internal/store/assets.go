package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/db"
	"github.com/erazemk/rigasset/internal/model"
)

const assetSelect = `
	SELECT a.id, a.asset_id, a.name, a.category, a.location, a.status,
	       a.rig_id, a.company_id, a.value_usd, a.created_at, a.updated_at,
	       COALESCE(r.name, '') AS rig_name, COALESCE(c.name, '') AS company_name
	FROM assets a
	LEFT JOIN rigs r ON r.id = a.rig_id
	LEFT JOIN companies c ON c.id = a.company_id`

// CreateAsset creates an asset and records a "Created" history entry in the
// same transaction.
func CreateAsset(ctx context.Context, database *sqlx.DB, asset model.Asset, createdBy *int64) (*model.Asset, error) {
	if asset.Status == "" {
		asset.Status = model.AssetStatusActive
	}

	var id int64
	err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertReturningID(ctx, tx,
			`INSERT INTO assets (asset_id, name, category, location, status, rig_id, company_id, value_usd)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
			asset.AssetCode, asset.Name, asset.Category, asset.Location, asset.Status,
			asset.RigID, asset.CompanyID, asset.ValueUSD,
		)
		if err != nil {
			return err
		}
		return AppendHistory(ctx, tx, id, model.HistoryActionCreated, createdBy,
			fmt.Sprintf("Asset %s registered at %s", asset.AssetCode, asset.Location))
	})
	if err != nil {
		return nil, fmt.Errorf("creating asset: %w", err)
	}

	return GetAsset(ctx, database, id)
}

// GetAsset returns an asset by ID.
func GetAsset(ctx context.Context, q Queryer, id int64) (*model.Asset, error) {
	a := &model.Asset{}
	err := get(ctx, q, a, assetSelect+` WHERE a.id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting asset: %w", err)
	}
	return a, nil
}

// FindAsset returns an asset by asset code, or by surrogate ID when no asset
// has ref as its code.
func FindAsset(ctx context.Context, q Queryer, ref string) (*model.Asset, error) {
	pred, args := refPredicate("assets", "a", "asset_id", ref)
	a := &model.Asset{}
	err := get(ctx, q, a, assetSelect+` WHERE `+pred, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding asset: %w", err)
	}
	return a, nil
}

// ListAssets returns all assets ordered by code.
func ListAssets(ctx context.Context, q Queryer) ([]model.Asset, error) {
	var assets []model.Asset
	if err := list(ctx, q, &assets, assetSelect+` ORDER BY a.asset_id`); err != nil {
		return nil, fmt.Errorf("listing assets: %w", err)
	}
	return assets, nil
}

// RelocateAsset moves an asset to a new location. The rig and company
// references only change when a new value is given.
func RelocateAsset(ctx context.Context, q Queryer, id int64, location string, rigID, companyID *int64) error {
	result, err := exec(ctx, q,
		`UPDATE assets
		 SET location = ?, rig_id = COALESCE(?, rig_id), company_id = COALESCE(?, company_id),
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		location, rigID, companyID, id,
	)
	if err != nil {
		return fmt.Errorf("relocating asset: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("relocating asset: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("relocating asset: asset %d not found", id)
	}
	return nil
}
