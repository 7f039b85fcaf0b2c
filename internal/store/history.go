package store

import (
	"context"
	"fmt"

	"github.com/erazemk/rigasset/internal/model"
)

// AppendHistory adds an entry to an asset's audit trail.
func AppendHistory(ctx context.Context, q Queryer, assetID int64, action string, changedBy *int64, notes string) error {
	_, err := exec(ctx, q,
		`INSERT INTO asset_history (asset_id, action, changed_by, notes) VALUES (?, ?, ?, ?)`,
		assetID, action, changedBy, notes,
	)
	if err != nil {
		return fmt.Errorf("appending asset history: %w", err)
	}
	return nil
}

// ListAssetHistory returns an asset's audit trail, newest first.
func ListAssetHistory(ctx context.Context, q Queryer, assetID int64) ([]model.HistoryEntry, error) {
	var entries []model.HistoryEntry
	err := list(ctx, q, &entries,
		`SELECT h.id, h.asset_id, h.action, h.changed_by, h.notes, h.created_at,
		        COALESCE(NULLIF(u.full_name, ''), u.username, '') AS changed_by_name
		 FROM asset_history h
		 LEFT JOIN users u ON u.id = h.changed_by
		 WHERE h.asset_id = ?
		 ORDER BY h.created_at DESC, h.id DESC`, assetID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing asset history: %w", err)
	}
	return entries, nil
}
