package model

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Asset is a tracked piece of rig equipment.
type Asset struct {
	ID        int64               `json:"id" db:"id"`
	AssetCode string              `json:"asset_id" db:"asset_id"`
	Name      string              `json:"name" db:"name"`
	Category  string              `json:"category,omitempty" db:"category"`
	Location  string              `json:"location" db:"location"`
	Status    string              `json:"status" db:"status"`
	RigID     *int64              `json:"rig_id,omitempty" db:"rig_id"`
	CompanyID *int64              `json:"company_id,omitempty" db:"company_id"`
	ValueUSD  decimal.NullDecimal `json:"value_usd" db:"value_usd"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt time.Time           `json:"updated_at" db:"updated_at"`

	// Joined fields (not always populated).
	RigName     string `json:"rig_name,omitempty" db:"rig_name"`
	CompanyName string `json:"company_name,omitempty" db:"company_name"`
}

// Asset statuses.
const (
	AssetStatusActive      = "Active"
	AssetStatusMaintenance = "Maintenance"
	AssetStatusContracted  = "Contracted"
	AssetStatusInactive    = "Inactive"
	AssetStatusStandby     = "Standby"
)

// AssetStatuses lists the accepted asset statuses.
var AssetStatuses = []string{
	AssetStatusActive,
	AssetStatusMaintenance,
	AssetStatusContracted,
	AssetStatusInactive,
	AssetStatusStandby,
}

// ValidAssetStatus reports whether s is an accepted asset status.
func ValidAssetStatus(s string) bool { return slices.Contains(AssetStatuses, s) }

// Rig is a drilling rig assets can be assigned to.
type Rig struct {
	ID        int64     `json:"id" db:"id"`
	RigCode   string    `json:"rig_id" db:"rig_id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Company is an operator or contractor owning assets.
type Company struct {
	ID        int64     `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// HistoryEntry is one line of an asset's append-only audit trail.
type HistoryEntry struct {
	ID        int64     `json:"id" db:"id"`
	AssetID   int64     `json:"asset_id" db:"asset_id"`
	Action    string    `json:"action" db:"action"`
	ChangedBy *int64    `json:"changed_by,omitempty" db:"changed_by"`
	Notes     string    `json:"notes,omitempty" db:"notes"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// Joined fields (not always populated).
	ChangedByName string `json:"changed_by_name,omitempty" db:"changed_by_name"`
}

// History actions.
const (
	HistoryActionCreated           = "Created"
	HistoryActionTransferCompleted = "Transfer Completed"
)
