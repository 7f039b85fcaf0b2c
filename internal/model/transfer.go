package model

import (
	"slices"
	"time"
)

// Transfer is a request to move an asset to a new location, rig or company.
// It passes an operations stage and a manager stage before it completes.
type Transfer struct {
	ID              int64      `json:"id" db:"id"`
	TransferID      string     `json:"transfer_id" db:"transfer_id"`
	AssetID         int64      `json:"asset_id" db:"asset_id"`
	CurrentLocation string     `json:"current_location" db:"current_location"`
	Destination     string     `json:"destination" db:"destination"`
	DestRigID       *int64     `json:"dest_rig_id,omitempty" db:"dest_rig_id"`
	DestCompanyID   *int64     `json:"dest_company_id,omitempty" db:"dest_company_id"`
	Priority        string     `json:"priority" db:"priority"`
	TransferType    string     `json:"transfer_type" db:"transfer_type"`
	Reason          string     `json:"reason" db:"reason"`
	Instructions    string     `json:"instructions,omitempty" db:"instructions"`
	RequestDate     time.Time  `json:"request_date" db:"request_date"`
	RequiredDate    *time.Time `json:"required_date,omitempty" db:"required_date"`
	Status          string     `json:"status" db:"status"`
	RequestedBy     *int64     `json:"requested_by,omitempty" db:"requested_by"`

	OpsApprovedBy *int64     `json:"ops_approved_by,omitempty" db:"ops_approved_by"`
	OpsAction     string     `json:"ops_action,omitempty" db:"ops_action"`
	OpsDate       *time.Time `json:"ops_date,omitempty" db:"ops_date"`
	OpsComment    string     `json:"ops_comment,omitempty" db:"ops_comment"`

	MgrApprovedBy *int64     `json:"mgr_approved_by,omitempty" db:"mgr_approved_by"`
	MgrAction     string     `json:"mgr_action,omitempty" db:"mgr_action"`
	MgrDate       *time.Time `json:"mgr_date,omitempty" db:"mgr_date"`
	MgrComment    string     `json:"mgr_comment,omitempty" db:"mgr_comment"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// Joined fields (not always populated).
	AssetName       string `json:"asset_name,omitempty" db:"asset_name"`
	AssetCode       string `json:"asset_code,omitempty" db:"asset_code"`
	DestRigName     string `json:"dest_rig_name,omitempty" db:"dest_rig_name"`
	DestCompanyName string `json:"dest_company_name,omitempty" db:"dest_company_name"`
	RequestedByName string `json:"requested_by_name,omitempty" db:"requested_by_name"`
	OpsApproverName string `json:"ops_approver_name,omitempty" db:"ops_approver_name"`
	MgrApproverName string `json:"mgr_approver_name,omitempty" db:"mgr_approver_name"`
}

// Transfer statuses.
const (
	TransferStatusPending     = "Pending"
	TransferStatusOpsApproved = "Ops Approved"
	TransferStatusRejected    = "Rejected"
	TransferStatusOnHold      = "On Hold"
	TransferStatusCompleted   = "Completed"
)

// TransferStatuses lists every status a transfer can take.
var TransferStatuses = []string{
	TransferStatusPending,
	TransferStatusOpsApproved,
	TransferStatusRejected,
	TransferStatusOnHold,
	TransferStatusCompleted,
}

// CancellableStatuses are the statuses in which a transfer may be deleted.
var CancellableStatuses = []string{TransferStatusPending, TransferStatusOnHold}

// Transfer priorities.
const (
	PriorityCritical = "Critical"
	PriorityHigh     = "High"
	PriorityNormal   = "Normal"
	PriorityLow      = "Low"
)

// Priorities lists the accepted priorities.
var Priorities = []string{PriorityCritical, PriorityHigh, PriorityNormal, PriorityLow}

// DefaultTransferType is used when a request does not name one.
const DefaultTransferType = "Field to Field"

// Decision actions recorded by either approval stage.
const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionHold    = "hold"
)

// Actions lists the accepted decision actions.
var Actions = []string{ActionApprove, ActionReject, ActionHold}

// ValidPriority reports whether p is an accepted priority.
func ValidPriority(p string) bool { return slices.Contains(Priorities, p) }

// ValidAction reports whether a is an accepted decision action.
func ValidAction(a string) bool { return slices.Contains(Actions, a) }

// ValidTransferStatus reports whether s is a known transfer status.
func ValidTransferStatus(s string) bool { return slices.Contains(TransferStatuses, s) }

// IsTerminal reports whether no further stage transition is possible.
func (t *Transfer) IsTerminal() bool {
	return t.Status == TransferStatusCompleted || t.Status == TransferStatusRejected
}

// IsCancellable reports whether the transfer may still be deleted.
func (t *Transfer) IsCancellable() bool {
	return slices.Contains(CancellableStatuses, t.Status)
}

// TransferFilter selects transfers for listing.
type TransferFilter struct {
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
}

// Listing defaults.
const (
	DefaultPageLimit = 50
	MaxPageLimit     = 500
)

// Normalize fills in paging defaults and clamps the limit.
func (f TransferFilter) Normalize() TransferFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageLimit
	}
	if f.Limit > MaxPageLimit {
		f.Limit = MaxPageLimit
	}
	return f
}

// Offset returns the row offset of the filter's page.
func (f TransferFilter) Offset() int {
	f = f.Normalize()
	return (f.Page - 1) * f.Limit
}

// Approval stages.
const (
	StageOps     = "ops"
	StageManager = "mgr"
)

// StageDecision is the set of fields one approval stage writes to a transfer.
type StageDecision struct {
	Stage     string
	ActorID   int64
	Action    string
	Comment   string
	Date      time.Time
	NewStatus string
}
