package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/erazemk/rigasset/internal/model"
)

const transferSelect = `
	SELECT t.id, t.transfer_id, t.asset_id, t.current_location, t.destination,
	       t.dest_rig_id, t.dest_company_id, t.priority, t.transfer_type, t.reason,
	       t.instructions, t.request_date, t.required_date, t.status, t.requested_by,
	       t.ops_approved_by, COALESCE(t.ops_action, '') AS ops_action, t.ops_date,
	       COALESCE(t.ops_comment, '') AS ops_comment,
	       t.mgr_approved_by, COALESCE(t.mgr_action, '') AS mgr_action, t.mgr_date,
	       COALESCE(t.mgr_comment, '') AS mgr_comment,
	       t.created_at, t.updated_at,
	       COALESCE(a.name, '') AS asset_name, COALESCE(a.asset_id, '') AS asset_code,
	       COALESCE(dr.name, '') AS dest_rig_name, COALESCE(dc.name, '') AS dest_company_name,
	       COALESCE(NULLIF(u.full_name, ''), u.username, '') AS requested_by_name,
	       COALESCE(NULLIF(ou.full_name, ''), ou.username, '') AS ops_approver_name,
	       COALESCE(NULLIF(mu.full_name, ''), mu.username, '') AS mgr_approver_name
	FROM transfers t
	LEFT JOIN assets    a  ON a.id  = t.asset_id
	LEFT JOIN rigs      dr ON dr.id = t.dest_rig_id
	LEFT JOIN companies dc ON dc.id = t.dest_company_id
	LEFT JOIN users     u  ON u.id  = t.requested_by
	LEFT JOIN users     ou ON ou.id = t.ops_approved_by
	LEFT JOIN users     mu ON mu.id = t.mgr_approved_by`

// InsertTransfer stores a new transfer and returns its surrogate ID. A
// transfer_id that is already taken yields ErrDuplicate.
func InsertTransfer(ctx context.Context, q Queryer, t *model.Transfer) (int64, error) {
	id, err := insertReturningID(ctx, q,
		`INSERT INTO transfers
		   (transfer_id, asset_id, current_location, destination, dest_rig_id, dest_company_id,
		    priority, transfer_type, reason, instructions, requested_by, request_date, required_date, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		t.TransferID, t.AssetID, t.CurrentLocation, t.Destination, t.DestRigID, t.DestCompanyID,
		t.Priority, t.TransferType, t.Reason, t.Instructions, t.RequestedBy, t.RequestDate, t.RequiredDate,
		model.TransferStatusPending,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting transfer: %w", err)
	}
	return id, nil
}

// GetTransfer returns a transfer by transfer_id, or by surrogate ID when no
// transfer has ref as its transfer_id.
func GetTransfer(ctx context.Context, q Queryer, ref string) (*model.Transfer, error) {
	pred, args := refPredicate("transfers", "t", "transfer_id", ref)
	return getTransferWhere(ctx, q, pred, args...)
}

// GetTransferByID returns a transfer by surrogate ID.
func GetTransferByID(ctx context.Context, q Queryer, id int64) (*model.Transfer, error) {
	return getTransferWhere(ctx, q, "t.id = ?", id)
}

func getTransferWhere(ctx context.Context, q Queryer, pred string, args ...any) (*model.Transfer, error) {
	t := &model.Transfer{}
	err := get(ctx, q, t, transferSelect+` WHERE `+pred, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// transferPredicates turns a filter into a fixed set of parameterized
// predicates joined with AND.
func transferPredicates(f model.TransferFilter) (string, []any) {
	var conds []string
	var args []any

	if f.Status != "" {
		conds = append(conds, "t.status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		conds = append(conds, "t.priority = ?")
		args = append(args, f.Priority)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		conds = append(conds, "(LOWER(t.transfer_id) LIKE ? OR LOWER(COALESCE(a.name, '')) LIKE ?)")
		args = append(args, like, like)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListTransfers returns one page of transfers matching the filter, newest
// request first, together with the total number of matches.
func ListTransfers(ctx context.Context, q Queryer, f model.TransferFilter) ([]model.Transfer, int, error) {
	f = f.Normalize()
	where, args := transferPredicates(f)

	var total int
	err := get(ctx, q, &total,
		`SELECT COUNT(*) FROM transfers t LEFT JOIN assets a ON a.id = t.asset_id`+where, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("counting transfers: %w", err)
	}

	var transfers []model.Transfer
	err = list(ctx, q, &transfers,
		transferSelect+where+` ORDER BY t.request_date DESC, t.id DESC LIMIT ? OFFSET ?`,
		append(args, f.Limit, f.Offset())...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("listing transfers: %w", err)
	}
	return transfers, total, nil
}

const opsDecisionUpdate = `
	UPDATE transfers
	SET ops_approved_by = ?, ops_action = ?, ops_date = ?, ops_comment = ?, status = ?,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND status = ?`

const mgrDecisionUpdate = `
	UPDATE transfers
	SET mgr_approved_by = ?, mgr_action = ?, mgr_date = ?, mgr_comment = ?, status = ?,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND status = ?`

// ApplyDecision records a stage decision, but only while the transfer still
// has the expected status. It reports whether a row was updated; false means
// the transfer is gone or another decision got there first.
func ApplyDecision(ctx context.Context, q Queryer, id int64, expectedStatus string, d model.StageDecision) (bool, error) {
	var query string
	switch d.Stage {
	case model.StageOps:
		query = opsDecisionUpdate
	case model.StageManager:
		query = mgrDecisionUpdate
	default:
		return false, fmt.Errorf("applying decision: unknown stage %q", d.Stage)
	}

	result, err := exec(ctx, q, query,
		d.ActorID, d.Action, d.Date.UTC(), d.Comment, d.NewStatus, id, expectedStatus)
	if err != nil {
		return false, fmt.Errorf("applying %s decision: %w", d.Stage, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("applying %s decision: %w", d.Stage, err)
	}
	return n == 1, nil
}

// CancelTransfer deletes a transfer that is still Pending or On Hold and
// returns its transfer_id. It reports false when nothing matched, without
// distinguishing a missing transfer from one in a non-cancellable status.
func CancelTransfer(ctx context.Context, q Queryer, ref string) (string, bool, error) {
	pred, args := refPredicate("transfers", "transfers", "transfer_id", ref)
	args = append(args, model.TransferStatusPending, model.TransferStatusOnHold)

	var transferID string
	err := q.QueryRowxContext(ctx, q.Rebind(
		`DELETE FROM transfers WHERE `+pred+` AND status IN (?, ?) RETURNING transfer_id`), args...,
	).Scan(&transferID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cancelling transfer: %w", err)
	}
	return transferID, true, nil
}
