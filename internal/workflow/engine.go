package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/erazemk/rigasset/internal/metrics"
	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// errStale aborts a transaction whose conditional status update matched no row.
var errStale = errors.New("transfer status changed")

// Engine runs the transfer approval workflow.
type Engine struct {
	store TxStore
	now   func() time.Time
}

// NewEngine returns an Engine that persists through s.
func NewEngine(s TxStore) *Engine {
	return &Engine{store: s, now: time.Now}
}

// SubmitRequest holds the caller-supplied fields of a new transfer.
type SubmitRequest struct {
	TransferID    string     `json:"transfer_id"`
	AssetRef      string     `json:"asset_id"`
	Destination   string     `json:"destination"`
	DestRigID     *int64     `json:"dest_rig_id,omitempty"`
	DestCompanyID *int64     `json:"dest_company_id,omitempty"`
	Priority      string     `json:"priority"`
	TransferType  string     `json:"transfer_type,omitempty"`
	Reason        string     `json:"reason"`
	Instructions  string     `json:"instructions,omitempty"`
	RequestDate   *time.Time `json:"request_date,omitempty"`
	RequiredDate  *time.Time `json:"required_date,omitempty"`
}

func (r SubmitRequest) validate() error {
	switch {
	case strings.TrimSpace(r.TransferID) == "":
		return invalidInput("transfer_id", "transfer_id is required")
	case strings.TrimSpace(r.AssetRef) == "":
		return invalidInput("asset_id", "asset_id is required")
	case strings.TrimSpace(r.Destination) == "":
		return invalidInput("destination", "destination is required")
	case strings.TrimSpace(r.Reason) == "":
		return invalidInput("reason", "reason is required")
	case !model.ValidPriority(r.Priority):
		return invalidInput("priority", "priority must be one of %s", strings.Join(model.Priorities, ", "))
	}
	return nil
}

// Submit creates a Pending transfer and notifies operations managers.
func (e *Engine) Submit(ctx context.Context, actor Actor, req SubmitRequest) (*model.Transfer, error) {
	if !model.CanWrite(actor.Role) {
		return nil, e.guardFailure("submit", forbidden(model.WriteRoles))
	}
	if err := req.validate(); err != nil {
		return nil, e.guardFailure("submit", err)
	}

	asset, err := e.store.FindAsset(ctx, strings.TrimSpace(req.AssetRef))
	if err != nil {
		return nil, infrastructure("failed to look up asset", err)
	}
	if asset == nil {
		return nil, e.guardFailure("submit", notFound("asset not found"))
	}
	if err := e.checkDestination(ctx, req); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	t := &model.Transfer{
		TransferID:      strings.TrimSpace(req.TransferID),
		AssetID:         asset.ID,
		CurrentLocation: asset.Location,
		Destination:     strings.TrimSpace(req.Destination),
		DestRigID:       req.DestRigID,
		DestCompanyID:   req.DestCompanyID,
		Priority:        req.Priority,
		TransferType:    strings.TrimSpace(req.TransferType),
		Reason:          strings.TrimSpace(req.Reason),
		Instructions:    req.Instructions,
		RequestDate:     time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		RequiredDate:    req.RequiredDate,
		Status:          model.TransferStatusPending,
		RequestedBy:     &actor.ID,
	}
	if t.TransferType == "" {
		t.TransferType = model.DefaultTransferType
	}
	if req.RequestDate != nil {
		t.RequestDate = *req.RequestDate
	}

	id, err := e.store.InsertTransfer(ctx, t)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, e.guardFailure("submit", conflict("", "transfer id %s already exists", t.TransferID))
	}
	if errors.Is(err, store.ErrInvalidReference) {
		return nil, e.guardFailure("submit", invalidInput("", "referenced record not found"))
	}
	if err != nil {
		return nil, infrastructure("failed to create transfer", err)
	}
	t.ID = id

	slog.Info("transfer submitted", "transfer", t.TransferID, "asset", asset.AssetCode, "by", actor.Username)
	metrics.RecordTransition("submit", model.TransferStatusPending)
	e.bestEffort(ctx, "submit", []Effect{submissionNotice(t)})

	if saved, err := e.store.GetTransferByID(ctx, id); err == nil && saved != nil {
		return saved, nil
	}
	return t, nil
}

// checkDestination rejects a destination rig or company that does not exist.
func (e *Engine) checkDestination(ctx context.Context, req SubmitRequest) error {
	if req.DestRigID != nil {
		rig, err := e.store.GetRig(ctx, *req.DestRigID)
		if err != nil {
			return infrastructure("failed to look up rig", err)
		}
		if rig == nil {
			return e.guardFailure("submit", invalidInput("dest_rig_id", "destination rig not found"))
		}
	}
	if req.DestCompanyID != nil {
		company, err := e.store.GetCompany(ctx, *req.DestCompanyID)
		if err != nil {
			return infrastructure("failed to look up company", err)
		}
		if company == nil {
			return e.guardFailure("submit", invalidInput("dest_company_id", "destination company not found"))
		}
	}
	return nil
}

// Get returns a transfer by surrogate ID or transfer_id.
func (e *Engine) Get(ctx context.Context, ref string) (*model.Transfer, error) {
	t, err := e.store.GetTransfer(ctx, ref)
	if err != nil {
		return nil, infrastructure("failed to load transfer", err)
	}
	if t == nil {
		return nil, notFound("transfer not found")
	}
	return t, nil
}

// List returns one page of transfers and the total number of matches.
func (e *Engine) List(ctx context.Context, f model.TransferFilter) ([]model.Transfer, int, error) {
	if f.Status != "" && !model.ValidTransferStatus(f.Status) {
		return nil, 0, invalidInput("status", "unknown status %q", f.Status)
	}
	if f.Priority != "" && !model.ValidPriority(f.Priority) {
		return nil, 0, invalidInput("priority", "unknown priority %q", f.Priority)
	}

	transfers, total, err := e.store.ListTransfers(ctx, f)
	if err != nil {
		return nil, 0, infrastructure("failed to list transfers", err)
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	return transfers, total, nil
}

// DecideOps records the operations stage decision on a Pending transfer.
func (e *Engine) DecideOps(ctx context.Context, actor Actor, ref, action, comment string) (*model.Transfer, error) {
	return e.decide(ctx, actor, model.StageOps, ref, action, comment)
}

// DecideManager records the manager stage decision on an Ops Approved
// transfer. Approval completes the transfer and relocates its asset in one
// transaction.
func (e *Engine) DecideManager(ctx context.Context, actor Actor, ref, action, comment string) (*model.Transfer, error) {
	return e.decide(ctx, actor, model.StageManager, ref, action, comment)
}

func (e *Engine) decide(ctx context.Context, actor Actor, stage, ref, action, comment string) (*model.Transfer, error) {
	op := "decide_" + stage

	// Role and input guards come before the lookup.
	if err := Authorize(stage, actor); err != nil {
		return nil, e.guardFailure(op, err)
	}
	if err := ValidateDecisionInput(action, comment); err != nil {
		return nil, e.guardFailure(op, err)
	}

	t, err := e.store.GetTransfer(ctx, ref)
	if err != nil {
		return nil, infrastructure("failed to load transfer", err)
	}

	d, err := Decide(t, actor, stage, action, comment, e.now().UTC())
	if err != nil {
		return nil, e.guardFailure(op, err)
	}

	if d.Atomic {
		err = e.commit(ctx, t, d)
	} else {
		err = e.apply(ctx, t, d)
	}
	if err != nil {
		return nil, err
	}

	slog.Info("transfer decision recorded",
		"transfer", t.TransferID, "stage", stage, "action", action,
		"from", d.From, "to", d.Update.NewStatus, "by", actor.Username)
	metrics.RecordTransition(stage, d.Update.NewStatus)

	updated, err := e.store.GetTransferByID(ctx, t.ID)
	if err != nil || updated == nil {
		// The decision is stored; fall back to what we know.
		t.Status = d.Update.NewStatus
		return t, nil
	}
	return updated, nil
}

// apply stores a non-atomic decision and then runs its effects best effort.
func (e *Engine) apply(ctx context.Context, t *model.Transfer, d *Decision) error {
	ok, err := e.store.ApplyDecision(ctx, t.ID, d.From, d.Update)
	if err != nil {
		return infrastructure("failed to record decision", err)
	}
	if !ok {
		return e.guardFailure("decide_"+d.Update.Stage, e.staleError(ctx, t.ID, d.Update.Stage))
	}
	e.bestEffort(ctx, "decide_"+d.Update.Stage, d.Effects)
	return nil
}

// commit stores the decision and every effect in one transaction. On any
// failure nothing is kept and the transfer retains its previous status.
func (e *Engine) commit(ctx context.Context, t *model.Transfer, d *Decision) error {
	start := time.Now()
	err := e.store.WithinTx(ctx, func(tx Store) error {
		ok, err := tx.ApplyDecision(ctx, t.ID, d.From, d.Update)
		if err != nil {
			return err
		}
		if !ok {
			return errStale
		}
		for _, eff := range d.Effects {
			if err := applyEffect(ctx, tx, eff); err != nil {
				return err
			}
		}
		return nil
	})
	metrics.RecordCommit(err == nil, time.Since(start))

	if errors.Is(err, errStale) {
		return e.guardFailure("decide_"+d.Update.Stage, e.staleError(ctx, t.ID, d.Update.Stage))
	}
	if err != nil {
		slog.Error("transfer completion rolled back", "transfer", t.TransferID, "error", err)
		return infrastructure("failed to complete transfer", err)
	}
	return nil
}

// staleError re-reads a transfer whose conditional update lost a race.
func (e *Engine) staleError(ctx context.Context, id int64, stage string) error {
	current, err := e.store.GetTransferByID(ctx, id)
	if err != nil {
		return infrastructure("failed to load transfer", err)
	}
	if current == nil {
		return notFound("transfer not found")
	}
	return statusConflict(stage, current.Status)
}

// Cancel deletes a Pending or On Hold transfer and returns its transfer_id.
func (e *Engine) Cancel(ctx context.Context, actor Actor, ref string) (string, error) {
	if !model.CanWrite(actor.Role) {
		return "", e.guardFailure("cancel", forbidden(model.WriteRoles))
	}

	transferID, ok, err := e.store.CancelTransfer(ctx, ref)
	if err != nil {
		return "", infrastructure("failed to cancel transfer", err)
	}
	if !ok {
		return "", e.guardFailure("cancel", notFound("transfer not found or not cancellable"))
	}

	slog.Info("transfer cancelled", "transfer", transferID, "by", actor.Username)
	return transferID, nil
}

// bestEffort runs effects outside any transaction. Failures are logged and
// never reach the caller.
func (e *Engine) bestEffort(ctx context.Context, event string, effects []Effect) {
	for _, eff := range effects {
		if err := applyEffect(ctx, e.store, eff); err != nil {
			slog.Warn("notification failed", "event", event, "error", err)
			metrics.RecordNotificationFailure(event)
		}
	}
}

func (e *Engine) guardFailure(op string, err error) error {
	if k := KindOf(err); k != 0 {
		metrics.RecordGuardFailure(op, k.String())
	}
	return err
}

func applyEffect(ctx context.Context, s Store, eff Effect) error {
	switch eff := eff.(type) {
	case NotifyRoles:
		_, err := s.NotifyRoles(ctx, eff.Roles, eff.Payload)
		return err
	case Broadcast:
		return s.NotifyAll(ctx, eff.Payload)
	case RelocateAsset:
		return s.RelocateAsset(ctx, eff.AssetID, eff.Location, eff.RigID, eff.CompanyID)
	case AppendHistory:
		return s.AppendHistory(ctx, eff.AssetID, eff.Action, eff.ActorID, eff.Note)
	default:
		return fmt.Errorf("unknown effect %T", eff)
	}
}
