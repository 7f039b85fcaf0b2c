package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/erazemk/rigasset/internal/model"
)

// Actor is the authenticated caller of an engine operation.
type Actor struct {
	ID       int64
	Username string
	Role     string
}

// stageRule describes one approval gate.
type stageRule struct {
	roles    []string
	requires string
	outcomes map[string]string
}

var stageRules = map[string]stageRule{
	model.StageOps: {
		roles:    []string{model.RoleAdmin, model.RoleOperationsManager},
		requires: model.TransferStatusPending,
		outcomes: map[string]string{
			model.ActionApprove: model.TransferStatusOpsApproved,
			model.ActionReject:  model.TransferStatusRejected,
			model.ActionHold:    model.TransferStatusOnHold,
		},
	},
	model.StageManager: {
		roles:    []string{model.RoleAdmin, model.RoleAssetManager},
		requires: model.TransferStatusOpsApproved,
		outcomes: map[string]string{
			model.ActionApprove: model.TransferStatusCompleted,
			model.ActionReject:  model.TransferStatusRejected,
			model.ActionHold:    model.TransferStatusOnHold,
		},
	},
}

// Recipients of best-effort notifications.
var (
	submitRecipients      = []string{model.RoleOperationsManager}
	opsApprovedRecipients = []string{model.RoleAdmin, model.RoleAssetManager}
)

// Effect is a write a decision asks the engine to carry out.
type Effect interface {
	effect()
}

// NotifyRoles addresses a notification to every user holding one of Roles.
type NotifyRoles struct {
	Roles   []string
	Payload model.NotificationPayload
}

// RelocateAsset moves the transfer's asset to its planned destination.
type RelocateAsset struct {
	AssetID   int64
	Location  string
	RigID     *int64
	CompanyID *int64
}

// AppendHistory writes an entry to the asset's audit trail.
type AppendHistory struct {
	AssetID int64
	Action  string
	ActorID int64
	Note    string
}

// Broadcast writes a notification visible to every user.
type Broadcast struct {
	Payload model.NotificationPayload
}

func (NotifyRoles) effect()   {}
func (RelocateAsset) effect() {}
func (AppendHistory) effect() {}
func (Broadcast) effect()     {}

// Decision is the outcome of a stage decision on a transfer.
type Decision struct {
	TransferID int64
	From       string
	Update     model.StageDecision
	Effects    []Effect

	// Atomic is set when the status update and every effect must commit
	// together. Otherwise effects are best effort.
	Atomic bool
}

// Authorize checks that actor may decide at the given stage.
func Authorize(stage string, actor Actor) error {
	rule, ok := stageRules[stage]
	if !ok {
		return invalidInput("stage", "unknown stage %q", stage)
	}
	if !model.HasRole(actor.Role, rule.roles...) {
		return forbidden(rule.roles)
	}
	return nil
}

// ValidateDecisionInput checks the action and comment of a stage decision.
func ValidateDecisionInput(action, comment string) error {
	if !model.ValidAction(action) {
		return invalidInput("action", "action must be approve, reject, or hold")
	}
	if strings.TrimSpace(comment) == "" {
		return invalidInput("comment", "comment required")
	}
	return nil
}

// Decide computes the result of actor taking action on t at the given
// stage. It has no side effects: the returned Decision lists the writes to
// perform. Guards run in order: authorization, input, existence, status.
func Decide(t *model.Transfer, actor Actor, stage, action, comment string, now time.Time) (*Decision, error) {
	if err := Authorize(stage, actor); err != nil {
		return nil, err
	}
	if err := ValidateDecisionInput(action, comment); err != nil {
		return nil, err
	}
	if t == nil {
		return nil, notFound("transfer not found")
	}

	rule := stageRules[stage]
	if t.Status != rule.requires {
		return nil, statusConflict(stage, t.Status)
	}

	d := &Decision{
		TransferID: t.ID,
		From:       t.Status,
		Update: model.StageDecision{
			Stage:     stage,
			ActorID:   actor.ID,
			Action:    action,
			Comment:   strings.TrimSpace(comment),
			Date:      now,
			NewStatus: rule.outcomes[action],
		},
	}

	if action != model.ActionApprove {
		return d, nil
	}

	switch stage {
	case model.StageOps:
		d.Effects = []Effect{NotifyRoles{
			Roles: opsApprovedRecipients,
			Payload: model.NotificationPayload{
				Type:        model.NotificationInfo,
				Icon:        "user-tie",
				Title:       "Transfer Awaiting Final Approval",
				Description: fmt.Sprintf("Transfer %s approved by Ops - needs final decision", t.TransferID),
				EntityType:  model.EntityTransfer,
				EntityID:    t.ID,
			},
		}}
	case model.StageManager:
		d.Atomic = true
		d.Effects = []Effect{
			RelocateAsset{
				AssetID:   t.AssetID,
				Location:  t.Destination,
				RigID:     t.DestRigID,
				CompanyID: t.DestCompanyID,
			},
			AppendHistory{
				AssetID: t.AssetID,
				Action:  model.HistoryActionTransferCompleted,
				ActorID: actor.ID,
				Note:    fmt.Sprintf("Transferred to %s via %s", t.Destination, t.TransferID),
			},
			Broadcast{Payload: model.NotificationPayload{
				Type:        model.NotificationSuccess,
				Icon:        "check-double",
				Title:       "Transfer Completed",
				Description: fmt.Sprintf("Transfer %s fully approved - asset relocated", t.TransferID),
				EntityType:  model.EntityTransfer,
				EntityID:    t.ID,
			}},
		}
	}
	return d, nil
}

// submissionNotice is sent to operations managers when a transfer is created.
func submissionNotice(t *model.Transfer) NotifyRoles {
	return NotifyRoles{
		Roles: submitRecipients,
		Payload: model.NotificationPayload{
			Type:        model.NotificationInfo,
			Icon:        "exchange-alt",
			Title:       "New Transfer Request",
			Description: fmt.Sprintf("Transfer %s submitted for your review", t.TransferID),
			EntityType:  model.EntityTransfer,
			EntityID:    t.ID,
		},
	}
}

func statusConflict(stage, actual string) *Error {
	if stage == model.StageManager {
		return conflict(actual, "transfer must be %s first (currently: %s)", model.TransferStatusOpsApproved, actual)
	}
	return conflict(actual, "transfer is already %s", actual)
}
