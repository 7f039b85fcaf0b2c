package workflow

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strconv"

	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// memStore is an in-memory TxStore. Setting a key in fail makes the method
// of that name return the error.
type memStore struct {
	users         map[int64]string // id -> role
	assets        map[int64]model.Asset
	rigs          map[int64]model.Rig
	companies     map[int64]model.Company
	transfers     map[int64]model.Transfer
	history       []model.HistoryEntry
	notifications []model.Notification
	nextID        int64

	fail map[string]error
	// beforeApply runs before ApplyDecision, to simulate a concurrent writer.
	beforeApply func(m *memStore)
}

func newMemStore() *memStore {
	return &memStore{
		users:     map[int64]string{},
		assets:    map[int64]model.Asset{},
		rigs:      map[int64]model.Rig{},
		companies: map[int64]model.Company{},
		transfers: map[int64]model.Transfer{},
		fail:      map[string]error{},
		nextID:    100,
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) addAsset(code, location string) model.Asset {
	a := model.Asset{ID: m.id(), AssetCode: code, Name: code, Location: location}
	m.assets[a.ID] = a
	return a
}

func (m *memStore) addRig(code, name string) model.Rig {
	r := model.Rig{ID: m.id(), RigCode: code, Name: name}
	m.rigs[r.ID] = r
	return r
}

func (m *memStore) clone() *memStore {
	c := *m
	c.assets = maps.Clone(m.assets)
	c.transfers = maps.Clone(m.transfers)
	c.history = slices.Clone(m.history)
	c.notifications = slices.Clone(m.notifications)
	return &c
}

func (m *memStore) restore(from *memStore) {
	m.assets = from.assets
	m.transfers = from.transfers
	m.history = from.history
	m.notifications = from.notifications
	m.nextID = from.nextID
}

func (m *memStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	if err := m.fail["WithinTx"]; err != nil {
		return err
	}
	tx := m.clone()
	if err := fn(tx); err != nil {
		return err
	}
	m.restore(tx)
	return nil
}

func (m *memStore) FindAsset(ctx context.Context, ref string) (*model.Asset, error) {
	if err := m.fail["FindAsset"]; err != nil {
		return nil, err
	}
	for _, a := range m.assets {
		if a.AssetCode == ref || strconv.FormatInt(a.ID, 10) == ref {
			return &a, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetRig(ctx context.Context, id int64) (*model.Rig, error) {
	if err := m.fail["GetRig"]; err != nil {
		return nil, err
	}
	if r, ok := m.rigs[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	if err := m.fail["GetCompany"]; err != nil {
		return nil, err
	}
	if c, ok := m.companies[id]; ok {
		return &c, nil
	}
	return nil, nil
}

func (m *memStore) RelocateAsset(ctx context.Context, id int64, location string, rigID, companyID *int64) error {
	if err := m.fail["RelocateAsset"]; err != nil {
		return err
	}
	a, ok := m.assets[id]
	if !ok {
		return errors.New("asset not found")
	}
	a.Location = location
	if rigID != nil {
		a.RigID = rigID
	}
	if companyID != nil {
		a.CompanyID = companyID
	}
	m.assets[id] = a
	return nil
}

func (m *memStore) AppendHistory(ctx context.Context, assetID int64, action string, actorID int64, note string) error {
	if err := m.fail["AppendHistory"]; err != nil {
		return err
	}
	m.history = append(m.history, model.HistoryEntry{
		ID: m.id(), AssetID: assetID, Action: action, ChangedBy: &actorID, Notes: note,
	})
	return nil
}

func (m *memStore) NotifyRoles(ctx context.Context, roles []string, p model.NotificationPayload) (int64, error) {
	if err := m.fail["NotifyRoles"]; err != nil {
		return 0, err
	}
	var n int64
	for _, uid := range slices.Sorted(maps.Keys(m.users)) {
		if !slices.Contains(roles, m.users[uid]) {
			continue
		}
		m.notifications = append(m.notifications, notificationFor(m.id(), &uid, p))
		n++
	}
	return n, nil
}

func (m *memStore) NotifyAll(ctx context.Context, p model.NotificationPayload) error {
	if err := m.fail["NotifyAll"]; err != nil {
		return err
	}
	m.notifications = append(m.notifications, notificationFor(m.id(), nil, p))
	return nil
}

func notificationFor(id int64, userID *int64, p model.NotificationPayload) model.Notification {
	return model.Notification{
		ID: id, UserID: userID, Type: p.Type, Icon: p.Icon, Title: p.Title,
		Description: p.Description, EntityType: p.EntityType, EntityID: &p.EntityID,
	}
}

func (m *memStore) InsertTransfer(ctx context.Context, t *model.Transfer) (int64, error) {
	if err := m.fail["InsertTransfer"]; err != nil {
		return 0, err
	}
	for _, existing := range m.transfers {
		if existing.TransferID == t.TransferID {
			return 0, store.ErrDuplicate
		}
	}
	saved := *t
	saved.ID = m.id()
	saved.Status = model.TransferStatusPending
	m.transfers[saved.ID] = saved
	return saved.ID, nil
}

func (m *memStore) GetTransfer(ctx context.Context, ref string) (*model.Transfer, error) {
	if err := m.fail["GetTransfer"]; err != nil {
		return nil, err
	}
	for _, t := range m.transfers {
		if t.TransferID == ref {
			return &t, nil
		}
	}
	for _, t := range m.transfers {
		if strconv.FormatInt(t.ID, 10) == ref {
			return &t, nil
		}
	}
	return nil, nil
}

func (m *memStore) GetTransferByID(ctx context.Context, id int64) (*model.Transfer, error) {
	t, ok := m.transfers[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *memStore) ListTransfers(ctx context.Context, f model.TransferFilter) ([]model.Transfer, int, error) {
	if err := m.fail["ListTransfers"]; err != nil {
		return nil, 0, err
	}
	var out []model.Transfer
	for _, id := range slices.Sorted(maps.Keys(m.transfers)) {
		t := m.transfers[id]
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}
	return out, len(out), nil
}

func (m *memStore) ApplyDecision(ctx context.Context, id int64, expected string, d model.StageDecision) (bool, error) {
	if m.beforeApply != nil {
		m.beforeApply(m)
	}
	if err := m.fail["ApplyDecision"]; err != nil {
		return false, err
	}
	t, ok := m.transfers[id]
	if !ok || t.Status != expected {
		return false, nil
	}
	date := d.Date
	actor := d.ActorID
	switch d.Stage {
	case model.StageOps:
		t.OpsApprovedBy, t.OpsAction, t.OpsDate, t.OpsComment = &actor, d.Action, &date, d.Comment
	case model.StageManager:
		t.MgrApprovedBy, t.MgrAction, t.MgrDate, t.MgrComment = &actor, d.Action, &date, d.Comment
	}
	t.Status = d.NewStatus
	m.transfers[id] = t
	return true, nil
}

func (m *memStore) CancelTransfer(ctx context.Context, ref string) (string, bool, error) {
	if err := m.fail["CancelTransfer"]; err != nil {
		return "", false, err
	}
	t, _ := m.GetTransfer(ctx, ref)
	if t == nil || !t.IsCancellable() {
		return "", false, nil
	}
	delete(m.transfers, t.ID)
	return t.TransferID, true, nil
}
