package workflow

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/db"
	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// Store is the persistence the engine needs. Missing rows are reported as
// (nil, nil).
type Store interface {
	FindAsset(ctx context.Context, ref string) (*model.Asset, error)
	RelocateAsset(ctx context.Context, id int64, location string, rigID, companyID *int64) error
	GetRig(ctx context.Context, id int64) (*model.Rig, error)
	GetCompany(ctx context.Context, id int64) (*model.Company, error)
	AppendHistory(ctx context.Context, assetID int64, action string, actorID int64, note string) error

	NotifyRoles(ctx context.Context, roles []string, p model.NotificationPayload) (int64, error)
	NotifyAll(ctx context.Context, p model.NotificationPayload) error

	InsertTransfer(ctx context.Context, t *model.Transfer) (int64, error)
	GetTransfer(ctx context.Context, ref string) (*model.Transfer, error)
	GetTransferByID(ctx context.Context, id int64) (*model.Transfer, error)
	ListTransfers(ctx context.Context, f model.TransferFilter) ([]model.Transfer, int, error)
	ApplyDecision(ctx context.Context, id int64, expectedStatus string, d model.StageDecision) (bool, error)
	CancelTransfer(ctx context.Context, ref string) (string, bool, error)
}

// TxStore is a Store that can run a group of writes as one unit.
type TxStore interface {
	Store

	// WithinTx runs fn against a Store bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	WithinTx(ctx context.Context, fn func(Store) error) error
}

// SQLStore implements TxStore on top of the store package.
type SQLStore struct {
	db *sqlx.DB
	q  store.Queryer
}

// NewSQLStore returns a TxStore backed by database.
func NewSQLStore(database *sqlx.DB) *SQLStore {
	return &SQLStore{db: database, q: database}
}

// WithinTx must not be called on a Store handed to fn.
func (s *SQLStore) WithinTx(ctx context.Context, fn func(Store) error) error {
	return db.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&SQLStore{db: s.db, q: tx})
	})
}

func (s *SQLStore) FindAsset(ctx context.Context, ref string) (*model.Asset, error) {
	return store.FindAsset(ctx, s.q, ref)
}

func (s *SQLStore) RelocateAsset(ctx context.Context, id int64, location string, rigID, companyID *int64) error {
	return store.RelocateAsset(ctx, s.q, id, location, rigID, companyID)
}

func (s *SQLStore) GetRig(ctx context.Context, id int64) (*model.Rig, error) {
	return store.GetRig(ctx, s.q, id)
}

func (s *SQLStore) GetCompany(ctx context.Context, id int64) (*model.Company, error) {
	return store.GetCompany(ctx, s.q, id)
}

func (s *SQLStore) AppendHistory(ctx context.Context, assetID int64, action string, actorID int64, note string) error {
	return store.AppendHistory(ctx, s.q, assetID, action, &actorID, note)
}

func (s *SQLStore) NotifyRoles(ctx context.Context, roles []string, p model.NotificationPayload) (int64, error) {
	return store.NotifyRoles(ctx, s.q, roles, p)
}

func (s *SQLStore) NotifyAll(ctx context.Context, p model.NotificationPayload) error {
	return store.NotifyAll(ctx, s.q, p)
}

func (s *SQLStore) InsertTransfer(ctx context.Context, t *model.Transfer) (int64, error) {
	return store.InsertTransfer(ctx, s.q, t)
}

func (s *SQLStore) GetTransfer(ctx context.Context, ref string) (*model.Transfer, error) {
	return store.GetTransfer(ctx, s.q, ref)
}

func (s *SQLStore) GetTransferByID(ctx context.Context, id int64) (*model.Transfer, error) {
	return store.GetTransferByID(ctx, s.q, id)
}

func (s *SQLStore) ListTransfers(ctx context.Context, f model.TransferFilter) ([]model.Transfer, int, error) {
	return store.ListTransfers(ctx, s.q, f)
}

func (s *SQLStore) ApplyDecision(ctx context.Context, id int64, expectedStatus string, d model.StageDecision) (bool, error) {
	return store.ApplyDecision(ctx, s.q, id, expectedStatus, d)
}

func (s *SQLStore) CancelTransfer(ctx context.Context, ref string) (string, bool, error) {
	return store.CancelTransfer(ctx, s.q, ref)
}
