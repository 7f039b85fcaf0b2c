package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// AssetsHandler handles the asset directory endpoints.
type AssetsHandler struct {
	DB *sqlx.DB
}

type createAssetRequest struct {
	AssetID   string              `json:"asset_id"`
	Name      string              `json:"name"`
	Category  string              `json:"category"`
	Location  string              `json:"location"`
	Status    string              `json:"status"`
	RigID     *int64              `json:"rig_id"`
	CompanyID *int64              `json:"company_id"`
	ValueUSD  decimal.NullDecimal `json:"value_usd"`
}

// List handles GET /api/assets.
func (h *AssetsHandler) List(w http.ResponseWriter, r *http.Request) {
	assets, err := store.ListAssets(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list assets", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list assets")
		return
	}
	if assets == nil {
		assets = []model.Asset{}
	}
	jsonResponse(w, http.StatusOK, assets)
}

// Create handles POST /api/assets.
func (h *AssetsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAssetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.AssetID = strings.TrimSpace(req.AssetID)
	req.Name = strings.TrimSpace(req.Name)
	if req.AssetID == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "asset_id and name required")
		return
	}
	if req.Status != "" && !model.ValidAssetStatus(req.Status) {
		jsonError(w, http.StatusBadRequest, "status must be one of "+strings.Join(model.AssetStatuses, ", "))
		return
	}
	if req.ValueUSD.Valid && req.ValueUSD.Decimal.IsNegative() {
		jsonError(w, http.StatusBadRequest, "value_usd must not be negative")
		return
	}

	claims := GetClaims(r.Context())
	asset, err := store.CreateAsset(r.Context(), h.DB, model.Asset{
		AssetCode: req.AssetID,
		Name:      req.Name,
		Category:  strings.TrimSpace(req.Category),
		Location:  strings.TrimSpace(req.Location),
		Status:    req.Status,
		RigID:     req.RigID,
		CompanyID: req.CompanyID,
		ValueUSD:  req.ValueUSD,
	}, &claims.UserID)
	if errors.Is(err, store.ErrDuplicate) {
		jsonError(w, http.StatusConflict, "asset id already exists")
		return
	}
	if errors.Is(err, store.ErrInvalidReference) {
		jsonError(w, http.StatusBadRequest, "rig or company not found")
		return
	}
	if err != nil {
		slog.Error("failed to create asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create asset")
		return
	}

	slog.Info("asset created", "user", claims.Username, "asset", asset.AssetCode, "location", asset.Location)
	jsonResponse(w, http.StatusCreated, asset)
}

// find resolves the {id} path value, writing the error response itself.
func (h *AssetsHandler) find(w http.ResponseWriter, r *http.Request) *model.Asset {
	asset, err := store.FindAsset(r.Context(), h.DB, r.PathValue("id"))
	if err != nil {
		slog.Error("failed to get asset", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get asset")
		return nil
	}
	if asset == nil {
		jsonError(w, http.StatusNotFound, "asset not found")
		return nil
	}
	return asset
}

// Get handles GET /api/assets/{id}.
func (h *AssetsHandler) Get(w http.ResponseWriter, r *http.Request) {
	if asset := h.find(w, r); asset != nil {
		jsonResponse(w, http.StatusOK, asset)
	}
}

// History handles GET /api/assets/{id}/history.
func (h *AssetsHandler) History(w http.ResponseWriter, r *http.Request) {
	asset := h.find(w, r)
	if asset == nil {
		return
	}

	entries, err := store.ListAssetHistory(r.Context(), h.DB, asset.ID)
	if err != nil {
		slog.Error("failed to list asset history", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list history")
		return
	}
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	jsonResponse(w, http.StatusOK, entries)
}
