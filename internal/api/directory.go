package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/store"
)

// DirectoryHandler handles rigs and companies.
type DirectoryHandler struct {
	DB *sqlx.DB
}

type createRigRequest struct {
	RigID string `json:"rig_id"`
	Name  string `json:"name"`
}

type createCompanyRequest struct {
	Name string `json:"name"`
}

// ListRigs handles GET /api/rigs.
func (h *DirectoryHandler) ListRigs(w http.ResponseWriter, r *http.Request) {
	rigs, err := store.ListRigs(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list rigs", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list rigs")
		return
	}
	if rigs == nil {
		rigs = []model.Rig{}
	}
	jsonResponse(w, http.StatusOK, rigs)
}

// CreateRig handles POST /api/rigs.
func (h *DirectoryHandler) CreateRig(w http.ResponseWriter, r *http.Request) {
	var req createRigRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.RigID = strings.TrimSpace(req.RigID)
	req.Name = strings.TrimSpace(req.Name)
	if req.RigID == "" || req.Name == "" {
		jsonError(w, http.StatusBadRequest, "rig_id and name required")
		return
	}

	rig, err := store.CreateRig(r.Context(), h.DB, req.RigID, req.Name)
	if errors.Is(err, store.ErrDuplicate) {
		jsonError(w, http.StatusConflict, "rig id already exists")
		return
	}
	if err != nil {
		slog.Error("failed to create rig", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create rig")
		return
	}

	slog.Info("rig created", "user", GetClaims(r.Context()).Username, "rig", rig.RigCode)
	jsonResponse(w, http.StatusCreated, rig)
}

// ListCompanies handles GET /api/companies.
func (h *DirectoryHandler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := store.ListCompanies(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list companies", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list companies")
		return
	}
	if companies == nil {
		companies = []model.Company{}
	}
	jsonResponse(w, http.StatusOK, companies)
}

// CreateCompany handles POST /api/companies.
func (h *DirectoryHandler) CreateCompany(w http.ResponseWriter, r *http.Request) {
	var req createCompanyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	company, err := store.CreateCompany(r.Context(), h.DB, req.Name)
	if errors.Is(err, store.ErrDuplicate) {
		jsonError(w, http.StatusConflict, "company already exists")
		return
	}
	if err != nil {
		slog.Error("failed to create company", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create company")
		return
	}

	slog.Info("company created", "user", GetClaims(r.Context()).Username, "company", company.Name)
	jsonResponse(w, http.StatusCreated, company)
}
