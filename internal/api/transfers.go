package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/erazemk/rigasset/internal/model"
	"github.com/erazemk/rigasset/internal/workflow"
)

// TransfersHandler exposes the transfer workflow.
type TransfersHandler struct {
	Engine *workflow.Engine
}

type decisionRequest struct {
	Action  string `json:"action"`
	Comment string `json:"comment"`
}

type transferListResponse struct {
	Transfers []model.Transfer `json:"transfers"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	Limit     int              `json:"limit"`
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req workflow.SubmitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transfer, err := h.Engine.Submit(r.Context(), actorFrom(GetClaims(r.Context())), req)
	if err != nil {
		workflowError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, transfer)
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.TransferFilter{
		Status:   q.Get("status"),
		Priority: q.Get("priority"),
		Search:   q.Get("search"),
	}

	for name, dest := range map[string]*int{"page": &f.Page, "limit": &f.Limit} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			jsonError(w, http.StatusBadRequest, "invalid "+name)
			return
		}
		*dest = n
	}
	f = f.Normalize()

	transfers, total, err := h.Engine.List(r.Context(), f)
	if err != nil {
		workflowError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, transferListResponse{
		Transfers: transfers,
		Total:     total,
		Page:      f.Page,
		Limit:     f.Limit,
	})
}

// Get handles GET /api/transfers/{id}. The id may be the surrogate id or the
// transfer id.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, err := h.Engine.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		workflowError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// ApproveOps handles POST /api/transfers/{id}/approve-ops.
func (h *TransfersHandler) ApproveOps(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.DecideOps)
}

// ApproveManager handles POST /api/transfers/{id}/approve-mgr.
func (h *TransfersHandler) ApproveManager(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Engine.DecideManager)
}

type decideFunc func(ctx context.Context, actor workflow.Actor, ref, action, comment string) (*model.Transfer, error)

func (h *TransfersHandler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	var req decisionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	transfer, err := fn(r.Context(), actorFrom(GetClaims(r.Context())), r.PathValue("id"), req.Action, req.Comment)
	if err != nil {
		workflowError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

// Delete handles DELETE /api/transfers/{id}. Only Pending and On Hold
// transfers can be cancelled.
func (h *TransfersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	transferID, err := h.Engine.Cancel(r.Context(), actorFrom(GetClaims(r.Context())), r.PathValue("id"))
	if err != nil {
		workflowError(w, r, err)
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{
		"message":     "transfer cancelled",
		"transfer_id": transferID,
	})
}
