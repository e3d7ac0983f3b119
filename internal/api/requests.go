package api

import (
	"context"
	"net/http"

	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// RequestsHandler handles stock request endpoints.
type RequestsHandler struct {
	Ledger *ledger.Service
}

type decideRequest struct {
	ExpectedVersion int64 `json:"expected_version"`
}

// List handles GET /api/requests.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Ledger.ListStockRequests(r.Context(), actorFrom(r), trimmed(r, "status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if reqs == nil {
		reqs = []model.StockRequest{}
	}
	jsonResponse(w, http.StatusOK, reqs)
}

// Create handles POST /api/requests.
func (h *RequestsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.StockRequestInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.Ledger.CreateStockRequest(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, created)
}

// Approve handles POST /api/requests/{id}/approve.
func (h *RequestsHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Ledger.ApproveStockRequest)
}

// Reject handles POST /api/requests/{id}/reject.
func (h *RequestsHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, h.Ledger.RejectStockRequest)
}

type decideFunc func(ctx context.Context, actor ledger.Actor, id, expectedVersion int64) (*model.StockRequest, error)

func (h *RequestsHandler) decide(w http.ResponseWriter, r *http.Request, fn decideFunc) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid request id")
		return
	}

	var req decideRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	decided, err := fn(r.Context(), actorFrom(r), id, req.ExpectedVersion)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, decided)
}
