package api

import (
	"net/http"

	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// TransfersHandler handles transfer endpoints.
type TransfersHandler struct {
	Ledger *ledger.Service
}

// Create handles POST /api/transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.TransferInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.Ledger.Transfer(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, res)
}

// List handles GET /api/transfers.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	itemID, err := queryID(r, "item_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	transfers, err := h.Ledger.ListTransfers(r.Context(), actorFrom(r), itemID, labID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}
