package api

import (
	"net/http"
	"strings"

	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Ledger *ledger.Service
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	items, err := h.Ledger.ListItems(r.Context(), actorFrom(r), ledger.ItemQuery{
		LabID:    labID,
		Category: r.URL.Query().Get("category"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.CreateItem(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, item)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	item, err := h.Ledger.GetItem(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req ledger.ItemInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.UpdateItem(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// UpdateStatus handles PUT /api/items/{id}/status.
func (h *ItemsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	var req ledger.StatusInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.Ledger.UpdateItemStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.Ledger.DeleteItem(r.Context(), actorFrom(r), id); err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// History handles GET /api/items/{id}/history.
func (h *ItemsHandler) History(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	transfers, err := h.Ledger.ItemHistory(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// Export handles GET /api/items/export?format=csv|xlsx.
func (h *ItemsHandler) Export(w http.ResponseWriter, r *http.Request) {
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	table, err := h.Ledger.ExportItems(r.Context(), actorFrom(r), labID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeTable(w, r, "items", table)
}

// Import handles POST /api/items/import.
func (h *ItemsHandler) Import(w http.ResponseWriter, r *http.Request) {
	if !actorFrom(r).IsAdmin() {
		jsonError(w, http.StatusForbidden, "insufficient permissions")
		return
	}

	rows, err := readTable(w, r)
	if err != nil {
		importError(w, err)
		return
	}

	res, err := h.Ledger.ImportItems(r.Context(), actorFrom(r), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}

func trimmed(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}
