package api

import (
	"net/http"
	"strconv"

	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// MaintenanceHandler handles maintenance cost endpoints.
type MaintenanceHandler struct {
	Ledger *ledger.Service
}

// List handles GET /api/maintenance.
func (h *MaintenanceHandler) List(w http.ResponseWriter, r *http.Request) {
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	itemID, err := queryID(r, "item_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.Ledger.ListMaintenanceRecords(r.Context(), actorFrom(r), ledger.MaintenanceQuery{
		Start:  trimmed(r, "start"),
		End:    trimmed(r, "end"),
		LabID:  labID,
		ItemID: itemID,
		Type:   trimmed(r, "type"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if records == nil {
		records = []model.MaintenanceRecord{}
	}
	jsonResponse(w, http.StatusOK, records)
}

// Create handles POST /api/maintenance.
func (h *MaintenanceHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.MaintenanceInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rec, err := h.Ledger.CreateMaintenanceRecord(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, rec)
}

// Summary handles GET /api/maintenance/summary.
func (h *MaintenanceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	var limit int
	if v := trimmed(r, "limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 1 {
			jsonError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	sum, err := h.Ledger.MaintenanceSummary(r.Context(), actorFrom(r), ledger.SummaryQuery{
		Start: trimmed(r, "start"),
		End:   trimmed(r, "end"),
		LabID: labID,
		Limit: limit,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, sum)
}

// Template handles GET /api/maintenance/template.
func (h *MaintenanceHandler) Template(w http.ResponseWriter, r *http.Request) {
	writeTable(w, r, "maintenance_template", ledger.MaintenanceTemplate())
}

// Import handles POST /api/maintenance/import.
func (h *MaintenanceHandler) Import(w http.ResponseWriter, r *http.Request) {
	rows, err := readTable(w, r)
	if err != nil {
		importError(w, err)
		return
	}

	res, err := h.Ledger.ImportMaintenance(r.Context(), actorFrom(r), rows)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, res)
}
