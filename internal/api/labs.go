package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/erazemk/labstock/internal/model"
	"github.com/erazemk/labstock/internal/store"
)

// LabsHandler handles lab endpoints.
type LabsHandler struct {
	DB *sql.DB
}

type labRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List handles GET /api/labs.
func (h *LabsHandler) List(w http.ResponseWriter, r *http.Request) {
	labs, err := store.ListLabs(r.Context(), h.DB)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if labs == nil {
		labs = []model.Lab{}
	}
	jsonResponse(w, http.StatusOK, labs)
}

// Create handles POST /api/labs.
func (h *LabsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req labRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	lab, err := store.CreateLab(r.Context(), h.DB, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("lab created", "lab", lab.ID, "name", lab.Name, "by", GetClaims(r.Context()).Email)
	jsonResponse(w, http.StatusCreated, lab)
}

// Get handles GET /api/labs/{id}.
func (h *LabsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid lab id")
		return
	}

	lab, err := store.GetLab(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lab == nil {
		jsonError(w, http.StatusNotFound, "lab not found")
		return
	}

	jsonResponse(w, http.StatusOK, lab)
}

// Update handles PUT /api/labs/{id}.
func (h *LabsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid lab id")
		return
	}

	var req labRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		jsonError(w, http.StatusBadRequest, "name required")
		return
	}

	existing, err := store.GetLab(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if existing == nil {
		jsonError(w, http.StatusNotFound, "lab not found")
		return
	}

	if err := store.UpdateLab(r.Context(), h.DB, id, req.Name, strings.TrimSpace(req.Description)); err != nil {
		writeError(w, r, err)
		return
	}

	lab, err := store.GetLab(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, lab)
}

// Delete handles DELETE /api/labs/{id}. Labs that still hold items or
// users are refused with 409.
func (h *LabsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid lab id")
		return
	}

	lab, err := store.GetLab(r.Context(), h.DB, id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if lab == nil {
		jsonError(w, http.StatusNotFound, "lab not found")
		return
	}

	if err := store.DeleteLab(r.Context(), h.DB, id); err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("lab deleted", "lab", id, "name", lab.Name, "by", GetClaims(r.Context()).Email)
	jsonResponse(w, http.StatusOK, map[string]string{"message": "lab deleted"})
}
