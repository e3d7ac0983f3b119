package api

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/erazemk/labstock/internal/imaging"
	"github.com/erazemk/labstock/internal/ledger"
	"github.com/erazemk/labstock/internal/model"
)

// ComplaintsHandler handles complaint and attachment endpoints.
type ComplaintsHandler struct {
	Ledger *ledger.Service
}

// List handles GET /api/complaints.
func (h *ComplaintsHandler) List(w http.ResponseWriter, r *http.Request) {
	labID, err := queryID(r, "lab_id")
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	complaints, err := h.Ledger.ListComplaints(r.Context(), actorFrom(r), ledger.ComplaintQuery{
		LabID:  labID,
		Status: trimmed(r, "status"),
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	if complaints == nil {
		complaints = []model.Complaint{}
	}
	jsonResponse(w, http.StatusOK, complaints)
}

// Create handles POST /api/complaints.
func (h *ComplaintsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ledger.ComplaintInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Ledger.CreateComplaint(r.Context(), actorFrom(r), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// Get handles GET /api/complaints/{id}.
func (h *ComplaintsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	c, err := h.Ledger.GetComplaint(r.Context(), actorFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// UpdateStatus handles PUT /api/complaints/{id}/status.
func (h *ComplaintsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	var req ledger.ComplaintStatusInput
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c, err := h.Ledger.UpdateComplaintStatus(r.Context(), actorFrom(r), id, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, c)
}

// AddAttachments handles POST /api/complaints/{id}/attachments with one or
// more image parts named "files".
func (h *ComplaintsHandler) AddAttachments(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}

	// Per-file size is enforced while decoding; this caps the whole request.
	r.Body = http.MaxBytesReader(w, r.Body, ledger.MaxAttachments*imaging.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		jsonError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}

	uploads := make([]ledger.Upload, 0, len(headers))
	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			f.Close()
		}
	}()
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			jsonError(w, http.StatusBadRequest, "unreadable file "+strconv.Quote(fh.Filename))
			return
		}
		opened = append(opened, f)
		uploads = append(uploads, ledger.Upload{Filename: fh.Filename, Body: f})
	}

	c, err := h.Ledger.AddAttachments(r.Context(), actorFrom(r), id, uploads)
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusCreated, c)
}

// GetAttachment handles GET /api/complaints/{id}/attachments/{aid}.
func (h *ComplaintsHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid complaint id")
		return
	}
	aid, ok := pathID(r, "aid")
	if !ok {
		jsonError(w, http.StatusBadRequest, "invalid attachment id")
		return
	}

	a, rc, err := h.Ledger.OpenAttachment(r.Context(), actorFrom(r), id, aid)
	if err != nil {
		writeError(w, r, err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Content-Length", strconv.FormatInt(a.Size, 10))
	w.Header().Set("Cache-Control", "private, max-age=86400")
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("streaming attachment", "attachment", aid, "error", err)
	}
}
