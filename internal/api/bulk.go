package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/erazemk/labstock/internal/tabular"
)

// maxImportSize bounds an uploaded import file.
const maxImportSize = 10 << 20

// readTable reads an import file from the "file" field of a multipart form,
// or from the raw body. The format comes from ?format, then the file name,
// then the content type.
func readTable(w http.ResponseWriter, r *http.Request) ([]tabular.Row, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize+1<<20)

	var (
		body     io.Reader = r.Body
		filename string
	)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		f, fh, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("reading upload: %w", err)
		}
		defer f.Close()
		body, filename = f, fh.Filename
	}

	format := tabular.FormatFromFilename(filename)
	switch {
	case r.URL.Query().Get("format") != "":
		f, err := tabular.ParseFormat(r.URL.Query().Get("format"))
		if err != nil {
			return nil, err
		}
		format = f
	case filename == "" && strings.Contains(mediaType, "spreadsheetml"):
		format = tabular.XLSX
	}

	return tabular.Read(body, format)
}

// writeTable streams t as a download named base plus the format extension.
func writeTable(w http.ResponseWriter, r *http.Request, base string, t *tabular.Table) {
	format, err := tabular.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.%s"`, base, format))
	if err := tabular.Write(w, format, t); err != nil {
		slog.Error("writing table", "file", base, "error", err)
	}
}

// importError writes the response for an unreadable import upload.
func importError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		jsonError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}
	jsonError(w, http.StatusBadRequest, err.Error())
}
