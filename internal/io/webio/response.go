package webio

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"

	"github.com/gnames/genomcat/internal/ent/catalog"
	"github.com/gnames/genomcat/internal/ent/query"
	"github.com/gnames/gnfmt"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func (s *server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	bs, err := s.enc.Encode(v)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(bs); err != nil {
		slog.Debug("Cannot write response", "request_id", reqID(r),
			"error", err)
	}
}

// writeError maps an error to a status code. Causes of internal errors
// are logged and never sent to the client.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	w.Header().Del("Content-Disposition")
	var ve *query.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeJSON(w, r, http.StatusBadRequest,
			errorResponse{Error: ve.Error(), Field: ve.Field})
	case errors.Is(err, query.ErrNotFound):
		slog.Debug("Not found", "request_id", reqID(r),
			"path", r.URL.Path, "error", err)
		s.writeJSON(w, r, http.StatusNotFound,
			errorResponse{Error: "not found"})
	default:
		slog.Error("Cannot serve request", "request_id", reqID(r),
			"path", r.URL.Path, "error", err)
		writeInternal(w)
	}
}

func writeInternal(w http.ResponseWriter) {
	enc := gnfmt.GNjson{}
	bs, _ := enc.Encode(errorResponse{Error: "internal server error"})
	w.Header().Del("Content-Disposition")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write(bs)
}

func setAttachment(w http.ResponseWriter, name, contentType string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": name}))
}

func (s *server) writeAttachment(
	w http.ResponseWriter,
	r *http.Request,
	att *catalog.Attachment,
) {
	defer att.Body.Close()
	setAttachment(w, att.Name, att.ContentType)
	if _, err := io.Copy(w, att.Body); err != nil {
		slog.Error("Cannot send attachment", "request_id", reqID(r),
			"name", att.Name, "error", fmt.Errorf("%s: %w", att.Name, err))
	}
}
