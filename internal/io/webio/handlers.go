package webio

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gnames/genomcat/internal/ent/schema"
)

type healthResponse struct {
	Health    string    `json:"health"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

func (s *server) health(w http.ResponseWriter, r *http.Request) {
	res := healthResponse{
		Health:    "ok",
		Version:   s.version,
		Timestamp: time.Now(),
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) statistics(w http.ResponseWriter, r *http.Request) {
	res, err := s.cat.Statistics(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) list(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := listRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.List(r.Context(), p, r.PathValue("entity"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) options(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.Options(r.Context(), p, r.PathValue("entity"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

// export streams CSV. Errors after the first row can only be logged.
func (s *server) export(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := listRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	entity := r.PathValue("entity")
	name := p.String() + "_" + entity + ".csv"
	setAttachment(w, name, "text/csv")

	sw := wrap(w)
	n, err := s.cat.Export(r.Context(), p, entity, req, sw)
	if err == nil {
		return
	}
	if !sw.started() {
		s.writeError(sw, r, err)
		return
	}
	slog.Error("Export interrupted", "request_id", reqID(r),
		"name", name, "records", n, "error", err)
}

func (s *server) record(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := recordID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.Record(r.Context(), p, r.PathValue("entity"), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) download(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := recordID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	att, err := s.cat.Download(r.Context(), p, r.PathValue("entity"), id,
		kind(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAttachment(w, r, att)
}

func (s *server) genome(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.Genome(r.Context(), p, r.PathValue("uid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) contigs(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.Contigs(r.Context(), p, r.PathValue("uid"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func (s *server) genomeDownload(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	att, err := s.cat.GenomeDownload(r.Context(), p, r.PathValue("uid"),
		kind(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeAttachment(w, r, att)
}

func (s *server) genomeAnnotations(w http.ResponseWriter, r *http.Request) {
	p, err := partition(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	req, err := listRequest(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.cat.GenomeAnnotations(r.Context(), p, r.PathValue("uid"),
		r.PathValue("entity"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, res)
}

func kind(r *http.Request) string {
	if k := r.URL.Query().Get("kind"); k != "" {
		return k
	}
	return schema.KindCSV
}
