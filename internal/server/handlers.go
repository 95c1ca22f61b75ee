package server

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/diag"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/envcheck"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/errs"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/filestore"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/logger"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/report"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/schema"
	"github.com/LoraVega-AI/DSHachaktonPHP2025-sub002/internal/smoke"
)

// Check endpoints answer 200 with the check's own report even when the
// check fails; the report carries ok/overall_status. Non-2xx means the
// check could not run at all.

func (s *Server) env(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, envcheck.Check(s.opts.Env))
}

func (s *Server) driver(w http.ResponseWriter, r *http.Request) {
	if s.opts.DBConfig == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "database not configured")
		return
	}
	writeJSON(w, http.StatusOK, diag.CheckDriver(r.Context(), s.opts.DBConfig, s.opts.Open))
}

func (s *Server) validate(r *http.Request) (*schema.Result, error) {
	if s.opts.DB == nil {
		return nil, errs.New(errs.ErrKindConnectionFailed, "database not configured")
	}
	intro, err := s.opts.NewIntrospector(s.opts.DB)
	if err != nil {
		return nil, err
	}
	v := schema.NewValidator(intro, logger.FromContext(r.Context()))
	return v.Validate(r.Context(), s.opts.Catalog)
}

func (s *Server) schemaJSON(w http.ResponseWriter, r *http.Request) {
	res, err := s.validate(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report.Summarize(res))
}

func (s *Server) schemaHTML(w http.ResponseWriter, r *http.Request) {
	res, err := s.validate(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var buf bytes.Buffer
	if err := report.WriteHTML(&buf, res); err != nil {
		writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (s *Server) heatmap(w http.ResponseWriter, r *http.Request) {
	if s.opts.Heatmap.URL == "" {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "heatmap url not configured")
		return
	}
	writeJSON(w, http.StatusOK, smoke.Heatmap(r.Context(), s.opts.Heatmap))
}

func (s *Server) crud(w http.ResponseWriter, r *http.Request) {
	if s.opts.DB == nil {
		writeError(w, http.StatusServiceUnavailable, "not_configured", "database not configured")
		return
	}
	writeJSON(w, http.StatusOK, smoke.CRUD(r.Context(), s.opts.DB, s.opts.CRUD))
}

// --- archived reports ---

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archiver == nil {
		writeError(w, http.StatusNotFound, "archive_disabled", "report archive not configured")
		return
	}
	limit := 100
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_input", "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	objects, err := s.opts.Archiver.List(r.Context(), r.URL.Query().Get("prefix"), limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	if objects == nil {
		objects = []filestore.ObjectInfo{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": objects})
}

func (s *Server) getReport(w http.ResponseWriter, r *http.Request) {
	if s.opts.Archiver == nil {
		writeError(w, http.StatusNotFound, "archive_disabled", "report archive not configured")
		return
	}
	key := filestore.ReportPrefix + chi.URLParam(r, "*")

	obj, err := s.opts.Archiver.Open(r.Context(), key)
	if err != nil {
		writeErr(w, err)
		return
	}
	defer obj.Close()

	if info := obj.Info(); info != nil && info.ContentType != "" {
		w.Header().Set("Content-Type", info.ContentType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, obj); err != nil {
		logger.FromContext(r.Context()).Warnf("stream report %s: %v", key, err)
	}
}
