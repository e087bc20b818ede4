package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/JonMunkholm/registro/internal/core"
	"github.com/JonMunkholm/registro/internal/logging"
	"github.com/go-chi/chi/v5"
)

// maxBodySize bounds create requests; relato is the only long field.
const maxBodySize = 1 << 20

// handleHealth reports whether the store answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			s.respondError(w, r, fmt.Errorf("health: %w", err), http.StatusServiceUnavailable)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreate inserts a record from a JSON body.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var in core.NewRecord
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err := dec.Decode(&in); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	rec, err := s.service.Create(withRequestMetadata(r), in)
	s.metrics.RecordMutation("create", err)
	if err != nil {
		s.respondError(w, r, err, statusFor(err))
		return
	}

	writeJSON(w, http.StatusOK, rec)
}

// handleList returns every record, newest first.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleSearch filters records by the optional nombre and ciudad parameters.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	criteria := parseCriteria(r)
	s.metrics.RecordSearch(criteriaLabel(criteria))

	records, err := s.service.Search(r.Context(), criteria)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// handleDelete removes a record by id. Unknown ids succeed.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		s.respondError(w, r, fmt.Errorf("invalid id %q", raw), http.StatusBadRequest)
		return
	}

	deleted, err := s.service.Delete(withRequestMetadata(r), id)
	s.metrics.RecordMutation("delete", err)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{Mensaje: "Eliminado", ID: id, Deleted: deleted})
}

// handleExportExcel builds the whole workbook before writing anything, so a
// failed export never produces a partial download.
func (s *Server) handleExportExcel(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	criteria := parseCriteria(r)

	exp, err := s.service.Export(r.Context(), criteria)
	if err != nil {
		s.metrics.RecordExport(err, 0, time.Since(start))
		if errors.Is(err, core.ErrTooManyExports) {
			w.Header().Set("Retry-After", "5")
		}
		s.respondError(w, r, err, statusFor(err))
		return
	}
	s.metrics.RecordExport(nil, exp.Rows, time.Since(start))

	writeAttachment(w, exp)

	logging.WithFields(r.Context(), "export_id", exp.ID).
		Debug("export sent", "rows", exp.Rows, "bytes", len(exp.Data))
}

// writeAttachment sends an encoded export as a file download.
func writeAttachment(w http.ResponseWriter, exp *core.Export) {
	w.Header().Set("Content-Type", exp.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+exp.FileName)
	w.Header().Set("Content-Length", strconv.Itoa(len(exp.Data)))
	w.Header().Set("X-Export-Id", exp.ID)
	w.WriteHeader(http.StatusOK)
	// A write error means the client went away; headers are already out.
	_, _ = w.Write(exp.Data)
}
