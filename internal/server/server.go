// Package server exposes the review store over HTTP for the review UI.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkaravas/intake/constants"
	"github.com/mkaravas/intake/internal/common"
	"github.com/mkaravas/intake/internal/entity"
	"github.com/mkaravas/intake/internal/review"
	"github.com/mkaravas/intake/internal/template"
)

const maxBodySize = 1 << 20 // 1MB

type Deps struct {
	Store  *review.Store
	Logger *slog.Logger
}

// NewHandler builds the review API router.
func NewHandler(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/runs/{runID}/records", handleListRecords(deps))
	r.Get("/v1/runs/{runID}/export", handleExport(deps))
	r.Post("/v1/records/{recordID}/edits", handleEdit(deps))
	r.Post("/v1/records/{recordID}/approval", handleApproval(deps))

	return r
}

type recordsResponse struct {
	RunID   string                  `json:"run_id"`
	Records []*entity.UnifiedRecord `json:"records"`
}

func handleListRecords(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		records, err := deps.Store.Load(r.Context(), runID)
		if err != nil {
			storeError(w, deps, err, "listing records")
			return
		}
		writeJSON(w, http.StatusOK, recordsResponse{RunID: runID, Records: records})
	}
}

type exportResponse struct {
	RunID   string         `json:"run_id"`
	Headers []string       `json:"headers"`
	Rows    []template.Row `json:"rows"`
}

func handleExport(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runID := chi.URLParam(r, "runID")
		approvedOnly := r.URL.Query().Get("approved_only") == "true"
		rows, err := deps.Store.ExportRows(r.Context(), runID, approvedOnly)
		if err != nil {
			storeError(w, deps, err, "exporting rows")
			return
		}
		writeJSON(w, http.StatusOK, exportResponse{
			RunID:   runID,
			Headers: template.Headers(),
			Rows:    rows,
		})
	}
}

type editRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func handleEdit(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID := chi.URLParam(r, "recordID")
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req editRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}
		if req.Field == "" {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "field is required")
			return
		}

		rec, err := deps.Store.ApplyEdit(r.Context(), recordID, req.Field, req.Value)
		if err != nil {
			storeError(w, deps, err, "applying edit")
			return
		}
		deps.Logger.Info("review.edit.ok", "record_id", recordID, "field", req.Field)
		writeJSON(w, http.StatusOK, rec)
	}
}

type approvalRequest struct {
	Status string `json:"status"`
}

func handleApproval(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recordID := chi.URLParam(r, "recordID")
		r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
		defer r.Body.Close()

		var req approvalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpError(w, http.StatusBadRequest, "invalid_request_error", "invalid request body: %v", err)
			return
		}

		rec, err := deps.Store.SetApproval(r.Context(), recordID, constants.ApprovalStatus(req.Status))
		if err != nil {
			storeError(w, deps, err, "setting approval")
			return
		}
		deps.Logger.Info("review.approval.ok", "record_id", recordID, "status", req.Status)
		writeJSON(w, http.StatusOK, rec)
	}
}

func storeError(w http.ResponseWriter, deps Deps, err error, action string) {
	switch {
	case errors.Is(err, common.ErrNotFound):
		httpError(w, http.StatusNotFound, "not_found_error", "%s: %v", action, err)
	case errors.Is(err, common.ErrInvalidInput):
		httpError(w, http.StatusBadRequest, "invalid_request_error", "%s: %v", action, err)
	default:
		deps.Logger.Error("review.store.error", "action", action, "error", err)
		httpError(w, http.StatusInternalServerError, "api_error", "%s failed", action)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, code int, errType string, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    errType,
		},
	})
}
