package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/engine"
	apperrors "github.com/sqllens/sqllens/internal/errors"
)

// maxSubmissionBytes caps uploaded submissions at 8 MiB.
const maxSubmissionBytes = 8 << 20

// EvaluationHandlers exposes the evaluation service over HTTP.
type EvaluationHandlers struct {
	svc *engine.Service
}

// NewEvaluationHandlers creates handlers backed by the given service.
func NewEvaluationHandlers(svc *engine.Service) *EvaluationHandlers {
	return &EvaluationHandlers{svc: svc}
}

// submitRequest is the JSON body accepted as an alternative to a
// multipart file upload.
type submitRequest struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}

// jobResultsResponse wraps a job together with its unit results.
type jobResultsResponse struct {
	Job     *core.BatchJob           `json:"job"`
	Results []*core.EvaluationResult `json:"results,omitempty"`
}

// Submit handles POST /api/v1/evaluations. It accepts either a
// multipart form with a "file" part or a JSON body with filename and
// content, creates a job, and returns it with 202 Accepted.
func (h *EvaluationHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	filename, data, err := readSubmission(r)
	if err != nil {
		respondWithError(w, r, apperrors.NewInvalidInputError(err.Error()))
		return
	}
	if len(data) == 0 {
		respondWithError(w, r, apperrors.NewInvalidInputError("submission is empty"))
		return
	}

	job, err := h.svc.Submit(r.Context(), filename, data)
	if err != nil {
		respondWithError(w, r, apperrors.WrapEvaluationError(r.Context(), err, "failed to submit evaluation"))
		return
	}

	writeJSON(w, http.StatusAccepted, job)
}

// Get handles GET /api/v1/evaluations/{id} and returns the job with
// any unit results stored so far.
func (h *EvaluationHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, results, err := h.svc.JobResults(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load evaluation"))
		return
	}
	if job == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("evaluation not found"))
		return
	}

	writeJSON(w, http.StatusOK, jobResultsResponse{Job: job, Results: results})
}

// Status handles GET /api/v1/evaluations/{id}/status and returns just
// the job record, cheap enough for tight polling loops.
func (h *EvaluationHandlers) Status(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	job, err := h.svc.Job(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load evaluation"))
		return
	}
	if job == nil {
		respondWithError(w, r, apperrors.NewNotFoundError("evaluation not found"))
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// List handles GET /api/v1/evaluations with an optional ?limit=N.
func (h *EvaluationHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			respondWithError(w, r, apperrors.NewInvalidInputError("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	jobs, err := h.svc.Jobs(r.Context(), limit)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to list evaluations"))
		return
	}
	if jobs == nil {
		jobs = []*core.BatchJob{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": jobs})
}

// Delete handles DELETE /api/v1/evaluations/{id}.
func (h *EvaluationHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to delete evaluation"))
		return
	}
	if !deleted {
		respondWithError(w, r, apperrors.NewNotFoundError("evaluation not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Statistics handles GET /api/v1/statistics.
func (h *EvaluationHandlers) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		respondWithError(w, r, apperrors.WrapDatabaseError(r.Context(), err, "failed to load statistics"))
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// readSubmission extracts the uploaded filename and content from
// either a multipart form or a JSON body.
func readSubmission(r *http.Request) (string, []byte, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxSubmissionBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", nil, apperrors.New("INVALID_INPUT", "multipart form must include a \"file\" part")
		}
		defer file.Close() // nolint:errcheck // best-effort cleanup on upload

		data, err := io.ReadAll(file)
		if err != nil {
			return "", nil, err
		}
		return header.Filename, data, nil
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", nil, apperrors.New("INVALID_INPUT", "request body must be a multipart upload or JSON with filename and content")
	}
	if req.Filename == "" {
		req.Filename = "submission.sql"
	}
	return req.Filename, []byte(req.Content), nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
