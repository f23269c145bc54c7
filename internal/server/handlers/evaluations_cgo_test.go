//go:build cgo

package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sqllens/sqllens/internal/config"
	"github.com/sqllens/sqllens/internal/core"
	"github.com/sqllens/sqllens/internal/core/backend"
	"github.com/sqllens/sqllens/internal/core/engine"
	"github.com/sqllens/sqllens/internal/core/store"
)

func newTestService(t *testing.T) *engine.Service {
	t.Helper()

	ctx := context.Background()
	st, err := store.Open(ctx, config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	t.Cleanup(func() { _ = st.Close() })

	registry := backend.NewRegistry("static")
	require.NoError(t, registry.Register(backend.NewStatic()))

	orchestrator := engine.NewOrchestrator(registry, 5*time.Second)
	return engine.NewService(st, orchestrator, []string{"static"}, nil)
}

func newTestRouter(svc *engine.Service) *chi.Mux {
	h := NewEvaluationHandlers(svc)

	r := chi.NewRouter()
	r.Post("/api/v1/evaluations", h.Submit)
	r.Get("/api/v1/evaluations", h.List)
	r.Get("/api/v1/evaluations/{id}", h.Get)
	r.Get("/api/v1/evaluations/{id}/status", h.Status)
	r.Delete("/api/v1/evaluations/{id}", h.Delete)
	r.Get("/api/v1/statistics", h.Statistics)
	return r
}

func waitForJob(t *testing.T, svc *engine.Service, id string) *core.BatchJob {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := svc.Job(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, job)
		if job.Status == core.JobCompleted || job.Status == core.JobFailed {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestSubmitJSONBody(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	body, err := json.Marshal(map[string]string{
		"filename": "queries.sql",
		"content":  "SELECT id, name FROM users WHERE active = 1;",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job core.BatchJob
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "queries.sql", job.Filename)

	finished := waitForJob(t, svc, job.ID)
	assert.Equal(t, core.JobCompleted, finished.Status)
	assert.Equal(t, 1, finished.TotalUnits)
	assert.Greater(t, finished.Score, 0.0)
}

func TestSubmitMultipartUpload(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "report.sql")
	require.NoError(t, err)
	_, err = part.Write([]byte("SELECT * FROM orders;"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code)

	var job core.BatchJob
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&job))
	assert.Equal(t, "report.sql", job.Filename)

	waitForJob(t, svc, job.ID)
}

func TestSubmitRejectsEmptyContent(t *testing.T) {
	router := newTestRouter(newTestService(t))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/evaluations",
		bytes.NewReader([]byte(`{"filename":"empty.sql","content":""}`)))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "INVALID_INPUT", resp.Error.Code)
}

func TestGetReturnsResults(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	manifest := "units:\n" +
		"  - id: lookup\n" +
		"    language: sql\n" +
		"    code: SELECT id FROM users;\n" +
		"  - id: pricing\n" +
		"    language: sql\n" +
		"    code: SELECT name FROM products WHERE price > 10;\n"
	job, err := svc.Submit(context.Background(), "units.yaml", []byte(manifest))
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+job.ID, nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Job     *core.BatchJob           `json:"job"`
		Results []*core.EvaluationResult `json:"results"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Job)
	assert.Equal(t, core.JobCompleted, resp.Job.Status)
	assert.Len(t, resp.Results, 2)
}

func TestGetUnknownJobReturnsNotFound(t *testing.T) {
	router := newTestRouter(newTestService(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/no-such-job", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusEndpoint(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	job, err := svc.Submit(context.Background(), "queries.sql", []byte("SELECT 1;"))
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations/"+job.ID+"/status", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var got core.BatchJob
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, core.JobCompleted, got.Status)
	assert.InDelta(t, 100.0, got.Progress, 0.001)
}

func TestListAndDelete(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	job, err := svc.Submit(context.Background(), "queries.sql", []byte("SELECT 1;"))
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations?limit=10", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var listResp struct {
		Jobs []*core.BatchJob `json:"jobs"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listResp))
	require.Len(t, listResp.Jobs, 1)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/evaluations/"+job.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/evaluations/"+job.ID, nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListRejectsBadLimit(t *testing.T) {
	router := newTestRouter(newTestService(t))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/evaluations?limit=nope", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatisticsEndpoint(t *testing.T) {
	svc := newTestService(t)
	router := newTestRouter(svc)

	job, err := svc.Submit(context.Background(), "queries.sql", []byte("SELECT 1;"))
	require.NoError(t, err)
	waitForJob(t, svc, job.ID)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/statistics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var stats core.Statistics
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalJobs)
	assert.Equal(t, 1, stats.CompletedJobs)
}
