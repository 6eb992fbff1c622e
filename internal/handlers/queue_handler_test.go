package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"queue-backend/internal/models"
	"queue-backend/internal/repositories"
	"queue-backend/internal/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRouter wires the handlers over a real service and the in-memory
// store, the same composition the server uses in memory mode
func testRouter(t *testing.T) (*mux.Router, *services.QueueService) {
	t.Helper()

	store := repositories.NewMemoryQueueRepository()
	_, err := store.CreateCounter(context.Background(), "Counter 1")
	require.NoError(t, err)

	svc := services.NewQueueService(store, nil, time.Second)
	estimator := services.NewWaitEstimator(store, 2)

	queueHandler := NewQueueHandler(svc)
	counterHandler := NewCounterHandler(svc)
	statsHandler := NewStatsHandler(svc, estimator)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/tokens", queueHandler.IssueToken).Methods(http.MethodPost)
	api.HandleFunc("/tokens/{id}", queueHandler.GetToken).Methods(http.MethodGet)
	api.HandleFunc("/tokens/{id}/served", queueHandler.MarkServed).Methods(http.MethodPost)
	api.HandleFunc("/tokens/{id}/return", queueHandler.ReturnToQueue).Methods(http.MethodPost)
	api.HandleFunc("/queue", queueHandler.GetQueue).Methods(http.MethodGet)
	api.HandleFunc("/queue/serve", queueHandler.ServeNext).Methods(http.MethodPost)
	api.HandleFunc("/queue/skip", queueHandler.SkipCurrent).Methods(http.MethodPost)
	api.HandleFunc("/queue/reset", queueHandler.ResetQueue).Methods(http.MethodPost)
	api.HandleFunc("/stats", statsHandler.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/stats/reset", statsHandler.ResetStats).Methods(http.MethodPost)
	api.HandleFunc("/wait-estimate", statsHandler.GetWaitEstimate).Methods(http.MethodGet)
	api.HandleFunc("/counters", counterHandler.ListCounters).Methods(http.MethodGet)
	api.HandleFunc("/counters", counterHandler.CreateCounter).Methods(http.MethodPost)
	api.HandleFunc("/counters/{id}", counterHandler.UpdateCounter).Methods(http.MethodPatch)

	return r, svc
}

func doRequest(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestIssueTokenEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/tokens", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var token models.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, 1, token.Number)
	assert.Equal(t, models.StatusWaiting, token.Status)
	assert.NotEmpty(t, token.ID)
}

func TestServeNextEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(t, router, http.MethodPost, "/api/tokens", "")

	rec := doRequest(t, router, http.MethodPost, "/api/queue/serve", `{"counter_id": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var token models.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	assert.Equal(t, models.StatusServing, token.Status)
}

func TestServeNextEndpointErrors(t *testing.T) {
	router, _ := testRouter(t)

	// Empty queue
	rec := doRequest(t, router, http.MethodPost, "/api/queue/serve", `{"counter_id": 1}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	// No counter selected
	doRequest(t, router, http.MethodPost, "/api/tokens", "")
	rec = doRequest(t, router, http.MethodPost, "/api/queue/serve", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Malformed body
	rec = doRequest(t, router, http.MethodPost, "/api/queue/serve", `{"counter_id": `)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkServedEndpointErrors(t *testing.T) {
	router, _ := testRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/tokens/nope/served", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	issue := doRequest(t, router, http.MethodPost, "/api/tokens", "")
	var token models.Token
	require.NoError(t, json.Unmarshal(issue.Body.Bytes(), &token))

	// Still waiting, not serving
	rec = doRequest(t, router, http.MethodPost, "/api/tokens/"+token.ID+"/served", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestFullServeCycleOverHTTP(t *testing.T) {
	router, _ := testRouter(t)

	issue := doRequest(t, router, http.MethodPost, "/api/tokens", "")
	var token models.Token
	require.NoError(t, json.Unmarshal(issue.Body.Bytes(), &token))

	serve := doRequest(t, router, http.MethodPost, "/api/queue/serve", `{"counter_id": 1}`)
	require.Equal(t, http.StatusOK, serve.Code)

	served := doRequest(t, router, http.MethodPost, "/api/tokens/"+token.ID+"/served", "")
	require.Equal(t, http.StatusOK, served.Code)

	var final models.Token
	require.NoError(t, json.Unmarshal(served.Body.Bytes(), &final))
	assert.Equal(t, models.StatusServed, final.Status)
	require.NotNil(t, final.ServedAt)

	stats := doRequest(t, router, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, stats.Code)
	assert.Contains(t, stats.Body.String(), `"tokens_served_today":1`)
}

func TestQueueSnapshotEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(t, router, http.MethodPost, "/api/tokens", "")
	doRequest(t, router, http.MethodPost, "/api/tokens", "")

	rec := doRequest(t, router, http.MethodGet, "/api/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var snapshot models.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snapshot))
	assert.Equal(t, 2, snapshot.WaitingCount)
	assert.Len(t, snapshot.Tokens, 2)
	assert.Equal(t, 3, snapshot.State.NextTokenNumber)
	assert.False(t, snapshot.GeneratedAt.IsZero())
}

func TestResetEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	doRequest(t, router, http.MethodPost, "/api/tokens", "")

	rec := doRequest(t, router, http.MethodPost, "/api/queue/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)

	snap := doRequest(t, router, http.MethodGet, "/api/queue", "")
	assert.Contains(t, snap.Body.String(), `"waiting_count":0`)

	rec = doRequest(t, router, http.MethodPost, "/api/stats/reset", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestWaitEstimateEndpoint(t *testing.T) {
	router, _ := testRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/wait-estimate?position=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/wait-estimate?position=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"available":false`)
}

func TestCounterEndpoints(t *testing.T) {
	router, _ := testRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/counters", `{"name": "Express"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var counter models.Counter
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &counter))
	assert.True(t, counter.IsActive)

	rec = doRequest(t, router, http.MethodPost, "/api/counters", `{"name": "  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPatch, "/api/counters/1", `{"is_active": false}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)

	rec = doRequest(t, router, http.MethodPatch, "/api/counters/1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	list := doRequest(t, router, http.MethodGet, "/api/counters", "")
	require.Equal(t, http.StatusOK, list.Code)

	var counters []models.Counter
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &counters))
	assert.Len(t, counters, 2)
}
