package transactions

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo Repository) *chi.Mux {
	return newTestRouterWithQueue(repo, nil)
}

func newTestRouterWithQueue(repo Repository, queue SweepQueue) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, NewService(repo, logger, 30*24*time.Hour), queue)
	r := chi.NewRouter()
	handler.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func TestHandlerCreateAndShow(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rec := doJSON(t, router, http.MethodPost, "/transactions", `{
		"customer_name": "Siti Rahayu",
		"product_total": 100,
		"shipping_cost": 10,
		"tax_amount": 7.5,
		"total_amount": 117.5,
		"transaction_date": "2026-01-15T00:00:00Z"
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.True(t, env.Success)

	var created Transaction
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, StatusCompleted, created.Status)
	assert.Equal(t, SourceAdmin, created.Source)

	rec = doJSON(t, router, http.MethodGet, fmt.Sprintf("/transactions/%d", created.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestHandlerShowNotFound(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := doJSON(t, router, http.MethodGet, "/transactions/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
	assert.NotEmpty(t, env.Error)
}

func TestHandlerUpdateRefund(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	tx := seedCompleted(t, repo, 250, time.Now())

	rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/transactions/%d", tx.ID), `{
		"status": "refunded",
		"refund_amount": 100,
		"refund_reason": "one shirt returned"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var updated Transaction
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, StatusRefunded, updated.Status)
	require.NotNil(t, updated.RefundDate)
}

func TestHandlerUpdateRejectsExcessRefund(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	tx := seedCompleted(t, repo, 250, time.Now())

	rec := doJSON(t, router, http.MethodPatch, fmt.Sprintf("/transactions/%d", tx.ID), `{
		"status": "refunded",
		"refund_amount": 500
	}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.False(t, env.Success)
}

func TestHandlerListStatusFilter(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	seedCompleted(t, repo, 100, time.Now())

	rec := doJSON(t, router, http.MethodGet, "/transactions?status=completed", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/transactions?status=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlerSweep(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	seedCompleted(t, repo, 100, time.Now().Add(-31*24*time.Hour))
	seedCompleted(t, repo, 100, time.Now())

	rec := doJSON(t, router, http.MethodPost, "/transactions/update-status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	env := decodeEnvelope(t, rec)
	var resp struct {
		Updated int `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, 1, resp.Updated)
}

type stubSweepQueue struct {
	requestedBy []string
}

func (s *stubSweepQueue) EnqueueTransactionsSweep(_ context.Context, requestedBy string) error {
	s.requestedBy = append(s.requestedBy, requestedBy)
	return nil
}

func TestHandlerSweepAsyncEnqueues(t *testing.T) {
	repo := newMockRepository()
	queue := &stubSweepQueue{}
	router := newTestRouterWithQueue(repo, queue)
	stale := seedCompleted(t, repo, 100, time.Now().Add(-31*24*time.Hour))

	rec := doJSON(t, router, http.MethodPost, "/transactions/update-status?async=1", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Len(t, queue.requestedBy, 1)

	// The work was handed to the queue, not run inline.
	got, err := repo.Get(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
}

func TestHandlerSweepAsyncWithoutQueue(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rec := doJSON(t, router, http.MethodPost, "/transactions/update-status?async=1", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandlerListEndDateCoversWholeDay(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)
	seedCompleted(t, repo, 100, time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC))

	rec := doJSON(t, router, http.MethodGet, "/transactions?end_date=2026-01-15", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.lastFilters)
	require.NotNil(t, repo.lastFilters.EndDate)
	assert.True(t, repo.lastFilters.EndDate.After(time.Date(2026, 1, 15, 18, 30, 0, 0, time.UTC)))
	assert.True(t, repo.lastFilters.EndDate.Before(time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)))
}
