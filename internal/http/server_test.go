package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartridge/experience/internal/events"
	"github.com/cartridge/experience/internal/replay"
	"github.com/cartridge/experience/internal/service"
)

func newTestServer(t *testing.T, capacity, batchSize int) *Server {
	t.Helper()
	store, err := replay.New(capacity)
	require.NoError(t, err)
	logger := zerolog.New(io.Discard)
	sampler := service.NewSampler(store, batchSize, events.NoopPublisher{}, logger)
	return NewServer(sampler, logger)
}

func postJSON(t *testing.T, h http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	h.ServeHTTP(res, req)
	return res
}

func TestStoreSampleUpdateLifecycle(t *testing.T) {
	server := newTestServer(t, 100, 2)
	routes := server.Routes()

	// Sampling an empty buffer is not an error, just no content yet.
	res := postJSON(t, routes, "/api/v1/sample", map[string]any{})
	assert.Equal(t, http.StatusNoContent, res.Code)

	for i := 0; i < 4; i++ {
		res = postJSON(t, routes, "/api/v1/transitions", map[string]any{
			"state":  []float32{float32(i), float32(i)},
			"action": i,
			"reward": float32(i) * 0.5,
		})
		require.Equal(t, http.StatusCreated, res.Code)

		var created struct {
			Index int `json:"index"`
		}
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &created))
		assert.Equal(t, i, created.Index)
	}

	res = postJSON(t, routes, "/api/v1/transitions/terminal", nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = postJSON(t, routes, "/api/v1/sample", map[string]any{})
	require.Equal(t, http.StatusOK, res.Code)

	var batch replay.Batch
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &batch))
	require.Equal(t, 2, batch.Len())
	assert.Len(t, batch.States, 2)
	assert.Len(t, batch.NextStates, 2)

	res = postJSON(t, routes, "/api/v1/priorities", map[string]any{
		"priorities": []float64{0.4, 1.2},
		"indices":    batch.Indices,
	})
	require.Equal(t, http.StatusOK, res.Code)
}

func TestAddTransitionValidation(t *testing.T) {
	server := newTestServer(t, 10, 2)
	routes := server.Routes()

	res := postJSON(t, routes, "/api/v1/transitions", map[string]any{
		"action": 1,
		"reward": 0.5,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = postJSON(t, routes, "/api/v1/transitions", map[string]any{
		"state":  []float32{1},
		"action": -2,
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/transitions", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	routes.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTerminalOnEmptyBuffer(t *testing.T) {
	server := newTestServer(t, 10, 2)
	res := postJSON(t, server.Routes(), "/api/v1/transitions/terminal", nil)
	assert.Equal(t, http.StatusConflict, res.Code)
}

func TestUpdatePrioritiesMismatch(t *testing.T) {
	server := newTestServer(t, 10, 2)
	res := postJSON(t, server.Routes(), "/api/v1/priorities", map[string]any{
		"priorities": []float64{1.0},
		"indices":    []int{0, 1},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Code)
}

func TestStats(t *testing.T) {
	server := newTestServer(t, 10, 2)
	routes := server.Routes()

	postJSON(t, routes, "/api/v1/transitions", map[string]any{"state": []float32{1}, "action": 0, "reward": 2.0})
	postJSON(t, routes, "/api/v1/transitions", map[string]any{"state": []float32{2}, "action": 1, "reward": 4.0})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	res := httptest.NewRecorder()
	routes.ServeHTTP(res, req)
	require.Equal(t, http.StatusOK, res.Code)

	var stats service.Stats
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.BufferLen)
	assert.Equal(t, 10, stats.Capacity)
	assert.Equal(t, 1, stats.TreeSize)
	assert.InDelta(t, 3.0, stats.RewardMean, 1e-6)
}

func TestHealthz(t *testing.T) {
	server := newTestServer(t, 10, 2)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	server.Routes().ServeHTTP(res, req)
	assert.Equal(t, http.StatusOK, res.Code)
	assert.NotEmpty(t, res.Header().Get("X-Correlation-ID"))
}
