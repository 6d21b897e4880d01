package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/horde-survival/internal/auth"
	"github.com/annel0/horde-survival/internal/config"
	"github.com/annel0/horde-survival/internal/sim"
	"github.com/annel0/horde-survival/internal/storage"
)

func newTestServer(t *testing.T, opts ...func(*Config)) (*RestServer, *storage.MemoryRunRepo, *prometheus.Registry) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := storage.NewMemoryRunRepo()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, outcome := range []string{"victory", "game_over", "victory"} {
		require.NoError(t, repo.Save(context.Background(), storage.RunResult{
			RunID:      "run-" + string(rune('a'+i)),
			Outcome:    outcome,
			Stats:      sim.RunStats{Kills: 10 * (i + 1), Upgrades: []string{"piercing"}},
			FinishedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	reg := prometheus.NewRegistry()
	cfg := Config{Repo: repo, Balance: config.DefaultBalance(), Registry: reg}
	for _, o := range opts {
		o(&cfg)
	}
	rs := NewRestServer(cfg)
	return rs, repo, reg
}

func do(rs *RestServer, method, path string) *httptest.ResponseRecorder {
	return doWith(rs, method, path, "", nil)
}

func doWith(rs *RestServer, method, path, token string, body []byte) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rs.Handler().ServeHTTP(rec, req)
	return rec
}

func withAuth(t *testing.T) func(*Config) {
	hash, err := auth.HashPassword("operator-pw")
	require.NoError(t, err)
	a, err := auth.NewAuthenticator("", map[string]string{"ops": hash}, time.Hour)
	require.NoError(t, err)
	return func(c *Config) { c.Auth = a }
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRecentRuns(t *testing.T) {
	rs, _, _ := newTestServer(t)

	rec := do(rs, http.MethodGet, "/api/runs?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 2, data["total"])
	runs := data["runs"].([]interface{})
	assert.Equal(t, "run-c", runs[0].(map[string]interface{})["run_id"], "новые первыми")

	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/api/runs?limit=abc").Code)
	assert.Equal(t, http.StatusBadRequest, do(rs, http.MethodGet, "/api/runs?limit=0").Code)
}

func TestGetRun(t *testing.T) {
	rs, _, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, do(rs, http.MethodGet, "/api/runs/run-a").Code)
	assert.Equal(t, http.StatusNotFound, do(rs, http.MethodGet, "/api/runs/nope").Code)
}

func TestDeleteRun_DisabledWithoutAuth(t *testing.T) {
	rs, _, _ := newTestServer(t)
	assert.Equal(t, http.StatusForbidden, do(rs, http.MethodDelete, "/api/runs/run-a").Code)
}

func TestDeleteRun_RequiresOperatorToken(t *testing.T) {
	rs, repo, _ := newTestServer(t, withAuth(t))

	assert.Equal(t, http.StatusUnauthorized, do(rs, http.MethodDelete, "/api/runs/run-a").Code)
	assert.Equal(t, http.StatusUnauthorized, doWith(rs, http.MethodDelete, "/api/runs/run-a", "bad", nil).Code)

	rec := doWith(rs, http.MethodPost, "/api/auth/login", "", []byte(`{"username":"ops","password":"nope"}`))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doWith(rs, http.MethodPost, "/api/auth/login", "", []byte(`{"username":"ops","password":"operator-pw"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	token := decode(t, rec)["data"].(map[string]interface{})["token"].(string)

	assert.Equal(t, http.StatusOK, doWith(rs, http.MethodDelete, "/api/runs/run-a", token, nil).Code)
	_, found, err := repo.Load(context.Background(), "run-a")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSummary(t *testing.T) {
	rs, _, _ := newTestServer(t)
	rec := do(rs, http.MethodGet, "/api/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.EqualValues(t, 3, data["runs"])
	assert.InDelta(t, 20.0, data["avg_kills"].(float64), 1e-9)
	assert.EqualValues(t, 3, data["picks"].(map[string]interface{})["piercing"])
}

func TestHealthBalanceAndMetrics(t *testing.T) {
	rs, _, _ := newTestServer(t)

	rec := do(rs, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Trace-Id"))

	assert.Equal(t, http.StatusOK, do(rs, http.MethodGet, "/api/balance").Code)

	rec = do(rs, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "horde_api_http_request_duration_seconds"),
		"метрики запросов попадают в общий регистр")
}
