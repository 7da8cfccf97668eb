package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"melisma/internal/model"
	"melisma/pkg/melisma"
)

func newTestServer(t *testing.T) (*httptest.Server, *melisma.Client) {
	t.Helper()
	client, err := melisma.New(melisma.Options{
		StoreKind:  "memory",
		ExportsDir: t.TempDir(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	server := httptest.NewServer(newRouter(client))
	t.Cleanup(server.Close)
	return server, client
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url string, payload any, out any) int {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestServeListings(t *testing.T) {
	server, _ := newTestServer(t)

	var presets []melisma.PresetInfo
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/presets", &presets))
	assert.Len(t, presets, 4)

	var metrics []melisma.MetricInfo
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/metrics", &metrics))
	assert.Len(t, metrics, 9)

	var pairings []string
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/pairings", &pairings))
	assert.Len(t, pairings, 4)
}

func TestServeGenerateAndQuery(t *testing.T) {
	server, _ := newTestServer(t)

	payload := generatePayload{
		Preset:       "ii-v-i",
		Population:   20,
		Generations:  2,
		EliteCount:   2,
		MutationRate: 0.2,
		Workers:      2,
		Seed:         7,
	}
	var summary melisma.GenerateSummary
	require.Equal(t, http.StatusOK, postJSON(t, server.URL+"/api/generate", payload, &summary))
	require.NotEmpty(t, summary.RunID)
	assert.Equal(t, int64(7), summary.Seed)
	assert.Greater(t, summary.BestFitness, 0.0)

	var runs []model.RunRecord
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/runs", &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, summary.RunID, runs[0].ID)

	var history []float64
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/runs/"+summary.RunID+"/history", &history))
	assert.Len(t, history, 3)

	var diagnostics []model.GenerationDiagnostics
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/runs/"+summary.RunID+"/diagnostics", &diagnostics))
	assert.Len(t, diagnostics, 3)

	var top []model.TopGenomeRecord
	require.Equal(t, http.StatusOK, getJSON(t, server.URL+"/api/runs/"+summary.RunID+"/top", &top))
	require.NotEmpty(t, top)
	assert.Equal(t, 1, top[0].Rank)
}

func TestServeGenerateRejectsBadInput(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/generate", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	status := postJSON(t, server.URL+"/api/generate", generatePayload{Preset: "no-such-preset"}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestServeRunsRejectsBadLimit(t *testing.T) {
	server, _ := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, getJSON(t, server.URL+"/api/runs?limit=abc", nil))
}

func TestServeUnknownRun(t *testing.T) {
	server, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/runs/nope/history", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/runs/nope/diagnostics", nil))
	assert.Equal(t, http.StatusNotFound, getJSON(t, server.URL+"/api/runs/nope/top", nil))
}
