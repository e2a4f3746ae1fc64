package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/acca-engine/internal/builder"
	"github.com/yourusername/acca-engine/internal/config"
	"github.com/yourusername/acca-engine/internal/datasource"
	"github.com/yourusername/acca-engine/internal/probability"
	"github.com/yourusername/acca-engine/internal/storage"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cfg := &config.Config{
		App: config.AppConfig{
			Name:        "acca-engine-test",
			Environment: "development",
			LogLevel:    "panic",
		},
		Server: config.ServerConfig{Port: 0},
		OddsAPI: config.OddsAPIConfig{
			BaseURL:            "https://api.example.com/v3",
			DefaultSport:       "soccer_epl",
			Region:             "uk",
			RateLimitPerSecond: 10,
			MonthlyRequestCap:  500,
			TimeoutSeconds:     5,
			MaxRetries:         1,
			CacheTTLSeconds:    60,
		},
		Builder: config.BuilderConfig{
			MinSelections:        2,
			MaxSelections:        4,
			ProbabilityThreshold: 0.8,
			OddsRangeLow:         100,
			OddsRangeHigh:        1000,
		},
		Storage: config.StorageConfig{Path: filepath.Join(t.TempDir(), "acca.json")},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	store, err := storage.NewStore(cfg.Storage.Path, logger)
	require.NoError(t, err)

	model := probability.NewModel(logger)
	oddsClient := datasource.NewClient(cfg.OddsAPI, logger)
	t.Cleanup(func() { oddsClient.Close() })

	return New(cfg, store, oddsClient, model, builder.NewBuilder(model, logger), logger)
}

func doRequest(t *testing.T, srv *Server, method, target string, body []byte) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	var resp envelope
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec, resp
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "ok", body["status"])
	require.Equal(t, "acca-engine-test", body["service"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestFetchOddsStoresSnapshot(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/odds", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Count)
	require.Greater(t, *resp.Count, 0)

	// The fetch must persist the snapshot for later endpoints
	require.Len(t, srv.store.GetSelections(), *resp.Count)
}

func TestStoredOddsEmptyByDefault(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/odds/stored", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Count)
	require.Equal(t, 0, *resp.Count)
}

func TestSportsEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/odds/sports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
}

func TestProbabilityBreakdown(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.store.SaveSelections(datasource.MockSelections()))

	id := srv.store.GetSelections()[0].ID

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/odds/"+id.String()+"/probability", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Data)
}

func TestProbabilityBreakdownBadID(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/odds/not-a-uuid/probability", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, resp.Success)
}

func TestProbabilityBreakdownUnknownID(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet,
		"/api/odds/00000000-0000-0000-0000-000000000001/probability", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.False(t, resp.Success)
}

func TestBuildAccumulatorsEmptyStore(t *testing.T) {
	srv := newTestServer(t)

	rec, resp := doRequest(t, srv, http.MethodGet, "/api/accumulators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.Equal(t, "No odds available. Please fetch odds first.", resp.Message)
}

func TestBuildAccumulatorsRejectsBadParams(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name  string
		query string
	}{
		{"min below 2", "/api/accumulators?minSelections=1"},
		{"max below 2", "/api/accumulators?maxSelections=1"},
		{"non-numeric min", "/api/accumulators?minSelections=abc"},
		{"min above max", "/api/accumulators?minSelections=4&maxSelections=3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doRequest(t, srv, http.MethodGet, tt.query, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.False(t, resp.Success)
		})
	}
}

func TestBuildAccumulatorsWithMockOdds(t *testing.T) {
	srv := newTestServer(t)
	require.NoError(t, srv.store.SaveSelections(datasource.MockSelections()))

	// Without historical stats no mock leg clears the default threshold, so
	// the build succeeds with an empty result set.
	rec, resp := doRequest(t, srv, http.MethodGet, "/api/accumulators", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)
	require.NotNil(t, resp.Count)
	require.Equal(t, 0, *resp.Count)
}

func TestCalculateCustom(t *testing.T) {
	srv := newTestServer(t)
	selections := datasource.MockSelections()
	require.NoError(t, srv.store.SaveSelections(selections))

	// Home legs from the two distinct mock events: 2.5 * 2.2 = 5.5 -> +450
	payload, err := json.Marshal(map[string][]string{
		"selection_ids": {selections[0].ID.String(), selections[2].ID.String()},
	})
	require.NoError(t, err)

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/accumulators/calculate", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var result struct {
		CombinedAmericanOdds int `json:"combined_american_odds"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	require.Equal(t, 450, result.CombinedAmericanOdds)
}

func TestCalculateCustomRejectsSameEvent(t *testing.T) {
	srv := newTestServer(t)
	selections := datasource.MockSelections()
	require.NoError(t, srv.store.SaveSelections(selections))

	payload, err := json.Marshal(map[string][]string{
		"selection_ids": {selections[0].ID.String(), selections[1].ID.String()},
	})
	require.NoError(t, err)

	rec, resp := doRequest(t, srv, http.MethodPost, "/api/accumulators/calculate", payload)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, resp.Success)
	require.Equal(t, "invalid accumulator combination", resp.Error)
}

func TestCalculateCustomValidation(t *testing.T) {
	srv := newTestServer(t)

	rec, _ := doRequest(t, srv, http.MethodPost, "/api/accumulators/calculate", []byte("{"))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doRequest(t, srv, http.MethodPost, "/api/accumulators/calculate",
		[]byte(`{"selection_ids": []}`))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpsertStat(t *testing.T) {
	srv := newTestServer(t)

	payload := []byte(`{"team": "Arsenal", "sport": "Soccer", "win_rate": 62.5, "recent_form": "WWLDW"}`)
	rec, resp := doRequest(t, srv, http.MethodPost, "/api/stats", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, resp.Success)

	// The upsert must reload the probability model snapshot
	require.Equal(t, 1, srv.model.StatsCount())

	rec, resp = doRequest(t, srv, http.MethodGet, "/api/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, resp.Count)
	require.Equal(t, 1, *resp.Count)
}

func TestUpsertStatValidation(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name    string
		payload string
	}{
		{"missing team", `{"sport": "Soccer", "win_rate": 50}`},
		{"missing win rate", `{"team": "Arsenal", "sport": "Soccer"}`},
		{"win rate above 100", `{"team": "Arsenal", "sport": "Soccer", "win_rate": 120}`},
		{"bad form string", `{"team": "Arsenal", "sport": "Soccer", "win_rate": 50, "recent_form": "WXW"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, resp := doRequest(t, srv, http.MethodPost, "/api/stats", []byte(tt.payload))
			require.Equal(t, http.StatusBadRequest, rec.Code)
			require.False(t, resp.Success)
		})
	}
}
