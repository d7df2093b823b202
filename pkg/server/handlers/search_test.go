package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poliqa/poliqa/pkg/orchestrator"
	"github.com/poliqa/poliqa/pkg/types"
)

type stubEngine struct {
	response  *types.SearchResponse
	err       error
	healthErr error
	lastReq   *types.SearchRequest
}

func (s *stubEngine) Search(ctx context.Context, req *types.SearchRequest) (*types.SearchResponse, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.response, nil
}

func (s *stubEngine) CacheStats() orchestrator.CacheStats {
	return orchestrator.CacheStats{Size: 3, Hits: 7, Misses: 3, HitRate: 0.7}
}

func (s *stubEngine) Health(ctx context.Context) error {
	return s.healthErr
}

func setupRouter(engine Engine) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	searchHandler := NewSearchHandler(engine)
	healthHandler := NewHealthHandler(engine)
	router.POST("/api/v1/search", searchHandler.Search)
	router.GET("/api/v1/stats", searchHandler.Stats)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestSearchEndpoint(t *testing.T) {
	engine := &stubEngine{response: &types.SearchResponse{
		Strategy:   types.StrategyStandard,
		Success:    true,
		TotalCount: 1,
		Results: []types.FusedResult{{
			RetrievalResult: types.RetrievalResult{NodeID: "cov-1", Content: "암진단특약"},
			FusedScore:      0.016,
			Rank:            1,
		}},
	}}
	router := setupRouter(engine)

	w := postJSON(t, router, "/api/v1/search", map[string]interface{}{
		"query":    "갑상선암 보장 금액은?",
		"strategy": "comprehensive",
		"top_k":    20,
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp types.SearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 1, resp.TotalCount)

	require.NotNil(t, engine.lastReq)
	assert.Equal(t, types.StrategyComprehensive, engine.lastReq.Strategy)
	assert.Equal(t, 20, engine.lastReq.TopK)
	assert.True(t, engine.lastReq.UseCache, "cache defaults to on over HTTP")
}

func TestSearchEndpointRejectsMissingQuery(t *testing.T) {
	router := setupRouter(&stubEngine{})

	w := postJSON(t, router, "/api/v1/search", map[string]interface{}{"top_k": 5})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointRejectsEmptyQueryFromEngine(t *testing.T) {
	router := setupRouter(&stubEngine{err: types.ErrEmptyQuery})

	w := postJSON(t, router, "/api/v1/search", map[string]interface{}{"query": " "})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchEndpointUnknownStrategyDefaultsToStandard(t *testing.T) {
	engine := &stubEngine{response: &types.SearchResponse{Success: true}}
	router := setupRouter(engine)

	w := postJSON(t, router, "/api/v1/search", map[string]interface{}{
		"query":    "암 보장",
		"strategy": "turbo",
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, types.StrategyStandard, engine.lastReq.Strategy)
}

func TestStatsEndpoint(t *testing.T) {
	router := setupRouter(&stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Cache orchestrator.CacheStats `json:"cache"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(7), body.Cache.Hits)
}

func TestHealthEndpoints(t *testing.T) {
	router := setupRouter(&stubEngine{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReadinessFailsWhenStoreDown(t *testing.T) {
	router := setupRouter(&stubEngine{healthErr: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
