package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/planner"
	"recipe-planner/internal/core/tracker"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/infrastructure/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		App:    config.AppConfig{Env: "test", Version: "test"},
		Server: config.ServerConfig{Port: 8080, WriteTimeout: 10 * time.Second, MaxBodyBytes: 1 << 20},
		Store:  config.StoreConfig{Driver: "memory"},
		Generation: config.GenerationConfig{
			GroceryURL: baseURL + "/api/v1/ai/grocery-list",
			EnhanceURL: baseURL + "/api/v1/ai/recipes/{recipeId}/enhance",
			Timeout:    5 * time.Second,
		},
		Archive:     config.ArchiveConfig{URL: baseURL + "/api/v1/archive/weeks", Timeout: 5 * time.Second, Concurrency: 2},
		Tracker:     config.TrackerConfig{CompleteTTL: time.Minute, StaleAfter: 45 * time.Second},
		Cache:       config.CacheConfig{Enabled: false},
		Queue:       config.QueueConfig{Workers: 2, MaxSize: 8},
		RateLimit:   config.RateLimitConfig{Enabled: false},
		DedupWindow: 10 * time.Millisecond,
	}
}

type testServer struct {
	url      string
	services *Services
}

// newTestServer 啟動完整服務，生成與封存端點指向自己
func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	srv := httptest.NewUnstartedServer(nil)
	baseURL := "http://" + srv.Listener.Addr().String()

	cfg := testConfig(baseURL)
	services := NewServices(cfg, store.NewMemoryStore())
	services.Start(context.Background())
	srv.Config.Handler = SetupRouter(cfg, services)
	srv.Start()

	t.Cleanup(func() {
		srv.Close()
		_ = services.Close(context.Background())
	})
	return &testServer{url: baseURL, services: services}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) (int, []byte) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, s.url+path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

var soup = map[string]interface{}{
	"title": "Soup",
	"ingredients": []map[string]interface{}{
		{"name": "Carrot", "amount": 2, "unit": "pc", "category": "Produce"},
		{"name": "Salt", "amount": "a pinch", "unit": "", "category": "Spices"},
	},
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/health", "/ready", "/live"} {
		code, _ := s.do(t, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, code, path)
	}
	code, _ := s.do(t, http.MethodGet, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestRecipeAndPlanFlow(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPut, "/api/v1/recipes/soup", soup)
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(t, http.MethodGet, "/api/v1/recipes/soup", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"title":"Soup"`)

	code, _ = s.do(t, http.MethodGet, "/api/v1/recipes/ghost", nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/families/fam/recipes/soup/plan", map[string]string{"date": "2024-01-03", "mealType": "dinner"})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPut, "/api/v1/families/fam/recipes/soup/plan", map[string]string{"date": "Wednesday"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, body = s.do(t, http.MethodGet, "/api/v1/families/fam/plan?week=2024-01-05", nil)
	require.Equal(t, http.StatusOK, code)
	var plan planner.Plan
	require.NoError(t, json.Unmarshal(body, &plan))
	assert.Equal(t, "2024-01-01", plan.ActiveWeekStart)
	require.Len(t, plan.Recipes, 1)
	assert.Equal(t, "Wednesday", plan.Recipes[0].Day)

	code, _ = s.do(t, http.MethodPut, "/api/v1/users/u1/week", map[string]string{"date": "2024-01-10"})
	require.Equal(t, http.StatusOK, code)
	code, body = s.do(t, http.MethodGet, "/api/v1/families/fam/plan?user=u1", nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &plan))
	assert.Equal(t, "2024-01-08", plan.ActiveWeekStart)
	assert.Empty(t, plan.Recipes)

	code, _ = s.do(t, http.MethodDelete, "/api/v1/families/fam/recipes/soup/plan", nil)
	assert.Equal(t, http.StatusNoContent, code)
}

func TestAggregateEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/v1/grocery/aggregate", map[string]interface{}{
		"recipes": []map[string]interface{}{
			{"id": "a", "title": "A", "ingredients": []map[string]interface{}{{"name": "egg", "amount": 2, "unit": ""}}},
			{"id": "b", "title": "B", "ingredients": []map[string]interface{}{{"name": "Egg", "amount": 1, "unit": ""}}},
		},
	})
	require.Equal(t, http.StatusOK, code)

	var resp struct {
		Ingredients []grocery.ShoppableIngredient `json:"ingredients"`
		Lines       []string                      `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	require.Len(t, resp.Ingredients, 1)
	assert.Equal(t, 3.0, resp.Ingredients[0].PurchaseAmount)
	assert.Equal(t, []string{"3 egg (A, B)"}, resp.Lines)
}

func TestGroceryGenerationFallsBackWithoutAI(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodPost, "/api/v1/grocery/generate", map[string]interface{}{
		"userId":    "u1",
		"weekStart": "2024-01-03",
		"recipes":   []interface{}{map[string]interface{}{"id": "soup", "title": "Soup", "ingredients": soup["ingredients"]}},
	})
	require.Equal(t, http.StatusAccepted, code, string(body))

	var doc grocery.GroceryList
	require.Eventually(t, func() bool {
		var cur grocery.GroceryList
		if err := s.services.Store.Get(context.Background(), grocery.ListPath("u1", "2024-01-01"), &cur); err != nil {
			return false
		}
		doc = cur
		return cur.Status != grocery.ListProcessing
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, grocery.ListComplete, doc.Status)
	assert.Equal(t, grocery.SourceFallback, doc.Source)
	assert.Len(t, doc.Ingredients, 2)

	code, body = s.do(t, http.MethodGet, "/api/v1/grocery/lists/u1/2024-01-01", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"name":"Produce"`)

	require.Eventually(t, func() bool {
		op, ok := s.services.Tracker.Get("grocery-u1_2024-01-01")
		return ok && op.Status == tracker.StatusFallback
	}, 3*time.Second, 10*time.Millisecond)
}

func TestEnhanceWithoutAIEndsInError(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPut, "/api/v1/recipes/soup", soup)
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/v1/recipes/soup/enhance", nil)
	require.Equal(t, http.StatusAccepted, code)

	require.Eventually(t, func() bool {
		op, ok := s.services.Tracker.Get("enhance-soup")
		return ok && op.Status == tracker.StatusError
	}, 3*time.Second, 10*time.Millisecond)

	code, body := s.do(t, http.MethodGet, "/api/v1/operations", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "enhance-soup")

	code, _ = s.do(t, http.MethodDelete, "/api/v1/operations/enhance-soup", nil)
	assert.Equal(t, http.StatusNoContent, code)
	code, _ = s.do(t, http.MethodDelete, "/api/v1/operations/enhance-soup", nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCancelAllOperations(t *testing.T) {
	s := newTestServer(t)
	s.services.Tracker.Start(tracker.Operation{ID: "grocery-x", Cancelable: true})
	s.services.Tracker.Start(tracker.Operation{ID: "enhance-y"})

	code, body := s.do(t, http.MethodPost, "/api/v1/operations/cancel", nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"cancelled":1}`, string(body))
	assert.Len(t, s.services.Tracker.List(), 1)
}

func TestRolloverArchivesThroughOwnEndpoint(t *testing.T) {
	s := newTestServer(t)

	code, _ := s.do(t, http.MethodPut, "/api/v1/families/fam/recipes/soup/plan", map[string]string{"date": "2020-03-04"})
	require.Equal(t, http.StatusOK, code)

	code, body := s.do(t, http.MethodPost, "/api/v1/families/fam/rollover", nil)
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Contains(t, string(body), `"archived":["2020-03-02"]`)

	code, body = s.do(t, http.MethodGet, "/api/v1/archive/weeks/fam/2020-03-02", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), `"mealCount":1`)

	entries, err := s.services.PlanCache.Entries(context.Background(), "fam")
	require.NoError(t, err)
	assert.Empty(t, entries)
}
