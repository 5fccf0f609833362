package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-planner/internal/core/ai/provider"
	"recipe-planner/internal/core/ai/service"
	"recipe-planner/internal/core/grocery"
	"recipe-planner/internal/core/jobs"
	"recipe-planner/internal/core/recipe"
	"recipe-planner/internal/infrastructure/store"
	"recipe-planner/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	content   string
	deltas    []string
	streamErr error
	calls     int
}

func (f *fakeProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	f.calls++
	return &provider.Response{Content: f.content}, nil
}

func (f *fakeProvider) Stream(ctx context.Context, req *provider.Request, onDelta provider.DeltaFunc) error {
	f.calls++
	if f.streamErr != nil {
		return f.streamErr
	}
	for _, d := range f.deltas {
		if err := onDelta(d); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeProvider) GetModel() string          { return "fake" }
func (f *fakeProvider) GetTimeout() time.Duration { return time.Second }

func newAIRouter(p provider.Provider) (*gin.Engine, *recipe.Repository) {
	gin.SetMode(gin.TestMode)
	ai := service.NewService(p, nil, 1000)
	repo := recipe.NewRepository(store.NewMemoryStore())
	h := NewAIHandler(ai, recipe.NewEnhancementService(ai, repo))

	r := gin.New()
	r.POST("/grocery-list", h.GroceryList)
	r.POST("/recipes/:id/enhance", h.EnhanceRecipe)
	return r, repo
}

const groceryBody = `{"recipes":[{"id":"a","title":"A","ingredients":[{"name":"Salt","amount":1,"unit":"tsp","category":"Spices"},{"name":"Onion","amount":2,"unit":"","category":"Produce"}]}]}`

func postJSON(r http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGroceryListStreamsAIDeltas(t *testing.T) {
	p := &fakeProvider{deltas: []string{`{"ingredients":[`, `{"name":"Onion","category":"Produce"}`, `]}`}}
	r, _ := newAIRouter(p)

	w := postJSON(r, "/grocery-list", groceryBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, grocery.SourceAI, w.Header().Get(jobs.GenerationModeHeader))
	assert.Equal(t, `{"ingredients":[{"name":"Onion","category":"Produce"}]}`, w.Body.String())
	assert.Equal(t, 1, p.calls)
}

func TestGroceryListFallsBackWhenAIFailsEarly(t *testing.T) {
	p := &fakeProvider{streamErr: errors.New("upstream 503")}
	r, _ := newAIRouter(p)

	w := postJSON(r, "/grocery-list", groceryBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, grocery.SourceFallback, w.Header().Get(jobs.GenerationModeHeader))

	var out struct {
		Ingredients []grocery.ShoppableIngredient `json:"ingredients"`
	}
	require.NoError(t, common.ParseJSON(w.Body.String(), &out))
	require.Len(t, out.Ingredients, 2)
	// 分類順序：Produce 在 Spices 之前
	assert.Equal(t, "Onion", out.Ingredients[0].Name)
	assert.Equal(t, "Salt", out.Ingredients[1].Name)
}

func TestGroceryListFallbackWhenDisabled(t *testing.T) {
	r, _ := newAIRouter(nil)

	w := postJSON(r, "/grocery-list", `{"recipes":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, grocery.SourceFallback, w.Header().Get(jobs.GenerationModeHeader))
	assert.Equal(t, `{"ingredients":[]}`, w.Body.String())
}

func TestGroceryListRejectsMissingRecipes(t *testing.T) {
	r, _ := newAIRouter(nil)
	w := postJSON(r, "/grocery-list", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid request format")
}

func TestEnhanceRecipeReturnsData(t *testing.T) {
	p := &fakeProvider{content: "```json\n{\"description\":\"Warm soup\",\"tags\":[\"soup\"],\"ingredientCategories\":{\"carrot\":\"produce\"}}\n```"}
	r, repo := newAIRouter(p)
	require.NoError(t, repo.Save(context.Background(), &recipe.Recipe{ID: "soup", Title: "Soup"}))

	w := postJSON(r, "/recipes/soup/enhance", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"success":true`)
	assert.Contains(t, w.Body.String(), `"description":"Warm soup"`)

	rec, err := repo.Get(context.Background(), "soup")
	require.NoError(t, err)
	assert.Nil(t, rec.Enhancement)
}

func TestEnhanceRecipeErrors(t *testing.T) {
	r, _ := newAIRouter(&fakeProvider{content: "{}"})

	w := postJSON(r, "/recipes/ghost/enhance", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"success":false`)

	r, repo := newAIRouter(nil)
	require.NoError(t, repo.Save(context.Background(), &recipe.Recipe{ID: "soup", Title: "Soup"}))
	w = postJSON(r, "/recipes/soup/enhance", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), common.ErrAIDisabled.Code)
}
