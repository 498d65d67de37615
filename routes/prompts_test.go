package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/broker"
	"promptvault/models"
	"promptvault/services"
	"promptvault/storage"
	"promptvault/testutils"
)

type routerEnv struct {
	router   *gin.Engine
	repo     *storage.VaultRepository
	index    *services.PromptIndex
	tags     *services.TagService
	groups   *services.GroupService
	versions *services.VersionService
}

func newTestRouter(t *testing.T) *routerEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	_, repo, store := testutils.NewMemoryVault()
	bus := broker.NewBus()
	t.Cleanup(bus.Close)

	index := services.NewPromptIndex(repo, bus)
	tags := services.NewTagService(store, index, bus)
	groups := services.NewGroupService(store, index, bus)
	versions := services.NewVersionService(index, bus)
	flush := services.NewFlushService(versions, 10*time.Millisecond)
	t.Cleanup(flush.Stop)

	router := gin.New()
	api := router.Group("/api/v1")
	RegisterPromptRoutes(api, index, tags, groups)
	RegisterVersionRoutes(api, versions, flush)
	RegisterNoteRoutes(api, services.NewNoteService(index, bus))
	RegisterTagRoutes(api, tags)
	RegisterGroupRoutes(api, groups)
	RegisterCompareRoutes(api, services.NewCompareService(index))

	return &routerEnv{
		router:   router,
		repo:     repo,
		index:    index,
		tags:     tags,
		groups:   groups,
		versions: versions,
	}
}

func (e *routerEnv) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *routerEnv) createPrompt(t *testing.T, name string, contents ...string) models.Prompt {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/v1/prompts", services.CreatePromptRequest{
		Name:     name,
		Versions: testutils.SampleVersions(contents...),
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var prompt models.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &prompt))
	return prompt
}

func TestCreatePromptRoute(t *testing.T) {
	env := newTestRouter(t)

	prompt := env.createPrompt(t, "Greeting", "hello")
	assert.NotEmpty(t, prompt.ID)
	assert.Equal(t, "Greeting", prompt.Name)

	w := env.do(t, http.MethodPost, "/api/v1/prompts", services.CreatePromptRequest{Name: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "error")
}

func TestGetPromptRoutes(t *testing.T) {
	env := newTestRouter(t)
	prompt := env.createPrompt(t, "Greeting", "hello")

	w := env.do(t, http.MethodGet, "/api/v1/prompts/"+prompt.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/prompts/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/prompts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var list []models.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestGetPrompts_FavoriteFilter(t *testing.T) {
	env := newTestRouter(t)
	fav := env.createPrompt(t, "Starred", "a")
	env.createPrompt(t, "Plain", "b")

	w := env.do(t, http.MethodPut, "/api/v1/prompts/"+fav.ID, map[string]interface{}{"isFavorite": true})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/prompts?favorite=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, fav.ID, list[0].ID)
}

func TestUpdatePromptRoute(t *testing.T) {
	env := newTestRouter(t)
	prompt := env.createPrompt(t, "Before", "hello")

	w := env.do(t, http.MethodPut, "/api/v1/prompts/"+prompt.ID, map[string]interface{}{"name": "After"})
	require.Equal(t, http.StatusOK, w.Code)

	var updated models.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "After", updated.Name)

	w = env.do(t, http.MethodPut, "/api/v1/prompts/missing", map[string]interface{}{"name": "X"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/v1/prompts/"+prompt.ID, map[string]interface{}{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeletePromptRoute_DetachesAssociations(t *testing.T) {
	env := newTestRouter(t)
	prompt := env.createPrompt(t, "Greeting", "hello")

	tag, err := env.tags.AddTag("ops")
	require.NoError(t, err)
	require.NoError(t, env.tags.AssignTag(tag.ID, prompt.ID))

	w := env.do(t, http.MethodDelete, "/api/v1/prompts/"+prompt.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	gotTag, err := env.tags.Get(tag.ID)
	require.NoError(t, err)
	assert.False(t, gotTag.HasPrompt(prompt.ID))

	w = env.do(t, http.MethodDelete, "/api/v1/prompts/"+prompt.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRefreshPromptsRoute(t *testing.T) {
	env := newTestRouter(t)

	// a prompt written by another process appears after refresh
	outside := models.Prompt{
		ID:       "outside",
		Name:     "From disk",
		Versions: testutils.SampleVersions("hi"),
	}
	require.NoError(t, env.repo.Create(&outside))

	w := env.do(t, http.MethodPost, "/api/v1/prompts/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list []models.Prompt
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)
}

func TestSelectionRoutes(t *testing.T) {
	env := newTestRouter(t)
	prompt := env.createPrompt(t, "Greeting", "hello")

	w := env.do(t, http.MethodGet, "/api/v1/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), prompt.ID, "create selects the new prompt")

	w = env.do(t, http.MethodPut, "/api/v1/selection", map[string]string{"id": ""})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/v1/selection", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Nil(t, body["selected"])

	w = env.do(t, http.MethodPut, "/api/v1/selection", map[string]string{"id": "missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}
