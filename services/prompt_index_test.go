package services

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/broker"
	"promptvault/models"
	"promptvault/storage"
	"promptvault/testutils"
)

type testEnv struct {
	fs    afero.Fs
	repo  *storage.VaultRepository
	store *storage.RegistryStore
	bus   *broker.Bus
	index *PromptIndex
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	fs, repo, store := testutils.NewMemoryVault()
	bus := broker.NewBus()
	t.Cleanup(bus.Close)
	return &testEnv{
		fs:    fs,
		repo:  repo,
		store: store,
		bus:   bus,
		index: NewPromptIndex(repo, bus),
	}
}

func (e *testEnv) createPrompt(t *testing.T, name string, contents ...string) models.Prompt {
	t.Helper()
	prompt, err := e.index.Create(CreatePromptRequest{
		Name:     name,
		Versions: testutils.SampleVersions(contents...),
	})
	require.NoError(t, err)
	return prompt
}

func TestPromptIndex_CreateSelectsAndMirrors(t *testing.T) {
	env := newTestEnv(t)

	prompt := env.createPrompt(t, "Greeting", "hello")
	assert.NotEmpty(t, prompt.ID)
	assert.False(t, prompt.IsSynced)

	selected, ok := env.index.Selected()
	assert.True(t, ok)
	assert.Equal(t, prompt.ID, selected.ID)

	// durable and in-memory state agree
	loaded := env.repo.LoadAll()
	require.Len(t, loaded, 1)
	assert.Equal(t, prompt.ID, loaded[0].ID)
}

func TestPromptIndex_CreateValidationLeavesMemoryUntouched(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.index.Create(CreatePromptRequest{Name: "  "})
	assert.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, env.index.LastError(), ErrValidation)
	assert.Empty(t, env.index.List(ListFilter{}))

	_, ok := env.index.Selected()
	assert.False(t, ok)
}

func TestPromptIndex_Refresh(t *testing.T) {
	env := newTestEnv(t)
	created := env.createPrompt(t, "Greeting", "hello")

	// a second index over the same vault sees the prompt after refresh
	other := NewPromptIndex(env.repo, env.bus)
	require.NoError(t, other.Refresh())

	got, err := other.Get(created.ID)
	assert.NoError(t, err)
	assert.Equal(t, "Greeting", got.Name)
}

func TestPromptIndex_RefreshClearsStaleSelection(t *testing.T) {
	env := newTestEnv(t)
	prompt := env.createPrompt(t, "Greeting", "hello")

	// file vanishes behind the index's back
	require.NoError(t, env.fs.Remove("/vault/"+prompt.ID+".json"))
	require.NoError(t, env.index.Refresh())

	_, ok := env.index.Selected()
	assert.False(t, ok)
	_, err := env.index.Get(prompt.ID)
	assert.ErrorIs(t, err, ErrPromptNotFound)
}

func TestPromptIndex_UpdateMirrorsMergedResult(t *testing.T) {
	env := newTestEnv(t)
	prompt := env.createPrompt(t, "Before", "hello")

	updated, err := env.index.Update(prompt.ID, map[string]interface{}{"name": "After"})
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, prompt.Versions, updated.Versions)

	got, err := env.index.Get(prompt.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
}

func TestPromptIndex_UpdateUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.index.Update("missing", map[string]interface{}{"name": "X"})
	assert.ErrorIs(t, err, ErrPromptNotFound)
	assert.ErrorIs(t, env.index.LastError(), ErrPromptNotFound)
}

func TestPromptIndex_RemoveClearsSelection(t *testing.T) {
	env := newTestEnv(t)
	prompt := env.createPrompt(t, "Greeting", "hello")

	require.NoError(t, env.index.Remove(prompt.ID))

	_, ok := env.index.Selected()
	assert.False(t, ok)
	assert.Empty(t, env.repo.LoadAll())
	assert.ErrorIs(t, env.index.Remove(prompt.ID), ErrPromptNotFound)
}

func TestPromptIndex_Select(t *testing.T) {
	env := newTestEnv(t)
	first := env.createPrompt(t, "First", "a")
	env.createPrompt(t, "Second", "b")

	require.NoError(t, env.index.Select(first.ID))
	selected, ok := env.index.Selected()
	assert.True(t, ok)
	assert.Equal(t, first.ID, selected.ID)

	assert.ErrorIs(t, env.index.Select("missing"), ErrPromptNotFound)
	selected, _ = env.index.Selected()
	assert.Equal(t, first.ID, selected.ID, "failed select must not change the selection")

	require.NoError(t, env.index.Select(""))
	_, ok = env.index.Selected()
	assert.False(t, ok)
}

func TestPromptIndex_ListFilters(t *testing.T) {
	env := newTestEnv(t)

	groupID := "g1"
	fav, err := env.index.Create(CreatePromptRequest{
		Name:       "Alpha prompt",
		Versions:   testutils.SampleVersions("a"),
		Tags:       []string{"t1"},
		IsFavorite: true,
	})
	require.NoError(t, err)
	grouped, err := env.index.Create(CreatePromptRequest{
		Name:     "Beta prompt",
		Versions: testutils.SampleVersions("b"),
		Group:    &groupID,
	})
	require.NoError(t, err)

	all := env.index.List(ListFilter{})
	assert.Len(t, all, 2)

	byName := env.index.List(ListFilter{Name: "alpha"})
	require.Len(t, byName, 1)
	assert.Equal(t, fav.ID, byName[0].ID)

	byTag := env.index.List(ListFilter{TagID: "t1"})
	require.Len(t, byTag, 1)
	assert.Equal(t, fav.ID, byTag[0].ID)

	byGroup := env.index.List(ListFilter{GroupID: groupID})
	require.Len(t, byGroup, 1)
	assert.Equal(t, grouped.ID, byGroup[0].ID)

	isFav := true
	byFav := env.index.List(ListFilter{Favorite: &isFav})
	require.Len(t, byFav, 1)
	assert.Equal(t, fav.ID, byFav[0].ID)
}

func TestPromptIndex_MutationsPublishEvents(t *testing.T) {
	env := newTestEnv(t)
	events, cancel := env.bus.Subscribe()
	defer cancel()

	prompt := env.createPrompt(t, "Greeting", "hello")
	_, err := env.index.Update(prompt.ID, map[string]interface{}{"isFavorite": true})
	require.NoError(t, err)
	require.NoError(t, env.index.Remove(prompt.ID))

	var types []broker.EventType
	for i := 0; i < 3; i++ {
		types = append(types, (<-events).Type)
	}
	assert.Equal(t, []broker.EventType{
		broker.PromptCreated,
		broker.PromptUpdated,
		broker.PromptDeleted,
	}, types)
}
