package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"promptvault/models"
)

func newTagService(env *testEnv) *TagService {
	return NewTagService(env.store, env.index, env.bus)
}

// racingIndex fires a one-shot callback after a successful update, so tests
// can interleave a registry mutation between the prompt-side write and the
// registry-side write.
type racingIndex struct {
	PromptIndexInterface
	afterUpdate func()
}

func (r *racingIndex) Update(id string, partial map[string]interface{}) (models.Prompt, error) {
	prompt, err := r.PromptIndexInterface.Update(id, partial)
	if err == nil && r.afterUpdate != nil {
		hook := r.afterUpdate
		r.afterUpdate = nil
		hook()
	}
	return prompt, err
}

func TestAddTag_FindOrCreate(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)

	tag, err := svc.AddTag("  Ops  ")
	require.NoError(t, err)
	assert.Equal(t, "Ops", tag.Name)
	assert.NotEmpty(t, tag.Color)
	assert.Empty(t, tag.Prompts)

	// case-insensitive match returns the existing tag unchanged
	again, err := svc.AddTag("ops")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, again.ID)
	assert.Equal(t, "Ops", again.Name)
	assert.Len(t, svc.List(), 1)
}

func TestAddTag_Validation(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)

	_, err := svc.AddTag("   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.AddTag("this tag name is far too long to pass")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTagService_LoadRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)

	created, err := svc.AddTag("ops")
	require.NoError(t, err)

	fresh := newTagService(env)
	require.NoError(t, fresh.Load())
	got, err := fresh.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Name, got.Name)
}

func TestRenameTag(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)

	ops, err := svc.AddTag("ops")
	require.NoError(t, err)
	_, err = svc.AddTag("ml")
	require.NoError(t, err)

	renamed, err := svc.RenameTag(ops.ID, "infra")
	require.NoError(t, err)
	assert.Equal(t, "infra", renamed.Name)

	// collision with another tag's name, case-insensitively
	_, err = svc.RenameTag(ops.ID, "ML")
	assert.ErrorIs(t, err, ErrValidation)

	// renaming to its own name is allowed
	_, err = svc.RenameTag(ops.ID, "Infra")
	assert.NoError(t, err)

	_, err = svc.RenameTag("missing", "x")
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestAssignUnassignTag_BothSides(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)
	prompt := env.createPrompt(t, "Greeting", "hello")
	tag, err := svc.AddTag("ops")
	require.NoError(t, err)

	require.NoError(t, svc.AssignTag(tag.ID, prompt.ID))

	gotPrompt, _ := env.index.Get(prompt.ID)
	assert.True(t, gotPrompt.HasTag(tag.ID))
	gotTag, _ := svc.Get(tag.ID)
	assert.True(t, gotTag.HasPrompt(prompt.ID))

	// idempotent
	require.NoError(t, svc.AssignTag(tag.ID, prompt.ID))
	gotTag, _ = svc.Get(tag.ID)
	assert.Len(t, gotTag.Prompts, 1)

	require.NoError(t, svc.UnassignTag(tag.ID, prompt.ID))
	gotPrompt, _ = env.index.Get(prompt.ID)
	assert.False(t, gotPrompt.HasTag(tag.ID))
	gotTag, _ = svc.Get(tag.ID)
	assert.False(t, gotTag.HasPrompt(prompt.ID))
}

func TestAssignTag_NotFound(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)
	prompt := env.createPrompt(t, "Greeting", "hello")

	assert.ErrorIs(t, svc.AssignTag("missing", prompt.ID), ErrTagNotFound)
	tag, _ := svc.AddTag("ops")
	assert.ErrorIs(t, svc.AssignTag(tag.ID, "missing"), ErrPromptNotFound)
}

func TestRemoveTag_CascadesToPrompts(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)
	first := env.createPrompt(t, "First", "a")
	second := env.createPrompt(t, "Second", "b")
	tag, err := svc.AddTag("ops")
	require.NoError(t, err)
	require.NoError(t, svc.AssignTag(tag.ID, first.ID))
	require.NoError(t, svc.AssignTag(tag.ID, second.ID))

	require.NoError(t, svc.RemoveTag(tag.ID))

	_, err = svc.Get(tag.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)
	for _, id := range []string{first.ID, second.ID} {
		prompt, err := env.index.Get(id)
		require.NoError(t, err)
		assert.False(t, prompt.HasTag(tag.ID))
	}
}

func TestRemoveTag_KeptWhenCascadeFails(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)
	prompt := env.createPrompt(t, "Greeting", "hello")
	tag, err := svc.AddTag("ops")
	require.NoError(t, err)
	require.NoError(t, svc.AssignTag(tag.ID, prompt.ID))

	// the prompt file disappears behind the index's back, so the dependent
	// update fails and the tag must survive
	require.NoError(t, env.fs.Remove("/vault/"+prompt.ID+".json"))

	err = svc.RemoveTag(tag.ID)
	assert.ErrorIs(t, err, ErrStorage)
	_, err = svc.Get(tag.ID)
	assert.NoError(t, err, "tag is kept after a partial cascade")
}

func TestAssignTag_TagRemovedDuringPromptWrite(t *testing.T) {
	env := newTestEnv(t)
	index := &racingIndex{PromptIndexInterface: env.index}
	svc := NewTagService(env.store, index, env.bus)
	prompt := env.createPrompt(t, "Greeting", "hello")
	tag, err := svc.AddTag("ops")
	require.NoError(t, err)

	// the tag vanishes right after the prompt-side write lands
	index.afterUpdate = func() {
		require.NoError(t, svc.RemoveTag(tag.ID))
	}

	err = svc.AssignTag(tag.ID, prompt.ID)
	assert.ErrorIs(t, err, ErrTagNotFound)

	assert.Empty(t, svc.List(), "no ghost entry survives the race")
	saved, err := env.store.LoadTags()
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestTagDetachPrompt(t *testing.T) {
	env := newTestEnv(t)
	svc := newTagService(env)
	prompt := env.createPrompt(t, "Greeting", "hello")
	ops, _ := svc.AddTag("ops")
	ml, _ := svc.AddTag("ml")
	require.NoError(t, svc.AssignTag(ops.ID, prompt.ID))
	require.NoError(t, svc.AssignTag(ml.ID, prompt.ID))

	require.NoError(t, svc.DetachPrompt(prompt.ID))

	for _, id := range []string{ops.ID, ml.ID} {
		tag, _ := svc.Get(id)
		assert.False(t, tag.HasPrompt(prompt.ID))
	}
}
