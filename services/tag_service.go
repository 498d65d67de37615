package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"promptvault/broker"
	"promptvault/config"
	"promptvault/models"
	"promptvault/storage"
)

type TagServiceInterface interface {
	Load() error
	List() []models.Tag
	Get(id string) (models.Tag, error)
	AddTag(name string) (models.Tag, error)
	RenameTag(id, name string) (models.Tag, error)
	AssignTag(tagID, promptID string) error
	UnassignTag(tagID, promptID string) error
	RemoveTag(id string) error
	DetachPrompt(promptID string) error
}

// TagService owns the tag registry and keeps the two-sided association
// (prompt.tags and tag.prompts) consistent. The registry is persisted
// wholesale on every mutation.
type TagService struct {
	mu    sync.Mutex
	store *storage.RegistryStore
	index PromptIndexInterface
	bus   *broker.Bus
	tags  map[string]models.Tag
}

func NewTagService(store *storage.RegistryStore, index PromptIndexInterface, bus *broker.Bus) *TagService {
	return &TagService{
		store: store,
		index: index,
		bus:   bus,
		tags:  make(map[string]models.Tag),
	}
}

// Load reads the registry blob into memory.
func (s *TagService) Load() error {
	tags, err := s.store.LoadTags()
	if err != nil {
		return fmt.Errorf("load tag registry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = make(map[string]models.Tag, len(tags))
	for _, t := range tags {
		s.tags[t.ID] = t
	}
	return nil
}

// List returns all tags sorted by name.
func (s *TagService) List() []models.Tag {
	s.mu.Lock()
	defer s.mu.Unlock()
	tags := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool {
		return strings.ToLower(tags[i].Name) < strings.ToLower(tags[j].Name)
	})
	return tags
}

func (s *TagService) Get(id string) (models.Tag, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[id]
	if !ok {
		return models.Tag{}, ErrTagNotFound
	}
	return tag, nil
}

// AddTag finds an existing tag by case-insensitive name, or creates one with
// a palette color. An existing tag is returned unchanged; associating it
// with a prompt is a separate, explicit call.
func (s *TagService) AddTag(name string) (models.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateTagName(trimmed); err != nil {
		return models.Tag{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.findByNameLocked(trimmed); ok {
		return existing, nil
	}

	now := time.Now().UTC()
	tag := models.Tag{
		ID:        uuid.NewString(),
		Name:      trimmed,
		Color:     models.RandomTagColor(),
		Prompts:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.tags[tag.ID] = tag
	if err := s.saveLocked(); err != nil {
		delete(s.tags, tag.ID)
		return models.Tag{}, err
	}

	s.bus.Publish(broker.NewEvent(broker.TagCreated, map[string]interface{}{
		"id":   tag.ID,
		"name": tag.Name,
	}))
	return tag, nil
}

// RenameTag changes a tag's display name, keeping names unique
// case-insensitively.
func (s *TagService) RenameTag(id, name string) (models.Tag, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateTagName(trimmed); err != nil {
		return models.Tag{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tag, ok := s.tags[id]
	if !ok {
		return models.Tag{}, ErrTagNotFound
	}
	if existing, found := s.findByNameLocked(trimmed); found && existing.ID != id {
		return models.Tag{}, &ValidationError{Field: "name", Message: "already in use"}
	}

	previous := tag
	tag.Name = trimmed
	tag.UpdatedAt = time.Now().UTC()
	s.tags[id] = tag
	if err := s.saveLocked(); err != nil {
		s.tags[id] = previous
		return models.Tag{}, err
	}

	s.bus.Publish(broker.NewEvent(broker.TagUpdated, map[string]interface{}{
		"id":   tag.ID,
		"name": tag.Name,
	}))
	return tag, nil
}

// AssignTag adds the association on both sides: the prompt's tag list first
// (durable), then the registry back-reference. There is no atomic pairing;
// a failure between the two writes leaves the sides to be re-checked by the
// caller.
func (s *TagService) AssignTag(tagID, promptID string) error {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	tag, ok := s.tags[tagID]
	s.mu.Unlock()
	if !ok {
		return ErrTagNotFound
	}

	if !prompt.HasTag(tagID) {
		tagIDs := append(append([]string(nil), prompt.Tags...), tagID)
		if _, err := s.index.Update(promptID, map[string]interface{}{"tags": tagIDs}); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// the tag may have been removed while the lock was released for the
	// prompt-side write
	tag, ok = s.tags[tagID]
	if !ok {
		return ErrTagNotFound
	}
	if !tag.HasPrompt(promptID) {
		previous := tag
		tag.Prompts = append(append([]string(nil), tag.Prompts...), promptID)
		tag.UpdatedAt = time.Now().UTC()
		s.tags[tagID] = tag
		if err := s.saveLocked(); err != nil {
			s.tags[tagID] = previous
			return err
		}
	}
	return nil
}

// UnassignTag removes the association on both sides, prompt first.
func (s *TagService) UnassignTag(tagID, promptID string) error {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return err
	}

	if prompt.HasTag(tagID) {
		tagIDs := removeString(prompt.Tags, tagID)
		if _, err := s.index.Update(promptID, map[string]interface{}{"tags": tagIDs}); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tag, ok := s.tags[tagID]
	if !ok {
		return ErrTagNotFound
	}
	if tag.HasPrompt(promptID) {
		previous := tag
		tag.Prompts = removeString(tag.Prompts, promptID)
		tag.UpdatedAt = time.Now().UTC()
		s.tags[tagID] = tag
		if err := s.saveLocked(); err != nil {
			s.tags[tagID] = previous
			return err
		}
	}
	return nil
}

// RemoveTag cascades: every referencing prompt is updated first, and the
// registry entry is deleted only when all of those updates succeeded. A
// partial failure leaves the tag in place so the operation can be retried.
func (s *TagService) RemoveTag(id string) error {
	s.mu.Lock()
	_, ok := s.tags[id]
	s.mu.Unlock()
	if !ok {
		return ErrTagNotFound
	}

	var failed []string
	for _, prompt := range s.index.List(ListFilter{TagID: id}) {
		tagIDs := removeString(prompt.Tags, id)
		if _, err := s.index.Update(prompt.ID, map[string]interface{}{"tags": tagIDs}); err != nil {
			failed = append(failed, prompt.ID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("tag %s kept: could not update prompts %v: %w", id, failed, ErrStorage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.tags[id]
	delete(s.tags, id)
	if err := s.saveLocked(); err != nil {
		s.tags[id] = previous
		return err
	}

	s.bus.Publish(broker.NewEvent(broker.TagDeleted, map[string]interface{}{"id": id}))
	return nil
}

// DetachPrompt strips a removed prompt from every tag's back-references.
// Called on prompt deletion; association upkeep is explicit on every
// mutation path, never automatic.
func (s *TagService) DetachPrompt(promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for id, tag := range s.tags {
		if tag.HasPrompt(promptID) {
			tag.Prompts = removeString(tag.Prompts, promptID)
			tag.UpdatedAt = time.Now().UTC()
			s.tags[id] = tag
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked()
}

func (s *TagService) findByNameLocked(name string) (models.Tag, bool) {
	folded := strings.ToLower(name)
	for _, t := range s.tags {
		if strings.ToLower(t.Name) == folded {
			return t, true
		}
	}
	return models.Tag{}, false
}

func (s *TagService) saveLocked() error {
	tags := make([]models.Tag, 0, len(s.tags))
	for _, t := range s.tags {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i].ID < tags[j].ID })
	if err := s.store.SaveTags(tags); err != nil {
		return fmt.Errorf("save tag registry: %w", err)
	}
	return nil
}

func validateTagName(trimmed string) error {
	if trimmed == "" {
		return &ValidationError{Field: "name", Message: "cannot be blank"}
	}
	if utf8.RuneCountInString(trimmed) > config.MaxTagNameLength {
		return &ValidationError{Field: "name", Message: "exceeds maximum length"}
	}
	return nil
}

func removeString(list []string, target string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != target {
			out = append(out, v)
		}
	}
	return out
}
