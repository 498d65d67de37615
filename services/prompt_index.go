package services

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"promptvault/broker"
	"promptvault/models"
	"promptvault/storage"
)

// CreatePromptRequest is the input for creating a prompt. Versions must hold
// at least one snapshot; templated defaults are the caller's concern.
type CreatePromptRequest struct {
	Name       string                 `json:"name"`
	Versions   []models.PromptVersion `json:"versions"`
	Tags       []string               `json:"tags"`
	Group      *string                `json:"group"`
	IsFavorite bool                   `json:"isFavorite"`
}

// ListFilter narrows List results. Zero values mean "no filter".
type ListFilter struct {
	Name     string
	TagID    string
	GroupID  string
	Favorite *bool
}

type PromptIndexInterface interface {
	Refresh() error
	Create(req CreatePromptRequest) (models.Prompt, error)
	Get(id string) (models.Prompt, error)
	Update(id string, partial map[string]interface{}) (models.Prompt, error)
	Remove(id string) error
	Select(id string) error
	Selected() (models.Prompt, bool)
	List(filter ListFilter) []models.Prompt
	IsLoading() bool
	LastError() error
}

// PromptIndex is the in-memory mirror of the vault and the single source of
// truth for the UI layer. Every mutation is persist-then-mirror: the durable
// write happens first and memory only changes after it succeeds, so the
// index never shows state that was not committed.
type PromptIndex struct {
	mu         sync.RWMutex
	repo       *storage.VaultRepository
	bus        *broker.Bus
	prompts    map[string]models.Prompt
	selectedID string
	loading    bool
	lastErr    error
}

func NewPromptIndex(repo *storage.VaultRepository, bus *broker.Bus) *PromptIndex {
	return &PromptIndex{
		repo:    repo,
		bus:     bus,
		prompts: make(map[string]models.Prompt),
	}
}

// Refresh replaces the whole in-memory collection from the vault.
func (s *PromptIndex) Refresh() error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	prompts := s.repo.LoadAll()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.prompts = make(map[string]models.Prompt, len(prompts))
	for _, p := range prompts {
		s.prompts[p.ID] = p
	}
	if _, ok := s.prompts[s.selectedID]; !ok {
		s.selectedID = ""
	}
	s.lastErr = nil
	return nil
}

// Create assigns a fresh id, persists, then mirrors and selects the new
// prompt. On failure nothing changes in memory.
func (s *PromptIndex) Create(req CreatePromptRequest) (models.Prompt, error) {
	prompt := models.Prompt{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		Versions:   req.Versions,
		Notes:      []models.PromptNote{},
		Tags:       req.Tags,
		GroupID:    req.Group,
		IsFavorite: req.IsFavorite,
	}

	if err := s.repo.Create(&prompt); err != nil {
		wrapped := s.recordErr(mapStorageErr(err))
		return models.Prompt{}, wrapped
	}

	s.mu.Lock()
	s.prompts[prompt.ID] = prompt
	s.selectedID = prompt.ID
	s.lastErr = nil
	s.mu.Unlock()

	s.publish(broker.PromptCreated, prompt)
	return prompt.Clone(), nil
}

// Get returns a copy of the prompt with the given id.
func (s *PromptIndex) Get(id string) (models.Prompt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	prompt, ok := s.prompts[id]
	if !ok {
		return models.Prompt{}, ErrPromptNotFound
	}
	return prompt.Clone(), nil
}

// Update delegates to the repository first; the in-memory copy is replaced
// with the merged result the repository produced, so mirror semantics match
// durable semantics exactly (arrays replaced wholesale).
func (s *PromptIndex) Update(id string, partial map[string]interface{}) (models.Prompt, error) {
	merged, err := s.repo.Update(id, partial)
	if err != nil {
		return models.Prompt{}, s.recordErr(mapStorageErr(err))
	}

	s.mu.Lock()
	s.prompts[id] = merged
	s.lastErr = nil
	s.mu.Unlock()

	s.publish(broker.PromptUpdated, merged)
	return merged.Clone(), nil
}

// Remove deletes durably, then prunes memory and clears the selection when
// it pointed at the removed prompt.
func (s *PromptIndex) Remove(id string) error {
	if err := s.repo.Remove(id); err != nil {
		return s.recordErr(mapStorageErr(err))
	}

	s.mu.Lock()
	prompt := s.prompts[id]
	delete(s.prompts, id)
	if s.selectedID == id {
		s.selectedID = ""
	}
	s.lastErr = nil
	s.mu.Unlock()

	s.bus.Publish(broker.NewEvent(broker.PromptDeleted, map[string]interface{}{
		"id":   id,
		"name": prompt.Name,
	}))
	return nil
}

// Select sets the selected prompt. An empty id clears the selection; a
// non-empty id must exist in memory.
func (s *PromptIndex) Select(id string) error {
	s.mu.Lock()
	if id != "" {
		if _, ok := s.prompts[id]; !ok {
			s.lastErr = ErrPromptNotFound
			s.mu.Unlock()
			return ErrPromptNotFound
		}
	}
	s.selectedID = id
	s.lastErr = nil
	s.mu.Unlock()

	s.bus.Publish(broker.NewEvent(broker.PromptSelected, map[string]interface{}{"id": id}))
	return nil
}

// Selected returns the currently selected prompt, if any.
func (s *PromptIndex) Selected() (models.Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selectedID == "" {
		return models.Prompt{}, false
	}
	prompt, ok := s.prompts[s.selectedID]
	if !ok {
		return models.Prompt{}, false
	}
	return prompt.Clone(), true
}

// List returns prompts matching the filter, most recently updated first.
func (s *PromptIndex) List(filter ListFilter) []models.Prompt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prompts := make([]models.Prompt, 0, len(s.prompts))
	needle := strings.ToLower(strings.TrimSpace(filter.Name))
	for _, p := range s.prompts {
		if needle != "" && !strings.Contains(strings.ToLower(p.Name), needle) {
			continue
		}
		if filter.TagID != "" && !p.HasTag(filter.TagID) {
			continue
		}
		if filter.GroupID != "" && (p.GroupID == nil || *p.GroupID != filter.GroupID) {
			continue
		}
		if filter.Favorite != nil && p.IsFavorite != *filter.Favorite {
			continue
		}
		prompts = append(prompts, p.Clone())
	}
	sort.Slice(prompts, func(i, j int) bool {
		return prompts[i].UpdatedAt.After(prompts[j].UpdatedAt)
	})
	return prompts
}

func (s *PromptIndex) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// LastError reports the most recent failed operation, for UI state queries.
func (s *PromptIndex) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

func (s *PromptIndex) recordErr(err error) error {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()
	return err
}

func (s *PromptIndex) publish(eventType broker.EventType, prompt models.Prompt) {
	s.bus.Publish(broker.NewEvent(eventType, map[string]interface{}{
		"id":        prompt.ID,
		"name":      prompt.Name,
		"updatedAt": prompt.UpdatedAt,
	}))
}

// mapStorageErr translates storage sentinels into the service taxonomy.
// Validation errors pass through; anything else is a storage failure.
func mapStorageErr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return ErrPromptNotFound
	}
	if errors.Is(err, ErrValidation) {
		return err
	}
	if isModelValidation(err) {
		return errors.Join(ErrValidation, err)
	}
	return errors.Join(ErrStorage, err)
}
