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

type GroupServiceInterface interface {
	Load() error
	List() []models.Group
	Get(id string) (models.Group, error)
	AddGroup(name string) (models.Group, error)
	RenameGroup(id, name string) (models.Group, error)
	AssignGroup(groupID, promptID string) error
	ClearGroup(promptID string) error
	RemoveGroup(id string) error
	DetachPrompt(promptID string) error
}

// GroupService owns the group registry. Groups work like tags but are
// singular: a prompt belongs to at most one group, so assignment also moves
// the prompt out of its previous group's back-references.
type GroupService struct {
	mu     sync.Mutex
	store  *storage.RegistryStore
	index  PromptIndexInterface
	bus    *broker.Bus
	groups map[string]models.Group
}

func NewGroupService(store *storage.RegistryStore, index PromptIndexInterface, bus *broker.Bus) *GroupService {
	return &GroupService{
		store:  store,
		index:  index,
		bus:    bus,
		groups: make(map[string]models.Group),
	}
}

func (s *GroupService) Load() error {
	groups, err := s.store.LoadGroups()
	if err != nil {
		return fmt.Errorf("load group registry: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = make(map[string]models.Group, len(groups))
	for _, g := range groups {
		s.groups[g.ID] = g
	}
	return nil
}

func (s *GroupService) List() []models.Group {
	s.mu.Lock()
	defer s.mu.Unlock()
	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		return strings.ToLower(groups[i].Name) < strings.ToLower(groups[j].Name)
	})
	return groups
}

func (s *GroupService) Get(id string) (models.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	group, ok := s.groups[id]
	if !ok {
		return models.Group{}, ErrGroupNotFound
	}
	return group, nil
}

// AddGroup creates a group with a case-insensitively unique name.
func (s *GroupService) AddGroup(name string) (models.Group, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateGroupName(trimmed); err != nil {
		return models.Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.findByNameLocked(trimmed); found {
		return models.Group{}, &ValidationError{Field: "name", Message: "already in use"}
	}

	now := time.Now().UTC()
	group := models.Group{
		ID:        uuid.NewString(),
		Name:      trimmed,
		Prompts:   []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.groups[group.ID] = group
	if err := s.saveLocked(); err != nil {
		delete(s.groups, group.ID)
		return models.Group{}, err
	}

	s.bus.Publish(broker.NewEvent(broker.GroupCreated, map[string]interface{}{
		"id":   group.ID,
		"name": group.Name,
	}))
	return group, nil
}

func (s *GroupService) RenameGroup(id, name string) (models.Group, error) {
	trimmed := strings.TrimSpace(name)
	if err := validateGroupName(trimmed); err != nil {
		return models.Group{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	group, ok := s.groups[id]
	if !ok {
		return models.Group{}, ErrGroupNotFound
	}
	if existing, found := s.findByNameLocked(trimmed); found && existing.ID != id {
		return models.Group{}, &ValidationError{Field: "name", Message: "already in use"}
	}

	previous := group
	group.Name = trimmed
	group.UpdatedAt = time.Now().UTC()
	s.groups[id] = group
	if err := s.saveLocked(); err != nil {
		s.groups[id] = previous
		return models.Group{}, err
	}

	s.bus.Publish(broker.NewEvent(broker.GroupUpdated, map[string]interface{}{
		"id":   group.ID,
		"name": group.Name,
	}))
	return group, nil
}

// AssignGroup puts the prompt in the given group, removing it from its
// previous group's back-references. Prompt-side write first, then the
// registry.
func (s *GroupService) AssignGroup(groupID, promptID string) error {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	_, ok := s.groups[groupID]
	s.mu.Unlock()
	if !ok {
		return ErrGroupNotFound
	}

	if prompt.GroupID == nil || *prompt.GroupID != groupID {
		if _, err := s.index.Update(promptID, map[string]interface{}{"group": groupID}); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// the group may have been removed while the lock was released for the
	// prompt-side write
	if _, ok := s.groups[groupID]; !ok {
		return ErrGroupNotFound
	}

	// drop from the old group, add to the new
	for id, group := range s.groups {
		if id != groupID && group.HasPrompt(promptID) {
			group.Prompts = removeString(group.Prompts, promptID)
			group.UpdatedAt = time.Now().UTC()
			s.groups[id] = group
		}
	}
	group := s.groups[groupID]
	if !group.HasPrompt(promptID) {
		group.Prompts = append(append([]string(nil), group.Prompts...), promptID)
		group.UpdatedAt = time.Now().UTC()
		s.groups[groupID] = group
	}
	return s.saveLocked()
}

// ClearGroup detaches the prompt from whatever group it belongs to.
func (s *GroupService) ClearGroup(promptID string) error {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return err
	}

	if prompt.GroupID != nil {
		if _, err := s.index.Update(promptID, map[string]interface{}{"group": nil}); err != nil {
			return err
		}
	}
	return s.DetachPrompt(promptID)
}

// RemoveGroup clears the group field on every member prompt first and only
// deletes the registry entry when all of those updates succeeded.
func (s *GroupService) RemoveGroup(id string) error {
	s.mu.Lock()
	_, ok := s.groups[id]
	s.mu.Unlock()
	if !ok {
		return ErrGroupNotFound
	}

	var failed []string
	for _, prompt := range s.index.List(ListFilter{GroupID: id}) {
		if _, err := s.index.Update(prompt.ID, map[string]interface{}{"group": nil}); err != nil {
			failed = append(failed, prompt.ID)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("group %s kept: could not update prompts %v: %w", id, failed, ErrStorage)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	previous := s.groups[id]
	delete(s.groups, id)
	if err := s.saveLocked(); err != nil {
		s.groups[id] = previous
		return err
	}

	s.bus.Publish(broker.NewEvent(broker.GroupDeleted, map[string]interface{}{"id": id}))
	return nil
}

// DetachPrompt strips a prompt from every group's back-references.
func (s *GroupService) DetachPrompt(promptID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := false
	for id, group := range s.groups {
		if group.HasPrompt(promptID) {
			group.Prompts = removeString(group.Prompts, promptID)
			group.UpdatedAt = time.Now().UTC()
			s.groups[id] = group
			changed = true
		}
	}
	if !changed {
		return nil
	}
	return s.saveLocked()
}

func (s *GroupService) findByNameLocked(name string) (models.Group, bool) {
	folded := strings.ToLower(name)
	for _, g := range s.groups {
		if strings.ToLower(g.Name) == folded {
			return g, true
		}
	}
	return models.Group{}, false
}

func (s *GroupService) saveLocked() error {
	groups := make([]models.Group, 0, len(s.groups))
	for _, g := range s.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].ID < groups[j].ID })
	if err := s.store.SaveGroups(groups); err != nil {
		return fmt.Errorf("save group registry: %w", err)
	}
	return nil
}

func validateGroupName(trimmed string) error {
	if trimmed == "" {
		return &ValidationError{Field: "name", Message: "cannot be blank"}
	}
	if utf8.RuneCountInString(trimmed) > config.MaxGroupNameLength {
		return &ValidationError{Field: "name", Message: "exceeds maximum length"}
	}
	return nil
}
