package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"promptvault/broker"
	"promptvault/config"
	"promptvault/models"
)

type VersionServiceInterface interface {
	EditCurrentContent(promptID, content string) (models.Prompt, error)
	CreateVersion(promptID, name string) (models.Prompt, error)
	RenameVersion(promptID, date, name string) (models.Prompt, error)
	SelectVersion(promptID, date string) (models.Prompt, error)
	DeleteVersion(promptID, date string) (models.Prompt, error)
}

// VersionService manages the bounded snapshot history inside one prompt.
// Versions[0] is always current; every operation preserves
// 1 <= len(versions) <= MaxVersions and routes its durable write through the
// index so persist-then-mirror holds.
type VersionService struct {
	index PromptIndexInterface
	bus   *broker.Bus
}

func NewVersionService(index PromptIndexInterface, bus *broker.Bus) *VersionService {
	return &VersionService{index: index, bus: bus}
}

// EditCurrentContent rewrites the current version's content in place. It
// never creates a version; callers are expected to debounce keystrokes so
// intermediate edits do not each round-trip to the vault.
func (s *VersionService) EditCurrentContent(promptID, content string) (models.Prompt, error) {
	if utf8.RuneCountInString(content) > config.MaxContentLength {
		return models.Prompt{}, &ValidationError{Field: "content", Message: "exceeds maximum length"}
	}

	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}

	versions := append([]models.PromptVersion(nil), prompt.Versions...)
	versions[0].Content = content
	return s.index.Update(promptID, map[string]interface{}{"versions": versions})
}

// CreateVersion snapshots the current content under a new named version and
// prepends it, making it current immediately.
func (s *VersionService) CreateVersion(promptID, name string) (models.Prompt, error) {
	if err := validateVersionName(name); err != nil {
		return models.Prompt{}, err
	}

	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}
	if len(prompt.Versions) >= config.MaxVersions {
		return models.Prompt{}, ErrVersionLimit
	}

	current := prompt.Versions[0]
	version := models.PromptVersion{
		Date:    newVersionDate(prompt.Versions),
		Name:    strings.TrimSpace(name),
		Content: current.Content,
	}
	versions := append([]models.PromptVersion{version}, prompt.Versions...)

	updated, err := s.index.Update(promptID, map[string]interface{}{"versions": versions})
	if err != nil {
		return models.Prompt{}, err
	}
	s.publish(broker.VersionCreated, promptID, version.Date)
	return updated, nil
}

// RenameVersion replaces the target version's name in place.
func (s *VersionService) RenameVersion(promptID, date, name string) (models.Prompt, error) {
	if err := validateVersionName(name); err != nil {
		return models.Prompt{}, err
	}

	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}

	idx := findVersion(prompt.Versions, date)
	if idx < 0 {
		return models.Prompt{}, ErrVersionNotFound
	}

	versions := append([]models.PromptVersion(nil), prompt.Versions...)
	versions[idx].Name = strings.TrimSpace(name)

	updated, err := s.index.Update(promptID, map[string]interface{}{"versions": versions})
	if err != nil {
		return models.Prompt{}, err
	}
	s.publish(broker.VersionRenamed, promptID, date)
	return updated, nil
}

// SelectVersion promotes the target version to current by moving it to the
// front; the remaining versions keep their relative order. Selecting the
// version that is already current is a no-op. Read-only viewing of old
// content goes through the compare service instead.
func (s *VersionService) SelectVersion(promptID, date string) (models.Prompt, error) {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}

	idx := findVersion(prompt.Versions, date)
	if idx < 0 {
		return models.Prompt{}, ErrVersionNotFound
	}
	if idx == 0 {
		return prompt, nil
	}

	target := prompt.Versions[idx]
	versions := make([]models.PromptVersion, 0, len(prompt.Versions))
	versions = append(versions, target)
	versions = append(versions, prompt.Versions[:idx]...)
	versions = append(versions, prompt.Versions[idx+1:]...)

	updated, err := s.index.Update(promptID, map[string]interface{}{"versions": versions})
	if err != nil {
		return models.Prompt{}, err
	}
	s.publish(broker.VersionPromoted, promptID, date)
	return updated, nil
}

// DeleteVersion removes the target version. Deleting the current version
// silently promotes the next remaining one; deleting the only version is
// refused.
func (s *VersionService) DeleteVersion(promptID, date string) (models.Prompt, error) {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}
	if len(prompt.Versions) <= 1 {
		return models.Prompt{}, ErrLastVersion
	}

	idx := findVersion(prompt.Versions, date)
	if idx < 0 {
		return models.Prompt{}, ErrVersionNotFound
	}

	versions := make([]models.PromptVersion, 0, len(prompt.Versions)-1)
	versions = append(versions, prompt.Versions[:idx]...)
	versions = append(versions, prompt.Versions[idx+1:]...)

	updated, err := s.index.Update(promptID, map[string]interface{}{"versions": versions})
	if err != nil {
		return models.Prompt{}, err
	}
	s.publish(broker.VersionDeleted, promptID, date)
	return updated, nil
}

func (s *VersionService) publish(eventType broker.EventType, promptID, date string) {
	s.bus.Publish(broker.NewEvent(eventType, map[string]interface{}{
		"promptId": promptID,
		"date":     date,
	}))
}

func validateVersionName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Field: "name", Message: "cannot be blank"}
	}
	if utf8.RuneCountInString(trimmed) > config.MaxVersionNameLength {
		return &ValidationError{Field: "name", Message: "exceeds maximum length"}
	}
	return nil
}

func findVersion(versions []models.PromptVersion, date string) int {
	for i, v := range versions {
		if v.Date == date {
			return i
		}
	}
	return -1
}

// newVersionDate stamps a version identity that is unique within the
// prompt's history even when two snapshots land in the same nanosecond.
func newVersionDate(existing []models.PromptVersion) string {
	now := time.Now().UTC()
	for {
		date := now.Format(time.RFC3339Nano)
		if findVersion(existing, date) < 0 {
			return date
		}
		now = now.Add(time.Nanosecond)
	}
}
