package services

import (
	"strings"
	"time"
	"unicode/utf8"

	"promptvault/broker"
	"promptvault/config"
	"promptvault/models"
)

type NoteServiceInterface interface {
	AddNote(promptID, content string) (models.Prompt, error)
	DeleteNote(promptID, date string) (models.Prompt, error)
}

// NoteService manages the free-form notes attached to a prompt. Notes are
// append-only apart from individual deletion.
type NoteService struct {
	index PromptIndexInterface
	bus   *broker.Bus
}

func NewNoteService(index PromptIndexInterface, bus *broker.Bus) *NoteService {
	return &NoteService{index: index, bus: bus}
}

func (s *NoteService) AddNote(promptID, content string) (models.Prompt, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return models.Prompt{}, &ValidationError{Field: "content", Message: "cannot be blank"}
	}
	if utf8.RuneCountInString(trimmed) > config.MaxNoteLength {
		return models.Prompt{}, &ValidationError{Field: "content", Message: "exceeds maximum length"}
	}

	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}

	note := models.PromptNote{
		Date:    newNoteDate(prompt.Notes),
		Content: trimmed,
	}
	notes := append(append([]models.PromptNote(nil), prompt.Notes...), note)

	updated, err := s.index.Update(promptID, map[string]interface{}{"notes": notes})
	if err != nil {
		return models.Prompt{}, err
	}
	s.bus.Publish(broker.NewEvent(broker.NoteAdded, map[string]interface{}{
		"promptId": promptID,
		"date":     note.Date,
	}))
	return updated, nil
}

func (s *NoteService) DeleteNote(promptID, date string) (models.Prompt, error) {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return models.Prompt{}, err
	}

	idx := -1
	for i, n := range prompt.Notes {
		if n.Date == date {
			idx = i
			break
		}
	}
	if idx < 0 {
		return models.Prompt{}, ErrNoteNotFound
	}

	notes := make([]models.PromptNote, 0, len(prompt.Notes)-1)
	notes = append(notes, prompt.Notes[:idx]...)
	notes = append(notes, prompt.Notes[idx+1:]...)

	updated, err := s.index.Update(promptID, map[string]interface{}{"notes": notes})
	if err != nil {
		return models.Prompt{}, err
	}
	s.bus.Publish(broker.NewEvent(broker.NoteDeleted, map[string]interface{}{
		"promptId": promptID,
		"date":     date,
	}))
	return updated, nil
}

func newNoteDate(existing []models.PromptNote) string {
	now := time.Now().UTC()
	for {
		date := now.Format(time.RFC3339Nano)
		taken := false
		for _, n := range existing {
			if n.Date == date {
				taken = true
				break
			}
		}
		if !taken {
			return date
		}
		now = now.Add(time.Nanosecond)
	}
}
