package models

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"promptvault/config"
)

// PromptVersion is one content snapshot inside a prompt. The date string is
// the version's identity within its prompt and must be unique there.
type PromptVersion struct {
	Date    string `json:"date"`
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// DisplayName returns the label shown in version lists, falling back to a
// formatted date when the version was never named.
func (v PromptVersion) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	if t, err := time.Parse(time.RFC3339Nano, v.Date); err == nil {
		return t.Local().Format("Jan 2, 2006 15:04")
	}
	return v.Date
}

// PromptNote is a free-form annotation attached to a prompt, identified by
// its date within the prompt's notes.
type PromptNote struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// Prompt is the unit of storage: one prompt maps to one file in the vault.
// Versions[0] is always the current content. ChatHistory is carried opaquely
// for older files and never interpreted.
type Prompt struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Versions    []PromptVersion `json:"versions"`
	Notes       []PromptNote    `json:"notes"`
	ChatHistory json.RawMessage `json:"chatHistory,omitempty"`
	Tags        []string        `json:"tags"`
	GroupID     *string         `json:"group,omitempty"`
	IsFavorite  bool            `json:"isFavorite"`
	IsSynced    bool            `json:"isSynced"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

func (p *Prompt) FromJSON(data []byte) error {
	return json.Unmarshal(data, p)
}

func (p *Prompt) ToJSON() ([]byte, error) {
	return json.Marshal(p)
}

// Validate applies the structural rule shared by create and update: id
// present, name non-blank within bounds, at least one version.
func (p Prompt) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.ID, validation.Required),
		validation.Field(&p.Name,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, config.MaxPromptNameLength),
		),
		validation.Field(&p.Versions, validation.Required, validation.Length(1, 0)),
	)
}

func notBlank(value interface{}) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

// CurrentVersion returns the version at index 0, the one the editing surface
// shows. Nil only for malformed prompts that never passed validation.
func (p *Prompt) CurrentVersion() *PromptVersion {
	if len(p.Versions) == 0 {
		return nil
	}
	return &p.Versions[0]
}

// HasTag reports whether the prompt references the given tag id.
func (p *Prompt) HasTag(tagID string) bool {
	for _, id := range p.Tags {
		if id == tagID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can hand out prompts without aliasing
// the index's internal state.
func (p Prompt) Clone() Prompt {
	out := p
	out.Versions = append([]PromptVersion(nil), p.Versions...)
	out.Notes = append([]PromptNote(nil), p.Notes...)
	out.Tags = append([]string(nil), p.Tags...)
	if p.GroupID != nil {
		g := *p.GroupID
		out.GroupID = &g
	}
	if p.ChatHistory != nil {
		out.ChatHistory = append(json.RawMessage(nil), p.ChatHistory...)
	}
	return out
}
