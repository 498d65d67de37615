package models

import (
	"encoding/json"
	"math/rand"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"promptvault/config"
)

// TagPalette is the fixed set of colors new tags draw from.
var TagPalette = []string{
	"#ef4444", "#f97316", "#f59e0b", "#84cc16",
	"#10b981", "#06b6d4", "#3b82f6", "#8b5cf6",
	"#d946ef", "#ec4899",
}

// RandomTagColor picks a palette entry for a newly created tag.
func RandomTagColor() string {
	return TagPalette[rand.Intn(len(TagPalette))]
}

// Tag labels prompts. Names are unique case-insensitively across the
// registry. Prompts holds the reverse references maintained alongside each
// prompt's own tag list.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color"`
	Prompts   []string  `json:"prompts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Tag) FromJSON(data []byte) error {
	return json.Unmarshal(data, t)
}

func (t *Tag) ToJSON() ([]byte, error) {
	return json.Marshal(t)
}

func (t Tag) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ID, validation.Required),
		validation.Field(&t.Name,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, config.MaxTagNameLength),
		),
	)
}

// HasPrompt reports whether the tag back-references the given prompt id.
func (t *Tag) HasPrompt(promptID string) bool {
	for _, id := range t.Prompts {
		if id == promptID {
			return true
		}
	}
	return false
}
