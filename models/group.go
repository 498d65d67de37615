package models

import (
	"encoding/json"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"promptvault/config"
)

// Group is an optional single bucket a prompt can belong to. Names are
// unique case-insensitively across the registry.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Prompts   []string  `json:"prompts"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (g *Group) FromJSON(data []byte) error {
	return json.Unmarshal(data, g)
}

func (g *Group) ToJSON() ([]byte, error) {
	return json.Marshal(g)
}

func (g Group) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.ID, validation.Required),
		validation.Field(&g.Name,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, config.MaxGroupNameLength),
		),
	)
}

// HasPrompt reports whether the group back-references the given prompt id.
func (g *Group) HasPrompt(promptID string) bool {
	for _, id := range g.Prompts {
		if id == promptID {
			return true
		}
	}
	return false
}
