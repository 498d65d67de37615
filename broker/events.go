package broker

import "time"

type EventType string

const (
	// Standardized event types in format: <resource>.<action>
	PromptCreated  EventType = "prompt.created"
	PromptUpdated  EventType = "prompt.updated"
	PromptDeleted  EventType = "prompt.deleted"
	PromptSelected EventType = "prompt.selected"

	VersionCreated  EventType = "version.created"
	VersionRenamed  EventType = "version.renamed"
	VersionPromoted EventType = "version.promoted"
	VersionDeleted  EventType = "version.deleted"

	NoteAdded   EventType = "note.added"
	NoteDeleted EventType = "note.deleted"

	TagCreated EventType = "tag.created"
	TagUpdated EventType = "tag.updated"
	TagDeleted EventType = "tag.deleted"

	GroupCreated EventType = "group.created"
	GroupUpdated EventType = "group.updated"
	GroupDeleted EventType = "group.deleted"
)

// Event is what mutation paths publish and the websocket hub forwards to
// connected UI clients.
type Event struct {
	Type      EventType              `json:"type"`
	Payload   map[string]interface{} `json:"payload"`
	Timestamp time.Time              `json:"timestamp"`
}

func NewEvent(eventType EventType, payload map[string]interface{}) Event {
	return Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}
