package config

const (
	// MaxPromptNameLength bounds prompt display names.
	MaxPromptNameLength = 50

	// MaxVersions caps how many snapshots a single prompt may hold.
	// Creating a version past the cap is refused until one is deleted.
	MaxVersions = 10

	// MaxContentLength bounds a single version's content, in characters.
	MaxContentLength = 10000

	// MaxVersionNameLength bounds version labels.
	MaxVersionNameLength = 50

	// MaxNoteLength bounds a prompt note's content, in characters.
	MaxNoteLength = 500

	// MaxTagNameLength bounds tag names.
	MaxTagNameLength = 25

	// MaxGroupNameLength bounds group names.
	MaxGroupNameLength = 50
)
