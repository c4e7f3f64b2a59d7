package types

// Position is a location in a text buffer.
// Lines are 1-indexed, columns are 0-indexed byte offsets.
type Position struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// SuggestionSource indicates what caused a suggestion fetch.
type SuggestionSource int

const (
	SuggestionSourceTyping SuggestionSource = iota
	SuggestionSourceIdle
	SuggestionSourceManual
)

// String returns a human-readable name for the source.
func (s SuggestionSource) String() string {
	switch s {
	case SuggestionSourceTyping:
		return "typing"
	case SuggestionSourceIdle:
		return "idle"
	case SuggestionSourceManual:
		return "manual"
	default:
		return "unknown"
	}
}

// CompletionContext is the input to a completion request: the text around
// the cursor plus file identity hints. Constructed fresh per request and
// never mutated afterwards.
type CompletionContext struct {
	TextBeforeCursor string
	TextAfterCursor  string
	Language         string
	FileName         string
	FileExtension    string
}

// Suggestion is a ghost-text suggestion anchored at the position where it
// was generated. The ID is an opaque token regenerated per suggestion.
type Suggestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Position Position `json:"position"`
}
