package engine

import (
	"context"

	"vibetab/types"
)

// Editor is the capability surface the controller requires from a text
// editing host. Any surface that can report its cursor and content,
// perform one atomic insert, and render ghost text can host the engine;
// the controller never depends on a concrete editor implementation.
//
// Mutating calls report success so the controller can fall back when the
// buffer refuses an edit (read-only buffer, dropped connection).
type Editor interface {
	CursorPosition() (types.Position, bool)
	Content() string
	FileName() string
	Language() string
	InsertText(pos types.Position, text string) bool
	SetCursor(pos types.Position) bool
	ShowSuggestion(s types.Suggestion)
	ClearSuggestion()
}

// Gateway produces a completion for an editing context, or "" when none is
// available. Implementations never return errors; unavailability and
// refusal are indistinguishable from "no suggestion" here.
type Gateway interface {
	GetCompletion(ctx context.Context, cc *types.CompletionContext) string
}

// Tracker observes the suggestion lifecycle for metrics. All methods are
// fire-and-forget; the engine tolerates a nil tracker.
type Tracker interface {
	Shown(s *types.Suggestion)
	Accepted(s *types.Suggestion)
	Dismissed(s *types.Suggestion)
}
