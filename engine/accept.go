package engine

import (
	"strings"

	"vibetab/logger"
	"vibetab/types"
)

// AcceptKey attempts to accept the pending suggestion. It runs
// synchronously so the host can check the result before the key's default
// behavior fires: false means "fall back" (insert a plain tab, etc).
//
// The operation is idempotent against re-entrant key dispatch: a second
// call while isAccepting is set, or within the post-accept cooldown, is a
// no-op. One logical keypress performs at most one buffer mutation.
func (e *Engine) AcceptKey() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.accept()
}

// RejectKey dismisses the pending suggestion, if any. Never touches the
// buffer.
func (e *Engine) RejectKey() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reject()
	e.state = stateIdle
}

func (e *Engine) accept() bool {
	if e.isAccepting || e.justAccepted {
		logger.Debug("accept blocked: already accepting/accepted")
		return false
	}
	if e.pending == nil || e.state != statePending {
		return false
	}

	pos, ok := e.editor.CursorPosition()
	if !ok {
		return false
	}
	anchor := e.pending.Position
	if pos.Line != anchor.Line || pos.Col < anchor.Col || pos.Col > anchor.Col+acceptTolerance {
		logger.Debug("cursor drifted from anchor, not accepting")
		return false
	}

	// Both guards raise in the same tick, before the mutation, so a
	// re-entrant dispatch of the same keypress observes them.
	e.isAccepting = true
	e.justAccepted = true

	clean := strings.ReplaceAll(e.pending.Text, "\r", "")
	if !e.editor.InsertText(anchor, clean) {
		// Buffer refused the edit: abort with every piece of state as it
		// was, so the host falls back to the key's default behavior.
		e.isAccepting = false
		e.justAccepted = false
		logger.Warn("editor rejected suggestion insert")
		return false
	}

	e.editor.SetCursor(endOfInsertion(anchor, clean))
	if e.tracker != nil {
		e.tracker.Accepted(e.pending)
	}
	e.clearPending()
	e.state = stateIdle

	e.isAccepting = false
	e.startCooldown()
	return true
}

func (e *Engine) reject() {
	if e.pending == nil {
		return
	}
	if e.tracker != nil {
		e.tracker.Dismissed(e.pending)
	}
	e.clearPending()
}

func (e *Engine) clearPending() {
	if e.pending != nil {
		e.editor.ClearSuggestion()
	}
	e.pending = nil
}

// startCooldown holds justAccepted up for a fixed window after an accept.
// Editor key models can dispatch one physical keypress to more than one
// command binding; without the cooldown the duplicate dispatch would
// re-accept or instantly re-fetch.
func (e *Engine) startCooldown() {
	if e.cooldownTimer != nil {
		e.cooldownTimer.Stop()
	}
	e.cooldownTimer = e.clock.AfterFunc(e.cfg.AcceptCooldown, func() {
		e.postEvent(Event{Type: EventCooldownExpired})
	})
}

// endOfInsertion computes where the cursor lands after inserting text at
// pos, from the inserted text's own line/column delta.
func endOfInsertion(pos types.Position, text string) types.Position {
	lines := strings.Split(text, "\n")
	if len(lines) == 1 {
		return types.Position{Line: pos.Line, Col: pos.Col + len(text)}
	}
	return types.Position{
		Line: pos.Line + len(lines) - 1,
		Col:  len(lines[len(lines)-1]),
	}
}
