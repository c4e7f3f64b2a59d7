package engine

import (
	"strings"

	"vibetab/logger"
	"vibetab/types"
)

// EventType represents the type of event in the engine.
type EventType string

const (
	EventContentChanged  EventType = "content_changed"
	EventCursorMoved     EventType = "cursor_moved"
	EventTrigger         EventType = "trigger"
	EventToggle          EventType = "toggle"
	EventDebounceTimeout EventType = "debounce_timeout"
	EventIdleTimeout     EventType = "idle_timeout"
	EventSuggestionReady EventType = "suggestion_ready"
	EventCooldownExpired EventType = "cooldown_expired"
)

// Event is one input to the engine's event loop.
type Event struct {
	Type EventType
	Data any
}

// ContentChange carries the text inserted by the most recent edit. The
// host updates its buffer mirror before posting the event, so the engine
// reads post-edit content through the Editor.
type ContentChange struct {
	Text string
}

// fetchResult is the payload of EventSuggestionReady: the gateway's answer
// plus the cursor snapshot the fetch was anchored to.
type fetchResult struct {
	Text   string
	Anchor types.Position
	Source types.SuggestionSource
}

// Transition represents a valid state transition in the engine's state machine.
type Transition struct {
	From   state
	Event  EventType
	Action func(*Engine, Event)
}

// transitions defines all valid state transitions.
//
// State Machine:
//
//	stateIdle
//	├─[ContentChanged: trigger char]──► debounce timer armed, stays idle
//	├─[CursorMoved]──────────────────► idle timer re-armed, stays idle
//	├─[DebounceTimeout/IdleTimeout/Trigger]──► stateFetching
//	│                                            │
//	│            ┌─[SuggestionReady: empty or cursor moved]──► stateIdle
//	│            └─[SuggestionReady: valid at anchor]────────► statePending
//	│                                                            │
//	│                         ┌─[accept key, guards pass]──► one atomic insert ──► stateIdle (cooldown)
//	│                         ├─[reject key / cursor departs / mismatched typing]──► stateIdle
//	│                         └─[typing that matches the suggestion prefix]──► consumes it, stays pending
//	│
//	└─ accept/reject keys enter synchronously (AcceptKey/RejectKey), not
//	   through this table, so the host can preempt default key behavior.
//
// Toggle and CooldownExpired are state-independent and handled before the
// table lookup.
var transitions = []Transition{
	// From stateIdle
	{stateIdle, EventContentChanged, (*Engine).doContentChangedIdle},
	{stateIdle, EventCursorMoved, (*Engine).doCursorMovedIdle},
	{stateIdle, EventTrigger, (*Engine).doManualTrigger},
	{stateIdle, EventDebounceTimeout, (*Engine).doFetchTyping},
	{stateIdle, EventIdleTimeout, (*Engine).doFetchIdle},

	// From stateFetching
	{stateFetching, EventContentChanged, (*Engine).doContentChangedFetching},
	{stateFetching, EventCursorMoved, (*Engine).doCursorMovedFetching},
	{stateFetching, EventSuggestionReady, (*Engine).doResolveFetch},

	// From statePending
	{statePending, EventContentChanged, (*Engine).doContentChangedPending},
	{statePending, EventCursorMoved, (*Engine).doCursorMovedPending},
	{statePending, EventTrigger, (*Engine).doRefuseTrigger},
}

// transitionMap provides O(1) lookup for transitions by (state, event) pair.
var transitionMap map[transitionKey]*Transition

type transitionKey struct {
	from  state
	event EventType
}

func init() {
	transitionMap = make(map[transitionKey]*Transition)
	for i := range transitions {
		t := &transitions[i]
		transitionMap[transitionKey{from: t.From, event: t.Event}] = t
	}
}

// dispatch finds and executes the transition for an event. Events with no
// transition from the current state are dropped; that is the normal
// discard path for stale async results, not an error.
func (e *Engine) dispatch(event Event) bool {
	t := transitionMap[transitionKey{from: e.state, event: event.Type}]
	if t == nil {
		logger.Debug("no handler: state=%s event=%s", e.state, event.Type)
		return false
	}
	if t.Action != nil {
		t.Action(e, event)
	}
	return true
}

// handleBackgroundEvent handles state-independent events before table
// dispatch. Returns true when the event was consumed.
func (e *Engine) handleBackgroundEvent(event Event) bool {
	switch event.Type {
	case EventToggle:
		e.toggleEnabled()
		return true
	case EventCooldownExpired:
		e.justAccepted = false
		e.cooldownTimer = nil
		return true
	}
	return false
}

// triggerChars are the edit keystrokes that qualify to schedule a fetch.
const triggerChars = "{.=(,:;"

// isTriggerText reports whether an inserted text qualifies as a fetch
// trigger. A newline insertion may carry auto-indent whitespace behind it.
func isTriggerText(text string) bool {
	if text == "" {
		return false
	}
	if strings.HasPrefix(text, "\n") {
		return true
	}
	return len(text) == 1 && strings.ContainsAny(text, triggerChars)
}

// Action functions for state transitions.

func (e *Engine) doContentChangedIdle(event Event) {
	change := event.Data.(*ContentChange)
	if e.isAccepting || e.justAccepted {
		return
	}
	if e.enabled && isTriggerText(change.Text) {
		e.startDebounceTimer()
	}
}

func (e *Engine) doCursorMovedIdle(event Event) {
	if e.isAccepting || e.justAccepted || !e.enabled {
		return
	}
	e.startIdleTimer()
}

func (e *Engine) doManualTrigger(event Event) {
	e.startFetch(types.SuggestionSourceManual)
}

func (e *Engine) doFetchTyping(event Event) {
	e.startFetch(types.SuggestionSourceTyping)
}

func (e *Engine) doFetchIdle(event Event) {
	e.startFetch(types.SuggestionSourceIdle)
}

func (e *Engine) doContentChangedFetching(event Event) {
	change := event.Data.(*ContentChange)
	if e.isAccepting {
		return
	}
	// Re-arm the debounce so typing during a round trip can produce a
	// fresh fetch after this one resolves. The in-flight call itself is
	// never cancelled; the staleness check at resolution discards it.
	if e.enabled && isTriggerText(change.Text) {
		e.startDebounceTimer()
	}
}

func (e *Engine) doCursorMovedFetching(event Event) {
	// Nothing to do: the resolve step re-validates the cursor position.
}

func (e *Engine) doResolveFetch(event Event) {
	e.resolveFetch(event.Data.(*fetchResult))
}

func (e *Engine) doContentChangedPending(event Event) {
	change := event.Data.(*ContentChange)
	if e.isAccepting || e.justAccepted {
		return
	}

	switch {
	case change.Text != "" && strings.HasPrefix(e.pending.Text, change.Text):
		// The user typed the suggestion's own prefix: consume it and keep
		// the remainder pending at the advanced anchor. Typing the whole
		// suggestion leaves no remainder and clears it.
		e.pending.Position = endOfInsertion(e.pending.Position, change.Text)
		e.pending.Text = e.pending.Text[len(change.Text):]
		if e.pending.Text == "" {
			e.clearPending()
			e.state = stateIdle
			return
		}
		e.editor.ShowSuggestion(*e.pending)
	default:
		e.reject()
		e.state = stateIdle
		if e.enabled && isTriggerText(change.Text) {
			e.startDebounceTimer()
		}
	}
}

func (e *Engine) doCursorMovedPending(event Event) {
	pos := event.Data.(types.Position)
	if e.isAccepting || e.justAccepted {
		return
	}
	anchor := e.pending.Position
	if pos.Line != anchor.Line || pos.Col < anchor.Col || pos.Col > anchor.Col+departTolerance {
		logger.Debug("cursor moved away from suggestion, rejecting")
		e.reject()
		e.state = stateIdle
	}
}

func (e *Engine) doRefuseTrigger(event Event) {
	// At most one suggestion may be pending; the user must accept,
	// reject, or move away first.
	logger.Debug("trigger refused: suggestion already pending")
}
