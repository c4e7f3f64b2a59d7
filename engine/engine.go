// Package engine implements the suggestion controller: the state machine
// that governs when a ghost-text suggestion is fetched, displayed,
// accepted, or rejected in a live-editing buffer. Its guards exist to
// prevent the hardest bug class in this system: a suggestion inserted
// twice, inserted at the wrong location, or racing with the user's own
// typing.
package engine

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"vibetab/logger"
	"vibetab/types"
)

type state int

const (
	stateIdle state = iota
	stateFetching
	statePending
)

// String returns a human-readable name for the state.
func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateFetching:
		return "Fetching"
	case statePending:
		return "Pending"
	default:
		return "Unknown"
	}
}

// Position tolerances, in columns on the anchor line. Resolve is strict so
// a suggestion never surfaces where the user has moved on; accept allows a
// little drift from benign re-renders; departure is the loosest since it
// only dismisses.
const (
	resolveTolerance = 2
	acceptTolerance  = 5
	departTolerance  = 10
)

// Config holds the controller timing knobs. A zero Clock means the system
// clock.
type Config struct {
	TextChangeDebounce time.Duration
	CursorIdleDelay    time.Duration
	AcceptCooldown     time.Duration
	CompletionTimeout  time.Duration
	Clock              Clock
}

// Engine owns the suggestion lifecycle for one editor session: at most one
// in-flight fetch and at most one pending suggestion at a time. All state
// is guarded by mu; events are processed strictly in arrival order by a
// single loop, and the accept/reject key paths enter synchronously under
// the same lock so they preempt default key handling.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	clock   Clock
	editor  Editor
	gateway Gateway
	tracker Tracker

	state        state
	pending      *types.Suggestion
	isAccepting  bool // reentrancy guard for double key dispatch
	justAccepted bool // cooldown guard after an accept
	enabled      bool

	currentCancel context.CancelFunc
	debounceTimer Timer
	idleTimer     Timer
	cooldownTimer Timer

	eventChan  chan Event
	mainCtx    context.Context
	mainCancel context.CancelFunc
	stopped    bool
	stopOnce   sync.Once
}

// New creates an idle, enabled engine for one editor session. The tracker
// may be nil.
func New(editor Editor, gateway Gateway, tracker Tracker, cfg Config) *Engine {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock
	}
	return &Engine{
		cfg:       cfg,
		clock:     clock,
		editor:    editor,
		gateway:   gateway,
		tracker:   tracker,
		state:     stateIdle,
		enabled:   true,
		eventChan: make(chan Event, 100),
	}
}

// Start launches the event loop.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.mainCtx, e.mainCancel = context.WithCancel(ctx)
	e.mu.Unlock()

	go e.eventLoop(e.mainCtx)
	logger.Debug("suggestion engine started for %s", e.editor.FileName())
}

// Stop shuts the engine down and releases timers and in-flight work.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		e.mu.Lock()
		defer e.mu.Unlock()

		e.stopped = true
		if e.mainCancel != nil {
			e.mainCancel()
		}
		if e.currentCancel != nil {
			e.currentCancel()
			e.currentCancel = nil
		}
		e.stopDebounceTimer()
		e.stopIdleTimer()
		if e.cooldownTimer != nil {
			e.cooldownTimer.Stop()
			e.cooldownTimer = nil
		}
		e.pending = nil
		e.state = stateIdle
	})
}

// ContentChanged reports an edit; text is what the edit inserted. The host
// must update its buffer mirror before calling.
func (e *Engine) ContentChanged(text string) {
	e.postEvent(Event{Type: EventContentChanged, Data: &ContentChange{Text: text}})
}

// CursorMoved reports a cursor move to pos.
func (e *Engine) CursorMoved(pos types.Position) {
	e.postEvent(Event{Type: EventCursorMoved, Data: pos})
}

// TriggerSuggestion requests a fetch explicitly (user key command).
func (e *Engine) TriggerSuggestion() {
	e.postEvent(Event{Type: EventTrigger})
}

// ToggleEnabled flips the user AI-assist toggle.
func (e *Engine) ToggleEnabled() {
	e.postEvent(Event{Type: EventToggle})
}

// Enabled reports whether AI assist is currently on.
func (e *Engine) Enabled() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.enabled
}

func (e *Engine) postEvent(event Event) {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	ctx := e.mainCtx
	e.mu.Unlock()

	if ctx == nil {
		// Not started; deliver synchronously (tests drive this path).
		select {
		case e.eventChan <- event:
		default:
			logger.Warn("event dropped, queue full: %s", event.Type)
		}
		return
	}
	select {
	case e.eventChan <- event:
	case <-ctx.Done():
	}
}

func (e *Engine) eventLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-e.eventChan:
			e.handleEvent(event)
		}
	}
}

func (e *Engine) handleEvent(event Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return
	}

	logger.Debug("handle event: %s (state=%s)", event.Type, e.state)

	if e.handleBackgroundEvent(event) {
		return
	}
	e.dispatch(event)
}

// startFetch begins an asynchronous completion fetch anchored at the
// current cursor. Refused unless the engine is enabled, idle, nothing is
// pending, and the accept cooldown has passed.
func (e *Engine) startFetch(source types.SuggestionSource) {
	if e.stopped || !e.enabled || e.justAccepted {
		return
	}
	if e.state != stateIdle || e.pending != nil {
		logger.Debug("fetch refused: state=%s", e.state)
		return
	}
	pos, ok := e.editor.CursorPosition()
	if !ok {
		return
	}

	cc := buildCompletionContext(e.editor, pos)
	e.state = stateFetching

	parent := e.mainCtx
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithTimeout(parent, e.cfg.CompletionTimeout)
	e.currentCancel = cancel

	go func() {
		defer cancel()
		text := e.gateway.GetCompletion(ctx, cc)
		e.postEvent(Event{
			Type: EventSuggestionReady,
			Data: &fetchResult{Text: text, Anchor: pos, Source: source},
		})
	}()
}

// resolveFetch validates a completed fetch against the current cursor. A
// suggestion answering a question the user has already moved past must
// never surface, so anything empty, disabled, or off-anchor is discarded
// silently.
func (e *Engine) resolveFetch(res *fetchResult) {
	e.state = stateIdle
	e.currentCancel = nil

	if !e.enabled || res.Text == "" {
		return
	}
	pos, ok := e.editor.CursorPosition()
	if !ok {
		return
	}
	if pos.Line != res.Anchor.Line || absInt(pos.Col-res.Anchor.Col) > resolveTolerance {
		logger.Debug("stale suggestion discarded: anchor %d:%d, cursor %d:%d",
			res.Anchor.Line, res.Anchor.Col, pos.Line, pos.Col)
		return
	}

	e.pending = &types.Suggestion{
		ID:       newSuggestionID(),
		Text:     res.Text,
		Position: res.Anchor,
	}
	e.state = statePending
	e.editor.ShowSuggestion(*e.pending)
	logger.Debug("suggestion %s shown (%s) at %d:%d", e.pending.ID, res.Source, res.Anchor.Line, res.Anchor.Col)
	if e.tracker != nil {
		e.tracker.Shown(e.pending)
	}
}

func (e *Engine) toggleEnabled() {
	e.enabled = !e.enabled
	logger.Info("ai assist %s", map[bool]string{true: "enabled", false: "disabled"}[e.enabled])
	if !e.enabled {
		e.reject()
		e.state = stateIdle
		e.stopDebounceTimer()
		e.stopIdleTimer()
	}
}

func (e *Engine) startDebounceTimer() {
	e.stopDebounceTimer()
	e.debounceTimer = e.clock.AfterFunc(e.cfg.TextChangeDebounce, func() {
		e.postEvent(Event{Type: EventDebounceTimeout})
	})
}

func (e *Engine) stopDebounceTimer() {
	if e.debounceTimer != nil {
		e.debounceTimer.Stop()
		e.debounceTimer = nil
	}
}

func (e *Engine) startIdleTimer() {
	e.stopIdleTimer()
	e.idleTimer = e.clock.AfterFunc(e.cfg.CursorIdleDelay, func() {
		e.postEvent(Event{Type: EventIdleTimeout})
	})
}

func (e *Engine) stopIdleTimer() {
	if e.idleTimer != nil {
		e.idleTimer.Stop()
		e.idleTimer = nil
	}
}

// buildCompletionContext splits the buffer at the cursor into the
// before/after halves the gateway consumes.
func buildCompletionContext(editor Editor, pos types.Position) *types.CompletionContext {
	content := editor.Content()
	lines := strings.Split(content, "\n")

	lineIdx := pos.Line - 1
	if lineIdx < 0 {
		lineIdx = 0
	}
	if lineIdx >= len(lines) {
		lineIdx = len(lines) - 1
	}
	col := min(pos.Col, len(lines[lineIdx]))

	var before strings.Builder
	for i := 0; i < lineIdx; i++ {
		before.WriteString(lines[i])
		before.WriteString("\n")
	}
	before.WriteString(lines[lineIdx][:col])

	var after strings.Builder
	after.WriteString(lines[lineIdx][col:])
	for _, line := range lines[lineIdx+1:] {
		after.WriteString("\n")
		after.WriteString(line)
	}

	name := editor.FileName()
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return &types.CompletionContext{
		TextBeforeCursor: before.String(),
		TextAfterCursor:  after.String(),
		Language:         editor.Language(),
		FileName:         strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)),
		FileExtension:    ext,
	}
}

// newSuggestionID generates an opaque per-suggestion token.
func newSuggestionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "suggestion"
	}
	return hex.EncodeToString(b)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
