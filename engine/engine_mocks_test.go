package engine

import (
	"context"
	"sync"
	"time"

	"vibetab/types"
)

// --- Mock implementations ---

// mockEditor implements Editor over an in-memory buffer mirror, tracking
// every call the engine makes.
type mockEditor struct {
	mu        sync.Mutex
	content   string
	cursor    types.Position
	hasCursor bool
	path      string
	language  string

	insertFails bool

	insertCalls  int
	lastInsert   string
	lastInsertAt types.Position
	setCursorTo  types.Position
	shownCalls   int
	lastShown    types.Suggestion
	clearCalls   int
}

func newMockEditor() *mockEditor {
	return &mockEditor{
		content:   "package main\n\nfunc main() {\n}",
		cursor:    types.Position{Line: 3, Col: 13},
		hasCursor: true,
		path:      "/tmp/main.go",
		language:  "go",
	}
}

func (m *mockEditor) CursorPosition() (types.Position, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, m.hasCursor
}

func (m *mockEditor) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

func (m *mockEditor) FileName() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.path
}

func (m *mockEditor) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.language
}

func (m *mockEditor) InsertText(pos types.Position, text string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertFails {
		return false
	}
	m.insertCalls++
	m.lastInsert = text
	m.lastInsertAt = pos
	return true
}

func (m *mockEditor) SetCursor(pos types.Position) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = pos
	m.setCursorTo = pos
	return true
}

func (m *mockEditor) ShowSuggestion(s types.Suggestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shownCalls++
	m.lastShown = s
}

func (m *mockEditor) ClearSuggestion() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clearCalls++
}

func (m *mockEditor) moveCursor(pos types.Position) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = pos
}

// mockGateway returns a scripted completion and records the contexts it
// was asked about.
type mockGateway struct {
	mu       sync.Mutex
	text     string
	calls    int
	lastCtx  *types.CompletionContext
	released chan struct{} // when non-nil, GetCompletion blocks until closed
}

func (m *mockGateway) GetCompletion(ctx context.Context, cc *types.CompletionContext) string {
	m.mu.Lock()
	m.calls++
	m.lastCtx = cc
	released := m.released
	text := m.text
	m.mu.Unlock()

	if released != nil {
		select {
		case <-released:
		case <-ctx.Done():
			return ""
		}
	}
	return text
}

func (m *mockGateway) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// mockTracker counts lifecycle notifications.
type mockTracker struct {
	mu        sync.Mutex
	shown     int
	accepted  int
	dismissed int
}

func (m *mockTracker) Shown(s *types.Suggestion)     { m.mu.Lock(); m.shown++; m.mu.Unlock() }
func (m *mockTracker) Accepted(s *types.Suggestion)  { m.mu.Lock(); m.accepted++; m.mu.Unlock() }
func (m *mockTracker) Dismissed(s *types.Suggestion) { m.mu.Lock(); m.dismissed++; m.mu.Unlock() }

func (m *mockTracker) counts() (int, int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shown, m.accepted, m.dismissed
}

// mockTimer records whether it was stopped; firing is driven by the test
// through mockClock.
type mockTimer struct {
	f       func()
	stopped bool
	clock   *mockClock
}

func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	was := t.stopped
	t.stopped = true
	return !was
}

// mockClock captures AfterFunc callbacks so tests fire timers explicitly
// instead of sleeping.
type mockClock struct {
	mu     sync.Mutex
	timers []*mockTimer
	now    time.Time
}

func newMockClock() *mockClock {
	return &mockClock{now: time.Unix(1000, 0)}
}

func (c *mockClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{f: f, clock: c}
	c.timers = append(c.timers, t)
	return t
}

func (c *mockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// fireLatest runs the most recently armed timer that has not been stopped.
// Returns false when no live timer exists.
func (c *mockClock) fireLatest() bool {
	c.mu.Lock()
	var t *mockTimer
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			t = c.timers[i]
			t.stopped = true
			break
		}
	}
	c.mu.Unlock()

	if t == nil {
		return false
	}
	t.f()
	return true
}

func (c *mockClock) liveTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}
