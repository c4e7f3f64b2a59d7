// Package metrics tracks the suggestion lifecycle: shown, accepted,
// dismissed. Counters are always kept in-process; events are additionally
// posted to an endpoint when one is configured. Posting is fire-and-forget
// and never blocks the editing path.
package metrics

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"vibetab/logger"
	"vibetab/types"
)

const (
	EventShown     = "suggestion_shown"
	EventAccepted  = "suggestion_accepted"
	EventDismissed = "suggestion_dismissed"
)

type eventPayload struct {
	EventType    string `json:"event_type"`
	SuggestionID string `json:"suggestion_id"`
	Additions    int    `json:"additions"`
	LifespanMs   *int64 `json:"lifespan_ms,omitempty"`
}

// Counters is a snapshot of lifecycle totals.
type Counters struct {
	Shown     int64 `json:"shown"`
	Accepted  int64 `json:"accepted"`
	Dismissed int64 `json:"dismissed"`
}

// Tracker implements the engine's tracker surface. Safe for concurrent use
// by all sessions.
type Tracker struct {
	endpoint   string
	httpClient *http.Client

	shown     atomic.Int64
	accepted  atomic.Int64
	dismissed atomic.Int64

	mu      sync.Mutex
	shownAt map[string]time.Time
}

// NewTracker creates a tracker. An empty endpoint keeps tracking local.
func NewTracker(endpoint string) *Tracker {
	return &Tracker{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		shownAt:    make(map[string]time.Time),
	}
}

// Shown records that a suggestion surfaced as ghost text.
func (t *Tracker) Shown(s *types.Suggestion) {
	t.shown.Add(1)
	t.mu.Lock()
	t.shownAt[s.ID] = time.Now()
	t.mu.Unlock()
	t.post(&eventPayload{
		EventType:    EventShown,
		SuggestionID: s.ID,
		Additions:    lineCount(s.Text),
	})
}

// Accepted records that a suggestion was inserted into the buffer.
func (t *Tracker) Accepted(s *types.Suggestion) {
	t.accepted.Add(1)
	t.post(&eventPayload{
		EventType:    EventAccepted,
		SuggestionID: s.ID,
		Additions:    lineCount(s.Text),
		LifespanMs:   t.takeLifespan(s.ID),
	})
}

// Dismissed records that a suggestion was rejected or abandoned.
func (t *Tracker) Dismissed(s *types.Suggestion) {
	t.dismissed.Add(1)
	t.post(&eventPayload{
		EventType:    EventDismissed,
		SuggestionID: s.ID,
		Additions:    lineCount(s.Text),
		LifespanMs:   t.takeLifespan(s.ID),
	})
}

// Counters snapshots the lifecycle totals.
func (t *Tracker) Counters() Counters {
	return Counters{
		Shown:     t.shown.Load(),
		Accepted:  t.accepted.Load(),
		Dismissed: t.dismissed.Load(),
	}
}

func (t *Tracker) takeLifespan(id string) *int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	shownAt, ok := t.shownAt[id]
	if !ok {
		return nil
	}
	delete(t.shownAt, id)
	ms := time.Since(shownAt).Milliseconds()
	return &ms
}

func (t *Tracker) post(p *eventPayload) {
	if t.endpoint == "" {
		return
	}
	go func() {
		body, err := json.Marshal(p)
		if err != nil {
			return
		}
		resp, err := t.httpClient.Post(t.endpoint, "application/json", bytes.NewReader(body))
		if err != nil {
			logger.Debug("metrics post failed: %v", err)
			return
		}
		resp.Body.Close()
	}()
}

func lineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
