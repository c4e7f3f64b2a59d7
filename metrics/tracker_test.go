package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vibetab/types"
)

func TestTrackerCounters(t *testing.T) {
	tr := NewTracker("")
	s := &types.Suggestion{ID: "s1", Text: "foo()\nbar()"}

	tr.Shown(s)
	tr.Shown(&types.Suggestion{ID: "s2", Text: "x"})
	tr.Accepted(s)
	tr.Dismissed(&types.Suggestion{ID: "s2", Text: "x"})

	assert.Equal(t, Counters{Shown: 2, Accepted: 1, Dismissed: 1}, tr.Counters())
}

func TestTrackerPostsEvents(t *testing.T) {
	var mu sync.Mutex
	var got []eventPayload
	received := make(chan struct{}, 10)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var p eventPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
		received <- struct{}{}
	}))
	defer srv.Close()

	tr := NewTracker(srv.URL)
	s := &types.Suggestion{ID: "abc", Text: "one\ntwo\nthree"}
	tr.Shown(s)
	tr.Accepted(s)

	for i := 0; i < 2; i++ {
		select {
		case <-received:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for metrics post")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 2)
	byType := make(map[string]eventPayload)
	for _, p := range got {
		byType[p.EventType] = p
	}

	shown, ok := byType[EventShown]
	require.True(t, ok)
	assert.Equal(t, "abc", shown.SuggestionID)
	assert.Equal(t, 3, shown.Additions)
	assert.Nil(t, shown.LifespanMs)

	accepted, ok := byType[EventAccepted]
	require.True(t, ok)
	require.NotNil(t, accepted.LifespanMs)
	assert.GreaterOrEqual(t, *accepted.LifespanMs, int64(0))
}

func TestTrackerLifespanUnknownSuggestion(t *testing.T) {
	tr := NewTracker("")

	// Dismissing something never shown must not panic or leak.
	tr.Dismissed(&types.Suggestion{ID: "ghost", Text: "x"})
	assert.Equal(t, Counters{Dismissed: 1}, tr.Counters())
}

func TestLineCount(t *testing.T) {
	assert.Zero(t, lineCount(""))
	assert.Equal(t, 1, lineCount("one"))
	assert.Equal(t, 2, lineCount("one\ntwo"))
}
