package main

import (
	"context"
	"strings"
	"sync"

	"github.com/gorilla/websocket"

	"vibetab/engine"
	"vibetab/gateway"
	"vibetab/logger"
	"vibetab/metrics"
	"vibetab/text"
	"vibetab/types"
)

// clientMessage is one inbound frame from the editor peer.
type clientMessage struct {
	Type     string          `json:"type"`
	Path     string          `json:"path,omitempty"`
	Language string          `json:"language,omitempty"`
	Content  string          `json:"content,omitempty"`
	Text     string          `json:"text,omitempty"`
	Cursor   *types.Position `json:"cursor,omitempty"`
	Original string          `json:"original,omitempty"`
	Modified string          `json:"modified,omitempty"`
	Context  int             `json:"context,omitempty"`
}

// serverMessage is one outbound frame to the editor peer.
type serverMessage struct {
	Type       string            `json:"type"`
	Suggestion *types.Suggestion `json:"suggestion,omitempty"`
	Position   *types.Position   `json:"position,omitempty"`
	Text       string            `json:"text,omitempty"`
	Accepted   *bool             `json:"accepted,omitempty"`
	Blocks     []text.DiffBlock  `json:"blocks,omitempty"`
	Stats      *text.DiffStats   `json:"stats,omitempty"`
	FirstLine  int               `json:"first_changed_line,omitempty"`
}

// session binds one websocket connection to one suggestion engine. The
// session mirrors the peer's buffer so the engine reads content and cursor
// locally instead of round-tripping to the editor; the peer keeps the
// mirror fresh through content_changed and cursor_moved frames.
//
// session is the engine's Editor: reads come from the mirror, mutations go
// out as frames and are applied to the mirror in the same step.
type session struct {
	conn   *safeConn
	engine *engine.Engine

	mu        sync.Mutex
	path      string
	language  string
	content   string
	cursor    types.Position
	hasCursor bool
}

func newSession(conn *safeConn, gw *gateway.Gateway, tracker *metrics.Tracker, cfg types.Config) *session {
	s := &session{conn: conn}
	s.engine = engine.New(s, gw, tracker, engine.Config{
		TextChangeDebounce: cfg.TextChangeDebounce,
		CursorIdleDelay:    cfg.CursorIdleDelay,
		AcceptCooldown:     cfg.AcceptCooldown,
		CompletionTimeout:  cfg.CompletionTimeout,
	})
	return s
}

// run drives the session until the peer disconnects.
func (s *session) run(ctx context.Context) {
	defer s.conn.Close()
	defer s.engine.Stop()

	s.engine.Start(ctx)

	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("session read error: %v", err)
			}
			return
		}
		s.handleMessage(&msg)
	}
}

func (s *session) handleMessage(msg *clientMessage) {
	switch msg.Type {
	case "open":
		s.mu.Lock()
		s.path = msg.Path
		s.language = msg.Language
		s.content = msg.Content
		if msg.Cursor != nil {
			s.cursor = *msg.Cursor
			s.hasCursor = true
		}
		s.mu.Unlock()
		logger.Info("session opened: %s (%s)", msg.Path, msg.Language)

	case "content_changed":
		s.mu.Lock()
		s.content = msg.Content
		if msg.Cursor != nil {
			s.cursor = *msg.Cursor
			s.hasCursor = true
		}
		s.mu.Unlock()
		s.engine.ContentChanged(msg.Text)

	case "cursor_moved":
		if msg.Cursor == nil {
			return
		}
		s.mu.Lock()
		s.cursor = *msg.Cursor
		s.hasCursor = true
		s.mu.Unlock()
		s.engine.CursorMoved(*msg.Cursor)

	case "accept":
		accepted := s.engine.AcceptKey()
		s.send(&serverMessage{Type: "accept_result", Accepted: &accepted})

	case "reject":
		s.engine.RejectKey()

	case "trigger":
		s.engine.TriggerSuggestion()

	case "toggle":
		s.engine.ToggleEnabled()

	case "diff":
		contextLines := msg.Context
		if contextLines <= 0 {
			contextLines = 3
		}
		diff := text.ComputeDiff(msg.Original, msg.Modified)
		stats := text.GetDiffStats(diff)
		s.send(&serverMessage{
			Type:      "diff_result",
			Blocks:    text.GroupDiffBlocks(diff, contextLines),
			Stats:     &stats,
			FirstLine: text.FindFirstChangedLine(text.SplitLines(msg.Original), text.SplitLines(msg.Modified), 0),
		})

	default:
		logger.Debug("unknown message type: %q", msg.Type)
	}
}

func (s *session) send(msg *serverMessage) {
	if err := s.conn.WriteJSON(msg); err != nil {
		logger.Error("session write error: %v", err)
	}
}

// Editor implementation. Reads serve from the mirror; mutations update the
// mirror and notify the peer in the same step, so the engine's view never
// waits on the network.

func (s *session) CursorPosition() (types.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor, s.hasCursor
}

func (s *session) Content() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.content
}

func (s *session) FileName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *session) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

func (s *session) InsertText(pos types.Position, insert string) bool {
	s.mu.Lock()
	updated, ok := applyInsert(s.content, pos, insert)
	if ok {
		s.content = updated
	}
	s.mu.Unlock()
	if !ok {
		return false
	}
	s.send(&serverMessage{Type: "insert", Position: &pos, Text: insert})
	return true
}

func (s *session) SetCursor(pos types.Position) bool {
	s.mu.Lock()
	s.cursor = pos
	s.hasCursor = true
	s.mu.Unlock()
	s.send(&serverMessage{Type: "set_cursor", Position: &pos})
	return true
}

func (s *session) ShowSuggestion(sug types.Suggestion) {
	s.send(&serverMessage{Type: "suggestion", Suggestion: &sug})
}

func (s *session) ClearSuggestion() {
	s.send(&serverMessage{Type: "clear"})
}

// applyInsert splices insert into content at pos (1-indexed line, byte
// column). Fails when pos falls outside the buffer.
func applyInsert(content string, pos types.Position, insert string) (string, bool) {
	lines := strings.Split(content, "\n")
	lineIdx := pos.Line - 1
	if lineIdx < 0 || lineIdx >= len(lines) {
		return "", false
	}
	line := lines[lineIdx]
	if pos.Col < 0 || pos.Col > len(line) {
		return "", false
	}
	lines[lineIdx] = line[:pos.Col] + insert + line[pos.Col:]
	return strings.Join(lines, "\n"), true
}
