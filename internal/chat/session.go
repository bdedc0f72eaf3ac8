package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/vilatvok/rentbot/internal/api"
	"github.com/vilatvok/rentbot/internal/config"
	"github.com/vilatvok/rentbot/internal/domain"
)

// Status is the connection state surfaced to the UI.
type Status int

const (
	StatusConnecting Status = iota
	StatusOpen
	StatusClosing
	StatusClosed
)

func (s Status) String() string {
	switch s {
	case StatusConnecting:
		return "Connecting..."
	case StatusOpen:
		return "Connected"
	case StatusClosing:
		return "Disconnecting..."
	case StatusClosed:
		return "Disconnected"
	}
	return "Unknown"
}

// Event is one item of the visible chat log stream: an appended message, a
// status transition, or a terminal failure after the reconnect budget is
// spent.
type Event struct {
	Message *domain.Message
	Status  *Status
	Err     error
}

// Session maintains one realtime chat room: a duplex websocket plus a
// concurrent historical fetch, merged into a single ordered stream. Live
// frames arriving before the history resolves are buffered, then merged;
// duplicates are dropped by message id.
type Session struct {
	chatID     int64
	senderID   int64
	client     *api.Client
	tokens     api.TokenSource
	wsBaseURL  string
	maxRetries int

	events chan Event
	wg     sync.WaitGroup

	mu            sync.Mutex
	cancel        context.CancelFunc
	status        Status
	conn          *websocket.Conn
	writeMu       sync.Mutex
	seen          map[int64]struct{}
	historyLoaded bool
	pending       []domain.Message
}

// Options carries the per-deployment connection policy.
type Options struct {
	WSBaseURL  string
	MaxRetries int
}

func NewSession(chatID, senderID int64, client *api.Client, tokens api.TokenSource, opts Options) *Session {
	return &Session{
		chatID:     chatID,
		senderID:   senderID,
		client:     client,
		tokens:     tokens,
		wsBaseURL:  strings.TrimSuffix(opts.WSBaseURL, "/"),
		maxRetries: opts.MaxRetries,
		events:     make(chan Event, config.ChatEventBuffer),
		status:     StatusClosed,
		seen:       make(map[int64]struct{}),
	}
}

// Events is the merged message/status stream. Closed after Close or when the
// reconnect budget is exhausted.
func (s *Session) Events() <-chan Event { return s.events }

func (s *Session) ChatID() int64 { return s.chatID }

// Status reports the current connection state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Open acquires the connection and starts the historical fetch. The session
// runs until Close or a terminal connection failure.
func (s *Session) Open(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go s.connectLoop(ctx)
	go s.loadHistory(ctx)

	go func() {
		s.wg.Wait()
		close(s.events)
	}()
}

// Close releases the connection. Safe to call once; a reconnect attempt in
// flight is cancelled through the session context.
func (s *Session) Close() {
	s.mu.Lock()
	s.status = StatusClosing
	cancel := s.cancel
	conn := s.conn
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
}

// Send transmits one outbound message. Whitespace-only input produces no
// frame. The message shown in the log is the server echo, not a local
// optimistic entry.
func (s *Session) Send(content string) error {
	if strings.TrimSpace(content) == "" {
		return domain.ErrBlankMessage
	}

	s.mu.Lock()
	conn := s.conn
	open := s.status == StatusOpen
	s.mu.Unlock()
	if !open || conn == nil {
		return domain.ErrNotConnected
	}

	payload := struct {
		ChatID   int64  `json:"chat_id"`
		SenderID int64  `json:"sender_id"`
		Content  string `json:"content"`
	}{s.chatID, s.senderID, content}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
	if err := conn.WriteJSON(payload); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

// Clear deletes the room's messages server-side and re-fetches the (now
// empty) history. The connection is left untouched.
func (s *Session) Clear(ctx context.Context) error {
	if err := s.client.ClearChat(ctx, s.chatID); err != nil {
		return err
	}
	messages, err := s.client.ChatMessages(ctx, s.chatID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.seen = make(map[int64]struct{})
	s.pending = nil
	for _, m := range messages {
		s.seen[m.ID] = struct{}{}
	}
	s.mu.Unlock()
	return nil
}

// connectLoop dials the room endpoint and pumps inbound frames, reconnecting
// on any drop with exponential backoff. The retry budget resets after every
// successful open and is capped; exhausting it emits a terminal event.
func (s *Session) connectLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.setStatus(StatusClosed)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = config.ReconnectInitialInterval
	bo.MaxInterval = config.ReconnectMaxInterval
	attempts := 0

	for {
		if ctx.Err() != nil {
			return
		}

		err := s.connectOnce(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			// Connection was open and then dropped; start a fresh budget.
			attempts = 0
			bo.Reset()
			continue
		}

		attempts++
		if attempts > s.maxRetries {
			s.emit(ctx, Event{Err: fmt.Errorf("chat connection lost after %d attempts: %w", attempts-1, err)})
			return
		}

		wait := bo.NextBackOff()
		slog.Debug("chat reconnect scheduled",
			"chat_id", s.chatID,
			"attempt", attempts,
			"wait", wait,
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

// connectOnce dials and reads until the connection drops. A nil return means
// the socket was open at some point; an error means the dial itself failed.
func (s *Session) connectOnce(ctx context.Context) error {
	s.setStatus(StatusConnecting)

	// The browser-compatible endpoint takes the token as a query parameter;
	// this transport cannot rely on headers being honored for the upgrade.
	url := fmt.Sprintf("%s/chats/%d?token=%s", s.wsBaseURL, s.chatID, s.tokens.Token(ctx))
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial chat socket: %w", err)
	}
	if ctx.Err() != nil {
		_ = conn.Close()
		return nil
	}

	s.mu.Lock()
	s.conn = conn
	s.status = StatusOpen
	s.mu.Unlock()
	s.emitStatus(ctx, StatusOpen)

	pingDone := make(chan struct{})
	go s.pingLoop(ctx, conn, pingDone)

	s.readPump(ctx, conn)

	close(pingDone)
	_ = conn.Close()
	s.mu.Lock()
	s.conn = nil
	s.status = StatusClosed
	s.mu.Unlock()
	s.emitStatus(ctx, StatusClosed)
	return nil
}

func (s *Session) readPump(ctx context.Context, conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(config.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	for {
		var msg domain.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("chat socket read error", "error", err, "chat_id", s.chatID)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(config.PongWait))
		s.deliver(ctx, msg)
	}
}

func (s *Session) pingLoop(ctx context.Context, conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(config.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			// Unblock the read pump; a cancelled session must not wait out
			// the read deadline.
			_ = conn.Close()
			return
		case <-done:
			return
		case <-ticker.C:
			s.writeMu.Lock()
			_ = conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			err := conn.WriteMessage(websocket.PingMessage, nil)
			s.writeMu.Unlock()
			if err != nil {
				return
			}
		}
	}
}

// loadHistory fetches the room history and merges it ahead of any buffered
// live frames, preserving the backend's send order.
func (s *Session) loadHistory(ctx context.Context) {
	defer s.wg.Done()

	messages, err := s.client.ChatMessages(ctx, s.chatID)
	if err != nil {
		if ctx.Err() == nil {
			s.emit(ctx, Event{Err: fmt.Errorf("load chat history: %w", err)})
		}
		// Live frames still flow; flush whatever was buffered.
		messages = nil
	}

	s.mu.Lock()
	s.historyLoaded = true
	pending := s.pending
	s.pending = nil
	var ordered []domain.Message
	for _, m := range messages {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		ordered = append(ordered, m)
	}
	for _, m := range pending {
		if _, dup := s.seen[m.ID]; dup {
			continue
		}
		s.seen[m.ID] = struct{}{}
		ordered = append(ordered, m)
	}
	s.mu.Unlock()

	for i := range ordered {
		s.emit(ctx, Event{Message: &ordered[i]})
	}
}

// deliver appends one inbound frame, buffering while the history fetch is
// still outstanding and dropping duplicates by id.
func (s *Session) deliver(ctx context.Context, msg domain.Message) {
	s.mu.Lock()
	if !s.historyLoaded {
		s.pending = append(s.pending, msg)
		s.mu.Unlock()
		return
	}
	if _, dup := s.seen[msg.ID]; dup {
		s.mu.Unlock()
		return
	}
	s.seen[msg.ID] = struct{}{}
	s.mu.Unlock()

	s.emit(ctx, Event{Message: &msg})
}

func (s *Session) setStatus(status Status) {
	s.mu.Lock()
	s.status = status
	s.mu.Unlock()
}

func (s *Session) emitStatus(ctx context.Context, status Status) {
	s.emit(ctx, Event{Status: &status})
}

func (s *Session) emit(ctx context.Context, ev Event) {
	select {
	case s.events <- ev:
	case <-ctx.Done():
	}
}
