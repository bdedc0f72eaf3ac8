package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/vilatvok/rentbot/internal/api"
	"github.com/vilatvok/rentbot/internal/domain"
)

type staticToken string

func (s staticToken) Token(context.Context) string { return string(s) }

var upgrader = websocket.Upgrader{}

// chatServer hosts the room endpoints: a websocket at /chats/{id} and the
// REST history at /chats/{id}/messages.
type chatServer struct {
	srv *httptest.Server

	mu          sync.Mutex
	history     []domain.Message
	historyGate chan struct{}
	connCh      chan *websocket.Conn
	gotToken    string
}

func newChatServer(t *testing.T) *chatServer {
	t.Helper()
	cs := &chatServer{connCh: make(chan *websocket.Conn, 4)}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /chats/{id}/messages", func(w http.ResponseWriter, r *http.Request) {
		if cs.historyGate != nil {
			<-cs.historyGate
		}
		cs.mu.Lock()
		items := cs.history
		cs.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{
			"items": items,
			"total": len(items),
		})
	})
	mux.HandleFunc("GET /chats/{id}", func(w http.ResponseWriter, r *http.Request) {
		cs.mu.Lock()
		cs.gotToken = r.URL.Query().Get("token")
		cs.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		cs.connCh <- conn

		// Echo loop: inbound frames come back as server messages.
		for {
			var payload struct {
				ChatID   int64  `json:"chat_id"`
				SenderID int64  `json:"sender_id"`
				Content  string `json:"content"`
			}
			if err := conn.ReadJSON(&payload); err != nil {
				return
			}
			conn.WriteJSON(domain.Message{
				ID:      time.Now().UnixNano(),
				ChatID:  payload.ChatID,
				Sender:  domain.User{ID: payload.SenderID, Username: "alice"},
				Content: payload.Content,
			})
		}
	})

	cs.srv = httptest.NewServer(mux)
	t.Cleanup(cs.srv.Close)
	return cs
}

func (cs *chatServer) wsURL() string {
	return "ws" + strings.TrimPrefix(cs.srv.URL, "http")
}

func newTestChatSession(t *testing.T, cs *chatServer) *Session {
	t.Helper()
	client := api.New(cs.srv.URL, staticToken("tok-1"))
	return NewSession(1, 10, client, staticToken("tok-1"), Options{
		WSBaseURL:  cs.wsURL(),
		MaxRetries: 3,
	})
}

func waitConn(t *testing.T, cs *chatServer) *websocket.Conn {
	t.Helper()
	select {
	case conn := <-cs.connCh:
		return conn
	case <-time.After(5 * time.Second):
		t.Fatal("no websocket connection")
		return nil
	}
}

func collectMessages(t *testing.T, events <-chan Event, n int) []domain.Message {
	t.Helper()
	var got []domain.Message
	deadline := time.After(5 * time.Second)
	for len(got) < n {
		select {
		case ev, ok := <-events:
			require.True(t, ok, "event stream closed early")
			if ev.Message != nil {
				got = append(got, *ev.Message)
			}
			require.NoError(t, ev.Err)
		case <-deadline:
			t.Fatalf("timed out after %d of %d messages", len(got), n)
		}
	}
	return got
}

func msg(id int64, content string) domain.Message {
	return domain.Message{ID: id, ChatID: 1, Sender: domain.User{ID: 20, Username: "bob"}, Content: content}
}

func TestChatSession_HistoryThenLive(t *testing.T) {
	cs := newChatServer(t)
	cs.history = []domain.Message{msg(1, "first"), msg(2, "second")}

	s := newTestChatSession(t, cs)
	s.Open(context.Background())
	defer s.Close()

	conn := waitConn(t, cs)
	require.NoError(t, conn.WriteJSON(msg(3, "third")))

	got := collectMessages(t, s.Events(), 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})

	cs.mu.Lock()
	token := cs.gotToken
	cs.mu.Unlock()
	require.Equal(t, "tok-1", token)
}

func TestChatSession_LiveBeforeHistoryBuffered(t *testing.T) {
	cs := newChatServer(t)
	cs.history = []domain.Message{msg(1, "first"), msg(2, "second")}
	cs.historyGate = make(chan struct{})

	s := newTestChatSession(t, cs)
	s.Open(context.Background())
	defer s.Close()

	// A live frame lands while the history fetch is still blocked, including
	// one that duplicates a history entry.
	conn := waitConn(t, cs)
	require.NoError(t, conn.WriteJSON(msg(2, "second")))
	require.NoError(t, conn.WriteJSON(msg(3, "third")))
	time.Sleep(100 * time.Millisecond)
	close(cs.historyGate)

	got := collectMessages(t, s.Events(), 3)
	require.Equal(t, []int64{1, 2, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
}

func TestChatSession_SendEcho(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)
	s.Open(context.Background())
	defer s.Close()

	waitConn(t, cs)
	require.Eventually(t, func() bool { return s.Status() == StatusOpen }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Send("hello"))
	got := collectMessages(t, s.Events(), 1)
	require.Equal(t, "hello", got[0].Content)
	require.Equal(t, int64(10), got[0].Sender.ID)
}

func TestChatSession_BlankSend(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)
	s.Open(context.Background())
	defer s.Close()

	waitConn(t, cs)
	require.Eventually(t, func() bool { return s.Status() == StatusOpen }, 5*time.Second, 10*time.Millisecond)

	require.ErrorIs(t, s.Send("   \n\t"), domain.ErrBlankMessage)
}

func TestChatSession_SendWhileClosed(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)
	require.ErrorIs(t, s.Send("hello"), domain.ErrNotConnected)
}

func TestChatSession_Reconnects(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)
	s.Open(context.Background())
	defer s.Close()

	// Drop the first connection server-side; the session dials again.
	first := waitConn(t, cs)
	require.Eventually(t, func() bool { return s.Status() == StatusOpen }, 5*time.Second, 10*time.Millisecond)
	first.Close()

	second := waitConn(t, cs)
	require.NotNil(t, second)
	require.Eventually(t, func() bool { return s.Status() == StatusOpen }, 5*time.Second, 10*time.Millisecond)

	// The fresh connection still delivers.
	require.NoError(t, second.WriteJSON(msg(9, "back")))
	got := collectMessages(t, s.Events(), 1)
	require.Equal(t, int64(9), got[0].ID)
}

func TestChatSession_CloseRightAfterOpen(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)

	// Close racing Open must still cancel the connect and history
	// goroutines and terminate the stream.
	s.Open(context.Background())
	s.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event stream did not close")
		}
	}
}

func TestChatSession_CloseBeforeOpen(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)

	require.NotPanics(t, s.Close)
	require.ErrorIs(t, s.Send("hello"), domain.ErrNotConnected)
}

func TestChatSession_CloseEndsStream(t *testing.T) {
	cs := newChatServer(t)
	s := newTestChatSession(t, cs)
	s.Open(context.Background())

	waitConn(t, cs)
	require.Eventually(t, func() bool { return s.Status() == StatusOpen }, 5*time.Second, 10*time.Millisecond)
	s.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("event stream did not close")
		}
	}
}
