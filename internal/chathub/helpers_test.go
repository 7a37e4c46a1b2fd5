package chathub_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/chathub"
	"fitnest/client/internal/config"
	"fitnest/client/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

const (
	selfID    int64 = 2
	partnerID int64 = 5
	waitFor         = 2 * time.Second
	tick            = 5 * time.Millisecond
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testSelf() *auth.Session {
	return &auth.Session{UserID: selfID, Token: "tok", Username: "bob"}
}

// fakeHistory answers ChatHistory, optionally blocking until released.
type fakeHistory struct {
	messages []models.ChatMessage
	err      error
	gate     chan struct{}
	once     sync.Once
}

func newBlockingHistory(t *testing.T, messages []models.ChatMessage) *fakeHistory {
	h := &fakeHistory{messages: messages, gate: make(chan struct{})}
	t.Cleanup(h.release)
	return h
}

func (h *fakeHistory) release() {
	if h.gate != nil {
		h.once.Do(func() { close(h.gate) })
	}
}

func (h *fakeHistory) ChatHistory(_ context.Context, _ int64) ([]models.ChatMessage, error) {
	if h.gate != nil {
		<-h.gate
	}
	return h.messages, h.err
}

// peer is a relay endpoint speaking the chat frame protocol.
type peer struct {
	srv    *httptest.Server
	paths  chan string
	conns  chan *websocket.Conn
	frames chan []byte
	echo   atomic.Bool

	writeMu sync.Mutex
	conn    *websocket.Conn
}

func newPeer(t *testing.T) *peer {
	t.Helper()
	p := &peer{
		paths:  make(chan string, 4),
		conns:  make(chan *websocket.Conn, 4),
		frames: make(chan []byte, 16),
	}
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	p.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		p.paths <- r.URL.Path
		p.conns <- conn
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			p.frames <- raw
			if p.echo.Load() {
				p.writeMu.Lock()
				_ = conn.WriteMessage(websocket.TextMessage, raw)
				p.writeMu.Unlock()
			}
		}
	}))
	t.Cleanup(p.srv.Close)
	return p
}

// accepted waits for the client's connection.
func (p *peer) accepted(t *testing.T) *websocket.Conn {
	t.Helper()
	if p.conn != nil {
		return p.conn
	}
	select {
	case p.conn = <-p.conns:
		return p.conn
	case <-time.After(waitFor):
		t.Fatal("client never connected")
		return nil
	}
}

func (p *peer) push(t *testing.T, payload string) {
	t.Helper()
	conn := p.accepted(t)
	p.writeMu.Lock()
	defer p.writeMu.Unlock()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(payload)))
}

func (p *peer) nextFrame(t *testing.T) []byte {
	t.Helper()
	select {
	case raw := <-p.frames:
		return raw
	case <-time.After(waitFor):
		t.Fatal("no frame received")
		return nil
	}
}

func testOptions(baseURL string) chathub.Options {
	return chathub.Options{
		BaseURL: baseURL,
		ChatConfig: config.ChatConfig{
			WriteWait:        time.Second,
			PongWait:         time.Second,
			PingPeriod:       500 * time.Millisecond,
			HandshakeTimeout: time.Second,
			MaxMessageSize:   config.MaxMessageSize,
		},
		Now: func() time.Time { return fixedNow },
	}
}

func openSession(t *testing.T, p *peer, history chathub.HistoryFetcher) *chathub.Session {
	t.Helper()
	s := chathub.NewSession(testSelf(), partnerID, history, testOptions(p.srv.URL))
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Open(context.Background()))
	return s
}

func waitState(t *testing.T, s *chathub.Session, want chathub.State) {
	t.Helper()
	require.Eventually(t, func() bool { return s.State() == want }, waitFor, tick,
		"state stayed %s, want %s", s.State(), want)
}

func waitMessages(t *testing.T, s *chathub.Session, n int) []models.ChatMessage {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.Messages()) == n }, waitFor, tick,
		"have %d messages, want %d", len(s.Messages()), n)
	return s.Messages()
}
