// Package chathub keeps the live chat connection between the active user and
// one partner: it loads the conversation history, holds a socket to the
// backend relay, and exposes the ordered message list to a chat view.
//
// All session state is owned by a single dispatcher goroutine. The socket
// reader, the dialer and the history fetch only post events to it, so the
// message list never needs a lock on the write side.
package chathub

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"fitnest/client/internal/auth"
	"fitnest/client/internal/backend"
	"fitnest/client/internal/config"
	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrInvalidPartner = errors.New("chathub: partner id must be a positive id other than the active user")
	ErrEmptyMessage   = errors.New("chathub: message text is empty")
	ErrNotConnected   = errors.New("chathub: connection is not open")
	ErrAlreadyOpen    = errors.New("chathub: session already opened")
	ErrSessionClosed  = errors.New("chathub: session closed")
)

// HistoryFetcher loads the stored conversation with a partner, oldest first.
type HistoryFetcher interface {
	ChatHistory(ctx context.Context, partnerID int64) ([]models.ChatMessage, error)
}

// Options configures a Session. Zero timings disable the matching deadline.
type Options struct {
	// BaseURL is the backend's http(s) origin; the socket URL is derived from it.
	BaseURL string
	config.ChatConfig

	Dialer *websocket.Dialer
	Logger *zap.Logger
	Now    func() time.Time
}

// Session is one chat view's connection to one partner.
type Session struct {
	id        string
	self      auth.Session
	partnerID int64
	history   HistoryFetcher
	opts      Options
	logger    *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	events  chan any
	quit    chan struct{}
	done    chan struct{}
	changes chan struct{}

	closeOnce sync.Once
	wg        sync.WaitGroup

	mu          sync.RWMutex
	state       State
	settled     []models.ChatMessage
	buffered    []models.ChatMessage
	historyDone bool
	historyErr  error
	lastErr     error
	stopWatch   func() bool
}

// NewSession prepares a session for self and partnerID. Nothing is fetched
// or dialed until Open.
func NewSession(self *auth.Session, partnerID int64, history HistoryFetcher, opts Options) *Session {
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			Proxy:            websocket.DefaultDialer.Proxy,
			HandshakeTimeout: opts.HandshakeTimeout,
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	logger := logging.OrNop(opts.Logger)

	s := &Session{
		id:        uuid.NewString(),
		partnerID: partnerID,
		history:   history,
		opts:      opts,
		events:    make(chan any),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
		changes:   make(chan struct{}, 1),
	}
	if self != nil {
		s.self = *self
	}
	s.logger = logger.With(
		zap.String("session_id", s.id),
		zap.Int64("self_id", s.self.UserID),
		zap.Int64("partner_id", partnerID),
	)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// Open starts the history fetch and the socket dial concurrently. It returns
// as soon as both are under way; progress is reported through State and
// Changes. Cancelling ctx closes the session.
func (s *Session) Open(ctx context.Context) error {
	if !s.self.Valid() {
		return auth.ErrNotLoggedIn
	}
	if s.partnerID <= 0 || s.partnerID == s.self.UserID {
		return ErrInvalidPartner
	}

	s.mu.Lock()
	switch s.state {
	case StateIdle:
	case StateClosed:
		s.mu.Unlock()
		return ErrSessionClosed
	default:
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.state = StateConnecting
	s.wg.Add(2)
	s.stopWatch = context.AfterFunc(ctx, func() { _ = s.Close() })
	s.mu.Unlock()

	s.logger.Info("opening chat session")
	s.notify()

	go s.run()
	go s.dial()
	go s.fetchHistory()
	return nil
}

// Send writes one outbound frame and, once written, appends the local copy.
// to must be the session's partner.
func (s *Session) Send(ctx context.Context, to int64, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyMessage
	}
	if to != s.partnerID {
		return ErrInvalidPartner
	}
	if s.State() != StateOpen {
		return ErrNotConnected
	}

	reply := make(chan error, 1)
	select {
	case s.events <- sendRequest{to: to, text: text, reply: reply}:
	case <-s.done:
		return ErrNotConnected
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-reply:
		return err
	case <-s.done:
		return ErrNotConnected
	}
}

// Close tears the session down from any state. It is idempotent and returns
// once the socket is released and the session's goroutines have exited. A
// history fetch still in flight is abandoned and its result discarded.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		neverOpened := s.state == StateIdle
		if neverOpened {
			s.state = StateClosed
		}
		stop := s.stopWatch
		s.mu.Unlock()

		close(s.quit)
		s.cancel()
		if stop != nil {
			stop()
		}
		if neverOpened {
			close(s.done)
			s.notify()
		}
	})
	s.wg.Wait()
	return nil
}

// ID identifies the session in logs.
func (s *Session) ID() string { return s.id }

// PartnerID returns the counterpart of this session.
func (s *Session) PartnerID() int64 { return s.partnerID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Status returns the localization key of the status label.
func (s *Session) Status() string { return s.State().StatusKey() }

// Err returns the error that moved the session to Closed, if any.
func (s *Session) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// HistoryErr returns the history fetch failure, if any. A failed fetch
// leaves the history empty and does not affect the connection.
func (s *Session) HistoryErr() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyErr
}

// HistoryLoaded reports whether the history fetch has settled.
func (s *Session) HistoryLoaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historyDone
}

// Messages returns a snapshot of the visible list: history, then every
// message received or sent, in arrival order.
func (s *Session) Messages() []models.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ChatMessage, 0, len(s.settled)+len(s.buffered))
	out = append(out, s.settled...)
	return append(out, s.buffered...)
}

// Changes signals after any state or message list change. Signals coalesce;
// read State and Messages after each one.
func (s *Session) Changes() <-chan struct{} { return s.changes }

// Done is closed once the session has shut down.
func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Session) closing() bool {
	select {
	case <-s.quit:
		return true
	default:
		return false
	}
}

func (s *Session) socketURL() string {
	return backend.WebSocketURL(s.opts.BaseURL, s.self.UserID, s.self.Token)
}
