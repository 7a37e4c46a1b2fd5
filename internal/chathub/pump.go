package chathub

import (
	"encoding/json"
	"fmt"
	"time"

	"fitnest/client/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

type historyResult struct {
	messages []models.ChatMessage
	err      error
}

type dialResult struct {
	conn *websocket.Conn
	err  error
}

type inboundFrame struct {
	raw []byte
}

type readFailure struct {
	err error
}

type sendRequest struct {
	to    int64
	text  string
	reply chan<- error
}

// run is the dispatcher. It is the only goroutine that mutates session
// state or writes to the socket.
func (s *Session) run() {
	defer s.wg.Done()
	defer close(s.done)

	var (
		conn *websocket.Conn
		ping <-chan time.Time
	)
	ticker := time.NewTicker(time.Hour)
	ticker.Stop()
	defer ticker.Stop()

	for {
		select {
		case <-s.quit:
			s.shutdown(conn)
			return

		case ev := <-s.events:
			if s.closing() {
				s.abandon(conn, ev)
				return
			}

			switch e := ev.(type) {
			case historyResult:
				s.applyHistory(e)

			case dialResult:
				if e.err != nil {
					s.logger.Warn("chat socket dial failed", zap.Error(e.err))
					s.setState(StateClosed, e.err)
					continue
				}
				conn = e.conn
				s.startReader(conn)
				if s.opts.PingPeriod > 0 {
					ticker.Reset(s.opts.PingPeriod)
					ping = ticker.C
				}
				s.logger.Info("chat socket open")
				s.setState(StateOpen, nil)

			case inboundFrame:
				s.receive(e.raw)

			case readFailure:
				if websocket.IsUnexpectedCloseError(e.err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.logger.Warn("chat socket dropped", zap.Error(e.err))
				} else {
					s.logger.Info("chat socket closed by peer", zap.Error(e.err))
				}
				if conn != nil {
					_ = conn.Close()
					conn = nil
				}
				ticker.Stop()
				ping = nil
				s.setState(StateClosed, e.err)

			case sendRequest:
				e.reply <- s.write(conn, e)
			}

		case <-ping:
			if conn == nil {
				continue
			}
			_ = conn.SetWriteDeadline(s.deadline(s.opts.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				// The reader observes the closed socket and reports it.
				s.logger.Warn("chat ping failed", zap.Error(err))
				_ = conn.Close()
			}
		}
	}
}

// abandon settles an event received after Close began. A socket carried by
// a late dialResult is not yet known to the loop and is closed here.
func (s *Session) abandon(conn *websocket.Conn, ev any) {
	switch e := ev.(type) {
	case sendRequest:
		e.reply <- ErrNotConnected
	case dialResult:
		if e.conn != nil && e.conn != conn {
			s.release(e.conn)
		}
	}
	s.shutdown(conn)
}

func (s *Session) shutdown(conn *websocket.Conn) {
	if conn != nil {
		s.release(conn)
	}
	s.setState(StateClosed, nil)
	s.logger.Info("chat session closed")
}

func (s *Session) release(conn *websocket.Conn) {
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(s.closeWait()))
	_ = conn.Close()
}

func (s *Session) dial() {
	defer s.wg.Done()

	conn, resp, err := s.opts.Dialer.DialContext(s.ctx, s.socketURL(), nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil && resp != nil {
		err = fmt.Errorf("chathub: dial: %w (status %d)", err, resp.StatusCode)
	} else if err != nil {
		err = fmt.Errorf("chathub: dial: %w", err)
	}

	select {
	case s.events <- dialResult{conn: conn, err: err}:
	case <-s.quit:
		if conn != nil {
			_ = conn.Close()
		}
	}
}

// fetchHistory is not tracked by the wait group: the fetcher may ignore
// cancellation, and Close must not wait on it.
func (s *Session) fetchHistory() {
	messages, err := s.history.ChatHistory(s.ctx, s.partnerID)
	select {
	case s.events <- historyResult{messages: messages, err: err}:
	case <-s.quit:
		s.logger.Debug("discarding history that arrived after close")
	}
}

func (s *Session) startReader(conn *websocket.Conn) {
	if s.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(s.opts.MaxMessageSize)
	}
	if s.opts.PongWait > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
		})
	}

	s.wg.Add(1)
	go s.readPump(conn)
}

func (s *Session) readPump(conn *websocket.Conn) {
	defer s.wg.Done()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			select {
			case s.events <- readFailure{err: err}:
			case <-s.quit:
			}
			return
		}
		if s.opts.PongWait > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(s.opts.PongWait))
		}

		select {
		case s.events <- inboundFrame{raw: raw}:
		case <-s.quit:
			return
		}
	}
}

func (s *Session) applyHistory(res historyResult) {
	s.mu.Lock()
	if res.err != nil {
		s.historyErr = res.err
		s.settled = nil
	} else {
		s.settled = append(make([]models.ChatMessage, 0, len(res.messages)+len(s.buffered)), res.messages...)
	}
	s.settled = append(s.settled, s.buffered...)
	s.buffered = nil
	s.historyDone = true
	count := len(s.settled)
	s.mu.Unlock()

	if res.err != nil {
		s.logger.Warn("chat history unavailable", zap.Error(res.err))
	} else {
		s.logger.Debug("chat history loaded", zap.Int("messages", count))
	}
	s.notify()
}

func (s *Session) receive(raw []byte) {
	var frame models.InboundFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		s.logger.Warn("skipping malformed chat frame", zap.Error(err))
		return
	}
	s.appendMessage(models.ChatMessage{
		SenderID:   frame.Sender,
		ReceiverID: s.self.UserID,
		Content:    frame.Msg,
		Timestamp:  s.timestamp(),
	})
}

func (s *Session) write(conn *websocket.Conn, req sendRequest) error {
	if conn == nil || s.State() != StateOpen {
		return ErrNotConnected
	}

	data, err := json.Marshal(models.OutboundFrame{To: req.to, Msg: req.text})
	if err != nil {
		return fmt.Errorf("chathub: encode frame: %w", err)
	}
	_ = conn.SetWriteDeadline(s.deadline(s.opts.WriteWait))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("chat send failed", zap.Error(err))
		_ = conn.Close()
		return fmt.Errorf("chathub: send: %w", err)
	}

	s.appendMessage(models.ChatMessage{
		SenderID:   s.self.UserID,
		ReceiverID: req.to,
		Content:    req.text,
		Timestamp:  s.timestamp(),
	})
	return nil
}

// appendMessage holds frames back in the buffer until history has settled,
// so history always precedes live traffic.
func (s *Session) appendMessage(msg models.ChatMessage) {
	s.mu.Lock()
	if s.historyDone {
		s.settled = append(s.settled, msg)
	} else {
		s.buffered = append(s.buffered, msg)
	}
	s.mu.Unlock()
	s.notify()
}

func (s *Session) setState(st State, err error) {
	s.mu.Lock()
	changed := s.state != st
	s.state = st
	if err != nil {
		s.lastErr = err
	}
	s.mu.Unlock()
	if changed {
		s.logger.Debug("chat state changed", zap.Stringer("state", st))
		s.notify()
	}
}

func (s *Session) timestamp() string {
	return s.opts.Now().UTC().Format(time.RFC3339Nano)
}

func (s *Session) deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func (s *Session) closeWait() time.Duration {
	if s.opts.WriteWait > 0 {
		return s.opts.WriteWait
	}
	return time.Second
}
