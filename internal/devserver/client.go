package devserver

import (
	"encoding/json"
	"strings"
	"time"

	"fitnest/client/internal/config"
	"fitnest/client/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const sendBuffer = 256

// Client is one upgraded socket of a user.
type Client struct {
	UserID int64
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *zap.Logger
}

func newClient(userID int64, conn *websocket.Conn, hub *Hub) *Client {
	return &Client{
		UserID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		logger: hub.logger.With(zap.Int64("user_id", userID)),
	}
}

// Run registers the client and starts its pumps.
func (c *Client) Run() {
	select {
	case c.hub.RegisterCh <- c:
	case <-c.hub.done:
		_ = c.conn.Close()
		return
	}
	go c.writePump()
	go c.readPump()
}

func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.UnregisterCh <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(config.MaxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(config.PongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("error reading frame", zap.Error(err))
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(config.PongWait))

		var frame models.OutboundFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			c.logger.Warn("skipping malformed frame", zap.Error(err))
			continue
		}
		if frame.To <= 0 || frame.To == c.UserID || strings.TrimSpace(frame.Msg) == "" {
			c.logger.Warn("skipping invalid frame", zap.Int64("to", frame.To))
			continue
		}

		select {
		case c.hub.IncomingCh <- Envelope{From: c.UserID, To: frame.To, Msg: frame.Msg}:
		case <-c.hub.done:
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(config.PingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(config.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
