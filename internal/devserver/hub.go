package devserver

import (
	"context"
	"encoding/json"
	"sync"

	"fitnest/client/internal/logging"
	"fitnest/client/internal/models"

	"go.uber.org/zap"
)

// Envelope is a frame accepted from a connected user, addressed to another.
type Envelope struct {
	From int64
	To   int64
	Msg  string
}

// MessageStore persists relayed messages.
type MessageStore interface {
	SaveMessage(ctx context.Context, h *models.ChatHistory) error
}

// Hub owns the connected clients and relays frames between them. All client
// bookkeeping happens on the Run goroutine.
type Hub struct {
	clients map[int64]map[*Client]struct{}

	RegisterCh   chan *Client
	UnregisterCh chan *Client
	IncomingCh   chan Envelope

	store        MessageStore
	echoToSender bool
	logger       *zap.Logger
	done         chan struct{}

	mu     sync.RWMutex
	online map[int64]int
}

func NewHub(store MessageStore, echoToSender bool, logger *zap.Logger) *Hub {
	logger = logging.OrNop(logger)
	return &Hub{
		clients:      make(map[int64]map[*Client]struct{}),
		RegisterCh:   make(chan *Client),
		UnregisterCh: make(chan *Client),
		IncomingCh:   make(chan Envelope),
		store:        store,
		echoToSender: echoToSender,
		logger:       logger,
		done:         make(chan struct{}),
		online:       make(map[int64]int),
	}
}

// Online reports whether the user has at least one open socket.
func (h *Hub) Online(userID int64) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.online[userID] > 0
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Run processes registrations and messages until ctx ends, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[int64]map[*Client]struct{})
			h.mu.Lock()
			h.online = make(map[int64]int)
			h.mu.Unlock()
			h.logger.Info("relay hub stopped")
			return

		case c := <-h.RegisterCh:
			h.register(c)

		case c := <-h.UnregisterCh:
			h.unregister(c)

		case env := <-h.IncomingCh:
			h.relay(ctx, env)
		}
	}
}

func (h *Hub) register(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}

	h.mu.Lock()
	h.online[c.UserID]++
	h.mu.Unlock()
	h.logger.Info("client connected", zap.Int64("user_id", c.UserID), zap.Int("sockets", len(set)))
}

func (h *Hub) unregister(c *Client) {
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}

	h.mu.Lock()
	if h.online[c.UserID]--; h.online[c.UserID] <= 0 {
		delete(h.online, c.UserID)
	}
	h.mu.Unlock()
	h.logger.Info("client disconnected", zap.Int64("user_id", c.UserID))
}

// relay persists the message and delivers {sender,msg} to the recipient's
// sockets, and to the sender's own sockets when echo is on.
func (h *Hub) relay(ctx context.Context, env Envelope) {
	row := &models.ChatHistory{SenderID: env.From, ReceiverID: env.To, Content: env.Msg}
	if err := h.store.SaveMessage(ctx, row); err != nil {
		h.logger.Error("failed to persist message",
			zap.Int64("sender_id", env.From), zap.Int64("receiver_id", env.To), zap.Error(err))
	}

	data, err := json.Marshal(models.InboundFrame{Sender: env.From, Msg: env.Msg})
	if err != nil {
		h.logger.Error("failed to encode frame", zap.Error(err))
		return
	}

	delivered := h.deliver(env.To, data)
	if h.echoToSender {
		h.deliver(env.From, data)
	}
	h.logger.Debug("relayed message",
		zap.Int64("sender_id", env.From), zap.Int64("receiver_id", env.To), zap.Int("sockets", delivered))
}

func (h *Hub) deliver(userID int64, data []byte) int {
	n := 0
	for c := range h.clients[userID] {
		select {
		case c.send <- data:
			n++
		default:
			// Slow consumer: drop it rather than stall the hub.
			h.logger.Warn("dropping slow client", zap.Int64("user_id", userID))
			h.unregister(c)
		}
	}
	return n
}
