package models

// ChatMessage is one entry of a chat view's message list. It is never mutated
// after it has been appended.
type ChatMessage struct {
	ID         int64  `json:"id,omitempty"`
	SenderID   int64  `json:"sender_id"`
	ReceiverID int64  `json:"receiver_id"`
	Content    string `json:"content"`
	// Timestamp is an ISO-8601 string; history rows may omit it.
	Timestamp string `json:"timestamp,omitempty"`
}

// OutboundFrame is what the client writes to the chat socket.
type OutboundFrame struct {
	To  int64  `json:"to"`
	Msg string `json:"msg"`
}

// InboundFrame is what the backend pushes to the chat socket.
type InboundFrame struct {
	Sender int64  `json:"sender"`
	Msg    string `json:"msg"`
}
