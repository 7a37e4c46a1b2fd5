package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatHistory is a relayed message as the dev backend persists it.
// The embedded gorm.Model provides ID and CreatedAt, which become the wire
// id and timestamp.
type ChatHistory struct {
	gorm.Model

	// SenderID and ReceiverID share an index so a pair's history is one range scan.
	SenderID   int64  `gorm:"not null;index:idx_pair"`
	ReceiverID int64  `gorm:"not null;index:idx_pair"`
	Content    string `gorm:"type:text;not null"`
	// ReadAt is set once the receiver has fetched the history containing the row.
	ReadAt *time.Time
}

// ToMessage renders the row in the shape of GET /chat/history.
func (h ChatHistory) ToMessage() ChatMessage {
	return ChatMessage{
		ID:         int64(h.ID),
		SenderID:   h.SenderID,
		ReceiverID: h.ReceiverID,
		Content:    h.Content,
		Timestamp:  h.CreatedAt.UTC().Format(time.RFC3339),
	}
}
