package models

// ConversationPreview is one row of the chat list returned by GET /chat/conversations.
type ConversationPreview struct {
	PartnerID       int64  `json:"partner_id"`
	PartnerName     string `json:"partner_name"`
	PartnerImage    string `json:"partner_image,omitempty"`
	LastMessage     string `json:"last_message,omitempty"`
	LastMessageTime string `json:"last_message_time,omitempty"`
	UnreadCount     int    `json:"unread_count,omitempty"`
	IsOnline        bool   `json:"is_online,omitempty"`
}
