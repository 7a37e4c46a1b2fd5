package config

import "time"

const (
	// Backend
	DefaultBaseURL     = "https://fitnest-backend-7533.onrender.com"
	DefaultHTTPTimeout = 15 * time.Second

	// Chat socket
	WriteWait        = 10 * time.Second
	PongWait         = 60 * time.Second
	PingPeriod       = (PongWait * 9) / 10
	MaxMessageSize   = 4096
	HandshakeTimeout = 10 * time.Second

	// Conversation list
	ConversationPollInterval = 10 * time.Second

	// Persisted client state
	KeyToken            = "token"
	KeyUserID           = "userId"
	KeyUsername         = "username"
	KeyStarredLegacy    = "starredItems"
	KeyStarredPrefix    = "starredItems_"
	DefaultSQLitePath   = "fitnest.db"
	DefaultCurrencySign = "$"

	// Profiles have no photos yet; starred roommates fall back to this portrait.
	FallbackProfileImage = "https://images.unsplash.com/photo-1517841905240-472988babdf9?w=500&h=500&fit=crop"

	// Compatibility tiers used to colour deck badges.
	CompatibilityHigh   = 85
	CompatibilityMedium = 70
)

// StarredKey is the per-user storage key of the starred list.
func StarredKey(userID string) string { return KeyStarredPrefix + userID }
