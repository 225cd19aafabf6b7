package domain

import "time"

type RoomName string
type SessionID string
type BroadcastID string
type StreamID string
type ConnectionID string
type RenderID string

// Session is the vendor-issued identifier for one interactive room.
// Sessions are cached by room name for the lifetime of the process;
// there is no eviction.
type Session struct {
	ID        SessionID `json:"sessionId"`
	Room      RoomName  `json:"room"`
	CreatedAt time.Time `json:"createdAt"`
}

type Role string

const (
	RoleHost   Role = "host"
	RoleGuest  Role = "guest"
	RoleViewer Role = "viewer"
)

// Credentials carry everything a browser client needs to join a room.
// Tokens are short-lived vendor-signed strings and are never persisted.
type Credentials struct {
	APIKey    string    `json:"apiKey"`
	SessionID SessionID `json:"sessionId"`
	Token     string    `json:"token"`
	Role      Role      `json:"role"`
}
