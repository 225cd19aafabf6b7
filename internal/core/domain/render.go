package domain

import "time"

// RenderJob tracks a vendor-hosted headless browser that joins a session to
// produce a custom composed output.
type RenderJob struct {
	ID        RenderID  `json:"id"`
	SessionID SessionID `json:"sessionId"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"createdAt"`
}
