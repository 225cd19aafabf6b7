package domain

import "time"

type BroadcastStatus string

const (
	BroadcastActive BroadcastStatus = "active"
	BroadcastEnded  BroadcastStatus = "ended"
)

// PublishDelay models the vendor's encode and CDN propagation latency.
// Clients must not attempt HLS playback before CreatedAt + PublishDelay.
const PublishDelay = 20 * time.Second

type RTMPTarget struct {
	ServerURL  string `json:"serverUrl"`
	StreamName string `json:"streamName"`
}

type BroadcastOptions struct {
	LowLatency bool
	FHD        bool
	DVR        bool
	StreamMode string
	// Streams is the published stream count at start time, used by the
	// layout heuristic.
	Streams int
}

// BroadcastRecord is the single active-broadcast record for a session.
// At most one non-ended record exists per session id at any time.
type BroadcastRecord struct {
	ID          BroadcastID     `json:"id"`
	SessionID   SessionID       `json:"sessionId"`
	HLSURL      string          `json:"url"`
	RTMPTarget  *RTMPTarget     `json:"rtmp,omitempty"`
	APIKey      string          `json:"apiKey"`
	CreatedAt   time.Time       `json:"createdAt"`
	AvailableAt time.Time       `json:"availableAt"`
	Status      BroadcastStatus `json:"status"`
}

type LayoutType string

const (
	LayoutBestFit LayoutType = "bestFit"
	LayoutCustom  LayoutType = "custom"
)

// HorizontalStylesheet is the fixed custom layout used for small sessions.
const HorizontalStylesheet = `stream {
        float: left;
        height: 100%;
        width: 33.33%;
      }`

// LayoutSpec is derived fresh from the current participant count on every
// layout update; it is never stored.
type LayoutSpec struct {
	Type       LayoutType `json:"type"`
	Stylesheet string     `json:"stylesheet,omitempty"`
}

// DefaultLayoutBreakPoint is the stream count above which bestFit replaces
// the fixed horizontal layout.
const DefaultLayoutBreakPoint = 3

// LayoutForStreams applies the stream-count heuristic. An explicit non-empty
// layout type always wins over the heuristic; a non-positive breakPoint
// falls back to DefaultLayoutBreakPoint.
func LayoutForStreams(streams, breakPoint int, explicit LayoutType) LayoutSpec {
	if explicit == LayoutBestFit {
		return LayoutSpec{Type: LayoutBestFit}
	}
	if explicit == LayoutCustom {
		return LayoutSpec{Type: LayoutCustom, Stylesheet: HorizontalStylesheet}
	}
	if breakPoint <= 0 {
		breakPoint = DefaultLayoutBreakPoint
	}
	if streams > breakPoint {
		return LayoutSpec{Type: LayoutBestFit}
	}
	return LayoutSpec{Type: LayoutCustom, Stylesheet: HorizontalStylesheet}
}

// StreamClass assigns layout CSS classes to a single stream, used to focus
// the current active speaker.
type StreamClass struct {
	ID        StreamID `json:"id"`
	ClassList []string `json:"layoutClassList"`
}
