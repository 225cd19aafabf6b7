package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// RoomNameRegex validates room name format
	RoomNameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// StreamIDRegex validates stream ID format
	StreamIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// ValidateRoomName validates an interactive room name
func ValidateRoomName(room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return fmt.Errorf("room is required")
	}
	if len(room) > 100 {
		return fmt.Errorf("room is too long (max 100 characters)")
	}
	if !RoomNameRegex.MatchString(room) {
		return fmt.Errorf("room contains invalid characters (only letters, numbers, _, - allowed)")
	}
	return nil
}

// ValidateStreamID validates a vendor stream identifier
func ValidateStreamID(id string) error {
	if id == "" {
		return fmt.Errorf("stream id is required")
	}
	if len(id) > 128 {
		return fmt.Errorf("stream id is too long (max 128 characters)")
	}
	if !StreamIDRegex.MatchString(id) {
		return fmt.Errorf("stream id contains invalid characters")
	}
	return nil
}

// ValidateRTMPTarget validates the RTMP output fields before any vendor call.
// Both fields must be present together; an absent target is valid (HLS only).
func ValidateRTMPTarget(serverURL, streamName string) error {
	if serverURL == "" && streamName == "" {
		return nil
	}
	if serverURL == "" {
		return fmt.Errorf("rtmp server url is required when stream name is set")
	}
	if streamName == "" {
		return fmt.Errorf("rtmp stream name is required when server url is set")
	}

	u, err := url.Parse(serverURL)
	if err != nil {
		return fmt.Errorf("invalid rtmp server url: %v", err)
	}
	if u.Scheme != "rtmp" && u.Scheme != "rtmps" {
		return fmt.Errorf("rtmp server url must use rtmp:// or rtmps:// scheme")
	}
	if u.Host == "" {
		return fmt.Errorf("rtmp server url must include a host")
	}

	if len(streamName) > 255 {
		return fmt.Errorf("rtmp stream name is too long (max 255 characters)")
	}
	return nil
}
