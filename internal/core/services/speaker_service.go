package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"stagecast/internal/core/domain"
	"stagecast/internal/core/ports"

	"go.uber.org/zap"
)

const (
	// speakingThreshold is the normalized audio level above which a stream
	// counts toward talking.
	speakingThreshold = 0.2
	// talkingAfter is how long a stream must stay above the threshold
	// before it is considered talking.
	talkingAfter = time.Second
	// quietAfter is how long a stream must stay below the threshold before
	// it stops being considered talking.
	quietAfter = 3 * time.Second
	// electionInterval debounces focus switches in the composed layout.
	electionInterval = time.Second
)

// positionalClasses are assigned to non-focused streams in sample order so
// the custom stylesheet can pin them to fixed slots.
var positionalClasses = []string{"left", "right", "bottom"}

type speakerState struct {
	level      float64
	aboveSince time.Time
	belowSince time.Time
	talking    bool
	firstSeen  time.Time
}

// SpeakerTracker elects the loudest talking stream from a feed of audio
// level samples, with hysteresis so brief noise or pauses do not flap the
// focused tile.
type SpeakerTracker struct {
	mu           sync.Mutex
	streams      map[domain.StreamID]*speakerState
	elected      domain.StreamID
	lastElection time.Time
}

func NewSpeakerTracker() *SpeakerTracker {
	return &SpeakerTracker{streams: make(map[domain.StreamID]*speakerState)}
}

// Sample records one audio level reading for a stream.
func (t *SpeakerTracker) Sample(streamID domain.StreamID, level float64, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, ok := t.streams[streamID]
	if !ok {
		state = &speakerState{firstSeen: now}
		t.streams[streamID] = state
	}
	state.level = level

	if level > speakingThreshold {
		state.belowSince = time.Time{}
		if state.aboveSince.IsZero() {
			state.aboveSince = now
		}
		if !state.talking && now.Sub(state.aboveSince) >= talkingAfter {
			state.talking = true
		}
	} else {
		state.aboveSince = time.Time{}
		if state.belowSince.IsZero() {
			state.belowSince = now
		}
		if state.talking && now.Sub(state.belowSince) >= quietAfter {
			state.talking = false
		}
	}
}

// Remove drops a stream, e.g. when its publisher disconnects.
func (t *SpeakerTracker) Remove(streamID domain.StreamID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.streams, streamID)
	if t.elected == streamID {
		t.elected = ""
	}
}

// Elect returns the current class-list assignment and whether it changed
// since the previous election. Elections are rate limited to one focus
// switch per electionInterval.
func (t *SpeakerTracker) Elect(now time.Time) ([]domain.StreamClass, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if now.Sub(t.lastElection) < electionInterval {
		return nil, false
	}

	var loudest domain.StreamID
	var loudestLevel float64
	for id, state := range t.streams {
		if state.talking && state.level > loudestLevel {
			loudest = id
			loudestLevel = state.level
		}
	}

	if loudest == "" || loudest == t.elected {
		return nil, false
	}
	t.elected = loudest
	t.lastElection = now

	return t.classListLocked(), true
}

// classListLocked builds the assignment: the elected stream gets focus,
// the rest get positional classes in join order.
func (t *SpeakerTracker) classListLocked() []domain.StreamClass {
	others := make([]domain.StreamID, 0, len(t.streams))
	for id := range t.streams {
		if id != t.elected {
			others = append(others, id)
		}
	}
	sort.Slice(others, func(i, j int) bool {
		return t.streams[others[i]].firstSeen.Before(t.streams[others[j]].firstSeen)
	})

	classes := []domain.StreamClass{{ID: t.elected, ClassList: []string{"focus"}}}
	for i, id := range others {
		class := positionalClasses[len(positionalClasses)-1]
		if i < len(positionalClasses) {
			class = positionalClasses[i]
		}
		classes = append(classes, domain.StreamClass{ID: id, ClassList: []string{class}})
	}
	return classes
}

type speakerService struct {
	mu         sync.Mutex
	trackers   map[domain.SessionID]*SpeakerTracker
	broadcasts ports.BroadcastService
	metrics    ports.MetricsRecorder
	logger     *zap.SugaredLogger
}

// NewSpeakerService maintains one tracker per session and pushes class-list
// updates to the broadcast coordinator when the focused speaker changes.
func NewSpeakerService(broadcasts ports.BroadcastService, metrics ports.MetricsRecorder, logger *zap.SugaredLogger) ports.SpeakerService {
	return &speakerService{
		trackers:   make(map[domain.SessionID]*SpeakerTracker),
		broadcasts: broadcasts,
		metrics:    metrics,
		logger:     logger,
	}
}

func (s *speakerService) tracker(sessionID domain.SessionID) *SpeakerTracker {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trackers[sessionID]
	if !ok {
		t = NewSpeakerTracker()
		s.trackers[sessionID] = t
	}
	return t
}

// ReportLevel feeds one sample and, when it flips the election, pushes the
// resulting class list to the composed layout. Layout push failures are
// logged only; audio reporting must stay cheap for the clients.
func (s *speakerService) ReportLevel(ctx context.Context, sessionID domain.SessionID, streamID domain.StreamID, level float64) {
	now := time.Now()
	tracker := s.tracker(sessionID)
	tracker.Sample(streamID, level, now)

	classes, changed := tracker.Elect(now)
	if !changed {
		return
	}

	if s.metrics != nil {
		s.metrics.RecordSpeakerSwitch()
	}
	s.logger.Debugw("active speaker changed",
		"session_id", sessionID,
		"stream_id", classes[0].ID,
	)

	if err := s.broadcasts.UpdateStreamClassList(ctx, sessionID, classes); err != nil {
		s.logger.Debugw("class list push skipped",
			"session_id", sessionID,
			"error", err,
		)
	}
}

// DropStream forgets a stream, e.g. on publisher disconnect.
func (s *speakerService) DropStream(sessionID domain.SessionID, streamID domain.StreamID) {
	s.tracker(sessionID).Remove(streamID)
}
