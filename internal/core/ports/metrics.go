package ports

import (
	"time"

	"stagecast/internal/core/domain"
)

// MetricsRecorder receives counters from the core services.
type MetricsRecorder interface {
	RecordCredentialsIssued(role domain.Role)
	RecordBroadcastStarted()
	RecordBroadcastEnded()
	RecordSpeakerSwitch()
	ObserveVendorCall(operation string, duration time.Duration, err error)
}
