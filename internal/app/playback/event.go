package playback

import "github.com/osa030/releasebox/internal/domain/queue"

// EventType represents a playback event type.
type EventType int

const (
	EventTrackStarted  EventType = iota // A queue entry was loaded and playback requested
	EventStateChanged                   // Transport toggled between playing and paused
	EventTrackEnded                     // Current track finished
	EventQueueEnded                     // Last track finished; no wraparound
	EventQueueReplaced                  // Queue was replaced by a reload
	EventSeeked                         // Position changed by a seek
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTrackStarted:
		return "track_started"
	case EventStateChanged:
		return "state_changed"
	case EventTrackEnded:
		return "track_ended"
	case EventQueueEnded:
		return "queue_ended"
	case EventQueueReplaced:
		return "queue_replaced"
	case EventSeeked:
		return "seeked"
	default:
		return "unknown"
	}
}

// Event represents a playback event.
type Event struct {
	Type         EventType
	Entry        *queue.Entry // Current entry (nil when Empty)
	CurrentIndex int
	State        State
}
