package countdown

// EventType represents a countdown event type.
type EventType int

const (
	EventTick     EventType = iota // Periodic time-remaining update
	EventUnlocked                  // Target release date reached
)

// String returns the string representation of the event type.
func (e EventType) String() string {
	switch e {
	case EventTick:
		return "tick"
	case EventUnlocked:
		return "unlocked"
	default:
		return "unknown"
	}
}

// Event represents a countdown event.
type Event struct {
	Type       EventType
	Target     Target
	Remaining  Remaining
	Generation uint64 // Countdown that produced the event; see Scheduler.IsCurrent
}
