// Package playback provides the playback session state machine over the flat queue.
package playback

// State represents the playback session state.
type State int

const (
	StateEmpty   State = iota // Nothing loaded (current index is -1)
	StatePaused               // Track loaded, transport paused
	StatePlaying              // Track loaded, transport playing
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "unknown"
	}
}

// ReloadPolicy decides what happens to the current track when the queue is replaced.
type ReloadPolicy string

const (
	// ReloadRelocate keeps the current track if it is still queued, at its new index.
	ReloadRelocate ReloadPolicy = "relocate"
	// ReloadReset always returns the session to Empty.
	ReloadReset ReloadPolicy = "reset"
)
