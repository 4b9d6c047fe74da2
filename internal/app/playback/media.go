package playback

import (
	"sync"
	"time"

	"github.com/cockroachdb/errors"
)

// Media is the audio resource driven by the session.
// Implementations report failures through returned errors; the session logs
// them and keeps its intended transport state.
type Media interface {
	Load(audioRef string) error
	Play() error
	Pause() error
	Seek(position time.Duration) error
}

// CommandType represents a media command type.
type CommandType int

const (
	CommandLoad  CommandType = iota // Set the audio source
	CommandPlay                     // Start or resume playback
	CommandPause                    // Pause playback
	CommandSeek                     // Jump to a position
)

// String returns the string representation of the command type.
func (c CommandType) String() string {
	switch c {
	case CommandLoad:
		return "load"
	case CommandPlay:
		return "play"
	case CommandPause:
		return "pause"
	case CommandSeek:
		return "seek"
	default:
		return "unknown"
	}
}

// Command is a transport instruction for a remote media element.
type Command struct {
	Type     CommandType
	AudioRef string        // Set for CommandLoad
	Position time.Duration // Set for CommandSeek
}

// RemoteMedia forwards transport calls as commands to whoever owns the actual
// media element (a browser page or CLI player subscribed to notifications).
// Element callbacks come back through the session's Report methods.
type RemoteMedia struct {
	mu        sync.Mutex
	commandCh chan Command
	closed    bool
}

// NewRemoteMedia creates a RemoteMedia with the given command buffer size.
func NewRemoteMedia(bufferSize int) *RemoteMedia {
	if bufferSize <= 0 {
		bufferSize = 16
	}
	return &RemoteMedia{
		commandCh: make(chan Command, bufferSize),
	}
}

// Commands returns the command channel.
func (m *RemoteMedia) Commands() <-chan Command {
	return m.commandCh
}

// Load implements Media.
func (m *RemoteMedia) Load(audioRef string) error {
	if audioRef == "" {
		return errors.Wrap(ErrPlaybackFailure, "empty audio reference")
	}
	return m.send(Command{Type: CommandLoad, AudioRef: audioRef})
}

// Play implements Media.
func (m *RemoteMedia) Play() error {
	return m.send(Command{Type: CommandPlay})
}

// Pause implements Media.
func (m *RemoteMedia) Pause() error {
	return m.send(Command{Type: CommandPause})
}

// Seek implements Media.
func (m *RemoteMedia) Seek(position time.Duration) error {
	return m.send(Command{Type: CommandSeek, Position: position})
}

// Close closes the command channel.
func (m *RemoteMedia) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.commandCh)
}

func (m *RemoteMedia) send(c Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errors.Wrap(ErrPlaybackFailure, "media closed")
	}
	select {
	case m.commandCh <- c:
		return nil
	default:
		return errors.Wrapf(ErrPlaybackFailure, "media command buffer full, dropped %s", c.Type)
	}
}
