// Package player provides playback state management and device control.
package player

// Status represents the playback status.
type Status int

const (
	StatusStopped Status = iota // Playback halted, position reset
	StatusPaused                // Playback halted, position retained
	StatusPlaying               // Track is playing
)

// String returns the persisted wire form of the status.
func (s Status) String() string {
	switch s {
	case StatusStopped:
		return "stop"
	case StatusPaused:
		return "pause"
	case StatusPlaying:
		return "play"
	default:
		return "unknown"
	}
}

// ParseStatus parses a persisted status value. The second return reports
// whether the value was recognized.
func ParseStatus(v string) (Status, bool) {
	switch v {
	case "stop":
		return StatusStopped, true
	case "pause":
		return StatusPaused, true
	case "play":
		return StatusPlaying, true
	default:
		return StatusPaused, false
	}
}
