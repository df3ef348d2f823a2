// Package session implements the per-session detection state and the events
// that move it between Idle and Detected.
package session

import "github.com/justestif/go-emosic/internal/catalog"

// Status is the lifecycle state of a session.
type Status int

const (
	// StatusIdle means no emotion has been detected.
	StatusIdle Status = iota
	// StatusDetected means an emotion and its source text are recorded.
	StatusDetected
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusDetected:
		return "detected"
	default:
		return "unknown"
	}
}

// State is the mutable record of one session's last detection and language
// choice. The zero value is a fresh, idle session.
type State struct {
	Emotion   catalog.Emotion // "" when idle
	Score     float64         // classifier confidence for Emotion
	InputText string          // text the last successful detection ran on
	Language  string          // last language the user selected, "" if none
}

// Status reports the lifecycle state.
func (s State) Status() Status {
	if s.Emotion == "" {
		return StatusIdle
	}
	return StatusDetected
}

// Detected reports whether an emotion is recorded.
func (s State) Detected() bool {
	return s.Status() == StatusDetected
}
