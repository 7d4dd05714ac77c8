// Package workflow holds the controllers behind each interactive flow:
// recording a voice, talking with a voice, browsing voices and the profile.
// Controllers own their state, serialize access with a mutex and never hold
// it across network or device calls.
package workflow

import (
	"errors"
	"fmt"
)

// Pitch bounds accepted by finalize and synthesize.
const (
	MinPitch = -15
	MaxPitch = 3
)

var (
	// ErrInvalidTransition indicates a command that the current phase does not accept.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrPitchRange indicates a pitch outside [MinPitch, MaxPitch].
	ErrPitchRange = errors.New("pitch out of range")
	// ErrNameEmpty indicates a voice name that is blank.
	ErrNameEmpty = errors.New("voice name cannot be empty")
	// ErrSelectionSize indicates a synthesis selection that is not two distinct voices.
	ErrSelectionSize = errors.New("exactly two distinct voices must be selected")
)

// Phase tags a State.
type Phase int

// State phases.
const (
	PhaseLoading Phase = iota
	PhaseEmpty
	PhaseSuccess
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseEmpty:
		return "empty"
	case PhaseSuccess:
		return "success"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is what a screen renders: loading, nothing to show, or data.
// Data is only meaningful in PhaseSuccess.
type State[T any] struct {
	Phase Phase
	Data  T
}

// Loading returns a loading state.
func Loading[T any]() State[T] {
	return State[T]{Phase: PhaseLoading}
}

// Empty returns an empty state.
func Empty[T any]() State[T] {
	return State[T]{Phase: PhaseEmpty}
}

// Success returns a state carrying data.
func Success[T any](data T) State[T] {
	return State[T]{Phase: PhaseSuccess, Data: data}
}

// Reporter receives errors that a flow recovered from. It decides how they
// reach the user.
type Reporter interface {
	Report(err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(err error)

// Report calls f(err).
func (f ReporterFunc) Report(err error) {
	f(err)
}

// ValidatePitch checks pitch against [MinPitch, MaxPitch].
func ValidatePitch(pitch int) error {
	if pitch < MinPitch || pitch > MaxPitch {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrPitchRange, pitch, MinPitch, MaxPitch)
	}

	return nil
}
