// Package device provides the audio capture and playback handles used by
// the recording and talk workflows.
package device

import "errors"

var (
	// ErrCommandEmpty indicates that no external program was configured.
	ErrCommandEmpty = errors.New("device command cannot be empty")
	// ErrNoOutput indicates that a recording ended without producing audio.
	ErrNoOutput = errors.New("recording produced no audio")
)

// Recorder starts capturing audio into a file.
type Recorder interface {
	Start(path string) (Recording, error)
}

// Recording is an active capture. Stop finalizes the file.
type Recording interface {
	Stop() error
}

// Player starts playing a file path or URL. onDone runs when playback ends
// on its own; it does not run after Stop.
type Player interface {
	Play(source string, onDone func()) (Playback, error)
}

// Playback is an active playback.
type Playback interface {
	Stop() error
}
