package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/device"
	"github.com/book-expert/vridge/internal/fsutil"
)

// RecordingPhase is the state of the recording flow.
type RecordingPhase int

// Recording flow phases.
const (
	Idle RecordingPhase = iota
	Recording
	Recorded
	Playing
	Uploading
	Finishing
	Finished
)

var recordingPhaseNames = map[RecordingPhase]string{
	Idle:      "idle",
	Recording: "recording",
	Recorded:  "recorded",
	Playing:   "playing",
	Uploading: "loading",
	Finishing: "finishing",
	Finished:  "finished",
}

func (p RecordingPhase) String() string {
	name, ok := recordingPhaseNames[p]
	if !ok {
		return fmt.Sprintf("recording_phase(%d)", int(p))
	}

	return name
}

// VoiceSession is the voice repository as the recording flow sees it.
type VoiceSession interface {
	Script(index int) string
	ScriptCount() int
	BeginSession(path string) error
	WorkingPath() string
	UploadSegment(ctx context.Context, index int) error
	FinalizeRecording(ctx context.Context, name string, pitch int) error
	DiscardPendingRecording(ctx context.Context) error
}

// RecordingSnapshot is a consistent view of the recording flow.
type RecordingSnapshot struct {
	Phase  RecordingPhase
	Index  int
	Count  int
	Script string
}

// RecordingController drives one voice recording: a take per prompt, review,
// upload, and finally naming the voice.
//
//	Idle -> Recording -> Recorded <-> Playing
//	Recorded -> Uploading -> Idle (next prompt) | Finishing (last prompt)
//	Finishing -> Uploading -> Finished
//
// Failures are reported and the flow falls back to the nearest safe phase.
type RecordingController struct {
	voices   VoiceSession
	recorder device.Recorder
	player   device.Player
	reporter Reporter
	log      *logger.Logger

	mu        sync.Mutex
	phase     RecordingPhase
	index     int
	recording device.Recording
	playback  device.Playback
	playGen   uint64
}

// NewRecordingController creates a controller. Call Begin before anything else.
func NewRecordingController(
	voices VoiceSession,
	recorder device.Recorder,
	player device.Player,
	reporter Reporter,
	log *logger.Logger,
) *RecordingController {
	return &RecordingController{
		voices:   voices,
		recorder: recorder,
		player:   player,
		reporter: reporter,
		log:      log,
		phase:    Idle,
		index:    1,
	}
}

// Begin opens a recording session in dir at the first prompt.
func (c *RecordingController) Begin(dir string) error {
	err := c.voices.BeginSession(dir)
	if err != nil {
		return c.fail(fmt.Errorf("failed to begin recording session: %w", err))
	}

	c.mu.Lock()
	c.phase = Idle
	c.index = 1
	c.mu.Unlock()

	return nil
}

// Snapshot returns the current phase, prompt index and prompt text.
func (c *RecordingController) Snapshot() RecordingSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return RecordingSnapshot{
		Phase:  c.phase,
		Index:  c.index,
		Count:  c.voices.ScriptCount(),
		Script: c.voices.Script(c.index),
	}
}

// StartRecord captures a take of the current prompt. A take may be redone
// from Recorded.
func (c *RecordingController) StartRecord() error {
	c.mu.Lock()
	if c.phase != Idle && c.phase != Recorded {
		defer c.mu.Unlock()

		return c.reject("start record")
	}

	held := c.detachLocked()
	path := c.segmentPathLocked()
	c.mu.Unlock()

	c.release(held)

	recording, err := c.recorder.Start(path)
	if err != nil {
		c.setPhase(Idle)

		return c.fail(fmt.Errorf("failed to start recording: %w", err))
	}

	c.mu.Lock()
	c.recording = recording
	c.phase = Recording
	c.log.Info("Recording prompt %d", c.index)
	c.mu.Unlock()

	return nil
}

// StopRecord ends the take. A failed stop means there is no usable take.
func (c *RecordingController) StopRecord() error {
	c.mu.Lock()
	if c.phase != Recording {
		defer c.mu.Unlock()

		return c.reject("stop record")
	}

	recording := c.recording
	c.recording = nil
	c.mu.Unlock()

	err := recording.Stop()
	if err != nil {
		c.setPhase(Idle)

		return c.fail(fmt.Errorf("failed to stop recording: %w", err))
	}

	c.setPhase(Recorded)

	return nil
}

// StartPlayback plays the current take back. Playback ending on its own
// returns the flow to Recorded.
func (c *RecordingController) StartPlayback() error {
	c.mu.Lock()
	if c.phase != Recorded {
		defer c.mu.Unlock()

		return c.reject("start playback")
	}

	held := c.detachLocked()
	path := c.segmentPathLocked()
	c.phase = Playing
	c.playGen++
	gen := c.playGen
	c.mu.Unlock()

	c.release(held)

	playback, err := c.player.Play(path, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.phase == Playing && c.playGen == gen {
			c.playback = nil
			c.phase = Recorded
		}
	})
	if err != nil {
		c.setPhase(Recorded)

		return c.fail(fmt.Errorf("failed to start playback: %w", err))
	}

	c.mu.Lock()
	current := c.phase == Playing && c.playGen == gen
	if current {
		c.playback = playback
	}
	c.mu.Unlock()

	if !current {
		_ = playback.Stop()
	}

	return nil
}

// StopPlayback stops playing the take.
func (c *RecordingController) StopPlayback() error {
	c.mu.Lock()
	if c.phase != Playing {
		defer c.mu.Unlock()

		return c.reject("stop playback")
	}

	playback := c.playback
	c.playback = nil
	c.playGen++
	c.phase = Recorded
	c.mu.Unlock()

	if playback == nil {
		return nil
	}

	err := playback.Stop()
	if err != nil {
		return c.fail(fmt.Errorf("failed to stop playback: %w", err))
	}

	return nil
}

// Next uploads the current take. On success it moves to the next prompt, or
// to Finishing after the last one. On failure the take stays Recorded so it
// can be uploaded again.
func (c *RecordingController) Next(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != Recorded {
		defer c.mu.Unlock()

		return c.reject("next")
	}

	index := c.index
	c.phase = Uploading
	c.mu.Unlock()

	err := c.voices.UploadSegment(ctx, index)
	if err != nil {
		c.setPhase(Recorded)

		return c.fail(fmt.Errorf("failed to upload prompt %d: %w", index, err))
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if index >= c.voices.ScriptCount() {
		c.phase = Finishing
		c.log.Info("All %d prompts uploaded", index)

		return nil
	}

	c.index = index + 1
	c.phase = Idle

	return nil
}

// Submit names the voice and finalizes it. The flow ends in Finished once
// the submission is handed off, whatever its eventual outcome.
func (c *RecordingController) Submit(ctx context.Context, name string, pitch int) error {
	name = strings.TrimSpace(name)

	c.mu.Lock()
	if c.phase != Finishing {
		defer c.mu.Unlock()

		return c.reject("submit")
	}
	c.mu.Unlock()

	if name == "" {
		return c.fail(ErrNameEmpty)
	}

	err := ValidatePitch(pitch)
	if err != nil {
		return c.fail(err)
	}

	c.setPhase(Uploading)

	err = c.voices.FinalizeRecording(ctx, name, pitch)
	if err != nil {
		c.setPhase(Recorded)

		return c.fail(fmt.Errorf("failed to finalize voice: %w", err))
	}

	c.setPhase(Finished)
	c.log.Info("Voice %q submitted", name)

	return nil
}

// Abandon releases the devices, drops the server's pending recording and
// ends the flow.
func (c *RecordingController) Abandon(ctx context.Context) error {
	c.mu.Lock()
	held := c.detachLocked()
	c.phase = Finished
	c.mu.Unlock()

	c.release(held)

	err := c.voices.DiscardPendingRecording(ctx)
	if err != nil {
		return c.fail(fmt.Errorf("failed to discard recording: %w", err))
	}

	return nil
}

type heldDevices struct {
	recording device.Recording
	playback  device.Playback
}

func (c *RecordingController) setPhase(phase RecordingPhase) {
	c.mu.Lock()
	c.phase = phase
	c.mu.Unlock()
}

func (c *RecordingController) segmentPathLocked() string {
	return fsutil.SegmentPath(c.voices.WorkingPath(), c.index)
}

// detachLocked takes ownership of any held device handle.
func (c *RecordingController) detachLocked() heldDevices {
	held := heldDevices{recording: c.recording, playback: c.playback}
	c.recording = nil
	c.playback = nil
	c.playGen++

	return held
}

func (c *RecordingController) release(held heldDevices) {
	if held.recording != nil {
		err := held.recording.Stop()
		if err != nil {
			c.log.Warn("Releasing recorder: %v", err)
		}
	}

	if held.playback != nil {
		err := held.playback.Stop()
		if err != nil {
			c.log.Warn("Releasing player: %v", err)
		}
	}
}

func (c *RecordingController) reject(command string) error {
	return fmt.Errorf("%w: %s while %s", ErrInvalidTransition, command, c.phase)
}

// fail logs and reports err. It must be called without the lock held.
func (c *RecordingController) fail(err error) error {
	c.log.Warn("Recording flow: %v", err)
	c.reporter.Report(err)

	return err
}
