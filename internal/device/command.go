package device

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/book-expert/logger"
)

// Placeholders substituted into configured command arguments.
const (
	PlaceholderOutput = "{output}"
	PlaceholderInput  = "{input}"
)

const defaultStopGrace = 3 * time.Second

const (
	errFmtStartCommand = "failed to start %s: %w"
	errFmtRecorderExit = "recorder exited early: %w"
)

// CommandRecorder captures audio by running an external program, for
// example ffmpeg or arecord, with PlaceholderOutput replaced by the target
// file. Stop interrupts the program and waits for it to flush.
type CommandRecorder struct {
	args      []string
	stopGrace time.Duration
	log       *logger.Logger
}

// NewCommandRecorder creates a CommandRecorder for args.
func NewCommandRecorder(args []string, log *logger.Logger) (*CommandRecorder, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, ErrCommandEmpty
	}

	return &CommandRecorder{args: args, stopGrace: defaultStopGrace, log: log}, nil
}

// WithStopGrace sets how long Stop waits before killing the program.
func (r *CommandRecorder) WithStopGrace(grace time.Duration) *CommandRecorder {
	r.stopGrace = grace

	return r
}

// Start launches the capture program writing to path.
func (r *CommandRecorder) Start(path string) (Recording, error) {
	args := expand(r.args, PlaceholderOutput, path)

	// #nosec G204 -- the command comes from the user's own configuration
	cmd := exec.Command(args[0], args[1:]...)

	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf(errFmtStartCommand, args[0], err)
	}

	done := make(chan error, 1)

	go func() {
		done <- cmd.Wait()
	}()

	r.log.Info("Recording to %s with %s (pid %d)", path, args[0], cmd.Process.Pid)

	return &commandRecording{
		cmd:       cmd,
		path:      path,
		done:      done,
		stopGrace: r.stopGrace,
	}, nil
}

type commandRecording struct {
	cmd       *exec.Cmd
	path      string
	done      chan error
	stopGrace time.Duration

	once    sync.Once
	stopErr error
}

func (r *commandRecording) Stop() error {
	r.once.Do(func() {
		r.stopErr = r.stop()
	})

	return r.stopErr
}

func (r *commandRecording) stop() error {
	select {
	case err := <-r.done:
		if err != nil {
			return fmt.Errorf(errFmtRecorderExit, err)
		}
	default:
		_ = r.cmd.Process.Signal(os.Interrupt)

		select {
		case <-r.done:
		case <-time.After(r.stopGrace):
			_ = r.cmd.Process.Kill()
			<-r.done
		}
	}

	info, err := os.Stat(r.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoOutput, err)
	}

	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrNoOutput, r.path)
	}

	return nil
}

// CommandPlayer plays audio by running an external program, for example
// ffplay, with PlaceholderInput replaced by the source.
type CommandPlayer struct {
	args []string
	log  *logger.Logger
}

// NewCommandPlayer creates a CommandPlayer for args.
func NewCommandPlayer(args []string, log *logger.Logger) (*CommandPlayer, error) {
	if len(args) == 0 || args[0] == "" {
		return nil, ErrCommandEmpty
	}

	return &CommandPlayer{args: args, log: log}, nil
}

// Play launches the playback program for source.
func (p *CommandPlayer) Play(source string, onDone func()) (Playback, error) {
	args := expand(p.args, PlaceholderInput, source)

	// #nosec G204 -- the command comes from the user's own configuration
	cmd := exec.Command(args[0], args[1:]...)

	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf(errFmtStartCommand, args[0], err)
	}

	playback := &commandPlayback{cmd: cmd, done: make(chan struct{})}

	go func() {
		defer close(playback.done)

		waitErr := cmd.Wait()
		if playback.stopped.Load() {
			return
		}

		if waitErr != nil {
			p.log.Warn("Playback of %s ended with error: %v", source, waitErr)
		}

		if onDone != nil {
			onDone()
		}
	}()

	return playback, nil
}

type commandPlayback struct {
	cmd     *exec.Cmd
	stopped atomic.Bool
	done    chan struct{}
}

func (p *commandPlayback) Stop() error {
	if p.stopped.Swap(true) {
		return nil
	}

	select {
	case <-p.done:
		return nil
	default:
	}

	err := p.cmd.Process.Kill()
	<-p.done

	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to stop playback: %w", err)
	}

	return nil
}

func expand(args []string, placeholder, value string) []string {
	out := make([]string, len(args))
	for i, arg := range args {
		out[i] = strings.ReplaceAll(arg, placeholder, value)
	}

	return out
}
