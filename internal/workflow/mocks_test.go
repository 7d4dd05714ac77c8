package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/device"
	"github.com/stretchr/testify/require"
)

var (
	errMockDevice = errors.New("mock device error")
	errMockRepo   = errors.New("mock repository error")
)

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

// collector is a Reporter that remembers every reported error.
type collector struct {
	mu     sync.Mutex
	errors []error
}

func (c *collector) Report(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.errors = append(c.errors, err)
}

func (c *collector) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.errors)
}

// mockVoices is a mock VoiceSession.
type mockVoices struct {
	scripts []string
	path    string

	uploadShouldFail   bool
	finalizeShouldFail bool
	discardShouldFail  bool

	// When set, UploadSegment and FinalizeRecording signal entered and
	// block until release is closed.
	entered chan struct{}
	release chan struct{}

	uploaded  []int
	finalized []string
	discarded int
}

func (m *mockVoices) hold() {
	if m.entered == nil {
		return
	}

	m.entered <- struct{}{}
	<-m.release
}

func (m *mockVoices) Script(index int) string {
	if index < 1 || index > len(m.scripts) {
		return ""
	}

	return m.scripts[index-1]
}

func (m *mockVoices) ScriptCount() int { return len(m.scripts) }

func (m *mockVoices) BeginSession(path string) error {
	m.path = path

	return nil
}

func (m *mockVoices) WorkingPath() string { return m.path }

func (m *mockVoices) UploadSegment(_ context.Context, index int) error {
	m.hold()

	if m.uploadShouldFail {
		return errMockRepo
	}

	m.uploaded = append(m.uploaded, index)

	return nil
}

func (m *mockVoices) FinalizeRecording(_ context.Context, name string, _ int) error {
	m.hold()

	if m.finalizeShouldFail {
		return core.ErrInvalidSession
	}

	m.finalized = append(m.finalized, name)

	return nil
}

func (m *mockVoices) DiscardPendingRecording(_ context.Context) error {
	m.discarded++
	if m.discardShouldFail {
		return errMockRepo
	}

	return nil
}

// mockRecorder hands out mockHandle recordings.
type mockRecorder struct {
	startShouldFail bool
	stopShouldFail  bool
	started         []string
	handles         []*mockHandle
}

func (m *mockRecorder) Start(path string) (device.Recording, error) {
	if m.startShouldFail {
		return nil, errMockDevice
	}

	m.started = append(m.started, path)
	handle := &mockHandle{shouldFail: m.stopShouldFail}
	m.handles = append(m.handles, handle)

	return handle, nil
}

// mockPlayer hands out mockHandle playbacks and keeps their onDone hooks.
type mockPlayer struct {
	mu             sync.Mutex
	playShouldFail bool
	played         []string
	handles        []*mockHandle
	onDone         []func()
}

func (m *mockPlayer) Play(source string, onDone func()) (device.Playback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.playShouldFail {
		return nil, errMockDevice
	}

	m.played = append(m.played, source)
	m.onDone = append(m.onDone, onDone)
	handle := &mockHandle{}
	m.handles = append(m.handles, handle)

	return handle, nil
}

func (m *mockPlayer) finish(i int) {
	m.mu.Lock()
	done := m.onDone[i]
	m.mu.Unlock()

	done()
}

// mockHandle is a device handle that counts stops.
type mockHandle struct {
	mu         sync.Mutex
	shouldFail bool
	stops      int
}

func (m *mockHandle) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stops++
	if m.shouldFail {
		return errMockDevice
	}

	return nil
}

func (m *mockHandle) stopCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stops
}
