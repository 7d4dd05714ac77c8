package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
)

// selectionSize is how many source voices a synthesis blends.
const selectionSize = 2

// VoiceCatalog is the voice repository as the voice list sees it.
type VoiceCatalog interface {
	GetVoiceList(ctx context.Context) ([]core.Voice, error)
	Synthesize(ctx context.Context, vids []string, name string, pitch int) (core.Voice, error)
}

// VoiceListController shows the user's voices and blends two of them into
// a new one.
type VoiceListController struct {
	catalog  VoiceCatalog
	reporter Reporter
	log      *logger.Logger

	mu    sync.Mutex
	state State[[]core.Voice]
}

// NewVoiceListController creates a VoiceListController.
func NewVoiceListController(catalog VoiceCatalog, reporter Reporter, log *logger.Logger) *VoiceListController {
	return &VoiceListController{
		catalog:  catalog,
		reporter: reporter,
		log:      log,
		state:    Loading[[]core.Voice](),
	}
}

// Snapshot returns a copy of the current state.
func (c *VoiceListController) Snapshot() State[[]core.Voice] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.state
	snapshot.Data = append([]core.Voice(nil), c.state.Data...)

	return snapshot
}

// Load fetches the voice list. Voices that are still being built are listed
// like any other; Voice.Ready tells whether they can be used.
func (c *VoiceListController) Load(ctx context.Context) error {
	c.setState(Loading[[]core.Voice]())

	voices, err := c.catalog.GetVoiceList(ctx)
	if err != nil {
		c.setState(Empty[[]core.Voice]())
		c.log.Warn("Voice list: %v", err)
		c.reporter.Report(err)

		return fmt.Errorf("failed to load voices: %w", err)
	}

	if len(voices) == 0 {
		c.setState(Empty[[]core.Voice]())

		return nil
	}

	c.setState(Success(voices))

	return nil
}

// Synthesize blends exactly two distinct voices into a new one named name.
// The new voice is listed right away as not ready.
func (c *VoiceListController) Synthesize(ctx context.Context, vids []string, name string, pitch int) (core.Voice, error) {
	err := validateSelection(vids)
	if err == nil {
		err = ValidatePitch(pitch)
	}

	if err == nil && strings.TrimSpace(name) == "" {
		err = ErrNameEmpty
	}

	if err != nil {
		c.reporter.Report(err)

		return core.Voice{}, err
	}

	placeholder, err := c.catalog.Synthesize(ctx, vids, strings.TrimSpace(name), pitch)
	if err != nil {
		c.reporter.Report(err)

		return core.Voice{}, fmt.Errorf("failed to synthesize voice: %w", err)
	}

	c.mu.Lock()
	voices := append(append([]core.Voice(nil), c.state.Data...), placeholder)
	c.state = Success(voices)
	c.mu.Unlock()

	return placeholder, nil
}

func validateSelection(vids []string) error {
	if len(vids) != selectionSize {
		return fmt.Errorf("%w: got %d", ErrSelectionSize, len(vids))
	}

	if vids[0] == "" || vids[1] == "" || vids[0] == vids[1] {
		return ErrSelectionSize
	}

	return nil
}

func (c *VoiceListController) setState(state State[[]core.Voice]) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}
