package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/device"
	"github.com/book-expert/vridge/internal/text"
)

// TalkSource is the talk repository as the talk flow sees it.
type TalkSource interface {
	GetVoice(ctx context.Context, vid string) (core.Voice, error)
	GetTalks(ctx context.Context, vid string) ([]core.Tts, error)
	CreateTts(ctx context.Context, input, vid string) (core.Tts, error)
	GetTtsURL(ctx context.Context, vid, tid string) (string, error)
}

// Talk is one entry of the conversation. A pending entry has no id yet;
// Failed marks a pending entry whose creation was rejected.
type Talk struct {
	core.Tts `yaml:",inline"`

	Failed bool `json:"failed,omitempty" yaml:"failed,omitempty"`

	seq uint64
}

// Pending reports whether the server has not confirmed the entry yet.
func (t Talk) Pending() bool {
	return t.ID == "" && !t.Failed
}

// TalkView is the talk screen: the voice, its utterances and what is playing.
type TalkView struct {
	Voice   core.Voice `json:"voice"             yaml:"voice"`
	Talks   []Talk     `json:"talks"             yaml:"talks"`
	Playing string     `json:"playing,omitempty" yaml:"playing,omitempty"`
}

// TalkController runs a conversation with one voice. Sent text shows up at
// once as a pending entry, which is replaced by the server's record or
// marked failed.
type TalkController struct {
	source   TalkSource
	player   device.Player
	reporter Reporter
	log      *logger.Logger
	vid      string
	now      func() time.Time

	mu       sync.Mutex
	state    State[TalkView]
	seq      uint64
	playback device.Playback
	playGen  uint64
}

// NewTalkController creates a controller for voice vid.
func NewTalkController(
	source TalkSource,
	player device.Player,
	reporter Reporter,
	vid string,
	log *logger.Logger,
) *TalkController {
	return &TalkController{
		source:   source,
		player:   player,
		reporter: reporter,
		log:      log,
		vid:      vid,
		now:      time.Now,
		state:    Loading[TalkView](),
	}
}

// Snapshot returns a copy of the current state.
func (c *TalkController) Snapshot() State[TalkView] {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := c.state
	snapshot.Data.Talks = append([]Talk(nil), c.state.Data.Talks...)

	return snapshot
}

// Load fetches the voice and its history.
func (c *TalkController) Load(ctx context.Context) error {
	c.mu.Lock()
	c.state = Loading[TalkView]()
	c.mu.Unlock()

	voice, err := c.source.GetVoice(ctx, c.vid)
	if err != nil {
		c.setState(Empty[TalkView]())

		return c.fail(fmt.Errorf("failed to load voice: %w", err))
	}

	history, err := c.source.GetTalks(ctx, c.vid)
	if err != nil {
		c.setState(Empty[TalkView]())

		return c.fail(fmt.Errorf("failed to load talks: %w", err))
	}

	talks := make([]Talk, 0, len(history))
	for _, tts := range history {
		talks = append(talks, Talk{Tts: tts})
	}

	c.setState(Success(TalkView{Voice: voice, Talks: talks}))

	return nil
}

// SendMessage appends a pending entry for input, asks the server to
// synthesize it and swaps the entry for the confirmed record. On failure
// the entry stays and is marked Failed.
func (c *TalkController) SendMessage(ctx context.Context, input string) error {
	if strings.TrimSpace(input) == "" {
		return c.fail(text.ErrTextEmpty)
	}

	c.mu.Lock()
	c.seq++
	seq := c.seq
	view := c.state.Data
	view.Talks = append(append([]Talk(nil), view.Talks...), Talk{
		Tts: core.Tts{
			Text:      input,
			Timestamp: c.now().UnixMilli(),
			Status:    false,
		},
		seq: seq,
	})
	c.state = Success(view)
	c.mu.Unlock()

	tts, err := c.source.CreateTts(ctx, input, c.vid)

	c.mu.Lock()
	c.settleLocked(seq, tts, err)
	c.mu.Unlock()

	if err != nil {
		return c.fail(fmt.Errorf("failed to send message: %w", err))
	}

	c.log.Info("Message %s sent to voice %s", tts.ID, c.vid)

	return nil
}

// settleLocked resolves the pending entry seq.
func (c *TalkController) settleLocked(seq uint64, tts core.Tts, err error) {
	talks := c.state.Data.Talks

	for i := range talks {
		if talks[i].seq != seq {
			continue
		}

		if err != nil {
			talks[i].Failed = true
		} else {
			talks[i] = Talk{Tts: tts}
		}

		return
	}
}

// Play starts playback of utterance tid.
func (c *TalkController) Play(ctx context.Context, tid string) error {
	url, err := c.source.GetTtsURL(ctx, c.vid, tid)
	if err != nil {
		return c.fail(fmt.Errorf("failed to resolve audio: %w", err))
	}

	if url == "" {
		return c.fail(core.ErrUnauthenticated)
	}

	c.mu.Lock()
	previous := c.playback
	c.playback = nil
	c.playGen++
	gen := c.playGen
	c.state.Data.Playing = tid
	c.mu.Unlock()

	if previous != nil {
		_ = previous.Stop()
	}

	playback, err := c.player.Play(url, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		if c.playGen == gen {
			c.playback = nil
			c.state.Data.Playing = ""
		}
	})
	if err != nil {
		c.mu.Lock()
		if c.playGen == gen {
			c.state.Data.Playing = ""
		}
		c.mu.Unlock()

		return c.fail(fmt.Errorf("failed to play %s: %w", tid, err))
	}

	c.mu.Lock()
	current := c.playGen == gen && c.state.Data.Playing == tid
	if current {
		c.playback = playback
	}
	c.mu.Unlock()

	if !current {
		_ = playback.Stop()
	}

	return nil
}

// StopPlay stops the current playback, if any.
func (c *TalkController) StopPlay() error {
	c.mu.Lock()
	playback := c.playback
	c.playback = nil
	c.playGen++
	c.state.Data.Playing = ""
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

func (c *TalkController) setState(state State[TalkView]) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
}

func (c *TalkController) fail(err error) error {
	c.log.Warn("Talk flow: %v", err)
	c.reporter.Report(err)

	return err
}
