package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/book-expert/vridge/internal/fsutil"
	"github.com/book-expert/vridge/internal/message"
	"github.com/book-expert/vridge/internal/workflow"
	"github.com/spf13/cobra"
)

// Keys of the interactive recording loop.
const (
	keyRecord       = "r"
	keyStop         = "s"
	keyPlay         = "p"
	keyStopPlayback = "x"
	keyNext         = "n"
	keyQuit         = "q"
)

const sessionDirLayout = "20060102-150405"

// ErrInputClosed indicates that stdin ended before the recording finished.
var ErrInputClosed = errors.New("input closed before the recording finished")

// ErrRecordingAbandoned indicates that the user quit the recording.
var ErrRecordingAbandoned = errors.New("recording abandoned")

// ErrBatchNeedsImport indicates --batch without prepared takes.
var ErrBatchNeedsImport = errors.New("--batch requires --import")

func (c *cli) voiceRecordCommand() *cobra.Command {
	var (
		importDir string
		batch     bool
		name      string
		pitch     int
	)

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Record the prompts of a new voice",
		Long: "Record the prompts of a new voice. With --import, prepared takes named " +
			"like the segment files are read from a directory instead of the microphone; " +
			"--batch then walks every prompt without asking.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if batch && importDir == "" {
				return ErrBatchNeedsImport
			}

			recorder, err := c.app.recorder(importDir)
			if err != nil {
				return err
			}

			flow := workflow.NewRecordingController(
				c.app.voices, recorder, c.app.player(cmd.Context()), c.reporter(), c.app.log,
			)

			dir := filepath.Join(c.app.recordingsDir(), sessionDirName(time.Now(), name))

			err = flow.Begin(dir)
			if err != nil {
				return err
			}

			input := bufio.NewScanner(c.stdin)

			if batch {
				err = c.recordImported(cmd.Context(), flow)
			} else {
				err = c.recordInteractive(cmd.Context(), flow, input)
			}

			if err != nil {
				return err
			}

			return c.submitRecording(cmd.Context(), flow, input, name, pitch)
		},
	}

	cmd.Flags().StringVar(&importDir, flagImport, "", "directory with prepared takes")
	cmd.Flags().BoolVar(&batch, flagBatch, false, "upload every prepared take without prompting")
	cmd.Flags().StringVar(&name, flagName, "", "name of the new voice, asked for when empty")
	cmd.Flags().IntVar(&pitch, flagPitch, 0, fmt.Sprintf("pitch shift in [%d, %d]", workflow.MinPitch, workflow.MaxPitch))

	return cmd
}

// recordImported walks every prompt without user interaction.
func (c *cli) recordImported(ctx context.Context, flow *workflow.RecordingController) error {
	for flow.Snapshot().Phase != workflow.Finishing {
		c.prompt(flow.Snapshot())

		err := flow.StartRecord()
		if err == nil {
			err = flow.StopRecord()
		}

		if err == nil {
			err = flow.Next(ctx)
		}

		if err != nil {
			return err
		}
	}

	return nil
}

// recordInteractive reads one key per line until every prompt is uploaded.
func (c *cli) recordInteractive(ctx context.Context, flow *workflow.RecordingController, input *bufio.Scanner) error {
	c.out.hint(c.text(message.RecordHelp, nil))
	c.prompt(flow.Snapshot())

	for flow.Snapshot().Phase != workflow.Finishing {
		if !input.Scan() {
			_ = flow.Abandon(context.WithoutCancel(ctx))

			return ErrInputClosed
		}

		before := flow.Snapshot().Index

		var err error

		switch strings.TrimSpace(input.Text()) {
		case keyRecord:
			err = flow.StartRecord()
		case keyStop:
			err = flow.StopRecord()
		case keyPlay:
			err = flow.StartPlayback()
		case keyStopPlayback:
			err = flow.StopPlayback()
		case keyNext:
			err = flow.Next(ctx)
		case keyQuit:
			_ = flow.Abandon(ctx)

			return ErrRecordingAbandoned
		default:
			c.out.hint(c.text(message.RecordHelp, nil))

			continue
		}

		if errors.Is(err, workflow.ErrInvalidTransition) {
			c.out.warn(err.Error())

			continue
		}

		snapshot := flow.Snapshot()
		if err == nil && snapshot.Phase != workflow.Finishing {
			if snapshot.Index != before {
				c.prompt(snapshot)
			} else {
				c.out.hint(snapshot.Phase.String())
			}
		}
	}

	return nil
}

// submitRecording names the voice, asking on stdin when name is empty.
func (c *cli) submitRecording(
	ctx context.Context,
	flow *workflow.RecordingController,
	input *bufio.Scanner,
	name string,
	pitch int,
) error {
	c.out.title(c.text(message.RecordFinishing, nil))

	for {
		if strings.TrimSpace(name) == "" {
			fmt.Fprint(c.stderr, "name: ")

			if !input.Scan() {
				return ErrInputClosed
			}

			name = input.Text()
		}

		err := flow.Submit(ctx, name, pitch)
		if err == nil {
			c.out.success(c.text(message.RecordSubmitted, nil))

			return nil
		}

		if !errors.Is(err, workflow.ErrNameEmpty) {
			return err
		}

		name = ""
	}
}

// sessionDirName names a recording directory after its start time and,
// when known up front, the voice name.
func sessionDirName(started time.Time, name string) string {
	dirName := started.Format(sessionDirLayout)

	name = strings.TrimSpace(name)
	if name == "" {
		return dirName
	}

	return dirName + "-" + fsutil.SanitizeFilename(name)
}

func (c *cli) prompt(snapshot workflow.RecordingSnapshot) {
	c.out.title(c.text(message.RecordPrompt, map[string]any{
		"Index":  strconv.Itoa(snapshot.Index),
		"Count":  strconv.Itoa(snapshot.Count),
		"Script": snapshot.Script,
	}))
}
