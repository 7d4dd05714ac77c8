package main

import (
	"errors"
	"fmt"

	"github.com/book-expert/vridge/internal/message"
	"github.com/book-expert/vridge/internal/workflow"
	"github.com/spf13/cobra"
)

func (c *cli) voiceCommand() *cobra.Command {
	voice := &cobra.Command{
		Use:   "voice",
		Short: "List, record and synthesize voices",
	}

	voice.AddCommand(
		c.voiceListCommand(),
		c.voiceShowCommand(),
		c.voiceRecordCommand(),
		c.voiceSynthCommand(),
		c.voicePendingCommand(),
		c.voiceDiscardCommand(),
		c.voiceWaitCommand(),
	)

	return voice
}

func (c *cli) voiceListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the voices of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list := workflow.NewVoiceListController(c.app.voices, c.reporter(), c.app.log)

			err := list.Load(cmd.Context())
			if err != nil {
				return err
			}

			state := list.Snapshot()
			if state.Phase == workflow.PhaseEmpty {
				c.out.hint("no voices yet")
			}

			return c.out.emit(c.voiceRows(state.Data))
		},
	}
}

func (c *cli) voiceShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <vid>",
		Short: "Show one voice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			voice, err := c.app.voices.GetVoice(cmd.Context(), args[0])
			if err != nil {
				c.report(err)

				return err
			}

			return c.out.emit(c.voiceRow(voice))
		},
	}
}

func (c *cli) voiceSynthCommand() *cobra.Command {
	var (
		name  string
		pitch int
	)

	cmd := &cobra.Command{
		Use:   "synth <vid> <vid>",
		Short: "Blend two voices into a new one",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list := workflow.NewVoiceListController(c.app.voices, c.reporter(), c.app.log)

			placeholder, err := list.Synthesize(cmd.Context(), args, name, pitch)
			if err != nil {
				return err
			}

			c.out.success(c.text(message.SynthSubmitted, map[string]any{"Name": placeholder.Name}))

			return c.out.emit(c.voiceRow(placeholder))
		},
	}

	cmd.Flags().StringVar(&name, flagName, "", "name of the new voice")
	cmd.Flags().IntVar(&pitch, flagPitch, 0, fmt.Sprintf("pitch shift in [%d, %d]", workflow.MinPitch, workflow.MaxPitch))

	return cmd
}

func (c *cli) voicePendingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "Show the unfinished recording kept by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := c.app.voices.PendingRecording(cmd.Context())
			if err != nil {
				c.report(err)

				return err
			}

			return c.out.emit(map[string]any{"vid": status.VID, "index": status.Index})
		},
	}
}

func (c *cli) voiceDiscardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Drop the unfinished recording kept by the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			err := c.app.voices.DiscardPendingRecording(cmd.Context())
			if err != nil {
				c.report(err)

				return err
			}

			c.out.success("pending recording discarded")

			return nil
		},
	}
}

func (c *cli) voiceWaitCommand() *cobra.Command {
	var timeout = defaultWaitTimeout

	cmd := &cobra.Command{
		Use:   "wait <vid>",
		Short: "Wait until a voice is ready",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := waitContext(cmd.Context(), timeout)
			defer cancel()

			voice, err := c.app.voices.WaitReady(ctx, args[0], c.app.cfg.PollInterval())
			if err != nil {
				if !errors.Is(err, ctx.Err()) {
					c.report(err)
				}

				return err
			}

			c.out.success(c.text(message.VoiceReady, nil))

			return c.out.emit(c.voiceRow(voice))
		},
	}

	cmd.Flags().DurationVar(&timeout, flagTimeout, defaultWaitTimeout, "how long to wait, 0 waits forever")

	return cmd
}
