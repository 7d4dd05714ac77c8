package main

import (
	"context"
	"errors"
	"time"

	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/message"
	"github.com/book-expert/vridge/internal/workflow"
	"github.com/spf13/cobra"
)

// Positional argument counts of the talk commands.
const (
	sendMinArgs   = 2
	utteranceArgs = 2
)

func (c *cli) talkCommand() *cobra.Command {
	talk := &cobra.Command{
		Use:   "talk",
		Short: "Make a voice speak",
	}

	talk.AddCommand(
		c.talkListCommand(),
		c.talkSendCommand(),
		c.talkURLCommand(),
		c.talkPlayCommand(),
	)

	return talk
}

func (c *cli) talkController(ctx context.Context, vid string) *workflow.TalkController {
	return workflow.NewTalkController(c.app.talks, c.app.player(ctx), c.reporter(), vid, c.app.log)
}

func (c *cli) talkListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <vid>",
		Short: "Show a voice and everything it has said",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			talk := c.talkController(cmd.Context(), args[0])

			err := talk.Load(cmd.Context())
			if err != nil {
				return err
			}

			return c.out.emit(talk.Snapshot().Data)
		},
	}
}

func (c *cli) talkSendCommand() *cobra.Command {
	var (
		wait    bool
		timeout = defaultWaitTimeout
	)

	cmd := &cobra.Command{
		Use:   "send <vid> <text...>",
		Short: "Ask a voice to say something",
		Args:  cobra.MinimumNArgs(sendMinArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			talk := c.talkController(cmd.Context(), args[0])

			err := talk.SendMessage(cmd.Context(), joinArgs(args[1:]))
			if err != nil {
				return err
			}

			talks := talk.Snapshot().Data.Talks
			sent := talks[len(talks)-1]

			if wait {
				c.out.hint(c.text(message.MessagePending, nil))

				ctx, cancel := waitContext(cmd.Context(), timeout)
				defer cancel()

				sent.Tts, err = c.app.talks.WaitReady(ctx, args[0], sent.ID, c.app.cfg.PollInterval())
				if err != nil {
					if !errors.Is(err, ctx.Err()) {
						c.report(err)
					}

					return err
				}
			}

			return c.out.emit(sent)
		},
	}

	cmd.Flags().BoolVar(&wait, flagWait, false, "wait until the utterance is ready")
	cmd.Flags().DurationVar(&timeout, flagTimeout, defaultWaitTimeout, "how long to wait, 0 waits forever")

	return cmd
}

func (c *cli) talkURLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "url <vid> <tid>",
		Short: "Print a download URL for an utterance",
		Args:  cobra.ExactArgs(utteranceArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			url, err := c.app.talks.GetTtsURL(cmd.Context(), args[0], args[1])
			if err == nil && url == "" {
				err = core.ErrUnauthenticated
			}

			if err != nil {
				c.report(err)

				return err
			}

			return c.out.emit(map[string]string{"url": url})
		},
	}
}

func (c *cli) talkPlayCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "play <vid> <tid>",
		Short: "Play an utterance through the configured player",
		Args:  cobra.ExactArgs(utteranceArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			talk := c.talkController(cmd.Context(), args[0])

			err := talk.Play(cmd.Context(), args[1])
			if err != nil {
				return err
			}

			return waitPlayback(cmd.Context(), talk)
		},
	}
}

// waitPlayback blocks until talk stops playing or ctx ends.
func waitPlayback(ctx context.Context, talk *workflow.TalkController) error {
	ticker := time.NewTicker(playbackPoll)
	defer ticker.Stop()

	for talk.Snapshot().Data.Playing != "" {
		select {
		case <-ctx.Done():
			return talk.StopPlay()
		case <-ticker.C:
		}
	}

	return nil
}
