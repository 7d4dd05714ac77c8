package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/message"
	"github.com/book-expert/vridge/internal/notify"
	"github.com/book-expert/vridge/internal/workflow"
	"github.com/spf13/cobra"
)

// Flag names.
const (
	flagConfig  = "config"
	flagJSON    = "json"
	flagName    = "name"
	flagPitch   = "pitch"
	flagImport  = "import"
	flagBatch   = "batch"
	flagWait    = "wait"
	flagTimeout = "timeout"
)

const (
	defaultWaitTimeout = 10 * time.Minute
	playbackPoll       = 100 * time.Millisecond
)

var (
	// ErrLoginFailed indicates that the server did not accept the identity token.
	ErrLoginFailed = errors.New("login failed")
	// ErrUnregisterFailed indicates that the account could not be deleted.
	ErrUnregisterFailed = errors.New("unregister failed")
	// ErrTokenRejected indicates that the message token could not be stored.
	ErrTokenRejected = errors.New("message token was not stored")
)

// voiceRow is how a voice is printed.
type voiceRow struct {
	VID      string `json:"vid"      yaml:"vid"`
	Name     string `json:"name"     yaml:"name"`
	Pitch    int    `json:"pitch"    yaml:"pitch"`
	Language string `json:"language" yaml:"language"`
	Ready    bool   `json:"ready"    yaml:"ready"`
	State    string `json:"state"    yaml:"state"`
}

// cli holds the global flags and the app of one invocation.
type cli struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	configPath string
	jsonOutput bool

	open func(configPath string) (*app, error)
	app  *app
	out  *printer
}

func newCLI(stdin io.Reader, stdout, stderr io.Writer) *cli {
	return &cli{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		open:   openConfigured,
	}
}

func openConfigured(configPath string) (*app, error) {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return nil, err
	}

	a, err := openApp(cfg, log)
	if err != nil {
		log.Error("Failed to open app: %v", err)
		_ = log.Close()

		return nil, err
	}

	log.System("vridge started against %s", cfg.API.BaseURL)

	return a, nil
}

// execute runs one command line and releases the app afterwards.
func (c *cli) execute(ctx context.Context, args []string) error {
	root := c.rootCommand()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)

	if c.app != nil {
		closeErr := c.app.close()
		c.app = nil

		return errors.Join(err, closeErr)
	}

	return err
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "vridge",
		Short:         "Record, synthesize and talk with cloned voices",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			c.out = newPrinter(c.stdout, c.stderr, c.jsonOutput)

			if cmd.Name() == "help" {
				return nil
			}

			a, err := c.open(c.configPath)
			if err != nil {
				return err
			}

			c.app = a

			return nil
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.SetIn(c.stdin)
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)
	root.PersistentFlags().StringVar(&c.configPath, flagConfig, "", "path to the TOML configuration file")
	root.PersistentFlags().BoolVar(&c.jsonOutput, flagJSON, false, "print results as JSON instead of YAML")

	root.AddCommand(
		c.loginCommand(),
		c.logoutCommand(),
		c.unregisterCommand(),
		c.whoamiCommand(),
		c.tokenCommand(),
		c.voiceCommand(),
		c.talkCommand(),
		c.listenCommand(),
	)

	return root
}

// report is the workflow.Reporter of the CLI.
func (c *cli) report(err error) {
	c.out.failure(c.app.text.ForError(err))
}

func (c *cli) reporter() workflow.Reporter {
	return workflow.ReporterFunc(c.report)
}

func (c *cli) text(id string, data map[string]any) string {
	return c.app.text.Text(id, data)
}

func (c *cli) loginCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "login <identity-token>",
		Short: "Sign in with an identity token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !c.app.session.Login(cmd.Context(), args[0]) {
				c.out.failure(c.text(message.LoginFailed, nil))

				return ErrLoginFailed
			}

			c.out.success(c.text(message.LoginSucceeded, nil))

			identity, _ := c.app.session.CurrentIdentity()

			return c.out.emit(map[string]string{"uid": identity.UID, "email": identity.Email})
		},
	}
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			profile := workflow.NewProfileController(c.app.session, c.reporter(), c.app.log)
			profile.SignOut()
			c.out.success(c.text(message.LoggedOut, nil))

			return nil
		},
	}
}

func (c *cli) unregisterCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "unregister",
		Short: "Delete the account of the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := workflow.NewProfileController(c.app.session, c.reporter(), c.app.log)
			if !profile.Unregister(cmd.Context()) {
				c.out.failure(c.text(message.UnregisterFailed, nil))

				return ErrUnregisterFailed
			}

			c.out.success(c.text(message.UnregisterSucceeded, nil))

			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profile := workflow.NewProfileController(c.app.session, c.reporter(), c.app.log)

			err := profile.Load(cmd.Context())
			if err != nil {
				return err
			}

			return c.out.emit(profile.Snapshot().Data)
		},
	}
}

func (c *cli) tokenCommand() *cobra.Command {
	token := &cobra.Command{
		Use:   "token",
		Short: "Manage the push message token",
	}

	token.AddCommand(
		&cobra.Command{
			Use:   "get",
			Short: "Print the stored message token",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				return c.out.emit(map[string]string{"token": c.app.prefs.GetToken()})
			},
		},
		&cobra.Command{
			Use:   "set <token>",
			Short: "Store a message token",
			Args:  cobra.ExactArgs(1),
			RunE: func(_ *cobra.Command, args []string) error {
				if !c.app.session.SetMessageToken(args[0]) {
					return ErrTokenRejected
				}

				c.out.success("token stored")

				return nil
			},
		},
	)

	return token
}

func (c *cli) listenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print push notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			natsConn, err := c.app.nats()
			if err != nil {
				return err
			}

			handler := notify.HandlerFunc(func(_ context.Context, notification notify.Notification) {
				c.out.title(notification.Title)
				c.out.info(notification.Message)
			})

			listener, err := notify.NewListener(
				natsConn, c.app.cfg.NATS.NotifySubjectPrefix, c.app.prefs, handler, c.app.log,
			)
			if err != nil {
				return err
			}

			token, err := listener.EnsureToken()
			if err != nil {
				return err
			}

			c.out.hint("listening on " + listener.Subject(token))

			return listener.Run(cmd.Context())
		},
	}
}

func (c *cli) voiceRows(voices []core.Voice) []voiceRow {
	rows := make([]voiceRow, 0, len(voices))
	for _, voice := range voices {
		rows = append(rows, c.voiceRow(voice))
	}

	return rows
}

func (c *cli) voiceRow(voice core.Voice) voiceRow {
	state := c.text(message.VoicePending, nil)
	if voice.Ready() {
		state = c.text(message.VoiceReady, nil)
	}

	return voiceRow{
		VID:      voice.VID,
		Name:     voice.Name,
		Pitch:    voice.Pitch,
		Language: voice.Language,
		Ready:    voice.Ready(),
		State:    state,
	}
}

// waitContext bounds ctx by timeout when it is positive.
func waitContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, timeout)
}

func joinArgs(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}
