package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/api"
	"github.com/book-expert/vridge/internal/config"
	"github.com/book-expert/vridge/internal/core"
	"github.com/book-expert/vridge/internal/device"
	"github.com/book-expert/vridge/internal/fsutil"
	"github.com/book-expert/vridge/internal/identity"
	"github.com/book-expert/vridge/internal/message"
	"github.com/book-expert/vridge/internal/objectstore"
	"github.com/book-expert/vridge/internal/repository"
	"github.com/book-expert/vridge/internal/tokenstore"
	"github.com/nats-io/nats.go"
)

const (
	prefsDirName      = "prefs"
	recordingsDirName = "recordings"
	logsDirName       = "logs"
)

// ErrNATSUnavailable indicates a command that needs NATS while none is configured.
var ErrNATSUnavailable = errors.New("nats url is not configured")

// app is the composition root: every store, client and repository a
// command may use.
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	prefs   *tokenstore.Store
	auth    *identity.JWTProvider
	blob    *lazyBlob
	text    *message.Catalog
	session *repository.SessionRepository
	voices  *repository.VoiceRepository
	talks   *repository.TalkRepository

	natsOnce sync.Once
	natsConn *nats.Conn
	natsErr  error
}

// openApp opens the local stores and wires the repositories. Remote
// storage is connected on first use.
func openApp(cfg *config.Config, log *logger.Logger) (*app, error) {
	prefs, err := tokenstore.Open(filepath.Join(dataDir(cfg), prefsDirName))
	if err != nil {
		return nil, fmt.Errorf("failed to open preferences: %w", err)
	}

	a, err := assemble(cfg, log, prefs, nil)
	if err != nil {
		_ = prefs.Close()

		return nil, err
	}

	a.blob.open = a.openObjectStore

	return a, nil
}

// assemble wires an app around prefs. A non-nil store is used as blob
// storage instead of the configured backend.
func assemble(cfg *config.Config, log *logger.Logger, prefs *tokenstore.Store, store core.ObjectStore) (*app, error) {
	scripts, err := repository.LoadScripts(cfg.Paths.ScriptPath)
	if err != nil {
		return nil, err
	}

	catalog, err := message.New(cfg.Session.Locale)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	a := &app{
		cfg:   cfg,
		log:   log,
		prefs: prefs,
		auth:  identity.NewJWTProvider(prefs, cfg.Identity.SigningKey, log),
		text:  catalog,
	}

	a.blob = &lazyBlob{urlTTL: cfg.URLCacheTTL(), log: log}
	if store != nil {
		a.blob.open = func() (core.ObjectStore, error) { return store, nil }
	}

	client := api.NewClient(cfg.API.BaseURL, cfg.APITimeout())

	a.session = repository.NewSessionRepository(client, a.auth, prefs, log)
	a.voices = repository.NewVoiceRepository(client, a.blob, a.auth, scripts, cfg.Session.Language, log)
	a.talks = repository.NewTalkRepository(client, a.blob, a.auth, log)

	return a, nil
}

// close waits for background submissions and releases every resource,
// the logger included.
func (a *app) close() error {
	a.voices.Drain()

	if a.natsConn != nil {
		a.natsConn.Close()
	}

	var errs []error

	err := a.prefs.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close preferences: %w", err))
	}

	err = a.log.Close()
	if err != nil {
		errs = append(errs, fmt.Errorf("failed to close logger: %w", err))
	}

	return errors.Join(errs...)
}

// nats returns the shared NATS connection.
func (a *app) nats() (*nats.Conn, error) {
	a.natsOnce.Do(func() {
		if a.cfg.NATS.URL == "" {
			a.natsErr = ErrNATSUnavailable

			return
		}

		a.natsConn, a.natsErr = nats.Connect(a.cfg.NATS.URL, nats.Name("vridge"))
		if a.natsErr != nil {
			a.natsErr = fmt.Errorf("failed to connect to nats at %s: %w", a.cfg.NATS.URL, a.natsErr)
		}
	})

	return a.natsConn, a.natsErr
}

func (a *app) openObjectStore() (core.ObjectStore, error) {
	switch a.cfg.Storage.Backend {
	case config.BackendMinio:
		store, err := objectstore.NewMinio(objectstore.MinioOptions{
			Endpoint:  a.cfg.Minio.Endpoint,
			AccessKey: a.cfg.Minio.AccessKey,
			SecretKey: a.cfg.Minio.SecretKey,
			Bucket:    a.cfg.Minio.Bucket,
			Region:    a.cfg.Minio.Region,
			UseSSL:    a.cfg.Minio.UseSSL,
			URLExpiry: a.cfg.URLExpiry(),
		})
		if err != nil {
			return nil, err
		}

		return store, nil
	default:
		natsConn, err := a.nats()
		if err != nil {
			return nil, err
		}

		jetstreamContext, err := natsConn.JetStream()
		if err != nil {
			return nil, fmt.Errorf("failed to get jetstream context: %w", err)
		}

		store, err := objectstore.NewNats(jetstreamContext, a.cfg.NATS.ObjectStoreBucket, a.cfg.NATS.PublicBaseURL)
		if err != nil {
			return nil, err
		}

		return store, nil
	}
}

// recorder picks the import recorder when importDir is set, otherwise the
// configured capture command.
func (a *app) recorder(importDir string) (device.Recorder, error) {
	if importDir != "" {
		return device.NewImportRecorder(importDir), nil
	}

	recorder, err := device.NewCommandRecorder(a.cfg.Device.RecordCommand, a.log)
	if err != nil {
		return nil, fmt.Errorf("no record_command configured: %w", err)
	}

	return recorder, nil
}

// player returns the configured playback command, or a player that always
// fails when none is configured. Stored objects without a public URL are
// downloaded with ctx before they are played.
func (a *app) player(ctx context.Context) device.Player {
	player, err := device.NewCommandPlayer(a.cfg.Device.PlayCommand, a.log)
	if err != nil {
		return unavailablePlayer{}
	}

	return &blobPlayer{ctx: ctx, player: player, blob: a.blob, dir: os.TempDir(), log: a.log}
}

func (a *app) recordingsDir() string {
	if a.cfg.Paths.RecordingsDir != "" {
		return a.cfg.Paths.RecordingsDir
	}

	return filepath.Join(dataDir(a.cfg), recordingsDirName)
}

func dataDir(cfg *config.Config) string {
	if cfg.Paths.DataDir != "" {
		return cfg.Paths.DataDir
	}

	return fsutil.GetDataDir()
}

func logsDir(cfg *config.Config) string {
	if cfg.Paths.BaseLogsDir != "" {
		return cfg.Paths.BaseLogsDir
	}

	return filepath.Join(dataDir(cfg), logsDirName)
}

// lazyBlob connects the blob client on first use so that commands which
// never touch storage do not need it.
type lazyBlob struct {
	open   func() (core.ObjectStore, error)
	urlTTL time.Duration
	log    *logger.Logger

	mu     sync.Mutex
	client *objectstore.BlobClient
}

func (l *lazyBlob) get() (*objectstore.BlobClient, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.client != nil {
		return l.client, nil
	}

	store, err := l.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob storage: %w", err)
	}

	l.client = objectstore.NewBlobClient(store, l.urlTTL, l.log)

	return l.client, nil
}

func (l *lazyBlob) UploadFile(ctx context.Context, uid, vid, filename string, data []byte) error {
	client, err := l.get()
	if err != nil {
		return err
	}

	return client.UploadFile(ctx, uid, vid, filename, data)
}

func (l *lazyBlob) GetDownloadURL(ctx context.Context, objectPath string) (string, error) {
	client, err := l.get()
	if err != nil {
		return "", err
	}

	return client.GetDownloadURL(ctx, objectPath)
}

func (l *lazyBlob) Fetch(ctx context.Context, objectPath string) ([]byte, error) {
	client, err := l.get()
	if err != nil {
		return nil, err
	}

	return client.Fetch(ctx, objectPath)
}

// unavailablePlayer is used when no play_command is configured.
type unavailablePlayer struct{}

func (unavailablePlayer) Play(string, func()) (device.Playback, error) {
	return nil, fmt.Errorf("no play_command configured: %w", device.ErrCommandEmpty)
}
