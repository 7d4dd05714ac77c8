package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/device"
	"github.com/book-expert/vridge/internal/objectstore"
)

const playbackFilePattern = "vridge-play-*"

// blobFetcher downloads stored objects by key.
type blobFetcher interface {
	Fetch(ctx context.Context, objectPath string) ([]byte, error)
}

// blobPlayer hands nats:// storage URLs, which external players cannot
// open, to the player as a downloaded temporary file. Other sources pass
// through unchanged.
type blobPlayer struct {
	ctx    context.Context
	player device.Player
	blob   blobFetcher
	dir    string
	log    *logger.Logger
}

func (p *blobPlayer) Play(source string, onDone func()) (device.Playback, error) {
	key, ok := objectstore.KeyFromURL(source)
	if !ok {
		return p.player.Play(source, onDone)
	}

	path, err := p.download(key)
	if err != nil {
		return nil, err
	}

	var once sync.Once

	cleanup := func() {
		once.Do(func() {
			removeErr := os.Remove(path)
			if removeErr != nil && !errors.Is(removeErr, fs.ErrNotExist) {
				p.log.Warn("Failed to remove %s: %v", path, removeErr)
			}
		})
	}

	playback, err := p.player.Play(path, func() {
		cleanup()

		if onDone != nil {
			onDone()
		}
	})
	if err != nil {
		cleanup()

		return nil, err
	}

	return &tempPlayback{Playback: playback, cleanup: cleanup}, nil
}

func (p *blobPlayer) download(key string) (string, error) {
	data, err := p.blob.Fetch(p.ctx, key)
	if err != nil {
		return "", err
	}

	file, err := os.CreateTemp(p.dir, playbackFilePattern+filepath.Ext(key))
	if err != nil {
		return "", fmt.Errorf("failed to create playback file: %w", err)
	}

	_, err = file.Write(data)

	closeErr := file.Close()
	if err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(file.Name())

		return "", fmt.Errorf("failed to write playback file: %w", err)
	}

	return file.Name(), nil
}

// tempPlayback removes the downloaded file when playback is stopped.
type tempPlayback struct {
	device.Playback

	cleanup func()
}

func (t *tempPlayback) Stop() error {
	err := t.Playback.Stop()
	t.cleanup()

	return err
}
