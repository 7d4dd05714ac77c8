// Package repository turns the REST API, blob storage and identity provider
// into the operations the vridge workflows are built from: user session,
// voice recording and synthesis, and text-to-speech talks.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/vridge/internal/core"
	"github.com/google/uuid"
)

var (
	// ErrPathEmpty indicates that a recording session was started without a directory.
	ErrPathEmpty = errors.New("recording path cannot be empty")
	// ErrPlaceholderID indicates an attempt to resolve audio for an unconfirmed utterance.
	ErrPlaceholderID = errors.New("utterance has no confirmed id")
	// ErrIntervalInvalid indicates a non-positive polling interval.
	ErrIntervalInvalid = errors.New("poll interval must be positive")
)

// newID returns a random identifier with the hyphens stripped.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// uidOf returns the current user id or ErrUnauthenticated.
func uidOf(provider core.IdentityProvider) (string, error) {
	identity, ok := provider.Current()
	if !ok || identity.UID == "" {
		return "", core.ErrUnauthenticated
	}

	return identity.UID, nil
}

// poll calls check every interval until it reports done, fails, or ctx ends.
// The first check runs immediately.
func poll(ctx context.Context, interval time.Duration, check func(context.Context) (bool, error)) error {
	if interval <= 0 {
		return ErrIntervalInvalid
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, err := check(ctx)
		if err != nil {
			return err
		}

		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("stopped waiting: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}
