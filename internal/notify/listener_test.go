// Package notify_test tests the notification listener.
package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/notify"
	"github.com/google/uuid"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockTokens is a mock token store.
type mockTokens struct {
	setShouldFail bool
	token         string
}

func (m *mockTokens) SetToken(token string) bool {
	if m.setShouldFail {
		return false
	}

	m.token = token

	return true
}

func (m *mockTokens) GetToken() string {
	return m.token
}

func createTestNatsClient(t *testing.T) *nats.Conn {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	server := test.RunServer(&opts)

	natsConnection, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	t.Cleanup(func() {
		natsConnection.Close()
		server.Shutdown()
	})

	return natsConnection
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	return log
}

func TestNewListener_RequiresPrefix(t *testing.T) {
	t.Parallel()

	_, err := notify.NewListener(nil, " ", &mockTokens{}, nil, newTestLogger(t))
	require.ErrorIs(t, err, notify.ErrSubjectPrefixEmpty)
}

func TestListener_EnsureToken(t *testing.T) {
	t.Parallel()

	t.Run("keeps the stored token", func(t *testing.T) {
		t.Parallel()

		listener, err := notify.NewListener(nil, "vridge.notify", &mockTokens{token: "abc"}, nil, newTestLogger(t))
		require.NoError(t, err)

		token, err := listener.EnsureToken()
		require.NoError(t, err)
		assert.Equal(t, "abc", token)
		assert.Equal(t, "vridge.notify.abc", listener.Subject(token))
	})

	t.Run("issues and stores a new token", func(t *testing.T) {
		t.Parallel()

		tokens := &mockTokens{}
		listener, err := notify.NewListener(nil, "vridge.notify.", tokens, nil, newTestLogger(t))
		require.NoError(t, err)

		token, err := listener.EnsureToken()
		require.NoError(t, err)
		assert.Len(t, token, 32)
		assert.Equal(t, token, tokens.token)
		assert.Equal(t, "vridge.notify."+token, listener.Subject(token))
	})

	t.Run("storage failure", func(t *testing.T) {
		t.Parallel()

		listener, err := notify.NewListener(nil, "p", &mockTokens{setShouldFail: true}, nil, newTestLogger(t))
		require.NoError(t, err)

		_, err = listener.EnsureToken()
		require.ErrorIs(t, err, notify.ErrTokenNotStored)
	})
}

func TestListener_DeliversNotifications(t *testing.T) {
	t.Parallel()

	natsConnection := createTestNatsClient(t)
	received := make(chan notify.Notification, 4)
	handler := notify.HandlerFunc(func(_ context.Context, notification notify.Notification) {
		received <- notification
	})

	tokens := &mockTokens{token: "device1"}
	listener, err := notify.NewListener(natsConnection, "vridge.notify", tokens, handler, newTestLogger(t))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errChan := make(chan error, 1)

	go func() {
		errChan <- listener.Run(ctx)
	}()

	incomplete := notify.Notification{Title: "no message"}
	ready := notify.Notification{
		Header: events.EventHeader{
			Timestamp:  time.Now(),
			WorkflowID: uuid.NewString(),
			EventID:    uuid.NewString(),
			UserID:     "u1",
		},
		Title:   "Voice ready",
		Message: "Your voice is ready",
		VID:     "v1",
	}

	require.Eventually(t, func() bool {
		if !publish(natsConnection, incomplete) || !publish(natsConnection, ready) {
			return false
		}

		select {
		case got := <-received:
			assert.Equal(t, "Voice ready", got.Title)
			assert.Equal(t, "v1", got.VID)
			assert.Equal(t, ready.Header.WorkflowID, got.Header.WorkflowID)

			return true
		case <-time.After(50 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 10*time.Millisecond)

	cancel()

	shutdownErr := <-errChan
	require.NoError(t, shutdownErr, "listener.Run should not error on graceful shutdown")

	for {
		select {
		case got := <-received:
			assert.NotEmpty(t, got.Message)
		default:
			return
		}
	}
}

func publish(natsConnection *nats.Conn, notification notify.Notification) bool {
	data, err := json.Marshal(notification)
	if err != nil {
		return false
	}

	err = natsConnection.Publish("vridge.notify.device1", data)
	if err != nil {
		return false
	}

	return natsConnection.Flush() == nil
}
