// Package notify delivers push notifications over NATS. Each installation
// listens on its own subject derived from its message token.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/events"
	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const handleMessageTimeout = 30 * time.Second

var (
	// ErrSubjectPrefixEmpty indicates that no subject prefix was configured.
	ErrSubjectPrefixEmpty = errors.New("notify subject prefix cannot be empty")
	// ErrTokenNotStored indicates that a new message token could not be persisted.
	ErrTokenNotStored = errors.New("failed to store message token")
	// ErrNotificationIncomplete indicates a notification without title or message.
	ErrNotificationIncomplete = errors.New("notification needs a title and a message")
)

// Notification is a push message, typically telling the user that a voice
// or an utterance is ready.
type Notification struct {
	Header  events.EventHeader `json:"header"`
	Title   string             `json:"title"`
	Message string             `json:"message"`
	VID     string             `json:"vid,omitempty"`
	TID     string             `json:"tid,omitempty"`
}

// Handler receives notifications.
type Handler interface {
	Handle(ctx context.Context, notification Notification)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, notification Notification)

// Handle calls f(ctx, notification).
func (f HandlerFunc) Handle(ctx context.Context, notification Notification) {
	f(ctx, notification)
}

// Listener subscribes to the notifications of this installation.
type Listener struct {
	natsConnection *nats.Conn
	subjectPrefix  string
	tokens         core.TokenStore
	handler        Handler
	log            *logger.Logger
}

// NewListener creates a Listener.
func NewListener(
	natsConnection *nats.Conn,
	subjectPrefix string,
	tokens core.TokenStore,
	handler Handler,
	log *logger.Logger,
) (*Listener, error) {
	if strings.TrimSpace(subjectPrefix) == "" {
		return nil, ErrSubjectPrefixEmpty
	}

	return &Listener{
		natsConnection: natsConnection,
		subjectPrefix:  strings.TrimSuffix(subjectPrefix, "."),
		tokens:         tokens,
		handler:        handler,
		log:            log,
	}, nil
}

// EnsureToken returns the stored message token, creating and storing a new
// one on first use.
func (l *Listener) EnsureToken() (string, error) {
	token := l.tokens.GetToken()
	if token != "" {
		return token, nil
	}

	token = strings.ReplaceAll(uuid.NewString(), "-", "")
	if !l.tokens.SetToken(token) {
		return "", ErrTokenNotStored
	}

	l.log.Info("New message token issued")

	return token, nil
}

// Subject returns the subject notifications for token arrive on.
func (l *Listener) Subject(token string) string {
	return l.subjectPrefix + "." + token
}

// Run listens until ctx is done, then drains the subscription.
func (l *Listener) Run(ctx context.Context) error {
	token, err := l.EnsureToken()
	if err != nil {
		return err
	}

	subject := l.Subject(token)

	sub, err := l.natsConnection.Subscribe(subject, l.handleMessage)
	if err != nil {
		return fmt.Errorf("failed to subscribe to subject %s: %w", subject, err)
	}

	l.log.Info("Listening for notifications on %s", subject)

	<-ctx.Done()

	drainErr := sub.Drain()
	if drainErr != nil {
		return fmt.Errorf("failed to drain subscription: %w", drainErr)
	}

	return nil
}

func (l *Listener) handleMessage(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), handleMessageTimeout)
	defer cancel()

	notification, err := parseNotification(msg.Data)
	if err != nil {
		l.log.Warn("Dropping notification: %v", err)

		return
	}

	l.handler.Handle(ctx, notification)

	if msg.Reply != "" {
		respondErr := msg.Respond(nil)
		if respondErr != nil {
			l.log.Error("Failed to acknowledge notification %s: %v", notification.Header.EventID, respondErr)
		}
	}
}

func parseNotification(data []byte) (Notification, error) {
	var notification Notification

	err := json.Unmarshal(data, &notification)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.Title == "" || notification.Message == "" {
		return Notification{}, ErrNotificationIncomplete
	}

	return notification, nil
}
