package repository

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/api"
	"github.com/book-expert/vridge/internal/core"
)

// SessionAPI is the part of the REST API the session repository uses.
type SessionAPI interface {
	Login(ctx context.Context, req api.LoginRequest) error
	Unregister(ctx context.Context, req api.UIDRequest) error
	GetUserInfo(ctx context.Context, uid string) (core.User, error)
}

// Authenticator is an identity provider that can take a fresh identity token.
type Authenticator interface {
	core.IdentityProvider
	SignIn(idToken string) (core.Identity, error)
}

// SessionRepository wraps login, logout, account deletion and the current
// user. State-changing operations report plain booleans; reads return errors.
type SessionRepository struct {
	api    SessionAPI
	auth   Authenticator
	tokens core.TokenStore
	log    *logger.Logger
}

// NewSessionRepository creates a SessionRepository.
func NewSessionRepository(
	sessionAPI SessionAPI,
	auth Authenticator,
	tokens core.TokenStore,
	log *logger.Logger,
) *SessionRepository {
	return &SessionRepository{
		api:    sessionAPI,
		auth:   auth,
		tokens: tokens,
		log:    log,
	}
}

// Login signs idToken into the identity provider and registers it, together
// with the stored message token, with the server. Any failure yields false.
func (r *SessionRepository) Login(ctx context.Context, idToken string) bool {
	identity, err := r.auth.SignIn(idToken)
	if err != nil {
		r.log.Warn("Login rejected locally: %v", err)

		return false
	}

	req := api.LoginRequest{
		Token:    idToken,
		FcmToken: r.tokens.GetToken(),
	}

	err = r.api.Login(ctx, req)
	if err != nil {
		r.log.Warn("Login failed for %s: %v", identity.UID, err)
		r.signOutQuietly()

		return false
	}

	r.log.Info("Logged in as %s", identity.UID)

	return true
}

// Unregister asks the server to delete the current account.
func (r *SessionRepository) Unregister(ctx context.Context) bool {
	uid, err := uidOf(r.auth)
	if err != nil {
		r.log.Warn("Unregister without identity")

		return false
	}

	err = r.api.Unregister(ctx, api.UIDRequest{UID: uid})
	if err != nil {
		r.log.Warn("Unregister failed for %s: %v", uid, err)

		return false
	}

	r.log.Info("Unregistered %s", uid)

	return true
}

// CurrentIdentity returns the signed-in identity, if any.
func (r *SessionRepository) CurrentIdentity() (core.Identity, bool) {
	return r.auth.Current()
}

// SignOut forgets the current identity.
func (r *SessionRepository) SignOut() {
	r.signOutQuietly()
}

// UID returns the current user id, or "" when nobody is signed in.
func (r *SessionRepository) UID() string {
	identity, ok := r.auth.Current()
	if !ok {
		return ""
	}

	return identity.UID
}

// GetUserInfo fetches the current user's account.
func (r *SessionRepository) GetUserInfo(ctx context.Context) (core.User, error) {
	uid, err := uidOf(r.auth)
	if err != nil {
		return core.User{}, err
	}

	user, err := r.api.GetUserInfo(ctx, uid)
	if err != nil {
		return core.User{}, fmt.Errorf("failed to get user info: %w", err)
	}

	return user, nil
}

// SetMessageToken stores the push message token.
func (r *SessionRepository) SetMessageToken(token string) bool {
	return r.tokens.SetToken(token)
}

func (r *SessionRepository) signOutQuietly() {
	err := r.auth.SignOut()
	if err != nil {
		r.log.Warn("Sign out failed: %v", err)
	}
}
