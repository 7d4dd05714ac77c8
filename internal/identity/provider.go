// Package identity holds the identity of the signed-in user, derived from the
// identity token issued by the authentication provider.
package identity

import (
	"errors"
	"fmt"
	"sync"

	"github.com/book-expert/logger"
	"github.com/book-expert/vridge/internal/core"
	"github.com/golang-jwt/jwt/v5"
)

// KeyIdentityToken is the preference key holding the last identity token.
const KeyIdentityToken = "identity_token"

var (
	// ErrTokenEmpty indicates that no identity token was supplied.
	ErrTokenEmpty = errors.New("identity token cannot be empty")
	// ErrSubjectMissing indicates a token without a user id.
	ErrSubjectMissing = errors.New("identity token has no subject")
)

// Preferences is the persistence the provider needs.
type Preferences interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(key string) error
}

// claims are the identity token fields the client cares about.
type claims struct {
	Email  string `json:"email,omitempty"`
	Name   string `json:"name,omitempty"`
	UserID string `json:"user_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider implements core.IdentityProvider on top of identity tokens.
// With a signing key the token signature is verified (HS256); without one
// the token is only decoded and the server remains the verifier.
type JWTProvider struct {
	mu         sync.RWMutex
	prefs      Preferences
	signingKey []byte
	log        *logger.Logger
	current    *core.Identity
}

// NewJWTProvider creates a provider and restores the persisted identity, if
// one is stored and still parses. A stored token that no longer parses is
// forgotten.
func NewJWTProvider(prefs Preferences, signingKey string, log *logger.Logger) *JWTProvider {
	p := &JWTProvider{prefs: prefs, log: log}
	if signingKey != "" {
		p.signingKey = []byte(signingKey)
	}

	token, err := prefs.Get(KeyIdentityToken)
	if err != nil || token == "" {
		return p
	}

	identity, err := p.parse(token)
	if err != nil {
		p.log.Warn("Stored identity dropped: %v", err)

		deleteErr := prefs.Delete(KeyIdentityToken)
		if deleteErr != nil {
			p.log.Warn("Failed to forget stored identity: %v", deleteErr)
		}

		return p
	}

	p.current = &identity

	return p
}

// SignIn parses idToken and makes it the current identity.
func (p *JWTProvider) SignIn(idToken string) (core.Identity, error) {
	identity, err := p.parse(idToken)
	if err != nil {
		return core.Identity{}, err
	}

	err = p.prefs.Set(KeyIdentityToken, idToken)
	if err != nil {
		return core.Identity{}, fmt.Errorf("failed to persist identity: %w", err)
	}

	p.mu.Lock()
	p.current = &identity
	p.mu.Unlock()

	return identity, nil
}

// Current returns the signed-in identity.
func (p *JWTProvider) Current() (core.Identity, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.current == nil {
		return core.Identity{}, false
	}

	return *p.current, true
}

// SignOut forgets the current identity.
func (p *JWTProvider) SignOut() error {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()

	err := p.prefs.Delete(KeyIdentityToken)
	if err != nil {
		return fmt.Errorf("failed to forget identity: %w", err)
	}

	return nil
}

func (p *JWTProvider) parse(idToken string) (core.Identity, error) {
	if idToken == "" {
		return core.Identity{}, ErrTokenEmpty
	}

	var c claims

	if p.signingKey != nil {
		_, err := jwt.ParseWithClaims(idToken, &c, func(*jwt.Token) (any, error) {
			return p.signingKey, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			return core.Identity{}, fmt.Errorf("invalid identity token: %w", err)
		}
	} else {
		_, _, err := jwt.NewParser().ParseUnverified(idToken, &c)
		if err != nil {
			return core.Identity{}, fmt.Errorf("malformed identity token: %w", err)
		}
	}

	uid := c.Subject
	if uid == "" {
		uid = c.UserID
	}

	if uid == "" {
		return core.Identity{}, ErrSubjectMissing
	}

	return core.Identity{
		UID:   uid,
		Email: c.Email,
		Name:  c.Name,
		Token: idToken,
	}, nil
}
