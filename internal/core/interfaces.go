// Package core defines the models, errors and collaborator interfaces shared
// by the vridge client.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	// URL resolves a location from which the object can be fetched.
	URL(ctx context.Context, key string) (string, error)
}

// IdentityProvider supplies the identity of the signed-in user.
type IdentityProvider interface {
	Current() (Identity, bool)
	SignOut() error
}

// TokenStore persists the push-notification message token.
type TokenStore interface {
	SetToken(token string) bool
	GetToken() string
}
